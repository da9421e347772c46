package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"stockprices/internal/api"
	"stockprices/internal/lookup"
)

func fakePrices(ctx context.Context, raw string, present bool) (int, any) {
	switch {
	case !present:
		return http.StatusBadRequest, api.ErrorBody{Error: "missing symbols query param"}
	case raw == "FAIL":
		return http.StatusBadGateway, api.ErrorBody{Error: "all lookups failed: FAIL: invalid data"}
	case raw == "":
		return http.StatusOK, lookup.Prices{}
	default:
		return http.StatusOK, lookup.Prices{raw: 1.25}
	}
}

func decode(payload string) json.RawMessage { return json.RawMessage(payload) }

func TestHandler_Proxy(t *testing.T) {
	t.Parallel()

	h := newHandler(fakePrices)
	out, err := h(t.Context(), decode(`{"httpMethod":"GET","path":"/prices","queryStringParameters":{"symbols":"AAPL"}}`))
	require.NoError(t, err)

	res, ok := out.(events.APIGatewayProxyResponse)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"AAPL":1.25}`, res.Body)
}

func TestHandler_ProxyStatuses(t *testing.T) {
	t.Parallel()

	h := newHandler(fakePrices)

	out, err := h(t.Context(), decode(`{"httpMethod":"GET","path":"/prices","queryStringParameters":{"symbols":"FAIL"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, out.(events.APIGatewayProxyResponse).StatusCode)

	out, err = h(t.Context(), decode(`{"httpMethod":"GET","path":"/prices"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, out.(events.APIGatewayProxyResponse).StatusCode)

	out, err = h(t.Context(), decode(`{"httpMethod":"POST","path":"/prices"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, out.(events.APIGatewayProxyResponse).StatusCode)
}

func TestHandler_Direct(t *testing.T) {
	t.Parallel()

	h := newHandler(fakePrices)

	out, err := h(t.Context(), decode(`{"symbols":"AAPL"}`))
	require.NoError(t, err)
	require.Equal(t, lookup.Prices{"AAPL": 1.25}, out)

	out, err = h(t.Context(), decode(`{"symbols":""}`))
	require.NoError(t, err)
	require.Equal(t, lookup.Prices{}, out)

	_, err = h(t.Context(), decode(`{"symbols":"FAIL"}`))
	require.ErrorContains(t, err, "all lookups failed")

	_, err = h(t.Context(), decode(`{}`))
	require.ErrorContains(t, err, "missing symbols")
}

func TestHandler_HTTPAPIv2(t *testing.T) {
	t.Parallel()

	h := newHandler(fakePrices)
	out, err := h(t.Context(), decode(`{
		"version": "2.0",
		"routeKey": "GET /prices",
		"rawPath": "/prices",
		"rawQueryString": "symbols=AAPL",
		"queryStringParameters": {"symbols": "AAPL"},
		"requestContext": {"http": {"method": "GET", "path": "/prices"}}
	}`))
	require.NoError(t, err)

	res, ok := out.(events.APIGatewayV2HTTPResponse)
	require.True(t, ok, "got %T", out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json; charset=utf-8", res.Headers["Content-Type"])
	require.JSONEq(t, `{"AAPL":1.25}`, res.Body)
}

func TestHandler_FunctionURLStatuses(t *testing.T) {
	t.Parallel()

	h := newHandler(fakePrices)

	out, err := h(t.Context(), decode(`{"version":"2.0","requestContext":{"http":{"method":"GET"}}}`))
	require.NoError(t, err)
	res := out.(events.APIGatewayV2HTTPResponse)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.JSONEq(t, `{"error":"missing symbols query param"}`, res.Body)

	out, err = h(t.Context(), decode(`{"version":"2.0","queryStringParameters":{"symbols":"FAIL"},"requestContext":{"http":{"method":"GET"}}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, out.(events.APIGatewayV2HTTPResponse).StatusCode)

	out, err = h(t.Context(), decode(`{"version":"2.0","requestContext":{"http":{"method":"POST"}}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, out.(events.APIGatewayV2HTTPResponse).StatusCode)
}

func TestHandler_RejectsNonObjectPayload(t *testing.T) {
	t.Parallel()

	_, err := newHandler(fakePrices)(t.Context(), decode(`"AAPL"`))
	require.ErrorContains(t, err, "decode payload")
}
