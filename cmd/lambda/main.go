package main

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "net/http"
    "os"

    "github.com/aws/aws-lambda-go/events"
    "github.com/aws/aws-lambda-go/lambda"

    "stockprices/internal/api"
    "stockprices/internal/config"
    "stockprices/internal/wiring"
)

// envelope holds just enough of an incoming payload to tell its shape:
// an API Gateway REST (v1) proxy event carries httpMethod, an HTTP API (v2)
// or Function URL event carries version "2.0" and requestContext.http.method,
// and a direct invocation is {"symbols": "AAPL,MSFT"}.
type envelope struct {
    Version        string  `json:"version"`
    HTTPMethod     string  `json:"httpMethod"`
    Symbols        *string `json:"symbols"`
    RequestContext struct {
        HTTP struct {
            Method string `json:"method"`
        } `json:"http"`
    } `json:"requestContext"`
}

func (e envelope) isV2() bool {
    return e.Version == "2.0" || e.RequestContext.HTTP.Method != ""
}

type pricesFunc func(ctx context.Context, raw string, present bool) (int, any)

func main() {
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        slog.Error("config", "error", err)
        os.Exit(1)
    }
    logger := cfg.Log.NewLogger(os.Stdout)
    slog.SetDefault(logger)

    h := api.New(wiring.NewService(cfg, logger), api.Config{
        MaxSymbols:     cfg.Lookup.MaxSymbols,
        RequestTimeout: cfg.Server.RequestTimeout(),
    }, logger)
    lambda.Start(newHandler(h.Prices))
}

func newHandler(prices pricesFunc) func(context.Context, json.RawMessage) (any, error) {
    return func(ctx context.Context, payload json.RawMessage) (any, error) {
        var env envelope
        if err := json.Unmarshal(payload, &env); err != nil {
            return nil, invocationError{status: http.StatusBadRequest, msg: "decode payload: " + err.Error()}
        }
        switch {
        case env.HTTPMethod != "":
            var in events.APIGatewayProxyRequest
            if err := json.Unmarshal(payload, &in); err != nil {
                return nil, fmt.Errorf("decode proxy event: %w", err)
            }
            return proxy(ctx, prices, in)
        case env.isV2():
            var in events.APIGatewayV2HTTPRequest
            if err := json.Unmarshal(payload, &in); err != nil {
                return nil, fmt.Errorf("decode http api event: %w", err)
            }
            return proxyV2(ctx, prices, in)
        default:
            return direct(ctx, prices, env.Symbols)
        }
    }
}

// direct serves Lambda-to-Lambda invocations: the bare mapping on success,
// an invocation error otherwise.
func direct(ctx context.Context, prices pricesFunc, symbols *string) (any, error) {
    raw := ""
    if symbols != nil { raw = *symbols }
    status, body := prices(ctx, raw, symbols != nil)
    if status != http.StatusOK {
        if eb, ok := body.(api.ErrorBody); ok {
            return nil, invocationError{status: status, msg: eb.Error}
        }
        return nil, invocationError{status: status, msg: http.StatusText(status)}
    }
    return body, nil
}

var jsonHeaders = map[string]string{"Content-Type": "application/json; charset=utf-8"}

// respond runs the lookup for an HTTP-shaped event and returns status and
// encoded body.
func respond(ctx context.Context, prices pricesFunc, method string, query map[string]string) (int, string, error) {
    if method != http.MethodGet {
        b, _ := json.Marshal(api.ErrorBody{Error: "method not allowed"})
        return http.StatusMethodNotAllowed, string(b), nil
    }
    raw, present := query["symbols"]
    status, body := prices(ctx, raw, present)
    b, err := json.Marshal(body)
    if err != nil {
        return 0, "", err
    }
    return status, string(b), nil
}

func proxy(ctx context.Context, prices pricesFunc, in events.APIGatewayProxyRequest) (any, error) {
    status, body, err := respond(ctx, prices, in.HTTPMethod, in.QueryStringParameters)
    if err != nil {
        return nil, err
    }
    return events.APIGatewayProxyResponse{StatusCode: status, Headers: jsonHeaders, Body: body}, nil
}

func proxyV2(ctx context.Context, prices pricesFunc, in events.APIGatewayV2HTTPRequest) (any, error) {
    status, body, err := respond(ctx, prices, in.RequestContext.HTTP.Method, in.QueryStringParameters)
    if err != nil {
        return nil, err
    }
    return events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: jsonHeaders, Body: body}, nil
}

type invocationError struct {
    status int
    msg    string
}

func (e invocationError) Error() string { return fmt.Sprintf("%s (status %d)", e.msg, e.status) }
