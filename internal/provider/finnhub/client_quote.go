package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"stockprices/internal/provider"
)

// quoteResponse is the body of GET /quote. Only the current price is used;
// Finnhub answers unknown symbols with all fields set to 0.
type quoteResponse struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	PercentChange *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PreviousClose *float64 `json:"pc"`
	Timestamp     int64    `json:"t"`
}

// Quote returns the current price for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	if c.key == "" {
		return 0, provider.ErrNotConfigured
	}

	query := url.Values{}
	query.Set("symbol", strings.ToUpper(symbol))
	u := fmt.Sprintf("%s/quote?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Finnhub-Token", c.key)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: performing request: %w", provider.ErrTransport, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("%w: unauthorized", provider.ErrTransport)
	case res.StatusCode == http.StatusTooManyRequests:
		return 0, fmt.Errorf("%w: rate limited", provider.ErrTransport)
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return 0, fmt.Errorf("%w: unexpected status code %d: %s", provider.ErrTransport, res.StatusCode, strings.TrimSpace(string(b)))
	}

	var body quoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: reading quote response: %w", provider.ErrTransport, err)
		}
		return 0, fmt.Errorf("%w: decoding quote response: %w", provider.ErrInvalidData, err)
	}
	if body.Current == nil {
		return 0, fmt.Errorf("%w: current price missing", provider.ErrInvalidData)
	}
	if *body.Current == 0 {
		return 0, fmt.Errorf("%w: no price for %s", provider.ErrInvalidData, strings.ToUpper(symbol))
	}
	return *body.Current, nil
}
