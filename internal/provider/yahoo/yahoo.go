// Package yahoo quotes symbols from Yahoo Finance. It needs no credential.
package yahoo

import (
    "context"
    "fmt"
    "net/http"
    "strings"

    finance "github.com/piquette/finance-go"
    "github.com/piquette/finance-go/quote"

    "stockprices/internal/provider"
)

type getFunc func(symbol string) (*finance.Quote, error)

// Provider adapts finance-go's quote API to provider.Quoter.
type Provider struct {
    get getFunc
}

// New returns a Yahoo provider. When hc is non-nil it replaces finance-go's
// package-level HTTP client so its timeout bounds every call. The library
// has no per-client option, so call New once per process.
func New(hc *http.Client) *Provider {
    if hc != nil {
        finance.SetHTTPClient(hc)
    }
    return &Provider{get: quote.Get}
}

func (p *Provider) Name() string { return "yahoo" }

// Quote returns the regular market price for symbol. finance-go has no
// context support, so a cancelled ctx abandons the in-flight call.
func (p *Provider) Quote(ctx context.Context, symbol string) (float64, error) {
    symbol = strings.ToUpper(symbol)
    type result struct {
        q   *finance.Quote
        err error
    }
    ch := make(chan result, 1)
    go func() {
        q, err := p.get(symbol)
        ch <- result{q, err}
    }()

    var r result
    select {
    case <-ctx.Done():
        return 0, fmt.Errorf("%w: %w", provider.ErrTransport, ctx.Err())
    case r = <-ch:
    }
    if r.err != nil {
        return 0, fmt.Errorf("%w: yahoo quote: %w", provider.ErrTransport, r.err)
    }
    if r.q == nil {
        return 0, fmt.Errorf("%w: no quote for %s", provider.ErrInvalidData, symbol)
    }
    if r.q.RegularMarketPrice == 0 {
        return 0, fmt.Errorf("%w: no price for %s", provider.ErrInvalidData, symbol)
    }
    return r.q.RegularMarketPrice, nil
}
