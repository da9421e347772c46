package provider

import (
    "context"
    "errors"
    "math"
    "strings"
)

// Error kinds returned (wrapped) by every Quoter.
var (
    // ErrNotConfigured means the provider credential is missing.
    ErrNotConfigured = errors.New("credential not configured")
    // ErrTransport covers network failures, timeouts and non-2xx responses.
    ErrTransport = errors.New("transport error")
    // ErrInvalidData means the price field was absent, zero or unreadable.
    ErrInvalidData = errors.New("invalid data")
)

// Quoter fetches the latest price for a single symbol.
//
//go:generate mockgen -package=lookup_test -destination=../lookup/mock_quoter_test.go -source=provider.go Quoter
type Quoter interface {
    Name() string
    Quote(ctx context.Context, symbol string) (float64, error)
}

// Result is the outcome of one fetch. Exactly one of Price or Err is meaningful.
type Result struct {
    Symbol string
    Price  float64
    Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Fetch asks q for symbol and packs the outcome into a Result. A zero or
// non-finite price is reported as ErrInvalidData even if q returned no error.
func Fetch(ctx context.Context, q Quoter, symbol string) Result {
    price, err := q.Quote(ctx, Normalize(symbol))
    if err == nil && !Usable(price) {
        err = ErrInvalidData
    }
    if err != nil {
        return Result{Symbol: symbol, Err: err}
    }
    return Result{Symbol: symbol, Price: price}
}

// Usable reports whether price can be returned to callers. Zero is the
// upstream convention for "no data".
func Usable(price float64) bool {
    return price != 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}

// Kind names the error kind of err for diagnostics.
func Kind(err error) string {
    switch {
    case err == nil:
        return ""
    case errors.Is(err, ErrNotConfigured):
        return "configuration"
    case errors.Is(err, ErrTransport):
        return "transport"
    case errors.Is(err, ErrInvalidData):
        return "invalid_data"
    case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
        return "transport"
    default:
        return "unknown"
    }
}

// Normalize returns the form of symbol sent upstream.
func Normalize(symbol string) string {
    return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseSymbols splits a comma-separated list into trimmed, non-empty symbols,
// keeping input order and duplicates.
func ParseSymbols(raw string) []string {
    parts := strings.Split(raw, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
