package lookup

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "strings"
    "time"

    "golang.org/x/sync/errgroup"

    "stockprices/internal/provider"
)

// Prices maps each resolved symbol, as the caller spelled it, to its price.
type Prices map[string]float64

// Failure records why one symbol could not be priced.
type Failure struct {
    Symbol string
    Err    error
}

func (f Failure) String() string {
    return fmt.Sprintf("%s: %v", f.Symbol, f.Err)
}

// Report is the outcome of one lookup. A symbol is never in both Prices and
// Failures.
type Report struct {
    Prices   Prices
    Failures []Failure
}

// Err returns an *UpstreamFailure when symbols were requested and none
// resolved. Empty input is not a failure.
func (r Report) Err() error {
    if len(r.Prices) > 0 || len(r.Failures) == 0 {
        return nil
    }
    return &UpstreamFailure{Failures: r.Failures}
}

// UpstreamFailure means every requested symbol failed.
type UpstreamFailure struct {
    Failures []Failure
}

func (e *UpstreamFailure) Error() string {
    lines := make([]string, len(e.Failures))
    for i, f := range e.Failures {
        lines[i] = f.String()
    }
    return "all lookups failed: " + strings.Join(lines, "; ")
}

// Unwrap exposes the per-symbol causes to errors.Is.
func (e *UpstreamFailure) Unwrap() []error {
    errs := make([]error, len(e.Failures))
    for i, f := range e.Failures {
        errs[i] = f.Err
    }
    return errs
}

// IsUpstreamFailure reports whether err is an aggregate lookup failure.
func IsUpstreamFailure(err error) bool {
    var uf *UpstreamFailure
    return errors.As(err, &uf)
}

type Config struct {
    // MaxConcurrency bounds provider calls in flight for one lookup.
    // 1 or less fetches symbols one after another in input order.
    MaxConcurrency int
    // CallTimeout bounds each provider call. Zero means no extra bound.
    CallTimeout time.Duration
}

// Service resolves symbol lists against a single provider.
type Service struct {
    q      provider.Quoter
    cfg    Config
    logger *slog.Logger
}

func New(q provider.Quoter, cfg Config, logger *slog.Logger) *Service {
    if cfg.MaxConcurrency <= 0 { cfg.MaxConcurrency = 1 }
    if logger == nil { logger = slog.Default() }
    return &Service{q: q, cfg: cfg, logger: logger.With("provider", q.Name())}
}

// GetPrices parses a comma-separated symbol list and prices it. It fails
// with *UpstreamFailure only when at least one symbol was requested and
// every one of them failed.
func (s *Service) GetPrices(ctx context.Context, raw string) (Prices, error) {
    rep := s.Lookup(ctx, provider.ParseSymbols(raw))
    if err := rep.Err(); err != nil {
        return nil, err
    }
    return rep.Prices, nil
}

// Lookup fetches every symbol and collects successes and failures. It never
// stops early on a failed symbol. Once ctx is done, the symbols not yet
// fetched are recorded as transport failures.
func (s *Service) Lookup(ctx context.Context, symbols []string) Report {
    results := make([]provider.Result, len(symbols))
    if s.cfg.MaxConcurrency == 1 || len(symbols) < 2 {
        for i, sym := range symbols {
            results[i] = s.fetch(ctx, sym)
        }
    } else {
        // fetch never returns an error, so the group only bounds concurrency
        var g errgroup.Group
        g.SetLimit(s.cfg.MaxConcurrency)
        for i, sym := range symbols {
            g.Go(func() error {
                results[i] = s.fetch(ctx, sym)
                return nil
            })
        }
        _ = g.Wait()
    }
    return collect(results)
}

func (s *Service) fetch(ctx context.Context, symbol string) provider.Result {
    // request deadline already spent: record without calling upstream
    if err := ctx.Err(); err != nil {
        res := provider.Result{Symbol: symbol, Err: fmt.Errorf("%w: not fetched: %w", provider.ErrTransport, err)}
        s.logger.Warn("quote skipped", "symbol", symbol, "kind", provider.Kind(res.Err), "error", res.Err)
        return res
    }
    if s.cfg.CallTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
        defer cancel()
    }
    start := time.Now()
    res := provider.Fetch(ctx, s.q, symbol)
    if res.Err != nil {
        s.logger.Warn("quote failed",
            "symbol", symbol,
            "kind", provider.Kind(res.Err),
            "error", res.Err,
            "elapsed", time.Since(start))
    } else {
        s.logger.Debug("quote", "symbol", symbol, "price", res.Price, "elapsed", time.Since(start))
    }
    return res
}

// collect builds a Report in input order. With repeated symbols the last
// success wins and failures for a symbol that resolved elsewhere are dropped.
func collect(results []provider.Result) Report {
    rep := Report{Prices: make(Prices, len(results))}
    for _, r := range results {
        if r.OK() { rep.Prices[r.Symbol] = r.Price }
    }
    for _, r := range results {
        if r.OK() { continue }
        if _, ok := rep.Prices[r.Symbol]; ok { continue }
        rep.Failures = append(rep.Failures, Failure{Symbol: r.Symbol, Err: r.Err})
    }
    return rep
}
