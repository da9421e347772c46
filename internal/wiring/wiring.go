// Package wiring builds the lookup service from configuration. Every
// entrypoint shares it so the HTTP server, Lambda and CLI behave alike.
package wiring

import (
    "log/slog"
    "time"

    "stockprices/internal/config"
    "stockprices/internal/httpx"
    "stockprices/internal/lookup"
    "stockprices/internal/provider"
    "stockprices/internal/provider/finnhub"
    "stockprices/internal/provider/yahoo"
)

// NewQuoter returns the provider named in cfg. cfg must have passed Validate.
func NewQuoter(cfg config.Config, logger *slog.Logger) provider.Quoter {
    timeout := time.Duration(cfg.Provider.TimeoutSec) * time.Second
    hc := httpx.New(timeout)

    switch cfg.Provider.Name {
    case config.ProviderYahoo:
        return yahoo.New(hc.HTTP)
    default:
        if cfg.Provider.APIKey == "" {
            logger.Warn("FINNHUB_API_KEY not set; every lookup will fail until it is configured")
        }
        return finnhub.NewClient(cfg.Provider.APIKey,
            finnhub.WithHTTPClient(hc),
            finnhub.WithBaseURL(cfg.Provider.BaseURL),
        )
    }
}

// NewService returns the lookup service for cfg.
func NewService(cfg config.Config, logger *slog.Logger) *lookup.Service {
    if logger == nil { logger = slog.Default() }
    return lookup.New(NewQuoter(cfg, logger), lookup.Config{
        MaxConcurrency: cfg.Lookup.MaxConcurrency,
        CallTimeout:    time.Duration(cfg.Provider.TimeoutSec) * time.Second,
    }, logger)
}
