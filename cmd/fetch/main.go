package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "io"
    "os"
    "time"

    "stockprices/internal/config"
    "stockprices/internal/provider"
    "stockprices/internal/wiring"
)

func main() {
    os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run looks up one symbol list and prints the mapping to stdout. It returns
// the process exit code: 0 when at least one symbol resolved, 1 on aggregate
// failure, 2 on bad usage or configuration.
func run(args []string, stdout, stderr io.Writer) int {
    fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
    fs.SetOutput(stderr)

    var symbolsCSV string
    var configPath string
    var providerName string
    var concurrency int
    var timeout int

    fs.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL"), "comma-separated ticker symbols")
    fs.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    fs.StringVar(&providerName, "provider", "", "override provider (finnhub|yahoo)")
    fs.IntVar(&concurrency, "concurrency", 0, "override max concurrent provider calls")
    fs.IntVar(&timeout, "timeout", 60, "overall timeout seconds")
    if err := fs.Parse(args); err != nil {
        return 2
    }

    // bootstrap logger until the configured one exists
    logger := config.Default().Log.NewLogger(stderr)

    cfg, err := config.Load(configPath)
    if err != nil {
        logger.Error("config", "error", err)
        return 2
    }
    if providerName != "" { cfg.Provider.Name = providerName }
    if concurrency > 0 { cfg.Lookup.MaxConcurrency = concurrency }
    if err := cfg.Validate(); err != nil {
        logger.Error("config", "error", err)
        return 2
    }
    logger = cfg.Log.NewLogger(stderr)

    symbols := provider.ParseSymbols(symbolsCSV)
    if len(symbols) == 0 {
        logger.Error("no symbols provided")
        return 2
    }

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
    defer cancel()

    rep := wiring.NewService(cfg, logger).Lookup(ctx, symbols)
    logger.Info("lookup finished", "resolved", len(rep.Prices), "failed", len(rep.Failures))

    b, _ := json.MarshalIndent(rep.Prices, "", "  ")
    fmt.Fprintln(stdout, string(b))
    if err := rep.Err(); err != nil {
        logger.Error("lookup", "error", err)
        return 1
    }
    return 0
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
