package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

const (
    ProviderFinnhub = "finnhub"
    ProviderYahoo   = "yahoo"
)

type Server struct {
    Port               string `json:"port"`
    ShutdownTimeoutSec int    `json:"shutdown_timeout_sec"`
    // RequestTimeoutSec bounds one /prices request end to end. The listener's
    // write timeout is derived from it so a late 502 is still delivered.
    RequestTimeoutSec int `json:"request_timeout_sec"`
}

// RequestTimeout is the per-request deadline for price lookups.
func (s Server) RequestTimeout() time.Duration {
    return time.Duration(s.RequestTimeoutSec) * time.Second
}

// WriteTimeout leaves headroom after RequestTimeout for encoding the response.
func (s Server) WriteTimeout() time.Duration {
    return s.RequestTimeout() + writeHeadroom
}

const writeHeadroom = 5 * time.Second

type Provider struct {
    Name       string `json:"name"`
    APIKey     string `json:"api_key"`
    BaseURL    string `json:"base_url"`
    TimeoutSec int    `json:"timeout_sec"`
}

type Lookup struct {
    MaxConcurrency int `json:"max_concurrency"`
    MaxSymbols     int `json:"max_symbols"`
}

type Log struct {
    Level  string `json:"level"`
    Format string `json:"format"`
}

type Config struct {
    Server   Server   `json:"server"`
    Provider Provider `json:"provider"`
    Lookup   Lookup   `json:"lookup"`
    Log      Log      `json:"log"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", ShutdownTimeoutSec: 5, RequestTimeoutSec: 25},
        Provider: Provider{
            Name:       ProviderFinnhub,
            BaseURL:    "https://finnhub.io/api/v1",
            TimeoutSec: 5,
        },
        Lookup: Lookup{MaxConcurrency: 1, MaxSymbols: 100},
        Log:    Log{Level: "info", Format: "json"},
    }
}

// Load reads JSON config from path. If path is empty, config.json is used when
// present. A .env file in the working directory, if any, is loaded into the
// process environment (existing variables win) and then environment variables
// override select fields. Load is meant to run once at startup.
func Load(path string) (Config, error) {
    return load(path, ".env")
}

func load(path, envFile string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    if envFile != "" {
        if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read %s: %w", envFile, err)
        }
    }
    applyEnv(&cfg)
    return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("SHUTDOWN_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.ShutdownTimeoutSec = x }
    }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("PRICE_PROVIDER"); v != "" { cfg.Provider.Name = strings.ToLower(strings.TrimSpace(v)) }
    if v := os.Getenv("FINNHUB_API_KEY"); v != "" { cfg.Provider.APIKey = v }
    if v := os.Getenv("FINNHUB_BASE_URL"); v != "" { cfg.Provider.BaseURL = v }
    if v := os.Getenv("PROVIDER_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Provider.TimeoutSec = x }
    }
    if v := os.Getenv("LOOKUP_MAX_CONCURRENCY"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Lookup.MaxConcurrency = x }
    }
    if v := os.Getenv("LOOKUP_MAX_SYMBOLS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Lookup.MaxSymbols = x }
    }
    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Log.Level = v }
    if v := os.Getenv("LOG_FORMAT"); v != "" { cfg.Log.Format = v }
}

// Validate reports settings that cannot be served. A missing provider key is
// not an error here: the service starts degraded and lookups fail per call.
func (c Config) Validate() error {
    if c.Server.RequestTimeoutSec <= 0 {
        return fmt.Errorf("request timeout must be positive, got %d", c.Server.RequestTimeoutSec)
    }
    switch c.Provider.Name {
    case ProviderFinnhub, ProviderYahoo:
    default:
        return fmt.Errorf("unknown provider %q", c.Provider.Name)
    }
    if _, err := c.Log.level(); err != nil {
        return err
    }
    switch strings.ToLower(c.Log.Format) {
    case "", "json", "text":
    default:
        return fmt.Errorf("unknown log format %q", c.Log.Format)
    }
    return nil
}

func (l Log) level() (slog.Level, error) {
    var lvl slog.Level
    if l.Level == "" {
        return slog.LevelInfo, nil
    }
    if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
        return lvl, fmt.Errorf("log level: %w", err)
    }
    return lvl, nil
}

// NewLogger builds a slog.Logger writing to w in the configured format.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
    lvl, err := l.level()
    if err != nil { lvl = slog.LevelInfo }
    opts := &slog.HandlerOptions{Level: lvl}
    if strings.EqualFold(l.Format, "text") {
        return slog.New(slog.NewTextHandler(w, opts))
    }
    return slog.New(slog.NewJSONHandler(w, opts))
}
