package main

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "stockprices/internal/api"
    "stockprices/internal/config"
    "stockprices/internal/wiring"
)

func main() {
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        slog.Error("config", "error", err)
        os.Exit(1)
    }
    logger := cfg.Log.NewLogger(os.Stdout)
    slog.SetDefault(logger)

    svc := wiring.NewService(cfg, logger)
    handler := api.New(svc, api.Config{
        MaxSymbols:     cfg.Lookup.MaxSymbols,
        RequestTimeout: cfg.Server.RequestTimeout(),
    }, logger)

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           handler.Router(),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        // must outlast the request deadline or a late 502 is dropped
        WriteTimeout:      cfg.Server.WriteTimeout(),
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        logger.Info("server listening", "addr", srv.Addr, "provider", cfg.Provider.Name)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Error("server", "error", err)
            os.Exit(1)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        logger.Error("shutdown", "error", err)
    }
}
