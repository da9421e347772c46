package api

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"

    "stockprices/internal/lookup"
    "stockprices/internal/provider"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
    Error string `json:"error"`
}

type Config struct {
    // MaxSymbols caps the parsed list length. 0 disables the check.
    MaxSymbols int
    // RequestTimeout bounds one lookup. Symbols still unfetched when it
    // expires count as transport failures. 0 means no bound.
    RequestTimeout time.Duration
}

type Handler struct {
    svc    *lookup.Service
    cfg    Config
    logger *slog.Logger
}

// New returns the HTTP handler for the price endpoint.
func New(svc *lookup.Service, cfg Config, logger *slog.Logger) *Handler {
    if logger == nil { logger = slog.Default() }
    return &Handler{svc: svc, cfg: cfg, logger: logger}
}

// Router wires routes and middleware.
func (h *Handler) Router() http.Handler {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(h.logRequests)
    r.Use(middleware.Recoverer)
    r.Use(middleware.Compress(5, "application/json"))
    r.Use(withJSONHeaders)

    r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "text/plain; charset=utf-8")
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    r.Get("/prices", h.getPrices)
    return r
}

func (h *Handler) getPrices(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    status, body := h.Prices(r.Context(), q.Get("symbols"), q.Has("symbols"))
    writeJSON(w, status, body)
}

// Prices runs one lookup for a raw symbols parameter and returns the status
// code and JSON body to send. present is false when the parameter was
// absent from the request.
func (h *Handler) Prices(ctx context.Context, raw string, present bool) (int, any) {
    if !present {
        return http.StatusBadRequest, ErrorBody{Error: "missing symbols query param"}
    }
    symbols := provider.ParseSymbols(raw)
    if h.cfg.MaxSymbols > 0 && len(symbols) > h.cfg.MaxSymbols {
        return http.StatusBadRequest, ErrorBody{Error: fmt.Sprintf("too many symbols (max %d)", h.cfg.MaxSymbols)}
    }
    if h.cfg.RequestTimeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
        defer cancel()
    }
    rep := h.svc.Lookup(ctx, symbols)
    if err := rep.Err(); err != nil {
        h.logger.ErrorContext(ctx, "all lookups failed",
            "symbols", len(symbols),
            "error", err,
            "request_id", middleware.GetReqID(ctx))
        return http.StatusBadGateway, ErrorBody{Error: err.Error()}
    }
    if len(rep.Failures) > 0 {
        h.logger.InfoContext(ctx, "partial lookup",
            "resolved", len(rep.Prices),
            "failed", len(rep.Failures),
            "request_id", middleware.GetReqID(ctx))
    }
    return http.StatusOK, rep.Prices
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.WriteHeader(status)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
        start := time.Now()
        defer func() {
            h.logger.InfoContext(r.Context(), "http request",
                "method", r.Method,
                "path", r.URL.Path,
                "status", ww.Status(),
                "bytes", ww.BytesWritten(),
                "elapsed", time.Since(start),
                "request_id", middleware.GetReqID(r.Context()))
        }()
        next.ServeHTTP(ww, r)
    })
}
