// Package api exposes the webhook gate over HTTP: gateway callback ingestion
// plus read-only event queries.
//
// All routes are mounted under a configurable prefix (default: /webhooks).
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/dispatch"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/ratelimit"
)

// DefaultMaxBodyBytes caps callback bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Handler is the root HTTP handler.
type Handler struct {
	gate     *hookgate.Gate
	router   *dispatch.Router
	registry *gateway.Registry
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	mux      *http.ServeMux

	rateLimit    int
	maxBodyBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimit caps callbacks per gateway per second. 0 disables limiting.
func WithRateLimit(perSecond int) Option {
	return func(h *Handler) { h.rateLimit = perSecond }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler creates a new API handler.
func NewHandler(
	g *hookgate.Gate,
	rt *dispatch.Router,
	reg *gateway.Registry,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if rt == nil {
		rt = dispatch.NewRouter(logger)
	}
	if reg == nil {
		reg = gateway.NewRegistry()
	}

	h := &Handler{
		gate:         g,
		router:       rt,
		registry:     reg,
		limiter:      ratelimit.New(),
		logger:       logger,
		mux:          http.NewServeMux(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	// Ingest
	h.mux.HandleFunc("POST /callbacks/{gateway}", h.receiveCallback)

	// Events
	h.mux.HandleFunc("GET /events", h.listEvents)
	h.mux.HandleFunc("GET /events/stats", h.getStats)
	h.mux.HandleFunc("GET /events/{gateway}/{eventId}", h.getEvent)

	// Health
	h.mux.HandleFunc("GET /healthz", h.healthz)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.requestID(h.panicRecovery(h.logging(next)))
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, rid)))
	})
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
					"request_id", RequestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt returns a query parameter as int, or defaultVal when it is
// missing or malformed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
