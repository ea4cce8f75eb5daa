// Package http exposes the budget over a JSON API: state reads, reducer
// mutations, SMS parse preview and enqueue, and the monthly report.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"vstack/internal/amqp"
	applog "vstack/internal/log"
	"vstack/internal/services"
	"vstack/internal/storage"
)

// SMSPublisher hands raw SMS payloads to the ingest queue. Nil when AMQP
// is not configured; the enqueue endpoint then answers 503.
type SMSPublisher interface {
	PublishSMS(ctx context.Context, msg *amqp.SMSReceivedMessage) error
}

type Server struct {
	http.Server

	budgets   *services.BudgetService
	checks    *services.MonthlyCheckService
	store     storage.Store
	publisher SMSPublisher

	rateLimiter  *rateLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, budgets *services.BudgetService, checks *services.MonthlyCheckService, store storage.Store, publisher SMSPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		budgets:   budgets,
		checks:    checks,
		store:     store,
		publisher: publisher,
	}
	s.rateLimiter = newRateLimiter(defaultLimiterOptions(), &s.metrics)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/budget", s.withMiddleware(s.handleGetBudget))
	mux.HandleFunc("PUT /api/categories/{id}/budget", s.withMiddleware(s.handleSetBudget))
	mux.HandleFunc("PUT /api/categories/{id}/spent", s.withMiddleware(s.handleSetSpent))
	mux.HandleFunc("PATCH /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleAddTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/budget/carry-over", s.withMiddleware(s.handleCarryOver))
	mux.HandleFunc("POST /api/budget/savings", s.withMiddleware(s.handleAllocateSavings))
	mux.HandleFunc("POST /api/budget/reset", s.withMiddleware(s.handleReset))

	mux.HandleFunc("POST /api/sms/parse", s.withMiddleware(s.handleParseSMS))
	mux.HandleFunc("POST /api/sms", s.withMiddleware(s.handleEnqueueSMS))
	mux.HandleFunc("GET /api/sms/archive", s.withMiddleware(s.handleListArchive))

	mux.HandleFunc("GET /api/report", s.withMiddleware(s.handleGetReport))
	mux.HandleFunc("POST /api/report/send", s.withMiddleware(s.handleSendReport))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// withMiddleware adds security headers, rate limiting on mutations, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r, &s.metrics)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, ip)

		if !s.rateLimiter.allowRequest(r.Method, ip) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, ip)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
