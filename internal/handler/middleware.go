package handler

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/metrics"
)

// echoRequestID copies the request ID assigned by chimw.RequestID onto the
// response so clients can quote it.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(chimw.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogFormatter plugs zerolog and the HTTP metrics into chimw.RequestLogger.
type requestLogFormatter struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &requestLogEntry{
		logger:  f.logger,
		metrics: f.metrics,
		request: r,
	}
}

type requestLogEntry struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
	request *http.Request
}

// Write logs the finished request and records it in the HTTP metrics,
// labelled by chi route pattern to keep cardinality bounded.
func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	r := e.request
	if status == 0 {
		status = http.StatusOK
	}

	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	e.metrics.ObserveHTTP(r.Method, route, status, elapsed)

	event := e.logger.Info()
	if status >= http.StatusInternalServerError {
		event = e.logger.Warn()
	}
	event.
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("route", route).
		Int("status", status).
		Int("bytes", bytes).
		Dur("duration", elapsed).
		Str("remote_ip", clientIP(r)).
		Msg("request completed")
}

// Panic is called by chimw.Recoverer before it answers 500.
func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().
		Interface("panic", v).
		Str("request_id", chimw.GetReqID(e.request.Context())).
		Bytes("stack", stack).
		Msg("handler panicked")
}

// corsHandler answers preflight requests for the configured origins.
func corsHandler(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", chimw.RequestIDHeader},
		ExposedHeaders:   []string{chimw.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           600,
	})
}

// rateLimit rejects clients that exhaust their token bucket with 429.
func rateLimit(limiter *tokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already resolved from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
