package server

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/observability"
)

const headerRequestID = "X-Request-ID"

const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestIDFromContext returns the ID assigned by the server, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID keeps a caller-supplied X-Request-ID when it is reasonable
// and generates one otherwise. The ID is echoed on the response.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > maxRequestIDLen || strings.ContainsAny(id, "\r\n") {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// cors answers preflight requests itself and decorates the rest.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !s.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		if slices.Contains(s.allowedOrigins, "*") {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		}
		header.Set("Access-Control-Expose-Headers", headerRequestID)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, "+headerRequestID)
			header.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the remote host without port. Proxies are not trusted.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) limiterFor(client string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	entry, ok := s.limiters[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[client] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limit == 0 {
			next.ServeHTTP(w, r)
			return
		}

		client := clientAddr(r)
		reservation := s.limiterFor(client).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			if s.observer != nil {
				s.observer.Counter(observability.MetricServerRateLimited).Add(r.Context(), 1,
					observability.String(observability.AttrHTTPClientAddr, client))
				s.observer.Warn(r.Context(), "rate limit exceeded",
					observability.String(observability.AttrHTTPClientAddr, client),
					observability.String(observability.AttrHTTPRequestID, RequestIDFromContext(r.Context())))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			writeError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code and body size. Unwrap lets
// http.ResponseController reach the underlying Flusher.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// observe wraps each routed request in a span, logs it and records the
// request count and duration metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.observer == nil {
			next.ServeHTTP(w, r)
			return
		}

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		attrs := []observability.Attribute{
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPRoute, route),
			observability.String(observability.AttrHTTPClientAddr, clientAddr(r)),
			observability.String(observability.AttrHTTPRequestID, RequestIDFromContext(r.Context())),
		}

		ctx := observability.ContextWithObserver(r.Context(), s.observer)
		ctx, span := s.observer.StartSpan(ctx, observability.SpanHTTPServerRequest, attrs...)
		defer span.End()

		timer := utils.NewTimer()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		elapsed := timer.Stop()

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		attrs = append(attrs,
			observability.Int(observability.AttrHTTPStatusCode, status),
			observability.Int(observability.AttrHTTPResponseBodySize, rec.bytes),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		span.SetAttributes(attrs...)
		if status >= http.StatusInternalServerError {
			span.SetStatus(observability.StatusError, http.StatusText(status))
		} else {
			span.SetStatus(observability.StatusOK, "")
		}

		routeAttr := observability.String(observability.AttrHTTPRoute, route)
		s.observer.Counter(observability.MetricServerRequestCount).Add(ctx, 1,
			routeAttr, observability.Int(observability.AttrHTTPStatusCode, status))
		s.observer.Histogram(observability.MetricServerRequestDuration).Record(ctx, elapsed.Seconds(), routeAttr)
		s.observer.Info(ctx, "http request", attrs...)
	})
}
