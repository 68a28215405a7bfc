// metrics.go — Prometheus HTTP метрики O&M Portal.
// Регистрирует метрики: op_http_requests_total, op_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "op_http_requests_total",
			Help: "Общее количество HTTP-запросов к O&M Portal",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "op_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к O&M Portal в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь, чтобы идентификаторы не раздували кардинальность
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id}.
// /api/v1/assets/block_a/docs/fire.pdf → /api/v1/assets/{id}/docs/{name}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/auth/login", "/api/v1/auth/logout", "/api/v1/auth/me",
		"/api/v1/files", "/api/v1/portfolio", "/api/v1/stats",
		"/api/v1/ask", "/api/v1/chat/open",
		"/api/v1/preview/resolve", "/api/v1/preview/selected",
		"/api/v1/assets", "/api/v1/settings":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	// Динамические пути объектов: /api/v1/assets/{id}[/...]
	const assetsPrefix = "/api/v1/assets/"
	if strings.HasPrefix(path, assetsPrefix) {
		rest := path[len(assetsPrefix):]
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1:
			return assetsPrefix + "{id}"
		case len(parts) == 2:
			// favorite, archive, docs, upload
			return assetsPrefix + "{id}/" + parts[1]
		case len(parts) >= 3 && parts[1] == "docs":
			return assetsPrefix + "{id}/docs/{name}"
		}
	}

	return path
}
