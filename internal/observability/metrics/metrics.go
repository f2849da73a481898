// Package metrics expone las métricas Prometheus del servidor.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// OAuth metrics
	tokenGrantsTotal    *prometheus.CounterVec
	authorizeTotal      *prometheus.CounterVec
	idTokensIssuedTotal prometheus.Counter
)

// Register inicializa y registra las métricas. Devuelve el handler de /metrics.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		tokenGrantsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_token_grants_total",
			Help: "Requests al token endpoint por grant_type y resultado",
		}, []string{"grant_type", "result"}) // result: ok|invalid_request|invalid_client|...

		authorizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_authorize_total",
			Help: "Decisiones del authorization endpoint por outcome",
		}, []string{"outcome"}) // outcome: code|fragment|need_login|need_consent|error

		idTokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oidc_id_tokens_issued_total",
			Help: "ID tokens emitidos",
		})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration,
			tokenGrantsTotal, authorizeTotal, idTokensIssuedTotal,
		} {
			if err := register(reg, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}

	return promhttp.Handler(), nil
}

// register ignora duplicados para que Register sea idempotente en tests.
func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveTokenGrant cuenta un request al token endpoint.
func ObserveTokenGrant(grantType, result string) {
	if tokenGrantsTotal == nil {
		return
	}
	if grantType == "" {
		grantType = "none"
	}
	tokenGrantsTotal.WithLabelValues(grantType, result).Inc()
}

// ObserveAuthorize cuenta una decisión del authorization endpoint.
func ObserveAuthorize(outcome string) {
	if authorizeTotal == nil {
		return
	}
	authorizeTotal.WithLabelValues(outcome).Inc()
}

// ObserveIDTokenIssued cuenta un ID token emitido.
func ObserveIDTokenIssued() {
	if idTokensIssuedTotal == nil {
		return
	}
	idTokensIssuedTotal.Inc()
}

// WithHTTP instrumenta requests HTTP (contadores y latencia).
func WithHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil || httpRequestDuration == nil {
			next.ServeHTTP(w, r)
			return
		}

		method := strings.ToUpper(r.Method)
		path := r.URL.Path
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}
