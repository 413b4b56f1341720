// Package metrics holds the Prometheus collectors for the HTTP API and photo uploads.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/sharebnb/internal/storage"
)

// unmatchedRoute labels requests that matched no route, so unknown paths
// cannot grow label cardinality.
const unmatchedRoute = "unmatched"

// Metrics is a private registry with the application's collectors.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UploadsTotal    *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_uploads_total",
		Help: "Listing photo uploads by result.",
	}, []string{"result"})

	registry.MustRegister(
		requests,
		duration,
		uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: duration,
		UploadsTotal:    uploads,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by chi route pattern.
// It must be installed on a chi router so the pattern is known after routing.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(rw, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Uploader is the storage operation being measured.
type Uploader interface {
	Upload(ctx context.Context, f storage.File) (string, error)
}

type instrumentedUploader struct {
	next    Uploader
	counter *prometheus.CounterVec
}

// InstrumentUploader counts each upload through u as "success" or "error".
func (m *Metrics) InstrumentUploader(u Uploader) Uploader {
	return &instrumentedUploader{next: u, counter: m.UploadsTotal}
}

func (u *instrumentedUploader) Upload(ctx context.Context, f storage.File) (string, error) {
	url, err := u.next.Upload(ctx, f)
	if err != nil {
		u.counter.WithLabelValues("error").Inc()
		return "", err
	}
	u.counter.WithLabelValues("success").Inc()
	return url, nil
}
