// Package metrics records operation outcomes and API calls as Prometheus
// metrics on a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/logging"
)

// Metrics implements errors.Observer and the API client's request observer.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	failuresTotal     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

var _ apperrors.Observer = (*Metrics)(nil)

// NewMetrics registers every collector with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_operations_total",
				Help: "Total number of handled operations by outcome",
			},
			[]string{"context", "outcome"}, // "success", "failure"
		),
		failuresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_operation_failures_total",
				Help: "Total number of failed operations by error category",
			},
			[]string{"context", "category"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_operation_duration_seconds",
				Help:    "Duration of handled operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"context"},
		),
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_api_requests_total",
				Help: "Total number of store API requests by status",
			},
			[]string{"endpoint", "status"}, // status "none" when no response arrived
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_api_request_duration_seconds",
				Help:    "Store API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveOperation records one handler invocation.
func (m *Metrics) ObserveOperation(label string, category apperrors.Category, duration time.Duration, err error) {
	m.operationDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err == nil {
		m.operationsTotal.WithLabelValues(label, "success").Inc()
		return
	}
	m.operationsTotal.WithLabelValues(label, "failure").Inc()
	m.failuresTotal.WithLabelValues(label, string(category)).Inc()
}

// ObserveRequest records one API request. status is 0 when no response
// arrived.
func (m *Metrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(endpoint, code).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	logger := logging.GetGlobalLogger().WithComponent("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", "error", err.Error())
		return err
	}
	return nil
}
