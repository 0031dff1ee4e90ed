package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storefront-console/storefront/internal/errors"
)

func TestObserveOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveOperation("Products", "", 20*time.Millisecond, nil)
	m.ObserveOperation("Products", apperrors.CategoryNetwork, time.Second, errors.New("x"))
	m.ObserveOperation("Products", apperrors.CategoryNetwork, time.Second, errors.New("x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Products", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("Products", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("Products", "NETWORK")))
}

func TestObserveRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveRequest("GET /products", 200, 50*time.Millisecond)
	m.ObserveRequest("GET /products", 0, 10*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /products", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /products", "none")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ObserveOperation("Login", apperrors.CategoryAuth, time.Millisecond, errors.New("denied"))

	server := httptest.NewServer(Handler(registry))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_operation_failures_total{category="AUTH",context="Login"} 1`)
}

func TestHandlerObserverWiring(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	h := apperrors.NewHandler(nil, apperrors.WithObserver(m))

	_, err := apperrors.Execute(context.Background(), h, func(context.Context) (int, error) {
		return 0, &apperrors.ResponseFault{Status: 503}
	}, "Products")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("Products", "SERVER")))
}
