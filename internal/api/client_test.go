package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/logging"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recordingObserver struct {
	mu    sync.Mutex
	calls []int
}

func (o *recordingObserver) ObserveRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, status)
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Writer: io.Discard})
	require.NoError(t, err)
	return logger
}

func newMockClient(t *testing.T, opts Options) (*Client, *MockServer) {
	t.Helper()
	mock := NewMockServer(MockOptions{Logger: testLogger(t)})
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL
	if opts.Logger == nil {
		opts.Logger = testLogger(t)
	}
	client, err := NewClient(opts)
	require.NoError(t, err)
	return client, mock
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)

	_, err = NewClient(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Options{BaseURL: "https://fakestoreapi.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://fakestoreapi.com", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestAuthenticate(t *testing.T) {
	client, _ := newMockClient(t, Options{})

	token, err := client.Authenticate(context.Background(), "mor_2314", "83r5^_")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateWrongPasswordIsAuth(t *testing.T) {
	client, _ := newMockClient(t, Options{})

	_, err := client.Authenticate(context.Background(), "mor_2314", "wrong")
	var rf *apperrors.ResponseFault
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusUnauthorized, rf.Status)
	assert.Equal(t, "username or password is incorrect", rf.Message)
	assert.Equal(t, apperrors.CategoryAuth, apperrors.ClassifyError(err))
}

func TestAuthenticateMissingInput(t *testing.T) {
	observer := &recordingObserver{}
	client, _ := newMockClient(t, Options{Observer: observer})

	_, err := client.Authenticate(context.Background(), "  ", "pw")
	var input *apperrors.InputFault
	require.ErrorAs(t, err, &input)
	assert.Equal(t, "username", input.Field)
	assert.Equal(t, apperrors.CategoryValidation, apperrors.ClassifyError(err))
	assert.Empty(t, observer.calls, "no request is sent for invalid input")
}

func TestListProductsSendsBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"title":"Backpack","price":109.95,"category":"bags","rating":{"rate":3.9,"count":120}}]`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, Tokens: staticToken("abc"), Logger: testLogger(t)})
	require.NoError(t, err)

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 109.95, products[0].Price)
	assert.Equal(t, 120, products[0].Rating.Count)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Len(t, gotRequestID, 36)
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, Tokens: staticToken(""), Logger: testLogger(t)})
	require.NoError(t, err)

	_, err = client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestStatusCodesBecomeResponseFaults(t *testing.T) {
	tests := []struct {
		status int
		want   apperrors.Category
	}{
		{http.StatusBadRequest, apperrors.CategoryValidation},
		{http.StatusForbidden, apperrors.CategoryAuth},
		{http.StatusNotFound, apperrors.CategoryValidation},
		{http.StatusInternalServerError, apperrors.CategoryServer},
		{http.StatusServiceUnavailable, apperrors.CategoryServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"from server"}`))
			}))
			defer server.Close()

			client, err := NewClient(Options{BaseURL: server.URL, Logger: testLogger(t)})
			require.NoError(t, err)

			_, err = client.ListProducts(context.Background())
			var rf *apperrors.ResponseFault
			require.ErrorAs(t, err, &rf)
			assert.Equal(t, tt.status, rf.Status)
			assert.Equal(t, "from server", rf.Message)
			assert.Equal(t, tt.want, apperrors.ClassifyError(err))
		})
	}
}

func TestResponseFaultFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, Logger: testLogger(t)})
	require.NoError(t, err)

	_, err = client.ListProducts(context.Background())
	var rf *apperrors.ResponseFault
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "Bad Gateway", rf.Message)
	assert.Contains(t, rf.Body, "<html>")
}

func TestTimeoutIsNetworkFault(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	observer := &recordingObserver{}
	client, err := NewClient(Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond, Observer: observer, Logger: testLogger(t)})
	require.NoError(t, err)

	_, err = client.ListProducts(context.Background())
	var tf *apperrors.TransportFault
	require.ErrorAs(t, err, &tf)
	assert.True(t, tf.Timeout)
	assert.Equal(t, apperrors.CategoryNetwork, apperrors.ClassifyError(err))
	assert.Equal(t, []int{0}, observer.calls)
	assert.Equal(t, int64(1), client.Statistics().FailedRequests)
}

func TestConnectionRefusedIsNetworkFault(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Options{BaseURL: url, Logger: testLogger(t)})
	require.NoError(t, err)

	_, err = client.Ping(context.Background())
	var tf *apperrors.TransportFault
	require.ErrorAs(t, err, &tf)
	assert.False(t, tf.Timeout)
	assert.Equal(t, apperrors.CategoryNetwork, apperrors.ClassifyError(err))
}

func TestInvalidJSONIsLocalFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, Logger: testLogger(t)})
	require.NoError(t, err)

	_, err = client.ListProducts(context.Background())
	var lf *apperrors.LocalFault
	require.ErrorAs(t, err, &lf)
	assert.Equal(t, apperrors.CategoryUnknown, apperrors.ClassifyError(err))
}

func TestGetProduct(t *testing.T) {
	client, _ := newMockClient(t, Options{})
	ctx := context.Background()

	p, err := client.GetProduct(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "electronics", p.Category)

	_, err = client.GetProduct(ctx, 4242)
	var lf *apperrors.LocalFault
	require.ErrorAs(t, err, &lf)
	assert.Equal(t, "Product 4242 was not found.", lf.Message)

	_, err = client.GetProduct(ctx, 0)
	var input *apperrors.InputFault
	assert.ErrorAs(t, err, &input)
}

func TestMockForcedStatus(t *testing.T) {
	mock := NewMockServer(MockOptions{Logger: testLogger(t)})

	req := httptest.NewRequest(http.MethodGet, EndpointProducts, nil)
	req.Header.Set("X-Mock-Status", "503")
	rec := httptest.NewRecorder()
	mock.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMockLimit(t *testing.T) {
	mock := NewMockServer(MockOptions{Logger: testLogger(t)})

	rec := httptest.NewRecorder()
	mock.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, EndpointProducts+"?limit=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, countObjects(t, rec.Body.Bytes()))
}

func countObjects(t *testing.T, body []byte) int {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &items))
	return len(items)
}

func TestPingAndLatency(t *testing.T) {
	client, mock := newMockClient(t, Options{})
	mock.SetLatency(20 * time.Millisecond)

	took, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, took, 20*time.Millisecond)
}

func TestCancelledContextIsNotSent(t *testing.T) {
	observer := &recordingObserver{}
	client, _ := newMockClient(t, Options{Observer: observer})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListProducts(ctx)

	var local *apperrors.LocalFault
	require.ErrorAs(t, err, &local)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperrors.CategoryUnknown, apperrors.ClassifyError(err))
	assert.Empty(t, observer.calls)
	assert.Zero(t, client.Statistics().TotalRequests)
}

func TestPacingPastDeadlineIsNotSent(t *testing.T) {
	observer := &recordingObserver{}
	client, _ := newMockClient(t, Options{RatePerSecond: 0.1, Burst: 1, Observer: observer})

	_, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.ListProducts(ctx)

	var local *apperrors.LocalFault
	require.ErrorAs(t, err, &local)
	assert.Equal(t, []int{http.StatusOK}, observer.calls)
}
