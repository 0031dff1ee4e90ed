package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
)

// Version is reported in the User-Agent header.
var Version = "dev"

var _ interfaces.StoreClient = (*Client)(nil)

// Client implements interfaces.StoreClient against the store REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	tokens     TokenSource
	observer   RequestObserver
	logger     *logging.Logger
	tracer     trace.Tracer
	userAgent  string

	mutex sync.Mutex
	stats RequestStatistics
}

// NewClient creates a client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("base URL must start with http:// or https://: %s", base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		}
	}

	limit := rate.Limit(opts.RatePerSecond)
	if opts.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetAPILogger()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("Storefront-Console/%s", Version)
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		validate:   validator.New(),
		tokens:     opts.Tokens,
		observer:   opts.Observer,
		logger:     logger,
		tracer:     otel.Tracer("storefront/api"),
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	req := interfaces.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := c.validate.Struct(req); err != nil {
		field := "credentials"
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			field = strings.ToLower(verrs[0].Field())
		}
		return "", &apperrors.InputFault{Field: field, Message: "Please enter username and password."}
	}

	var resp interfaces.LoginResponse
	if err := c.do(ctx, http.MethodPost, EndpointLogin, EndpointLogin, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &apperrors.LocalFault{Message: "The server did not return a session token."}
	}
	return resp.Token, nil
}

// ListProducts returns the full catalogue.
func (c *Client) ListProducts(ctx context.Context) ([]interfaces.Product, error) {
	var products []interfaces.Product
	if err := c.do(ctx, http.MethodGet, EndpointProducts, EndpointProducts, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product. The store answers an unknown id with an
// empty 200, which is reported as a local fault.
func (c *Client) GetProduct(ctx context.Context, id int) (*interfaces.Product, error) {
	if id <= 0 {
		return nil, &apperrors.InputFault{Field: "id", Message: "Product id must be a positive number."}
	}

	var product *interfaces.Product
	path := EndpointProducts + "/" + strconv.Itoa(id)
	if err := c.do(ctx, http.MethodGet, path, EndpointProducts+"/{id}", nil, &product); err != nil {
		return nil, err
	}
	if product == nil || product.ID == 0 {
		return nil, &apperrors.LocalFault{Message: fmt.Sprintf("Product %d was not found.", id)}
	}
	return product, nil
}

// Ping fetches a single product and reports the round trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.do(ctx, http.MethodGet, EndpointProducts+"?limit=1", EndpointProducts, nil, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Statistics returns a copy of the request counters.
func (c *Client) Statistics() RequestStatistics {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stats
}

// do performs one request. route is the low-cardinality name used for
// spans and metrics.
func (c *Client) do(ctx context.Context, method, path, route string, payload, out any) error {
	op := method + " " + route
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	logger := c.logger.WithContext(logging.ContextWithRequestID(ctx, requestID))

	// A context that ends while waiting for pacing means nothing was sent,
	// so this is not a transport failure.
	if err := c.limiter.Wait(ctx); err != nil {
		fault := &apperrors.LocalFault{Err: fmt.Errorf("%s not sent: %w", op, err)}
		logger.Debug("Request not sent", "operation", op, "error", err.Error())
		span.RecordError(fault)
		span.SetStatus(codes.Error, "not sent")
		return fault
	}

	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		span.RecordError(err)
		return &apperrors.LocalFault{Err: fmt.Errorf("build %s: %w", op, err)}
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(start)

	if err != nil {
		c.record(route, 0, took)
		logger.LogHTTPFailure(method, path, err, took)
		fault := transportFault(op, err)
		span.RecordError(fault)
		span.SetStatus(codes.Error, "no response")
		return fault
	}
	defer resp.Body.Close()

	c.record(route, resp.StatusCode, took)
	logger.LogHTTPRequest(method, path, resp.StatusCode, took)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fault := transportFault(op, err)
		span.RecordError(fault)
		span.SetStatus(codes.Error, "body read")
		return fault
	}

	if resp.StatusCode >= 400 {
		fault := responseFault(resp, body)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return fault
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		// Leave out untouched; callers treat the zero value as absent.
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return &apperrors.LocalFault{Err: fmt.Errorf("decode %s response: %w", op, err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// record updates counters and feeds the observer.
func (c *Client) record(route string, status int, took time.Duration) {
	c.mutex.Lock()
	stats := &c.stats
	stats.TotalRequests++
	stats.LastRequestTime = time.Now()
	if status == 0 || status >= 400 {
		stats.FailedRequests++
	}
	if stats.TotalRequests == 1 {
		stats.AverageResponseTime = took
	} else {
		total := stats.AverageResponseTime * time.Duration(stats.TotalRequests-1)
		stats.AverageResponseTime = (total + took) / time.Duration(stats.TotalRequests)
	}
	c.mutex.Unlock()

	if c.observer != nil {
		c.observer.ObserveRequest(route, status, took)
	}
}

func transportFault(op string, err error) *apperrors.TransportFault {
	timeout := stderrors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &apperrors.TransportFault{Op: op, Err: err, Timeout: timeout}
}

// responseFault extracts a message from a JSON error body or a short plain
// text body, falling back to the status text.
func responseFault(resp *http.Response, body []byte) *apperrors.ResponseFault {
	fault := &apperrors.ResponseFault{
		Status: resp.StatusCode,
		Body:   string(body),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			fault.Message = eb.Message
		case eb.Error != "":
			fault.Message = eb.Error
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 &&
		utf8.ValidString(text) && !strings.ContainsAny(text[:1], "<{[") {
		fault.Message = text
	}

	if fault.Message == "" {
		fault.Message = http.StatusText(resp.StatusCode)
	}
	return fault
}
