// Package api talks to the remote store over HTTPS/JSON. Every failure it
// returns is one of the faults defined in internal/errors.
package api

import (
	"net/http"
	"time"

	"github.com/storefront-console/storefront/internal/logging"
)

// Store API paths
const (
	EndpointLogin    = "/auth/login"
	EndpointProducts = "/products"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRatePerSecond = 5
	DefaultBurst         = 5

	// Bodies beyond this size are truncated before decoding.
	maxBodyBytes = 4 << 20
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent without Authorization.
type TokenSource interface {
	Token() string
}

// RequestObserver is told about every request that was attempted. status
// is 0 when no response arrived.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// Options configure a Client. Zero values select the defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	UserAgent     string

	Tokens     TokenSource
	Observer   RequestObserver
	Logger     *logging.Logger
	HTTPClient *http.Client
}

// errorBody is the JSON error shape returned by the store.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RequestStatistics summarises the traffic of a Client.
type RequestStatistics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime time.Duration
	LastRequestTime     time.Time
}
