// Package interfaces defines the core types and interfaces shared across the
// Storefront Console so that components can be injected and replaced in tests.
package interfaces

import (
	"context"
	"time"
)

// Product is a catalogue entry as returned by the store API.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// Rating is the aggregated customer rating of a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// Theme represents visual styling configuration
type Theme struct {
	Name    string `yaml:"name"`
	Accent  string `yaml:"accent"`
	Success string `yaml:"success"`
	Error   string `yaml:"error"`
	Warning string `yaml:"warning"`
	Info    string `yaml:"info"`
	// Chroma style used for raw JSON views
	Syntax string `yaml:"syntax"`
}

// Action represents a user-selectable recovery or navigation action.
type Action struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Type    string `json:"type"` // "primary", "cancel", "info", "alternative"
	Key     string `json:"key,omitempty"`
}

// StoreClient is the remote store API consumed by the UI and CLI.
type StoreClient interface {
	// Authenticate exchanges credentials for a session token
	Authenticate(ctx context.Context, username, password string) (string, error)

	// ListProducts returns the full product catalogue
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct returns a single product by id
	GetProduct(ctx context.Context, id int) (*Product, error)

	// Ping checks whether the API answers at all
	Ping(ctx context.Context) (time.Duration, error)
}

// TokenStore persists opaque credential strings by key.
type TokenStore interface {
	Store(ctx context.Context, key, value string) error
	Retrieve(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
}

// SessionGate is the capability set handed down from the composition root
// to everything that needs to know whether a user is logged in.
type SessionGate interface {
	CheckSession(ctx context.Context) bool
	Establish(ctx context.Context, token string) error
	End(ctx context.Context)
	Active() bool
	Token() string
	Subject() string
}
