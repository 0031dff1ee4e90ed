package errors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storefront-console/storefront/internal/logging"
)

// Phase is the lifecycle position of a Handler.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseRunning Phase = "RUNNING"
	PhaseFailed  Phase = "FAILED"
)

// ErrBusy is returned by Execute when the handler already has an operation
// in flight. The operation is not invoked.
var ErrBusy = New("operation already in progress")

// HandlerState is a snapshot of a Handler.
type HandlerState struct {
	CurrentError *ClassifiedError
	IsBusy       bool
	Phase        Phase
}

// Observer is notified after every invocation finishes. Category is empty
// on success.
type Observer interface {
	ObserveOperation(label string, category Category, duration time.Duration, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(label string, category Category, duration time.Duration, err error)

func (f ObserverFunc) ObserveOperation(label string, category Category, duration time.Duration, err error) {
	f(label, category, duration, err)
}

// Option configures a Handler.
type Option func(*Handler)

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(h *Handler) { h.observer = o }
}

// WithLogger sets the logger used for classified errors.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// Handler runs one operation site's calls, records the classified error of
// the last failure and exposes loading state. One Handler per screen action.
type Handler struct {
	mu         sync.Mutex
	overrides  Messages
	phase      Phase
	current    *ClassifiedError
	generation uint64
	abandoned  bool

	observer Observer
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates an idle handler using overrides for its messages.
func NewHandler(overrides Messages, opts ...Option) *Handler {
	h := &Handler{
		overrides: overrides,
		phase:     PhaseIdle,
		logger:    logging.GetErrorsLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns a snapshot of the handler.
func (h *Handler) State() HandlerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HandlerState{
		CurrentError: h.current,
		IsBusy:       h.phase == PhaseRunning,
		Phase:        h.phase,
	}
}

// CurrentError returns the error of the last failed invocation, if any.
func (h *Handler) CurrentError() *ClassifiedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Busy reports whether an operation is in flight.
func (h *Handler) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase == PhaseRunning
}

// Execute runs op under h. On failure the classified error is recorded and
// the original error is returned unchanged. A panic in op is recorded as an
// UNKNOWN failure before it propagates.
func Execute[T any](ctx context.Context, h *Handler, op func(context.Context) (T, error), label string) (T, error) {
	var zero T

	gen, ok := h.begin()
	if !ok {
		return zero, ErrBusy
	}

	start := h.now()
	settled := false
	defer func() {
		if settled {
			return
		}
		// op panicked or called runtime.Goexit.
		r := recover()
		h.finish(gen, &LocalFault{Err: fmt.Errorf("%s panicked: %v", label, r)}, label, h.now().Sub(start))
		if r != nil {
			panic(r)
		}
	}()

	result, err := op(ctx)
	settled = true
	h.finish(gen, err, label, h.now().Sub(start))
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Retry runs op again. The caller supplies the same arguments it used before.
func Retry[T any](ctx context.Context, h *Handler, op func(context.Context) (T, error), label string) (T, error) {
	return Execute(ctx, h, op, label)
}

// Run is Execute for operations without a result.
func (h *Handler) Run(ctx context.Context, op func(context.Context) error, label string) error {
	_, err := Execute(ctx, h, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, label)
	return err
}

// Clear drops the current error of a failed handler. While an operation is
// in flight the handler stays busy, but that operation's outcome will no
// longer be recorded.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.phase {
	case PhaseFailed:
		h.phase = PhaseIdle
		h.current = nil
		h.generation++
	case PhaseRunning:
		h.abandoned = true
	}
}

// IsRetryable reports whether the current error is NETWORK or SERVER.
func (h *Handler) IsRetryable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil && IsRetryableCategory(h.current.Category)
}

// IsErrorType reports whether the current error has category c.
func (h *Handler) IsErrorType(c Category) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil && h.current.Category == c
}

// Report records a fault that did not come from an operation, such as a
// rejected form. It is ignored while an operation is in flight.
func (h *Handler) Report(err error, label string) *ClassifiedError {
	if err == nil {
		return nil
	}
	ce := h.classify(err, label)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.phase == PhaseRunning {
		return ce
	}
	h.generation++
	h.current = ce
	h.phase = PhaseFailed
	return ce
}

func (h *Handler) begin() (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.phase == PhaseRunning {
		return 0, false
	}
	h.generation++
	h.phase = PhaseRunning
	h.current = nil
	h.abandoned = false
	return h.generation, true
}

func (h *Handler) finish(gen uint64, err error, label string, took time.Duration) {
	var ce *ClassifiedError
	var category Category
	if err != nil {
		ce = h.classify(err, label)
		category = ce.Category
	}

	h.mu.Lock()
	if gen == h.generation {
		h.phase = PhaseIdle
		if err != nil && !h.abandoned {
			h.current = ce
			h.phase = PhaseFailed
		}
		h.abandoned = false
	}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ObserveOperation(label, category, took, err)
	}
}

func (h *Handler) classify(err error, label string) *ClassifiedError {
	b := NewClassifiedError(AsFault(err)).
		WithContext(label).
		WithOverrides(h.overrides).
		WithLogger(h.logger).
		WithClock(h.now)
	if b.err.Category == CategoryUnknown {
		b.WithStackTrace()
	}
	return b.Build()
}
