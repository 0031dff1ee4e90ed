package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-console/storefront/internal/logging"
)

// ClassifiedError is a fault after classification, ready for display.
// It is never mutated once built.
type ClassifiedError struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Category   Category  `json:"category"`
	Context    string    `json:"context"`
	OccurredAt time.Time `json:"occurredAt"`
	Cause      Fault     `json:"-"`
	StackTrace []string  `json:"stackTrace,omitempty"`
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("[%s] %s", e.Category, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Context, e.Category, e.Message)
}

// Unwrap provides access to the underlying fault
func (e *ClassifiedError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports whether the error's category is worth retrying.
func (e *ClassifiedError) Retryable() bool {
	return IsRetryableCategory(e.Category)
}

// ErrorBuilder assembles a ClassifiedError and logs it once on Build.
type ErrorBuilder struct {
	err          *ClassifiedError
	overrides    Messages
	logger       *logging.Logger
	captureStack bool
	now          func() time.Time
}

// NewClassifiedError starts a builder for the given fault. The category is
// derived from the fault unless overridden with WithCategory.
func NewClassifiedError(cause Fault) *ErrorBuilder {
	return &ErrorBuilder{
		err: &ClassifiedError{
			Category: Classify(cause),
			Cause:    cause,
		},
		logger: logging.GetErrorsLogger(),
		now:    time.Now,
	}
}

// WithContext sets the label of the operation site.
func (eb *ErrorBuilder) WithContext(context string) *ErrorBuilder {
	eb.err.Context = context
	return eb
}

// WithOverrides sets the per-site message table used by MessageFor.
func (eb *ErrorBuilder) WithOverrides(overrides Messages) *ErrorBuilder {
	eb.overrides = overrides
	return eb
}

// WithCategory forces a category instead of classifying the cause.
func (eb *ErrorBuilder) WithCategory(c Category) *ErrorBuilder {
	eb.err.Category = c
	return eb
}

// WithLogger replaces the logger used on Build.
func (eb *ErrorBuilder) WithLogger(logger *logging.Logger) *ErrorBuilder {
	if logger != nil {
		eb.logger = logger
	}
	return eb
}

// WithClock replaces the timestamp source.
func (eb *ErrorBuilder) WithClock(now func() time.Time) *ErrorBuilder {
	if now != nil {
		eb.now = now
	}
	return eb
}

// WithStackTrace records the caller's stack on Build.
func (eb *ErrorBuilder) WithStackTrace() *ErrorBuilder {
	eb.captureStack = true
	return eb
}

// Build finalizes the error and logs it at a level chosen by category.
func (eb *ErrorBuilder) Build() *ClassifiedError {
	e := eb.err
	e.ID = uuid.NewString()
	e.OccurredAt = eb.now()
	e.Message = MessageFor(e.Cause, e.Category, eb.overrides)
	if eb.captureStack {
		e.StackTrace = captureStackTrace(3)
	}

	fields := map[string]interface{}{
		"error_id":  e.ID,
		"category":  string(e.Category),
		"context":   e.Context,
		"retryable": e.Retryable(),
	}
	if rf, ok := e.Cause.(*ResponseFault); ok && rf != nil {
		fields["status"] = rf.Status
	}

	logMessage := e.Message
	if e.Cause != nil {
		logMessage = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	log := eb.logger.WithFields(fields)
	switch e.Category {
	case CategoryServer, CategoryUnknown:
		log.Error(logMessage)
	case CategoryNetwork, CategoryAuth:
		log.Warn(logMessage)
	default:
		log.Info(logMessage)
	}

	// Detach from the builder so later builder calls cannot mutate it.
	built := *e
	return &built
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) []string {
	var traces []string
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		funcName := "unknown"
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
		}

		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}

		traces = append(traces, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return traces
}
