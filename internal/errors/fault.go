// Package errors classifies faults raised by store operations into a small,
// stable set of categories, resolves a user-facing message for each, and
// tracks per-operation failure state so the UI can offer a retry.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Fault is the closed set of failures produced at the API-call boundary.
// The unexported marker method keeps the set closed to this package.
type Fault interface {
	error
	fault()
}

// ResponseFault means the server answered with a status of 400 or above.
type ResponseFault struct {
	Status  int
	Message string
	Body    string
}

func (f *ResponseFault) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("server responded %d: %s", f.Status, f.Message)
	}
	return fmt.Sprintf("server responded %d %s", f.Status, http.StatusText(f.Status))
}

func (*ResponseFault) fault() {}

// TransportFault means the request left but no response came back.
type TransportFault struct {
	Op      string
	Err     error
	Timeout bool
}

func (f *TransportFault) Error() string {
	if f.Timeout {
		return fmt.Sprintf("%s: request timed out: %v", f.Op, f.Err)
	}
	return fmt.Sprintf("%s: no response: %v", f.Op, f.Err)
}

func (f *TransportFault) Unwrap() error { return f.Err }

func (*TransportFault) fault() {}

// LocalFault covers failures that never involved the network, such as a
// storage error or an undecodable body.
type LocalFault struct {
	Message string
	Err     error
}

func (f *LocalFault) Error() string {
	switch {
	case f.Message != "" && f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	case f.Message != "":
		return f.Message
	case f.Err != nil:
		return f.Err.Error()
	default:
		return "local failure"
	}
}

func (f *LocalFault) Unwrap() error { return f.Err }

func (*LocalFault) fault() {}

// InputFault reports a missing or invalid field supplied by the user.
type InputFault struct {
	Field   string
	Message string
}

func (f *InputFault) Error() string {
	switch {
	case f.Field == "":
		return f.Message
	case f.Message == "":
		return f.Field + " is required"
	default:
		return fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
}

func (*InputFault) fault() {}

// AsFault finds the Fault carried by err. Errors that carry none are wrapped
// in a LocalFault without a message, so they resolve to the category default.
func AsFault(err error) Fault {
	if err == nil {
		return nil
	}
	var f Fault
	if stderrors.As(err, &f) {
		return f
	}
	return &LocalFault{Err: err}
}

// plainMessage returns the user-authored message of a fault that has no
// response descriptor. Transport faults carry only technical detail.
func plainMessage(f Fault) (string, bool) {
	switch v := f.(type) {
	case *LocalFault:
		if v == nil {
			return "", false
		}
		return v.Message, v.Message != ""
	case *InputFault:
		if v == nil {
			return "", false
		}
		return v.Message, v.Message != ""
	default:
		return "", false
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return stderrors.New(text) }
