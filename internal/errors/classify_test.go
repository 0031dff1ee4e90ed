package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		fault Fault
		want  Category
	}{
		{"unauthorized", &ResponseFault{Status: 401}, CategoryAuth},
		{"forbidden with message", &ResponseFault{Status: 403, Message: "nope", Body: `{"x":1}`}, CategoryAuth},
		{"internal error", &ResponseFault{Status: 500}, CategoryServer},
		{"bad gateway", &ResponseFault{Status: 502}, CategoryServer},
		{"bad request", &ResponseFault{Status: 400}, CategoryValidation},
		{"not found", &ResponseFault{Status: 404}, CategoryValidation},
		{"top of 4xx", &ResponseFault{Status: 499}, CategoryValidation},
		{"status below 400", &ResponseFault{Status: 302}, CategoryUnknown},
		{"transport", &TransportFault{Op: "GET /products", Err: fmt.Errorf("connection refused")}, CategoryNetwork},
		{"timeout", &TransportFault{Op: "GET /products", Err: context.DeadlineExceeded, Timeout: true}, CategoryNetwork},
		{"local", &LocalFault{Message: "Token not found"}, CategoryUnknown},
		{"input", &InputFault{Field: "username", Message: "required"}, CategoryValidation},
		{"nil", nil, CategoryUnknown},
		{"typed nil response", (*ResponseFault)(nil), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.fault))
		})
	}
}

func TestClassifyAuthIgnoresOtherFields(t *testing.T) {
	for _, status := range []int{401, 403} {
		f := &ResponseFault{Status: status, Message: "Server exploded", Body: "<html>"}
		assert.Equal(t, CategoryAuth, Classify(f))
	}
}

func TestClassifyErrorUnwrapsWrappedFaults(t *testing.T) {
	wrapped := fmt.Errorf("load products: %w", &ResponseFault{Status: 503})
	assert.Equal(t, CategoryServer, ClassifyError(wrapped))
	assert.Equal(t, CategoryUnknown, ClassifyError(fmt.Errorf("plain failure")))
	assert.Equal(t, CategoryUnknown, ClassifyError(nil))
}

func TestAsFault(t *testing.T) {
	assert.Nil(t, AsFault(nil))

	foreign := fmt.Errorf("disk full")
	f := AsFault(foreign)
	lf, ok := f.(*LocalFault)
	if assert.True(t, ok) {
		assert.Empty(t, lf.Message)
		assert.ErrorIs(t, lf, foreign)
	}

	rf := &ResponseFault{Status: 401}
	assert.Same(t, rf, AsFault(fmt.Errorf("login: %w", rf)))
}

func TestMessageForPrecedence(t *testing.T) {
	overrides := Messages{CategoryUnknown: "override", CategoryValidation: "validation override"}

	t.Run("plain message wins over override", func(t *testing.T) {
		f := &LocalFault{Message: "Token not found"}
		assert.Equal(t, "Token not found", MessageFor(f, CategoryUnknown, overrides))
	})

	t.Run("input message wins over override", func(t *testing.T) {
		f := &InputFault{Field: "username", Message: "Please enter your username."}
		assert.Equal(t, "Please enter your username.", MessageFor(f, CategoryValidation, overrides))
	})

	t.Run("response message never shown verbatim", func(t *testing.T) {
		f := &ResponseFault{Status: 401, Message: "username or password is incorrect"}
		assert.Equal(t, LoginMessages[CategoryAuth], MessageFor(f, CategoryAuth, LoginMessages))
	})

	t.Run("override beats default", func(t *testing.T) {
		f := &TransportFault{Op: "GET /products", Err: fmt.Errorf("reset")}
		assert.Equal(t, ProductsMessages[CategoryNetwork], MessageFor(f, CategoryNetwork, ProductsMessages))
	})

	t.Run("default without override", func(t *testing.T) {
		f := &ResponseFault{Status: 500}
		assert.Equal(t, "Server error. Please try again later.", MessageFor(f, CategoryServer, nil))
	})

	t.Run("empty local message falls through", func(t *testing.T) {
		f := &LocalFault{Err: fmt.Errorf("decode")}
		assert.Equal(t, "Unexpected error. Please try again.", MessageFor(f, CategoryUnknown, nil))
	})

	t.Run("nil fault", func(t *testing.T) {
		assert.Equal(t, DefaultMessage(CategoryUnknown), MessageFor(nil, CategoryUnknown, nil))
	})
}

func TestDefaultMessagesCoverEveryCategory(t *testing.T) {
	for _, c := range Categories {
		assert.NotEmpty(t, DefaultMessage(c), c)
	}
	assert.Equal(t, DefaultMessage(CategoryUnknown), DefaultMessage(Category("BOGUS")))
}

func TestIsRetryableCategory(t *testing.T) {
	assert.True(t, IsRetryableCategory(CategoryNetwork))
	assert.True(t, IsRetryableCategory(CategoryServer))
	assert.False(t, IsRetryableCategory(CategoryAuth))
	assert.False(t, IsRetryableCategory(CategoryValidation))
	assert.False(t, IsRetryableCategory(CategoryUnknown))
}
