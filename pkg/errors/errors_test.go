package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	rateLimited := New(ErrorTypeRateLimit, 429, "rate limit exceeded")
	auth := New(ErrorTypeAuth, 401, "not authorized")
	wrapped := fmt.Errorf("fetch page: %w", rateLimited)

	assert.True(t, IsRateLimit(rateLimited))
	assert.True(t, IsRateLimit(wrapped))
	assert.False(t, IsRateLimit(auth))
	assert.False(t, IsRateLimit(errors.New("plain")))

	assert.True(t, IsProviderError(auth))
	assert.False(t, IsProviderError(wrapped))
	assert.False(t, IsProviderError(errors.New("plain")))

	assert.Equal(t, ErrorTypeAuth, TypeOf(fmt.Errorf("x: %w", auth)))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "user %d not found", 42)
	assert.Equal(t, "twitter not_found error (code 404): user 42 not found", err.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}
