package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_WrapsAndFormats(t *testing.T) {
	base := NewAPIError("openrouter", 429, "rate limited")
	assert.Equal(t, "openrouter API error (status 429): rate limited", base.Error())

	inner := errors.New("boom")
	wrapped := &APIError{Service: "openrouter", StatusCode: 500, Message: "upstream", Err: inner}
	assert.Contains(t, wrapped.Error(), "boom")
	assert.True(t, errors.Is(wrapped, inner))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewAPIError("x", 429, "")))
	assert.True(t, IsRetryable(NewAPIError("x", 503, "")))
	assert.False(t, IsRetryable(NewAPIError("x", 400, "")))
	assert.False(t, IsRetryable(NewAPIError("x", 404, "")))

	assert.True(t, IsRetryable(ErrUnavailable))
	assert.True(t, IsRetryable(fmt.Errorf("calling model: %w", ErrUnavailable)))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(nil))
}

func TestSentinelChains(t *testing.T) {
	err := fmt.Errorf("loading project: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))
}
