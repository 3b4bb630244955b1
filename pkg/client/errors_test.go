package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		errorClass ErrorClass
		expected   bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorClass), func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldRetry(tt.errorClass))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 502, ErrorClass: ErrorClassServer, Message: "502 Bad Gateway"}
	assert.Equal(t, "pokeapi server error (status 502): 502 Bad Gateway", err.Error())

	wrapped := &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "pokeapi network error (status 0): request failed: dial tcp: refused", wrapped.Error())
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &APIError{ErrorClass: ErrorClassNetwork, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Nil(t, (&APIError{}).Unwrap())
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ErrorClassServer, classOf(fmt.Errorf("wrap: %w", &APIError{ErrorClass: ErrorClassServer})))
	assert.Equal(t, ErrorClassNetwork, classOf(errors.New("eof")))
}

func TestIsTemporary(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", fmt.Errorf("/pokemon/x: %w", ErrNotFound), false},
		{"client", &APIError{StatusCode: 400, ErrorClass: ErrorClassClient}, false},
		{"server", &APIError{StatusCode: 503, ErrorClass: ErrorClassServer}, true},
		{"rate limited", &APIError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, Err: ErrRateLimited}, true},
		{"exhausted", fmt.Errorf("%w after 3 attempts: boom", ErrRetryExhausted), true},
		{"plain", errors.New("decode: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTemporary(tt.err))
		})
	}
}
