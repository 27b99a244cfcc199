package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrValidation", ErrValidation},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrUpstreamFailure", ErrUpstreamFailure},
		{"ErrIngestionInProgress", ErrIngestionInProgress},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Wrapping tests sentinel detection through wrapped errors
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: embed: status 503", ErrUpstreamFailure)

	assert.True(t, errors.Is(wrapped, ErrUpstreamFailure))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "upstream failure")
}
