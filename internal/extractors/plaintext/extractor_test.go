package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestMediaTypes(t *testing.T) {
	assert.Equal(t, []domain.MediaType{domain.MediaTypeTXT}, New().MediaTypes())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "plain", input: []byte("hello world"), expected: "hello world"},
		{name: "empty", input: nil, expected: ""},
		{name: "unicode", input: []byte("naïve café"), expected: "naïve café"},
		{name: "byte order mark", input: []byte("\xef\xbb\xbfhello"), expected: "hello"},
		{name: "invalid sequence", input: []byte("a\xffb"), expected: "a\uFFFDb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := New().Extract(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}
