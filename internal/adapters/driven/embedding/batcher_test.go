package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// lengthEmbed returns a 2-d vector encoding the text length, so order can be checked.
func lengthEmbed(calls *[]string) EmbedFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		*calls = append(*calls, text)
		return []float32{float32(len(text)), 1}, nil
	}
}

func TestNewBatcher_Defaults(t *testing.T) {
	b := NewBatcher(BatcherConfig{})
	assert.Equal(t, DefaultBatchSize, b.BatchSize())
	assert.Nil(t, b.limiter)

	b = NewBatcher(BatcherConfig{BatchSize: 7, RequestsPerSecond: 0.5})
	assert.Equal(t, 7, b.BatchSize())
	require.NotNil(t, b.limiter)
	assert.Equal(t, 1, b.limiter.Burst())
}

func TestBatcher_Batch_PreservesOrderAndLength(t *testing.T) {
	b := NewBatcher(BatcherConfig{BatchSize: 3})

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	var calls []string
	vecs, err := b.Batch(context.Background(), texts, lengthEmbed(&calls))
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))

	for i, v := range vecs {
		assert.Equal(t, float32(i+1), v[0], "vector %d out of order", i)
	}
	assert.Equal(t, texts, calls, "one sequential request per text")
}

func TestBatcher_Batch_Empty(t *testing.T) {
	b := NewBatcher(BatcherConfig{})
	vecs, err := b.Batch(context.Background(), nil, func(context.Context, string) ([]float32, error) {
		t.Fatal("embed should not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestBatcher_Batch_FailFast(t *testing.T) {
	b := NewBatcher(BatcherConfig{BatchSize: 2})
	boom := errors.New("boom")

	calls := 0
	fn := func(_ context.Context, text string) ([]float32, error) {
		calls++
		if text == "c" {
			return nil, boom
		}
		return []float32{1}, nil
	}

	vecs, err := b.Batch(context.Background(), []string{"a", "b", "c", "d", "e"}, fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "embed text 2")
	assert.Nil(t, vecs, "no partial result")
	assert.Equal(t, 3, calls, "requests after the failure are not sent")
}

func TestBatcher_One_DimensionMismatch(t *testing.T) {
	b := NewBatcher(BatcherConfig{Dimensions: 3})

	_, err := b.One(context.Background(), "x", func(context.Context, string) ([]float32, error) {
		return []float32{1, 2}, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}

func TestBatcher_One_LimiterHonoursContext(t *testing.T) {
	b := NewBatcher(BatcherConfig{RequestsPerSecond: 0.001})
	fn := func(context.Context, string) ([]float32, error) { return []float32{1}, nil }

	// The first request consumes the burst token.
	_, err := b.One(context.Background(), "a", fn)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.One(ctx, "b", fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func ExampleBatcher_Batch() {
	b := NewBatcher(BatcherConfig{BatchSize: 2})
	vecs, _ := b.Batch(context.Background(), []string{"a", "bb", "ccc"},
		func(_ context.Context, s string) ([]float32, error) {
			return []float32{float32(len(s))}, nil
		})
	fmt.Println(len(vecs), vecs[2][0])
	// Output: 3 3
}
