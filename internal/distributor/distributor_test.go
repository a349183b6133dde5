package distributor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func work(n int) []WorkFunc[any] {
	items := make([]WorkFunc[any], n)
	for i := 0; i < n; i++ {
		i := i
		items[i] = func(ctx context.Context) (any, error) {
			return i * i, nil
		}
	}
	return items
}

func TestSequentialPreservesOrder(t *testing.T) {
	results, err := Sequential{}.Perform(context.Background(), work(5))
	require.NoError(t, err)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, i*i, r.Value)
	}
}

func TestConcurrentPreservesOrder(t *testing.T) {
	results, err := Concurrent{}.Perform(context.Background(), work(32))
	require.NoError(t, err)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, i*i, r.Value)
	}
}

func TestConcurrentErrorsDoNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	items := []WorkFunc[any]{
		func(ctx context.Context) (any, error) { return 1, nil },
		func(ctx context.Context) (any, error) { return nil, boom },
		func(ctx context.Context) (any, error) { return 3, nil },
	}

	results, err := Concurrent{}.Perform(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, 3, results[2].Value)
}

func TestConcurrentRespectsMaxConcurrency(t *testing.T) {
	results, err := Concurrent{MaxConcurrency: 2}.Perform(context.Background(), work(10))
	require.NoError(t, err)
	assert.Len(t, results, 10)
}
