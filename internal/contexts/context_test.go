package contexts

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTraceID(t *testing.T) {
	ctx := context.Background()

	_, ok := GetTraceID(ctx)
	assert.False(t, ok)

	ctx = WithTraceID(ctx, "trace-1")

	got, ok := GetTraceID(ctx)
	require.True(t, ok)
	assert.Equal(t, "trace-1", got)
}

func TestWithOperationName(t *testing.T) {
	ctx := WithOperationName(context.Background(), "effective-access")

	got, ok := GetOperationName(ctx)
	require.True(t, ok)
	assert.Equal(t, "effective-access", got)
}

func TestNew_ResetsContainer(t *testing.T) {
	ctx := WithTraceID(context.Background(), "stale")

	// A new request context starts clean even when derived from a context
	// that already carried values.
	ctx = New(ctx)

	_, ok := GetTraceID(ctx)
	assert.False(t, ok)
}

func TestAddError(t *testing.T) {
	ctx := New(context.Background())

	assert.Empty(t, GetErrors(ctx))

	AddError(ctx, fmt.Errorf("boom"))
	AddError(ctx, nil)

	errs := GetErrors(ctx)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "boom")
}

func TestAddError_Concurrent(t *testing.T) {
	ctx := New(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			AddError(ctx, fmt.Errorf("err-%d", i))
		}(i)
	}

	wg.Wait()

	assert.Len(t, GetErrors(ctx), 32)
}

func TestContainers_AreRequestLocal(t *testing.T) {
	a := WithTraceID(New(context.Background()), "a")
	b := WithTraceID(New(context.Background()), "b")

	gotA, _ := GetTraceID(a)
	gotB, _ := GetTraceID(b)
	assert.Equal(t, "a", gotA)
	assert.Equal(t, "b", gotB)
}
