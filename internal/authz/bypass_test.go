package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBypassActive(t *testing.T) {
	ctx := context.Background()
	require.False(t, IsBypassActive(ctx))

	bypassCtx := WithSystemBypass(ctx, "test-reason")
	require.True(t, IsBypassActive(bypassCtx))

	// The original context stays untouched.
	require.False(t, IsBypassActive(ctx))

	reason, at, ok := GetBypassInfo(bypassCtx)
	require.True(t, ok)
	require.Equal(t, "test-reason", reason)
	require.False(t, at.IsZero())
}

func TestRunWithSystemBypass(t *testing.T) {
	got, err := RunWithSystemBypass(context.Background(), "cycle-renewal", func(ctx context.Context) (int, error) {
		require.True(t, IsBypassActive(ctx))
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestRunWithSystemBypass_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")

	_, err := RunWithSystemBypass(context.Background(), "cycle-renewal", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestWithSystemBypass_Audited(t *testing.T) {
	var recorded []BypassAuditRecord

	SetAuditLogger(func(ctx context.Context, record BypassAuditRecord) {
		recorded = append(recorded, record)
	})
	defer SetAuditLogger(nil)

	WithSystemBypass(context.Background(), "quota-check")

	require.Len(t, recorded, 1)
	require.Equal(t, "quota-check", recorded[0].Reason)
	require.Equal(t, "bypass", recorded[0].Operation)
}
