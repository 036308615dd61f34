package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/db"
)

func TestAudit_RecordsAreWritten(t *testing.T) {
	client := newTestDB(t)
	svc := NewAuditService(client)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx))

	svc.Record(ctx, db.AuditRecord{
		Actor:     "super_admin:root",
		Operation: "bypass",
		Reason:    "cycle-renewal",
	})

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(stopCtx))

	var records []db.AuditRecord
	require.NoError(t, client.Find(&records).Error)
	require.Len(t, records, 1)
	require.Equal(t, "cycle-renewal", records[0].Reason)
	require.False(t, records[0].OccurredAt.IsZero())
}

func TestAudit_CapturesBypasses(t *testing.T) {
	client := newTestDB(t)
	svc := NewAuditService(client)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx))

	_, _ = authz.RunWithSystemBypass(ctx, "test-sweep", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(stopCtx))

	var records []db.AuditRecord
	require.NoError(t, client.Where("reason = ?", "test-sweep").Find(&records).Error)
	require.Len(t, records, 1)
	require.Equal(t, "bypass", records[0].Operation)
}

func TestAudit_RecordAfterStopIsDropped(t *testing.T) {
	client := newTestDB(t)
	svc := NewAuditService(client)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(stopCtx))

	// A straggler arriving after shutdown must be dropped, not panic.
	require.NotPanics(t, func() {
		svc.Record(ctx, db.AuditRecord{Operation: "bypass", Reason: "late"})
	})

	require.NoError(t, svc.Stop(stopCtx), "stop is idempotent")

	var count int64
	require.NoError(t, client.Model(&db.AuditRecord{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAudit_ConcurrentRecordAndStop(t *testing.T) {
	client := newTestDB(t)
	svc := NewAuditService(client)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx))

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 100; i++ {
			svc.Record(ctx, db.AuditRecord{Operation: "bypass", Reason: "burst"})
		}
	}()

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(stopCtx))

	<-done
}
