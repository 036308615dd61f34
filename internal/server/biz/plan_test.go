package biz

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
)

func seedPlan(t *testing.T, client *gorm.DB, monthlyCredits, rolloverCap int64) *db.Plan {
	t.Helper()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	plan := &db.Plan{
		Name:           "standard",
		MonthlyCredits: monthlyCredits,
		OverflowLimit:  50,
		RolloverCap:    rolloverCap,
		UnitPrice:      decimal.NewFromFloat(0.02),
		PeriodStart:    start,
		PeriodEnd:      start.AddDate(0, 1, 0),
		Status:         db.PlanStatusActive,
	}
	plan.AccountID = "acc-1"
	require.NoError(t, client.Create(plan).Error)

	return plan
}

func TestPlan_ActivePlan(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)

	t.Run("missing", func(t *testing.T) {
		_, err := svc.ActivePlan(context.Background(), "acc-1")
		require.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("found", func(t *testing.T) {
		seedPlan(t, client, 1000, 100)

		plan, err := svc.ActivePlan(context.Background(), "acc-1")
		require.NoError(t, err)
		require.Equal(t, "standard", plan.Name)
	})
}

func TestPlan_DistributeEqually(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)
	plan := seedPlan(t, client, 1000, 100)

	t.Run("uneven total sums exactly", func(t *testing.T) {
		allocations, err := svc.DistributeEqually(context.Background(), plan, 100, 10, []string{"s1", "s2", "s3"})
		require.NoError(t, err)
		require.Len(t, allocations, 3)

		credits := lo.Map(allocations, func(a db.Allocation, _ int) int64 { return a.Credits })
		require.Equal(t, []int64{34, 33, 33}, credits)
		require.EqualValues(t, 100, lo.Sum(credits), "no silent credit loss")

		for _, alloc := range allocations {
			require.EqualValues(t, 10, alloc.OverflowLimit, "same overflow cap for each scope")
			require.Equal(t, "acc-1", alloc.AccountID)
		}
	})

	t.Run("no scopes", func(t *testing.T) {
		_, err := svc.DistributeEqually(context.Background(), plan, 100, 10, nil)
		require.Error(t, err)
	})
}

func TestPlan_EffectiveAllocations(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)
	plan := seedPlan(t, client, 1000, 100)

	_, err := svc.DistributeEqually(context.Background(), plan, 300, 10, []string{"s1", "s2", "s3"})
	require.NoError(t, err)

	override := &db.AllocationOverride{PlanID: plan.ID, ScopeID: "s2", Credits: 500, OverflowLimit: 25}
	override.AccountID = "acc-1"
	require.NoError(t, client.Create(override).Error)

	effective, err := svc.EffectiveAllocations(context.Background(), plan.ID)
	require.NoError(t, err)
	require.Len(t, effective, 3)

	byScope := lo.KeyBy(effective, func(e EffectiveAllocation) string { return e.ScopeID })

	// The override replaces the plan allocation unconditionally.
	require.EqualValues(t, 500, byScope["s2"].Credits)
	require.EqualValues(t, 25, byScope["s2"].OverflowLimit)
	require.True(t, byScope["s2"].Overridden)

	require.EqualValues(t, 100, byScope["s1"].Credits)
	require.False(t, byScope["s1"].Overridden)
}

func TestPlan_RenewCycle(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)
	plan := seedPlan(t, client, 1000, 100)

	_, err := svc.DistributeEqually(context.Background(), plan, 900, 10, []string{"s1", "s2", "s3"})
	require.NoError(t, err)

	override := &db.AllocationOverride{PlanID: plan.ID, ScopeID: "s1", Credits: 400}
	override.AccountID = "acc-1"
	require.NoError(t, client.Create(override).Error)

	usage := db.Quota{Unit: "credits", Included: 1000, Used: 1100, OverflowUsed: 50, IsActive: true}
	usage.AccountID = "acc-1"
	require.NoError(t, client.Create(&usage).Error)

	newStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	newEnd := newStart.AddDate(0, 1, 0)

	result, err := svc.RenewCycle(context.Background(), "acc-1", newStart, newEnd, RenewOptions{
		InjectRolloverPool: true,
		CopyOverrides:      true,
	})
	require.NoError(t, err)

	t.Run("old plan closed, new plan open", func(t *testing.T) {
		var closed db.Plan
		require.NoError(t, client.First(&closed, "id = ?", plan.ID).Error)
		require.Equal(t, db.PlanStatusClosed, closed.Status)

		active, err := svc.ActivePlan(context.Background(), "acc-1")
		require.NoError(t, err)
		require.Equal(t, result.NewPlan.ID, active.ID)
		require.Equal(t, newStart.Unix(), active.PeriodStart.Unix())
	})

	t.Run("allocations copied verbatim plus rollover pool", func(t *testing.T) {
		var allocations []db.Allocation
		require.NoError(t, client.Where("plan_id = ?", result.NewPlan.ID).Order("scope_id").Find(&allocations).Error)
		require.Len(t, allocations, 4)

		byScope := lo.KeyBy(allocations, func(a db.Allocation) string { return a.ScopeID })
		require.EqualValues(t, 300, byScope["s1"].Credits)

		// Unallocated headroom is 1000-900=100, capped at 100.
		pool := byScope["pool"]
		require.Equal(t, db.AllocationKindPool, pool.Kind)
		require.EqualValues(t, 100, pool.Credits)
	})

	t.Run("overrides copied with provenance", func(t *testing.T) {
		var overrides []db.AllocationOverride
		require.NoError(t, client.Where("plan_id = ?", result.NewPlan.ID).Find(&overrides).Error)
		require.Len(t, overrides, 1)
		require.EqualValues(t, 400, overrides[0].Credits)
		require.Equal(t, "renewal:"+plan.ID, overrides[0].Provenance)
	})

	t.Run("summary records closing numbers", func(t *testing.T) {
		summary := result.Summary
		require.EqualValues(t, 900, summary.Distributed)
		require.EqualValues(t, 100, summary.Unallocated)
		require.EqualValues(t, 1150, summary.UsageInWindow)
		require.EqualValues(t, 150, summary.OverflowCharge, "usage beyond monthly credits, reporting-only")
		require.EqualValues(t, 100, summary.RolloverInjected)
		require.True(t, summary.OverflowChargeAmount.Equal(decimal.NewFromFloat(3.0)),
			"150 overflow credits at 0.02 per credit")
	})
}

func TestPlan_RenewCycle_NoActivePlan(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)

	_, err := svc.RenewCycle(context.Background(), "acc-1", time.Now(), time.Now().AddDate(0, 1, 0), RenewOptions{})
	require.ErrorIs(t, err, ErrPlanNotFound)

	// Nothing committed.
	var count int64
	require.NoError(t, client.Model(&db.CycleSummary{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPlan_RenewCycle_PoolCappedByRollover(t *testing.T) {
	client := newTestDB(t)
	svc := NewPlanService(client)
	plan := seedPlan(t, client, 1000, 30)

	_, err := svc.DistributeEqually(context.Background(), plan, 100, 0, []string{"s1"})
	require.NoError(t, err)

	result, err := svc.RenewCycle(context.Background(), "acc-1", time.Now(), time.Now().AddDate(0, 1, 0), RenewOptions{
		InjectRolloverPool: true,
	})
	require.NoError(t, err)

	// min(unallocated 900, rollover cap 30).
	require.EqualValues(t, 30, result.Summary.RolloverInjected)
}
