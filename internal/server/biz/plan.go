package biz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/server/db"
)

// PlanService is the allocation and cycle engine on top of the quota
// ledger: per-scope allocation rows under an account-level plan, equal
// distribution, and transactional cycle renewal.
type PlanService struct {
	*AbstractService
}

func NewPlanService(client *gorm.DB) *PlanService {
	return &PlanService{AbstractService: &AbstractService{db: client}}
}

// ActivePlan returns the account's open plan.
func (s *PlanService) ActivePlan(ctx context.Context, accountID string) (*db.Plan, error) {
	var plan db.Plan

	err := s.dbFromContext(ctx).
		Where("account_id = ? AND status = ?", accountID, db.PlanStatusActive).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}

		return nil, fmt.Errorf("load active plan: %w", err)
	}

	return &plan, nil
}

// EffectiveAllocation is the allocation that actually applies to a scope
// after overrides.
type EffectiveAllocation struct {
	ScopeID       string `json:"scopeId"`
	Credits       int64  `json:"credits"`
	OverflowLimit int64  `json:"overflowLimit"`
	Overridden    bool   `json:"overridden"`
}

// EffectiveAllocations merges the plan's allocation rows with their
// overrides. An override replaces the plan allocation unconditionally;
// there is no blending.
func (s *PlanService) EffectiveAllocations(ctx context.Context, planID string) ([]EffectiveAllocation, error) {
	conn := s.dbFromContext(ctx)

	var allocations []db.Allocation
	if err := conn.Where("plan_id = ?", planID).Order("scope_id, id").Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}

	var overrides []db.AllocationOverride
	if err := conn.Where("plan_id = ?", planID).Order("scope_id, id").Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("load allocation overrides: %w", err)
	}

	overrideByScope := make(map[string]db.AllocationOverride, len(overrides))
	for _, o := range overrides {
		overrideByScope[o.ScopeID] = o
	}

	effective := make([]EffectiveAllocation, 0, len(allocations))

	for _, alloc := range allocations {
		e := EffectiveAllocation{
			ScopeID:       alloc.ScopeID,
			Credits:       alloc.Credits,
			OverflowLimit: alloc.OverflowLimit,
		}

		if o, ok := overrideByScope[alloc.ScopeID]; ok {
			e.Credits = o.Credits
			e.OverflowLimit = o.OverflowLimit
			e.Overridden = true
		}

		effective = append(effective, e)
	}

	sort.Slice(effective, func(i, j int) bool { return effective[i].ScopeID < effective[j].ScopeID })

	return effective, nil
}

// DistributeEqually splits total evenly across the scope ids: every scope
// gets the floor share and the first total%n scopes get one extra credit,
// so the shares always sum exactly to total. All rows land in one
// transaction.
func (s *PlanService) DistributeEqually(ctx context.Context, plan *db.Plan, total, overflowLimit int64, scopeIDs []string) ([]db.Allocation, error) {
	if len(scopeIDs) == 0 {
		return nil, fmt.Errorf("no scopes to distribute across")
	}

	if total < 0 {
		return nil, fmt.Errorf("negative distribution total %d", total)
	}

	n := int64(len(scopeIDs))
	share := total / n
	remainder := total % n

	allocations := make([]db.Allocation, 0, len(scopeIDs))

	for i, scopeID := range scopeIDs {
		credits := share
		if int64(i) < remainder {
			credits++
		}

		alloc := db.Allocation{
			PlanID:        plan.ID,
			ScopeID:       scopeID,
			Credits:       credits,
			OverflowLimit: overflowLimit,
			Kind:          db.AllocationKindScope,
		}
		alloc.AccountID = plan.AccountID
		allocations = append(allocations, alloc)
	}

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		for i := range allocations {
			if err := s.dbFromContext(txCtx).Create(&allocations[i]).Error; err != nil {
				return fmt.Errorf("create allocation: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return allocations, nil
}

// RenewOptions controls the optional parts of a cycle renewal.
type RenewOptions struct {
	// InjectRolloverPool adds one "pool" allocation to the new plan equal
	// to min(unallocated headroom, rollover cap), when positive.
	InjectRolloverPool bool
	// CopyOverrides carries allocation overrides into the new plan with
	// provenance pointing at the closed plan.
	CopyOverrides bool
}

// CycleResult reports one renewal.
type CycleResult struct {
	ClosedPlan *db.Plan
	NewPlan    *db.Plan
	Summary    *db.CycleSummary
}

// RenewCycle closes the account's active plan and opens the next one:
// prior allocations copy forward verbatim, unallocated headroom may seed
// a rollover pool, overrides may carry forward with provenance, and a
// cycle summary records the closing numbers. Overflow charge is
// reporting-only. Fully committed or fully rolled back.
func (s *PlanService) RenewCycle(ctx context.Context, accountID string, newStart, newEnd time.Time, opts RenewOptions) (*CycleResult, error) {
	var result *CycleResult

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		conn := s.dbFromContext(txCtx)

		plan, err := s.ActivePlan(txCtx, accountID)
		if err != nil {
			return err
		}

		var allocations []db.Allocation
		if err := conn.Where("plan_id = ?", plan.ID).Order("scope_id, id").Find(&allocations).Error; err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}

		var distributed int64
		for _, alloc := range allocations {
			distributed += alloc.Credits
		}

		unallocated := plan.MonthlyCredits - distributed

		usage, err := s.usageInWindow(txCtx, accountID)
		if err != nil {
			return err
		}

		overflowCharge := usage - plan.MonthlyCredits
		if overflowCharge < 0 {
			overflowCharge = 0
		}

		if err := conn.Model(&db.Plan{}).
			Where("id = ? AND status = ?", plan.ID, db.PlanStatusActive).
			Update("status", db.PlanStatusClosed).Error; err != nil {
			return fmt.Errorf("close plan: %w", err)
		}

		newPlan := &db.Plan{
			Name:           plan.Name,
			MonthlyCredits: plan.MonthlyCredits,
			OverflowLimit:  plan.OverflowLimit,
			RolloverCap:    plan.RolloverCap,
			UnitPrice:      plan.UnitPrice,
			PeriodStart:    newStart,
			PeriodEnd:      newEnd,
			Status:         db.PlanStatusActive,
		}
		newPlan.AccountID = plan.AccountID

		if err := conn.Create(newPlan).Error; err != nil {
			return fmt.Errorf("open new plan: %w", err)
		}

		for _, alloc := range allocations {
			copied := db.Allocation{
				PlanID:        newPlan.ID,
				ScopeID:       alloc.ScopeID,
				Credits:       alloc.Credits,
				OverflowLimit: alloc.OverflowLimit,
				Kind:          alloc.Kind,
			}
			copied.AccountID = plan.AccountID

			if err := conn.Create(&copied).Error; err != nil {
				return fmt.Errorf("copy allocation: %w", err)
			}
		}

		var rolloverInjected int64

		if opts.InjectRolloverPool {
			rolloverInjected = min(max(unallocated, 0), plan.RolloverCap)
			if rolloverInjected > 0 {
				pool := db.Allocation{
					PlanID:  newPlan.ID,
					ScopeID: "pool",
					Credits: rolloverInjected,
					Kind:    db.AllocationKindPool,
				}
				pool.AccountID = plan.AccountID

				if err := conn.Create(&pool).Error; err != nil {
					return fmt.Errorf("inject rollover pool: %w", err)
				}
			}
		}

		if opts.CopyOverrides {
			if err := s.copyOverrides(txCtx, plan, newPlan); err != nil {
				return err
			}
		}

		summary := &db.CycleSummary{
			PlanID:           plan.ID,
			NewPlanID:        newPlan.ID,
			MonthlyCredits:   plan.MonthlyCredits,
			Distributed:      distributed,
			Unallocated:      unallocated,
			UsageInWindow:    usage,
			OverflowCharge:   overflowCharge,
			RolloverInjected: rolloverInjected,
			ClosedAt:         time.Now(),

			OverflowChargeAmount: plan.UnitPrice.Mul(decimal.NewFromInt(overflowCharge)),
		}
		summary.AccountID = plan.AccountID

		if err := conn.Create(summary).Error; err != nil {
			return fmt.Errorf("record cycle summary: %w", err)
		}

		result = &CycleResult{ClosedPlan: plan, NewPlan: newPlan, Summary: summary}
		result.ClosedPlan.Status = db.PlanStatusClosed

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "plan cycle renewed",
		log.String("account_id", accountID),
		log.String("closed_plan_id", result.ClosedPlan.ID),
		log.String("new_plan_id", result.NewPlan.ID),
		log.Int64("overflow_charge", result.Summary.OverflowCharge),
	)

	return result, nil
}

func (s *PlanService) copyOverrides(ctx context.Context, oldPlan, newPlan *db.Plan) error {
	conn := s.dbFromContext(ctx)

	var overrides []db.AllocationOverride
	if err := conn.Where("plan_id = ?", oldPlan.ID).Order("scope_id, id").Find(&overrides).Error; err != nil {
		return fmt.Errorf("load allocation overrides: %w", err)
	}

	for _, o := range overrides {
		copied := db.AllocationOverride{
			PlanID:        newPlan.ID,
			ScopeID:       o.ScopeID,
			Credits:       o.Credits,
			OverflowLimit: o.OverflowLimit,
			Provenance:    "renewal:" + oldPlan.ID,
		}
		copied.AccountID = oldPlan.AccountID

		if err := conn.Create(&copied).Error; err != nil {
			return fmt.Errorf("copy allocation override: %w", err)
		}
	}

	return nil
}

// usageInWindow sums consumption across the account's active quota rows.
func (s *PlanService) usageInWindow(ctx context.Context, accountID string) (int64, error) {
	var usage struct {
		Total int64
	}

	err := s.dbFromContext(ctx).
		Model(&db.Quota{}).
		Select("COALESCE(SUM(used + overflow_used), 0) AS total").
		Where("account_id = ? AND is_active = ?", accountID, true).
		Scan(&usage).Error
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}

	return usage.Total, nil
}
