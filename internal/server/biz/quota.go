package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/server/db"
)

// QuotaService is the credit ledger: balance, check, deduct and reset for
// one account and unit. Every mutation is a single conditional UPDATE so
// concurrent deductions against the same row cannot race into a lost
// update.
type QuotaService struct {
	*AbstractService
}

func NewQuotaService(client *gorm.DB) *QuotaService {
	return &QuotaService{AbstractService: &AbstractService{db: client}}
}

type BalanceResult struct {
	Included      int64 `json:"included"`
	Used          int64 `json:"used"`
	Rollover      int64 `json:"rollover"`
	Available     int64 `json:"available"`
	OverflowUsed  int64 `json:"overflowUsed"`
	OverflowLimit int64 `json:"overflowLimit"`
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
}

func (s *QuotaService) activeQuota(ctx context.Context, accountID, unit string) (*db.Quota, error) {
	var quota db.Quota

	err := s.dbFromContext(ctx).
		Where("account_id = ? AND unit = ? AND is_active = ?", accountID, unit, true).
		First(&quota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuotaNotFound
		}

		return nil, fmt.Errorf("load quota: %w", err)
	}

	return &quota, nil
}

// Balance reads the current pool state. available includes the rollover
// carried from the previous period.
func (s *QuotaService) Balance(ctx context.Context, accountID, unit string) (BalanceResult, error) {
	quota, err := s.activeQuota(ctx, accountID, unit)
	if err != nil {
		return BalanceResult{}, err
	}

	return BalanceResult{
		Included:      quota.Included,
		Used:          quota.Used,
		Rollover:      quota.RolloverFromPrevious,
		Available:     quota.Included - quota.Used + quota.RolloverFromPrevious,
		OverflowUsed:  quota.OverflowUsed,
		OverflowLimit: quota.OverflowLimit,
	}, nil
}

// Check is read-only: remaining is the available pool plus the unused
// overflow headroom.
func (s *QuotaService) Check(ctx context.Context, accountID, unit string, amount int64) (CheckResult, error) {
	balance, err := s.Balance(ctx, accountID, unit)
	if err != nil {
		return CheckResult{}, err
	}

	remaining := balance.Available + (balance.OverflowLimit - balance.OverflowUsed)

	return CheckResult{
		Allowed:   remaining >= amount,
		Remaining: remaining,
	}, nil
}

// Deduct consumes amount from the included pool first, routing any excess
// into overflow up to the configured headroom. If the excess does not fit
// the overflow headroom the whole operation is rejected with no partial
// write. One conditional UPDATE; the guard and both SET expressions
// evaluate against the pre-update row.
func (s *QuotaService) Deduct(ctx context.Context, accountID, unit string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative deduction amount %d", amount)
	}

	if amount == 0 {
		return nil
	}

	tx := s.dbFromContext(ctx).
		Model(&db.Quota{}).
		Where("account_id = ? AND unit = ? AND is_active = ?", accountID, unit, true).
		Where("included - used + rollover_from_previous + (overflow_limit - overflow_used) >= ?", amount).
		Updates(map[string]any{
			"used": gorm.Expr(
				"used + CASE WHEN ? <= included - used + rollover_from_previous"+
					" THEN ? ELSE included - used + rollover_from_previous END",
				amount, amount,
			),
			"overflow_used": gorm.Expr(
				"overflow_used + CASE WHEN ? <= included - used + rollover_from_previous"+
					" THEN 0 ELSE ? - (included - used + rollover_from_previous) END",
				amount, amount,
			),
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return fmt.Errorf("deduct quota: %w", tx.Error)
	}

	if tx.RowsAffected > 0 {
		return nil
	}

	// The guard rejected the row or there is no row at all; reload to
	// tell the two apart.
	if _, err := s.activeQuota(ctx, accountID, unit); err != nil {
		return err
	}

	log.Debug(ctx, "quota deduction rejected",
		log.String("account_id", accountID),
		log.String("unit", unit),
		log.Int64("amount", amount),
	)

	return ErrQuotaExceeded
}

// Reset closes the period for one quota row: carries
// min(max(0, included-used+rollover), rollover_cap) into the new period
// when rollover is enabled, zeroes usage, and advances the window.
// Atomic per row. The row must belong to the given account; a foreign or
// unknown id is indistinguishable from a missing row.
func (s *QuotaService) Reset(ctx context.Context, accountID, quotaID string, newStart, newEnd time.Time) error {
	tx := s.dbFromContext(ctx).
		Model(&db.Quota{}).
		Where("id = ? AND account_id = ?", quotaID, accountID).
		Updates(map[string]any{
			"rollover_from_previous": gorm.Expr(
				"CASE WHEN rollover_enabled THEN" +
					" CASE WHEN included - used + rollover_from_previous <= 0 THEN 0" +
					" WHEN included - used + rollover_from_previous >= rollover_cap THEN rollover_cap" +
					" ELSE included - used + rollover_from_previous END" +
					" ELSE 0 END",
			),
			"used":          0,
			"overflow_used": 0,
			"period_start":  newStart,
			"period_end":    newEnd,
			"updated_at":    time.Now(),
		})
	if tx.Error != nil {
		return fmt.Errorf("reset quota: %w", tx.Error)
	}

	if tx.RowsAffected == 0 {
		return ErrQuotaNotFound
	}

	return nil
}
