package tenancy

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/db"
)

// accountColumn is the tenant discriminator column every scoped model
// carries.
const accountColumn = "account_id"

var (
	// ErrNotFound is the generic miss. Scope violations surface as this
	// same error so another tenant's record is indistinguishable from a
	// truly absent one.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrNotFoundInScope marks a must-exist lookup that resolved to a row
	// outside the caller's tenant. Wraps ErrNotFound so callers surface
	// it as a plain miss.
	ErrNotFoundInScope = fmt.Errorf("%w in current scope", gorm.ErrRecordNotFound)
)

// AccountCarrier is implemented by every model that belongs to an account.
type AccountCarrier interface {
	AccountRef() string
	SetAccountRef(string)
}

// Repository wraps the storage client for one entity kind and injects the
// tenant filter per the registry. Underlying store errors propagate
// unchanged.
type Repository[T any] struct {
	client *gorm.DB
	kind   Kind
}

func NewRepository[T any](client *gorm.DB, kind Kind) *Repository[T] {
	return &Repository[T]{client: client, kind: kind}
}

// Kind returns the entity kind this repository serves.
func (r *Repository[T]) Kind() Kind {
	return r.kind
}

// List returns every row matching the filter, tenant-scoped. A
// caller-supplied account filter is never overridden; it is the escape
// hatch for cross-tenant and background work.
func (r *Repository[T]) List(ctx context.Context, filter map[string]any) ([]T, error) {
	var rows []T

	tx := r.scoped(ctx, r.model(ctx), filter)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// Count counts rows matching the filter, with the same scoping as List.
func (r *Repository[T]) Count(ctx context.Context, filter map[string]any) (int64, error) {
	var count int64

	tx := r.scoped(ctx, r.model(ctx), filter)
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// GetByID fetches one row by primary key. The lookup itself is not
// filtered; instead the fetched row's account is checked afterwards and a
// mismatch reads as not-found.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	row, err := r.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.outOfScope(ctx, row) {
		return nil, ErrNotFound
	}

	return row, nil
}

// MustGetByID is GetByID for call sites where the row is known to exist;
// a row outside the caller's tenant fails with ErrNotFoundInScope.
func (r *Repository[T]) MustGetByID(ctx context.Context, id string) (*T, error) {
	row, err := r.fetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.outOfScope(ctx, row) {
		return nil, ErrNotFoundInScope
	}

	return row, nil
}

// Create inserts the row, stamping the current account onto scoped kinds
// when the caller omitted it.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	r.stamp(ctx, entity)

	return r.conn(ctx).Create(entity).Error
}

// UpdateByID updates one row by primary key, deliberately without the
// tenant filter: callers are expected to have verified ownership via a
// prior scoped read.
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, updates map[string]any) error {
	return r.model(ctx).Where("id = ?", id).Updates(updates).Error
}

// DeleteByID deletes one row by primary key, unfiltered like UpdateByID.
func (r *Repository[T]) DeleteByID(ctx context.Context, id string) error {
	var entity T
	return r.conn(ctx).Where("id = ?", id).Delete(&entity).Error
}

// UpdateWhere updates every row matching the filter, with the same filter
// injection as reads. Returns the number of rows changed.
func (r *Repository[T]) UpdateWhere(ctx context.Context, filter, updates map[string]any) (int64, error) {
	tx := r.scoped(ctx, r.model(ctx), filter).Updates(updates)
	return tx.RowsAffected, tx.Error
}

// DeleteWhere deletes every row matching the filter, scoped like reads.
func (r *Repository[T]) DeleteWhere(ctx context.Context, filter map[string]any) (int64, error) {
	var entity T

	tx := r.scoped(ctx, r.conn(ctx), filter).Delete(&entity)

	return tx.RowsAffected, tx.Error
}

// Upsert looks the row up with the tenant filter and updates it, or
// creates it with the account stamped. The filter applies to the lookup
// half only; the stamp applies to the creation half only.
func (r *Repository[T]) Upsert(ctx context.Context, lookup map[string]any, entity *T) (*T, error) {
	var row T

	err := r.scoped(ctx, r.model(ctx), lookup).First(&row).Error
	if err == nil {
		if err := r.conn(ctx).Model(&row).Updates(entity).Error; err != nil {
			return nil, err
		}

		return &row, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r.stamp(ctx, entity)

	if err := r.conn(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return entity, nil
}

func (r *Repository[T]) model(ctx context.Context) *gorm.DB {
	var entity T
	return r.conn(ctx).Model(&entity)
}

// conn returns the transaction carried in ctx when present, so repository
// calls inside a transaction closure join it.
func (r *Repository[T]) conn(ctx context.Context) *gorm.DB {
	if tx := db.FromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}

	return r.client.WithContext(ctx)
}

// scoped applies the caller's filter and, when scoping is active and the
// caller did not already filter by account, injects the tenant filter.
func (r *Repository[T]) scoped(ctx context.Context, tx *gorm.DB, filter map[string]any) *gorm.DB {
	if len(filter) > 0 {
		tx = tx.Where(filter)
	}

	if _, ok := filter[accountColumn]; ok {
		return tx
	}

	if ShouldScope(ctx, r.kind) {
		account, _ := authz.CurrentAccountID(ctx)
		tx = tx.Where(accountColumn+" = ?", account)
	}

	return tx
}

func (r *Repository[T]) fetchByID(ctx context.Context, id string) (*T, error) {
	var row T

	if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &row, nil
}

func (r *Repository[T]) outOfScope(ctx context.Context, row *T) bool {
	if !ShouldScope(ctx, r.kind) {
		return false
	}

	carrier, ok := any(row).(AccountCarrier)
	if !ok {
		return false
	}

	account, _ := authz.CurrentAccountID(ctx)

	return carrier.AccountRef() != account
}

// stamp sets the current account onto the entity when the kind is scoped,
// not account-management, a current account exists, and the caller left
// the field empty.
func (r *Repository[T]) stamp(ctx context.Context, entity *T) {
	if !IsScoped(r.kind) || IsAccountManagement(r.kind) {
		return
	}

	account, ok := authz.CurrentAccountID(ctx)
	if !ok {
		return
	}

	if carrier, isCarrier := any(entity).(AccountCarrier); isCarrier && carrier.AccountRef() == "" {
		carrier.SetAccountRef(account)
	}
}
