package biz

import (
	"context"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
)

type AbstractService struct {
	db *gorm.DB
}

func (a *AbstractService) dbFromContext(ctx context.Context) *gorm.DB {
	if client := db.FromContext(ctx); client != nil {
		return client.WithContext(ctx)
	}

	return a.db.WithContext(ctx)
}

// RunInTransaction executes fn inside one transaction. A transaction
// already carried in ctx is joined instead of nested.
func (a *AbstractService) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	if db.FromContext(ctx) != nil {
		return fn(ctx)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(db.NewContext(ctx, tx))
	})
}
