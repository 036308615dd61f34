package db

import (
	"context"

	"gorm.io/gorm"
)

// clientKey is an unexported key type to prevent external forgery.
type clientKey struct{}

// NewContext carries a client (usually a transaction handle) in the
// context so downstream repositories join the same transaction.
func NewContext(ctx context.Context, client *gorm.DB) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// FromContext returns the carried client, or nil when none is present.
func FromContext(ctx context.Context) *gorm.DB {
	client, _ := ctx.Value(clientKey{}).(*gorm.DB)
	return client
}
