package biz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	client, err := db.New(db.Config{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	// One pooled connection, or every connection gets its own empty
	// in-memory database.
	sqlDB, err := client.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		require.NoError(t, db.Close(client))
	})

	return client
}
