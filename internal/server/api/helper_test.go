package api

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/contexts"
	dbpkg "github.com/tenonhq/tenon/internal/server/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	client, err := dbpkg.New(dbpkg.Config{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	// A pooled :memory: connection per goroutine would each see an empty
	// database; pin everything to a single connection.
	var sqlDB *sql.DB

	sqlDB, err = client.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = dbpkg.Close(client)
	})

	return client
}

// withTestActor installs the given actor on every request, standing in
// for the credential-resolution middleware.
func withTestActor(actor authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := contexts.New(c.Request.Context())

		ctx, err := authz.WithActor(ctx, actor)
		if err != nil {
			c.AbortWithStatus(500)
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tenantActor(accountID string, admin bool) authz.Actor {
	return authz.Actor{
		AccountID:    lo.ToPtr(accountID),
		AccountAdmin: admin,
		Subject:      "user-1",
	}
}
