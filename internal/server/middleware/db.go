package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
)

// WithDBClient attaches the database client to the request context so
// downstream services share a single connection source per request.
func WithDBClient(client *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := db.NewContext(c.Request.Context(), client)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
