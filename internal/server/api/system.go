package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/build"
)

type SystemHandlersParams struct {
	fx.In

	DB *gorm.DB
}

func NewSystemHandlers(params SystemHandlersParams) *SystemHandlers {
	return &SystemHandlers{db: params.DB}
}

type SystemHandlers struct {
	db *gorm.DB
}

// Health reports liveness. It never touches dependencies.
func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports build information and dependency readiness.
func (h *SystemHandlers) Status(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}

	if err != nil {
		JSONError(c, http.StatusServiceUnavailable, errors.New("database unavailable"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"build":  build.GetBuildInfo(),
	})
}
