package api

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
	"github.com/tenonhq/tenon/internal/tenancy"
)

var Module = fx.Module("api",
	fx.Provide(
		func(client *gorm.DB) *tenancy.Repository[db.Workspace] {
			return tenancy.NewRepository[db.Workspace](client, tenancy.KindWorkspace)
		},
		NewSystemHandlers,
		NewAccessHandlers,
		NewQuotaHandlers,
		NewPlanHandlers,
		NewWorkspaceHandlers,
	),
)
