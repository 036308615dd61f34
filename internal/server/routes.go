package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/server/api"
	"github.com/tenonhq/tenon/internal/server/middleware"
)

type Handlers struct {
	fx.In

	System    *api.SystemHandlers
	Access    *api.AccessHandlers
	Quota     *api.QuotaHandlers
	Plan      *api.PlanHandlers
	Workspace *api.WorkspaceHandlers
}

func SetupRoutes(server *Server, handlers Handlers, client *gorm.DB, resolver *authz.Resolver) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithRequestContext())
	server.Use(middleware.WithDBClient(client))

	// Setup CORS middleware at server level if enabled
	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group(server.Config.BasePath, middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
	}

	apiGroup := server.Group(server.Config.BasePath+"/v1",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithActor(resolver),
	)
	{
		apiGroup.GET("/system/status", handlers.System.Status)

		apiGroup.GET("/access/effective", handlers.Access.GetEffectiveAccess)

		apiGroup.GET("/quotas/balance", handlers.Quota.GetBalance)
		apiGroup.POST("/quotas/check", handlers.Quota.CheckQuota)
		apiGroup.POST("/quotas/deduct", handlers.Quota.DeductQuota)
		apiGroup.POST("/quotas/reset", handlers.Quota.ResetQuota)

		apiGroup.GET("/plans/active", handlers.Plan.GetActivePlan)
		apiGroup.POST("/plans/distribute", handlers.Plan.DistributeEqually)
		apiGroup.POST("/plans/renew", handlers.Plan.RenewCycle)

		apiGroup.GET("/workspaces", handlers.Workspace.ListWorkspaces)
		apiGroup.POST("/workspaces", handlers.Workspace.CreateWorkspace)
		apiGroup.GET("/workspaces/:id", handlers.Workspace.GetWorkspace)
		apiGroup.PUT("/workspaces/:id", handlers.Workspace.UpdateWorkspace)
		apiGroup.DELETE("/workspaces/:id", handlers.Workspace.DeleteWorkspace)
	}
}
