package biz

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("biz",
	fx.Provide(NewMembershipService),
	fx.Provide(NewAccessService),
	fx.Provide(NewQuotaService),
	fx.Provide(NewPlanService),
	fx.Provide(NewAuditService),
	fx.Invoke(func(lc fx.Lifecycle, svc *AuditService) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.Start(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return svc.Stop(ctx)
			},
		})
	}),
)
