package dependencies

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authn"
	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/pkg/xcache"
	"github.com/tenonhq/tenon/internal/server/biz"
	"github.com/tenonhq/tenon/internal/server/db"
)

var Module = fx.Module("dependencies",
	fx.Provide(db.New),
	fx.Provide(authn.NewVerifier),
	fx.Provide(authz.NewResolver),
	fx.Provide(authz.NewPolicy),
	fx.Provide(func(cfg xcache.Config) xcache.Cache[*biz.EffectiveAccess] {
		return xcache.NewFromConfig[*biz.EffectiveAccess](cfg)
	}),
	fx.Invoke(func(lc fx.Lifecycle, client *gorm.DB) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return db.Close(client)
			},
		})
	}),
)
