package conf

import (
	"github.com/tenonhq/tenon/internal/authn"
	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/pkg/xcache"
	"github.com/tenonhq/tenon/internal/server"
	"github.com/tenonhq/tenon/internal/server/db"
)

// Section extractors, provided to the dependency graph alongside Load so
// components can depend on just their own config section.

func ProvideAPIServer(c Config) server.Config { return c.APIServer }

func ProvideLog(c Config) log.Config { return c.Log }

func ProvideDB(c Config) db.Config { return c.DB }

func ProvideAuthn(c Config) authn.Config { return c.Auth.Authn }

func ProvideAuthz(c Config) authz.Config { return c.Auth.Authz }

func ProvideCache(c Config) xcache.Config { return c.Cache }
