package authz

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func actorContext(t *testing.T, a Actor) context.Context {
	t.Helper()

	ctx, err := WithActor(context.Background(), a)
	require.NoError(t, err)

	return ctx
}

func TestRequireSuperAdmin(t *testing.T) {
	p := NewPolicy(Config{})

	tests := []struct {
		name    string
		a       Actor
		wantErr bool
	}{
		{"super admin", Actor{SuperAdmin: true}, false},
		{"account admin", Actor{AccountID: lo.ToPtr("acc-1"), AccountAdmin: true}, true},
		{"end user", Actor{AccountID: lo.ToPtr("acc-1")}, true},
		{"anonymous", Anonymous(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.RequireSuperAdmin(actorContext(t, tt.a))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrForbidden)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRequireSuperAdmin_NoActor(t *testing.T) {
	p := NewPolicy(Config{})

	require.ErrorIs(t, p.RequireSuperAdmin(context.Background()), ErrForbidden)
}

func TestRequireAccountAdmin(t *testing.T) {
	p := NewPolicy(Config{})

	t.Run("account admin passes with account id", func(t *testing.T) {
		ctx := actorContext(t, Actor{AccountID: lo.ToPtr("acc-1"), AccountAdmin: true})

		account, err := p.RequireAccountAdmin(ctx)
		require.NoError(t, err)
		require.Equal(t, "acc-1", account)
	})

	t.Run("super admin passes with account id", func(t *testing.T) {
		ctx := actorContext(t, Actor{AccountID: lo.ToPtr("acc-2"), SuperAdmin: true})

		account, err := p.RequireAccountAdmin(ctx)
		require.NoError(t, err)
		require.Equal(t, "acc-2", account)
	})

	t.Run("super admin without account is denied", func(t *testing.T) {
		ctx := actorContext(t, Actor{SuperAdmin: true})

		_, err := p.RequireAccountAdmin(ctx)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("plain member is denied", func(t *testing.T) {
		ctx := actorContext(t, Actor{AccountID: lo.ToPtr("acc-1")})

		_, err := p.RequireAccountAdmin(ctx)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRequireDomainAdmin(t *testing.T) {
	p := NewPolicy(Config{})
	account := lo.ToPtr("acc-1")

	tests := []struct {
		name    string
		a       Actor
		domain  string
		wantErr bool
	}{
		{
			"no account",
			Actor{Roles: []string{"copilot:admin"}},
			"copilot",
			true,
		},
		{
			"super admin short-circuits",
			Actor{AccountID: account, SuperAdmin: true},
			"copilot",
			false,
		},
		{
			"domain admin role",
			Actor{AccountID: account, Roles: []string{"copilot:admin"}},
			"copilot",
			false,
		},
		{
			"underscore admin role",
			Actor{AccountID: account, Roles: []string{"copilot_admin"}},
			"copilot",
			false,
		},
		{
			"domain scope",
			Actor{AccountID: account, Scopes: []string{"copilot:admin"}},
			"copilot",
			false,
		},
		{
			"global admin scope",
			Actor{AccountID: account, Scopes: []string{"admin:*"}},
			"copilot",
			false,
		},
		{
			"no role or scope",
			Actor{AccountID: account, Roles: []string{"viewer"}},
			"copilot",
			true,
		},
		{
			// A non-empty allow-list is authoritative even over the
			// domain's own admin role.
			"allow-list excludes domain despite admin role",
			Actor{AccountID: account, Roles: []string{"copilot:admin"}, ProductDomains: []string{"console"}},
			"copilot",
			true,
		},
		{
			"allow-list excluded but elevated scope present",
			Actor{AccountID: account, ProductDomains: []string{"console"}, Scopes: []string{"admin:*"}},
			"copilot",
			false,
		},
		{
			"allow-list wildcard",
			Actor{AccountID: account, Roles: []string{"copilot:admin"}, ProductDomains: []string{"*"}},
			"copilot",
			false,
		},
		{
			"allow-list includes domain",
			Actor{AccountID: account, Roles: []string{"copilot:admin"}, ProductDomains: []string{"console", "copilot"}},
			"copilot",
			false,
		},
		{
			"allow-list includes domain but no admin role",
			Actor{AccountID: account, ProductDomains: []string{"copilot"}},
			"copilot",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.RequireDomainAdmin(actorContext(t, tt.a), tt.domain)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrForbidden)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
