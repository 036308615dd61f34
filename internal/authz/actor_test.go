package authz

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestActor_Role(t *testing.T) {
	tests := []struct {
		name string
		a    Actor
		want Role
	}{
		{"anonymous", Anonymous(), RoleEndUser},
		{"account member", Actor{AccountID: lo.ToPtr("acc-1")}, RoleEndUser},
		{"account admin", Actor{AccountID: lo.ToPtr("acc-1"), AccountAdmin: true}, RoleAccountAdmin},
		{"super admin wins", Actor{SuperAdmin: true, AccountAdmin: true}, RoleSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.Role())
		})
	}
}

func TestWithActor_SetOnce(t *testing.T) {
	ctx := context.Background()

	first := Actor{AccountID: lo.ToPtr("acc-1"), Subject: "user-1"}

	ctx, err := WithActor(ctx, first)
	require.NoError(t, err)

	// Same actor is idempotent.
	_, err = WithActor(ctx, first)
	require.NoError(t, err)

	// A different actor must not replace the installed one.
	_, err = WithActor(ctx, Actor{AccountID: lo.ToPtr("acc-2"), Subject: "user-2"})
	require.Error(t, err)

	got, ok := GetActor(ctx)
	require.True(t, ok)
	require.Equal(t, "acc-1", *got.AccountID)
}

func TestAccessors_Defaults(t *testing.T) {
	ctx := context.Background()

	_, ok := CurrentAccountID(ctx)
	require.False(t, ok)
	require.False(t, IsSuperAdmin(ctx))
	require.Equal(t, RoleEndUser, CurrentRole(ctx))
	require.Empty(t, CurrentRoles(ctx))
	require.Empty(t, CurrentScopes(ctx))
	require.Empty(t, CurrentProductDomains(ctx))
}

func TestAccessors(t *testing.T) {
	ctx, err := WithActor(context.Background(), Actor{
		AccountID:      lo.ToPtr("acc-1"),
		SuperAdmin:     true,
		Roles:          []string{"owner"},
		Scopes:         []string{"admin:*"},
		ProductDomains: []string{"console"},
	})
	require.NoError(t, err)

	account, ok := CurrentAccountID(ctx)
	require.True(t, ok)
	require.Equal(t, "acc-1", account)
	require.True(t, IsSuperAdmin(ctx))
	require.Equal(t, RoleSuperAdmin, CurrentRole(ctx))
	require.Equal(t, []string{"owner"}, CurrentRoles(ctx))
	require.Equal(t, []string{"admin:*"}, CurrentScopes(ctx))
	require.Equal(t, []string{"console"}, CurrentProductDomains(ctx))
}

func TestMustGetActor_Panics(t *testing.T) {
	require.Panics(t, func() {
		MustGetActor(context.Background())
	})
}
