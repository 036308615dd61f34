package authz

import (
	"context"
	"fmt"
	"slices"
)

// Role is the effective authorization tier of an actor.
type Role string

const (
	// RoleEndUser is the default tier. Holding an account id alone never
	// implies elevated privilege.
	RoleEndUser Role = "end_user"
	// RoleAccountAdmin administers a single account.
	RoleAccountAdmin Role = "account_admin"
	// RoleSuperAdmin administers the whole platform across accounts.
	RoleSuperAdmin Role = "super_admin"
)

// Provider identifies how the actor's credential was verified.
type Provider string

const (
	// ProviderLegacy is a shared-secret signed token (or the break-glass
	// credential, which skips verification entirely).
	ProviderLegacy Provider = "legacy"
	// ProviderExternal is an asymmetrically signed token verified against
	// the external identity provider's key set.
	ProviderExternal Provider = "external"
)

// Actor is the normalized authorization identity of a request.
// Created once per request and discarded at response; never persisted.
type Actor struct {
	AccountID      *string
	SuperAdmin     bool
	AccountAdmin   bool
	Roles          []string
	Scopes         []string
	ProductDomains []string
	Provider       Provider
	Subject        string
}

// Anonymous is the default actor used when no credential is presented or
// verification fails.
func Anonymous() Actor {
	return Actor{}
}

// Role returns the effective tier: super_admin > account_admin > end_user.
func (a Actor) Role() Role {
	switch {
	case a.SuperAdmin:
		return RoleSuperAdmin
	case a.AccountAdmin:
		return RoleAccountAdmin
	default:
		return RoleEndUser
	}
}

// HasRole reports whether the role set contains key.
func (a Actor) HasRole(key string) bool {
	return slices.Contains(a.Roles, key)
}

// HasScope reports whether the scope set contains s.
func (a Actor) HasScope(s string) bool {
	return slices.Contains(a.Scopes, s)
}

// String returns a short representation for audit logs.
func (a Actor) String() string {
	subject := a.Subject
	if subject == "" {
		subject = "anonymous"
	}

	if a.AccountID != nil {
		return fmt.Sprintf("%s:%s@%s", a.Role(), subject, *a.AccountID)
	}

	return fmt.Sprintf("%s:%s", a.Role(), subject)
}

// actorKey is an unexported key type to prevent external forgery.
type actorKey struct{}

// WithActor installs the actor, returning an error if a different one is
// already present. Ensures each request context carries exactly one actor,
// so repeated resolution is idempotent and can never mix identities.
func WithActor(ctx context.Context, a Actor) (context.Context, error) {
	if existing, ok := GetActor(ctx); ok {
		if !actorEqual(existing, a) {
			return ctx, fmt.Errorf("authz: actor conflict: existing=%s, new=%s", existing.String(), a.String())
		}

		return ctx, nil // Same actor, idempotent
	}

	return context.WithValue(ctx, actorKey{}, a), nil
}

func actorEqual(a, b Actor) bool {
	if !strPtrEqual(a.AccountID, b.AccountID) {
		return false
	}

	if a.SuperAdmin != b.SuperAdmin || a.AccountAdmin != b.AccountAdmin {
		return false
	}

	if a.Provider != b.Provider || a.Subject != b.Subject {
		return false
	}

	return slices.Equal(a.Roles, b.Roles) &&
		slices.Equal(a.Scopes, b.Scopes) &&
		slices.Equal(a.ProductDomains, b.ProductDomains)
}

func strPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}

	if a == nil || b == nil {
		return false
	}

	return *a == *b
}

// GetActor reads the actor.
func GetActor(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// MustGetActor reads the actor, panics if not present (used in chains where
// the auth middleware is known to have run).
func MustGetActor(ctx context.Context) Actor {
	a, ok := GetActor(ctx)
	if !ok {
		panic("authz: no actor in context")
	}

	return a
}

// CurrentAccountID returns the actor's account id, if any.
func CurrentAccountID(ctx context.Context) (string, bool) {
	a, ok := GetActor(ctx)
	if !ok || a.AccountID == nil || *a.AccountID == "" {
		return "", false
	}

	return *a.AccountID, true
}

// IsSuperAdmin reports whether the current actor is a super admin.
func IsSuperAdmin(ctx context.Context) bool {
	a, ok := GetActor(ctx)
	return ok && a.SuperAdmin
}

// CurrentRole returns the current actor's tier, RoleEndUser when absent.
func CurrentRole(ctx context.Context) Role {
	a, ok := GetActor(ctx)
	if !ok {
		return RoleEndUser
	}

	return a.Role()
}

// CurrentRoles returns the current actor's role set.
func CurrentRoles(ctx context.Context) []string {
	a, _ := GetActor(ctx)
	return a.Roles
}

// CurrentScopes returns the current actor's scope set.
func CurrentScopes(ctx context.Context) []string {
	a, _ := GetActor(ctx)
	return a.Scopes
}

// CurrentProductDomains returns the current actor's allowed-domain list.
func CurrentProductDomains(ctx context.Context) []string {
	a, _ := GetActor(ctx)
	return a.ProductDomains
}
