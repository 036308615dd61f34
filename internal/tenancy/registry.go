// Package tenancy enforces the account isolation boundary at the storage
// layer. A registry enumerates every tenant-scoped entity kind and the
// account-management subset exempt from auto-scoping, so the boundary is
// statically auditable. Repository wraps the storage client and injects
// the tenant filter per the registry.
package tenancy

import (
	"context"

	"github.com/tenonhq/tenon/internal/authz"
)

// Kind identifies a persisted entity type in the scoping registry.
type Kind string

const (
	KindAccount            Kind = "account"
	KindAccountAdmin       Kind = "account_admin"
	KindSSOConfig          Kind = "sso_config"
	KindWorkspace          Kind = "workspace"
	KindConnection         Kind = "connection"
	KindGroup              Kind = "group"
	KindTeam               Kind = "team"
	KindMembership         Kind = "membership"
	KindOverrideRecord     Kind = "override_record"
	KindQuota              Kind = "quota"
	KindPlan               Kind = "plan"
	KindAllocation         Kind = "allocation"
	KindAllocationOverride Kind = "allocation_override"
	KindCycleSummary       Kind = "cycle_summary"
	KindAuditRecord        Kind = "audit_record"
)

// scopedKinds enumerates every entity kind that carries an account id and
// gets the tenant filter injected. Kinds absent here (the audit trail)
// fall through unscoped.
var scopedKinds = map[Kind]struct{}{
	KindAccountAdmin:       {},
	KindSSOConfig:          {},
	KindWorkspace:          {},
	KindConnection:         {},
	KindGroup:              {},
	KindTeam:               {},
	KindMembership:         {},
	KindOverrideRecord:     {},
	KindQuota:              {},
	KindPlan:               {},
	KindAllocation:         {},
	KindAllocationOverride: {},
	KindCycleSummary:       {},
}

// accountManagementKinds are exempt from auto-scoping even though they
// carry an account id: only a super admin manages them directly.
var accountManagementKinds = map[Kind]struct{}{
	KindAccount:      {},
	KindAccountAdmin: {},
	KindSSOConfig:    {},
}

// IsScoped reports whether the kind is registered as tenant-scoped.
func IsScoped(kind Kind) bool {
	_, ok := scopedKinds[kind]
	return ok
}

// IsAccountManagement reports whether the kind belongs to the exempt
// account-management set.
func IsAccountManagement(kind Kind) bool {
	_, ok := accountManagementKinds[kind]
	return ok
}

// ShouldScope decides whether storage operations on the kind get the
// tenant filter for the current request.
func ShouldScope(ctx context.Context, kind Kind) bool {
	if !IsScoped(kind) || IsAccountManagement(kind) {
		return false
	}

	if authz.IsBypassActive(ctx) || authz.IsSuperAdmin(ctx) {
		return false
	}

	_, ok := authz.CurrentAccountID(ctx)

	return ok
}
