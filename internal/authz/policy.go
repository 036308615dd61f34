package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrForbidden is returned by every policy gate. Callers surface it as a
// generic "access denied" without leaking which check failed.
var ErrForbidden = errors.New("access denied")

// Policy implements the domain authorization gates on top of the actor in
// context. It holds no state beyond configured role and scope keys.
type Policy struct {
	cfg Config
}

func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg.withDefaults()}
}

// RequireSuperAdmin passes iff the current actor is a super admin.
func (p *Policy) RequireSuperAdmin(ctx context.Context) error {
	a, ok := GetActor(ctx)
	if !ok || !a.SuperAdmin {
		return fmt.Errorf("%w: super admin required", ErrForbidden)
	}

	return nil
}

// RequireAccountAdmin requires a current account and either super-admin or
// an account-admin-tier role. Returns the account id on success.
func (p *Policy) RequireAccountAdmin(ctx context.Context) (string, error) {
	a, ok := GetActor(ctx)
	if !ok || a.AccountID == nil || *a.AccountID == "" {
		return "", fmt.Errorf("%w: account context required", ErrForbidden)
	}

	if !a.SuperAdmin && !a.AccountAdmin {
		return "", fmt.Errorf("%w: account admin role required", ErrForbidden)
	}

	return *a.AccountID, nil
}

// RequireDomainAdmin gates administration of one product domain.
// Super admin short-circuits to allow. A non-empty allowed-domain list
// that excludes both the domain and a wildcard is authoritative: it denies
// even a holder of the domain's admin role, unless an elevated scope is
// also present.
func (p *Policy) RequireDomainAdmin(ctx context.Context, domain string) error {
	a, ok := GetActor(ctx)
	if !ok || a.AccountID == nil || *a.AccountID == "" {
		return fmt.Errorf("%w: account context required", ErrForbidden)
	}

	if a.SuperAdmin {
		return nil
	}

	if len(a.ProductDomains) > 0 &&
		!slices.Contains(a.ProductDomains, domain) &&
		!slices.Contains(a.ProductDomains, "*") {
		if p.hasElevatedScope(a, domain) {
			return nil
		}

		return fmt.Errorf("%w: domain %q not in allowed domains", ErrForbidden, domain)
	}

	if hasDomainAdminRole(a, domain) || p.hasElevatedScope(a, domain) {
		return nil
	}

	return fmt.Errorf("%w: admin of domain %q required", ErrForbidden, domain)
}

func hasDomainAdminRole(a Actor, domain string) bool {
	return a.HasRole(domain+":admin") || a.HasRole(domain+"_admin") || a.HasRole(domain+"-admin")
}

func (p *Policy) hasElevatedScope(a Actor, domain string) bool {
	return a.HasScope(domain+":admin") || a.HasScope(p.cfg.AdminScope)
}
