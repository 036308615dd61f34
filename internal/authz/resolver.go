package authz

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/tenonhq/tenon/internal/authn"
	"github.com/tenonhq/tenon/internal/log"
)

// Resolver maps a bearer credential onto an Actor. Resolution never fails:
// a missing, malformed or unverifiable credential yields the anonymous
// actor, and only the policy gates downstream turn that into an error.
type Resolver struct {
	cfg      Config
	verifier *authn.Verifier
}

func NewResolver(cfg Config, verifier *authn.Verifier) *Resolver {
	return &Resolver{cfg: cfg.withDefaults(), verifier: verifier}
}

// Resolve produces the actor for a credential. Resolving the same
// credential twice yields identical actors with no extra side effects.
func (r *Resolver) Resolve(ctx context.Context, credential string) Actor {
	if credential == "" {
		return Anonymous()
	}

	if r.verifier.IsBreakGlass(credential) {
		log.Warn(ctx, "authz: break-glass credential used")

		return Actor{
			SuperAdmin: true,
			Provider:   ProviderLegacy,
			Subject:    "break-glass",
		}
	}

	claims, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		log.Debug(ctx, "authz: credential verification failed, resolving as anonymous", log.Cause(err))
		return Anonymous()
	}

	provider := ProviderLegacy
	if authn.IsExternal(credential) {
		provider = ProviderExternal
	}

	roles := r.rolesOf(claims)

	actor := Actor{
		AccountID:      r.accountIDOf(claims),
		Roles:          roles,
		Scopes:         scopesOf(claims, r.cfg.ScopesClaim),
		ProductDomains: normalizeSet(claims.Strings(r.cfg.DomainsClaim)),
		Provider:       provider,
		Subject:        claims.Subject(),
	}

	actor.SuperAdmin = claims.Bool(r.cfg.SuperAdminClaim) || intersects(roles, r.cfg.SuperAdminRoles)
	actor.AccountAdmin = intersects(roles, r.cfg.AccountAdminRoles)

	return actor
}

func (r *Resolver) accountIDOf(claims authn.Claims) *string {
	for _, name := range r.cfg.AccountClaims {
		if s, ok := claims[name].(string); ok && s != "" {
			return &s
		}
	}

	return nil
}

// rolesOf unions every role claim shape into one sorted set: the primary
// roles claim (string, list, or map keyed by role) plus any
// vendor-namespaced claim ending in the roles suffix whose value is a map
// of role-key to metadata.
func (r *Resolver) rolesOf(claims authn.Claims) []string {
	var roles []string

	roles = append(roles, rolesFromValue(claims[r.cfg.RolesClaim])...)

	for name, value := range claims {
		if name == r.cfg.RolesClaim || !strings.HasSuffix(name, r.cfg.RolesSuffix) {
			continue
		}

		if m, ok := value.(map[string]any); ok {
			roles = append(roles, mapKeys(m)...)
		}
	}

	return normalizeSet(roles)
}

// rolesFromValue decodes one claim value with an explicit case per shape.
// Unknown shapes contribute nothing.
func rolesFromValue(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	case []string:
		return v
	case []any:
		var roles []string

		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}

		return roles
	case map[string]any:
		return mapKeys(v)
	default:
		return nil
	}
}

func scopesOf(claims authn.Claims, name string) []string {
	values := claims.Strings(name)

	// OAuth encodes scopes as one space-separated string.
	if len(values) == 1 && strings.Contains(values[0], " ") {
		values = strings.Fields(values[0])
	}

	return normalizeSet(values)
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return keys
}

// normalizeSet dedupes and sorts so equal claim sets always produce equal
// actors regardless of claim iteration order.
func normalizeSet(values []string) []string {
	values = lo.Uniq(lo.Filter(values, func(s string, _ int) bool { return s != "" }))
	if len(values) == 0 {
		return nil
	}

	sort.Strings(values)

	return values
}

func intersects(values, keys []string) bool {
	return lo.Some(values, keys)
}
