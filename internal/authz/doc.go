// Package authz resolves the per-request actor and enforces the
// role/scope gates built on top of it.
//
// Core concepts:
//
//   - Actor: a single authorization identity per request (anonymous,
//     end user, account admin, or super admin), resolved from a bearer
//     credential by Resolver and installed via WithActor.
//
//   - Policy: the require_* gates (RequireSuperAdmin, RequireAccountAdmin,
//     RequireDomainAdmin). These are the only places that return
//     ErrForbidden; credential resolution itself never fails and
//     degrades to the anonymous actor instead.
//
//   - Bypass: controlled tenant-scope bypass for background and
//     cross-tenant operations via RunWithSystemBypass (closure,
//     preferred) or WithSystemBypass (explicit context). All bypass
//     operations are audited.
//
// Usage rules:
//
//  1. Handlers read the actor through the accessor functions
//     (CurrentAccountID, IsSuperAdmin, ...), never by threading Actor
//     values around.
//  2. Prefer RunWithSystemBypass closures to limit bypass scope.
//  3. When using WithSystemBypass, assign to bypassCtx, never ctx.
//  4. All bypass reasons must be stable strings for audit aggregation.
package authz
