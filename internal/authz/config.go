package authz

// Config controls how raw claims are mapped onto an Actor and how the
// policy gates interpret roles and scopes. Every list here is an
// environment-sourced default, not a constant: deployments override them
// to match their identity provider.
type Config struct {
	// AccountClaims is the ordered candidate list of claim names scanned
	// for the account id. First non-empty value wins.
	AccountClaims []string `conf:"account_claims" yaml:"account_claims" json:"account_claims"`

	// SuperAdminClaim is the explicit boolean claim granting super admin.
	SuperAdminClaim string `conf:"super_admin_claim" yaml:"super_admin_claim" json:"super_admin_claim"`

	// SuperAdminRoles are role keys that grant super admin.
	SuperAdminRoles []string `conf:"super_admin_roles" yaml:"super_admin_roles" json:"super_admin_roles"`

	// AccountAdminRoles are role keys that grant the account-admin tier.
	AccountAdminRoles []string `conf:"account_admin_roles" yaml:"account_admin_roles" json:"account_admin_roles"`

	// RolesClaim is the primary roles claim. Vendor-namespaced claims
	// whose name ends in RolesSuffix and whose value is a map are merged
	// in as well.
	RolesClaim  string `conf:"roles_claim" yaml:"roles_claim" json:"roles_claim"`
	RolesSuffix string `conf:"roles_suffix" yaml:"roles_suffix" json:"roles_suffix"`

	// ScopesClaim holds OAuth-style scopes, either as a list or a single
	// space-separated string.
	ScopesClaim string `conf:"scopes_claim" yaml:"scopes_claim" json:"scopes_claim"`

	// DomainsClaim holds the allowed product-domain list.
	DomainsClaim string `conf:"domains_claim" yaml:"domains_claim" json:"domains_claim"`

	// AdminScope is the global elevated scope accepted by the
	// domain-admin gate in addition to "<domain>:admin".
	AdminScope string `conf:"admin_scope" yaml:"admin_scope" json:"admin_scope"`
}

func (c Config) withDefaults() Config {
	if len(c.AccountClaims) == 0 {
		c.AccountClaims = []string{"account_id", "accountId", "https://claims.tenon.dev/account_id", "org_id"}
	}

	if c.SuperAdminClaim == "" {
		c.SuperAdminClaim = "super_admin"
	}

	if len(c.SuperAdminRoles) == 0 {
		c.SuperAdminRoles = []string{"super_admin", "platform:super-admin"}
	}

	if len(c.AccountAdminRoles) == 0 {
		c.AccountAdminRoles = []string{"account_admin", "account-admin", "owner"}
	}

	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}

	if c.RolesSuffix == "" {
		c.RolesSuffix = "roles"
	}

	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}

	if c.DomainsClaim == "" {
		c.DomainsClaim = "product_domains"
	}

	if c.AdminScope == "" {
		c.AdminScope = "admin:*"
	}

	return c
}
