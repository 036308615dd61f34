package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/objects"
)

// Base carries the shared identity and bookkeeping columns.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	return nil
}

// Tenanted marks a model as belonging to exactly one account.
type Tenanted struct {
	AccountID string `gorm:"size:36;index" json:"accountId"`
}

func (t *Tenanted) AccountRef() string {
	return t.AccountID
}

func (t *Tenanted) SetAccountRef(id string) {
	t.AccountID = id
}

// Account is the tenant record itself. Managed by super admins only and
// therefore exempt from auto-scoping.
type Account struct {
	Base

	Name       string `gorm:"size:255" json:"name"`
	ExternalID string `gorm:"size:255;index" json:"externalId"`
	Status     string `gorm:"size:32;default:active" json:"status"`
}

func (Account) TableName() string { return "accounts" }

// AccountAdmin is the account's admin roster. Exempt from auto-scoping.
type AccountAdmin struct {
	Base
	Tenanted

	Subject string `gorm:"size:255;index" json:"subject"`
	Email   string `gorm:"size:255" json:"email"`
	Role    string `gorm:"size:64" json:"role"`
}

func (AccountAdmin) TableName() string { return "account_admins" }

// SSOConfig is the account's identity-provider settings. Exempt from
// auto-scoping.
type SSOConfig struct {
	Base
	Tenanted

	IssuerURL string `gorm:"size:512" json:"issuerUrl"`
	ClientID  string `gorm:"size:255" json:"clientId"`
	Enabled   bool   `json:"enabled"`
}

func (SSOConfig) TableName() string { return "sso_configs" }

type Workspace struct {
	Base
	Tenanted

	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"size:1024" json:"description"`
}

func (Workspace) TableName() string { return "workspaces" }

// Connection is an integration endpoint owned by a workspace.
type Connection struct {
	Base
	Tenanted

	WorkspaceID string `gorm:"size:36;index" json:"workspaceId"`
	Name        string `gorm:"size:255" json:"name"`
	Kind        string `gorm:"size:64" json:"kind"`
	Status      string `gorm:"size:32;default:active" json:"status"`
}

func (Connection) TableName() string { return "connections" }

type Group struct {
	Base
	Tenanted

	Code string `gorm:"size:64;index" json:"code"`
	Name string `gorm:"size:255" json:"name"`
}

func (Group) TableName() string { return "groups" }

type Team struct {
	Base
	Tenanted

	GroupID *string `gorm:"size:36;index" json:"groupId,omitempty"`
	Code    string  `gorm:"size:64;index" json:"code"`
	Name    string  `gorm:"size:255" json:"name"`
}

func (Team) TableName() string { return "teams" }

// Membership links a user to an account and, optionally, a team.
type Membership struct {
	Base
	Tenanted

	UserID string  `gorm:"size:36;index" json:"userId"`
	TeamID *string `gorm:"size:36;index" json:"teamId,omitempty"`
	Status string  `gorm:"size:32;default:active" json:"status"`
	Role   string  `gorm:"size:64" json:"role"`
}

func (Membership) TableName() string { return "memberships" }

// OverrideRecord restricts or allows a feature/entity at one scope level.
// Multiple records may share an identity key across scope levels;
// conflicts are resolved at read time, not write time.
type OverrideRecord struct {
	Base
	Tenanted

	ProductCode string `gorm:"size:64;index:idx_override_identity" json:"productCode"`
	FeatureCode string `gorm:"size:64;index:idx_override_identity" json:"featureCode"`
	EntityCode  string `gorm:"size:64;index:idx_override_identity" json:"entityCode"`

	Category string `gorm:"size:64" json:"category"`
	Name     string `gorm:"size:255" json:"name"`

	Action      objects.Action      `gorm:"size:16" json:"action"`
	Inherit     bool                `json:"inherit"`
	ValueConfig objects.ValueConfig `gorm:"type:text" json:"valueConfig"`

	ScopeType objects.ScopeType `gorm:"size:16;index" json:"scopeType"`
	ScopeID   string            `gorm:"size:36;index" json:"scopeId"`

	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`

	// Provenance records which cycle renewal copied this record forward.
	Provenance string `gorm:"size:255" json:"provenance,omitempty"`
}

func (OverrideRecord) TableName() string { return "override_records" }

// Quota is the credit-accounting row for one account and unit.
// Invariants: used >= 0 and overflow_used <= overflow_limit; deduct never
// persists a state violating either.
type Quota struct {
	Base
	Tenanted

	Unit                 string `gorm:"size:64;index:idx_quota_unit" json:"unit"`
	Included             int64  `json:"included"`
	Used                 int64  `json:"used"`
	OverflowUsed         int64  `json:"overflowUsed"`
	OverflowLimit        int64  `json:"overflowLimit"`
	RolloverFromPrevious int64  `json:"rolloverFromPrevious"`
	RolloverEnabled      bool   `json:"rolloverEnabled"`
	RolloverCap          int64  `json:"rolloverCap"`

	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	IsActive    bool       `gorm:"default:true;index:idx_quota_unit" json:"isActive"`
}

func (Quota) TableName() string { return "quotas" }

// Plan is the account-level credit plan for one billing cycle.
type Plan struct {
	Base
	Tenanted

	Name           string `gorm:"size:255" json:"name"`
	MonthlyCredits int64  `json:"monthlyCredits"`
	OverflowLimit  int64  `json:"overflowLimit"`
	RolloverCap    int64  `json:"rolloverCap"`

	// UnitPrice is the billable price per credit, used only for
	// reporting on the cycle summary.
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,4)" json:"unitPrice"`

	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Status      string    `gorm:"size:32;default:active;index" json:"status"`
}

func (Plan) TableName() string { return "plans" }

const (
	PlanStatusActive = "active"
	PlanStatusClosed = "closed"
)

// Allocation assigns a share of a plan's credits to one scope.
type Allocation struct {
	Base
	Tenanted

	PlanID        string `gorm:"size:36;index" json:"planId"`
	ScopeID       string `gorm:"size:36;index" json:"scopeId"`
	Credits       int64  `json:"credits"`
	OverflowLimit int64  `json:"overflowLimit"`
	Kind          string `gorm:"size:32;default:scope" json:"kind"`
}

func (Allocation) TableName() string { return "allocations" }

const (
	AllocationKindScope = "scope"
	AllocationKindPool  = "pool"
)

// AllocationOverride replaces the plan allocation for its scope
// unconditionally when computing effective allocation; there is no
// blending.
type AllocationOverride struct {
	Base
	Tenanted

	PlanID        string `gorm:"size:36;index" json:"planId"`
	ScopeID       string `gorm:"size:36;index" json:"scopeId"`
	Credits       int64  `json:"credits"`
	OverflowLimit int64  `json:"overflowLimit"`
	Provenance    string `gorm:"size:255" json:"provenance,omitempty"`
}

func (AllocationOverride) TableName() string { return "allocation_overrides" }

// CycleSummary records one plan renewal, reporting-only.
type CycleSummary struct {
	Base
	Tenanted

	PlanID           string    `gorm:"size:36;index" json:"planId"`
	NewPlanID        string    `gorm:"size:36" json:"newPlanId"`
	MonthlyCredits   int64     `json:"monthlyCredits"`
	Distributed      int64     `json:"distributed"`
	Unallocated      int64     `json:"unallocated"`
	UsageInWindow    int64     `json:"usageInWindow"`
	OverflowCharge   int64     `json:"overflowCharge"`
	RolloverInjected int64     `json:"rolloverInjected"`
	ClosedAt         time.Time `json:"closedAt"`

	// OverflowChargeAmount is OverflowCharge priced at the closed plan's
	// unit price. Reporting-only, like the charge itself.
	OverflowChargeAmount decimal.Decimal `gorm:"type:decimal(14,4)" json:"overflowChargeAmount"`
}

func (CycleSummary) TableName() string { return "cycle_summaries" }

// AuditRecord is a best-effort audit trail row. System-wide, never
// tenant-filtered.
type AuditRecord struct {
	Base

	Actor       string    `gorm:"size:255" json:"actor"`
	Operation   string    `gorm:"size:64;index" json:"operation"`
	Reason      string    `gorm:"size:255;index" json:"reason"`
	Description string    `gorm:"size:1024" json:"description"`
	OccurredAt  time.Time `gorm:"index" json:"occurredAt"`
}

func (AuditRecord) TableName() string { return "audit_records" }

// AllModels enumerates every persisted model for schema migration.
func AllModels() []any {
	return []any{
		&Account{},
		&AccountAdmin{},
		&SSOConfig{},
		&Workspace{},
		&Connection{},
		&Group{},
		&Team{},
		&Membership{},
		&OverrideRecord{},
		&Quota{},
		&Plan{},
		&Allocation{},
		&AllocationOverride{},
		&CycleSummary{},
		&AuditRecord{},
	}
}
