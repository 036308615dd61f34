package objects

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScopeType is a position in the override-resolution hierarchy.
type ScopeType string

const (
	ScopeAccount ScopeType = "ACCOUNT"
	ScopeGroup   ScopeType = "GROUP"
	ScopeTeam    ScopeType = "TEAM"
	ScopeUser    ScopeType = "USER"
)

// Specificity ranks scope types for conflict resolution; lower wins.
// Unknown scope types sort last so malformed rows never beat real ones.
func (s ScopeType) Specificity() int {
	switch s {
	case ScopeUser:
		return 1
	case ScopeTeam:
		return 2
	case ScopeGroup:
		return 3
	case ScopeAccount:
		return 4
	default:
		return 5
	}
}

// Action is the override record's top-level verdict.
type Action string

const (
	ActionRestrict Action = "RESTRICT"
	ActionAllow    Action = "ALLOW"
	ActionDeny     Action = "DENY"
)

// ValueConfig is the payload of an override record: an optional top-level
// toggle plus item-level sub-toggles.
type ValueConfig struct {
	Enabled *bool             `json:"enabled,omitempty"`
	Items   []ValueConfigItem `json:"items,omitempty"`
}

type ValueConfigItem struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Value implements driver.Valuer so the config persists as a JSON column.
func (v ValueConfig) Value() (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value config: %w", err)
	}

	return string(raw), nil
}

// Scan implements sql.Scanner.
func (v *ValueConfig) Scan(src any) error {
	switch raw := src.(type) {
	case nil:
		*v = ValueConfig{}
		return nil
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	default:
		return fmt.Errorf("unsupported value config source type %T", src)
	}
}
