package biz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/objects"
	"github.com/tenonhq/tenon/internal/pkg/xcache"
	"github.com/tenonhq/tenon/internal/server/db"
)

// AccessService merges override records across the scope hierarchy into
// the effective access decisions for one user in one account.
type AccessService struct {
	*AbstractService

	membership *MembershipService
	cache      xcache.Cache[*EffectiveAccess]
}

func NewAccessService(client *gorm.DB, membership *MembershipService, cache xcache.Cache[*EffectiveAccess]) *AccessService {
	if cache == nil {
		cache = xcache.NewNoop[*EffectiveAccess]()
	}

	return &AccessService{
		AbstractService: &AbstractService{db: client},
		membership:      membership,
		cache:           cache,
	}
}

type AccessItem struct {
	Code         string `json:"code"`
	Name         string `json:"name,omitempty"`
	Enabled      bool   `json:"enabled"`
	RestrictedBy string `json:"restrictedBy,omitempty"`
}

type AccessDecision struct {
	ProductCode string `json:"productCode"`
	FeatureCode string `json:"featureCode"`
	EntityCode  string `json:"entityCode"`

	Category string         `json:"category,omitempty"`
	Name     string         `json:"name,omitempty"`
	Action   objects.Action `json:"action"`

	Enabled      bool         `json:"enabled"`
	RestrictedBy string       `json:"restrictedBy,omitempty"`
	Items        []AccessItem `json:"items,omitempty"`
}

// EffectiveAccess is the merged result plus the validity-filtered raw
// records bucketed per hierarchy level for audit display.
type EffectiveAccess struct {
	Decisions []AccessDecision                          `json:"decisions"`
	Levels    map[objects.ScopeType][]db.OverrideRecord `json:"levels"`
}

// identityKey is the override record identity; records sharing it across
// scope levels are merged at read time.
type identityKey struct {
	Product string
	Feature string
	Entity  string
}

// Compute resolves the hierarchy, fetches every override at the matching
// scope levels, applies the validity window, and merges per identity key.
// The top-level decision follows the most specific record; items merge
// restrictively and independently of the top-level winner.
func (s *AccessService) Compute(ctx context.Context, accountID, userID string) (*EffectiveAccess, error) {
	cacheKey := accountID + ":" + userID
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	hierarchy, err := s.membership.ResolveHierarchy(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchOverrides(ctx, accountID, userID, hierarchy)
	if err != nil {
		return nil, err
	}

	records = filterValid(records, time.Now())

	result := &EffectiveAccess{
		Levels: bucketByLevel(records),
	}

	groups := make(map[identityKey][]db.OverrideRecord)
	for _, rec := range records {
		key := identityKey{Product: rec.ProductCode, Feature: rec.FeatureCode, Entity: rec.EntityCode}
		groups[key] = append(groups[key], rec)
	}

	keys := make([]identityKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Product != keys[j].Product {
			return keys[i].Product < keys[j].Product
		}

		if keys[i].Feature != keys[j].Feature {
			return keys[i].Feature < keys[j].Feature
		}

		return keys[i].Entity < keys[j].Entity
	})

	for _, key := range keys {
		group := groups[key]
		sortBySpecificity(group)
		result.Decisions = append(result.Decisions, mergeGroup(group))
	}

	// Best effort; the backend's configured expiration bounds staleness
	// and the noop backend makes this a no-op.
	_ = s.cache.Set(ctx, cacheKey, result)

	return result, nil
}

func (s *AccessService) fetchOverrides(ctx context.Context, accountID, userID string, hierarchy *Hierarchy) ([]db.OverrideRecord, error) {
	type scopeFilter struct {
		Type objects.ScopeType
		ID   string
	}

	filters := []scopeFilter{{objects.ScopeAccount, accountID}}
	if hierarchy.GroupID != nil {
		filters = append(filters, scopeFilter{objects.ScopeGroup, *hierarchy.GroupID})
	}

	if hierarchy.TeamID != nil {
		filters = append(filters, scopeFilter{objects.ScopeTeam, *hierarchy.TeamID})
	}

	filters = append(filters, scopeFilter{objects.ScopeUser, userID})

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters)*2)

	for _, f := range filters {
		conds = append(conds, "(scope_type = ? AND scope_id = ?)")
		args = append(args, f.Type, f.ID)
	}

	var records []db.OverrideRecord

	err := s.dbFromContext(ctx).
		Model(&db.OverrideRecord{}).
		Where("account_id = ?", accountID).
		Where(strings.Join(conds, " OR "), args...).
		Order("product_code, feature_code, entity_code, scope_type, id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fetch overrides: %w", err)
	}

	return records, nil
}

// filterValid drops records outside their validity window: valid_from
// must be unset or past, valid_until unset or future.
func filterValid(records []db.OverrideRecord, now time.Time) []db.OverrideRecord {
	valid := make([]db.OverrideRecord, 0, len(records))

	for _, rec := range records {
		if rec.ValidFrom != nil && rec.ValidFrom.After(now) {
			continue
		}

		if rec.ValidUntil != nil && !rec.ValidUntil.After(now) {
			continue
		}

		valid = append(valid, rec)
	}

	return valid
}

func bucketByLevel(records []db.OverrideRecord) map[objects.ScopeType][]db.OverrideRecord {
	levels := make(map[objects.ScopeType][]db.OverrideRecord)
	for _, rec := range records {
		levels[rec.ScopeType] = append(levels[rec.ScopeType], rec)
	}

	return levels
}

// sortBySpecificity orders a group most-specific-first; id breaks ties so
// the result never depends on storage iteration order.
func sortBySpecificity(group []db.OverrideRecord) {
	sort.SliceStable(group, func(i, j int) bool {
		si, sj := group[i].ScopeType.Specificity(), group[j].ScopeType.Specificity()
		if si != sj {
			return si < sj
		}

		return group[i].ID < group[j].ID
	})
}

// mergeGroup computes one decision from a group sorted most-specific-first.
func mergeGroup(group []db.OverrideRecord) AccessDecision {
	top := group[0]

	decision := AccessDecision{
		ProductCode: top.ProductCode,
		FeatureCode: top.FeatureCode,
		EntityCode:  top.EntityCode,
		Category:    top.Category,
		Name:        top.Name,
		Action:      top.Action,
	}

	// Top-level verdict: most specific wins outright.
	disabled := top.Action == objects.ActionDeny ||
		(top.ValueConfig.Enabled != nil && !*top.ValueConfig.Enabled)

	decision.Enabled = !disabled
	if disabled {
		decision.RestrictedBy = scopeLabel(top.ScopeType)
	}

	decision.Items = mergeItems(group)

	return decision
}

// mergeItems applies the restrictive item rule: an item is enabled only
// if every scope mentioning its code enables it. Intentionally stricter
// than and independent of the top-level winner. The most specific
// disabling scope is recorded; names fill from the most specific record
// that provides one.
func mergeItems(group []db.OverrideRecord) []AccessItem {
	type itemState struct {
		name         string
		enabled      bool
		restrictedBy string
	}

	states := make(map[string]*itemState)

	var order []string

	for _, rec := range group {
		for _, item := range rec.ValueConfig.Items {
			state, seen := states[item.Code]
			if !seen {
				state = &itemState{enabled: true}
				states[item.Code] = state
				order = append(order, item.Code)
			}

			if state.name == "" && item.Name != "" {
				state.name = item.Name
			}

			if item.Enabled != nil && !*item.Enabled && state.enabled {
				state.enabled = false
				state.restrictedBy = scopeLabel(rec.ScopeType)
			}
		}
	}

	items := make([]AccessItem, 0, len(order))
	for _, code := range order {
		state := states[code]
		items = append(items, AccessItem{
			Code:         code,
			Name:         state.name,
			Enabled:      state.enabled,
			RestrictedBy: state.restrictedBy,
		})
	}

	return items
}

func scopeLabel(s objects.ScopeType) string {
	switch s {
	case objects.ScopeAccount:
		return "Account"
	case objects.ScopeGroup:
		return "Group"
	case objects.ScopeTeam:
		return "Team"
	case objects.ScopeUser:
		return "User"
	default:
		return "Unknown"
	}
}
