package biz

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/server/db"
	"github.com/tenonhq/tenon/internal/tenancy"
)

// MembershipService resolves a user's position in the account hierarchy.
type MembershipService struct {
	*AbstractService

	memberships *tenancy.Repository[db.Membership]
	teams       *tenancy.Repository[db.Team]
}

func NewMembershipService(client *gorm.DB) *MembershipService {
	return &MembershipService{
		AbstractService: &AbstractService{db: client},
		memberships:     tenancy.NewRepository[db.Membership](client, tenancy.KindMembership),
		teams:           tenancy.NewRepository[db.Team](client, tenancy.KindTeam),
	}
}

const membershipStatusActive = "active"

// ActiveMembership returns the user's active membership in the account.
// The account filter is explicit so hierarchy resolution works the same
// from request scope and from background jobs.
func (s *MembershipService) ActiveMembership(ctx context.Context, accountID, userID string) (*db.Membership, error) {
	rows, err := s.memberships.List(ctx, map[string]any{
		"account_id": accountID,
		"user_id":    userID,
		"status":     membershipStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrMembershipNotFound
	}

	return &rows[0], nil
}

// Hierarchy is the user's resolved position: always the account and user,
// plus team and group when the membership has them.
type Hierarchy struct {
	Membership *db.Membership
	TeamID     *string
	GroupID    *string
}

// ResolveHierarchy derives team and parent group from the active
// membership.
func (s *MembershipService) ResolveHierarchy(ctx context.Context, accountID, userID string) (*Hierarchy, error) {
	membership, err := s.ActiveMembership(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{Membership: membership}
	if membership.TeamID == nil {
		return h, nil
	}

	h.TeamID = membership.TeamID

	team, err := s.teams.GetByID(ctx, *membership.TeamID)
	if err != nil {
		// A dangling team reference narrows the hierarchy instead of
		// failing resolution.
		if errors.Is(err, tenancy.ErrNotFound) {
			return h, nil
		}

		return nil, fmt.Errorf("resolve team: %w", err)
	}

	h.GroupID = team.GroupID

	return h, nil
}
