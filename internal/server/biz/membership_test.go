package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenonhq/tenon/internal/server/db"
)

func TestActiveMembership(t *testing.T) {
	client := newTestDB(t)
	svc := NewMembershipService(client)
	ctx := context.Background()

	active := &db.Membership{UserID: "user-1", Status: membershipStatusActive}
	active.AccountID = "acc-1"
	require.NoError(t, client.Create(active).Error)

	suspended := &db.Membership{UserID: "user-2", Status: "suspended"}
	suspended.AccountID = "acc-1"
	require.NoError(t, client.Create(suspended).Error)

	t.Run("active found", func(t *testing.T) {
		got, err := svc.ActiveMembership(ctx, "acc-1", "user-1")
		require.NoError(t, err)
		require.Equal(t, active.ID, got.ID)
	})

	t.Run("suspended not found", func(t *testing.T) {
		_, err := svc.ActiveMembership(ctx, "acc-1", "user-2")
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("wrong account not found", func(t *testing.T) {
		_, err := svc.ActiveMembership(ctx, "acc-2", "user-1")
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})
}

func TestResolveHierarchy(t *testing.T) {
	client := newTestDB(t)
	svc := NewMembershipService(client)
	ctx := context.Background()

	group := &db.Group{Code: "eng"}
	group.AccountID = "acc-1"
	require.NoError(t, client.Create(group).Error)

	teamWithGroup := &db.Team{Code: "core", GroupID: &group.ID}
	teamWithGroup.AccountID = "acc-1"
	require.NoError(t, client.Create(teamWithGroup).Error)

	teamAlone := &db.Team{Code: "ops"}
	teamAlone.AccountID = "acc-1"
	require.NoError(t, client.Create(teamAlone).Error)

	seedMember := func(userID string, teamID *string) {
		m := &db.Membership{UserID: userID, TeamID: teamID, Status: membershipStatusActive}
		m.AccountID = "acc-1"
		require.NoError(t, client.Create(m).Error)
	}

	seedMember("with-group", &teamWithGroup.ID)
	seedMember("without-group", &teamAlone.ID)
	seedMember("without-team", nil)

	t.Run("full hierarchy", func(t *testing.T) {
		h, err := svc.ResolveHierarchy(ctx, "acc-1", "with-group")
		require.NoError(t, err)
		require.Equal(t, teamWithGroup.ID, *h.TeamID)
		require.Equal(t, group.ID, *h.GroupID)
	})

	t.Run("team without group", func(t *testing.T) {
		h, err := svc.ResolveHierarchy(ctx, "acc-1", "without-group")
		require.NoError(t, err)
		require.Equal(t, teamAlone.ID, *h.TeamID)
		require.Nil(t, h.GroupID)
	})

	t.Run("member without team", func(t *testing.T) {
		h, err := svc.ResolveHierarchy(ctx, "acc-1", "without-team")
		require.NoError(t, err)
		require.Nil(t, h.TeamID)
		require.Nil(t, h.GroupID)
	})
}
