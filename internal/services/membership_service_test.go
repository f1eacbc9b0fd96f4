package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/testutil"
)

func TestInviteRejectInviteAcceptKeepsSecondRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	team := env.createTeam(t, owner.ID, "Alpha").Team

	invite := InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember}
	_, err := env.members.Invite(ctx, invite)
	require.NoError(t, err)

	rejected, err := env.members.Reject(ctx, models.ScopeTeam, team.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusRejected, rejected.Status)

	invite.Role = models.RoleManager
	reinvited, err := env.members.Invite(ctx, invite)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusInviting, reinvited.Status)

	accepted, err := env.members.Accept(ctx, models.ScopeTeam, team.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusNormal, accepted.Status)
	assert.Equal(t, models.RoleManager, accepted.Role)
	assert.NotNil(t, accepted.JoinedAt)

	stored, err := env.store.TeamMembers.Find(team.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, stored.Role)
	assert.Equal(t, models.MemberStatusNormal, stored.Status)
}

func TestHasAccessFollowsAcceptAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	team := env.createTeam(t, owner.ID, "Alpha").Team

	_, err := env.members.Invite(ctx, InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember})
	require.NoError(t, err)

	ok, err := env.authz.HasAccess(ctx, models.ScopeTeam, team.ID, guest.ID, nil)
	require.NoError(t, err)
	assert.False(t, ok, "an invitation grants no access")

	_, err = env.members.Accept(ctx, models.ScopeTeam, team.ID, guest.ID)
	require.NoError(t, err)

	ok, err = env.authz.HasAccess(ctx, models.ScopeTeam, team.ID, guest.ID, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.HasAccess(ctx, models.ScopeTeam, team.ID, guest.ID, RoleAtLeast(models.RoleManager))
	require.NoError(t, err)
	assert.False(t, ok, "a member does not reach manager")

	err = env.members.RemoveMember(ctx, RemoveMemberInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID})
	require.NoError(t, err)

	ok, err = env.authz.HasAccess(ctx, models.ScopeTeam, team.ID, guest.ID, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	groupID := env.mustTeamGroup(t, team.ID)
	ok, err = env.authz.HasAccess(ctx, models.ScopeGroup, groupID, guest.ID, nil)
	require.NoError(t, err)
	assert.False(t, ok, "team removal also drops the team group membership")
}

func (e *testEnv) mustTeamGroup(t *testing.T, teamID string) string {
	t.Helper()

	groups, err := e.store.Groups.ListByTeam(teamID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	return groups[0].ID
}

func TestInviteRejectsInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	member := testutil.CreateUser(t, env.db, "member")
	guest := testutil.CreateUser(t, env.db, "guest")
	team := env.createTeam(t, owner.ID, "Alpha").Team
	env.joinTeam(t, owner.ID, team.ID, member.ID, models.RoleMember)

	tests := []struct {
		name  string
		input InviteInput
		want  error
	}{
		{
			name:  "owner role cannot be granted",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleOwner},
			want:  ErrInvalidRole,
		},
		{
			name:  "self invitation",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: owner.ID, Role: models.RoleMember},
			want:  ErrCannotInviteYourself,
		},
		{
			name:  "plain member cannot invite",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: member.ID, TargetUserID: guest.ID, Role: models.RoleMember},
			want:  ErrNotAuthorized,
		},
		{
			name:  "already a member",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: member.ID, Role: models.RoleManager},
			want:  ErrAlreadyMember,
		},
		{
			name:  "unknown user",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: "missing", Role: models.RoleMember},
			want:  ErrUserNotFound,
		},
		{
			name:  "unknown team",
			input: InviteInput{Scope: models.ScopeTeam, EntityID: "missing", ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember},
			want:  ErrTeamNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.members.Invite(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIllegalTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	team := env.createTeam(t, owner.ID, "Alpha").Team

	_, err := env.members.Invite(ctx, InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember})
	require.NoError(t, err)
	_, err = env.members.Reject(ctx, models.ScopeTeam, team.ID, guest.ID)
	require.NoError(t, err)

	_, err = env.members.Accept(ctx, models.ScopeTeam, team.ID, guest.ID)
	requireKind(t, err, apierrors.KindInvalidTransition)

	_, err = env.members.Reject(ctx, models.ScopeTeam, team.ID, owner.ID)
	requireKind(t, err, apierrors.KindInvalidTransition)

	_, err = env.members.Accept(ctx, models.ScopeTeam, team.ID, "nobody")
	requireKind(t, err, apierrors.KindNotFound)
}

func TestChangeRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	member := testutil.CreateUser(t, env.db, "member")
	team := env.createTeam(t, owner.ID, "Alpha").Team
	env.joinTeam(t, owner.ID, team.ID, member.ID, models.RoleMember)

	changed, err := env.members.ChangeRole(ctx, ChangeRoleInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: member.ID, Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, changed.Role)

	_, err = env.members.ChangeRole(ctx, ChangeRoleInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: member.ID, TargetUserID: owner.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrCannotChangeOwnerRole)

	_, err = env.members.ChangeRole(ctx, ChangeRoleInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: owner.ID, Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)
}

func TestRemoveMemberGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	member := testutil.CreateUser(t, env.db, "member")
	team := env.createTeam(t, owner.ID, "Alpha").Team
	env.joinTeam(t, owner.ID, team.ID, member.ID, models.RoleMember)

	err := env.teams.LeaveTeam(ctx, owner.ID, team.ID)
	assert.ErrorIs(t, err, ErrOwnerCannotLeave)

	err = env.members.RemoveMember(ctx, RemoveMemberInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: member.ID, TargetUserID: owner.ID})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, env.teams.LeaveTeam(ctx, member.ID, team.ID))
	assert.Equal(t, int64(0), testutil.CountLive(t, env.db, &models.TeamMember{}, "team_id = ? AND user_id = ?", team.ID, member.ID))
}

func TestReorderSwapsDisplayOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	alpha := env.createTeam(t, owner.ID, "Alpha").Owner
	beta := env.createTeam(t, owner.ID, "Beta").Owner
	require.Equal(t, 1, *alpha.DisplayOrder)
	require.Equal(t, 2, *beta.DisplayOrder)

	swapped, err := env.members.Reorder(ctx, ReorderInput{Scope: models.ScopeTeam, UserID: owner.ID, FirstID: alpha.ScopeID, SecondID: beta.ScopeID})
	require.NoError(t, err)
	require.Len(t, swapped, 2)
	assert.Equal(t, 2, *swapped[0].DisplayOrder)
	assert.Equal(t, 1, *swapped[1].DisplayOrder)

	mine, err := env.members.ListMine(ctx, models.ScopeTeam, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, beta.ID, mine[0].ID)
}

func TestReorderWithEqualOrdersConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	alpha := env.createTeam(t, owner.ID, "Alpha").Owner
	beta := env.createTeam(t, owner.ID, "Beta").Owner
	require.NoError(t, env.store.TeamMembers.Update(beta.ID, map[string]any{"display_order": 1}))

	input := ReorderInput{Scope: models.ScopeTeam, UserID: owner.ID, FirstID: alpha.ScopeID, SecondID: beta.ScopeID}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.members.Reorder(ctx, input)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		requireKind(t, err, apierrors.KindConflict)
	}

	for _, id := range []string{alpha.ID, beta.ID} {
		m, err := env.store.TeamMembers.FindByID(id)
		require.NoError(t, err)
		assert.Equal(t, 1, *m.DisplayOrder)
	}
}

func TestReorderRejectsForeignEntity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	other := testutil.CreateUser(t, env.db, "other")
	alpha := env.createTeam(t, owner.ID, "Alpha").Team
	beta := env.createTeam(t, other.ID, "Beta").Team

	_, err := env.members.Reorder(ctx, ReorderInput{Scope: models.ScopeTeam, UserID: owner.ID, FirstID: alpha.ID, SecondID: beta.ID})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = env.members.Reorder(ctx, ReorderInput{Scope: models.ScopeTeam, UserID: owner.ID, FirstID: alpha.ID, SecondID: alpha.ID})
	assert.ErrorIs(t, err, ErrSameMembership)
}

func TestDisplayOrderSkipsPastGapsLeftByDepartures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	alpha := env.createTeam(t, owner.ID, "Alpha").Team
	beta := env.createTeam(t, owner.ID, "Beta").Team
	gamma := env.createTeam(t, owner.ID, "Gamma").Team

	env.joinTeam(t, owner.ID, alpha.ID, guest.ID, models.RoleMember)
	env.joinTeam(t, owner.ID, beta.ID, guest.ID, models.RoleMember)
	require.NoError(t, env.teams.LeaveTeam(ctx, guest.ID, alpha.ID))
	env.joinTeam(t, owner.ID, gamma.ID, guest.ID, models.RoleMember)

	betaRow, err := env.store.TeamMembers.Find(beta.ID, guest.ID)
	require.NoError(t, err)
	gammaRow, err := env.store.TeamMembers.Find(gamma.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *betaRow.DisplayOrder)
	assert.Equal(t, 3, *gammaRow.DisplayOrder)

	swapped, err := env.members.Reorder(ctx, ReorderInput{Scope: models.ScopeTeam, UserID: guest.ID, FirstID: beta.ID, SecondID: gamma.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, *swapped[0].DisplayOrder)
	assert.Equal(t, 2, *swapped[1].DisplayOrder)
}

func TestTeamJoinActivatesRejectedGroupInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	team := env.createTeam(t, owner.ID, "Alpha").Team
	groupID := env.mustTeamGroup(t, team.ID)

	_, err := env.members.Invite(ctx, InviteInput{Scope: models.ScopeGroup, EntityID: groupID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember})
	require.NoError(t, err)
	_, err = env.members.Reject(ctx, models.ScopeGroup, groupID, guest.ID)
	require.NoError(t, err)

	env.joinTeam(t, owner.ID, team.ID, guest.ID, models.RoleManager)

	ok, err := env.authz.HasAccess(ctx, models.ScopeGroup, groupID, guest.ID, nil)
	require.NoError(t, err)
	assert.True(t, ok, "joining the team grants its groups even after a declined group invitation")

	row, err := env.store.GroupMembers.Find(groupID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusNormal, row.Status)
	assert.Equal(t, models.RoleManager, row.Role)
	assert.NotNil(t, row.JoinedAt)
	assert.NotNil(t, row.DisplayOrder)
}

func TestListInvitations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	guest := testutil.CreateUser(t, env.db, "guest")
	alpha := env.createTeam(t, owner.ID, "Alpha").Team
	beta := env.createTeam(t, owner.ID, "Beta").Team
	gamma := env.createTeam(t, owner.ID, "Gamma").Team

	for _, team := range []*models.Team{alpha, beta, gamma} {
		_, err := env.members.Invite(ctx, InviteInput{Scope: models.ScopeTeam, EntityID: team.ID, ActorID: owner.ID, TargetUserID: guest.ID, Role: models.RoleMember})
		require.NoError(t, err)
	}
	_, err := env.members.Reject(ctx, models.ScopeTeam, beta.ID, guest.ID)
	require.NoError(t, err)
	_, err = env.members.Accept(ctx, models.ScopeTeam, gamma.ID, guest.ID)
	require.NoError(t, err)

	pending, err := env.members.ListInvitations(ctx, models.ScopeTeam, guest.ID, models.MemberStatusInviting)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alpha.ID, pending[0].Membership.ScopeID)
	assert.Equal(t, "Alpha", pending[0].Name)

	declined, err := env.members.ListInvitations(ctx, models.ScopeTeam, guest.ID, models.MemberStatusRejected)
	require.NoError(t, err)
	require.Len(t, declined, 1)
	assert.Equal(t, "Beta", declined[0].Name)

	_, err = env.members.ListInvitations(ctx, models.ScopeTeam, guest.ID, models.MemberStatusNormal)
	assert.ErrorIs(t, err, ErrInvalidInvitationStatus)

	groups, err := env.members.ListInvitations(ctx, models.ScopeGroup, guest.ID, models.MemberStatusInviting)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestUpdateColor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	team := env.createTeam(t, owner.ID, "Alpha").Team

	_, err := env.members.UpdateColor(ctx, models.ScopeTeam, team.ID, owner.ID, "blue")
	assert.ErrorIs(t, err, ErrInvalidColor)

	member, err := env.members.UpdateColor(ctx, models.ScopeTeam, team.ID, owner.ID, "#AABBCC")
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", member.Color)
}
