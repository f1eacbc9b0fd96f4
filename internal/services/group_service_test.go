package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/testutil"
)

func TestDeletePrivateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.auth.Signup(ctx, SignupInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	team := env.createTeam(t, user.ID, "Alpha")

	groups, err := env.groups.ListMyGroups(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	defaultGroup := groups[0].Group
	assert.Equal(t, "默认任务族", defaultGroup.Name)

	err = env.groups.DeletePrivateGroup(ctx, user.ID, defaultGroup.ID)
	assert.ErrorIs(t, err, ErrDefaultGroupNotDeletable)

	err = env.groups.DeletePrivateGroup(ctx, user.ID, team.Group.ID)
	assert.ErrorIs(t, err, ErrTeamGroupNotDeletable)

	side, err := env.groups.CreatePrivateGroup(ctx, user.ID, "Side projects", "")
	require.NoError(t, err)
	detail, err := env.tasks.CreateTask(ctx, CreateTaskInput{ActorID: user.ID, TaskGroupID: side.ID, Name: "Paint fence", DueDate: inDays(3)})
	require.NoError(t, err)

	stranger := testutil.CreateUser(t, env.db, "stranger")
	err = env.groups.DeletePrivateGroup(ctx, stranger.ID, side.ID)
	requireKind(t, err, apierrors.KindUnauthorized)

	require.NoError(t, env.groups.DeletePrivateGroup(ctx, user.ID, side.ID))
	assert.Equal(t, int64(0), testutil.CountLive(t, env.db, &models.TaskGroup{}, "id = ?", side.ID))
	assert.Equal(t, int64(0), testutil.CountLive(t, env.db, &models.GroupMember{}, "task_group_id = ?", side.ID))
	assert.Equal(t, int64(0), testutil.CountLive(t, env.db, &models.Task{}, "id = ?", detail.Task.ID))
}

func TestUpdateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.db, "owner")
	member := testutil.CreateUser(t, env.db, "member")
	created := env.createTeam(t, owner.ID, "Alpha")
	env.joinTeam(t, owner.ID, created.Team.ID, member.ID, models.RoleMember)

	alias := "Work"
	_, err := env.groups.UpdateGroup(ctx, UpdateGroupInput{ActorID: member.ID, GroupID: created.Group.ID, Alias: &alias})
	require.NoError(t, err)

	row, err := env.store.GroupMembers.Find(created.Group.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", row.Alias)

	name := "Renamed"
	_, err = env.groups.UpdateGroup(ctx, UpdateGroupInput{ActorID: member.ID, GroupID: created.Group.ID, Name: &name})
	requireKind(t, err, apierrors.KindUnauthorized)

	updated, err := env.groups.UpdateGroup(ctx, UpdateGroupInput{ActorID: owner.ID, GroupID: created.Group.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}
