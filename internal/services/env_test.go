package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/cascade"
	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/logging"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/testutil"
)

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, objectRef string) error {
	if r.err != nil {
		return r.err
	}
	r.removed = append(r.removed, objectRef)
	return nil
}

type testEnv struct {
	db      *gorm.DB
	store   *repository.Store
	authz   *Authorizer
	auth    *AuthService
	members *MembershipService
	teams   *TeamService
	groups  *TaskGroupService
	tasks   *TaskService
	objects *recordingRemover
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logging.Discard()
	store := repository.NewStore(db)
	objects := &recordingRemover{}
	engine := cascade.NewEngine(db, objects, log)
	members := NewMembershipService(store, log)

	return &testEnv{
		db:      db,
		store:   store,
		authz:   NewAuthorizer(store),
		auth:    NewAuthService(store),
		members: members,
		teams:   NewTeamService(store, members, engine, log),
		groups:  NewTaskGroupService(store, engine, log),
		tasks:   NewTaskService(store, engine, audit.NewRecorder(store, log), objects, log),
		objects: objects,
	}
}

func (e *testEnv) createTeam(t *testing.T, ownerID, name string) *CreateTeamResult {
	t.Helper()

	result, err := e.teams.CreateTeam(context.Background(), CreateTeamInput{ActorID: ownerID, Name: name})
	require.NoError(t, err)
	return result
}

// joinTeam invites userID to the team and accepts on their behalf.
func (e *testEnv) joinTeam(t *testing.T, ownerID, teamID, userID string, role models.Role) {
	t.Helper()

	ctx := context.Background()
	_, err := e.members.Invite(ctx, InviteInput{Scope: models.ScopeTeam, EntityID: teamID, ActorID: ownerID, TargetUserID: userID, Role: role})
	require.NoError(t, err)
	_, err = e.members.Accept(ctx, models.ScopeTeam, teamID, userID)
	require.NoError(t, err)
}

func inDays(n int) *time.Time {
	t := time.Now().AddDate(0, 0, n)
	return &t
}

func requireKind(t *testing.T, err error, kind apierrors.Kind) {
	t.Helper()

	require.Error(t, err)
	require.True(t, apierrors.IsKind(err, kind), "expected kind %s, got %v", kind, err)
}
