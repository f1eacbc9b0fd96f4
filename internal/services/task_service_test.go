package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/testutil"
)

type TaskServiceTestSuite struct {
	suite.Suite
	env    *testEnv
	ctx    context.Context
	owner  *models.User
	helper *models.User
	team   *CreateTeamResult
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) SetupTest() {
	t := s.T()
	s.env = newTestEnv(t)
	s.ctx = context.Background()
	s.owner = testutil.CreateUser(t, s.env.db, "owner")
	s.helper = testutil.CreateUser(t, s.env.db, "helper")
	s.team = s.env.createTeam(t, s.owner.ID, "Alpha")
	s.env.joinTeam(t, s.owner.ID, s.team.Team.ID, s.helper.ID, models.RoleMember)
}

func (s *TaskServiceTestSuite) createTask(children ...ChildTaskInput) *TaskDetail {
	detail, err := s.env.tasks.CreateTask(s.ctx, CreateTaskInput{
		ActorID:     s.owner.ID,
		TaskGroupID: s.team.Group.ID,
		Name:        "Release 1.0",
		DueDate:     inDays(10),
		HelperIDs:   []string{s.helper.ID},
		Children:    children,
	})
	s.Require().NoError(err)
	return detail
}

func (s *TaskServiceTestSuite) TestCreateTaskHasExactlyOneOwner() {
	detail := s.createTask(ChildTaskInput{Name: "Write notes"}, ChildTaskInput{Name: "Tag build", AssigneeID: s.helper.ID})

	s.Equal(s.owner.ID, detail.Task.OwnerID)
	s.Equal(s.team.Team.ID, detail.Task.TeamID)
	s.Equal(models.TaskStatusNotStarted, detail.Task.Status)
	s.Equal(models.DefaultPriority, detail.Task.Priority)
	s.Nil(detail.Task.FinishDate)

	assistants, err := s.env.store.Assistants.ListByTask(detail.Task.ID)
	s.Require().NoError(err)
	s.Require().Len(assistants, 2)
	owners := 0
	for _, a := range assistants {
		if a.IsOwner() {
			owners++
			s.Equal(s.owner.ID, a.UserID)
		}
	}
	s.Equal(1, owners)

	children, err := s.env.store.ChildTasks.ListByTask(detail.Task.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal(1, children[0].SortIndex)
	s.Equal(s.owner.ID, children[0].AssigneeID)
	s.Equal(2, children[1].SortIndex)
	s.Equal(s.helper.ID, children[1].AssigneeID)

	audits, err := s.env.tasks.ListAudits(s.ctx, s.owner.ID, detail.Task.ID)
	s.Require().NoError(err)
	s.Require().Len(audits, 1)
	s.Equal(models.AuditActionCreate, audits[0].Action)
	s.Equal(s.owner.ID, audits[0].OperatorID)
}

func (s *TaskServiceTestSuite) TestCreateTaskValidation() {
	stranger := testutil.CreateUser(s.T(), s.env.db, "stranger")
	private, err := s.env.groups.CreatePrivateGroup(s.ctx, s.owner.ID, "Private", "")
	s.Require().NoError(err)

	tests := []struct {
		name  string
		input CreateTaskInput
		want  error
	}{
		{"short name", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "x", DueDate: inDays(1)}, ErrInvalidTaskName},
		{"missing due date", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task"}, ErrDueDateRequired},
		{"due date in the past", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task", DueDate: inDays(-1)}, ErrDueDateInPast},
		{"due before start", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task", StartDate: inDays(5), DueDate: inDays(2)}, ErrDueBeforeStart},
		{"not a group member", CreateTaskInput{ActorID: stranger.ID, TaskGroupID: s.team.Group.ID, Name: "Task", DueDate: inDays(1)}, ErrNotAuthorized},
		{"helper outside the group", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task", DueDate: inDays(1), HelperIDs: []string{stranger.ID}}, ErrHelperNotMember},
		{"helpers in a private group", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: private.ID, Name: "Task", DueDate: inDays(1), HelperIDs: []string{s.helper.ID}}, ErrPrivateGroupHelpers},
		{"child due after parent", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task", DueDate: inDays(1), Children: []ChildTaskInput{{Name: "late", DueDate: inDays(2)}}}, ErrChildDueAfterParent},
		{"child assigned to outsider", CreateTaskInput{ActorID: s.owner.ID, TaskGroupID: s.team.Group.ID, Name: "Task", DueDate: inDays(1), Children: []ChildTaskInput{{Name: "step", AssigneeID: s.helper.ID}}}, ErrInvalidAssignee},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.env.tasks.CreateTask(s.ctx, tt.input)
			s.ErrorIs(err, tt.want)
		})
	}

	s.Equal(int64(0), testutil.CountLive(s.T(), s.env.db, &models.Task{}, "1 = 1"))
}

func (s *TaskServiceTestSuite) TestRemoveAssistantBlockedWhileAssigned() {
	detail := s.createTask(ChildTaskInput{Name: "Tag build", AssigneeID: s.helper.ID})
	child := detail.Children[0]

	_, err := s.env.tasks.RemoveAssistant(s.ctx, s.owner.ID, detail.Task.ID, s.helper.ID)
	requireKind(s.T(), err, apierrors.KindBlockedByDependency)

	unassigned := ""
	_, err = s.env.tasks.UpdateChildTask(s.ctx, UpdateChildTaskInput{ActorID: s.owner.ID, ChildTaskID: child.ID, AssigneeID: &unassigned})
	s.Require().NoError(err)

	_, err = s.env.tasks.RemoveAssistant(s.ctx, s.owner.ID, detail.Task.ID, s.helper.ID)
	s.Require().NoError(err)

	ok, err := s.env.authz.HasTaskAccess(s.ctx, detail.Task.ID, s.helper.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *TaskServiceTestSuite) TestRemoveAssistantAfterChildDeleted() {
	detail := s.createTask(ChildTaskInput{Name: "Tag build", AssigneeID: s.helper.ID})

	_, err := s.env.tasks.DeleteChildTask(s.ctx, s.owner.ID, detail.Children[0].ID)
	s.Require().NoError(err)

	_, err = s.env.tasks.RemoveAssistant(s.ctx, s.helper.ID, detail.Task.ID, s.helper.ID)
	s.Require().NoError(err)
}

func (s *TaskServiceTestSuite) TestOwnerAssistantshipIsPermanent() {
	detail := s.createTask()

	_, err := s.env.tasks.RemoveAssistant(s.ctx, s.owner.ID, detail.Task.ID, s.owner.ID)
	s.ErrorIs(err, ErrOwnerAssistantship)

	again, err := s.env.tasks.AddAssistant(s.ctx, s.owner.ID, detail.Task.ID, s.helper.ID)
	s.Require().NoError(err)
	s.Equal(models.AssistantKindAssistant, again.Kind)

	_, err = s.env.tasks.AddAssistant(s.ctx, s.helper.ID, detail.Task.ID, s.owner.ID)
	s.ErrorIs(err, ErrNotTaskOwner)

	s.Equal(int64(1), testutil.CountLive(s.T(), s.env.db, &models.TaskAssistant{}, "task_id = ? AND kind = ?", detail.Task.ID, models.AssistantKindOwner))
}

func (s *TaskServiceTestSuite) TestUpdateTaskStatusSetsFinishDateAndAuditAction() {
	detail := s.createTask()

	completed := models.TaskStatusCompleted
	task, err := s.env.tasks.UpdateTask(s.ctx, UpdateTaskInput{ActorID: s.helper.ID, TaskID: detail.Task.ID, Status: &completed})
	s.Require().NoError(err)
	s.Require().NotNil(task.FinishDate)
	s.False(models.DateBefore(*task.FinishDate, models.Today()))

	inProgress := models.TaskStatusInProgress
	task, err = s.env.tasks.UpdateTask(s.ctx, UpdateTaskInput{ActorID: s.helper.ID, TaskID: detail.Task.ID, Status: &inProgress})
	s.Require().NoError(err)
	s.Nil(task.FinishDate)

	stored, err := s.env.store.Tasks.FindByID(detail.Task.ID)
	s.Require().NoError(err)
	s.Nil(stored.FinishDate)
	s.Equal(models.TaskStatusInProgress, stored.Status)

	bad := models.Priority(7)
	_, err = s.env.tasks.UpdateTask(s.ctx, UpdateTaskInput{ActorID: s.helper.ID, TaskID: detail.Task.ID, Priority: &bad})
	s.ErrorIs(err, ErrInvalidPriority)

	audits, err := s.env.tasks.ListAudits(s.ctx, s.owner.ID, detail.Task.ID)
	s.Require().NoError(err)
	var actions []models.AuditAction
	var descriptions []string
	for _, a := range audits {
		actions = append(actions, a.Action)
		descriptions = append(descriptions, a.Description)
	}
	s.Len(audits, 4)
	s.Contains(actions, models.AuditActionComplete)
	s.Contains(descriptions, "update task - ERROR: InvalidInput")
}

func (s *TaskServiceTestSuite) TestUpdateTaskKeepsChildrenWithinDueDate() {
	detail := s.createTask(ChildTaskInput{Name: "Tag build", DueDate: inDays(8)})

	_, err := s.env.tasks.UpdateTask(s.ctx, UpdateTaskInput{ActorID: s.owner.ID, TaskID: detail.Task.ID, DueDate: inDays(5)})
	s.ErrorIs(err, ErrChildDueAfterParent)

	task, err := s.env.tasks.UpdateTask(s.ctx, UpdateTaskInput{ActorID: s.owner.ID, TaskID: detail.Task.ID, DueDate: inDays(9)})
	s.Require().NoError(err)
	s.False(models.DateBefore(task.DueDate, models.DateOf(*inDays(9))))
	s.False(models.DateAfter(task.DueDate, models.DateOf(*inDays(9))))
}

func (s *TaskServiceTestSuite) TestDeleteChildTaskCompactsIndices() {
	detail := s.createTask(ChildTaskInput{Name: "one"}, ChildTaskInput{Name: "two"}, ChildTaskInput{Name: "three"})

	_, err := s.env.tasks.DeleteChildTask(s.ctx, s.helper.ID, detail.Children[1].ID)
	s.ErrorIs(err, ErrNotTaskOwner)

	deleted, err := s.env.tasks.DeleteChildTask(s.ctx, s.owner.ID, detail.Children[1].ID)
	s.Require().NoError(err)
	s.Equal("two", deleted.Name)

	children, err := s.env.store.ChildTasks.ListByTask(detail.Task.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal("one", children[0].Name)
	s.Equal(1, children[0].SortIndex)
	s.Equal("three", children[1].Name)
	s.Equal(2, children[1].SortIndex)

	audits, err := s.env.tasks.ListAudits(s.ctx, s.owner.ID, detail.Task.ID)
	s.Require().NoError(err)
	s.Len(audits, 3, "create plus the failed and the successful delete")
}

func (s *TaskServiceTestSuite) TestReorderChildTasks() {
	detail := s.createTask(ChildTaskInput{Name: "one"}, ChildTaskInput{Name: "two"})
	first, second := detail.Children[0].ID, detail.Children[1].ID

	_, err := s.env.tasks.ReorderChildTasks(s.ctx, s.owner.ID, detail.Task.ID, []string{second})
	s.ErrorIs(err, ErrChildOrderMismatch)

	_, err = s.env.tasks.ReorderChildTasks(s.ctx, s.owner.ID, detail.Task.ID, []string{second, second})
	s.ErrorIs(err, ErrChildOrderMismatch)

	_, err = s.env.tasks.ReorderChildTasks(s.ctx, s.helper.ID, detail.Task.ID, []string{second, first})
	s.ErrorIs(err, ErrNoTaskAccess)

	children, err := s.env.tasks.ReorderChildTasks(s.ctx, s.owner.ID, detail.Task.ID, []string{second, first})
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal(second, children[0].ID)
	s.Equal(1, children[0].SortIndex)
	s.Equal(first, children[1].ID)
}

func (s *TaskServiceTestSuite) TestAddChildTaskAppends() {
	detail := s.createTask(ChildTaskInput{Name: "one"})

	child, err := s.env.tasks.AddChildTask(s.ctx, AddChildTaskInput{
		ActorID:        s.owner.ID,
		TaskID:         detail.Task.ID,
		ChildTaskInput: ChildTaskInput{Name: "two", AssigneeID: s.helper.ID},
	})
	s.Require().NoError(err)
	s.NotEmpty(child.ID)
	s.Equal(2, child.SortIndex)
	s.False(models.DateBefore(child.DueDate, detail.Task.DueDate))
	s.False(models.DateAfter(child.DueDate, detail.Task.DueDate))

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	_, err = s.env.tasks.AddChildTask(s.ctx, AddChildTaskInput{
		ActorID:        s.owner.ID,
		TaskID:         detail.Task.ID,
		ChildTaskInput: ChildTaskInput{Name: "three", AssigneeID: outsider.ID},
	})
	s.ErrorIs(err, ErrInvalidAssignee)

	completed := models.TaskStatusCompleted
	updated, err := s.env.tasks.UpdateChildTask(s.ctx, UpdateChildTaskInput{ActorID: s.helper.ID, ChildTaskID: child.ID, Status: &completed})
	s.Require().NoError(err)
	s.NotNil(updated.FinishDate)
}

func (s *TaskServiceTestSuite) TestRemoveFileRollsBackWhenObjectRemovalFails() {
	detail := s.createTask()
	file, err := s.env.tasks.AddFile(s.ctx, AddFileInput{ActorID: s.helper.ID, TaskID: detail.Task.ID, FileName: "Plan.PDF", FileSize: 42})
	s.Require().NoError(err)
	s.Contains(file.ObjectRef, "tasks/"+detail.Task.ID+"/attachments/")
	s.Contains(file.ObjectRef, ".pdf")

	s.env.objects.err = errors.New("object store unavailable")
	_, err = s.env.tasks.RemoveFile(s.ctx, s.owner.ID, detail.Task.ID, file.ID)
	s.Error(err)
	s.Equal(int64(1), testutil.CountLive(s.T(), s.env.db, &models.TaskFile{}, "id = ?", file.ID))

	s.env.objects.err = nil
	_, err = s.env.tasks.RemoveFile(s.ctx, s.owner.ID, detail.Task.ID, file.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), testutil.CountLive(s.T(), s.env.db, &models.TaskFile{}, "id = ?", file.ID))
	s.Equal([]string{file.ObjectRef}, s.env.objects.removed)
}

func (s *TaskServiceTestSuite) TestDeleteTaskRemovesWholeSubtree() {
	detail := s.createTask(ChildTaskInput{Name: "one"}, ChildTaskInput{Name: "two"})
	taskID := detail.Task.ID

	a, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{TaskID: taskID}, Name: "design"})
	s.Require().NoError(err)
	b, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{TaskID: taskID}, Name: "build", ExtraData: datatypes.JSON(`{"x":1}`)})
	s.Require().NoError(err)
	_, err = s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{ChildTaskID: detail.Children[0].ID}, Name: "review"})
	s.Require().NoError(err)
	_, err = s.env.tasks.AddEdge(s.ctx, AddEdgeInput{ActorID: s.owner.ID, SourceID: a.ID, TargetID: b.ID, Type: "depends_on"})
	s.Require().NoError(err)
	file, err := s.env.tasks.AddFile(s.ctx, AddFileInput{ActorID: s.owner.ID, TaskID: taskID, FileName: "spec.md", ObjectRef: "tasks/x/spec.md"})
	s.Require().NoError(err)

	err = s.env.tasks.DeleteTask(s.ctx, s.helper.ID, taskID)
	s.ErrorIs(err, ErrNotTaskOwner)

	s.Require().NoError(s.env.tasks.DeleteTask(s.ctx, s.owner.ID, taskID))

	t := s.T()
	childIDs := []string{detail.Children[0].ID, detail.Children[1].ID}
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.Task{}, "id = ?", taskID))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.ChildTask{}, "task_id = ?", taskID))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.TaskAssistant{}, "task_id = ?", taskID))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.TaskFile{}, "task_id = ?", taskID))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.TaskNode{}, "task_id = ? OR child_task_id IN ?", taskID, childIDs))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.TaskEdge{}, "source_id IN ?", []string{a.ID, b.ID}))
	s.Equal(int64(0), testutil.CountLive(t, s.env.db, &models.TaskAudit{}, "task_id = ?", taskID))
	s.Equal([]string{file.ObjectRef}, s.env.objects.removed)

	_, err = s.env.tasks.GetTask(s.ctx, s.owner.ID, taskID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestGetTaskAndListMine() {
	detail := s.createTask(ChildTaskInput{Name: "one"})

	got, err := s.env.tasks.GetTask(s.ctx, s.helper.ID, detail.Task.ID)
	s.Require().NoError(err)
	s.Len(got.Children, 1)
	s.Len(got.Assistants, 2)
	s.True(got.Assistants[0].IsOwner())

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	_, err = s.env.tasks.GetTask(s.ctx, outsider.ID, detail.Task.ID)
	s.ErrorIs(err, ErrNoTaskAccess)

	mine, err := s.env.tasks.ListMyTasks(s.ctx, s.helper.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(detail.Task.ID, mine[0].ID)
}

func (s *TaskServiceTestSuite) TestAddNodeRequiresSingleAnchor() {
	detail := s.createTask()

	_, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{TaskID: detail.Task.ID, TeamID: s.team.Team.ID}, Name: "both"})
	s.ErrorIs(err, ErrInvalidNodeAnchor)

	node, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.helper.ID, Anchor: NodeAnchor{TeamID: s.team.Team.ID}, Name: "roadmap"})
	s.Require().NoError(err)
	s.Equal(s.team.Team.ID, node.TeamID)

	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	_, err = s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: outsider.ID, Anchor: NodeAnchor{TaskGroupID: s.team.Group.ID}, Name: "nope"})
	requireKind(s.T(), err, apierrors.KindUnauthorized)
}

func (s *TaskServiceTestSuite) TestAddEdgeRequiresAccessToBothNodes() {
	outsider := testutil.CreateUser(s.T(), s.env.db, "outsider")
	beta := s.env.createTeam(s.T(), outsider.ID, "Beta")

	ours, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{TeamID: s.team.Team.ID}, Name: "ours"})
	s.Require().NoError(err)
	theirs, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: outsider.ID, Anchor: NodeAnchor{TeamID: beta.Team.ID}, Name: "theirs"})
	s.Require().NoError(err)

	_, err = s.env.tasks.AddEdge(s.ctx, AddEdgeInput{ActorID: s.owner.ID, SourceID: ours.ID, TargetID: theirs.ID, Type: "depends_on"})
	requireKind(s.T(), err, apierrors.KindUnauthorized)

	_, err = s.env.tasks.AddEdge(s.ctx, AddEdgeInput{ActorID: outsider.ID, SourceID: theirs.ID, TargetID: ours.ID, Type: "depends_on"})
	requireKind(s.T(), err, apierrors.KindUnauthorized)

	s.Equal(int64(0), testutil.CountLive(s.T(), s.env.db, &models.TaskEdge{}, "source_id IN ?", []string{ours.ID, theirs.ID}))
}

func (s *TaskServiceTestSuite) TestAddEdgeFromChildNodeAuditsParentTask() {
	detail := s.createTask(ChildTaskInput{Name: "one"})

	source, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{ChildTaskID: detail.Children[0].ID}, Name: "review"})
	s.Require().NoError(err)
	target, err := s.env.tasks.AddNode(s.ctx, AddNodeInput{ActorID: s.owner.ID, Anchor: NodeAnchor{TaskID: detail.Task.ID}, Name: "ship"})
	s.Require().NoError(err)

	_, err = s.env.tasks.AddEdge(s.ctx, AddEdgeInput{ActorID: s.owner.ID, SourceID: source.ID, TargetID: target.ID, Type: "blocks"})
	s.Require().NoError(err)

	s.Equal(int64(1), testutil.CountLive(s.T(), s.env.db, &models.TaskAudit{}, "task_id = ? AND description = ?", detail.Task.ID, "add graph edge"))
}
