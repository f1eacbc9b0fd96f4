package services

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/storage"
	"github.com/smartduck/ducktodo/internal/utils"
)

// TaskService handles task business logic. Every task-scoped mutation is
// recorded in the task's audit trail.
type TaskService struct {
	store   *repository.Store
	cascade *cascade.Engine
	audit   *audit.Recorder
	objects storage.Remover
	log     logrus.FieldLogger
}

// NewTaskService creates a new TaskService
func NewTaskService(store *repository.Store, engine *cascade.Engine, recorder *audit.Recorder, objects storage.Remover, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		store:   store,
		cascade: engine,
		audit:   recorder,
		objects: objects,
		log:     log,
	}
}

// TaskDetail is a task together with everything hanging off it.
type TaskDetail struct {
	Task       *models.Task
	Children   []models.ChildTask
	Assistants []models.TaskAssistant
	Files      []models.TaskFile
	Nodes      []models.TaskNode
}

func (d *TaskDetail) AuditTaskID() string {
	if d == nil {
		return ""
	}
	return d.Task.AuditTaskID()
}

// ChildTaskInput describes a child task created along with its task.
type ChildTaskInput struct {
	Name       string
	AssigneeID string
	Status     *models.TaskStatus
	DueDate    *time.Time
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ActorID     string
	TaskGroupID string
	Name        string
	Description string
	Status      *models.TaskStatus
	Priority    *models.Priority
	StartDate   *time.Time
	DueDate     *time.Time
	HelperIDs   []string
	Children    []ChildTaskInput
}

// UpdateTaskInput represents a partial task update; nil fields are unchanged.
type UpdateTaskInput struct {
	ActorID     string
	TaskID      string
	Name        *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.Priority
	StartDate   *time.Time
	DueDate     *time.Time
	FinishDate  *time.Time
}

// CreateTask creates a task owned by the actor, its assistantships and its
// child tasks.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*TaskDetail, error) {
	op := audit.Op{ActorID: input.ActorID, Action: models.AuditActionCreate, Description: "create task"}
	return audit.Wrap(ctx, s.audit, op, func() (*TaskDetail, error) {
		return s.createTask(ctx, input)
	})
}

func (s *TaskService) createTask(ctx context.Context, input CreateTaskInput) (*TaskDetail, error) {
	name, ok := utils.NormalizeName(input.Name, constants.MinNameLength)
	if !ok {
		return nil, ErrInvalidTaskName
	}
	status := models.TaskStatusNotStarted
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		status = *input.Status
	}
	priority := models.DefaultPriority
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		priority = *input.Priority
	}

	start := models.Today()
	if input.StartDate != nil {
		start = models.DateOf(*input.StartDate)
	}
	if input.DueDate == nil {
		return nil, ErrDueDateRequired
	}
	due := models.DateOf(*input.DueDate)
	if models.DateBefore(due, models.Today()) {
		return nil, ErrDueDateInPast
	}
	if models.DateBefore(due, start) {
		return nil, ErrDueBeforeStart
	}

	detail := &TaskDetail{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := tx.Groups.FindByID(input.TaskGroupID)
		if err != nil {
			return notFoundOr(err, ErrGroupNotFound, "find task group")
		}
		if _, err := checkAccess(tx, models.ScopeGroup, group.ID, input.ActorID, nil); err != nil {
			return err
		}

		helpers, err := validateHelpers(tx, group, input.ActorID, input.HelperIDs)
		if err != nil {
			return err
		}

		task := &models.Task{
			TaskGroupID: group.ID,
			TeamID:      group.TeamID,
			OwnerID:     input.ActorID,
			Name:        name,
			Description: input.Description,
			Status:      status,
			Priority:    priority,
			StartDate:   start,
			DueDate:     due,
			FinishDate:  models.FinishDateFor(status, nil, nil),
		}
		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		assistants := []*models.TaskAssistant{{
			TaskID: task.ID,
			UserID: input.ActorID,
			Kind:   models.AssistantKindOwner,
			Status: models.MemberStatusNormal,
		}}
		for _, helperID := range helpers {
			assistants = append(assistants, &models.TaskAssistant{
				TaskID: task.ID,
				UserID: helperID,
				Kind:   models.AssistantKindAssistant,
				Status: models.MemberStatusNormal,
			})
		}
		if err := tx.Assistants.Create(assistants...); err != nil {
			return fmt.Errorf("failed to create assistants: %w", err)
		}

		assignable := mapset.NewSet(helpers...)
		assignable.Add(input.ActorID)
		children := make([]models.ChildTask, 0, len(input.Children))
		for i, in := range input.Children {
			child, err := newChildTask(task, in, i+1)
			if err != nil {
				return err
			}
			if !assignable.Contains(child.AssigneeID) {
				return ErrInvalidAssignee
			}
			children = append(children, *child)
		}
		if err := tx.ChildTasks.CreateBatch(children); err != nil {
			return fmt.Errorf("failed to create child tasks: %w", err)
		}

		detail.Task = task
		detail.Children = children
		for _, a := range assistants {
			detail.Assistants = append(detail.Assistants, *a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": detail.Task.ID, "actor_id": input.ActorID}).Info("task created")
	return detail, nil
}

// validateHelpers returns the distinct helpers other than the owner. Tasks in
// a private group take no helpers; otherwise helpers must be active members
// of the group.
func validateHelpers(tx *repository.Store, group *models.TaskGroup, ownerID string, helperIDs []string) ([]string, error) {
	helpers := make([]string, 0, len(helperIDs))
	for _, id := range utils.UniqueStrings(helperIDs) {
		if id != ownerID {
			helpers = append(helpers, id)
		}
	}
	if len(helpers) == 0 {
		return helpers, nil
	}
	if group.IsPrivate() {
		return nil, ErrPrivateGroupHelpers
	}

	for _, id := range helpers {
		member, err := tx.GroupMembers.Find(group.ID, id)
		if isNotFound(err) {
			return nil, ErrHelperNotMember
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find helper membership: %w", err)
		}
		if !member.Active() {
			return nil, ErrHelperNotMember
		}
	}
	return helpers, nil
}

// newChildTask builds a child of task at index. The due date defaults to the
// parent's and may not pass it; the assignee defaults to the task owner.
func newChildTask(task *models.Task, in ChildTaskInput, index int) (*models.ChildTask, error) {
	name, ok := utils.NormalizeName(in.Name, 1)
	if !ok {
		return nil, ErrInvalidChildTaskName
	}
	status := models.TaskStatusNotStarted
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		status = *in.Status
	}
	due := task.DueDate
	if in.DueDate != nil {
		due = models.DateOf(*in.DueDate)
	}
	if models.DateAfter(due, task.DueDate) {
		return nil, ErrChildDueAfterParent
	}
	assignee := in.AssigneeID
	if assignee == "" {
		assignee = task.OwnerID
	}

	return &models.ChildTask{
		TaskID:     task.ID,
		AssigneeID: assignee,
		Name:       name,
		Status:     status,
		SortIndex:  index,
		DueDate:    due,
		FinishDate: models.FinishDateFor(status, nil, nil),
	}, nil
}

// GetTask returns a task's detail to any of its assistants.
func (s *TaskService) GetTask(ctx context.Context, actorID, taskID string) (*TaskDetail, error) {
	store := s.store.WithContext(ctx)
	task, err := store.Tasks.FindByID(taskID)
	if err != nil {
		return nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}
	if _, err := checkTaskAccess(store, taskID, actorID); err != nil {
		return nil, err
	}

	detail := &TaskDetail{Task: task}
	if detail.Children, err = store.ChildTasks.ListByTask(taskID); err != nil {
		return nil, fmt.Errorf("failed to list child tasks: %w", err)
	}
	if detail.Assistants, err = store.Assistants.ListByTask(taskID); err != nil {
		return nil, fmt.Errorf("failed to list assistants: %w", err)
	}
	if detail.Files, err = store.Files.ListByTask(taskID); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if detail.Nodes, err = store.Graph.ListNodesByTask(taskID); err != nil {
		return nil, fmt.Errorf("failed to list graph nodes: %w", err)
	}
	return detail, nil
}

// ListMyTasks lists the tasks the actor owns or assists on.
func (s *TaskService) ListMyTasks(ctx context.Context, actorID string) ([]models.Task, error) {
	tasks, err := s.store.WithContext(ctx).Tasks.ListByAssistant(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update for any assistant of the task.
func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*models.Task, error) {
	var current *models.Task
	if task, err := s.store.WithContext(ctx).Tasks.FindByID(input.TaskID); err == nil {
		current = task
	}
	op := audit.Op{
		ActorID:     input.ActorID,
		Action:      statusAction(current, input.Status),
		Description: "update task",
		Inputs:      []any{input.TaskID},
	}
	return audit.Wrap(ctx, s.audit, op, func() (*models.Task, error) {
		return s.updateTask(ctx, input)
	})
}

// statusAction names the audit action for a status change of task.
func statusAction(task *models.Task, next *models.TaskStatus) models.AuditAction {
	if next == nil || (task != nil && task.Status == *next) {
		return models.AuditActionUpdate
	}
	switch *next {
	case models.TaskStatusCompleted:
		return models.AuditActionComplete
	case models.TaskStatusCanceled:
		return models.AuditActionCancel
	case models.TaskStatusDisabled:
		return models.AuditActionArchive
	}
	if task != nil && task.Status == models.TaskStatusDisabled {
		return models.AuditActionRestore
	}
	return models.AuditActionUpdate
}

func (s *TaskService) updateTask(ctx context.Context, input UpdateTaskInput) (*models.Task, error) {
	var task *models.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.FindByID(input.TaskID)
		if err != nil {
			return notFoundOr(err, ErrTaskNotFound, "find task")
		}
		if _, err := checkTaskAccess(tx, task.ID, input.ActorID); err != nil {
			return err
		}

		fields := map[string]any{}
		if input.Name != nil {
			name, ok := utils.NormalizeName(*input.Name, constants.MinNameLength)
			if !ok {
				return ErrInvalidTaskName
			}
			fields["name"] = name
			task.Name = name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
			task.Description = *input.Description
		}
		if input.Priority != nil {
			if !input.Priority.Valid() {
				return ErrInvalidPriority
			}
			fields["priority"] = *input.Priority
			task.Priority = *input.Priority
		}

		if input.StartDate != nil || input.DueDate != nil {
			start, due := task.StartDate, task.DueDate
			if input.StartDate != nil {
				start = models.DateOf(*input.StartDate)
			}
			if input.DueDate != nil {
				due = models.DateOf(*input.DueDate)
				if models.DateBefore(due, models.Today()) {
					return ErrDueDateInPast
				}
			}
			if models.DateBefore(due, start) {
				return ErrDueBeforeStart
			}
			if models.DateBefore(due, task.DueDate) {
				if err := ensureChildrenDueBy(tx, task.ID, due); err != nil {
					return err
				}
			}
			fields["start_date"], fields["due_date"] = start, due
			task.StartDate, task.DueDate = start, due
		}

		if input.Status != nil || input.FinishDate != nil {
			status := task.Status
			if input.Status != nil {
				if !input.Status.Valid() {
					return ErrInvalidTaskStatus
				}
				status = *input.Status
			}
			finish := models.FinishDateFor(status, task.FinishDate, dateOrNil(input.FinishDate))
			fields["status"] = status
			fields["finish_date"] = dateValue(finish)
			task.Status, task.FinishDate = status, finish
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.Tasks.Update(task.ID, fields); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func ensureChildrenDueBy(tx *repository.Store, taskID string, due datatypes.Date) error {
	children, err := tx.ChildTasks.ListByTask(taskID)
	if err != nil {
		return fmt.Errorf("failed to list child tasks: %w", err)
	}
	for _, child := range children {
		if models.DateAfter(child.DueDate, due) {
			return ErrChildDueAfterParent
		}
	}
	return nil
}

func dateOrNil(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}

// dateValue turns an optional date into a column value, nil clearing it.
func dateValue(d *datatypes.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

// DeleteTask soft-deletes a task with everything under it. Only the owner may
// do this.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID string) error {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionDelete, Description: "delete task", Inputs: []any{taskID}}
	_, err := audit.Wrap(ctx, s.audit, op, func() (*models.Task, error) {
		task, err := ownedTask(s.store.WithContext(ctx), taskID, actorID)
		if err != nil {
			return nil, err
		}
		if err := s.cascade.DeleteSubtree(ctx, cascade.RootTask, task.ID); err != nil {
			return nil, err
		}
		return task, nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"task_id": taskID, "actor_id": actorID}).Info("task deleted")
	return nil
}

// ownedTask loads a task and checks that userID owns it.
func ownedTask(store *repository.Store, taskID, userID string) (*models.Task, error) {
	task, err := store.Tasks.FindByID(taskID)
	if err != nil {
		return nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}
	if task.OwnerID != userID {
		return nil, ErrNotTaskOwner
	}
	return task, nil
}

// ListAudits returns the task's audit trail, newest first.
func (s *TaskService) ListAudits(ctx context.Context, actorID, taskID string) ([]models.TaskAudit, error) {
	store := s.store.WithContext(ctx)
	if _, err := store.Tasks.FindByID(taskID); err != nil {
		return nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}
	if _, err := checkTaskAccess(store, taskID, actorID); err != nil {
		return nil, err
	}
	records, err := store.Audits.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}
