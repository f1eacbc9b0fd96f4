package services

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/utils"
)

// AddChildTaskInput represents input for appending a child task
type AddChildTaskInput struct {
	ActorID string
	TaskID  string
	ChildTaskInput
}

// UpdateChildTaskInput represents a partial child task update. An empty
// AssigneeID unassigns the child.
type UpdateChildTaskInput struct {
	ActorID     string
	ChildTaskID string
	Name        *string
	AssigneeID  *string
	Status      *models.TaskStatus
	DueDate     *time.Time
	FinishDate  *time.Time
}

// AddChildTask appends a child task at the end of the task's list. Only the
// task owner may do this.
func (s *TaskService) AddChildTask(ctx context.Context, input AddChildTaskInput) (*models.ChildTask, error) {
	op := audit.Op{ActorID: input.ActorID, Action: models.AuditActionCreate, Description: "add child task", Inputs: []any{input.TaskID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.ChildTask, error) {
		var child *models.ChildTask
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			task, err := ownedTask(tx, input.TaskID, input.ActorID)
			if err != nil {
				return err
			}
			count, err := tx.ChildTasks.CountByTask(task.ID)
			if err != nil {
				return fmt.Errorf("failed to count child tasks: %w", err)
			}

			child, err = newChildTask(task, input.ChildTaskInput, int(count)+1)
			if err != nil {
				return err
			}
			if err := validateAssignee(tx, task, child.AssigneeID); err != nil {
				return err
			}
			batch := []models.ChildTask{*child}
			if err := tx.ChildTasks.CreateBatch(batch); err != nil {
				return fmt.Errorf("failed to create child task: %w", err)
			}
			child = &batch[0]
			return nil
		})
		if err != nil {
			return nil, err
		}
		return child, nil
	})
}

// validateAssignee checks that userID is the task owner or one of its active
// assistants.
func validateAssignee(tx *repository.Store, task *models.Task, userID string) error {
	if userID == "" || userID == task.OwnerID {
		return nil
	}
	assistant, err := tx.Assistants.Find(task.ID, userID)
	if isNotFound(err) {
		return ErrInvalidAssignee
	}
	if err != nil {
		return fmt.Errorf("failed to find assistant: %w", err)
	}
	if assistant.Status != models.MemberStatusNormal {
		return ErrInvalidAssignee
	}
	return nil
}

// UpdateChildTask applies a partial update. The task owner and the child's
// assignee may do this.
func (s *TaskService) UpdateChildTask(ctx context.Context, input UpdateChildTaskInput) (*models.ChildTask, error) {
	action := models.AuditActionUpdate
	if input.Status != nil {
		action = statusAction(nil, input.Status)
	}
	op := audit.Op{
		ActorID:     input.ActorID,
		Action:      action,
		Description: "update child task",
		Inputs:      []any{&models.ChildTask{Base: models.Base{ID: input.ChildTaskID}}},
	}
	return audit.Wrap(ctx, s.audit, op, func() (*models.ChildTask, error) {
		return s.updateChildTask(ctx, input)
	})
}

func (s *TaskService) updateChildTask(ctx context.Context, input UpdateChildTaskInput) (*models.ChildTask, error) {
	var child *models.ChildTask
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var (
			task *models.Task
			err  error
		)
		child, task, err = loadChild(tx, input.ChildTaskID)
		if err != nil {
			return err
		}
		if input.ActorID != task.OwnerID && input.ActorID != child.AssigneeID {
			return ErrNoTaskAccess
		}

		fields := map[string]any{}
		if input.Name != nil {
			name, ok := utils.NormalizeName(*input.Name, 1)
			if !ok {
				return ErrInvalidChildTaskName
			}
			fields["name"] = name
			child.Name = name
		}
		if input.AssigneeID != nil {
			if err := validateAssignee(tx, task, *input.AssigneeID); err != nil {
				return err
			}
			fields["assignee_id"] = *input.AssigneeID
			child.AssigneeID = *input.AssigneeID
		}
		if input.DueDate != nil {
			due := models.DateOf(*input.DueDate)
			if models.DateAfter(due, task.DueDate) {
				return ErrChildDueAfterParent
			}
			fields["due_date"] = due
			child.DueDate = due
		}
		if input.Status != nil || input.FinishDate != nil {
			status := child.Status
			if input.Status != nil {
				if !input.Status.Valid() {
					return ErrInvalidTaskStatus
				}
				status = *input.Status
			}
			finish := models.FinishDateFor(status, child.FinishDate, dateOrNil(input.FinishDate))
			fields["status"] = status
			fields["finish_date"] = dateValue(finish)
			child.Status, child.FinishDate = status, finish
		}

		if len(fields) == 0 {
			return nil
		}
		if err := tx.ChildTasks.Update(child.ID, fields); err != nil {
			return fmt.Errorf("failed to update child task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// loadChild loads a live child task and its live parent.
func loadChild(tx *repository.Store, childID string) (*models.ChildTask, *models.Task, error) {
	child, err := tx.ChildTasks.FindByID(childID)
	if err != nil {
		return nil, nil, notFoundOr(err, ErrChildTaskNotFound, "find child task")
	}
	task, err := tx.Tasks.FindByID(child.TaskID)
	if err != nil {
		return nil, nil, notFoundOr(err, ErrTaskNotFound, "find task")
	}
	return child, task, nil
}

// DeleteChildTask soft-deletes a child task with its graph and closes the gap
// it leaves in the sibling order. Only the task owner may do this.
func (s *TaskService) DeleteChildTask(ctx context.Context, actorID, childID string) (*models.ChildTask, error) {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionDelete, Description: "delete child task", Inputs: []any{childID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.ChildTask, error) {
		var child *models.ChildTask
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			var (
				task *models.Task
				err  error
			)
			child, task, err = loadChild(tx, childID)
			if err != nil {
				return err
			}
			if task.OwnerID != actorID {
				return ErrNotTaskOwner
			}

			if err := s.cascade.DeleteSubtreeTx(ctx, tx.DB(), cascade.RootChildTask, child.ID); err != nil {
				return err
			}
			return compactChildren(tx, task.ID)
		})
		if err != nil {
			return nil, err
		}
		return child, nil
	})
}

func compactChildren(tx *repository.Store, taskID string) error {
	children, err := tx.ChildTasks.ListByTask(taskID)
	if err != nil {
		return fmt.Errorf("failed to list child tasks: %w", err)
	}
	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	if err := tx.ChildTasks.SetIndices(ids); err != nil {
		return fmt.Errorf("failed to reindex child tasks: %w", err)
	}
	return nil
}

// ReorderChildTasks reassigns indices 1..n in the order of ids, which must
// list every live child of the task exactly once. The task owner and any
// child assignee may do this.
func (s *TaskService) ReorderChildTasks(ctx context.Context, actorID, taskID string, ids []string) ([]models.ChildTask, error) {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionUpdate, Description: "reorder child tasks", Inputs: []any{taskID}}
	return audit.Wrap(ctx, s.audit, op, func() ([]models.ChildTask, error) {
		var result []models.ChildTask
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			task, err := tx.Tasks.FindByID(taskID)
			if err != nil {
				return notFoundOr(err, ErrTaskNotFound, "find task")
			}
			children, err := tx.ChildTasks.ListByTask(task.ID)
			if err != nil {
				return fmt.Errorf("failed to list child tasks: %w", err)
			}

			live := mapset.NewSetWithSize[string](len(children))
			allowed := task.OwnerID == actorID
			for _, child := range children {
				live.Add(child.ID)
				if child.AssigneeID == actorID {
					allowed = true
				}
			}
			if !allowed {
				return ErrNoTaskAccess
			}
			if len(ids) != len(children) || !live.Equal(mapset.NewSet(ids...)) {
				return ErrChildOrderMismatch
			}

			if err := tx.ChildTasks.SetIndices(ids); err != nil {
				return fmt.Errorf("failed to reorder child tasks: %w", err)
			}
			result, err = tx.ChildTasks.ListByTask(task.ID)
			if err != nil {
				return fmt.Errorf("failed to list child tasks: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}
