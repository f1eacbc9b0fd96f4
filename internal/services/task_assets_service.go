package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/storage"
)

// AddAssistant gives userID an assistantship on the task. Only the owner may
// do this; an existing assistantship is returned unchanged.
func (s *TaskService) AddAssistant(ctx context.Context, actorID, taskID, userID string) (*models.TaskAssistant, error) {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionUpdate, Description: "add assistant", Inputs: []any{taskID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.TaskAssistant, error) {
		var assistant *models.TaskAssistant
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			task, err := ownedTask(tx, taskID, actorID)
			if err != nil {
				return err
			}
			if err := ensureUserExists(tx, userID); err != nil {
				return err
			}

			existing, err := tx.Assistants.Find(task.ID, userID)
			if err == nil {
				assistant = existing
				return nil
			}
			if !isNotFound(err) {
				return fmt.Errorf("failed to find assistant: %w", err)
			}

			group, err := tx.Groups.FindByID(task.TaskGroupID)
			if err != nil {
				return notFoundOr(err, ErrGroupNotFound, "find task group")
			}
			if _, err := validateHelpers(tx, group, task.OwnerID, []string{userID}); err != nil {
				return err
			}

			assistant = &models.TaskAssistant{
				TaskID: task.ID,
				UserID: userID,
				Kind:   models.AssistantKindAssistant,
				Status: models.MemberStatusNormal,
			}
			if err := tx.Assistants.Create(assistant); err != nil {
				return fmt.Errorf("failed to create assistant: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return assistant, nil
	})
}

// RemoveAssistant revokes userID's assistantship. The owner may remove anyone
// but themself; an assistant may remove themself. Removal is blocked while
// the assistant is still assigned to a child task.
func (s *TaskService) RemoveAssistant(ctx context.Context, actorID, taskID, userID string) (*models.TaskAssistant, error) {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionUpdate, Description: "remove assistant", Inputs: []any{taskID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.TaskAssistant, error) {
		var assistant *models.TaskAssistant
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			task, err := tx.Tasks.FindByID(taskID)
			if err != nil {
				return notFoundOr(err, ErrTaskNotFound, "find task")
			}
			assistant, err = tx.Assistants.Find(task.ID, userID)
			if err != nil {
				return notFoundOr(err, ErrAssistantNotFound, "find assistant")
			}
			if assistant.IsOwner() {
				return ErrOwnerAssistantship
			}
			if actorID != task.OwnerID && actorID != userID {
				return ErrNotTaskOwner
			}

			assigned, err := tx.ChildTasks.CountAssignedTo(task.ID, userID)
			if err != nil {
				return fmt.Errorf("failed to count assigned child tasks: %w", err)
			}
			if assigned > 0 {
				return ErrAssistantHasChildTasks
			}

			if err := tx.Assistants.Delete(assistant.ID); err != nil {
				return fmt.Errorf("failed to remove assistant: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return assistant, nil
	})
}

// AddFileInput describes an uploaded attachment. ObjectRef defaults to a
// fresh key under the task's attachment prefix.
type AddFileInput struct {
	ActorID   string
	TaskID    string
	FileName  string
	ObjectRef string
	FileType  string
	FileSize  int64
	Remark    string
}

// AddFile records an attachment for any assistant of the task.
func (s *TaskService) AddFile(ctx context.Context, input AddFileInput) (*models.TaskFile, error) {
	op := audit.Op{ActorID: input.ActorID, Action: models.AuditActionUpdate, Description: "add file", Inputs: []any{input.TaskID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.TaskFile, error) {
		if input.FileName == "" {
			return nil, ErrFileNameRequired
		}

		store := s.store.WithContext(ctx)
		if _, err := store.Tasks.FindByID(input.TaskID); err != nil {
			return nil, notFoundOr(err, ErrTaskNotFound, "find task")
		}
		if _, err := checkTaskAccess(store, input.TaskID, input.ActorID); err != nil {
			return nil, err
		}

		ref := input.ObjectRef
		if ref == "" {
			ref = storage.AttachmentKey(input.TaskID, input.FileName)
		}
		file := &models.TaskFile{
			TaskID:     input.TaskID,
			UploaderID: input.ActorID,
			FileName:   input.FileName,
			ObjectRef:  ref,
			FileType:   input.FileType,
			FileSize:   input.FileSize,
			Status:     models.FileStatusNormal,
			Remark:     input.Remark,
		}
		if err := store.Files.Create(file); err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}
		return file, nil
	})
}

// RemoveFile deletes an attachment of the task. The stored object goes first;
// if that fails the row stays.
func (s *TaskService) RemoveFile(ctx context.Context, actorID, taskID, fileID string) (*models.TaskFile, error) {
	op := audit.Op{ActorID: actorID, Action: models.AuditActionUpdate, Description: "remove file", Inputs: []any{taskID}}
	return audit.Wrap(ctx, s.audit, op, func() (*models.TaskFile, error) {
		var file *models.TaskFile
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			task, err := tx.Tasks.FindByID(taskID)
			if err != nil {
				return notFoundOr(err, ErrTaskNotFound, "find task")
			}
			if _, err := checkTaskAccess(tx, task.ID, actorID); err != nil {
				return err
			}
			file, err = tx.Files.FindByID(fileID)
			if err != nil {
				return notFoundOr(err, ErrFileNotFound, "find file")
			}
			if file.TaskID != task.ID {
				return ErrFileNotFound
			}

			if err := tx.Files.Delete(file.ID); err != nil {
				return fmt.Errorf("failed to delete file: %w", err)
			}
			if err := s.objects.Remove(ctx, file.ObjectRef); err != nil {
				return fmt.Errorf("failed to remove stored object: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{"task_id": taskID, "object_ref": file.ObjectRef}).Info("attachment removed")
		return file, nil
	})
}

// NodeAnchor names the one entity a graph node hangs off.
type NodeAnchor struct {
	TeamID      string
	TaskGroupID string
	TaskID      string
	ChildTaskID string
}

func (a NodeAnchor) count() int {
	n := 0
	for _, id := range []string{a.TeamID, a.TaskGroupID, a.TaskID, a.ChildTaskID} {
		if id != "" {
			n++
		}
	}
	return n
}

// AddNodeInput describes a new graph node.
type AddNodeInput struct {
	ActorID     string
	Anchor      NodeAnchor
	Name        string
	Type        string
	Description string
	ExtraData   datatypes.JSON
}

// AddNode creates a graph node for a user with access to its anchor.
func (s *TaskService) AddNode(ctx context.Context, input AddNodeInput) (*models.TaskNode, error) {
	op := audit.Op{
		ActorID:     input.ActorID,
		Action:      models.AuditActionCreate,
		Description: "add graph node",
		Inputs:      []any{input.Anchor.TaskID, input.Anchor.ChildTaskID},
	}
	return audit.Wrap(ctx, s.audit, op, func() (*models.TaskNode, error) {
		if input.Anchor.count() != 1 {
			return nil, ErrInvalidNodeAnchor
		}
		if input.Name == "" {
			return nil, ErrNodeNameRequired
		}

		store := s.store.WithContext(ctx)
		if err := checkAnchorAccess(store, input.Anchor, input.ActorID); err != nil {
			return nil, err
		}

		node := &models.TaskNode{
			TeamID:      input.Anchor.TeamID,
			TaskGroupID: input.Anchor.TaskGroupID,
			TaskID:      input.Anchor.TaskID,
			ChildTaskID: input.Anchor.ChildTaskID,
			Name:        input.Name,
			Type:        input.Type,
			Description: input.Description,
			ExtraData:   input.ExtraData,
			Status:      1,
		}
		if err := store.Graph.CreateNode(node); err != nil {
			return nil, fmt.Errorf("failed to create graph node: %w", err)
		}
		return node, nil
	})
}

func checkAnchorAccess(store *repository.Store, anchor NodeAnchor, userID string) error {
	switch {
	case anchor.TeamID != "":
		_, err := checkAccess(store, models.ScopeTeam, anchor.TeamID, userID, nil)
		return err
	case anchor.TaskGroupID != "":
		_, err := checkAccess(store, models.ScopeGroup, anchor.TaskGroupID, userID, nil)
		return err
	case anchor.TaskID != "":
		if _, err := store.Tasks.FindByID(anchor.TaskID); err != nil {
			return notFoundOr(err, ErrTaskNotFound, "find task")
		}
		_, err := checkTaskAccess(store, anchor.TaskID, userID)
		return err
	default:
		child, err := store.ChildTasks.FindByID(anchor.ChildTaskID)
		if err != nil {
			return notFoundOr(err, ErrChildTaskNotFound, "find child task")
		}
		_, err = checkTaskAccess(store, child.TaskID, userID)
		return err
	}
}

func anchorOf(node *models.TaskNode) NodeAnchor {
	return NodeAnchor{
		TeamID:      node.TeamID,
		TaskGroupID: node.TaskGroupID,
		TaskID:      node.TaskID,
		ChildTaskID: node.ChildTaskID,
	}
}

// GraphEdge is a new edge with the node it starts from.
type GraphEdge struct {
	Edge   *models.TaskEdge
	Source *models.TaskNode
}

// AuditPayload resolves a child-anchored source to the child task, so the
// audit lands on its parent task.
func (e *GraphEdge) AuditPayload() any {
	if e == nil || e.Source == nil {
		return nil
	}
	if e.Source.TaskID == "" && e.Source.ChildTaskID != "" {
		return &models.ChildTask{Base: models.Base{ID: e.Source.ChildTaskID}}
	}
	return e.Source
}

// AddEdgeInput describes a new graph edge.
type AddEdgeInput struct {
	ActorID     string
	SourceID    string
	TargetID    string
	Type        string
	Description string
}

// AddEdge links two existing nodes for a user with access to both nodes'
// anchors.
func (s *TaskService) AddEdge(ctx context.Context, input AddEdgeInput) (*GraphEdge, error) {
	op := audit.Op{ActorID: input.ActorID, Action: models.AuditActionCreate, Description: "add graph edge"}
	return audit.Wrap(ctx, s.audit, op, func() (*GraphEdge, error) {
		store := s.store.WithContext(ctx)
		source, err := store.Graph.FindNode(input.SourceID)
		if err != nil {
			return nil, notFoundOr(err, ErrNodeNotFound, "find graph node")
		}
		target, err := store.Graph.FindNode(input.TargetID)
		if err != nil {
			return nil, notFoundOr(err, ErrNodeNotFound, "find graph node")
		}
		for _, node := range []*models.TaskNode{source, target} {
			if err := checkAnchorAccess(store, anchorOf(node), input.ActorID); err != nil {
				return nil, err
			}
		}

		edge := &models.TaskEdge{
			SourceID:    source.ID,
			TargetID:    input.TargetID,
			Type:        input.Type,
			Description: input.Description,
		}
		if err := store.Graph.CreateEdge(edge); err != nil {
			return nil, fmt.Errorf("failed to create graph edge: %w", err)
		}
		return &GraphEdge{Edge: edge, Source: source}, nil
	})
}
