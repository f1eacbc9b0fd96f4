// Package cascade soft-deletes a hierarchy node together with every row that
// depends on it. The database has no foreign-key cascades, so the dependent
// closure is resolved here and torn down leaves first inside one transaction.
package cascade

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/storage"
)

type RootType string

const (
	RootTeam      RootType = "team"
	RootTaskGroup RootType = "task_group"
	RootTask      RootType = "task"
	RootChildTask RootType = "child_task"
)

// Engine executes cascading soft deletes.
type Engine struct {
	db      *gorm.DB
	objects storage.Remover
	log     logrus.FieldLogger
}

func NewEngine(db *gorm.DB, objects storage.Remover, log logrus.FieldLogger) *Engine {
	if objects == nil {
		objects = storage.NopRemover{}
	}
	return &Engine{db: db, objects: objects, log: log}
}

// DeleteSubtree soft-deletes root and its dependent closure in its own transaction.
// Deleting an already deleted subtree succeeds without touching any row.
func (e *Engine) DeleteSubtree(ctx context.Context, root RootType, rootID string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return e.DeleteSubtreeTx(ctx, tx, root, rootID)
	})
}

// DeleteSubtreeTx runs the cascade inside a transaction owned by the caller.
func (e *Engine) DeleteSubtreeTx(ctx context.Context, tx *gorm.DB, root RootType, rootID string) error {
	log := e.log.WithFields(logrus.Fields{"root": root, "root_id": rootID})

	c, err := resolve(tx, root, rootID)
	if err != nil {
		return apierrors.CascadeDeleteFailed(stepResolve, err)
	}

	for _, s := range e.pipeline(ctx) {
		ids := s.input(c)
		if len(ids) == 0 {
			continue
		}
		affected, err := s.run(tx, ids)
		if err != nil {
			log.WithError(err).WithField("step", s.name).Error("cascade step failed")
			return apierrors.CascadeDeleteFailed(s.name, err)
		}
		log.WithFields(logrus.Fields{"step": s.name, "rows": affected}).Debug("cascade step done")
	}

	return nil
}

// closure is the resolved set of rows that go down with a root.
type closure struct {
	// teamIDs and ownGroupIDs hold the root itself for team and group roots.
	teamIDs     []string
	ownGroupIDs []string
	// childGroupIDs are the groups owned by a team root.
	childGroupIDs []string
	taskIDs       []string
	childIDs      []string
	nodeIDs       mapset.Set[string]
}

func (c *closure) groupIDs() []string {
	return append(append([]string{}, c.ownGroupIDs...), c.childGroupIDs...)
}

func resolve(tx *gorm.DB, root RootType, rootID string) (*closure, error) {
	c := &closure{nodeIDs: mapset.NewThreadUnsafeSet[string]()}

	live, err := rootExists(tx, root, rootID)
	if err != nil || !live {
		return c, err
	}

	switch root {
	case RootTeam:
		c.teamIDs = []string{rootID}
		if err := tx.Model(&models.TaskGroup{}).Where("team_id = ?", rootID).Pluck("id", &c.childGroupIDs).Error; err != nil {
			return nil, err
		}
		query := tx.Model(&models.Task{})
		if len(c.childGroupIDs) > 0 {
			query = query.Where("(team_id = ? OR task_group_id IN ?)", rootID, c.childGroupIDs)
		} else {
			query = query.Where("team_id = ?", rootID)
		}
		if err := query.Pluck("id", &c.taskIDs).Error; err != nil {
			return nil, err
		}
	case RootTaskGroup:
		c.ownGroupIDs = []string{rootID}
		if err := tx.Model(&models.Task{}).Where("task_group_id = ?", rootID).Pluck("id", &c.taskIDs).Error; err != nil {
			return nil, err
		}
	case RootTask:
		c.taskIDs = []string{rootID}
	case RootChildTask:
		c.childIDs = []string{rootID}
	}

	if len(c.taskIDs) > 0 {
		if err := tx.Model(&models.ChildTask{}).Where("task_id IN ?", c.taskIDs).Pluck("id", &c.childIDs).Error; err != nil {
			return nil, err
		}
	}

	anchors := []struct {
		column string
		ids    []string
	}{
		{"team_id", c.teamIDs},
		{"task_group_id", c.groupIDs()},
		{"task_id", c.taskIDs},
		{"child_task_id", c.childIDs},
	}
	for _, anchor := range anchors {
		if len(anchor.ids) == 0 {
			continue
		}
		var ids []string
		if err := tx.Model(&models.TaskNode{}).Where(anchor.column+" IN ?", anchor.ids).Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		c.nodeIDs.Append(ids...)
	}

	return c, nil
}

func rootExists(tx *gorm.DB, root RootType, rootID string) (bool, error) {
	var model any
	switch root {
	case RootTeam:
		model = &models.Team{}
	case RootTaskGroup:
		model = &models.TaskGroup{}
	case RootTask:
		model = &models.Task{}
	case RootChildTask:
		model = &models.ChildTask{}
	default:
		return false, apierrors.New(apierrors.KindInvalidInput, "unknown cascade root type "+string(root))
	}

	var count int64
	if err := tx.Model(model).Where("id = ?", rootID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
