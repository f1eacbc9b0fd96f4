package cascade

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/models"
)

const (
	stepResolve      = "resolve_closure"
	stepEdges        = "task_edges"
	stepNodes        = "task_nodes"
	stepAssistants   = "task_assistants"
	stepFiles        = "task_files"
	stepChildTasks   = "child_tasks"
	stepTasks        = "tasks"
	stepGroupMembers = "group_members"
	stepGroups       = "task_groups"
	stepAudits       = "task_audits"
	stepRootMembers  = "root_memberships"
	stepRootEntity   = "root_entity"
)

// step soft-deletes one table's share of the closure. A step whose input is
// empty is skipped.
type step struct {
	name  string
	input func(c *closure) []string
	run   func(tx *gorm.DB, ids []string) (int64, error)
}

// pipeline lists the steps edges first and parents last.
func (e *Engine) pipeline(ctx context.Context) []step {
	return []step{
		{stepEdges, nodeIDs, func(tx *gorm.DB, ids []string) (int64, error) {
			res := tx.Where("(source_id IN ? OR target_id IN ?)", ids, ids).Delete(&models.TaskEdge{})
			return res.RowsAffected, res.Error
		}},
		{stepNodes, nodeIDs, softDelete(&models.TaskNode{}, "id")},
		{stepAssistants, taskIDs, softDelete(&models.TaskAssistant{}, "task_id")},
		{stepFiles, taskIDs, e.deleteFiles(ctx)},
		{stepChildTasks, childIDs, softDelete(&models.ChildTask{}, "id")},
		{stepTasks, taskIDs, softDelete(&models.Task{}, "id")},
		{stepGroupMembers, childGroupIDs, softDelete(&models.GroupMember{}, "task_group_id")},
		{stepGroups, childGroupIDs, softDelete(&models.TaskGroup{}, "id")},
		{stepAudits, taskIDs, softDelete(&models.TaskAudit{}, "task_id")},
		{stepRootMembers, teamIDs, softDelete(&models.TeamMember{}, "team_id")},
		{stepRootEntity, teamIDs, softDelete(&models.Team{}, "id")},
		{stepRootMembers, ownGroupIDs, softDelete(&models.GroupMember{}, "task_group_id")},
		{stepRootEntity, ownGroupIDs, softDelete(&models.TaskGroup{}, "id")},
	}
}

func softDelete(model any, column string) func(tx *gorm.DB, ids []string) (int64, error) {
	return func(tx *gorm.DB, ids []string) (int64, error) {
		res := tx.Where(column+" IN ?", ids).Delete(model)
		return res.RowsAffected, res.Error
	}
}

// deleteFiles flips the attachment rows and then removes their objects. A
// failed removal aborts the step so the enclosing transaction rolls back the
// rows; objects already removed are not restored.
func (e *Engine) deleteFiles(ctx context.Context) func(tx *gorm.DB, ids []string) (int64, error) {
	return func(tx *gorm.DB, ids []string) (int64, error) {
		var refs []string
		if err := tx.Model(&models.TaskFile{}).Where("task_id IN ?", ids).Pluck("object_ref", &refs).Error; err != nil {
			return 0, err
		}
		if len(refs) == 0 {
			return 0, nil
		}

		res := tx.Where("task_id IN ?", ids).Delete(&models.TaskFile{})
		if res.Error != nil {
			return 0, res.Error
		}

		for _, ref := range refs {
			if err := e.objects.Remove(ctx, ref); err != nil {
				return 0, err
			}
		}
		return res.RowsAffected, nil
	}
}

func nodeIDs(c *closure) []string       { return c.nodeIDs.ToSlice() }
func taskIDs(c *closure) []string       { return c.taskIDs }
func childIDs(c *closure) []string      { return c.childIDs }
func childGroupIDs(c *closure) []string { return c.childGroupIDs }
func teamIDs(c *closure) []string       { return c.teamIDs }
func ownGroupIDs(c *closure) []string   { return c.ownGroupIDs }
