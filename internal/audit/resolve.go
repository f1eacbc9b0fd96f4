package audit

import (
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
)

// resolve finds the task an operation concerns: the result first, then a
// wrapped payload, then the inputs in order. An empty string means none.
func (r *Recorder) resolve(store *repository.Store, result any, inputs []any) string {
	if id := subjectID(result); id != "" {
		return id
	}
	if env, ok := result.(Envelope); ok {
		inputs = append([]any{env.AuditPayload()}, inputs...)
	}

	for _, in := range inputs {
		switch v := in.(type) {
		case *models.ChildTask:
			if v == nil {
				continue
			}
			if v.TaskID != "" {
				return v.TaskID
			}
			if id := parentOf(store, v.ID); id != "" {
				return id
			}
		case Subject:
			if id := subjectID(v); id != "" {
				return id
			}
		case string:
			if v == "" {
				continue
			}
			if id := parentOf(store, v); id != "" {
				return id
			}
			return v
		}
	}
	return ""
}

func subjectID(v any) string {
	if s, ok := v.(Subject); ok {
		return s.AuditTaskID()
	}
	return ""
}

// parentOf looks childID up as a child task, deleted ones included, and
// returns its task ID.
func parentOf(store *repository.Store, childID string) string {
	if childID == "" {
		return ""
	}
	child, err := store.ChildTasks.FindByIDUnscoped(childID)
	if err != nil {
		return ""
	}
	return child.TaskID
}
