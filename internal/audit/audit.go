// Package audit appends task audit records around mutating operations.
package audit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	apierrors "github.com/smartduck/ducktodo/internal/errors"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/repository"
)

// Subject is implemented by values that know which task they concern.
type Subject interface {
	AuditTaskID() string
}

// Envelope is implemented by results that wrap their payload.
type Envelope interface {
	AuditPayload() any
}

// Op describes one audited operation.
type Op struct {
	ActorID     string
	Action      models.AuditAction
	Description string
	// Inputs are scanned in order when the result names no task.
	Inputs []any
}

// Recorder resolves audit subjects and writes audit records.
type Recorder struct {
	store *repository.Store
	log   logrus.FieldLogger
}

func NewRecorder(store *repository.Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Wrap runs fn and then records op against the task it concerns, whether fn
// succeeded or not. Recording never changes fn's outcome.
func Wrap[T any](ctx context.Context, r *Recorder, op Op, fn func() (T, error)) (T, error) {
	result, err := fn()
	r.Record(ctx, op, result, err)
	return result, err
}

// Record writes one audit record for op. Failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, op Op, result any, opErr error) {
	log := r.log.WithFields(logrus.Fields{"action": op.Action, "actor_id": op.ActorID})

	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("audit resolver panicked")
		}
	}()

	store := r.store.WithContext(ctx)
	taskID := r.resolve(store, result, op.Inputs)
	if taskID == "" {
		return
	}

	live, err := store.Tasks.Exists(taskID)
	if err != nil {
		log.WithError(err).Warn("failed to check audit subject")
		return
	}
	if !live {
		return
	}

	record := &models.TaskAudit{
		TaskID:      taskID,
		OperatorID:  op.ActorID,
		Action:      op.Action,
		Description: describe(op, opErr),
	}
	if err := store.Audits.Create(record); err != nil {
		log.WithError(err).WithField("task_id", taskID).Warn("failed to write audit record")
	}
}

func describe(op Op, opErr error) string {
	desc := op.Description
	if desc == "" {
		desc = string(op.Action)
	}
	if opErr == nil {
		return desc
	}
	if kind, ok := apierrors.KindOf(opErr); ok {
		return fmt.Sprintf("%s - ERROR: %s", desc, kind)
	}
	return fmt.Sprintf("%s - ERROR: %T", desc, opErr)
}
