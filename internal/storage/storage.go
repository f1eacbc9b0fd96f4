package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Remover deletes stored attachment objects. Implementations must treat a
// missing object as success so that retried cascades stay idempotent.
type Remover interface {
	Remove(ctx context.Context, objectRef string) error
}

// NopRemover is used when no object store is configured.
type NopRemover struct{}

func (NopRemover) Remove(context.Context, string) error {
	return nil
}

// AttachmentKey builds the object key for a new attachment of taskID.
func AttachmentKey(taskID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("tasks/%s/attachments/%s%s", taskID, uuid.NewString(), ext)
}
