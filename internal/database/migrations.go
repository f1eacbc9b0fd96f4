package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type compositeIndex struct {
	table   string
	name    string
	columns []string
}

// Membership lookups always filter on (scope, user) and task lookups on (task, user).
var compositeIndexes = []compositeIndex{
	{"team_members", "idx_team_members_team_user", []string{"team_id", "user_id"}},
	{"group_members", "idx_group_members_group_user", []string{"task_group_id", "user_id"}},
	{"task_assistants", "idx_task_assistants_task_user", []string{"task_id", "user_id"}},
	{"child_tasks", "idx_child_tasks_task_assignee", []string{"task_id", "assignee_id"}},
	{"task_audits", "idx_task_audits_task_created", []string{"task_id", "created_at"}},
}

// AddIndexes adds the composite indexes AutoMigrate cannot derive from single-column tags.
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{"index": idx.name, "table": idx.table}).Info("created index")
	}

	return nil
}
