package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/data/models"
)

// AutoMigrateAll creates or updates the tables and the indexes gorm tags cannot express.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

func EnsureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee_status ON tasks(assignee_id, status)`,
	}
	if db.Dialector.Name() == DriverPostgres {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_projects_members_gin ON projects USING GIN (members)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_tags_gin ON tasks USING GIN (tags)`,
		)
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
