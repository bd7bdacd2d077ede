package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger, clock aggregates.Clock) repos.Repos {
	log.Info("Wiring repos...")
	return repos.New(db, log, clock)
}
