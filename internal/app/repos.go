package app

import (
	"gorm.io/gorm"

	repoassessment "github.com/yungbote/neurobridge-assessment/internal/data/repos/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// Repos are nil when no relational database is configured.
type Repos struct {
	Sessions  repoassessment.SessionRepo
	Questions repoassessment.QuestionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	if db == nil {
		return Repos{}
	}
	log.Info("Wiring repos...")
	return Repos{
		Sessions:  repoassessment.NewSessionRepo(db, log),
		Questions: repoassessment.NewQuestionRepo(db, log),
	}
}
