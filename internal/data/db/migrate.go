package db

import (
	"fmt"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.SessionRecord{},
		&types.QuestionRecord{},
		&types.QuestionConcept{},
	)
}

// EnsureAssessmentIndexes adds indexes gorm tags cannot express. Both statements are valid on Postgres and SQLite.
func EnsureAssessmentIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assessment_session_open
		ON assessment_session (student_id)
		WHERE is_completed = false;
	`).Error; err != nil {
		return fmt.Errorf("create idx_assessment_session_open: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assessment_question_concept_lookup
		ON assessment_question_concept (concept, question_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_assessment_question_concept_lookup: %w", err)
	}

	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating assessment tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureAssessmentIndexes(s.db); err != nil {
		s.log.Error("Assessment index migration failed", "error", err)
		return err
	}
	return nil
}
