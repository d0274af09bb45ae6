package assessment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type QuestionRepo interface {
	Upsert(dbc dbctx.Context, rows []*types.QuestionRecord) error
	ListByConcepts(dbc dbctx.Context, concepts []string) ([]*types.QuestionRecord, error)
	ListAll(dbc dbctx.Context) ([]*types.QuestionRecord, error)
	Count(dbc dbctx.Context) (int64, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{
		db:  db,
		log: baseLog.With("repo", "QuestionRepo"),
	}
}

// Upsert writes the questions and rebuilds their concept index rows in one transaction.
func (r *questionRepo) Upsert(dbc dbctx.Context, rows []*types.QuestionRecord) error {
	if len(rows) == 0 {
		return nil
	}
	if dbc.Tx != nil {
		return r.upsert(dbc.Tx.WithContext(dbc.Ctx), rows)
	}
	return r.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return r.upsert(tx, rows)
	})
}

func (r *questionRepo) upsert(tx *gorm.DB, rows []*types.QuestionRecord) error {
	now := time.Now().UTC()
	ids := make([]string, 0, len(rows))
	links := make([]*types.QuestionConcept, 0, len(rows)*2)
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		ids = append(ids, row.ID)
		for _, c := range row.Concepts {
			links = append(links, &types.QuestionConcept{QuestionID: row.ID, Concept: c})
		}
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "options", "correct_answer", "explanation", "concepts",
			"difficulty", "discrimination", "guessing", "blooms_level", "format",
			"position", "updated_at",
		}),
	}).Create(&rows).Error; err != nil {
		return err
	}
	if err := tx.Where("question_id IN ?", ids).Delete(&types.QuestionConcept{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *questionRepo) ListByConcepts(dbc dbctx.Context, concepts []string) ([]*types.QuestionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.QuestionRecord{}
	norm := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c = types.NormalizeConcept(c); c != "" {
			norm = append(norm, c)
		}
	}
	if len(norm) == 0 {
		return out, nil
	}
	sub := transaction.Session(&gorm.Session{NewDB: true}).
		Model(&types.QuestionConcept{}).
		Select("question_id").
		Where("concept IN ?", norm)
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN (?)", sub).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) ListAll(dbc dbctx.Context) ([]*types.QuestionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.QuestionRecord{}
	if err := transaction.WithContext(dbc.Ctx).
		Order("position ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.QuestionRecord{}).Count(&n).Error
	return n, err
}
