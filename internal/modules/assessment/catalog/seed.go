package catalog

import (
	"context"
	"fmt"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
)

type QuestionWriter interface {
	Upsert(dbc dbctx.Context, rows []*types.QuestionRecord) error
}

// Seed validates questions and upserts them in the given order, which becomes
// their catalog position.
func Seed(ctx context.Context, w QuestionWriter, questions []types.Question) (int, error) {
	static, err := NewStatic(questions)
	if err != nil {
		return 0, err
	}
	all := static.All()
	rows := make([]*types.QuestionRecord, 0, len(all))
	for i, q := range all {
		rows = append(rows, types.NewQuestionRecord(q, i))
	}
	if err := w.Upsert(dbctx.Context{Ctx: ctx}, rows); err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return len(rows), nil
}
