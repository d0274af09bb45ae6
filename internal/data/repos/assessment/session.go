package assessment

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// SessionRepo is row-level access to assessment_session. Version-checked writes live in
// data/aggregates; this repo only inserts and reads.
type SessionRepo interface {
	Create(dbc dbctx.Context, row *types.SessionRecord) error
	GetByID(dbc dbctx.Context, id string) (*types.SessionRecord, error)
	LatestForStudent(dbc dbctx.Context, studentID string) (*types.SessionRecord, error)
	ListLatestPerStudent(dbc dbctx.Context) ([]*types.SessionRecord, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "SessionRepo"),
	}
}

func (r *sessionRepo) Create(dbc dbctx.Context, row *types.SessionRecord) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || strings.TrimSpace(row.ID) == "" {
		return errors.New("session row requires an id")
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

// GetByID returns nil, nil when the session does not exist.
func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*types.SessionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var rows []*types.SessionRecord
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LatestForStudent returns nil, nil when the student has no sessions.
func (r *sessionRepo) LatestForStudent(dbc dbctx.Context, studentID string) (*types.SessionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, nil
	}
	var rows []*types.SessionRecord
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("start_time DESC, id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sessionRepo) ListLatestPerStudent(dbc dbctx.Context) ([]*types.SessionRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SessionRecord
	err := transaction.WithContext(dbc.Ctx).Raw(`
		SELECT s.* FROM assessment_session s
		WHERE s.start_time = (
			SELECT MAX(s2.start_time) FROM assessment_session s2 WHERE s2.student_id = s.student_id
		)
		ORDER BY s.student_id ASC, s.id DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*types.SessionRecord, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.StudentID]; dup {
			continue
		}
		seen[row.StudentID] = struct{}{}
		out = append(out, row)
	}
	return out, nil
}
