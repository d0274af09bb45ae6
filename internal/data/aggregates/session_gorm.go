package aggregates

import (
	"context"
	"time"

	repoassessment "github.com/yungbote/neurobridge-assessment/internal/data/repos/assessment"
	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
)

const sessionTable = "assessment_session"

type SessionStoreDeps struct {
	Base     BaseDeps
	Sessions repoassessment.SessionRepo
}

// SessionStore is the relational session.Repository.
type SessionStore struct {
	deps SessionStoreDeps
}

func NewSessionStore(deps SessionStoreDeps) *SessionStore {
	deps.Base = deps.Base.withDefaults()
	return &SessionStore{deps: deps}
}

func (s *SessionStore) Create(ctx context.Context, sess *types.Session) error {
	const op = "assessment.session.create"
	if sess == nil || sess.ID == "" {
		return MapError(op, ValidationError("session id is required"))
	}
	return executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		return s.deps.Sessions.Create(dbc, types.NewSessionRecord(sess))
	})
}

func (s *SessionStore) Load(ctx context.Context, id string) (*types.Session, error) {
	const op = "assessment.session.load"
	var out *types.Session
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := s.deps.Sessions.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if row == nil {
			return types.SessionNotFound(op, id)
		}
		out = row.ToSession()
		return nil
	})
	return out, err
}

// Save replaces the row only if its version still equals expectedVersion.
func (s *SessionStore) Save(ctx context.Context, sess *types.Session, expectedVersion int) error {
	const op = "assessment.session.save"
	if sess == nil || sess.ID == "" {
		return MapError(op, ValidationError("session id is required"))
	}
	rec := types.NewSessionRecord(sess)
	next := expectedVersion + 1
	updates := map[string]any{
		"active_concept":    rec.ActiveConcept,
		"mastery":           rec.Mastery,
		"history":           rec.History,
		"seen_question_ids": rec.SeenQuestionIDs,
		"current_question":  rec.CurrentQuestion,
		"is_completed":      rec.IsCompleted,
		"completion_reason": rec.CompletionReason,
		"end_time":          rec.EndTime,
		"final_score":       rec.FinalScore,
		"version":           next,
		"updated_at":        time.Now().UTC(),
	}
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := s.deps.Base.CASGuard.UpdateByVersion(dbc, sessionTable, sess.ID, expectedVersion, updates)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		row, err := s.deps.Sessions.GetByID(dbc, sess.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return types.SessionNotFound(op, sess.ID)
		}
		return RequireCASSuccess(false, "session version changed since load")
	})
	if err != nil {
		return err
	}
	sess.Version = next
	return nil
}

func (s *SessionStore) LatestForStudent(ctx context.Context, studentID string) (*types.Session, error) {
	const op = "assessment.session.latest"
	var out *types.Session
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := s.deps.Sessions.LatestForStudent(dbc, studentID)
		if err != nil {
			return err
		}
		if row == nil {
			return NotFoundError("no session for student")
		}
		out = row.ToSession()
		return nil
	})
	return out, err
}

func (s *SessionStore) ListLatestPerStudent(ctx context.Context) ([]*types.Session, error) {
	const op = "assessment.session.list_latest"
	var out []*types.Session
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := s.deps.Sessions.ListLatestPerStudent(dbc)
		if err != nil {
			return err
		}
		out = make([]*types.Session, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.ToSession())
		}
		return nil
	})
	return out, err
}
