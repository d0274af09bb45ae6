package session

import (
	"context"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

// Repository persists sessions with optimistic concurrency.
//
// Save writes s only if the stored version still equals expectedVersion and then sets
// s.Version to expectedVersion+1. A stale version yields persistence_conflict and leaves
// the stored session untouched. Load of an unknown id yields session_not_found.
type Repository interface {
	Create(ctx context.Context, s *types.Session) error
	Load(ctx context.Context, id string) (*types.Session, error)
	Save(ctx context.Context, s *types.Session, expectedVersion int) error
	LatestForStudent(ctx context.Context, studentID string) (*types.Session, error)
	ListLatestPerStudent(ctx context.Context) ([]*types.Session, error)
}

// Recorder receives assessment-level events for metrics.
type Recorder interface {
	IncSessionStarted()
	IncQuestionIssued(action string)
	IncAnswer(correct bool)
	IncCompletion(reason string)
	IncPersistRetry(op string)
}

type noopRecorder struct{}

func (noopRecorder) IncSessionStarted()       {}
func (noopRecorder) IncQuestionIssued(string) {}
func (noopRecorder) IncAnswer(bool)           {}
func (noopRecorder) IncCompletion(string)     {}
func (noopRecorder) IncPersistRetry(string)   {}
