// Package session drives assessment sessions: lock, load, transition, version-checked save.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/selector"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
	"github.com/yungbote/neurobridge-assessment/internal/platform/retry"
)

const (
	DefaultMaxRetries     = 3
	DefaultPersistTimeout = 2 * time.Second
	DefaultRetryBackoff   = 25 * time.Millisecond
)

type StartInput struct {
	StudentID string
	Topic     string
	// Concept overrides the concept derived from Topic.
	Concept string
}

type StartResult struct {
	SessionID         string
	ActiveConcept     string
	InitialDifficulty float64
}

type NextResult struct {
	SessionID string
	Completed bool
	Reason    string
	Question  *types.QuestionView
	Decision  *policy.Decision
}

type SubmitInput struct {
	SessionID        string
	QuestionID       string
	SelectedAnswer   string
	TimeTakenSeconds float64
}

type SubmitResult struct {
	IsCorrect     bool
	CorrectAnswer string
	Explanation   string
	MasteryUpdate map[string]float64
}

type Result struct {
	SessionID        string
	TotalQuestions   int
	CorrectAnswers   int
	FinalMastery     map[string]float64
	FinalScore       float64
	CompletionReason string
	Message          string
}

type StudentMastery struct {
	StudentID      string
	SessionID      string
	ConceptMastery map[string]float64
}

type TeacherStats struct {
	// AvgMastery is a percentage averaged over each student's latest session.
	AvgMastery    float64
	TotalStudents int
}

type Service interface {
	Start(ctx context.Context, in StartInput) (*StartResult, error)
	NextQuestion(ctx context.Context, sessionID string) (*NextResult, error)
	SubmitAnswer(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Result(ctx context.Context, sessionID string) (*Result, error)
	StudentMastery(ctx context.Context, studentID string) (*StudentMastery, error)
	TeacherStats(ctx context.Context) (*TeacherStats, error)
}

type Config struct {
	MaxRetries     int
	PersistTimeout time.Duration
	RetryBackoff   time.Duration
}

type Deps struct {
	Log      *logger.Logger
	Repo     Repository
	Machine  *Machine
	Locker   Locker
	Recorder Recorder
	// NewRand returns the random source for one request.
	NewRand func() selector.Rand
	Now     func() time.Time
	NewID   func() string
	Config  Config
}

type service struct {
	log     *logger.Logger
	repo    Repository
	machine *Machine
	locker  Locker
	rec     Recorder
	newRand func() selector.Rand
	now     func() time.Time
	newID   func() string
	cfg     Config
	tracer  trace.Tracer
}

func NewService(d Deps) Service {
	if d.Locker == nil {
		d.Locker = NewKeyedMutex()
	}
	if d.Recorder == nil {
		d.Recorder = noopRecorder{}
	}
	if d.NewRand == nil {
		d.NewRand = selector.NewRand
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = func() string { return uuid.NewString() }
	}
	if d.Config.MaxRetries < 0 {
		d.Config.MaxRetries = 0
	}
	if d.Config.PersistTimeout <= 0 {
		d.Config.PersistTimeout = DefaultPersistTimeout
	}
	if d.Config.RetryBackoff <= 0 {
		d.Config.RetryBackoff = DefaultRetryBackoff
	}
	return &service{
		log:     d.Log.With("service", "AssessmentSessionService"),
		repo:    d.Repo,
		machine: d.Machine,
		locker:  d.Locker,
		rec:     d.Recorder,
		newRand: d.NewRand,
		now:     d.Now,
		newID:   d.NewID,
		cfg:     d.Config,
		tracer:  otel.Tracer("github.com/yungbote/neurobridge-assessment/session"),
	}
}

func (s *service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	const op = "session.Start"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	studentID := strings.TrimSpace(in.StudentID)
	topic := strings.TrimSpace(in.Topic)
	if studentID == "" {
		return nil, endSpan(span, types.Validation(op, "studentId is required"))
	}
	if topic == "" && strings.TrimSpace(in.Concept) == "" {
		return nil, endSpan(span, types.Validation(op, "topic is required"))
	}

	sess, decision := s.machine.New(s.newID(), studentID, topic, in.Concept, s.now())
	span.SetAttributes(attribute.String("assessment.session_id", sess.ID), attribute.String("assessment.concept", sess.ActiveConcept))

	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	if err := s.repo.Create(pctx, sess); err != nil {
		s.log.Error("create session failed", "student_id", studentID, "error", err)
		return nil, endSpan(span, err)
	}
	s.rec.IncSessionStarted()
	s.log.Info("session started", "session_id", sess.ID, "student_id", studentID, "concept", sess.ActiveConcept)

	initial := decision.TargetDifficulty
	if decision.Action == policy.ActionStop {
		initial = 0
	}
	return &StartResult{SessionID: sess.ID, ActiveConcept: sess.ActiveConcept, InitialDifficulty: initial}, nil
}

func (s *service) NextQuestion(ctx context.Context, sessionID string) (*NextResult, error) {
	const op = "session.NextQuestion"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("assessment.session_id", sessionID)))
	defer span.End()

	rnd := s.newRand()
	var out NextOutcome
	_, err := s.mutate(ctx, op, sessionID, func(sess *types.Session) (bool, error) {
		var err error
		out, err = s.machine.NextQuestion(ctx, sess, rnd, s.now())
		return out.Changed, err
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	res := &NextResult{SessionID: sessionID, Completed: out.Completed, Reason: out.Reason, Decision: out.Decision}
	if out.Question != nil {
		v := out.Question.View()
		res.Question = &v
	}
	if out.Changed {
		switch {
		case out.Completed:
			s.rec.IncCompletion(completionKind(out.Reason))
			s.log.Info("session completed", "session_id", sessionID, "reason", out.Reason)
		case out.Decision != nil:
			s.rec.IncQuestionIssued(string(out.Decision.Action))
			s.log.Debug("question issued",
				"session_id", sessionID,
				"question_id", out.Question.ID,
				"action", out.Decision.Action,
				"target_difficulty", out.Decision.TargetDifficulty,
				"reason", out.Decision.Reason,
			)
		}
	}
	return res, nil
}

func (s *service) SubmitAnswer(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	const op = "session.SubmitAnswer"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("assessment.session_id", in.SessionID)))
	defer span.End()

	if strings.TrimSpace(in.QuestionID) == "" {
		return nil, endSpan(span, types.Validation(op, "questionId is required"))
	}

	var out SubmitOutcome
	// saved is set once a save has been attempted; a retry after an ambiguous failure
	// may find the answer already stored.
	saved := false
	_, err := s.mutate(ctx, op, in.SessionID, func(sess *types.Session) (bool, error) {
		if saved {
			if prev, ok := s.machine.RecordedSubmit(sess, in.QuestionID, in.SelectedAnswer, out); ok {
				s.log.Warn("answer already recorded", "session_id", in.SessionID, "question_id", in.QuestionID)
				out = prev
				return false, nil
			}
		}
		var err error
		out, err = s.machine.Submit(sess, in.QuestionID, in.SelectedAnswer, in.TimeTakenSeconds, s.now())
		saved = err == nil
		return saved, err
	})
	if err != nil {
		return nil, endSpan(span, err)
	}
	s.rec.IncAnswer(out.IsCorrect)
	s.log.Debug("answer recorded", "session_id", in.SessionID, "question_id", in.QuestionID, "correct", out.IsCorrect)
	return &SubmitResult{
		IsCorrect:     out.IsCorrect,
		CorrectAnswer: out.CorrectAnswer,
		Explanation:   out.Explanation,
		MasteryUpdate: out.MasteryUpdate,
	}, nil
}

func (s *service) Result(ctx context.Context, sessionID string) (*Result, error) {
	const op = "session.Result"
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("assessment.session_id", sessionID)))
	defer span.End()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	if !sess.IsCompleted {
		return nil, endSpan(span, types.SessionInProgress(op, sessionID))
	}
	score := s.machine.FinalScore(sess)
	if sess.FinalScore != nil {
		score = *sess.FinalScore
	}
	return &Result{
		SessionID:        sess.ID,
		TotalQuestions:   len(sess.History),
		CorrectAnswers:   sess.CorrectAnswers(),
		FinalMastery:     sess.Mastery.Snapshot(),
		FinalScore:       score,
		CompletionReason: sess.CompletionReason,
		Message:          "Assessment Completed",
	}, nil
}

func (s *service) StudentMastery(ctx context.Context, studentID string) (*StudentMastery, error) {
	const op = "session.StudentMastery"
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, types.Validation(op, "studentId is required")
	}
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	sess, err := s.repo.LatestForStudent(pctx, studentID)
	if err != nil {
		if types.IsCode(err, types.CodeSessionNotFound) {
			return &StudentMastery{StudentID: studentID, ConceptMastery: map[string]float64{}}, nil
		}
		return nil, err
	}
	return &StudentMastery{StudentID: studentID, SessionID: sess.ID, ConceptMastery: sess.Mastery.Snapshot()}, nil
}

func (s *service) TeacherStats(ctx context.Context) (*TeacherStats, error) {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	latest, err := s.repo.ListLatestPerStudent(pctx)
	if err != nil {
		return nil, err
	}
	var total float64
	n := 0
	for _, sess := range latest {
		avg, ok := sess.Mastery.Average()
		if !ok {
			continue
		}
		total += avg
		n++
	}
	if n == 0 {
		return &TeacherStats{}, nil
	}
	return &TeacherStats{AvgMastery: total / float64(n) * 100, TotalStudents: n}, nil
}

// mutate runs fn against a fresh copy of the stored session under the session lock and
// saves the copy when fn reports a change. Conflicts and unavailability re-run the whole
// attempt from a fresh load, so fn must derive everything from the session it is given.
func (s *service) mutate(ctx context.Context, op, id string, fn func(*types.Session) (bool, error)) (*types.Session, error) {
	for attempt := 0; ; attempt++ {
		sess, err := s.attempt(ctx, op, id, fn)
		if err == nil {
			return sess, nil
		}
		if !types.Retryable(err) || attempt >= s.cfg.MaxRetries {
			if types.Retryable(err) {
				s.log.Warn("persist retries exhausted", "op", op, "session_id", id, "attempts", attempt+1, "error", err)
			}
			return nil, err
		}
		s.rec.IncPersistRetry(op)
		wait := retry.Linear(s.cfg.RetryBackoff, attempt, time.Second)
		s.log.Debug("retrying session write", "op", op, "session_id", id, "attempt", attempt+1, "wait", wait, "error", err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, types.PersistenceUnavailable(op, ctx.Err())
		case <-t.C:
		}
	}
}

func (s *service) attempt(ctx context.Context, op, id string, fn func(*types.Session) (bool, error)) (*types.Session, error) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	unlock, err := s.locker.Lock(lctx, id)
	cancel()
	if err != nil {
		if types.CodeOf(err) != "" {
			return nil, err
		}
		return nil, types.PersistenceUnavailable(op, err)
	}
	defer unlock()

	stored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	work := stored.Clone()
	changed, err := fn(work)
	if err != nil || !changed {
		return work, err
	}
	if err := work.CheckInvariants(); err != nil {
		return nil, types.NewError(types.CodeInternal, op, "transition broke session invariants", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer pcancel()
	if err := s.repo.Save(pctx, work, stored.Version); err != nil {
		return nil, err
	}
	return work, nil
}

func (s *service) load(ctx context.Context, id string) (*types.Session, error) {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()
	return s.repo.Load(pctx, id)
}

func completionKind(reason string) string {
	switch {
	case strings.HasPrefix(reason, policy.ReasonMasteryAchieved):
		return "mastery_achieved"
	case reason == ReasonNoEligibleQuestion:
		return "no_eligible_question"
	case reason == ReasonQuestionLimit:
		return "question_limit"
	default:
		return "other"
	}
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.CodeOf(err)))
	}
	return err
}
