package session

import (
	"context"
	"math"
	"time"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/catalog"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/selector"
)

const (
	ReasonNoEligibleQuestion = "no eligible question"
	ReasonQuestionLimit      = "question limit reached"
)

// Machine holds the pure session transitions. It mutates the *Session it is given;
// callers pass a clone and persist it only when the transition succeeds.
type Machine struct {
	mastery      *mastery.Engine
	policy       *policy.Engine
	selector     *selector.Selector
	catalog      catalog.Catalog
	maxQuestions int
}

func NewMachine(m *mastery.Engine, p *policy.Engine, sel *selector.Selector, cat catalog.Catalog, maxQuestions int) *Machine {
	if maxQuestions < 0 {
		maxQuestions = 0
	}
	return &Machine{mastery: m, policy: p, selector: sel, catalog: cat, maxQuestions: maxQuestions}
}

// NextOutcome is what a next-question request resolved to.
type NextOutcome struct {
	Question  *types.Question
	Decision  *policy.Decision
	Completed bool
	Reason    string
	// Changed is false when the call had no side effects (already completed, or a question is outstanding).
	Changed bool
}

type SubmitOutcome struct {
	IsCorrect     bool
	CorrectAnswer string
	Explanation   string
	MasteryUpdate map[string]float64
}

// New builds a fresh session. The mastery state starts empty so every concept reads pInit.
func (m *Machine) New(id, studentID, topic, concept string, now time.Time) (*types.Session, policy.Decision) {
	concept = types.NormalizeConcept(concept)
	if concept == "" {
		concept = types.NormalizeConcept(topic)
	}
	s := &types.Session{
		ID:              id,
		StudentID:       studentID,
		Topic:           topic,
		ActiveConcept:   concept,
		Mastery:         types.NewMasteryState(studentID, now),
		History:         []types.StudentResponse{},
		SeenQuestionIDs: []string{},
		StartTime:       now,
	}
	return s, m.policy.Decide(s.Mastery, s.History, s.ActiveConcept)
}

func (m *Machine) NextQuestion(ctx context.Context, s *types.Session, rnd selector.Rand, now time.Time) (NextOutcome, error) {
	const op = "session.NextQuestion"
	if s.IsCompleted {
		return NextOutcome{Completed: true, Reason: s.CompletionReason}, nil
	}
	if s.CurrentQuestion != nil {
		q := s.CurrentQuestion.Clone()
		return NextOutcome{Question: &q}, nil
	}
	decision := m.policy.Decide(s.Mastery, s.History, s.ActiveConcept)
	if decision.Action == policy.ActionStop {
		m.complete(s, decision.Reason, now)
		return NextOutcome{Decision: &decision, Completed: true, Reason: decision.Reason, Changed: true}, nil
	}
	if m.maxQuestions > 0 && len(s.SeenQuestionIDs) >= m.maxQuestions {
		m.complete(s, ReasonQuestionLimit, now)
		return NextOutcome{Completed: true, Reason: ReasonQuestionLimit, Changed: true}, nil
	}

	candidates, err := m.catalog.ListByConcepts(ctx, decision.TargetConcepts)
	if err != nil {
		if types.CodeOf(err) != "" {
			return NextOutcome{}, err
		}
		return NextOutcome{}, types.PersistenceUnavailable(op, err)
	}
	q := m.selector.Select(decision, s.SeenSet(), candidates, rnd)
	if q == nil {
		m.complete(s, ReasonNoEligibleQuestion, now)
		return NextOutcome{Decision: &decision, Completed: true, Reason: ReasonNoEligibleQuestion, Changed: true}, nil
	}

	s.CurrentQuestion = q
	s.SeenQuestionIDs = append(s.SeenQuestionIDs, q.ID)
	out := q.Clone()
	return NextOutcome{Question: &out, Decision: &decision, Changed: true}, nil
}

func (m *Machine) Submit(s *types.Session, questionID, selected string, timeTaken float64, now time.Time) (SubmitOutcome, error) {
	const op = "session.SubmitAnswer"
	if s.IsCompleted {
		return SubmitOutcome{}, types.SessionCompleted(op, s.ID)
	}
	if s.CurrentQuestion == nil {
		return SubmitOutcome{}, types.NoActiveQuestion(op, s.ID)
	}
	q := s.CurrentQuestion
	if q.ID != questionID {
		return SubmitOutcome{}, types.QuestionMismatch(op, q.ID, questionID)
	}
	if timeTaken < 0 || math.IsNaN(timeTaken) {
		timeTaken = 0
	}

	correct := q.Grade(selected)
	s.Mastery = m.mastery.Update(s.Mastery, q.Metadata.Concepts, correct, now)
	s.History = append(s.History, types.StudentResponse{
		QuestionID:       q.ID,
		SelectedAnswer:   selected,
		IsCorrect:        correct,
		TimeTakenSeconds: timeTaken,
		AnsweredAt:       now,
	})
	s.CurrentQuestion = nil

	update := make(map[string]float64, len(q.Metadata.Concepts))
	for _, c := range q.Metadata.Concepts {
		update[c] = m.mastery.Probability(s.Mastery, c)
	}
	return SubmitOutcome{
		IsCorrect:     correct,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		MasteryUpdate: update,
	}, nil
}

// RecordedSubmit reports whether s already holds the answer described by prev, which happens when
// a save committed but its acknowledgement was lost. The returned outcome reads mastery from s.
func (m *Machine) RecordedSubmit(s *types.Session, questionID, selected string, prev SubmitOutcome) (SubmitOutcome, bool) {
	n := len(s.History)
	if n == 0 {
		return SubmitOutcome{}, false
	}
	last := s.History[n-1]
	if last.QuestionID != questionID || last.SelectedAnswer != selected {
		return SubmitOutcome{}, false
	}
	if s.CurrentQuestion != nil && s.CurrentQuestion.ID == questionID {
		return SubmitOutcome{}, false
	}
	out := prev
	out.IsCorrect = last.IsCorrect
	out.MasteryUpdate = make(map[string]float64, len(prev.MasteryUpdate))
	for c := range prev.MasteryUpdate {
		out.MasteryUpdate[c] = m.mastery.Probability(s.Mastery, c)
	}
	return out, true
}

// FinalScore is the active concept's mastery as a percentage with one decimal.
func (m *Machine) FinalScore(s *types.Session) float64 {
	p := m.mastery.Probability(s.Mastery, s.ActiveConcept)
	return math.Round(p*1000) / 10
}

func (m *Machine) complete(s *types.Session, reason string, now time.Time) {
	end := now
	score := m.FinalScore(s)
	s.IsCompleted = true
	s.CompletionReason = reason
	s.CurrentQuestion = nil
	s.EndTime = &end
	s.FinalScore = &score
}
