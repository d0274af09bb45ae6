package assessment

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusCreated        Status = "created"
	StatusAwaitingNext   Status = "awaiting_next"
	StatusAwaitingAnswer Status = "awaiting_answer"
	StatusCompleted      Status = "completed"
)

// Session is one bounded attempt at assessing a student on a topic.
// Version is bumped by the store on every successful save.
type Session struct {
	ID               string            `json:"id" bson:"_id"`
	StudentID        string            `json:"student_id" bson:"student_id"`
	Topic            string            `json:"topic" bson:"topic"`
	ActiveConcept    string            `json:"active_concept" bson:"active_concept"`
	Mastery          MasteryState      `json:"mastery" bson:"mastery"`
	History          []StudentResponse `json:"history" bson:"history"`
	SeenQuestionIDs  []string          `json:"seen_question_ids" bson:"seen_question_ids"`
	CurrentQuestion  *Question         `json:"current_question,omitempty" bson:"current_question,omitempty"`
	IsCompleted      bool              `json:"is_completed" bson:"is_completed"`
	CompletionReason string            `json:"completion_reason,omitempty" bson:"completion_reason,omitempty"`
	StartTime        time.Time         `json:"start_time" bson:"start_time"`
	EndTime          *time.Time        `json:"end_time,omitempty" bson:"end_time,omitempty"`
	FinalScore       *float64          `json:"final_score,omitempty" bson:"final_score,omitempty"`
	Version          int               `json:"version" bson:"version"`
}

// Status is derived from the stored fields so it can never disagree with them.
func (s *Session) Status() Status {
	switch {
	case s.IsCompleted:
		return StatusCompleted
	case s.CurrentQuestion != nil:
		return StatusAwaitingAnswer
	case len(s.SeenQuestionIDs) == 0:
		return StatusCreated
	default:
		return StatusAwaitingNext
	}
}

func (s *Session) HasSeen(questionID string) bool {
	for _, id := range s.SeenQuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

func (s *Session) SeenSet() map[string]struct{} {
	out := make(map[string]struct{}, len(s.SeenQuestionIDs))
	for _, id := range s.SeenQuestionIDs {
		out[id] = struct{}{}
	}
	return out
}

func (s *Session) CorrectAnswers() int {
	n := 0
	for _, r := range s.History {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Mastery = s.Mastery.Clone()
	out.History = append([]StudentResponse(nil), s.History...)
	out.SeenQuestionIDs = append([]string(nil), s.SeenQuestionIDs...)
	if s.CurrentQuestion != nil {
		q := s.CurrentQuestion.Clone()
		out.CurrentQuestion = &q
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.FinalScore != nil {
		f := *s.FinalScore
		out.FinalScore = &f
	}
	return &out
}

// CheckInvariants validates the structural rules every persisted session must satisfy.
func (s *Session) CheckInvariants() error {
	if s.IsCompleted && s.CurrentQuestion != nil {
		return fmt.Errorf("completed session %q still has a current question", s.ID)
	}
	if (s.FinalScore != nil) != s.IsCompleted {
		return fmt.Errorf("session %q: final score must be set iff completed", s.ID)
	}
	seen := make(map[string]struct{}, len(s.SeenQuestionIDs))
	for _, id := range s.SeenQuestionIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("session %q: question %q seen twice", s.ID, id)
		}
		seen[id] = struct{}{}
	}
	for _, r := range s.History {
		if _, ok := seen[r.QuestionID]; !ok {
			return fmt.Errorf("session %q: answered question %q was never issued", s.ID, r.QuestionID)
		}
	}
	if s.CurrentQuestion != nil {
		if _, ok := seen[s.CurrentQuestion.ID]; !ok {
			return fmt.Errorf("session %q: current question %q missing from seen set", s.ID, s.CurrentQuestion.ID)
		}
	}
	for c, p := range s.Mastery.ConceptMastery {
		if p < 0 || p > 1 {
			return fmt.Errorf("session %q: mastery for %q out of range: %v", s.ID, c, p)
		}
	}
	return nil
}
