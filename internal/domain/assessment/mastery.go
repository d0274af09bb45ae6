package assessment

import "time"

// MasteryState maps concept -> P(mastered). A missing concept means "use the model's prior",
// never zero.
type MasteryState struct {
	StudentID      string             `json:"student_id" bson:"student_id"`
	ConceptMastery map[string]float64 `json:"concept_mastery" bson:"concept_mastery"`
	LastUpdated    time.Time          `json:"last_updated" bson:"last_updated"`
}

func NewMasteryState(studentID string, now time.Time) MasteryState {
	return MasteryState{
		StudentID:      studentID,
		ConceptMastery: map[string]float64{},
		LastUpdated:    now.UTC(),
	}
}

func (m MasteryState) Lookup(concept string) (float64, bool) {
	p, ok := m.ConceptMastery[concept]
	return p, ok
}

// Snapshot returns a copy of the concept map that callers may keep.
func (m MasteryState) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(m.ConceptMastery))
	for k, v := range m.ConceptMastery {
		out[k] = v
	}
	return out
}

func (m MasteryState) Clone() MasteryState {
	out := m
	out.ConceptMastery = m.Snapshot()
	return out
}

// Average is the mean over tracked concepts; ok is false when nothing is tracked.
func (m MasteryState) Average() (avg float64, ok bool) {
	if len(m.ConceptMastery) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range m.ConceptMastery {
		sum += v
	}
	return sum / float64(len(m.ConceptMastery)), true
}

type StudentResponse struct {
	QuestionID       string    `json:"question_id" bson:"question_id"`
	SelectedAnswer   string    `json:"selected_answer" bson:"selected_answer"`
	IsCorrect        bool      `json:"is_correct" bson:"is_correct"`
	TimeTakenSeconds float64   `json:"time_taken_seconds" bson:"time_taken_seconds"`
	AnsweredAt       time.Time `json:"answered_at" bson:"answered_at"`
}
