package assessment

import (
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is the relational row for a Session. JSON columns hold the
// nested mastery map, history and current question.
type SessionRecord struct {
	ID               string                               `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	StudentID        string                               `gorm:"column:student_id;type:varchar(128);not null;index:idx_assessment_session_student,priority:1" json:"student_id"`
	Topic            string                               `gorm:"column:topic;type:varchar(256);not null" json:"topic"`
	ActiveConcept    string                               `gorm:"column:active_concept;type:varchar(256);not null" json:"active_concept"`
	Mastery          datatypes.JSONType[MasteryState]     `gorm:"column:mastery;not null" json:"mastery"`
	History          datatypes.JSONSlice[StudentResponse] `gorm:"column:history;not null" json:"history"`
	SeenQuestionIDs  datatypes.JSONSlice[string]          `gorm:"column:seen_question_ids;not null" json:"seen_question_ids"`
	CurrentQuestion  datatypes.JSONType[*Question]        `gorm:"column:current_question;not null" json:"current_question"`
	IsCompleted      bool                                 `gorm:"column:is_completed;not null;default:false;index" json:"is_completed"`
	CompletionReason string                               `gorm:"column:completion_reason;type:varchar(512)" json:"completion_reason,omitempty"`
	StartTime        time.Time                            `gorm:"column:start_time;not null;index:idx_assessment_session_student,priority:2" json:"start_time"`
	EndTime          *time.Time                           `gorm:"column:end_time" json:"end_time,omitempty"`
	FinalScore       *float64                             `gorm:"column:final_score" json:"final_score,omitempty"`
	Version          int                                  `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt        time.Time                            `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                            `gorm:"not null" json:"updated_at"`
}

func (SessionRecord) TableName() string { return "assessment_session" }

func NewSessionRecord(s *Session) *SessionRecord {
	history := s.History
	if history == nil {
		history = []StudentResponse{}
	}
	seen := s.SeenQuestionIDs
	if seen == nil {
		seen = []string{}
	}
	mastery := s.Mastery.Clone()
	return &SessionRecord{
		ID:               s.ID,
		StudentID:        s.StudentID,
		Topic:            s.Topic,
		ActiveConcept:    s.ActiveConcept,
		Mastery:          datatypes.NewJSONType(mastery),
		History:          datatypes.NewJSONSlice(history),
		SeenQuestionIDs:  datatypes.NewJSONSlice(seen),
		CurrentQuestion:  datatypes.NewJSONType(s.CurrentQuestion),
		IsCompleted:      s.IsCompleted,
		CompletionReason: s.CompletionReason,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		FinalScore:       s.FinalScore,
		Version:          s.Version,
	}
}

func (r *SessionRecord) ToSession() *Session {
	mastery := r.Mastery.Data()
	if mastery.ConceptMastery == nil {
		mastery.ConceptMastery = map[string]float64{}
	}
	s := &Session{
		ID:               r.ID,
		StudentID:        r.StudentID,
		Topic:            r.Topic,
		ActiveConcept:    r.ActiveConcept,
		Mastery:          mastery,
		History:          []StudentResponse(r.History),
		SeenQuestionIDs:  []string(r.SeenQuestionIDs),
		CurrentQuestion:  r.CurrentQuestion.Data(),
		IsCompleted:      r.IsCompleted,
		CompletionReason: r.CompletionReason,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		FinalScore:       r.FinalScore,
		Version:          r.Version,
	}
	return s
}

// QuestionRecord is a catalog row. Position keeps the authored order so ranking ties are stable.
type QuestionRecord struct {
	ID             string                      `gorm:"column:id;type:varchar(128);primaryKey" json:"id"`
	Content        string                      `gorm:"column:content;type:text;not null" json:"content"`
	Options        datatypes.JSONSlice[string] `gorm:"column:options;not null" json:"options"`
	CorrectAnswer  string                      `gorm:"column:correct_answer;type:text;not null" json:"correct_answer"`
	Explanation    string                      `gorm:"column:explanation;type:text" json:"explanation,omitempty"`
	Concepts       datatypes.JSONSlice[string] `gorm:"column:concepts;not null" json:"concepts"`
	Difficulty     float64                     `gorm:"column:difficulty;not null;default:0.5;index" json:"difficulty"`
	Discrimination float64                     `gorm:"column:discrimination;not null;default:1" json:"discrimination"`
	Guessing       float64                     `gorm:"column:guessing;not null;default:0" json:"guessing"`
	BloomsLevel    string                      `gorm:"column:blooms_level;type:varchar(64)" json:"blooms_level,omitempty"`
	Format         string                      `gorm:"column:format;type:varchar(32);not null;default:'mcq'" json:"format"`
	Position       int                         `gorm:"column:position;not null;default:0;index" json:"position"`
	CreatedAt      time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null" json:"updated_at"`
}

func (QuestionRecord) TableName() string { return "assessment_question" }

// QuestionConcept indexes questions by concept for ListByConcepts.
type QuestionConcept struct {
	QuestionID string `gorm:"column:question_id;type:varchar(128);primaryKey" json:"question_id"`
	Concept    string `gorm:"column:concept;type:varchar(256);primaryKey;index" json:"concept"`
}

func (QuestionConcept) TableName() string { return "assessment_question_concept" }

func NewQuestionRecord(q Question, position int) *QuestionRecord {
	c := q.Clone()
	options := c.Options
	if options == nil {
		options = []string{}
	}
	return &QuestionRecord{
		ID:             c.ID,
		Content:        c.Content,
		Options:        datatypes.NewJSONSlice(options),
		CorrectAnswer:  c.CorrectAnswer,
		Explanation:    c.Explanation,
		Concepts:       datatypes.NewJSONSlice(c.Metadata.Concepts),
		Difficulty:     c.Metadata.Difficulty,
		Discrimination: c.Metadata.Discrimination,
		Guessing:       c.Metadata.Guessing,
		BloomsLevel:    c.Metadata.BloomsLevel,
		Format:         c.Metadata.Format,
		Position:       position,
	}
}

func (r *QuestionRecord) ToQuestion() Question {
	return Question{
		ID:            r.ID,
		Content:       r.Content,
		Options:       append([]string(nil), r.Options...),
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Metadata: QuestionMetadata{
			Concepts:       append([]string(nil), r.Concepts...),
			Difficulty:     r.Difficulty,
			Discrimination: r.Discrimination,
			Guessing:       r.Guessing,
			BloomsLevel:    r.BloomsLevel,
			Format:         r.Format,
		},
	}
}
