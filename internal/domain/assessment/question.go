package assessment

import (
	"fmt"
	"strings"
)

type QuestionMetadata struct {
	Concepts       []string `json:"concepts" yaml:"concepts" bson:"concepts"`
	Difficulty     float64  `json:"difficulty" yaml:"difficulty" bson:"difficulty"`
	Discrimination float64  `json:"discrimination,omitempty" yaml:"discrimination,omitempty" bson:"discrimination,omitempty"`
	Guessing       float64  `json:"guessing,omitempty" yaml:"guessing,omitempty" bson:"guessing,omitempty"`
	BloomsLevel    string   `json:"blooms_level,omitempty" yaml:"blooms_level,omitempty" bson:"blooms_level,omitempty"`
	Format         string   `json:"format,omitempty" yaml:"format,omitempty" bson:"format,omitempty"`
}

// Question is immutable once it is placed in a catalog; callers copy before changing anything.
type Question struct {
	ID            string           `json:"id" yaml:"id" bson:"id"`
	Content       string           `json:"content" yaml:"content" bson:"content"`
	Options       []string         `json:"options" yaml:"options" bson:"options"`
	CorrectAnswer string           `json:"correct_answer" yaml:"correct_answer" bson:"correct_answer"`
	Explanation   string           `json:"explanation,omitempty" yaml:"explanation,omitempty" bson:"explanation,omitempty"`
	Metadata      QuestionMetadata `json:"metadata" yaml:"metadata" bson:"metadata"`
}

// QuestionView is what a learner sees: no answer key, no explanation.
type QuestionView struct {
	ID       string           `json:"id"`
	Content  string           `json:"content"`
	Options  []string         `json:"options"`
	Metadata QuestionMetadata `json:"metadata"`
}

func NormalizeConcept(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// Normalize trims fields and lower-cases concept tags, dropping blanks and duplicates.
func (q Question) Normalize() Question {
	out := q.Clone()
	out.ID = strings.TrimSpace(out.ID)
	out.CorrectAnswer = strings.TrimSpace(out.CorrectAnswer)
	seen := make(map[string]struct{}, len(out.Metadata.Concepts))
	concepts := make([]string, 0, len(out.Metadata.Concepts))
	for _, c := range out.Metadata.Concepts {
		c = NormalizeConcept(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		concepts = append(concepts, c)
	}
	out.Metadata.Concepts = concepts
	if out.Metadata.Format == "" {
		out.Metadata.Format = "mcq"
	}
	return out
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("question id is required")
	}
	if len(q.Metadata.Concepts) == 0 {
		return fmt.Errorf("question %q: at least one concept is required", q.ID)
	}
	if q.Metadata.Difficulty < 0 || q.Metadata.Difficulty > 1 {
		return fmt.Errorf("question %q: difficulty %v outside [0,1]", q.ID, q.Metadata.Difficulty)
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("question %q: correct answer is required", q.ID)
	}
	return nil
}

// SharesConcept reports whether any tagged concept is in targets.
func (q Question) SharesConcept(targets []string) bool {
	for _, c := range q.Metadata.Concepts {
		for _, t := range targets {
			if c == t {
				return true
			}
		}
	}
	return false
}

// Grade compares a selected answer with the answer key, ignoring surrounding whitespace.
func (q Question) Grade(selected string) bool {
	return strings.TrimSpace(selected) == strings.TrimSpace(q.CorrectAnswer)
}

func (q Question) View() QuestionView {
	c := q.Clone()
	return QuestionView{ID: c.ID, Content: c.Content, Options: c.Options, Metadata: c.Metadata}
}

func (q Question) Clone() Question {
	out := q
	out.Options = append([]string(nil), q.Options...)
	out.Metadata.Concepts = append([]string(nil), q.Metadata.Concepts...)
	return out
}
