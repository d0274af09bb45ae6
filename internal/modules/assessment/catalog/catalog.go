// Package catalog provides read-only question sources for the assessment core.
package catalog

import (
	"context"
	"fmt"
	"sort"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

// Catalog returns the questions tagged with any of concepts, in a stable order.
type Catalog interface {
	ListByConcepts(ctx context.Context, concepts []string) ([]types.Question, error)
}

// Static is an immutable in-memory catalog.
type Static struct {
	questions []types.Question
	byConcept map[string][]int
}

// NewStatic normalizes and validates questions. Duplicate ids are rejected.
func NewStatic(questions []types.Question) (*Static, error) {
	s := &Static{byConcept: map[string][]int{}}
	ids := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		q = q.Normalize()
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ids[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = struct{}{}
		idx := len(s.questions)
		s.questions = append(s.questions, q)
		for _, c := range q.Metadata.Concepts {
			s.byConcept[c] = append(s.byConcept[c], idx)
		}
	}
	return s, nil
}

func (s *Static) ListByConcepts(_ context.Context, concepts []string) ([]types.Question, error) {
	hit := map[int]struct{}{}
	for _, c := range concepts {
		for _, idx := range s.byConcept[types.NormalizeConcept(c)] {
			hit[idx] = struct{}{}
		}
	}
	idxs := make([]int, 0, len(hit))
	for idx := range hit {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	out := make([]types.Question, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, s.questions[idx].Clone())
	}
	return out, nil
}

// All returns every question in authored order.
func (s *Static) All() []types.Question {
	out := make([]types.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q.Clone())
	}
	return out
}

func (s *Static) Len() int { return len(s.questions) }
