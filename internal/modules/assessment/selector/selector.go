// Package selector picks a concrete unseen question that matches a policy decision.
package selector

import (
	"math"
	"math/rand/v2"
	"sort"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
)

// DefaultTopK is how many closest-difficulty candidates the random draw chooses from.
const DefaultTopK = 3

// Rand is the only source of randomness in the assessment core.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a generator owned by a single request. The package-level source is only used for seeding.
func NewRand() Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Seeded returns a deterministic generator, mainly for tests and simulations.
func Seeded(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type Selector struct {
	topK int
}

func New(topK int) *Selector {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Selector{topK: topK}
}

// Select returns nil when the decision is STOP or nothing eligible remains.
// The returned question is a copy and is never one of seen.
func (s *Selector) Select(decision policy.Decision, seen map[string]struct{}, catalog []types.Question, rnd Rand) *types.Question {
	if decision.Action == policy.ActionStop {
		return nil
	}
	ranked := Rank(decision, seen, catalog)
	if len(ranked) == 0 {
		return nil
	}
	k := s.topK
	if k > len(ranked) {
		k = len(ranked)
	}
	idx := 0
	if k > 1 {
		if rnd == nil {
			rnd = NewRand()
		}
		idx = rnd.IntN(k)
	}
	q := ranked[idx].Clone()
	return &q
}

// Rank filters catalog down to unseen questions sharing a target concept and orders them by
// distance to the target difficulty. Ties keep catalog order.
func Rank(decision policy.Decision, seen map[string]struct{}, catalog []types.Question) []types.Question {
	eligible := make([]types.Question, 0, len(catalog))
	for _, q := range catalog {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		if !q.SharesConcept(decision.TargetConcepts) {
			continue
		}
		eligible = append(eligible, q)
	}
	target := decision.TargetDifficulty
	sort.SliceStable(eligible, func(i, j int) bool {
		return math.Abs(eligible[i].Metadata.Difficulty-target) < math.Abs(eligible[j].Metadata.Difficulty-target)
	})
	return eligible
}
