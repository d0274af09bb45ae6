// Package mastery implements Bayesian Knowledge Tracing over a per-concept probability map.
package mastery

import (
	"math"
	"time"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

const (
	DefaultPInit    = 0.3
	DefaultPTransit = 0.1
	DefaultPSlip    = 0.1
	DefaultPGuess   = 0.2
)

// denominators below this are treated as zero
const epsilon = 1e-12

type Params struct {
	PInit    float64 // prior for a concept the learner has never been observed on
	PTransit float64 // chance of learning per opportunity
	PSlip    float64 // wrong answer despite mastery
	PGuess   float64 // right answer without mastery
}

func DefaultParams() Params {
	return Params{
		PInit:    DefaultPInit,
		PTransit: DefaultPTransit,
		PSlip:    DefaultPSlip,
		PGuess:   DefaultPGuess,
	}
}

// Normalized clamps every parameter into [0,1]. NaN falls back to the default.
func (p Params) Normalized() Params {
	d := DefaultParams()
	return Params{
		PInit:    clampOr(p.PInit, d.PInit),
		PTransit: clampOr(p.PTransit, d.PTransit),
		PSlip:    clampOr(p.PSlip, d.PSlip),
		PGuess:   clampOr(p.PGuess, d.PGuess),
	}
}

type Engine struct {
	params Params
}

func NewEngine(p Params) *Engine {
	return &Engine{params: p.Normalized()}
}

func (e *Engine) Params() Params { return e.params }

// Probability returns the stored mastery for concept, or PInit when the concept is unseen.
func (e *Engine) Probability(state types.MasteryState, concept string) float64 {
	if p, ok := state.Lookup(concept); ok {
		return p
	}
	return e.params.PInit
}

// Update applies one graded observation to every concept in concepts and returns a new state.
// The input state is not modified.
func (e *Engine) Update(state types.MasteryState, concepts []string, isCorrect bool, now time.Time) types.MasteryState {
	next := state.Clone()
	for _, c := range concepts {
		next.ConceptMastery[c] = e.Step(e.Probability(state, c), isCorrect)
	}
	next.LastUpdated = now.UTC()
	return next
}

// Step is the single-concept BKT update: evidence posterior, then the learning transition.
func (e *Engine) Step(p float64, isCorrect bool) float64 {
	p = clamp01(p)
	s, g, t := e.params.PSlip, e.params.PGuess, e.params.PTransit

	var num, den float64
	if isCorrect {
		num = p * (1 - s)
		den = num + (1-p)*g
	} else {
		num = p * s
		den = num + (1-p)*(1-g)
	}
	posterior := p
	if den > epsilon {
		posterior = num / den
	}
	return clamp01(posterior + (1-posterior)*t)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func clampOr(x, def float64) float64 {
	if math.IsNaN(x) {
		return def
	}
	return clamp01(x)
}
