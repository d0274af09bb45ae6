// Package policy decides the next assessment action from mastery and response history.
package policy

import (
	"fmt"
	"math"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

type Action string

const (
	ActionNextQuestion Action = "next_question"
	ActionRemedial     Action = "remedial"
	ActionChallenge    Action = "challenge"
	ActionStop         Action = "stop"
)

const (
	DefaultMasteryThreshold     = 0.8
	DefaultRemediationThreshold = 0.4
	// PracticeZoneUpper separates the practice regime from the challenge regime.
	PracticeZoneUpper = 0.7
	// ColdStartDifficulty is the target before any response exists.
	ColdStartDifficulty = 0.5
	// NeutralMastery stands in for a concept with no estimate yet.
	NeutralMastery = 0.5
)

const (
	ReasonMasteryAchieved   = "mastery achieved"
	ReasonInitialQuestion   = "initial question"
	ReasonLowMastery        = "low mastery"
	ReasonCorrectPushUp     = "correct response, increasing difficulty"
	ReasonIncorrectHoldDown = "incorrect response, holding difficulty"
	ReasonChallenge         = "challenge"
)

type Decision struct {
	Action           Action   `json:"action"`
	TargetDifficulty float64  `json:"target_difficulty"`
	TargetConcepts   []string `json:"target_concepts"`
	Reason           string   `json:"reason"`
	// Mastery is the estimate the decision was based on.
	Mastery float64 `json:"mastery"`
}

type Config struct {
	MasteryThreshold     float64
	RemediationThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MasteryThreshold:     DefaultMasteryThreshold,
		RemediationThreshold: DefaultRemediationThreshold,
	}
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	d := DefaultConfig()
	if cfg.MasteryThreshold <= 0 || cfg.MasteryThreshold > 1 || math.IsNaN(cfg.MasteryThreshold) {
		cfg.MasteryThreshold = d.MasteryThreshold
	}
	if cfg.RemediationThreshold < 0 || cfg.RemediationThreshold > 1 || math.IsNaN(cfg.RemediationThreshold) {
		cfg.RemediationThreshold = d.RemediationThreshold
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Decide is pure: identical inputs always produce identical decisions. It never fails.
// Rules are evaluated in order and the first match wins.
func (e *Engine) Decide(state types.MasteryState, history []types.StudentResponse, activeConcept string) Decision {
	m, ok := state.Lookup(activeConcept)
	if !ok {
		m = NeutralMastery
	}
	targets := []string{activeConcept}

	if m >= e.cfg.MasteryThreshold {
		return Decision{
			Action:         ActionStop,
			TargetConcepts: targets,
			Reason:         fmt.Sprintf("%s in %s (%.2f)", ReasonMasteryAchieved, activeConcept, m),
			Mastery:        m,
		}
	}
	if len(history) == 0 {
		return Decision{
			Action:           ActionNextQuestion,
			TargetDifficulty: ColdStartDifficulty,
			TargetConcepts:   targets,
			Reason:           ReasonInitialQuestion,
			Mastery:          m,
		}
	}
	if m < e.cfg.RemediationThreshold {
		return Decision{
			Action:           ActionRemedial,
			TargetDifficulty: math.Max(0.2, m-0.1),
			TargetConcepts:   targets,
			Reason:           ReasonLowMastery,
			Mastery:          m,
		}
	}
	if m < PracticeZoneUpper {
		d := Decision{Action: ActionNextQuestion, TargetConcepts: targets, Mastery: m}
		if history[len(history)-1].IsCorrect {
			d.TargetDifficulty = math.Min(0.8, m+0.1)
			d.Reason = ReasonCorrectPushUp
		} else {
			d.TargetDifficulty = math.Max(0.3, m)
			d.Reason = ReasonIncorrectHoldDown
		}
		return d
	}
	return Decision{
		Action:           ActionChallenge,
		TargetDifficulty: math.Min(0.95, m+0.1),
		TargetConcepts:   targets,
		Reason:           ReasonChallenge,
		Mastery:          m,
	}
}
