// Package simulation drives complete sessions with synthetic learners whose
// chance of answering correctly depends on a hidden skill level.
package simulation

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"text/tabwriter"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
)

const (
	DefaultStudents    = 50
	DefaultSafetyLimit = 16
)

type Options struct {
	Students int
	Topic    string
	Seed     uint64
	// SafetyLimit stops a learner after this many answers even if the session is still open.
	SafetyLimit int
}

type Learner struct {
	ID    string
	Skill float64
}

// PCorrect approximates an IRT curve: 0.5 at skill == difficulty, clamped to [0.05, 0.95].
func (l Learner) PCorrect(difficulty float64) float64 {
	p := 0.5 + (l.Skill-difficulty)*0.8
	switch {
	case p < 0.05:
		return 0.05
	case p > 0.95:
		return 0.95
	default:
		return p
	}
}

type Outcome struct {
	StudentID string
	SessionID string
	Skill     float64
	Questions int
	Correct   int
	Completed bool
	Reason    string
	Mastery   float64
}

func (o Outcome) Accuracy() float64 {
	if o.Questions == 0 {
		return 0
	}
	return float64(o.Correct) / float64(o.Questions)
}

// Run plays opts.Students learners through svc. answers maps question ids to the
// full question so the learner can pick a right or wrong option.
func Run(ctx context.Context, svc session.Service, answers map[string]types.Question, opts Options) ([]Outcome, error) {
	if opts.Students <= 0 {
		opts.Students = DefaultStudents
	}
	if opts.SafetyLimit <= 0 {
		opts.SafetyLimit = DefaultSafetyLimit
	}
	if opts.Topic == "" {
		opts.Topic = "arrays"
	}
	rnd := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed))

	out := make([]Outcome, 0, opts.Students)
	for i := 0; i < opts.Students; i++ {
		l := Learner{ID: fmt.Sprintf("sim_%02d", i+1), Skill: 0.1 + rnd.Float64()*0.85}
		o, err := play(ctx, svc, answers, l, opts, rnd)
		if err != nil {
			return nil, fmt.Errorf("learner %s: %w", l.ID, err)
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Skill < out[j].Skill })
	return out, nil
}

func play(ctx context.Context, svc session.Service, answers map[string]types.Question, l Learner, opts Options, rnd *rand.Rand) (Outcome, error) {
	start, err := svc.Start(ctx, session.StartInput{StudentID: l.ID, Topic: opts.Topic})
	if err != nil {
		return Outcome{}, err
	}
	o := Outcome{StudentID: l.ID, SessionID: start.SessionID, Skill: l.Skill}
	for o.Questions < opts.SafetyLimit {
		next, err := svc.NextQuestion(ctx, start.SessionID)
		if err != nil {
			return Outcome{}, err
		}
		if next.Completed {
			o.Completed = true
			o.Reason = next.Reason
			break
		}
		q, ok := answers[next.Question.ID]
		if !ok {
			return Outcome{}, fmt.Errorf("no answer key for question %q", next.Question.ID)
		}
		correct := rnd.Float64() < l.PCorrect(q.Metadata.Difficulty)
		res, err := svc.SubmitAnswer(ctx, session.SubmitInput{
			SessionID:        start.SessionID,
			QuestionID:       q.ID,
			SelectedAnswer:   pickAnswer(q, correct),
			TimeTakenSeconds: 5 + rnd.Float64()*15,
		})
		if err != nil {
			return Outcome{}, err
		}
		o.Questions++
		if res.IsCorrect {
			o.Correct++
		}
		o.Mastery = res.MasteryUpdate[types.NormalizeConcept(opts.Topic)]
	}
	if !o.Completed {
		o.Reason = "safety limit"
	}
	return o, nil
}

func pickAnswer(q types.Question, correct bool) string {
	if correct {
		return q.CorrectAnswer
	}
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			return opt
		}
	}
	return q.CorrectAnswer + " (wrong)"
}

func WriteTable(w io.Writer, outcomes []Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDENT\tSKILL\tQUESTIONS\tACCURACY\tMASTERY\tREASON")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%.2f\t%.2f\t%s\n", o.StudentID, o.Skill, o.Questions, o.Accuracy(), o.Mastery, o.Reason)
	}
	return tw.Flush()
}
