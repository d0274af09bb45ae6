package session

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/catalog"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/selector"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type fakeRepo struct {
	mu       sync.Mutex
	sessions map[string]*types.Session
	saves    int
	// saveErrs are returned, in order, by the next Save calls before the write is applied.
	saveErrs []error
	// ackErrs are returned, in order, by the next successful Save calls after the write is applied.
	ackErrs []error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[string]*types.Session{}}
}

func (r *fakeRepo) Create(_ context.Context, s *types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return types.PersistenceConflict("fake.Create", "duplicate id")
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *fakeRepo) Load(_ context.Context, id string) (*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, types.SessionNotFound("fake.Load", id)
	}
	return s.Clone(), nil
}

func (r *fakeRepo) Save(_ context.Context, s *types.Session, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		return err
	}
	cur, ok := r.sessions[s.ID]
	if !ok {
		return types.SessionNotFound("fake.Save", s.ID)
	}
	if cur.Version != expectedVersion {
		return types.PersistenceConflict("fake.Save", "stale version")
	}
	s.Version = expectedVersion + 1
	r.sessions[s.ID] = s.Clone()
	r.saves++
	if len(r.ackErrs) > 0 {
		err := r.ackErrs[0]
		r.ackErrs = r.ackErrs[1:]
		return err
	}
	return nil
}

func (r *fakeRepo) LatestForStudent(_ context.Context, studentID string) (*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *types.Session
	for _, s := range r.sessions {
		if s.StudentID != studentID {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, types.SessionNotFound("fake.LatestForStudent", studentID)
	}
	return latest.Clone(), nil
}

func (r *fakeRepo) ListLatestPerStudent(_ context.Context) ([]*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := map[string]*types.Session{}
	for _, s := range r.sessions {
		if cur, ok := latest[s.StudentID]; !ok || s.StartTime.After(cur.StartTime) {
			latest[s.StudentID] = s
		}
	}
	out := make([]*types.Session, 0, len(latest))
	for _, s := range latest {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (r *fakeRepo) stored(id string) *types.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id].Clone()
}

type countingRecorder struct {
	mu          sync.Mutex
	started     int
	issued      map[string]int
	answers     map[bool]int
	completions map[string]int
	retries     int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{issued: map[string]int{}, answers: map[bool]int{}, completions: map[string]int{}}
}

func (c *countingRecorder) IncSessionStarted() { c.mu.Lock(); c.started++; c.mu.Unlock() }
func (c *countingRecorder) IncQuestionIssued(a string) {
	c.mu.Lock()
	c.issued[a]++
	c.mu.Unlock()
}
func (c *countingRecorder) IncAnswer(ok bool) { c.mu.Lock(); c.answers[ok]++; c.mu.Unlock() }
func (c *countingRecorder) IncCompletion(r string) {
	c.mu.Lock()
	c.completions[r]++
	c.mu.Unlock()
}
func (c *countingRecorder) IncPersistRetry(string) { c.mu.Lock(); c.retries++; c.mu.Unlock() }

type harness struct {
	svc  Service
	repo *fakeRepo
	rec  *countingRecorder
	cat  *catalog.Static
}

type harnessOpts struct {
	pInit        float64
	questions    []types.Question
	maxQuestions int
	maxRetries   int
}

func newHarness(t *testing.T, o harnessOpts) *harness {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cat := catalog.Default()
	if o.questions != nil {
		if cat, err = catalog.NewStatic(o.questions); err != nil {
			t.Fatalf("catalog: %v", err)
		}
	}
	params := mastery.DefaultParams()
	if o.pInit > 0 {
		params.PInit = o.pInit
	}
	repo := newFakeRepo()
	rec := newCountingRecorder()
	var seed uint64
	var seedMu sync.Mutex
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	ids := 0
	svc := NewService(Deps{
		Log:      log,
		Repo:     repo,
		Machine:  NewMachine(mastery.NewEngine(params), policy.NewEngine(policy.DefaultConfig()), selector.New(selector.DefaultTopK), cat, o.maxQuestions),
		Recorder: rec,
		NewRand: func() selector.Rand {
			seedMu.Lock()
			defer seedMu.Unlock()
			seed++
			return selector.Seeded(seed)
		},
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			clockMu.Lock()
			defer clockMu.Unlock()
			ids++
			return "sess-" + string(rune('a'+ids-1))
		},
		Config: Config{MaxRetries: o.maxRetries, RetryBackoff: time.Millisecond},
	})
	return &harness{svc: svc, repo: repo, rec: rec, cat: cat}
}

func (h *harness) answerFor(t *testing.T, id string) string {
	t.Helper()
	for _, q := range h.cat.All() {
		if q.ID == id {
			return q.CorrectAnswer
		}
	}
	t.Fatalf("question %s not in catalog", id)
	return ""
}

func arraysOnly(ids ...string) []types.Question {
	out := make([]types.Question, 0, len(ids))
	for i, id := range ids {
		out = append(out, types.Question{
			ID:            id,
			Content:       "question " + id,
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Metadata:      types.QuestionMetadata{Concepts: []string{"arrays"}, Difficulty: 0.3 + 0.1*float64(i)},
		})
	}
	return out
}
