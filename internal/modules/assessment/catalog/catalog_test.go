package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

func TestDefaultBank(t *testing.T) {
	c := Default()
	if c.Len() != 12 {
		t.Fatalf("expected 12 questions, got %d", c.Len())
	}
	arrays, err := c.ListByConcepts(context.Background(), []string{"arrays"})
	if err != nil {
		t.Fatalf("ListByConcepts: %v", err)
	}
	want := []string{"q1", "q2", "q3", "q6", "q8", "q9", "q11", "q12"}
	if len(arrays) != len(want) {
		t.Fatalf("arrays: got %d want %d", len(arrays), len(want))
	}
	for i, id := range want {
		if arrays[i].ID != id {
			t.Fatalf("arrays[%d]: got %s want %s", i, arrays[i].ID, id)
		}
	}
}

func TestNewStatic_RejectsInvalid(t *testing.T) {
	_, err := NewStatic([]types.Question{{ID: "x", CorrectAnswer: "a"}})
	if err == nil {
		t.Fatalf("expected error for question without concepts")
	}
	dup := types.Question{ID: "d", CorrectAnswer: "a", Metadata: types.QuestionMetadata{Concepts: []string{"c"}}}
	if _, err := NewStatic([]types.Question{dup, dup}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestStatic_NormalizesConcepts(t *testing.T) {
	c, err := NewStatic([]types.Question{{
		ID: "q", CorrectAnswer: "a",
		Metadata: types.QuestionMetadata{Concepts: []string{" Arrays ", "arrays", ""}, Difficulty: 0.5},
	}})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	got, _ := c.ListByConcepts(context.Background(), []string{"ARRAYS"})
	if len(got) != 1 || len(got[0].Metadata.Concepts) != 1 || got[0].Metadata.Format != "mcq" {
		t.Fatalf("unexpected normalization: %+v", got)
	}
}

func TestDecodeYAML(t *testing.T) {
	src := `
questions:
  - id: y1
    content: "2 + 2?"
    options: ["3", "4"]
    correct_answer: "4"
    explanation: "basic addition"
    metadata:
      concepts: [arithmetic]
      difficulty: 0.1
`
	qs, err := DecodeYAML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if len(qs) != 1 || qs[0].CorrectAnswer != "4" || qs[0].Metadata.Concepts[0] != "arithmetic" || qs[0].Explanation == "" {
		t.Fatalf("unexpected decode: %+v", qs)
	}
	if _, err := DecodeYAML(strings.NewReader("questions:\n  - id: z\n    bogus: 1\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

type countingStore struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (s *countingStore) ListByConcepts(_ dbctx.Context, concepts []string) ([]*types.QuestionRecord, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	q := types.Question{ID: "r1", CorrectAnswer: "a", Metadata: types.QuestionMetadata{Concepts: concepts, Difficulty: 0.4}}
	return []*types.QuestionRecord{types.NewQuestionRecord(q, 0)}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestStoreCatalog_CachesAndDedupes(t *testing.T) {
	store := &countingStore{gate: make(chan struct{})}
	c := NewStoreCatalog(store, testLogger(t), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ListByConcepts(context.Background(), []string{"arrays"}); err != nil {
				t.Errorf("ListByConcepts: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	if _, err := c.ListByConcepts(context.Background(), []string{"ARRAYS"}); err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if n := store.calls.Load(); n < 1 || n > 2 {
		t.Fatalf("expected shared loads, store called %d times", n)
	}

	before := store.calls.Load()
	c.Invalidate()
	if _, err := c.ListByConcepts(context.Background(), []string{"arrays"}); err != nil {
		t.Fatalf("after invalidate: %v", err)
	}
	if store.calls.Load() != before+1 {
		t.Fatalf("Invalidate should force a reload")
	}
}

func TestStoreCatalog_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewStoreCatalog(&countingStore{err: boom}, testLogger(t), time.Minute)
	if _, err := c.ListByConcepts(context.Background(), []string{"x"}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

type ctxStore struct {
	ctxErr      error
	hasDeadline bool
}

func (s *ctxStore) ListByConcepts(dbc dbctx.Context, concepts []string) ([]*types.QuestionRecord, error) {
	s.ctxErr = dbc.Ctx.Err()
	_, s.hasDeadline = dbc.Ctx.Deadline()
	q := types.Question{ID: "c1", CorrectAnswer: "a", Metadata: types.QuestionMetadata{Concepts: concepts, Difficulty: 0.5}}
	return []*types.QuestionRecord{types.NewQuestionRecord(q, 0)}, nil
}

func TestStoreCatalog_LoadOutlivesCancelledCaller(t *testing.T) {
	store := &ctxStore{}
	c := NewStoreCatalog(store, testLogger(t), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	qs, err := c.ListByConcepts(ctx, []string{"arrays"})
	if err != nil {
		t.Fatalf("ListByConcepts: %v", err)
	}
	if store.ctxErr != nil {
		t.Fatalf("store saw cancelled context: %v", store.ctxErr)
	}
	if !store.hasDeadline {
		t.Fatalf("store load has no deadline")
	}
	if len(qs) != 1 || qs[0].ID != "c1" {
		t.Fatalf("unexpected questions: %+v", qs)
	}
}

type recordingWriter struct {
	rows []*types.QuestionRecord
	err  error
}

func (w *recordingWriter) Upsert(_ dbctx.Context, rows []*types.QuestionRecord) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, rows...)
	return nil
}

func TestSeedKeepsBankOrder(t *testing.T) {
	w := &recordingWriter{}
	n, err := Seed(context.Background(), w, DefaultQuestions())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 12 || len(w.rows) != 12 {
		t.Fatalf("seeded %d rows (%d written), want 12", n, len(w.rows))
	}
	for i, row := range w.rows {
		if row.Position != i {
			t.Fatalf("row %s position=%d want %d", row.ID, row.Position, i)
		}
	}
	if w.rows[0].ID != "q1" {
		t.Fatalf("first row=%s want q1", w.rows[0].ID)
	}
}

func TestSeedRejectsInvalidBank(t *testing.T) {
	w := &recordingWriter{}
	bad := []types.Question{{ID: "x"}}
	if _, err := Seed(context.Background(), w, bad); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(w.rows) != 0 {
		t.Fatalf("invalid bank must not be written")
	}
	w.err = errors.New("db down")
	if _, err := Seed(context.Background(), w, DefaultQuestions()); !errors.Is(err, w.err) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
