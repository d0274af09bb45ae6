package aggregates_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yungbote/neurobridge-assessment/internal/data/aggregates"
	aggtest "github.com/yungbote/neurobridge-assessment/internal/data/aggregates/testutil"
	repoassessment "github.com/yungbote/neurobridge-assessment/internal/data/repos/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
)

var _ session.Repository = (*aggregates.SessionStore)(nil)
var _ session.Repository = (*aggregates.MongoSessionStore)(nil)
var _ session.Repository = (*aggregates.MemorySessionStore)(nil)

func newSession(id, student string, start time.Time) *types.Session {
	return &types.Session{
		ID:              id,
		StudentID:       student,
		Topic:           "arrays",
		ActiveConcept:   "arrays",
		Mastery:         types.NewMasteryState(student, start),
		History:         []types.StudentResponse{},
		SeenQuestionIDs: []string{},
		StartTime:       start,
	}
}

// runStoreContract exercises the version-checked repository contract against any backend.
func runStoreContract(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	s := newSession("contract-1", "stu-a", start)
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, s); !types.IsCode(err, types.CodePersistenceConflict) {
		t.Fatalf("duplicate Create: want conflict, got %v", err)
	}

	loaded, err := repo.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != 0 || loaded.Status() != types.StatusCreated {
		t.Fatalf("unexpected loaded session: %+v", loaded)
	}

	q := types.Question{ID: "q1", CorrectAnswer: "0", Metadata: types.QuestionMetadata{Concepts: []string{"arrays"}, Difficulty: 0.3}}
	loaded.CurrentQuestion = &q
	loaded.SeenQuestionIDs = append(loaded.SeenQuestionIDs, q.ID)
	if err := repo.Save(ctx, loaded, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if loaded.Version != 1 {
		t.Fatalf("Save should bump version to 1, got %d", loaded.Version)
	}

	stale := loaded.Clone()
	stale.CurrentQuestion = nil
	if err := repo.Save(ctx, stale, 0); !types.IsCode(err, types.CodePersistenceConflict) {
		t.Fatalf("stale Save: want conflict, got %v", err)
	}
	after, err := repo.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load after conflict: %v", err)
	}
	if after.Version != 1 || after.CurrentQuestion == nil || after.CurrentQuestion.ID != "q1" {
		t.Fatalf("conflicting Save must not change storage: %+v", after)
	}

	if _, err := repo.Load(ctx, "missing"); !types.IsCode(err, types.CodeSessionNotFound) {
		t.Fatalf("Load missing: want not found, got %v", err)
	}
	if err := repo.Save(ctx, newSession("missing", "x", start), 0); !types.IsCode(err, types.CodeSessionNotFound) {
		t.Fatalf("Save missing: want not found, got %v", err)
	}

	newer := newSession("contract-2", "stu-a", start.Add(time.Hour))
	newer.Mastery.ConceptMastery["arrays"] = 0.9
	other := newSession("contract-3", "stu-b", start.Add(time.Minute))
	for _, x := range []*types.Session{newer, other} {
		if err := repo.Create(ctx, x); err != nil {
			t.Fatalf("Create %s: %v", x.ID, err)
		}
	}
	latest, err := repo.LatestForStudent(ctx, "stu-a")
	if err != nil || latest.ID != "contract-2" || latest.Mastery.ConceptMastery["arrays"] != 0.9 {
		t.Fatalf("LatestForStudent: %+v %v", latest, err)
	}
	if _, err := repo.LatestForStudent(ctx, "nobody"); !types.IsCode(err, types.CodeSessionNotFound) {
		t.Fatalf("LatestForStudent unknown: want not found, got %v", err)
	}
	all, err := repo.ListLatestPerStudent(ctx)
	if err != nil {
		t.Fatalf("ListLatestPerStudent: %v", err)
	}
	got := []string{}
	for _, x := range all {
		got = append(got, x.ID)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"contract-2", "contract-3"}) {
		t.Fatalf("ListLatestPerStudent: %v", got)
	}
}

func newGormStore(t *testing.T, hooks aggregates.Hooks, runner aggregates.TxRunner) *aggregates.SessionStore {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	if runner == nil {
		runner = aggregates.NewGormTxRunner(db)
	}
	return aggregates.NewSessionStore(aggregates.SessionStoreDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks, Runner: runner},
		Sessions: repoassessment.NewSessionRepo(db, log),
	})
}

func TestSessionStore_Gorm(t *testing.T) {
	hooks := &aggtest.HooksRecorder{}
	runStoreContract(t, newGormStore(t, hooks, nil))
	if len(hooks.Conflicts) == 0 {
		t.Fatalf("expected conflict hooks to fire")
	}
	if hooks.StatusCount("assessment.session.save", "success") != 1 {
		t.Fatalf("expected one successful save, got %+v", hooks.Operations)
	}
}

func TestSessionStore_Memory(t *testing.T) {
	runStoreContract(t, aggregates.NewMemorySessionStore(nil))
}

func TestSessionStore_Mongo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set TEST_MONGO_URI to run mongo store integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(fmt.Sprintf("assessment_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	store := aggregates.NewMongoSessionStore(db, testutil.Logger(t), nil)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	runStoreContract(t, store)
}

func TestSessionStore_FailedCommitLeavesRowUntouched(t *testing.T) {
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	commitErr := aggregates.UnavailableError("commit lost")
	runner := &aggtest.InjectedTxRunner{Delegate: aggregates.NewGormTxRunner(db)}
	store := aggregates.NewSessionStore(aggregates.SessionStoreDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log, Runner: runner},
		Sessions: repoassessment.NewSessionRepo(db, log),
	})

	ctx := context.Background()
	s := newSession("tx-1", "stu", time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	runner.FailCommit = commitErr
	work := s.Clone()
	work.SeenQuestionIDs = []string{"q9"}
	err := store.Save(ctx, work, 0)
	if !types.IsCode(err, types.CodePersistenceUnavailable) || !errors.Is(err, aggregates.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if work.Version != 0 {
		t.Fatalf("failed save must not bump the in-memory version")
	}

	runner.FailCommit = nil
	stored, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.Version != 0 || len(stored.SeenQuestionIDs) != 0 {
		t.Fatalf("rolled back write leaked: %+v", stored)
	}
}
