package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-assessment/internal/clients/redis"
	"github.com/yungbote/neurobridge-assessment/internal/data/aggregates"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/catalog"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/selector"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
	"github.com/yungbote/neurobridge-assessment/internal/observability"
	"github.com/yungbote/neurobridge-assessment/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type Services struct {
	Catalog    catalog.Catalog
	Store      session.Repository
	Locker     session.Locker
	Assessment session.Service
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, clients Clients, repos Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")
	hooks := aggregates.NewObservabilityHooks(metrics)

	store, err := wireSessionStore(ctx, log, cfg, clients, repos, hooks)
	if err != nil {
		return Services{}, err
	}
	cat, err := wireCatalog(ctx, log, cfg, repos)
	if err != nil {
		return Services{}, err
	}

	var locker session.Locker = session.NewKeyedMutex()
	if clients.Redis != nil {
		locker = redis.NewSessionLocker(clients.Redis, log, cfg.SessionLockTTL)
	}

	a := cfg.Assessment
	machine := session.NewMachine(
		mastery.NewEngine(a.BKT),
		policy.NewEngine(a.Policy),
		selector.New(a.TopK),
		cat,
		a.MaxQuestions,
	)
	svc := session.NewService(session.Deps{
		Log:      log,
		Repo:     store,
		Machine:  machine,
		Locker:   locker,
		Recorder: recorderFor(metrics),
		Config:   a.Session,
	})
	return Services{Catalog: cat, Store: store, Locker: locker, Assessment: svc}, nil
}

func wireSessionStore(ctx context.Context, log *logger.Logger, cfg Config, clients Clients, repos Repos, hooks aggregates.Hooks) (session.Repository, error) {
	switch cfg.SessionStore {
	case StoreMongo:
		if clients.Mongo == nil {
			return nil, fmt.Errorf("mongo session store requires a mongo client")
		}
		st := aggregates.NewMongoSessionStore(clients.Mongo.Database(), log, hooks)
		if err := st.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, nil
	case StoreMemory:
		log.Warn("using in-memory session store; sessions are lost on restart")
		return aggregates.NewMemorySessionStore(hooks), nil
	default:
		if clients.DB == nil || repos.Sessions == nil {
			return nil, fmt.Errorf("gorm session store requires a database")
		}
		return aggregates.NewSessionStore(aggregates.SessionStoreDeps{
			Base:     aggregates.BaseDeps{DB: clients.DB.DB(), Log: log, Hooks: hooks},
			Sessions: repos.Sessions,
		}), nil
	}
}

// wireCatalog prefers an explicit YAML bank, then questions seeded into the
// database, then the built-in bank.
func wireCatalog(ctx context.Context, log *logger.Logger, cfg Config, repos Repos) (catalog.Catalog, error) {
	if path := strings.TrimSpace(cfg.QuestionBankPath); path != "" {
		cat, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("load question bank: %w", err)
		}
		log.Info("question bank loaded", "path", path, "questions", cat.Len())
		return cat, nil
	}
	if repos.Questions != nil {
		n, err := repos.Questions.Count(dbctx.Context{Ctx: ctx})
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if n > 0 {
			log.Info("using database question catalog", "questions", n)
			return catalog.NewStoreCatalog(repos.Questions, log, cfg.Assessment.CatalogTTL), nil
		}
		log.Warn("question table is empty; using built-in bank (run seed-questions to persist it)")
	}
	return catalog.Default(), nil
}

// recorderFor avoids handing the service a typed-nil interface.
func recorderFor(m *observability.Metrics) session.Recorder {
	if m == nil {
		return nil
	}
	return m
}
