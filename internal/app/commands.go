package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/data/aggregates"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/catalog"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/selector"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/simulation"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// Migrate creates or updates the relational schema.
func Migrate(ctx context.Context, log *logger.Logger, cfg Config) error {
	if cfg.DB.Driver == DriverMemory {
		return fmt.Errorf("migrate requires DB_DRIVER=postgres or sqlite")
	}
	clients, err := wireClients(ctx, log, Config{DB: cfg.DB})
	if err != nil {
		return err
	}
	defer clients.Close(ctx)
	if err := clients.DB.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("migration complete", "driver", clients.DB.Driver())
	return nil
}

// SeedQuestions writes the YAML bank at path (or the built-in bank when path is empty)
// into the question tables.
func SeedQuestions(ctx context.Context, log *logger.Logger, cfg Config, path string) (int, error) {
	questions := catalog.DefaultQuestions()
	if path = strings.TrimSpace(path); path != "" {
		static, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return 0, err
		}
		questions = static.All()
	}
	if cfg.DB.Driver == DriverMemory {
		return 0, fmt.Errorf("seed-questions requires DB_DRIVER=postgres or sqlite")
	}
	clients, err := wireClients(ctx, log, Config{DB: cfg.DB})
	if err != nil {
		return 0, err
	}
	defer clients.Close(ctx)
	if err := clients.DB.AutoMigrateAll(); err != nil {
		return 0, fmt.Errorf("automigrate: %w", err)
	}
	repos := wireRepos(clients.DB.DB(), log)
	n, err := catalog.Seed(ctx, repos.Questions, questions)
	if err != nil {
		return 0, err
	}
	log.Info("questions seeded", "count", n)
	return n, nil
}

// Simulate runs synthetic learners against an in-memory stack built from cfg's assessment settings.
func Simulate(ctx context.Context, log *logger.Logger, cfg Config, opts simulation.Options) ([]simulation.Outcome, error) {
	cat := catalog.Default()
	if path := strings.TrimSpace(cfg.QuestionBankPath); path != "" {
		static, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return nil, err
		}
		cat = static
	}
	answers := make(map[string]types.Question, cat.Len())
	for _, q := range cat.All() {
		answers[q.ID] = q
	}
	a := cfg.Assessment
	svc := session.NewService(session.Deps{
		Log:     log,
		Repo:    aggregates.NewMemorySessionStore(nil),
		Machine: session.NewMachine(mastery.NewEngine(a.BKT), policy.NewEngine(a.Policy), selector.New(a.TopK), cat, a.MaxQuestions),
		NewRand: func() selector.Rand { return selector.Seeded(opts.Seed) },
		Config:  a.Session,
	})
	return simulation.Run(ctx, svc, answers, opts)
}

func dbOf(c Clients) *gorm.DB {
	if c.DB == nil {
		return nil
	}
	return c.DB.DB()
}
