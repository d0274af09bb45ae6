package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-assessment/internal/clients/mongo"
	"github.com/yungbote/neurobridge-assessment/internal/clients/redis"
	"github.com/yungbote/neurobridge-assessment/internal/data/db"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/policy"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
	"github.com/yungbote/neurobridge-assessment/internal/platform/envutil"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

const (
	StoreGorm   = "gorm"
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	DriverMemory = "memory"
)

type AssessmentConfig struct {
	BKT          mastery.Params
	Policy       policy.Config
	MaxQuestions int
	TopK         int
	Session      session.Config
	// CatalogTTL bounds how long questions read from the database are cached.
	CatalogTTL time.Duration
}

type Config struct {
	HTTPAddr    string
	LogMode     string
	Environment string
	CORSOrigins []string

	DB             db.Config
	SessionStore   string
	Mongo          mongo.Config
	Redis          redis.Config
	SessionLockTTL time.Duration

	QuestionBankPath string
	Assessment       AssessmentConfig

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "")),
		DB: db.Config{
			Driver:     strings.ToLower(envutil.String("DB_DRIVER", db.DriverSQLite)),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "neurobridge_assessment"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "assessment.db"),
			MaxOpen:    envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdle:    envutil.Int("DB_MAX_IDLE_CONNS", 10),
		},
		SessionStore: strings.ToLower(envutil.String("SESSION_STORE", StoreGorm)),
		Mongo: mongo.Config{
			URI:      envutil.String("MONGO_URI", ""),
			Database: envutil.String("MONGO_DB", "neurobridge"),
			Timeout:  envutil.Millis("MONGO_TIMEOUT_MS", 5*time.Second),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		SessionLockTTL:   envutil.Millis("SESSION_LOCK_TTL_MS", 5*time.Second),
		QuestionBankPath: envutil.String("QUESTION_BANK_PATH", ""),
		Assessment: AssessmentConfig{
			BKT: mastery.Params{
				PInit:    envutil.Float("ASSESSMENT_P_INIT", mastery.DefaultPInit),
				PTransit: envutil.Float("ASSESSMENT_P_TRANSIT", mastery.DefaultPTransit),
				PSlip:    envutil.Float("ASSESSMENT_P_SLIP", mastery.DefaultPSlip),
				PGuess:   envutil.Float("ASSESSMENT_P_GUESS", mastery.DefaultPGuess),
			}.Normalized(),
			Policy: policy.Config{
				MasteryThreshold:     envutil.Float("ASSESSMENT_MASTERY_THRESHOLD", policy.DefaultMasteryThreshold),
				RemediationThreshold: envutil.Float("ASSESSMENT_REMEDIATION_THRESHOLD", policy.DefaultRemediationThreshold),
			},
			MaxQuestions: envutil.Int("ASSESSMENT_MAX_QUESTIONS", 20),
			TopK:         envutil.Int("ASSESSMENT_TOP_K", 3),
			Session: session.Config{
				MaxRetries:     envutil.Int("ASSESSMENT_MAX_RETRIES", session.DefaultMaxRetries),
				PersistTimeout: envutil.Millis("ASSESSMENT_PERSIST_TIMEOUT_MS", session.DefaultPersistTimeout),
				RetryBackoff:   envutil.Millis("ASSESSMENT_RETRY_BACKOFF_MS", session.DefaultRetryBackoff),
			},
			CatalogTTL: envutil.Millis("ASSESSMENT_CATALOG_TTL_MS", time.Minute),
		},
		MetricsAddr: envutil.String("METRICS_ADDR", ""),
	}
	if log != nil {
		log.Info("config loaded",
			"http_addr", cfg.HTTPAddr,
			"db_driver", cfg.DB.Driver,
			"session_store", cfg.SessionStore,
			"redis_lock", cfg.Redis.Addr != "",
			"question_bank", cfg.QuestionBankPath,
			"max_questions", cfg.Assessment.MaxQuestions,
		)
	}
	return cfg
}

// Validate rejects combinations the wiring cannot satisfy.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case db.DriverPostgres, db.DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.SessionStore {
	case StoreGorm:
		if c.DB.Driver == DriverMemory {
			return fmt.Errorf("SESSION_STORE=gorm requires a database driver")
		}
	case StoreMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return fmt.Errorf("SESSION_STORE=mongo requires MONGO_URI")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	if c.Assessment.MaxQuestions < 0 {
		return fmt.Errorf("ASSESSMENT_MAX_QUESTIONS must be >= 0")
	}
	if c.Assessment.Policy.RemediationThreshold >= c.Assessment.Policy.MasteryThreshold {
		return fmt.Errorf("remediation threshold must be below the mastery threshold")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
