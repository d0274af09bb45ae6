package app

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/neurobridge-assessment/internal/data/db"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/mastery"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(nil)
	if cfg.HTTPAddr != ":8080" || cfg.DB.Driver != db.DriverSQLite || cfg.SessionStore != StoreGorm {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if diff := cmp.Diff(mastery.DefaultParams(), cfg.Assessment.BKT); diff != "" {
		t.Fatalf("BKT defaults (-want +got):\n%s", diff)
	}
	if cfg.Assessment.MaxQuestions != 20 || cfg.Assessment.TopK != 3 || cfg.Assessment.Session.MaxRetries != 3 {
		t.Fatalf("unexpected assessment defaults: %+v", cfg.Assessment)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("ASSESSMENT_P_INIT", "0.5")
	t.Setenv("ASSESSMENT_P_SLIP", "1.7")
	t.Setenv("ASSESSMENT_P_TRANSIT", "0.15")
	t.Setenv("ASSESSMENT_P_GUESS", "0.25")
	t.Setenv("ASSESSMENT_MAX_QUESTIONS", "0")
	t.Setenv("SESSION_LOCK_TTL_MS", "750")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ASSESSMENT_MAX_RETRIES", "nope")

	cfg := LoadConfig(nil)
	if cfg.DB.Driver != db.DriverPostgres || cfg.SessionStore != StoreMemory {
		t.Fatalf("driver/store: %s/%s", cfg.DB.Driver, cfg.SessionStore)
	}
	if cfg.Assessment.BKT.PInit != 0.5 || cfg.Assessment.BKT.PSlip != 1 ||
		cfg.Assessment.BKT.PTransit != 0.15 || cfg.Assessment.BKT.PGuess != 0.25 {
		t.Fatalf("BKT params not read/clamped: %+v", cfg.Assessment.BKT)
	}
	if cfg.Assessment.MaxQuestions != 0 || cfg.SessionLockTTL != 750*time.Millisecond {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.CORSOrigins); diff != "" {
		t.Fatalf("CORS origins (-want +got):\n%s", diff)
	}
	if cfg.Assessment.Session.MaxRetries != 3 {
		t.Fatalf("unparsable retries should fall back to default, got %d", cfg.Assessment.Session.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	base := LoadConfig(nil)
	cases := []struct {
		name string
		mut  func(*Config)
		ok   bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad driver", func(c *Config) { c.DB.Driver = "oracle" }, false},
		{"gorm store without db", func(c *Config) { c.DB.Driver = DriverMemory }, false},
		{"memory everything", func(c *Config) { c.DB.Driver = DriverMemory; c.SessionStore = StoreMemory }, true},
		{"mongo without uri", func(c *Config) { c.SessionStore = StoreMongo }, false},
		{"bad store", func(c *Config) { c.SessionStore = "cassandra" }, false},
		{"negative max", func(c *Config) { c.Assessment.MaxQuestions = -1 }, false},
		{"inverted thresholds", func(c *Config) { c.Assessment.Policy.RemediationThreshold = 0.9 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mut(&c)
			err := c.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate()=%v ok=%v", err, tc.ok)
			}
		})
	}
}
