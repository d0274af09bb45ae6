package db

import (
	"testing"

	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

func TestSQLiteServiceMigrates(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc, err := NewService(log, Config{Driver: DriverSQLite, SQLitePath: "file:migrate_test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("migrations must be re-runnable: %v", err)
	}
	if !svc.DB().Migrator().HasIndex("assessment_session", "idx_assessment_session_open") {
		t.Fatalf("missing partial index")
	}
}

func TestUnsupportedDriver(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewService(log, Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
