package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis lock tests")
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	rdb, err := NewClient(log, Config{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionLocker_ExcludesAndReleases(t *testing.T) {
	rdb := testClient(t)
	log, _ := logger.New("test")
	l := NewSessionLocker(rdb, log, time.Second)
	key := "test-" + uuid.NewString()

	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, key); !types.IsCode(err, types.CodePersistenceUnavailable) {
		t.Fatalf("expected contention to time out as unavailable, got %v", err)
	}

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}

func TestSessionLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	rdb := testClient(t)
	log, _ := logger.New("test")
	l := NewSessionLocker(rdb, log, 300*time.Millisecond)
	key := "test-" + uuid.NewString()

	first, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	time.Sleep(400 * time.Millisecond)
	second, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock after expiry: %v", err)
	}
	first()
	if v, _ := rdb.Get(context.Background(), lockKeyPrefix+key).Result(); v == "" {
		t.Fatalf("stale unlock released the new holder")
	}
	second()
}

func TestNewClientRequiresAddr(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewClient(log, Config{}); err == nil {
		t.Fatalf("expected error without address")
	}
}
