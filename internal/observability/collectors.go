package observability

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// Pinger is satisfied by the mongo client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StartDBCollector samples the connection pool behind db until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go tick(ctx, scrapeInterval(), func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: db stats unavailable", "error", err)
			}
			return
		}
		stats := sqlDB.Stats()
		m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
		m.dbStats.Set(float64(stats.InUse), "in_use")
		m.dbStats.Set(float64(stats.Idle), "idle")
		m.dbStats.Set(float64(stats.WaitCount), "wait_count")
		m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

// StartRedisCollector pings the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go tick(ctx, scrapeInterval(), func() {
		m.probe(ctx, log, "redis", m.redisUp, m.redisPing, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	})
}

func (m *Metrics) StartMongoCollector(ctx context.Context, log *logger.Logger, p Pinger) {
	if m == nil || p == nil {
		return
	}
	go tick(ctx, scrapeInterval(), func() {
		m.probe(ctx, log, "mongo", m.mongoUp, m.mongoPing, p.Ping)
	})
}

func (m *Metrics) probe(ctx context.Context, log *logger.Logger, name string, up, latency *Gauge, ping func(context.Context) error) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := ping(pingCtx); err != nil {
		up.Set(0)
		if log != nil && ctx.Err() == nil {
			log.Warn("metrics: ping failed", "target", name, "error", err)
		}
		return
	}
	up.Set(1)
	latency.Set(time.Since(start).Seconds())
}

func tick(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
