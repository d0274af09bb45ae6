package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-assessment/internal/clients/mongo"
	"github.com/yungbote/neurobridge-assessment/internal/clients/redis"
	"github.com/yungbote/neurobridge-assessment/internal/data/db"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type Clients struct {
	DB    *db.Service
	Redis *goredis.Client
	Mongo *mongo.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.DB.Driver != DriverMemory {
		svc, err := db.NewService(log, cfg.DB)
		if err != nil {
			return Clients{}, fmt.Errorf("init database: %w", err)
		}
		out.DB = svc
	}

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := redis.NewClient(log, cfg.Redis)
		if err != nil {
			out.Close(ctx)
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}

	if cfg.SessionStore == StoreMongo {
		mc, err := mongo.NewClient(ctx, log, cfg.Mongo)
		if err != nil {
			out.Close(ctx)
			return Clients{}, fmt.Errorf("init mongo: %w", err)
		}
		out.Mongo = mc
	}
	return out, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Mongo != nil {
		_ = c.Mongo.Close(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
