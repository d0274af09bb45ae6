package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Client owns the driver client and the database the session store writes to.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, fmt.Errorf("missing MONGO_URI")
	}
	name := strings.TrimSpace(cfg.Database)
	if name == "" {
		name = "neurobridge_assessment"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	l := log.With("service", "MongoClient")
	l.Info("mongo connected", "database", name)
	return &Client{client: client, db: client.Database(name), log: l}, nil
}

func (c *Client) Database() *mongo.Database { return c.db }

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
