package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/taskboard-backend/internal/cache"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// Clients holds the optional redis-backed collaborators. Without REDIS_ADDR
// every field stays nil and the report cache is disabled.
type Clients struct {
	Redis     goredis.UniversalClient
	Cache     cache.Cache
	Publisher events.Publisher
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		log.Info("REDIS_ADDR not set; report cache and event publishing disabled")
		return Clients{}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping: %w", err)
	}

	return Clients{
		Redis:     rdb,
		Cache:     cache.NewRedis(rdb, "taskboard:", cfg.CacheTTL()),
		Publisher: events.NewRedisPublisher(rdb, cfg.Redis.Channel, log, metrics),
	}, nil
}

func (c Clients) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
