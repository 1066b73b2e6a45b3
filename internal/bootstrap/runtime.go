// Package bootstrap wires the runtime dependencies of the gateway from config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"applitrack/internal/baas"
	"applitrack/internal/baas/local"
	"applitrack/internal/baas/pocketbase"
	"applitrack/internal/cache"
	"applitrack/internal/config"
	"applitrack/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the initialized dependencies.
type Runtime struct {
	Backend baas.Backend
	Redis   *redis.Client
	db      *gorm.DB
}

// InitRuntime builds the configured backend and connects Redis.
// Redis is optional; Runtime.Redis is nil when it is unset or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	switch cfg.BaaSDriver {
	case config.DriverPocketBase:
		rt.Backend = pocketbase.New(cfg.PocketBaseURL, time.Duration(cfg.BaaSTimeoutSeconds)*time.Second)
	case config.DriverLocal:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		backend := local.New(db, cfg.JWTSecret)
		if err := backend.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("local backend migration failed: %w", err)
		}
		rt.db = db
		rt.Backend = backend
	default:
		return nil, fmt.Errorf("unknown BAAS_DRIVER %q", cfg.BaaSDriver)
	}

	if cfg.RedisURL != "" {
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	return rt, nil
}

// Close releases the database held by the local backend.
// Redis is closed by the server on shutdown.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
