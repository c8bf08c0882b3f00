package cli

import (
	"context"
	"fmt"

	"github.com/mediastore/storefront/internal/config"
	"github.com/mediastore/storefront/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// openStore connects the configured snapshot store. The returned close
// function releases its connections.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.SnapshotStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := store.NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := st.RunMigrations(); err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		log.Info("using sqlite snapshot store", zap.String("path", cfg.SQLite.Path))
		return st, st.Close, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("using redis snapshot store", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		return store.NewRedisStore(client, cfg.Redis.TTL), client.Close, nil

	case config.DriverMongo:
		db, err := store.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		st := store.NewMongoStore(db)
		if err := st.CreateIndexes(ctx); err != nil {
			log.Warn("failed to create snapshot indexes", zap.Error(err))
		}
		log.Info("using mongo snapshot store", zap.String("database", cfg.Mongo.Database))
		return st, func() error { return db.Client().Disconnect(context.Background()) }, nil

	case config.DriverMemory:
		log.Warn("using in-memory snapshot store, the cart will not survive restarts")
		return store.NewMemoryStore(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
