package store

import (
	"context"
	"fmt"

	"leadops_backend/platform/config"
)

// Open builds the backend selected by cfg.GetStoreBackend().
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.GetStoreBackend() {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.GetRedisURL(), cfg.GetRedisKeyPrefix())
	case "postgres":
		if err := Migrate(ctx, cfg.GetDatabaseURL()); err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, cfg.GetDatabaseURL())
	case "blob":
		s, err := NewBlobStore(BlobOptions{
			Endpoint:  cfg.GetMinIOEndpoint(),
			AccessKey: cfg.GetMinIOAccessKey(),
			SecretKey: cfg.GetMinIOSecretKey(),
			UseSSL:    cfg.GetMinIOUseSSL(),
			Bucket:    cfg.GetMinIOBucket(),
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "badger":
		return NewBadgerStore(cfg.GetBadgerPath())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.GetStoreBackend())
	}
}
