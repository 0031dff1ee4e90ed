package auth

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/storefront-console/storefront/internal/config"
	"github.com/storefront-console/storefront/internal/interfaces"
)

// OpenStore builds the token store selected in cfg. The returned close
// function is never nil.
func OpenStore(ctx context.Context, cfg config.TokenStoreConfig, dataDir string) (interfaces.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), noop, nil

	case "redis":
		store, err := NewRedisStore(ctx, redisConfig(cfg))
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case "file", "":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(dataDir, "token")
		}
		security, err := config.NewSecurityManager(filepath.Join(dataDir, "security"))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize security manager: %w", err)
		}
		store, err := NewFileStore(path, security)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported token store backend: %s", cfg.Backend)
	}
}

func redisConfig(cfg config.TokenStoreConfig) RedisConfig {
	return RedisConfig{
		URL:       cfg.Redis.URL,
		Password:  cfg.Redis.Password,
		KeyPrefix: cfg.Redis.KeyPrefix,
	}
}
