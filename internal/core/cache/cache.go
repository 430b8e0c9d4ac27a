package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"
)

// Store 快取介面，未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Stats() map[string]interface{}
	Close() error
}

// Key 由多個片段組成快取鍵，片段以 SHA-256 雜湊避免過長
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return namespace + ":" + hex.EncodeToString(hash[:])
}

// New 依設定建立快取，停用時回傳 nil
func New(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		store, err := NewRedisStore(&cfg.Cache)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return NewManager(&cfg.Cache), nil
	}
}
