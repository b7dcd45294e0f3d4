// Package store persists the household snapshot and the standalone
// preferences in a durable key-value store. The engine never touches the
// store; callers load once per recompute and pass values in.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// KV is a string key-value store. Get reports whether the key exists.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Settings select and locate a backend.
type Settings struct {
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Open returns the backend named in settings. An empty backend name selects
// SQLite; an empty SQLite path is placed in dataDir.
func Open(ctx context.Context, settings Settings, dataDir string) (KV, error) {
	backend := settings.Backend
	if backend == "" {
		backend = constants.DefaultStoreBackend
	}

	switch backend {
	case constants.StoreBackendMemory:
		return NewMemory(), nil
	case constants.StoreBackendSQLite:
		path := settings.Path
		if path == "" {
			path = filepath.Join(dataDir, constants.DefaultSQLiteFile)
		}
		return OpenSQLite(path)
	case constants.StoreBackendRedis:
		prefix := settings.RedisPrefix
		if prefix == "" {
			prefix = constants.DefaultRedisPrefix
		}
		kv := NewRedis(settings.RedisAddr, prefix)
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, err
		}
		return kv, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
