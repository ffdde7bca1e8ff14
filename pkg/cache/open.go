package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists every backend name.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Config selects and configures a backend.
type Config struct {
	Backend string // one of Backends; empty means file
	Dir     string // file backend directory
	URL     string // redis:// or mongodb:// URL
	Prefix  string // redis key prefix
}

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Open creates the backend described by cfg.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file cache: directory not set")
		}
		return orNil(NewFileCache(cfg.Dir))
	case BackendRedis:
		return orNil(NewRedisCache(ctx, cfg.URL, cfg.Prefix))
	case BackendMongo:
		return orNil(NewMongoCache(ctx, cfg.URL, ""))
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Clear empties c if the backend supports it.
func Clear(ctx context.Context, c Cache) (int, error) {
	switch cc := c.(type) {
	case *FileCache:
		return cc.Clear()
	case Clearer:
		return cc.Clear(ctx)
	case *NullCache:
		return 0, nil
	default:
		return 0, fmt.Errorf("cache backend %T cannot be cleared", c)
	}
}

// orNil converts a concrete backend to Cache, keeping a failed constructor's
// result a true nil interface.
func orNil[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
