package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/peterbourgon/diskv/v3"
)

// Gateway is the persistence contract the core consumes. Values are JSON
// documents keyed by the Key* constants. Get reports absence via the bool
// so callers can default without treating a fresh store as an error.
//
// Put is synchronous; mutation paths never call it directly but go through
// a Writer so a slow or failing disk cannot block a state transition.
type Gateway interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Put(key string, value any) error
	Watch(ctx context.Context) (<-chan ChangeEvent, error)
}

// Open creates a Gateway backed by diskv using the provided config.
func Open(cfg Config) (Gateway, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	return &gateway{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	}), basePath: basePath}, nil
}

type gateway struct {
	d        *diskv.Diskv
	basePath string
}

func (g *gateway) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !g.d.Has(key) {
		return false, nil
	}
	data, err := g.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: read %s: %w", key, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

func (g *gateway) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := g.d.Write(key, data); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}
