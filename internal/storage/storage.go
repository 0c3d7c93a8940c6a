// Package storage persists raw payloads and cycle reports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned by Get for an unknown key.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the store root.
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a key-value blob store.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	Driver         string `yaml:"driver" validate:"oneof=none memory file sqlite badger postgres"`
	Path           string `yaml:"path"`
	DSN            string `yaml:"dsn"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
}

// DefaultConfig keeps everything in process memory.
func DefaultConfig() Config {
	return Config{Driver: DriverMemory, TimeoutSeconds: 10}
}

// Open returns the store selected by cfg.Driver.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverNone:
		return Nop{}, nil
	case DriverMemory, "":
		return NewBadgerStore(BadgerConfig{InMemory: true}, logger)
	case DriverFile:
		return NewFileStore(cfg.Path, logger)
	case DriverSQLite:
		return NewSQLiteStore(cfg.Path, logger)
	case DriverBadger:
		return NewBadgerStore(BadgerConfig{Path: cfg.Path}, logger)
	case DriverPostgres:
		return NewPostgresStore(cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Nop discards writes.
type Nop struct{}

func (Nop) Save(context.Context, string, []byte) error { return nil }

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

func (Nop) Close() error { return nil }

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
