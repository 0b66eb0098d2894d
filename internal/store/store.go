// Package store provides key-value persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// StatsKey is the key the setup memory persists its mapping under.
const StatsKey = "tradingStats"

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// KVStore defines the key-value contract the setup memory persists through.
// Values are opaque JSON documents; each Write replaces the whole value.
type KVStore interface {
	// Read returns the stored value and whether the key exists.
	Read(ctx context.Context, key string) ([]byte, bool, error)
	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key string, value []byte) error
	// Close releases the underlying resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	DataDir       string
	SQLitePath    string
	BadgerDir     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the KVStore named by opts.Backend. Empty defaults to SQLite.
func Open(opts Options) (KVStore, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "memory.db")
		}
		return NewSQLiteStore(path)
	case BackendBadger:
		dir := opts.BadgerDir
		if dir == "" {
			dir = filepath.Join(opts.DataDir, "badger")
		}
		return NewBadgerStore(dir)
	case BackendRedis:
		return NewRedisStore(RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}
