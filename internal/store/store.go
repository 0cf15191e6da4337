// Package store persists small pieces of per-session UI state (cart, wishlist,
// pagination, order drafts). Writes are last-write-wins; every record carries a
// schema version so older shapes can be migrated on read.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists for a namespace/key pair.
var ErrNotFound = errors.New("store: record not found")

// Record is the persisted envelope around a value.
type Record struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"d"`
}

// Store is the raw backend. Implementations: Memory, Redis, Postgres.
type Store interface {
	Load(ctx context.Context, namespace, key string) (Record, error)
	Save(ctx context.Context, namespace, key string, rec Record) error
	Delete(ctx context.Context, namespace, key string) error
}

// Migration upgrades data written at version N to version N+1.
type Migration func(json.RawMessage) (json.RawMessage, error)

// Typed binds a Store namespace to one Go type and schema version.
type Typed[T any] struct {
	store      Store
	namespace  string
	version    int
	migrations map[int]Migration
}

// NewTyped creates a typed view. migrations is keyed by the version a migration upgrades from.
func NewTyped[T any](s Store, namespace string, version int, migrations map[int]Migration) *Typed[T] {
	if version < 1 {
		version = 1
	}
	return &Typed[T]{store: s, namespace: namespace, version: version, migrations: migrations}
}

// Get loads the value for key, or returns init() when nothing is stored yet.
func (t *Typed[T]) Get(ctx context.Context, key string, init func() T) (T, error) {
	rec, err := t.store.Load(ctx, t.namespace, key)
	if errors.Is(err, ErrNotFound) {
		return init(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s/%s: %w", t.namespace, key, err)
	}

	data, err := t.migrate(rec)
	if err != nil {
		var zero T
		return zero, err
	}

	v := init()
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s/%s: %w", t.namespace, key, err)
	}
	return v, nil
}

// Put overwrites the value for key.
func (t *Typed[T]) Put(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.namespace, key, err)
	}
	return t.store.Save(ctx, t.namespace, key, Record{Version: t.version, Data: data})
}

func (t *Typed[T]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.namespace, key)
}

// Update applies fn to the current value and stores the result.
func (t *Typed[T]) Update(ctx context.Context, key string, init func() T, fn func(*T) error) (T, error) {
	v, err := t.Get(ctx, key, init)
	if err != nil {
		return v, err
	}
	if err := fn(&v); err != nil {
		return v, err
	}
	return v, t.Put(ctx, key, v)
}

func (t *Typed[T]) migrate(rec Record) (json.RawMessage, error) {
	data := rec.Data
	if rec.Version > t.version {
		return nil, fmt.Errorf("%s record version %d is newer than supported %d", t.namespace, rec.Version, t.version)
	}
	for v := rec.Version; v < t.version; v++ {
		m, ok := t.migrations[v]
		if !ok {
			return nil, fmt.Errorf("%s: no migration from version %d", t.namespace, v)
		}
		var err error
		if data, err = m(data); err != nil {
			return nil, fmt.Errorf("%s: migrate from version %d: %w", t.namespace, v, err)
		}
	}
	return data, nil
}
