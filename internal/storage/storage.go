// Package storage contains the storage-agnostic repository contract and
// the backend factory. Concrete backends live in subpackages and
// register themselves at init time; importing storage/all enables every
// built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the narrow surface the pipeline needs from a relational
// store. Exec covers DDL and the analytical build statements, Query
// covers validation reads, and Replace is the transactional
// truncate-and-load used to materialize a stage.
type Repository interface {
	// Exec runs one statement and returns the affected row count.
	Exec(ctx context.Context, stmt string) (int64, error)

	// Query runs one statement and returns all rows as column-keyed maps.
	Query(ctx context.Context, stmt string) ([]map[string]any, error)

	// Replace atomically swaps the full contents of table for rows,
	// inside a single transaction. A concurrent reader sees either the
	// old set or the new set, never a partial write.
	Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Kind reports the backend name the repository was built from.
	Kind() string

	Close()
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = fn
}

// New opens a Repository for cfg.Kind. The error for an unknown kind
// lists what is registered, which usually means a missing backend
// import.
func New(ctx context.Context, cfg Config) (Repository, error) {
	registryMu.RLock()
	fn, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage kind %q (registered: %s)",
			cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend kinds in sorted order.
func ListKinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
