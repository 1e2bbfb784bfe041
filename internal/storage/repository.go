// Package storage contains the storage-agnostic repository contract and the
// backend factory. Concrete backends (mysql, postgres, sqlite) register
// themselves at init time; callers open a Repository through New and stay
// backend-agnostic from then on.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cdcetl/pkg/records"
)

// Config selects and configures a backend.
type Config struct {
	Kind string // registered backend name, e.g. "mysql"
	DSN  string // backend-specific connection string
}

// GroupCount is one row of an aggregate query result: a group label and the
// number of cases in it.
type GroupCount struct {
	Group string
	Count int64
}

// Repository is the storage contract the pipeline and the query commands
// depend on. UpsertCases applies one cleaned batch transactionally: on a key
// collision the stored row keeps its identity and only the volatile outcome
// columns are overwritten. The returned count is the driver-reported number
// of affected rows.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	UpsertCases(ctx context.Context, recs []records.Record) (int64, error)
	TotalCasesByState(ctx context.Context, state string) ([]GroupCount, error)
	CasesByAgeGroup(ctx context.Context) ([]GroupCount, error)
	CasesBySex(ctx context.Context) ([]GroupCount, error)
	Close()
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New opens a Repository for cfg.Kind. The backend package must have been
// imported (usually via storage/all) for its factory to be registered.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}
