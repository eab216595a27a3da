// Package memory is an in-memory domain.Store. It honours the same
// transactional contract as the Postgres store: a failed transaction leaves
// no trace. Used by tests and by STORAGE_DRIVER=memory local runs.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/tair/insumos/internal/insumos/domain"
)

type state struct {
	companies   map[string]domain.Company
	branches    map[string]domain.Branch
	itemTypes   map[uint]domain.ItemType
	inspections map[uint]domain.Inspection
	history     map[uint]domain.HistoryRecord
	current     map[uint]domain.CurrentRecord
	seq         map[string]uint
}

func newState() *state {
	return &state{
		companies:   map[string]domain.Company{},
		branches:    map[string]domain.Branch{},
		itemTypes:   map[uint]domain.ItemType{},
		inspections: map[uint]domain.Inspection{},
		history:     map[uint]domain.HistoryRecord{},
		current:     map[uint]domain.CurrentRecord{},
		seq:         map[string]uint{},
	}
}

// clone copies every table. Records are stored by value and their pointer
// fields are never written through, so a shallow copy per map is enough.
func (s *state) clone() *state {
	return &state{
		companies:   maps.Clone(s.companies),
		branches:    maps.Clone(s.branches),
		itemTypes:   maps.Clone(s.itemTypes),
		inspections: maps.Clone(s.inspections),
		history:     maps.Clone(s.history),
		current:     maps.Clone(s.current),
		seq:         maps.Clone(s.seq),
	}
}

func (s *state) next(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

// Store keeps all tables behind one mutex. Transactions hold it for their
// whole duration, so they are fully serialized.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithItemTypes seeds the catalog.
func WithItemTypes(itemTypes ...domain.ItemType) Option {
	return func(s *Store) {
		for _, it := range itemTypes {
			if it.ID == 0 {
				it.ID = s.state.next("insumos")
			} else if it.ID > s.state.seq["insumos"] {
				s.state.seq["insumos"] = it.ID
			}
			s.state.itemTypes[it.ID] = it
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories returns repositories that lock the store per call.
func (s *Store) Repositories() domain.Repositories {
	return s.repositories(&s.mu)
}

// Transaction runs fn against a private snapshot protected by the store lock
// and restores the previous state when fn fails or panics.
func (s *Store) Transaction(ctx context.Context, fn func(repos domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return domain.Transient("system busy, please retry", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	defer func() {
		if r := recover(); r != nil {
			s.state = saved
			panic(r)
		}
		if err != nil {
			s.state = saved
		}
	}()

	return fn(s.repositories(noLock{}))
}

func (s *Store) repositories(l sync.Locker) domain.Repositories {
	t := &tables{store: s, lock: l}
	return domain.Repositories{
		Companies:   companyRepo{t},
		Branches:    branchRepo{t},
		ItemTypes:   itemTypeRepo{t},
		Inspections: inspectionRepo{t},
		History:     historyRepo{t},
		Current:     currentRepo{t},
	}
}

// tables gives repositories access to the live state under the right lock.
type tables struct {
	store *Store
	lock  sync.Locker
}

func (t *tables) with(fn func(st *state) error) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return fn(t.store.state)
}

func (t *tables) now() time.Time {
	return t.store.now()
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

func copySerial(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
