// Package store owns the canonical expense list and keeps it in a durable slot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"spendlog/internal/core"
	"spendlog/internal/storage"
	"spendlog/internal/utils"
)

// DefaultKey is the slot key holding the serialized expense list.
const DefaultKey = "smart_expense_tracker_data"

// createdAtLayout matches JavaScript's Date.toISOString output.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// CorruptKey is where a list that failed to decode is copied before it can
// be overwritten.
func CorruptKey(key string) string {
	return key + ".corrupt"
}

// ErrPersist marks a mutation that was applied in memory but could not be
// written to the slot. Callers should treat it as a warning.
var ErrPersist = errors.New("persist expenses")

type Option func(*Store)

// WithClock sets the clock used for CreatedAt.
func WithClock(c utils.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithKey changes the slot key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

type Store struct {
	mu    sync.Mutex
	slot  storage.Slot
	key   string
	clock utils.Clock
	newID func() string
	items []core.Expense
}

// New builds a store and loads its list from slot. A missing or unreadable
// slot yields an empty list.
func New(ctx context.Context, slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		slot:  slot,
		key:   DefaultKey,
		clock: utils.SystemClock{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []core.Expense {
	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "No saved expenses, starting empty", "component", "store", "key", s.key)
		return []core.Expense{}
	}
	if err != nil {
		slog.WarnContext(ctx, "Expense slot unreadable, starting empty", "component", "store", "key", s.key, "error", err)
		return []core.Expense{}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		slog.WarnContext(ctx, "Expense slot corrupt, starting empty", "component", "store", "key", s.key, "error", err)
		s.keepCorrupt(ctx, data)
		return []core.Expense{}
	}

	items := make([]core.Expense, 0, len(raws))
	for i, raw := range raws {
		var e core.Expense
		if err := json.Unmarshal(raw, &e); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable expense record", "component", "store", "index", i, "error", err)
			continue
		}
		items = append(items, e)
	}
	if len(items) < len(raws) {
		s.keepCorrupt(ctx, data)
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if _, dup := seen[items[i].ID]; dup || items[i].ID == "" {
			fresh := s.freshID(seen)
			slog.WarnContext(ctx, "Reassigned duplicate expense id", "component", "store", "old_id", items[i].ID, "new_id", fresh)
			items[i].ID = fresh
		}
		seen[items[i].ID] = struct{}{}
	}

	slog.InfoContext(ctx, "Loaded expenses", "component", "store", "key", s.key, "count", len(items))
	return items
}

// keepCorrupt copies slot contents that did not fully decode to CorruptKey,
// since the next mutation rewrites the main key.
func (s *Store) keepCorrupt(ctx context.Context, data []byte) {
	key := CorruptKey(s.key)
	if err := s.slot.Put(ctx, key, data); err != nil {
		slog.ErrorContext(ctx, "Failed to keep copy of corrupt expense data", "component", "store", "key", key, "error", err)
		return
	}
	slog.WarnContext(ctx, "Kept copy of corrupt expense data", "component", "store", "key", key)
}

// Add assigns an id and creation timestamp, appends the record and persists.
// The returned record is valid even when err wraps ErrPersist.
func (s *Store) Add(ctx context.Context, fields core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := fields
	rec.ID = s.freshID(s.ids())
	rec.CreatedAt = s.clock.Now().UTC().Format(createdAtLayout)
	s.items = append(s.items, rec)

	return rec, s.persist(ctx)
}

// Update merges patch into the record with id and returns the result. It
// reports false, without writing, when no record matches.
func (s *Store) Update(ctx context.Context, id string, patch core.Patch) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, false, nil
	}
	s.items[i] = patch.Apply(s.items[i])
	return s.items[i], true, s.persist(ctx)
}

// Delete removes the record with id and reports whether it was there.
// Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return true, s.persist(ctx)
}

// GetByID returns the record with id.
func (s *Store) GetByID(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, false
	}
	return s.items[i], true
}

// All returns a copy of the list in insertion order.
func (s *Store) All() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Import appends previously saved records in one write. Records without an
// id or timestamp get one; records whose id is already present are skipped.
func (s *Store) Import(ctx context.Context, records []core.Expense) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := s.ids()
	added := 0
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = s.freshID(seen)
		} else if _, dup := seen[rec.ID]; dup {
			slog.DebugContext(ctx, "Skipping already present expense", "component", "store", "id", rec.ID)
			continue
		}
		if rec.CreatedAt == "" {
			rec.CreatedAt = s.clock.Now().UTC().Format(createdAtLayout)
		}
		seen[rec.ID] = struct{}{}
		s.items = append(s.items, rec)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}
	if err := s.slot.Put(ctx, s.key, data); err != nil {
		slog.WarnContext(ctx, "Expense list kept in memory only", "component", "store", "key", s.key, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ids() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.items))
	for _, e := range s.items {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// freshID draws ids until one is unused. A misbehaving generator falls back
// to UUIDs after a few attempts.
func (s *Store) freshID(taken map[string]struct{}) string {
	for attempt := 0; ; attempt++ {
		var id string
		if attempt < 3 {
			id = s.newID()
		} else {
			id = uuid.NewString()
		}
		if _, dup := taken[id]; !dup && id != "" {
			return id
		}
	}
}
