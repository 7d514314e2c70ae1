package transcript

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in test mode and unit tests.
// Records are copied on the way in and out, so callers can never mutate a
// stored record.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record

	// now is the clock used for CreatedAt assignment and query windows.
	// Tests override it to place records in the past.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// Create persists a record, assigning its ID and CreatedAt
func (s *MemoryStore) Create(ctx context.Context, rec *Record) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *rec
	stored.ID = uuid.New().String()
	stored.CreatedAt = s.now()
	if rec.Session != nil {
		session := *rec.Session
		stored.Session = &session
	}

	s.mu.Lock()
	s.records = append(s.records, &stored)
	s.mu.Unlock()

	out := stored
	return &out, nil
}

// List returns one page of records matching the query
func (s *MemoryStore) List(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	since := q.Since(s.now())

	s.mu.RLock()
	var matching []*Record
	for _, rec := range s.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		if q.Origin != nil && rec.Origin != *q.Origin {
			continue
		}
		matching = append(matching, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	total := int64(len(matching))
	start := (q.Page - 1) * q.PageSize
	if start > len(matching) {
		start = len(matching)
	}
	end := start + q.PageSize
	if end > len(matching) {
		end = len(matching)
	}

	items := make([]*Record, 0, end-start)
	for _, rec := range matching[start:end] {
		out := *rec
		items = append(items, &out)
	}

	return &Page{
		Items:         items,
		TotalMatching: total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
