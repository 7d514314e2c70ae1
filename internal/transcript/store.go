package transcript

import (
	"context"
	"time"
)

// Query selects records for listing. DaysBack bounds CreatedAt from below
// (CreatedAt >= now - DaysBack days); Origin, when non-nil, restricts to one
// origin value. Results are always ordered by CreatedAt descending.
type Query struct {
	DaysBack int
	Page     int
	PageSize int
	Origin   *Origin
}

// Since returns the lower CreatedAt bound of the query
func (q Query) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -q.DaysBack)
}

// Page is one page of query results
type Page struct {
	Items         []*Record
	TotalMatching int64
	Page          int
	PageSize      int
	TotalPages    int
}

// Store is the persistence boundary for transcription records
type Store interface {
	// Create persists a record, assigning its ID and CreatedAt.
	Create(ctx context.Context, rec *Record) (*Record, error)

	// List returns one page of records matching the query.
	List(ctx context.Context, q Query) (*Page, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
