package location

import "context"

// Repository defines the persistence contract for location records.
type Repository interface {
	// Get retrieves a record with its owned current and daily rows.
	// Returns ErrNotFound if no record exists for the id.
	Get(ctx context.Context, id int) (*Record, error)

	// List retrieves all records sorted by name.
	List(ctx context.Context) ([]*Record, error)

	// Replace atomically creates or updates the record, replacing its
	// owned current and daily rows wholesale. Stale children must not
	// survive a replace.
	Replace(ctx context.Context, rec *Record) error

	// Delete removes the record and cascades deletion of its owned
	// current and daily rows. Returns ErrNotFound if no record exists
	// for the id.
	Delete(ctx context.Context, id int) error

	// SetFavorite updates only the favorite flag of an existing record.
	// Returns ErrNotFound if no record exists for the id.
	SetFavorite(ctx context.Context, id int, favorite bool) error
}
