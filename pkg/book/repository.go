package book

import (
	"context"
	"errors"

	"github.com/nimburion/bookshelf/pkg/repository/document"
)

// ErrNotFound is returned when no book has the requested identifier.
var ErrNotFound = errors.New("book not found")

// Repository is the storage-facing side of the catalog.
type Repository interface {
	// FindByID returns ErrNotFound when id is unknown or malformed.
	FindByID(ctx context.Context, id string) (*Book, error)
	// Find returns the books matching opts, never nil.
	Find(ctx context.Context, opts document.QueryOptions) ([]Book, error)
	// Save stores a new book and returns it with its assigned identifier.
	Save(ctx context.Context, in Input) (*Book, error)
	// UpdateFields overwrites the supplied fields of id. found is false when
	// no book has that identifier.
	UpdateFields(ctx context.Context, id string, in Input) (found bool, err error)
	DeleteByID(ctx context.Context, id string) (found bool, err error)
}
