package book

import (
	"context"
	"errors"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/observability/metrics"
	"github.com/nimburion/bookshelf/pkg/observability/tracing"
	"github.com/nimburion/bookshelf/pkg/repository/document"
)

// Service exposes the catalog operations. Only Search involves any decision
// logic; every other method passes straight through to the Repository.
// Storage errors are returned as they are and never retried.
type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Get returns the book with the given identifier or ErrNotFound.
// Malformed identifiers are reported as ErrNotFound without reaching storage.
func (s *Service) Get(ctx context.Context, id string) (*Book, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// List returns up to limit books in storage order; a nil or non-positive limit means all.
func (s *Service) List(ctx context.Context, limit *int) ([]Book, error) {
	return s.repo.Find(ctx, document.QueryOptions{
		Pagination: document.Pagination{Limit: normalizeLimit(limit)},
	})
}

// Search returns the books selected by Resolve(filter, limit). The result is
// never nil; a filter that matches no strategy yields an empty slice.
func (s *Service) Search(ctx context.Context, filter *Filter, limit *int) ([]Book, error) {
	plan := Resolve(filter, limit)
	metrics.RecordFilterResolution(string(plan.Strategy))
	tracing.Annotate(ctx, "book.filter.strategy", string(plan.Strategy))
	s.logger.WithContext(ctx).Debug("book filter resolved",
		"strategy", plan.Strategy,
		"dropped_ids", plan.Dropped,
	)

	opts, ok := plan.Query()
	if !ok {
		return []Book{}, nil
	}
	return s.repo.Find(ctx, opts)
}

// Create stores a new book and returns its identifier.
func (s *Service) Create(ctx context.Context, in Input) (string, error) {
	b, err := s.repo.Save(ctx, in)
	if err != nil {
		return "", err
	}
	s.logger.WithContext(ctx).Info("book created", "id", b.ID)
	return b.ID, nil
}

// Update overwrites the supplied fields and echoes id. Updating an unknown or
// malformed identifier, or supplying no fields, is a no-op.
func (s *Service) Update(ctx context.Context, id string, in Input) (string, error) {
	if !ValidID(id) || in.IsEmpty() {
		return id, nil
	}
	found, err := s.repo.UpdateFields(ctx, id, in)
	if err != nil {
		return "", err
	}
	if !found {
		s.logger.WithContext(ctx).Debug("update of unknown book ignored", "id", id)
	}
	return id, nil
}

// Delete removes the book and echoes id. Deleting an unknown or malformed
// identifier is a no-op.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	if !ValidID(id) {
		return id, nil
	}
	found, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return "", err
	}
	if found {
		s.logger.WithContext(ctx).Info("book deleted", "id", id)
	}
	return id, nil
}

// IsNotFound reports whether err means the book does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
