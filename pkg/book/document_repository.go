package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimburion/bookshelf/pkg/observability/tracing"
	"github.com/nimburion/bookshelf/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCollection is the collection books are stored in.
const DefaultCollection = "books"

// DocumentRepository stores books through a document.Executor.
type DocumentRepository struct {
	exec       document.Executor
	collection string
}

func NewDocumentRepository(exec document.Executor, collection string) (*DocumentRepository, error) {
	if exec == nil {
		return nil, fmt.Errorf("document executor is required")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &DocumentRepository{exec: exec, collection: collection}, nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (_ *Book, err error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, span := r.span(ctx, tracing.SpanOperationDBQuery)
	defer func() { tracing.End(span, ignoreNotFound(err)) }()

	doc, err := r.exec.FindOne(ctx, r.collection, document.Eq("_id", oid))
	if err != nil {
		if errors.Is(err, document.ErrDocumentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find book %s: %w", id, err)
	}
	b, err := decodeBook(doc)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *DocumentRepository) Find(ctx context.Context, opts document.QueryOptions) (_ []Book, err error) {
	ctx, span := r.span(ctx, tracing.SpanOperationDBQuery)
	defer func() { tracing.End(span, err) }()

	docs, err := r.exec.Find(ctx, r.collection, opts)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	books := make([]Book, 0, len(docs))
	for _, doc := range docs {
		b, err := decodeBook(doc)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *DocumentRepository) Save(ctx context.Context, in Input) (_ *Book, err error) {
	ctx, span := r.span(ctx, tracing.SpanOperationDBInsert)
	defer func() { tracing.End(span, err) }()

	doc := in.fields()
	doc["_id"] = primitive.NewObjectID()
	insertedID, err := r.exec.InsertOne(ctx, r.collection, doc)
	if err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	oid, ok := insertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("save book: unexpected identifier type %T", insertedID)
	}
	return &Book{ID: oid.Hex(), Author: in.Author, Title: in.Title, Year: in.Year}, nil
}

func (r *DocumentRepository) UpdateFields(ctx context.Context, id string, in Input) (_ bool, err error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	if in.IsEmpty() {
		if _, err := r.FindByID(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	ctx, span := r.span(ctx, tracing.SpanOperationDBUpdate)
	defer func() { tracing.End(span, err) }()

	matched, err := r.exec.UpdateOne(ctx, r.collection, document.Eq("_id", oid), map[string]interface{}{
		"$set": in.fields(),
	})
	if err != nil {
		return false, fmt.Errorf("update book %s: %w", id, err)
	}
	return matched > 0, nil
}

func (r *DocumentRepository) DeleteByID(ctx context.Context, id string) (_ bool, err error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, span := r.span(ctx, tracing.SpanOperationDBDelete)
	defer func() { tracing.End(span, err) }()

	deleted, err := r.exec.DeleteOne(ctx, r.collection, document.Eq("_id", oid))
	if err != nil {
		return false, fmt.Errorf("delete book %s: %w", id, err)
	}
	return deleted > 0, nil
}

func (r *DocumentRepository) span(ctx context.Context, op tracing.SpanOperation) (context.Context, trace.Span) {
	return tracing.StartDatabaseSpan(ctx, op,
		tracing.WithDBSystem("mongodb"),
		tracing.WithDBCollection(r.collection),
	)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
