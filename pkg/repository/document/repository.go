package document

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned by Executor.FindOne when nothing matches.
var ErrDocumentNotFound = errors.New("document not found")

// Filter is a predicate in the MongoDB query dialect. An empty Filter matches
// every document. Values are either literals (equality) or operator documents
// such as {"$in": [...]}, {"$gte": x, "$lte": y}.
type Filter map[string]interface{}

// Eq matches documents whose field equals value exactly.
func Eq(field string, value interface{}) Filter {
	return Filter{field: value}
}

// In matches documents whose field equals any of values.
func In(field string, values []interface{}) Filter {
	return Filter{field: map[string]interface{}{"$in": values}}
}

// Between matches documents whose field lies in [lo, hi].
func Between(field string, lo, hi interface{}) Filter {
	return Filter{field: map[string]interface{}{"$gte": lo, "$lte": hi}}
}

// Pagination bounds the number of returned documents. Limit <= 0 means unbounded.
type Pagination struct {
	Limit int64
}

// QueryOptions encapsulates filtering and pagination options for document queries.
type QueryOptions struct {
	Filter     Filter
	Pagination Pagination
}

// Executor is the storage contract document repositories are built on.
type Executor interface {
	// InsertOne stores document and returns its identifier. A missing "_id" is assigned by the store.
	InsertOne(ctx context.Context, collection string, document map[string]interface{}) (interface{}, error)
	FindOne(ctx context.Context, collection string, filter Filter) (map[string]interface{}, error)
	Find(ctx context.Context, collection string, opts QueryOptions) ([]map[string]interface{}, error)
	// UpdateOne applies update to the first match and returns the matched count.
	UpdateOne(ctx context.Context, collection string, filter Filter, update map[string]interface{}) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	Close() error
}
