package document

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errMemoryClosed = errors.New("memory executor is closed")

// MemoryExecutor is an in-process Executor. It keeps documents in insertion
// order and evaluates the subset of the query dialect used by Filter builders:
// literal equality, $in, $gt, $gte, $lt, $lte, and the $set update operator.
type MemoryExecutor struct {
	mu          sync.RWMutex
	collections map[string][]map[string]interface{}
	closed      bool
}

// NewMemoryExecutor creates an empty MemoryExecutor.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{collections: make(map[string][]map[string]interface{})}
}

func (e *MemoryExecutor) InsertOne(_ context.Context, collection string, document map[string]interface{}) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errMemoryClosed
	}

	doc := copyDocument(document)
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	for _, existing := range e.collections[collection] {
		if valuesEqual(existing["_id"], doc["_id"]) {
			return nil, fmt.Errorf("duplicate key _id: %v", doc["_id"])
		}
	}
	e.collections[collection] = append(e.collections[collection], doc)
	return doc["_id"], nil
}

func (e *MemoryExecutor) FindOne(_ context.Context, collection string, filter Filter) (map[string]interface{}, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errMemoryClosed
	}

	for _, doc := range e.collections[collection] {
		if matches(doc, filter) {
			return copyDocument(doc), nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (e *MemoryExecutor) Find(_ context.Context, collection string, opts QueryOptions) ([]map[string]interface{}, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errMemoryClosed
	}

	out := make([]map[string]interface{}, 0)
	for _, doc := range e.collections[collection] {
		if opts.Pagination.Limit > 0 && int64(len(out)) >= opts.Pagination.Limit {
			break
		}
		if matches(doc, opts.Filter) {
			out = append(out, copyDocument(doc))
		}
	}
	return out, nil
}

func (e *MemoryExecutor) UpdateOne(_ context.Context, collection string, filter Filter, update map[string]interface{}) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errMemoryClosed
	}

	set, err := setFields(update)
	if err != nil {
		return 0, err
	}
	for _, doc := range e.collections[collection] {
		if !matches(doc, filter) {
			continue
		}
		for field, value := range set {
			if field == "_id" {
				return 0, fmt.Errorf("field _id is immutable")
			}
			doc[field] = value
		}
		return 1, nil
	}
	return 0, nil
}

func (e *MemoryExecutor) DeleteOne(_ context.Context, collection string, filter Filter) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errMemoryClosed
	}

	docs := e.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			e.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// Close drops all documents. Subsequent calls fail.
func (e *MemoryExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.collections = nil
	return nil
}

func setFields(update map[string]interface{}) (map[string]interface{}, error) {
	set := map[string]interface{}{}
	for op, arg := range update {
		if op != "$set" {
			return nil, fmt.Errorf("unsupported update operator %q", op)
		}
		fields, ok := asDocument(arg)
		if !ok {
			return nil, fmt.Errorf("$set requires a document, got %T", arg)
		}
		for k, v := range fields {
			set[k] = v
		}
	}
	return set, nil
}

func matches(doc map[string]interface{}, filter Filter) bool {
	for field, cond := range filter {
		value, present := doc[field]
		if ops, ok := asDocument(cond); ok && isOperatorDocument(ops) {
			if !matchOperators(value, present, ops) {
				return false
			}
			continue
		}
		if !present || !valuesEqual(value, cond) {
			return false
		}
	}
	return true
}

func matchOperators(value interface{}, present bool, ops map[string]interface{}) bool {
	for op, arg := range ops {
		if !present {
			return false
		}
		switch op {
		case "$in":
			if !containsValue(arg, value) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			c, ok := compareValues(value, arg)
			if !ok {
				return false
			}
			switch {
			case op == "$gt" && c <= 0,
				op == "$gte" && c < 0,
				op == "$lt" && c >= 0,
				op == "$lte" && c > 0:
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isOperatorDocument(m map[string]interface{}) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func asDocument(v interface{}) (map[string]interface{}, bool) {
	switch d := v.(type) {
	case map[string]interface{}:
		return d, true
	case Filter:
		return d, true
	case primitive.M:
		return d, true
	}
	return nil, false
}

func containsValue(list interface{}, value interface{}) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(rv.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two numbers or two strings. ok is false for any other pair.
func compareValues(a, b interface{}) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copyDocument(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
