package document

import (
	"context"
	"errors"
	"fmt"

	mongostore "github.com/nimburion/bookshelf/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDBExecutor adapts the store/mongodb adapter to the Executor contract.
type MongoDBExecutor struct {
	adapter *mongostore.Adapter
}

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(adapter *mongostore.Adapter) (*MongoDBExecutor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoDBExecutor{adapter: adapter}, nil
}

func (e *MongoDBExecutor) InsertOne(ctx context.Context, collection string, document map[string]interface{}) (interface{}, error) {
	result, err := e.adapter.InsertOne(ctx, collection, bson.M(document))
	if err != nil {
		return nil, err
	}
	return result.InsertedID, nil
}

func (e *MongoDBExecutor) FindOne(ctx context.Context, collection string, filter Filter) (map[string]interface{}, error) {
	out := bson.M{}
	if err := e.adapter.FindOne(ctx, collection, bson.M(filter), &out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return map[string]interface{}(out), nil
}

func (e *MongoDBExecutor) Find(ctx context.Context, collection string, opts QueryOptions) ([]map[string]interface{}, error) {
	filter := bson.M(opts.Filter)
	if filter == nil {
		filter = bson.M{}
	}
	var out []bson.M
	if err := e.adapter.Find(ctx, collection, filter, opts.Pagination.Limit, &out); err != nil {
		return nil, err
	}
	docs := make([]map[string]interface{}, 0, len(out))
	for _, doc := range out {
		docs = append(docs, map[string]interface{}(doc))
	}
	return docs, nil
}

func (e *MongoDBExecutor) UpdateOne(ctx context.Context, collection string, filter Filter, update map[string]interface{}) (int64, error) {
	result, err := e.adapter.UpdateOne(ctx, collection, bson.M(filter), bson.M(update))
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (e *MongoDBExecutor) DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error) {
	result, err := e.adapter.DeleteOne(ctx, collection, bson.M(filter))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Close closes the underlying adapter.
func (e *MongoDBExecutor) Close() error {
	return e.adapter.Close()
}
