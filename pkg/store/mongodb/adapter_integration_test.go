package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestAdapter_Integration(t *testing.T) {
	url := testutil.StartMongo(t)
	ctx := context.Background()

	a, err := NewAdapter(Config{URL: url, Database: "graphql-book", OperationTimeout: 5 * time.Second}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	defer a.Close()

	if err := a.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if err := a.EnsureIndexes(ctx, Index{Collection: "books", Field: "author"}, Index{Collection: "books", Field: "year"}); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}

	for _, year := range []int{1949, 1955, 1960} {
		if _, err := a.InsertOne(ctx, "books", bson.M{"title": "t", "year": year}); err != nil {
			t.Fatalf("InsertOne() error = %v", err)
		}
	}

	var limited []bson.M
	if err := a.Find(ctx, "books", bson.M{}, 2, &limited); err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(limited))
	}

	var ranged []bson.M
	if err := a.Find(ctx, "books", bson.M{"year": bson.M{"$gte": 1950, "$lte": 1960}}, 0, &ranged); err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("expected 2 documents in range, got %d", len(ranged))
	}

	if _, err := a.UpdateOne(ctx, "books", bson.M{"year": 1949}, bson.M{"$set": bson.M{"title": "updated"}}); err != nil {
		t.Fatalf("UpdateOne() error = %v", err)
	}
	var got bson.M
	if err := a.FindOne(ctx, "books", bson.M{"year": 1949}, &got); err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got["title"] != "updated" {
		t.Fatalf("title = %v, want updated", got["title"])
	}

	res, err := a.DeleteOne(ctx, "books", bson.M{"year": 1949})
	if err != nil || res.DeletedCount != 1 {
		t.Fatalf("DeleteOne() = %v, %v", res, err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Ping(ctx); err == nil {
		t.Fatal("expected ping to fail after close")
	}
}
