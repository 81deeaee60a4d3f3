// Package book implements the book catalog: the record types, the filter
// resolver behind filtered list queries, the repository contract and its
// document-store implementations, and the HTTP handlers.
package book

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a catalog record. Every field except ID is optional.
type Book struct {
	ID     string  `json:"id"`
	Author *string `json:"author,omitempty"`
	Title  *string `json:"title,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

// Input carries the fields supplied to create or update. Nil fields are not written.
type Input struct {
	Author *string `json:"author,omitempty"`
	Title  *string `json:"title,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

// IsEmpty reports whether no field was supplied.
func (in Input) IsEmpty() bool {
	return in.Author == nil && in.Title == nil && in.Year == nil
}

// fields returns the supplied fields keyed by their stored name.
func (in Input) fields() map[string]interface{} {
	out := make(map[string]interface{}, 3)
	if in.Author != nil {
		out["author"] = *in.Author
	}
	if in.Title != nil {
		out["title"] = *in.Title
	}
	if in.Year != nil {
		out["year"] = *in.Year
	}
	return out
}

// storedBook is the stored shape of a Book.
type storedBook struct {
	ID     primitive.ObjectID `bson:"_id"`
	Author *string            `bson:"author,omitempty"`
	Title  *string            `bson:"title,omitempty"`
	Year   *int               `bson:"year,omitempty"`
}

// decodeBook converts a raw stored document into a Book. Fields the catalog
// does not know about are ignored.
func decodeBook(doc map[string]interface{}) (Book, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return Book{}, fmt.Errorf("encode book document: %w", err)
	}
	var stored storedBook
	if err := bson.Unmarshal(raw, &stored); err != nil {
		return Book{}, fmt.Errorf("decode book document: %w", err)
	}
	return Book{
		ID:     stored.ID.Hex(),
		Author: stored.Author,
		Title:  stored.Title,
		Year:   stored.Year,
	}, nil
}
