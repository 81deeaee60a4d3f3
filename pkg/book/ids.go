package book

import "go.mongodb.org/mongo-driver/bson/primitive"

// SanitizeIDs keeps the candidates that are well-formed ObjectID hex strings,
// in first-seen order, without duplicates. Malformed candidates are dropped.
func SanitizeIDs(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	seen := make(map[primitive.ObjectID]struct{}, len(candidates))
	for _, candidate := range candidates {
		oid, err := primitive.ObjectIDFromHex(candidate)
		if err != nil {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// ValidID reports whether id could name a stored book.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
