package book

import (
	"strconv"
	"strings"
	"time"

	"github.com/nimburion/bookshelf/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows a list query. At most one of IDs, Author or the
// StartDate/EndDate pair takes effect; see Resolve.
type Filter struct {
	IDs       []string `json:"ids,omitempty"`
	Author    *string  `json:"author,omitempty"`
	StartDate *string  `json:"startDate,omitempty"`
	EndDate   *string  `json:"endDate,omitempty"`
}

// Strategy is the retrieval strategy chosen for a list query.
type Strategy string

const (
	StrategyUnfiltered  Strategy = "unfiltered"
	StrategyByIDs       Strategy = "by_ids"
	StrategyByAuthor    Strategy = "by_author"
	StrategyByYearRange Strategy = "by_year_range"
	StrategyNoMatch     Strategy = "no_match"
)

// Plan is the outcome of Resolve. Only the fields of its Strategy are set.
type Plan struct {
	Strategy Strategy

	// Limit bounds an unfiltered scan; 0 means unbounded.
	Limit int64

	// IDs holds the well-formed identifiers of a by_ids plan, possibly none.
	IDs []string
	// Dropped counts the identifiers SanitizeIDs discarded.
	Dropped int

	Author string

	StartYear int
	EndYear   int
}

// Resolve picks exactly one strategy for (filter, limit). The first matching
// rule wins:
//
//  1. no filter: unfiltered scan bounded by limit
//  2. non-empty IDs: lookup by the well-formed identifiers, even if none survive
//  3. Author: exact, case-sensitive equality
//  4. StartDate and EndDate both parseable: inclusive year range
//  5. anything else: no match
//
// Resolve never fails; malformed input narrows the result instead.
func Resolve(filter *Filter, limit *int) Plan {
	switch {
	case filter == nil:
		return Plan{Strategy: StrategyUnfiltered, Limit: normalizeLimit(limit)}
	case len(filter.IDs) > 0:
		ids := SanitizeIDs(filter.IDs)
		return Plan{Strategy: StrategyByIDs, IDs: ids, Dropped: len(filter.IDs) - len(ids)}
	case filter.Author != nil:
		return Plan{Strategy: StrategyByAuthor, Author: *filter.Author}
	}

	start, okStart := parseBound(filter.StartDate)
	end, okEnd := parseBound(filter.EndDate)
	if okStart && okEnd {
		return Plan{Strategy: StrategyByYearRange, StartYear: start, EndYear: end}
	}
	return Plan{Strategy: StrategyNoMatch}
}

// Query renders the plan as a storage query. ok is false when the plan can
// only yield an empty result, in which case storage must not be queried.
func (p Plan) Query() (opts document.QueryOptions, ok bool) {
	switch p.Strategy {
	case StrategyUnfiltered:
		return document.QueryOptions{
			Filter:     document.Filter{},
			Pagination: document.Pagination{Limit: p.Limit},
		}, true
	case StrategyByIDs:
		oids := make([]interface{}, 0, len(p.IDs))
		for _, id := range p.IDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				oids = append(oids, oid)
			}
		}
		if len(oids) == 0 {
			return document.QueryOptions{}, false
		}
		return document.QueryOptions{Filter: document.In("_id", oids)}, true
	case StrategyByAuthor:
		return document.QueryOptions{Filter: document.Eq("author", p.Author)}, true
	case StrategyByYearRange:
		return document.QueryOptions{Filter: document.Between("year", p.StartYear, p.EndYear)}, true
	}
	return document.QueryOptions{}, false
}

// ParseYear reads a year bound. It accepts a decimal integer ("1950", "-44")
// or a date whose year is used ("1950-06-01", RFC 3339 timestamps).
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if year, err := strconv.Atoi(s); err == nil {
		return year, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

func parseBound(s *string) (int, bool) {
	if s == nil {
		return 0, false
	}
	return ParseYear(*s)
}

func normalizeLimit(limit *int) int64 {
	if limit == nil || *limit <= 0 {
		return 0
	}
	return int64(*limit)
}
