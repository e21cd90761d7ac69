package domain

import (
	"cmp"
	"slices"
	"strings"
)

// SortField selects the key used to order a category listing.
type SortField string

const (
	SortByAddedAt   SortField = "addedAt"
	SortByTitle     SortField = "title"
	SortByWatchedAt SortField = "watchedAt"
	SortByRating    SortField = "rating"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortField maps a query value to a SortField.
// Unknown or empty values fall back to SortByAddedAt.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByAddedAt, SortByTitle, SortByWatchedAt, SortByRating:
		return f
	}
	return SortByAddedAt
}

// ParseSortOrder maps a query value to a SortOrder.
// Only "asc" is ascending; everything else is descending.
func ParseSortOrder(s string) SortOrder {
	if s == string(SortAsc) {
		return SortAsc
	}
	return SortDesc
}

// ListQuery controls ordering of a category listing.
type ListQuery struct {
	SortBy SortField
	Order  SortOrder
}

// ByCategory returns copies of the entries filed under c, ordered by q.
// The result is never nil.
func (l *MovieList) ByCategory(c Category, q ListQuery) []MovieEntry {
	out := []MovieEntry{}
	for _, m := range l.Movies {
		if m.Category == c {
			out = append(out, m.clone())
		}
	}
	SortEntries(out, q)
	return out
}

// SortEntries orders entries in place.
//
// Unrated entries (rating 0) and entries without a watchedAt are treated as
// missing when sorting by those fields: they always go last whatever the
// direction, and two missing keys keep their relative order. Other equal keys
// are broken by movieId ascending.
func SortEntries(entries []MovieEntry, q ListQuery) {
	field := ParseSortField(string(q.SortBy))
	desc := q.Order != SortAsc

	slices.SortStableFunc(entries, func(a, b MovieEntry) int {
		var c int
		switch field {
		case SortByRating:
			aMissing, bMissing := a.Rating == 0, b.Rating == 0
			if aMissing || bMissing {
				return missingLast(aMissing, bMissing)
			}
			c = cmp.Compare(a.Rating, b.Rating)
		case SortByWatchedAt:
			aMissing, bMissing := a.WatchedAt == nil, b.WatchedAt == nil
			if aMissing || bMissing {
				return missingLast(aMissing, bMissing)
			}
			c = a.WatchedAt.Compare(*b.WatchedAt)
		case SortByTitle:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			c = a.AddedAt.Compare(b.AddedAt)
		}

		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.MovieID, b.MovieID)
	})
}

func missingLast(aMissing, bMissing bool) int {
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	default:
		return -1
	}
}
