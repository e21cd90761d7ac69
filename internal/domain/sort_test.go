package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(entries []MovieEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func ratedList(t *testing.T) *MovieList {
	t.Helper()
	l := NewMovieList(uuid.New())
	fixtures := []struct {
		id, title string
		rating    float64
	}{
		{"b", "B", 0},
		{"a", "A", 4},
		{"c", "C", 0},
		{"d", "d", 2},
	}
	for i, f := range fixtures {
		_, err := l.Add(NewEntry{MovieID: f.id, Title: f.title, Category: CategoryWatched}, t0.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		_, err = l.Update(f.id, EntryPatch{Rating: ptr(f.rating)}, t0)
		require.NoError(t, err)
	}
	return l
}

func TestSortEntries_RatingUnratedLast(t *testing.T) {
	l := ratedList(t)

	asc := l.ByCategory(CategoryWatched, ListQuery{SortBy: SortByRating, Order: SortAsc})
	assert.Equal(t, []string{"d", "A", "B", "C"}, titles(asc))

	desc := l.ByCategory(CategoryWatched, ListQuery{SortBy: SortByRating, Order: SortDesc})
	assert.Equal(t, []string{"A", "d", "B", "C"}, titles(desc))
}

func TestSortEntries_TitleCaseInsensitive(t *testing.T) {
	l := ratedList(t)

	asc := l.ByCategory(CategoryWatched, ListQuery{SortBy: SortByTitle, Order: SortAsc})
	assert.Equal(t, []string{"A", "B", "C", "d"}, titles(asc))

	desc := l.ByCategory(CategoryWatched, ListQuery{SortBy: SortByTitle, Order: "sideways"})
	assert.Equal(t, []string{"d", "C", "B", "A"}, titles(desc))
}

func TestSortEntries_AddedAtDefaultDescending(t *testing.T) {
	l := ratedList(t)

	got := l.ByCategory(CategoryWatched, ListQuery{})
	assert.Equal(t, []string{"d", "C", "A", "B"}, titles(got))

	got = l.ByCategory(CategoryWatched, ListQuery{SortBy: "popularity", Order: SortAsc})
	assert.Equal(t, []string{"B", "A", "C", "d"}, titles(got))
}

func TestSortEntries_WatchedAtMissingLast(t *testing.T) {
	entries := []MovieEntry{
		{MovieID: "1", Title: "never"},
		{MovieID: "2", Title: "late", WatchedAt: ptr(t0.Add(time.Hour))},
		{MovieID: "3", Title: "early", WatchedAt: ptr(t0)},
	}

	SortEntries(entries, ListQuery{SortBy: SortByWatchedAt, Order: SortAsc})
	assert.Equal(t, []string{"early", "late", "never"}, titles(entries))

	SortEntries(entries, ListQuery{SortBy: SortByWatchedAt, Order: SortDesc})
	assert.Equal(t, []string{"late", "early", "never"}, titles(entries))
}

func TestSortEntries_EqualKeysBrokenByMovieID(t *testing.T) {
	entries := []MovieEntry{
		{MovieID: "z", Title: "Same", AddedAt: t0},
		{MovieID: "a", Title: "same", AddedAt: t0},
	}

	SortEntries(entries, ListQuery{SortBy: SortByTitle, Order: SortDesc})
	assert.Equal(t, "a", entries[0].MovieID)

	SortEntries(entries, ListQuery{SortBy: SortByAddedAt, Order: SortAsc})
	assert.Equal(t, "a", entries[0].MovieID)
}

func TestByCategory_Isolation(t *testing.T) {
	l := NewMovieList(uuid.New())
	_, err := l.Add(NewEntry{MovieID: "1", Title: "Later"}, t0)
	require.NoError(t, err)
	_, err = l.Add(NewEntry{MovieID: "2", Title: "Seen", Category: CategoryWatched}, t0)
	require.NoError(t, err)

	for _, field := range []SortField{SortByAddedAt, SortByTitle, SortByWatchedAt, SortByRating} {
		for _, order := range []SortOrder{SortAsc, SortDesc} {
			got := l.ByCategory(CategoryWatched, ListQuery{SortBy: field, Order: order})
			require.Len(t, got, 1)
			assert.Equal(t, "2", got[0].MovieID)
		}
	}

	empty := l.ByCategory(CategoryFavorite, ListQuery{})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortByRating, ParseSortField("rating"))
	assert.Equal(t, SortByAddedAt, ParseSortField(""))
	assert.Equal(t, SortByAddedAt, ParseSortField("RATING"))
	assert.Equal(t, SortAsc, ParseSortOrder("asc"))
	assert.Equal(t, SortDesc, ParseSortOrder("ASC"))
	assert.Equal(t, SortDesc, ParseSortOrder(""))
}
