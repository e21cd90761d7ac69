package domain

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Entry constraints.
const (
	// MaxRating is the highest rating a user can give. 0 means unrated.
	MaxRating = 5

	// MaxTags is the maximum number of tags per entry.
	MaxTags = 10

	// MaxReviewLength is the maximum review length in characters.
	MaxReviewLength = 1000
)

// Category is the watch-status bucket a movie is filed under.
type Category string

const (
	// CategoryToWatch is the default bucket for newly added movies.
	CategoryToWatch Category = "toWatch"

	// CategoryWatched marks movies the user has seen.
	CategoryWatched Category = "watched"

	// CategoryFavorite marks favourite movies.
	CategoryFavorite Category = "favorite"
)

// IsValid returns true if the category is one of the known buckets.
func (c Category) IsValid() bool {
	switch c {
	case CategoryToWatch, CategoryWatched, CategoryFavorite:
		return true
	}
	return false
}

// MovieEntry is one tracked movie inside a MovieList.
// It has no identity outside its owning list.
type MovieEntry struct {
	// MovieID is the external catalog identifier, unique within one list.
	MovieID string `json:"movieId" bson:"movie_id"`

	// Title is the display title.
	Title string `json:"title" bson:"title"`

	// PosterPath is the catalog image path (not validated).
	PosterPath string `json:"posterPath,omitempty" bson:"poster_path,omitempty"`

	// Category is the watch-status bucket.
	Category Category `json:"category" bson:"category"`

	// Rating is 0 (unrated) through MaxRating.
	Rating int `json:"rating" bson:"rating"`

	// Review is optional free text of at most MaxReviewLength characters.
	Review string `json:"review,omitempty" bson:"review,omitempty"`

	// AddedAt is set on creation and never changes.
	AddedAt time.Time `json:"addedAt" bson:"added_at"`

	// WatchedAt is set the first time the entry lands in CategoryWatched.
	// Once set it is never cleared or moved.
	WatchedAt *time.Time `json:"watchedAt,omitempty" bson:"watched_at,omitempty"`

	// Tags holds up to MaxTags short labels.
	Tags []string `json:"tags" bson:"tags"`
}

// NewEntry contains the data needed to add a movie to a list.
type NewEntry struct {
	MovieID    string
	Title      string
	PosterPath string

	// Category defaults to CategoryToWatch when empty.
	Category Category
}

// EntryPatch describes a partial update. A nil field means "not supplied";
// a non-nil field is applied even when it points at a zero value.
type EntryPatch struct {
	Category *Category
	Rating   *float64
	Review   *string
	Tags     *[]string
}

// IsEmpty returns true if no field was supplied.
func (p EntryPatch) IsEmpty() bool {
	return p.Category == nil && p.Rating == nil && p.Review == nil && p.Tags == nil
}

// Validate checks every supplied field against the entry invariants.
func (p EntryPatch) Validate() error {
	if p.Category != nil && !p.Category.IsValid() {
		return invalid("category", "must be one of toWatch, watched, favorite")
	}
	if p.Rating != nil {
		if err := validateRating(*p.Rating); err != nil {
			return err
		}
	}
	// Length is in code points, not UTF-16 units.
	if p.Review != nil && utf8.RuneCountInString(*p.Review) > MaxReviewLength {
		return invalid("review", "must be at most 1000 characters")
	}
	if p.Tags != nil && len(*p.Tags) > MaxTags {
		return invalid("tags", "cannot have more than 10 tags per movie")
	}
	return nil
}

func validateRating(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r != math.Trunc(r) {
		return invalid("rating", "must be a whole number")
	}
	if r < 0 || r > MaxRating {
		return invalid("rating", "must be between 0 and 5")
	}
	return nil
}

// MovieList is the per-user aggregate holding every tracked movie.
// It is persisted as a single document; Version drives optimistic
// concurrency in the repositories.
type MovieList struct {
	UserID    uuid.UUID    `json:"userId"`
	Movies    []MovieEntry `json:"movies"`
	Version   int64        `json:"-"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewMovieList creates an empty list for a user.
func NewMovieList(userID uuid.UUID) *MovieList {
	now := time.Now().UTC()
	return &MovieList{
		UserID:    userID,
		Movies:    []MovieEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Entries returns a copy of all entries in storage order.
func (l *MovieList) Entries() []MovieEntry {
	out := make([]MovieEntry, 0, len(l.Movies))
	for _, m := range l.Movies {
		out = append(out, m.clone())
	}
	return out
}

func (l *MovieList) indexOf(movieID string) int {
	return slices.IndexFunc(l.Movies, func(m MovieEntry) bool {
		return m.MovieID == movieID
	})
}

// Entry returns a copy of the entry for movieID.
func (l *MovieList) Entry(movieID string) (MovieEntry, error) {
	i := l.indexOf(movieID)
	if i < 0 {
		return MovieEntry{}, NewDomainError(ErrEntryNotFound, "lookup", movieID)
	}
	return l.Movies[i].clone(), nil
}

// Add appends a new entry. The list is left untouched on any error.
func (l *MovieList) Add(in NewEntry, now time.Time) (MovieEntry, error) {
	movieID := strings.TrimSpace(in.MovieID)
	if movieID == "" {
		return MovieEntry{}, invalid("movieId", "is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return MovieEntry{}, invalid("title", "is required")
	}

	category := in.Category
	if category == "" {
		category = CategoryToWatch
	}
	if !category.IsValid() {
		return MovieEntry{}, invalid("category", "must be one of toWatch, watched, favorite")
	}

	if l.indexOf(movieID) >= 0 {
		return MovieEntry{}, NewDomainError(ErrDuplicateEntry, "add", movieID)
	}

	entry := MovieEntry{
		MovieID:    movieID,
		Title:      in.Title,
		PosterPath: in.PosterPath,
		Category:   category,
		Rating:     0,
		AddedAt:    now.UTC(),
		Tags:       []string{},
	}
	l.Movies = append(l.Movies, entry)
	l.UpdatedAt = now.UTC()

	return entry.clone(), nil
}

// Update applies a partial update to one entry. Validation runs before
// any field is touched, so a rejected patch leaves the entry unchanged.
func (l *MovieList) Update(movieID string, patch EntryPatch, now time.Time) (MovieEntry, error) {
	i := l.indexOf(movieID)
	if i < 0 {
		return MovieEntry{}, NewDomainError(ErrEntryNotFound, "update", movieID)
	}
	if err := patch.Validate(); err != nil {
		return MovieEntry{}, err
	}

	entry := &l.Movies[i]
	if patch.Category != nil {
		entry.Category = *patch.Category
	}
	if patch.Rating != nil {
		entry.Rating = int(*patch.Rating)
	}
	if patch.Review != nil {
		entry.Review = *patch.Review
	}
	if patch.Tags != nil {
		entry.Tags = append([]string{}, (*patch.Tags)...)
	}

	if entry.Category == CategoryWatched && entry.WatchedAt == nil {
		watchedAt := now.UTC()
		entry.WatchedAt = &watchedAt
	}
	l.UpdatedAt = now.UTC()

	return entry.clone(), nil
}

// Remove deletes exactly one entry.
func (l *MovieList) Remove(movieID string, now time.Time) error {
	i := l.indexOf(movieID)
	if i < 0 {
		return NewDomainError(ErrEntryNotFound, "remove", movieID)
	}
	l.Movies = slices.Delete(l.Movies, i, i+1)
	l.UpdatedAt = now.UTC()
	return nil
}

func (m MovieEntry) clone() MovieEntry {
	c := m
	if m.Tags != nil {
		c.Tags = append([]string{}, m.Tags...)
	} else {
		c.Tags = []string{}
	}
	if m.WatchedAt != nil {
		t := *m.WatchedAt
		c.WatchedAt = &t
	}
	return c
}
