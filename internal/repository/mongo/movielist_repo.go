package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
)

// movieListDocument is the stored form of domain.MovieList.
type movieListDocument struct {
	UserID    string              `bson:"user_id"`
	Movies    []domain.MovieEntry `bson:"movies"`
	Version   int64               `bson:"version"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

// movieListRepository implements repository.MovieListRepository for MongoDB.
type movieListRepository struct {
	coll *mongo.Collection
}

// NewMovieListRepository creates a new MongoDB movie list repository.
func NewMovieListRepository(db *DB) repository.MovieListRepository {
	return &movieListRepository{coll: db.db.Collection(movieListsCollection)}
}

// GetByUserID retrieves the list owned by userID.
func (r *movieListRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	var doc movieListDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie list: %w", err)
	}

	list := &domain.MovieList{
		UserID:    userID,
		Movies:    doc.Movies,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if list.Movies == nil {
		list.Movies = []domain.MovieEntry{}
	}
	for i := range list.Movies {
		if list.Movies[i].Tags == nil {
			list.Movies[i].Tags = []string{}
		}
	}
	return list, nil
}

// Create inserts a new list document with version 1.
func (r *movieListRepository) Create(ctx context.Context, list *domain.MovieList) error {
	doc := movieListDocument{
		UserID:    list.UserID.String(),
		Movies:    moviesOrEmpty(list),
		Version:   1,
		CreatedAt: list.CreatedAt,
		UpdatedAt: list.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create movie list: %w", err)
	}

	list.Version = 1
	return nil
}

// Save replaces the document if the stored version still matches.
func (r *movieListRepository) Save(ctx context.Context, list *domain.MovieList) error {
	filter := bson.D{
		{Key: "user_id", Value: list.UserID.String()},
		{Key: "version", Value: list.Version},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "movies", Value: moviesOrEmpty(list)},
			{Key: "updated_at", Value: list.UpdatedAt},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int64(1)}}},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save movie list: %w", err)
	}
	if result.MatchedCount == 1 {
		list.Version++
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "user_id", Value: list.UserID.String()}})
	if err != nil {
		return fmt.Errorf("failed to check movie list existence: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrVersionConflict
}

func moviesOrEmpty(list *domain.MovieList) []domain.MovieEntry {
	if list.Movies == nil {
		return []domain.MovieEntry{}
	}
	return list.Movies
}

var _ repository.MovieListRepository = (*movieListRepository)(nil)
