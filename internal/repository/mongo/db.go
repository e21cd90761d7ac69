// Package mongo stores users and movie lists in MongoDB.
// Each movie list is one document holding the whole entry array.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/prn-tf/cinelog/internal/config"
	"github.com/prn-tf/cinelog/internal/repository"
)

// Collection names.
const (
	usersCollection      = "users"
	movieListsCollection = "movie_lists"
)

// DB wraps a MongoDB client bound to one database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// NewDB connects to MongoDB and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().
		Str("database", cfg.Database).
		Msg("connected to MongoDB")

	return NewFromClient(client, cfg.Database, logger), nil
}

// NewFromClient wraps an already connected client.
func NewFromClient(client *mongo.Client, database string, logger zerolog.Logger) *DB {
	return &DB{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}
}

// Repositories returns the MongoDB-backed repositories.
func (db *DB) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:      NewUserRepository(db),
		MovieList: NewMovieListRepository(db),
	}
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db.logger.Info().Msg("closing MongoDB connection")
	return db.client.Disconnect(ctx)
}

// Migrate creates the unique indexes the repositories rely on.
// Creating an index that already exists is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	indexes := []struct {
		collection string
		field      string
	}{
		{usersCollection, "username"},
		{usersCollection, "email"},
		{movieListsCollection, "user_id"},
	}

	for _, idx := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: idx.field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		name, err := db.db.Collection(idx.collection).Indexes().CreateOne(ctx, model)
		if err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", idx.collection, idx.field, err)
		}
		db.logger.Debug().Str("collection", idx.collection).Str("index", name).Msg("index ready")
	}

	return nil
}

var _ repository.Database = (*DB)(nil)
