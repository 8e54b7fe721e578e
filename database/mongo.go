package database

import (
	"context"
	"errors"
	"fmt"
	"homegallery/models"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrConnection marks failures to reach MongoDB.
var ErrConnection = errors.New("mongodb connection failed")

var newestFirst = bson.D{{Key: "_id", Value: -1}}

// Store reads image documents. Every operation opens its own client and
// disconnects it before returning.
type Store struct {
	uri      string
	database string
	log      *logrus.Entry
}

func NewStore(host, database string, log *logrus.Entry) *Store {
	return &Store{uri: mongoURI(host), database: database, log: log}
}

// mongoURI accepts a bare host ("localhost", "db:27017") as well as a full
// connection string.
func mongoURI(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		return host
	}
	return "mongodb://" + host
}

func (s *Store) connect(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		s.disconnect(client)
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return client, nil
}

func (s *Store) disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		s.log.WithError(err).Warn("mongo disconnect")
	}
}

func classify(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return err
}

// Ping opens and closes a connection.
func (s *Store) Ping(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.disconnect(client)
	return nil
}

// Latest returns the most recently inserted document, or nil when the
// collection is empty.
func (s *Store) Latest(ctx context.Context, collection string) (*models.ImageRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(client)

	record := &models.ImageRecord{}
	err = client.Database(s.database).Collection(collection).
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(newestFirst)).
		Decode(record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest in %s: %w", collection, classify(err))
	}
	return record, nil
}

// NewestFirst loads every document of collection, newest first, without the
// inline image bytes. ByID fetches the full document of the one needed.
func (s *Store) NewestFirst(ctx context.Context, collection string) ([]models.ImageRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(client)

	cursor, err := client.Database(s.database).Collection(collection).
		Find(ctx, bson.M{}, options.Find().SetSort(newestFirst).SetProjection(bson.M{"data": 0}))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, classify(err))
	}
	defer cursor.Close(ctx)

	var records []models.ImageRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, classify(err))
	}
	return records, nil
}

// ByID returns the full document with the given _id, or nil when it does not
// exist.
func (s *Store) ByID(ctx context.Context, collection string, id bson.ObjectID) (*models.ImageRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(client)

	record := &models.ImageRecord{}
	err = client.Database(s.database).Collection(collection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s in %s: %w", id.Hex(), collection, classify(err))
	}
	return record, nil
}

// Summaries yields name and time of every document, newest first, without
// the image bytes. Nothing is queried until the sequence is ranged over; each
// range runs the query again on a fresh connection. On failure the error is
// yielded once and iteration stops.
func (s *Store) Summaries(ctx context.Context, collection string) iter.Seq2[models.ImageSummary, error] {
	return func(yield func(models.ImageSummary, error) bool) {
		client, err := s.connect(ctx)
		if err != nil {
			yield(models.ImageSummary{}, err)
			return
		}
		defer s.disconnect(client)

		opts := options.Find().
			SetSort(newestFirst).
			SetProjection(bson.M{"_id": 0, "name": 1, "time": 1})
		cursor, err := client.Database(s.database).Collection(collection).Find(ctx, bson.M{}, opts)
		if err != nil {
			yield(models.ImageSummary{}, fmt.Errorf("find in %s: %w", collection, classify(err)))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var summary models.ImageSummary
			if err := cursor.Decode(&summary); err != nil {
				yield(models.ImageSummary{}, fmt.Errorf("decode %s: %w", collection, err))
				return
			}
			if !yield(summary, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(models.ImageSummary{}, fmt.Errorf("iterate %s: %w", collection, classify(err)))
		}
	}
}
