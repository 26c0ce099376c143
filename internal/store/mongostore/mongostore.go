// Package mongostore keeps records as MongoDB documents whose _id is the
// record location.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/retry"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

const (
	DefaultConnectRetries = 3
	pingTimeout           = 10 * time.Second
)

// document is the stored form of a record.
type document struct {
	Location  string          `bson:"_id"`
	Type      csvasset.TypeID `bson:"type"`
	Fields    bson.M          `bson:"fields"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// Store is a csvasset.Store backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	batch  *store.Batch
	logger csvasset.Logger
}

// Connect dials uri and pings the server, retrying transient failures.
func Connect(ctx context.Context, uri, database, collection string, logger csvasset.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if database == "" {
		database = store.DefaultDatabase
	}
	if collection == "" {
		collection = store.DefaultCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	policy := retry.NewPolicy(retry.NewNetworkClassifier(), retry.NewBackoff(DefaultConnectRetries)).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("MongoDB not ready (attempt %d): %v; retrying in %s", attempt+1, err, delay)
		})
	err = policy.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return client.Ping(pingCtx, nil)
	})
	if err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Verbose("Connected to mongo store %s.%s", database, collection)
	return New(client, client.Database(database).Collection(collection), logger), nil
}

// New wraps an existing collection. Close disconnects client when it is non-nil.
func New(client *mongo.Client, coll *mongo.Collection, logger csvasset.Logger) *Store {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Store{
		client: client,
		coll:   coll,
		batch:  store.NewBatch(),
		logger: logger,
	}
}

var (
	_ csvasset.Store   = (*Store)(nil)
	_ csvasset.Counter = (*Store)(nil)
)

// EnsureFolder is a no-op: locations are plain keys in MongoDB.
func (s *Store) EnsureFolder(context.Context, string) error { return nil }

func (s *Store) LoadIfExists(ctx context.Context, location string) (*csvasset.Record, error) {
	if rec, ok := s.batch.Get(location); ok {
		return rec, nil
	}

	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": location}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}

	rec := csvasset.NewRecord(doc.Type)
	rec.Location = location
	for k, v := range doc.Fields {
		rec.Set(k, v)
	}
	s.batch.Track(rec)
	return rec, nil
}

func (s *Store) CreateBlank(typeID csvasset.TypeID) *csvasset.Record {
	return csvasset.NewRecord(typeID)
}

func (s *Store) RegisterNew(_ context.Context, rec *csvasset.Record, location string) error {
	return s.batch.Add(rec, location)
}

func (s *Store) MarkDirty(rec *csvasset.Record) {
	s.batch.MarkDirty(rec)
}

// CommitBatch replaces or inserts every pending document in one ordered
// bulk write. Documents written before a failure stay written.
func (s *Store) CommitBatch(ctx context.Context) error {
	pending := s.batch.Pending()
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(pending))
	for _, p := range pending {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.Record.Location}).
			SetReplacement(toDocument(p.Record, now)).
			SetUpsert(true))
	}

	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("bulk write: %w", err)
	}

	for _, p := range pending {
		s.batch.Committed(p.Record)
	}
	s.logger.Verbose("Mongo bulk write: %d upserted, %d modified", res.UpsertedCount, res.ModifiedCount)
	return nil
}

// RefreshIndex makes sure records can be looked up by type.
func (s *Store) RefreshIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create type index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Count returns the number of stored records of typeID, or of all types
// when typeID is empty.
func (s *Store) Count(ctx context.Context, typeID csvasset.TypeID) (int, error) {
	filter := bson.M{}
	if typeID != "" {
		filter["type"] = string(typeID)
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(n), nil
}

func toDocument(rec *csvasset.Record, now time.Time) document {
	fields := bson.M{}
	for k, v := range rec.Fields {
		fields[k] = v
	}
	return document{
		Location:  rec.Location,
		Type:      rec.Type,
		Fields:    fields,
		UpdatedAt: now,
	}
}
