package transcript

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const collectionName = "transcriptions"

// recordDoc is the MongoDB document layout for a Record. The ObjectID is
// internal; it is rendered as a plain hex string on the way out.
type recordDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	AudioReference string             `bson:"audio_reference"`
	Text           string             `bson:"text"`
	Origin         Origin             `bson:"origin"`
	Language       Language           `bson:"language,omitempty"`
	Session        *SessionMetadata   `bson:"session,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d *recordDoc) toRecord() *Record {
	return &Record{
		ID:             d.ID.Hex(),
		AudioReference: d.AudioReference,
		Text:           d.Text,
		Origin:         d.Origin,
		Language:       d.Language,
		Session:        d.Session,
		CreatedAt:      d.CreatedAt,
	}
}

// MongoStore is the MongoDB-backed Store implementation
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the query indexes exist
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	store := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return store, nil
}

// ensureIndexes creates the indexes the list query depends on. The selection
// predicate and sort key are both created_at, so the unfiltered query walks
// the standalone created_at index and the origin-filtered query walks the
// compound one without a residual filter stage.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "origin", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create persists a record, assigning its ID and CreatedAt
func (s *MongoStore) Create(ctx context.Context, rec *Record) (*Record, error) {
	doc := recordDoc{
		AudioReference: rec.AudioReference,
		Text:           rec.Text,
		Origin:         rec.Origin,
		Language:       rec.Language,
		Session:        rec.Session,
		CreatedAt:      time.Now().UTC(),
	}

	res, err := s.coll.InsertOne(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert record: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = id

	return doc.toRecord(), nil
}

// List returns one page of records matching the query
func (s *MongoStore) List(ctx context.Context, q Query) (*Page, error) {
	filter := bson.M{
		"created_at": bson.M{"$gte": q.Since(time.Now().UTC())},
	}
	if q.Origin != nil {
		filter["origin"] = *q.Origin
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.PageSize)).
		SetLimit(int64(q.PageSize))

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*Record, 0, q.PageSize)
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		items = append(items, doc.toRecord())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return &Page{
		Items:         items,
		TotalMatching: total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

// Ping checks MongoDB connectivity
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
