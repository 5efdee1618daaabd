package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	traceio "github.com/matzehuels/tracetower/pkg/io"
)

// Default MongoDB settings.
const (
	DefaultMongoDatabase   = "tracetower"
	DefaultMongoCollection = "app_node"
	connectTimeout         = 10 * time.Second
)

// MongoConfig locates the node collection written by the recorder.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// nodeStore is the query surface MongoSource needs.
type nodeStore interface {
	// traceOf returns the trace id of the node with the given id.
	traceOf(ctx context.Context, nodeID string) (string, bool, error)
	// nodes returns the node documents of a trace ordered by creation time.
	nodes(ctx context.Context, traceID string) ([]bson.M, error)
	close(ctx context.Context) error
}

// MongoSource loads traces from a MongoDB collection with one document per
// node, keyed by node_id and grouped by trace_id.
type MongoSource struct {
	store nodeStore
}

// NewMongoSource connects to MongoDB and verifies the connection.
func NewMongoSource(ctx context.Context, cfg MongoConfig) (*MongoSource, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &MongoSource{store: &mongoStore{client: client, coll: coll}}, nil
}

// Load resolves id as a node id first and as a trace id otherwise, then
// returns every node of that trace ordered by create_time, up to
// [MaxNodes] nodes.
func (s *MongoSource) Load(ctx context.Context, id string) (traceio.Document, error) {
	if id == "" {
		return traceio.Document{}, ErrInvalidID
	}

	traceID, ok, err := s.store.traceOf(ctx, id)
	if err != nil {
		return traceio.Document{}, fmt.Errorf("lookup node %s: %w", id, err)
	}
	if !ok {
		traceID = id
	}

	docs, err := s.store.nodes(ctx, traceID)
	if err != nil {
		return traceio.Document{}, fmt.Errorf("load trace %s: %w", traceID, err)
	}
	if len(docs) == 0 {
		return traceio.Document{}, fmt.Errorf("%s: %w", id, ErrTraceNotFound)
	}

	// Reuse the JSON decoder so stored documents get the same field
	// handling as files.
	data, err := json.Marshal(docs)
	if err != nil {
		return traceio.Document{}, fmt.Errorf("encode trace %s: %w", traceID, err)
	}
	doc, err := traceio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return traceio.Document{}, fmt.Errorf("trace %s: %w", traceID, err)
	}
	doc.TraceID = traceID
	return doc, nil
}

// Close disconnects from MongoDB.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.store.close(ctx)
}

type mongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (m *mongoStore) traceOf(ctx context.Context, nodeID string) (string, bool, error) {
	var doc struct {
		TraceID string `bson:"trace_id"`
	}
	err := m.coll.FindOne(ctx, bson.M{"node_id": nodeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.TraceID, doc.TraceID != "", nil
}

func (m *mongoStore) nodes(ctx context.Context, traceID string) ([]bson.M, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "create_time", Value: 1}}).
		SetLimit(MaxNodes).
		SetProjection(bson.M{"_id": 0})
	cur, err := m.coll.Find(ctx, bson.M{"trace_id": traceID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *mongoStore) close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
