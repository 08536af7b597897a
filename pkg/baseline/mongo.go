package baseline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ludock/ludock/pkg/snapshot"
)

const baselineCollection = "baselines"

// MongoStore keeps baselines in a MongoDB collection, one document per
// project, so a CI fleet diffs against a shared reference.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// baselineDoc is the stored document. The snapshot is embedded as its
// canonical JSON bytes rather than BSON so the stored form is exactly the
// world artifact.
type baselineDoc struct {
	Project string `bson:"_id"`
	World   []byte `bson:"world"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(baselineCollection),
	}, nil
}

// Load reads the project's baseline, reporting absence without error.
func (s *MongoStore) Load(ctx context.Context, project string) (snapshot.Snapshot, bool, error) {
	var doc baselineDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": project}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return snapshot.Snapshot{}, false, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("load baseline: %w", err)
	}

	snap, err := snapshot.Read(bytes.NewReader(doc.World))
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("decode baseline for %s: %w", project, err)
	}
	return snap, true, nil
}

// Save upserts the project's baseline.
func (s *MongoStore) Save(ctx context.Context, project string, snap snapshot.Snapshot) error {
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.collection.ReplaceOne(ctx,
		bson.M{"_id": project},
		baselineDoc{Project: project, World: data},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
