package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/captain/pkg/lib/core"
)

const sessionCollection = "session_keys"

type sessionKeyDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore persists session keys in MongoDB so credentials survive a
// restart of the captain runtime. One document per key.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     core.Logger
	config     *core.Config
}

func NewMongoStore(config *core.Config, logger core.Logger) *MongoStore {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &MongoStore{
		logger: logger,
		config: config,
	}
}

func (s *MongoStore) Start(ctx context.Context) error {
	mongoURL, _ := s.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := s.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "captain"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)
	s.collection = s.db.Collection(sessionCollection)

	s.logger.Infof("Connected to MongoDB: database: %s, collection: %s", dbName, sessionCollection)
	return nil
}

func (s *MongoStore) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (string, error) {
	if s.collection == nil {
		return "", fmt.Errorf("session store not started")
	}

	var doc sessionKeyDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot read session key %s: %w", key, err)
	}
	return doc.Value, nil
}

func (s *MongoStore) Set(ctx context.Context, key, value string) error {
	if s.collection == nil {
		return fmt.Errorf("session store not started")
	}

	filter := bson.M{"_id": key}
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now()}}

	if _, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("cannot write session key %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) RemoveAll(ctx context.Context, keys []string) error {
	if s.collection == nil {
		return fmt.Errorf("session store not started")
	}
	if len(keys) == 0 {
		return nil
	}

	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("cannot remove session keys: %w", err)
	}
	return nil
}
