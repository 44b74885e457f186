package commands

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/captain/pkg/lib/core"
)

const (
	defaultMongoURL   = "mongodb://localhost:27017"
	defaultDBName     = "captain"
	sessionCollection = "session_keys"
)

// sessionKeys opens the collection the captain runtime persists its session
// keys in. The caller must disconnect the returned client.
func sessionKeys(ctx context.Context, config *core.Config, logger core.Logger) (*mongo.Client, *mongo.Collection, error) {
	mongoURL, _ := config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = defaultMongoURL
	}
	dbName, _ := config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = defaultDBName
	}

	opts := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", dbName, "collection", sessionCollection)
	return client, client.Database(dbName).Collection(sessionCollection), nil
}
