package commands

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/captain/pkg/lib/core"
)

// ClearSession removes every persisted session key, forcing the captain to
// log in again on its next request.
func ClearSession(ctx context.Context, config *core.Config, logger core.Logger) error {
	client, collection, err := sessionKeys(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	result, err := collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("delete session keys: %w", err)
	}
	logger.Info("Deleted session keys", "count", result.DeletedCount)
	return nil
}
