package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/captain/pkg/lib/core"
)

// SessionKey is a persisted key as printed by show-session.
type SessionKey struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// ShowSession prints the persisted session keys with their values masked.
func ShowSession(ctx context.Context, config *core.Config, logger core.Logger, out io.Writer) error {
	client, collection, err := sessionKeys(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list session keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []SessionKey
	if err := cursor.All(ctx, &keys); err != nil {
		return fmt.Errorf("decode session keys: %w", err)
	}

	return PrintSession(out, keys)
}

// PrintSession writes one line per key, sorted by key name.
func PrintSession(out io.Writer, keys []SessionKey) error {
	if len(keys) == 0 {
		_, err := fmt.Fprintln(out, "No session stored")
		return err
	}

	sorted := append([]SessionKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	for _, k := range sorted {
		updated := "-"
		if !k.UpdatedAt.IsZero() {
			updated = k.UpdatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(out, "%-14s %-16s %s\n", k.Key, Mask(k.Value), updated); err != nil {
			return err
		}
	}
	return nil
}

// Mask hides all but the last four characters of a value.
func Mask(value string) string {
	if value == "" {
		return "(empty)"
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", 8) + string(runes[len(runes)-4:])
}
