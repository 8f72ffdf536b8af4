package persist

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RunRetention periodically deletes dispatch and trading interval records
// older than the retention period. Blocks until ctx is cancelled. Pass
// retentionDays <= 0 to disable.
func RunRetention(ctx context.Context, store *Store, retentionDays int) {
	if retentionDays <= 0 {
		log.Println("interval record retention disabled (keep forever)")
		return
	}

	interval := 1 * time.Hour
	log.Printf("interval record retention: pruning records older than %d days every %v", retentionDays, interval)

	// Run once immediately on startup, then on the ticker.
	prune(ctx, store, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune(ctx, store, retentionDays)
		}
	}
}

func prune(ctx context.Context, store *Store, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	filter := bson.M{"interval_end": bson.M{"$lt": cutoff}}

	for _, collection := range []string{"dispatch_intervals", "trading_intervals"} {
		result, err := store.db.Collection(collection).DeleteMany(ctx, filter)
		if err != nil {
			log.Printf("interval record retention prune error (%s): %v", collection, err)
			continue
		}
		if result.DeletedCount > 0 {
			log.Printf("interval record retention: pruned %d records from %s older than %s", result.DeletedCount, collection, cutoff.Format(time.DateOnly))
		}
	}
}
