package persist

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nemsim/nemsim/internal/operator"
	"github.com/nemsim/nemsim/internal/rng"
)

// Snapshotter manages periodic persistence of a running simulation's
// cleared intervals and PRNG state, so a run can be resumed or audited
// after the process exits.
type Snapshotter struct {
	store     *Store
	operators []*operator.Operator
	rng       *rng.RNG
	clock     func() time.Time
}

// NewSnapshotter creates a new Snapshotter. clock reports the
// simulation's current instant at the moment of each save, so a resumed
// run knows where to pick the clock back up.
func NewSnapshotter(store *Store, operators []*operator.Operator, r *rng.RNG, clock func() time.Time) *Snapshotter {
	return &Snapshotter{store: store, operators: operators, rng: r, clock: clock}
}

// Run starts the periodic snapshot loop. Blocks until ctx is cancelled.
func (s *Snapshotter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("performing final snapshot...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Save(shutdownCtx); err != nil {
				log.Printf("final snapshot error: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				log.Printf("snapshot error: %v", err)
			}
		}
	}
}

// Save persists every region's cleared dispatch and trading intervals,
// the simulation clock, and the PRNG state to MongoDB.
func (s *Snapshotter) Save(ctx context.Context) error {
	start := time.Now()

	for _, op := range s.operators {
		for intervalEnd, info := range op.AllDispatchIntervalInfo() {
			filter := bson.M{"region_id": op.RegionName(), "interval_end": intervalEnd}
			update := bson.M{"$set": bson.M{
				"region_id":                        op.RegionName(),
				"interval_end":                     intervalEnd,
				"price":                            info.Price,
				"price_band_no":                    info.PriceBandNo,
				"total_demand":                     info.TotalDemand,
				"total_demand_supplied":            info.TotalDemandSupplied,
				"demand_supplied_by_generator_id":  info.DemandSuppliedByGenID,
			}}
			opts := options.UpdateOne().SetUpsert(true)
			if _, err := s.store.db.Collection("dispatch_intervals").UpdateOne(ctx, filter, update, opts); err != nil {
				return fmt.Errorf("upsert dispatch interval %s/%s: %w", op.RegionName(), intervalEnd, err)
			}
		}

		for intervalEnd, info := range op.AllTradingIntervalInfo() {
			genIDs := make([]string, 0, len(info.GeneratorIDsDispatched))
			for id := range info.GeneratorIDsDispatched {
				genIDs = append(genIDs, id)
			}
			filter := bson.M{"region_id": op.RegionName(), "interval_end": intervalEnd}
			update := bson.M{"$set": bson.M{
				"region_id":                 op.RegionName(),
				"interval_end":              intervalEnd,
				"spot_price":                info.SpotPrice,
				"total_demand":              info.TotalDemand,
				"total_demand_supplied":     info.TotalDemandSupplied,
				"generator_ids_dispatched":  genIDs,
			}}
			opts := options.UpdateOne().SetUpsert(true)
			if _, err := s.store.db.Collection("trading_intervals").UpdateOne(ctx, filter, update, opts); err != nil {
				return fmt.Errorf("upsert trading interval %s/%s: %w", op.RegionName(), intervalEnd, err)
			}
		}
	}

	if s.rng != nil {
		if _, err := s.store.db.Collection("sim_state").UpdateOne(ctx,
			bson.M{"key": "rng_state"},
			bson.M{"$set": bson.M{
				"key":         "rng_state",
				"value_bytes": s.rng.StateBytes(),
				"updated_at":  time.Now(),
			}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("save rng state: %w", err)
		}
	}

	if s.clock != nil {
		if _, err := s.store.db.Collection("sim_state").UpdateOne(ctx,
			bson.M{"key": "clock"},
			bson.M{"$set": bson.M{
				"key":        "clock",
				"value_time": s.clock(),
				"updated_at": time.Now(),
			}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("save clock: %w", err)
		}
	}

	log.Printf("snapshot saved in %v", time.Since(start))
	return nil
}

// LoadRNGState restores a previously persisted PRNG state into r.
// Returns false if no prior state was found.
func (s *Snapshotter) LoadRNGState(ctx context.Context, r *rng.RNG) (bool, error) {
	var doc struct {
		ValueBytes []byte `bson:"value_bytes"`
	}
	err := s.store.db.Collection("sim_state").FindOne(ctx, bson.M{"key": "rng_state"}).Decode(&doc)
	if err != nil {
		return false, nil
	}
	if len(doc.ValueBytes) == 0 {
		return false, nil
	}
	r.RestoreStateBytes(doc.ValueBytes)
	return true, nil
}

// LoadClock returns the last persisted simulation clock instant, if any.
func (s *Snapshotter) LoadClock(ctx context.Context) (time.Time, bool, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := s.store.db.Collection("sim_state").FindOne(ctx, bson.M{"key": "clock"}).Decode(&doc)
	if err != nil {
		return time.Time{}, false, nil
	}
	return doc.ValueTime, true, nil
}
