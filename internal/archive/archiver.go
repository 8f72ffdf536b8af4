package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Archiver periodically moves old trading interval settlements from
// MongoDB to local gzipped NDJSON files, deleting the oldest archives
// when total size exceeds maxBytes. Dispatch intervals are left alone:
// they're the higher-volume, lower-value record and already covered by
// internal/persist's retention pruner.
type Archiver struct {
	db       *mongo.Database
	dir      string
	maxBytes int64
	interval time.Duration
	maxAge   time.Duration
}

// New creates a new Archiver.
func New(db *mongo.Database, dir string, maxGB, intervalHours, afterHours int) *Archiver {
	return &Archiver{
		db:       db,
		dir:      dir,
		maxBytes: int64(maxGB) * 1 << 30,
		interval: time.Duration(intervalHours) * time.Hour,
		maxAge:   time.Duration(afterHours) * time.Hour,
	}
}

// Run starts the periodic archive loop. Blocks until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	log.Printf("interval archiver: dir=%s max=%dGB interval=%v age=%v",
		a.dir, a.maxBytes>>30, a.interval, a.maxAge)

	a.cycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cycle(ctx)
		}
	}
}

func (a *Archiver) cycle(ctx context.Context) {
	cursor, err := a.loadCursor(ctx)
	if err != nil {
		log.Printf("interval archiver: load cursor: %v", err)
		return
	}

	cutoff := time.Now().Add(-a.maxAge)
	if !cursor.Before(cutoff) {
		return
	}

	records, err := a.queryTradingIntervals(ctx, cursor, cutoff)
	if err != nil {
		log.Printf("interval archiver: query: %v", err)
		return
	}
	if len(records) == 0 {
		a.saveCursor(ctx, cutoff)
		return
	}

	batches := groupByDay(records)

	for day, batch := range batches {
		if err := a.writeBatch(day, batch); err != nil {
			log.Printf("interval archiver: write %s: %v", day, err)
			return
		}

		if err := a.deleteBatch(ctx, batch); err != nil {
			log.Printf("interval archiver: delete %s: %v", day, err)
			return
		}

		log.Printf("interval archiver: archived %d trading intervals for %s", len(batch), day)
	}

	a.saveCursor(ctx, cutoff)
	a.rotate()
}

// tradingIntervalDoc mirrors the MongoDB trading_intervals document.
type tradingIntervalDoc struct {
	RegionID            string    `bson:"region_id"              json:"region_id"`
	IntervalEnd         time.Time `bson:"interval_end"           json:"interval_end"`
	SpotPrice           float64   `bson:"spot_price"             json:"spot_price"`
	TotalDemand         float64   `bson:"total_demand"           json:"total_demand"`
	TotalDemandSupplied float64   `bson:"total_demand_supplied"  json:"total_demand_supplied"`
	GeneratorIDs        []string  `bson:"generator_ids_dispatched" json:"generator_ids_dispatched"`
}

func (a *Archiver) loadCursor(ctx context.Context) (time.Time, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := a.db.Collection("sim_state").FindOne(ctx, bson.M{"key": "archive_cursor"}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.ValueTime, nil
}

func (a *Archiver) saveCursor(ctx context.Context, t time.Time) {
	_, err := a.db.Collection("sim_state").UpdateOne(ctx,
		bson.M{"key": "archive_cursor"},
		bson.M{"$set": bson.M{
			"key":        "archive_cursor",
			"value_time": t,
			"updated_at": time.Now(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		log.Printf("interval archiver: save cursor: %v", err)
	}
}

func (a *Archiver) queryTradingIntervals(ctx context.Context, from, to time.Time) ([]tradingIntervalDoc, error) {
	filter := bson.M{
		"interval_end": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "interval_end", Value: 1}})

	cur, err := a.db.Collection("trading_intervals").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find trading intervals: %w", err)
	}
	defer cur.Close(ctx)

	var records []tradingIntervalDoc
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode trading intervals: %w", err)
	}
	return records, nil
}

func groupByDay(records []tradingIntervalDoc) map[string][]tradingIntervalDoc {
	batches := make(map[string][]tradingIntervalDoc)
	for _, r := range records {
		day := r.IntervalEnd.UTC().Format("2006/01/02")
		batches[day] = append(batches[day], r)
	}
	return batches
}

// writeBatch writes records as gzipped NDJSON to dir/trading_intervals/YYYY/MM/DD.jsonl.gz.
func (a *Archiver) writeBatch(day string, records []tradingIntervalDoc) error {
	path := filepath.Join(a.dir, "trading_intervals", day+".jsonl.gz")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (a *Archiver) deleteBatch(ctx context.Context, records []tradingIntervalDoc) error {
	keys := make([]bson.M, len(records))
	for i, r := range records {
		keys[i] = bson.M{"region_id": r.RegionID, "interval_end": r.IntervalEnd}
	}

	_, err := a.db.Collection("trading_intervals").DeleteMany(ctx, bson.M{"$or": keys})
	if err != nil {
		return fmt.Errorf("delete archived trading intervals: %w", err)
	}
	return nil
}

// rotate deletes the oldest archive files until total size is under maxBytes.
func (a *Archiver) rotate() {
	root := filepath.Join(a.dir, "trading_intervals")

	type entry struct {
		path string
		size int64
	}

	var files []entry
	var total int64

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		files = append(files, entry{path: path, size: info.Size()})
		total += info.Size()
		return nil
	})

	if total <= a.maxBytes {
		return
	}

	// Sort oldest first (path is YYYY/MM/DD so lexicographic = chronological).
	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	for _, f := range files {
		if total <= a.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			log.Printf("interval archiver: remove %s: %v", f.path, err)
			continue
		}
		total -= f.size
		log.Printf("interval archiver: rotated out %s (%d bytes)", f.path, f.size)
	}
}
