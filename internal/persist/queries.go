package persist

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DispatchIntervalRecord is a persisted dispatch interval clearing result.
type DispatchIntervalRecord struct {
	RegionID              string             `json:"regionId"            bson:"region_id"`
	IntervalEnd           time.Time          `json:"intervalEnd"         bson:"interval_end"`
	Price                 float64            `json:"price"               bson:"price"`
	PriceBandNo           int                `json:"priceBandNo"         bson:"price_band_no"`
	TotalDemand           float64            `json:"totalDemand"         bson:"total_demand"`
	TotalDemandSupplied   float64            `json:"totalDemandSupplied" bson:"total_demand_supplied"`
	DemandSuppliedByGenID map[string]float64 `json:"demandSuppliedByGeneratorId" bson:"demand_supplied_by_generator_id"`
}

// TradingIntervalRecord is a persisted trading interval settlement.
type TradingIntervalRecord struct {
	RegionID            string   `json:"regionId"            bson:"region_id"`
	IntervalEnd         time.Time `json:"intervalEnd"        bson:"interval_end"`
	SpotPrice           float64   `json:"spotPrice"          bson:"spot_price"`
	TotalDemand         float64   `json:"totalDemand"        bson:"total_demand"`
	TotalDemandSupplied float64   `json:"totalDemandSupplied" bson:"total_demand_supplied"`
	GeneratorIDs        []string  `json:"generatorIdsDispatched" bson:"generator_ids_dispatched"`
}

// IntervalFilter controls which interval records to return.
type IntervalFilter struct {
	RegionID string
	Limit    int
	Offset   int
	From     *time.Time
	To       *time.Time
}

// IntervalReader abstracts read-only queries over persisted interval results.
type IntervalReader interface {
	QueryDispatchIntervals(ctx context.Context, f IntervalFilter) ([]DispatchIntervalRecord, error)
	QueryTradingIntervals(ctx context.Context, f IntervalFilter) ([]TradingIntervalRecord, error)
	QuerySpotPriceSummary(ctx context.Context, regionID string) (SpotPriceSummary, error)
}

// SpotPriceSummary holds aggregate spot price statistics for a region.
type SpotPriceSummary struct {
	TradingIntervals int64   `json:"tradingIntervals"`
	AverageSpotPrice float64 `json:"averageSpotPrice"`
	MaxSpotPrice     float64 `json:"maxSpotPrice"`
	MinSpotPrice     float64 `json:"minSpotPrice"`
}

// MongoIntervalReader implements IntervalReader using a mongo.Database.
type MongoIntervalReader struct {
	db *mongo.Database
}

// NewMongoIntervalReader creates a new MongoIntervalReader.
func NewMongoIntervalReader(db *mongo.Database) *MongoIntervalReader {
	return &MongoIntervalReader{db: db}
}

func (r *MongoIntervalReader) timeFilter(f IntervalFilter) bson.M {
	filter := bson.M{"region_id": f.RegionID}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		filter["interval_end"] = rng
	}
	return filter
}

// QueryDispatchIntervals returns dispatch interval records for a region.
func (r *MongoIntervalReader) QueryDispatchIntervals(ctx context.Context, f IntervalFilter) ([]DispatchIntervalRecord, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "interval_end", Value: -1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection("dispatch_intervals").Find(ctx, r.timeFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("query dispatch intervals: %w", err)
	}
	defer cursor.Close(ctx)

	records := []DispatchIntervalRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode dispatch intervals: %w", err)
	}
	return records, nil
}

// QueryTradingIntervals returns trading interval records for a region.
func (r *MongoIntervalReader) QueryTradingIntervals(ctx context.Context, f IntervalFilter) ([]TradingIntervalRecord, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "interval_end", Value: -1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection("trading_intervals").Find(ctx, r.timeFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("query trading intervals: %w", err)
	}
	defer cursor.Close(ctx)

	records := []TradingIntervalRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode trading intervals: %w", err)
	}
	return records, nil
}

// QuerySpotPriceSummary aggregates spot price statistics across all
// persisted trading intervals for a region.
func (r *MongoIntervalReader) QuerySpotPriceSummary(ctx context.Context, regionID string) (SpotPriceSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"region_id": regionID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "trading_intervals", Value: bson.M{"$sum": 1}},
			{Key: "average_spot_price", Value: bson.M{"$avg": "$spot_price"}},
			{Key: "max_spot_price", Value: bson.M{"$max": "$spot_price"}},
			{Key: "min_spot_price", Value: bson.M{"$min": "$spot_price"}},
		}}},
	}

	cursor, err := r.db.Collection("trading_intervals").Aggregate(ctx, pipeline)
	if err != nil {
		return SpotPriceSummary{}, fmt.Errorf("query spot price summary: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		TradingIntervals int64   `bson:"trading_intervals"`
		AverageSpotPrice float64 `bson:"average_spot_price"`
		MaxSpotPrice     float64 `bson:"max_spot_price"`
		MinSpotPrice     float64 `bson:"min_spot_price"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return SpotPriceSummary{}, fmt.Errorf("decode spot price summary: %w", err)
	}

	if len(results) == 0 {
		return SpotPriceSummary{}, nil
	}
	return SpotPriceSummary{
		TradingIntervals: results[0].TradingIntervals,
		AverageSpotPrice: results[0].AverageSpotPrice,
		MaxSpotPrice:     results[0].MaxSpotPrice,
		MinSpotPrice:     results[0].MinSpotPrice,
	}, nil
}
