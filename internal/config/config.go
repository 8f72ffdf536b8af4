// Package config loads the JSON scenario file and runtime flags that
// describe a single simulation run: its region topology, the
// generators and consumers participating, the events scheduled against
// them, and the ambient server/database settings.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nemsim/nemsim/internal/simclock"
)

const dateLayout = "2006-01-02T15:04:05Z07:00"

// BidSourceSpec describes how a generator's bid data is produced.
type BidSourceSpec struct {
	// Type is one of "csv" or "memory". "memory" yields an empty
	// in-memory provider, useful for generators driven purely by events.
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// DemandSourceSpec describes how a consumer's demand forecast is produced.
type DemandSourceSpec struct {
	// Type is one of "csv", "math", or "random".
	Type      string  `json:"type"`
	Path      string  `json:"path,omitempty"`
	RegionID  string  `json:"regionId,omitempty"`
	MinDemand float64 `json:"minDemand,omitempty"`
	MaxDemand float64 `json:"maxDemand,omitempty"`
	Seed      int64   `json:"seed,omitempty"`
}

// GeneratorSpec describes one generator participant.
type GeneratorSpec struct {
	ID         string        `json:"id"`
	RegionID   string        `json:"regionId"`
	GenType    string        `json:"genType"`
	BidSource  BidSourceSpec `json:"bidSource"`
}

// ConsumerSpec describes one consumer participant.
type ConsumerSpec struct {
	ID           string           `json:"id"`
	RegionID     string           `json:"regionId"`
	DemandSource DemandSourceSpec `json:"demandSource"`
}

// ProviderSpec describes a replacement capacity/load/demand-forecast
// provider for a ChangeGenerator.../ChangeConsumer... event. Type is one
// of "static" (capacity and load only), "random", or (demand forecast
// only) "math"/"csv".
type ProviderSpec struct {
	Type     string  `json:"type"`
	Value    float64 `json:"value,omitempty"` // static
	Min      float64 `json:"min,omitempty"`   // random
	Max      float64 `json:"max,omitempty"`   // random
	Seed     int64   `json:"seed,omitempty"`  // random
	Path     string  `json:"path,omitempty"`  // csv (demand forecast only)
	RegionID string  `json:"regionId,omitempty"`
}

// EventSpec describes one scheduled mutation. Type selects which event.Event
// it resolves to; only the fields relevant to that type need be set.
type EventSpec struct {
	Type        string       `json:"type"`
	Delta       string       `json:"delta"` // parsed with time.ParseDuration
	GeneratorID string       `json:"generatorId,omitempty"`
	ConsumerID  string       `json:"consumerId,omitempty"`
	NewMarkup   float64      `json:"newMarkup,omitempty"`
	NewProvider ProviderSpec `json:"newProvider,omitempty"`
}

// scenario is the on-disk JSON shape loaded from the -c/--config file.
type scenario struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Regions   []string        `json:"regions"`
	Generators []GeneratorSpec `json:"generators"`
	Consumers  []ConsumerSpec  `json:"consumers"`
	Events     []EventSpec     `json:"events"`

	MongoURI              string `json:"mongoUri"`
	IntervalRetentionDays int    `json:"intervalRetentionDays"`
	MonitorCSVPath        string `json:"monitorCsvPath"`

	ArchiveDir           string `json:"archiveDir"`
	ArchiveMaxGB         int    `json:"archiveMaxGb"`
	ArchiveIntervalHours int    `json:"archiveIntervalHours"`
	ArchiveAfterHours    int    `json:"archiveAfterHours"`
}

// Config holds all simulator configuration: the parsed scenario plus
// runtime flags.
type Config struct {
	StartDate  time.Time
	EndDate    time.Time
	Regions    []string
	Generators []GeneratorSpec
	Consumers  []ConsumerSpec
	Events     []EventSpec

	// Server
	WSPort int
	Host   string

	// Database
	MongoURI              string
	IntervalRetentionDays int

	// Monitor
	MonitorCSVPath string

	// Simulation
	Seed             int64
	SnapshotInterval time.Duration
	SendBufferSize   int

	// CLI
	ConfigPath string
	Profile    bool
	Optimise   bool

	// Local archiver (opt-in: only active when ArchiveDir is set)
	ArchiveDir           string
	ArchiveMaxGB         int
	ArchiveIntervalHours int
	ArchiveAfterHours    int
}

// Load parses CLI flags, reads the scenario file they name, and returns
// a fully validated Config. Any validation failure is returned as an
// error; callers should treat it as fatal.
func Load() (*Config, error) {
	c := &Config{}

	flag.StringVar(&c.ConfigPath, "c", envStr("NEMSIM_CONFIG", ""), "path to scenario JSON config file")
	flag.StringVar(&c.ConfigPath, "config", envStr("NEMSIM_CONFIG", ""), "path to scenario JSON config file")
	flag.BoolVar(&c.Profile, "p", false, "enable CPU profiling, written to nemsim.prof")
	flag.BoolVar(&c.Profile, "profile", false, "enable CPU profiling, written to nemsim.prof")
	flag.BoolVar(&c.Optimise, "o", false, "skip per-tick persistence, write only at trading-interval boundaries")
	flag.BoolVar(&c.Optimise, "optimise", false, "skip per-tick persistence, write only at trading-interval boundaries")

	flag.IntVar(&c.WSPort, "port", envInt("FEED_PORT", 8100), "WebSocket feed server port")
	flag.StringVar(&c.Host, "host", envStr("FEED_HOST", "0.0.0.0"), "Listen host")
	flag.Int64Var(&c.Seed, "seed", envInt64("NEMSIM_SEED", 0), "PRNG seed (0 = random)")
	flag.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 4096), "Per-client feed send buffer size")

	flag.Parse()

	if c.ConfigPath == "" {
		return nil, fmt.Errorf("config: -c/--config is required")
	}

	sc, err := readScenario(c.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err := c.applyScenario(sc); err != nil {
		return nil, err
	}

	c.SnapshotInterval = 30 * time.Second

	return c, nil
}

func readScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read scenario file: %w", err)
	}
	var sc scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("config: parse scenario file: %w", err)
	}
	return &sc, nil
}

func (c *Config) applyScenario(sc *scenario) error {
	start, err := time.Parse(dateLayout, sc.StartDate)
	if err != nil {
		return fmt.Errorf("config: invalid startDate %q: %w", sc.StartDate, err)
	}
	end, err := time.Parse(dateLayout, sc.EndDate)
	if err != nil {
		return fmt.Errorf("config: invalid endDate %q: %w", sc.EndDate, err)
	}
	start = simclock.TradingDayStart(start)
	end = simclock.TradingDayStart(end)
	if !end.After(start) {
		return fmt.Errorf("config: endDate %s must be after startDate %s", sc.EndDate, sc.StartDate)
	}

	if len(sc.Regions) == 0 {
		return fmt.Errorf("config: at least one region is required")
	}
	seenRegions := make(map[string]bool, len(sc.Regions))
	for _, r := range sc.Regions {
		if seenRegions[r] {
			return fmt.Errorf("config: duplicate region id %q", r)
		}
		seenRegions[r] = true
	}

	seenGen := make(map[string]bool, len(sc.Generators))
	for _, g := range sc.Generators {
		if seenGen[g.ID] {
			return fmt.Errorf("config: duplicate generator id %q", g.ID)
		}
		seenGen[g.ID] = true
		if !seenRegions[g.RegionID] {
			return fmt.Errorf("config: generator %q references unknown region %q", g.ID, g.RegionID)
		}
	}

	seenCon := make(map[string]bool, len(sc.Consumers))
	for _, cn := range sc.Consumers {
		if seenCon[cn.ID] {
			return fmt.Errorf("config: duplicate consumer id %q", cn.ID)
		}
		seenCon[cn.ID] = true
		if !seenRegions[cn.RegionID] {
			return fmt.Errorf("config: consumer %q references unknown region %q", cn.ID, cn.RegionID)
		}
	}

	if sc.MongoURI == "" {
		return fmt.Errorf("config: mongoUri is required")
	}

	c.StartDate = start
	c.EndDate = end
	c.Regions = sc.Regions
	c.Generators = sc.Generators
	c.Consumers = sc.Consumers
	c.Events = sc.Events
	c.MongoURI = sc.MongoURI
	c.IntervalRetentionDays = sc.IntervalRetentionDays
	c.MonitorCSVPath = sc.MonitorCSVPath
	c.ArchiveDir = sc.ArchiveDir
	c.ArchiveMaxGB = sc.ArchiveMaxGB
	c.ArchiveIntervalHours = sc.ArchiveIntervalHours
	c.ArchiveAfterHours = sc.ArchiveAfterHours

	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
