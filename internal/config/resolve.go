package config

import (
	"fmt"
	"time"

	"github.com/nemsim/nemsim/internal/agent"
	"github.com/nemsim/nemsim/internal/bidstore"
	"github.com/nemsim/nemsim/internal/demand"
	"github.com/nemsim/nemsim/internal/event"
	"github.com/nemsim/nemsim/internal/simulation"
)

// BuildSimulationConfig resolves every generator's bid source and every
// consumer's demand source into concrete providers, resolves the event
// list into event.Event values, and returns a simulation.Config ready
// to hand to simulation.New.
func (c *Config) BuildSimulationConfig() (simulation.Config, error) {
	generators := make([]simulation.GeneratorConfig, 0, len(c.Generators))
	for _, g := range c.Generators {
		provider, err := buildBidProvider(g.BidSource)
		if err != nil {
			return simulation.Config{}, fmt.Errorf("generator %q: %w", g.ID, err)
		}
		generators = append(generators, simulation.GeneratorConfig{
			ID:          g.ID,
			RegionID:    g.RegionID,
			GenType:     g.GenType,
			BidProvider: provider,
		})
	}

	consumers := make([]simulation.ConsumerConfig, 0, len(c.Consumers))
	for _, cn := range c.Consumers {
		provider, err := buildDemandProvider(cn.DemandSource)
		if err != nil {
			return simulation.Config{}, fmt.Errorf("consumer %q: %w", cn.ID, err)
		}
		consumers = append(consumers, simulation.ConsumerConfig{
			ID:              cn.ID,
			RegionID:        cn.RegionID,
			ForecastProvider: provider,
		})
	}

	events := make([]event.Event, 0, len(c.Events))
	for _, es := range c.Events {
		ev, err := buildEvent(es)
		if err != nil {
			return simulation.Config{}, err
		}
		events = append(events, ev)
	}

	return simulation.Config{
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		RegionIDs:  c.Regions,
		Generators: generators,
		Consumers:  consumers,
		Events:     events,
	}, nil
}

func buildBidProvider(spec BidSourceSpec) (bidstore.Provider, error) {
	switch spec.Type {
	case "csv":
		if spec.Path == "" {
			return nil, fmt.Errorf("bid source: csv requires a path")
		}
		return bidstore.NewCSVProvider(spec.Path)
	case "memory", "":
		return bidstore.NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("bid source: unknown type %q", spec.Type)
	}
}

func buildDemandProvider(spec DemandSourceSpec) (demand.Provider, error) {
	switch spec.Type {
	case "csv":
		if spec.Path == "" || spec.RegionID == "" {
			return nil, fmt.Errorf("demand source: csv requires a path and regionId")
		}
		return demand.NewCSVProvider(spec.Path, spec.RegionID)
	case "math":
		return demand.NewMathApproximationProvider(), nil
	case "random":
		return demand.NewRandomProvider(spec.MinDemand, spec.MaxDemand, spec.Seed), nil
	default:
		return nil, fmt.Errorf("demand source: unknown type %q", spec.Type)
	}
}

func buildEvent(spec EventSpec) (event.Event, error) {
	delta, err := time.ParseDuration(spec.Delta)
	if err != nil {
		return nil, fmt.Errorf("event %q: invalid delta %q: %w", spec.Type, spec.Delta, err)
	}

	switch spec.Type {
	case "ChangeGeneratorMarkup":
		if spec.GeneratorID == "" {
			return nil, fmt.Errorf("event ChangeGeneratorMarkup: generatorId is required")
		}
		return event.ChangeGeneratorMarkup{
			Delta:       delta,
			GeneratorID: spec.GeneratorID,
			NewMarkup:   spec.NewMarkup,
		}, nil
	case "ChangeGeneratorCapacityDataProvider":
		if spec.GeneratorID == "" {
			return nil, fmt.Errorf("event ChangeGeneratorCapacityDataProvider: generatorId is required")
		}
		provider, err := buildCapacityProvider(spec.NewProvider)
		if err != nil {
			return nil, fmt.Errorf("event ChangeGeneratorCapacityDataProvider: %w", err)
		}
		return event.ChangeGeneratorCapacityDataProvider{
			Delta:       delta,
			GeneratorID: spec.GeneratorID,
			NewProvider: provider,
		}, nil
	case "ChangeConsumerLoadDataProvider":
		if spec.ConsumerID == "" {
			return nil, fmt.Errorf("event ChangeConsumerLoadDataProvider: consumerId is required")
		}
		provider, err := buildLoadProvider(spec.NewProvider)
		if err != nil {
			return nil, fmt.Errorf("event ChangeConsumerLoadDataProvider: %w", err)
		}
		return event.ChangeConsumerLoadDataProvider{
			Delta:       delta,
			ConsumerID:  spec.ConsumerID,
			NewProvider: provider,
		}, nil
	case "ChangeConsumerDemandForecastDataProvider":
		if spec.ConsumerID == "" {
			return nil, fmt.Errorf("event ChangeConsumerDemandForecastDataProvider: consumerId is required")
		}
		provider, err := buildDemandProvider(DemandSourceSpec{
			Type:      spec.NewProvider.Type,
			Path:      spec.NewProvider.Path,
			RegionID:  spec.NewProvider.RegionID,
			MinDemand: spec.NewProvider.Min,
			MaxDemand: spec.NewProvider.Max,
			Seed:      spec.NewProvider.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("event ChangeConsumerDemandForecastDataProvider: %w", err)
		}
		return event.ChangeConsumerDemandForecastDataProvider{
			Delta:       delta,
			ConsumerID:  spec.ConsumerID,
			NewProvider: provider,
		}, nil
	default:
		return nil, fmt.Errorf("event: unknown type %q", spec.Type)
	}
}

func buildCapacityProvider(spec ProviderSpec) (event.CapacityDataProvider, error) {
	switch spec.Type {
	case "static":
		return agent.NewStaticCapacityProvider(spec.Value), nil
	case "random":
		return agent.NewRandomCapacityProvider(spec.Min, spec.Max, spec.Seed), nil
	default:
		return nil, fmt.Errorf("capacity provider: unknown type %q", spec.Type)
	}
}

func buildLoadProvider(spec ProviderSpec) (event.LoadDataProvider, error) {
	switch spec.Type {
	case "static":
		return agent.NewStaticLoadProvider(spec.Value), nil
	case "random":
		return agent.NewRandomLoadProvider(spec.Min, spec.Max, spec.Seed), nil
	default:
		return nil, fmt.Errorf("load provider: unknown type %q", spec.Type)
	}
}
