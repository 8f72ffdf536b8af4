// Package event implements scheduled, fire-at-most-once mutations applied
// to agents while a simulation runs: markup changes, and swapping the
// data provider backing a generator's capacity or a consumer's load or
// demand forecast.
package event

import (
	"fmt"
	"sort"
	"time"
)

// Event is a mutation scheduled to fire once TimeDelta has elapsed since
// the simulation's start date.
type Event interface {
	fmt.Stringer
	TimeDelta() time.Duration
	Process(reg Registry) error
}

// Registry is the subset of simulation state an event needs to find and
// mutate its target agent. Implemented by *simulation.Simulation.
type Registry interface {
	Generator(id string) (GeneratorTarget, bool)
	Consumer(id string) (ConsumerTarget, bool)
}

// GeneratorTarget is the mutation surface an event can exercise on a generator.
type GeneratorTarget interface {
	SetMarkup(markup float64)
	SetCapacityDataProvider(p CapacityDataProvider)
}

// ConsumerTarget is the mutation surface an event can exercise on a consumer.
type ConsumerTarget interface {
	SetLoadDataProvider(p LoadDataProvider)
	SetDemandForecastDataProvider(p DemandForecastProvider)
}

// CapacityDataProvider supplies a generator's maximum available capacity
// at a point in time. Concrete implementations live in internal/agent.
type CapacityDataProvider interface {
	CapacityAt(t time.Time) float64
}

// LoadDataProvider supplies a consumer's actual load at a point in time.
// Concrete implementations live in internal/agent.
type LoadDataProvider interface {
	LoadAt(t time.Time) float64
}

// DemandForecastProvider supplies a consumer's demand forecast for a
// dispatch interval. Concrete implementations live in internal/demand.
type DemandForecastProvider interface {
	DemandForecast(dispatchIntervalDate time.Time) float64
}

// ChangeGeneratorMarkup updates a generator's observable markup field.
type ChangeGeneratorMarkup struct {
	Delta       time.Duration
	GeneratorID string
	NewMarkup   float64
}

func (e ChangeGeneratorMarkup) TimeDelta() time.Duration { return e.Delta }
func (e ChangeGeneratorMarkup) String() string {
	return fmt.Sprintf("ChangeGeneratorMarkup(%s -> %.2f)", e.GeneratorID, e.NewMarkup)
}
func (e ChangeGeneratorMarkup) Process(reg Registry) error {
	g, ok := reg.Generator(e.GeneratorID)
	if !ok {
		return fmt.Errorf("change generator markup: unknown generator %q", e.GeneratorID)
	}
	g.SetMarkup(e.NewMarkup)
	return nil
}

// ChangeGeneratorCapacityDataProvider swaps a generator's capacity feed.
type ChangeGeneratorCapacityDataProvider struct {
	Delta       time.Duration
	GeneratorID string
	NewProvider CapacityDataProvider
}

func (e ChangeGeneratorCapacityDataProvider) TimeDelta() time.Duration { return e.Delta }
func (e ChangeGeneratorCapacityDataProvider) String() string {
	return fmt.Sprintf("ChangeGeneratorCapacityDataProvider(%s)", e.GeneratorID)
}
func (e ChangeGeneratorCapacityDataProvider) Process(reg Registry) error {
	g, ok := reg.Generator(e.GeneratorID)
	if !ok {
		return fmt.Errorf("change generator capacity provider: unknown generator %q", e.GeneratorID)
	}
	g.SetCapacityDataProvider(e.NewProvider)
	return nil
}

// ChangeConsumerLoadDataProvider swaps a consumer's actual-load feed.
type ChangeConsumerLoadDataProvider struct {
	Delta       time.Duration
	ConsumerID  string
	NewProvider LoadDataProvider
}

func (e ChangeConsumerLoadDataProvider) TimeDelta() time.Duration { return e.Delta }
func (e ChangeConsumerLoadDataProvider) String() string {
	return fmt.Sprintf("ChangeConsumerLoadDataProvider(%s)", e.ConsumerID)
}
func (e ChangeConsumerLoadDataProvider) Process(reg Registry) error {
	c, ok := reg.Consumer(e.ConsumerID)
	if !ok {
		return fmt.Errorf("change consumer load provider: unknown consumer %q", e.ConsumerID)
	}
	c.SetLoadDataProvider(e.NewProvider)
	return nil
}

// ChangeConsumerDemandForecastDataProvider swaps a consumer's forecast feed.
type ChangeConsumerDemandForecastDataProvider struct {
	Delta       time.Duration
	ConsumerID  string
	NewProvider DemandForecastProvider
}

func (e ChangeConsumerDemandForecastDataProvider) TimeDelta() time.Duration { return e.Delta }
func (e ChangeConsumerDemandForecastDataProvider) String() string {
	return fmt.Sprintf("ChangeConsumerDemandForecastDataProvider(%s)", e.ConsumerID)
}
func (e ChangeConsumerDemandForecastDataProvider) Process(reg Registry) error {
	c, ok := reg.Consumer(e.ConsumerID)
	if !ok {
		return fmt.Errorf("change consumer demand forecast provider: unknown consumer %q", e.ConsumerID)
	}
	c.SetDemandForecastDataProvider(e.NewProvider)
	return nil
}

// Stack holds scheduled events sorted ascending by TimeDelta, so the
// earliest-due event sits at the front. Events sharing a TimeDelta keep
// their original insertion order, since the sort below is stable.
type Stack struct {
	events []Event
}

// NewStack builds a Stack from an unordered slice of events.
func NewStack(events []Event) *Stack {
	s := &Stack{events: append([]Event(nil), events...)}
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].TimeDelta() < s.events[j].TimeDelta()
	})
	return s
}

// Len reports how many events remain unfired.
func (s *Stack) Len() int { return len(s.events) }

// PopDue removes and returns every event due at or before elapsed,
// earliest-due first, with same-delta events in their original insertion
// order.
func (s *Stack) PopDue(elapsed time.Duration) []Event {
	i := 0
	for i < len(s.events) && s.events[i].TimeDelta() <= elapsed {
		i++
	}
	due := s.events[:i]
	s.events = s.events[i:]
	return due
}
