// Package simulation drives the market simulation end to end: it builds
// one operator per region, wires in the generators and consumers assigned
// to it, replays each agent's pre-roll history, then advances the clock
// one minute at a time from start date to end date, processing scheduled
// events, stepping every agent, and draining their mailbox traffic.
package simulation

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/nemsim/nemsim/internal/agent"
	"github.com/nemsim/nemsim/internal/bidstore"
	"github.com/nemsim/nemsim/internal/demand"
	"github.com/nemsim/nemsim/internal/dispatch"
	"github.com/nemsim/nemsim/internal/event"
	"github.com/nemsim/nemsim/internal/message"
	"github.com/nemsim/nemsim/internal/operator"
)

// GeneratorConfig describes one generator to wire into the simulation.
type GeneratorConfig struct {
	ID          string
	RegionID    string
	GenType     string
	BidProvider bidstore.Provider
}

// ConsumerConfig describes one consumer to wire into the simulation.
type ConsumerConfig struct {
	ID               string
	RegionID         string
	ForecastProvider demand.Provider
}

// Config describes everything needed to build a Simulation.
type Config struct {
	StartDate  time.Time
	EndDate    time.Time
	RegionIDs  []string
	Generators []GeneratorConfig
	Consumers  []ConsumerConfig
	Events     []event.Event
}

// Simulation owns every agent in the market and the clock that drives them.
type Simulation struct {
	startDate time.Time
	endDate   time.Time
	regionIDs []string

	operatorsByRegion   map[string]*operator.Operator
	generators          map[string]*agent.Generator
	consumers           map[string]*agent.Consumer
	generatorsByRegion  map[string][]*agent.Generator
	consumersByRegion   map[string][]*agent.Consumer

	events     *event.Stack
	dispatcher *dispatch.Dispatcher

	time time.Time

	// OnIntervalCleared, if set, is invoked synchronously on every
	// dispatch-interval boundary once per region, right after that
	// region's operator has stepped, naming the region and the instant
	// just cleared. It lets a
	// caller forward freshly produced DispatchIntervalInfo/
	// TradingIntervalInfo (via Operator.DispatchIntervalInfoAt/
	// TradingIntervalInfoAt) to a feed or persistence layer without that
	// layer participating in the dispatch-interval solver itself.
	OnIntervalCleared func(regionID string, t time.Time)
}

// New builds a Simulation and runs its pre-roll: every agent's
// InitialisationTimes are collected, sorted ascending, and replayed with
// the operator's own dispatch scheduling suppressed, so each region's
// operator starts the real run already holding a trading day's worth of
// offers and demand forecasts.
func New(cfg Config) (*Simulation, error) {
	if cfg.EndDate.Before(cfg.StartDate) {
		return nil, fmt.Errorf("simulation: end date %s is before start date %s", cfg.EndDate, cfg.StartDate)
	}

	s := &Simulation{
		startDate:          cfg.StartDate,
		endDate:            cfg.EndDate,
		regionIDs:          append([]string(nil), cfg.RegionIDs...),
		operatorsByRegion:  make(map[string]*operator.Operator),
		generators:         make(map[string]*agent.Generator),
		consumers:          make(map[string]*agent.Consumer),
		generatorsByRegion: make(map[string][]*agent.Generator),
		consumersByRegion:  make(map[string][]*agent.Consumer),
		events:             event.NewStack(cfg.Events),
		dispatcher:         dispatch.New(),
	}

	preRollTimes := make(map[time.Time]struct{})

	for _, regionID := range s.regionIDs {
		op := operator.New("AEMO-"+regionID, regionID)
		s.operatorsByRegion[regionID] = op
	}

	for _, gc := range cfg.Generators {
		if _, ok := s.operatorsByRegion[gc.RegionID]; !ok {
			continue
		}
		g := agent.NewGenerator(gc.ID, gc.RegionID, gc.GenType, gc.BidProvider)
		s.generators[gc.ID] = g
		s.generatorsByRegion[gc.RegionID] = append(s.generatorsByRegion[gc.RegionID], g)
		for _, t := range g.InitialisationTimes(s.startDate) {
			preRollTimes[t] = struct{}{}
		}
	}

	for _, cc := range cfg.Consumers {
		if _, ok := s.operatorsByRegion[cc.RegionID]; !ok {
			continue
		}
		c := agent.NewConsumer(cc.ID, cc.RegionID, cc.ForecastProvider)
		s.consumers[cc.ID] = c
		s.consumersByRegion[cc.RegionID] = append(s.consumersByRegion[cc.RegionID], c)
		for _, t := range c.InitialisationTimes(s.startDate) {
			preRollTimes[t] = struct{}{}
		}
	}

	sortedPreRoll := make([]time.Time, 0, len(preRollTimes))
	for t := range preRollTimes {
		sortedPreRoll = append(sortedPreRoll, t)
	}
	sort.Slice(sortedPreRoll, func(i, j int) bool { return sortedPreRoll[i].Before(sortedPreRoll[j]) })

	for _, t := range sortedPreRoll {
		s.time = t
		s.stepAgents(false)
	}
	s.time = s.startDate

	return s, nil
}

// Generator implements event.Registry.
func (s *Simulation) Generator(id string) (event.GeneratorTarget, bool) {
	g, ok := s.generators[id]
	return g, ok
}

// Consumer implements event.Registry.
func (s *Simulation) Consumer(id string) (event.ConsumerTarget, bool) {
	c, ok := s.consumers[id]
	return c, ok
}

// Run advances the clock one minute at a time from the start date to the
// end date, inclusive.
func (s *Simulation) Run() {
	for s.time = s.startDate; !s.time.After(s.endDate); s.time = s.time.Add(time.Minute) {
		s.stepAgents(true)
	}
}

// Time returns the clock's current instant.
func (s *Simulation) Time() time.Time { return s.time }

// Operator returns the operator for a region, if one exists.
func (s *Simulation) Operator(regionID string) (*operator.Operator, bool) {
	op, ok := s.operatorsByRegion[regionID]
	return op, ok
}

// Operators returns every region's operator, in configured region order, for
// handing to monitor.WriteCSV.
func (s *Simulation) Operators() []*operator.Operator {
	ops := make([]*operator.Operator, 0, len(s.regionIDs))
	for _, regionID := range s.regionIDs {
		if op, ok := s.operatorsByRegion[regionID]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// StartDate returns the simulation's configured start date.
func (s *Simulation) StartDate() time.Time { return s.startDate }

// EndDate returns the simulation's configured end date.
func (s *Simulation) EndDate() time.Time { return s.endDate }

func (s *Simulation) stepAgents(runOperators bool) {
	log.Printf("<Time: %s>", s.time)

	elapsed := s.time.Sub(s.startDate)
	for _, e := range s.events.PopDue(elapsed) {
		if err := e.Process(s); err != nil {
			log.Printf("simulation event %s failed: %v", e, err)
			continue
		}
		log.Printf("processed simulation event: %s", e)
	}

	for _, regionID := range s.regionIDs {
		for _, g := range s.generatorsByRegion[regionID] {
			g.Step(s.time, s.operatorsByRegion[regionID].ID, s.dispatcher)
		}
		for _, c := range s.consumersByRegion[regionID] {
			c.Step(s.time, s.operatorsByRegion[regionID].ID, s.dispatcher)
		}
	}

	// Agent offers/rebids/forecasts sent this tick must reach the
	// operator's mailbox before it runs its dispatch-schedule solver, so
	// the drain happens here rather than after the operator step below.
	s.drainMessages()

	if runOperators {
		for _, regionID := range s.regionIDs {
			s.operatorsByRegion[regionID].Step(s.time, s.dispatcher)
			if s.OnIntervalCleared != nil && s.time.Minute()%5 == 0 {
				s.OnIntervalCleared(regionID, s.time)
			}
		}

		// The operator's Step may enqueue DispatchNotification messages
		// back to generators in the same tick; drain again to deliver them.
		s.drainMessages()
	}
}

// drainMessages repeatedly drains the dispatcher's mailboxes for the
// current instant until empty: a handler invoked during a drain pass may
// enqueue same-tick replies (e.g. a dispatch notification sent back to a
// generator immediately after its offer triggers dispatch), so draining
// must loop rather than run a single pass.
func (s *Simulation) drainMessages() {
	for s.dispatcher.HasPending(s.time) {
		inboxes := s.dispatcher.DrainAt(s.time)
		for recipientID, messages := range inboxes {
			s.deliver(recipientID, messages)
		}
	}
}

func (s *Simulation) deliver(recipientID string, messages []message.Message) {
	if op, ok := s.operatorByID(recipientID); ok {
		for _, msg := range messages {
			op.HandleMessage(s.time, msg)
		}
		return
	}
	if g, ok := s.generators[recipientID]; ok {
		for _, msg := range messages {
			if n, ok := msg.(message.DispatchNotification); ok {
				g.HandleDispatchNotification(n)
			}
		}
		return
	}
	// Consumers don't currently handle any inbound message type.
}

func (s *Simulation) operatorByID(id string) (*operator.Operator, bool) {
	for _, op := range s.operatorsByRegion {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}
