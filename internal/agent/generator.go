// Package agent implements the generator and consumer participants that
// submit bids, rebids, and demand forecasts to a regional market operator.
package agent

import (
	"log"
	"time"

	"github.com/nemsim/nemsim/internal/bidstore"
	"github.com/nemsim/nemsim/internal/dispatch"
	"github.com/nemsim/nemsim/internal/event"
	"github.com/nemsim/nemsim/internal/message"
)

// CapacityDataProvider supplies a generator's maximum available capacity
// at a point in time. A Generator doesn't consult this directly to build
// its bids (those come from its BidDataProvider); it's a pluggable feed
// an event can swap, held for components outside the core dispatch path
// (e.g. a monitor wanting a generator's nameplate capacity over time).
type CapacityDataProvider = event.CapacityDataProvider

// Generator represents an electricity generator with no decision-making
// of its own: it reads what to bid from a BidDataProvider and forwards
// those bids verbatim to its regional operator.
type Generator struct {
	ID       string
	RegionID string
	GenType  string

	bidProvider bidstore.Provider
	markup      float64
	capacity    CapacityDataProvider
}

// NewGenerator builds a Generator backed by the given bid data provider.
func NewGenerator(id, regionID, genType string, bidProvider bidstore.Provider) *Generator {
	return &Generator{ID: id, RegionID: regionID, GenType: genType, bidProvider: bidProvider}
}

// Markup returns the generator's current markup. It has no bearing on
// offers drawn from a CSV-backed bid provider, which carry absolute
// price bands; a synthetic or test bid provider may consult it instead.
func (g *Generator) Markup() float64 { return g.markup }

// SetMarkup implements event.GeneratorTarget.
func (g *Generator) SetMarkup(markup float64) { g.markup = markup }

// SetCapacityDataProvider implements event.GeneratorTarget.
func (g *Generator) SetCapacityDataProvider(p CapacityDataProvider) { g.capacity = p }

// CapacityAt returns the generator's currently configured capacity at t,
// or 0 if no capacity data provider has been set.
func (g *Generator) CapacityAt(t time.Time) float64 {
	if g.capacity == nil {
		return 0
	}
	return g.capacity.CapacityAt(t)
}

// InitialisationTimes returns the offer dates of all bids submitted
// before startDate, so the driver can replay them during pre-roll and
// seed the operator's state before the simulation proper begins.
func (g *Generator) InitialisationTimes(startDate time.Time) []time.Time {
	before := g.bidProvider.BidsBefore(g.ID, startDate)
	times := make([]time.Time, 0, len(before))
	for t := range before {
		times = append(times, t)
	}
	return times
}

// Step submits any bids or rebids the generator's provider has for this
// exact instant to its regional operator.
func (g *Generator) Step(now time.Time, operatorID string, d *dispatch.Dispatcher) {
	entries := g.bidProvider.BidsAt(g.ID, now)
	for _, e := range entries {
		var msg message.Message
		if e.IsRebid {
			msg = e.ToRebid(g.ID)
		} else {
			msg = e.ToOffer(g.ID)
		}
		d.Send(msg, now, operatorID)
	}
}

// HandleDispatchNotification logs the operator's instruction for how
// much of this generator's offered availability was scheduled.
func (g *Generator) HandleDispatchNotification(n message.DispatchNotification) {
	// A generator with no decision-making ability has nothing further to
	// do with a dispatch notification than record it.
	log.Printf("%s: dispatch notification for %s: supply %.2fMW", g.ID, n.DispatchIntervalDate, n.DemandToSupply)
}
