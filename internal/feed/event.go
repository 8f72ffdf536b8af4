// Package feed implements a read-only live broadcast of dispatch
// notifications and spot-price ticks to subscribed dashboards while a
// simulation runs. It observes the operator's public accessors; nothing
// it does feeds back into the dispatch-interval solver.
package feed

import "time"

// EventType identifies the kind of update a client receives.
type EventType string

const (
	EventDispatchInterval EventType = "dispatch_interval"
	EventTradingInterval  EventType = "trading_interval"
)

// Event is a single region update broadcast to subscribed clients.
type Event struct {
	Type        EventType `json:"type"`
	RegionID    string    `json:"regionId"`
	IntervalEnd time.Time `json:"intervalEnd"`

	// Populated for EventDispatchInterval; TotalDemand and
	// TotalDemandSupplied are populated for EventTradingInterval too.
	Price               float64            `json:"price,omitempty"`
	PriceBandNo         int                `json:"priceBandNo,omitempty"`
	TotalDemand         float64            `json:"totalDemand,omitempty"`
	TotalDemandSupplied float64            `json:"totalDemandSupplied,omitempty"`
	DemandSuppliedByGen map[string]float64 `json:"demandSuppliedByGeneratorId,omitempty"`

	// Populated for EventTradingInterval.
	SpotPrice              float64  `json:"spotPrice,omitempty"`
	GeneratorIDsDispatched []string `json:"generatorIdsDispatched,omitempty"`
}
