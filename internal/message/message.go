// Package message defines the value types agents exchange through the
// mailbox dispatcher: bids, rebids, demand forecasts, and dispatch
// notifications.
package message

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nemsim/nemsim/internal/simclock"
)

// Message is anything that can be placed in an agent's mailbox. Every
// concrete message carries the id of its sender so a handler can reply.
type Message interface {
	ID() string
	Sender() string
}

var idCounter uint64

// NextID returns a unique message id, stable for the lifetime of the process.
func NextID(prefix string) string {
	n := atomic.AddUint64(&idCounter, 1)
	return fmt.Sprintf("%s-%d", prefix, n)
}

// PriceBands holds one value per price band, ascending price order.
type PriceBands [simclock.NumPriceBands]float64

// AvailabilityBid is one trading interval's availability schedule: how
// much capacity sits behind each price band, plus the physical limits on
// ramping into and out of it.
type AvailabilityBid struct {
	TradingIntervalDate    time.Time
	AvailabilityPerBand    PriceBands
	MaxAvailability        float64
	PhysicalAvailability   float64
	RateOfChangeUpPerMin   float64
	RateOfChangeDownPerMin float64
}

// DispatchOffer is a generator's full daily/default bid: one price per
// band for the whole trading day, plus the per-trading-interval
// availability schedule backing it.
type DispatchOffer struct {
	MessageID                     string
	SenderID                      string
	SettlementDate                time.Time
	PricePerBand                  PriceBands
	AvailabilityByTradingInterval map[time.Time]AvailabilityBid
}

func (m DispatchOffer) ID() string     { return m.MessageID }
func (m DispatchOffer) Sender() string { return m.SenderID }

// NewDispatchOffer builds a DispatchOffer with a fresh message id.
func NewDispatchOffer(senderID string, settlementDate time.Time, pricePerBand PriceBands, availability map[time.Time]AvailabilityBid) DispatchOffer {
	return DispatchOffer{
		MessageID:                     NextID("offer"),
		SenderID:                      senderID,
		SettlementDate:                settlementDate,
		PricePerBand:                  pricePerBand,
		AvailabilityByTradingInterval: availability,
	}
}

// AvailabilityRebid amends the availability schedule of one or more
// trading intervals within a trading day for which a DispatchOffer has
// already been accepted, without changing its prices.
type AvailabilityRebid struct {
	MessageID                     string
	SenderID                      string
	SettlementDate                time.Time
	AvailabilityByTradingInterval map[time.Time]AvailabilityBid
	RebidExplanation              string
}

func (m AvailabilityRebid) ID() string     { return m.MessageID }
func (m AvailabilityRebid) Sender() string { return m.SenderID }

// NewAvailabilityRebid builds an AvailabilityRebid with a fresh message id.
func NewAvailabilityRebid(senderID string, settlementDate time.Time, availability map[time.Time]AvailabilityBid, explanation string) AvailabilityRebid {
	return AvailabilityRebid{
		MessageID:                     NextID("rebid"),
		SenderID:                      senderID,
		SettlementDate:                settlementDate,
		AvailabilityByTradingInterval: availability,
		RebidExplanation:              explanation,
	}
}

// DemandForecast is a consumer's forecast of its demand for a dispatch interval.
type DemandForecast struct {
	MessageID            string
	SenderID             string
	DispatchIntervalDate time.Time
	Demand               float64
}

func (m DemandForecast) ID() string     { return m.MessageID }
func (m DemandForecast) Sender() string { return m.SenderID }

// NewDemandForecast builds a DemandForecast with a fresh message id.
func NewDemandForecast(senderID string, dispatchIntervalDate time.Time, demand float64) DemandForecast {
	return DemandForecast{
		MessageID:            NextID("forecast"),
		SenderID:             senderID,
		DispatchIntervalDate: dispatchIntervalDate,
		Demand:               demand,
	}
}

// DispatchNotification is the operator's reply to a generator telling it
// how much of its offered availability was scheduled for a dispatch interval.
type DispatchNotification struct {
	MessageID            string
	SenderID             string
	DispatchIntervalDate time.Time
	DemandToSupply       float64
}

func (m DispatchNotification) ID() string     { return m.MessageID }
func (m DispatchNotification) Sender() string { return m.SenderID }

// NewDispatchNotification builds a DispatchNotification with a fresh message id.
func NewDispatchNotification(senderID string, dispatchIntervalDate time.Time, demandToSupply float64) DispatchNotification {
	return DispatchNotification{
		MessageID:            NextID("notify"),
		SenderID:             senderID,
		DispatchIntervalDate: dispatchIntervalDate,
		DemandToSupply:       demandToSupply,
	}
}
