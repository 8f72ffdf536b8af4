// Package bidstore provides generator bid data: a daily/default dispatch
// offer plus, per trading interval, the availability schedule backing it,
// and any later rebids amending that availability.
package bidstore

import (
	"time"

	"github.com/nemsim/nemsim/internal/message"
)

// Entry is a single bid-by-offer-date record: a generator's offer or
// rebid, along with whatever per-trading-interval availability data has
// been attached to it.
type Entry struct {
	DUID                          string
	OfferDate                     time.Time
	SettlementDate                time.Time
	IsRebid                       bool
	RebidExplanation              string
	PricePerBand                  message.PriceBands
	AvailabilityByTradingInterval map[time.Time]message.AvailabilityBid
}

// ToOffer converts a non-rebid Entry into the wire DispatchOffer message
// a generator sends to its regional operator.
func (e Entry) ToOffer(senderID string) message.DispatchOffer {
	return message.NewDispatchOffer(senderID, e.SettlementDate, e.PricePerBand, e.AvailabilityByTradingInterval)
}

// ToRebid converts a rebid Entry into the wire AvailabilityRebid message
// a generator sends to its regional operator.
func (e Entry) ToRebid(senderID string) message.AvailabilityRebid {
	return message.NewAvailabilityRebid(senderID, e.SettlementDate, e.AvailabilityByTradingInterval, e.RebidExplanation)
}

// Provider supplies a generator's bid history. A generator consults
// BidsAt on the offer date it's currently processing, and BidsBefore
// once during pre-roll to catch up on any entries submitted earlier than
// the simulation's start date.
type Provider interface {
	BidsAt(duid string, offerDate time.Time) []Entry
	BidsBefore(duid string, date time.Time) map[time.Time][]Entry
}
