// Package operator implements the regional market operator: it accepts
// generator dispatch offers and availability rebids, accumulates consumer
// demand forecasts, and clears each dispatch interval with a stack-based
// pricing algorithm, aggregating a trading interval's six dispatch prices
// into a clamped spot price.
package operator

import (
	"log"
	"sort"
	"time"

	"github.com/nemsim/nemsim/internal/dispatch"
	"github.com/nemsim/nemsim/internal/message"
	"github.com/nemsim/nemsim/internal/simclock"
)

// RebidMinimumNotice is how close to a trading interval's end a rebid may
// no longer touch that interval's availability. Not enforced by the
// algorithm this package is grounded on (left as an open TODO there);
// here an availability rebid is rejected outright once any of its
// trading intervals falls within this notice period of now.
const RebidMinimumNotice = 5 * time.Minute

// DispatchIntervalInfo is the clearing result for one dispatch interval.
type DispatchIntervalInfo struct {
	Price                 float64
	TotalDemandSupplied   float64
	TotalDemand           float64
	PriceBandNo           int
	DemandSuppliedByGenID map[string]float64
}

// TradingIntervalInfo aggregates six dispatch intervals into a spot price.
type TradingIntervalInfo struct {
	SpotPrice              float64
	TotalDemandSupplied    float64
	TotalDemand            float64
	GeneratorIDsDispatched map[string]bool
}

// Operator clears one region's market.
type Operator struct {
	ID       string
	RegionID string

	offersBySettlementByGen map[string]map[time.Time]*message.DispatchOffer
	forecastsByInterval     map[time.Time][]message.DemandForecast

	dispatchIntervalInfo map[time.Time]DispatchIntervalInfo
	tradingIntervalInfo  map[time.Time]TradingIntervalInfo
}

// New builds an Operator with no prior state.
func New(id, regionID string) *Operator {
	return &Operator{
		ID:                      id,
		RegionID:                regionID,
		offersBySettlementByGen: make(map[string]map[time.Time]*message.DispatchOffer),
		forecastsByInterval:     make(map[time.Time][]message.DemandForecast),
		dispatchIntervalInfo:    make(map[time.Time]DispatchIntervalInfo),
		tradingIntervalInfo:     make(map[time.Time]TradingIntervalInfo),
	}
}

// InitialisationTimes implements the zero-length pre-roll contract: an
// operator has no history of its own to replay, only the generators and
// consumers that feed it.
func (o *Operator) InitialisationTimes(startDate time.Time) []time.Time { return nil }

// RegionName returns the id of the region this operator clears, for
// monitor.RegionOperator.
func (o *Operator) RegionName() string { return o.RegionID }

// HandleMessage routes an inbound message to the appropriate handler.
func (o *Operator) HandleMessage(now time.Time, msg message.Message) {
	switch m := msg.(type) {
	case message.DispatchOffer:
		o.handleDispatchOffer(now, m)
	case message.AvailabilityRebid:
		o.handleAvailabilityRebid(now, m)
	case message.DemandForecast:
		o.handleDemandForecast(now, m)
	default:
		log.Printf("%s: received unrecognised message type %T", o.ID, msg)
	}
}

func (o *Operator) handleDispatchOffer(now time.Time, offer message.DispatchOffer) {
	cutoff := offer.SettlementDate.AddDate(0, 0, -1)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(),
		simclock.DailyDispatchOfferCutoffHour, simclock.DailyDispatchOfferCutoffMinute, 0, 0, cutoff.Location())

	if now.Before(cutoff) {
		byDate, ok := o.offersBySettlementByGen[offer.SenderID]
		if !ok {
			byDate = make(map[time.Time]*message.DispatchOffer)
			o.offersBySettlementByGen[offer.SenderID] = byDate
		}
		stored := offer
		byDate[offer.SettlementDate] = &stored
		log.Printf("%s: received dispatch offer from %s", o.ID, offer.SenderID)
	} else {
		log.Printf("%s: rejected dispatch offer from %s (received after daily cut-off time)", o.ID, offer.SenderID)
	}
}

func (o *Operator) handleAvailabilityRebid(now time.Time, rebid message.AvailabilityRebid) {
	byDate, ok := o.offersBySettlementByGen[rebid.SenderID]
	if !ok {
		log.Printf("%s: rejected availability re-bid from %s for trading day %s (no original dispatch offer received for this trading day)",
			o.ID, rebid.SenderID, rebid.SettlementDate)
		return
	}
	offer, ok := byDate[rebid.SettlementDate]
	if !ok {
		log.Printf("%s: rejected availability re-bid from %s for trading day %s (no original dispatch offer received for this trading day)",
			o.ID, rebid.SenderID, rebid.SettlementDate)
		return
	}

	for tradingIntervalEnd := range rebid.AvailabilityByTradingInterval {
		if tradingIntervalEnd.Sub(now) < RebidMinimumNotice {
			log.Printf("%s: rejected availability re-bid from %s for trading day %s (trading interval %s is within the %s rebid notice period)",
				o.ID, rebid.SenderID, rebid.SettlementDate, tradingIntervalEnd, RebidMinimumNotice)
			return
		}
	}

	offer.AvailabilityByTradingInterval = rebid.AvailabilityByTradingInterval
	log.Printf("%s: received availability re-bid from %s for trading day %s. Explanation: %s",
		o.ID, rebid.SenderID, rebid.SettlementDate, rebid.RebidExplanation)
}

func (o *Operator) handleDemandForecast(now time.Time, forecast message.DemandForecast) {
	o.forecastsByInterval[forecast.DispatchIntervalDate] = append(o.forecastsByInterval[forecast.DispatchIntervalDate], forecast)
}

// Step processes this dispatch interval's schedule if the clock is on a
// dispatch-interval boundary and demand forecasts exist for now.
func (o *Operator) Step(now time.Time, d *dispatch.Dispatcher) {
	if now.Minute()%simclock.DispatchIntervalMinutes != 0 {
		return
	}
	o.processDispatchSchedule(now, d)
}

func (o *Operator) processDispatchSchedule(now time.Time, d *dispatch.Dispatcher) {
	forecasts, ok := o.forecastsByInterval[now]
	if !ok || len(forecasts) == 0 {
		log.Printf("%s: no load and/or bid data for this trading interval", o.ID)
		return
	}

	tradingIntervalEnd := currentTradingIntervalEnd(now)
	settlementDate := tradingDaySettlementDate(now)

	senderIDs := make([]string, 0, len(o.offersBySettlementByGen))
	for senderID := range o.offersBySettlementByGen {
		senderIDs = append(senderIDs, senderID)
	}
	sort.Strings(senderIDs)

	var offers []*message.DispatchOffer
	for _, senderID := range senderIDs {
		if offer, ok := o.offersBySettlementByGen[senderID][settlementDate]; ok {
			offers = append(offers, offer)
		}
	}

	var totalDemand float64
	for _, f := range forecasts {
		totalDemand += f.Demand
	}

	var (
		totalDemandSupplied float64
		dispatchPrice       float64
		priceBandNo         int
		demandByGen         map[string]float64
	)

	for band := 0; band < simclock.NumPriceBands; band++ {
		totalDemandSupplied = 0
		dispatchPrice = 0
		priceBandNo = band
		demandByGen = make(map[string]float64)

		sorted := make([]*message.DispatchOffer, len(offers))
		copy(sorted, offers)
		sort.SliceStable(sorted, func(i, j int) bool {
			pi, pj := sorted[i].PricePerBand[band], sorted[j].PricePerBand[band]
			if pi != pj {
				return pi < pj
			}
			return sorted[i].SenderID < sorted[j].SenderID
		})

		met := false
		for _, offer := range sorted {
			bid, ok := offer.AvailabilityByTradingInterval[tradingIntervalEnd]
			if !ok {
				continue
			}
			var availability float64
			for i := 0; i <= band; i++ {
				availability += bid.AvailabilityPerBand[i]
			}
			if availability <= 0 {
				continue
			}
			demandToSupply := availability
			if remaining := totalDemand - totalDemandSupplied; demandToSupply > remaining {
				demandToSupply = remaining
			}
			totalDemandSupplied += demandToSupply
			demandByGen[offer.SenderID] = demandToSupply
			dispatchPrice = offer.PricePerBand[band]
			if totalDemandSupplied >= totalDemand {
				met = true
				break
			}
		}
		if met {
			break
		}
	}

	for duid, demandToGenerate := range demandByGen {
		d.Send(message.NewDispatchNotification(o.ID, now, demandToGenerate), now, duid)
	}

	o.dispatchIntervalInfo[now] = DispatchIntervalInfo{
		Price:                 dispatchPrice,
		TotalDemandSupplied:   totalDemandSupplied,
		TotalDemand:           totalDemand,
		PriceBandNo:           priceBandNo,
		DemandSuppliedByGenID: demandByGen,
	}

	log.Printf("%s: dispatch interval schedule -> demand supplied = %.2fMW of %.2fMW, price = $%.2f (band %d)",
		o.ID, totalDemandSupplied, totalDemand, dispatchPrice, priceBandNo)

	if simclock.IsTradingIntervalEnd(now) {
		o.settleTradingInterval(now)
	}
}

func (o *Operator) settleTradingInterval(now time.Time) {
	var infos []DispatchIntervalInfo
	for i := 0; i < simclock.DispatchIntervalsPerTradingInterval; i++ {
		t := now.Add(-time.Duration(i) * simclock.DispatchIntervalMinutes * time.Minute)
		info, ok := o.dispatchIntervalInfo[t]
		if !ok {
			break
		}
		infos = append(infos, info)
	}

	if len(infos) != simclock.DispatchIntervalsPerTradingInterval {
		log.Printf("%s: trading interval finished; insufficient dispatch interval information to calculate spot price", o.ID)
		return
	}

	var spotPrice, totalDemandSupplied, totalDemand float64
	genIDs := make(map[string]bool)
	for _, info := range infos {
		spotPrice += info.Price
		totalDemandSupplied += info.TotalDemandSupplied
		totalDemand += info.TotalDemand
		for genID := range info.DemandSuppliedByGenID {
			genIDs[genID] = true
		}
	}
	spotPrice = simclock.ClampPrice(spotPrice / simclock.DispatchIntervalsPerTradingInterval)

	o.tradingIntervalInfo[now] = TradingIntervalInfo{
		SpotPrice:              spotPrice,
		TotalDemandSupplied:    totalDemandSupplied,
		TotalDemand:            totalDemand,
		GeneratorIDsDispatched: genIDs,
	}
	log.Printf("%s: trading interval finished -> spot price = $%.2f", o.ID, spotPrice)
}

// DispatchIntervalInfoAt returns the stored clearing result for a
// dispatch interval, if any.
func (o *Operator) DispatchIntervalInfoAt(t time.Time) (DispatchIntervalInfo, bool) {
	info, ok := o.dispatchIntervalInfo[t]
	return info, ok
}

// TradingIntervalInfoAt returns the stored settlement for a trading
// interval, if any.
func (o *Operator) TradingIntervalInfoAt(t time.Time) (TradingIntervalInfo, bool) {
	info, ok := o.tradingIntervalInfo[t]
	return info, ok
}

// AllDispatchIntervalInfo returns every dispatch interval result this
// operator has cleared so far, for persistence.
func (o *Operator) AllDispatchIntervalInfo() map[time.Time]DispatchIntervalInfo {
	return o.dispatchIntervalInfo
}

// AllTradingIntervalInfo returns every trading interval settlement this
// operator has computed so far, for persistence.
func (o *Operator) AllTradingIntervalInfo() map[time.Time]TradingIntervalInfo {
	return o.tradingIntervalInfo
}

// currentTradingIntervalEnd returns the trading interval boundary that a
// dispatch interval at t belongs to.
func currentTradingIntervalEnd(t time.Time) time.Time {
	switch {
	case t.Minute() > 0 && t.Minute() <= simclock.TradingIntervalMinutes:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), simclock.TradingIntervalMinutes, 0, 0, t.Location())
	case t.Minute() == 0:
		return t
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
	}
}

// tradingDaySettlementDate returns the settlement date (00:00) of the
// trading day that a dispatch interval at t belongs to.
func tradingDaySettlementDate(t time.Time) time.Time {
	settlement := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if t.Hour() < simclock.TradingDayStartHour || (t.Hour() == simclock.TradingDayStartHour && t.Minute() == 0) {
		settlement = settlement.AddDate(0, 0, -1)
	}
	return settlement
}
