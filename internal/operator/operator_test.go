package operator

import (
	"testing"
	"time"

	"github.com/nemsim/nemsim/internal/dispatch"
	"github.com/nemsim/nemsim/internal/message"
)

func band(prices ...float64) message.PriceBands {
	var pb message.PriceBands
	copy(pb[:], prices)
	return pb
}

func availAll(tradingIntervalEnd time.Time, firstBandMW float64) map[time.Time]message.AvailabilityBid {
	var bands [10]float64
	bands[0] = firstBandMW
	return map[time.Time]message.AvailabilityBid{
		tradingIntervalEnd: {
			TradingIntervalDate: tradingIntervalEnd,
			AvailabilityPerBand: bands,
			MaxAvailability:     firstBandMW,
		},
	}
}

func TestHandleDispatchOfferAcceptedBeforeCutoff(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	settlement := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	offer := message.NewDispatchOffer("GEN1", settlement, band(10), nil)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) // well before 12:30 on 1/2
	op.HandleMessage(now, offer)

	if _, ok := op.offersBySettlementByGen["GEN1"][settlement]; !ok {
		t.Fatalf("expected offer to be stored")
	}
}

func TestHandleDispatchOfferRejectedAfterCutoff(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	settlement := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	offer := message.NewDispatchOffer("GEN1", settlement, band(10), nil)

	now := time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC) // after 12:30 on 1/2
	op.HandleMessage(now, offer)

	if _, ok := op.offersBySettlementByGen["GEN1"]; ok {
		t.Fatalf("expected offer to be rejected")
	}
}

func TestHandleAvailabilityRebidRejectedWithoutPriorOffer(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	settlement := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	rebid := message.NewAvailabilityRebid("GEN1", settlement, nil, "testing")

	op.HandleMessage(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), rebid)

	if _, ok := op.offersBySettlementByGen["GEN1"]; ok {
		t.Fatalf("expected no offer state to be created by a rejected rebid")
	}
}

func TestHandleAvailabilityRebidReplacesAvailabilityWholesale(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	settlement := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	intervalEnd := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)

	offer := message.NewDispatchOffer("GEN1", settlement, band(10), availAll(intervalEnd, 100))
	offerTime := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	op.HandleMessage(offerTime, offer)

	rebidIntervalEnd := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	rebid := message.NewAvailabilityRebid("GEN1", settlement, availAll(rebidIntervalEnd, 50), "derate")
	op.HandleMessage(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), rebid)

	stored := op.offersBySettlementByGen["GEN1"][settlement]
	if _, ok := stored.AvailabilityByTradingInterval[intervalEnd]; ok {
		t.Fatalf("expected original availability to be wholesale-replaced, not merged")
	}
	if _, ok := stored.AvailabilityByTradingInterval[rebidIntervalEnd]; !ok {
		t.Fatalf("expected rebid's availability to be present")
	}
}

func TestHandleAvailabilityRebidRejectedWithinNoticePeriod(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	settlement := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	intervalEnd := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)

	offer := message.NewDispatchOffer("GEN1", settlement, band(10), availAll(intervalEnd, 100))
	op.HandleMessage(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), offer)

	tooLate := time.Date(2026, 1, 2, 10, 27, 0, 0, time.UTC) // 3 minutes before intervalEnd
	rebid := message.NewAvailabilityRebid("GEN1", settlement, availAll(intervalEnd, 10), "derate")
	op.HandleMessage(tooLate, rebid)

	stored := op.offersBySettlementByGen["GEN1"][settlement]
	bid := stored.AvailabilityByTradingInterval[intervalEnd]
	if bid.MaxAvailability != 100 {
		t.Fatalf("expected rebid within notice period to be rejected, availability changed to %v", bid.MaxAvailability)
	}
}

func TestProcessDispatchScheduleClearsAndNotifies(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	d := dispatch.New()

	settlement := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dispatchTime := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	intervalEnd := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)

	cheapOffer := message.NewDispatchOffer("CHEAP", settlement, band(10, 20, 30, 40, 50, 60, 70, 80, 90, 100), availAll(intervalEnd, 80))
	expensiveOffer := message.NewDispatchOffer("EXPENSIVE", settlement, band(50, 60, 70, 80, 90, 100, 110, 120, 130, 140), availAll(intervalEnd, 80))
	op.HandleMessage(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), cheapOffer)
	op.HandleMessage(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), expensiveOffer)

	forecast := message.NewDemandForecast("CONSUMER1", dispatchTime, 100)
	op.HandleMessage(dispatchTime, forecast)

	op.Step(dispatchTime, d)

	info, ok := op.DispatchIntervalInfoAt(dispatchTime)
	if !ok {
		t.Fatalf("expected dispatch interval info to be stored")
	}
	if info.TotalDemandSupplied != 100 {
		t.Fatalf("expected 100MW supplied, got %v", info.TotalDemandSupplied)
	}
	if info.Price != 50 {
		t.Fatalf("expected the marginal (last-dispatched) generator's band-0 price of 50 to clear, got %v", info.Price)
	}
	if info.DemandSuppliedByGenID["CHEAP"] != 80 {
		t.Fatalf("expected cheap generator dispatched for 80MW, got %v", info.DemandSuppliedByGenID["CHEAP"])
	}
	if info.DemandSuppliedByGenID["EXPENSIVE"] != 20 {
		t.Fatalf("expected expensive generator dispatched for remaining 20MW, got %v", info.DemandSuppliedByGenID["EXPENSIVE"])
	}

	inbox := d.DrainAt(dispatchTime)
	if len(inbox["CHEAP"]) != 1 || len(inbox["EXPENSIVE"]) != 1 {
		t.Fatalf("expected a dispatch notification sent to each dispatched generator")
	}
}

func TestProcessDispatchScheduleNoOpWithoutForecast(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	d := dispatch.New()

	dispatchTime := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	op.Step(dispatchTime, d)

	if _, ok := op.DispatchIntervalInfoAt(dispatchTime); ok {
		t.Fatalf("expected no dispatch interval info without a demand forecast")
	}
}

func TestSettleTradingIntervalRequiresAllSixDispatchIntervals(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	tradingIntervalEnd := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)

	op.dispatchIntervalInfo[tradingIntervalEnd] = DispatchIntervalInfo{Price: 100, TotalDemandSupplied: 50, TotalDemand: 50}

	op.settleTradingInterval(tradingIntervalEnd)

	if _, ok := op.TradingIntervalInfoAt(tradingIntervalEnd); ok {
		t.Fatalf("expected no trading interval settlement with only 1 of 6 dispatch intervals present")
	}
}

func TestSettleTradingIntervalAveragesAndClampsPrice(t *testing.T) {
	op := New("AEMO-NSW1", "NSW1")
	tradingIntervalEnd := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		t := tradingIntervalEnd.Add(-time.Duration(i) * 5 * time.Minute)
		op.dispatchIntervalInfo[t] = DispatchIntervalInfo{
			Price:                 20000, // above MarketPriceCap, should clamp
			TotalDemandSupplied:   50,
			TotalDemand:           50,
			DemandSuppliedByGenID: map[string]float64{"GEN1": 50},
		}
	}

	op.settleTradingInterval(tradingIntervalEnd)

	info, ok := op.TradingIntervalInfoAt(tradingIntervalEnd)
	if !ok {
		t.Fatalf("expected trading interval to settle with all 6 dispatch intervals present")
	}
	if info.SpotPrice != 12500 {
		t.Fatalf("expected spot price clamped to 12500, got %v", info.SpotPrice)
	}
	if info.TotalDemandSupplied != 300 {
		t.Fatalf("expected total demand supplied summed across 6 intervals, got %v", info.TotalDemandSupplied)
	}
}

func TestCurrentTradingIntervalEnd(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC), time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC), time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 10, 35, 0, 0, time.UTC), time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := currentTradingIntervalEnd(c.in)
		if !got.Equal(c.want) {
			t.Fatalf("currentTradingIntervalEnd(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTradingDaySettlementDate(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 3, 59, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 4, 5, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := tradingDaySettlementDate(c.in)
		if !got.Equal(c.want) {
			t.Fatalf("tradingDaySettlementDate(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
