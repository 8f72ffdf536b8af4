// Package simclock defines the fixed interval arithmetic the market runs
// on: 1-minute simulation ticks, 5-minute dispatch intervals, 30-minute
// trading intervals, and the 04:00-to-04:00 trading day.
package simclock

import "time"

const (
	// DispatchIntervalMinutes is the duration of one dispatch interval.
	DispatchIntervalMinutes = 5
	// DispatchIntervalsPerTradingInterval is how many dispatch intervals
	// make up one trading interval.
	DispatchIntervalsPerTradingInterval = 6
	// TradingIntervalMinutes is the duration of one trading interval.
	TradingIntervalMinutes = DispatchIntervalMinutes * DispatchIntervalsPerTradingInterval

	// TradingDayStartHour and TradingDayStartMinute mark when a trading
	// day begins (and the previous one ends).
	TradingDayStartHour   = 4
	TradingDayStartMinute = 0

	// TradingDaySettlementHour and TradingDaySettlementMinute are the
	// clock time stamped onto a trading day's settlement date (the
	// calendar day the trading day starts on).
	TradingDaySettlementHour   = 0
	TradingDaySettlementMinute = 0

	// DailyDispatchOfferCutoffHour and DailyDispatchOfferCutoffMinute mark
	// the time, on the day before a trading day starts, after which no
	// further DAILY/DEFAULT dispatch offers may be submitted for it.
	DailyDispatchOfferCutoffHour   = 12
	DailyDispatchOfferCutoffMinute = 30

	// MarketPriceCap and MarketFloorCap bound a trading interval's clamped spot price.
	MarketPriceCap  = 12500.0
	MarketFloorCap  = -1000.0
	NumPriceBands   = 10
	TickMinutes     = 1
)

// Tick is the simulation's 1-minute advance.
func Tick(t time.Time) time.Time {
	return t.Add(TickMinutes * time.Minute)
}

// IsDispatchIntervalEnd reports whether t falls on a dispatch-interval
// boundary (every 5 minutes on the hour).
func IsDispatchIntervalEnd(t time.Time) bool {
	return t.Minute()%DispatchIntervalMinutes == 0
}

// IsTradingIntervalEnd reports whether t falls on a trading-interval
// boundary (:00 or :30).
func IsTradingIntervalEnd(t time.Time) bool {
	m := t.Minute()
	return m == 0 || m == TradingIntervalMinutes
}

// TradingDayStart returns the 04:00 instant that begins the trading day
// containing t. If t is exactly 04:00 it is its own trading day's start.
func TradingDayStart(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), TradingDayStartHour, TradingDayStartMinute, 0, 0, t.Location())
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// TradingDayEnd returns the 04:00 instant 24 hours after start, the end
// (and settlement-calendar-day boundary) of the trading day.
func TradingDayEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 1)
}

// SettlementStamp returns the settlement date (00:00, of the calendar day
// t's trading day starts on) that a dispatch offer or rebid submitted
// at, or a dispatch interval processed at, t is filed under. A time
// exactly on the 04:00 trading-day boundary is treated as the closing
// instant of the outgoing trading day, not the opening of the next.
func SettlementStamp(t time.Time) time.Time {
	settlement := time.Date(t.Year(), t.Month(), t.Day(),
		TradingDaySettlementHour, TradingDaySettlementMinute, 0, 0, t.Location())
	if t.Hour() < TradingDayStartHour || (t.Hour() == TradingDayStartHour && t.Minute() == TradingDayStartMinute) {
		settlement = settlement.AddDate(0, 0, -1)
	}
	return settlement
}

// DailyOfferCutoff returns the cut-off instant (12:30 the day before)
// for a trading day starting at tradingDayStart.
func DailyOfferCutoff(tradingDayStart time.Time) time.Time {
	dayBefore := tradingDayStart.AddDate(0, 0, -1)
	return time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(),
		DailyDispatchOfferCutoffHour, DailyDispatchOfferCutoffMinute, 0, 0, dayBefore.Location())
}

// ClampPrice clamps a price to [MarketFloorCap, MarketPriceCap].
func ClampPrice(price float64) float64 {
	if price > MarketPriceCap {
		return MarketPriceCap
	}
	if price < MarketFloorCap {
		return MarketFloorCap
	}
	return price
}
