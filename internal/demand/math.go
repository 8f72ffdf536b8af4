package demand

import (
	"time"

	"github.com/nemsim/nemsim/internal/simclock"
)

// baseDemand is the constant floor added to every dispatch interval's forecast.
const baseDemand = 4000.0

// MathApproximationProvider approximates a typical daily demand curve
// with a constant base load plus a parabolic peak centred on the
// evening (interval 192 counted from 04:05, i.e. 20:05), in rough
// imitation of an observed regional demand profile.
// See http://fooplot.com/index.php?q0=-.22%28x-192%29^2+2000 for the
// shape of the peak term.
type MathApproximationProvider struct{}

// NewMathApproximationProvider builds a MathApproximationProvider.
func NewMathApproximationProvider() *MathApproximationProvider {
	return &MathApproximationProvider{}
}

// DemandForecast implements Provider.
func (p *MathApproximationProvider) DemandForecast(dispatchIntervalDate time.Time) float64 {
	return baseDemand + demandPeak(dispatchIntervalDate)
}

func demandPeak(dispatchIntervalDate time.Time) float64 {
	firstIntervalToday := time.Date(
		dispatchIntervalDate.Year(), dispatchIntervalDate.Month(), dispatchIntervalDate.Day(),
		simclock.TradingDayStartHour, simclock.DispatchIntervalMinutes, 0, 0,
		dispatchIntervalDate.Location(),
	)
	diff := dispatchIntervalDate.Sub(firstIntervalToday)
	intervalNo := int(diff.Minutes()) / simclock.DispatchIntervalMinutes
	if intervalNo < 97 || intervalNo > 287 {
		return 0
	}
	x := float64(intervalNo - 192)
	return -0.22*x*x + 2000
}
