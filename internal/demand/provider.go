// Package demand provides consumer demand-forecast data: CSV-backed
// historical data, a mathematical approximation of a typical daily load
// curve, and a seeded random generator.
package demand

import "time"

// Provider supplies a demand forecast for a dispatch interval. It
// satisfies internal/event.DemandForecastProvider so a
// ChangeConsumerDemandForecastDataProvider event can swap one in.
type Provider interface {
	DemandForecast(dispatchIntervalDate time.Time) float64
}
