package agent

import (
	"time"

	"github.com/nemsim/nemsim/internal/demand"
	"github.com/nemsim/nemsim/internal/dispatch"
	"github.com/nemsim/nemsim/internal/event"
	"github.com/nemsim/nemsim/internal/message"
	"github.com/nemsim/nemsim/internal/simclock"
)

// LoadDataProvider supplies a consumer's actual (as opposed to forecast)
// load at a point in time. Held for components outside the core dispatch
// path; swappable via ChangeConsumerLoadDataProvider.
type LoadDataProvider = event.LoadDataProvider

// Consumer represents an electricity consumer that reports its demand
// forecast for the dispatch interval 24 hours ahead to its regional
// operator.
type Consumer struct {
	ID       string
	RegionID string

	forecastProvider demand.Provider
	loadProvider     LoadDataProvider
}

// NewConsumer builds a Consumer backed by the given demand forecast provider.
func NewConsumer(id, regionID string, forecastProvider demand.Provider) *Consumer {
	return &Consumer{ID: id, RegionID: regionID, forecastProvider: forecastProvider}
}

// SetLoadDataProvider implements event.ConsumerTarget.
func (c *Consumer) SetLoadDataProvider(p LoadDataProvider) { c.loadProvider = p }

// SetDemandForecastDataProvider implements event.ConsumerTarget.
func (c *Consumer) SetDemandForecastDataProvider(p event.DemandForecastProvider) {
	c.forecastProvider = p
}

// LoadAt returns the consumer's currently configured actual load at t, or
// 0 if no load data provider has been set.
func (c *Consumer) LoadAt(t time.Time) float64 {
	if c.loadProvider == nil {
		return 0
	}
	return c.loadProvider.LoadAt(t)
}

// InitialisationTimes returns one dispatch interval's worth of times per
// 5 minutes for the 24 hours before startDate, so the driver can seed the
// first trading day's demand forecasts during pre-roll.
func (c *Consumer) InitialisationTimes(startDate time.Time) []time.Time {
	var times []time.Time
	t := startDate.AddDate(0, 0, -1)
	for t.Before(startDate) {
		times = append(times, t)
		t = t.Add(simclock.DispatchIntervalMinutes * time.Minute)
	}
	return times
}

// Step submits this consumer's demand forecast for the dispatch interval
// 24 hours ahead of now, on every dispatch-interval boundary.
func (c *Consumer) Step(now time.Time, operatorID string, d *dispatch.Dispatcher) {
	if now.Minute()%simclock.DispatchIntervalMinutes != 0 {
		return
	}
	if c.forecastProvider == nil {
		return
	}
	forecast := c.forecastProvider.DemandForecast(now)
	if forecast <= 0 {
		return
	}
	target := now.AddDate(0, 0, 1)
	d.Send(message.NewDemandForecast(c.ID, target, forecast), now, operatorID)
}
