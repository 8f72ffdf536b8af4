package demand

import (
	"time"

	"github.com/nemsim/nemsim/internal/rng"
)

// RandomProvider generates a demand forecast uniformly within a fixed
// range, reproducible given its seed.
type RandomProvider struct {
	r            *rng.RNG
	minDemand    float64
	maxDemand    float64
}

// NewRandomProvider builds a RandomProvider. Panics if minDemand >= maxDemand,
// matching the originating implementation's assertion.
func NewRandomProvider(minDemand, maxDemand float64, seed int64) *RandomProvider {
	if minDemand < 0 || minDemand >= maxDemand {
		panic("demand: require 0 <= minDemand < maxDemand")
	}
	return &RandomProvider{r: rng.New(seed), minDemand: minDemand, maxDemand: maxDemand}
}

// DemandForecast implements Provider.
func (p *RandomProvider) DemandForecast(dispatchIntervalDate time.Time) float64 {
	return p.r.Uniform(p.minDemand, p.maxDemand)
}
