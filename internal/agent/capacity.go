package agent

import (
	"time"

	"github.com/nemsim/nemsim/internal/rng"
)

// StaticCapacityProvider reports a fixed nameplate capacity regardless of
// the time asked for.
type StaticCapacityProvider struct {
	capacity float64
}

// NewStaticCapacityProvider builds a StaticCapacityProvider.
func NewStaticCapacityProvider(capacity float64) *StaticCapacityProvider {
	return &StaticCapacityProvider{capacity: capacity}
}

// CapacityAt implements CapacityDataProvider.
func (p *StaticCapacityProvider) CapacityAt(t time.Time) float64 { return p.capacity }

// RandomCapacityProvider generates a capacity uniformly within a fixed
// range, reproducible given its seed, in rough imitation of a unit's
// capacity varying between maintenance outages.
type RandomCapacityProvider struct {
	r              *rng.RNG
	minCap, maxCap float64
}

// NewRandomCapacityProvider builds a RandomCapacityProvider. Panics if
// minCap >= maxCap.
func NewRandomCapacityProvider(minCap, maxCap float64, seed int64) *RandomCapacityProvider {
	if minCap < 0 || minCap >= maxCap {
		panic("agent: require 0 <= minCap < maxCap")
	}
	return &RandomCapacityProvider{r: rng.New(seed), minCap: minCap, maxCap: maxCap}
}

// CapacityAt implements CapacityDataProvider.
func (p *RandomCapacityProvider) CapacityAt(t time.Time) float64 {
	return p.r.Uniform(p.minCap, p.maxCap)
}
