package agent

import (
	"time"

	"github.com/nemsim/nemsim/internal/rng"
)

// StaticLoadProvider reports a fixed actual load regardless of the time
// asked for.
type StaticLoadProvider struct {
	load float64
}

// NewStaticLoadProvider builds a StaticLoadProvider.
func NewStaticLoadProvider(load float64) *StaticLoadProvider {
	return &StaticLoadProvider{load: load}
}

// LoadAt implements LoadDataProvider.
func (p *StaticLoadProvider) LoadAt(t time.Time) float64 { return p.load }

// RandomLoadProvider generates an actual load uniformly within a fixed
// range, reproducible given its seed, so a consumer's reported load can
// be made to track (or deliberately diverge from) its forecast.
type RandomLoadProvider struct {
	r                *rng.RNG
	minLoad, maxLoad float64
}

// NewRandomLoadProvider builds a RandomLoadProvider. Panics if
// minLoad >= maxLoad.
func NewRandomLoadProvider(minLoad, maxLoad float64, seed int64) *RandomLoadProvider {
	if minLoad < 0 || minLoad >= maxLoad {
		panic("agent: require 0 <= minLoad < maxLoad")
	}
	return &RandomLoadProvider{r: rng.New(seed), minLoad: minLoad, maxLoad: maxLoad}
}

// LoadAt implements LoadDataProvider.
func (p *RandomLoadProvider) LoadAt(t time.Time) float64 {
	return p.r.Uniform(p.minLoad, p.maxLoad)
}
