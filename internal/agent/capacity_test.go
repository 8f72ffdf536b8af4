package agent

import (
	"testing"
	"time"
)

func TestStaticCapacityProvider(t *testing.T) {
	p := NewStaticCapacityProvider(640)
	if got := p.CapacityAt(time.Now()); got != 640 {
		t.Fatalf("expected 640, got %v", got)
	}
}

func TestRandomCapacityProviderWithinRange(t *testing.T) {
	p := NewRandomCapacityProvider(100, 200, 42)
	for i := 0; i < 50; i++ {
		v := p.CapacityAt(time.Now())
		if v < 100 || v > 200 {
			t.Fatalf("capacity out of range: %v", v)
		}
	}
}

func TestRandomCapacityProviderPanicsOnInvalidRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for minCap >= maxCap")
		}
	}()
	NewRandomCapacityProvider(200, 100, 1)
}

func TestGeneratorCapacityAtUsesProvider(t *testing.T) {
	g := NewGenerator("GEN1", "NSW1", "coal", nil)
	if got := g.CapacityAt(time.Now()); got != 0 {
		t.Fatalf("expected 0 with no provider set, got %v", got)
	}
	g.SetCapacityDataProvider(NewStaticCapacityProvider(500))
	if got := g.CapacityAt(time.Now()); got != 500 {
		t.Fatalf("expected 500, got %v", got)
	}
}
