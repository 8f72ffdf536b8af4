package event

import (
	"testing"
	"time"
)

type fakeRegistry struct {
	markups map[string]float64
}

func (r *fakeRegistry) Generator(id string) (GeneratorTarget, bool) {
	g, ok := r.markups[id]
	_ = g
	if !ok {
		return nil, false
	}
	return &fakeGenerator{registry: r, id: id}, true
}
func (r *fakeRegistry) Consumer(id string) (ConsumerTarget, bool) { return nil, false }

type fakeGenerator struct {
	registry *fakeRegistry
	id       string
}

func (g *fakeGenerator) SetMarkup(m float64)                        { g.registry.markups[g.id] = m }
func (g *fakeGenerator) SetCapacityDataProvider(p CapacityDataProvider) {}

func TestStackPopDueOrdering(t *testing.T) {
	events := []Event{
		ChangeGeneratorMarkup{Delta: 30 * time.Minute, GeneratorID: "GEN1", NewMarkup: 3},
		ChangeGeneratorMarkup{Delta: 5 * time.Minute, GeneratorID: "GEN1", NewMarkup: 1},
		ChangeGeneratorMarkup{Delta: 15 * time.Minute, GeneratorID: "GEN1", NewMarkup: 2},
	}
	stack := NewStack(events)

	due := stack.PopDue(10 * time.Minute)
	if len(due) != 1 {
		t.Fatalf("expected 1 event due at 10min, got %d", len(due))
	}
	if due[0].(ChangeGeneratorMarkup).NewMarkup != 1 {
		t.Fatalf("expected earliest event first")
	}

	due = stack.PopDue(20 * time.Minute)
	if len(due) != 1 || due[0].(ChangeGeneratorMarkup).NewMarkup != 2 {
		t.Fatalf("expected second event at 20min")
	}

	if stack.Len() != 1 {
		t.Fatalf("expected 1 remaining event, got %d", stack.Len())
	}
}

func TestStackPopDueSameDeltaInsertionOrder(t *testing.T) {
	events := []Event{
		ChangeGeneratorMarkup{Delta: 10 * time.Minute, GeneratorID: "GEN1", NewMarkup: 1},
		ChangeGeneratorMarkup{Delta: 10 * time.Minute, GeneratorID: "GEN2", NewMarkup: 2},
		ChangeGeneratorMarkup{Delta: 10 * time.Minute, GeneratorID: "GEN3", NewMarkup: 3},
	}
	stack := NewStack(events)

	due := stack.PopDue(10 * time.Minute)
	if len(due) != 3 {
		t.Fatalf("expected 3 events due, got %d", len(due))
	}
	for i, want := range []float64{1, 2, 3} {
		if got := due[i].(ChangeGeneratorMarkup).NewMarkup; got != want {
			t.Fatalf("event %d: expected insertion order %v, got %v", i, want, got)
		}
	}
}

func TestChangeGeneratorMarkupProcess(t *testing.T) {
	reg := &fakeRegistry{markups: map[string]float64{"GEN1": 0}}
	ev := ChangeGeneratorMarkup{Delta: 0, GeneratorID: "GEN1", NewMarkup: 42}
	if err := ev.Process(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.markups["GEN1"] != 42 {
		t.Fatalf("markup not applied")
	}
}

func TestChangeGeneratorMarkupUnknownTarget(t *testing.T) {
	reg := &fakeRegistry{markups: map[string]float64{}}
	ev := ChangeGeneratorMarkup{GeneratorID: "MISSING"}
	if err := ev.Process(reg); err == nil {
		t.Fatalf("expected error for unknown generator")
	}
}
