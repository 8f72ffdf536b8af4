package feed

import "testing"

func newTestManager() *Manager {
	return NewManager([]string{"NSW1", "QLD1", "VIC1"}, 100)
}

func TestResolveRegionsSpecific(t *testing.T) {
	m := newTestManager()
	regions, all := m.ResolveRegions([]string{"NSW1", "VIC1"})
	if all {
		t.Fatal("should not be all")
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
}

func TestResolveRegionsWildcard(t *testing.T) {
	m := newTestManager()
	regions, all := m.ResolveRegions([]string{"*"})
	if !all {
		t.Fatal("wildcard should set all=true")
	}
	if regions != nil {
		t.Fatalf("wildcard should return nil regions, got %v", regions)
	}
}

func TestResolveRegionsUnknown(t *testing.T) {
	m := newTestManager()
	regions, all := m.ResolveRegions([]string{"ZZZZ"})
	if all {
		t.Fatal("should not be all")
	}
	if len(regions) != 0 {
		t.Fatalf("expected 0 regions for unknown id, got %d", len(regions))
	}
}

func TestResolveRegionsWildcardShortCircuits(t *testing.T) {
	m := newTestManager()
	regions, all := m.ResolveRegions([]string{"NSW1", "*", "VIC1"})
	if !all {
		t.Fatal("wildcard should short-circuit to all=true")
	}
	if regions != nil {
		t.Fatalf("wildcard should return nil regions, got %v", regions)
	}
}

func TestBroadcastOnlyReachesSubscribedClients(t *testing.T) {
	m := newTestManager()

	subscribed := NewClient(nil, 10)
	subscribed.Subscribe([]string{"NSW1"})
	m.clients[subscribed.ID] = subscribed

	other := NewClient(nil, 10)
	other.Subscribe([]string{"QLD1"})
	m.clients[other.ID] = other

	m.Broadcast(Event{Type: EventTradingInterval, RegionID: "NSW1", SpotPrice: 42})

	select {
	case data := <-subscribed.SendCh():
		if len(data) == 0 {
			t.Fatal("expected encoded event data")
		}
	default:
		t.Fatal("expected subscribed client to receive the broadcast")
	}

	select {
	case <-other.SendCh():
		t.Fatal("unsubscribed client should not receive the broadcast")
	default:
	}
}

func TestClientCount(t *testing.T) {
	m := newTestManager()
	if m.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", m.ClientCount())
	}
	m.clients[1] = NewClient(nil, 10)
	if m.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", m.ClientCount())
	}
}
