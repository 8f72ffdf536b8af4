package message

import (
	"testing"
	"time"
)

func TestNewDispatchOfferFields(t *testing.T) {
	settlementDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	offer := NewDispatchOffer("GEN1", settlementDate, PriceBands{}, map[time.Time]AvailabilityBid{})
	if offer.SenderID != "GEN1" {
		t.Fatalf("sender mismatch")
	}
	if offer.ID() == "" {
		t.Fatalf("expected non-empty id")
	}
	if !offer.SettlementDate.Equal(settlementDate) {
		t.Fatalf("settlement date mismatch")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	a := NewDemandForecast("C1", time.Now(), 100)
	b := NewDemandForecast("C1", time.Now(), 100)
	if a.ID() == b.ID() {
		t.Fatalf("expected unique message ids, got %q twice", a.ID())
	}
}

func TestSenderAccessor(t *testing.T) {
	n := NewDispatchNotification("AEMO-NSW1", time.Now(), 250.5)
	if n.Sender() != "AEMO-NSW1" {
		t.Fatalf("sender mismatch: %s", n.Sender())
	}
}
