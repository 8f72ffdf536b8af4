package simclock

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func TestIsDispatchIntervalEnd(t *testing.T) {
	cases := map[string]bool{
		"2026-01-01 04:00": true,
		"2026-01-01 04:05": true,
		"2026-01-01 04:03": false,
		"2026-01-01 04:30": true,
	}
	for ts, want := range cases {
		if got := IsDispatchIntervalEnd(mustParse(t, ts)); got != want {
			t.Errorf("%s: got %v want %v", ts, got, want)
		}
	}
}

func TestIsTradingIntervalEnd(t *testing.T) {
	cases := map[string]bool{
		"2026-01-01 04:00": true,
		"2026-01-01 04:30": true,
		"2026-01-01 04:05": false,
		"2026-01-01 04:25": false,
	}
	for ts, want := range cases {
		if got := IsTradingIntervalEnd(mustParse(t, ts)); got != want {
			t.Errorf("%s: got %v want %v", ts, got, want)
		}
	}
}

func TestTradingDayStart(t *testing.T) {
	// before 04:00 belongs to the previous day's trading day
	got := TradingDayStart(mustParse(t, "2026-01-02 03:59"))
	want := mustParse(t, "2026-01-01 04:00")
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	got = TradingDayStart(mustParse(t, "2026-01-02 04:00"))
	want = mustParse(t, "2026-01-02 04:00")
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSettlementStamp(t *testing.T) {
	cases := map[string]string{
		"2026-01-01 10:00": "2026-01-01 00:00", // mid trading-day, stamped under its start day
		"2026-01-02 02:00": "2026-01-01 00:00", // small hours tail, still the prior trading day
		"2026-01-02 04:00": "2026-01-01 00:00", // exact boundary closes out the prior trading day
		"2026-01-02 04:05": "2026-01-02 00:00", // just past the boundary, the new trading day
	}
	for ts, wantStr := range cases {
		got := SettlementStamp(mustParse(t, ts))
		want := mustParse(t, wantStr)
		if !got.Equal(want) {
			t.Errorf("SettlementStamp(%s) = %v, want %v", ts, got, want)
		}
	}
}

func TestDailyOfferCutoff(t *testing.T) {
	start := mustParse(t, "2026-01-02 04:00")
	got := DailyOfferCutoff(start)
	want := mustParse(t, "2026-01-01 12:30")
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestClampPrice(t *testing.T) {
	if ClampPrice(99999) != MarketPriceCap {
		t.Fatalf("expected clamp to price cap")
	}
	if ClampPrice(-99999) != MarketFloorCap {
		t.Fatalf("expected clamp to floor cap")
	}
	if ClampPrice(500) != 500 {
		t.Fatalf("expected passthrough for in-range price")
	}
}
