package bidstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// row builds a 33-column CSV row, filling unused columns with empty strings.
func row(fields map[int]string) string {
	cols := make([]string, 33)
	for i := range cols {
		cols[i] = ""
	}
	for i, v := range fields {
		cols[i] = v
	}
	return strings.Join(cols, ",")
}

func writeFixture(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "yestbid.csv")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCSVProviderParsesDailyOffer(t *testing.T) {
	dailyRow := row(map[int]string{
		0:  "D",
		2:  "BIDDAYOFFER",
		4:  "2026/01/02 00:00:00",
		5:  "GEN1",
		6:  "ENERGY",
		8:  "2026/01/01 10:00:00",
		13: "10", 14: "12", 15: "14", 16: "16", 17: "18",
		18: "20", 19: "22", 20: "24", 21: "26", 22: "28",
		32: "DAILY",
	})
	lines := []string{dailyRow}
	path := writeFixture(t, lines)

	p, err := NewCSVProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	offerDate := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	entries := p.BidsAt("GEN1", offerDate)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].IsRebid {
		t.Fatalf("expected non-rebid entry")
	}
	if entries[0].PricePerBand[0] != 10 || entries[0].PricePerBand[9] != 28 {
		t.Fatalf("price bands not parsed correctly: %+v", entries[0].PricePerBand)
	}
}

func TestCSVProviderPromotesOrphanRebid(t *testing.T) {
	rebidRow := row(map[int]string{
		0:  "D",
		2:  "BIDDAYOFFER",
		4:  "2026/01/02 00:00:00",
		5:  "GEN2",
		6:  "ENERGY",
		8:  "2026/01/01 13:00:00",
		12: "network constraint",
		13: "50", 14: "51", 15: "52", 16: "53", 17: "54",
		18: "55", 19: "56", 20: "57", 21: "58", 22: "59",
		32: "REBID",
	})
	lines := []string{rebidRow}
	path := writeFixture(t, lines)

	p, err := NewCSVProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	offerDate := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	entries := p.BidsAt("GEN2", offerDate)
	if len(entries) != 1 {
		t.Fatalf("expected 1 promoted entry, got %d", len(entries))
	}
	if entries[0].IsRebid {
		t.Fatalf("expected promoted entry to no longer be a rebid")
	}
	if entries[0].PricePerBand[0] != 50 {
		t.Fatalf("expected promoted entry to carry the rebid row's price bands")
	}
}

func TestCSVProviderAttachesAvailabilityBid(t *testing.T) {
	dailyRow := row(map[int]string{
		0: "D", 2: "BIDDAYOFFER", 4: "2026/01/02 00:00:00", 5: "GEN3", 6: "ENERGY",
		8: "2026/01/01 09:00:00",
		13: "1", 14: "2", 15: "3", 16: "4", 17: "5", 18: "6", 19: "7", 20: "8", 21: "9", 22: "10",
		32: "DEFAULT",
	})
	availRow := row(map[int]string{
		0: "D", 2: "BIDPEROFFER", 4: "2026/01/02 00:00:00", 5: "GEN3", 6: "ENERGY",
		8: "2026/01/01 09:00:00",
		9: "2026/01/02 04:30:00",
		10: "100",
		12: "5", 13: "5",
		18: "10", 19: "20", 20: "30", 21: "40", 22: "50",
		23: "60", 24: "70", 25: "80", 26: "90", 27: "100",
		28: "95",
	})
	path := writeFixture(t, []string{dailyRow, availRow})

	p, err := NewCSVProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	offerDate := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	entries := p.BidsAt("GEN3", offerDate)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	tradingInterval := time.Date(2026, 1, 2, 4, 30, 0, 0, time.UTC)
	ab, ok := entries[0].AvailabilityByTradingInterval[tradingInterval]
	if !ok {
		t.Fatalf("expected availability bid attached for trading interval %v", tradingInterval)
	}
	if ab.MaxAvailability != 100 || ab.PhysicalAvailability != 95 {
		t.Fatalf("unexpected availability bid: %+v", ab)
	}
	if ab.AvailabilityPerBand[0] != 10 || ab.AvailabilityPerBand[9] != 100 {
		t.Fatalf("availability bands not parsed correctly: %+v", ab.AvailabilityPerBand)
	}
}

func TestCSVProviderBidsBefore(t *testing.T) {
	early := row(map[int]string{
		0: "D", 2: "BIDDAYOFFER", 4: "2026/01/02 00:00:00", 5: "GEN4", 6: "ENERGY",
		8: "2026/01/01 08:00:00",
		13: "1", 14: "2", 15: "3", 16: "4", 17: "5", 18: "6", 19: "7", 20: "8", 21: "9", 22: "10",
		32: "DAILY",
	})
	late := row(map[int]string{
		0: "D", 2: "BIDDAYOFFER", 4: "2026/01/02 00:00:00", 5: "GEN4", 6: "ENERGY",
		8: "2026/01/01 11:00:00",
		13: "1", 14: "2", 15: "3", 16: "4", 17: "5", 18: "6", 19: "7", 20: "8", 21: "9", 22: "10",
		32: "DAILY",
	})
	path := writeFixture(t, []string{early, late})

	p, err := NewCSVProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cutoff := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	before := p.BidsBefore("GEN4", cutoff)
	if len(before) != 1 {
		t.Fatalf("expected 1 entry before cutoff, got %d", len(before))
	}
}
