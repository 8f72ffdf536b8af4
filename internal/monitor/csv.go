// Package monitor writes a simulation's dispatch and trading interval
// results to a CSV file, one section per interval type.
package monitor

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nemsim/nemsim/internal/operator"
	"github.com/nemsim/nemsim/internal/simclock"
)

const dateTimeFormat = "2006/01/02 15:04:05"

// RegionOperator is the subset of operator.Operator a CSV monitor reads from.
type RegionOperator interface {
	RegionName() string
	DispatchIntervalInfoAt(t time.Time) (operator.DispatchIntervalInfo, bool)
	TradingIntervalInfoAt(t time.Time) (operator.TradingIntervalInfo, bool)
}

// Operators adapts a slice of concrete operators to the interface WriteCSV expects.
func Operators(ops []*operator.Operator) []RegionOperator {
	out := make([]RegionOperator, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

// WriteCSV writes a TRADING section followed by a DISPATCH section,
// covering every interval between startDate and endDate for each given
// operator, to path. Missing intervals are written out as 'N/A' rows
// rather than omitted, so downstream tooling can see gaps at a glance.
func WriteCSV(path string, startDate, endDate time.Time, operators []RegionOperator) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("monitor: create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("monitor: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := writeTradingSection(w, startDate, endDate, operators); err != nil {
		return err
	}
	if err := writeDispatchSection(w, startDate, endDate, operators); err != nil {
		return err
	}
	return w.Error()
}

func writeTradingSection(w *csv.Writer, startDate, endDate time.Time, operators []RegionOperator) error {
	if err := w.Write([]string{"INTERVAL_TYPE", "REGION_ID", "TRADING_INTERVAL", "SPOT_PRICE", "TOTAL_DEMAND", "DEMAND_SUPPLIED", "GENERATORS_DISPATCHED(MW)"}); err != nil {
		return err
	}

	step := time.Duration(simclock.TradingIntervalMinutes) * time.Minute
	for _, op := range operators {
		for t := startDate.Add(step); t.Before(endDate) || t.Equal(endDate); t = t.Add(step) {
			info, ok := op.TradingIntervalInfoAt(t)
			if !ok {
				if err := w.Write([]string{"TRADING", op.RegionName(), t.Format(dateTimeFormat), "N/A", "N/A", "N/A", "N/A"}); err != nil {
					return err
				}
				continue
			}
			row := []string{
				"TRADING",
				op.RegionName(),
				t.Format(dateTimeFormat),
				fmt.Sprintf("%.2f", info.SpotPrice),
				fmt.Sprintf("%.2f", info.TotalDemand),
				fmt.Sprintf("%.2f", info.TotalDemandSupplied),
				formatGeneratorSet(info.GeneratorIDsDispatched),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDispatchSection(w *csv.Writer, startDate, endDate time.Time, operators []RegionOperator) error {
	if err := w.Write([]string{"INTERVAL_TYPE", "REGION_ID", "DISPATCH_INTERVAL", "PRICE", "PRICE_BAND_NO", "TOTAL_DEMAND", "DEMAND_SUPPLIED", "GENERATORS_DISPATCHED(MW)"}); err != nil {
		return err
	}

	step := time.Duration(simclock.DispatchIntervalMinutes) * time.Minute
	for _, op := range operators {
		for t := startDate.Add(step); t.Before(endDate) || t.Equal(endDate); t = t.Add(step) {
			info, ok := op.DispatchIntervalInfoAt(t)
			if !ok {
				if err := w.Write([]string{"DISPATCH", op.RegionName(), t.Format(dateTimeFormat), "N/A", "N/A", "N/A", "N/A", "N/A"}); err != nil {
					return err
				}
				continue
			}
			row := []string{
				"DISPATCH",
				op.RegionName(),
				t.Format(dateTimeFormat),
				fmt.Sprintf("%.2f", info.Price),
				fmt.Sprintf("%d", info.PriceBandNo+1),
				fmt.Sprintf("%.2f", info.TotalDemand),
				fmt.Sprintf("%.2f", info.TotalDemandSupplied),
				formatGeneratorSupply(info.DemandSuppliedByGenID),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatGeneratorSet(ids map[string]bool) string {
	names := make([]string, 0, len(ids))
	for id := range ids {
		names = append(names, id)
	}
	sort.Strings(names)
	out := ""
	for i, id := range names {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

func formatGeneratorSupply(supplied map[string]float64) string {
	type entry struct {
		id     string
		demand float64
	}
	entries := make([]entry, 0, len(supplied))
	for id, demand := range supplied {
		entries = append(entries, entry{id, demand})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].demand > entries[j].demand })

	out := ""
	for i, e := range entries {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s(%.2f)", e.id, e.demand)
	}
	return out
}
