package demand

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Column layout of an AEMO PUBLIC_PRICES report's DREGION rows, as
// published at http://www.nemweb.com.au/REPORTS/CURRENT/Public_Prices/
const (
	rowIDIndex               = 0
	rowTypeIndex             = 1
	regionIDIndex            = 6
	dispatchIntervalDateIdx  = 4
	dispatchIntervalDemandIx = 13

	rowIDData           = "D"
	dispatchRowType     = "DREGION"
	publicPricesDateFmt = "2006/01/02 15:04:05"
)

// CSVProvider supplies demand forecasts by reading published PUBLIC_PRICES
// data for a single region. Since the file records actual demand that
// already happened rather than a forecast, it "cheats": a forecast
// requested for dispatch interval T is satisfied from the file's recorded
// demand at T+24h, matching how the report is used as stand-in data.
type CSVProvider struct {
	regionID      string
	demandByDate  map[time.Time]float64
}

// NewCSVProvider reads and parses the PUBLIC_PRICES file at path, scoped
// to regionID.
func NewCSVProvider(path, regionID string) (*CSVProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open public prices file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	p := &CSVProvider{regionID: regionID, demandByDate: make(map[time.Time]float64)}

	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if len(row) <= dispatchIntervalDemandIx {
			continue
		}
		if row[rowIDIndex] != rowIDData || row[rowTypeIndex] != dispatchRowType {
			continue
		}
		if row[regionIDIndex] != regionID {
			continue
		}

		date, err := time.Parse(publicPricesDateFmt, row[dispatchIntervalDateIdx])
		if err != nil {
			log.Printf("demand: skipping row with malformed date: %v", err)
			continue
		}
		demand, err := strconv.ParseFloat(row[dispatchIntervalDemandIx], 64)
		if err != nil {
			log.Printf("demand: skipping row with malformed demand value: %v", err)
			continue
		}
		p.demandByDate[date] = demand
	}

	return p, nil
}

// DemandForecast implements Provider.
func (p *CSVProvider) DemandForecast(dispatchIntervalDate time.Time) float64 {
	lookup := dispatchIntervalDate.AddDate(0, 0, 1)
	return p.demandByDate[lookup]
}
