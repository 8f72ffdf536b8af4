package bidstore

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/nemsim/nemsim/internal/message"
)

// Column layout of an AEMO PUBLIC_YESTBID report, as published at
// http://www.nemweb.com.au/REPORTS/CURRENT/Yesterdays_Bids_Reports/
const (
	rowIDIndex        = 0
	endOfReportIndex  = 1
	bidOfferTypeIndex = 2
	settlementDateIdx = 4
	duidIndex         = 5
	bidTypeIndex      = 6
	bidOfferDateIndex        = 8
	tradingIntervalDateIndex = 9
	maxAvailabilityIndex     = 10
	rateOfChangeUpIndex      = 12
	rateOfChangeDownIndex    = 13
	rebidExplanationIndex    = 12
	priceBand1Index          = 13
	priceBand10Index         = 22
	availabilityBand1Index   = 18
	availabilityBand10Index  = 27
	pasaAvailabilityIndex    = 28
	bidEntryTypeIndex        = 32

	rowIDContainer = "C"
	rowIDData      = "D"
	endOfReportStr = "END OF REPORT"

	bidOfferTypeDaily     = "BIDDAYOFFER"
	bidOfferTypeInterval  = "BIDPEROFFER"
	energyBidType         = "ENERGY"
	entryTypeDaily        = "DAILY"
	entryTypeDefault      = "DEFAULT"
	entryTypeRebid        = "REBID"

	bidDateLayout = "2006/01/02 15:04:05"
)

// CSVProvider implements Provider by ingesting a PUBLIC_YESTBID CSV file
// into memory at construction time.
type CSVProvider struct {
	byDUID map[string]map[time.Time]*Entry // duid -> offer date -> entry
}

// NewCSVProvider reads and parses the PUBLIC_YESTBID file at path.
//
// A DUID whose only entries in the file are rebids (no DAILY/DEFAULT
// offer) has its earliest rebid promoted into a synthesized DispatchOffer
// carrying that rebid's availability data, since a rebid alone carries no
// pricing information and the generator must still have prices to bid
// with.
func NewCSVProvider(path string) (*CSVProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open yestbid file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	p := &CSVProvider{byDUID: make(map[string]map[time.Time]*Entry)}

	type earliest struct {
		offerDate time.Time
		offer     *Entry
	}
	earliestByDUID := make(map[string]earliest)
	hasOffer := make(map[string]bool)

	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if len(row) <= bidEntryTypeIndex {
			continue
		}
		if row[rowIDIndex] != rowIDData {
			continue
		}
		if row[bidTypeIndex] != energyBidType {
			continue
		}

		duid := row[duidIndex]
		offerDate, err := time.Parse(bidDateLayout, row[bidOfferDateIndex])
		if err != nil {
			log.Printf("bidstore: skipping row with malformed offer date for %s: %v", duid, err)
			continue
		}
		offerDate = offerDate.Truncate(time.Minute)
		settlementDate, err := time.Parse(bidDateLayout, row[settlementDateIdx])
		if err != nil {
			log.Printf("bidstore: skipping row with malformed settlement date for %s: %v", duid, err)
			continue
		}

		switch row[bidOfferTypeIndex] {
		case bidOfferTypeDaily:
			entryType := row[bidEntryTypeIndex]
			switch entryType {
			case entryTypeDaily, entryTypeDefault:
				prices, err := parsePriceBands(row, priceBand1Index, priceBand10Index)
				if err != nil {
					log.Printf("bidstore: skipping malformed price bands for %s: %v", duid, err)
					continue
				}
				e := &Entry{
					DUID:                          duid,
					OfferDate:                     offerDate,
					SettlementDate:                settlementDate,
					PricePerBand:                  prices,
					AvailabilityByTradingInterval: make(map[time.Time]message.AvailabilityBid),
				}
				p.put(duid, offerDate, e)
				hasOffer[duid] = true
				if cur, ok := earliestByDUID[duid]; !ok || offerDate.Before(cur.offerDate) {
					earliestByDUID[duid] = earliest{offerDate: offerDate, offer: e}
				}

			case entryTypeRebid:
				explanation := row[rebidExplanationIndex]
				e := &Entry{
					DUID:                          duid,
					OfferDate:                     offerDate,
					SettlementDate:                settlementDate,
					IsRebid:                       true,
					RebidExplanation:              explanation,
					AvailabilityByTradingInterval: make(map[time.Time]message.AvailabilityBid),
				}
				p.put(duid, offerDate, e)

				if _, ok := earliestByDUID[duid]; !ok || offerDate.Before(earliestByDUID[duid].offerDate) {
					prices, perr := parsePriceBands(row, priceBand1Index, priceBand10Index)
					if perr != nil {
						prices = message.PriceBands{}
					}
					synthetic := &Entry{
						DUID:                          duid,
						OfferDate:                     offerDate,
						SettlementDate:                settlementDate,
						PricePerBand:                  prices,
						AvailabilityByTradingInterval: make(map[time.Time]message.AvailabilityBid),
					}
					earliestByDUID[duid] = earliest{offerDate: offerDate, offer: synthetic}
				}
			}

		case bidOfferTypeInterval:
			avail, err := parsePriceBands(row, availabilityBand1Index, availabilityBand10Index)
			if err != nil {
				log.Printf("bidstore: skipping malformed availability bands for %s: %v", duid, err)
				continue
			}
			tradingIntervalDate, err := time.Parse(bidDateLayout, row[tradingIntervalDateIndex])
			if err != nil {
				log.Printf("bidstore: skipping row with malformed trading interval date for %s: %v", duid, err)
				continue
			}
			maxAvail, _ := strconv.ParseFloat(row[maxAvailabilityIndex], 64)
			physAvail, _ := strconv.ParseFloat(row[pasaAvailabilityIndex], 64)
			rocUp, _ := strconv.ParseFloat(row[rateOfChangeUpIndex], 64)
			rocDown, _ := strconv.ParseFloat(row[rateOfChangeDownIndex], 64)

			ab := message.AvailabilityBid{
				TradingIntervalDate:    tradingIntervalDate,
				AvailabilityPerBand:    avail,
				MaxAvailability:        maxAvail,
				PhysicalAvailability:   physAvail,
				RateOfChangeUpPerMin:   rocUp,
				RateOfChangeDownPerMin: rocDown,
			}

			entries := p.byDUID[duid]
			if entries == nil {
				continue
			}
			e, ok := entries[offerDate]
			if !ok {
				continue
			}
			e.AvailabilityByTradingInterval[tradingIntervalDate] = ab
		}
	}

	// Promote the earliest rebid of any DUID that has no DAILY/DEFAULT
	// offer at all into a synthesized dispatch offer.
	for duid, e := range earliestByDUID {
		if hasOffer[duid] {
			continue
		}
		entries := p.byDUID[duid]
		cur, ok := entries[e.offerDate]
		if !ok || !cur.IsRebid {
			continue
		}
		e.offer.AvailabilityByTradingInterval = cur.AvailabilityByTradingInterval
		entries[e.offerDate] = e.offer
		log.Printf("bidstore: promoted earliest rebid to dispatch offer for %s at %v (no daily/default offer present)", duid, e.offerDate)
	}

	return p, nil
}

func (p *CSVProvider) put(duid string, offerDate time.Time, e *Entry) {
	m := p.byDUID[duid]
	if m == nil {
		m = make(map[time.Time]*Entry)
		p.byDUID[duid] = m
	}
	m[offerDate] = e
}

func parsePriceBands(row []string, first, last int) (message.PriceBands, error) {
	var bands message.PriceBands
	if last-first+1 != len(bands) {
		return bands, fmt.Errorf("expected %d bands, column range gives %d", len(bands), last-first+1)
	}
	if len(row) <= last {
		return bands, fmt.Errorf("row too short: need column %d, have %d", last, len(row))
	}
	for i := first; i <= last; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return bands, fmt.Errorf("column %d: %w", i, err)
		}
		bands[i-first] = v
	}
	return bands, nil
}

// BidsAt implements Provider.
func (p *CSVProvider) BidsAt(duid string, offerDate time.Time) []Entry {
	entries, ok := p.byDUID[duid]
	if !ok {
		return nil
	}
	e, ok := entries[offerDate]
	if !ok {
		return nil
	}
	return []Entry{*e}
}

// BidsBefore implements Provider.
func (p *CSVProvider) BidsBefore(duid string, date time.Time) map[time.Time][]Entry {
	out := make(map[time.Time][]Entry)
	entries, ok := p.byDUID[duid]
	if !ok {
		return out
	}
	for offerDate, e := range entries {
		if offerDate.Before(date) {
			out[offerDate] = []Entry{*e}
		}
	}
	return out
}
