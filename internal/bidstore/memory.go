package bidstore

import "time"

// MemoryProvider is a Provider backed by an explicit, pre-populated set
// of entries. Useful for tests and for synthetic generators that don't
// read from a CSV file.
type MemoryProvider struct {
	byDUID map[string]map[time.Time]Entry
}

// NewMemoryProvider builds an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{byDUID: make(map[string]map[time.Time]Entry)}
}

// Put registers an entry for duid at offerDate.
func (m *MemoryProvider) Put(duid string, offerDate time.Time, e Entry) {
	byDate := m.byDUID[duid]
	if byDate == nil {
		byDate = make(map[time.Time]Entry)
		m.byDUID[duid] = byDate
	}
	byDate[offerDate] = e
}

// BidsAt implements Provider.
func (m *MemoryProvider) BidsAt(duid string, offerDate time.Time) []Entry {
	byDate, ok := m.byDUID[duid]
	if !ok {
		return nil
	}
	e, ok := byDate[offerDate]
	if !ok {
		return nil
	}
	return []Entry{e}
}

// BidsBefore implements Provider.
func (m *MemoryProvider) BidsBefore(duid string, date time.Time) map[time.Time][]Entry {
	out := make(map[time.Time][]Entry)
	byDate, ok := m.byDUID[duid]
	if !ok {
		return out
	}
	for offerDate, e := range byDate {
		if offerDate.Before(date) {
			out[offerDate] = []Entry{e}
		}
	}
	return out
}
