package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/dailybrief/internal/contracts"
)

// MemoryStore is the in-process history used when no database is configured
type MemoryStore struct {
	mu     sync.RWMutex
	briefs map[time.Time][]contracts.ValidatedRecord
	now    func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		briefs: make(map[time.Time][]contracts.ValidatedRecord),
		now:    time.Now,
	}
}

// GetRecentSymbols returns symbols published within the window, sorted
func (m *MemoryStore) GetRecentSymbols(ctx context.Context, windowDays int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from := windowStart(m.now(), windowDays)
	seen := make(map[string]bool)
	var symbols []string
	for day, recs := range m.briefs {
		if day.Before(from) {
			continue
		}
		for i := range recs {
			if sym := recs[i].Symbol(); !seen[sym] {
				seen[sym] = true
				symbols = append(symbols, sym)
			}
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// GetRecentSummaries renders past recommendations within the window, newest first
func (m *MemoryStore) GetRecentSummaries(ctx context.Context, windowDays int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from := windowStart(m.now(), windowDays)
	var lines []summaryLine
	for day, recs := range m.briefs {
		if day.Before(from) {
			continue
		}
		for i := range recs {
			r := recs[i].Recommendation
			lines = append(lines, summaryLine{
				Date:       day,
				Symbol:     r.Symbol,
				Action:     r.Action,
				Confidence: r.Confidence,
				Reasoning:  r.Reasoning,
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.After(lines[j].Date)
		}
		if lines[i].Confidence != lines[j].Confidence {
			return lines[i].Confidence > lines[j].Confidence
		}
		return lines[i].Symbol < lines[j].Symbol
	})
	return formatSummaries(lines), nil
}

// Publish replaces the brief for date with the given records
func (m *MemoryStore) Publish(ctx context.Context, records []contracts.ValidatedRecord, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]contracts.ValidatedRecord, len(records))
	copy(cp, records)
	m.briefs[dateOnly(date)] = cp
	return nil
}

// Latest returns the most recently dated brief
func (m *MemoryStore) Latest() (time.Time, []contracts.ValidatedRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for day := range m.briefs {
		if day.After(latest) {
			latest = day
		}
	}
	if latest.IsZero() {
		return time.Time{}, nil, false
	}
	return latest, m.briefs[latest], true
}
