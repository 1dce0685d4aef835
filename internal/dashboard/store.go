// Package dashboard owns the aggregated dashboard state: the live monthly
// trend series and the alert list. The Store is the single source of truth
// the UI reads; the ingestion Coordinator is its only writer.
package dashboard

import (
	"sync"

	"github.com/vitalboard/vitalboard/internal/domain/alerts"
	"github.com/vitalboard/vitalboard/internal/domain/trends"
)

// Store holds the current trend series and alert list. Reads return copies;
// mutation through a returned snapshot never affects the store. A mutex
// guards it because the server is genuinely multi-threaded, but writer
// discipline still applies: only the Coordinator mutates.
type Store struct {
	mu     sync.RWMutex
	trends []trends.TrendPoint
	alerts []alerts.AlertRecord
}

func NewStore() *Store {
	return &Store{}
}

// AppendTrendPoint appends to the end of the current series without
// re-sorting. Callers that care about ordering derive from the full history
// and use ReplaceTrends instead.
func (s *Store) AppendTrendPoint(p trends.TrendPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trends = append(s.trends, p)
}

// ReplaceTrends swaps in an authoritative series derived from full history.
func (s *Store) ReplaceTrends(series []trends.TrendPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trends = make([]trends.TrendPoint, len(series))
	copy(s.trends, series)
}

// LastTrendPoint returns the most recently appended point, if any.
func (s *Store) LastTrendPoint() (trends.TrendPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.trends) == 0 {
		return trends.TrendPoint{}, false
	}
	return s.trends[len(s.trends)-1], true
}

// PrependAlerts inserts records at the head one by one, in the given order,
// so the last record of the batch ends up first overall.
func (s *Store) PrependAlerts(records []alerts.AlertRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	head := make([]alerts.AlertRecord, 0, len(records)+len(s.alerts))
	for i := len(records) - 1; i >= 0; i-- {
		head = append(head, records[i])
	}
	s.alerts = append(head, s.alerts...)
}

// Trends returns a snapshot of the current series.
func (s *Store) Trends() []trends.TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trends.TrendPoint, len(s.trends))
	copy(out, s.trends)
	return out
}

// Alerts returns a snapshot of the current alert list, newest first.
func (s *Store) Alerts() []alerts.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.AlertRecord, len(s.alerts))
	copy(out, s.alerts)
	return out
}
