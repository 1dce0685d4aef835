package report

import (
	"context"
	"sync"
)

// HistoryRepository stores the append-only report history per patient token.
type HistoryRepository interface {
	Append(ctx context.Context, token string, rec LabReportRecord) error
	ListByToken(ctx context.Context, token string) ([]LabReportRecord, error)
}

// InMemoryHistoryRepo is a thread-safe in-memory HistoryRepository used when
// no database is configured and in tests.
type InMemoryHistoryRepo struct {
	mu      sync.RWMutex
	records map[string][]LabReportRecord
}

func NewInMemoryHistoryRepo() *InMemoryHistoryRepo {
	return &InMemoryHistoryRepo{records: make(map[string][]LabReportRecord)}
}

func (r *InMemoryHistoryRepo) Append(_ context.Context, token string, rec LabReportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[token] = append(r.records[token], rec)
	return nil
}

func (r *InMemoryHistoryRepo) ListByToken(_ context.Context, token string) ([]LabReportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.records[token]
	out := make([]LabReportRecord, len(src))
	copy(out, src)
	return out, nil
}
