package repository

import (
	"context"
	"sort"
	"sync"

	"local-electrician/internal/domain/entity"
)

// MemoryLedgerRepository is an in-process LedgerStore. It round-trips rows
// through the positional encoding so tests cover the same defensive mapping
// the Postgres ledger uses.
type MemoryLedgerRepository struct {
	mu   sync.Mutex
	rows map[string][]string
}

// NewMemoryLedgerRepository creates an empty in-memory ledger
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		rows: make(map[string][]string),
	}
}

// Upsert writes a request as a positional row
func (r *MemoryLedgerRepository) Upsert(ctx context.Context, req *entity.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[req.RequestID] = encodeLedgerRow(req)
	return nil
}

// FindByID finds a row by request id, returning (nil, nil) on a miss
func (r *MemoryLedgerRepository) FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cols, ok := r.rows[requestID]
	if !ok {
		return nil, nil
	}
	return DecodeLedgerRow(requestID, cols), nil
}

// All returns every row
func (r *MemoryLedgerRepository) All(ctx context.Context) ([]*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reqs := make([]*entity.ServiceRequest, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, DecodeLedgerRow(id, r.rows[id]))
	}
	return reqs, nil
}
