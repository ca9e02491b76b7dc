package repository

import (
	"context"

	"local-electrician/internal/domain/entity"
)

// LedgerStore is the legacy append/update-oriented fallback ledger. It is not
// a participant in the concurrency-control path; it only mirrors rows and
// serves read-misses. FindByID returns (nil, nil) on a clean miss.
type LedgerStore interface {
	Upsert(ctx context.Context, req *entity.ServiceRequest) error
	FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error)
	All(ctx context.Context) ([]*entity.ServiceRequest, error)
}
