package repository

import (
	"context"
	"time"

	"local-electrician/internal/domain/entity"
)

// TransitionUpdate describes one conditional write against a request row. The
// store applies it only when the row still matches the expected status and the
// actor predicate, and reports whether a row changed. That compare-and-set is
// the engine's only mutual-exclusion point.
type TransitionUpdate struct {
	RequestID      string
	ExpectedStatus entity.Status
	NextStatus     entity.Status

	// Actor predicate. For electrician actions the row must be assigned to
	// ActorElectricianID or be open broadcast. For customer actions the row
	// must belong to ActorCustomerRef.
	ActorRole          entity.ActorRole
	ActorElectricianID string
	ActorCustomerRef   string

	// AssignElectrician rewrites the assignment to the actor in the same
	// write; set only on the NEW -> ACCEPTED transition, together with the
	// profile snapshot.
	AssignElectrician bool
	Snapshot          *entity.ElectricianSnapshot

	// SetCompletedAt stamps completedAt; set only on transitions into SUCCESS.
	SetCompletedAt bool

	Now time.Time
}

// ConditionalStore is the compare-and-set surface of the primary store. A unit
// test can substitute an in-memory implementation as long as it enforces the
// same single-row conditional-write semantics.
type ConditionalStore interface {
	// ApplyTransition performs the conditional update and reports whether
	// exactly one row changed. false with a nil error means the condition did
	// not match; the caller re-reads to classify why.
	ApplyTransition(ctx context.Context, upd TransitionUpdate) (bool, error)

	// SetRatingOnce records a rating only when the request is in SUCCESS and
	// has no rating yet. Reports whether the row changed.
	SetRatingOnce(ctx context.Context, requestID string, rating int, comment string, now time.Time) (bool, error)
}

// RequestStore is the full surface of the primary transactional store.
// FindByID returns (nil, nil) on a clean miss so callers can distinguish
// "no such row" from "lookup failed".
type RequestStore interface {
	ConditionalStore

	Insert(ctx context.Context, req *entity.ServiceRequest) error
	Upsert(ctx context.Context, req *entity.ServiceRequest) error
	FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error)
	FindActiveByCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error)
	FindByElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error)
	FindOpenBroadcast(ctx context.Context) ([]*entity.ServiceRequest, error)

	AppendLog(ctx context.Context, e *entity.StatusLogEntry) error
	LogsForRequest(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error)
}

// RequestRepository is what the usecases consume: the dual-store bridge that
// layers the fallback ledger behind a RequestStore.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ServiceRequest) error
	FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error)
	FindActiveByCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error)
	FindByElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error)
	FindOpenBroadcast(ctx context.Context) ([]*entity.ServiceRequest, error)

	ApplyTransition(ctx context.Context, upd TransitionUpdate) (bool, error)
	SetRatingOnce(ctx context.Context, requestID string, rating int, comment string, now time.Time) (bool, error)

	AppendLog(ctx context.Context, e *entity.StatusLogEntry) error
	LogsForRequest(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error)
}
