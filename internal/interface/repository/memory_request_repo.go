package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"

	"github.com/google/uuid"
)

// MemoryRequestRepository is an in-process RequestStore. It enforces the same
// compare-and-set semantics as the Mongo implementation behind a single mutex,
// so concurrency tests against it exercise the real arbitration contract.
type MemoryRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*entity.ServiceRequest
	logs     []*entity.StatusLogEntry
}

// NewMemoryRequestRepository creates an empty in-memory request store
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[string]*entity.ServiceRequest),
	}
}

func cloneRequest(req *entity.ServiceRequest) *entity.ServiceRequest {
	c := *req
	if req.Latitude != nil {
		lat := *req.Latitude
		c.Latitude = &lat
	}
	if req.Longitude != nil {
		lng := *req.Longitude
		c.Longitude = &lng
	}
	if req.CompletedAt != nil {
		t := *req.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Insert persists a newly created request
func (r *MemoryRequestRepository) Insert(ctx context.Context, req *entity.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.RequestID] = cloneRequest(req)
	return nil
}

// Upsert writes a full request row, replacing any existing one
func (r *MemoryRequestRepository) Upsert(ctx context.Context, req *entity.ServiceRequest) error {
	return r.Insert(ctx, req)
}

// FindByID finds a request by id, returning (nil, nil) on a miss
func (r *MemoryRequestRepository) FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, nil
	}
	return cloneRequest(req), nil
}

// FindActiveByCustomer returns the customer's newest non-terminal request
func (r *MemoryRequestRepository) FindActiveByCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *entity.ServiceRequest
	for _, req := range r.requests {
		if req.CustomerRef != customerRef || req.Status.IsTerminal() {
			continue
		}
		if newest == nil || req.CreatedAt.After(newest.CreatedAt) {
			newest = req
		}
	}
	if newest == nil {
		return nil, nil
	}
	return cloneRequest(newest), nil
}

// FindByElectrician returns every request assigned to the electrician,
// newest first
func (r *MemoryRequestRepository) FindByElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reqs []*entity.ServiceRequest
	for _, req := range r.requests {
		if req.Assignment.ElectricianID() == electricianID {
			reqs = append(reqs, cloneRequest(req))
		}
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

// FindOpenBroadcast returns broadcast requests still waiting for a taker,
// newest first
func (r *MemoryRequestRepository) FindOpenBroadcast(ctx context.Context) ([]*entity.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reqs []*entity.ServiceRequest
	for _, req := range r.requests {
		if req.Assignment.IsBroadcast() && req.Status == entity.StatusNew {
			reqs = append(reqs, cloneRequest(req))
		}
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

func sortNewestFirst(reqs []*entity.ServiceRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

// ApplyTransition performs the conditional update under the store mutex
func (r *MemoryRequestRepository) ApplyTransition(ctx context.Context, upd repository.TransitionUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[upd.RequestID]
	if !ok {
		return false, nil
	}
	if req.Status != upd.ExpectedStatus {
		return false, nil
	}

	switch upd.ActorRole {
	case entity.RoleCustomer:
		if req.CustomerRef != upd.ActorCustomerRef {
			return false, nil
		}
	default:
		if !req.Assignment.IsBroadcast() && req.Assignment.ElectricianID() != upd.ActorElectricianID {
			return false, nil
		}
	}

	req.Status = upd.NextStatus
	req.UpdatedAt = upd.Now
	if upd.AssignElectrician {
		req.Assignment = entity.AssignedTo(upd.ActorElectricianID)
		if upd.Snapshot != nil {
			req.ElectricianName = upd.Snapshot.Name
			req.ElectricianPhone = upd.Snapshot.Phone
			req.ElectricianCity = upd.Snapshot.City
		}
	}
	if upd.SetCompletedAt {
		t := upd.Now
		req.CompletedAt = &t
	}
	return true, nil
}

// SetRatingOnce records a rating only while the request is completed and
// unrated
func (r *MemoryRequestRepository) SetRatingOnce(ctx context.Context, requestID string, rating int, comment string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		return false, nil
	}
	if req.Status != entity.StatusSuccess || req.Rating != 0 {
		return false, nil
	}

	req.Rating = rating
	req.ReviewComment = comment
	req.UpdatedAt = now
	return true, nil
}

// AppendLog appends one status log entry
func (r *MemoryRequestRepository) AppendLog(ctx context.Context, e *entity.StatusLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	entry := *e
	r.logs = append(r.logs, &entry)
	return nil
}

// LogsForRequest returns the transition trail oldest first
func (r *MemoryRequestRepository) LogsForRequest(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []*entity.StatusLogEntry
	for _, e := range r.logs {
		if e.RequestID == requestID {
			entry := *e
			entries = append(entries, &entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}
