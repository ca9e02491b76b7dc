package usecase

import (
	"context"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/geo"
	"local-electrician/pkg/logger"
	"local-electrician/pkg/metrics"
)

// Arbiter serializes concurrent actions against a single request. It owns no
// lock of its own: the primary store's conditional write is the serialization
// point, which keeps the engine correct across multiple stateless instances.
type Arbiter struct {
	requestRepo repository.RequestRepository
	directory   repository.ElectricianDirectory
	logger      logger.Logger
	metrics     *metrics.Metrics
}

// NewArbiter creates a new acceptance arbiter. metrics may be nil.
func NewArbiter(
	requestRepo repository.RequestRepository,
	directory repository.ElectricianDirectory,
	log logger.Logger,
	m *metrics.Metrics,
) *Arbiter {
	return &Arbiter{
		requestRepo: requestRepo,
		directory:   directory,
		logger:      log,
		metrics:     m,
	}
}

// ApplyAction drives one status transition. actor is the electrician id for
// electrician actions and the customer ref for customer actions. It returns
// the resulting status, or the current status for the broadcast-decline
// no-op.
func (a *Arbiter) ApplyAction(ctx context.Context, requestID, actor string, action entity.Action, role entity.ActorRole) (entity.Status, error) {
	start := time.Now()
	status, err := a.applyAction(ctx, requestID, actor, action, role)
	if a.metrics != nil {
		a.metrics.ActionDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "rejected"
		}
		a.metrics.Transitions.WithLabelValues(string(action), outcome).Inc()
	}
	return status, err
}

func (a *Arbiter) applyAction(ctx context.Context, requestID, actor string, action entity.Action, role entity.ActorRole) (entity.Status, error) {
	req, err := a.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", entity.ErrNotFound
	}

	// Declining a broadcast request is a no-op: the request stays NEW and
	// visible to the other candidates.
	if action == entity.ActionDecline && role == entity.RoleElectrician && req.Assignment.IsBroadcast() {
		a.logger.Info("Broadcast decline ignored", "requestId", requestID, "electricianId", actor)
		return req.Status, nil
	}

	if action == entity.ActionAccept && role == entity.RoleElectrician && req.Assignment.IsBroadcast() {
		if err := a.checkBroadcastEligibility(ctx, req, actor); err != nil {
			return "", err
		}
	}

	next, description, err := NextStatus(req.Status, action, role)
	if err != nil {
		// An accept that arrives after another electrician already owns the
		// request is a lost race, not a protocol violation.
		if action == entity.ActionAccept && role == entity.RoleElectrician &&
			!req.Assignment.IsBroadcast() && req.Assignment.ElectricianID() != actor {
			if a.metrics != nil {
				a.metrics.AcceptConflicts.Inc()
			}
			return "", entity.ErrAlreadyTaken
		}
		return "", err
	}

	upd := repository.TransitionUpdate{
		RequestID:      requestID,
		ExpectedStatus: req.Status,
		NextStatus:     next,
		ActorRole:      role,
		SetCompletedAt: next == entity.StatusSuccess,
		Now:            time.Now().UTC(),
	}
	switch role {
	case entity.RoleCustomer:
		upd.ActorCustomerRef = actor
	default:
		upd.ActorElectricianID = actor
	}

	if req.Status == entity.StatusNew && next == entity.StatusAccepted {
		upd.AssignElectrician = true
		upd.Snapshot = a.snapshotProfile(ctx, actor)
	}

	changed, err := a.requestRepo.ApplyTransition(ctx, upd)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", a.classifyLostWrite(ctx, requestID, req.Status, actor, action, role)
	}

	a.requestRepo.AppendLog(ctx, &entity.StatusLogEntry{
		RequestID:   requestID,
		Status:      next,
		Description: description,
		CreatedAt:   upd.Now,
	})

	a.logger.Info("Request transitioned",
		"requestId", requestID, "from", req.Status, "to", next, "action", action, "actor", actor)
	return next, nil
}

// checkBroadcastEligibility verifies the actor is a current candidate: a
// VERIFIED electrician with coordinates inside the request's stored radius.
// Verification is checked even when the row carries no geometry (legacy
// ledger rows decode without it); only the distance comparison is skipped
// then.
func (a *Arbiter) checkBroadcastEligibility(ctx context.Context, req *entity.ServiceRequest, electricianID string) error {
	profile, err := a.directory.GetProfile(ctx, electricianID)
	if err != nil {
		return err
	}
	if profile == nil || profile.Status != entity.ElectricianVerified {
		return entity.ErrNotEligible
	}

	if req.Latitude == nil || req.Longitude == nil || req.RadiusKm <= 0 {
		return nil
	}

	electricians, err := a.directory.ListVerifiedWithLocation(ctx)
	if err != nil {
		return err
	}
	for _, e := range electricians {
		if e.ID != electricianID {
			continue
		}
		if !e.HasLocation() {
			break
		}
		dist := geo.DistanceKm(*req.Latitude, *req.Longitude, *e.Latitude, *e.Longitude)
		if dist <= req.RadiusKm {
			return nil
		}
		break
	}
	return entity.ErrNotEligible
}

// snapshotProfile fetches the electrician profile to denormalize into the
// request row on acceptance. A profile miss does not block the acceptance;
// the snapshot is simply absent.
func (a *Arbiter) snapshotProfile(ctx context.Context, electricianID string) *entity.ElectricianSnapshot {
	profile, err := a.directory.GetProfile(ctx, electricianID)
	if err != nil || profile == nil {
		a.logger.Warn("Profile snapshot unavailable at acceptance",
			"electricianId", electricianID, "error", err)
		return nil
	}
	return &entity.ElectricianSnapshot{
		Name:  profile.Name,
		Phone: profile.Phone,
		City:  profile.City,
	}
}

// classifyLostWrite re-reads the row after a zero-row conditional update and
// resolves which taxonomy error the caller gets.
func (a *Arbiter) classifyLostWrite(ctx context.Context, requestID string, expected entity.Status, actor string, action entity.Action, role entity.ActorRole) error {
	cur, err := a.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if cur == nil {
		return entity.ErrNotFound
	}

	if cur.Status != expected {
		if action == entity.ActionAccept && a.metrics != nil {
			a.metrics.AcceptConflicts.Inc()
		}
		a.logger.Info("Action lost the race",
			"requestId", requestID, "expected", expected, "current", cur.Status, "actor", actor)
		return entity.ErrAlreadyTaken
	}

	switch role {
	case entity.RoleCustomer:
		if cur.CustomerRef != actor {
			return entity.ErrNotEligible
		}
	default:
		if !cur.Assignment.IsBroadcast() && cur.Assignment.ElectricianID() != actor {
			return entity.ErrNotEligible
		}
	}
	return entity.ErrIllegalTransition
}
