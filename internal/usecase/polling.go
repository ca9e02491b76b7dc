package usecase

import (
	"context"
	"sort"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/geo"
	"local-electrician/pkg/logger"
)

// PollingGateway is the read side the clients poll on a short interval. All
// of its methods are side-effect free and safe to retry; absence is an empty
// result, never an error.
type PollingGateway struct {
	requestRepo     repository.RequestRepository
	directory       repository.ElectricianDirectory
	retentionWindow time.Duration
	logger          logger.Logger
}

// NewPollingGateway creates a new polling gateway
func NewPollingGateway(
	requestRepo repository.RequestRepository,
	directory repository.ElectricianDirectory,
	retentionWindow time.Duration,
	log logger.Logger,
) *PollingGateway {
	return &PollingGateway{
		requestRepo:     requestRepo,
		directory:       directory,
		retentionWindow: retentionWindow,
		logger:          log,
	}
}

// ActiveForCustomer returns the customer's single non-terminal request, or
// nil when there is none.
func (p *PollingGateway) ActiveForCustomer(ctx context.Context, customerRef string) (*entity.ServiceRequest, error) {
	return p.requestRepo.FindActiveByCustomer(ctx, customerRef)
}

// RequestByID returns a request, or nil when neither store holds it.
func (p *PollingGateway) RequestByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	return p.requestRepo.FindByID(ctx, requestID)
}

// Timeline returns the request's status log entries oldest first.
func (p *PollingGateway) Timeline(ctx context.Context, requestID string) ([]*entity.StatusLogEntry, error) {
	return p.requestRepo.LogsForRequest(ctx, requestID)
}

// RequestsForElectrician assembles the electrician's active list: requests
// assigned to them that are still running, their own completed work inside
// the retention window, and open broadcast requests they are a candidate for
// (eligibility re-derived from current directory coordinates).
func (p *PollingGateway) RequestsForElectrician(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error) {
	now := time.Now().UTC()

	assigned, err := p.requestRepo.FindByElectrician(ctx, electricianID)
	if err != nil {
		return nil, err
	}

	out := make([]*entity.ServiceRequest, 0, len(assigned))
	for _, req := range assigned {
		switch {
		case !req.Status.IsTerminal():
			out = append(out, req)
		case req.Status == entity.StatusSuccess && req.CompletedAt != nil &&
			now.Sub(*req.CompletedAt) <= p.retentionWindow:
			// Completed work stays briefly visible, then drops off the
			// active list while remaining in history.
			out = append(out, req)
		}
	}

	broadcast, err := p.broadcastFor(ctx, electricianID)
	if err != nil {
		// The assigned list is still useful when the directory is down;
		// broadcast rows just disappear until it recovers.
		p.logger.Warn("Broadcast candidate resolution failed",
			"electricianId", electricianID, "error", err)
	} else {
		out = append(out, broadcast...)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (p *PollingGateway) broadcastFor(ctx context.Context, electricianID string) ([]*entity.ServiceRequest, error) {
	open, err := p.requestRepo.FindOpenBroadcast(ctx)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}

	electricians, err := p.directory.ListVerifiedWithLocation(ctx)
	if err != nil {
		return nil, err
	}
	var self *entity.Electrician
	for _, e := range electricians {
		if e.ID == electricianID {
			self = e
			break
		}
	}
	if self == nil || !self.HasLocation() {
		// Not verified or no coordinates: not a candidate for anything.
		return nil, nil
	}

	var out []*entity.ServiceRequest
	for _, req := range open {
		if req.Latitude == nil || req.Longitude == nil || req.RadiusKm <= 0 {
			continue
		}
		dist := geo.DistanceKm(*req.Latitude, *req.Longitude, *self.Latitude, *self.Longitude)
		if dist <= req.RadiusKm {
			out = append(out, req)
		}
	}
	return out, nil
}
