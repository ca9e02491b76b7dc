package usecase

import (
	"context"
	"fmt"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/geo"
	"local-electrician/pkg/logger"
	"local-electrician/pkg/metrics"

	"github.com/google/uuid"
)

// CreateRequestInput carries the customer-supplied fields of a new service
// request. All of them are immutable after creation.
type CreateRequestInput struct {
	CustomerRef   string
	ServiceType   string
	Urgency       string
	PreferredDate string
	PreferredSlot string
	IssueDetail   string

	CustomerName  string
	CustomerPhone string
	Address       string
	City          string
	Pincode       string
}

// Dispatcher creates service requests, either directed at one electrician or
// broadcast to the nearby candidate set.
type Dispatcher struct {
	requestRepo     repository.RequestRepository
	directory       repository.ElectricianDirectory
	customers       repository.CustomerDirectory
	geoIndex        *GeoIndex
	defaultRadiusKm float64
	logger          logger.Logger
	metrics         *metrics.Metrics
}

// NewDispatcher creates a new dispatcher. metrics may be nil.
func NewDispatcher(
	requestRepo repository.RequestRepository,
	directory repository.ElectricianDirectory,
	customers repository.CustomerDirectory,
	geoIndex *GeoIndex,
	defaultRadiusKm float64,
	log logger.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		requestRepo:     requestRepo,
		directory:       directory,
		customers:       customers,
		geoIndex:        geoIndex,
		defaultRadiusKm: defaultRadiusKm,
		logger:          log,
		metrics:         m,
	}
}

func (d *Dispatcher) validate(in CreateRequestInput) error {
	if in.CustomerRef == "" {
		return fmt.Errorf("%w: customerRef is required", entity.ErrValidation)
	}
	if in.ServiceType == "" {
		return fmt.Errorf("%w: serviceType is required", entity.ErrValidation)
	}
	return nil
}

// fillCustomerSnapshot completes snapshot fields the client omitted from the
// customer's directory profile. A directory miss leaves the input as-is.
func (d *Dispatcher) fillCustomerSnapshot(ctx context.Context, in *CreateRequestInput) {
	if in.CustomerName != "" && in.CustomerPhone != "" && in.Address != "" {
		return
	}

	profile, err := d.customers.GetProfile(ctx, in.CustomerRef)
	if err != nil || profile == nil {
		d.logger.Warn("Customer profile lookup failed",
			"customerRef", in.CustomerRef, "error", err)
		return
	}
	if in.CustomerName == "" {
		in.CustomerName = profile.Name
	}
	if in.CustomerPhone == "" {
		in.CustomerPhone = profile.Phone
	}
	if in.Address == "" {
		in.Address = profile.Address
	}
	if in.City == "" {
		in.City = profile.City
	}
}

func (d *Dispatcher) newRequest(in CreateRequestInput, assignment entity.Assignment) *entity.ServiceRequest {
	now := time.Now().UTC()
	return &entity.ServiceRequest{
		RequestID:     uuid.NewString(),
		CustomerRef:   in.CustomerRef,
		Assignment:    assignment,
		ServiceType:   in.ServiceType,
		Urgency:       in.Urgency,
		PreferredDate: in.PreferredDate,
		PreferredSlot: in.PreferredSlot,
		IssueDetail:   in.IssueDetail,
		Status:        entity.StatusNew,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Address:       in.Address,
		City:          in.City,
		Pincode:       in.Pincode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (d *Dispatcher) persist(ctx context.Context, req *entity.ServiceRequest, mode string) (string, error) {
	if err := d.requestRepo.Create(ctx, req); err != nil {
		return "", err
	}

	d.requestRepo.AppendLog(ctx, &entity.StatusLogEntry{
		RequestID:   req.RequestID,
		Status:      entity.StatusNew,
		Description: "Request created",
		CreatedAt:   req.CreatedAt,
	})

	if d.metrics != nil {
		d.metrics.RequestsCreated.WithLabelValues(mode).Inc()
	}
	d.logger.Info("Service request created",
		"requestId", req.RequestID, "mode", mode, "customerRef", req.CustomerRef)
	return req.RequestID, nil
}

// CreateDirected creates a request targeted at one electrician. The target
// must exist and be VERIFIED.
func (d *Dispatcher) CreateDirected(ctx context.Context, in CreateRequestInput, electricianID string) (string, error) {
	if err := d.validate(in); err != nil {
		return "", err
	}
	if electricianID == "" {
		return "", fmt.Errorf("%w: electricianId is required", entity.ErrValidation)
	}

	profile, err := d.directory.GetProfile(ctx, electricianID)
	if err != nil {
		return "", err
	}
	if profile == nil || profile.Status != entity.ElectricianVerified {
		return "", entity.ErrTargetNotEligible
	}

	d.fillCustomerSnapshot(ctx, &in)
	req := d.newRequest(in, entity.AssignedTo(electricianID))
	return d.persist(ctx, req, "directed")
}

// CreateBroadcast creates a request open to any verified electrician near the
// customer's location. An empty candidate set is not a failure: the request
// stays NEW and visible to electricians that appear later.
func (d *Dispatcher) CreateBroadcast(ctx context.Context, in CreateRequestInput, lat, lng float64) (string, error) {
	if err := d.validate(in); err != nil {
		return "", err
	}
	if !geo.ValidCoordinates(lat, lng) {
		return "", fmt.Errorf("%w: invalid coordinates", entity.ErrValidation)
	}

	candidates, err := d.geoIndex.Nearby(ctx, lat, lng, d.defaultRadiusKm)
	if err != nil {
		// The candidate set is informational at creation time; eligibility is
		// re-derived when an electrician polls or accepts.
		d.logger.Warn("Candidate lookup failed during broadcast create", "error", err)
	} else if len(candidates) == 0 {
		d.logger.Info("Broadcast request created with no current candidates",
			"lat", lat, "lng", lng, "radiusKm", d.defaultRadiusKm)
	}

	d.fillCustomerSnapshot(ctx, &in)
	req := d.newRequest(in, entity.Broadcast)
	req.Latitude = &lat
	req.Longitude = &lng
	req.RadiusKm = d.defaultRadiusKm
	return d.persist(ctx, req, "broadcast")
}
