package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/usecase"
	"local-electrician/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the engine over HTTP: the creation and action endpoints,
// the polling reads, and the review endpoint.
type Handler struct {
	dispatcher *usecase.Dispatcher
	arbiter    *usecase.Arbiter
	polling    *usecase.PollingGateway
	reviews    *usecase.Reviews
	logger     logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	dispatcher *usecase.Dispatcher,
	arbiter *usecase.Arbiter,
	polling *usecase.PollingGateway,
	reviews *usecase.Reviews,
	log logger.Logger,
) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		arbiter:    arbiter,
		polling:    polling,
		reviews:    reviews,
		logger:     log,
	}
}

// RegisterRoutes wires the API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/requests", h.handleCreate)
		r.Get("/requests/{id}", h.handleGetRequest)
		r.Get("/requests/{id}/timeline", h.handleTimeline)
		r.Post("/requests/{id}/action", h.handleAction)
		r.Post("/requests/{id}/review", h.handleReview)
		r.Get("/customers/{ref}/active-request", h.handleCustomerActive)
		r.Get("/electricians/{id}/requests", h.handleElectricianRequests)
	})
}

type createRequestPayload struct {
	CustomerRef   string   `json:"customerRef"`
	ElectricianID string   `json:"electricianId"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	ServiceType   string   `json:"serviceType"`
	Urgency       string   `json:"urgency"`
	PreferredDate string   `json:"preferredDate"`
	PreferredSlot string   `json:"preferredSlot"`
	IssueDetail   string   `json:"issueDetail"`
	CustomerName  string   `json:"customerName"`
	CustomerPhone string   `json:"customerPhone"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	Pincode       string   `json:"pincode"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, entity.ErrValidation)
		return
	}

	in := usecase.CreateRequestInput{
		CustomerRef:   payload.CustomerRef,
		ServiceType:   payload.ServiceType,
		Urgency:       payload.Urgency,
		PreferredDate: payload.PreferredDate,
		PreferredSlot: payload.PreferredSlot,
		IssueDetail:   payload.IssueDetail,
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		Address:       payload.Address,
		City:          payload.City,
		Pincode:       payload.Pincode,
	}

	var requestID string
	var err error
	switch {
	case payload.ElectricianID != "":
		requestID, err = h.dispatcher.CreateDirected(r.Context(), in, payload.ElectricianID)
	case payload.Lat != nil && payload.Lng != nil:
		requestID, err = h.dispatcher.CreateBroadcast(r.Context(), in, *payload.Lat, *payload.Lng)
	default:
		err = entity.ErrValidation
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"requestId": requestID})
}

type actionPayload struct {
	ElectricianID string `json:"electricianId"`
	CustomerRef   string `json:"customerRef"`
	Action        string `json:"action"`
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var payload actionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, entity.ErrValidation)
		return
	}

	var actor string
	var role entity.ActorRole
	switch {
	case payload.ElectricianID != "":
		actor, role = payload.ElectricianID, entity.RoleElectrician
	case payload.CustomerRef != "":
		actor, role = payload.CustomerRef, entity.RoleCustomer
	default:
		h.writeError(w, entity.ErrValidation)
		return
	}

	action := entity.Action(payload.Action)
	switch action {
	case entity.ActionAccept, entity.ActionDecline, entity.ActionStart,
		entity.ActionComplete, entity.ActionCancel:
	default:
		h.writeError(w, entity.ErrValidation)
		return
	}

	status, err := h.arbiter.ApplyAction(r.Context(), requestID, actor, action, role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

type reviewPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, entity.ErrValidation)
		return
	}

	if err := h.reviews.Submit(r.Context(), requestID, payload.Rating, payload.Comment); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.polling.RequestByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req == nil {
		h.writeError(w, entity.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.polling.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*entity.StatusLogEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCustomerActive(w http.ResponseWriter, r *http.Request) {
	req, err := h.polling.ActiveForCustomer(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req == nil {
		// No active request is a normal poll answer, not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleElectricianRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.polling.RequestsForElectrician(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if reqs == nil {
		reqs = []*entity.ServiceRequest{}
	}
	h.writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the engine error taxonomy onto HTTP statuses with short,
// client-actionable messages. Only ErrStoreUnavailable is a server fault.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, entity.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrNotFound):
		status, message = http.StatusNotFound, "request not found"
	case errors.Is(err, entity.ErrTargetNotEligible):
		status, message = http.StatusUnprocessableEntity, "the selected electrician is not available for new requests"
	case errors.Is(err, entity.ErrNotEligible):
		status, message = http.StatusForbidden, "you are not eligible for this request"
	case errors.Is(err, entity.ErrAlreadyTaken):
		status, message = http.StatusConflict, "this job was already accepted by another electrician"
	case errors.Is(err, entity.ErrIllegalTransition):
		status, message = http.StatusConflict, "this action is not possible in the request's current state"
	case errors.Is(err, entity.ErrNotReviewable):
		status, message = http.StatusConflict, "this request cannot be reviewed"
	case errors.Is(err, entity.ErrStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		h.logger.Error("Unclassified handler error", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
