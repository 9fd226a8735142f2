package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RadianHandler interface {
	// Events
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	// Lifecycle
	Post(w http.ResponseWriter, r *http.Request)
	Draft(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	// Gateway
	Validate(w http.ResponseWriter, r *http.Request)
	PreviewRequests(w http.ResponseWriter, r *http.Request)

	// Lookups
	ListEventTypes(w http.ResponseWriter, r *http.Request)
	ListRejectionConcepts(w http.ResponseWriter, r *http.Request)
}

type radianHandlerImpl struct {
	radianService radian.RadianService
}

func NewRadianHandler(radianService radian.RadianService) RadianHandler {
	return &radianHandlerImpl{radianService: radianService}
}

// ========== EVENTS ==========

func (h *radianHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req radian.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.radianService.CreateEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Radian event created", result)
}

func (h *radianHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Event ID is required", nil)
		return
	}

	result, err := h.radianService.GetEvent(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *radianHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := radian.EventFilter{
		Page:  getIntQueryParam(r, "page", 1),
		Limit: getIntQueryParam(r, "limit", 20),
	}
	if state := query.Get("state"); state != "" {
		filter.State = &state
	}
	if invoiceID := query.Get("invoice_id"); invoiceID != "" {
		filter.InvoiceID = &invoiceID
	}
	if raw := query.Get("event_type_id"); raw != "" {
		typeID, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "event_type_id must be a number", nil)
			return
		}
		filter.EventTypeID = &typeID
	}

	result, err := h.radianService.ListEvents(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if result.Limit > 0 {
		totalPages = int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *radianHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Event ID is required", nil)
		return
	}

	var req radian.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.radianService.UpdateEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *radianHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Event ID is required", nil)
		return
	}

	if err := h.radianService.DeleteEvent(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Radian event deleted", nil)
}

// ========== LIFECYCLE ==========

// decodeIDs reads the {ids: [...]} body shared by the batch actions.
func decodeIDs(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req radian.EventIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return nil, false
	}
	return req.IDs, true
}

func (h *radianHandlerImpl) Post(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.radianService.Post(r.Context(), ids)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Radian events posted", result)
}

func (h *radianHandlerImpl) Draft(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.radianService.Draft(r.Context(), ids)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Radian events reset to draft", result)
}

func (h *radianHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.radianService.Cancel(r.Context(), ids)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Radian events cancelled", result)
}

// ========== GATEWAY ==========

func (h *radianHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Event ID is required", nil)
		return
	}

	result, err := h.radianService.ValidateEvent(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Radian event submitted", result)
}

func (h *radianHandlerImpl) PreviewRequests(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.radianService.BuildRequests(r.Context(), ids)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== LOOKUPS ==========

func (h *radianHandlerImpl) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.radianService.ListEventTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *radianHandlerImpl) ListRejectionConcepts(w http.ResponseWriter, r *http.Request) {
	result, err := h.radianService.ListRejectionConcepts(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
