package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EdiPayslipHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type ediPayslipHandlerImpl struct {
	ediPayslipService edipayslip.EdiPayslipService
}

func NewEdiPayslipHandler(ediPayslipService edipayslip.EdiPayslipService) EdiPayslipHandler {
	return &ediPayslipHandlerImpl{ediPayslipService: ediPayslipService}
}

func (h *ediPayslipHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req edipayslip.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.ediPayslipService.Generate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "EDI payslips generated", result)
}

func (h *ediPayslipHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := edipayslip.EdiPayslipFilter{
		Year:  getIntQueryParam(r, "year", 0),
		Month: getIntQueryParam(r, "month", 0),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filter.State = &state
	}

	result, err := h.ediPayslipService.ListEdiPayslips(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *ediPayslipHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "EDI payslip ID is required", nil)
		return
	}

	result, err := h.ediPayslipService.GetEdiPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
