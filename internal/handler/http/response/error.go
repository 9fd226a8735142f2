package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// User-correctable preconditions, also when raised inside a gateway submission
	if radian.IsPreconditionError(err) {
		writeJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "PRECONDITION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	var integrationErr *radian.IntegrationError
	if errors.As(err, &integrationErr) {
		BadGateway(w, err.Error())
		return
	}

	switch {
	// Radian domain errors
	case errors.Is(err, radian.ErrEventNotFound):
		NotFound(w, "Radian event not found")
	case errors.Is(err, radian.ErrEventTypeNotFound):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, radian.ErrEventTypeNotAllowed):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, radian.ErrRejectionConceptNotFound):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, radian.ErrInvoiceNotFound):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, radian.ErrInvoiceNotEligible):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, radian.ErrSubmitterNotFound):
		NotFound(w, "Submitting user not found")
	case errors.Is(err, radian.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, radian.ErrEventNotDraft):
		Conflict(w, err.Error())

	// EDI payslip domain errors
	case errors.Is(err, edipayslip.ErrEdiPayslipNotFound):
		NotFound(w, "EDI payslip not found")

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrQueueFull):
		ServiceUnavailable(w, "Notification queue is full")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
