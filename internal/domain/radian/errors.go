package radian

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound            = errors.New("radian event not found")
	ErrEventTypeNotFound        = errors.New("radian event type not found")
	ErrEventTypeNotAllowed      = errors.New("event type is not a radian event (030-034)")
	ErrRejectionConceptNotFound = errors.New("rejection concept not found")
	ErrInvoiceNotFound          = errors.New("purchase invoice not found")
	ErrInvoiceNotEligible       = errors.New("events can only reference posted purchase invoices or credit notes")
	ErrSubmitterNotFound        = errors.New("submitting user not found")
	ErrCompanyNotFound          = errors.New("company not found")
	ErrEventNotDraft            = errors.New("radian event can only be modified in draft state")
	ErrSequenceWrong            = errors.New("the DIAN event sequence is wrong")
	ErrCannotCancelValidated    = errors.New("you cannot cancel a radian event that has already been validated to the DIAN")
	ErrTokenRequired            = errors.New("you must configure a token")
	ErrTestSetIDRequired        = errors.New("you have not configured a 'TestSetId'")

	// Request preconditions, checked in this order.
	ErrRejectionConceptRequired = errors.New("the rejection concept is required for the DIAN claim event")
	ErrInvoiceUUIDRequired      = errors.New("the invoice UUID (CUFE) is required for DIAN events")
	ErrUserDocumentTypeRequired = errors.New("the document type for user is required for DIAN events")
	ErrUserVATRequired          = errors.New("the document number (VAT) for user is required for DIAN events")
	ErrUserFirstNameRequired    = errors.New("the user first name is required for DIAN events")
	ErrUserSurnameRequired      = errors.New("the user surname is required for DIAN events")
	ErrNumberPrefixRequired     = errors.New("the number and prefix are required for DIAN events")
)

var preconditionErrors = []error{
	ErrSequenceWrong,
	ErrCannotCancelValidated,
	ErrTokenRequired,
	ErrTestSetIDRequired,
	ErrRejectionConceptRequired,
	ErrInvoiceUUIDRequired,
	ErrUserDocumentTypeRequired,
	ErrUserVATRequired,
	ErrUserFirstNameRequired,
	ErrUserSurnameRequired,
	ErrNumberPrefixRequired,
}

// IsPreconditionError reports whether err is a user-correctable precondition failure.
func IsPreconditionError(err error) bool {
	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Messages of the gateway outcomes that are not a plain echo of the response.
const (
	MsgAuthentication  = "authentication error with the API"
	MsgNoZipKey        = "a valid zip key was not obtained, try again"
	MsgNotValidated    = "the document could not be validated in DIAN"
	MsgNoLogicResponse = "no logical response was obtained from the API"
	MsgValidated       = "The validation at DIAN has been successful."
	MsgHabilitation    = "Document sent to DIAN in habilitation."
)

// GatewayError is a failure reported by the gateway itself (detail, message or an
// unusable result).
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// IntegrationError wraps every failure of a gateway submission. Unwrap exposes the
// cause so validation failures raised while preparing the call stay detectable.
type IntegrationError struct {
	EventID string
	Err     error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("failed to process the request: %v", e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}
