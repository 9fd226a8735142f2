package radian

import (
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
)

// ========== GATEWAY REQUEST ==========

// BasicEventRequest is the body sent to the gateway's /basic_event endpoint.
// Field order is the serialized key order.
type BasicEventRequest struct {
	Prefix        string      `json:"prefix"`
	Number        int         `json:"number"`
	Sync          bool        `json:"sync"`
	UUID          string      `json:"uuid"`
	Person        Person      `json:"person"`
	RejectionCode *int        `json:"rejection_code,omitempty"`
	Notes         []NoteEntry `json:"notes,omitempty"`
}

type Person struct {
	IDCode            int    `json:"id_code"`
	IDNumber          string `json:"id_number"`
	FirstName         string `json:"first_name"`
	Surname           string `json:"surname"`
	JobTitle          string `json:"job_title"`
	CountryCode       int    `json:"country_code"`
	CompanyDepartment string `json:"company_department"`
}

type NoteEntry struct {
	Text string `json:"text"`
}

// ========== EVENT DTOs ==========

type CreateEventRequest struct {
	EventTypeID        int     `json:"event_type_id"`
	InvoiceID          string  `json:"invoice_id"`
	RejectionConceptID *int    `json:"rejection_concept_id,omitempty"`
	Note               *string `json:"note,omitempty"`
	Prefix             *string `json:"prefix,omitempty"`
	Number             *int    `json:"number,omitempty"`
}

func (r *CreateEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EventTypeID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "event_type_id", Message: "is required"})
	}
	if validator.IsEmpty(r.InvoiceID) {
		errs = append(errs, validator.ValidationError{Field: "invoice_id", Message: "is required"})
	}
	if r.Number != nil && *r.Number < 0 {
		errs = append(errs, validator.ValidationError{Field: "number", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateEventRequest struct {
	ID                 string
	EventTypeID        *int    `json:"event_type_id,omitempty"`
	InvoiceID          *string `json:"invoice_id,omitempty"`
	RejectionConceptID *int    `json:"rejection_concept_id,omitempty"`
	Note               *string `json:"note,omitempty"`
	Prefix             *string `json:"prefix,omitempty"`
	Number             *int    `json:"number,omitempty"`
}

func (r *UpdateEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EventTypeID != nil && *r.EventTypeID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "event_type_id", Message: "is invalid"})
	}
	if r.InvoiceID != nil && validator.IsEmpty(*r.InvoiceID) {
		errs = append(errs, validator.ValidationError{Field: "invoice_id", Message: "cannot be empty"})
	}
	if r.Number != nil && *r.Number < 0 {
		errs = append(errs, validator.ValidationError{Field: "number", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EventIDsRequest selects the records an action runs over, in order.
type EventIDsRequest struct {
	IDs []string `json:"ids"`
}

func (r *EventIDsRequest) Validate() error {
	if len(r.IDs) == 0 {
		return validator.Required("ids", "at least one event is required")
	}
	return nil
}

type EventFilter struct {
	State       *string `json:"state,omitempty"`
	EventTypeID *int    `json:"event_type_id,omitempty"`
	InvoiceID   *string `json:"invoice_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *EventFilter) Validate() error {
	states := []string{string(StateDraft), string(StatePosted), string(StateCancel)}
	if f.State != nil && !validator.IsInSlice(*f.State, states) {
		return validator.Required("state", "must be draft, posted or cancel")
	}
	return nil
}

// Normalize clamps paging to sane defaults.
func (f *EventFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type EdiResultResponse struct {
	IsValid                   bool    `json:"is_valid"`
	IsRestored                bool    `json:"is_restored"`
	Algorithm                 string  `json:"algorithm,omitempty"`
	Class                     string  `json:"class,omitempty"`
	Number                    string  `json:"number,omitempty"`
	UUID                      string  `json:"uuid,omitempty"`
	IssueDate                 string  `json:"issue_date,omitempty"`
	ExpeditionDate            string  `json:"expedition_date,omitempty"`
	ZipKey                    *string `json:"zip_key,omitempty"`
	StatusCode                string  `json:"status_code,omitempty"`
	StatusDescription         string  `json:"status_description,omitempty"`
	StatusMessage             string  `json:"status_message,omitempty"`
	ErrorsMessages            string  `json:"errors_messages,omitempty"`
	XMLName                   string  `json:"xml_name,omitempty"`
	ZipName                   string  `json:"zip_name,omitempty"`
	Signature                 string  `json:"signature,omitempty"`
	QRCode                    string  `json:"qr_code,omitempty"`
	QRData                    string  `json:"qr_data,omitempty"`
	QRLink                    string  `json:"qr_link,omitempty"`
	PDFDownloadLink           string  `json:"pdf_download_link,omitempty"`
	XMLBase64                 string  `json:"xml_base64,omitempty"`
	ApplicationResponseBase64 string  `json:"application_response_base64,omitempty"`
	AttachedDocumentBase64    string  `json:"attached_document_base64,omitempty"`
	PDFBase64                 string  `json:"pdf_base64,omitempty"`
	ZipBase64                 string  `json:"zip_base64,omitempty"`
	TypeEnvironmentID         *int    `json:"type_environment_id,omitempty"`
}

type EventResponse struct {
	ID                 string            `json:"id"`
	CompanyID          string            `json:"company_id"`
	UserID             string            `json:"user_id"`
	Date               string            `json:"date"`
	Name               string            `json:"name"`
	Prefix             string            `json:"prefix,omitempty"`
	Number             int               `json:"number,omitempty"`
	State              string            `json:"state"`
	EventTypeID        int               `json:"event_type_id"`
	EventTypeCode      string            `json:"event_type_code,omitempty"`
	EventTypeName      string            `json:"event_type_name,omitempty"`
	InvoiceID          string            `json:"invoice_id"`
	InvoiceNumber      string            `json:"invoice_number,omitempty"`
	RejectionConceptID *int              `json:"rejection_concept_id,omitempty"`
	Note               *string           `json:"note,omitempty"`
	EdiSync            bool              `json:"edi_sync"`
	EdiIsNotTest       bool              `json:"edi_is_not_test"`
	Edi                EdiResultResponse `json:"edi"`
	EdiPayload         *string           `json:"edi_payload,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

type ListEventResponse struct {
	Data       []EventResponse `json:"data"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

type EventTypeResponse struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type RejectionConceptResponse struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
