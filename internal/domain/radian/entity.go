package radian

import (
	"strconv"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
)

// EventState enum
type EventState string

const (
	StateDraft  EventState = "draft"
	StatePosted EventState = "posted"
	StateCancel EventState = "cancel"
)

// Event type codes accepted for Radian events.
const (
	CodeReceiptAcknowledgement = "030"
	CodeClaim                  = "031"
	CodeGoodsReceipt           = "032"
	CodeExpressAcceptance      = "033"
	CodeTacitAcceptance        = "034"
)

// PlaceholderName is the display name of an event with no sequence yet.
const PlaceholderName = "New"

// Constant person fields sent with every event.
const (
	PersonJobTitle          = "Asistente de contabilidad"
	PersonCountryCode       = 46
	PersonCompanyDepartment = "Contabilidad"
)

// EnvironmentProduction is the gateway's type_environment_id for production.
const EnvironmentProduction = 1

func AllowedEventCodes() []string {
	return []string{
		CodeReceiptAcknowledgement,
		CodeClaim,
		CodeGoodsReceipt,
		CodeExpressAcceptance,
		CodeTacitAcceptance,
	}
}

type EventType struct {
	ID   int
	Code string
	Name string
}

type RejectionConcept struct {
	ID   int
	Code string
	Name string
}

// InvoiceType enum
type InvoiceType string

const (
	InvoiceTypeIn       InvoiceType = "in_invoice"
	InvoiceTypeInRefund InvoiceType = "in_refund"
)

// PurchaseInvoice is the received invoice or credit note an event refers to.
type PurchaseInvoice struct {
	ID        string
	CompanyID string
	Number    string
	Type      InvoiceType
	State     string
	UUID      string // CUFE
}

// Eligible reports whether events may reference the invoice.
func (i PurchaseInvoice) Eligible() bool {
	if i.Type != InvoiceTypeIn && i.Type != InvoiceTypeInRefund {
		return false
	}
	return i.State != "draft" && i.State != "cancel"
}

// CompanySettings holds the company's electronic-invoicing settings.
type CompanySettings struct {
	ID        string
	EIEnable  bool
	APIKey    string
	IsNotTest bool
	TestSetID string
}

// Submitter is the user sending the event, with their partner identification.
type Submitter struct {
	ID                           string
	FirstName                    string
	Surname                      string
	TypeDocumentIdentificationID int
	VAT                          string
}

// EdiResult holds the gateway answer stored on the event.
type EdiResult struct {
	IsValid                   bool
	IsRestored                bool
	Algorithm                 string
	Class                     string
	Number                    string
	UUID                      string
	IssueDate                 string
	ExpeditionDate            string
	ZipKey                    *string
	StatusCode                string
	StatusDescription         string
	StatusMessage             string
	ErrorsMessages            string
	XMLName                   string
	ZipName                   string
	Signature                 string
	QRCode                    string
	QRData                    string
	QRLink                    string
	PDFDownloadLink           string
	XMLBase64                 string
	ApplicationResponseBase64 string
	AttachedDocumentBase64    string
	PDFBase64                 string
	ZipBase64                 string
	TypeEnvironmentID         *int
}

// Event is a Radian event about a received invoice.
type Event struct {
	ID                 string
	CompanyID          string
	UserID             string
	Date               time.Time
	EventTypeID        int
	InvoiceID          string
	RejectionConceptID *int
	Note               *string
	Name               string
	Prefix             string
	Number             int
	State              EventState
	EdiSync            bool
	EdiIsNotTest       bool
	Edi                EdiResult
	EdiPayload         *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	EventTypeCode *string
	EventTypeName *string
	InvoiceNumber *string
}

// DisplayName derives the event reference from prefix and number.
func DisplayName(prefix string, number int) string {
	if prefix != "" && number != 0 {
		return prefix + strconv.Itoa(number)
	}
	return PlaceholderName
}

// SequenceCode is the ir_sequences code events of the given type draw numbers from.
func SequenceCode(eventTypeCode string) string {
	return "radian_" + eventTypeCode
}

// SequencePrefix is the prefix of names allocated for the given event type.
func SequencePrefix(eventTypeCode string) string {
	return "E" + eventTypeCode
}

// ApplySequenceName repairs prefix and number from an allocated name such as
// "E031000045". Names not starting with prefix are left untouched.
func (e *Event) ApplySequenceName(prefix string) {
	if e.Name == "" || e.Name == PlaceholderName || len(e.Name) < len(prefix) || e.Name[:len(prefix)] != prefix {
		return
	}
	number, err := strconv.Atoi(validator.DigitsOnly(e.Name[len(prefix):]))
	if err != nil {
		number = 0
	}
	e.Number = number
	e.Prefix = prefix
}

// HasSequence reports whether both parts of the reference are set.
func (e *Event) HasSequence() bool {
	return e.Prefix != "" && e.Number != 0
}

// Refresh recomputes the cached display name.
func (e *Event) Refresh() {
	e.Name = DisplayName(e.Prefix, e.Number)
}

// IsProduction resolves the production flag: the stored environment wins over the company flag.
func (e *Event) IsProduction(company CompanySettings) bool {
	if e.Edi.TypeEnvironmentID != nil {
		return *e.Edi.TypeEnvironmentID == EnvironmentProduction
	}
	return company.IsNotTest
}
