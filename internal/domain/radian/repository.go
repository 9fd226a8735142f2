package radian

import "context"

// RadianRepository defines data access methods for Radian events.
// All event methods take companyID to keep tenants apart.
type RadianRepository interface {
	// Events
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEventByID(ctx context.Context, id string, companyID string) (Event, error)
	ListEvents(ctx context.Context, companyID string, filter EventFilter) ([]Event, int64, error)
	UpdateEventDraft(ctx context.Context, event Event) error
	UpdateEventSequence(ctx context.Context, id string, companyID string, name, prefix string, number int) error
	UpdateEventState(ctx context.Context, id string, companyID string, state EventState) error
	UpdateEventEnvironment(ctx context.Context, id string, companyID string, isNotTest bool) error
	WriteResponse(ctx context.Context, id string, companyID string, result EdiResult, payload string) error
	DeleteEvent(ctx context.Context, id string, companyID string) error

	// Lookups
	GetEventTypeByID(ctx context.Context, id int) (EventType, error)
	ListEventTypes(ctx context.Context, codes []string) ([]EventType, error)
	GetRejectionConceptByID(ctx context.Context, id int) (RejectionConcept, error)
	ListRejectionConcepts(ctx context.Context) ([]RejectionConcept, error)
	GetPurchaseInvoice(ctx context.Context, id string, companyID string) (PurchaseInvoice, error)
	GetCompanySettings(ctx context.Context, companyID string) (CompanySettings, error)
	GetSubmitter(ctx context.Context, userID string) (Submitter, error)
}
