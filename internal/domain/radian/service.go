package radian

import "context"

type RadianService interface {
	// Events
	CreateEvent(ctx context.Context, req CreateEventRequest) (EventResponse, error)
	GetEvent(ctx context.Context, id string) (EventResponse, error)
	ListEvents(ctx context.Context, filter EventFilter) (ListEventResponse, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest) (EventResponse, error)
	DeleteEvent(ctx context.Context, id string) error

	// Lifecycle
	Post(ctx context.Context, ids []string) ([]EventResponse, error)
	Draft(ctx context.Context, ids []string) ([]EventResponse, error)
	Cancel(ctx context.Context, ids []string) ([]EventResponse, error)

	// Gateway
	BuildRequests(ctx context.Context, ids []string) ([]BasicEventRequest, error)
	ValidateEvent(ctx context.Context, id string) (EventResponse, error)

	// Lookups
	ListEventTypes(ctx context.Context) ([]EventTypeResponse, error)
	ListRejectionConcepts(ctx context.Context) ([]RejectionConceptResponse, error)
}
