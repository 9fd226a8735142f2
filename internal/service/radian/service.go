package radian

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/sequence"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/edipo"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

// Gateway submits Radian events to the electronic-invoicing gateway.
type Gateway interface {
	BasicEvent(ctx context.Context, call edipo.BasicEventCall) (edipo.Response, error)
}

// Notifier tells the current user about a successful submission.
type Notifier interface {
	NotifySuccess(ctx context.Context, notifType notification.NotificationType, message string, data map[string]interface{}) error
}

type RadianServiceImpl struct {
	radianRepo radian.RadianRepository
	sequences  sequence.SequenceRepository
	gateway    Gateway
	notifier   Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewRadianService(
	radianRepo radian.RadianRepository,
	sequences sequence.SequenceRepository,
	gateway Gateway,
	notifier Notifier,
	m *metrics.Metrics,
) radian.RadianService {
	return &RadianServiceImpl{
		radianRepo: radianRepo,
		sequences:  sequences,
		gateway:    gateway,
		notifier:   notifier,
		metrics:    m,
		now:        time.Now,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// ========== EVENTS ==========

func (s *RadianServiceImpl) CreateEvent(ctx context.Context, req radian.CreateEventRequest) (radian.EventResponse, error) {
	if err := req.Validate(); err != nil {
		return radian.EventResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return radian.EventResponse{}, err
	}
	if userID == "" {
		return radian.EventResponse{}, radian.ErrSubmitterNotFound
	}

	event := radian.Event{
		CompanyID:          companyID,
		UserID:             userID,
		Date:               s.now().UTC().Truncate(24 * time.Hour),
		EventTypeID:        req.EventTypeID,
		InvoiceID:          req.InvoiceID,
		RejectionConceptID: req.RejectionConceptID,
		Note:               normalizeNote(req.Note),
		State:              radian.StateDraft,
	}
	if req.Prefix != nil {
		event.Prefix = strings.TrimSpace(*req.Prefix)
	}
	if req.Number != nil {
		event.Number = *req.Number
	}

	if err := s.checkReferences(ctx, event); err != nil {
		return radian.EventResponse{}, err
	}
	event.Refresh()

	created, err := s.radianRepo.CreateEvent(ctx, event)
	if err != nil {
		return radian.EventResponse{}, err
	}

	return s.GetEvent(ctx, created.ID)
}

func (s *RadianServiceImpl) GetEvent(ctx context.Context, id string) (radian.EventResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return radian.EventResponse{}, err
	}

	event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
	if err != nil {
		return radian.EventResponse{}, err
	}
	return toEventResponse(event), nil
}

func (s *RadianServiceImpl) ListEvents(ctx context.Context, filter radian.EventFilter) (radian.ListEventResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return radian.ListEventResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return radian.ListEventResponse{}, err
	}
	filter.Normalize()

	events, total, err := s.radianRepo.ListEvents(ctx, companyID, filter)
	if err != nil {
		return radian.ListEventResponse{}, err
	}

	data := make([]radian.EventResponse, 0, len(events))
	for _, e := range events {
		data = append(data, toEventResponse(e))
	}

	return radian.ListEventResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *RadianServiceImpl) UpdateEvent(ctx context.Context, req radian.UpdateEventRequest) (radian.EventResponse, error) {
	if err := req.Validate(); err != nil {
		return radian.EventResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return radian.EventResponse{}, err
	}

	event, err := s.radianRepo.GetEventByID(ctx, req.ID, companyID)
	if err != nil {
		return radian.EventResponse{}, err
	}
	if event.State != radian.StateDraft {
		return radian.EventResponse{}, radian.ErrEventNotDraft
	}

	if req.EventTypeID != nil {
		event.EventTypeID = *req.EventTypeID
	}
	if req.InvoiceID != nil {
		event.InvoiceID = *req.InvoiceID
	}
	if req.RejectionConceptID != nil {
		event.RejectionConceptID = req.RejectionConceptID
		if *req.RejectionConceptID == 0 {
			event.RejectionConceptID = nil
		}
	}
	if req.Note != nil {
		event.Note = normalizeNote(req.Note)
	}
	if req.Prefix != nil {
		event.Prefix = strings.TrimSpace(*req.Prefix)
	}
	if req.Number != nil {
		event.Number = *req.Number
	}

	if err := s.checkReferences(ctx, event); err != nil {
		return radian.EventResponse{}, err
	}
	event.Refresh()

	if err := s.radianRepo.UpdateEventDraft(ctx, event); err != nil {
		return radian.EventResponse{}, err
	}

	return s.GetEvent(ctx, event.ID)
}

func (s *RadianServiceImpl) DeleteEvent(ctx context.Context, id string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if event.State != radian.StateDraft {
		return radian.ErrEventNotDraft
	}

	return s.radianRepo.DeleteEvent(ctx, id, companyID)
}

// checkReferences validates the event type, invoice and rejection concept of a draft.
func (s *RadianServiceImpl) checkReferences(ctx context.Context, event radian.Event) error {
	eventType, err := s.radianRepo.GetEventTypeByID(ctx, event.EventTypeID)
	if err != nil {
		return err
	}
	if !slices.Contains(radian.AllowedEventCodes(), eventType.Code) {
		return radian.ErrEventTypeNotAllowed
	}

	invoice, err := s.radianRepo.GetPurchaseInvoice(ctx, event.InvoiceID, event.CompanyID)
	if err != nil {
		return err
	}
	if !invoice.Eligible() {
		return radian.ErrInvoiceNotEligible
	}

	if event.RejectionConceptID != nil {
		if _, err := s.radianRepo.GetRejectionConceptByID(ctx, *event.RejectionConceptID); err != nil {
			return err
		}
	}
	return nil
}

// ========== LIFECYCLE ==========

// Post assigns the sequence and moves each event to posted, then submits it when the
// company has electronic invoicing enabled. The first failure stops the batch; events
// already posted stay posted.
func (s *RadianServiceImpl) Post(ctx context.Context, ids []string) ([]radian.EventResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	company, err := s.radianRepo.GetCompanySettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := make([]radian.EventResponse, 0, len(ids))
	for _, id := range ids {
		event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
		if err != nil {
			return nil, err
		}

		code, err := s.eventTypeCode(ctx, event)
		if err != nil {
			return nil, err
		}

		if err := s.assignSequence(ctx, &event, code); err != nil {
			return nil, err
		}

		if err := s.radianRepo.UpdateEventState(ctx, event.ID, companyID, radian.StatePosted); err != nil {
			return nil, err
		}
		event.State = radian.StatePosted
		s.metrics.IncEventTransition(string(radian.StatePosted))

		if err := s.validate(ctx, &event, code, company); err != nil {
			return nil, err
		}

		posted, err := s.radianRepo.GetEventByID(ctx, event.ID, companyID)
		if err != nil {
			return nil, err
		}
		out = append(out, toEventResponse(posted))
	}

	return out, nil
}

// assignSequence allocates a name for unnamed events and re-derives prefix and number
// from a name carrying the event type prefix.
func (s *RadianServiceImpl) assignSequence(ctx context.Context, event *radian.Event, code string) error {
	prefix := radian.SequencePrefix(code)

	if event.Name == "" || event.Name == radian.PlaceholderName {
		name, err := s.sequences.Next(ctx, radian.SequenceCode(code))
		if err != nil {
			if errors.Is(err, sequence.ErrSequenceNotFound) {
				return fmt.Errorf("%w: %v", radian.ErrSequenceWrong, err)
			}
			return err
		}
		event.Name = name
	}

	event.ApplySequenceName(prefix)
	if !event.HasSequence() {
		return radian.ErrSequenceWrong
	}
	event.Refresh()

	return s.radianRepo.UpdateEventSequence(ctx, event.ID, event.CompanyID, event.Name, event.Prefix, event.Number)
}

// Draft moves events back to draft. Validated events are not guarded.
func (s *RadianServiceImpl) Draft(ctx context.Context, ids []string) ([]radian.EventResponse, error) {
	return s.transition(ctx, ids, radian.StateDraft, nil)
}

// Cancel cancels events not yet validated by the gateway.
func (s *RadianServiceImpl) Cancel(ctx context.Context, ids []string) ([]radian.EventResponse, error) {
	return s.transition(ctx, ids, radian.StateCancel, func(e radian.Event) error {
		if e.Edi.IsValid {
			return radian.ErrCannotCancelValidated
		}
		return nil
	})
}

func (s *RadianServiceImpl) transition(ctx context.Context, ids []string, to radian.EventState, guard func(radian.Event) error) ([]radian.EventResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]radian.EventResponse, 0, len(ids))
	for _, id := range ids {
		event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			if err := guard(event); err != nil {
				return nil, err
			}
		}
		if err := s.radianRepo.UpdateEventState(ctx, event.ID, companyID, to); err != nil {
			return nil, err
		}
		s.metrics.IncEventTransition(string(to))

		event.State = to
		out = append(out, toEventResponse(event))
	}
	return out, nil
}

// ========== GATEWAY ==========

// BuildRequests returns one gateway request per event, in input order.
func (s *RadianServiceImpl) BuildRequests(ctx context.Context, ids []string) ([]radian.BasicEventRequest, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	company, err := s.radianRepo.GetCompanySettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	requests := make([]radian.BasicEventRequest, 0, len(ids))
	for _, id := range ids {
		event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
		if err != nil {
			return nil, err
		}
		code, err := s.eventTypeCode(ctx, event)
		if err != nil {
			return nil, err
		}
		req, err := s.buildRequest(ctx, event, code, company)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *RadianServiceImpl) buildRequest(ctx context.Context, event radian.Event, code string, company radian.CompanySettings) (radian.BasicEventRequest, error) {
	if code == radian.CodeClaim && event.RejectionConceptID == nil {
		return radian.BasicEventRequest{}, radian.ErrRejectionConceptRequired
	}

	invoice, err := s.radianRepo.GetPurchaseInvoice(ctx, event.InvoiceID, event.CompanyID)
	if err != nil {
		return radian.BasicEventRequest{}, err
	}
	if invoice.UUID == "" {
		return radian.BasicEventRequest{}, radian.ErrInvoiceUUIDRequired
	}

	user, err := s.radianRepo.GetSubmitter(ctx, event.UserID)
	if err != nil {
		return radian.BasicEventRequest{}, err
	}
	switch {
	case user.TypeDocumentIdentificationID == 0:
		return radian.BasicEventRequest{}, radian.ErrUserDocumentTypeRequired
	case user.VAT == "":
		return radian.BasicEventRequest{}, radian.ErrUserVATRequired
	case user.FirstName == "":
		return radian.BasicEventRequest{}, radian.ErrUserFirstNameRequired
	case user.Surname == "":
		return radian.BasicEventRequest{}, radian.ErrUserSurnameRequired
	case !event.HasSequence():
		return radian.BasicEventRequest{}, radian.ErrNumberPrefixRequired
	}

	req := radian.BasicEventRequest{
		Prefix: event.Prefix,
		Number: event.Number,
		Sync:   company.IsNotTest,
		UUID:   invoice.UUID,
		Person: radian.Person{
			IDCode:            user.TypeDocumentIdentificationID,
			IDNumber:          validator.DigitsOnly(user.VAT),
			FirstName:         user.FirstName,
			Surname:           user.Surname,
			JobTitle:          radian.PersonJobTitle,
			CountryCode:       radian.PersonCountryCode,
			CompanyDepartment: radian.PersonCompanyDepartment,
		},
	}

	if code == radian.CodeClaim && event.RejectionConceptID != nil {
		concept := *event.RejectionConceptID
		req.RejectionCode = &concept
	}
	if event.Note != nil && *event.Note != "" {
		req.Notes = []radian.NoteEntry{{Text: *event.Note}}
	}

	return req, nil
}

// ValidateEvent submits a single event to the gateway.
func (s *RadianServiceImpl) ValidateEvent(ctx context.Context, id string) (radian.EventResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return radian.EventResponse{}, err
	}

	company, err := s.radianRepo.GetCompanySettings(ctx, companyID)
	if err != nil {
		return radian.EventResponse{}, err
	}

	event, err := s.radianRepo.GetEventByID(ctx, id, companyID)
	if err != nil {
		return radian.EventResponse{}, err
	}
	code, err := s.eventTypeCode(ctx, event)
	if err != nil {
		return radian.EventResponse{}, err
	}

	if err := s.validate(ctx, &event, code, company); err != nil {
		return radian.EventResponse{}, err
	}

	return s.GetEvent(ctx, id)
}

// validate is a no-op when electronic invoicing is disabled. Every failure is returned
// as an IntegrationError.
func (s *RadianServiceImpl) validate(ctx context.Context, event *radian.Event, code string, company radian.CompanySettings) error {
	if !company.EIEnable {
		return nil
	}

	if err := s.submit(ctx, event, code, company); err != nil {
		slog.WarnContext(ctx, "failed to process the request", "event_id", event.ID, "event_name", event.Name, "error", err)
		return &radian.IntegrationError{EventID: event.ID, Err: err}
	}
	return nil
}

func (s *RadianServiceImpl) submit(ctx context.Context, event *radian.Event, code string, company radian.CompanySettings) error {
	req, err := s.buildRequest(ctx, *event, code, company)
	if err != nil {
		return err
	}

	payload, err := encodeJSON(req, "  ")
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	if company.APIKey == "" {
		return radian.ErrTokenRequired
	}

	production := event.IsProduction(company)
	if err := s.radianRepo.UpdateEventEnvironment(ctx, event.ID, event.CompanyID, production); err != nil {
		return err
	}
	event.EdiIsNotTest = production

	call := edipo.BasicEventCall{Token: company.APIKey, Code: code}
	if !production {
		if company.TestSetID == "" {
			return radian.ErrTestSetIDRequired
		}
		call.TestSetID = company.TestSetID
	}

	call.Body, err = encodeJSON(req, "")
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	slog.DebugContext(ctx, "DIAN validation request", "event_id", event.ID, "payload", string(payload))

	resp, err := s.gateway.BasicEvent(ctx, call)
	if err != nil {
		var incomplete *edipo.IncompleteResultError
		if errors.As(err, &incomplete) {
			return fmt.Errorf("%s: %w", radian.MsgNotValidated, err)
		}
		return err
	}

	switch r := resp.(type) {
	case edipo.Detail:
		return &radian.GatewayError{Message: r.Detail}
	case edipo.AuthError:
		return &radian.GatewayError{Message: radian.MsgAuthentication}
	case edipo.BusinessError:
		return &radian.GatewayError{Message: r.Error()}
	case edipo.Result:
		return s.ingest(ctx, event, r, string(payload), company)
	default:
		return &radian.GatewayError{Message: radian.MsgNoLogicResponse}
	}
}

// ingest stores the result and payload, then interprets the validation outcome.
// The environment reported by the gateway overrides the one used to submit.
func (s *RadianServiceImpl) ingest(ctx context.Context, event *radian.Event, r edipo.Result, payload string, company radian.CompanySettings) error {
	result := toEdiResult(r)
	if err := s.radianRepo.WriteResponse(ctx, event.ID, event.CompanyID, result, payload); err != nil {
		return err
	}
	event.Edi = result
	event.EdiPayload = &payload

	production := event.IsProduction(company)
	if production != event.EdiIsNotTest {
		if err := s.radianRepo.UpdateEventEnvironment(ctx, event.ID, event.CompanyID, production); err != nil {
			return err
		}
		event.EdiIsNotTest = production
	}

	switch {
	case result.IsValid:
		s.notify(ctx, notification.TypeRadianValidated, radian.MsgValidated, event)
		return nil
	case result.ZipKey != nil && !production:
		s.notify(ctx, notification.TypeRadianHabilitation, radian.MsgHabilitation, event)
		return nil
	case result.ZipKey != nil:
		return &radian.GatewayError{Message: statusSummary(result)}
	default:
		return &radian.GatewayError{Message: radian.MsgNoZipKey}
	}
}

func (s *RadianServiceImpl) notify(ctx context.Context, notifType notification.NotificationType, message string, event *radian.Event) {
	if s.notifier == nil {
		return
	}
	data := map[string]interface{}{"event_id": event.ID, "name": event.Name}
	if err := s.notifier.NotifySuccess(ctx, notifType, message, data); err != nil {
		slog.WarnContext(ctx, "failed to queue radian notification", "event_id", event.ID, "error", err)
	}
}

// encodeJSON marshals v without HTML escaping so stored payloads keep the
// literal text the user entered.
func encodeJSON(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func statusSummary(r radian.EdiResult) string {
	var parts []string
	for _, p := range []string{r.StatusMessage, r.ErrorsMessages, r.StatusDescription, r.StatusCode} {
		if p != "" && !slices.Contains(parts, p) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return radian.MsgNotValidated
	}
	return strings.Join(parts, " | ")
}

func (s *RadianServiceImpl) eventTypeCode(ctx context.Context, event radian.Event) (string, error) {
	if event.EventTypeCode != nil && *event.EventTypeCode != "" {
		return *event.EventTypeCode, nil
	}
	eventType, err := s.radianRepo.GetEventTypeByID(ctx, event.EventTypeID)
	if err != nil {
		return "", err
	}
	return eventType.Code, nil
}

// ========== LOOKUPS ==========

func (s *RadianServiceImpl) ListEventTypes(ctx context.Context) ([]radian.EventTypeResponse, error) {
	types, err := s.radianRepo.ListEventTypes(ctx, radian.AllowedEventCodes())
	if err != nil {
		return nil, err
	}
	out := make([]radian.EventTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, radian.EventTypeResponse{ID: t.ID, Code: t.Code, Name: t.Name})
	}
	return out, nil
}

func (s *RadianServiceImpl) ListRejectionConcepts(ctx context.Context) ([]radian.RejectionConceptResponse, error) {
	concepts, err := s.radianRepo.ListRejectionConcepts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]radian.RejectionConceptResponse, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, radian.RejectionConceptResponse{ID: c.ID, Code: c.Code, Name: c.Name})
	}
	return out, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
