package radian

import (
	"context"
	"fmt"
	"sync"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/sequence"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/edipo"
)

type fakeRadianRepo struct {
	events    map[string]radian.Event
	types     map[int]radian.EventType
	concepts  map[int]radian.RejectionConcept
	invoices  map[string]radian.PurchaseInvoice
	company   radian.CompanySettings
	users     map[string]radian.Submitter
	responses int
	nextID    int
}

func newFakeRadianRepo() *fakeRadianRepo {
	return &fakeRadianRepo{
		events: map[string]radian.Event{},
		types: map[int]radian.EventType{
			1: {ID: 1, Code: radian.CodeReceiptAcknowledgement, Name: "Acuse de recibo"},
			2: {ID: 2, Code: radian.CodeClaim, Name: "Reclamo"},
			3: {ID: 3, Code: radian.CodeGoodsReceipt, Name: "Recibo del bien"},
			4: {ID: 4, Code: radian.CodeExpressAcceptance, Name: "Aceptación expresa"},
			9: {ID: 9, Code: "001", Name: "Not radian"},
		},
		concepts: map[int]radian.RejectionConcept{
			2: {ID: 2, Code: "02", Name: "Mercancía no entregada"},
		},
		invoices: map[string]radian.PurchaseInvoice{
			"inv-1": {ID: "inv-1", CompanyID: "company-1", Number: "FV-1", Type: radian.InvoiceTypeIn, State: "posted", UUID: "cufe-1"},
			"inv-2": {ID: "inv-2", CompanyID: "company-1", Number: "FV-2", Type: radian.InvoiceTypeIn, State: "posted"},
			"inv-3": {ID: "inv-3", CompanyID: "company-1", Number: "FV-3", Type: radian.InvoiceTypeIn, State: "draft", UUID: "cufe-3"},
		},
		company: radian.CompanySettings{ID: "company-1", EIEnable: true, APIKey: "token", TestSetID: "set-1"},
		users: map[string]radian.Submitter{
			"user-1": {ID: "user-1", FirstName: "Ana", Surname: "Pérez", TypeDocumentIdentificationID: 3, VAT: "900.123.456-7"},
			"user-2": {ID: "user-2", FirstName: "Ana", TypeDocumentIdentificationID: 3, VAT: "1"},
		},
	}
}

func (f *fakeRadianRepo) add(e radian.Event) radian.Event {
	if e.ID == "" {
		f.nextID++
		e.ID = fmt.Sprintf("evt-%d", f.nextID)
	}
	if e.CompanyID == "" {
		e.CompanyID = "company-1"
	}
	if e.UserID == "" {
		e.UserID = "user-1"
	}
	if e.State == "" {
		e.State = radian.StateDraft
	}
	if e.InvoiceID == "" {
		e.InvoiceID = "inv-1"
	}
	e.Refresh()
	f.events[e.ID] = e
	return e
}

func (f *fakeRadianRepo) CreateEvent(ctx context.Context, e radian.Event) (radian.Event, error) {
	e.ID = ""
	return f.add(e), nil
}

func (f *fakeRadianRepo) GetEventByID(ctx context.Context, id string, companyID string) (radian.Event, error) {
	e, ok := f.events[id]
	if !ok || e.CompanyID != companyID {
		return radian.Event{}, radian.ErrEventNotFound
	}
	if t, ok := f.types[e.EventTypeID]; ok {
		e.EventTypeCode = &t.Code
		e.EventTypeName = &t.Name
	}
	return e, nil
}

func (f *fakeRadianRepo) ListEvents(ctx context.Context, companyID string, filter radian.EventFilter) ([]radian.Event, int64, error) {
	var out []radian.Event
	for _, e := range f.events {
		if e.CompanyID == companyID && (filter.State == nil || string(e.State) == *filter.State) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRadianRepo) UpdateEventDraft(ctx context.Context, e radian.Event) error {
	cur, ok := f.events[e.ID]
	if !ok || cur.State != radian.StateDraft {
		return radian.ErrEventNotDraft
	}
	f.events[e.ID] = e
	return nil
}

func (f *fakeRadianRepo) update(id string, fn func(*radian.Event)) error {
	e, ok := f.events[id]
	if !ok {
		return radian.ErrEventNotFound
	}
	fn(&e)
	f.events[id] = e
	return nil
}

func (f *fakeRadianRepo) UpdateEventSequence(ctx context.Context, id, companyID, name, prefix string, number int) error {
	return f.update(id, func(e *radian.Event) { e.Name, e.Prefix, e.Number = name, prefix, number })
}

func (f *fakeRadianRepo) UpdateEventState(ctx context.Context, id, companyID string, state radian.EventState) error {
	return f.update(id, func(e *radian.Event) { e.State = state })
}

func (f *fakeRadianRepo) UpdateEventEnvironment(ctx context.Context, id, companyID string, isNotTest bool) error {
	return f.update(id, func(e *radian.Event) { e.EdiIsNotTest = isNotTest })
}

func (f *fakeRadianRepo) WriteResponse(ctx context.Context, id, companyID string, result radian.EdiResult, payload string) error {
	f.responses++
	return f.update(id, func(e *radian.Event) {
		e.Edi = result
		e.EdiPayload = &payload
	})
}

func (f *fakeRadianRepo) DeleteEvent(ctx context.Context, id, companyID string) error {
	delete(f.events, id)
	return nil
}

func (f *fakeRadianRepo) GetEventTypeByID(ctx context.Context, id int) (radian.EventType, error) {
	t, ok := f.types[id]
	if !ok {
		return radian.EventType{}, radian.ErrEventTypeNotFound
	}
	return t, nil
}

func (f *fakeRadianRepo) ListEventTypes(ctx context.Context, codes []string) ([]radian.EventType, error) {
	var out []radian.EventType
	for _, code := range codes {
		for _, t := range f.types {
			if t.Code == code {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeRadianRepo) GetRejectionConceptByID(ctx context.Context, id int) (radian.RejectionConcept, error) {
	c, ok := f.concepts[id]
	if !ok {
		return radian.RejectionConcept{}, radian.ErrRejectionConceptNotFound
	}
	return c, nil
}

func (f *fakeRadianRepo) ListRejectionConcepts(ctx context.Context) ([]radian.RejectionConcept, error) {
	out := make([]radian.RejectionConcept, 0, len(f.concepts))
	for _, c := range f.concepts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRadianRepo) GetPurchaseInvoice(ctx context.Context, id, companyID string) (radian.PurchaseInvoice, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return radian.PurchaseInvoice{}, radian.ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeRadianRepo) GetCompanySettings(ctx context.Context, companyID string) (radian.CompanySettings, error) {
	if companyID != f.company.ID {
		return radian.CompanySettings{}, radian.ErrCompanyNotFound
	}
	return f.company, nil
}

func (f *fakeRadianRepo) GetSubmitter(ctx context.Context, userID string) (radian.Submitter, error) {
	u, ok := f.users[userID]
	if !ok {
		return radian.Submitter{}, radian.ErrSubmitterNotFound
	}
	return u, nil
}

type fakeSequences struct {
	mu   sync.Mutex
	next map[string]int64
}

func (f *fakeSequences) Next(ctx context.Context, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.next[code]
	if !ok {
		return "", sequence.ErrSequenceNotFound
	}
	f.next[code] = n + 1
	seq := sequence.Sequence{Code: code, Prefix: "E" + code[len("radian_"):], Padding: 6}
	return seq.Format(n), nil
}

func (f *fakeSequences) Ensure(ctx context.Context, seq sequence.Sequence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.next[seq.Code]; !ok {
		f.next[seq.Code] = seq.NumberNext
	}
	return nil
}

type fakeGateway struct {
	calls []edipo.BasicEventCall
	resp  edipo.Response
	err   error
}

func (f *fakeGateway) BasicEvent(ctx context.Context, call edipo.BasicEventCall) (edipo.Response, error) {
	f.calls = append(f.calls, call)
	return f.resp, f.err
}

type sent struct {
	notifType notification.NotificationType
	message   string
}

type fakeNotifier struct {
	sent []sent
}

func (f *fakeNotifier) NotifySuccess(ctx context.Context, notifType notification.NotificationType, message string, data map[string]interface{}) error {
	f.sent = append(f.sent, sent{notifType: notifType, message: message})
	return nil
}
