package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type radianRepository struct {
	db *database.DB
}

func NewRadianRepository(db *database.DB) radian.RadianRepository {
	return &radianRepository{db: db}
}

const radianEventColumns = `
	e.id, e.company_id, e.user_id, e.event_date, e.event_type_id, e.invoice_id,
	e.rejection_concept_id, e.note, e.name, e.prefix, e.number, e.state,
	e.edi_sync, e.edi_is_not_test,
	e.edi_is_valid, e.edi_is_restored, e.edi_algorithm, e.edi_class, e.edi_number, e.edi_uuid,
	e.edi_issue_date, e.edi_expedition_date, e.edi_zip_key, e.edi_status_code,
	e.edi_status_description, e.edi_status_message, e.edi_errors_messages,
	e.edi_xml_name, e.edi_zip_name, e.edi_signature, e.edi_qr_code, e.edi_qr_data, e.edi_qr_link,
	e.edi_pdf_download_link, e.edi_xml_base64, e.edi_application_response_base64,
	e.edi_attached_document_base64, e.edi_pdf_base64, e.edi_zip_base64,
	e.edi_type_environment_id, e.edi_payload, e.created_at, e.updated_at,
	t.code, t.name, i.number
`

const radianEventFrom = `
	FROM radian_events e
	LEFT JOIN radian_event_types t ON t.id = e.event_type_id
	LEFT JOIN purchase_invoices i ON i.id = e.invoice_id
`

func scanRadianEvent(row pgx.Row) (radian.Event, error) {
	var e radian.Event
	var state string
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.UserID, &e.Date, &e.EventTypeID, &e.InvoiceID,
		&e.RejectionConceptID, &e.Note, &e.Name, &e.Prefix, &e.Number, &state,
		&e.EdiSync, &e.EdiIsNotTest,
		&e.Edi.IsValid, &e.Edi.IsRestored, &e.Edi.Algorithm, &e.Edi.Class, &e.Edi.Number, &e.Edi.UUID,
		&e.Edi.IssueDate, &e.Edi.ExpeditionDate, &e.Edi.ZipKey, &e.Edi.StatusCode,
		&e.Edi.StatusDescription, &e.Edi.StatusMessage, &e.Edi.ErrorsMessages,
		&e.Edi.XMLName, &e.Edi.ZipName, &e.Edi.Signature, &e.Edi.QRCode, &e.Edi.QRData, &e.Edi.QRLink,
		&e.Edi.PDFDownloadLink, &e.Edi.XMLBase64, &e.Edi.ApplicationResponseBase64,
		&e.Edi.AttachedDocumentBase64, &e.Edi.PDFBase64, &e.Edi.ZipBase64,
		&e.Edi.TypeEnvironmentID, &e.EdiPayload, &e.CreatedAt, &e.UpdatedAt,
		&e.EventTypeCode, &e.EventTypeName, &e.InvoiceNumber,
	)
	e.State = radian.EventState(state)
	return e, err
}

// ========== EVENTS ==========

func (r *radianRepository) CreateEvent(ctx context.Context, event radian.Event) (radian.Event, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO radian_events (
			company_id, user_id, event_date, event_type_id, invoice_id, rejection_concept_id,
			note, name, prefix, number, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`,
		event.CompanyID, event.UserID, event.Date, event.EventTypeID, event.InvoiceID,
		event.RejectionConceptID, event.Note, event.Name, event.Prefix, event.Number, string(event.State),
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return radian.Event{}, fmt.Errorf("failed to create radian event: %w", err)
	}

	return event, nil
}

func (r *radianRepository) GetEventByID(ctx context.Context, id string, companyID string) (radian.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + radianEventColumns + radianEventFrom + " WHERE e.id = $1 AND e.company_id = $2"
	event, err := scanRadianEvent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.Event{}, radian.ErrEventNotFound
		}
		return radian.Event{}, fmt.Errorf("failed to get radian event: %w", err)
	}
	return event, nil
}

func (r *radianRepository) ListEvents(ctx context.Context, companyID string, filter radian.EventFilter) ([]radian.Event, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " WHERE e.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.State != nil {
		where += fmt.Sprintf(" AND e.state = $%d", argIdx)
		args = append(args, *filter.State)
		argIdx++
	}
	if filter.EventTypeID != nil {
		where += fmt.Sprintf(" AND e.event_type_id = $%d", argIdx)
		args = append(args, *filter.EventTypeID)
		argIdx++
	}
	if filter.InvoiceID != nil {
		where += fmt.Sprintf(" AND e.invoice_id = $%d", argIdx)
		args = append(args, *filter.InvoiceID)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM radian_events e"+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count radian events: %w", err)
	}

	filter.Normalize()
	query := fmt.Sprintf("SELECT %s %s %s ORDER BY e.event_date DESC, e.created_at DESC LIMIT $%d OFFSET $%d",
		radianEventColumns, radianEventFrom, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list radian events: %w", err)
	}
	defer rows.Close()

	var events []radian.Event
	for rows.Next() {
		event, err := scanRadianEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan radian event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate radian events: %w", err)
	}

	return events, totalCount, nil
}

func (r *radianRepository) UpdateEventDraft(ctx context.Context, event radian.Event) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE radian_events
		SET event_type_id = $3, invoice_id = $4, rejection_concept_id = $5, note = $6,
			name = $7, prefix = $8, number = $9, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND state = 'draft'
	`,
		event.ID, event.CompanyID, event.EventTypeID, event.InvoiceID, event.RejectionConceptID,
		event.Note, event.Name, event.Prefix, event.Number,
	)
	if err != nil {
		return fmt.Errorf("failed to update radian event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return radian.ErrEventNotDraft
	}
	return nil
}

func (r *radianRepository) UpdateEventSequence(ctx context.Context, id string, companyID string, name, prefix string, number int) error {
	return r.exec(ctx, "update radian event sequence", `
		UPDATE radian_events SET name = $3, prefix = $4, number = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, name, prefix, number)
}

func (r *radianRepository) UpdateEventState(ctx context.Context, id string, companyID string, state radian.EventState) error {
	return r.exec(ctx, "update radian event state", `
		UPDATE radian_events SET state = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, string(state))
}

func (r *radianRepository) UpdateEventEnvironment(ctx context.Context, id string, companyID string, isNotTest bool) error {
	return r.exec(ctx, "update radian event environment", `
		UPDATE radian_events SET edi_is_not_test = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, isNotTest)
}

// WriteResponse is the only statement that writes the edi_* result columns.
func (r *radianRepository) WriteResponse(ctx context.Context, id string, companyID string, res radian.EdiResult, payload string) error {
	return r.exec(ctx, "write radian event response", `
		UPDATE radian_events SET
			edi_is_valid = $3, edi_is_restored = $4, edi_algorithm = $5, edi_class = $6,
			edi_number = $7, edi_uuid = $8, edi_issue_date = $9, edi_expedition_date = $10,
			edi_zip_key = $11, edi_status_code = $12, edi_status_description = $13,
			edi_status_message = $14, edi_errors_messages = $15, edi_xml_name = $16,
			edi_zip_name = $17, edi_signature = $18, edi_qr_code = $19, edi_qr_data = $20,
			edi_qr_link = $21, edi_pdf_download_link = $22, edi_xml_base64 = $23,
			edi_application_response_base64 = $24, edi_attached_document_base64 = $25,
			edi_pdf_base64 = $26, edi_zip_base64 = $27, edi_type_environment_id = $28,
			edi_payload = $29, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`,
		id, companyID,
		res.IsValid, res.IsRestored, res.Algorithm, res.Class,
		res.Number, res.UUID, res.IssueDate, res.ExpeditionDate,
		res.ZipKey, res.StatusCode, res.StatusDescription,
		res.StatusMessage, res.ErrorsMessages, res.XMLName,
		res.ZipName, res.Signature, res.QRCode, res.QRData,
		res.QRLink, res.PDFDownloadLink, res.XMLBase64,
		res.ApplicationResponseBase64, res.AttachedDocumentBase64,
		res.PDFBase64, res.ZipBase64, res.TypeEnvironmentID,
		payload,
	)
}

func (r *radianRepository) DeleteEvent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM radian_events WHERE id = $1 AND company_id = $2 AND state = 'draft'`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete radian event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return radian.ErrEventNotDraft
	}
	return nil
}

func (r *radianRepository) exec(ctx context.Context, op string, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return radian.ErrEventNotFound
	}
	return nil
}

// ========== LOOKUPS ==========

func (r *radianRepository) GetEventTypeByID(ctx context.Context, id int) (radian.EventType, error) {
	q := GetQuerier(ctx, r.db)

	var t radian.EventType
	err := q.QueryRow(ctx, `SELECT id, code, name FROM radian_event_types WHERE id = $1`, id).Scan(&t.ID, &t.Code, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.EventType{}, radian.ErrEventTypeNotFound
		}
		return radian.EventType{}, fmt.Errorf("failed to get radian event type: %w", err)
	}
	return t, nil
}

func (r *radianRepository) ListEventTypes(ctx context.Context, codes []string) ([]radian.EventType, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, code, name FROM radian_event_types WHERE code = ANY($1) ORDER BY code`, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to list radian event types: %w", err)
	}
	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (radian.EventType, error) {
		var t radian.EventType
		err := row.Scan(&t.ID, &t.Code, &t.Name)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan radian event types: %w", err)
	}
	return types, nil
}

func (r *radianRepository) GetRejectionConceptByID(ctx context.Context, id int) (radian.RejectionConcept, error) {
	q := GetQuerier(ctx, r.db)

	var c radian.RejectionConcept
	err := q.QueryRow(ctx, `SELECT id, code, name FROM rejection_concepts WHERE id = $1`, id).Scan(&c.ID, &c.Code, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.RejectionConcept{}, radian.ErrRejectionConceptNotFound
		}
		return radian.RejectionConcept{}, fmt.Errorf("failed to get rejection concept: %w", err)
	}
	return c, nil
}

func (r *radianRepository) ListRejectionConcepts(ctx context.Context) ([]radian.RejectionConcept, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, code, name FROM rejection_concepts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejection concepts: %w", err)
	}
	concepts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (radian.RejectionConcept, error) {
		var c radian.RejectionConcept
		err := row.Scan(&c.ID, &c.Code, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rejection concepts: %w", err)
	}
	return concepts, nil
}

func (r *radianRepository) GetPurchaseInvoice(ctx context.Context, id string, companyID string) (radian.PurchaseInvoice, error) {
	q := GetQuerier(ctx, r.db)

	var inv radian.PurchaseInvoice
	var invType string
	err := q.QueryRow(ctx, `
		SELECT id, company_id, number, type, state, COALESCE(ei_uuid, '')
		FROM purchase_invoices
		WHERE id = $1 AND company_id = $2
	`, id, companyID).Scan(&inv.ID, &inv.CompanyID, &inv.Number, &invType, &inv.State, &inv.UUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.PurchaseInvoice{}, radian.ErrInvoiceNotFound
		}
		return radian.PurchaseInvoice{}, fmt.Errorf("failed to get purchase invoice: %w", err)
	}
	inv.Type = radian.InvoiceType(invType)
	return inv, nil
}

func (r *radianRepository) GetCompanySettings(ctx context.Context, companyID string) (radian.CompanySettings, error) {
	q := GetQuerier(ctx, r.db)

	var c radian.CompanySettings
	err := q.QueryRow(ctx, `
		SELECT id, ei_enable, COALESCE(api_key, ''), is_not_test, COALESCE(test_set_id, '')
		FROM companies
		WHERE id = $1
	`, companyID).Scan(&c.ID, &c.EIEnable, &c.APIKey, &c.IsNotTest, &c.TestSetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.CompanySettings{}, radian.ErrCompanyNotFound
		}
		return radian.CompanySettings{}, fmt.Errorf("failed to get company settings: %w", err)
	}
	return c, nil
}

func (r *radianRepository) GetSubmitter(ctx context.Context, userID string) (radian.Submitter, error) {
	q := GetQuerier(ctx, r.db)

	var s radian.Submitter
	err := q.QueryRow(ctx, `
		SELECT id, COALESCE(first_name, ''), COALESCE(surname, ''),
			   COALESCE(type_document_identification_id, 0), COALESCE(vat, '')
		FROM users
		WHERE id = $1
	`, userID).Scan(&s.ID, &s.FirstName, &s.Surname, &s.TypeDocumentIdentificationID, &s.VAT)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return radian.Submitter{}, radian.ErrSubmitterNotFound
		}
		return radian.Submitter{}, fmt.Errorf("failed to get submitter: %w", err)
	}
	return s, nil
}
