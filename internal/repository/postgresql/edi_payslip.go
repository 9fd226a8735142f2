package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ediPayslipRepository struct {
	db *database.DB
}

func NewEdiPayslipRepository(db *database.DB) edipayslip.EdiPayslipRepository {
	return &ediPayslipRepository{db: db}
}

const payslipColumns = `
	p.id, p.company_id, p.employee_id, p.contract_id, p.number, p.year, p.month, p.state,
	p.credit_note, p.origin_payslip_id, p.net_amount, p.edi_payslip_id, emp.full_name
`

func scanPayslip(row pgx.CollectableRow) (edipayslip.Payslip, error) {
	var p edipayslip.Payslip
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &p.ContractID, &p.Number, &p.Year, &p.Month, &p.State,
		&p.CreditNote, &p.OriginPayslipID, &p.NetAmount, &p.EdiPayslipID, &p.EmployeeName,
	)
	return p, err
}

// ========== PAYSLIPS ==========

func (r *ediPayslipRepository) ListFinalizedPayslips(ctx context.Context, companyID string, period edipayslip.Period) ([]edipayslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+payslipColumns+`
		FROM payslips p
		LEFT JOIN employees emp ON emp.id = p.employee_id
		WHERE p.company_id = $1 AND p.year = $2 AND p.month = $3
			AND p.state <> 'draft' AND NOT p.credit_note AND p.origin_payslip_id IS NULL
		ORDER BY p.id
	`, companyID, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}

	payslips, err := pgx.CollectRows(rows, scanPayslip)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payslips: %w", err)
	}
	return payslips, nil
}

func (r *ediPayslipRepository) ListReversedOrigins(ctx context.Context, companyID string, period edipayslip.Period) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT origin_payslip_id
		FROM payslips
		WHERE company_id = $1 AND year = $2 AND month = $3
			AND state <> 'draft' AND credit_note AND origin_payslip_id IS NOT NULL
	`, companyID, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit notes: %w", err)
	}

	origins, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan credit notes: %w", err)
	}
	return origins, nil
}

func (r *ediPayslipRepository) ListMembers(ctx context.Context, ediPayslipID string) ([]edipayslip.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+payslipColumns+`
		FROM payslips p
		LEFT JOIN employees emp ON emp.id = p.employee_id
		WHERE p.edi_payslip_id = $1
		ORDER BY p.id
	`, ediPayslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query member payslips: %w", err)
	}

	members, err := pgx.CollectRows(rows, scanPayslip)
	if err != nil {
		return nil, fmt.Errorf("failed to scan member payslips: %w", err)
	}
	return members, nil
}

func (r *ediPayslipRepository) ListCompaniesWithPayslips(ctx context.Context, period edipayslip.Period) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT company_id
		FROM payslips
		WHERE year = $1 AND month = $2 AND state <> 'draft'
		ORDER BY company_id
	`, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan companies: %w", err)
	}
	return ids, nil
}

// ========== AGGREGATES ==========

const ediPayslipColumns = `
	a.id, a.company_id, a.year, a.month, a.employee_id, a.contract_id, a.state,
	a.created_at, a.updated_at, emp.full_name,
	COALESCE(ARRAY(SELECT m.id::text FROM payslips m WHERE m.edi_payslip_id = a.id ORDER BY m.id), '{}')
`

func scanEdiPayslip(row pgx.Row) (edipayslip.EdiPayslip, error) {
	var a edipayslip.EdiPayslip
	var state string
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.Year, &a.Month, &a.EmployeeID, &a.ContractID, &state,
		&a.CreatedAt, &a.UpdatedAt, &a.EmployeeName, &a.PayslipIDs,
	)
	a.State = edipayslip.AggregateState(state)
	return a, err
}

func (r *ediPayslipRepository) ListAggregates(ctx context.Context, companyID string, period edipayslip.Period, state *edipayslip.AggregateState) ([]edipayslip.EdiPayslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + ediPayslipColumns + `
		FROM edi_payslips a
		LEFT JOIN employees emp ON emp.id = a.employee_id
		WHERE a.company_id = $1 AND a.year = $2 AND a.month = $3`
	args := []interface{}{companyID, period.Year, period.Month}
	if state != nil {
		query += " AND a.state = $4"
		args = append(args, string(*state))
	}
	query += " ORDER BY a.id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edi payslips: %w", err)
	}

	aggs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (edipayslip.EdiPayslip, error) {
		return scanEdiPayslip(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan edi payslips: %w", err)
	}
	return aggs, nil
}

func (r *ediPayslipRepository) GetAggregate(ctx context.Context, id string, companyID string) (edipayslip.EdiPayslip, error) {
	q := GetQuerier(ctx, r.db)

	agg, err := scanEdiPayslip(q.QueryRow(ctx, `
		SELECT `+ediPayslipColumns+`
		FROM edi_payslips a
		LEFT JOIN employees emp ON emp.id = a.employee_id
		WHERE a.id = $1 AND a.company_id = $2
	`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return edipayslip.EdiPayslip{}, edipayslip.ErrEdiPayslipNotFound
		}
		return edipayslip.EdiPayslip{}, fmt.Errorf("failed to get edi payslip: %w", err)
	}
	return agg, nil
}

func (r *ediPayslipRepository) CreateAggregate(ctx context.Context, agg edipayslip.EdiPayslip) (edipayslip.EdiPayslip, error) {
	q := GetQuerier(ctx, r.db)

	var state string
	err := q.QueryRow(ctx, `
		INSERT INTO edi_payslips (company_id, year, month, employee_id, contract_id, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, company_id, year, month, employee_id, contract_id, state, created_at, updated_at
	`, agg.CompanyID, agg.Year, agg.Month, agg.EmployeeID, agg.ContractID, string(agg.State)).Scan(
		&agg.ID, &agg.CompanyID, &agg.Year, &agg.Month, &agg.EmployeeID, &agg.ContractID, &state,
		&agg.CreatedAt, &agg.UpdatedAt,
	)
	if err != nil {
		return edipayslip.EdiPayslip{}, fmt.Errorf("failed to create edi payslip: %w", err)
	}
	agg.State = edipayslip.AggregateState(state)
	return agg, nil
}

// DeleteDraftAggregates releases the member payslips before deleting, so no
// payslip keeps pointing at a removed aggregate.
func (r *ediPayslipRepository) DeleteDraftAggregates(ctx context.Context, companyID string, period edipayslip.Period) (int64, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE payslips SET edi_payslip_id = NULL
		WHERE edi_payslip_id IN (
			SELECT id FROM edi_payslips
			WHERE company_id = $1 AND year = $2 AND month = $3 AND state = 'draft'
		)
	`, companyID, period.Year, period.Month)
	if err != nil {
		return 0, fmt.Errorf("failed to release draft members: %w", err)
	}

	tag, err := q.Exec(ctx, `
		DELETE FROM edi_payslips
		WHERE company_id = $1 AND year = $2 AND month = $3 AND state = 'draft'
	`, companyID, period.Year, period.Month)
	if err != nil {
		return 0, fmt.Errorf("failed to delete draft edi payslips: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ediPayslipRepository) ClearMembership(ctx context.Context, ediPayslipID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE payslips SET edi_payslip_id = NULL WHERE edi_payslip_id = $1`, ediPayslipID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	return nil
}

func (r *ediPayslipRepository) AddMember(ctx context.Context, ediPayslipID string, payslipID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payslips SET edi_payslip_id = $1 WHERE id = $2`, ediPayslipID, payslipID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payslip %s not found", payslipID)
	}
	return nil
}

func (r *ediPayslipRepository) SetContract(ctx context.Context, ediPayslipID string, contractID *string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE edi_payslips SET contract_id = $1, updated_at = NOW()
		WHERE id = $2
	`, contractID, ediPayslipID)
	if err != nil {
		return fmt.Errorf("failed to set contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return edipayslip.ErrEdiPayslipNotFound
	}
	return nil
}
