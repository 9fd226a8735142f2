package edipayslip

import "context"

// EdiPayslipRepository defines data access for payslips and their EDI aggregates.
type EdiPayslipRepository interface {
	// Payslips
	ListFinalizedPayslips(ctx context.Context, companyID string, period Period) ([]Payslip, error)
	ListReversedOrigins(ctx context.Context, companyID string, period Period) ([]string, error)
	ListMembers(ctx context.Context, ediPayslipID string) ([]Payslip, error)
	ListCompaniesWithPayslips(ctx context.Context, period Period) ([]string, error)

	// Aggregates
	ListAggregates(ctx context.Context, companyID string, period Period, state *AggregateState) ([]EdiPayslip, error)
	GetAggregate(ctx context.Context, id string, companyID string) (EdiPayslip, error)
	CreateAggregate(ctx context.Context, agg EdiPayslip) (EdiPayslip, error)
	DeleteDraftAggregates(ctx context.Context, companyID string, period Period) (int64, error)
	ClearMembership(ctx context.Context, ediPayslipID string) error
	AddMember(ctx context.Context, ediPayslipID string, payslipID string) error
	SetContract(ctx context.Context, ediPayslipID string, contractID *string) error
}
