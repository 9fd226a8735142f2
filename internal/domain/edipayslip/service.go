package edipayslip

import "context"

type EdiPayslipService interface {
	// Generate reconciles the caller's company for the requested period.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	GenerateForCompany(ctx context.Context, companyID string, period Period) (GenerateResponse, error)

	ListEdiPayslips(ctx context.Context, filter EdiPayslipFilter) ([]EdiPayslipResponse, error)
	GetEdiPayslip(ctx context.Context, id string) (EdiPayslipDetailResponse, error)
}
