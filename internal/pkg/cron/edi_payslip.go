package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentCompanies bounds the parallel per-company transactions.
const maxConcurrentCompanies = 4

// CompanyLister finds the companies with payslips in a period.
type CompanyLister interface {
	ListCompaniesWithPayslips(ctx context.Context, period edipayslip.Period) ([]string, error)
}

// PeriodGenerator regenerates one company's EDI payslips.
type PeriodGenerator interface {
	GenerateForCompany(ctx context.Context, companyID string, period edipayslip.Period) (edipayslip.GenerateResponse, error)
}

// EdiPayslipJobs regenerates the current period's EDI payslips for every company.
type EdiPayslipJobs struct {
	companies CompanyLister
	generator PeriodGenerator
	interval  time.Duration
	now       func() time.Time
}

func NewEdiPayslipJobs(companies CompanyLister, generator PeriodGenerator, interval time.Duration) *EdiPayslipJobs {
	return &EdiPayslipJobs{
		companies: companies,
		generator: generator,
		interval:  interval,
		now:       time.Now,
	}
}

// RegisterJobs registers the regeneration job
func (j *EdiPayslipJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddJob("regenerate_edi_payslips", j.interval, j.RegenerateCurrentPeriod)
}

// RegenerateCurrentPeriod runs one transaction per company. A failing company does
// not stop the others; every failure is reported.
func (j *EdiPayslipJobs) RegenerateCurrentPeriod(ctx context.Context) error {
	now := j.now()
	period := edipayslip.Period{Year: now.Year(), Month: int(now.Month())}

	companyIDs, err := j.companies.ListCompaniesWithPayslips(ctx, period)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(maxConcurrentCompanies)
	for _, companyID := range companyIDs {
		companyID := companyID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := j.generator.GenerateForCompany(ctx, companyID, period); err != nil {
				err = fmt.Errorf("company %s: %w", companyID, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	// Wait yields the first failure only; errs holds all of them.
	if err := g.Wait(); err != nil && ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}

	slog.InfoContext(ctx, "edi payslip regeneration finished",
		"year", period.Year, "month", period.Month, "companies", len(companyIDs), "failed", len(errs))
	return errors.Join(errs...)
}
