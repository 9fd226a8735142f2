package edipayslip

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/metrics"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier tells the current user the aggregates are ready.
type Notifier interface {
	NotifySuccess(ctx context.Context, notifType notification.NotificationType, message string, data map[string]interface{}) error
}

type EdiPayslipServiceImpl struct {
	tx       Transactor
	repo     edipayslip.EdiPayslipRepository
	notifier Notifier
	metrics  *metrics.Metrics
}

func NewEdiPayslipService(
	tx Transactor,
	repo edipayslip.EdiPayslipRepository,
	notifier Notifier,
	m *metrics.Metrics,
) edipayslip.EdiPayslipService {
	return &EdiPayslipServiceImpl{
		tx:       tx,
		repo:     repo,
		notifier: notifier,
		metrics:  m,
	}
}

func getCompanyIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}
	return companyID, nil
}

// ========== GENERATION ==========

func (s *EdiPayslipServiceImpl) Generate(ctx context.Context, req edipayslip.GenerateRequest) (edipayslip.GenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return edipayslip.GenerateResponse{}, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return edipayslip.GenerateResponse{}, err
	}

	resp, err := s.GenerateForCompany(ctx, companyID, edipayslip.Period{Year: req.Year, Month: req.Month})
	if err != nil {
		return edipayslip.GenerateResponse{}, err
	}

	if s.notifier != nil {
		message := fmt.Sprintf("%d EDI payslips ready for %04d-%02d", len(resp.Payslips), req.Year, req.Month)
		data := map[string]interface{}{"year": req.Year, "month": req.Month}
		if err := s.notifier.NotifySuccess(ctx, notification.TypeEdiPayslipsReady, message, data); err != nil {
			slog.WarnContext(ctx, "failed to queue edi payslip notification", "company_id", companyID, "error", err)
		}
	}

	return resp, nil
}

// GenerateForCompany reconciles the period's draft aggregates with its finalized payslips
// inside one transaction. Non-draft aggregates are never touched.
func (s *EdiPayslipServiceImpl) GenerateForCompany(ctx context.Context, companyID string, period edipayslip.Period) (edipayslip.GenerateResponse, error) {
	var resp edipayslip.GenerateResponse

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		valid, err := s.validPayslips(ctx, companyID, period)
		if err != nil {
			return err
		}

		deleted, err := s.repo.DeleteDraftAggregates(ctx, companyID, period)
		if err != nil {
			return fmt.Errorf("failed to delete draft edi payslips: %w", err)
		}

		created, err := s.createMissing(ctx, companyID, period, valid)
		if err != nil {
			return err
		}

		drafts, err := s.assignMembers(ctx, companyID, period, valid)
		if err != nil {
			return err
		}

		resp = edipayslip.GenerateResponse{
			View:     edipayslip.ListView(),
			Created:  created,
			Deleted:  deleted,
			Payslips: drafts,
		}
		s.metrics.AddPayslipAggregates("deleted", int(deleted))
		s.metrics.AddPayslipAggregates("created", created)
		return nil
	})
	s.metrics.IncPayslipGeneration(err)
	if err != nil {
		return edipayslip.GenerateResponse{}, err
	}

	slog.InfoContext(ctx, "edi payslips generated",
		"company_id", companyID, "year", period.Year, "month", period.Month,
		"created", resp.Created, "deleted", resp.Deleted, "drafts", len(resp.Payslips))

	return resp, nil
}

// validPayslips returns the period's finalized payslips minus those reversed by a
// finalized credit note, ordered by id so the last-wins contract is deterministic.
func (s *EdiPayslipServiceImpl) validPayslips(ctx context.Context, companyID string, period edipayslip.Period) ([]edipayslip.Payslip, error) {
	candidates, err := s.repo.ListFinalizedPayslips(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}

	origins, err := s.repo.ListReversedOrigins(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit notes: %w", err)
	}
	reversed := make(map[string]struct{}, len(origins))
	for _, id := range origins {
		reversed[id] = struct{}{}
	}

	valid := make([]edipayslip.Payslip, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := reversed[p.ID]; ok {
			continue
		}
		valid = append(valid, p)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].ID < valid[j].ID })

	return valid, nil
}

// createMissing creates a draft for every employee in valid without an aggregate in any state.
func (s *EdiPayslipServiceImpl) createMissing(ctx context.Context, companyID string, period edipayslip.Period, valid []edipayslip.Payslip) (int, error) {
	existing, err := s.repo.ListAggregates(ctx, companyID, period, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list edi payslips: %w", err)
	}
	covered := make(map[string]struct{}, len(existing))
	for _, agg := range existing {
		covered[agg.EmployeeID] = struct{}{}
	}

	created := 0
	for _, p := range valid {
		if _, ok := covered[p.EmployeeID]; ok {
			continue
		}
		if _, err := s.repo.CreateAggregate(ctx, edipayslip.EdiPayslip{
			CompanyID:  companyID,
			Year:       period.Year,
			Month:      period.Month,
			EmployeeID: p.EmployeeID,
			State:      edipayslip.StateDraft,
		}); err != nil {
			return 0, fmt.Errorf("failed to create edi payslip: %w", err)
		}
		covered[p.EmployeeID] = struct{}{}
		created++
	}
	return created, nil
}

// assignMembers rebuilds the membership of every draft aggregate. The contract is
// overwritten per payslip, so the last payslip of the employee wins.
func (s *EdiPayslipServiceImpl) assignMembers(ctx context.Context, companyID string, period edipayslip.Period, valid []edipayslip.Payslip) ([]edipayslip.EdiPayslipResponse, error) {
	draftState := edipayslip.StateDraft
	drafts, err := s.repo.ListAggregates(ctx, companyID, period, &draftState)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft edi payslips: %w", err)
	}

	byEmployee := make(map[string][]edipayslip.Payslip)
	for _, p := range valid {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}

	out := make([]edipayslip.EdiPayslipResponse, 0, len(drafts))
	for _, agg := range drafts {
		if err := s.repo.ClearMembership(ctx, agg.ID); err != nil {
			return nil, fmt.Errorf("failed to clear edi payslip %s: %w", agg.ID, err)
		}
		agg.PayslipIDs = nil

		for _, p := range byEmployee[agg.EmployeeID] {
			if err := s.repo.AddMember(ctx, agg.ID, p.ID); err != nil {
				return nil, fmt.Errorf("failed to add payslip %s: %w", p.ID, err)
			}
			if err := s.repo.SetContract(ctx, agg.ID, p.ContractID); err != nil {
				return nil, fmt.Errorf("failed to set contract on edi payslip %s: %w", agg.ID, err)
			}
			agg.PayslipIDs = append(agg.PayslipIDs, p.ID)
			agg.ContractID = p.ContractID
		}

		out = append(out, toResponse(agg))
	}
	return out, nil
}

// ========== QUERIES ==========

func (s *EdiPayslipServiceImpl) ListEdiPayslips(ctx context.Context, filter edipayslip.EdiPayslipFilter) ([]edipayslip.EdiPayslipResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var state *edipayslip.AggregateState
	if filter.State != nil {
		st := edipayslip.AggregateState(*filter.State)
		state = &st
	}

	aggs, err := s.repo.ListAggregates(ctx, companyID, edipayslip.Period{Year: filter.Year, Month: filter.Month}, state)
	if err != nil {
		return nil, err
	}

	out := make([]edipayslip.EdiPayslipResponse, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, toResponse(agg))
	}
	return out, nil
}

func (s *EdiPayslipServiceImpl) GetEdiPayslip(ctx context.Context, id string) (edipayslip.EdiPayslipDetailResponse, error) {
	companyID, err := getCompanyIDFromContext(ctx)
	if err != nil {
		return edipayslip.EdiPayslipDetailResponse{}, err
	}

	agg, err := s.repo.GetAggregate(ctx, id, companyID)
	if err != nil {
		return edipayslip.EdiPayslipDetailResponse{}, err
	}

	members, err := s.repo.ListMembers(ctx, agg.ID)
	if err != nil {
		return edipayslip.EdiPayslipDetailResponse{}, err
	}

	detail := edipayslip.EdiPayslipDetailResponse{
		EdiPayslipResponse: toResponse(agg),
		Payslips:           make([]edipayslip.PayslipLineResponse, 0, len(members)),
		NetTotal:           decimal.Zero,
	}
	detail.PayslipIDs = make([]string, 0, len(members))
	for _, p := range members {
		detail.Payslips = append(detail.Payslips, edipayslip.PayslipLineResponse{
			ID:         p.ID,
			Number:     p.Number,
			ContractID: p.ContractID,
			State:      p.State,
			NetAmount:  p.NetAmount,
		})
		detail.PayslipIDs = append(detail.PayslipIDs, p.ID)
		detail.NetTotal = detail.NetTotal.Add(p.NetAmount)
	}
	return detail, nil
}

func toResponse(agg edipayslip.EdiPayslip) edipayslip.EdiPayslipResponse {
	resp := edipayslip.EdiPayslipResponse{
		ID:         agg.ID,
		Year:       agg.Year,
		Month:      agg.Month,
		EmployeeID: agg.EmployeeID,
		ContractID: agg.ContractID,
		State:      string(agg.State),
		PayslipIDs: agg.PayslipIDs,
		CreatedAt:  agg.CreatedAt,
		UpdatedAt:  agg.UpdatedAt,
	}
	if resp.PayslipIDs == nil {
		resp.PayslipIDs = []string{}
	}
	if agg.EmployeeName != nil {
		resp.EmployeeName = *agg.EmployeeName
	}
	return resp
}
