package edipayslip

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inlineTransactor struct{ calls int }

func (t *inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeRepo struct {
	payslips map[string]*edipayslip.Payslip
	aggs     map[string]*edipayslip.EdiPayslip
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payslips: map[string]*edipayslip.Payslip{},
		aggs:     map[string]*edipayslip.EdiPayslip{},
	}
}

func (f *fakeRepo) addPayslip(p edipayslip.Payslip) {
	if p.CompanyID == "" {
		p.CompanyID = "company-1"
	}
	if p.Year == 0 {
		p.Year, p.Month = 2024, 1
	}
	if p.State == "" {
		p.State = "done"
	}
	f.payslips[p.ID] = &p
}

func (f *fakeRepo) addAggregate(a edipayslip.EdiPayslip) string {
	f.nextID++
	a.ID = fmt.Sprintf("edi-%03d", f.nextID)
	if a.CompanyID == "" {
		a.CompanyID = "company-1"
	}
	f.aggs[a.ID] = &a
	return a.ID
}

func inPeriod(p *edipayslip.Payslip, companyID string, period edipayslip.Period) bool {
	return p.CompanyID == companyID && p.Year == period.Year && p.Month == period.Month
}

// ListFinalizedPayslips returns ids in descending order to prove the service sorts.
func (f *fakeRepo) ListFinalizedPayslips(ctx context.Context, companyID string, period edipayslip.Period) ([]edipayslip.Payslip, error) {
	var out []edipayslip.Payslip
	for _, p := range f.payslips {
		if inPeriod(p, companyID, period) && !p.CreditNote && p.OriginPayslipID == nil && p.State != edipayslip.PayslipStateDraft {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListReversedOrigins(ctx context.Context, companyID string, period edipayslip.Period) ([]string, error) {
	var out []string
	for _, p := range f.payslips {
		if inPeriod(p, companyID, period) && p.CreditNote && p.OriginPayslipID != nil && p.State != edipayslip.PayslipStateDraft {
			out = append(out, *p.OriginPayslipID)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListMembers(ctx context.Context, ediPayslipID string) ([]edipayslip.Payslip, error) {
	var out []edipayslip.Payslip
	for _, p := range f.payslips {
		if p.EdiPayslipID != nil && *p.EdiPayslipID == ediPayslipID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListCompaniesWithPayslips(ctx context.Context, period edipayslip.Period) ([]string, error) {
	return []string{"company-1"}, nil
}

func (f *fakeRepo) ListAggregates(ctx context.Context, companyID string, period edipayslip.Period, state *edipayslip.AggregateState) ([]edipayslip.EdiPayslip, error) {
	var out []edipayslip.EdiPayslip
	for _, a := range f.aggs {
		if a.CompanyID == companyID && a.Year == period.Year && a.Month == period.Month && (state == nil || a.State == *state) {
			agg := *a
			members, _ := f.ListMembers(ctx, a.ID)
			for _, m := range members {
				agg.PayslipIDs = append(agg.PayslipIDs, m.ID)
			}
			out = append(out, agg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) GetAggregate(ctx context.Context, id string, companyID string) (edipayslip.EdiPayslip, error) {
	a, ok := f.aggs[id]
	if !ok || a.CompanyID != companyID {
		return edipayslip.EdiPayslip{}, edipayslip.ErrEdiPayslipNotFound
	}
	return *a, nil
}

func (f *fakeRepo) CreateAggregate(ctx context.Context, agg edipayslip.EdiPayslip) (edipayslip.EdiPayslip, error) {
	agg.ID = f.addAggregate(agg)
	return agg, nil
}

func (f *fakeRepo) DeleteDraftAggregates(ctx context.Context, companyID string, period edipayslip.Period) (int64, error) {
	var n int64
	for id, a := range f.aggs {
		if a.CompanyID == companyID && a.Year == period.Year && a.Month == period.Month && a.State == edipayslip.StateDraft {
			_ = f.ClearMembership(ctx, id)
			delete(f.aggs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ClearMembership(ctx context.Context, ediPayslipID string) error {
	for _, p := range f.payslips {
		if p.EdiPayslipID != nil && *p.EdiPayslipID == ediPayslipID {
			p.EdiPayslipID = nil
		}
	}
	return nil
}

func (f *fakeRepo) AddMember(ctx context.Context, ediPayslipID string, payslipID string) error {
	id := ediPayslipID
	f.payslips[payslipID].EdiPayslipID = &id
	return nil
}

func (f *fakeRepo) SetContract(ctx context.Context, ediPayslipID string, contractID *string) error {
	f.aggs[ediPayslipID].ContractID = contractID
	return nil
}

// mapping returns employee -> member payslip ids of every aggregate in the period.
func (f *fakeRepo) mapping(t *testing.T) map[string][]string {
	t.Helper()
	aggs, err := f.ListAggregates(context.Background(), "company-1", edipayslip.Period{Year: 2024, Month: 1}, nil)
	require.NoError(t, err)
	out := map[string][]string{}
	for _, a := range aggs {
		out[a.EmployeeID] = a.PayslipIDs
	}
	return out
}

func strPtr(s string) *string { return &s }

func authContext(t *testing.T) context.Context {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := auth.Encode(map[string]interface{}{"company_id": "company-1", "user_id": "user-1"})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newService(repo *fakeRepo) (*EdiPayslipServiceImpl, *inlineTransactor) {
	tx := &inlineTransactor{}
	return NewEdiPayslipService(tx, repo, nil, nil).(*EdiPayslipServiceImpl), tx
}

var january = edipayslip.GenerateRequest{Year: 2024, Month: 1}

func TestGenerateExcludesPayslipsReversedByCreditNote(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a", ContractID: strPtr("c-a")})
	repo.addPayslip(edipayslip.Payslip{ID: "c1", EmployeeID: "emp-a", CreditNote: true, OriginPayslipID: strPtr("p1")})
	svc, tx := newService(repo)

	resp, err := svc.Generate(authContext(t), january)

	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Empty(t, resp.Payslips)
	assert.Equal(t, 0, resp.Created)
	assert.Empty(t, repo.mapping(t))
}

func TestGenerateIgnoresDraftCreditNotesAndDraftPayslips(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a"})
	repo.addPayslip(edipayslip.Payslip{ID: "c1", EmployeeID: "emp-a", CreditNote: true, OriginPayslipID: strPtr("p1"), State: "draft"})
	repo.addPayslip(edipayslip.Payslip{ID: "p2", EmployeeID: "emp-b", State: "draft"})
	repo.addPayslip(edipayslip.Payslip{ID: "p3", EmployeeID: "emp-c", Month: 2, Year: 2024})
	svc, _ := newService(repo)

	_, err := svc.Generate(authContext(t), january)

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"emp-a": {"p1"}}, repo.mapping(t))
}

func TestGenerateIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a", ContractID: strPtr("c-1")})
	repo.addPayslip(edipayslip.Payslip{ID: "p2", EmployeeID: "emp-a", ContractID: strPtr("c-2")})
	repo.addPayslip(edipayslip.Payslip{ID: "p3", EmployeeID: "emp-b", ContractID: strPtr("c-3")})
	svc, _ := newService(repo)

	first, err := svc.Generate(authContext(t), january)
	require.NoError(t, err)
	firstMapping := repo.mapping(t)

	second, err := svc.Generate(authContext(t), january)
	require.NoError(t, err)

	assert.Equal(t, firstMapping, repo.mapping(t))
	assert.Equal(t, map[string][]string{"emp-a": {"p1", "p2"}, "emp-b": {"p3"}}, firstMapping)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, int64(2), second.Deleted)
	assert.Equal(t, 2, second.Created)
	assert.Equal(t, edipayslip.ListView(), second.View)
}

func TestGenerateLastPayslipContractWins(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a", ContractID: strPtr("c-1")})
	repo.addPayslip(edipayslip.Payslip{ID: "p2", EmployeeID: "emp-a", ContractID: strPtr("c-2")})
	svc, _ := newService(repo)

	resp, err := svc.Generate(authContext(t), january)

	require.NoError(t, err)
	require.Len(t, resp.Payslips, 1)
	require.NotNil(t, resp.Payslips[0].ContractID)
	assert.Equal(t, "c-2", *resp.Payslips[0].ContractID)
	assert.Equal(t, []string{"p1", "p2"}, resp.Payslips[0].PayslipIDs)
}

func TestGenerateLeavesNonDraftAggregates(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a"})
	repo.addPayslip(edipayslip.Payslip{ID: "p2", EmployeeID: "emp-b"})
	doneID := repo.addAggregate(edipayslip.EdiPayslip{Year: 2024, Month: 1, EmployeeID: "emp-a", State: edipayslip.StateDone})
	_ = repo.AddMember(context.Background(), doneID, "p1")
	staleID := repo.addAggregate(edipayslip.EdiPayslip{Year: 2024, Month: 1, EmployeeID: "emp-z", State: edipayslip.StateDraft})
	svc, _ := newService(repo)

	resp, err := svc.Generate(authContext(t), january)

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Deleted)
	assert.NotContains(t, repo.aggs, staleID)
	assert.Contains(t, repo.aggs, doneID)
	assert.Equal(t, map[string][]string{"emp-a": {"p1"}, "emp-b": {"p2"}}, repo.mapping(t))
	require.Len(t, resp.Payslips, 1)
	assert.Equal(t, "emp-b", resp.Payslips[0].EmployeeID)
}

func TestGenerateValidatesPeriod(t *testing.T) {
	svc, tx := newService(newFakeRepo())

	_, err := svc.Generate(authContext(t), edipayslip.GenerateRequest{Year: 2024, Month: 0})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Equal(t, 0, tx.calls)
}

func TestGetEdiPayslipSumsNetAmounts(t *testing.T) {
	repo := newFakeRepo()
	repo.addPayslip(edipayslip.Payslip{ID: "p1", EmployeeID: "emp-a", NetAmount: decimal.RequireFromString("1500000.50")})
	repo.addPayslip(edipayslip.Payslip{ID: "p2", EmployeeID: "emp-a", NetAmount: decimal.RequireFromString("250000.25")})
	svc, _ := newService(repo)
	ctx := authContext(t)

	resp, err := svc.Generate(ctx, january)
	require.NoError(t, err)
	require.Len(t, resp.Payslips, 1)

	detail, err := svc.GetEdiPayslip(ctx, resp.Payslips[0].ID)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1750000.75").Equal(detail.NetTotal))
	assert.Len(t, detail.Payslips, 2)
	assert.Equal(t, []string{"p1", "p2"}, detail.PayslipIDs)
}

func TestGetEdiPayslipOtherCompany(t *testing.T) {
	repo := newFakeRepo()
	id := repo.addAggregate(edipayslip.EdiPayslip{CompanyID: "company-2", Year: 2024, Month: 1, EmployeeID: "emp-a", State: edipayslip.StateDraft})
	svc, _ := newService(repo)

	_, err := svc.GetEdiPayslip(authContext(t), id)

	assert.ErrorIs(t, err, edipayslip.ErrEdiPayslipNotFound)
}
