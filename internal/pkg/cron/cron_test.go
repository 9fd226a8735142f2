package cron

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/edipayslip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompanies struct {
	ids    []string
	period edipayslip.Period
}

func (f *fakeCompanies) ListCompaniesWithPayslips(ctx context.Context, period edipayslip.Period) ([]string, error) {
	f.period = period
	return f.ids, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeGenerator) GenerateForCompany(ctx context.Context, companyID string, period edipayslip.Period) (edipayslip.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, companyID)
	return edipayslip.GenerateResponse{}, f.fail[companyID]
}

func TestRegenerateCurrentPeriod(t *testing.T) {
	companies := &fakeCompanies{ids: []string{"company-1", "company-2", "company-3"}}
	boom := errors.New("boom")
	generator := &fakeGenerator{fail: map[string]error{"company-2": boom}}
	jobs := NewEdiPayslipJobs(companies, generator, time.Hour)
	jobs.now = func() time.Time { return time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC) }

	err := jobs.RegenerateCurrentPeriod(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "company-2")
	assert.Equal(t, edipayslip.Period{Year: 2024, Month: 3}, companies.period)
	sort.Strings(generator.calls)
	assert.Equal(t, []string{"company-1", "company-2", "company-3"}, generator.calls)
}

func TestRegenerateCurrentPeriodReportsEveryFailure(t *testing.T) {
	companies := &fakeCompanies{ids: []string{"company-1", "company-2", "company-3", "company-4", "company-5"}}
	first := errors.New("first")
	second := errors.New("second")
	generator := &fakeGenerator{fail: map[string]error{"company-1": first, "company-5": second}}
	jobs := NewEdiPayslipJobs(companies, generator, time.Hour)

	err := jobs.RegenerateCurrentPeriod(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Len(t, generator.calls, 5)
}

func TestRegenerateCurrentPeriodCancelled(t *testing.T) {
	companies := &fakeCompanies{ids: []string{"company-1", "company-2"}}
	generator := &fakeGenerator{}
	jobs := NewEdiPayslipJobs(companies, generator, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := jobs.RegenerateCurrentPeriod(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, generator.calls)
}

func TestSchedulerRunOnce(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	require.NoError(t, s.AddJob("ok", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.AddJob("failing", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("nope")
	}))

	err := s.RunOnce(context.Background())

	assert.EqualError(t, err, "failing: nope")
	assert.Equal(t, int32(2), runs.Load())
}

func TestSchedulerRejectsInvalidJobs(t *testing.T) {
	s := NewScheduler()
	assert.Error(t, s.AddJob("zero", 0, func(ctx context.Context) error { return nil }))

	s.Start()
	defer s.Stop()
	assert.Error(t, s.AddJob("late", time.Hour, func(ctx context.Context) error { return nil }))
}

func TestSchedulerRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
