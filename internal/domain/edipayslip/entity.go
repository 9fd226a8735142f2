package edipayslip

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateState enum
type AggregateState string

const (
	StateDraft AggregateState = "draft"
	StateDone  AggregateState = "done"
)

// PayslipStateDraft is the only payslip state excluded from aggregation.
const PayslipStateDraft = "draft"

// Payslip is the read model of a monthly payslip.
type Payslip struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	ContractID      *string
	Number          string
	Year            int
	Month           int
	State           string
	CreditNote      bool
	OriginPayslipID *string
	NetAmount       decimal.Decimal
	EdiPayslipID    *string

	// Joined fields
	EmployeeName *string
}

// EdiPayslip groups one employee's payslips of a period.
type EdiPayslip struct {
	ID         string
	CompanyID  string
	Year       int
	Month      int
	EmployeeID string
	ContractID *string
	State      AggregateState
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	EmployeeName *string
	PayslipIDs   []string
}

// Period identifies a reconciliation run.
type Period struct {
	Year  int
	Month int
}
