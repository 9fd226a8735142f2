package edipayslip

import (
	"time"

	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUESTS ==========

type GenerateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *GenerateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if r.Year < 2000 || r.Year > 9999 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be a four-digit year from 2000"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EdiPayslipFilter struct {
	Year  int
	Month int
	State *string
}

func (f *EdiPayslipFilter) Validate() error {
	req := GenerateRequest{Year: f.Year, Month: f.Month}
	if err := req.Validate(); err != nil {
		return err
	}
	if f.State != nil && !validator.IsInSlice(*f.State, []string{string(StateDraft), string(StateDone)}) {
		return validator.Required("state", "must be draft or done")
	}
	return nil
}

// ========== RESPONSES ==========

// ViewDescriptor asks the client to present the aggregate list.
type ViewDescriptor struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Model string   `json:"res_model"`
	Views []string `json:"views"`
}

// ListView is the descriptor returned after a reconciliation run.
func ListView() ViewDescriptor {
	return ViewDescriptor{
		Name:  "Edi Payslips",
		Type:  "ir.actions.act_window",
		Model: "hr.payslip.edi",
		Views: []string{"tree", "form"},
	}
}

type EdiPayslipResponse struct {
	ID           string    `json:"id"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name,omitempty"`
	ContractID   *string   `json:"contract_id,omitempty"`
	State        string    `json:"state"`
	PayslipIDs   []string  `json:"payslip_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GenerateResponse struct {
	View     ViewDescriptor       `json:"view"`
	Created  int                  `json:"created"`
	Deleted  int64                `json:"deleted"`
	Payslips []EdiPayslipResponse `json:"edi_payslips"`
}

type PayslipLineResponse struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	ContractID *string         `json:"contract_id,omitempty"`
	State      string          `json:"state"`
	NetAmount  decimal.Decimal `json:"net_amount"`
}

type EdiPayslipDetailResponse struct {
	EdiPayslipResponse
	Payslips []PayslipLineResponse `json:"payslips"`
	NetTotal decimal.Decimal       `json:"net_total"`
}
