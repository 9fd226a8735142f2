package edipayslip

import "errors"

var (
	ErrEdiPayslipNotFound = errors.New("edi payslip not found")
)
