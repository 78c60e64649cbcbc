package dto

import (
	"github.com/loanflow-dev/loanflow/internal/domain"
)

type ValidateLoanRequest struct {
	CNIC       string  `json:"cnic"`
	LoanType   *string `json:"loanType"`
	Age        int     `json:"age"`
	StudentAge int     `json:"studentAge"`
	LandAcres  float64 `json:"landAcres"`
}

type CalculateEmiRequest struct {
	LoanAmount   float64 `json:"loanAmount"`
	InterestRate float64 `json:"interestRate"`
	LoanTenure   int     `json:"loanTenure"`
}

// --- Mapping --- //

// ToApplication converts the wire-level request into the domain record.
// An absent loanType defaults to Home; a present but unrecognized value is
// passed through as-is and runs no type-specific rule.
func (r ValidateLoanRequest) ToApplication() domain.LoanApplication {
	loanType := domain.LoanHome
	if r.LoanType != nil {
		loanType = domain.LoanType(*r.LoanType)
	}

	return domain.LoanApplication{
		CNIC:       r.CNIC,
		LoanType:   loanType,
		Age:        r.Age,
		StudentAge: r.StudentAge,
		LandAcres:  r.LandAcres,
	}
}
