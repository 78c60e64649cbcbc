package dto

import (
	"github.com/loanflow-dev/loanflow/internal/domain"
)

type ValidationResponse struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

type ScheduleRowResponse struct {
	Month     int     `json:"month"`
	EMI       float64 `json:"emi"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

type EmiResponse struct {
	MonthlyEMI    float64               `json:"monthlyEMI"`
	TotalInterest float64               `json:"totalInterest"`
	TotalPayable  float64               `json:"totalPayable"`
	Tenure        int                   `json:"tenure"`
	Schedule      []ScheduleRowResponse `json:"schedule"`
}

// --- Mapping --- //

func QuoteToResponse(quote *domain.EmiQuote) *EmiResponse {
	schedule := make([]ScheduleRowResponse, 0, len(quote.Schedule))
	for _, row := range quote.Schedule {
		schedule = append(schedule, ScheduleRowResponse{
			Month:     row.Month,
			EMI:       row.EMI,
			Principal: row.Principal,
			Interest:  row.Interest,
			Balance:   row.Balance,
		})
	}

	return &EmiResponse{
		MonthlyEMI:    quote.MonthlyEMI,
		TotalInterest: quote.TotalInterest,
		TotalPayable:  quote.TotalPayable,
		Tenure:        quote.Tenure,
		Schedule:      schedule,
	}
}
