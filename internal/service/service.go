package service

import (
	"context"

	"github.com/loanflow-dev/loanflow/internal/dto"
)

type EligibilityServices interface {
	Validate(ctx context.Context, req dto.ValidateLoanRequest) (*dto.ValidationResponse, error)
}

type EmiServices interface {
	Calculate(ctx context.Context, req dto.CalculateEmiRequest) (*dto.EmiResponse, error)
}
