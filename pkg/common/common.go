package common

import (
	"errors"
	"os"
)

var (
	ErrInvalidLoanAmount   = errors.New("loan amount must be greater than 0")
	ErrInvalidInterestRate = errors.New("interest rate must be between 0 and 100")
	ErrInvalidTenure       = errors.New("loan tenure must be greater than 0")
)

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
