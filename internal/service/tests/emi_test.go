package service_test

import (
	"context"
	"testing"

	"github.com/loanflow-dev/loanflow/internal/dto"
	"github.com/loanflow-dev/loanflow/internal/service"
	emisrv "github.com/loanflow-dev/loanflow/internal/service/emi"
	"github.com/loanflow-dev/loanflow/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	noop_metric "go.opentelemetry.io/otel/metric/noop"
	noop_trace "go.opentelemetry.io/otel/trace/noop"

	"go.uber.org/zap"
)

type EmiServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	emiService service.EmiServices
}

func (suite *EmiServiceTestSuite) SetupSuite() {
	suite.ctx = context.Background()

	log := zap.NewNop()
	tracer := noop_trace.NewTracerProvider().Tracer("test-emi-service-tracer")
	meter := noop_metric.NewMeterProvider().Meter("test-emi-service-meter")

	suite.emiService = emisrv.NewEmiService(meter, tracer, log)
}

func (suite *EmiServiceTestSuite) calculate(amount, rate float64, tenure int) *dto.EmiResponse {
	res, err := suite.emiService.Calculate(suite.ctx, dto.CalculateEmiRequest{
		LoanAmount:   amount,
		InterestRate: rate,
		LoanTenure:   tenure,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(res)
	return res
}

func (suite *EmiServiceTestSuite) TestReferenceLoan() {
	res := suite.calculate(100000, 10, 12)

	assert.InDelta(suite.T(), 8791.59, res.MonthlyEMI, 0.01)
	assert.InDelta(suite.T(), 105499.08, res.TotalPayable, 0.01)
	assert.InDelta(suite.T(), 5499.08, res.TotalInterest, 0.01)
	assert.Equal(suite.T(), 12, res.Tenure)

	suite.Require().Len(res.Schedule, 12)
	first := res.Schedule[0]
	assert.Equal(suite.T(), 1, first.Month)
	assert.InDelta(suite.T(), 833.33, first.Interest, 0.01)
	assert.InDelta(suite.T(), 7958.26, first.Principal, 0.01)

	// Loan is fully repaid at the end of the tenure
	assert.InDelta(suite.T(), 0, res.Schedule[11].Balance, 0.01)
}

func (suite *EmiServiceTestSuite) TestZeroRateIsLinear() {
	res := suite.calculate(12000, 0, 24)

	assert.InDelta(suite.T(), 500.0, res.MonthlyEMI, 0.001)
	assert.InDelta(suite.T(), 12000.0, res.TotalPayable, 0.01)
	assert.InDelta(suite.T(), 0.0, res.TotalInterest, 0.01)

	suite.Require().Len(res.Schedule, 12)
	for _, row := range res.Schedule {
		assert.Zero(suite.T(), row.Interest)
		assert.InDelta(suite.T(), 500.0, row.Principal, 0.001)
	}
}

func (suite *EmiServiceTestSuite) TestScheduleTruncatedAtTwelveMonths() {
	res := suite.calculate(500000, 12, 60)

	assert.Equal(suite.T(), 60, res.Tenure)
	assert.Len(suite.T(), res.Schedule, 12)
	// Totals still cover the full tenure
	assert.InDelta(suite.T(), res.MonthlyEMI*60, res.TotalPayable, 0.5)
}

func (suite *EmiServiceTestSuite) TestShortTenureScheduleLength() {
	res := suite.calculate(9000, 8, 6)
	assert.Len(suite.T(), res.Schedule, 6)
}

func (suite *EmiServiceTestSuite) TestScheduleInvariants() {
	cases := []struct {
		amount float64
		rate   float64
		tenure int
	}{
		{100000, 10, 12},
		{250000, 7.5, 36},
		{5000, 0, 5},
		{75000, 100, 24},
		{1234.56, 3.2, 8},
	}

	for _, tc := range cases {
		res := suite.calculate(tc.amount, tc.rate, tc.tenure)

		assert.InDelta(suite.T(), res.MonthlyEMI*float64(res.Tenure), res.TotalPayable, 0.5)
		assert.InDelta(suite.T(), res.TotalPayable-tc.amount, res.TotalInterest, 0.02)

		prevBalance := tc.amount
		for _, row := range res.Schedule {
			assert.InDelta(suite.T(), row.EMI, row.Principal+row.Interest, 0.02)
			assert.GreaterOrEqual(suite.T(), row.Balance, 0.0)
			assert.LessOrEqual(suite.T(), row.Balance, prevBalance)
			prevBalance = row.Balance
		}
	}
}

func (suite *EmiServiceTestSuite) TestTermBounds() {
	cases := []struct {
		name    string
		req     dto.CalculateEmiRequest
		wantErr error
	}{
		{"Zero amount", dto.CalculateEmiRequest{LoanAmount: 0, InterestRate: 10, LoanTenure: 12}, common.ErrInvalidLoanAmount},
		{"Negative amount", dto.CalculateEmiRequest{LoanAmount: -5, InterestRate: 10, LoanTenure: 12}, common.ErrInvalidLoanAmount},
		{"Rate above 100", dto.CalculateEmiRequest{LoanAmount: 1000, InterestRate: 150, LoanTenure: 12}, common.ErrInvalidInterestRate},
		{"Negative rate", dto.CalculateEmiRequest{LoanAmount: 1000, InterestRate: -1, LoanTenure: 12}, common.ErrInvalidInterestRate},
		{"Zero tenure", dto.CalculateEmiRequest{LoanAmount: 1000, InterestRate: 10, LoanTenure: 0}, common.ErrInvalidTenure},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			res, err := suite.emiService.Calculate(suite.ctx, tc.req)
			assert.Nil(suite.T(), res)
			assert.ErrorIs(suite.T(), err, tc.wantErr)
		})
	}
}

func TestEmiServiceSuite(t *testing.T) {
	suite.Run(t, new(EmiServiceTestSuite))
}
