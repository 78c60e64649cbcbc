package emisrv

import (
	"context"
	"math"
	"time"

	"github.com/loanflow-dev/loanflow/internal/domain"
	"github.com/loanflow-dev/loanflow/internal/dto"
	"github.com/loanflow-dev/loanflow/internal/service"
	"github.com/loanflow-dev/loanflow/pkg/common"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type emiService struct {
	meter             metric.Meter
	tracer            trace.Tracer
	log               *zap.Logger
	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	quotesIssued      metric.Int64Counter
}

func NewEmiService(
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.EmiServices {
	operationDuration, _ := meter.Float64Histogram(
		"service.operation.duration",
		metric.WithDescription("Duration of service operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		"service.operation.count",
		metric.WithDescription("Number of service operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"service.error.count",
		metric.WithDescription("Number of service errors"),
		metric.WithUnit("{error}"),
	)

	quotesIssued, _ := meter.Int64Counter(
		"service.quotes.issued",
		metric.WithDescription("Number of EMI quotes issued"),
		metric.WithUnit("{quote}"),
	)

	return &emiService{
		meter:             meter,
		tracer:            tracer,
		log:               log,
		operationDuration: operationDuration,
		operationCount:    operationCount,
		errorCount:        errorCount,
		quotesIssued:      quotesIssued,
	}
}

// Calculate implements service.EmiServices.
func (e *emiService) Calculate(ctx context.Context, req dto.CalculateEmiRequest) (*dto.EmiResponse, error) {
	_, span := e.tracer.Start(ctx, "service.CalculateEmi")
	defer span.End()

	start := time.Now()

	e.operationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "calculate_emi"),
			attribute.String("service", "emi"),
		),
	)

	span.SetAttributes(
		attribute.Float64("loan.amount", req.LoanAmount),
		attribute.Float64("loan.interest_rate", req.InterestRate),
		attribute.Int("loan.tenure_months", req.LoanTenure),
		attribute.String("service", "emi"),
	)

	if err := checkTerms(req); err != nil {
		span.SetStatus(codes.Error, "Loan terms out of range")
		span.RecordError(err)

		e.log.Warn("Rejected EMI request with out-of-range terms",
			zap.Float64("loan_amount", req.LoanAmount),
			zap.Float64("interest_rate", req.InterestRate),
			zap.Int("tenure_months", req.LoanTenure),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		e.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "calculate_emi"),
				attribute.String("service", "emi"),
				attribute.String("error_type", "terms_out_of_range"),
			),
		)

		duration := float64(time.Since(start).Milliseconds())
		e.operationDuration.Record(ctx, duration,
			metric.WithAttributes(
				attribute.String("operation", "calculate_emi"),
				attribute.String("service", "emi"),
				attribute.String("status", "error"),
			),
		)

		return nil, err
	}

	quote := amortize(req.LoanAmount, req.InterestRate, req.LoanTenure)

	e.quotesIssued.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("service", "emi"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	e.operationDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "calculate_emi"),
			attribute.String("service", "emi"),
			attribute.String("status", "success"),
		),
	)

	e.log.Debug("EMI quote issued",
		zap.Float64("monthly_emi", quote.MonthlyEMI),
		zap.Float64("total_payable", quote.TotalPayable),
		zap.Int("tenure_months", quote.Tenure),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return dto.QuoteToResponse(quote), nil
}

func checkTerms(req dto.CalculateEmiRequest) error {
	if req.LoanAmount <= 0 {
		return common.ErrInvalidLoanAmount
	}
	if req.InterestRate < 0 || req.InterestRate > 100 {
		return common.ErrInvalidInterestRate
	}
	if req.LoanTenure <= 0 {
		return common.ErrInvalidTenure
	}
	return nil
}

// amortize computes the fixed monthly installment and the first year of the
// repayment schedule. EMI = P * r * (1+r)^n / ((1+r)^n - 1); a zero rate
// degenerates to straight division since the annuity denominator vanishes.
func amortize(principal, annualRate float64, tenureMonths int) *domain.EmiQuote {
	monthlyRate := annualRate / 12 / 100

	var monthlyEmi float64
	if monthlyRate == 0 {
		monthlyEmi = principal / float64(tenureMonths)
	} else {
		compounded := math.Pow(1+monthlyRate, float64(tenureMonths))
		monthlyEmi = principal * monthlyRate * compounded / (compounded - 1)
	}

	totalPayable := monthlyEmi * float64(tenureMonths)
	totalInterest := totalPayable - principal

	rows := min(tenureMonths, domain.ScheduleMonths)
	schedule := make([]domain.ScheduleRow, 0, rows)
	remainingBalance := principal

	for month := 1; month <= rows; month++ {
		interestPayment := remainingBalance * monthlyRate
		principalPayment := monthlyEmi - interestPayment
		remainingBalance -= principalPayment

		schedule = append(schedule, domain.ScheduleRow{
			Month:     month,
			EMI:       round2(monthlyEmi),
			Principal: round2(principalPayment),
			Interest:  round2(interestPayment),
			Balance:   round2(math.Max(0, remainingBalance)),
		})
	}

	return &domain.EmiQuote{
		MonthlyEMI:    round2(monthlyEmi),
		TotalInterest: round2(totalInterest),
		TotalPayable:  round2(totalPayable),
		Tenure:        tenureMonths,
		Schedule:      schedule,
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
