package loanhandler

import (
	"context"
	"errors"
	"time"

	"github.com/loanflow-dev/loanflow/internal/dto"
	"github.com/loanflow-dev/loanflow/internal/service"
	"github.com/loanflow-dev/loanflow/pkg/common"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type LoanHandler struct {
	eligibilityService service.EligibilityServices
	emiService         service.EmiServices
	meter              metric.Meter
	tracer             trace.Tracer
	log                *zap.Logger
	requestCount       metric.Int64Counter
	requestDuration    metric.Float64Histogram
	errorCount         metric.Int64Counter
}

func NewLoanHandler(
	eligibilityService service.EligibilityServices,
	emiService service.EmiServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *LoanHandler {
	requestCount, err := meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request count metric", zap.Error(err))
	}

	requestDuration, err := meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request duration metric", zap.Error(err))
	}

	errorCount, err := meter.Int64Counter(
		"api.error.count",
		metric.WithDescription("Number of API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create error count metric", zap.Error(err))
	}

	return &LoanHandler{
		eligibilityService: eligibilityService,
		emiService:         emiService,
		meter:              meter,
		tracer:             tracer,
		log:                log,
		requestCount:       requestCount,
		requestDuration:    requestDuration,
		errorCount:         errorCount,
	}
}

// recordFailure records error metrics and the span state, then sends the
// given response body. The body shape differs per endpoint contract.
func (h *LoanHandler) recordFailure(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, body any, fields ...zap.Field) error {
	h.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.String("error_type", errorType),
		attribute.Int("status_code", statusCode),
	))

	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.String("error.type", errorType),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)
	span.RecordError(err)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
	}, fields...)

	h.log.Error(message, logFields...)

	return c.Status(statusCode).JSON(body)
}

// recordError is the common failure path returning the `{error: message}`
// shape used by the calculate endpoint and internal errors.
func (h *LoanHandler) recordError(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, fields ...zap.Field) error {
	return h.recordFailure(ctx, span, c, start, err, statusCode, errorType, message,
		fiber.Map{"error": message}, fields...)
}

// recordSuccess records duration metrics and sends the response body.
func (h *LoanHandler) recordSuccess(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, statusCode int, responseData interface{}, fields ...zap.Field) error {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Float64("request.duration_ms", duration),
	)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	}, fields...)

	h.log.Info("Request completed successfully", logFields...)

	return c.Status(statusCode).JSON(responseData)
}

// Validate handles POST /api/validate. The endpoint always answers with the
// `{isValid, errors}` shape, including on body parse failures.
func (h *LoanHandler) Validate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	ctx, span := h.tracer.Start(ctx, "handler.Validate")
	defer span.End()
	start := time.Now()

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.client_ip", c.IP()),
	)

	h.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))

	var req dto.ValidateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordFailure(
			ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", "Cannot parse loan application body",
			dto.ValidationResponse{IsValid: false, Errors: []string{err.Error()}},
			zap.Error(err))
	}

	serviceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := h.eligibilityService.Validate(serviceCtx, req)
	if err != nil {
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusInternalServerError, "service_error", "Server error", zap.Error(err))
	}

	span.SetAttributes(
		attribute.Bool("application.valid", res.IsValid),
	)

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res,
		zap.Bool("is_valid", res.IsValid),
		zap.Int("violations", len(res.Errors)),
	)
}

// Calculate handles POST /api/calculate.
func (h *LoanHandler) Calculate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	ctx, span := h.tracer.Start(ctx, "handler.Calculate")
	defer span.End()
	start := time.Now()

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.client_ip", c.IP()),
	)

	h.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))

	var req dto.CalculateEmiRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(
			ctx, span, c, start, err,
			fiber.StatusBadRequest, "parse_error", err.Error(), zap.Error(err))
	}

	span.SetAttributes(
		attribute.Float64("loan.amount", req.LoanAmount),
		attribute.Float64("loan.interest_rate", req.InterestRate),
		attribute.Int("loan.tenure_months", req.LoanTenure),
	)

	serviceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := h.emiService.Calculate(serviceCtx, req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidLoanAmount):
			return h.recordError(
				ctx, span, c, start, err,
				fiber.StatusBadRequest, "invalid_amount", "Loan amount must be greater than 0",
				zap.Float64("loan_amount", req.LoanAmount))
		case errors.Is(err, common.ErrInvalidInterestRate):
			return h.recordError(
				ctx, span, c, start, err,
				fiber.StatusBadRequest, "invalid_rate", "Interest rate must be between 0 and 100",
				zap.Float64("interest_rate", req.InterestRate))
		case errors.Is(err, common.ErrInvalidTenure):
			return h.recordError(
				ctx, span, c, start, err,
				fiber.StatusBadRequest, "invalid_tenure", "Loan tenure must be greater than 0",
				zap.Int("tenure_months", req.LoanTenure))
		default:
			return h.recordError(
				ctx, span, c, start, err,
				fiber.StatusInternalServerError, "service_error", "Server error", zap.Error(err))
		}
	}

	span.SetAttributes(
		attribute.Float64("quote.monthly_emi", res.MonthlyEMI),
	)

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, res,
		zap.Float64("monthly_emi", res.MonthlyEMI),
		zap.Int("tenure_months", res.Tenure),
	)
}
