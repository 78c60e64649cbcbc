package eligibilitysrv

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/loanflow-dev/loanflow/internal/domain"
	"github.com/loanflow-dev/loanflow/internal/dto"
	"github.com/loanflow-dev/loanflow/internal/service"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// cnicPattern is the fixed national identity number format: 5 digits,
// hyphen, 7 digits, hyphen, 1 digit.
var cnicPattern = regexp.MustCompile(`^\d{5}-\d{7}-\d{1}$`)

const (
	msgInvalidCNIC     = "Invalid CNIC format. Use: XXXXX-XXXXXXX-X"
	msgStudentAgeRange = "Student age must be 18-50 years"
)

type eligibilityService struct {
	validate *validator.Validate

	meter                metric.Meter
	tracer               trace.Tracer
	log                  *zap.Logger
	operationDuration    metric.Float64Histogram
	operationCount       metric.Int64Counter
	applicationsRejected metric.Int64Counter
}

func NewEligibilityService(
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.EligibilityServices {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("cnic", func(fl validator.FieldLevel) bool {
		return cnicPattern.MatchString(fl.Field().String())
	}); err != nil {
		zap.L().Fatal("Failed to register cnic validation rule", zap.Error(err))
	}

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

	applicationsRejected, _ := meter.Int64Counter(
		"service.applications.rejected",
		metric.WithDescription("Number of loan applications that failed eligibility rules"),
		metric.WithUnit("{application}"),
	)

	return &eligibilityService{
		validate: validate,

		meter:                meter,
		tracer:               tracer,
		log:                  log,
		operationDuration:    operationDuration,
		operationCount:       operationCount,
		applicationsRejected: applicationsRejected,
	}
}

// Validate implements service.EligibilityServices.
//
// Every applicable rule is evaluated; violations accumulate in order with no
// fail-fast, so the caller always sees the full picture for the form.
func (e *eligibilityService) Validate(ctx context.Context, req dto.ValidateLoanRequest) (*dto.ValidationResponse, error) {
	_, span := e.tracer.Start(ctx, "service.ValidateApplication")
	defer span.End()

	start := time.Now()

	app := req.ToApplication()

	e.operationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "validate_application"),
			attribute.String("service", "eligibility"),
		),
	)

	span.SetAttributes(
		attribute.String("loan.type", string(app.LoanType)),
		attribute.String("service", "eligibility"),
	)

	violations := make([]string, 0, 2)

	if err := e.validate.Var(app.CNIC, "required,cnic"); err != nil {
		violations = append(violations, msgInvalidCNIC)
	}

	switch app.LoanType {
	case domain.LoanHome, domain.LoanCar:
		if app.Age < 22 || app.Age > 60 {
			violations = append(violations, fmt.Sprintf("Age must be 22-60 years for %s loans", app.LoanType))
		}
	case domain.LoanBusiness:
		if app.Age < 22 || app.Age > 70 {
			violations = append(violations, "Age must be 22-70 years for Business loans")
		}
	case domain.LoanEducation:
		if app.StudentAge < 18 || app.StudentAge > 50 {
			violations = append(violations, msgStudentAgeRange)
		}
	case domain.LoanAgriculture, domain.LoanDairy:
		if app.LandAcres <= 13 {
			violations = append(violations, fmt.Sprintf("%s loans require more than 13 acres", app.LoanType))
		}
	default:
		// Unrecognized type on the wire: no type-specific rule applies.
		// Only an absent loanType defaults to Home, handled in the DTO.
	}

	isValid := len(violations) == 0
	if !isValid {
		e.applicationsRejected.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("service", "eligibility"),
				attribute.String("loan.type", string(app.LoanType)),
			),
		)
	}

	duration := float64(time.Since(start).Milliseconds())
	e.operationDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "validate_application"),
			attribute.String("service", "eligibility"),
			attribute.String("status", "success"),
		),
	)

	span.SetAttributes(
		attribute.Bool("application.valid", isValid),
		attribute.Int("application.violations", len(violations)),
	)

	e.log.Debug("Application validated",
		zap.String("loan_type", string(app.LoanType)),
		zap.Bool("is_valid", isValid),
		zap.Int("violations", len(violations)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return &dto.ValidationResponse{IsValid: isValid, Errors: violations}, nil
}
