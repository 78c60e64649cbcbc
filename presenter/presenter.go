package presenter

import (
	loanhandler "github.com/loanflow-dev/loanflow/internal/handler/loan"
	pageshandler "github.com/loanflow-dev/loanflow/internal/handler/pages"
	eligibilitysrv "github.com/loanflow-dev/loanflow/internal/service/eligibility"
	emisrv "github.com/loanflow-dev/loanflow/internal/service/emi"

	"github.com/loanflow-dev/loanflow/pkg/telemetry"
)

type Presenter struct {
	LoanPresenter  *loanhandler.LoanHandler
	PagesPresenter *pageshandler.PagesHandler
}

func NewPresenter(tel *telemetry.OpenTelemetry) Presenter {
	// Service
	eligibilityServiceMeter := tel.MeterProvider.Meter("eligibility-service-meter")
	eligibilityServiceTracer := tel.TracerProvider.Tracer("eligibility-service-trace")
	eligibilityService := eligibilitysrv.NewEligibilityService(
		eligibilityServiceMeter,
		eligibilityServiceTracer,
		tel.Log,
	)

	emiServiceMeter := tel.MeterProvider.Meter("emi-service-meter")
	emiServiceTracer := tel.TracerProvider.Tracer("emi-service-trace")
	emiService := emisrv.NewEmiService(
		emiServiceMeter,
		emiServiceTracer,
		tel.Log,
	)

	// Handler
	loanHandlerMeter := tel.MeterProvider.Meter("loan-handler-meter")
	loanHandlerTracer := tel.TracerProvider.Tracer("loan-handler-trace")
	loanHandler := loanhandler.NewLoanHandler(
		eligibilityService,
		emiService,
		loanHandlerMeter,
		loanHandlerTracer,
		tel.Log,
	)

	pagesHandler := pageshandler.NewPagesHandler(tel.Log)

	return Presenter{
		LoanPresenter:  loanHandler,
		PagesPresenter: pagesHandler,
	}
}
