package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loanflow-dev/loanflow/internal/dto"
	loanhandler "github.com/loanflow-dev/loanflow/internal/handler/loan"
	pageshandler "github.com/loanflow-dev/loanflow/internal/handler/pages"
	eligibilitysrv "github.com/loanflow-dev/loanflow/internal/service/eligibility"
	emisrv "github.com/loanflow-dev/loanflow/internal/service/emi"
	"github.com/loanflow-dev/loanflow/router"

	"github.com/gofiber/fiber/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	noop_metric "go.opentelemetry.io/otel/metric/noop"
	noop_trace "go.opentelemetry.io/otel/trace/noop"

	"go.uber.org/zap"
)

type LoanHandlerTestSuite struct {
	suite.Suite
	app     *fiber.App
	handler *loanhandler.LoanHandler
	pages   *pageshandler.PagesHandler
}

func (suite *LoanHandlerTestSuite) SetupTest() {
	log := zap.NewNop()
	tracer := noop_trace.NewTracerProvider().Tracer("test-loan-handler-tracer")
	meter := noop_metric.NewMeterProvider().Meter("test-loan-handler-meter")

	// The services are pure computation, so handler tests run against the
	// real implementations rather than mocks.
	eligibilityService := eligibilitysrv.NewEligibilityService(meter, tracer, log)
	emiService := emisrv.NewEmiService(meter, tracer, log)

	suite.handler = loanhandler.NewLoanHandler(eligibilityService, emiService, meter, tracer, log)
	suite.pages = pageshandler.NewPagesHandler(log)

	suite.app = suite.setupApp(log)
}

func (suite *LoanHandlerTestSuite) setupApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: router.ErrorCustomHandler(log),
	})

	app.Get("/", suite.pages.Index)

	api := app.Group("/api")
	api.Post("/validate", suite.handler.Validate)
	api.Post("/calculate", suite.handler.Calculate)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})

	return app
}

func (suite *LoanHandlerTestSuite) postJSON(url string, body any) *http.Response {
	jsonBody, err := json.Marshal(body)
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)
	return resp
}

func decodeBody[T any](suite *LoanHandlerTestSuite, resp *http.Response) T {
	var out T
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (suite *LoanHandlerTestSuite) TestValidateEndpoint() {
	suite.Run("Valid application", func() {
		resp := suite.postJSON("/api/validate", map[string]any{
			"cnic": "12345-1234567-1", "loanType": "Car", "age": 35,
		})
		defer resp.Body.Close()

		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		body := decodeBody[dto.ValidationResponse](suite, resp)
		assert.True(suite.T(), body.IsValid)
		assert.NotNil(suite.T(), body.Errors)
		assert.Empty(suite.T(), body.Errors)
	})

	suite.Run("Rule violations reported", func() {
		resp := suite.postJSON("/api/validate", map[string]any{
			"cnic": "1234-123456-1", "loanType": "Agriculture", "landAcres": 13,
		})
		defer resp.Body.Close()

		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		body := decodeBody[dto.ValidationResponse](suite, resp)
		assert.False(suite.T(), body.IsValid)
		assert.Len(suite.T(), body.Errors, 2)
	})

	suite.Run("Missing loanType defaults to Home", func() {
		resp := suite.postJSON("/api/validate", map[string]any{
			"cnic": "12345-1234567-1", "age": 30,
		})
		defer resp.Body.Close()

		body := decodeBody[dto.ValidationResponse](suite, resp)
		assert.True(suite.T(), body.IsValid)
	})

	suite.Run("Malformed body is a 400 in the validation shape", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := suite.app.Test(req)
		suite.Require().NoError(err)
		defer resp.Body.Close()

		assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[dto.ValidationResponse](suite, resp)
		assert.False(suite.T(), body.IsValid)
		assert.NotEmpty(suite.T(), body.Errors)
	})
}

func (suite *LoanHandlerTestSuite) TestCalculateEndpoint() {
	suite.Run("Reference loan", func() {
		resp := suite.postJSON("/api/calculate", map[string]any{
			"loanAmount": 100000, "interestRate": 10, "loanTenure": 12,
		})
		defer resp.Body.Close()

		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		body := decodeBody[dto.EmiResponse](suite, resp)
		assert.InDelta(suite.T(), 8791.59, body.MonthlyEMI, 0.01)
		assert.InDelta(suite.T(), 105499.08, body.TotalPayable, 0.01)
		assert.InDelta(suite.T(), 5499.08, body.TotalInterest, 0.01)
		assert.Len(suite.T(), body.Schedule, 12)
	})

	suite.Run("Out-of-range terms", func() {
		cases := []struct {
			name    string
			body    map[string]any
			message string
		}{
			{"Zero amount", map[string]any{"loanAmount": 0, "interestRate": 10, "loanTenure": 12}, "Loan amount must be greater than 0"},
			{"Rate above 100", map[string]any{"loanAmount": 1000, "interestRate": 150, "loanTenure": 12}, "Interest rate must be between 0 and 100"},
			{"Zero tenure", map[string]any{"loanAmount": 1000, "interestRate": 10, "loanTenure": 0}, "Loan tenure must be greater than 0"},
		}

		for _, tc := range cases {
			resp := suite.postJSON("/api/calculate", tc.body)

			assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode, tc.name)
			body := decodeBody[map[string]string](suite, resp)
			assert.Equal(suite.T(), tc.message, body["error"], tc.name)
			resp.Body.Close()
		}
	})

	suite.Run("Malformed body is a 400 with an error message", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{"loanAmount": "lots"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := suite.app.Test(req)
		suite.Require().NoError(err)
		defer resp.Body.Close()

		assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[map[string]string](suite, resp)
		assert.NotEmpty(suite.T(), body["error"])
	})
}

func (suite *LoanHandlerTestSuite) TestIndexPage() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	for _, loanType := range []string{"Home", "Car", "Business", "Education", "Agriculture", "Dairy"} {
		assert.Contains(suite.T(), string(page), ">"+loanType+"<")
	}
}

func (suite *LoanHandlerTestSuite) TestNotFoundFallback() {
	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	resp, err := suite.app.Test(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	body := decodeBody[map[string]string](suite, resp)
	assert.Equal(suite.T(), "Not found", body["error"])
}

func TestLoanHandlerSuite(t *testing.T) {
	suite.Run(t, new(LoanHandlerTestSuite))
}
