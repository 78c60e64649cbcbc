package domain

type LoanType string

const (
	LoanHome        LoanType = "Home"
	LoanCar         LoanType = "Car"
	LoanBusiness    LoanType = "Business"
	LoanEducation   LoanType = "Education"
	LoanAgriculture LoanType = "Agriculture"
	LoanDairy       LoanType = "Dairy"
)

// LoanTypes is the fixed set of products offered on the application form,
// in display order. Process-wide constant, never mutated.
var LoanTypes = []LoanType{
	LoanHome,
	LoanCar,
	LoanBusiness,
	LoanEducation,
	LoanAgriculture,
	LoanDairy,
}

// ScheduleMonths caps how many amortization rows a quote carries. Totals
// still reflect the full tenure.
const ScheduleMonths = 12

type LoanApplication struct {
	CNIC       string
	LoanType   LoanType
	Age        int
	StudentAge int
	LandAcres  float64
}

type ScheduleRow struct {
	Month     int
	EMI       float64
	Principal float64
	Interest  float64
	Balance   float64
}

type EmiQuote struct {
	MonthlyEMI    float64
	TotalInterest float64
	TotalPayable  float64
	Tenure        int
	Schedule      []ScheduleRow
}
