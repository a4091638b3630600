// Package deal computes the cash-flow and return profile of a property deal
// for each acquisition strategy. Every function is a pure computation over
// its inputs: nothing here logs, blocks, or returns an error, so a caller can
// recompute on every input change and always get a renderable result.
package deal

// Strategy identifies an acquisition strategy.
type Strategy string

const (
	StrategyCash          Strategy = "cash"
	StrategySubTo         Strategy = "subto"
	StrategySellerFinance Strategy = "seller_finance"
	StrategyNovation      Strategy = "novation"
)

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{StrategyCash, StrategySubTo, StrategySellerFinance, StrategyNovation}

// PropertyFinancials holds the property-level inputs shared by all
// strategies. Rates are ratios in [0,1]; money is in whole currency units.
type PropertyFinancials struct {
	Price             float64 `json:"price" yaml:"price" validate:"finite,gte=0"`
	AfterRepairValue  float64 `json:"afterRepairValue" yaml:"afterRepairValue" validate:"finite,gte=0"`
	EstimatedRepairs  float64 `json:"estimatedRepairs" yaml:"estimatedRepairs" validate:"finite,gte=0"`
	MarketMonthlyRent float64 `json:"marketMonthlyRent" yaml:"marketMonthlyRent" validate:"finite,gte=0"`
	AnnualPropertyTax float64 `json:"annualPropertyTax" yaml:"annualPropertyTax" validate:"finite,gte=0"`
	AnnualInsurance   float64 `json:"annualInsurance" yaml:"annualInsurance" validate:"finite,gte=0"`
	MonthlyHOA        float64 `json:"monthlyHOA" yaml:"monthlyHOA" validate:"finite,gte=0"`
	OtherMonthly      float64 `json:"otherMonthly" yaml:"otherMonthly" validate:"finite,gte=0"`
	VacancyRate       float64 `json:"vacancyRate" yaml:"vacancyRate" validate:"finite,gte=0,lte=1"`
	MaintenanceRate   float64 `json:"maintenanceRate" yaml:"maintenanceRate" validate:"finite,gte=0,lte=1"`
	ManagementRate    float64 `json:"managementRate" yaml:"managementRate" validate:"finite,gte=0,lte=1"`
}

// ExistingLoan describes the seller's mortgage taken over in a SubTo deal.
// InterestRate is an annual percentage and is carried for display only.
type ExistingLoan struct {
	CurrentBalance              float64 `json:"currentBalance" yaml:"currentBalance" validate:"finite,gte=0"`
	MonthlyPrincipalAndInterest float64 `json:"monthlyPrincipalAndInterest" yaml:"monthlyPrincipalAndInterest" validate:"finite,gte=0"`
	InterestRate                float64 `json:"interestRate" yaml:"interestRate" validate:"finite,gte=0"`
	ArrearsOwed                 float64 `json:"arrearsOwed" yaml:"arrearsOwed" validate:"finite,gte=0"`
}

// Terms is the strategy-specific part of a request. The set of
// implementations is closed; Calculate switches over all of them.
type Terms interface {
	Strategy() Strategy
	sealed()
}

// CashTerms are the terms of an all-cash acquisition.
type CashTerms struct {
	AssignmentFee   float64 `json:"assignmentFee" yaml:"assignmentFee" validate:"finite,gte=0"`
	ClosingCostRate float64 `json:"closingCostRate" yaml:"closingCostRate" validate:"finite,gte=0,lte=1"`
}

// SubToTerms are the terms of a subject-to acquisition.
type SubToTerms struct {
	CashToSeller    float64 `json:"cashToSeller" yaml:"cashToSeller" validate:"finite,gte=0"`
	AssignmentFee   float64 `json:"assignmentFee" yaml:"assignmentFee" validate:"finite,gte=0"`
	ClosingCostRate float64 `json:"closingCostRate" yaml:"closingCostRate" validate:"finite,gte=0,lte=1"`
}

// SellerFinanceTerms are the terms of a seller-carried note. InterestRate is
// an annual percentage. A non-nil TargetMonthlyCashFlow switches the
// calculation to reverse-solve mode, where the payment is derived from the
// desired cash flow instead of from rate and term.
type SellerFinanceTerms struct {
	DownPayment           float64  `json:"downPayment" yaml:"downPayment" validate:"finite,gte=0"`
	InterestRate          float64  `json:"interestRate" yaml:"interestRate" validate:"finite,gte=0"`
	AmortizationYears     int      `json:"amortizationYears" yaml:"amortizationYears" validate:"finite,gte=0"`
	BalloonYears          int      `json:"balloonYears" yaml:"balloonYears" validate:"finite,gte=0"`
	InterestOnly          bool     `json:"interestOnly" yaml:"interestOnly"`
	AssignmentFee         float64  `json:"assignmentFee" yaml:"assignmentFee" validate:"finite,gte=0"`
	ClosingCostRate       float64  `json:"closingCostRate" yaml:"closingCostRate" validate:"finite,gte=0,lte=1"`
	TargetMonthlyCashFlow *float64 `json:"targetMonthlyCashFlow,omitempty" yaml:"targetMonthlyCashFlow,omitempty" validate:"omitempty,finite"`
}

// ReverseSolve reports whether the terms ask for the payment to be derived
// from a target cash flow.
func (t SellerFinanceTerms) ReverseSolve() bool {
	return t.TargetMonthlyCashFlow != nil
}

// NovationTerms are the terms of a renovate-and-resell partnership.
type NovationTerms struct {
	InvestorProfitTarget float64 `json:"investorProfitTarget" yaml:"investorProfitTarget" validate:"finite,gte=0"`
}

func (CashTerms) Strategy() Strategy          { return StrategyCash }
func (SubToTerms) Strategy() Strategy         { return StrategySubTo }
func (SellerFinanceTerms) Strategy() Strategy { return StrategySellerFinance }
func (NovationTerms) Strategy() Strategy      { return StrategyNovation }

func (CashTerms) sealed()          {}
func (SubToTerms) sealed()         {}
func (SellerFinanceTerms) sealed() {}
func (NovationTerms) sealed()      {}

// Request pairs property inputs with one strategy's terms. Loan is only read
// by SubTo; a nil Loan there is treated as a free-and-clear property.
type Request struct {
	Financials PropertyFinancials `json:"financials"`
	Loan       *ExistingLoan      `json:"loan,omitempty"`
	Terms      Terms              `json:"-"`
}

// OfferResult is the computed profile of one deal. It is built fresh on
// every calculation and never mutated afterwards.
type OfferResult struct {
	Strategy                      Strategy `json:"strategy"`
	OfferPrice                    float64  `json:"offerPrice"`
	DownPayment                   float64  `json:"downPayment"`
	LoanAmount                    float64  `json:"loanAmount"`
	MonthlyDebtService            float64  `json:"monthlyDebtService"`
	MonthlyCashFlow               float64  `json:"monthlyCashFlow"`
	CashOnCashPercent             float64  `json:"cashOnCashPercent"`
	EntryFee                      float64  `json:"entryFee"`
	EntryFeePercent               float64  `json:"entryFeePercent"`
	ClosingCosts                  float64  `json:"closingCosts"`
	AssignmentFee                 float64  `json:"assignmentFee"`
	AgentCommission               float64  `json:"agentCommission"`
	TotalMonthlyOperatingExpenses float64  `json:"totalMonthlyOperatingExpenses"`
	ProjectedNetProfit            float64  `json:"projectedNetProfit"`
	AmortizationYears             int      `json:"amortizationYears,omitempty"`
	BalloonYears                  int      `json:"balloonYears,omitempty"`
	BalloonPayment                float64  `json:"balloonPayment,omitempty"`
	PaymentClamped                bool     `json:"paymentClamped,omitempty"`
}
