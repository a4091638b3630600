// Package constants provides shared constants for the offer-oven application.
package constants

// DateTimeLayout is the month format used for closing and balloon dates.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Strategy constants
const (
	// CashOfferARVRatio is the share of ARV used by the 70% rule.
	CashOfferARVRatio = 0.70

	// NovationSellingCostRate is the blended commission plus closing assumption (6% + 2%).
	NovationSellingCostRate = 0.08

	// NovationAgentCommissionRate is the listing commission portion of the selling costs.
	NovationAgentCommissionRate = 0.06

	// SubToHoldYears is the hold period used for the SubTo profit projection.
	SubToHoldYears = 7

	// SellerFinanceHoldYears is the hold period used for the seller-finance profit projection.
	SellerFinanceHoldYears = 10
)

// Operating expense defaults
const (
	DefaultVacancyRate     = 0.05
	DefaultMaintenanceRate = 0.10
	DefaultManagementRate  = 0.10

	// DefaultPropertyTaxRate is the annual tax estimate as a share of price (1.2%).
	DefaultPropertyTaxRate = 0.012

	// DefaultAnnualInsurance is the annual insurance estimate ($100/month).
	DefaultAnnualInsurance = 1200.0
)

// Tax and insurance estimate policies
const (
	// EstimateNone treats absent tax and insurance as zero.
	EstimateNone = "none"

	// EstimatePrice fills absent tax and insurance from price-based estimates.
	EstimatePrice = "price"
)

// Rehab cost per square foot by level
const (
	RehabLight  = "light"
	RehabMedium = "medium"
	RehabHeavy  = "heavy"

	RehabLightPerSqft  = 25.0
	RehabMediumPerSqft = 45.0
	RehabHeavyPerSqft  = 70.0
)

// Scoring thresholds
const (
	CashFlowGood    = 500.0
	CashFlowCaution = 200.0

	EntryFeePercentGood    = 10.0
	EntryFeePercentCaution = 20.0

	CashOnCashGood    = 15.0
	CashOnCashCaution = 8.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default deal book file name
	DefaultConfigFile = "deals.yaml"

	// ExampleConfigFile is the example deal book file name
	ExampleConfigFile = "deals.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
	WebhookSignatureHeader = "whop-signature"

	// WebhookSecretEnv names the environment variable holding the webhook secret.
	WebhookSecretEnv = "WHOP_WEBHOOK_SECRET"
)
