// Package constants provides shared constants for the mortgage-planner application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
	// CurrencyTolerance is the tolerance for currency comparisons (1 agora/cent)
	CurrencyTolerance = 0.01
)

// Affordability policy constants. These are domain conventions carried over
// unchanged; they are not derived from anything else.
const (
	// LongTermDebtMinMonths is the inclusive term threshold above which a debt
	// payment counts toward long-term debt service.
	LongTermDebtMinMonths = 18
	// AssetLeverageMultiplier converts net liquid assets plus eligible debt
	// proceeds into a borrowing capacity.
	AssetLeverageMultiplier = 4.0
	// FirstHomeFinancingPercent caps the mortgage as a share of a first home's price.
	FirstHomeFinancingPercent = 75.0
	// AdditionalHomeFinancingPercent caps the mortgage for any additional home.
	AdditionalHomeFinancingPercent = 50.0
	// ProfessionalFeeSurchargePercent is the statutory surcharge on legal and broker fees.
	ProfessionalFeeSurchargePercent = 18.0
	// AdditionalIncomeMonths expresses a monthly shortfall as a lump extra-income figure.
	AdditionalIncomeMonths = 3.0
	// BracketSentinelCeiling marks the final "and above" purchase-tax bracket.
	BracketSentinelCeiling = 999_999_999.0
	// MaxTaxBrackets is the largest bracket table the editor accepts.
	MaxTaxBrackets = 6
	// NextBracketStep is the ceiling increment suggested for a newly added bracket.
	NextBracketStep = 100_000.0
)

// Preference defaults
const (
	// DefaultAssetTaxRate applies to persisted assets recorded before tax fields existed.
	DefaultAssetTaxRate = 25.0
	// DefaultLegalFeeRate is the lawyer fee as a percentage of the purchase price.
	DefaultLegalFeeRate = 0.5
	// DefaultBrokerFeeRate is the broker fee as a percentage of the purchase price.
	DefaultBrokerFeeRate = 2.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"
	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default household configuration file name
	DefaultConfigFile = "household.yaml"
	// ExampleConfigFile is the example household configuration file name
	ExampleConfigFile = "household.yaml.example"
	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
	// AppName is used for the per-user config directory
	AppName = "mortgage-planner"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"
	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML households (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Store keys. These match the keys the browser version of the planner wrote,
// so exported data can be imported unchanged.
const (
	StateKey            = "mortgage-planning-data"
	LegalFeeRateKey     = "lawyer-percentage"
	BrokerFeeRateKey    = "broker-percentage"
	ReturnPowerKey      = "return-power-percentage"
	DefaultRedisPrefix  = "mortgage-planner:"
	DefaultSQLiteFile   = "state.db"
	StoreBackendMemory  = "memory"
	StoreBackendSQLite  = "sqlite"
	StoreBackendRedis   = "redis"
	DefaultStoreBackend = StoreBackendSQLite
)
