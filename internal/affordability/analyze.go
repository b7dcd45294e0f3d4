package affordability

import (
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/annuity"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/mathutil"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"go.uber.org/zap"
)

// Report is the engine's output for one snapshot. ShortfallOrSurplus is
// positive when money is missing and negative when funds are left over.
type Report struct {
	RecommendedCapacity    float64 `json:"recommendedCapacity"`
	MonthlyPayment         float64 `json:"monthlyPayment"`
	TotalAvailableFunds    float64 `json:"totalAvailableFunds"`
	ShortfallOrSurplus     float64 `json:"shortfallOrSurplus"`
	TotalBuyingPower       float64 `json:"totalBuyingPower"`
	HasEnoughBuyingPower   bool    `json:"hasEnoughBuyingPower"`
	MonthlyAllowance       float64 `json:"monthlyAllowance"`
	AdditionalIncomeNeeded float64 `json:"additionalIncomeNeeded"`
	Details                Details `json:"details"`
}

// Capacities holds the three independent borrowing limits.
type Capacities struct {
	ResidualIncome float64 `json:"residualIncome"`
	Assets         float64 `json:"assets"`
	Price          float64 `json:"price"`
}

// Details are the intermediate figures behind a Report.
type Details struct {
	HouseholdIncome         float64     `json:"householdIncome"`
	Member1AverageIncome    float64     `json:"member1AverageIncome"`
	Member2AverageIncome    float64     `json:"member2AverageIncome"`
	LongTermDebtService     float64     `json:"longTermDebtService"`
	TotalDebtService        float64     `json:"totalDebtService"`
	ReturnPowerFraction     float64     `json:"returnPowerFraction"`
	NetAssets               float64     `json:"netAssets"`
	AssetTax                float64     `json:"assetTax"`
	EligibleBuyingPower     float64     `json:"eligibleBuyingPower"`
	Capacities              Capacities  `json:"capacities"`
	PurchaseTax             float64     `json:"purchaseTax"`
	PurchaseTaxSlices       []tax.Slice `json:"purchaseTaxSlices,omitempty"`
	ItemizedExpenses        float64     `json:"itemizedExpenses"`
	LegalFee                Fee         `json:"legalFee"`
	BrokerFee               Fee         `json:"brokerFee"`
	TotalExpenses           float64     `json:"totalExpenses"`
	GapMonthlyPayment       float64     `json:"gapMonthlyPayment"`
	AdditionalMonthlyNeeded float64     `json:"additionalMonthlyNeeded"`
	TotalRepayment          float64     `json:"totalRepayment"`
	TotalInterest           float64     `json:"totalInterest"`
	FirstPaymentInterest    float64     `json:"firstPaymentInterest"`
}

// Analyze runs the full pipeline over the snapshot. The logger only receives
// debug output; a nil logger is allowed. Identical inputs always produce
// identical reports.
func Analyze(logger *zap.Logger, state household.State, prefs household.Preferences) Report {
	if logger == nil {
		logger = zap.NewNop()
	}

	var d Details
	terms := state.Terms()

	// Income and debt service.
	d.Member1AverageIncome = AverageIncome(state.Member1Income)
	d.Member2AverageIncome = AverageIncome(state.Member2Income)
	d.HouseholdIncome = d.Member1AverageIncome + d.Member2AverageIncome
	d.LongTermDebtService = LongTermDebtService(state.Debts)
	d.TotalDebtService = TotalDebtService(state.Debts)
	d.EligibleBuyingPower = EligibleBuyingPower(state.Debts)
	d.ReturnPowerFraction = prefs.ReturnPower.Fraction()

	// Borrowing capacity.
	allowance := MonthlyAllowance(d.HouseholdIncome, d.LongTermDebtService, d.ReturnPowerFraction)
	d.NetAssets = NetAssets(state.Assets)
	for _, asset := range state.Assets {
		d.AssetTax += AssetTax(asset)
	}
	d.Capacities = Capacities{
		ResidualIncome: CapacityFromResidualIncome(allowance, terms),
		Assets:         CapacityFromAssets(d.NetAssets, d.EligibleBuyingPower),
		Price:          CapacityFromPrice(state.PurchasePrice, state.PurchaseTaxPolicy),
	}
	recommended := Recommend(d.Capacities.ResidualIncome, d.Capacities.Assets, d.Capacities.Price)

	logger.Debug("computed borrowing capacities",
		zap.String("op", "affordability.Analyze"),
		zap.Float64("residual_income", d.Capacities.ResidualIncome),
		zap.Float64("assets", d.Capacities.Assets),
		zap.Float64("price", d.Capacities.Price),
		zap.Float64("recommended", recommended),
	)

	// Purchase costs.
	d.PurchaseTaxSlices = tax.Breakdown(state.PurchasePrice, state.PurchaseTaxPolicy.Brackets)
	d.PurchaseTax = tax.Calculate(state.PurchasePrice, state.PurchaseTaxPolicy.Brackets)
	d.ItemizedExpenses = ItemizedExpenses(state.Expenses)
	d.LegalFee = ProfessionalFee(state.PurchasePrice, prefs.Fees.Legal)
	d.BrokerFee = ProfessionalFee(state.PurchasePrice, prefs.Fees.Broker)
	d.TotalExpenses = mathutil.Sum(d.ItemizedExpenses, d.LegalFee.Total, d.BrokerFee.Total)

	// Funding gap.
	availableFunds := d.NetAssets + d.EligibleBuyingPower - d.TotalExpenses - d.PurchaseTax
	buyingPower := recommended + availableFunds
	enough := buyingPower >= state.PurchasePrice
	payment := MonthlyPayment(recommended, terms)
	if !enough {
		d.GapMonthlyPayment = MonthlyPayment(state.PurchasePrice-buyingPower, terms)
	}
	d.AdditionalMonthlyNeeded = mathutil.Max(0, payment+d.GapMonthlyPayment-allowance)
	if payment > 0 {
		d.TotalRepayment, d.TotalInterest = annuity.TotalCost(recommended, terms)
		d.FirstPaymentInterest = annuity.CalculateInterestPayment(recommended, state.AnnualRate)
	}

	report := Report{
		RecommendedCapacity:    recommended,
		MonthlyPayment:         payment,
		TotalAvailableFunds:    availableFunds,
		ShortfallOrSurplus:     state.PurchasePrice - recommended - availableFunds,
		TotalBuyingPower:       buyingPower,
		HasEnoughBuyingPower:   enough,
		MonthlyAllowance:       allowance,
		AdditionalIncomeNeeded: d.AdditionalMonthlyNeeded * constants.AdditionalIncomeMonths,
		Details:                d,
	}

	logger.Debug("computed funding gap",
		zap.String("op", "affordability.Analyze"),
		zap.Float64("available_funds", availableFunds),
		zap.Float64("buying_power", buyingPower),
		zap.Bool("enough", enough),
		zap.Float64("shortfall_or_surplus", report.ShortfallOrSurplus),
	)

	return report
}
