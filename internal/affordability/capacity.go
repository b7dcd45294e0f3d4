package affordability

import (
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/annuity"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/mathutil"
)

// MonthlyAllowance is the payment the household can sustain: the given
// fraction of income left after long-term debt service. It may be negative
// when debts exceed income.
func MonthlyAllowance(income, debtService, fraction float64) float64 {
	return (income - debtService) * fraction
}

// CapacityFromResidualIncome is the principal the monthly allowance can
// service over the mortgage term (annuity present value). Returns 0 for a
// non-positive allowance, term or rate.
func CapacityFromResidualIncome(allowance float64, terms annuity.Terms) float64 {
	return annuity.PresentValue(allowance, terms)
}

// AssetTax is the tax owed on an asset's gain when it is liquidated. Closed
// and non-taxable assets owe nothing; principal is never taxed.
func AssetTax(asset household.LiquidAsset) float64 {
	if !asset.Open() || !asset.Taxable {
		return 0
	}
	return mathutil.ApplyPercentage(asset.TotalGain, asset.TaxRate)
}

// NetAssets is the open assets' value net of the tax on their gains.
func NetAssets(assets []household.LiquidAsset) float64 {
	total := 0.0
	taxes := 0.0
	for _, asset := range assets {
		if !asset.Open() {
			continue
		}
		total += asset.TotalAmount
		taxes += AssetTax(asset)
	}
	return total - taxes
}

// CapacityFromAssets leverages liquid funds by AssetLeverageMultiplier.
func CapacityFromAssets(netAssets, eligibleBuyingPower float64) float64 {
	return (netAssets + eligibleBuyingPower) * constants.AssetLeverageMultiplier
}

// CapacityFromPrice caps the mortgage at a share of the purchase price.
func CapacityFromPrice(price float64, policy household.PurchaseTaxPolicy) float64 {
	if price <= 0 {
		return 0
	}
	return mathutil.ApplyPercentage(price, policy.FinancingPercent())
}

// Recommend applies the weakest-constraint policy: the smallest positive
// capacity wins. Non-positive capacities are excluded rather than selected,
// and the result is 0 when none is positive.
func Recommend(capacities ...float64) float64 {
	return mathutil.MinPositive(capacities...)
}

// MonthlyPayment is the amortizing payment for a principal over the terms.
func MonthlyPayment(principal float64, terms annuity.Terms) float64 {
	return annuity.MonthlyPayment(principal, terms)
}
