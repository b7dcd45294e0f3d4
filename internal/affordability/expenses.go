package affordability

import (
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/mathutil"
)

// Fee is a professional fee charged as a percentage of the price, plus the
// fixed surcharge on that fee.
type Fee struct {
	Rate      float64 `json:"rate"`
	Base      float64 `json:"base"`
	Surcharge float64 `json:"surcharge"`
	Total     float64 `json:"total"`
}

// ProfessionalFee prices a fee at rate percent of the purchase price.
func ProfessionalFee(price, rate float64) Fee {
	base := mathutil.ApplyPercentage(price, rate)
	surcharge := mathutil.ApplyPercentage(base, constants.ProfessionalFeeSurchargePercent)
	return Fee{
		Rate:      rate,
		Base:      base,
		Surcharge: surcharge,
		Total:     base + surcharge,
	}
}

// ItemizedExpenses sums the flat one-time costs.
func ItemizedExpenses(items []household.OneTimeExpense) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// TotalExpenses is the itemized total plus the legal and broker fees.
func TotalExpenses(items []household.OneTimeExpense, price float64, rates household.FeeRates) float64 {
	return mathutil.Sum(
		ItemizedExpenses(items),
		ProfessionalFee(price, rates.Legal).Total,
		ProfessionalFee(price, rates.Broker).Total,
	)
}
