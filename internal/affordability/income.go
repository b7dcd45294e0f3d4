// Package affordability is the financial computation engine. It turns one
// household snapshot and its preferences into the borrowing capacity, the
// resulting payment and the funding gap of the purchase. Every function is
// pure; the engine keeps no state between calls.
package affordability

import (
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// AverageIncome averages the positive samples of one household member.
// Returns 0 when no positive sample exists.
func AverageIncome(samples []household.IncomeSample) float64 {
	sum := 0.0
	count := 0
	for _, sample := range samples {
		if sample.Amount <= 0 {
			continue
		}
		sum += sample.Amount
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// HouseholdIncome is the sum of both members' independent averages.
func HouseholdIncome(state household.State) float64 {
	return AverageIncome(state.Member1Income) + AverageIncome(state.Member2Income)
}

// LongTermDebtService sums the payments of debts whose term is at least
// LongTermDebtMinMonths, regardless of credit eligibility.
func LongTermDebtService(debts []household.DebtObligation) float64 {
	total := 0.0
	for _, debt := range debts {
		if debt.TermMonths >= constants.LongTermDebtMinMonths {
			total += debt.PeriodicPayment
		}
	}
	return total
}

// TotalDebtService sums every debt payment, short-term ones included.
func TotalDebtService(debts []household.DebtObligation) float64 {
	total := 0.0
	for _, debt := range debts {
		total += debt.PeriodicPayment
	}
	return total
}

// EligibleBuyingPower sums the principal of credit-eligible debts.
func EligibleBuyingPower(debts []household.DebtObligation) float64 {
	total := 0.0
	for _, debt := range debts {
		if debt.CreditEligible {
			total += debt.Principal
		}
	}
	return total
}
