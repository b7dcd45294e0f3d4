package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
)

// ValidateState checks a household for values the engine will accept but
// that are almost certainly input mistakes, and returns them as warnings.
// The engine resolves every one of these to a defined result.
func ValidateState(state household.State) []string {
	var warnings []string

	if state.PurchasePrice <= 0 {
		warnings = append(warnings, "purchase price is not set - price-based capacity and purchase tax are 0")
	}
	if state.TermYears <= 0 {
		warnings = append(warnings, fmt.Sprintf("mortgage term of %d years - income-based capacity is 0", state.TermYears))
	}
	if state.AnnualRate <= 0 {
		warnings = append(warnings, fmt.Sprintf("annual rate of %.2f%% - income-based capacity is 0", state.AnnualRate))
	}

	if !hasPositiveSample(state.Member1Income) && !hasPositiveSample(state.Member2Income) {
		warnings = append(warnings, "no positive income sample for either household member")
	}

	for _, asset := range state.Assets {
		if asset.Status != household.AssetOpen && asset.Status != household.AssetClosed {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' has unknown status %q - treated as closed", asset.Name, asset.Status))
		}
		if asset.TaxRate < 0 || asset.TaxRate > constants.PercentageMultiplier {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' tax rate %.2f%% is outside 0-100", asset.Name, asset.TaxRate))
		}
		if asset.TotalGain > asset.TotalAmount {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' gain exceeds its total amount (%.2f > %.2f)", asset.Name, asset.TotalGain, asset.TotalAmount))
		}
	}

	for _, debt := range state.Debts {
		if debt.Principal < 0 || debt.PeriodicPayment < 0 {
			warnings = append(warnings, fmt.Sprintf("Debt '%s' has a negative amount", debt.Name))
		}
		if debt.TermMonths < 0 {
			warnings = append(warnings, fmt.Sprintf("Debt '%s' has a negative term of %d months", debt.Name, debt.TermMonths))
		}
	}

	for _, expense := range state.Expenses {
		if expense.Amount < 0 {
			warnings = append(warnings, fmt.Sprintf("Expense '%s' is negative (%.2f)", expense.Name, expense.Amount))
		}
	}

	if err := tax.Validate(state.PurchaseTaxPolicy.Brackets); err != nil {
		warnings = append(warnings, fmt.Sprintf("purchase tax brackets: %v", err))
	}

	return warnings
}

// ValidatePreferences checks the fee rates for values outside 0-100.
func ValidatePreferences(prefs household.Preferences) error {
	if prefs.Fees.Legal < 0 || prefs.Fees.Legal > constants.PercentageMultiplier {
		return fmt.Errorf("legal fee rate %.2f%% is outside 0-100", prefs.Fees.Legal)
	}
	if prefs.Fees.Broker < 0 || prefs.Fees.Broker > constants.PercentageMultiplier {
		return fmt.Errorf("broker fee rate %.2f%% is outside 0-100", prefs.Fees.Broker)
	}
	return nil
}

func hasPositiveSample(samples []household.IncomeSample) bool {
	for _, s := range samples {
		if s.Amount > 0 {
			return true
		}
	}
	return false
}
