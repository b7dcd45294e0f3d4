// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
)

// IncomeSamples builds one member's income history from raw amounts.
func IncomeSamples(amounts ...float64) []household.IncomeSample {
	samples := make([]household.IncomeSample, 0, len(amounts))
	for _, amount := range amounts {
		samples = append(samples, household.IncomeSample{Amount: amount})
	}
	return samples
}

// SampleState returns the household described by test/test_household.yaml:
// a first home of 2,000,000 over 25 years at 5%, with one taxable, one
// exempt and one closed asset, a long-term and a credit-eligible debt.
func SampleState() household.State {
	return household.State{
		PurchasePrice: 2_000_000,
		TermYears:     25,
		AnnualRate:    5,
		Member1Income: IncomeSamples(12000, 11000, 0),
		Member2Income: IncomeSamples(8000, 9000),
		Assets: []household.LiquidAsset{
			{Name: "Index fund", TotalAmount: 500000, TotalGain: 100000, Status: household.AssetOpen, Taxable: true, TaxRate: 25},
			{Name: "Pension savings", TotalAmount: 200000, TotalGain: 30000, Status: household.AssetOpen, Taxable: false, TaxRate: 25},
			{Name: "Locked deposit", TotalAmount: 90000, Status: household.AssetClosed, Taxable: true, TaxRate: 25},
		},
		Debts: []household.DebtObligation{
			{Name: "Car loan", Principal: 60000, TermMonths: 48, PeriodicPayment: 1400},
			{Name: "Family loan", Principal: 300000, TermMonths: 12, CreditEligible: true},
		},
		Expenses: []household.OneTimeExpense{
			{Name: "Moving", Amount: 8000},
			{Name: "Renovation", Amount: 50000},
		},
		PurchaseTaxPolicy: household.PurchaseTaxPolicy{
			IsFirstHome: true,
			Brackets:    tax.FirstHomeBrackets(),
		},
	}
}

// FindAsset finds an asset by name in the state.
// Returns a pointer to the asset if found, nil otherwise.
func FindAsset(state *household.State, name string) *household.LiquidAsset {
	for i := range state.Assets {
		if state.Assets[i].Name == name {
			return &state.Assets[i]
		}
	}
	return nil
}

// FindDebt finds a debt by name in the state.
// Returns a pointer to the debt if found, nil otherwise.
func FindDebt(state *household.State, name string) *household.DebtObligation {
	for i := range state.Debts {
		if state.Debts[i].Name == name {
			return &state.Debts[i]
		}
	}
	return nil
}
