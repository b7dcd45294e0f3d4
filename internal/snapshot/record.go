// Package snapshot owns the persisted household record and the single
// normalization step that turns a stored record into a household.State.
// Older records lack some optional fields; their defaults are applied here
// and nowhere else.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
)

// Record is the stored form of a household snapshot.
type Record struct {
	HomePrice             float64          `json:"homePrice" yaml:"homePrice"`
	MortgageDurationYears int              `json:"mortgageDurationYears" yaml:"mortgageDurationYears"`
	AverageYearlyRate     float64          `json:"averageYearlyRate" yaml:"averageYearlyRate"`
	Spouse1Salaries       []SalaryRecord   `json:"spouse1Salaries" yaml:"spouse1Salaries"`
	Spouse2Salaries       []SalaryRecord   `json:"spouse2Salaries" yaml:"spouse2Salaries"`
	Savings               []SavingRecord   `json:"savings" yaml:"savings"`
	Loans                 []LoanRecord     `json:"loans" yaml:"loans"`
	Expenses              []ExpenseRecord  `json:"expenses" yaml:"expenses"`
	BuyingTaxConfig       *TaxConfigRecord `json:"buyingTaxConfig,omitempty" yaml:"buyingTaxConfig,omitempty"`
}

type SalaryRecord struct {
	Amount float64 `json:"amount" yaml:"amount"`
}

// SavingRecord is a stored asset. Taxable and TaxPercentage are absent in
// records written before asset taxation existed.
type SavingRecord struct {
	Name          string   `json:"name" yaml:"name"`
	TotalAmount   float64  `json:"totalAmount" yaml:"totalAmount"`
	TotalRevenue  float64  `json:"totalRevenue" yaml:"totalRevenue"`
	State         string   `json:"state" yaml:"state"`
	Taxable       *bool    `json:"taxable,omitempty" yaml:"taxable,omitempty"`
	TaxPercentage *float64 `json:"taxPercentage,omitempty" yaml:"taxPercentage,omitempty"`
}

// LoanRecord is a stored debt. AvailableAsBuyingPower is absent in older
// records.
type LoanRecord struct {
	Name                   string  `json:"name" yaml:"name"`
	LoanAmount             float64 `json:"loanAmount" yaml:"loanAmount"`
	DurationMonths         int     `json:"durationMonths" yaml:"durationMonths"`
	MonthlyPayment         float64 `json:"monthlyPayment" yaml:"monthlyPayment"`
	AvailableAsBuyingPower *bool   `json:"availableAsBuyingPower,omitempty" yaml:"availableAsBuyingPower,omitempty"`
}

type ExpenseRecord struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type TaxConfigRecord struct {
	IsFirstHome bool          `json:"isFirstHome" yaml:"isFirstHome"`
	TaxLevels   []tax.Bracket `json:"taxLevels" yaml:"taxLevels"`
}

// Migration counts the defaults applied while normalizing a record.
type Migration struct {
	AssetTaxable       int
	AssetTaxRate       int
	DebtCreditEligible int
	TaxPolicy          bool
}

// Changed reports whether any default was applied.
func (m Migration) Changed() bool {
	return m.AssetTaxable > 0 || m.AssetTaxRate > 0 || m.DebtCreditEligible > 0 || m.TaxPolicy
}

// Decode parses a stored record.
func Decode(data []byte) (Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode household record: %w", err)
	}
	return record, nil
}

// Encode serializes the state in the stored record format. Every optional
// field is written, so an encoded record never needs migration.
func Encode(state household.State) ([]byte, error) {
	data, err := json.Marshal(FromState(state))
	if err != nil {
		return nil, fmt.Errorf("failed to encode household record: %w", err)
	}
	return data, nil
}

// FromState converts a state into its stored form.
func FromState(state household.State) Record {
	record := Record{
		HomePrice:             state.PurchasePrice,
		MortgageDurationYears: state.TermYears,
		AverageYearlyRate:     state.AnnualRate,
		Spouse1Salaries:       salaryRecords(state.Member1Income),
		Spouse2Salaries:       salaryRecords(state.Member2Income),
		Savings:               make([]SavingRecord, 0, len(state.Assets)),
		Loans:                 make([]LoanRecord, 0, len(state.Debts)),
		Expenses:              make([]ExpenseRecord, 0, len(state.Expenses)),
		BuyingTaxConfig: &TaxConfigRecord{
			IsFirstHome: state.PurchaseTaxPolicy.IsFirstHome,
			TaxLevels:   append([]tax.Bracket{}, state.PurchaseTaxPolicy.Brackets...),
		},
	}
	for _, a := range state.Assets {
		taxable := a.Taxable
		rate := a.TaxRate
		record.Savings = append(record.Savings, SavingRecord{
			Name:          a.Name,
			TotalAmount:   a.TotalAmount,
			TotalRevenue:  a.TotalGain,
			State:         string(a.Status),
			Taxable:       &taxable,
			TaxPercentage: &rate,
		})
	}
	for _, d := range state.Debts {
		eligible := d.CreditEligible
		record.Loans = append(record.Loans, LoanRecord{
			Name:                   d.Name,
			LoanAmount:             d.Principal,
			DurationMonths:         d.TermMonths,
			MonthlyPayment:         d.PeriodicPayment,
			AvailableAsBuyingPower: &eligible,
		})
	}
	for _, e := range state.Expenses {
		record.Expenses = append(record.Expenses, ExpenseRecord{Name: e.Name, Amount: e.Amount})
	}
	return record
}

func salaryRecords(samples []household.IncomeSample) []SalaryRecord {
	out := make([]SalaryRecord, 0, len(samples))
	for _, s := range samples {
		out = append(out, SalaryRecord{Amount: s.Amount})
	}
	return out
}

// Normalize converts a stored record into the engine's state, applying the
// defaults for fields older records lack: assets become taxable at the
// default rate, debts become ineligible for buying power and a missing tax
// configuration becomes the canonical first-home schedule. Asset states
// other than "open" are treated as closed.
func Normalize(record Record) (household.State, Migration) {
	var m Migration

	state := household.State{
		PurchasePrice: record.HomePrice,
		TermYears:     record.MortgageDurationYears,
		AnnualRate:    record.AverageYearlyRate,
		Member1Income: incomeSamples(record.Spouse1Salaries),
		Member2Income: incomeSamples(record.Spouse2Salaries),
	}

	for _, s := range record.Savings {
		asset := household.LiquidAsset{
			Name:        s.Name,
			TotalAmount: s.TotalAmount,
			TotalGain:   s.TotalRevenue,
			Status:      household.AssetClosed,
			Taxable:     true,
			TaxRate:     constants.DefaultAssetTaxRate,
		}
		if s.State == string(household.AssetOpen) {
			asset.Status = household.AssetOpen
		}
		if s.Taxable != nil {
			asset.Taxable = *s.Taxable
		} else {
			m.AssetTaxable++
		}
		if s.TaxPercentage != nil {
			asset.TaxRate = *s.TaxPercentage
		} else {
			m.AssetTaxRate++
		}
		state.Assets = append(state.Assets, asset)
	}

	for _, l := range record.Loans {
		debt := household.DebtObligation{
			Name:            l.Name,
			Principal:       l.LoanAmount,
			TermMonths:      l.DurationMonths,
			PeriodicPayment: l.MonthlyPayment,
		}
		if l.AvailableAsBuyingPower != nil {
			debt.CreditEligible = *l.AvailableAsBuyingPower
		} else {
			m.DebtCreditEligible++
		}
		state.Debts = append(state.Debts, debt)
	}

	for _, e := range record.Expenses {
		state.Expenses = append(state.Expenses, household.OneTimeExpense{Name: e.Name, Amount: e.Amount})
	}

	if record.BuyingTaxConfig == nil {
		m.TaxPolicy = true
		state.PurchaseTaxPolicy = household.PurchaseTaxPolicy{
			IsFirstHome: true,
			Brackets:    tax.FirstHomeBrackets(),
		}
	} else {
		state.PurchaseTaxPolicy = household.PurchaseTaxPolicy{
			IsFirstHome: record.BuyingTaxConfig.IsFirstHome,
			Brackets:    append([]tax.Bracket(nil), record.BuyingTaxConfig.TaxLevels...),
		}
	}

	return state, m
}

func incomeSamples(records []SalaryRecord) []household.IncomeSample {
	if len(records) == 0 {
		return nil
	}
	out := make([]household.IncomeSample, 0, len(records))
	for _, r := range records {
		out = append(out, household.IncomeSample{Amount: r.Amount})
	}
	return out
}
