// Package household defines the financial snapshot of a household that the
// affordability engine consumes, together with the standalone preferences
// that tune the engine's policy.
package household

import (
	"github.com/iwvelando/mortgage-planner/pkg/annuity"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
)

// IncomeSample is one observed monthly income figure for a household member.
// Non-positive amounts are treated as missing.
type IncomeSample struct {
	Amount float64 `json:"amount" yaml:"amount"`
}

// DebtObligation is an existing loan. Its payment burdens the household when
// the term is long, and its principal adds to buying power when it is credit
// eligible.
type DebtObligation struct {
	Name            string  `json:"name" yaml:"name"`
	Principal       float64 `json:"principal" yaml:"principal"`
	TermMonths      int     `json:"termMonths" yaml:"termMonths"`
	PeriodicPayment float64 `json:"periodicPayment" yaml:"periodicPayment"`
	CreditEligible  bool    `json:"creditEligible" yaml:"creditEligible"`
}

// AssetStatus marks whether a savings instrument can be liquidated.
type AssetStatus string

const (
	AssetOpen   AssetStatus = "open"
	AssetClosed AssetStatus = "closed"
)

// LiquidAsset is a savings instrument. Tax is owed on the gain only.
type LiquidAsset struct {
	Name        string      `json:"name" yaml:"name"`
	TotalAmount float64     `json:"totalAmount" yaml:"totalAmount"`
	TotalGain   float64     `json:"totalGain" yaml:"totalGain"`
	Status      AssetStatus `json:"status" yaml:"status"`
	Taxable     bool        `json:"taxable" yaml:"taxable"`
	TaxRate     float64     `json:"taxRate" yaml:"taxRate"`
}

// Open reports whether the asset contributes to liquid buying power.
func (a LiquidAsset) Open() bool {
	return a.Status == AssetOpen
}

// OneTimeExpense is a flat cost of the purchase (moving, furnishing, fees).
type OneTimeExpense struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// PurchaseTaxPolicy selects the bracket table and the financing cap.
type PurchaseTaxPolicy struct {
	IsFirstHome bool          `json:"isFirstHome" yaml:"isFirstHome"`
	Brackets    []tax.Bracket `json:"brackets" yaml:"brackets"`
}

// FinancingPercent is the share of the price a mortgage may cover.
func (p PurchaseTaxPolicy) FinancingPercent() float64 {
	if p.IsFirstHome {
		return constants.FirstHomeFinancingPercent
	}
	return constants.AdditionalHomeFinancingPercent
}

// State is the aggregate root: one complete snapshot of the household's
// finances and the home it wants to buy. The zero value is a valid, empty
// household.
type State struct {
	PurchasePrice     float64           `json:"purchasePrice" yaml:"purchasePrice"`
	TermYears         int               `json:"termYears" yaml:"termYears"`
	AnnualRate        float64           `json:"annualRate" yaml:"annualRate"`
	Member1Income     []IncomeSample    `json:"member1Income" yaml:"member1Income"`
	Member2Income     []IncomeSample    `json:"member2Income" yaml:"member2Income"`
	Assets            []LiquidAsset     `json:"assets" yaml:"assets"`
	Debts             []DebtObligation  `json:"debts" yaml:"debts"`
	Expenses          []OneTimeExpense  `json:"expenses" yaml:"expenses"`
	PurchaseTaxPolicy PurchaseTaxPolicy `json:"purchaseTaxPolicy" yaml:"purchaseTaxPolicy"`
}

// Terms returns the mortgage terms of the snapshot.
func (s State) Terms() annuity.Terms {
	return annuity.Terms{Years: s.TermYears, AnnualRate: s.AnnualRate}
}

// NewState returns the starting snapshot of a fresh planner: a first home
// with the canonical first-home brackets and the default expense list.
func NewState() State {
	return State{
		Expenses: DefaultExpenses(),
		PurchaseTaxPolicy: PurchaseTaxPolicy{
			IsFirstHome: true,
			Brackets:    tax.FirstHomeBrackets(),
		},
	}
}

// DefaultExpenses returns the typical one-time costs of buying a home.
func DefaultExpenses() []OneTimeExpense {
	return []OneTimeExpense{
		{Name: "Moving", Amount: 8000},
		{Name: "Furniture", Amount: 20000},
		{Name: "Air conditioning", Amount: 20000},
		{Name: "Renovation", Amount: 50000},
		{Name: "Mortgage advisor", Amount: 8000},
		{Name: "Appraiser", Amount: 4000},
		{Name: "Home inspection", Amount: 2000},
		{Name: "Surveyor", Amount: 7000},
		{Name: "Notary", Amount: 500},
		{Name: "Land registry extract", Amount: 17},
		{Name: "Condominium file", Amount: 38},
		{Name: "Land authority", Amount: 83},
		{Name: "Land registry filing", Amount: 43},
		{Name: "Developer rights registration", Amount: 85},
		{Name: "Mortgage file opening fee", Amount: 2500},
		{Name: "Utility account transfers", Amount: 3000},
		{Name: "Lien registration fee", Amount: 119},
		{Name: "Document preparation fee", Amount: 1000},
	}
}
