// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the household file and the
// per-user application config.
package config

import (
	"fmt"
	"io"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"github.com/iwvelando/mortgage-planner/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds one household file.
type Configuration struct {
	Household HouseholdConfig   `mapstructure:"household"`
	Overrides PreferencesConfig `mapstructure:"preferences"`
	Logging   LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output    OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty" toml:"level"`                // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty" toml:"format"`             // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty" toml:"output_file"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty" toml:"format"` // pretty, csv, json
}

// HouseholdConfig is the household as written by hand. Income is a plain
// list of monthly amounts per member.
type HouseholdConfig struct {
	PurchasePrice   float64         `mapstructure:"purchasePrice"`
	TermYears       int             `mapstructure:"termYears"`
	AnnualRate      float64         `mapstructure:"annualRate"`
	Member1Income   []float64       `mapstructure:"member1Income"`
	Member2Income   []float64       `mapstructure:"member2Income"`
	Assets          []AssetConfig   `mapstructure:"assets"`
	Debts           []DebtConfig    `mapstructure:"debts"`
	Expenses        []ExpenseConfig `mapstructure:"expenses"`
	DefaultExpenses bool            `mapstructure:"defaultExpenses"`
	FirstHome       *bool           `mapstructure:"firstHome"`
	TaxBrackets     []tax.Bracket   `mapstructure:"taxBrackets"`
}

// AssetConfig is a savings instrument. Status defaults to open; Taxable and
// TaxRate default to taxable at the default asset tax rate.
type AssetConfig struct {
	Name        string   `mapstructure:"name"`
	TotalAmount float64  `mapstructure:"totalAmount"`
	TotalGain   float64  `mapstructure:"totalGain"`
	Status      string   `mapstructure:"status"`
	Taxable     *bool    `mapstructure:"taxable"`
	TaxRate     *float64 `mapstructure:"taxRate"`
}

// DebtConfig is an existing loan. CreditEligible defaults to false.
type DebtConfig struct {
	Name            string  `mapstructure:"name"`
	Principal       float64 `mapstructure:"principal"`
	TermMonths      int     `mapstructure:"termMonths"`
	PeriodicPayment float64 `mapstructure:"periodicPayment"`
	CreditEligible  *bool   `mapstructure:"creditEligible"`
}

type ExpenseConfig struct {
	Name   string  `mapstructure:"name"`
	Amount float64 `mapstructure:"amount"`
}

// PreferencesConfig overrides the default preferences. Unset fields keep
// their defaults.
type PreferencesConfig struct {
	ReturnPower   string   `mapstructure:"returnPower" json:"returnPower,omitempty"`
	LegalFeeRate  *float64 `mapstructure:"legalFeeRate" json:"legalFeeRate,omitempty"`
	BrokerFeeRate *float64 `mapstructure:"brokerFeeRate" json:"brokerFeeRate,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if _, err := configuration.Overrides.Resolve(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// State converts the household into the engine's snapshot, applying the
// defaults for every optional field.
func (c *Configuration) State() household.State {
	h := c.Household
	firstHome := true
	if h.FirstHome != nil {
		firstHome = *h.FirstHome
	}

	brackets := h.TaxBrackets
	if len(brackets) == 0 {
		brackets = tax.DefaultBrackets(firstHome)
	}

	state := household.State{
		PurchasePrice: h.PurchasePrice,
		TermYears:     h.TermYears,
		AnnualRate:    h.AnnualRate,
		Member1Income: incomeSamples(h.Member1Income),
		Member2Income: incomeSamples(h.Member2Income),
		PurchaseTaxPolicy: household.PurchaseTaxPolicy{
			IsFirstHome: firstHome,
			Brackets:    append([]tax.Bracket(nil), brackets...),
		},
	}

	for _, a := range h.Assets {
		state.Assets = append(state.Assets, a.toAsset())
	}
	for _, d := range h.Debts {
		state.Debts = append(state.Debts, household.DebtObligation{
			Name:            d.Name,
			Principal:       d.Principal,
			TermMonths:      d.TermMonths,
			PeriodicPayment: d.PeriodicPayment,
			CreditEligible:  d.CreditEligible != nil && *d.CreditEligible,
		})
	}
	if h.DefaultExpenses {
		state.Expenses = household.DefaultExpenses()
	}
	for _, e := range h.Expenses {
		state.Expenses = append(state.Expenses, household.OneTimeExpense{Name: e.Name, Amount: e.Amount})
	}

	return state
}

func (a AssetConfig) toAsset() household.LiquidAsset {
	asset := household.LiquidAsset{
		Name:        a.Name,
		TotalAmount: a.TotalAmount,
		TotalGain:   a.TotalGain,
		Status:      household.AssetStatus(a.Status),
		Taxable:     true,
		TaxRate:     constants.DefaultAssetTaxRate,
	}
	if a.Status == "" {
		asset.Status = household.AssetOpen
	}
	if a.Taxable != nil {
		asset.Taxable = *a.Taxable
	}
	if a.TaxRate != nil {
		asset.TaxRate = *a.TaxRate
	}
	return asset
}

func incomeSamples(amounts []float64) []household.IncomeSample {
	if len(amounts) == 0 {
		return nil
	}
	samples := make([]household.IncomeSample, 0, len(amounts))
	for _, amount := range amounts {
		samples = append(samples, household.IncomeSample{Amount: amount})
	}
	return samples
}

// Preferences returns the effective preferences. The return power was
// checked when the file was loaded.
func (c *Configuration) Preferences() household.Preferences {
	prefs, err := c.Overrides.Resolve()
	if err != nil {
		return household.DefaultPreferences()
	}
	return prefs
}

// IsZero reports whether no preference is overridden.
func (p PreferencesConfig) IsZero() bool {
	return p.ReturnPower == "" && p.LegalFeeRate == nil && p.BrokerFeeRate == nil
}

// Resolve applies the overrides on top of the default preferences.
func (p PreferencesConfig) Resolve() (household.Preferences, error) {
	return p.ApplyTo(household.DefaultPreferences())
}

// ApplyTo applies the overrides on top of base. The result is validated.
func (p PreferencesConfig) ApplyTo(base household.Preferences) (household.Preferences, error) {
	prefs := base
	if p.ReturnPower != "" {
		fraction, err := household.ParseReturnPower(p.ReturnPower)
		if err != nil {
			return household.Preferences{}, err
		}
		prefs.ReturnPower = fraction
	}
	if p.LegalFeeRate != nil {
		prefs.Fees.Legal = *p.LegalFeeRate
	}
	if p.BrokerFeeRate != nil {
		prefs.Fees.Broker = *p.BrokerFeeRate
	}
	if err := validation.ValidatePreferences(prefs); err != nil {
		return household.Preferences{}, err
	}
	return prefs, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	return validation.ValidateState(c.State())
}
