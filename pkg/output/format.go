// Package output provides utilities for formatting and displaying
// affordability reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/iwvelando/mortgage-planner/internal/affordability"
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/format"
	"github.com/iwvelando/mortgage-planner/pkg/mathutil"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary is everything an output format may show for one computation.
type Summary struct {
	State       household.State       `json:"-"`
	Preferences household.Preferences `json:"preferences"`
	Report      affordability.Report  `json:"report"`
	Warnings    []string              `json:"warnings,omitempty"`
}

// Write renders the summary in the named format.
func Write(w io.Writer, outputFormat string, summary Summary) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return WritePretty(w, summary)
	case constants.OutputFormatCSV:
		return WriteCSV(w, summary.Report)
	case constants.OutputFormatJSON:
		return WriteJSON(w, summary)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// WritePretty renders bordered tables for the capacities, the purchase
// costs and the funding gap.
func WritePretty(w io.Writer, summary Summary) error {
	r := summary.Report
	d := r.Details
	state := summary.State
	p := message.NewPrinter(language.English)

	out := renderTitle("Mortgage affordability") + "\n"

	out += renderTable(table{
		title:   "Borrowing capacity",
		headers: []string{"Limit", "Amount"},
		rows: [][]string{
			{"Household income", format.Currency(d.HouseholdIncome)},
			{"Long-term debt service", format.Currency(d.LongTermDebtService)},
			{"Monthly allowance (" + summary.Preferences.ReturnPower.String() + ")", format.Currency(r.MonthlyAllowance)},
			{"---"},
			{p.Sprintf("From income (%d months at %s)", state.Terms().Months(), format.Percent(state.AnnualRate)), format.Currency(d.Capacities.ResidualIncome)},
			{"From assets", format.Currency(d.Capacities.Assets)},
			{"From price (" + format.Percent(state.PurchaseTaxPolicy.FinancingPercent()) + ")", format.Currency(d.Capacities.Price)},
			{"---"},
			{"Recommended mortgage", format.Currency(r.RecommendedCapacity)},
			{"Monthly payment", format.Currency(r.MonthlyPayment)},
			{"Interest in first payment", format.Currency(d.FirstPaymentInterest)},
			{"Total interest over the term", format.Currency(d.TotalInterest)},
		},
	})

	out += renderTable(table{
		title:   "Purchase costs",
		headers: []string{"Item", "Amount"},
		rows: [][]string{
			{"Purchase tax", format.Currency(d.PurchaseTax)},
			{"Itemized expenses", format.Currency(d.ItemizedExpenses)},
			{"Legal fee (" + format.Percent(d.LegalFee.Rate) + ")", format.Currency(d.LegalFee.Total)},
			{"Broker fee (" + format.Percent(d.BrokerFee.Rate) + ")", format.Currency(d.BrokerFee.Total)},
			{"---"},
			{"Total", format.Currency(d.TotalExpenses + d.PurchaseTax)},
		},
	})

	if len(d.PurchaseTaxSlices) > 0 {
		out += renderTaxSlices(p, d.PurchaseTaxSlices)
	}

	gapLabel := "Shortfall"
	switch {
	case mathutil.IsZero(r.ShortfallOrSurplus):
		gapLabel = "Balanced"
	case r.ShortfallOrSurplus < 0:
		gapLabel = "Surplus"
	}
	fundingRows := [][]string{
		{"Net assets", format.Currency(d.NetAssets)},
		{"Eligible loan proceeds", format.Currency(d.EligibleBuyingPower)},
		{"Available funds", format.Currency(r.TotalAvailableFunds)},
		{"Total buying power", format.Currency(r.TotalBuyingPower)},
		{"Purchase price", format.Currency(state.PurchasePrice)},
		{"---"},
		{gapLabel, format.Currency(math.Abs(r.ShortfallOrSurplus))},
	}
	if mathutil.IsPositive(r.AdditionalIncomeNeeded) {
		fundingRows = append(fundingRows, []string{"Additional income needed", format.Currency(r.AdditionalIncomeNeeded)})
	}
	out += renderTable(table{
		title:   "Funding",
		headers: []string{"Figure", "Amount"},
		rows:    fundingRows,
	})

	if r.HasEnoughBuyingPower {
		out += goodStyle.Render("Buying power covers the purchase price.") + "\n"
	} else {
		out += warnStyle.Render("Buying power does not cover the purchase price.") + "\n"
	}
	for _, warning := range summary.Warnings {
		out += warnStyle.Render("warning: "+warning) + "\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

func renderTaxSlices(p *message.Printer, slices []tax.Slice) string {
	rows := make([][]string, 0, len(slices))
	for _, s := range slices {
		rows = append(rows, []string{
			p.Sprintf("%.0f - %.0f", s.From, s.To),
			format.Percent(s.Bracket.Rate),
			format.Currency(s.Tax),
		})
	}
	return renderTable(table{
		title:   "Purchase tax by bracket",
		headers: []string{"Range", "Rate", "Tax"},
		rows:    rows,
	})
}

// WriteBrackets renders a bracket table as a pretty table, CSV or JSON.
func WriteBrackets(w io.Writer, outputFormat string, brackets []tax.Bracket) error {
	switch outputFormat {
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"ceiling", "rate"})
		for _, b := range brackets {
			_ = cw.Write([]string{format.Fixed(b.Ceiling), format.Fixed(b.Rate)})
		}
		cw.Flush()
		return cw.Error()
	case constants.OutputFormatJSON:
		return encodeJSON(w, brackets)
	case constants.OutputFormatPretty:
		p := message.NewPrinter(language.English)
		rows := make([][]string, 0, len(brackets))
		for _, b := range brackets {
			ceiling := p.Sprintf("%.0f", b.Ceiling)
			if b.IsSentinel() {
				ceiling = "and above"
			}
			rows = append(rows, []string{ceiling, format.Percent(b.Rate)})
		}
		_, err := io.WriteString(w, renderTable(table{
			title:   "Purchase tax brackets",
			headers: []string{"Up to", "Rate"},
			rows:    rows,
		}))
		return err
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// WriteCSV writes one "metric,value" line per report figure.
func WriteCSV(w io.Writer, report affordability.Report) error {
	d := report.Details
	enough := "false"
	if report.HasEnoughBuyingPower {
		enough = "true"
	}

	records := [][]string{
		{"metric", "value"},
		{"household_income", format.Fixed(d.HouseholdIncome)},
		{"long_term_debt_service", format.Fixed(d.LongTermDebtService)},
		{"monthly_allowance", format.Fixed(report.MonthlyAllowance)},
		{"capacity_residual_income", format.Fixed(d.Capacities.ResidualIncome)},
		{"capacity_assets", format.Fixed(d.Capacities.Assets)},
		{"capacity_price", format.Fixed(d.Capacities.Price)},
		{"recommended_capacity", format.Fixed(report.RecommendedCapacity)},
		{"monthly_payment", format.Fixed(report.MonthlyPayment)},
		{"net_assets", format.Fixed(d.NetAssets)},
		{"eligible_buying_power", format.Fixed(d.EligibleBuyingPower)},
		{"purchase_tax", format.Fixed(d.PurchaseTax)},
		{"total_expenses", format.Fixed(d.TotalExpenses)},
		{"total_available_funds", format.Fixed(report.TotalAvailableFunds)},
		{"total_buying_power", format.Fixed(report.TotalBuyingPower)},
		{"shortfall_or_surplus", format.Fixed(report.ShortfallOrSurplus)},
		{"has_enough_buying_power", enough},
		{"additional_income_needed", format.Fixed(report.AdditionalIncomeNeeded)},
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, summary Summary) error {
	return encodeJSON(w, summary)
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}
