// Package tax implements the progressive purchase-tax schedule: the canonical
// bracket tables, the marginal-bracket calculation and the table editing rules
// that keep a schedule well formed.
package tax

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/mathutil"
)

// Bracket is one slice of a progressive schedule. Ceiling is the upper bound
// of the slice; a ceiling at or above the sentinel means "and above".
type Bracket struct {
	Ceiling float64 `json:"maxTaxableAmount" yaml:"ceiling" mapstructure:"ceiling"`
	Rate    float64 `json:"taxPercentage" yaml:"rate" mapstructure:"rate"`
}

// IsSentinel reports whether the bracket is the open-ended final bracket.
func (b Bracket) IsSentinel() bool {
	return b.Ceiling >= constants.BracketSentinelCeiling
}

// Slice is the portion of a price that falls inside one bracket.
type Slice struct {
	Bracket Bracket `json:"bracket"`
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Taxable float64 `json:"taxable"`
	Tax     float64 `json:"tax"`
}

var (
	ErrTooManyBrackets  = errors.New("too many tax brackets")
	ErrNotAscending     = errors.New("tax bracket ceilings must be strictly ascending")
	ErrRateOutOfRange   = errors.New("tax bracket rate must be between 0 and 100")
	ErrMissingSentinel  = errors.New("last tax bracket must be open-ended")
	ErrIndexOutOfRange  = errors.New("tax bracket index out of range")
	ErrNonPositiveLimit = errors.New("tax bracket ceiling must be positive")
)

// FirstHomeBrackets returns the canonical schedule for a buyer's only home.
func FirstHomeBrackets() []Bracket {
	return []Bracket{
		{Ceiling: 1_978_745, Rate: 0},
		{Ceiling: 2_347_040, Rate: 3.5},
		{Ceiling: 6_055_070, Rate: 5},
		{Ceiling: 20_183_565, Rate: 8},
		{Ceiling: constants.BracketSentinelCeiling, Rate: 10},
	}
}

// AdditionalHomeBrackets returns the canonical schedule for any additional home.
func AdditionalHomeBrackets() []Bracket {
	return []Bracket{
		{Ceiling: 6_055_070, Rate: 8},
		{Ceiling: constants.BracketSentinelCeiling, Rate: 10},
	}
}

// DefaultBrackets picks the canonical schedule for the given home type.
func DefaultBrackets(isFirstHome bool) []Bracket {
	if isFirstHome {
		return FirstHomeBrackets()
	}
	return AdditionalHomeBrackets()
}

// Calculate applies the bracket table to the price. Only the portion of the
// price that falls inside each bracket is taxed at that bracket's rate. The
// table is assumed to be ascending; see Validate.
func Calculate(price float64, brackets []Bracket) float64 {
	total := 0.0
	for _, slice := range Breakdown(price, brackets) {
		total += slice.Tax
	}
	return total
}

// Breakdown returns the per-bracket slices of the price in table order. It
// stops as soon as the whole price has been allocated, so brackets above the
// price do not appear.
func Breakdown(price float64, brackets []Bracket) []Slice {
	if price <= 0 || len(brackets) == 0 {
		return nil
	}

	slices := make([]Slice, 0, len(brackets))
	remaining := price
	previousCeiling := 0.0
	for _, bracket := range brackets {
		if remaining <= 0 {
			break
		}
		effectiveCeiling := bracket.Ceiling
		if bracket.IsSentinel() {
			effectiveCeiling = price
		}
		bracketMin := mathutil.Max(previousCeiling, 0)
		bracketMax := mathutil.Min(effectiveCeiling, price)
		taxable := mathutil.Max(0, mathutil.Min(bracketMax-bracketMin, remaining))

		slices = append(slices, Slice{
			Bracket: bracket,
			From:    bracketMin,
			To:      bracketMin + taxable,
			Taxable: taxable,
			Tax:     mathutil.ApplyPercentage(taxable, bracket.Rate),
		})
		remaining -= taxable
		previousCeiling = bracket.Ceiling
	}
	return slices
}

// Validate checks the structural invariants of a bracket table: at most
// MaxTaxBrackets entries, positive strictly ascending ceilings, rates in
// 0-100 and an open-ended final bracket. An empty table is valid and taxes
// nothing.
func Validate(brackets []Bracket) error {
	if len(brackets) == 0 {
		return nil
	}
	if len(brackets) > constants.MaxTaxBrackets {
		return fmt.Errorf("%w: %d > %d", ErrTooManyBrackets, len(brackets), constants.MaxTaxBrackets)
	}
	for i, b := range brackets {
		if b.Ceiling <= 0 {
			return fmt.Errorf("%w: bracket %d", ErrNonPositiveLimit, i+1)
		}
		if b.Rate < 0 || b.Rate > constants.PercentageMultiplier {
			return fmt.Errorf("%w: bracket %d has %.2f", ErrRateOutOfRange, i+1, b.Rate)
		}
		if i > 0 && b.Ceiling <= brackets[i-1].Ceiling {
			return fmt.Errorf("%w: bracket %d (%.2f <= %.2f)", ErrNotAscending, i+1, b.Ceiling, brackets[i-1].Ceiling)
		}
		if b.IsSentinel() && i != len(brackets)-1 {
			return fmt.Errorf("%w: open-ended bracket %d is not last", ErrNotAscending, i+1)
		}
	}
	if !brackets[len(brackets)-1].IsSentinel() {
		return ErrMissingSentinel
	}
	return nil
}

// Set stores the bracket at index, appending when index equals the table
// length. The new ceiling must lie strictly between its neighbours. The
// returned table is a sorted copy; the input is not modified.
func Set(brackets []Bracket, index int, bracket Bracket) ([]Bracket, error) {
	if index < 0 || index > len(brackets) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index == len(brackets) && len(brackets) >= constants.MaxTaxBrackets {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyBrackets, constants.MaxTaxBrackets)
	}
	if bracket.Rate < 0 || bracket.Rate > constants.PercentageMultiplier {
		return nil, fmt.Errorf("%w: %.2f", ErrRateOutOfRange, bracket.Rate)
	}
	if index > 0 && bracket.Ceiling <= brackets[index-1].Ceiling {
		return nil, fmt.Errorf("%w: ceiling must exceed %.2f", ErrNotAscending, brackets[index-1].Ceiling)
	}
	if index < len(brackets)-1 && bracket.Ceiling >= brackets[index+1].Ceiling {
		return nil, fmt.Errorf("%w: ceiling must be below %.2f", ErrNotAscending, brackets[index+1].Ceiling)
	}

	updated := make([]Bracket, len(brackets), len(brackets)+1)
	copy(updated, brackets)
	if index == len(updated) {
		updated = append(updated, bracket)
	} else {
		updated[index] = bracket
	}
	sort.SliceStable(updated, func(i, j int) bool {
		return updated[i].Ceiling < updated[j].Ceiling
	})
	return updated, nil
}

// Remove returns a copy of the table without the bracket at index.
func Remove(brackets []Bracket, index int) ([]Bracket, error) {
	if index < 0 || index >= len(brackets) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	updated := make([]Bracket, 0, len(brackets)-1)
	updated = append(updated, brackets[:index]...)
	return append(updated, brackets[index+1:]...), nil
}

// NextCeiling suggests a ceiling for a bracket appended to the table.
func NextCeiling(brackets []Bracket) float64 {
	if len(brackets) == 0 {
		return constants.NextBracketStep
	}
	return brackets[len(brackets)-1].Ceiling + constants.NextBracketStep
}
