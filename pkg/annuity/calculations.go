// Package annuity provides the level-payment loan formulas shared by the
// affordability engine: the amortizing payment for a principal and its inverse,
// the principal a fixed payment can service.
package annuity

import (
	"math"

	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// Terms describes a mortgage by its length in years and its nominal annual
// interest rate in percent.
type Terms struct {
	Years      int
	AnnualRate float64
}

// Valid reports whether the terms can produce a payment. Zero or negative
// years or rates short-circuit every calculation to 0.
func (t Terms) Valid() bool {
	return t.Years > 0 && t.AnnualRate > 0
}

// MonthlyRate converts the annual percentage rate to a periodic monthly rate.
func (t Terms) MonthlyRate() float64 {
	return MonthlyRate(t.AnnualRate)
}

// Months returns the number of monthly payments over the term.
func (t Terms) Months() int {
	return t.Years * constants.MonthsPerYear
}

// MonthlyRate converts an annual percentage rate to a periodic monthly rate.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// MonthlyPayment calculates the monthly payment for a principal using the
// standard amortization formula P * r(1+r)^n / ((1+r)^n - 1).
func MonthlyPayment(principal float64, terms Terms) float64 {
	if principal <= 0 || !terms.Valid() {
		return 0
	}
	return paymentAt(principal, terms.MonthlyRate(), terms.Months())
}

// PresentValue calculates the principal that a fixed monthly payment can
// service over the term: payment * (1 - (1+r)^-n) / r.
func PresentValue(payment float64, terms Terms) float64 {
	if payment <= 0 || !terms.Valid() {
		return 0
	}
	return presentValueAt(payment, terms.MonthlyRate(), terms.Months())
}

// paymentAt applies the amortization formula for an already-converted
// periodic rate. A zero rate splits the principal evenly.
func paymentAt(principal, rate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	if rate == 0 {
		return principal / float64(months)
	}
	power := math.Pow(1+rate, float64(months))
	return principal * (rate * power) / (power - 1)
}

// presentValueAt is the inverse of paymentAt. A zero rate is linear.
func presentValueAt(payment, rate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	if rate == 0 {
		return payment * float64(months)
	}
	return payment * (1 - math.Pow(1+rate, -float64(months))) / rate
}

// CalculateInterestPayment calculates the interest portion of the first payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// TotalCost returns the sum of all payments over the term and the interest
// portion of that sum.
func TotalCost(principal float64, terms Terms) (total, interest float64) {
	payment := MonthlyPayment(principal, terms)
	if payment == 0 {
		return 0, 0
	}
	total = payment * float64(terms.Months())
	return total, total - principal
}
