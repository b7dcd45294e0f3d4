package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// legacyThird is how early versions stored the one-third return power.
const legacyThird = 33.0

// ParsePreferences reads the stored preference values. Missing or unparsable
// values fall back to the defaults; every fallback other than a missing key
// is reported as a warning.
func ParsePreferences(raw map[string]string) (household.Preferences, []string) {
	prefs := household.DefaultPreferences()
	var warnings []string

	if value, ok := raw[constants.LegalFeeRateKey]; ok {
		rate, err := parseRate(value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %.1f", constants.LegalFeeRateKey, err, prefs.Fees.Legal))
		} else {
			prefs.Fees.Legal = rate
		}
	}

	if value, ok := raw[constants.BrokerFeeRateKey]; ok {
		rate, err := parseRate(value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %.1f", constants.BrokerFeeRateKey, err, prefs.Fees.Broker))
		} else {
			prefs.Fees.Broker = rate
		}
	}

	if value, ok := raw[constants.ReturnPowerKey]; ok {
		fraction, err := parseStoredReturnPower(value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %s", constants.ReturnPowerKey, err, prefs.ReturnPower))
		} else {
			prefs.ReturnPower = fraction
		}
	}

	return prefs, warnings
}

// FormatPreferences renders preferences into their stored values.
func FormatPreferences(prefs household.Preferences) map[string]string {
	returnPower := strconv.FormatFloat(prefs.ReturnPower.Fraction(), 'g', -1, 64)
	return map[string]string{
		constants.LegalFeeRateKey:  strconv.FormatFloat(prefs.Fees.Legal, 'g', -1, 64),
		constants.BrokerFeeRateKey: strconv.FormatFloat(prefs.Fees.Broker, 'g', -1, 64),
		constants.ReturnPowerKey:   returnPower,
	}
}

func parseRate(value string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", value)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 || rate > constants.PercentageMultiplier {
		return 0, fmt.Errorf("rate %q out of range", value)
	}
	return rate, nil
}

// parseStoredReturnPower accepts every form the fraction has been stored in:
// the display forms, the legacy 33, the float 1/3, and 0.4 as a fraction or
// as the percentage 40.
func parseStoredReturnPower(value string) (household.ReturnPowerFraction, error) {
	trimmed := strings.TrimSpace(value)
	if fraction, err := household.ParseReturnPower(trimmed); err == nil {
		return fraction, nil
	}

	number, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return household.ReturnPowerThird, fmt.Errorf("unsupported return power %q", value)
	}
	switch {
	case number == legacyThird, math.Abs(number-1.0/3.0) < 1e-9:
		return household.ReturnPowerThird, nil
	case math.Abs(number-0.4) < 1e-9, number == 40:
		return household.ReturnPowerFortyPercent, nil
	}
	return household.ReturnPowerThird, fmt.Errorf("unsupported return power %q", value)
}
