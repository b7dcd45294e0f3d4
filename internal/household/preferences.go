package household

import (
	"fmt"

	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// ReturnPowerFraction is the share of residual income that may go to the
// mortgage payment. Only the two enumerated values exist.
type ReturnPowerFraction int

const (
	// ReturnPowerThird allocates one third of residual income.
	ReturnPowerThird ReturnPowerFraction = iota
	// ReturnPowerFortyPercent allocates forty percent of residual income.
	ReturnPowerFortyPercent
)

// Fraction returns the multiplier applied to residual income.
func (f ReturnPowerFraction) Fraction() float64 {
	if f == ReturnPowerFortyPercent {
		return 0.4
	}
	return 1.0 / 3.0
}

// String renders the fraction the way the planner displays it.
func (f ReturnPowerFraction) String() string {
	if f == ReturnPowerFortyPercent {
		return "0.4"
	}
	return "1/3"
}

// ParseReturnPower accepts the display forms "1/3" and "0.4".
func ParseReturnPower(value string) (ReturnPowerFraction, error) {
	switch value {
	case "1/3", "third":
		return ReturnPowerThird, nil
	case "0.4", "40%", "40":
		return ReturnPowerFortyPercent, nil
	}
	return ReturnPowerThird, fmt.Errorf("unsupported return power %q: expected 1/3 or 0.4", value)
}

// MarshalText implements encoding.TextMarshaler.
func (f ReturnPowerFraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ReturnPowerFraction) UnmarshalText(text []byte) error {
	parsed, err := ParseReturnPower(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FeeRates are the professional fee percentages of the purchase price.
type FeeRates struct {
	Legal  float64 `json:"legal" yaml:"legal"`
	Broker float64 `json:"broker" yaml:"broker"`
}

// Preferences are the standalone numeric settings read once per recompute and
// passed to the engine by value.
type Preferences struct {
	ReturnPower ReturnPowerFraction `json:"returnPower" yaml:"returnPower"`
	Fees        FeeRates            `json:"fees" yaml:"fees"`
}

// DefaultPreferences returns a one-third return power, a 0.5% legal fee and a
// 2% broker fee.
func DefaultPreferences() Preferences {
	return Preferences{
		ReturnPower: ReturnPowerThird,
		Fees: FeeRates{
			Legal:  constants.DefaultLegalFeeRate,
			Broker: constants.DefaultBrokerFeeRate,
		},
	}
}
