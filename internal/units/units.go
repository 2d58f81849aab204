// Package units provides shared constants and conversions for speed units.
// The corner engine works in km/h internally; telemetry sources and display
// layers convert at the boundary.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// FromKMH converts a speed in km/h to the target units for display.
// Unknown units are passed through unchanged.
func FromKMH(speedKMH float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedKMH / 3.6
	case MPH:
		return speedKMH / 1.609344
	case KMPH, KPH:
		return speedKMH
	default:
		return speedKMH
	}
}
