package aggregate

import "vitalsync/internal/records"

// calorieMagnitudeThreshold separates raw-calorie readings from values that
// are already kilocalories. Ambiguous "calories" fields above this magnitude
// are assumed to be raw calories and divided by 1,000; the boundary itself
// is not divided. The threshold is a fixed product constant: change it only
// with a matching change on the receiving service.
const calorieMagnitudeThreshold = 10000

// EnergyKilocalories reads the energy object under field and normalizes it
// to kilocalories. An explicit inKilocalories value is used verbatim and
// always wins over a sibling inCalories value.
func EnergyKilocalories(rec records.Raw, field string) (float64, bool) {
	if kcal, ok := rec.FloatAt(field, "inKilocalories"); ok {
		return kcal, true
	}
	cal, ok := rec.FloatAt(field, "inCalories")
	if !ok {
		return 0, false
	}
	if cal > calorieMagnitudeThreshold {
		return cal / 1000, true
	}
	return cal, true
}
