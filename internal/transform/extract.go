package transform

import (
	"vitalsync/internal/records"
)

// extractor is one pure field-access attempt against a raw record. For each
// record type a fixed ordered list of extractors is tried; the first hit
// wins. This replaces the old try-field-then-another chains scattered
// through the transform code.
type extractor func(records.Raw) (float64, bool)

// field reads a (possibly nested) numeric field.
func field(keys ...string) extractor {
	return func(r records.Raw) (float64, bool) {
		return r.FloatAt(keys...)
	}
}

// fieldScaled reads a nested numeric field and multiplies it, for unit
// conversions like meters to kilometers.
func fieldScaled(scale float64, keys ...string) extractor {
	return func(r records.Raw) (float64, bool) {
		v, ok := r.FloatAt(keys...)
		if !ok {
			return 0, false
		}
		return v * scale, true
	}
}

// dateFields is the ordered search list for a record's time reference.
var dateFields = [...]string{"time", "startTime", "timestamp", "date"}

// recordDate finds the record's calendar day via the ordered date-field
// search.
func recordDate(rec records.Raw) (records.Date, bool) {
	for _, f := range dateFields {
		if t, ok := rec.Time(f); ok {
			return records.DateOf(t), true
		}
	}
	return records.Date{}, false
}

// bounds is an inclusive plausibility range for a metric's value. Values
// outside it are treated as sensor noise and dropped.
type bounds struct {
	min, max float64
}

func (b bounds) contains(v float64) bool {
	return v >= b.min && v <= b.max
}

// firstValue applies the ordered extractor list and returns the first hit.
func firstValue(rec records.Raw, extractors []extractor) (float64, bool) {
	for _, ex := range extractors {
		if v, ok := ex(rec); ok {
			return v, true
		}
	}
	return 0, false
}
