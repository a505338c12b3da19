package records

import (
	"encoding/json"
	"time"
)

// Raw is a single opaque record as returned by the health platform. Field
// names and nesting vary by record type and platform version, so callers
// access fields through (value, ok) helpers instead of assuming a shape.
type Raw map[string]any

// timeLayouts are tried in order when parsing a time field. The platform
// emits RFC 3339 instants, but older versions emit minute-precision instants
// without a seconds component, zone-less local datetimes, and date-only
// strings for day-scoped records.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Float returns the numeric value under key.
func (r Raw) Float(key string) (float64, bool) {
	return toFloat(r[key])
}

// FloatAt walks a nested object path and returns the numeric leaf, e.g.
// FloatAt("energy", "inKilocalories").
func (r Raw) FloatAt(keys ...string) (float64, bool) {
	var cur any = map[string]any(r)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur, ok = m[k]
		if !ok {
			return 0, false
		}
	}
	return toFloat(cur)
}

// String returns the string value under key.
func (r Raw) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Time parses the field under key as an instant. Numeric values are treated
// as Unix epoch milliseconds.
func (r Raw) Time(key string) (time.Time, bool) {
	switch v := r[key].(type) {
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64:
		return time.UnixMilli(int64(v)), true
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	default:
		return time.Time{}, false
	}
}

// Records returns the nested object list under key, e.g. a heart rate
// record's "samples" array. Non-object elements are skipped.
func (r Raw) Records(key string) []Raw {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Raw, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Raw(m))
		}
	}
	return out
}

// Origin returns the identifier of the app or device that recorded this
// record, or "" when the platform attached no source metadata.
func (r Raw) Origin() string {
	meta, ok := r["metadata"].(map[string]any)
	if !ok {
		return ""
	}
	switch origin := meta["dataOrigin"].(type) {
	case string:
		return origin
	case map[string]any:
		if pkg, ok := origin["packageName"].(string); ok {
			return pkg
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
