package aggregate

import (
	"log/slog"
	"sort"

	"vitalsync/internal/records"
)

// unknownOrigin buckets records that carry no source metadata. Unattributed
// records are summed together rather than deduplicated against each other.
const unknownOrigin = "unknown"

// dailyMax resolves double-counting across recording sources. The same
// activity is often reported by a phone pedometer, a wearable and a
// companion app, each with an independent cumulative daily total; summing
// them double- or triple-counts. Records are first grouped by (date, origin)
// and summed within each group, then the maximum total across origins wins
// per date. Assumes each origin reports a complete daily total; that is a
// heuristic, not ground truth.
func dailyMax(recs []records.Raw, typ string, value func(records.Raw) (float64, bool), bucket func(records.Raw) (records.Date, bool), log *slog.Logger) []Record {
	type key struct {
		date   records.Date
		origin string
	}
	sums := make(map[key]float64)
	skipped := 0
	for _, rec := range recs {
		date, ok := bucket(rec)
		if !ok {
			skipped++
			continue
		}
		v, ok := value(rec)
		if !ok {
			skipped++
			continue
		}
		origin := rec.Origin()
		if origin == "" {
			origin = unknownOrigin
		}
		sums[key{date, origin}] += v
	}
	logSkipped(log, typ, skipped)

	best := make(map[records.Date]float64)
	for k, total := range sums {
		if cur, ok := best[k.date]; !ok || total > cur {
			best[k.date] = total
		}
	}

	out := make([]Record, 0, len(best))
	for date, v := range best {
		out = append(out, Record{Date: date, Value: v, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// StepsDeduplicated is the dedup-aware counterpart of Steps. Same bucketing
// rule, but overlapping origins resolve to the per-date maximum instead of
// the naive sum.
func StepsDeduplicated(recs []records.Raw, log *slog.Logger) []Record {
	return dailyMax(recs, TypeSteps, func(r records.Raw) (float64, bool) {
		return r.Float("count")
	}, bucketEndPreferred, log)
}

// ActiveCaloriesDeduplicated is the dedup-aware counterpart of
// ActiveCalories, keeping its start-time bucketing rule.
func ActiveCaloriesDeduplicated(recs []records.Raw, log *slog.Logger) []Record {
	return dailyMax(recs, TypeActiveCalories, func(r records.Raw) (float64, bool) {
		return EnergyKilocalories(r, "energy")
	}, bucketStart, log)
}
