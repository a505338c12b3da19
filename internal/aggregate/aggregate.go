// Package aggregate folds raw platform records into daily totals and
// averages. Each reducer tolerates individually malformed records: a record
// that cannot be decoded is dropped and the fold continues, with one summary
// log line per call rather than one per record.
package aggregate

import (
	"log/slog"
	"math"
	"sort"

	"vitalsync/internal/records"
)

// Record is one pre-reduced daily value for a cumulative or point metric.
type Record struct {
	Date  records.Date `json:"date"`
	Value float64      `json:"value"`
	Type  string       `json:"type"`
}

// Output type tags carried by pre-aggregated records. The transformer
// preserves these over the metric config's default tag.
const (
	TypeSteps          = "step"
	TypeHeartRate      = "heart_rate"
	TypeTotalCalories  = "total_calories"
	TypeActiveCalories = "active_calories"
)

// bucketEndPreferred buckets by end time when present, falling back to start
// time. A burst that finishes just after midnight belongs to the day it
// finished on. Records without a start time are rejected outright.
func bucketEndPreferred(rec records.Raw) (records.Date, bool) {
	start, ok := rec.Time("startTime")
	if !ok {
		return records.Date{}, false
	}
	if end, ok := rec.Time("endTime"); ok {
		return records.DateOf(end), true
	}
	return records.DateOf(start), true
}

// bucketStart buckets by start time only. Active calories use this rule.
// Keep it distinct from bucketEndPreferred: the receiving service's daily
// totals depend on the asymmetry.
func bucketStart(rec records.Raw) (records.Date, bool) {
	start, ok := rec.Time("startTime")
	if !ok {
		return records.Date{}, false
	}
	return records.DateOf(start), true
}

// Steps sums step counts per calendar day.
func Steps(recs []records.Raw, log *slog.Logger) []Record {
	sums := make(map[records.Date]float64)
	skipped := 0
	for _, rec := range recs {
		date, ok := bucketEndPreferred(rec)
		if !ok {
			skipped++
			continue
		}
		count, ok := rec.Float("count")
		if !ok {
			skipped++
			continue
		}
		sums[date] += count
	}
	logSkipped(log, TypeSteps, skipped)
	return sorted(sums, TypeSteps)
}

// HeartRate averages per-record sample means per calendar day, rounded to
// the nearest whole bpm. A missing beatsPerMinute sample counts as 0 (a
// long-standing quirk of the platform payloads, kept as-is). A record with
// an empty sample list has no defined mean: its NaN deliberately propagates
// into the day's value instead of being coerced to zero.
func HeartRate(recs []records.Raw, log *slog.Logger) []Record {
	type acc struct {
		sum float64
		n   int
	}
	days := make(map[records.Date]*acc)
	skipped := 0
	for _, rec := range recs {
		start, ok := rec.Time("startTime")
		if !ok {
			skipped++
			continue
		}
		samples := rec.Records("samples")
		var sum float64
		for _, s := range samples {
			bpm, _ := s.Float("beatsPerMinute")
			sum += bpm
		}
		mean := sum / float64(len(samples)) // NaN when len == 0

		date := records.DateOf(start)
		a := days[date]
		if a == nil {
			a = &acc{}
			days[date] = a
		}
		a.sum += mean
		a.n++
	}
	logSkipped(log, TypeHeartRate, skipped)

	means := make(map[records.Date]float64, len(days))
	for date, a := range days {
		means[date] = math.Round(a.sum / float64(a.n))
	}
	return sorted(means, TypeHeartRate)
}

// TotalCalories sums normalized kilocalories per day, bucketed by end time
// preferred over start time (same rule as Steps).
func TotalCalories(recs []records.Raw, log *slog.Logger) []Record {
	return sumEnergy(recs, TypeTotalCalories, bucketEndPreferred, log)
}

// ActiveCalories sums normalized kilocalories per day, bucketed by start
// time only.
func ActiveCalories(recs []records.Raw, log *slog.Logger) []Record {
	return sumEnergy(recs, TypeActiveCalories, bucketStart, log)
}

func sumEnergy(recs []records.Raw, typ string, bucket func(records.Raw) (records.Date, bool), log *slog.Logger) []Record {
	sums := make(map[records.Date]float64)
	skipped := 0
	for _, rec := range recs {
		date, ok := bucket(rec)
		if !ok {
			skipped++
			continue
		}
		kcal, ok := EnergyKilocalories(rec, "energy")
		if !ok {
			skipped++
			continue
		}
		sums[date] += kcal
	}
	logSkipped(log, typ, skipped)
	return sorted(sums, typ)
}

func sorted(byDate map[records.Date]float64, typ string) []Record {
	out := make([]Record, 0, len(byDate))
	for date, v := range byDate {
		out = append(out, Record{Date: date, Value: v, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func logSkipped(log *slog.Logger, metric string, skipped int) {
	if skipped > 0 && log != nil {
		log.Warn("skipped malformed records", "metric", metric, "count", skipped)
	}
}
