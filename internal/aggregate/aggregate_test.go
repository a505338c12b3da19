package aggregate

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"vitalsync/internal/records"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func rawSteps(start, end string, count float64) records.Raw {
	r := records.Raw{"startTime": start, "count": count}
	if end != "" {
		r["endTime"] = end
	}
	return r
}

func rawEnergy(start string, energy map[string]any) records.Raw {
	return records.Raw{"startTime": start, "energy": energy}
}

// TestStepsSumsPerDay verifies step counts from the same day add up.
func TestStepsSumsPerDay(t *testing.T) {
	recs := []records.Raw{
		rawSteps("2024-01-15T08:00:00Z", "2024-01-15T09:00:00Z", 2000),
		rawSteps("2024-01-15T12:00:00Z", "2024-01-15T13:00:00Z", 3000),
	}
	got := Steps(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Value != 5000 {
		t.Errorf("value = %f, want 5000", got[0].Value)
	}
	if got[0].Date.String() != "2024-01-15" {
		t.Errorf("date = %s, want 2024-01-15", got[0].Date)
	}
	if got[0].Type != TypeSteps {
		t.Errorf("type = %s, want %s", got[0].Type, TypeSteps)
	}
}

// TestStepsMinutePrecisionTimes verifies records whose instants carry no
// seconds component still aggregate instead of being dropped as unparseable.
func TestStepsMinutePrecisionTimes(t *testing.T) {
	recs := []records.Raw{
		{"startTime": "2024-01-15T08:00Z", "count": 2000.0},
		{"startTime": "2024-01-15T12:00Z", "count": 3000.0},
	}
	got := Steps(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Value != 5000 {
		t.Errorf("value = %f, want 5000", got[0].Value)
	}
	if got[0].Date.String() != "2024-01-15" {
		t.Errorf("date = %s, want 2024-01-15", got[0].Date)
	}
	if got[0].Type != TypeSteps {
		t.Errorf("type = %s, want %s", got[0].Type, TypeSteps)
	}
}

// TestStepsBucketsByEndTime verifies a burst spanning midnight lands on the
// day it ended.
func TestStepsBucketsByEndTime(t *testing.T) {
	recs := []records.Raw{
		rawSteps("2024-01-15T23:50:00Z", "2024-01-16T00:10:00Z", 500),
	}
	got := Steps(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	wantDate := records.DateOf(mustTime(t, "2024-01-16T00:10:00Z"))
	if got[0].Date != wantDate {
		t.Errorf("date = %s, want %s", got[0].Date, wantDate)
	}
}

// TestStepsFallsBackToStartTime verifies a record without an end time still buckets.
func TestStepsFallsBackToStartTime(t *testing.T) {
	recs := []records.Raw{rawSteps("2024-01-15T08:00:00Z", "", 100)}
	got := Steps(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	wantDate := records.DateOf(mustTime(t, "2024-01-15T08:00:00Z"))
	if got[0].Date != wantDate {
		t.Errorf("date = %s, want %s", got[0].Date, wantDate)
	}
}

// TestStepsSkipsMalformed verifies records missing start time or count are
// dropped without aborting the fold.
func TestStepsSkipsMalformed(t *testing.T) {
	recs := []records.Raw{
		{"count": float64(100)},
		{"startTime": "2024-01-15T08:00:00Z"},
		rawSteps("2024-01-15T08:00:00Z", "", 1000),
	}
	got := Steps(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Value != 1000 {
		t.Errorf("value = %f, want 1000", got[0].Value)
	}
}

// TestStepsSortedByDate verifies output ordering is by ascending date.
func TestStepsSortedByDate(t *testing.T) {
	recs := []records.Raw{
		rawSteps("2024-01-17T08:00:00Z", "", 1),
		rawSteps("2024-01-15T08:00:00Z", "", 2),
		rawSteps("2024-01-16T08:00:00Z", "", 3),
	}
	got := Steps(recs, testLog)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("records out of order at %d: %s then %s", i, got[i-1].Date, got[i].Date)
		}
	}
}

// TestHeartRateDailyMeanRounded verifies the mean of per-record means is
// rounded to the nearest whole bpm.
func TestHeartRateDailyMeanRounded(t *testing.T) {
	recs := []records.Raw{
		{
			"startTime": "2024-01-15T08:00:00Z",
			"samples": []any{
				map[string]any{"beatsPerMinute": float64(60)},
				map[string]any{"beatsPerMinute": float64(70)},
			},
		},
		{
			"startTime": "2024-01-15T12:00:00Z",
			"samples": []any{
				map[string]any{"beatsPerMinute": float64(71)},
			},
		},
	}
	got := HeartRate(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	// record means are 65 and 71; day mean 68
	if got[0].Value != 68 {
		t.Errorf("value = %f, want 68", got[0].Value)
	}
}

// TestHeartRateMissingBpmCountsAsZero verifies a sample without
// beatsPerMinute drags the record mean down instead of being skipped.
func TestHeartRateMissingBpmCountsAsZero(t *testing.T) {
	recs := []records.Raw{
		{
			"startTime": "2024-01-15T08:00:00Z",
			"samples": []any{
				map[string]any{"beatsPerMinute": float64(80)},
				map[string]any{},
			},
		},
	}
	got := HeartRate(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Value != 40 {
		t.Errorf("value = %f, want 40", got[0].Value)
	}
}

// TestHeartRateEmptySamplesPropagatesNaN verifies a record with no samples
// poisons the day's mean with NaN instead of silently reporting zero.
func TestHeartRateEmptySamplesPropagatesNaN(t *testing.T) {
	recs := []records.Raw{
		{"startTime": "2024-01-15T08:00:00Z", "samples": []any{}},
	}
	got := HeartRate(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if !math.IsNaN(got[0].Value) {
		t.Errorf("value = %f, want NaN", got[0].Value)
	}
}

// TestTotalCaloriesKilocaloriesVerbatim verifies inKilocalories is never rescaled.
func TestTotalCaloriesKilocaloriesVerbatim(t *testing.T) {
	recs := []records.Raw{
		rawEnergy("2024-01-15T08:00:00Z", map[string]any{"inKilocalories": float64(450)}),
		rawEnergy("2024-01-15T18:00:00Z", map[string]any{"inKilocalories": float64(550)}),
	}
	got := TotalCalories(recs, testLog)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Value != 1000 {
		t.Errorf("value = %f, want 1000", got[0].Value)
	}
	if got[0].Type != TypeTotalCalories {
		t.Errorf("type = %s, want %s", got[0].Type, TypeTotalCalories)
	}
}

// TestActiveCaloriesBucketsByStartTime verifies active calories ignore the
// end time when bucketing, unlike total calories.
func TestActiveCaloriesBucketsByStartTime(t *testing.T) {
	rec := records.Raw{
		"startTime": "2024-01-15T23:50:00Z",
		"endTime":   "2024-01-16T00:10:00Z",
		"energy":    map[string]any{"inKilocalories": float64(30)},
	}

	active := ActiveCalories([]records.Raw{rec}, testLog)
	total := TotalCalories([]records.Raw{rec}, testLog)
	if len(active) != 1 || len(total) != 1 {
		t.Fatalf("got %d active, %d total, want 1 each", len(active), len(total))
	}

	startDay := records.DateOf(mustTime(t, "2024-01-15T23:50:00Z"))
	endDay := records.DateOf(mustTime(t, "2024-01-16T00:10:00Z"))
	if active[0].Date != startDay {
		t.Errorf("active date = %s, want %s", active[0].Date, startDay)
	}
	if total[0].Date != endDay {
		t.Errorf("total date = %s, want %s", total[0].Date, endDay)
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}
