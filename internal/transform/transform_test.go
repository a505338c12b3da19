package transform

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"vitalsync/internal/aggregate"
	"vitalsync/internal/metrics"
	"vitalsync/internal/records"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func cfgFor(t *testing.T, recordType string) metrics.Config {
	t.Helper()
	for _, cfg := range metrics.DefaultCatalog() {
		if cfg.RecordType == recordType {
			return cfg
		}
	}
	t.Fatalf("record type %s not in catalog", recordType)
	return metrics.Config{}
}

// TestScalarPrefersNestedUnitField verifies the ordered extractor list: the
// typed nested field wins over flat fallbacks.
func TestScalarPrefersNestedUnitField(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{
			"time":   "2024-01-15T08:00:00Z",
			"weight": map[string]any{"inKilograms": float64(82.4)},
			"value":  float64(999),
		},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordWeight))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	rec := out[0].(Record)
	if rec.Value != 82.4 {
		t.Errorf("value = %f, want 82.4", rec.Value)
	}
	if rec.Type != "weight" {
		t.Errorf("type = %s, want weight", rec.Type)
	}
}

// TestScalarFallbackChain verifies a flat value field is used when the
// typed forms are absent.
func TestScalarFallbackChain(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"time": "2024-01-15T08:00:00Z", "value": float64(64)},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordRestingHeartRate))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	if rec := out[0].(Record); rec.Value != 64 {
		t.Errorf("value = %f, want 64", rec.Value)
	}
}

// TestScalarDropsOutOfRange verifies implausible values are dropped without
// aborting the batch.
func TestScalarDropsOutOfRange(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"time": "2024-01-15T08:00:00Z", "value": float64(120)}, // spo2 cannot exceed 100
		{"time": "2024-01-15T09:00:00Z", "value": float64(97)},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordOxygenSaturation))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	if rec := out[0].(Record); rec.Value != 97 {
		t.Errorf("value = %f, want 97", rec.Value)
	}
}

// TestScalarDropsDatelessRecord verifies a record with no recognizable time
// field yields nothing.
func TestScalarDropsDatelessRecord(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{{"value": float64(97)}}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordOxygenSaturation))
	if len(out) != 0 {
		t.Fatalf("got %d outputs, want 0", len(out))
	}
}

// TestScalarRoundsToTwoDecimals verifies output values carry at most two
// decimal places.
func TestScalarRoundsToTwoDecimals(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"time": "2024-01-15T08:00:00Z", "weight": map[string]any{"inKilograms": float64(82.4567)}},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordWeight))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	if rec := out[0].(Record); rec.Value != 82.46 {
		t.Errorf("value = %f, want 82.46", rec.Value)
	}
}

// TestDistanceMetersConverted verifies the meters form is scaled to kilometers.
func TestDistanceMetersConverted(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"time": "2024-01-15T08:00:00Z", "distance": map[string]any{"inMeters": float64(5230)}},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordDistance))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	if rec := out[0].(Record); rec.Value != 5.23 {
		t.Errorf("value = %f, want 5.23", rec.Value)
	}
}

// TestBloodPressureSplitsComponents verifies each input yields independent
// systolic and diastolic outputs with suffixed type tags.
func TestBloodPressureSplitsComponents(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{
			"time":      "2024-01-15T08:00:00Z",
			"systolic":  map[string]any{"inMillimetersOfMercury": float64(121)},
			"diastolic": map[string]any{"inMillimetersOfMercury": float64(78)},
		},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordBloodPressure))
	if len(out) != 2 {
		t.Fatalf("got %d outputs, want 2", len(out))
	}
	sys := out[0].(Record)
	dia := out[1].(Record)
	if sys.Type != "blood_pressure_systolic" || sys.Value != 121 {
		t.Errorf("systolic = %s/%f, want blood_pressure_systolic/121", sys.Type, sys.Value)
	}
	if dia.Type != "blood_pressure_diastolic" || dia.Value != 78 {
		t.Errorf("diastolic = %s/%f, want blood_pressure_diastolic/78", dia.Type, dia.Value)
	}
}

// TestBloodPressurePartialRecord verifies a record missing one component
// still yields the other.
func TestBloodPressurePartialRecord(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{
			"time":     "2024-01-15T08:00:00Z",
			"systolic": map[string]any{"inMillimetersOfMercury": float64(130)},
		},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordBloodPressure))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	if rec := out[0].(Record); rec.Type != "blood_pressure_systolic" {
		t.Errorf("type = %s, want blood_pressure_systolic", rec.Type)
	}
}

// TestMenstruationPeriodExpandsDays verifies a multi-day period yields one
// value=1 output per spanned day, endpoints inclusive.
func TestMenstruationPeriodExpandsDays(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"startTime": "2024-01-15T00:00:00Z", "endTime": "2024-01-17T12:00:00Z"},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordMenstruationPeriod))
	if len(out) != 3 {
		t.Fatalf("got %d outputs, want 3", len(out))
	}
	wantDates := []string{"2024-01-15", "2024-01-16", "2024-01-17"}
	for i, o := range out {
		rec := o.(Record)
		if rec.Value != 1 {
			t.Errorf("output %d value = %f, want 1", i, rec.Value)
		}
		if rec.Date.String() != wantDates[i] {
			t.Errorf("output %d date = %s, want %s", i, rec.Date, wantDates[i])
		}
	}
}

// TestMenstruationPeriodMissingEndIsSingleDay verifies a period without an
// end time covers exactly its start day.
func TestMenstruationPeriodMissingEndIsSingleDay(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{{"startTime": "2024-01-15T08:00:00Z"}}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordMenstruationPeriod))
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
}

// TestQualitativeTypesSkipped verifies qualitative record types yield no
// placeholder outputs.
func TestQualitativeTypesSkipped(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{"time": "2024-01-15T08:00:00Z", "appearance": "EGG_WHITE"},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordCervicalMucus))
	if len(out) != 0 {
		t.Fatalf("got %d outputs, want 0", len(out))
	}
}

// TestUnknownRecordTypeYieldsNothing verifies a type without a rule is
// skipped wholesale rather than panicking.
func TestUnknownRecordTypeYieldsNothing(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{{"time": "2024-01-15T08:00:00Z", "value": float64(1)}}
	out := tr.Transform(recs, metrics.Config{RecordType: "FutureRecord", Unit: "x", Type: "future"})
	if len(out) != 0 {
		t.Fatalf("got %d outputs, want 0", len(out))
	}
}

// TestCadencePerSampleOutputs verifies cadence records expand into one
// output per sample sharing the record's date.
func TestCadencePerSampleOutputs(t *testing.T) {
	tr := New(testLog)
	recs := []records.Raw{
		{
			"startTime": "2024-01-15T08:00:00Z",
			"samples": []any{
				map[string]any{"rate": float64(88)},
				map[string]any{"revolutionsPerMinute": float64(92)},
			},
		},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordCyclingPedalingCadence))
	if len(out) != 2 {
		t.Fatalf("got %d outputs, want 2", len(out))
	}
	first := out[0].(Record)
	second := out[1].(Record)
	if first.Value != 88 || second.Value != 92 {
		t.Errorf("values = %f, %f, want 88, 92", first.Value, second.Value)
	}
	if first.Date != second.Date {
		t.Errorf("dates differ: %s vs %s", first.Date, second.Date)
	}
}

// TestCadenceNoSamplesCountsAsDropped verifies a cadence record with a date
// but no sample list yields nothing and appears in the drop summary.
func TestCadenceNoSamplesCountsAsDropped(t *testing.T) {
	var buf bytes.Buffer
	tr := New(slog.New(slog.NewTextHandler(&buf, nil)))
	recs := []records.Raw{
		{"startTime": "2024-01-15T08:00:00Z"},
	}
	out := tr.Transform(recs, cfgFor(t, metrics.RecordCyclingPedalingCadence))
	if len(out) != 0 {
		t.Fatalf("got %d outputs, want 0", len(out))
	}
	logged := buf.String()
	if !strings.Contains(logged, "count=1") {
		t.Errorf("drop summary missing from log: %q", logged)
	}
}

// TestFromAggregatedPreservesTypeTag verifies the aggregator's tag survives
// over the metric config's default.
func TestFromAggregatedPreservesTypeTag(t *testing.T) {
	tr := New(testLog)
	date, _ := records.ParseDate("2024-01-15")
	aggs := []aggregate.Record{
		{Date: date, Value: 5000, Type: aggregate.TypeSteps},
	}
	cfg := cfgFor(t, metrics.RecordSteps)
	out := tr.FromAggregated(aggs, cfg)
	if len(out) != 1 {
		t.Fatalf("got %d outputs, want 1", len(out))
	}
	rec := out[0].(Record)
	if rec.Type != aggregate.TypeSteps {
		t.Errorf("type = %s, want %s", rec.Type, aggregate.TypeSteps)
	}
	if rec.Unit != cfg.Unit {
		t.Errorf("unit = %s, want %s", rec.Unit, cfg.Unit)
	}
}
