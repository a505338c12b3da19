// Package transform converts raw or pre-aggregated platform records into the
// canonical output shapes uploaded to the remote service. Each supported
// record type has its own extraction strategy; a record that fails value or
// date validation is dropped without aborting the batch.
package transform

import (
	"log/slog"

	"vitalsync/internal/aggregate"
	"vitalsync/internal/metrics"
	"vitalsync/internal/records"
)

// scalarRule is the extraction strategy for a record type that maps to a
// single scalar output: an ordered list of field-access attempts plus a
// plausibility range for the extracted value.
type scalarRule struct {
	extractors []extractor
	valid      bounds
}

var scalarRules = map[string]scalarRule{
	metrics.RecordBloodGlucose: {
		extractors: []extractor{
			field("level", "inMillimolesPerLiter"),
			field("level"),
			field("value"),
			field("bloodGlucose"),
		},
		valid: bounds{0, 100},
	},
	metrics.RecordOxygenSaturation: {
		extractors: []extractor{
			field("percentage", "inPercent"),
			field("percentage"),
			field("value"),
			field("oxygenSaturation"),
			field("spo2"),
		},
		valid: bounds{0, 100},
	},
	metrics.RecordBasalMetabolicRate: {
		extractors: []extractor{
			field("basalMetabolicRate", "inKilocaloriesPerDay"),
			field("basalMetabolicRate"),
			field("value"),
		},
		valid: bounds{0, 10000},
	},
	metrics.RecordVo2Max: {
		extractors: []extractor{
			field("vo2MillilitersPerMinuteKilogram"),
			field("vo2Max"),
			field("value"),
		},
		valid: bounds{0, 100},
	},
	metrics.RecordRestingHeartRate: {
		extractors: []extractor{
			field("beatsPerMinute"),
			field("value"),
		},
		valid: bounds{0, 300},
	},
	metrics.RecordRespiratoryRate: {
		extractors: []extractor{
			field("rate"),
			field("value"),
		},
		valid: bounds{0, 100},
	},
	metrics.RecordBodyTemperature: {
		extractors: []extractor{
			field("temperature", "inCelsius"),
			field("temperature"),
			field("value"),
		},
		valid: bounds{20, 45},
	},
	metrics.RecordWeight: {
		extractors: []extractor{
			field("weight", "inKilograms"),
			field("weight"),
			field("value"),
		},
		valid: bounds{0, 500},
	},
	metrics.RecordHeight: {
		extractors: []extractor{
			field("height", "inMeters"),
			field("height"),
			field("value"),
		},
		valid: bounds{0, 3},
	},
	metrics.RecordBodyFat: {
		extractors: []extractor{
			field("percentage", "inPercent"),
			field("percentage"),
			field("value"),
		},
		valid: bounds{0, 100},
	},
	metrics.RecordHydration: {
		extractors: []extractor{
			field("volume", "inLiters"),
			field("volume"),
			field("value"),
		},
		valid: bounds{0, 20},
	},
	metrics.RecordDistance: {
		extractors: []extractor{
			field("distance", "inKilometers"),
			fieldScaled(0.001, "distance", "inMeters"),
			fieldScaled(0.001, "distance"),
		},
		valid: bounds{0, 1000},
	},
	metrics.RecordFloorsClimbed: {
		extractors: []extractor{
			field("floors"),
			field("value"),
		},
		valid: bounds{0, 10000},
	},
}

// qualitative record types carry no numeric signal the canonical shape can
// represent; they are recognized and skipped, never given a placeholder
// value.
var qualitative = map[string]bool{
	metrics.RecordCervicalMucus:    true,
	metrics.RecordMenstruationFlow: true,
	metrics.RecordOvulationTest:    true,
	metrics.RecordSexualActivity:   true,
}

// Transformer applies per-record-type extraction strategies.
type Transformer struct {
	log     *slog.Logger
	sampler *Sampler
}

func New(log *slog.Logger) *Transformer {
	return &Transformer{log: log, sampler: NewSampler(log)}
}

// ResetSampling clears the once-per-type debug sampling state; the
// orchestrator calls this at the start of each sync pass.
func (t *Transformer) ResetSampling() {
	t.sampler.Reset()
}

// Transform converts raw records of one type into output objects. One
// record's failure drops only that record; an unrecognized record type
// yields an empty result for the whole call since there is no rule to
// attempt per-record recovery with.
func (t *Transformer) Transform(recs []records.Raw, cfg metrics.Config) []any {
	if len(recs) == 0 {
		return nil
	}
	t.sampler.Sample(cfg.RecordType, recs[0])

	if qualitative[cfg.RecordType] {
		t.log.Debug("qualitative record type has no numeric output shape; skipping",
			"record_type", cfg.RecordType, "records", len(recs))
		return nil
	}

	switch cfg.RecordType {
	case metrics.RecordBloodPressure:
		return t.bloodPressure(recs, cfg)
	case metrics.RecordSleepSession:
		return t.sleepSessions(recs, cfg)
	case metrics.RecordExerciseSession:
		return t.exerciseSessions(recs, cfg)
	case metrics.RecordMenstruationPeriod:
		return t.menstruationPeriods(recs, cfg)
	case metrics.RecordCyclingPedalingCadence, metrics.RecordStepsCadence:
		return t.cadence(recs, cfg)
	}

	rule, ok := scalarRules[cfg.RecordType]
	if !ok {
		t.log.Warn("no transform rule for record type", "record_type", cfg.RecordType)
		return nil
	}
	return t.scalar(recs, cfg, rule)
}

// FromAggregated passes pre-aggregated records through with minimal
// reprocessing. The aggregator's type tag is preserved over the metric
// config's default, so one metric configuration can yield differently
// labeled outputs.
func (t *Transformer) FromAggregated(aggs []aggregate.Record, cfg metrics.Config) []any {
	out := make([]any, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, newRecord(a.Value, a.Type, a.Date, cfg.Unit))
	}
	return out
}

func (t *Transformer) scalar(recs []records.Raw, cfg metrics.Config, rule scalarRule) []any {
	var out []any
	dropped := 0
	for _, rec := range recs {
		v, ok := firstValue(rec, rule.extractors)
		if !ok || !rule.valid.contains(v) {
			dropped++
			continue
		}
		date, ok := recordDate(rec)
		if !ok {
			dropped++
			continue
		}
		out = append(out, newRecord(v, cfg.Type, date, cfg.Unit))
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

// bloodPressure splits each input record into independent systolic and
// diastolic outputs; a record missing one component still yields the other.
func (t *Transformer) bloodPressure(recs []records.Raw, cfg metrics.Config) []any {
	sysExtractors := []extractor{
		field("systolic", "inMillimetersOfMercury"),
		field("systolic"),
	}
	diaExtractors := []extractor{
		field("diastolic", "inMillimetersOfMercury"),
		field("diastolic"),
	}
	valid := bounds{0, 300}

	var out []any
	dropped := 0
	for _, rec := range recs {
		date, ok := recordDate(rec)
		if !ok {
			dropped++
			continue
		}
		emitted := false
		if v, ok := firstValue(rec, sysExtractors); ok && valid.contains(v) {
			out = append(out, newRecord(v, cfg.Type+"_systolic", date, cfg.Unit))
			emitted = true
		}
		if v, ok := firstValue(rec, diaExtractors); ok && valid.contains(v) {
			out = append(out, newRecord(v, cfg.Type+"_diastolic", date, cfg.Unit))
			emitted = true
		}
		if !emitted {
			dropped++
		}
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

// menstruationPeriods expands each period record into one value=1 output per
// calendar day it spans, inclusive of both endpoints.
func (t *Transformer) menstruationPeriods(recs []records.Raw, cfg metrics.Config) []any {
	var out []any
	dropped := 0
	for _, rec := range recs {
		start, ok := rec.Time("startTime")
		if !ok {
			dropped++
			continue
		}
		end, ok := rec.Time("endTime")
		if !ok {
			end = start
		}
		if end.Before(start) {
			dropped++
			continue
		}
		last := records.DateOf(end)
		for d := records.DateOf(start); !d.After(last); d = d.Next() {
			out = append(out, newRecord(1, cfg.Type, d, cfg.Unit))
		}
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

// cadence expands each record into one output per sample; all samples share
// the record's date.
func (t *Transformer) cadence(recs []records.Raw, cfg metrics.Config) []any {
	sampleExtractors := []extractor{
		field("rate"),
		field("revolutionsPerMinute"),
	}
	var out []any
	dropped := 0
	for _, rec := range recs {
		date, ok := recordDate(rec)
		if !ok {
			dropped++
			continue
		}
		samples := rec.Records("samples")
		if len(samples) == 0 {
			dropped++
			continue
		}
		for _, s := range samples {
			v, ok := firstValue(s, sampleExtractors)
			if !ok {
				dropped++
				continue
			}
			out = append(out, newRecord(v, cfg.Type, date, cfg.Unit))
		}
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

// logDropped emits one summary line per batch instead of one per record.
func (t *Transformer) logDropped(recordType string, dropped int) {
	if dropped > 0 {
		t.log.Warn("dropped records failing extraction or validation",
			"record_type", recordType, "count", dropped)
	}
}
