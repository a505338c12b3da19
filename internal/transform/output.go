package transform

import (
	"math"
	"time"

	"vitalsync/internal/records"
)

// Record is the canonical scalar output shape. Value is rounded to two
// decimal places at construction.
type Record struct {
	Value float64      `json:"value"`
	Type  string       `json:"type"`
	Date  records.Date `json:"date"`
	Unit  string       `json:"unit"`
}

// SleepSession is the rich output shape for one night of sleep. Stage
// durations cover only the stages the platform reported; their sum may be
// less than the full session duration.
type SleepSession struct {
	Type            string       `json:"type"`
	Date            records.Date `json:"date"`
	BedTime         time.Time    `json:"bed_time"`
	WakeTime        time.Time    `json:"wake_time"`
	DurationSeconds float64      `json:"duration_seconds"`
	LightSeconds    float64      `json:"light_sleep_seconds"`
	DeepSeconds     float64      `json:"deep_sleep_seconds"`
	RemSeconds      float64      `json:"rem_sleep_seconds"`
	AwakeSeconds    float64      `json:"awake_seconds"`
}

// ExerciseSession is the rich output shape for one workout.
type ExerciseSession struct {
	Type            string       `json:"type"`
	Date            records.Date `json:"date"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DurationSeconds float64      `json:"duration_seconds"`
	ActivityType    string       `json:"activity_type"`
	Calories        *float64     `json:"calories,omitempty"`
	DistanceKm      *float64     `json:"distance_km,omitempty"`
	Title           string       `json:"title,omitempty"`
}

func newRecord(value float64, typ string, date records.Date, unit string) Record {
	return Record{Value: round2(value), Type: typ, Date: date, Unit: unit}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
