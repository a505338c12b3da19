// Package metrics defines the static catalog binding platform record types
// to output units and type tags. The catalog is passed explicitly into the
// sync orchestrator so tests can substitute a reduced one.
package metrics

// Config binds one platform record type to its canonical output unit and
// type tag. Immutable once constructed.
type Config struct {
	RecordType string `json:"record_type" yaml:"record_type"`
	Unit       string `json:"unit" yaml:"unit"`
	Type       string `json:"type" yaml:"type"`
}

// Platform record type names. These match the identifiers the on-device
// health platform uses in its readRecords API.
const (
	RecordSteps                  = "Steps"
	RecordHeartRate              = "HeartRate"
	RecordRestingHeartRate       = "RestingHeartRate"
	RecordTotalCalories          = "TotalCaloriesBurned"
	RecordActiveCalories         = "ActiveCaloriesBurned"
	RecordBasalMetabolicRate     = "BasalMetabolicRate"
	RecordBloodGlucose           = "BloodGlucose"
	RecordBloodPressure          = "BloodPressure"
	RecordOxygenSaturation       = "OxygenSaturation"
	RecordRespiratoryRate        = "RespiratoryRate"
	RecordBodyTemperature        = "BodyTemperature"
	RecordVo2Max                 = "Vo2Max"
	RecordWeight                 = "Weight"
	RecordHeight                 = "Height"
	RecordBodyFat                = "BodyFat"
	RecordHydration              = "Hydration"
	RecordDistance               = "Distance"
	RecordFloorsClimbed          = "FloorsClimbed"
	RecordSleepSession           = "SleepSession"
	RecordExerciseSession        = "ExerciseSession"
	RecordMenstruationPeriod     = "MenstruationPeriod"
	RecordMenstruationFlow       = "MenstruationFlow"
	RecordCervicalMucus          = "CervicalMucus"
	RecordOvulationTest          = "OvulationTest"
	RecordSexualActivity         = "SexualActivity"
	RecordCyclingPedalingCadence = "CyclingPedalingCadence"
	RecordStepsCadence           = "StepsCadence"
)

// DefaultCatalog returns the full set of supported metrics in a stable
// order. The orchestrator iterates this order on every sync pass.
func DefaultCatalog() []Config {
	return []Config{
		{RecordType: RecordSteps, Unit: "steps", Type: "step"},
		{RecordType: RecordHeartRate, Unit: "bpm", Type: "heart_rate"},
		{RecordType: RecordRestingHeartRate, Unit: "bpm", Type: "resting_heart_rate"},
		{RecordType: RecordTotalCalories, Unit: "kcal", Type: "total_calories"},
		{RecordType: RecordActiveCalories, Unit: "kcal", Type: "active_calories"},
		{RecordType: RecordBasalMetabolicRate, Unit: "kcal/day", Type: "basal_metabolic_rate"},
		{RecordType: RecordBloodGlucose, Unit: "mmol/L", Type: "blood_glucose"},
		{RecordType: RecordBloodPressure, Unit: "mmHg", Type: "blood_pressure"},
		{RecordType: RecordOxygenSaturation, Unit: "%", Type: "oxygen_saturation"},
		{RecordType: RecordRespiratoryRate, Unit: "breaths/min", Type: "respiratory_rate"},
		{RecordType: RecordBodyTemperature, Unit: "°C", Type: "body_temperature"},
		{RecordType: RecordVo2Max, Unit: "mL/kg/min", Type: "vo2_max"},
		{RecordType: RecordWeight, Unit: "kg", Type: "weight"},
		{RecordType: RecordHeight, Unit: "m", Type: "height"},
		{RecordType: RecordBodyFat, Unit: "%", Type: "body_fat"},
		{RecordType: RecordHydration, Unit: "L", Type: "hydration"},
		{RecordType: RecordDistance, Unit: "km", Type: "distance"},
		{RecordType: RecordFloorsClimbed, Unit: "floors", Type: "floors_climbed"},
		{RecordType: RecordSleepSession, Unit: "", Type: "sleep"},
		{RecordType: RecordExerciseSession, Unit: "", Type: "exercise"},
		{RecordType: RecordMenstruationPeriod, Unit: "", Type: "menstruation_period"},
		{RecordType: RecordMenstruationFlow, Unit: "", Type: "menstruation_flow"},
		{RecordType: RecordCervicalMucus, Unit: "", Type: "cervical_mucus"},
		{RecordType: RecordOvulationTest, Unit: "", Type: "ovulation_test"},
		{RecordType: RecordSexualActivity, Unit: "", Type: "sexual_activity"},
		{RecordType: RecordCyclingPedalingCadence, Unit: "rpm", Type: "cycling_cadence"},
		{RecordType: RecordStepsCadence, Unit: "spm", Type: "steps_cadence"},
	}
}
