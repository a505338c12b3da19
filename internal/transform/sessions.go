package transform

import (
	"vitalsync/internal/aggregate"
	"vitalsync/internal/metrics"
	"vitalsync/internal/records"
)

// Sleep stage constants as reported by the platform. Older payloads carry
// the string names instead of the numeric codes.
const (
	stageAwake = 1
	stageLight = 4
	stageDeep  = 5
	stageRem   = 6
)

var stageNames = map[string]int{
	"awake": stageAwake,
	"light": stageLight,
	"deep":  stageDeep,
	"rem":   stageRem,
}

// exerciseTypeNames maps the platform's numeric exercise type codes to
// readable activity names. Codes not listed fall back to "workout".
var exerciseTypeNames = map[int]string{
	2:  "badminton",
	4:  "baseball",
	5:  "basketball",
	8:  "biking",
	13: "calisthenics",
	14: "cricket",
	16: "dancing",
	25: "elliptical",
	29: "football",
	31: "golf",
	37: "hiking",
	44: "martial_arts",
	46: "paddling",
	48: "pilates",
	50: "racquetball",
	53: "rowing",
	56: "running",
	57: "treadmill_running",
	60: "skating",
	61: "skiing",
	66: "snowboarding",
	68: "soccer",
	70: "squash",
	73: "strength_training",
	74: "stretching",
	75: "surfing",
	76: "swimming_open_water",
	77: "swimming_pool",
	79: "tennis",
	81: "volleyball",
	82: "walking",
	83: "water_polo",
	84: "weightlifting",
	85: "wheelchair",
	87: "yoga",
}

// sleepSessions produces at most one session object per raw record. Sessions
// are never aggregated; a session's date is the day it ended on.
func (t *Transformer) sleepSessions(recs []records.Raw, cfg metrics.Config) []any {
	var out []any
	dropped := 0
	for _, rec := range recs {
		start, ok := rec.Time("startTime")
		if !ok {
			dropped++
			continue
		}
		end, ok := rec.Time("endTime")
		if !ok || !start.Before(end) {
			dropped++
			continue
		}

		session := SleepSession{
			Type:            cfg.Type,
			Date:            records.DateOf(end),
			BedTime:         start,
			WakeTime:        end,
			DurationSeconds: end.Sub(start).Seconds(),
		}

		for _, st := range rec.Records("stages") {
			sStart, ok := st.Time("startTime")
			if !ok {
				continue
			}
			sEnd, ok := st.Time("endTime")
			if !ok || sEnd.Before(sStart) {
				continue
			}
			secs := sEnd.Sub(sStart).Seconds()
			switch stageCode(st) {
			case stageAwake:
				session.AwakeSeconds += secs
			case stageLight:
				session.LightSeconds += secs
			case stageDeep:
				session.DeepSeconds += secs
			case stageRem:
				session.RemSeconds += secs
			}
		}

		out = append(out, session)
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

// exerciseSessions produces at most one session object per raw record.
// Calories use the same kilocalorie normalization as the aggregators.
func (t *Transformer) exerciseSessions(recs []records.Raw, cfg metrics.Config) []any {
	var out []any
	dropped := 0
	for _, rec := range recs {
		start, ok := rec.Time("startTime")
		if !ok {
			dropped++
			continue
		}
		end, ok := rec.Time("endTime")
		if !ok || !start.Before(end) {
			dropped++
			continue
		}

		session := ExerciseSession{
			Type:            cfg.Type,
			Date:            records.DateOf(start),
			StartTime:       start,
			EndTime:         end,
			DurationSeconds: end.Sub(start).Seconds(),
			ActivityType:    activityName(rec),
		}
		if title, ok := rec.String("title"); ok {
			session.Title = title
		}
		if kcal, ok := aggregate.EnergyKilocalories(rec, "totalEnergyBurned"); ok {
			v := round2(kcal)
			session.Calories = &v
		} else if kcal, ok := aggregate.EnergyKilocalories(rec, "energy"); ok {
			v := round2(kcal)
			session.Calories = &v
		}
		if km, ok := rec.FloatAt("distance", "inKilometers"); ok {
			v := round2(km)
			session.DistanceKm = &v
		} else if m, ok := rec.FloatAt("distance", "inMeters"); ok {
			v := round2(m / 1000)
			session.DistanceKm = &v
		}

		out = append(out, session)
	}
	t.logDropped(cfg.RecordType, dropped)
	return out
}

func stageCode(st records.Raw) int {
	if code, ok := st.Float("stage"); ok {
		return int(code)
	}
	if name, ok := st.String("stage"); ok {
		return stageNames[name]
	}
	return 0
}

func activityName(rec records.Raw) string {
	if code, ok := rec.Float("exerciseType"); ok {
		if name, ok := exerciseTypeNames[int(code)]; ok {
			return name
		}
	}
	if name, ok := rec.String("exerciseType"); ok {
		return name
	}
	if name, ok := rec.String("activityType"); ok {
		return name
	}
	return "workout"
}
