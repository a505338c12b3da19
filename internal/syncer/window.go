package syncer

import (
	"fmt"
	"time"
)

// DefaultDuration is used when no sync duration preference is stored.
const DefaultDuration = "24h"

// Durations lists the symbolic sync durations in menu order.
var Durations = []string{"today", "24h", "3d", "7d", "30d", "90d"}

// ValidDuration reports whether s is a recognized symbolic duration.
func ValidDuration(s string) bool {
	for _, d := range Durations {
		if d == s {
			return true
		}
	}
	return false
}

// Window resolves a symbolic duration into a concrete [start, now] pair.
// Calendar-day durations normalize start to local midnight of the day N days
// back. "24h" subtracts a true rolling 24 hours first and only then
// normalizes to midnight, which near midnight is not the same day as
// "today", so the two stay separate branches.
func Window(duration string, now time.Time) (start, end time.Time, err error) {
	switch duration {
	case "today":
		return midnight(now), now, nil
	case "24h":
		return midnight(now.Add(-24 * time.Hour)), now, nil
	case "3d":
		return midnight(now.AddDate(0, 0, -3)), now, nil
	case "7d":
		return midnight(now.AddDate(0, 0, -7)), now, nil
	case "30d":
		return midnight(now.AddDate(0, 0, -30)), now, nil
	case "90d":
		return midnight(now.AddDate(0, 0, -90)), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown sync duration %q", duration)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
