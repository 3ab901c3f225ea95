package presenter

import (
	"fmt"
	"time"
)

const displayLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02 15:04:05 -0700",
	displayLayout,
}

// FormatTime renders a commit timestamp as relative and absolute local time,
// e.g. "3 hours ago (2026-01-10 10:00:00)", and reports whether it falls on
// the same calendar day as now. Unparseable input yields "unknown".
func FormatTime(ts string, now time.Time) (string, bool) {
	t, ok := parseTime(ts)
	if !ok {
		return "unknown", false
	}

	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	today := y1 == y2 && m1 == m2 && d1 == d2

	return fmt.Sprintf("%s (%s)", relative(now.Sub(t)), t.Format(displayLayout)), today
}

func parseTime(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func relative(d time.Duration) string {
	minutes := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(days, "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
