// Package preferences decides whether a user accepts a push right now.
package preferences

import (
	"strconv"
	"strings"
	"time"

	"push-service/internal/models"
)

const minutesPerDay = 24 * 60

type Decision int

const (
	Admit Decision = iota
	BlockedDisabled
	BlockedQuietHours
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case BlockedDisabled:
		return "push_disabled"
	case BlockedQuietHours:
		return "quiet_hours"
	default:
		return "unknown"
	}
}

// Blocked reports whether the decision suppresses delivery.
func (d Decision) Blocked() bool {
	return d != Admit
}

// Evaluate gates a notification on the user's preference record. A missing
// record admits. Quiet hours are only applied when both bounds parse.
func Evaluate(pref *models.PreferenceRecord, now time.Time) Decision {
	if pref == nil {
		return Admit
	}
	if !pref.PushEnabled {
		return BlockedDisabled
	}
	if pref.QuietHoursStart == nil || pref.QuietHoursEnd == nil {
		return Admit
	}
	start, ok := ParseClock(*pref.QuietHoursStart)
	if !ok {
		return Admit
	}
	end, ok := ParseClock(*pref.QuietHoursEnd)
	if !ok {
		return Admit
	}
	if InQuietHours(now.Hour()*60+now.Minute(), start, end) {
		return BlockedQuietHours
	}
	return Admit
}

// InQuietHours reports whether minute falls in [start,end], wrapping past
// midnight when start > end.
func InQuietHours(minute, start, end int) bool {
	if start <= end {
		return minute >= start && minute <= end
	}
	return minute >= start || minute <= end
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	// Postgres time columns render as HH:MM:SS.
	if i := strings.IndexByte(mm, ':'); i >= 0 {
		mm = mm[:i]
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	minute := h*60 + m
	if minute >= minutesPerDay {
		return 0, false
	}
	return minute, true
}
