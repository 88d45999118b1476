package preferences

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"push-service/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 19, hour, minute, 0, 0, time.UTC)
}

func quiet(start, end string) *models.PreferenceRecord {
	return &models.PreferenceRecord{PushEnabled: true, QuietHoursStart: &start, QuietHoursEnd: &end}
}

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		name string
		pref *models.PreferenceRecord
		now  time.Time
		want Decision
	}{
		{name: "no record fails open", pref: nil, now: at(3, 0), want: Admit},
		{name: "push disabled", pref: &models.PreferenceRecord{PushEnabled: false}, now: at(12, 0), want: BlockedDisabled},
		{name: "disabled wins over quiet hours", pref: &models.PreferenceRecord{PushEnabled: false, QuietHoursStart: strPtr("00:00"), QuietHoursEnd: strPtr("23:59")}, now: at(12, 0), want: BlockedDisabled},
		{name: "enabled without quiet hours", pref: &models.PreferenceRecord{PushEnabled: true}, now: at(3, 0), want: Admit},
		{name: "only start bound", pref: &models.PreferenceRecord{PushEnabled: true, QuietHoursStart: strPtr("22:00")}, now: at(23, 0), want: Admit},
		{name: "wrapping window late evening", pref: quiet("22:00", "06:00"), now: at(23, 30), want: BlockedQuietHours},
		{name: "wrapping window early morning", pref: quiet("22:00", "06:00"), now: at(5, 0), want: BlockedQuietHours},
		{name: "wrapping window midday", pref: quiet("22:00", "06:00"), now: at(12, 0), want: Admit},
		{name: "wrapping window start inclusive", pref: quiet("22:00", "06:00"), now: at(22, 0), want: BlockedQuietHours},
		{name: "wrapping window end inclusive", pref: quiet("22:00", "06:00"), now: at(6, 0), want: BlockedQuietHours},
		{name: "wrapping window just after end", pref: quiet("22:00", "06:00"), now: at(6, 1), want: Admit},
		{name: "daytime window inside", pref: quiet("09:00", "17:00"), now: at(12, 0), want: BlockedQuietHours},
		{name: "daytime window outside", pref: quiet("09:00", "17:00"), now: at(20, 0), want: Admit},
		{name: "daytime window end inclusive", pref: quiet("09:00", "17:00"), now: at(17, 0), want: BlockedQuietHours},
		{name: "single minute window", pref: quiet("13:15", "13:15"), now: at(13, 15), want: BlockedQuietHours},
		{name: "malformed bound admits", pref: quiet("late", "06:00"), now: at(23, 30), want: Admit},
		{name: "seconds suffix accepted", pref: quiet("22:00:00", "06:00:00"), now: at(23, 30), want: BlockedQuietHours},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.pref, tc.now))
		})
	}
}

func TestParseClock(t *testing.T) {
	m, ok := ParseClock("06:30")
	assert.True(t, ok)
	assert.Equal(t, 390, m)

	for _, bad := range []string{"", "24:00", "12:60", "ab:cd", "1230"} {
		_, ok := ParseClock(bad)
		assert.False(t, ok, bad)
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "quiet_hours", BlockedQuietHours.String())
	assert.Equal(t, "push_disabled", BlockedDisabled.String())
	assert.False(t, Admit.Blocked())
	assert.True(t, BlockedQuietHours.Blocked())
}

func strPtr(s string) *string { return &s }
