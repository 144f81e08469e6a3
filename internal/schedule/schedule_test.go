package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	return s
}

// et builds a local Eastern time on the given date.
func et(t *testing.T, s *Schedule, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, s.Location())
}

func TestDue_Weekend(t *testing.T) {
	s := newTestSchedule(t)
	// 2026-03-07 is a Saturday.
	assert.Empty(t, s.Due(et(t, s, 2026, 3, 7, 10, 30)))
	assert.Empty(t, s.Due(et(t, s, 2026, 3, 8, 10, 30)))
}

func TestDue_Premarket(t *testing.T) {
	s := newTestSchedule(t)
	// 2026-03-02 is a Monday.
	got := s.Due(et(t, s, 2026, 3, 2, 9, 0))
	assert.Equal(t, []Trigger{TriggerPremarketScan}, got)
}

func TestDue_OpeningScanIncludesExitCheck(t *testing.T) {
	s := newTestSchedule(t)
	got := s.Due(et(t, s, 2026, 3, 2, 9, 45))
	assert.Equal(t, []Trigger{TriggerExitCheck, TriggerEntryScan}, got, "exits run before entries")
}

func TestDue_ExitChecksEveryFifteenScansEveryThirty(t *testing.T) {
	s := newTestSchedule(t)

	// On the quarter hours between scans only the exit check fires.
	got := s.Due(et(t, s, 2026, 3, 2, 10, 15))
	assert.Equal(t, []Trigger{TriggerExitCheck}, got)

	got = s.Due(et(t, s, 2026, 3, 2, 10, 45))
	assert.Equal(t, []Trigger{TriggerExitCheck}, got)

	// On the half hour both fire.
	got = s.Due(et(t, s, 2026, 3, 2, 10, 30))
	assert.Equal(t, []Trigger{TriggerExitCheck, TriggerEntryScan}, got)
}

func TestDue_OffMinuteIsQuiet(t *testing.T) {
	s := newTestSchedule(t)
	assert.Empty(t, s.Due(et(t, s, 2026, 3, 2, 10, 17)))
	assert.Empty(t, s.Due(et(t, s, 2026, 3, 2, 8, 30)))
	assert.Empty(t, s.Due(et(t, s, 2026, 3, 2, 18, 0)))
}

func TestDue_ScanWindowEnds(t *testing.T) {
	s := newTestSchedule(t)

	got := s.Due(et(t, s, 2026, 3, 2, 15, 30))
	assert.Contains(t, got, TriggerEntryScan, "last scan of the day")

	got = s.Due(et(t, s, 2026, 3, 2, 16, 0))
	assert.NotContains(t, got, TriggerEntryScan)
	assert.NotContains(t, got, TriggerExitCheck, "exit checks stop at the close")
}

func TestDue_FridayForcedCloseReplacesScan(t *testing.T) {
	s := newTestSchedule(t)
	// 2026-03-06 is a Friday; 15:00 is both a scan slot and the close.
	got := s.Due(et(t, s, 2026, 3, 6, 15, 0))
	assert.Contains(t, got, TriggerForcedClose)
	assert.NotContains(t, got, TriggerEntryScan)

	// Same minute on a Thursday is an ordinary scan.
	got = s.Due(et(t, s, 2026, 3, 5, 15, 0))
	assert.Contains(t, got, TriggerEntryScan)
	assert.NotContains(t, got, TriggerForcedClose)
}

func TestDue_DailySummary(t *testing.T) {
	s := newTestSchedule(t)
	got := s.Due(et(t, s, 2026, 3, 2, 16, 15))
	assert.Equal(t, []Trigger{TriggerDailySummary}, got)
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.PremarketScan = "9am"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.ScanEnd = "09:00"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.ExitIntervalM = 0
	_, err = New(cfg)
	assert.Error(t, err)
}
