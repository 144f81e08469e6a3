// Package schedule decides which actions are due at a given wall-clock
// minute. It is pure time arithmetic; the orchestrator owns the ticker
// and the market-calendar gate.
package schedule

import (
	"fmt"
	"time"

	"swingtrader/internal/botfail"
)

// Trigger names one scheduled action.
type Trigger string

const (
	TriggerPremarketScan Trigger = "premarket_scan"
	TriggerEntryScan     Trigger = "entry_scan"
	TriggerExitCheck     Trigger = "exit_check"
	TriggerForcedClose   Trigger = "forced_close"
	TriggerDailySummary  Trigger = "daily_summary"
)

// Config holds the daily timetable. Times are "HH:MM" in Timezone.
type Config struct {
	Timezone       string `yaml:"timezone"`
	PremarketScan  string `yaml:"premarket_scan"`
	OpeningScan    string `yaml:"opening_scan"`
	ScanStart      string `yaml:"scan_start"`
	ScanEnd        string `yaml:"scan_end"`
	ScanIntervalM  int    `yaml:"scan_interval_minutes"`
	ExitIntervalM  int    `yaml:"exit_interval_minutes"`
	FridayCloseAt  string `yaml:"friday_close_at"`
	DailySummaryAt string `yaml:"daily_summary_at"`
}

// DefaultConfig is the standard US-equities swing timetable: premarket
// movers at 09:00, an opening scan at 09:45, half-hourly scans through
// 15:30, exit checks every 15 minutes, Friday liquidation at 15:00 and
// the daily summary at 16:15, all Eastern.
func DefaultConfig() Config {
	return Config{
		Timezone:       "America/New_York",
		PremarketScan:  "09:00",
		OpeningScan:    "09:45",
		ScanStart:      "10:00",
		ScanEnd:        "15:30",
		ScanIntervalM:  30,
		ExitIntervalM:  15,
		FridayCloseAt:  "15:00",
		DailySummaryAt: "16:15",
	}
}

type minuteOfDay int

func parseMinute(s string) (minuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, botfail.NewConfigError("schedule", fmt.Sprintf("bad time %q", s), err)
	}
	return minuteOfDay(t.Hour()*60 + t.Minute()), nil
}

// Schedule answers Due for successive minutes. Safe for concurrent use;
// it carries no mutable state.
type Schedule struct {
	loc           *time.Location
	premarket     minuteOfDay
	openingScan   minuteOfDay
	scanStart     minuteOfDay
	scanEnd       minuteOfDay
	scanInterval  int
	exitInterval  int
	fridayClose   minuteOfDay
	dailySummary  minuteOfDay
	exitWindowEnd minuteOfDay
}

func New(cfg Config) (*Schedule, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, botfail.NewConfigError("schedule", fmt.Sprintf("bad timezone %q", cfg.Timezone), err)
	}
	if cfg.ScanIntervalM <= 0 || cfg.ExitIntervalM <= 0 {
		return nil, botfail.NewConfigError("schedule", "intervals must be positive", nil)
	}

	s := &Schedule{loc: loc, scanInterval: cfg.ScanIntervalM, exitInterval: cfg.ExitIntervalM}
	for _, f := range []struct {
		dst *minuteOfDay
		val string
	}{
		{&s.premarket, cfg.PremarketScan},
		{&s.openingScan, cfg.OpeningScan},
		{&s.scanStart, cfg.ScanStart},
		{&s.scanEnd, cfg.ScanEnd},
		{&s.fridayClose, cfg.FridayCloseAt},
		{&s.dailySummary, cfg.DailySummaryAt},
	} {
		if *f.dst, err = parseMinute(f.val); err != nil {
			return nil, err
		}
	}
	if s.scanEnd < s.scanStart {
		return nil, botfail.NewConfigError("schedule", "scan window ends before it starts", nil)
	}
	// Exit checks run from the opening scan until the close.
	s.exitWindowEnd = 16 * 60
	return s, nil
}

// Location returns the schedule's timezone.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Due returns the triggers for the minute containing now. Weekends get
// nothing. Triggers are ordered so exits always precede entries within
// a tick.
func (s *Schedule) Due(now time.Time) []Trigger {
	local := now.In(s.loc)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return nil
	}
	minute := minuteOfDay(local.Hour()*60 + local.Minute())

	var due []Trigger
	if minute == s.premarket {
		due = append(due, TriggerPremarketScan)
	}
	if s.exitCheckDue(minute) {
		due = append(due, TriggerExitCheck)
	}
	if wd == time.Friday && minute == s.fridayClose {
		due = append(due, TriggerForcedClose)
	} else if s.entryScanDue(minute) {
		due = append(due, TriggerEntryScan)
	}
	if minute == s.dailySummary {
		due = append(due, TriggerDailySummary)
	}
	return due
}

func (s *Schedule) entryScanDue(m minuteOfDay) bool {
	if m == s.openingScan {
		return true
	}
	if m < s.scanStart || m > s.scanEnd {
		return false
	}
	return int(m-s.scanStart)%s.scanInterval == 0
}

func (s *Schedule) exitCheckDue(m minuteOfDay) bool {
	if m < s.openingScan || m >= s.exitWindowEnd {
		return false
	}
	return int(m-s.openingScan)%s.exitInterval == 0
}
