package models

import (
	"fmt"
	"time"

	appErrors "github.com/muet-dev/timetable-api/pkg/errors"
)

// ScheduleConfigStatus represents lifecycle phases for a scheduling run.
type ScheduleConfigStatus string

const (
	ScheduleConfigStatusDraft     ScheduleConfigStatus = "DRAFT"
	ScheduleConfigStatusPublished ScheduleConfigStatus = "PUBLISHED"
	ScheduleConfigStatusArchived  ScheduleConfigStatus = "ARCHIVED"
)

// ConstraintParams is the closed set of tunable constraint parameters. All
// fields have defaults applied by ApplyDefaults and are validated once at
// config load, never re-interpreted mid-run.
type ConstraintParams struct {
	MaxSubjectsPerDay           int     `json:"max_subjects_per_day"`
	FridayLimitWithPractical    int     `json:"friday_limit_with_practical"`
	FridayLimitWithoutPractical int     `json:"friday_limit_without_practical"`
	MinDailyClasses             int     `json:"min_daily_classes"`
	MaxIterations               int     `json:"max_iterations"`
	AttemptBound                int     `json:"attempt_bound"`
	PracticalBlockSize          int     `json:"practical_block_size"`
	SeniorLabReserve            int     `json:"senior_lab_reserve"`
	TeacherBreakAfter           int     `json:"teacher_break_after"`
	ThesisDay                   Weekday `json:"thesis_day"`
}

var constraintDefaults = ConstraintParams{
	MaxSubjectsPerDay:           4,
	FridayLimitWithPractical:    4,
	FridayLimitWithoutPractical: 3,
	MinDailyClasses:             2,
	MaxIterations:               40,
	AttemptBound:                100,
	PracticalBlockSize:          3,
	SeniorLabReserve:            4,
	TeacherBreakAfter:           2,
	ThesisDay:                   Wednesday,
}

// MergedWith fills zero-valued parameters from the given defaults; values
// already set on the row win.
func (p ConstraintParams) MergedWith(defaults ConstraintParams) ConstraintParams {
	merged := p
	if merged.MaxSubjectsPerDay <= 0 {
		merged.MaxSubjectsPerDay = defaults.MaxSubjectsPerDay
	}
	if merged.FridayLimitWithPractical <= 0 {
		merged.FridayLimitWithPractical = defaults.FridayLimitWithPractical
	}
	if merged.FridayLimitWithoutPractical <= 0 {
		merged.FridayLimitWithoutPractical = defaults.FridayLimitWithoutPractical
	}
	if merged.MinDailyClasses <= 0 {
		merged.MinDailyClasses = defaults.MinDailyClasses
	}
	if merged.MaxIterations <= 0 {
		merged.MaxIterations = defaults.MaxIterations
	}
	if merged.AttemptBound <= 0 {
		merged.AttemptBound = defaults.AttemptBound
	}
	if merged.PracticalBlockSize <= 0 {
		merged.PracticalBlockSize = defaults.PracticalBlockSize
	}
	if merged.SeniorLabReserve <= 0 {
		merged.SeniorLabReserve = defaults.SeniorLabReserve
	}
	if merged.TeacherBreakAfter <= 0 {
		merged.TeacherBreakAfter = defaults.TeacherBreakAfter
	}
	if merged.ThesisDay == "" {
		merged.ThesisDay = defaults.ThesisDay
	}
	return merged
}

// ApplyDefaults fills zero-valued parameters and canonicalises the thesis
// day so case never decides whether the check fires.
func (p *ConstraintParams) ApplyDefaults() {
	if p.ThesisDay != "" {
		p.ThesisDay = ParseWeekday(string(p.ThesisDay))
	}
	*p = p.MergedWith(constraintDefaults)
}

// ScheduleConfig is the immutable scheduling request for one run.
type ScheduleConfig struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	AcademicYear  int                  `json:"academic_year"`
	Days          []Weekday            `json:"days"`
	PeriodsPerDay int                  `json:"periods_per_day"`
	StartTime     string               `json:"start_time"`
	LessonMinutes int                  `json:"lesson_minutes"`
	BatchIDs      []string             `json:"batch_ids"`
	Constraints   ConstraintParams     `json:"constraints"`
	Status        ScheduleConfigStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Validate fails fast on configurations no scheduling attempt can repair.
// Day values are canonicalised in place so every engine comparison sees the
// uppercase form regardless of how the row was stored.
func (c *ScheduleConfig) Validate() error {
	if len(c.Days) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "config has no teaching days")
	}
	for i, day := range c.Days {
		if !day.Valid() {
			return appErrors.Clone(appErrors.ErrInvalidConfig, fmt.Sprintf("unknown weekday %q", day))
		}
		c.Days[i] = ParseWeekday(string(day))
	}
	if c.Constraints.ThesisDay != "" && !c.Constraints.ThesisDay.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidConfig, fmt.Sprintf("unknown thesis day %q", c.Constraints.ThesisDay))
	}
	if c.Constraints.ThesisDay != "" {
		c.Constraints.ThesisDay = ParseWeekday(string(c.Constraints.ThesisDay))
	}
	if c.PeriodsPerDay <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "periods per day must be positive")
	}
	if c.StartTime == "" {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "day start time is required")
	}
	if _, err := time.Parse("15:04", c.StartTime); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidConfig, fmt.Sprintf("invalid start time %q", c.StartTime))
	}
	if c.LessonMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "lesson duration must be positive")
	}
	if len(c.BatchIDs) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "config selects no batches")
	}
	if c.Constraints.PracticalBlockSize > c.PeriodsPerDay {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "practical block does not fit into one day")
	}
	return nil
}

// PeriodTimes derives the wall-clock start and end of a 1-based period.
func (c ScheduleConfig) PeriodTimes(period int) (string, string) {
	start, err := time.Parse("15:04", c.StartTime)
	if err != nil {
		return "", ""
	}
	from := start.Add(time.Duration(period-1) * time.Duration(c.LessonMinutes) * time.Minute)
	to := from.Add(time.Duration(c.LessonMinutes) * time.Minute)
	return from.Format("15:04"), to.Format("15:04")
}
