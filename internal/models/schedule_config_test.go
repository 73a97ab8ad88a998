package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() ScheduleConfig {
	return ScheduleConfig{
		ID:            "cfg-1",
		Name:          "Fall 2026",
		AcademicYear:  2026,
		Days:          []Weekday{Monday, Tuesday},
		PeriodsPerDay: 6,
		StartTime:     "08:30",
		LessonMinutes: 40,
		BatchIDs:      []string{"batch-1"},
	}
}

func TestScheduleConfigValidateCanonicalisesDays(t *testing.T) {
	cfg := validConfig()
	cfg.Days = []Weekday{"Monday", " friday "}
	cfg.Constraints.ThesisDay = "wednesday"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []Weekday{Monday, Friday}, cfg.Days)
	assert.Equal(t, Wednesday, cfg.Constraints.ThesisDay)
}

func TestScheduleConfigValidateRejectsUnknownDay(t *testing.T) {
	cfg := validConfig()
	cfg.Days = []Weekday{Monday, "Funday"}
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Constraints.ThesisDay = "midweek"
	require.Error(t, cfg.Validate())
}

func TestConstraintParamsApplyDefaults(t *testing.T) {
	params := ConstraintParams{ThesisDay: "wednesday"}
	params.ApplyDefaults()

	assert.Equal(t, 40, params.MaxIterations)
	assert.Equal(t, 100, params.AttemptBound)
	assert.Equal(t, 3, params.PracticalBlockSize)
	assert.Equal(t, Wednesday, params.ThesisDay)
}

func TestConstraintParamsMergedWithPrefersRowValues(t *testing.T) {
	row := ConstraintParams{MaxIterations: 25}
	merged := row.MergedWith(ConstraintParams{MaxIterations: 10, SeniorLabReserve: 2, ThesisDay: Thursday})

	assert.Equal(t, 25, merged.MaxIterations, "row-level override wins")
	assert.Equal(t, 2, merged.SeniorLabReserve, "unset fields take the environment default")
	assert.Equal(t, Thursday, merged.ThesisDay)
	assert.Zero(t, merged.MaxSubjectsPerDay, "fields absent from both stay zero for ApplyDefaults")
}
