package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/models"
)

func newTestValidator(snap Snapshot) *Validator {
	idx := newSnapshotIndex(snap)
	cross := NewCrossSemesterDetector(snap.Committed, snap.Config.ID, snap.Config.PeriodsPerDay)
	return NewValidator(snap.Config, idx, cross, nil)
}

func entryFor(classGroup, subjectID, teacherID, roomID string, day models.Weekday, period int, practical bool) *models.Entry {
	return &models.Entry{
		ID:          subjectID + "-" + string(day) + "-" + string(rune('0'+period)),
		ConfigID:    "cfg-1",
		ClassGroup:  classGroup,
		Kind:        models.EntryRegular,
		Day:         day,
		Period:      period,
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		ClassroomID: roomID,
		IsPractical: practical,
	}
}

func TestValidatorFlagsTeacherDoubleBooking(t *testing.T) {
	snap := testSnapshot(testConfig())
	snap.Batches = append(snap.Batches, models.Batch{ID: "batch-2", Code: "23SW", Semester: 5})
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
		entryFor("23SW", "sub-algo", "t-ayesha", "room-b", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	violations := report.ByConstraint[models.ConstraintTeacherConflict]
	require.Len(t, violations, 1)
	assert.Equal(t, models.SeverityCritical, violations[0].Severity)
	assert.Equal(t, "t-ayesha", violations[0].TeacherID)
}

func TestValidatorFlagsRoomDoubleBooking(t *testing.T) {
	snap := testSnapshot(testConfig())
	snap.Batches = append(snap.Batches, models.Batch{ID: "batch-2", Code: "23SW", Semester: 5})
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 2, false),
		entryFor("23SW", "sub-db", "t-bilal", "room-a", models.Monday, 2, false),
	}

	report := validator.Validate(entries)
	assert.Len(t, report.ByConstraint[models.ConstraintRoomConflict], 1)
}

func TestValidatorFlagsSplitPracticalSession(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 3, true),
	}

	report := validator.Validate(entries)
	sameLab := report.ByConstraint[models.ConstraintSameLab]
	require.Len(t, sameLab, 1)
	assert.Equal(t, models.SeverityCritical, sameLab[0].Severity)
}

func TestValidatorFlagsNonConsecutivePractical(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 5, true),
	}

	report := validator.Validate(entries)
	assert.NotEmpty(t, report.ByConstraint[models.ConstraintPracticalBlock])
}

func TestValidatorFlagsSubjectFrequencyShortfall(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	// Only one of three required algorithm classes present, databases and the
	// lab completely missing.
	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	frequency := report.ByConstraint[models.ConstraintSubjectFrequency]
	assert.Len(t, frequency, 3)
}

func TestValidatorFlagsLateFridayTheory(t *testing.T) {
	cfg := testConfig(models.Monday, models.Friday)
	snap := testSnapshot(cfg)
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Friday, 2, false),
		entryFor("24SW", "sub-db", "t-bilal", "room-a", models.Friday, 5, false),
	}

	report := validator.Validate(entries)
	friday := report.ByConstraint[models.ConstraintFridayLimit]
	require.Len(t, friday, 1)
	assert.Equal(t, 5, friday[0].Period)
}

func TestValidatorFridayLimitRelaxedWithPractical(t *testing.T) {
	cfg := testConfig(models.Monday, models.Friday)
	snap := testSnapshot(cfg)
	validator := newTestValidator(snap)

	// With a practical on Friday the theory limit moves from 3 to 4.
	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Friday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Friday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Friday, 3, true),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Friday, 4, false),
	}

	report := validator.Validate(entries)
	assert.Empty(t, report.ByConstraint[models.ConstraintFridayLimit])
}

func TestValidatorFlagsUnassignedTeacher(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-bilal", "room-a", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	assert.NotEmpty(t, report.ByConstraint[models.ConstraintTeacherAssignment])
}

func TestValidatorFlagsPracticalInRegularRoom(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "room-a", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "room-a", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "room-a", models.Monday, 3, true),
	}

	report := validator.Validate(entries)
	assert.Len(t, report.ByConstraint[models.ConstraintRoomType], 3)
}

func TestValidatorFlagsJuniorTheoryInLab(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "lab-1", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	assert.NotEmpty(t, report.ByConstraint[models.ConstraintSeniorityPriority])
}

func TestValidatorAllowsSeniorTheoryInLab(t *testing.T) {
	snap := testSnapshot(testConfig())
	snap.Batches[0].Semester = 6
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "lab-1", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	assert.Empty(t, report.ByConstraint[models.ConstraintSeniorityPriority])
}

func TestValidatorFlagsCrossSemesterCollision(t *testing.T) {
	snap := testSnapshot(testConfig())
	snap.Committed = []models.Entry{{
		ID:         "ext-1",
		ConfigID:   "cfg-other",
		ClassGroup: "22SW",
		Day:        models.Monday,
		Period:     1,
		SubjectID:  "sub-ext",
		TeacherID:  "t-ayesha",
	}}
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	assert.NotEmpty(t, report.ByConstraint[models.ConstraintCrossSemester])
}

func TestValidatorHarmonyScoreDropsWithViolations(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	clean := validator.Validate(nil)
	dirty := validator.Validate([]*models.Entry{
		entryFor("24SW", "sub-algo", "t-bilal", "lab-1", models.Monday, 1, false),
	})

	// An empty entry set still misses every required class.
	assert.Less(t, dirty.HarmonyScore, 100.0)
	assert.Less(t, clean.HarmonyScore, 100.0)
	assert.Greater(t, dirty.Total, 0)
}

func TestValidatorFlagsTheoryTwiceOnOneDay(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 3, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Tuesday, 1, false),
	}

	report := validator.Validate(entries)
	distribution := report.ByConstraint[models.ConstraintTheoryDistribution]
	require.Len(t, distribution, 1)
	assert.Equal(t, models.SeverityMedium, distribution[0].Severity)
	assert.Equal(t, models.Monday, distribution[0].Day)
}

func TestValidatorFlagsSingleClassDay(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
	}

	report := validator.Validate(entries)
	minDaily := report.ByConstraint[models.ConstraintMinDailyClasses]
	require.Len(t, minDaily, 1)
	assert.Equal(t, models.Monday, minDaily[0].Day)
	assert.Equal(t, models.SeverityMedium, minDaily[0].Severity)
}

func TestValidatorFlagsPracticalOnlyDay(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 3, true),
	}

	report := validator.Validate(entries)
	minDaily := report.ByConstraint[models.ConstraintMinDailyClasses]
	require.Len(t, minDaily, 1)
	assert.Contains(t, minDaily[0].Description, "only practical classes")
}

func TestValidatorFlagsTeacherDailyCapExceeded(t *testing.T) {
	snap := testSnapshot(testConfig())
	snap.Teachers[0].MaxPerDay = 2
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 2, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 3, false),
	}

	report := validator.Validate(entries)
	capped := report.ByConstraint[models.ConstraintTeacherDailyCap]
	require.Len(t, capped, 1)
	assert.Equal(t, "t-ayesha", capped[0].TeacherID)
	assert.Equal(t, models.Monday, capped[0].Day)
}

func TestValidatorFlagsScheduleGaps(t *testing.T) {
	snap := testSnapshot(testConfig())
	validator := newTestValidator(snap)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 1, false),
		entryFor("24SW", "sub-db", "t-bilal", "room-a", models.Monday, 4, false),
	}

	report := validator.Validate(entries)
	compact := report.ByConstraint[models.ConstraintCompactSchedule]
	require.Len(t, compact, 1)
	assert.Equal(t, models.SeverityLow, compact[0].Severity)
	assert.Equal(t, 4, compact[0].Period)
}
