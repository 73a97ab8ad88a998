package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/models"
)

func TestStalledDetectsFlatHistory(t *testing.T) {
	assert.False(t, stalled([]int{9}))
	assert.False(t, stalled([]int{9, 7}))
	assert.False(t, stalled([]int{9, 7, 5}))
	assert.True(t, stalled([]int{9, 5, 5, 5}))
	assert.True(t, stalled([]int{5, 5, 5}))
}

func TestStalledDetectsOscillation(t *testing.T) {
	assert.True(t, stalled([]int{4, 6, 4, 6}))
	assert.True(t, stalled([]int{9, 4, 6, 4, 6}))
	assert.False(t, stalled([]int{4, 6, 4}), "one echo is not yet a cycle")
	assert.False(t, stalled([]int{4, 6, 5, 6}))
}

func TestImproved(t *testing.T) {
	assert.True(t, improved([]int{5, 3}))
	assert.False(t, improved([]int{3, 3}))
	assert.False(t, improved([]int{3, 5}))
	assert.False(t, improved([]int{3}))
}

func TestEscalateLadder(t *testing.T) {
	next, ok := escalate(strategyTargeted)
	require.True(t, ok)
	assert.Equal(t, strategyGapFill, next)

	next, ok = escalate(strategyGapFill)
	require.True(t, ok)
	assert.Equal(t, strategyAggressive, next)

	_, ok = escalate(strategyAggressive)
	assert.False(t, ok)
}

func TestResolverRepairsSplitLabSession(t *testing.T) {
	snap := testSnapshot(testConfig())
	idx := newSnapshotIndex(snap)
	cross := NewCrossSemesterDetector(nil, snap.Config.ID, snap.Config.PeriodsPerDay)
	validator := NewValidator(snap.Config, idx, cross, nil)

	// A complete schedule except the practical session straddles two labs.
	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 3, true),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Monday, 4, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Tuesday, 1, false),
		entryFor("24SW", "sub-algo", "t-ayesha", "room-a", models.Wednesday, 1, false),
		entryFor("24SW", "sub-db", "t-bilal", "room-a", models.Tuesday, 2, false),
		entryFor("24SW", "sub-db", "t-bilal", "room-a", models.Wednesday, 2, false),
	}

	initial := validator.Validate(entries)
	require.NotZero(t, initial.Total)

	resolver := NewResolver(snap.Config, idx, cross, validator, snap.Classrooms, nil)
	outcome := resolver.Resolve(context.Background(), entries, initial)

	assert.True(t, outcome.Converged)
	assert.Zero(t, outcome.Report.Total)
	require.NotEmpty(t, outcome.Log)
	assert.Equal(t, string(strategyTargeted), outcome.Log[0].Strategy)

	labs := map[string]bool{}
	for _, entry := range outcome.Entries {
		if entry.IsPractical {
			labs[entry.ClassroomID] = true
		}
	}
	assert.Len(t, labs, 1)
}

func TestResolverSkipsWorkOnCleanInput(t *testing.T) {
	snap := testSnapshot(testConfig())
	idx := newSnapshotIndex(snap)
	cross := NewCrossSemesterDetector(nil, snap.Config.ID, snap.Config.PeriodsPerDay)
	validator := NewValidator(snap.Config, idx, cross, nil)
	resolver := NewResolver(snap.Config, idx, cross, validator, snap.Classrooms, nil)

	outcome := resolver.Resolve(context.Background(), nil, models.ValidationReport{})
	assert.True(t, outcome.Converged)
	assert.Zero(t, outcome.Iterations)
	assert.Empty(t, outcome.Log)
}

func TestResolverStopsAtCancelledContext(t *testing.T) {
	snap := testSnapshot(testConfig())
	idx := newSnapshotIndex(snap)
	cross := NewCrossSemesterDetector(nil, snap.Config.ID, snap.Config.PeriodsPerDay)
	validator := NewValidator(snap.Config, idx, cross, nil)
	resolver := NewResolver(snap.Config, idx, cross, validator, snap.Classrooms, nil)

	entries := []*models.Entry{
		entryFor("24SW", "sub-algo", "t-bilal", "room-a", models.Monday, 1, false),
	}
	initial := validator.Validate(entries)
	require.NotZero(t, initial.Total)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := resolver.Resolve(ctx, entries, initial)
	assert.False(t, outcome.Converged)
	assert.Zero(t, outcome.Iterations)
	assert.Equal(t, initial.Total, outcome.Report.Total)
	assert.Equal(t, entries, outcome.Entries)
}

func TestSortBySeverityDescOrdersWorstFirst(t *testing.T) {
	violations := []models.Violation{
		{Constraint: models.ConstraintCompactSchedule, Severity: models.SeverityLow},
		{Constraint: models.ConstraintTeacherConflict, Severity: models.SeverityCritical},
		{Constraint: models.ConstraintTheoryDistribution, Severity: models.SeverityMedium},
		{Constraint: models.ConstraintFridayLimit, Severity: models.SeverityHigh},
	}

	sortBySeverityDesc(violations)

	got := make([]models.Severity, 0, len(violations))
	for _, violation := range violations {
		got = append(got, violation.Severity)
	}
	assert.Equal(t, []models.Severity{
		models.SeverityCritical,
		models.SeverityHigh,
		models.SeverityMedium,
		models.SeverityLow,
	}, got)
}
