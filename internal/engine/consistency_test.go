package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/models"
)

func twoLabs() []models.Classroom {
	return []models.Classroom{
		{ID: "lab-1", Name: "Lab 1", Capacity: 40, IsLab: true},
		{ID: "lab-2", Name: "Lab 2", Capacity: 35, IsLab: true},
	}
}

func TestEnforceLabConsistencyReassignsMinority(t *testing.T) {
	cfg := testConfig()
	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 3, true),
	}
	ctx := BuildContext(cfg, entries)

	changed := EnforceLabConsistency(entries, ctx, twoLabs())
	assert.Equal(t, 1, changed)
	for _, entry := range entries {
		assert.Equal(t, "lab-1", entry.ClassroomID)
	}

	lab, ok := ctx.SessionLab(entries[0].Session())
	require.True(t, ok)
	assert.Equal(t, "lab-1", lab)

	assert.Zero(t, EnforceLabConsistency(entries, ctx, twoLabs()), "second run must be a no-op")
}

func TestEnforceLabConsistencyRelocatesBlockedSession(t *testing.T) {
	cfg := testConfig()
	// Another cohort holds the majority lab at the minority's period, so the
	// whole session has to move.
	blocker := entryFor("23SW", "sub-net", "t-bilal", "lab-1", models.Monday, 3, false)
	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-1", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 3, true),
		blocker,
	}
	ctx := BuildContext(cfg, entries)

	changed := EnforceLabConsistency(entries, ctx, twoLabs())
	assert.Equal(t, 2, changed)
	for _, entry := range entries[:3] {
		assert.Equal(t, "lab-2", entry.ClassroomID)
	}
	assert.Equal(t, "lab-1", blocker.ClassroomID, "the blocker itself never moves")
}

func TestEnforceLabConsistencyLeavesConsistentSessions(t *testing.T) {
	cfg := testConfig()
	entries := []*models.Entry{
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 1, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 2, true),
		entryFor("24SW", "sub-oslab", "t-sana", "lab-2", models.Monday, 3, true),
	}
	ctx := BuildContext(cfg, entries)

	assert.Zero(t, EnforceLabConsistency(entries, ctx, twoLabs()))
}
