package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/dto"
	"github.com/muet-dev/timetable-api/internal/engine"
	"github.com/muet-dev/timetable-api/internal/models"
	appErrors "github.com/muet-dev/timetable-api/pkg/errors"
)

type fakeConfigRepo struct {
	cfg     *models.ScheduleConfig
	findErr error
	status  []models.ScheduleConfigStatus
}

func (f *fakeConfigRepo) FindByID(_ context.Context, id string) (*models.ScheduleConfig, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.cfg == nil || f.cfg.ID != id {
		return nil, sql.ErrNoRows
	}
	cfg := *f.cfg
	return &cfg, nil
}

func (f *fakeConfigRepo) UpdateStatus(_ context.Context, _ string, status models.ScheduleConfigStatus) error {
	f.status = append(f.status, status)
	return nil
}

type fakeCatalog struct {
	subjects    []models.Subject
	teachers    []models.Teacher
	classrooms  []models.Classroom
	batches     []models.Batch
	assignments []models.TeacherAssignment
}

func (f *fakeCatalog) ListByBatchIDs(_ context.Context, _ []string) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeCatalog) ListActive(_ context.Context) ([]models.Teacher, error) {
	return f.teachers, nil
}

func (f *fakeCatalog) ListAll(_ context.Context) ([]models.Classroom, error) {
	return f.classrooms, nil
}

func (f *fakeCatalog) ListByIDs(_ context.Context, _ []string) ([]models.Batch, error) {
	return f.batches, nil
}

type fakeAssignments struct {
	assignments []models.TeacherAssignment
}

func (f *fakeAssignments) ListByBatchIDs(_ context.Context, _ []string) ([]models.TeacherAssignment, error) {
	return f.assignments, nil
}

type fakeEntryStore struct {
	stored         map[string][]models.Entry
	committed      []models.Entry
	committedCalls int
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{stored: make(map[string][]models.Entry)}
}

func (f *fakeEntryStore) ListByConfig(_ context.Context, configID string) ([]models.Entry, error) {
	return f.stored[configID], nil
}

func (f *fakeEntryStore) ListCommittedForOtherConfigs(_ context.Context, _ string) ([]models.Entry, error) {
	f.committedCalls++
	return f.committed, nil
}

func (f *fakeEntryStore) List(_ context.Context, filter models.EntryFilter) ([]models.Entry, int, error) {
	entries := f.stored[filter.ConfigID]
	return entries, len(entries), nil
}

func (f *fakeEntryStore) ReplaceForConfig(_ context.Context, configID string, entries []models.Entry) error {
	f.stored[configID] = entries
	return nil
}

type fakeCommittedCache struct {
	entries     map[string][]models.Entry
	invalidated int
}

func newFakeCommittedCache() *fakeCommittedCache {
	return &fakeCommittedCache{entries: make(map[string][]models.Entry)}
}

func (f *fakeCommittedCache) GetCommittedEntries(_ context.Context, excludeConfigID string) ([]models.Entry, error) {
	entries, ok := f.entries[excludeConfigID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return entries, nil
}

func (f *fakeCommittedCache) SetCommittedEntries(_ context.Context, excludeConfigID string, entries []models.Entry, _ time.Duration) error {
	f.entries[excludeConfigID] = entries
	return nil
}

func (f *fakeCommittedCache) InvalidateCommitted(_ context.Context) error {
	f.invalidated++
	f.entries = make(map[string][]models.Entry)
	return nil
}

type serviceFixture struct {
	svc     *TimetableService
	configs *fakeConfigRepo
	entries *fakeEntryStore
	cache   *fakeCommittedCache
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	cfg := models.ScheduleConfig{
		ID:            "cfg-1",
		Name:          "Fall 2026",
		AcademicYear:  2026,
		Days:          []models.Weekday{models.Monday, models.Tuesday, models.Wednesday},
		PeriodsPerDay: 6,
		StartTime:     "08:30",
		LessonMinutes: 40,
		BatchIDs:      []string{"batch-1"},
		Status:        models.ScheduleConfigStatusDraft,
	}
	cfg.Constraints.ApplyDefaults()

	catalog := &fakeCatalog{
		subjects: []models.Subject{
			{ID: "sub-algo", Code: "CS201", Name: "Algorithms", Credits: 3, BatchID: "batch-1"},
			{ID: "sub-db", Code: "CS202", Name: "Databases", Credits: 2, BatchID: "batch-1"},
			{ID: "sub-oslab", Code: "CS210L", Name: "OS Lab", Credits: 1, IsPractical: true, BatchID: "batch-1"},
		},
		teachers: []models.Teacher{
			{ID: "t-ayesha", FullName: "Ayesha Khan", MaxPerDay: 6, Active: true},
			{ID: "t-bilal", FullName: "Bilal Memon", MaxPerDay: 6, Active: true},
			{ID: "t-sana", FullName: "Sana Qureshi", MaxPerDay: 6, Active: true},
		},
		classrooms: []models.Classroom{
			{ID: "room-a", Name: "Room A", Capacity: 60},
			{ID: "room-b", Name: "Room B", Capacity: 50},
			{ID: "lab-1", Name: "Lab 1", Capacity: 40, IsLab: true},
			{ID: "lab-2", Name: "Lab 2", Capacity: 35, IsLab: true},
		},
		batches: []models.Batch{
			{ID: "batch-1", Code: "24SW", IntakeYear: 2024, Semester: 3},
		},
	}
	assignments := &fakeAssignments{
		assignments: []models.TeacherAssignment{
			{ID: "as-1", TeacherID: "t-ayesha", SubjectID: "sub-algo", BatchID: "batch-1"},
			{ID: "as-2", TeacherID: "t-bilal", SubjectID: "sub-db", BatchID: "batch-1"},
			{ID: "as-3", TeacherID: "t-sana", SubjectID: "sub-oslab", BatchID: "batch-1"},
		},
	}

	fixture := &serviceFixture{
		configs: &fakeConfigRepo{cfg: &cfg},
		entries: newFakeEntryStore(),
		cache:   newFakeCommittedCache(),
	}
	fixture.svc = NewTimetableService(
		fixture.configs,
		catalog,
		catalog,
		catalog,
		catalog,
		assignments,
		fixture.entries,
		fixture.cache,
		engine.New(nil, nil),
		nil,
		nil,
		TimetableServiceConfig{},
	)
	return fixture
}

func TestTimetableServiceGenerateAndPublish(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	resp, err := fixture.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ProposalID)
	assert.True(t, resp.Report.Success)
	assert.NotEmpty(t, resp.Entries)

	saved, err := fixture.svc.Save(ctx, dto.SaveTimetableRequest{ProposalID: resp.ProposalID, Publish: true})
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", saved.ConfigID)
	assert.Equal(t, len(resp.Entries), saved.EntriesSaved)
	assert.True(t, saved.Published)

	assert.Len(t, fixture.entries.stored["cfg-1"], len(resp.Entries))
	require.Len(t, fixture.configs.status, 1)
	assert.Equal(t, models.ScheduleConfigStatusPublished, fixture.configs.status[0])
	assert.Equal(t, 1, fixture.cache.invalidated)

	// The proposal is consumed on save.
	_, err = fixture.svc.Save(ctx, dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceSaveWithoutPublishKeepsDraft(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	resp, err := fixture.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)

	saved, err := fixture.svc.Save(ctx, dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.False(t, saved.Published)
	assert.Empty(t, fixture.configs.status)
	assert.Zero(t, fixture.cache.invalidated)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateUnknownConfig(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ConfigID: "cfg-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateRejectsEmptyRequest(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceCommittedEntriesCacheFallback(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.entries.committed = []models.Entry{{
		ID:         "ext-1",
		ConfigID:   "cfg-other",
		ClassGroup: "22SW",
		Day:        models.Monday,
		Period:     1,
		SubjectID:  "sub-ext",
		TeacherID:  "t-ayesha",
	}}

	_, err := fixture.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.entries.committedCalls, "cache miss falls back to the store")
	assert.Len(t, fixture.cache.entries["cfg-1"], 1, "fallback result is written back")

	_, err = fixture.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.entries.committedCalls, "second run is served from the cache")
}

func TestTimetableServiceValidateStoredEntries(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	resp, err := fixture.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	_, err = fixture.svc.Save(ctx, dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	clean, err := fixture.svc.Validate(ctx, dto.ValidateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Zero(t, clean.Total)

	// Hand the databases teacher a class they are not assigned to.
	stored := fixture.entries.stored["cfg-1"]
	for i := range stored {
		if stored[i].SubjectID == "sub-algo" {
			stored[i].TeacherID = "t-bilal"
			break
		}
	}

	dirty, err := fixture.svc.Validate(ctx, dto.ValidateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Greater(t, dirty.Total, 0)
	assert.NotEmpty(t, dirty.Breakdown[models.ConstraintTeacherAssignment])
}

func TestTimetableServiceGetTimetableFilters(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.entries.stored["cfg-1"] = []models.Entry{
		{ID: "e-1", ConfigID: "cfg-1", ClassGroup: "24SW", Day: models.Monday, Period: 1, SubjectID: "sub-algo"},
	}

	entries, err := fixture.svc.GetTimetable(ctx, dto.TimetableQuery{ConfigID: "cfg-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = fixture.svc.GetTimetable(ctx, dto.TimetableQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalStoreExpiry(t *testing.T) {
	store := newProposalStore(10 * time.Millisecond)
	store.Save(timetableProposal{
		ProposalID:  "p-1",
		ConfigID:    "cfg-1",
		RequestedAt: time.Now().Add(-time.Minute),
	})

	_, ok := store.Get("p-1")
	assert.False(t, ok, "expired proposals are evicted on read")

	store.Save(timetableProposal{ProposalID: "p-2", ConfigID: "cfg-1", RequestedAt: time.Now()})
	proposal, ok := store.Get("p-2")
	require.True(t, ok)
	assert.Equal(t, "cfg-1", proposal.ConfigID)
}

type recordingEngine struct {
	snap engine.Snapshot
}

func (e *recordingEngine) Run(_ context.Context, snap engine.Snapshot) (*models.ScheduleReport, []models.Entry, error) {
	e.snap = snap
	return &models.ScheduleReport{ConfigID: snap.Config.ID, Converged: true, Success: true}, nil, nil
}

func (e *recordingEngine) Validate(snap engine.Snapshot, _ []models.Entry) (models.ValidationReport, error) {
	e.snap = snap
	return models.ValidationReport{}, nil
}

func TestGenerateMergesEngineDefaultsIntoConstraints(t *testing.T) {
	fixture := newServiceFixture(t)

	cfg := *fixture.configs.cfg
	cfg.Constraints = models.ConstraintParams{MaxIterations: 25}
	fixture.configs.cfg = &cfg

	rec := &recordingEngine{}
	fixture.svc.engine = rec
	fixture.svc.constraints = models.ConstraintParams{
		MaxIterations:               10,
		SeniorLabReserve:            2,
		FridayLimitWithoutPractical: 3,
	}

	_, err := fixture.svc.Generate(context.Background(), dto.GenerateTimetableRequest{ConfigID: "cfg-1"})
	require.NoError(t, err)

	merged := rec.snap.Config.Constraints
	assert.Equal(t, 25, merged.MaxIterations, "row-level value survives the merge")
	assert.Equal(t, 2, merged.SeniorLabReserve, "environment default reaches the engine")
	assert.Equal(t, 3, merged.FridayLimitWithoutPractical)
}
