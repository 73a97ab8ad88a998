package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/models"
)

func TestScheduleConfigRepositoryFindByIDDecodesJSON(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "name", "academic_year", "days", "periods_per_day", "start_time",
		"lesson_minutes", "batch_ids", "constraints", "status", "created_at", "updated_at",
	}).AddRow(
		"cfg-1", "Fall 2026", 2026,
		[]byte(`["MONDAY","TUESDAY"]`), 6, "08:30", 40,
		[]byte(`["batch-1"]`),
		[]byte(`{"max_iterations":25,"thesis_day":"WEDNESDAY"}`),
		"DRAFT", time.Now(), time.Now(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_configs WHERE id = $1")).
		WithArgs("cfg-1").
		WillReturnRows(rows)

	cfg, err := repo.FindByID(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, []models.Weekday{models.Monday, models.Tuesday}, cfg.Days)
	assert.Equal(t, []string{"batch-1"}, cfg.BatchIDs)
	assert.Equal(t, 25, cfg.Constraints.MaxIterations)
	assert.Equal(t, models.Wednesday, cfg.Constraints.ThesisDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleConfigRepositoryCreateDefaultsToDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	mock.ExpectExec("INSERT INTO schedule_configs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.ScheduleConfig{
		Name:          "Fall 2026",
		AcademicYear:  2026,
		Days:          []models.Weekday{models.Monday},
		PeriodsPerDay: 6,
		StartTime:     "08:30",
		LessonMinutes: 40,
		BatchIDs:      []string{"batch-1"},
	}
	require.NoError(t, repo.Create(context.Background(), cfg))
	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, models.ScheduleConfigStatusDraft, cfg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleConfigRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleConfigRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_configs SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.ScheduleConfigStatusPublished, sqlmock.AnyArg(), "cfg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "cfg-1", models.ScheduleConfigStatusPublished))
	assert.NoError(t, mock.ExpectationsWereMet())
}
