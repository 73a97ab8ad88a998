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

func subjectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "credits", "is_practical", "batch_id", "created_at", "updated_at"}).
		AddRow("sub-algo", "CS201", "Algorithms", 3, false, "batch-1", time.Now(), time.Now())
}

func TestSubjectRepositoryListFiltersByBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE 1=1 AND batch_id = $1 ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WithArgs("batch-1").
		WillReturnRows(subjectRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE 1=1 AND batch_id = $1")).
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SubjectFilter{BatchID: "batch-1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByBatchIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE batch_id IN ($1) ORDER BY code")).
		WithArgs("batch-1").
		WillReturnRows(subjectRows())

	list, err := repo.ListByBatchIDs(context.Background(), []string{"batch-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS201", list[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateSetsTimestamps(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WithArgs(sqlmock.AnyArg(), "CS210L", "OS Lab", 1, true, "batch-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{Code: "CS210L", Name: "OS Lab", Credits: 1, IsPractical: true, BatchID: "batch-1"}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
