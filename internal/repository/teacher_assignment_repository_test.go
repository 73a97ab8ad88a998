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

func TestAssignmentRepositoryListByBatchIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "batch_id", "section", "created_at"}).
		AddRow("as-1", "t-ayesha", "sub-algo", "batch-1", "", time.Now()).
		AddRow("as-2", "t-bilal", "sub-db", "batch-2", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_assignments WHERE batch_id IN ($1, $2)")).
		WithArgs("batch-1", "batch-2").
		WillReturnRows(rows)

	list, err := repo.ListByBatchIDs(context.Background(), []string{"batch-1", "batch-2"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByBatchIDsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	list, err := repo.ListByBatchIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, list, "no batches means no query at all")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_assignments").
		WithArgs(sqlmock.AnyArg(), "t-ayesha", "sub-algo", "batch-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.TeacherAssignment{TeacherID: "t-ayesha", SubjectID: "sub-algo", BatchID: "batch-1"}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
