package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/muet-dev/timetable-api/internal/models"
)

// TeacherAssignmentRepository handles teacher-subject qualification records.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository creates a new repository instance.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByBatchIDs returns assignments for the given batches.
func (r *TeacherAssignmentRepository) ListByBatchIDs(ctx context.Context, batchIDs []string) ([]models.TeacherAssignment, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT id, teacher_id, subject_id, batch_id, section, created_at FROM teacher_assignments WHERE batch_id IN (?) ORDER BY teacher_id, subject_id", batchIDs)
	if err != nil {
		return nil, fmt.Errorf("build assignment query: %w", err)
	}
	query = r.db.Rebind(query)

	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments by batch: %w", err)
	}
	return assignments, nil
}

// ListByTeacher returns every assignment held by a teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, subject_id, batch_id, section, created_at FROM teacher_assignments WHERE teacher_id = $1 ORDER BY subject_id`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments by teacher: %w", err)
	}
	return assignments, nil
}

// Create persists a new assignment.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (id, teacher_id, subject_id, batch_id, section, created_at) VALUES (:id, :teacher_id, :subject_id, :batch_id, :section, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teacher_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
