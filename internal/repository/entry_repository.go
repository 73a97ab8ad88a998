package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/muet-dev/timetable-api/internal/models"
)

const entryColumns = "id, config_id, class_group, kind, day_of_week, period, subject_id, teacher_id, classroom_id, is_practical, start_time, end_time, created_at, updated_at"

// EntryRepository handles persistence for timetable entries.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new repository instance.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListByConfig returns every entry of one config, grid order.
func (r *EntryRepository) ListByConfig(ctx context.Context, configID string) ([]models.Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE config_id = $1 ORDER BY class_group, day_of_week, period", entryColumns)
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, configID); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// ListCommittedForOtherConfigs returns published entries outside the given
// config, the input for cross-semester conflict detection.
func (r *EntryRepository) ListCommittedForOtherConfigs(ctx context.Context, excludeConfigID string) ([]models.Entry, error) {
	query := fmt.Sprintf(`SELECT e.%s FROM schedule_entries e JOIN schedule_configs c ON c.id = e.config_id WHERE e.config_id <> $1 AND c.status = $2 ORDER BY e.config_id, e.class_group, e.day_of_week, e.period`,
		strings.ReplaceAll(entryColumns, ", ", ", e."))
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, excludeConfigID, models.ScheduleConfigStatusPublished); err != nil {
		return nil, fmt.Errorf("list committed entries: %w", err)
	}
	return entries, nil
}

// List returns entries matching filters with pagination metadata.
func (r *EntryRepository) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, int, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ConfigID != "" {
		conditions = append(conditions, fmt.Sprintf("config_id = $%d", len(args)+1))
		args = append(args, filter.ConfigID)
	}
	if filter.ClassGroup != "" {
		conditions = append(conditions, fmt.Sprintf("class_group = $%d", len(args)+1))
		args = append(args, filter.ClassGroup)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY class_group, day_of_week, period LIMIT %d OFFSET %d", entryColumns, base, size, offset)
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	return entries, total, nil
}

// ReplaceForConfig swaps the config's entry set atomically: delete then bulk
// insert inside one transaction, so readers never see a half-written week.
func (r *EntryRepository) ReplaceForConfig(ctx context.Context, configID string, entries []models.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace entries: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE config_id = $1`, configID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO schedule_entries (id, config_id, class_group, kind, day_of_week, period, subject_id, teacher_id, classroom_id, is_practical, start_time, end_time, created_at, updated_at) VALUES (:id, :config_id, :class_group, :kind, :day_of_week, :period, :subject_id, :teacher_id, :classroom_id, :is_practical, :start_time, :end_time, :created_at, :updated_at)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].ConfigID = configID
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, entries[i]); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace entries: %w", err)
	}
	return nil
}

// DeleteForConfig removes every entry of a config.
func (r *EntryRepository) DeleteForConfig(ctx context.Context, configID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_entries WHERE config_id = $1`, configID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}
