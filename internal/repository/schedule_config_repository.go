package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/muet-dev/timetable-api/internal/models"
)

// scheduleConfigRow is the storage shape of a schedule config. The day list,
// batch selection and constraint parameters live in JSON columns so the
// schema survives parameter additions without migrations.
type scheduleConfigRow struct {
	ID            string                      `db:"id"`
	Name          string                      `db:"name"`
	AcademicYear  int                         `db:"academic_year"`
	Days          types.JSONText              `db:"days"`
	PeriodsPerDay int                         `db:"periods_per_day"`
	StartTime     string                      `db:"start_time"`
	LessonMinutes int                         `db:"lesson_minutes"`
	BatchIDs      types.JSONText              `db:"batch_ids"`
	Constraints   types.JSONText              `db:"constraints"`
	Status        models.ScheduleConfigStatus `db:"status"`
	CreatedAt     time.Time                   `db:"created_at"`
	UpdatedAt     time.Time                   `db:"updated_at"`
}

func (row scheduleConfigRow) toModel() (*models.ScheduleConfig, error) {
	cfg := &models.ScheduleConfig{
		ID:            row.ID,
		Name:          row.Name,
		AcademicYear:  row.AcademicYear,
		PeriodsPerDay: row.PeriodsPerDay,
		StartTime:     row.StartTime,
		LessonMinutes: row.LessonMinutes,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Days, &cfg.Days); err != nil {
		return nil, fmt.Errorf("decode config days: %w", err)
	}
	if err := json.Unmarshal(row.BatchIDs, &cfg.BatchIDs); err != nil {
		return nil, fmt.Errorf("decode config batch ids: %w", err)
	}
	if len(row.Constraints) > 0 {
		if err := json.Unmarshal(row.Constraints, &cfg.Constraints); err != nil {
			return nil, fmt.Errorf("decode config constraints: %w", err)
		}
	}
	return cfg, nil
}

func toRow(cfg *models.ScheduleConfig) (*scheduleConfigRow, error) {
	days, err := json.Marshal(cfg.Days)
	if err != nil {
		return nil, fmt.Errorf("encode config days: %w", err)
	}
	batchIDs, err := json.Marshal(cfg.BatchIDs)
	if err != nil {
		return nil, fmt.Errorf("encode config batch ids: %w", err)
	}
	constraints, err := json.Marshal(cfg.Constraints)
	if err != nil {
		return nil, fmt.Errorf("encode config constraints: %w", err)
	}
	return &scheduleConfigRow{
		ID:            cfg.ID,
		Name:          cfg.Name,
		AcademicYear:  cfg.AcademicYear,
		Days:          types.JSONText(days),
		PeriodsPerDay: cfg.PeriodsPerDay,
		StartTime:     cfg.StartTime,
		LessonMinutes: cfg.LessonMinutes,
		BatchIDs:      types.JSONText(batchIDs),
		Constraints:   types.JSONText(constraints),
		Status:        cfg.Status,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}, nil
}

// ScheduleConfigRepository handles persistence for scheduling configurations.
type ScheduleConfigRepository struct {
	db *sqlx.DB
}

// NewScheduleConfigRepository creates a new repository instance.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

// FindByID returns a schedule config by id.
func (r *ScheduleConfigRepository) FindByID(ctx context.Context, id string) (*models.ScheduleConfig, error) {
	const query = `SELECT id, name, academic_year, days, periods_per_day, start_time, lesson_minutes, batch_ids, constraints, status, created_at, updated_at FROM schedule_configs WHERE id = $1`
	var row scheduleConfigRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListByStatus returns configs in the given lifecycle state, newest first.
func (r *ScheduleConfigRepository) ListByStatus(ctx context.Context, status models.ScheduleConfigStatus) ([]models.ScheduleConfig, error) {
	const query = `SELECT id, name, academic_year, days, periods_per_day, start_time, lesson_minutes, batch_ids, constraints, status, created_at, updated_at FROM schedule_configs WHERE status = $1 ORDER BY created_at DESC`
	var rows []scheduleConfigRow
	if err := r.db.SelectContext(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("list configs by status: %w", err)
	}
	configs := make([]models.ScheduleConfig, 0, len(rows))
	for _, row := range rows {
		cfg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, nil
}

// Create persists a new schedule config in DRAFT state.
func (r *ScheduleConfigRepository) Create(ctx context.Context, cfg *models.ScheduleConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Status == "" {
		cfg.Status = models.ScheduleConfigStatusDraft
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	row, err := toRow(cfg)
	if err != nil {
		return err
	}
	const query = `INSERT INTO schedule_configs (id, name, academic_year, days, periods_per_day, start_time, lesson_minutes, batch_ids, constraints, status, created_at, updated_at) VALUES (:id, :name, :academic_year, :days, :periods_per_day, :start_time, :lesson_minutes, :batch_ids, :constraints, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create schedule config: %w", err)
	}
	return nil
}

// Update modifies a schedule config.
func (r *ScheduleConfigRepository) Update(ctx context.Context, cfg *models.ScheduleConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	row, err := toRow(cfg)
	if err != nil {
		return err
	}
	const query = `UPDATE schedule_configs SET name = :name, academic_year = :academic_year, days = :days, periods_per_day = :periods_per_day, start_time = :start_time, lesson_minutes = :lesson_minutes, batch_ids = :batch_ids, constraints = :constraints, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update schedule config: %w", err)
	}
	return nil
}

// UpdateStatus transitions a config's lifecycle state.
func (r *ScheduleConfigRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleConfigStatus) error {
	const query = `UPDATE schedule_configs SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update config status: %w", err)
	}
	return nil
}

// Delete removes a schedule config record.
func (r *ScheduleConfigRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_configs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule config: %w", err)
	}
	return nil
}
