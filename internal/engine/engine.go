package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/models"
	"github.com/muet-dev/timetable-api/pkg/metrics"
)

// Engine runs a full scheduling pass: generate a candidate, validate it,
// repair iteratively, and report. It holds no per-run state, so one Engine
// serves concurrent runs.
type Engine struct {
	logger  *zap.Logger
	metrics metrics.Recorder
}

// New builds an engine. A nil recorder disables instrumentation.
func New(logger *zap.Logger, recorder metrics.Recorder) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Engine{logger: logger, metrics: recorder}
}

// Run executes one scheduling run over the snapshot. The returned error
// covers invalid configuration only; an imperfect schedule comes back as a
// report with Success=false and the violations listed.
func (e *Engine) Run(ctx context.Context, snap Snapshot) (*models.ScheduleReport, []models.Entry, error) {
	snap.Config.Constraints.ApplyDefaults()
	if err := snap.Config.Validate(); err != nil {
		return nil, nil, err
	}

	logger := e.logger.With(zap.String("config_id", snap.Config.ID))
	started := time.Now()

	idx := newSnapshotIndex(snap)
	allocCtx := NewAllocationContext(snap.Config)
	alloc := NewRoomAllocator(snap.Classrooms, allocCtx, snap.Config.Constraints)
	cross := NewCrossSemesterDetector(snap.Committed, snap.Config.ID, snap.Config.PeriodsPerDay)
	validator := NewValidator(snap.Config, idx, cross, logger)

	generator := NewGenerator(snap, idx, allocCtx, alloc, cross, logger)
	entries, skipped := generator.Generate()

	initial := validator.Validate(entries)
	logger.Info("candidate generated",
		zap.Int("entries", len(entries)),
		zap.Int("skipped_subjects", len(skipped)),
		zap.Int("violations", initial.Total))

	resolver := NewResolver(snap.Config, idx, cross, validator, snap.Classrooms, logger)
	outcome := resolver.Resolve(ctx, entries, initial)

	// The same-lab guard runs once more on the final set; the resolver runs
	// it per iteration but the last repair pass may have split a session.
	finalCtx := BuildContext(snap.Config, outcome.Entries)
	if changed := EnforceLabConsistency(outcome.Entries, finalCtx, alloc.Labs()); changed > 0 {
		outcome.Report = validator.Validate(outcome.Entries)
	}

	report := e.buildReport(snap.Config.ID, outcome, initial, skipped)
	e.record(snap.Config.ID, report)

	logger.Info("scheduling run finished",
		zap.Bool("converged", report.Converged),
		zap.Int("iterations", report.IterationsCompleted),
		zap.Int("initial_violations", report.InitialViolations),
		zap.Int("final_violations", report.FinalViolations),
		zap.Float64("harmony", report.HarmonyScore),
		zap.Duration("elapsed", time.Since(started)))

	final := make([]models.Entry, 0, len(outcome.Entries))
	for _, entry := range outcome.Entries {
		final = append(final, *entry)
	}
	return report, final, nil
}

// Validate runs the constraint suite over an existing entry set without
// generating or repairing anything. Used to re-check a stored timetable
// after manual edits.
func (e *Engine) Validate(snap Snapshot, entries []models.Entry) (models.ValidationReport, error) {
	snap.Config.Constraints.ApplyDefaults()
	if err := snap.Config.Validate(); err != nil {
		return models.ValidationReport{}, err
	}

	idx := newSnapshotIndex(snap)
	cross := NewCrossSemesterDetector(snap.Committed, snap.Config.ID, snap.Config.PeriodsPerDay)
	validator := NewValidator(snap.Config, idx, cross, e.logger)

	ptrs := make([]*models.Entry, len(entries))
	for i := range entries {
		ptrs[i] = &entries[i]
	}
	return validator.Validate(ptrs), nil
}

func (e *Engine) buildReport(configID string, outcome ResolveOutcome, initial models.ValidationReport, skipped []models.SkippedSubject) *models.ScheduleReport {
	report := &models.ScheduleReport{
		ConfigID:            configID,
		Success:             outcome.Converged && len(skipped) == 0,
		EntriesGenerated:    len(outcome.Entries),
		InitialViolations:   initial.Total,
		FinalViolations:     outcome.Report.Total,
		IterationsCompleted: outcome.Iterations,
		Converged:           outcome.Converged,
		Breakdown:           outcome.Report.Breakdown(),
		Remaining:           outcome.Report.Violations,
		Unscheduled:         skipped,
		IterationLog:        outcome.Log,
		HarmonyScore:        outcome.Report.HarmonyScore,
		GeneratedAt:         time.Now().UTC(),
	}
	return report
}

func (e *Engine) record(configID string, report *models.ScheduleReport) {
	e.metrics.ObserveRun(configID, report.IterationsCompleted, report.Converged)
	for constraint, count := range report.Breakdown {
		e.metrics.SetViolations(configID, string(constraint), count)
	}
	e.metrics.AddUnscheduled(configID, len(report.Unscheduled))
}
