package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/dto"
	"github.com/muet-dev/timetable-api/internal/engine"
	"github.com/muet-dev/timetable-api/internal/models"
	"github.com/muet-dev/timetable-api/internal/repository"
	"github.com/muet-dev/timetable-api/internal/service"
	"github.com/muet-dev/timetable-api/pkg/cache"
	"github.com/muet-dev/timetable-api/pkg/config"
	"github.com/muet-dev/timetable-api/pkg/database"
	"github.com/muet-dev/timetable-api/pkg/export"
	"github.com/muet-dev/timetable-api/pkg/jobs"
	"github.com/muet-dev/timetable-api/pkg/logger"
	"github.com/muet-dev/timetable-api/pkg/metrics"
	"github.com/muet-dev/timetable-api/pkg/storage"
)

func main() {
	var (
		configIDs = flag.String("configs", "", "comma-separated schedule config ids to run")
		save      = flag.Bool("save", false, "persist generated timetables")
		publish   = flag.Bool("publish", false, "publish after saving (implies -save)")
		doExport  = flag.Bool("export", false, "write timetable grids to the export directory")
	)
	flag.Parse()

	ids := splitIDs(*configIDs)
	if len(ids) == 0 {
		log.Fatal("at least one config id is required, use -configs")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		}
	}

	configs := repository.NewScheduleConfigRepository(db)
	subjects := repository.NewSubjectRepository(db)
	teachers := repository.NewTeacherRepository(db)
	classrooms := repository.NewClassroomRepository(db)
	batches := repository.NewBatchRepository(db)
	assignments := repository.NewTeacherAssignmentRepository(db)
	entries := repository.NewEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	registry := metrics.NewRegistry()
	scheduler := engine.New(logr, registry)

	svc := service.NewTimetableService(
		configs,
		subjects,
		teachers,
		classrooms,
		batches,
		assignments,
		entries,
		cacheRepo,
		scheduler,
		validator.New(),
		logr,
		service.TimetableServiceConfig{
			ProposalTTL: cfg.Scheduler.ProposalTTL,
			EntryTTL:    cfg.Redis.EntryTTL,
			EngineDefaults: models.ConstraintParams{
				MaxIterations:               cfg.Scheduler.MaxIterations,
				AttemptBound:                cfg.Scheduler.AttemptBound,
				FridayLimitWithPractical:    cfg.Scheduler.FridayLimitPractical,
				FridayLimitWithoutPractical: cfg.Scheduler.FridayLimitTheory,
				MinDailyClasses:             cfg.Scheduler.MinDailyClasses,
				MaxSubjectsPerDay:           cfg.Scheduler.MaxSubjectsPerDay,
				SeniorLabReserve:            cfg.Scheduler.SeniorLabReserve,
			},
		},
	)

	runner := &runCoordinator{
		cfg:        cfg,
		svc:        svc,
		configs:    configs,
		subjects:   subjects,
		teachers:   teachers,
		classrooms: classrooms,
		logger:     logr,
		save:       *save || *publish,
		publish:    *publish,
		export:     *doExport,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue("scheduling-runs", runner.handle, jobs.QueueConfig{
		Workers: cfg.Scheduler.WorkerConcurrency,
		Logger:  logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	var wg sync.WaitGroup
	runner.wg = &wg
	for _, id := range ids {
		wg.Add(1)
		if err := queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "generate", Payload: id}); err != nil {
			wg.Done()
			logr.Sugar().Errorw("enqueue failed", "config_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logr.Info("all scheduling runs finished")
	case <-ctx.Done():
		logr.Warn("interrupted, waiting for in-flight runs")
		<-done
	}
}

type runCoordinator struct {
	cfg        *config.Config
	svc        *service.TimetableService
	configs    *repository.ScheduleConfigRepository
	subjects   *repository.SubjectRepository
	teachers   *repository.TeacherRepository
	classrooms *repository.ClassroomRepository
	logger     *zap.Logger
	wg         *sync.WaitGroup

	save    bool
	publish bool
	export  bool
}

func (r *runCoordinator) handle(ctx context.Context, job jobs.Job) error {
	defer r.wg.Done()

	configID, ok := job.Payload.(string)
	if !ok {
		// Returning an error would make the queue retry a job that can
		// never succeed, so drop it here.
		r.logger.Error("discarding job with unexpected payload",
			zap.String("job_id", job.ID), zap.Any("payload", job.Payload))
		return nil
	}
	logr := r.logger.With(zap.String("config_id", configID))

	resp, err := r.svc.Generate(ctx, dto.GenerateTimetableRequest{ConfigID: configID})
	if err != nil {
		logr.Error("generation failed", zap.Error(err))
		return nil
	}

	report := resp.Report
	logr.Info("run report",
		zap.Bool("success", report.Success),
		zap.Bool("converged", report.Converged),
		zap.Int("entries", report.EntriesGenerated),
		zap.Int("iterations", report.IterationsCompleted),
		zap.Int("initial_violations", report.InitialViolations),
		zap.Int("final_violations", report.FinalViolations),
		zap.Int("unscheduled", len(report.Unscheduled)),
		zap.Float64("harmony", report.HarmonyScore))
	for _, skip := range report.Unscheduled {
		logr.Warn("subject unscheduled",
			zap.String("class_group", skip.ClassGroup),
			zap.String("subject_id", skip.SubjectID),
			zap.String("reason", skip.Reason))
	}

	if r.save {
		saved, err := r.svc.Save(ctx, dto.SaveTimetableRequest{ProposalID: resp.ProposalID, Publish: r.publish})
		if err != nil {
			logr.Error("save failed", zap.Error(err))
			return nil
		}
		logr.Info("timetable saved",
			zap.Int("entries_saved", saved.EntriesSaved),
			zap.Bool("published", saved.Published))
	}

	if r.export {
		if err := r.exportGrids(ctx, configID, resp.Entries); err != nil {
			logr.Error("export failed", zap.Error(err))
		}
	}
	return nil
}

func (r *runCoordinator) exportGrids(ctx context.Context, configID string, entryList []models.Entry) error {
	cfg, err := r.configs.FindByID(ctx, configID)
	if err != nil {
		return fmt.Errorf("load config for export: %w", err)
	}
	cfg.Constraints.ApplyDefaults()

	labels, err := r.buildLabels(ctx, cfg.BatchIDs)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(r.cfg.Export.Dir)
	if err != nil {
		return err
	}
	if r.cfg.Export.Retention > 0 {
		pruned, err := store.CleanupOlderThan(r.cfg.Export.Retention)
		if err != nil {
			r.logger.Warn("export cleanup failed", zap.Error(err))
		} else if len(pruned) > 0 {
			r.logger.Info("stale exports removed", zap.Int("count", len(pruned)))
		}
	}

	grids := export.TimetableGrid(*cfg, entryList, labels)
	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()

	for _, classGroup := range export.GroupNames(entryList) {
		grid := grids[classGroup]
		name := fmt.Sprintf("%s_%s", sanitize(cfg.Name), sanitize(classGroup))

		var payload []byte
		switch r.cfg.Export.Format {
		case "csv":
			payload, err = csvExporter.Render(grid)
			name += ".csv"
		default:
			payload, err = pdfExporter.Render(grid, fmt.Sprintf("%s %s", cfg.Name, classGroup))
			name += ".pdf"
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", classGroup, err)
		}
		if _, err := store.Save(name, payload); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		r.logger.Info("timetable exported", zap.String("path", store.Path(name)))
	}
	return nil
}

func (r *runCoordinator) buildLabels(ctx context.Context, batchIDs []string) (export.TimetableLabels, error) {
	labels := export.TimetableLabels{
		Subjects:   make(map[string]string),
		Teachers:   make(map[string]string),
		Classrooms: make(map[string]string),
	}

	subjects, err := r.subjects.ListByBatchIDs(ctx, batchIDs)
	if err != nil {
		return labels, fmt.Errorf("load subjects for export: %w", err)
	}
	for _, subject := range subjects {
		labels.Subjects[subject.ID] = subject.Code
	}

	teachers, err := r.teachers.ListActive(ctx)
	if err != nil {
		return labels, fmt.Errorf("load teachers for export: %w", err)
	}
	for _, teacher := range teachers {
		labels.Teachers[teacher.ID] = teacher.FullName
	}

	classrooms, err := r.classrooms.ListAll(ctx)
	if err != nil {
		return labels, fmt.Errorf("load classrooms for export: %w", err)
	}
	for _, room := range classrooms {
		labels.Classrooms[room.ID] = room.Name
	}
	return labels, nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func sanitize(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return replacer.Replace(name)
}
