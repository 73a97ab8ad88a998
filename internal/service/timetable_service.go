package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/dto"
	"github.com/muet-dev/timetable-api/internal/engine"
	"github.com/muet-dev/timetable-api/internal/models"
	appErrors "github.com/muet-dev/timetable-api/pkg/errors"
)

type configRepository interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleConfig, error)
	UpdateStatus(ctx context.Context, id string, status models.ScheduleConfigStatus) error
}

type subjectReader interface {
	ListByBatchIDs(ctx context.Context, batchIDs []string) ([]models.Subject, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type classroomReader interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type batchReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Batch, error)
}

type assignmentReader interface {
	ListByBatchIDs(ctx context.Context, batchIDs []string) ([]models.TeacherAssignment, error)
}

type entryStore interface {
	ListByConfig(ctx context.Context, configID string) ([]models.Entry, error)
	ListCommittedForOtherConfigs(ctx context.Context, excludeConfigID string) ([]models.Entry, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, int, error)
	ReplaceForConfig(ctx context.Context, configID string, entries []models.Entry) error
}

type committedEntryCache interface {
	GetCommittedEntries(ctx context.Context, excludeConfigID string) ([]models.Entry, error)
	SetCommittedEntries(ctx context.Context, excludeConfigID string, entries []models.Entry, ttl time.Duration) error
	InvalidateCommitted(ctx context.Context) error
}

type scheduleEngine interface {
	Run(ctx context.Context, snap engine.Snapshot) (*models.ScheduleReport, []models.Entry, error)
	Validate(snap engine.Snapshot, entries []models.Entry) (models.ValidationReport, error)
}

// TimetableService orchestrates scheduling runs: it assembles the engine's
// snapshot from the repositories, holds generated proposals in memory until
// they are saved or expire, and owns the save transaction semantics.
type TimetableService struct {
	configs     configRepository
	subjects    subjectReader
	teachers    teacherReader
	classrooms  classroomReader
	batches     batchReader
	assignments assignmentReader
	entries     entryStore
	cache       committedEntryCache
	engine      scheduleEngine
	validator   *validator.Validate
	logger      *zap.Logger
	store       *proposalStore
	entryTTL    time.Duration
	constraints models.ConstraintParams
}

// TimetableServiceConfig governs service behaviour. EngineDefaults carries
// the environment-level constraint tuning; a config row only overrides the
// parameters it sets explicitly.
type TimetableServiceConfig struct {
	ProposalTTL    time.Duration
	EntryTTL       time.Duration
	EngineDefaults models.ConstraintParams
}

// NewTimetableService wires the scheduling pipeline.
func NewTimetableService(
	configs configRepository,
	subjects subjectReader,
	teachers teacherReader,
	classrooms classroomReader,
	batches batchReader,
	assignments assignmentReader,
	entries entryStore,
	cache committedEntryCache,
	scheduler scheduleEngine,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 5 * time.Minute
	}
	return &TimetableService{
		configs:     configs,
		subjects:    subjects,
		teachers:    teachers,
		classrooms:  classrooms,
		batches:     batches,
		assignments: assignments,
		entries:     entries,
		cache:       cache,
		engine:      scheduler,
		validator:   validate,
		logger:      logger,
		store:       newProposalStore(cfg.ProposalTTL),
		entryTTL:    cfg.EntryTTL,
		constraints: cfg.EngineDefaults,
	}
}

// Generate runs the engine over a stored config and parks the result as a
// proposal. Nothing is persisted until Save.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	snap, err := s.buildSnapshot(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}

	report, entries, err := s.engine.Run(ctx, *snap)
	if err != nil {
		return nil, err
	}

	proposal := timetableProposal{
		ProposalID:  uuid.NewString(),
		ConfigID:    req.ConfigID,
		Report:      report,
		Entries:     entries,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("timetable proposal generated",
		zap.String("config_id", req.ConfigID),
		zap.String("proposal_id", proposal.ProposalID),
		zap.Bool("converged", report.Converged),
		zap.Int("final_violations", report.FinalViolations))

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		Report:     report,
		Entries:    entries,
	}, nil
}

// Save persists a proposal's entries atomically, replacing the config's
// previous timetable wholesale. Publishing moves the config to PUBLISHED and
// drops the committed-entry cache so other runs see the new commitments.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	if err := s.entries.ReplaceForConfig(ctx, proposal.ConfigID, proposal.Entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
	}

	if req.Publish {
		if err := s.configs.UpdateStatus(ctx, proposal.ConfigID, models.ScheduleConfigStatusPublished); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish config")
		}
		if s.cache != nil {
			if err := s.cache.InvalidateCommitted(ctx); err != nil {
				s.logger.Warn("committed-entry cache invalidation failed", zap.Error(err))
			}
		}
	}

	s.store.Delete(req.ProposalID)
	return &dto.SaveTimetableResponse{
		ConfigID:     proposal.ConfigID,
		EntriesSaved: len(proposal.Entries),
		Published:    req.Publish,
	}, nil
}

// Validate re-runs the constraint suite over a config's stored entries.
func (s *TimetableService) Validate(ctx context.Context, req dto.ValidateTimetableRequest) (*dto.ValidateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate payload")
	}

	snap, err := s.buildSnapshot(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByConfig(ctx, req.ConfigID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	report, err := s.engine.Validate(*snap, entries)
	if err != nil {
		return nil, err
	}
	return &dto.ValidateTimetableResponse{
		ConfigID:     req.ConfigID,
		Total:        report.Total,
		Violations:   report.Violations,
		Breakdown:    report.Breakdown(),
		HarmonyScore: report.HarmonyScore,
	}, nil
}

// GetTimetable returns stored entries for a config with optional filters.
func (s *TimetableService) GetTimetable(ctx context.Context, query dto.TimetableQuery) ([]models.Entry, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	entries, _, err := s.entries.List(ctx, models.EntryFilter{
		ConfigID:   query.ConfigID,
		ClassGroup: query.ClassGroup,
		TeacherID:  query.TeacherID,
		Day:        query.Day,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return entries, nil
}

// buildSnapshot loads everything a scheduling run needs in one place.
func (s *TimetableService) buildSnapshot(ctx context.Context, configID string) (*engine.Snapshot, error) {
	cfg, err := s.configs.FindByID(ctx, configID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule config")
	}
	cfg.Constraints = cfg.Constraints.MergedWith(s.constraints)

	batches, err := s.batches.ListByIDs(ctx, cfg.BatchIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	if len(batches) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "config selects no known batches")
	}

	subjects, err := s.subjects.ListByBatchIDs(ctx, cfg.BatchIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	assignments, err := s.assignments.ListByBatchIDs(ctx, cfg.BatchIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no teacher assignments defined for the selected batches")
	}

	committed, err := s.loadCommittedEntries(ctx, configID)
	if err != nil {
		return nil, err
	}

	return &engine.Snapshot{
		Config:      *cfg,
		Subjects:    subjects,
		Teachers:    teachers,
		Classrooms:  classrooms,
		Batches:     batches,
		Assignments: assignments,
		Committed:   committed,
	}, nil
}

// loadCommittedEntries serves the cross-semester feed, cache first.
func (s *TimetableService) loadCommittedEntries(ctx context.Context, excludeConfigID string) ([]models.Entry, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCommittedEntries(ctx, excludeConfigID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("committed-entry cache read failed", zap.Error(err))
		}
	}

	committed, err := s.entries.ListCommittedForOtherConfigs(ctx, excludeConfigID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed entries")
	}

	if s.cache != nil {
		if err := s.cache.SetCommittedEntries(ctx, excludeConfigID, committed, s.entryTTL); err != nil {
			s.logger.Warn("committed-entry cache write failed", zap.Error(err))
		}
	}
	return committed, nil
}

// --- Proposal cache ---

type timetableProposal struct {
	ProposalID  string
	ConfigID    string
	Report      *models.ScheduleReport
	Entries     []models.Entry
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]timetableProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]timetableProposal),
	}
}

func (s *proposalStore) Save(proposal timetableProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (timetableProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return timetableProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return timetableProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
