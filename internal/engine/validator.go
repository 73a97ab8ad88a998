package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/models"
)

// CheckFunc is one independent constraint check: entries in, violations out.
// Checks never mutate the entry set and their order is irrelevant.
type CheckFunc func(*checkContext) []models.Violation

type namedCheck struct {
	constraint models.ConstraintType
	fn         CheckFunc
}

// checkContext carries the occupancy indexes one validation pass shares
// across all checks. Built once per Validate call so no check rescans the
// full entry list.
type checkContext struct {
	cfg     models.ScheduleConfig
	idx     *snapshotIndex
	cross   *CrossSemesterDetector
	entries []*models.Entry

	byGroupDay     map[string]map[models.Weekday][]*models.Entry
	byGroupSlot    map[string]map[slotKey][]*models.Entry
	byTeacherSlot  map[string]map[slotKey][]*models.Entry
	byRoomSlot     map[string]map[slotKey][]*models.Entry
	byGroupSubject map[string]map[string][]*models.Entry
	sessions       map[models.SessionKey][]*models.Entry
}

func newCheckContext(cfg models.ScheduleConfig, idx *snapshotIndex, cross *CrossSemesterDetector, entries []*models.Entry) *checkContext {
	ctx := &checkContext{
		cfg:            cfg,
		idx:            idx,
		cross:          cross,
		entries:        entries,
		byGroupDay:     make(map[string]map[models.Weekday][]*models.Entry),
		byGroupSlot:    make(map[string]map[slotKey][]*models.Entry),
		byTeacherSlot:  make(map[string]map[slotKey][]*models.Entry),
		byRoomSlot:     make(map[string]map[slotKey][]*models.Entry),
		byGroupSubject: make(map[string]map[string][]*models.Entry),
		sessions:       make(map[models.SessionKey][]*models.Entry),
	}

	for _, entry := range entries {
		key := slotKey{Day: entry.Day, Period: entry.Period}

		if ctx.byGroupDay[entry.ClassGroup] == nil {
			ctx.byGroupDay[entry.ClassGroup] = make(map[models.Weekday][]*models.Entry)
		}
		ctx.byGroupDay[entry.ClassGroup][entry.Day] = append(ctx.byGroupDay[entry.ClassGroup][entry.Day], entry)

		if ctx.byGroupSlot[entry.ClassGroup] == nil {
			ctx.byGroupSlot[entry.ClassGroup] = make(map[slotKey][]*models.Entry)
		}
		ctx.byGroupSlot[entry.ClassGroup][key] = append(ctx.byGroupSlot[entry.ClassGroup][key], entry)

		if entry.TeacherID != "" {
			if ctx.byTeacherSlot[entry.TeacherID] == nil {
				ctx.byTeacherSlot[entry.TeacherID] = make(map[slotKey][]*models.Entry)
			}
			ctx.byTeacherSlot[entry.TeacherID][key] = append(ctx.byTeacherSlot[entry.TeacherID][key], entry)
		}
		if entry.ClassroomID != "" {
			if ctx.byRoomSlot[entry.ClassroomID] == nil {
				ctx.byRoomSlot[entry.ClassroomID] = make(map[slotKey][]*models.Entry)
			}
			ctx.byRoomSlot[entry.ClassroomID][key] = append(ctx.byRoomSlot[entry.ClassroomID][key], entry)
		}
		if !entry.IsThesis() {
			if ctx.byGroupSubject[entry.ClassGroup] == nil {
				ctx.byGroupSubject[entry.ClassGroup] = make(map[string][]*models.Entry)
			}
			ctx.byGroupSubject[entry.ClassGroup][entry.SubjectID] = append(ctx.byGroupSubject[entry.ClassGroup][entry.SubjectID], entry)
		}
		if entry.IsPractical {
			ctx.sessions[entry.Session()] = append(ctx.sessions[entry.Session()], entry)
		}
	}

	for _, days := range ctx.byGroupDay {
		for day := range days {
			sort.Slice(days[day], func(i, j int) bool { return days[day][i].Period < days[day][j].Period })
		}
	}
	for key := range ctx.sessions {
		sort.Slice(ctx.sessions[key], func(i, j int) bool { return ctx.sessions[key][i].Period < ctx.sessions[key][j].Period })
	}

	return ctx
}

// groupDayEntries returns the day's entries for a class-group, sorted by
// period.
func (c *checkContext) groupDayEntries(classGroup string, day models.Weekday) []*models.Entry {
	return c.byGroupDay[classGroup][day]
}

// Validator runs every registered check over a full entry set and
// aggregates structured violations. Violations are data, never errors.
type Validator struct {
	cfg    models.ScheduleConfig
	idx    *snapshotIndex
	cross  *CrossSemesterDetector
	checks []namedCheck
	logger *zap.Logger
}

// NewValidator registers the full check suite.
func NewValidator(cfg models.ScheduleConfig, idx *snapshotIndex, cross *CrossSemesterDetector, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:    cfg,
		idx:    idx,
		cross:  cross,
		logger: logger,
		checks: []namedCheck{
			{models.ConstraintPeriodBounds, checkPeriodBounds},
			{models.ConstraintSubjectFrequency, checkSubjectFrequency},
			{models.ConstraintPracticalBlock, checkPracticalBlocks},
			{models.ConstraintSameLab, checkSameLab},
			{models.ConstraintTeacherConflict, checkTeacherConflicts},
			{models.ConstraintRoomConflict, checkRoomConflicts},
			{models.ConstraintClassGroupConflict, checkClassGroupConflicts},
			{models.ConstraintTeacherUnavailable, checkTeacherUnavailability},
			{models.ConstraintTeacherDailyCap, checkTeacherDailyCap},
			{models.ConstraintTeacherAssignment, checkTeacherAssignments},
			{models.ConstraintTheoryDistribution, checkTheoryDistribution},
			{models.ConstraintFridayLimit, checkFridayLimits},
			{models.ConstraintMinDailyClasses, checkMinDailyClasses},
			{models.ConstraintThesisDay, checkThesisDay},
			{models.ConstraintCompactSchedule, checkCompactSchedule},
			{models.ConstraintRoomType, checkRoomTypes},
			{models.ConstraintSeniorityPriority, checkSeniorityPriority},
			{models.ConstraintCrossSemester, checkCrossSemester},
			{models.ConstraintClassGroupBreaks, checkClassGroupBreaks},
			{models.ConstraintTeacherBreaks, checkTeacherBreaks},
		},
	}
}

// Validate runs all checks and aggregates the report, including the
// constraint-interaction diagnostics and harmony score.
func (v *Validator) Validate(entries []*models.Entry) models.ValidationReport {
	ctx := newCheckContext(v.cfg, v.idx, v.cross, entries)

	report := models.ValidationReport{
		ByConstraint: make(map[models.ConstraintType][]models.Violation),
	}
	for _, check := range v.checks {
		violations := check.fn(ctx)
		if len(violations) == 0 {
			continue
		}
		report.ByConstraint[check.constraint] = violations
		report.Violations = append(report.Violations, violations...)
	}
	report.Total = len(report.Violations)
	report.Conflicts = detectConstraintConflicts(report)
	report.HarmonyScore = harmonyScore(report)

	if report.Total > 0 {
		v.logger.Debug("validation pass",
			zap.Int("violations", report.Total),
			zap.Int("constraint_conflicts", len(report.Conflicts)),
			zap.Float64("harmony", report.HarmonyScore))
	}
	return report
}
