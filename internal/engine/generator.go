package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/muet-dev/timetable-api/internal/models"
)

// PlacementResult reports one placement attempt. "Could not schedule" is an
// ordinary value the caller inspects, never an error.
type PlacementResult struct {
	Placed  bool
	Entries []*models.Entry
	Reason  string
}

func placedResult(entries ...*models.Entry) PlacementResult {
	return PlacementResult{Placed: true, Entries: entries}
}

func skippedResult(reason string) PlacementResult {
	return PlacementResult{Reason: reason}
}

// Generator produces the initial full-week candidate schedule. Practical
// subjects go first as consecutive lab blocks, then theory subjects fill in
// one class per credit spread across distinct days.
type Generator struct {
	snap   Snapshot
	idx    *snapshotIndex
	ctx    *AllocationContext
	alloc  *RoomAllocator
	rules  *placementRules
	logger *zap.Logger
}

// NewGenerator wires a generator around a shared allocation context.
func NewGenerator(snap Snapshot, idx *snapshotIndex, ctx *AllocationContext, alloc *RoomAllocator, cross *CrossSemesterDetector, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		snap:   snap,
		idx:    idx,
		ctx:    ctx,
		alloc:  alloc,
		rules:  &placementRules{cfg: snap.Config, idx: idx, ctx: ctx, cross: cross},
		logger: logger,
	}
}

// Generate builds the candidate entry list. Subjects that cannot be placed
// are returned as skips, never raised.
func (g *Generator) Generate() ([]*models.Entry, []models.SkippedSubject) {
	var entries []*models.Entry
	var skipped []models.SkippedSubject

	for _, group := range g.idx.groups {
		batch := g.idx.groupBatch[group.String()]

		if batch.IsFinalYear() {
			entries = append(entries, g.placeThesisDay(group.String())...)
		}

		subjects := g.idx.subjectsByBatch[batch.ID]
		practicals := lo.Filter(subjects, func(s models.Subject, _ int) bool { return s.IsPractical })
		theories := lo.Filter(subjects, func(s models.Subject, _ int) bool { return !s.IsPractical })

		for _, subject := range practicals {
			result := g.placePractical(group.String(), subject)
			if !result.Placed {
				g.logger.Warn("practical left unscheduled",
					zap.String("class_group", group.String()),
					zap.String("subject", subject.Code),
					zap.String("reason", result.Reason))
				skipped = append(skipped, models.SkippedSubject{
					SubjectID:  subject.ID,
					ClassGroup: group.String(),
					Reason:     result.Reason,
				})
				continue
			}
			entries = append(entries, result.Entries...)
		}

		for _, subject := range theories {
			result := g.placeTheory(group.String(), subject)
			entries = append(entries, result.Entries...)
			if !result.Placed {
				g.logger.Warn("theory subject not fully scheduled",
					zap.String("class_group", group.String()),
					zap.String("subject", subject.Code),
					zap.String("reason", result.Reason))
				skipped = append(skipped, models.SkippedSubject{
					SubjectID:  subject.ID,
					ClassGroup: group.String(),
					Reason:     result.Reason,
				})
			}
		}
	}

	return entries, skipped
}

// placeThesisDay fills every period of the thesis day with placeholder
// entries so nothing else lands there. Thesis entries carry no teacher,
// subject or classroom.
func (g *Generator) placeThesisDay(classGroup string) []*models.Entry {
	day := g.snap.Config.Constraints.ThesisDay
	if !lo.Contains(g.snap.Config.Days, day) {
		return nil
	}
	entries := make([]*models.Entry, 0, g.snap.Config.PeriodsPerDay)
	for period := 1; period <= g.snap.Config.PeriodsPerDay; period++ {
		if !g.ctx.GroupFree(classGroup, day, period) {
			continue
		}
		entry := g.newEntry(classGroup, models.EntryThesis, day, period, "", "", "", false)
		g.ctx.Claim(entry)
		entries = append(entries, entry)
	}
	return entries
}

// placePractical searches (day, start) windows for a free consecutive block
// with a teacher and a lab available throughout. The attempt bound
// guarantees termination on infeasible inputs.
func (g *Generator) placePractical(classGroup string, subject models.Subject) PlacementResult {
	span := g.snap.Config.Constraints.PracticalBlockSize
	if len(g.idx.qualifiedTeachers(subject.ID, classGroup)) == 0 {
		return skippedResult(fmt.Sprintf("no qualified teacher for %s", subject.Code))
	}

	attempts := 0
	for _, day := range g.snap.Config.Days {
		for start := 1; start+span-1 <= g.snap.Config.PeriodsPerDay; start++ {
			attempts++
			if attempts > g.snap.Config.Constraints.AttemptBound {
				return skippedResult(fmt.Sprintf("attempt bound reached for %s", subject.Code))
			}
			if !g.rules.practicalWindowOK(classGroup, day, start, span) {
				continue
			}
			teacherID := g.rules.pickTeacher(subject.ID, classGroup, day, start, span)
			if teacherID == "" {
				continue
			}
			lab := g.alloc.AllocateForPractical(day, start, span, classGroup, subject.ID)
			if lab == nil {
				continue
			}

			block := make([]*models.Entry, 0, span)
			for p := start; p < start+span; p++ {
				entry := g.newEntry(classGroup, models.EntryRegular, day, p, subject.ID, teacherID, lab.ID, true)
				g.ctx.Claim(entry)
				block = append(block, entry)
			}
			return placedResult(block...)
		}
	}
	return skippedResult(fmt.Sprintf("no free %d-period lab window for %s", span, subject.Code))
}

// placeTheory attempts exactly `credits` single-period classes, at most one
// per day, preferring early periods and lightly loaded days. Partial
// placement returns the entries it managed plus a skip reason.
func (g *Generator) placeTheory(classGroup string, subject models.Subject) PlacementResult {
	if len(g.idx.qualifiedTeachers(subject.ID, classGroup)) == 0 {
		return skippedResult(fmt.Sprintf("no qualified teacher for %s", subject.Code))
	}

	senior := g.idx.isSeniorGroup(classGroup)
	needed := subject.Credits
	attempts := 0
	var entries []*models.Entry

	for needed > 0 {
		entry := g.placeOneTheory(classGroup, subject, senior, &attempts)
		if entry == nil {
			break
		}
		entries = append(entries, entry)
		needed--
	}

	if needed > 0 {
		return PlacementResult{
			Entries: entries,
			Reason:  fmt.Sprintf("placed %d of %d classes for %s", subject.Credits-needed, subject.Credits, subject.Code),
		}
	}
	return placedResult(entries...)
}

func (g *Generator) placeOneTheory(classGroup string, subject models.Subject, senior bool, attempts *int) *models.Entry {
	// Lightly loaded days first spreads subjects across the week.
	days := make([]models.Weekday, len(g.snap.Config.Days))
	copy(days, g.snap.Config.Days)
	sort.SliceStable(days, func(i, j int) bool {
		return g.ctx.GroupDayLoad(classGroup, days[i]) < g.ctx.GroupDayLoad(classGroup, days[j])
	})

	for _, day := range days {
		for period := 1; period <= g.snap.Config.PeriodsPerDay; period++ {
			*attempts++
			if *attempts > g.snap.Config.Constraints.AttemptBound {
				return nil
			}
			if !g.rules.theorySlotOK(classGroup, subject.ID, day, period) {
				continue
			}
			teacherID := g.rules.pickTeacher(subject.ID, classGroup, day, period, 1)
			if teacherID == "" {
				continue
			}
			room := g.alloc.AllocateForTheory(day, period, senior)
			if room == nil {
				continue
			}
			entry := g.newEntry(classGroup, models.EntryRegular, day, period, subject.ID, teacherID, room.ID, false)
			g.ctx.Claim(entry)
			return entry
		}
	}
	return nil
}

func (g *Generator) newEntry(classGroup string, kind models.EntryKind, day models.Weekday, period int, subjectID, teacherID, classroomID string, practical bool) *models.Entry {
	start, end := g.snap.Config.PeriodTimes(period)
	return &models.Entry{
		ID:          uuid.NewString(),
		ConfigID:    g.snap.Config.ID,
		ClassGroup:  classGroup,
		Kind:        kind,
		Day:         day,
		Period:      period,
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		ClassroomID: classroomID,
		IsPractical: practical,
		StartTime:   start,
		EndTime:     end,
	}
}
