package engine

import (
	"github.com/muet-dev/timetable-api/internal/models"
)

// placementRules bundles the feasibility checks shared by the generator and
// the repair strategies. Every placement, initial or repair, goes through
// the same gates so a fix can never silently relocate a violation.
type placementRules struct {
	cfg   models.ScheduleConfig
	idx   *snapshotIndex
	ctx   *AllocationContext
	cross *CrossSemesterDetector
}

// teacherFits checks availability, double-booking, the daily cap and
// cross-semester commitments for a span of consecutive periods.
func (r *placementRules) teacherFits(teacherID string, day models.Weekday, startPeriod, span int) bool {
	teacher, ok := r.idx.teachers[teacherID]
	if !ok || !teacher.Active {
		return false
	}
	windows := r.idx.unavailability[teacherID]
	maxPerDay := teacher.MaxPerDay
	if maxPerDay > 0 && r.ctx.TeacherDailyLoad(teacherID, day)+span > maxPerDay {
		return false
	}
	for p := startPeriod; p < startPeriod+span; p++ {
		if r.ctx.TeacherBusy(teacherID, day, p) {
			return false
		}
		if windows.Blocks(day, p) {
			return false
		}
		if r.cross != nil {
			if busy, _ := r.cross.CheckTeacherConflict(teacherID, day, p); busy {
				return false
			}
		}
	}
	return true
}

// pickTeacher selects the least-loaded qualified teacher that fits the slot.
// Deterministic: load ascending, then the index's sorted order.
func (r *placementRules) pickTeacher(subjectID, classGroup string, day models.Weekday, startPeriod, span int) string {
	best := ""
	bestLoad := -1
	for _, teacherID := range r.idx.qualifiedTeachers(subjectID, classGroup) {
		if !r.teacherFits(teacherID, day, startPeriod, span) {
			continue
		}
		load := r.ctx.TeacherWeeklyLoad(teacherID)
		if best == "" || load < bestLoad {
			best = teacherID
			bestLoad = load
		}
	}
	return best
}

// fridayLimit returns the last theory period allowed for the class-group on
// the given day; days other than Friday are unbounded.
func (r *placementRules) fridayLimit(classGroup string, day models.Weekday) int {
	if day != models.Friday {
		return r.cfg.PeriodsPerDay
	}
	if r.ctx.GroupHasPractical(classGroup, day) {
		return r.cfg.Constraints.FridayLimitWithPractical
	}
	return r.cfg.Constraints.FridayLimitWithoutPractical
}

// isThesisDayFor reports whether regular classes are barred from the day for
// this class-group.
func (r *placementRules) isThesisDayFor(classGroup string, day models.Weekday) bool {
	return day == r.cfg.Constraints.ThesisDay && r.idx.isFinalYearGroup(classGroup)
}

// subjectOnDay reports whether the class-group already has the subject
// scheduled on the day.
func (r *placementRules) subjectOnDay(classGroup, subjectID string, day models.Weekday) bool {
	for _, period := range r.ctx.GroupPeriods(classGroup, day) {
		entry := r.ctx.GroupEntry(classGroup, day, period)
		if entry != nil && entry.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// theorySlotOK gates a single theory placement: class-group slot free, day
// not already carrying this subject, thesis day untouched, Friday limit and
// the daily subject cap respected.
func (r *placementRules) theorySlotOK(classGroup, subjectID string, day models.Weekday, period int) bool {
	if period < 1 || period > r.cfg.PeriodsPerDay {
		return false
	}
	if r.isThesisDayFor(classGroup, day) {
		return false
	}
	if !r.ctx.GroupFree(classGroup, day, period) {
		return false
	}
	if r.subjectOnDay(classGroup, subjectID, day) {
		return false
	}
	if period > r.fridayLimit(classGroup, day) {
		return false
	}
	if r.ctx.GroupDayLoad(classGroup, day) >= r.cfg.Constraints.MaxSubjectsPerDay {
		return false
	}
	return true
}

// practicalWindowOK gates a practical block start: the class-group must be
// free for the whole window on a non-thesis day.
func (r *placementRules) practicalWindowOK(classGroup string, day models.Weekday, startPeriod, span int) bool {
	if startPeriod < 1 || startPeriod+span-1 > r.cfg.PeriodsPerDay {
		return false
	}
	if r.isThesisDayFor(classGroup, day) {
		return false
	}
	for p := startPeriod; p < startPeriod+span; p++ {
		if !r.ctx.GroupFree(classGroup, day, p) {
			return false
		}
	}
	return true
}
