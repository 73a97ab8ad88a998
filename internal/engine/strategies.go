package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/muet-dev/timetable-api/internal/models"
)

// repairPass applies targeted fixes for one resolver iteration. It owns the
// working entry slice and the occupancy context for the duration of the pass;
// every mutation goes through Release/Claim so the indexes stay truthful.
//
// Repairs are guarded: a candidate slot must pass the same placementRules the
// generator uses, so a fix can lower a violation's priority but never bump a
// conflict-free entry into a hard conflict.
type repairPass struct {
	cfg     models.ScheduleConfig
	idx     *snapshotIndex
	ctx     *AllocationContext
	alloc   *RoomAllocator
	rules   *placementRules
	entries []*models.Entry
	repairs int
}

func newRepairPass(cfg models.ScheduleConfig, idx *snapshotIndex, cross *CrossSemesterDetector, classrooms []models.Classroom, entries []*models.Entry) *repairPass {
	ctx := BuildContext(cfg, entries)
	alloc := NewRoomAllocator(classrooms, ctx, cfg.Constraints)
	return &repairPass{
		cfg:     cfg,
		idx:     idx,
		ctx:     ctx,
		alloc:   alloc,
		rules:   &placementRules{cfg: cfg, idx: idx, ctx: ctx, cross: cross},
		entries: entries,
	}
}

// runTargeted walks the priority ladder. Hard resource conflicts go first
// because fixing them often clears downstream violations for free; soft
// preferences go last so their repairs cannot displace a hard fix.
func (rp *repairPass) runTargeted(report models.ValidationReport) {
	rp.fixRoomConflicts(report.ByConstraint[models.ConstraintRoomConflict])
	rp.fixPracticalSessions(report.ByConstraint[models.ConstraintPracticalBlock])
	rp.fixPracticalSessions(report.ByConstraint[models.ConstraintSameLab])
	rp.fixRoomTypes(report.ByConstraint[models.ConstraintRoomType])
	rp.fixSubjectFrequency(report.ByConstraint[models.ConstraintSubjectFrequency])
	rp.fixTeacherIssues(report.ByConstraint[models.ConstraintTeacherConflict])
	rp.fixTeacherIssues(report.ByConstraint[models.ConstraintTeacherUnavailable])
	rp.fixTeacherIssues(report.ByConstraint[models.ConstraintTeacherAssignment])
	rp.fixTeacherIssues(report.ByConstraint[models.ConstraintCrossSemester])
	rp.fixFridayLimits(report.ByConstraint[models.ConstraintFridayLimit])
	rp.fixThesisDay(report.ByConstraint[models.ConstraintThesisDay])
	rp.fixMinDailyClasses(report.ByConstraint[models.ConstraintMinDailyClasses])
	rp.fixRemaining(report)
}

// runGapFill is the first escalation: compact each class-group's day by
// pulling late theory classes into interior gaps. Gap moves are lateral for
// the ladder above, so this only runs once targeted repairs stall.
func (rp *repairPass) runGapFill() {
	groups := make([]string, 0, len(rp.idx.groups))
	for _, group := range rp.idx.groups {
		groups = append(groups, group.String())
	}

	for _, classGroup := range groups {
		for _, day := range rp.cfg.Days {
			periods := rp.ctx.GroupPeriods(classGroup, day)
			if len(periods) < 2 {
				continue
			}
			for i := 1; i < len(periods); i++ {
				gap := periods[i] - periods[i-1] - 1
				if gap < 1 {
					continue
				}
				last := rp.ctx.GroupEntry(classGroup, day, periods[len(periods)-1])
				if last == nil || last.IsPractical || last.IsThesis() {
					continue
				}
				if rp.moveTheoryTo(last, day, periods[i-1]+1) {
					rp.repairs++
					periods = rp.ctx.GroupPeriods(classGroup, day)
					i = 0
				}
			}
		}
	}
}

// runAggressive is the last escalation: tear out every entry implicated in a
// remaining critical or high violation and re-place it from scratch. Entries
// that cannot be re-placed stay out; the frequency check reports the hole and
// a later targeted pass retries it.
func (rp *repairPass) runAggressive(report models.ValidationReport) {
	type target struct {
		classGroup string
		subjectID  string
	}
	seen := make(map[target]bool)
	var order []target

	for _, violation := range report.Violations {
		if violation.Severity != models.SeverityCritical && violation.Severity != models.SeverityHigh {
			continue
		}
		if violation.ClassGroup == "" || violation.SubjectID == "" {
			continue
		}
		key := target{classGroup: violation.ClassGroup, subjectID: violation.SubjectID}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	for _, key := range order {
		subject, ok := rp.idx.subjects[key.subjectID]
		if !ok {
			continue
		}
		rp.tearDownSubject(key.classGroup, key.subjectID)
		if subject.IsPractical {
			if rp.placePracticalSession(key.classGroup, subject) {
				rp.repairs++
			}
			continue
		}
		placed := 0
		for i := 0; i < subject.Credits; i++ {
			if rp.placeTheoryClass(key.classGroup, subject) {
				placed++
			}
		}
		if placed > 0 {
			rp.repairs++
		}
	}
}

// fixRoomConflicts reassigns the room on all but the first entry in a
// double-booked slot, or moves the entry when no room is free.
func (rp *repairPass) fixRoomConflicts(violations []models.Violation) {
	for _, violation := range violations {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil || entry.IsThesis() {
			continue
		}
		senior := rp.idx.isSeniorGroup(entry.ClassGroup)
		if room := rp.alloc.FreeRoomFor(entry, senior); room != nil {
			rp.ctx.Release(entry)
			entry.ClassroomID = room.ID
			rp.ctx.Claim(entry)
			rp.repairs++
			continue
		}
		if !entry.IsPractical && rp.moveTheory(entry) {
			rp.repairs++
		}
	}
}

// fixPracticalSessions rebuilds broken practical sessions whole: split
// blocks, wrong counts and multi-lab sessions all get the same treatment.
func (rp *repairPass) fixPracticalSessions(violations []models.Violation) {
	type sessionTarget struct {
		classGroup string
		subjectID  string
	}
	seen := make(map[sessionTarget]bool)

	for _, violation := range violations {
		key := sessionTarget{classGroup: violation.ClassGroup, subjectID: violation.SubjectID}
		if seen[key] {
			continue
		}
		seen[key] = true

		subject, ok := rp.idx.subjects[key.subjectID]
		if !ok || !subject.IsPractical {
			continue
		}
		rp.tearDownSubject(key.classGroup, key.subjectID)
		if rp.placePracticalSession(key.classGroup, subject) {
			rp.repairs++
		}
	}
}

// fixRoomTypes moves practicals out of non-lab rooms by rebuilding their
// session, and clears unknown room references on theory entries.
func (rp *repairPass) fixRoomTypes(violations []models.Violation) {
	for _, violation := range violations {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil {
			continue
		}
		if entry.IsPractical {
			subject, ok := rp.idx.subjects[entry.SubjectID]
			if !ok {
				continue
			}
			rp.tearDownSubject(entry.ClassGroup, entry.SubjectID)
			if rp.placePracticalSession(entry.ClassGroup, subject) {
				rp.repairs++
			}
			continue
		}
		senior := rp.idx.isSeniorGroup(entry.ClassGroup)
		if room := rp.alloc.FreeRoomFor(entry, senior); room != nil {
			rp.ctx.Release(entry)
			entry.ClassroomID = room.ID
			rp.ctx.Claim(entry)
			rp.repairs++
		}
	}
}

// fixSubjectFrequency adds missing classes and removes surplus ones.
func (rp *repairPass) fixSubjectFrequency(violations []models.Violation) {
	span := rp.cfg.Constraints.PracticalBlockSize

	for _, violation := range violations {
		subject, ok := rp.idx.subjects[violation.SubjectID]
		if !ok {
			continue
		}
		current := rp.countSubject(violation.ClassGroup, violation.SubjectID)
		expected := subject.WeeklyClasses(span)

		switch {
		case current < expected && subject.IsPractical:
			rp.tearDownSubject(violation.ClassGroup, violation.SubjectID)
			if rp.placePracticalSession(violation.ClassGroup, subject) {
				rp.repairs++
			}
		case current < expected:
			for current < expected {
				if !rp.placeTheoryClass(violation.ClassGroup, subject) {
					break
				}
				current++
				rp.repairs++
			}
		case current > expected:
			rp.removeSurplus(violation.ClassGroup, violation.SubjectID, current-expected)
		}
	}
}

// fixTeacherIssues swaps the teacher where another qualified one fits, and
// moves the class otherwise. Covers double-booking, unavailability windows,
// unqualified assignments and cross-semester commitments alike.
func (rp *repairPass) fixTeacherIssues(violations []models.Violation) {
	for _, violation := range violations {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil || entry.IsThesis() {
			continue
		}
		span := 1
		if entry.IsPractical {
			// A practical block must keep one teacher throughout, so swap
			// across the whole session or not at all.
			if rp.swapSessionTeacher(entry) {
				rp.repairs++
			}
			continue
		}
		if rp.swapTeacher(entry, span) {
			rp.repairs++
			continue
		}
		if rp.moveTheory(entry) {
			rp.repairs++
		}
	}
}

// fixFridayLimits relocates late Friday theory classes to another day.
func (rp *repairPass) fixFridayLimits(violations []models.Violation) {
	for _, violation := range violations {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil || entry.IsPractical || entry.IsThesis() {
			continue
		}
		if rp.moveTheory(entry) {
			rp.repairs++
		}
	}
}

// fixThesisDay evicts regular classes from a final-year cohort's thesis day
// and strips teachers or drops misplaced thesis placeholders.
func (rp *repairPass) fixThesisDay(violations []models.Violation) {
	for _, violation := range violations {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil {
			continue
		}
		switch {
		case entry.IsThesis() && !rp.idx.isFinalYearGroup(entry.ClassGroup):
			rp.detach(entry)
			rp.repairs++
		case entry.IsThesis() && entry.TeacherID != "":
			rp.ctx.Release(entry)
			entry.TeacherID = ""
			rp.ctx.Claim(entry)
			rp.repairs++
		case !entry.IsThesis() && !entry.IsPractical:
			if rp.moveTheory(entry) {
				rp.repairs++
			}
		}
	}
}

// fixMinDailyClasses pulls a theory class from the cohort's busiest day onto
// the thin day.
func (rp *repairPass) fixMinDailyClasses(violations []models.Violation) {
	for _, violation := range violations {
		donor := rp.busiestDayEntry(violation.ClassGroup, violation.Day)
		if donor == nil {
			continue
		}
		target := violation.Day
		for period := 1; period <= rp.cfg.PeriodsPerDay; period++ {
			if rp.moveTheoryTo(donor, target, period) {
				rp.repairs++
				break
			}
		}
	}
}

// sortBySeverityDesc orders violations worst first so repairs spend free
// slots on the most damaging ones.
func sortBySeverityDesc(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Severity.Rank() > violations[j].Severity.Rank()
	})
}

// fixRemaining sweeps whatever the ladder above did not cover, worst
// severity first, with a plain guarded move.
func (rp *repairPass) fixRemaining(report models.ValidationReport) {
	handled := map[models.ConstraintType]bool{
		models.ConstraintRoomConflict:       true,
		models.ConstraintPracticalBlock:     true,
		models.ConstraintSameLab:            true,
		models.ConstraintRoomType:           true,
		models.ConstraintSubjectFrequency:   true,
		models.ConstraintTeacherConflict:    true,
		models.ConstraintTeacherUnavailable: true,
		models.ConstraintTeacherAssignment:  true,
		models.ConstraintCrossSemester:      true,
		models.ConstraintFridayLimit:        true,
		models.ConstraintThesisDay:          true,
		models.ConstraintMinDailyClasses:    true,
	}

	remaining := make([]models.Violation, 0, len(report.Violations))
	for _, violation := range report.Violations {
		if !handled[violation.Constraint] {
			remaining = append(remaining, violation)
		}
	}
	sortBySeverityDesc(remaining)

	for _, violation := range remaining {
		entry := rp.findEntry(violation.ClassGroup, violation.Day, violation.Period)
		if entry == nil || entry.IsPractical || entry.IsThesis() {
			continue
		}
		if rp.moveTheory(entry) {
			rp.repairs++
		}
	}
}

// findEntry locates the working entry at a violation's coordinates. Falls
// back to a slice scan because conflicting slots hold more than one entry
// while the occupancy map holds one.
func (rp *repairPass) findEntry(classGroup string, day models.Weekday, period int) *models.Entry {
	for _, entry := range rp.entries {
		if entry.ClassGroup == classGroup && entry.Day == day && entry.Period == period {
			return entry
		}
	}
	return nil
}

func (rp *repairPass) countSubject(classGroup, subjectID string) int {
	count := 0
	for _, entry := range rp.entries {
		if entry.ClassGroup == classGroup && entry.SubjectID == subjectID {
			count++
		}
	}
	return count
}

// detach releases the entry and drops it from the working slice.
func (rp *repairPass) detach(target *models.Entry) {
	rp.ctx.Release(target)
	for i, entry := range rp.entries {
		if entry == target {
			rp.entries = append(rp.entries[:i], rp.entries[i+1:]...)
			return
		}
	}
}

// tearDownSubject removes every entry of the subject for the class-group and
// forgets its same-lab memory.
func (rp *repairPass) tearDownSubject(classGroup, subjectID string) {
	kept := rp.entries[:0]
	for _, entry := range rp.entries {
		if entry.ClassGroup == classGroup && entry.SubjectID == subjectID {
			rp.ctx.Release(entry)
			rp.ctx.ForgetSessionLab(entry.Session())
			continue
		}
		kept = append(kept, entry)
	}
	rp.entries = kept
}

func (rp *repairPass) removeSurplus(classGroup, subjectID string, excess int) {
	// Drop from days carrying duplicates first; the distribution check wants
	// the survivors spread out.
	perDay := make(map[models.Weekday][]*models.Entry)
	for _, entry := range rp.entries {
		if entry.ClassGroup == classGroup && entry.SubjectID == subjectID {
			perDay[entry.Day] = append(perDay[entry.Day], entry)
		}
	}
	days := make([]models.Weekday, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		if len(perDay[days[i]]) != len(perDay[days[j]]) {
			return len(perDay[days[i]]) > len(perDay[days[j]])
		}
		return days[i] < days[j]
	})

	for _, day := range days {
		entries := perDay[day]
		for len(entries) > 1 && excess > 0 {
			rp.detach(entries[len(entries)-1])
			entries = entries[:len(entries)-1]
			excess--
			rp.repairs++
		}
	}
	for _, day := range days {
		if excess == 0 {
			break
		}
		if entries := perDay[day]; len(entries) > 0 {
			rp.detach(entries[0])
			perDay[day] = entries[1:]
			excess--
			rp.repairs++
		}
	}
}

// moveTheory relocates a theory entry to the first slot passing the
// placement gates, keeping its teacher when possible.
func (rp *repairPass) moveTheory(entry *models.Entry) bool {
	for _, day := range rp.cfg.Days {
		for period := 1; period <= rp.cfg.PeriodsPerDay; period++ {
			if day == entry.Day && period == entry.Period {
				continue
			}
			if rp.moveTheoryTo(entry, day, period) {
				return true
			}
		}
	}
	return false
}

// moveTheoryTo attempts one specific destination slot. The entry is released
// before the gates run so its current slot does not block itself, and
// re-claimed unchanged when the destination fails.
func (rp *repairPass) moveTheoryTo(entry *models.Entry, day models.Weekday, period int) bool {
	if entry.IsPractical || entry.IsThesis() {
		return false
	}
	if day == entry.Day && period == entry.Period {
		return false
	}
	rp.ctx.Release(entry)

	ok := rp.rules.theorySlotOK(entry.ClassGroup, entry.SubjectID, day, period)
	teacherID := entry.TeacherID
	if ok && !rp.rules.teacherFits(teacherID, day, period, 1) {
		teacherID = rp.rules.pickTeacher(entry.SubjectID, entry.ClassGroup, day, period, 1)
		ok = teacherID != ""
	}
	var room *models.Classroom
	if ok {
		room = rp.alloc.AllocateForTheory(day, period, rp.idx.isSeniorGroup(entry.ClassGroup))
		ok = room != nil
	}
	if !ok {
		rp.ctx.Claim(entry)
		return false
	}

	entry.Day = day
	entry.Period = period
	entry.TeacherID = teacherID
	entry.ClassroomID = room.ID
	entry.StartTime, entry.EndTime = rp.cfg.PeriodTimes(period)
	rp.ctx.Claim(entry)
	return true
}

// swapTeacher reassigns a single entry to another qualified teacher.
func (rp *repairPass) swapTeacher(entry *models.Entry, span int) bool {
	rp.ctx.Release(entry)
	replacement := ""
	for _, teacherID := range rp.idx.qualifiedTeachers(entry.SubjectID, entry.ClassGroup) {
		if teacherID == entry.TeacherID {
			continue
		}
		if rp.rules.teacherFits(teacherID, entry.Day, entry.Period, span) {
			replacement = teacherID
			break
		}
	}
	if replacement == "" {
		rp.ctx.Claim(entry)
		return false
	}
	entry.TeacherID = replacement
	rp.ctx.Claim(entry)
	return true
}

// swapSessionTeacher replaces the teacher on every block of a practical
// session at once.
func (rp *repairPass) swapSessionTeacher(sample *models.Entry) bool {
	session := sample.Session()
	var block []*models.Entry
	for _, entry := range rp.entries {
		if entry.IsPractical && entry.Session() == session {
			block = append(block, entry)
		}
	}
	if len(block) == 0 {
		return false
	}
	sortEntriesByPeriod(block)

	for _, entry := range block {
		rp.ctx.Release(entry)
	}
	replacement := ""
	for _, teacherID := range rp.idx.qualifiedTeachers(sample.SubjectID, sample.ClassGroup) {
		if teacherID == sample.TeacherID {
			continue
		}
		if rp.rules.teacherFits(teacherID, block[0].Day, block[0].Period, len(block)) {
			replacement = teacherID
			break
		}
	}
	for _, entry := range block {
		if replacement != "" {
			entry.TeacherID = replacement
		}
		rp.ctx.Claim(entry)
	}
	return replacement != ""
}

// placePracticalSession re-places a whole practical block, mirroring the
// generator's window scan under the same attempt bound.
func (rp *repairPass) placePracticalSession(classGroup string, subject models.Subject) bool {
	span := rp.cfg.Constraints.PracticalBlockSize
	attempts := 0
	for _, day := range rp.cfg.Days {
		for start := 1; start+span-1 <= rp.cfg.PeriodsPerDay; start++ {
			attempts++
			if attempts > rp.cfg.Constraints.AttemptBound {
				return false
			}
			if !rp.rules.practicalWindowOK(classGroup, day, start, span) {
				continue
			}
			teacherID := rp.rules.pickTeacher(subject.ID, classGroup, day, start, span)
			if teacherID == "" {
				continue
			}
			lab := rp.alloc.AllocateForPractical(day, start, span, classGroup, subject.ID)
			if lab == nil {
				continue
			}
			for p := start; p < start+span; p++ {
				entry := rp.newEntry(classGroup, day, p, subject.ID, teacherID, lab.ID, true)
				rp.ctx.Claim(entry)
				rp.entries = append(rp.entries, entry)
			}
			return true
		}
	}
	return false
}

// placeTheoryClass adds one theory class for the subject on the lightest
// feasible day.
func (rp *repairPass) placeTheoryClass(classGroup string, subject models.Subject) bool {
	days := make([]models.Weekday, len(rp.cfg.Days))
	copy(days, rp.cfg.Days)
	sort.SliceStable(days, func(i, j int) bool {
		return rp.ctx.GroupDayLoad(classGroup, days[i]) < rp.ctx.GroupDayLoad(classGroup, days[j])
	})

	senior := rp.idx.isSeniorGroup(classGroup)
	attempts := 0
	for _, day := range days {
		for period := 1; period <= rp.cfg.PeriodsPerDay; period++ {
			attempts++
			if attempts > rp.cfg.Constraints.AttemptBound {
				return false
			}
			if !rp.rules.theorySlotOK(classGroup, subject.ID, day, period) {
				continue
			}
			teacherID := rp.rules.pickTeacher(subject.ID, classGroup, day, period, 1)
			if teacherID == "" {
				continue
			}
			room := rp.alloc.AllocateForTheory(day, period, senior)
			if room == nil {
				continue
			}
			entry := rp.newEntry(classGroup, day, period, subject.ID, teacherID, room.ID, false)
			rp.ctx.Claim(entry)
			rp.entries = append(rp.entries, entry)
			return true
		}
	}
	return false
}

// busiestDayEntry returns a movable theory entry from the class-group's most
// loaded day, excluding the day being topped up.
func (rp *repairPass) busiestDayEntry(classGroup string, exclude models.Weekday) *models.Entry {
	bestDay := models.Weekday("")
	bestLoad := 0
	for _, day := range rp.cfg.Days {
		if day == exclude {
			continue
		}
		load := rp.ctx.GroupDayLoad(classGroup, day)
		if load > bestLoad {
			bestDay = day
			bestLoad = load
		}
	}
	if bestDay == "" || bestLoad <= rp.cfg.Constraints.MinDailyClasses {
		return nil
	}
	periods := rp.ctx.GroupPeriods(classGroup, bestDay)
	for i := len(periods) - 1; i >= 0; i-- {
		entry := rp.ctx.GroupEntry(classGroup, bestDay, periods[i])
		if entry != nil && !entry.IsPractical && !entry.IsThesis() {
			return entry
		}
	}
	return nil
}

func (rp *repairPass) newEntry(classGroup string, day models.Weekday, period int, subjectID, teacherID, classroomID string, practical bool) *models.Entry {
	start, end := rp.cfg.PeriodTimes(period)
	return &models.Entry{
		ID:          uuid.NewString(),
		ConfigID:    rp.cfg.ID,
		ClassGroup:  classGroup,
		Kind:        models.EntryRegular,
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
