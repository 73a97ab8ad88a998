package engine

import (
	"fmt"

	"github.com/muet-dev/timetable-api/internal/models"
)

// checkTeacherConflicts flags any (teacher, day, period) held by more than
// one entry. Double-booking a teacher is a hard constraint.
func checkTeacherConflicts(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for teacherID, slots := range ctx.byTeacherSlot {
		for key, entries := range slots {
			if len(entries) < 2 {
				continue
			}
			for _, entry := range entries[1:] {
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintTeacherConflict,
					Severity:   models.SeverityCritical,
					Description: fmt.Sprintf("teacher %s double-booked on %s period %d (%s and %s)",
						teacherID, key.Day, key.Period, entries[0].ClassGroup, entry.ClassGroup),
					ClassGroup: entry.ClassGroup,
					SubjectID:  entry.SubjectID,
					TeacherID:  teacherID,
					Day:        key.Day,
					Period:     key.Period,
				})
			}
		}
	}
	return violations
}

// checkRoomConflicts flags any (room, day, period) held by more than one
// entry, except blocks of the same practical session which legitimately
// share the lab across consecutive periods (not the same period).
func checkRoomConflicts(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for roomID, slots := range ctx.byRoomSlot {
		for key, entries := range slots {
			if len(entries) < 2 {
				continue
			}
			for _, entry := range entries[1:] {
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintRoomConflict,
					Severity:   models.SeverityCritical,
					Description: fmt.Sprintf("room %s double-booked on %s period %d (%s and %s)",
						roomID, key.Day, key.Period, entries[0].ClassGroup, entry.ClassGroup),
					ClassGroup:  entry.ClassGroup,
					SubjectID:   entry.SubjectID,
					ClassroomID: roomID,
					Day:         key.Day,
					Period:      key.Period,
				})
			}
		}
	}
	return violations
}

// checkClassGroupConflicts flags a class-group holding two entries in one
// slot.
func checkClassGroupConflicts(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for classGroup, slots := range ctx.byGroupSlot {
		for key, entries := range slots {
			if len(entries) < 2 {
				continue
			}
			for _, entry := range entries[1:] {
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintClassGroupConflict,
					Severity:   models.SeverityCritical,
					Description: fmt.Sprintf("class-group %s has %d classes on %s period %d",
						classGroup, len(entries), key.Day, key.Period),
					ClassGroup: classGroup,
					SubjectID:  entry.SubjectID,
					Day:        key.Day,
					Period:     key.Period,
				})
			}
		}
	}
	return violations
}

// checkTeacherUnavailability is zero-tolerance: any entry inside a declared
// unavailable window is critical.
func checkTeacherUnavailability(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for _, entry := range ctx.entries {
		if entry.TeacherID == "" {
			continue
		}
		windows := ctx.idx.unavailability[entry.TeacherID]
		if !windows.Blocks(entry.Day, entry.Period) {
			continue
		}
		violations = append(violations, models.Violation{
			Constraint: models.ConstraintTeacherUnavailable,
			Severity:   models.SeverityCritical,
			Description: fmt.Sprintf("teacher %s scheduled on %s period %d inside an unavailable window",
				entry.TeacherID, entry.Day, entry.Period),
			ClassGroup: entry.ClassGroup,
			SubjectID:  entry.SubjectID,
			TeacherID:  entry.TeacherID,
			Day:        entry.Day,
			Period:     entry.Period,
		})
	}
	return violations
}

// checkTeacherDailyCap flags teachers exceeding their max classes per day.
func checkTeacherDailyCap(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	daily := make(map[string]map[models.Weekday]int)
	for _, entry := range ctx.entries {
		if entry.TeacherID == "" {
			continue
		}
		if daily[entry.TeacherID] == nil {
			daily[entry.TeacherID] = make(map[models.Weekday]int)
		}
		daily[entry.TeacherID][entry.Day]++
	}
	for teacherID, days := range daily {
		teacher, ok := ctx.idx.teachers[teacherID]
		if !ok || teacher.MaxPerDay <= 0 {
			continue
		}
		for day, count := range days {
			if count <= teacher.MaxPerDay {
				continue
			}
			violations = append(violations, models.Violation{
				Constraint: models.ConstraintTeacherDailyCap,
				Severity:   models.SeverityMedium,
				Description: fmt.Sprintf("teacher %s has %d classes on %s, cap is %d",
					teacherID, count, day, teacher.MaxPerDay),
				TeacherID: teacherID,
				Day:       day,
			})
		}
	}
	return violations
}

// checkTeacherAssignments verifies every regular entry uses a teacher
// actually assigned to that subject for that class-group.
func checkTeacherAssignments(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for _, entry := range ctx.entries {
		if entry.IsThesis() || entry.TeacherID == "" {
			continue
		}
		qualified := ctx.idx.qualifiedTeachers(entry.SubjectID, entry.ClassGroup)
		found := false
		for _, id := range qualified {
			if id == entry.TeacherID {
				found = true
				break
			}
		}
		if found {
			continue
		}
		violations = append(violations, models.Violation{
			Constraint: models.ConstraintTeacherAssignment,
			Severity:   models.SeverityHigh,
			Description: fmt.Sprintf("teacher %s is not assigned to subject %s for %s",
				entry.TeacherID, entry.SubjectID, entry.ClassGroup),
			ClassGroup: entry.ClassGroup,
			SubjectID:  entry.SubjectID,
			TeacherID:  entry.TeacherID,
			Day:        entry.Day,
			Period:     entry.Period,
		})
	}
	return violations
}

// checkCrossSemester penalises teacher bookings that collide with committed
// entries of other active configs. Weighted nearly as heavily as direct
// double-booking.
func checkCrossSemester(ctx *checkContext) []models.Violation {
	if ctx.cross == nil {
		return nil
	}
	var violations []models.Violation
	for _, entry := range ctx.entries {
		if entry.TeacherID == "" {
			continue
		}
		busy, descriptions := ctx.cross.CheckTeacherConflict(entry.TeacherID, entry.Day, entry.Period)
		if !busy {
			continue
		}
		for _, description := range descriptions {
			violations = append(violations, models.Violation{
				Constraint:  models.ConstraintCrossSemester,
				Severity:    models.SeverityHigh,
				Description: description,
				ClassGroup:  entry.ClassGroup,
				SubjectID:   entry.SubjectID,
				TeacherID:   entry.TeacherID,
				Day:         entry.Day,
				Period:      entry.Period,
			})
		}
	}
	return violations
}
