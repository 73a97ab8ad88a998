package engine

import (
	"fmt"

	"github.com/muet-dev/timetable-api/internal/models"
)

// checkRoomTypes verifies practicals run in labs and flags unknown rooms.
func checkRoomTypes(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for _, entry := range ctx.entries {
		if entry.ClassroomID == "" {
			continue
		}
		room, ok := ctx.idx.rooms[entry.ClassroomID]
		if !ok {
			violations = append(violations, models.Violation{
				Constraint:  models.ConstraintRoomType,
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("entry for %s references unknown room %s", entry.ClassGroup, entry.ClassroomID),
				ClassGroup:  entry.ClassGroup,
				ClassroomID: entry.ClassroomID,
				Day:         entry.Day,
				Period:      entry.Period,
			})
			continue
		}
		if entry.IsPractical && !room.IsLab {
			violations = append(violations, models.Violation{
				Constraint: models.ConstraintRoomType,
				Severity:   models.SeverityHigh,
				Description: fmt.Sprintf("practical %s for %s scheduled in non-lab room %s",
					entry.SubjectID, entry.ClassGroup, room.Name),
				ClassGroup:  entry.ClassGroup,
				SubjectID:   entry.SubjectID,
				ClassroomID: entry.ClassroomID,
				Day:         entry.Day,
				Period:      entry.Period,
			})
		}
	}
	return violations
}

// checkSeniorityPriority flags junior cohorts holding lab rooms for theory.
// Labs are reserved for practicals and senior-theory overflow.
func checkSeniorityPriority(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for _, entry := range ctx.entries {
		if entry.IsPractical || entry.IsThesis() || entry.ClassroomID == "" {
			continue
		}
		room, ok := ctx.idx.rooms[entry.ClassroomID]
		if !ok || !room.IsLab {
			continue
		}
		if ctx.idx.isSeniorGroup(entry.ClassGroup) {
			continue
		}
		violations = append(violations, models.Violation{
			Constraint: models.ConstraintSeniorityPriority,
			Severity:   models.SeverityMedium,
			Description: fmt.Sprintf("junior cohort %s holds lab %s for theory %s",
				entry.ClassGroup, room.Name, entry.SubjectID),
			ClassGroup:  entry.ClassGroup,
			SubjectID:   entry.SubjectID,
			ClassroomID: entry.ClassroomID,
			Day:         entry.Day,
			Period:      entry.Period,
		})
	}
	return violations
}
