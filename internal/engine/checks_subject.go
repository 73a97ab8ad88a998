package engine

import (
	"fmt"

	"github.com/muet-dev/timetable-api/internal/models"
)

// checkSubjectFrequency verifies the weekly class count per (class-group,
// subject): exactly one consecutive block for practicals, exactly `credits`
// single classes for theory.
func checkSubjectFrequency(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	span := ctx.cfg.Constraints.PracticalBlockSize

	// Every selected class-group must carry every subject of its batch.
	for _, group := range ctx.idx.groups {
		batch := ctx.idx.groupBatch[group.String()]
		for _, subject := range ctx.idx.subjectsByBatch[batch.ID] {
			entries := ctx.byGroupSubject[group.String()][subject.ID]
			expected := subject.WeeklyClasses(span)
			if len(entries) == expected {
				continue
			}
			violations = append(violations, models.Violation{
				Constraint: models.ConstraintSubjectFrequency,
				Severity:   models.SeverityHigh,
				Description: fmt.Sprintf("%s has %d of %d required classes for %s",
					group.String(), len(entries), expected, subject.Code),
				ClassGroup: group.String(),
				SubjectID:  subject.ID,
			})
		}
	}
	return violations
}

// checkPracticalBlocks verifies each practical session is one run of exactly
// blockSize truly consecutive periods on a single day.
func checkPracticalBlocks(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	span := ctx.cfg.Constraints.PracticalBlockSize

	for session, entries := range ctx.sessions {
		if len(entries) != span {
			violations = append(violations, models.Violation{
				Constraint: models.ConstraintPracticalBlock,
				Severity:   models.SeverityHigh,
				Description: fmt.Sprintf("practical %s for %s on %s has %d blocks, expected %d",
					session.SubjectID, session.ClassGroup, session.Day, len(entries), span),
				ClassGroup: session.ClassGroup,
				SubjectID:  session.SubjectID,
				Day:        session.Day,
			})
			continue
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].Period != entries[i-1].Period+1 {
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintPracticalBlock,
					Severity:   models.SeverityHigh,
					Description: fmt.Sprintf("practical %s for %s on %s is not consecutive (periods %d and %d)",
						session.SubjectID, session.ClassGroup, session.Day, entries[i-1].Period, entries[i].Period),
					ClassGroup: session.ClassGroup,
					SubjectID:  session.SubjectID,
					Day:        session.Day,
					Period:     entries[i].Period,
				})
				break
			}
		}
	}
	return violations
}

// checkSameLab enforces the same-lab rule: all blocks of one practical
// session must share a single lab instance.
func checkSameLab(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for session, entries := range ctx.sessions {
		labs := make(map[string]bool)
		for _, entry := range entries {
			if entry.ClassroomID != "" {
				labs[entry.ClassroomID] = true
			}
		}
		if len(labs) <= 1 {
			continue
		}
		violations = append(violations, models.Violation{
			Constraint: models.ConstraintSameLab,
			Severity:   models.SeverityCritical,
			Description: fmt.Sprintf("practical %s for %s on %s spans %d different labs",
				session.SubjectID, session.ClassGroup, session.Day, len(labs)),
			ClassGroup: session.ClassGroup,
			SubjectID:  session.SubjectID,
			Day:        session.Day,
		})
	}
	return violations
}

// checkTheoryDistribution enforces at most one class of a theory subject per
// day, spread across distinct weekdays.
func checkTheoryDistribution(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for classGroup, subjects := range ctx.byGroupSubject {
		for subjectID, entries := range subjects {
			subject, ok := ctx.idx.subjects[subjectID]
			if !ok || subject.IsPractical {
				continue
			}
			perDay := make(map[models.Weekday]int)
			for _, entry := range entries {
				perDay[entry.Day]++
			}
			for day, count := range perDay {
				if count <= 1 {
					continue
				}
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintTheoryDistribution,
					Severity:   models.SeverityMedium,
					Description: fmt.Sprintf("%s has %d classes of %s on %s, max is 1 per day",
						classGroup, count, subject.Code, day),
					ClassGroup: classGroup,
					SubjectID:  subjectID,
					Day:        day,
				})
			}
		}
	}
	return violations
}

// checkThesisDay verifies final-year cohorts spend the thesis day entirely
// on thesis placeholders, that those placeholders carry no teacher, and
// that no other cohort carries thesis entries at all.
func checkThesisDay(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	thesisDay := ctx.cfg.Constraints.ThesisDay

	for classGroup, days := range ctx.byGroupDay {
		finalYear := ctx.idx.isFinalYearGroup(classGroup)
		for day, entries := range days {
			for _, entry := range entries {
				switch {
				case entry.IsThesis() && !finalYear:
					violations = append(violations, models.Violation{
						Constraint:  models.ConstraintThesisDay,
						Severity:    models.SeverityHigh,
						Description: fmt.Sprintf("%s is not a final-year cohort but has a thesis entry on %s", classGroup, day),
						ClassGroup:  classGroup,
						Day:         day,
						Period:      entry.Period,
					})
				case entry.IsThesis() && entry.TeacherID != "":
					violations = append(violations, models.Violation{
						Constraint:  models.ConstraintThesisDay,
						Severity:    models.SeverityHigh,
						Description: fmt.Sprintf("thesis entry for %s on %s period %d carries a teacher", classGroup, day, entry.Period),
						ClassGroup:  classGroup,
						TeacherID:   entry.TeacherID,
						Day:         day,
						Period:      entry.Period,
					})
				case !entry.IsThesis() && finalYear && day == thesisDay:
					violations = append(violations, models.Violation{
						Constraint: models.ConstraintThesisDay,
						Severity:   models.SeverityHigh,
						Description: fmt.Sprintf("%s has a regular class (%s) on thesis day %s period %d",
							classGroup, entry.SubjectID, day, entry.Period),
						ClassGroup: classGroup,
						SubjectID:  entry.SubjectID,
						Day:        day,
						Period:     entry.Period,
					})
				}
			}
		}
	}
	return violations
}
