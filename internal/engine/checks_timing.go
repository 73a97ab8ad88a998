package engine

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/muet-dev/timetable-api/internal/models"
)

// checkPeriodBounds flags entries outside the config's day and period grid.
func checkPeriodBounds(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for _, entry := range ctx.entries {
		outsideDay := !lo.Contains(ctx.cfg.Days, entry.Day)
		outsidePeriod := entry.Period < 1 || entry.Period > ctx.cfg.PeriodsPerDay
		if !outsideDay && !outsidePeriod {
			continue
		}
		violations = append(violations, models.Violation{
			Constraint: models.ConstraintPeriodBounds,
			Severity:   models.SeverityHigh,
			Description: fmt.Sprintf("entry for %s sits outside the configured grid (%s period %d)",
				entry.ClassGroup, entry.Day, entry.Period),
			ClassGroup: entry.ClassGroup,
			SubjectID:  entry.SubjectID,
			Day:        entry.Day,
			Period:     entry.Period,
		})
	}
	return violations
}

// checkFridayLimits encodes the prayer-break policy: with a practical on
// Friday, theory must end by the higher limit; without one, by the lower.
func checkFridayLimits(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for classGroup, days := range ctx.byGroupDay {
		entries := days[models.Friday]
		if len(entries) == 0 {
			continue
		}
		hasPractical := lo.SomeBy(entries, func(e *models.Entry) bool { return e.IsPractical })
		limit := ctx.cfg.Constraints.FridayLimitWithoutPractical
		if hasPractical {
			limit = ctx.cfg.Constraints.FridayLimitWithPractical
		}
		for _, entry := range entries {
			if entry.IsPractical || entry.IsThesis() || entry.Period <= limit {
				continue
			}
			violations = append(violations, models.Violation{
				Constraint: models.ConstraintFridayLimit,
				Severity:   models.SeverityHigh,
				Description: fmt.Sprintf("%s has theory %s at Friday period %d, limit is %d",
					classGroup, entry.SubjectID, entry.Period, limit),
				ClassGroup: classGroup,
				SubjectID:  entry.SubjectID,
				TeacherID:  entry.TeacherID,
				Day:        models.Friday,
				Period:     entry.Period,
			})
		}
	}
	return violations
}

// checkMinDailyClasses flags days with exactly one class and days made up of
// practicals only.
func checkMinDailyClasses(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for classGroup, days := range ctx.byGroupDay {
		for day, entries := range days {
			if len(entries) == 0 {
				continue
			}
			allThesis := lo.EveryBy(entries, func(e *models.Entry) bool { return e.IsThesis() })
			if allThesis {
				continue
			}
			if len(entries) == 1 {
				violations = append(violations, models.Violation{
					Constraint:  models.ConstraintMinDailyClasses,
					Severity:    models.SeverityMedium,
					Description: fmt.Sprintf("%s has only one class on %s", classGroup, day),
					ClassGroup:  classGroup,
					SubjectID:   entries[0].SubjectID,
					Day:         day,
					Period:      entries[0].Period,
				})
				continue
			}
			allPractical := lo.EveryBy(entries, func(e *models.Entry) bool { return e.IsPractical })
			if allPractical {
				violations = append(violations, models.Violation{
					Constraint:  models.ConstraintMinDailyClasses,
					Severity:    models.SeverityMedium,
					Description: fmt.Sprintf("%s has only practical classes on %s, days must mix", classGroup, day),
					ClassGroup:  classGroup,
					Day:         day,
				})
			}
		}
	}
	return violations
}

// checkCompactSchedule flags gaps of more than one free period inside a
// class-group's day. Soft preference, low severity.
func checkCompactSchedule(ctx *checkContext) []models.Violation {
	var violations []models.Violation
	for classGroup, days := range ctx.byGroupDay {
		for day, entries := range days {
			for i := 1; i < len(entries); i++ {
				gap := entries[i].Period - entries[i-1].Period - 1
				if gap <= 1 {
					continue
				}
				violations = append(violations, models.Violation{
					Constraint: models.ConstraintCompactSchedule,
					Severity:   models.SeverityLow,
					Description: fmt.Sprintf("%s has a %d-period gap on %s between periods %d and %d",
						classGroup, gap, day, entries[i-1].Period, entries[i].Period),
					ClassGroup: classGroup,
					Day:        day,
					Period:     entries[i].Period,
				})
			}
		}
	}
	return violations
}

// checkClassGroupBreaks flags marathon days: more than four occupied periods
// in a row without a free period leaves the cohort no break.
func checkClassGroupBreaks(ctx *checkContext) []models.Violation {
	const maxConsecutive = 4
	var violations []models.Violation
	for classGroup, days := range ctx.byGroupDay {
		for day, all := range days {
			// Thesis placeholders are not taught classes.
			entries := make([]*models.Entry, 0, len(all))
			for _, entry := range all {
				if !entry.IsThesis() {
					entries = append(entries, entry)
				}
			}
			run := 1
			for i := 1; i < len(entries); i++ {
				if entries[i].Period == entries[i-1].Period+1 {
					run++
				} else {
					run = 1
				}
				if run == maxConsecutive+1 {
					violations = append(violations, models.Violation{
						Constraint: models.ConstraintClassGroupBreaks,
						Severity:   models.SeverityMedium,
						Description: fmt.Sprintf("%s has more than %d consecutive classes on %s without a break",
							classGroup, maxConsecutive, day),
						ClassGroup: classGroup,
						Day:        day,
						Period:     entries[i].Period,
					})
				}
			}
		}
	}
	return violations
}

// checkTeacherBreaks flags teachers with more consecutive theory periods
// than the configured run before a break. Practical blocks are exempt.
func checkTeacherBreaks(ctx *checkContext) []models.Violation {
	limit := ctx.cfg.Constraints.TeacherBreakAfter
	var violations []models.Violation

	for teacherID, slots := range ctx.byTeacherSlot {
		perDay := make(map[models.Weekday][]*models.Entry)
		for key, entries := range slots {
			for _, entry := range entries {
				if !entry.IsPractical {
					perDay[key.Day] = append(perDay[key.Day], entry)
				}
			}
		}
		for day, entries := range perDay {
			sortEntriesByPeriod(entries)
			run := 1
			for i := 1; i < len(entries); i++ {
				if entries[i].Period == entries[i-1].Period+1 {
					run++
				} else {
					run = 1
				}
				if run == limit+1 {
					violations = append(violations, models.Violation{
						Constraint: models.ConstraintTeacherBreaks,
						Severity:   models.SeverityMedium,
						Description: fmt.Sprintf("teacher %s has more than %d consecutive theory periods on %s",
							teacherID, limit, day),
						TeacherID: teacherID,
						Day:       day,
						Period:    entries[i].Period,
					})
				}
			}
		}
	}
	return violations
}

func sortEntriesByPeriod(entries []*models.Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Period < entries[j-1].Period; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
