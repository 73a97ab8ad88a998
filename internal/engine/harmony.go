package engine

import (
	"fmt"

	"github.com/muet-dev/timetable-api/internal/models"
)

// antagonistPairs lists constraints whose remedies are known to fight each
// other: fixing one side tends to re-create the other.
var antagonistPairs = [][2]models.ConstraintType{
	{models.ConstraintPracticalBlock, models.ConstraintClassGroupBreaks},
	{models.ConstraintCompactSchedule, models.ConstraintTeacherBreaks},
	{models.ConstraintMinDailyClasses, models.ConstraintFridayLimit},
	{models.ConstraintSubjectFrequency, models.ConstraintTeacherDailyCap},
	{models.ConstraintCompactSchedule, models.ConstraintClassGroupBreaks},
}

// detectConstraintConflicts flags antagonist pairs that are both currently
// violated. Purely diagnostic: the resolver's priority ladder, not this
// list, decides what gets fixed first.
func detectConstraintConflicts(report models.ValidationReport) []models.ConstraintConflict {
	var conflicts []models.ConstraintConflict
	for _, pair := range antagonistPairs {
		first := len(report.ByConstraint[pair[0]])
		second := len(report.ByConstraint[pair[1]])
		if first == 0 || second == 0 {
			continue
		}
		conflicts = append(conflicts, models.ConstraintConflict{
			First:  pair[0],
			Second: pair[1],
			Description: fmt.Sprintf("repairs for %s (%d violations) can undo repairs for %s (%d violations)",
				pair[0], first, pair[1], second),
		})
	}
	return conflicts
}

// harmonyScore condenses a validation pass into a 0-100 diagnostic:
// 100 minus a severity-weighted violation penalty minus a penalty per
// detected constraint conflict.
func harmonyScore(report models.ValidationReport) float64 {
	penalty := 0.0
	for _, violation := range report.Violations {
		switch violation.Severity {
		case models.SeverityCritical:
			penalty += 5
		case models.SeverityHigh:
			penalty += 3
		case models.SeverityMedium:
			penalty += 2
		default:
			penalty += 1
		}
	}
	penalty += float64(len(report.Conflicts)) * 8

	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	return score
}
