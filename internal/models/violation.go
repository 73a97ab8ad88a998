package models

// Severity grades how badly a violation breaks the timetable.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities for comparison; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ConstraintType names one independent validation rule.
type ConstraintType string

const (
	ConstraintSubjectFrequency   ConstraintType = "SUBJECT_FREQUENCY"
	ConstraintPracticalBlock     ConstraintType = "PRACTICAL_BLOCK"
	ConstraintSameLab            ConstraintType = "SAME_LAB"
	ConstraintTeacherConflict    ConstraintType = "TEACHER_CONFLICT"
	ConstraintRoomConflict       ConstraintType = "ROOM_CONFLICT"
	ConstraintClassGroupConflict ConstraintType = "CLASS_GROUP_CONFLICT"
	ConstraintTeacherUnavailable ConstraintType = "TEACHER_UNAVAILABLE"
	ConstraintTeacherDailyCap    ConstraintType = "TEACHER_DAILY_CAP"
	ConstraintTeacherAssignment  ConstraintType = "TEACHER_ASSIGNMENT"
	ConstraintTheoryDistribution ConstraintType = "THEORY_DISTRIBUTION"
	ConstraintFridayLimit        ConstraintType = "FRIDAY_LIMIT"
	ConstraintMinDailyClasses    ConstraintType = "MIN_DAILY_CLASSES"
	ConstraintThesisDay          ConstraintType = "THESIS_DAY"
	ConstraintCompactSchedule    ConstraintType = "COMPACT_SCHEDULE"
	ConstraintRoomType           ConstraintType = "ROOM_TYPE"
	ConstraintSeniorityPriority  ConstraintType = "SENIORITY_PRIORITY"
	ConstraintCrossSemester      ConstraintType = "CROSS_SEMESTER"
	ConstraintClassGroupBreaks   ConstraintType = "CLASS_GROUP_BREAKS"
	ConstraintTeacherBreaks      ConstraintType = "TEACHER_BREAKS"
	ConstraintPeriodBounds       ConstraintType = "PERIOD_BOUNDS"
)

// Violation is a structured record of one broken constraint instance.
// Violations are data, never errors: the resolver consumes them and the
// final report surfaces whatever remains.
type Violation struct {
	Constraint  ConstraintType `json:"constraint"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	ClassGroup  string         `json:"class_group,omitempty"`
	SubjectID   string         `json:"subject_id,omitempty"`
	TeacherID   string         `json:"teacher_id,omitempty"`
	ClassroomID string         `json:"classroom_id,omitempty"`
	Day         Weekday        `json:"day,omitempty"`
	Period      int            `json:"period,omitempty"`
}

// ConstraintConflict flags a pair of constraints whose remedies can fight
// each other on the current entry set. Purely diagnostic.
type ConstraintConflict struct {
	First       ConstraintType `json:"first"`
	Second      ConstraintType `json:"second"`
	Description string         `json:"description"`
}

// ValidationReport aggregates one validation pass.
type ValidationReport struct {
	Total        int                             `json:"total"`
	Violations   []Violation                     `json:"violations"`
	ByConstraint map[ConstraintType][]Violation  `json:"by_constraint"`
	Conflicts    []ConstraintConflict            `json:"conflicts,omitempty"`
	HarmonyScore float64                         `json:"harmony_score"`
}

// Count returns the number of violations for one constraint.
func (r ValidationReport) Count(constraint ConstraintType) int {
	return len(r.ByConstraint[constraint])
}

// CountBySeverity tallies violations at the given severity.
func (r ValidationReport) CountBySeverity(severity Severity) int {
	count := 0
	for _, v := range r.Violations {
		if v.Severity == severity {
			count++
		}
	}
	return count
}

// Breakdown flattens the per-constraint groups into counts.
func (r ValidationReport) Breakdown() map[ConstraintType]int {
	result := make(map[ConstraintType]int, len(r.ByConstraint))
	for constraint, violations := range r.ByConstraint {
		result[constraint] = len(violations)
	}
	return result
}
