package models

import "time"

// SkippedSubject records a subject the generator could not place at all.
// Resource exhaustion is report data, not an error.
type SkippedSubject struct {
	SubjectID  string `json:"subject_id"`
	ClassGroup string `json:"class_group"`
	Reason     string `json:"reason"`
}

// IterationStat is one line of the resolver's iteration log.
type IterationStat struct {
	Iteration  int    `json:"iteration"`
	Violations int    `json:"violations"`
	Strategy   string `json:"strategy"`
	Repairs    int    `json:"repairs"`
}

// ScheduleReport is the output contract of a full scheduling run: the only
// thing a surrounding CLI or API layer needs to display.
type ScheduleReport struct {
	ConfigID            string                 `json:"config_id"`
	Success             bool                   `json:"success"`
	EntriesGenerated    int                    `json:"entries_generated"`
	InitialViolations   int                    `json:"initial_violations"`
	FinalViolations     int                    `json:"final_violations"`
	IterationsCompleted int                    `json:"iterations_completed"`
	Converged           bool                   `json:"converged"`
	Breakdown           map[ConstraintType]int `json:"breakdown"`
	Remaining           []Violation            `json:"remaining,omitempty"`
	Unscheduled         []SkippedSubject       `json:"unscheduled,omitempty"`
	IterationLog        []IterationStat        `json:"iteration_log,omitempty"`
	HarmonyScore        float64                `json:"harmony_score"`
	GeneratedAt         time.Time              `json:"generated_at"`
}
