package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Batch represents a student cohort, e.g. "21SW". A batch may be split into
// sections ("21SW-I", "21SW-II") that carry independent timetables.
type Batch struct {
	ID         string         `db:"id" json:"id"`
	Code       string         `db:"code" json:"code"`
	Name       string         `db:"name" json:"name"`
	IntakeYear int            `db:"intake_year" json:"intake_year"`
	Semester   int            `db:"semester" json:"semester"`
	Sections   types.JSONText `db:"sections" json:"sections"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// SectionNames decodes the section list. A batch without sections schedules
// as a single class-group under its own code.
func (b Batch) SectionNames() []string {
	if len(b.Sections) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(b.Sections, &names); err != nil {
		return nil
	}
	return names
}

// ClassGroups expands the batch into its schedulable class-groups.
func (b Batch) ClassGroups() []ClassGroup {
	sections := b.SectionNames()
	if len(sections) == 0 {
		return []ClassGroup{{BatchID: b.ID, BatchCode: b.Code}}
	}
	groups := make([]ClassGroup, 0, len(sections))
	for _, section := range sections {
		groups = append(groups, ClassGroup{BatchID: b.ID, BatchCode: b.Code, Section: section})
	}
	return groups
}

// IsSenior reports whether the batch gets seniority room priority.
// Fifth semester and beyond counts as senior.
func (b Batch) IsSenior() bool {
	return b.Semester >= 5
}

// IsFinalYear reports whether the batch is in its thesis year.
func (b Batch) IsFinalYear() bool {
	return b.Semester >= 7
}

// ClassGroup identifies one cohort timetable: a batch or a batch section.
type ClassGroup struct {
	BatchID   string `json:"batch_id"`
	BatchCode string `json:"batch_code"`
	Section   string `json:"section"`
}

// String renders the canonical class-group label, e.g. "21SW-II".
func (g ClassGroup) String() string {
	if g.Section == "" {
		return g.BatchCode
	}
	return fmt.Sprintf("%s-%s", g.BatchCode, g.Section)
}

// BatchFilter defines filter criteria for listing batches.
type BatchFilter struct {
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
