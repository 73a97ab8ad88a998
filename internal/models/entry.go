package models

import "time"

// EntryKind tags the entry variant. Thesis placeholders carry no subject,
// teacher or classroom; everything else is a regular assignment.
type EntryKind string

const (
	EntryRegular EntryKind = "REGULAR"
	EntryThesis  EntryKind = "THESIS"
)

// Entry is one scheduled (subject, teacher, classroom, day, period)
// assignment for a class-group. The generator creates entries, the resolver
// mutates them in place, and regeneration supersedes them wholesale.
type Entry struct {
	ID          string    `db:"id" json:"id"`
	ConfigID    string    `db:"config_id" json:"config_id"`
	ClassGroup  string    `db:"class_group" json:"class_group"`
	Kind        EntryKind `db:"kind" json:"kind"`
	Day         Weekday   `db:"day_of_week" json:"day_of_week"`
	Period      int       `db:"period" json:"period"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	IsPractical bool      `db:"is_practical" json:"is_practical"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsThesis reports whether the entry is a thesis-day placeholder.
func (e Entry) IsThesis() bool {
	return e.Kind == EntryThesis
}

// SessionKey groups the blocks of one practical session.
type SessionKey struct {
	ClassGroup string
	SubjectID  string
	Day        Weekday
}

// Session returns the practical-session grouping key for the entry.
func (e Entry) Session() SessionKey {
	return SessionKey{ClassGroup: e.ClassGroup, SubjectID: e.SubjectID, Day: e.Day}
}

// EntryFilter describes query params for listing entries.
type EntryFilter struct {
	ConfigID   string
	ClassGroup string
	TeacherID  string
	Day        string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
