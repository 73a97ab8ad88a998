package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID          string         `db:"id" json:"id"`
	Email       string         `db:"email" json:"email"`
	FullName    string         `db:"full_name" json:"full_name"`
	MaxPerDay   int            `db:"max_per_day" json:"max_per_day"`
	Active      bool           `db:"active" json:"active"`
	Unavailable types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// UnavailableWindow describes a blocked teaching window on one day. An empty
// period list with WholeDay set blocks the entire day.
type UnavailableWindow struct {
	WholeDay bool  `json:"whole_day"`
	Periods  []int `json:"periods"`
}

// Unavailability maps weekdays to blocked windows.
type Unavailability map[Weekday]UnavailableWindow

// Blocks reports whether the given day/period falls inside a blocked window.
func (u Unavailability) Blocks(day Weekday, period int) bool {
	window, ok := u[day]
	if !ok {
		return false
	}
	if window.WholeDay {
		return true
	}
	for _, p := range window.Periods {
		if p == period {
			return true
		}
	}
	return false
}

// Windows decodes the teacher's unavailability payload. Decoding is
// best-effort: a malformed payload yields an empty map rather than an error,
// matching how availability preferences are treated elsewhere.
func (t Teacher) Windows() Unavailability {
	result := Unavailability{}
	if len(t.Unavailable) == 0 {
		return result
	}
	var raw map[string]UnavailableWindow
	if err := json.Unmarshal(t.Unavailable, &raw); err != nil {
		return result
	}
	for day, window := range raw {
		parsed := ParseWeekday(day)
		if !parsed.Valid() {
			continue
		}
		result[parsed] = window
	}
	return result
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherAssignment links a teacher to a subject for a batch section.
// An empty Section qualifies the teacher for every section of the batch.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	Section   string    `db:"section" json:"section"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
