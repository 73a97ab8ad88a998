package models

import "time"

// Subject represents an academic subject owned by a batch. Credits drive the
// weekly class count for theory subjects; practical subjects are always
// scheduled as one consecutive lab block per week regardless of credits.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Credits     int       `db:"credits" json:"credits"`
	IsPractical bool      `db:"is_practical" json:"is_practical"`
	BatchID     string    `db:"batch_id" json:"batch_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WeeklyClasses returns the number of distinct entries the subject needs per
// week for one class-group.
func (s Subject) WeeklyClasses(practicalBlockSize int) int {
	if s.IsPractical {
		return practicalBlockSize
	}
	return s.Credits
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	BatchID   string
	Practical *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
