package models

import "time"

// Classroom represents a teaching room. Labs host practical blocks; regular
// rooms host theory classes.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Building  string    `db:"building" json:"building"`
	IsLab     bool      `db:"is_lab" json:"is_lab"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter defines filter criteria for listing classrooms.
type ClassroomFilter struct {
	Building  string
	IsLab     *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
