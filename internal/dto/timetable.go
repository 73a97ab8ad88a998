package dto

import (
	"github.com/muet-dev/timetable-api/internal/models"
)

// GenerateTimetableRequest asks for a scheduling run over a stored config.
type GenerateTimetableRequest struct {
	ConfigID string `json:"configId" validate:"required"`
}

// GenerateTimetableResponse returns the proposal handle plus the run report.
// Entries stay server-side under the proposal id until saved.
type GenerateTimetableResponse struct {
	ProposalID string                 `json:"proposalId"`
	Report     *models.ScheduleReport `json:"report"`
	Entries    []models.Entry         `json:"entries"`
}

// SaveTimetableRequest persists a previously generated proposal. Publish
// additionally transitions the config to PUBLISHED, which feeds the entries
// into cross-semester detection for later runs.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// SaveTimetableResponse reports what was written.
type SaveTimetableResponse struct {
	ConfigID     string `json:"configId"`
	EntriesSaved int    `json:"entriesSaved"`
	Published    bool   `json:"published"`
}

// TimetableQuery filters a stored timetable view.
type TimetableQuery struct {
	ConfigID   string `json:"configId" validate:"required"`
	ClassGroup string `json:"classGroup"`
	TeacherID  string `json:"teacherId"`
	Day        string `json:"day"`
}

// ValidateTimetableRequest re-validates the stored entries of a config, used
// after manual edits.
type ValidateTimetableRequest struct {
	ConfigID string `json:"configId" validate:"required"`
}

// ValidateTimetableResponse carries the validation outcome.
type ValidateTimetableResponse struct {
	ConfigID     string                        `json:"configId"`
	Total        int                           `json:"total"`
	Violations   []models.Violation            `json:"violations,omitempty"`
	Breakdown    map[models.ConstraintType]int `json:"breakdown,omitempty"`
	HarmonyScore float64                       `json:"harmonyScore"`
}
