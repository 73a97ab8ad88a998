package engine

import (
	"fmt"

	"github.com/muet-dev/timetable-api/internal/models"
)

// CrossSemesterDetector checks teacher bookings against committed entries of
// other, concurrently active scheduling configs. The committed set is a
// read-only snapshot taken before the run starts; the detector is consulted
// during generation (avoid placing), validation (penalise if placed anyway)
// and repair (suggest free slots).
type CrossSemesterDetector struct {
	periodsPerDay int
	byTeacher     map[string]map[slotKey][]models.Entry
}

// NewCrossSemesterDetector indexes committed entries, ignoring those that
// belong to the config currently being scheduled.
func NewCrossSemesterDetector(committed []models.Entry, ownConfigID string, periodsPerDay int) *CrossSemesterDetector {
	d := &CrossSemesterDetector{
		periodsPerDay: periodsPerDay,
		byTeacher:     make(map[string]map[slotKey][]models.Entry),
	}
	for _, entry := range committed {
		if entry.ConfigID == ownConfigID || entry.TeacherID == "" {
			continue
		}
		key := slotKey{Day: entry.Day, Period: entry.Period}
		if d.byTeacher[entry.TeacherID] == nil {
			d.byTeacher[entry.TeacherID] = make(map[slotKey][]models.Entry)
		}
		d.byTeacher[entry.TeacherID][key] = append(d.byTeacher[entry.TeacherID][key], entry)
	}
	return d
}

// CheckTeacherConflict reports whether the teacher is already committed
// elsewhere at the slot, with one description per colliding entry.
func (d *CrossSemesterDetector) CheckTeacherConflict(teacherID string, day models.Weekday, period int) (bool, []string) {
	collisions := d.byTeacher[teacherID][slotKey{Day: day, Period: period}]
	if len(collisions) == 0 {
		return false, nil
	}
	descriptions := make([]string, 0, len(collisions))
	for _, entry := range collisions {
		descriptions = append(descriptions, fmt.Sprintf(
			"teacher %s already teaches %s for %s (%s period %d, config %s)",
			teacherID, entry.SubjectID, entry.ClassGroup, entry.Day, entry.Period, entry.ConfigID,
		))
	}
	return true, descriptions
}

// SuggestAlternativeSlots lists periods on the day with no cross-semester
// booking for the teacher, for repair use.
func (d *CrossSemesterDetector) SuggestAlternativeSlots(teacherID string, day models.Weekday) []int {
	var free []int
	for period := 1; period <= d.periodsPerDay; period++ {
		if busy, _ := d.CheckTeacherConflict(teacherID, day, period); !busy {
			free = append(free, period)
		}
	}
	return free
}
