package engine

import (
	"sort"

	"github.com/muet-dev/timetable-api/internal/models"
)

type slotKey struct {
	Day    models.Weekday
	Period int
}

// AllocationContext is the caller-owned mutable occupancy state for one
// scheduling run. Generator, allocator and resolver all thread it by
// reference; two concurrent runs never share one. Indexes are updated
// incrementally as entries are claimed and released, so conflict checks stay
// O(1) instead of rescanning the entry list.
type AllocationContext struct {
	config models.ScheduleConfig

	group        map[string]map[slotKey]*models.Entry
	teacher      map[string]map[slotKey]*models.Entry
	room         map[string]map[slotKey]*models.Entry
	teacherDaily map[string]map[models.Weekday]int
	labSessions  map[models.SessionKey]string
}

// NewAllocationContext builds an empty context for the config.
func NewAllocationContext(cfg models.ScheduleConfig) *AllocationContext {
	return &AllocationContext{
		config:       cfg,
		group:        make(map[string]map[slotKey]*models.Entry),
		teacher:      make(map[string]map[slotKey]*models.Entry),
		room:         make(map[string]map[slotKey]*models.Entry),
		teacherDaily: make(map[string]map[models.Weekday]int),
		labSessions:  make(map[models.SessionKey]string),
	}
}

// BuildContext indexes an existing entry list, used by the resolver to
// rebuild occupancy after validation.
func BuildContext(cfg models.ScheduleConfig, entries []*models.Entry) *AllocationContext {
	ctx := NewAllocationContext(cfg)
	for _, entry := range entries {
		ctx.Claim(entry)
	}
	return ctx
}

// Claim indexes the entry. Thesis placeholders occupy the class-group slot
// only; they hold no teacher or room.
func (c *AllocationContext) Claim(e *models.Entry) {
	key := slotKey{Day: e.Day, Period: e.Period}
	if c.group[e.ClassGroup] == nil {
		c.group[e.ClassGroup] = make(map[slotKey]*models.Entry)
	}
	c.group[e.ClassGroup][key] = e

	if e.TeacherID != "" {
		if c.teacher[e.TeacherID] == nil {
			c.teacher[e.TeacherID] = make(map[slotKey]*models.Entry)
		}
		c.teacher[e.TeacherID][key] = e
		if c.teacherDaily[e.TeacherID] == nil {
			c.teacherDaily[e.TeacherID] = make(map[models.Weekday]int)
		}
		c.teacherDaily[e.TeacherID][e.Day]++
	}
	if e.ClassroomID != "" {
		if c.room[e.ClassroomID] == nil {
			c.room[e.ClassroomID] = make(map[slotKey]*models.Entry)
		}
		c.room[e.ClassroomID][key] = e
	}
	if e.IsPractical && e.ClassroomID != "" {
		c.labSessions[e.Session()] = e.ClassroomID
	}
}

// Release removes the entry from all indexes.
func (c *AllocationContext) Release(e *models.Entry) {
	key := slotKey{Day: e.Day, Period: e.Period}
	if slots := c.group[e.ClassGroup]; slots != nil && slots[key] == e {
		delete(slots, key)
	}
	if e.TeacherID != "" {
		if slots := c.teacher[e.TeacherID]; slots != nil && slots[key] == e {
			delete(slots, key)
		}
		if daily := c.teacherDaily[e.TeacherID]; daily != nil && daily[e.Day] > 0 {
			daily[e.Day]--
		}
	}
	if e.ClassroomID != "" {
		if slots := c.room[e.ClassroomID]; slots != nil && slots[key] == e {
			delete(slots, key)
		}
	}
}

// GroupEntry returns the entry occupying the class-group slot, if any.
func (c *AllocationContext) GroupEntry(classGroup string, day models.Weekday, period int) *models.Entry {
	return c.group[classGroup][slotKey{Day: day, Period: period}]
}

// GroupFree reports whether the class-group slot is open.
func (c *AllocationContext) GroupFree(classGroup string, day models.Weekday, period int) bool {
	return c.GroupEntry(classGroup, day, period) == nil
}

// TeacherBusy reports whether the teacher already holds the slot.
func (c *AllocationContext) TeacherBusy(teacherID string, day models.Weekday, period int) bool {
	return c.teacher[teacherID][slotKey{Day: day, Period: period}] != nil
}

// RoomBusy reports whether the room already holds the slot.
func (c *AllocationContext) RoomBusy(roomID string, day models.Weekday, period int) bool {
	return c.room[roomID][slotKey{Day: day, Period: period}] != nil
}

// TeacherDailyLoad returns how many periods the teacher holds on the day.
func (c *AllocationContext) TeacherDailyLoad(teacherID string, day models.Weekday) int {
	return c.teacherDaily[teacherID][day]
}

// TeacherWeeklyLoad returns the teacher's total claimed periods.
func (c *AllocationContext) TeacherWeeklyLoad(teacherID string) int {
	total := 0
	for _, count := range c.teacherDaily[teacherID] {
		total += count
	}
	return total
}

// GroupPeriods returns the sorted occupied periods for a class-group day.
func (c *AllocationContext) GroupPeriods(classGroup string, day models.Weekday) []int {
	var periods []int
	for key := range c.group[classGroup] {
		if key.Day == day {
			periods = append(periods, key.Period)
		}
	}
	sort.Ints(periods)
	return periods
}

// GroupDayLoad counts occupied periods for a class-group day.
func (c *AllocationContext) GroupDayLoad(classGroup string, day models.Weekday) int {
	count := 0
	for key := range c.group[classGroup] {
		if key.Day == day {
			count++
		}
	}
	return count
}

// GroupHasPractical reports whether the class-group has a practical entry on
// the day.
func (c *AllocationContext) GroupHasPractical(classGroup string, day models.Weekday) bool {
	for key, entry := range c.group[classGroup] {
		if key.Day == day && entry.IsPractical {
			return true
		}
	}
	return false
}

// SessionLab returns the lab recorded for a practical session.
func (c *AllocationContext) SessionLab(key models.SessionKey) (string, bool) {
	roomID, ok := c.labSessions[key]
	return roomID, ok
}

// ForgetSessionLab clears the same-lab memory for a session, used when a
// whole session is torn down and re-placed.
func (c *AllocationContext) ForgetSessionLab(key models.SessionKey) {
	delete(c.labSessions, key)
}

// FreeLabCount counts labs with the whole window [period, period+span) open.
func (c *AllocationContext) FreeLabCount(labs []models.Classroom, day models.Weekday, period, span int) int {
	count := 0
	for _, lab := range labs {
		free := true
		for p := period; p < period+span; p++ {
			if c.RoomBusy(lab.ID, day, p) {
				free = false
				break
			}
		}
		if free {
			count++
		}
	}
	return count
}
