package models

import "strings"

// Weekday identifies a teaching day.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayIndex = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

var weekdayByIndex = map[int]Weekday{
	1: Monday,
	2: Tuesday,
	3: Wednesday,
	4: Thursday,
	5: Friday,
	6: Saturday,
	7: Sunday,
}

// Index returns the 1-based ISO weekday index, 0 when unknown.
func (w Weekday) Index() int {
	return weekdayIndex[Weekday(strings.ToUpper(strings.TrimSpace(string(w))))]
}

// Valid reports whether the value names a real weekday.
func (w Weekday) Valid() bool {
	return w.Index() != 0
}

// WeekdayFromIndex maps a 1-based index back to a Weekday.
func WeekdayFromIndex(idx int) Weekday {
	return weekdayByIndex[idx]
}

// ParseWeekday normalises arbitrary input into a Weekday.
func ParseWeekday(raw string) Weekday {
	return Weekday(strings.ToUpper(strings.TrimSpace(raw)))
}
