package export

import (
	"fmt"
	"sort"

	"github.com/muet-dev/timetable-api/internal/models"
)

// TimetableLabels resolves ids to display names for export. Missing lookups
// fall back to the raw id so an export never fails on stale references.
type TimetableLabels struct {
	Subjects   map[string]string
	Teachers   map[string]string
	Classrooms map[string]string
}

func (l TimetableLabels) subject(id string) string {
	if name, ok := l.Subjects[id]; ok {
		return name
	}
	return id
}

func (l TimetableLabels) teacher(id string) string {
	if name, ok := l.Teachers[id]; ok {
		return name
	}
	return id
}

func (l TimetableLabels) classroom(id string) string {
	if name, ok := l.Classrooms[id]; ok {
		return name
	}
	return id
}

// TimetableGrid builds one day-by-period Dataset per class-group, in a
// deterministic group order, ready for the CSV or PDF exporters.
func TimetableGrid(cfg models.ScheduleConfig, entries []models.Entry, labels TimetableLabels) map[string]Dataset {
	byGroup := make(map[string][]models.Entry)
	for _, entry := range entries {
		byGroup[entry.ClassGroup] = append(byGroup[entry.ClassGroup], entry)
	}

	grids := make(map[string]Dataset, len(byGroup))
	for classGroup, groupEntries := range byGroup {
		grids[classGroup] = groupGrid(cfg, groupEntries, labels)
	}
	return grids
}

// GroupNames returns the class-groups present in the entry set, sorted.
func GroupNames(entries []models.Entry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if !seen[entry.ClassGroup] {
			seen[entry.ClassGroup] = true
			names = append(names, entry.ClassGroup)
		}
	}
	sort.Strings(names)
	return names
}

func groupGrid(cfg models.ScheduleConfig, entries []models.Entry, labels TimetableLabels) Dataset {
	headers := make([]string, 0, len(cfg.Days)+1)
	headers = append(headers, "Period")
	for _, day := range cfg.Days {
		headers = append(headers, string(day))
	}

	cells := make(map[models.Weekday]map[int]string)
	for _, entry := range entries {
		if cells[entry.Day] == nil {
			cells[entry.Day] = make(map[int]string)
		}
		cells[entry.Day][entry.Period] = cellText(entry, labels)
	}

	rows := make([]map[string]string, 0, cfg.PeriodsPerDay)
	for period := 1; period <= cfg.PeriodsPerDay; period++ {
		start, end := cfg.PeriodTimes(period)
		row := map[string]string{
			"Period": fmt.Sprintf("%d (%s-%s)", period, start, end),
		}
		for _, day := range cfg.Days {
			row[string(day)] = cells[day][period]
		}
		rows = append(rows, row)
	}

	return Dataset{Headers: headers, Rows: rows}
}

func cellText(entry models.Entry, labels TimetableLabels) string {
	if entry.IsThesis() {
		return "THESIS"
	}
	text := labels.subject(entry.SubjectID)
	if entry.IsPractical {
		text += " (PR)"
	}
	if entry.TeacherID != "" {
		text += " / " + labels.teacher(entry.TeacherID)
	}
	if entry.ClassroomID != "" {
		text += " @ " + labels.classroom(entry.ClassroomID)
	}
	return text
}
