package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/muet-dev/timetable-api/internal/models"
)

// RoomAllocator hands out classrooms for one scheduling run. It honours the
// lab/theory split, the same-lab rule for practical sessions, and seniority
// priority: senior cohorts may take labs for theory when regular rooms run
// out, and a reserve of labs is kept for them even while practicals run.
//
// A nil return always means "no compatible room free", never a failure.
type RoomAllocator struct {
	ctx     *AllocationContext
	labs    []models.Classroom
	regular []models.Classroom
	reserve int
}

// NewRoomAllocator splits rooms by type and fixes the senior-theory reserve
// at min(configured, totalLabs-2), floored at zero.
func NewRoomAllocator(classrooms []models.Classroom, ctx *AllocationContext, params models.ConstraintParams) *RoomAllocator {
	labs := lo.Filter(classrooms, func(c models.Classroom, _ int) bool { return c.IsLab })
	regular := lo.Filter(classrooms, func(c models.Classroom, _ int) bool { return !c.IsLab })

	// Highest capacity first keeps tie-breaks deterministic.
	byCapacity := func(rooms []models.Classroom) {
		sort.Slice(rooms, func(i, j int) bool {
			if rooms[i].Capacity != rooms[j].Capacity {
				return rooms[i].Capacity > rooms[j].Capacity
			}
			return rooms[i].Name < rooms[j].Name
		})
	}
	byCapacity(labs)
	byCapacity(regular)

	reserve := params.SeniorLabReserve
	if max := len(labs) - 2; reserve > max {
		reserve = max
	}
	if reserve < 0 {
		reserve = 0
	}

	return &RoomAllocator{ctx: ctx, labs: labs, regular: regular, reserve: reserve}
}

// AllocateForPractical finds a lab free for the whole consecutive block
// starting at startPeriod. Once a session has a lab, every later call for
// the same (class-group, subject, day) returns that identical lab.
func (a *RoomAllocator) AllocateForPractical(day models.Weekday, startPeriod, span int, classGroup, subjectID string) *models.Classroom {
	session := models.SessionKey{ClassGroup: classGroup, SubjectID: subjectID, Day: day}
	if roomID, ok := a.ctx.SessionLab(session); ok {
		if lab, found := a.lab(roomID); found {
			return lab
		}
	}

	// Prefer labs outside the senior-theory reserve (the first `reserve`
	// labs by capacity); fall back to reserved labs only when nothing else
	// fits, since an unscheduled practical is worse than a thin reserve.
	if lab := a.freeLabForBlock(a.labs[min(a.reserve, len(a.labs)):], day, startPeriod, span); lab != nil {
		return lab
	}
	return a.freeLabForBlock(a.labs[:min(a.reserve, len(a.labs))], day, startPeriod, span)
}

// AllocateForTheory returns a room for a single theory period. Juniors get
// regular rooms only; seniors fall back to labs when regular rooms are full.
func (a *RoomAllocator) AllocateForTheory(day models.Weekday, period int, senior bool) *models.Classroom {
	for i := range a.regular {
		if !a.ctx.RoomBusy(a.regular[i].ID, day, period) {
			return &a.regular[i]
		}
	}
	if !senior {
		return nil
	}
	for i := range a.labs {
		if !a.ctx.RoomBusy(a.labs[i].ID, day, period) {
			return &a.labs[i]
		}
	}
	return nil
}

// FreeRoomFor finds any compatible free room for an existing entry, used by
// repair strategies when reassigning rooms.
func (a *RoomAllocator) FreeRoomFor(entry *models.Entry, senior bool) *models.Classroom {
	if entry.IsPractical {
		for i := range a.labs {
			if !a.ctx.RoomBusy(a.labs[i].ID, entry.Day, entry.Period) {
				return &a.labs[i]
			}
		}
		return nil
	}
	return a.AllocateForTheory(entry.Day, entry.Period, senior)
}

// Labs exposes the lab list for window scans.
func (a *RoomAllocator) Labs() []models.Classroom {
	return a.labs
}

func (a *RoomAllocator) lab(roomID string) (*models.Classroom, bool) {
	for i := range a.labs {
		if a.labs[i].ID == roomID {
			return &a.labs[i], true
		}
	}
	return nil, false
}

func (a *RoomAllocator) freeLabForBlock(labs []models.Classroom, day models.Weekday, startPeriod, span int) *models.Classroom {
	for i := range labs {
		free := true
		for p := startPeriod; p < startPeriod+span; p++ {
			if a.ctx.RoomBusy(labs[i].ID, day, p) {
				free = false
				break
			}
		}
		if free {
			return &labs[i]
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
