package engine

import (
	"sort"

	"github.com/muet-dev/timetable-api/internal/models"
)

// EnforceLabConsistency is the authoritative fix for the same-lab rule.
// It scans all practical entries, groups them by session, and when a session
// spans more than one lab reassigns the minority entries to the majority
// lab, falling back to moving the whole session into one lab that is free
// throughout.
// Returns the number of entries changed; idempotent, so a second run over a
// consistent entry set returns zero.
func EnforceLabConsistency(entries []*models.Entry, ctx *AllocationContext, labs []models.Classroom) int {
	sessions := make(map[models.SessionKey][]*models.Entry)
	for _, entry := range entries {
		if entry.IsPractical {
			sessions[entry.Session()] = append(sessions[entry.Session()], entry)
		}
	}

	keys := make([]models.SessionKey, 0, len(sessions))
	for key := range sessions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ClassGroup != keys[j].ClassGroup {
			return keys[i].ClassGroup < keys[j].ClassGroup
		}
		if keys[i].SubjectID != keys[j].SubjectID {
			return keys[i].SubjectID < keys[j].SubjectID
		}
		return keys[i].Day < keys[j].Day
	})

	changed := 0
	for _, key := range keys {
		block := sessions[key]
		majority := majorityLab(block)
		if majority == "" {
			continue
		}

		split := false
		for _, entry := range block {
			if entry.ClassroomID != majority {
				split = true
				break
			}
		}
		if !split {
			continue
		}

		if fixed := reassignMinority(block, majority, ctx); fixed > 0 {
			changed += fixed
			ctx.labSessions[key] = majority
			continue
		}
		// Majority lab blocked at a minority period; relocate the whole
		// session into any lab free for all its periods.
		changed += relocateSession(block, labs, ctx, key)
	}
	return changed
}

func majorityLab(block []*models.Entry) string {
	counts := make(map[string]int)
	for _, entry := range block {
		if entry.ClassroomID != "" {
			counts[entry.ClassroomID]++
		}
	}
	best := ""
	bestCount := 0
	for lab, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || lab < best)) {
			best = lab
			bestCount = count
		}
	}
	return best
}

func reassignMinority(block []*models.Entry, majority string, ctx *AllocationContext) int {
	// All minority slots must be movable before any mutation happens, so a
	// partial fix never splits the session a different way.
	for _, entry := range block {
		if entry.ClassroomID == majority {
			continue
		}
		if ctx.RoomBusy(majority, entry.Day, entry.Period) {
			return 0
		}
	}
	changed := 0
	for _, entry := range block {
		if entry.ClassroomID == majority {
			continue
		}
		ctx.Release(entry)
		entry.ClassroomID = majority
		ctx.Claim(entry)
		changed++
	}
	return changed
}

func relocateSession(block []*models.Entry, labs []models.Classroom, ctx *AllocationContext, key models.SessionKey) int {
	for _, lab := range labs {
		free := true
		for _, entry := range block {
			if entry.ClassroomID != lab.ID && ctx.RoomBusy(lab.ID, entry.Day, entry.Period) {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		changed := 0
		for _, entry := range block {
			if entry.ClassroomID == lab.ID {
				continue
			}
			ctx.Release(entry)
			entry.ClassroomID = lab.ID
			ctx.Claim(entry)
			changed++
		}
		ctx.labSessions[key] = lab.ID
		return changed
	}
	return 0
}
