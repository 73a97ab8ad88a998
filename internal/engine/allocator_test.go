package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muet-dev/timetable-api/internal/models"
)

func labRooms() []models.Classroom {
	return []models.Classroom{
		{ID: "lab-r1", Name: "Lab R1", Capacity: 50, IsLab: true},
		{ID: "lab-r2", Name: "Lab R2", Capacity: 45, IsLab: true},
		{ID: "lab-u1", Name: "Lab U1", Capacity: 40, IsLab: true},
		{ID: "lab-u2", Name: "Lab U2", Capacity: 35, IsLab: true},
	}
}

func TestAllocatorReusesSessionLab(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	alloc := NewRoomAllocator(labRooms(), ctx, cfg.Constraints)

	// The session already started in the smallest lab.
	ctx.Claim(entryFor("24SW", "sub-oslab", "t-sana", "lab-u2", models.Monday, 1, true))

	lab := alloc.AllocateForPractical(models.Monday, 2, 2, "24SW", "sub-oslab")
	require.NotNil(t, lab)
	assert.Equal(t, "lab-u2", lab.ID, "same session must keep its lab")
}

func TestAllocatorPrefersUnreservedLabs(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	alloc := NewRoomAllocator(labRooms(), ctx, cfg.Constraints)

	// Four labs, reserve capped at two; the two biggest stay reserved for
	// senior theory, so a fresh practical lands in the biggest unreserved lab.
	lab := alloc.AllocateForPractical(models.Monday, 1, 3, "24SW", "sub-oslab")
	require.NotNil(t, lab)
	assert.Equal(t, "lab-u1", lab.ID)
}

func TestAllocatorFallsBackToReservedLabs(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	alloc := NewRoomAllocator(labRooms(), ctx, cfg.Constraints)

	ctx.Claim(entryFor("23SW", "sub-a", "t-a", "lab-u1", models.Monday, 2, true))
	ctx.Claim(entryFor("22SW", "sub-b", "t-b", "lab-u2", models.Monday, 3, true))

	lab := alloc.AllocateForPractical(models.Monday, 1, 3, "24SW", "sub-oslab")
	require.NotNil(t, lab)
	assert.Equal(t, "lab-r1", lab.ID, "reserve opens up when nothing else fits")
}

func TestAllocatorReturnsNilWhenNoLabFree(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	rooms := labRooms()
	alloc := NewRoomAllocator(rooms, ctx, cfg.Constraints)

	for i, room := range rooms {
		group := string(rune('A' + i))
		ctx.Claim(entryFor(group, "sub-x", "t-x", room.ID, models.Monday, 2, true))
	}

	assert.Nil(t, alloc.AllocateForPractical(models.Monday, 1, 3, "24SW", "sub-oslab"))
}

func TestAllocatorTheorySeniorityFallback(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	rooms := []models.Classroom{
		{ID: "room-a", Name: "Room A", Capacity: 60},
		{ID: "lab-1", Name: "Lab 1", Capacity: 40, IsLab: true},
		{ID: "lab-2", Name: "Lab 2", Capacity: 35, IsLab: true},
	}
	alloc := NewRoomAllocator(rooms, ctx, cfg.Constraints)

	ctx.Claim(entryFor("23SW", "sub-x", "t-x", "room-a", models.Monday, 1, false))

	assert.Nil(t, alloc.AllocateForTheory(models.Monday, 1, false), "juniors never get labs for theory")

	lab := alloc.AllocateForTheory(models.Monday, 1, true)
	require.NotNil(t, lab)
	assert.True(t, lab.IsLab)
}

func TestAllocatorFreeRoomForKeepsRoomType(t *testing.T) {
	cfg := testConfig()
	ctx := NewAllocationContext(cfg)
	rooms := []models.Classroom{
		{ID: "room-a", Name: "Room A", Capacity: 60},
		{ID: "lab-1", Name: "Lab 1", Capacity: 40, IsLab: true},
	}
	alloc := NewRoomAllocator(rooms, ctx, cfg.Constraints)

	practical := entryFor("24SW", "sub-oslab", "t-sana", "", models.Monday, 1, true)
	room := alloc.FreeRoomFor(practical, false)
	require.NotNil(t, room)
	assert.True(t, room.IsLab)

	theory := entryFor("24SW", "sub-algo", "t-ayesha", "", models.Monday, 2, false)
	room = alloc.FreeRoomFor(theory, false)
	require.NotNil(t, room)
	assert.Equal(t, "room-a", room.ID)
}
