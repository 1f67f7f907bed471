package timetable

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AssignRooms gives each session the first room of the pool that is still free at
// its coordinate. Sessions left over once every room is taken keep no room. It
// returns the number of sessions that received a room.
func AssignRooms(sessions []models.ScheduleSession, rooms []models.Room) int {
	if len(rooms) == 0 {
		return 0
	}
	order := make([]int, len(sessions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sessionSlot(sessions[order[a]]).Less(sessionSlot(sessions[order[b]]))
	})

	taken := map[occupant]bool{}
	assigned := 0
	for _, i := range order {
		slot := sessionSlot(sessions[i])
		for _, room := range rooms {
			k := occupant{room.ID, slot}
			if taken[k] {
				continue
			}
			taken[k] = true
			id := room.ID
			sessions[i].RoomID = &id
			assigned++
			break
		}
	}
	return assigned
}
