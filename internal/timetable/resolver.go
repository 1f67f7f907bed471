package timetable

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ConflictResolver relocates sessions involved in critical conflicts. Resolution is a
// single best-effort pass; conflicts without a free alternative remain untouched.
type ConflictResolver interface {
	Resolve(conflicts []models.Conflict, sessions []models.ScheduleSession, loads map[string]models.TeachingLoad) []models.ScheduleSession
}

// NewResolver returns the resolver for a strategy.
func NewResolver(strategy models.ResolutionStrategy, grid *Grid) (ConflictResolver, error) {
	switch strategy {
	case models.StrategyTeacherPriority:
		return &priorityResolver{grid: grid, kinds: []models.ConflictType{models.ConflictTeacher}}, nil
	case models.StrategyClassPriority:
		return &priorityResolver{grid: grid, kinds: []models.ConflictType{models.ConflictClass}}, nil
	case models.StrategyBalanced:
		return &priorityResolver{grid: grid, kinds: []models.ConflictType{models.ConflictTeacher, models.ConflictClass}}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown conflict resolution strategy %q", strategy))
	}
}

// priorityResolver moves the lower-priority participant of each pairwise conflict.
// With several kinds it alternates between their queues.
type priorityResolver struct {
	grid  *Grid
	kinds []models.ConflictType
}

func (r *priorityResolver) Resolve(conflicts []models.Conflict, sessions []models.ScheduleSession, loads map[string]models.TeachingLoad) []models.ScheduleSession {
	b := newBoard(r.grid, sessions)
	index := make(map[string]int, len(b.sessions))
	for i, s := range b.sessions {
		index[s.ID] = i
	}

	queues := make([][]models.Conflict, len(r.kinds))
	for _, c := range conflicts {
		if !c.IsCritical() || len(c.Participants) != 2 {
			continue
		}
		for k, kind := range r.kinds {
			if c.Type == kind {
				queues[k] = append(queues[k], c)
			}
		}
	}

	for step := 0; ; step++ {
		progressed := false
		for k := range queues {
			if step < len(queues[k]) {
				r.relocate(b, index, loads, queues[k][step])
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return b.sessionsCopy()
}

func (r *priorityResolver) relocate(b *board, index map[string]int, loads map[string]models.TeachingLoad, c models.Conflict) {
	i, okA := index[c.Participants[0].SessionID]
	j, okB := index[c.Participants[1].SessionID]
	if !okA || !okB || !stillColliding(b.sessions[i], b.sessions[j], c.Type) {
		return
	}
	loadA, loadB := loads[b.sessions[i].TeachingLoadID], loads[b.sessions[j].TeachingLoadID]
	mover, load := j, loadB
	if loadA.PriorityLevel < loadB.PriorityLevel {
		mover, load = i, loadA
	}
	if load.ID == "" {
		return
	}
	if target, ok := r.alternative(b, load); ok {
		b.move(mover, target)
	}
}

func stillColliding(a, b models.ScheduleSession, kind models.ConflictType) bool {
	if sessionSlot(a) != sessionSlot(b) {
		return false
	}
	switch kind {
	case models.ConflictTeacher:
		return a.TeacherID == b.TeacherID
	case models.ConflictClass:
		return a.ClassID == b.ClassID
	}
	return false
}

// alternative picks the best free permitted slot for load: preferred slots first, then
// days where the load has fewer lessons, then the earliest coordinate.
func (r *priorityResolver) alternative(b *board, load models.TeachingLoad) (Slot, bool) {
	preferred := newSlotSet(load.PreferredTimeSlots)
	var (
		best      Slot
		bestScore int
		found     bool
	)
	for _, slot := range r.grid.AllowedSlots(load) {
		if !b.free(load, slot) {
			continue
		}
		score := -10 * b.loadDay[occupant{load.ID, Slot{Day: slot.Day}}]
		if preferred.Contains(slot) {
			score += 100
		}
		if !found || score > bestScore {
			best, bestScore, found = slot, score, true
		}
	}
	return best, found
}
