// Package neighborhood implements the five-operator Neighborhood Operator
// (§4.4) as a sum type with a weighted dispatch table, replacing the
// reference's string-labelled branching (§9 redesign flag).
package neighborhood

import (
	"math/rand"

	"github.com/noah-isme/timetable-engine/internal/availability"
	"github.com/noah-isme/timetable-engine/internal/constructor"
	"github.com/noah-isme/timetable-engine/internal/domain"
)

// Operator is one of the five neighborhood moves.
type Operator int

const (
	Reschedule Operator = iota
	Swap
	Move
	ChangeRoom
	ChangeTeacher
)

type weighted struct {
	op     Operator
	weight float64
}

// weights mirrors §4.4 exactly: reschedule 0.1, swap 0.2, move 0.3,
// change-room 0.2, change-teacher 0.2.
var weights = []weighted{
	{Reschedule, 0.1},
	{Swap, 0.2},
	{Move, 0.3},
	{ChangeRoom, 0.2},
	{ChangeTeacher, 0.2},
}

// Pick selects an operator stochastically according to the fixed weights.
func Pick(rng *rand.Rand) Operator {
	total := 0.0
	for _, w := range weights {
		total += w.weight
	}
	r := rng.Float64() * total
	for _, w := range weights {
		if r < w.weight {
			return w.op
		}
		r -= w.weight
	}
	return weights[len(weights)-1].op
}

// Apply produces a neighbor of c by applying one randomly chosen
// operator. Any operator that cannot be applied leaves the candidate
// unchanged, per §4.4's "no exception raised" contract.
func Apply(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	return ApplyOp(model, c, rng, Pick(rng))
}

// ApplyOp applies a specific operator; exported so search drivers and
// tests can exercise one move deterministically.
func ApplyOp(model *domain.Model, c *domain.Candidate, rng *rand.Rand, op Operator) *domain.Candidate {
	switch op {
	case Reschedule:
		return reschedule(model, c, rng)
	case Swap:
		return swap(model, c, rng)
	case Move:
		return move(model, c, rng)
	case ChangeRoom:
		return changeRoom(model, c, rng)
	case ChangeTeacher:
		return changeTeacher(model, c, rng)
	default:
		return c
	}
}

func reschedule(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	if len(c.Sessions) == 0 {
		return c
	}
	victim := rng.Intn(len(c.Sessions))
	removed := c.Sessions[victim]
	remaining := removeAt(c.Sessions, victim)

	act, ok := model.Activity(removed.ActivityCode)
	if !ok {
		return c
	}
	ix := availability.FromSessions(remaining)
	sess, ok := constructor.PlaceOne(model, rng, ix, act, removed.Subgroups, removed.IsSplit)
	if !ok {
		return c
	}
	return &domain.Candidate{Sessions: append(remaining, sess)}
}

// swap exchanges the (day, period-block, room) of two equal-duration
// sessions, accepting only if invariants 1-3 still hold afterward (§4.4).
func swap(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	n := len(c.Sessions)
	if n < 2 {
		return c
	}
	i := rng.Intn(n)
	candidates := make([]int, 0, n-1)
	for j := range c.Sessions {
		if j != i && c.Sessions[j].Duration == c.Sessions[i].Duration {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return c
	}
	j := candidates[rng.Intn(len(candidates))]

	next := append([]domain.ScheduledSession(nil), c.Sessions...)
	a, b := next[i], next[j]
	next[i].Day, next[i].Periods, next[i].Room = b.Day, append([]int(nil), b.Periods...), b.Room
	next[j].Day, next[j].Periods, next[j].Room = a.Day, append([]int(nil), a.Periods...), a.Room

	if !feasible(next) {
		return c
	}
	return &domain.Candidate{Sessions: next}
}

// move relocates one session to the first day/block where its existing
// teacher and room remain free and its subgroups are free (§4.4).
func move(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	if len(c.Sessions) == 0 {
		return c
	}
	i := rng.Intn(len(c.Sessions))
	target := c.Sessions[i]
	others := removeAt(c.Sessions, i)
	ix := availability.FromSessions(others)

	days := append([]domain.Day(nil), model.Days...)
	rng.Shuffle(len(days), func(a, b int) { days[a], days[b] = days[b], days[a] })
	for _, day := range days {
		periods := model.Periods[day.ID]
		for start := 0; start+target.Duration <= len(periods); start++ {
			block := periods[start : start+target.Duration]
			indices, ok := contiguousIndices(block)
			if !ok {
				continue
			}
			if !ix.CanPlace(target.Teacher, target.Room, day.ID, indices, target.Subgroups) {
				continue
			}
			moved := target
			moved.Day = day.ID
			moved.Periods = indices
			return &domain.Candidate{Sessions: append(others, moved)}
		}
	}
	return c
}

// changeRoom replaces one session's room with another suitable room free
// at the session's existing (day, period-indices) (§4.4).
func changeRoom(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	if len(c.Sessions) == 0 {
		return c
	}
	i := rng.Intn(len(c.Sessions))
	target := c.Sessions[i]
	others := removeAt(c.Sessions, i)
	ix := availability.FromSessions(others)

	act, ok := model.Activity(target.ActivityCode)
	if !ok {
		return c
	}
	rooms := append([]domain.Room(nil), model.Rooms...)
	rng.Shuffle(len(rooms), func(a, b int) { rooms[a], rooms[b] = rooms[b], rooms[a] })
	for _, r := range rooms {
		if r.Code == target.Room {
			continue
		}
		if !domain.Suitable(r, act.Type, act.RoomRequirements) || r.Capacity < target.StudentCount {
			continue
		}
		if !ix.RoomBusy.Check(r.Code, target.Day, target.Periods) {
			continue
		}
		moved := target
		moved.Room = r.Code
		return &domain.Candidate{Sessions: append(others, moved)}
	}
	return c
}

// changeTeacher replaces one session's teacher with another eligible,
// free, TC-001-permitted teacher (§4.4).
func changeTeacher(model *domain.Model, c *domain.Candidate, rng *rand.Rand) *domain.Candidate {
	if len(c.Sessions) == 0 {
		return c
	}
	i := rng.Intn(len(c.Sessions))
	target := c.Sessions[i]
	others := removeAt(c.Sessions, i)
	ix := availability.FromSessions(others)

	act, ok := model.Activity(target.ActivityCode)
	if !ok {
		return c
	}
	teacherIDs := append([]string(nil), act.TeacherIDs...)
	rng.Shuffle(len(teacherIDs), func(a, b int) { teacherIDs[a], teacherIDs[b] = teacherIDs[b], teacherIDs[a] })
	for _, tid := range teacherIDs {
		if tid == target.Teacher {
			continue
		}
		if !ix.TeacherBusy.Check(tid, target.Day, target.Periods) {
			continue
		}
		if !teacherAvailableAt(model, tid, target.Day, target.Periods) {
			continue
		}
		moved := target
		moved.Teacher = tid
		return &domain.Candidate{Sessions: append(others, moved)}
	}
	return c
}

func teacherAvailableAt(model *domain.Model, teacherID, day string, indices []int) bool {
	avail := model.Constraints.TeacherAvailability
	if avail == nil {
		return true
	}
	blocked, ok := avail[teacherID]
	if !ok {
		return true
	}
	periods, ok := blocked[day]
	if !ok {
		return true
	}
	blockedSet := make(map[int]bool, len(periods))
	for _, p := range periods {
		blockedSet[p] = true
	}
	for _, idx := range indices {
		if blockedSet[idx] {
			return false
		}
	}
	return true
}

func contiguousIndices(block []domain.Period) ([]int, bool) {
	indices := make([]int, 0, len(block))
	for i, p := range block {
		if p.IsInterval || (i > 0 && p.Index != block[i-1].Index+1) {
			return nil, false
		}
		indices = append(indices, p.Index)
	}
	return indices, true
}

func removeAt(sessions []domain.ScheduledSession, i int) []domain.ScheduledSession {
	out := make([]domain.ScheduledSession, 0, len(sessions)-1)
	out = append(out, sessions[:i]...)
	out = append(out, sessions[i+1:]...)
	return out
}

// feasible re-checks invariants 1-3 of §3 across the full session list;
// used by swap, which can't verify feasibility incrementally since both
// sessions move at once.
func feasible(sessions []domain.ScheduledSession) bool {
	ix := availability.New()
	for _, s := range sessions {
		if !ix.CanPlace(s.Teacher, s.Room, s.Day, s.Periods, s.Subgroups) {
			return false
		}
		ix.Commit(s.Teacher, s.Room, s.Day, s.Periods, s.Subgroups)
	}
	return true
}
