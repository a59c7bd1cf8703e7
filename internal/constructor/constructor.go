// Package constructor builds one complete Candidate Schedule via the
// greedy + randomized placement algorithm shared by all three search
// drivers (§4.2). It is the single constructor the spec requires CO, BC,
// and PSO to all call for population initialization, reschedule-style
// neighborhood moves, and PSO residue repair.
package constructor

import (
	"math/rand"
	"sort"

	"github.com/noah-isme/timetable-engine/internal/availability"
	"github.com/noah-isme/timetable-engine/internal/domain"
)

// Diagnostic is a structured record of a Constructor partial failure or
// infeasibility (§7): the activity code and the reason it could not be
// placed (in full or in part).
type Diagnostic struct {
	ActivityCode string
	Reason       string
}

// Build produces one candidate by greedy + randomized placement over the
// activities of model not already present in seed. seed may be nil.
// Returns the resulting candidate, the occupancy indices it consumed (so
// callers — e.g. Neighborhood — can keep extending it), and diagnostics
// for anything left unplaced.
func Build(model *domain.Model, rng *rand.Rand, seed []domain.ScheduledSession) (*domain.Candidate, availability.Indices, []Diagnostic) {
	ix := availability.FromSessions(seed)
	sessions := append([]domain.ScheduledSession(nil), seed...)
	placed := make(map[string]int, len(model.Activities)) // activity code -> sessions placed so far
	for _, s := range seed {
		placed[s.ActivityCode]++
	}

	activities := append([]domain.Activity(nil), model.Activities...)
	sort.SliceStable(activities, func(i, j int) bool {
		return len(activities[i].SubgroupIDs) > len(activities[j].SubgroupIDs)
	})

	var diags []Diagnostic
	for _, act := range activities {
		expected := expectedSessions(act)
		if placed[act.Code] >= expected {
			continue
		}
		newSessions, diag := placeActivity(model, rng, ix, act)
		if diag != nil {
			diags = append(diags, *diag)
		}
		for _, s := range newSessions {
			sessions = append(sessions, s)
			placed[act.Code]++
		}
	}
	return &domain.Candidate{Sessions: sessions}, ix, diags
}

func expectedSessions(a domain.Activity) int {
	if a.Type == domain.ActivityLab {
		// expected count is resolved per-room-fit at placement time;
		// 1 covers the non-split case, the split case places |subgroups|.
		return 1
	}
	return 1
}

// placeActivity implements §4.2 steps (a)-(f) for a single activity.
func placeActivity(model *domain.Model, rng *rand.Rand, ix availability.Indices, act domain.Activity) ([]domain.ScheduledSession, *Diagnostic) {
	totalStudents := act.ExpectedStudents(model.StudentsPerSubgroup)

	candidateRooms := suitableRooms(model, act, totalStudents, false)
	split := act.Type == domain.ActivityLab && len(candidateRooms) == 0

	teachers := eligibleTeachers(model, act)
	if len(teachers) == 0 {
		return nil, &Diagnostic{ActivityCode: act.Code, Reason: "no eligible teacher; falling back is not possible, activity omitted"}
	}
	rng.Shuffle(len(teachers), func(i, j int) { teachers[i], teachers[j] = teachers[j], teachers[i] })

	if !split {
		sort.SliceStable(candidateRooms, func(i, j int) bool { return candidateRooms[i].Capacity > candidateRooms[j].Capacity })
		sess, ok := placeBlock(model, rng, ix, act, teachers, candidateRooms, act.SubgroupIDs, totalStudents, false)
		if !ok {
			return nil, &Diagnostic{ActivityCode: act.Code, Reason: "no feasible (teacher, day, room, block) combination found"}
		}
		return []domain.ScheduledSession{sess}, nil
	}

	labRooms := suitableRooms(model, act, model.StudentsPerSubgroup, true)
	var out []domain.ScheduledSession
	for _, sg := range act.SubgroupIDs {
		sess, ok := placeBlock(model, rng, ix, act, teachers, labRooms, []string{sg}, model.StudentsPerSubgroup, true)
		if !ok {
			return out, &Diagnostic{ActivityCode: act.Code, Reason: "split placement incomplete: subgroup " + sg + " could not be placed"}
		}
		out = append(out, sess)
	}
	return out, nil
}

// PlaceOne places a single session for act covering exactly subgroups,
// without touching any other session of the same activity. It is used by
// the Neighborhood Operator's Reschedule move, which removes one session
// and re-invokes construction for just that slice of the activity
// (§4.4), and by PSO's optional residue-repair pass (Open Question 2).
func PlaceOne(model *domain.Model, rng *rand.Rand, ix availability.Indices, act domain.Activity, subgroups []string, split bool) (domain.ScheduledSession, bool) {
	teachers := eligibleTeachers(model, act)
	if len(teachers) == 0 {
		return domain.ScheduledSession{}, false
	}
	rng.Shuffle(len(teachers), func(i, j int) { teachers[i], teachers[j] = teachers[j], teachers[i] })

	studentCount := len(subgroups) * model.StudentsPerSubgroup
	rooms := suitableRooms(model, act, studentCount, split)
	if !split {
		sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Capacity > rooms[j].Capacity })
	}
	return placeBlock(model, rng, ix, act, teachers, rooms, subgroups, studentCount, split)
}

func suitableRooms(model *domain.Model, act domain.Activity, totalStudents int, split bool) []domain.Room {
	var out []domain.Room
	for _, r := range model.Rooms {
		if !domain.Suitable(r, act.Type, act.RoomRequirements) {
			continue
		}
		cap := totalStudents
		if split && act.Type == domain.ActivityLab {
			if r.Capacity > model.LabRoomCapacityCeiling {
				continue
			}
		}
		if r.Capacity < cap {
			continue
		}
		out = append(out, r)
	}
	return out
}

func eligibleTeachers(model *domain.Model, act domain.Activity) []domain.Teacher {
	var out []domain.Teacher
	for _, tid := range act.TeacherIDs {
		if t, ok := model.Teacher(tid); ok {
			out = append(out, t)
		}
	}
	return out
}

// placeBlock implements §4.2(e)/(f): for each teacher (shuffled), for each
// day (shuffled), for each candidate room, find the earliest contiguous
// block of length Duration that is free for teacher, room, and every
// subgroup, and permitted by TC-001.
func placeBlock(model *domain.Model, rng *rand.Rand, ix availability.Indices, act domain.Activity, teachers []domain.Teacher, rooms []domain.Room, subgroups []string, studentCount int, split bool) (domain.ScheduledSession, bool) {
	days := append([]domain.Day(nil), model.Days...)
	rng.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })

	for _, teacher := range teachers {
		for _, day := range days {
			periods := model.Periods[day.ID]
			for _, room := range rooms {
				block, ok := earliestBlock(model, teacher.ID, room.Code, day.ID, periods, act.Duration, ix, subgroups)
				if !ok {
					continue
				}
				ix.Commit(teacher.ID, room.Code, day.ID, block, subgroups)
				return domain.ScheduledSession{
					ID:           "", // assigned by caller (search/loader) once persisted
					ActivityCode: act.Code,
					Day:          day.ID,
					Periods:      block,
					Room:         room.Code,
					Teacher:      teacher.ID,
					Subgroups:    append([]string(nil), subgroups...),
					Duration:     act.Duration,
					Subject:      act.Subject,
					StudentCount: studentCount,
					Type:         act.Type,
					IsSplit:      split,
				}, true
			}
		}
	}
	return domain.ScheduledSession{}, false
}

// earliestBlock enumerates contiguous non-interval blocks of the given
// duration and returns the first (lowest start index) that is free for
// teacher, room, and every subgroup, and allowed by TC-001.
func earliestBlock(model *domain.Model, teacherID, roomCode, dayID string, periods []domain.Period, duration int, ix availability.Indices, subgroups []string) ([]int, bool) {
	avail := model.Constraints.TeacherAvailability
	for start := 0; start+duration <= len(periods); start++ {
		block := periods[start : start+duration]
		ok := true
		indices := make([]int, 0, duration)
		for i, p := range block {
			if p.IsInterval || (i > 0 && p.Index != block[i-1].Index+1) {
				ok = false
				break
			}
			indices = append(indices, p.Index)
		}
		if !ok {
			continue
		}
		if !teacherAvailable(avail, teacherID, dayID, indices) {
			continue
		}
		if !ix.CanPlace(teacherID, roomCode, dayID, indices, subgroups) {
			continue
		}
		return indices, true
	}
	return nil, false
}

func teacherAvailable(avail domain.TeacherAvailability, teacherID, dayID string, indices []int) bool {
	if avail == nil {
		return true
	}
	blocked, ok := avail[teacherID]
	if !ok {
		return true
	}
	blockedPeriods, ok := blocked[dayID]
	if !ok {
		return true
	}
	blockedSet := make(map[int]bool, len(blockedPeriods))
	for _, p := range blockedPeriods {
		blockedSet[p] = true
	}
	for _, idx := range indices {
		if blockedSet[idx] {
			return false
		}
	}
	return true
}
