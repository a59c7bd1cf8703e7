// Package evaluator computes the weighted multi-term cost of a Candidate
// Schedule against the full constraint catalogue (§4.5). It is pure over
// its input — the same candidate always yields the same cost vector,
// satisfying the round-trip testable property of §8.
package evaluator

import "github.com/noah-isme/timetable-engine/internal/domain"

// Cost is the cost vector returned for one candidate. Total fitness is
// Hard + Soft; lower is better. Breakdown exposes each named term for
// diagnostics and tests.
type Cost struct {
	Hard      float64
	Soft      float64
	Breakdown map[string]float64
}

func (c Cost) Total() float64 { return c.Hard + c.Soft }

const (
	hardMultiplier = 1000.0
)

// Evaluate implements §4.5 in full.
func Evaluate(model *domain.Model, c *domain.Candidate) Cost {
	bd := map[string]float64{}
	add := func(k string, v float64) { bd[k] += v }

	type key struct {
		entity, day string
		period      int
	}
	roomOcc := map[key]int{}
	teacherOcc := map[key]int{}
	subgroupOcc := map[key]int{}

	var roomConflicts, teacherConflicts, subgroupOverlap, intervalConflicts, teacherAvailability, capacity, roomTypeMismatch, duplicate float64
	activityCount := map[string]int{}
	labSubgroupsSeen := map[string]map[string]bool{}

	teacherDayDuration := map[string]map[string]int{}  // TC-009
	teacherDays := map[string]map[string]bool{}         // TC-002 / TC-003-min-days
	subgroupDayCount := map[string]map[string]int{}     // TC-010
	teacherBlocksByDay := map[string]map[string][][]int{} // TC-008: per teacher, per day, list of period blocks

	periodsByDayIndex := map[string]map[int]domain.Period{}
	for day, ps := range model.Periods {
		m := make(map[int]domain.Period, len(ps))
		for _, p := range ps {
			m[p.Index] = p
		}
		periodsByDayIndex[day] = m
	}

	for _, s := range c.Sessions {
		activityCount[s.ActivityCode]++
		if s.IsSplit {
			if labSubgroupsSeen[s.ActivityCode] == nil {
				labSubgroupsSeen[s.ActivityCode] = map[string]bool{}
			}
			for _, sg := range s.Subgroups {
				labSubgroupsSeen[s.ActivityCode][sg] = true
			}
		}

		for _, p := range s.Periods {
			roomOcc[key{s.Room, s.Day, p}]++
			teacherOcc[key{s.Teacher, s.Day, p}]++
			for _, sg := range s.Subgroups {
				subgroupOcc[key{sg, s.Day, p}]++
			}
			if pd, ok := periodsByDayIndex[s.Day][p]; ok && pd.IsInterval {
				intervalConflicts++
			}
		}

		if !teacherAvailableFor(model, s.Teacher, s.Day, s.Periods) {
			teacherAvailability++
		}
		if room, ok := model.Room(s.Room); ok {
			if s.StudentCount > room.Capacity {
				capacity++
			}
			if act, ok := model.Activity(s.ActivityCode); ok && !domain.Suitable(room, act.Type, act.RoomRequirements) {
				roomTypeMismatch++
			}
		}

		if teacherDayDuration[s.Teacher] == nil {
			teacherDayDuration[s.Teacher] = map[string]int{}
		}
		teacherDayDuration[s.Teacher][s.Day] += s.Duration

		if teacherDays[s.Teacher] == nil {
			teacherDays[s.Teacher] = map[string]bool{}
		}
		teacherDays[s.Teacher][s.Day] = true

		for _, sg := range s.Subgroups {
			if subgroupDayCount[sg] == nil {
				subgroupDayCount[sg] = map[string]int{}
			}
			subgroupDayCount[sg][s.Day]++
		}

		if teacherBlocksByDay[s.Teacher] == nil {
			teacherBlocksByDay[s.Teacher] = map[string][][]int{}
		}
		teacherBlocksByDay[s.Teacher][s.Day] = append(teacherBlocksByDay[s.Teacher][s.Day], s.Periods)
	}

	for _, cnt := range roomOcc {
		if cnt > 1 {
			roomConflicts += float64(cnt - 1)
		}
	}
	for _, cnt := range teacherOcc {
		if cnt > 1 {
			teacherConflicts += float64(cnt - 1)
		}
	}
	for _, cnt := range subgroupOcc {
		if cnt > 1 {
			subgroupOverlap += float64(cnt - 1)
		}
	}

	var unscheduled, splitPenalty float64
	for _, act := range model.Activities {
		n := activityCount[act.Code]
		if act.Type != domain.ActivityLab {
			if n == 0 {
				unscheduled++
			} else if n > 1 {
				duplicate += float64(n - 1)
			}
			continue
		}
		expectedSubgroups := len(act.SubgroupIDs)
		if n == 0 {
			unscheduled++
			continue
		}
		got := len(labSubgroupsSeen[act.Code])
		if got < expectedSubgroups {
			splitPenalty += float64(expectedSubgroups-got) * 10
		}
	}

	add("room_conflict", roomConflicts)
	add("teacher_conflict", teacherConflicts)
	add("subgroup_overlap", subgroupOverlap)
	add("interval_conflict", intervalConflicts)
	add("teacher_availability", teacherAvailability)
	add("capacity", capacity)
	add("room_type_mismatch", roomTypeMismatch)
	add("unscheduled", unscheduled)
	add("duplicate", duplicate)

	fixedHard := roomConflicts + teacherConflicts + subgroupOverlap + intervalConflicts +
		teacherAvailability + capacity + unscheduled + duplicate + roomTypeMismatch

	// TC-004 max consecutive periods (hard, weighted by excess block length)
	var tc004 float64
	for teacherID, byDay := range teacherBlocksByDay {
		maxAllowed, ok := model.Constraints.MaxConsecutive[teacherID]
		if !ok {
			continue
		}
		weight := model.Constraints.Weights.Get(domain.TC004MaxConsecutive, 1)
		for _, blocks := range byDay {
			for _, b := range blocks {
				if excess := len(b) - maxAllowed; excess > 0 {
					tc004 += float64(excess) * weight
				}
			}
		}
	}
	add("tc004_max_consecutive", tc004)

	// TC-009 max teaching hours / day (hard, weighted by excess hours)
	var tc009 float64
	for teacherID, byDay := range teacherDayDuration {
		maxHours, ok := model.Constraints.MaxHoursPerDay[teacherID]
		if !ok {
			continue
		}
		weight := model.Constraints.Weights.Get(domain.TC009MaxHoursPerDay, 1)
		for _, dur := range byDay {
			if excess := dur - maxHours; excess > 0 {
				tc009 += float64(excess) * weight
			}
		}
	}
	add("tc009_max_hours_per_day", tc009)

	// TC-011 room unavailable (hard, weighted unit count)
	var tc011 float64
	for _, s := range c.Sessions {
		blocked, ok := model.Constraints.RoomUnavailable[s.Room]
		if !ok {
			continue
		}
		unavail, ok := blocked[s.Day]
		if !ok {
			continue
		}
		set := toSet(unavail)
		for _, p := range s.Periods {
			if set[p] {
				tc011 += model.Constraints.Weights.Get(domain.TC011RoomUnavailable, 1)
				break
			}
		}
	}
	add("tc011_room_unavailable", tc011)

	// TC-014 activity duration mismatch (hard, x10 per unit)
	var tc014 float64
	for _, s := range c.Sessions {
		act, ok := model.Activity(s.ActivityCode)
		if !ok {
			continue
		}
		if diff := len(s.Periods) - act.Duration; diff != 0 {
			if diff < 0 {
				diff = -diff
			}
			tc014 += float64(diff) * 10
		}
	}
	add("tc014_activity_duration", tc014)

	newHard := tc004 + tc009 + tc011 + tc014

	// --- soft terms ---
	var maxDaysPenalty, minDaysPenalty float64
	for teacherID, days := range teacherDays {
		worked := len(days)
		if maxAllowed, ok := model.Constraints.TeacherMaxDays[teacherID]; ok && worked > maxAllowed {
			maxDaysPenalty += model.Constraints.Weights.Get(domain.TC002TeacherMaxDays, 1) * float64(worked-maxAllowed)
		}
		if minRequired, ok := model.Constraints.TeacherMinDays[teacherID]; ok && worked < minRequired {
			minDaysPenalty += model.Constraints.Weights.Get(domain.TC003TeacherMinDays, 1) * float64(minRequired-worked)
		}
	}
	add("max_days", maxDaysPenalty)
	add("min_days", minDaysPenalty)
	add("split_penalty", splitPenalty)

	// TC-003 preferred time (soft)
	var tc003pt float64
	for _, s := range c.Sessions {
		prefs, ok := model.Constraints.TeacherPreferredTime[s.Teacher]
		if !ok {
			continue
		}
		preferred, ok := prefs[s.Day]
		if !ok || !anyIn(s.Periods, toSet(preferred)) {
			tc003pt += model.Constraints.Weights.Get(domain.TC003TeacherPreferredTime, 1)
		}
	}
	add("tc003_preferred_time", tc003pt)

	// TC-005 student preferred time (soft)
	var tc005 float64
	for _, s := range c.Sessions {
		for _, sg := range s.Subgroups {
			prefs, ok := model.Constraints.StudentPreferredTime[sg]
			if !ok {
				continue
			}
			preferred, ok := prefs[s.Day]
			if !ok || !anyIn(s.Periods, toSet(preferred)) {
				tc005 += model.Constraints.Weights.Get(domain.TC005StudentPreferredTime, 1)
			}
		}
	}
	add("tc005_student_preferred_time", tc005)

	// TC-008 min gap between same-day blocks (soft)
	var tc008 float64
	for teacherID, byDay := range teacherBlocksByDay {
		minGap, ok := model.Constraints.MinGap[teacherID]
		if !ok {
			continue
		}
		for _, blocks := range byDay {
			if len(blocks) < 2 {
				continue
			}
			sorted := make([][]int, len(blocks))
			copy(sorted, blocks)
			sortBlocksByStart(sorted)
			for i := 1; i < len(sorted); i++ {
				prevEnd := sorted[i-1][len(sorted[i-1])-1]
				nextStart := sorted[i][0]
				gap := nextStart - prevEnd - 1
				if gap < minGap {
					tc008 += model.Constraints.Weights.Get(domain.TC008MinGap, 1) * float64(minGap-gap)
				}
			}
		}
	}
	add("tc008_min_gap", tc008)

	// TC-010 subgroup max classes per day (soft)
	var tc010 float64
	for sg, byDay := range subgroupDayCount {
		maxAllowed, ok := model.Constraints.MaxClassesPerDay[sg]
		if !ok {
			continue
		}
		for _, n := range byDay {
			if n > maxAllowed {
				tc010 += model.Constraints.Weights.Get(domain.TC010MaxClassesPerDay, 1) * float64(n-maxAllowed)
			}
		}
	}
	add("tc010_max_classes_per_day", tc010)

	// TC-012 teacher subject preference (soft)
	var tc012 float64
	for _, s := range c.Sessions {
		prefs, ok := model.Constraints.TeacherSubjectPref[s.Teacher]
		if !ok {
			continue
		}
		if !containsStr(prefs, s.Subject) {
			tc012 += model.Constraints.Weights.Get(domain.TC012TeacherSubjectPref, 1)
		}
	}
	add("tc012_teacher_subject_preference", tc012)

	newSoft := tc003pt + tc005 + tc008 + tc010 + tc012

	hard := hardMultiplier*fixedHard + newHard
	soft := maxDaysPenalty + minDaysPenalty + splitPenalty + newSoft

	return Cost{Hard: hard, Soft: soft, Breakdown: bd}
}

func teacherAvailableFor(model *domain.Model, teacherID, day string, periods []int) bool {
	avail := model.Constraints.TeacherAvailability
	if avail == nil {
		return true
	}
	blocked, ok := avail[teacherID]
	if !ok {
		return true
	}
	unavailable, ok := blocked[day]
	if !ok {
		return true
	}
	set := toSet(unavailable)
	for _, p := range periods {
		if set[p] {
			return false
		}
	}
	return true
}

func toSet(vals []int) map[int]bool {
	m := make(map[int]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func anyIn(vals []int, set map[int]bool) bool {
	for _, v := range vals {
		if set[v] {
			return true
		}
	}
	return false
}

func containsStr(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// sortBlocksByStart orders a teacher's same-day period blocks by their
// first period index, so TC-008's gap scan can walk them in schedule
// order.
func sortBlocksByStart(blocks [][]int) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && blocks[j-1][0] > blocks[j][0]; j-- {
			blocks[j-1], blocks[j] = blocks[j], blocks[j-1]
		}
	}
}
