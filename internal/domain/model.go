package domain

import "strings"

// Model is the frozen, read-only domain snapshot every driver and the
// evaluator share. It is built once by the loader; nothing here is
// mutated once Build returns, satisfying §5's read-only requirement and
// replacing the "pervasive mutable globals" pattern flagged in §9.
type Model struct {
	Activities []Activity
	Rooms      []Room
	Periods    map[string][]Period // day id -> periods, sorted by Index
	Days       []Day
	Teachers   []Teacher
	Constraints Constraints

	StudentsPerSubgroup  int
	LabRoomCapacityCeiling int // Open Question 3: default 60, the stricter of the reference's two filters

	teacherByID map[string]Teacher
	roomByCode  map[string]Room
	activityByCode map[string]Activity
}

// Build indexes the raw entity slices into lookup tables and computes
// derived Room categories. studentsPerSubgroup and labCapacityCeiling
// default to the reference constants (40, 60) when zero.
func Build(activities []Activity, rooms []Room, periods map[string][]Period, days []Day, teachers []Teacher, constraints Constraints, studentsPerSubgroup, labCapacityCeiling int) *Model {
	if studentsPerSubgroup == 0 {
		studentsPerSubgroup = 40
	}
	if labCapacityCeiling == 0 {
		labCapacityCeiling = 60
	}
	m := &Model{
		Activities:             activities,
		Periods:                periods,
		Days:                   days,
		Teachers:               teachers,
		Constraints:            constraints,
		StudentsPerSubgroup:    studentsPerSubgroup,
		LabRoomCapacityCeiling: labCapacityCeiling,
		teacherByID:            make(map[string]Teacher, len(teachers)),
		roomByCode:             make(map[string]Room, len(rooms)),
		activityByCode:         make(map[string]Activity, len(activities)),
	}
	m.Rooms = make([]Room, len(rooms))
	for i, r := range rooms {
		r.Category = classifyRoom(r)
		m.Rooms[i] = r
		m.roomByCode[r.Code] = r
	}
	for _, t := range teachers {
		m.teacherByID[t.ID] = t
	}
	for _, a := range activities {
		m.activityByCode[a.Code] = a
	}
	return m
}

func (m *Model) Teacher(id string) (Teacher, bool) {
	t, ok := m.teacherByID[id]
	return t, ok
}

func (m *Model) Room(code string) (Room, bool) {
	r, ok := m.roomByCode[code]
	return r, ok
}

func (m *Model) Activity(code string) (Activity, bool) {
	a, ok := m.activityByCode[code]
	return a, ok
}

// classifyRoom implements §4.3's heuristic once, at load time, replacing
// per-call string matching with a bitflag test (§9 redesign flag).
func classifyRoom(r Room) RoomCategory {
	var cat RoomCategory
	name := strings.ToLower(r.Name + " " + r.LongName)
	code := strings.ToLower(r.Code)
	if strings.Contains(name, "lecture") || strings.Contains(code, "lh") || r.Capacity >= 100 {
		cat |= CategoryLecture
	}
	if strings.Contains(name, "lab") || strings.Contains(code, "lab") || strings.EqualFold(r.Attributes["computers"], "yes") {
		cat |= CategoryLab
	}
	return cat
}

// Suitable implements the §4.3 predicate is_suitable(room, type, reqs).
// Explicit requirement strings on the activity dominate the derived
// category when present.
func Suitable(r Room, activityType ActivityType, requirements []string) bool {
	for _, req := range requirements {
		switch strings.ToLower(req) {
		case "lecture hall":
			return r.Category.Has(CategoryLecture)
		case "lab room":
			return r.Category.Has(CategoryLab)
		}
	}
	switch activityType {
	case ActivityLab:
		return r.Category.Has(CategoryLab)
	default:
		return r.Category.Has(CategoryLecture)
	}
}
