package constructor

import (
	"math/rand"
	"testing"

	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func threePeriodDay() map[string][]domain.Period {
	return map[string][]domain.Period{
		"D1": {
			{ID: "P1", Index: 0},
			{ID: "P2", Index: 1},
			{ID: "P3", Index: 2},
		},
	}
}

// TestBuild_TrivialFeasible mirrors spec.md §8 scenario 1: one activity,
// one eligible teacher, one eligible room, one day of three non-interval
// periods. Every driver's constructor must place it with no violations.
func TestBuild_TrivialFeasible(t *testing.T) {
	model := domain.Build(
		[]domain.Activity{{Code: "A1", Subject: "Math", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1"}, Duration: 2, Type: domain.ActivityLectureTutorial}},
		[]domain.Room{{Code: "R1", Name: "Lecture Room", Capacity: 40}},
		threePeriodDay(),
		[]domain.Day{{ID: "D1", Name: "Monday"}},
		[]domain.Teacher{{ID: "T1"}},
		domain.Constraints{}, 40, 120,
	)

	cand, _, diags := Build(model, rng(1), nil)
	require.Empty(t, diags)
	require.Len(t, cand.Sessions, 1)
	s := cand.Sessions[0]
	assert.Equal(t, "A1", s.ActivityCode)
	assert.Equal(t, "T1", s.Teacher)
	assert.Equal(t, "R1", s.Room)
	assert.Equal(t, "D1", s.Day)
	assert.Len(t, s.Periods, 2)
	assert.Contains(t, [][]int{{0, 1}, {1, 2}}, s.Periods)
}

// TestBuild_LabSplitsAcrossRooms mirrors scenario 2: a 3-subgroup lab with
// no single room big enough must split into one session per subgroup.
func TestBuild_LabSplitsAcrossRooms(t *testing.T) {
	act := domain.Activity{
		Code: "LAB1", Subject: "Chem", TeacherIDs: []string{"T1"},
		SubgroupIDs: []string{"G1", "G2", "G3"}, Duration: 2, Type: domain.ActivityLab,
	}
	rooms := []domain.Room{
		{Code: "LAB-A", Capacity: 40},
		{Code: "LAB-B", Capacity: 40},
	}
	periods := map[string][]domain.Period{
		"D1": {{ID: "P1", Index: 0}, {ID: "P2", Index: 1}, {ID: "P3", Index: 2}, {ID: "P4", Index: 3}, {ID: "P5", Index: 4}, {ID: "P6", Index: 5}},
	}
	model := domain.Build([]domain.Activity{act}, rooms, periods,
		[]domain.Day{{ID: "D1", Name: "Monday"}}, []domain.Teacher{{ID: "T1"}}, domain.Constraints{}, 40, 120)

	cand, _, diags := Build(model, rng(2), nil)
	require.Empty(t, diags)
	require.Len(t, cand.Sessions, 3)

	seen := map[string]bool{}
	for _, s := range cand.Sessions {
		assert.True(t, s.IsSplit)
		assert.Len(t, s.Subgroups, 1)
		seen[s.Subgroups[0]] = true
		room, ok := model.Room(s.Room)
		require.True(t, ok)
		assert.True(t, room.Category.Has(domain.CategoryLab))
		assert.GreaterOrEqual(t, room.Capacity, s.StudentCount)
	}
	assert.Len(t, seen, 3)
}

// TestBuild_UnavoidableIntervalLeavesUnscheduled mirrors scenario 3: the
// only block long enough for the activity includes an interval, so the
// activity cannot be placed and must be reported as a diagnostic, not
// forced in.
func TestBuild_UnavoidableIntervalLeavesUnscheduled(t *testing.T) {
	periods := map[string][]domain.Period{
		"D1": {
			{ID: "P1", Index: 0},
			{ID: "P2", Index: 1},
			{ID: "P3", Index: 2, IsInterval: true},
		},
	}
	// Duration 3 forces the only candidate block to span all of P1-P3,
	// which includes the interval at P3, so no block is feasible.
	model := domain.Build(
		[]domain.Activity{{Code: "A1", Subject: "Math", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1"}, Duration: 3, Type: domain.ActivityLectureTutorial}},
		[]domain.Room{{Code: "R1", Name: "Lecture Room", Capacity: 40}},
		periods,
		[]domain.Day{{ID: "D1", Name: "Monday"}},
		[]domain.Teacher{{ID: "T1"}},
		domain.Constraints{}, 40, 120,
	)

	cand, _, diags := Build(model, rng(3), nil)
	assert.Empty(t, cand.Sessions)
	require.Len(t, diags, 1)
	assert.Equal(t, "A1", diags[0].ActivityCode)
}

// TestBuild_TeacherConflictPressure mirrors scenario 4: two activities
// share their only eligible teacher and both need the same single day's
// worth of periods — exactly one gets placed per construction.
func TestBuild_TeacherConflictPressure(t *testing.T) {
	activities := []domain.Activity{
		{Code: "A1", Subject: "Math", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1"}, Duration: 2, Type: domain.ActivityLectureTutorial},
		{Code: "A2", Subject: "Math", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1"}, Duration: 2, Type: domain.ActivityLectureTutorial},
	}
	model := domain.Build(activities,
		[]domain.Room{{Code: "R1", Name: "Lecture Room", Capacity: 40}},
		threePeriodDay(),
		[]domain.Day{{ID: "D1", Name: "Monday"}},
		[]domain.Teacher{{ID: "T1"}},
		domain.Constraints{}, 40, 120,
	)

	cand, _, diags := Build(model, rng(4), nil)
	assert.Len(t, cand.Sessions, 1)
	require.Len(t, diags, 1)
}

// TestBuild_LabUnscheduledWhenNoRoomMeetsPerSubgroupCapacity covers the
// boundary case: every candidate lab room holds fewer students than
// StudentsPerSubgroup, so the lab cannot even split-place.
func TestBuild_LabUnscheduledWhenNoRoomMeetsPerSubgroupCapacity(t *testing.T) {
	act := domain.Activity{Code: "LAB1", Subject: "Chem", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1", "G2"}, Duration: 2, Type: domain.ActivityLab}
	rooms := []domain.Room{{Code: "LAB-A", Capacity: 10}}
	model := domain.Build([]domain.Activity{act}, rooms, threePeriodDay(),
		[]domain.Day{{ID: "D1", Name: "Monday"}}, []domain.Teacher{{ID: "T1"}}, domain.Constraints{}, 40, 120)

	cand, _, diags := Build(model, rng(5), nil)
	assert.Empty(t, cand.Sessions)
	require.NotEmpty(t, diags)
}

func TestBuild_NoEligibleTeacherIsDiagnosed(t *testing.T) {
	act := domain.Activity{Code: "A1", Subject: "Math", TeacherIDs: nil, SubgroupIDs: []string{"G1"}, Duration: 2, Type: domain.ActivityLectureTutorial}
	model := domain.Build([]domain.Activity{act}, []domain.Room{{Code: "R1", Capacity: 40}}, threePeriodDay(),
		[]domain.Day{{ID: "D1", Name: "Monday"}}, nil, domain.Constraints{}, 40, 120)

	cand, _, diags := Build(model, rng(6), nil)
	assert.Empty(t, cand.Sessions)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Reason, "no eligible teacher")
}

func TestBuild_RespectsTeacherAvailability(t *testing.T) {
	act := domain.Activity{Code: "A1", Subject: "Math", TeacherIDs: []string{"T1"}, SubgroupIDs: []string{"G1"}, Duration: 1, Type: domain.ActivityLectureTutorial}
	constraints := domain.Constraints{
		TeacherAvailability: domain.TeacherAvailability{"T1": {"D1": {0, 1}}}, // unavailable at 0,1; only 2 free
	}
	model := domain.Build([]domain.Activity{act}, []domain.Room{{Code: "R1", Name: "Lecture Room", Capacity: 40}}, threePeriodDay(),
		[]domain.Day{{ID: "D1", Name: "Monday"}}, []domain.Teacher{{ID: "T1"}}, constraints, 40, 120)

	cand, _, diags := Build(model, rng(7), nil)
	require.Empty(t, diags)
	require.Len(t, cand.Sessions, 1)
	assert.Equal(t, []int{2}, cand.Sessions[0].Periods)
}
