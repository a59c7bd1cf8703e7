package neighborhood

import (
	"math/rand"
	"testing"

	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoDayModel() *domain.Model {
	activities := []domain.Activity{
		{Code: "A1", Subject: "Math", TeacherIDs: []string{"T1", "T2"}, SubgroupIDs: []string{"G1"}, Duration: 2, Type: domain.ActivityLectureTutorial},
		{Code: "A2", Subject: "Math", TeacherIDs: []string{"T1", "T2"}, SubgroupIDs: []string{"G2"}, Duration: 2, Type: domain.ActivityLectureTutorial},
	}
	rooms := []domain.Room{{Code: "R1", Capacity: 40}, {Code: "R2", Capacity: 40}}
	periods := map[string][]domain.Period{
		"D1": {{ID: "P1", Index: 0}, {ID: "P2", Index: 1}, {ID: "P3", Index: 2}},
		"D2": {{ID: "P1", Index: 0}, {ID: "P2", Index: 1}, {ID: "P3", Index: 2}},
	}
	days := []domain.Day{{ID: "D1", Name: "Monday"}, {ID: "D2", Name: "Tuesday"}}
	teachers := []domain.Teacher{{ID: "T1"}, {ID: "T2"}}
	return domain.Build(activities, rooms, periods, days, teachers, domain.Constraints{}, 40, 120)
}

func baseCandidate() *domain.Candidate {
	return &domain.Candidate{Sessions: []domain.ScheduledSession{
		{ID: "s1", ActivityCode: "A1", Day: "D1", Periods: []int{0, 1}, Room: "R1", Teacher: "T1", Subgroups: []string{"G1"}, Duration: 2, Subject: "Math", StudentCount: 40, Type: domain.ActivityLectureTutorial},
		{ID: "s2", ActivityCode: "A2", Day: "D1", Periods: []int{0, 1}, Room: "R2", Teacher: "T2", Subgroups: []string{"G2"}, Duration: 2, Subject: "Math", StudentCount: 40, Type: domain.ActivityLectureTutorial},
	}}
}

// feasibilityInvariant re-checks §3 invariants 1-3 hold for every session
// pairing in c; used after every operator application.
func feasibilityInvariant(t *testing.T, model *domain.Model, c *domain.Candidate) {
	t.Helper()
	cost := evaluator.Evaluate(model, c)
	assert.Equal(t, 0.0, cost.Breakdown["room_conflict"])
	assert.Equal(t, 0.0, cost.Breakdown["teacher_conflict"])
	assert.Equal(t, 0.0, cost.Breakdown["subgroup_overlap"])
}

func TestApplyOp_AllOperatorsPreserveHardInvariants(t *testing.T) {
	model := twoDayModel()
	ops := []Operator{Reschedule, Swap, Move, ChangeRoom, ChangeTeacher}
	for _, op := range ops {
		for seed := int64(0); seed < 20; seed++ {
			r := rand.New(rand.NewSource(seed))
			c := baseCandidate()
			next := ApplyOp(model, c, r, op)
			feasibilityInvariant(t, model, next)
		}
	}
}

func TestReschedule_RemovesAndReplacesOneSession(t *testing.T) {
	model := twoDayModel()
	c := baseCandidate()
	r := rand.New(rand.NewSource(1))
	next := reschedule(model, c, r)
	require.Len(t, next.Sessions, 2)
}

func TestSwap_ExchangesDayPeriodRoom(t *testing.T) {
	model := twoDayModel()
	c := &domain.Candidate{Sessions: []domain.ScheduledSession{
		{ID: "s1", ActivityCode: "A1", Day: "D1", Periods: []int{0, 1}, Room: "R1", Teacher: "T1", Subgroups: []string{"G1"}, Duration: 2, StudentCount: 40, Type: domain.ActivityLectureTutorial},
		{ID: "s2", ActivityCode: "A2", Day: "D2", Periods: []int{1, 2}, Room: "R2", Teacher: "T2", Subgroups: []string{"G2"}, Duration: 2, StudentCount: 40, Type: domain.ActivityLectureTutorial},
	}}
	// force a successful swap deterministically by trying every seed until one swaps
	var swapped bool
	for seed := int64(0); seed < 50 && !swapped; seed++ {
		r := rand.New(rand.NewSource(seed))
		next := swap(model, c, r)
		if next.Sessions[0].Day == "D2" {
			swapped = true
			assert.Equal(t, []int{1, 2}, next.Sessions[0].Periods)
			assert.Equal(t, "R2", next.Sessions[0].Room)
		}
	}
	assert.True(t, swapped, "expected at least one seed to produce a swap")
}

func TestSwap_NoOpWithFewerThanTwoSessions(t *testing.T) {
	model := twoDayModel()
	c := &domain.Candidate{Sessions: []domain.ScheduledSession{baseCandidate().Sessions[0]}}
	r := rand.New(rand.NewSource(1))
	next := swap(model, c, r)
	assert.Same(t, c, next)
}

func TestApply_NeverPanicsOnEmptyCandidate(t *testing.T) {
	model := twoDayModel()
	c := &domain.Candidate{}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		next := Apply(model, c, r)
		assert.Empty(t, next.Sessions)
	}
}

func TestPick_RespectsWeightBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	seen := map[Operator]int{}
	for i := 0; i < 1000; i++ {
		seen[Pick(r)]++
	}
	// All five operators should appear with non-trivial frequency given the
	// fixed weights (smallest is 0.1 of the mass).
	for _, op := range []Operator{Reschedule, Swap, Move, ChangeRoom, ChangeTeacher} {
		assert.Greater(t, seen[op], 0)
	}
}
