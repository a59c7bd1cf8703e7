package availability

import "github.com/noah-isme/timetable-engine/internal/domain"

// FromSessions rebuilds a fresh set of Occupancy Indices from a session
// list. The Constructor and Neighborhood Operator use this instead of
// incremental rollback when building a candidate from scratch (§4.1: "this
// is cheaper than incremental rollback given typical population sizes").
func FromSessions(sessions []domain.ScheduledSession) Indices {
	ix := New()
	for _, s := range sessions {
		ix.Commit(s.Teacher, s.Room, s.Day, s.Periods, s.Subgroups)
	}
	return ix
}
