// Package conflictcheck implements the post-search Conflict Checker
// (§4.7): validation of an external edit against a persisted timetable
// and its siblings, used when an external actor edits a Scheduled
// Session outside of a full search re-run.
package conflictcheck

import "github.com/noah-isme/timetable-engine/internal/domain"

// Dimension names which resource collided, mirroring the teacher's
// ScheduleConflict.Dimension field.
type Dimension string

const (
	DimensionStructural Dimension = "STRUCTURAL"
	DimensionRoom       Dimension = "ROOM"
	DimensionTeacher    Dimension = "TEACHER"
)

// Stage identifies which of the three ordered checks raised the conflict.
type Stage string

const (
	StageStructural      Stage = "structural"
	StageIntraTimetable  Stage = "intra_timetable"
	StageCrossTimetable  Stage = "cross_timetable"
)

// Descriptor is one conflict finding. An empty Descriptor slice authorizes
// persistence (§4.7).
type Descriptor struct {
	Stage          Stage
	Dimension      Dimension
	SessionID      string
	OtherSessionID string
	OtherTimetable string
	Detail         string
}

// Timetable is the minimal shape the checker needs: an identity, the
// algorithm tag it was produced by, and its sessions.
type Timetable struct {
	ID        string
	Algorithm string
	Day       string // the day this timetable instance covers, if scoped per-day; empty means "all days in Sessions"
	Sessions  []domain.ScheduledSession
}

// Check runs the three ordered stages of §4.7 against a batch of edited
// sessions destined for target. siblings are other timetables tagged
// with the same algorithm as target, used for the cross-timetable stage.
// Subgroup overlap is intentionally not checked here — it is delegated to
// the Evaluator's invariants on full-schedule regeneration, per §4.7.
func Check(target Timetable, edits []domain.ScheduledSession, siblings []Timetable) []Descriptor {
	var out []Descriptor

	out = append(out, structuralChecks(edits)...)
	if len(out) > 0 {
		// Structural failures make the remaining semantic checks
		// meaningless (fields may be missing entirely).
		return out
	}

	out = append(out, intraTimetableChecks(target, edits)...)
	out = append(out, crossTimetableChecks(target, edits, siblings)...)
	return out
}

func structuralChecks(edits []domain.ScheduledSession) []Descriptor {
	var out []Descriptor
	for _, s := range edits {
		switch {
		case s.Day == "":
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "missing day"})
		case s.Room == "":
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "missing room"})
		case s.Teacher == "":
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "missing teacher"})
		case len(s.Periods) == 0:
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "missing periods"})
		case len(s.Periods) != s.Duration:
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "period count does not match duration"})
		case !consecutive(s.Periods):
			out = append(out, Descriptor{Stage: StageStructural, Dimension: DimensionStructural, SessionID: s.ID, Detail: "periods not consecutive"})
		}
	}
	return out
}

func consecutive(periods []int) bool {
	for i := 1; i < len(periods); i++ {
		if periods[i] != periods[i-1]+1 {
			return false
		}
	}
	return true
}

// intraTimetableChecks implements §4.7 stage 2: for each other session on
// the same day sharing any period index with an edit, forbid matching
// room or teacher; also detects self-conflicts within the edit batch.
func intraTimetableChecks(target Timetable, edits []domain.ScheduledSession) []Descriptor {
	var out []Descriptor
	editIDs := make(map[string]bool, len(edits))
	for _, e := range edits {
		editIDs[e.ID] = true
	}

	check := func(a, b domain.ScheduledSession) {
		if a.ID == b.ID || a.Day != b.Day || !sharesPeriod(a.Periods, b.Periods) {
			return
		}
		if a.Room == b.Room {
			out = append(out, Descriptor{Stage: StageIntraTimetable, Dimension: DimensionRoom, SessionID: a.ID, OtherSessionID: b.ID, Detail: "room double-booked within timetable"})
		}
		if a.Teacher == b.Teacher {
			out = append(out, Descriptor{Stage: StageIntraTimetable, Dimension: DimensionTeacher, SessionID: a.ID, OtherSessionID: b.ID, Detail: "teacher double-booked within timetable"})
		}
	}

	for _, e := range edits {
		for _, other := range target.Sessions {
			if editIDs[other.ID] {
				continue // compared via the batch loop below, not against its own pre-edit state
			}
			check(e, other)
		}
	}
	for i := 0; i < len(edits); i++ {
		for j := i + 1; j < len(edits); j++ {
			check(edits[i], edits[j])
		}
	}
	return out
}

// crossTimetableChecks implements §4.7 stage 3: among sibling timetables
// of the same algorithm, on the same day only, flag any shared-period
// match of room or teacher.
func crossTimetableChecks(target Timetable, edits []domain.ScheduledSession, siblings []Timetable) []Descriptor {
	var out []Descriptor
	for _, sib := range siblings {
		if sib.ID == target.ID || sib.Algorithm != target.Algorithm {
			continue
		}
		for _, e := range edits {
			for _, other := range sib.Sessions {
				if e.Day != other.Day || !sharesPeriod(e.Periods, other.Periods) {
					continue
				}
				if e.Room == other.Room {
					out = append(out, Descriptor{Stage: StageCrossTimetable, Dimension: DimensionRoom, SessionID: e.ID, OtherSessionID: other.ID, OtherTimetable: sib.ID, Detail: "cross_timetable_room_conflict"})
				}
				if e.Teacher == other.Teacher {
					out = append(out, Descriptor{Stage: StageCrossTimetable, Dimension: DimensionTeacher, SessionID: e.ID, OtherSessionID: other.ID, OtherTimetable: sib.ID, Detail: "cross_timetable_teacher_conflict"})
				}
			}
		}
	}
	return out
}

func sharesPeriod(a, b []int) bool {
	set := make(map[int]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if set[p] {
			return true
		}
	}
	return false
}
