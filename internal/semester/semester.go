// Package semester derives the semester tag a Scheduled Session belongs to
// from its subgroup id prefix, so generate() can partition one Candidate
// into the per-semester Timetable documents §6.2 expects.
package semester

import (
	"strings"

	"github.com/noah-isme/timetable-engine/internal/domain"
)

// tagTable is the fixed Y<year>S<term> -> SEM<year><term> mapping (§6.2).
var tagTable = map[string]string{
	"Y1S1": "SEM101",
	"Y1S2": "SEM102",
	"Y2S1": "SEM201",
	"Y2S2": "SEM202",
	"Y3S1": "SEM301",
	"Y3S2": "SEM302",
	"Y4S1": "SEM401",
	"Y4S2": "SEM402",
}

// Unknown is returned when a subgroup id doesn't carry a recognised prefix.
const Unknown = "SEM-UNKNOWN"

// TagForSubgroup extracts the "Y<n>S<n>" prefix from a subgroup id (e.g.
// "Y2S1-CS-A" -> "SEM201") and maps it to its semester tag. Subgroup ids
// that don't start with a recognised prefix map to Unknown rather than
// erroring, since a malformed tag is a data-quality signal the persister
// surfaces via the notification, not a reason to abort the whole run.
func TagForSubgroup(subgroupID string) string {
	for prefix, tag := range tagTable {
		if strings.HasPrefix(subgroupID, prefix) {
			return tag
		}
	}
	return Unknown
}

// Tags returns every semester tag this table knows about, in year/term order.
func Tags() []string {
	return []string{
		"SEM101", "SEM102",
		"SEM201", "SEM202",
		"SEM301", "SEM302",
		"SEM401", "SEM402",
	}
}

// TagForSession picks the semester tag for one session from its first
// subgroup. A session's subgroups are always drawn from one cohort (the
// constructor never merges cross-semester activities), so the first
// subgroup's tag is authoritative.
func TagForSession(s domain.ScheduledSession) string {
	if len(s.Subgroups) == 0 {
		return Unknown
	}
	return TagForSubgroup(s.Subgroups[0])
}

// Partition groups a Candidate's sessions by semester tag.
func Partition(candidate *domain.Candidate) map[string][]domain.ScheduledSession {
	out := map[string][]domain.ScheduledSession{}
	if candidate == nil {
		return out
	}
	for _, s := range candidate.Sessions {
		tag := TagForSession(s)
		out[tag] = append(out[tag], s)
	}
	return out
}
