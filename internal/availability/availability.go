// Package availability implements the three Occupancy Indices (§3, §4.1)
// as per-(entity, day) bitsets, replacing the reference's
// dictionary-of-dictionary-of-set pattern (§9 redesign flag). A day holds
// at most a handful of periods, so a single uint64 per (entity, day) is
// enough to make check/commit O(1) bitwise operations.
package availability

import "math/bits"

// Mask is a bitset over period indices within one day. Bit i set means
// period index i is occupied.
type Mask uint64

// Has reports whether any of the given period indices are already set.
func (m Mask) Has(periods []int) bool {
	for _, p := range periods {
		if p < 0 || p >= 64 {
			continue
		}
		if m&(1<<uint(p)) != 0 {
			return true
		}
	}
	return false
}

// With returns a copy of m with the given period indices set.
func (m Mask) With(periods []int) Mask {
	for _, p := range periods {
		if p < 0 || p >= 64 {
			continue
		}
		m |= 1 << uint(p)
	}
	return m
}

// Count returns the number of occupied periods.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }

// Table is one Occupancy Index: entity id -> day id -> Mask.
type Table map[string]map[string]Mask

// Check implements §4.1's check(entity, day, indices): true iff none of
// the given period indices are already occupied.
func (t Table) Check(entity, day string, periods []int) bool {
	byDay, ok := t[entity]
	if !ok {
		return true
	}
	return !byDay[day].Has(periods)
}

// Commit implements §4.1's commit(entity, day, indices): unions the
// period indices into the entity's mask for that day. Never removes —
// candidates are rebuilt from scratch rather than rolled back
// incrementally, per §4.1.
func (t Table) Commit(entity, day string, periods []int) {
	byDay, ok := t[entity]
	if !ok {
		byDay = make(map[string]Mask)
		t[entity] = byDay
	}
	byDay[day] = byDay[day].With(periods)
}

// Clone deep-copies the table so a candidate under construction owns its
// own indices and never shares mutable state with another candidate
// (§5's per-candidate occupancy requirement).
func (t Table) Clone() Table {
	cp := make(Table, len(t))
	for entity, byDay := range t {
		cpDay := make(map[string]Mask, len(byDay))
		for d, m := range byDay {
			cpDay[d] = m
		}
		cp[entity] = cpDay
	}
	return cp
}

// Indices bundles the three Occupancy Indices a Candidate needs: teacher,
// room, and subgroup busy sets.
type Indices struct {
	TeacherBusy  Table
	RoomBusy     Table
	SubgroupBusy Table
}

// New returns an empty set of Occupancy Indices.
func New() Indices {
	return Indices{
		TeacherBusy:  make(Table),
		RoomBusy:     make(Table),
		SubgroupBusy: make(Table),
	}
}

// Clone returns an independent copy, used whenever a new candidate (or a
// PSO fragment-merge attempt) needs its own occupancy state.
func (ix Indices) Clone() Indices {
	return Indices{
		TeacherBusy:  ix.TeacherBusy.Clone(),
		RoomBusy:     ix.RoomBusy.Clone(),
		SubgroupBusy: ix.SubgroupBusy.Clone(),
	}
}

// CanPlace checks all three indices at once for a prospective session.
func (ix Indices) CanPlace(teacher, room, day string, periods []int, subgroups []string) bool {
	if teacher != "" && !ix.TeacherBusy.Check(teacher, day, periods) {
		return false
	}
	if room != "" && !ix.RoomBusy.Check(room, day, periods) {
		return false
	}
	for _, sg := range subgroups {
		if !ix.SubgroupBusy.Check(sg, day, periods) {
			return false
		}
	}
	return true
}

// Commit records a placed session across all three indices.
func (ix Indices) Commit(teacher, room, day string, periods []int, subgroups []string) {
	if teacher != "" {
		ix.TeacherBusy.Commit(teacher, day, periods)
	}
	if room != "" {
		ix.RoomBusy.Commit(room, day, periods)
	}
	for _, sg := range subgroups {
		ix.SubgroupBusy.Commit(sg, day, periods)
	}
}
