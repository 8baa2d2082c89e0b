// Package level implements the deterministic nesting-depth assignment
// algorithm over time-ordered events within a (node, primary,
// secondary) group, used to support flame-graph rendering.
package level

import "sort"

// Interval is the minimal shape level assignment needs: a half-open-ish
// [Start, End] span identified by ID. Real events (internal/event)
// satisfy this via a small adapter.
type Interval struct {
	ID    uint64
	Start uint64
	End   uint64
}

// Assignment is the computed level for one event id.
type Assignment struct {
	ID    uint64
	Level int
}

// active tracks an event still eligible to contain later events,
// together with its own assigned level.
type active struct {
	end   uint64
	level int
}

// Assign computes level(e) = 1 + max{level(a) : a in active, contains(a,e)}
// with base 0 when no such a, for events within a single group.
// containment is a.start <= e.start && a.end >= e.end. The active set
// is every event whose end >= the current event's start.
//
// Input does not need to be pre-sorted: Assign sorts a copy by start
// ascending, end descending (ties broken so enclosing events are
// processed first), matching the storage-layer ordering LevelSource
// already requests.
func Assign(events []Interval) []Assignment {
	sorted := make([]Interval, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var activeSet []active
	out := make([]Assignment, 0, len(sorted))

	for _, e := range sorted {
		// Drop active events that can no longer contain anything
		// starting at or after e.Start.
		kept := activeSet[:0]
		for _, a := range activeSet {
			if a.end >= e.Start {
				kept = append(kept, a)
			}
		}
		activeSet = kept

		level := 0
		for _, a := range activeSet {
			if a.end >= e.End && a.level+1 > level {
				level = a.level + 1
			}
		}

		out = append(out, Assignment{ID: e.ID, Level: level})
		activeSet = append(activeSet, active{end: e.End, level: level})
	}

	return out
}

// AssignByID is a convenience wrapper returning a map keyed by event id
// rather than a parallel slice, useful when the caller persists the
// result into a level table.
func AssignByID(events []Interval) map[uint64]int {
	assignments := Assign(events)
	out := make(map[uint64]int, len(assignments))
	for _, a := range assignments {
		out[a.ID] = a.Level
	}
	return out
}
