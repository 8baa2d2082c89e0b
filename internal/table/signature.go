package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SortOrder is the direction a table is sorted in.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// Signature is everything that identifies a pending query: filter,
// group-by, group-columns, sort-column, sort-order, tracks, op-types,
// time range, summary flag, pivot flag, and string-table filters. Two
// signatures that compare equal mean "the same query, possibly with
// fresher data" -- Setup preserves column layout in that case rather
// than re-resolving it.
type Signature struct {
	Filter            string
	GroupBy           string
	GroupColumns      []string
	SortColumn        string
	SortOrder         SortOrder
	TrackIDs          []uint64
	OpTypes           []int
	TimeRangeStart    uint64
	TimeRangeEnd      uint64
	Summary           bool
	Pivot             bool
	StringTableFilter string // a jsonpath/gval expression, see filter.go
}

// Equal reports whether two signatures describe the same query.
func (s Signature) Equal(o Signature) bool {
	return s.hash() == o.hash()
}

// hash renders a stable blake2b digest of the signature, used so large
// signatures (many track ids) compare in O(1) instead of a field-by-
// field diff every time Setup is called.
func (s Signature) hash() string {
	var b strings.Builder
	b.WriteString(s.Filter)
	b.WriteByte('|')
	b.WriteString(s.GroupBy)
	b.WriteByte('|')
	b.WriteString(strings.Join(s.GroupColumns, ","))
	b.WriteByte('|')
	b.WriteString(s.SortColumn)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(s.SortOrder)))
	b.WriteByte('|')

	tracks := make([]uint64, len(s.TrackIDs))
	copy(tracks, s.TrackIDs)
	sort.Slice(tracks, func(i, j int) bool { return tracks[i] < tracks[j] })
	for _, id := range tracks {
		fmt.Fprintf(&b, "%d,", id)
	}
	b.WriteByte('|')

	ops := make([]int, len(s.OpTypes))
	copy(ops, s.OpTypes)
	sort.Ints(ops)
	for _, op := range ops {
		fmt.Fprintf(&b, "%d,", op)
	}
	b.WriteByte('|')

	fmt.Fprintf(&b, "%d-%d|%t|%t|%s",
		s.TimeRangeStart, s.TimeRangeEnd, s.Summary, s.Pivot, s.StringTableFilter)

	sum := blake2b.Sum256([]byte(b.String()))
	return string(sum[:])
}
