// Package coordmap tiles a transcript's local coordinate space into intervals
// that know how to reach the reference, and indexes them for point lookup.
package coordmap

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-txmap/internal/cigar"
)

// ErrInvariantViolation reports a defect in map construction, never bad input.
var ErrInvariantViolation = errors.New("coordinate map invariant violated")

// Tag tells how the local coordinates of an interval reach the reference.
type Tag struct {
	// Offset is added to (forward) or subtracted from (reverse) the local
	// coordinate to get the reference coordinate.
	Offset int64
	// Ordinal is the 1-based position inside an insertion run, 0 for aligned bases.
	Ordinal int
}

// Aligned returns the tag of a run of aligned bases.
func Aligned(offset int64) Tag {
	return Tag{Offset: offset}
}

// WithinInsertion returns the tag of the ordinal-th base of an insertion run.
func WithinInsertion(offset int64, ordinal int) Tag {
	return Tag{Offset: offset, Ordinal: ordinal}
}

// InInsertion reports whether the tag marks a base absent from the reference.
func (t Tag) InInsertion() bool {
	return t.Ordinal > 0
}

// Map is the coordinate map of a single transcript. Intervals are ordered by
// Start and tile [0, Length) exactly.
type Map struct {
	Intervals []Interval
	Length    int
	Strand    Strand
}

// Build walks ops from the 5' end of the transcript and emits one interval per
// aligned run and one per inserted base. Reverse-strand transcripts consume
// ops from the end of the CIGAR, since local coordinate 0 then sits at the high
// end of the reference span.
func Build(ops []cigar.Op, refStart int64, strand Strand) (*Map, error) {
	if strand != Forward && strand != Reverse {
		return nil, fmt.Errorf("%w: strand %d", ErrInvariantViolation, strand)
	}
	sign := int64(strand)

	m := &Map{Strand: strand}
	acc := refStart
	cursor := 0
	for i := range ops {
		op := ops[i]
		if strand == Reverse {
			op = ops[len(ops)-1-i]
		}

		switch op.Kind() {
		case cigar.KindMatch:
			m.Intervals = append(m.Intervals, Interval{Start: cursor, End: cursor + op.Len, Tag: Aligned(acc)})
			cursor += op.Len
		case cigar.KindGap:
			acc += sign * int64(op.Len)
		case cigar.KindInsertion:
			for ord := 1; ord <= op.Len; ord++ {
				acc -= sign
				m.Intervals = append(m.Intervals, Interval{Start: cursor, End: cursor + 1, Tag: WithinInsertion(acc, ord)})
				cursor++
			}
		default:
			return nil, fmt.Errorf("%w: operation %s reached map builder", ErrInvariantViolation, op)
		}
	}
	m.Length = cursor

	if err := m.CheckCoverage(); err != nil {
		return nil, err
	}
	return m, nil
}

// End returns the largest valid local coordinate, -1 for an empty map.
func (m *Map) End() int {
	return m.Length - 1
}

// CheckCoverage verifies that the intervals partition [0, Length) with no gap or overlap.
func (m *Map) CheckCoverage() error {
	next := 0
	for _, iv := range m.Intervals {
		if iv.Start != next {
			return fmt.Errorf("%w: interval %s starts at %d, expected %d", ErrInvariantViolation, iv, iv.Start, next)
		}
		if iv.End <= iv.Start {
			return fmt.Errorf("%w: empty interval %s", ErrInvariantViolation, iv)
		}
		next = iv.End
	}
	if next != m.Length {
		return fmt.Errorf("%w: intervals end at %d, map length is %d", ErrInvariantViolation, next, m.Length)
	}
	return nil
}
