package coordmap

import (
	"fmt"

	"github.com/biogo/store/interval"
)

// Interval is a half-open range [Start, End) of local coordinates.
type Interval struct {
	Start, End int
	Tag        Tag
	uid        uintptr
}

// Overlap uses half-open interval semantics.
func (i Interval) Overlap(b interval.IntRange) bool {
	return i.End > b.Start && i.Start < b.End
}

func (i Interval) ID() uintptr {
	return i.uid
}

func (i Interval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

func (i Interval) String() string {
	if i.Tag.InInsertion() {
		return fmt.Sprintf("[%d,%d)->%d#%d", i.Start, i.End, i.Tag.Offset, i.Tag.Ordinal)
	}
	return fmt.Sprintf("[%d,%d)->%d", i.Start, i.End, i.Tag.Offset)
}

// Index answers point queries over the intervals of a Map.
// It is read-only once built.
type Index struct {
	tree interval.IntTree
}

// NewIndex inserts every interval of m into a balanced interval tree.
func NewIndex(m *Map) (*Index, error) {
	idx := &Index{}
	for i, iv := range m.Intervals {
		iv.uid = uintptr(i)
		if err := idx.tree.Insert(iv, true); err != nil {
			return nil, fmt.Errorf("%w: insert %s: %v", ErrInvariantViolation, iv, err)
		}
	}
	idx.tree.AdjustRanges()
	return idx, nil
}

// Len returns the number of indexed intervals.
func (idx *Index) Len() int {
	return idx.tree.Len()
}

// Stab returns the tag of the single interval containing pos.
// Zero or several hits mean the map does not tile its space.
func (idx *Index) Stab(pos int) (Tag, error) {
	hits := idx.tree.Get(Interval{Start: pos, End: pos + 1})
	switch len(hits) {
	case 1:
		return hits[0].(Interval).Tag, nil
	case 0:
		return Tag{}, fmt.Errorf("%w: no interval contains %d", ErrInvariantViolation, pos)
	default:
		return Tag{}, fmt.Errorf("%w: %d intervals contain %d", ErrInvariantViolation, len(hits), pos)
	}
}
