package transcript

import (
	"strconv"

	"github.com/inodb/vibe-txmap/internal/coordmap"
)

// RefPos is a reference coordinate. A base inside an insertion has no
// reference base of its own; it carries the reference coordinate it sits next
// to and its 1-based ordinal within the inserted run.
type RefPos struct {
	Coord   int64
	Ordinal int
}

// InInsertion reports whether the position lies inside an insertion.
func (r RefPos) InInsertion() bool {
	return r.Ordinal > 0
}

// String renders aligned positions as an integer and inserted bases as
// "<coord>.<ordinal>", e.g. "23" and "23.2".
func (r RefPos) String() string {
	s := strconv.FormatInt(r.Coord, 10)
	if r.Ordinal > 0 {
		s += "." + strconv.Itoa(r.Ordinal)
	}
	return s
}

// Result is the outcome of translating one local position.
type Result struct {
	Name     string
	InputPos int
	Chrom    string
	RefPos   RefPos
	Strand   coordmap.Strand
}
