// Package transcript lifts positions in a transcript's local coordinate frame
// onto the reference it is aligned to.
package transcript

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-txmap/internal/cigar"
	"github.com/inodb/vibe-txmap/internal/coordmap"
)

// ErrOutOfRange is returned for local positions outside [0, End()].
var ErrOutOfRange = errors.New("position out of range")

// Info describes how a transcript was constructed.
type Info struct {
	Name     string
	Chrom    string
	StartPos int64
	Cigar    string
	Strand   coordmap.Strand
}

// Transcript is an aligned sequence with a prebuilt coordinate map.
// It is immutable after New and safe for concurrent Translate calls.
type Transcript struct {
	info   Info
	cmap   *coordmap.Map
	index  *coordmap.Index
	refLen int
	logger *zap.Logger
}

// Option configures New.
type Option func(*Transcript)

// WithLogger sets the logger used for construction diagnostics and
// invariant failures. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transcript) {
		if l != nil {
			t.logger = l
		}
	}
}

// New validates cigarStr, builds the coordinate map and indexes it.
// direction is "+" or "-" (see coordmap.ParseStrand for accepted spellings).
func New(name, chrom string, startPos int64, cigarStr, direction string, opts ...Option) (*Transcript, error) {
	t := &Transcript{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}

	if startPos < 0 {
		return nil, fmt.Errorf("transcript %s: negative start position %d", name, startPos)
	}
	strand, err := coordmap.ParseStrand(direction)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", name, err)
	}
	ops, err := cigar.Parse(cigarStr)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", name, err)
	}
	cmap, err := coordmap.Build(ops, startPos, strand)
	if err != nil {
		t.logger.Error("coordinate map construction failed",
			zap.String("transcript", name),
			zap.String("cigar", cigarStr),
			zap.Error(err))
		return nil, fmt.Errorf("transcript %s: %w", name, err)
	}
	index, err := coordmap.NewIndex(cmap)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", name, err)
	}

	t.info = Info{Name: name, Chrom: chrom, StartPos: startPos, Cigar: cigarStr, Strand: strand}
	t.cmap = cmap
	t.index = index
	t.refLen, _ = cigar.Lengths(ops)

	t.logger.Debug("built coordinate map",
		zap.String("transcript", name),
		zap.String("cigar", cigarStr),
		zap.Stringer("strand", strand),
		zap.Int("intervals", len(cmap.Intervals)),
		zap.Int("length", cmap.Length))
	return t, nil
}

// Info returns the construction parameters.
func (t *Transcript) Info() Info { return t.info }

// Name returns the transcript identifier.
func (t *Transcript) Name() string { return t.info.Name }

// Chrom returns the reference sequence name.
func (t *Transcript) Chrom() string { return t.info.Chrom }

// Strand returns the transcript orientation.
func (t *Transcript) Strand() coordmap.Strand { return t.info.Strand }

// End returns the largest valid local position.
func (t *Transcript) End() int { return t.cmap.End() }

// Intervals returns a copy of the coordinate map intervals in local order.
func (t *Transcript) Intervals() []coordmap.Interval {
	out := make([]coordmap.Interval, len(t.cmap.Intervals))
	copy(out, t.cmap.Intervals)
	return out
}

// Span returns the inclusive reference range covered by the alignment.
// For reverse-strand transcripts StartPos is the high end of the range.
// An alignment with no reference-consuming operation has hi < lo.
func (t *Transcript) Span() (lo, hi int64) {
	n := int64(t.refLen)
	if t.info.Strand == coordmap.Reverse {
		return t.info.StartPos - n + 1, t.info.StartPos
	}
	return t.info.StartPos, t.info.StartPos + n - 1
}

// Translate maps a local position to the reference.
func (t *Transcript) Translate(pos int) (Result, error) {
	if pos < 0 {
		return Result{}, fmt.Errorf("%w: negative position %d", ErrOutOfRange, pos)
	}
	if end := t.End(); pos > end {
		return Result{}, fmt.Errorf("%w: position %d exceeds transcript %s end %d", ErrOutOfRange, pos, t.info.Name, end)
	}

	tag, err := t.index.Stab(pos)
	if err != nil {
		t.logger.Error("coordinate index lookup failed",
			zap.String("transcript", t.info.Name),
			zap.Int("pos", pos),
			zap.Error(err))
		return Result{}, fmt.Errorf("transcript %s: %w", t.info.Name, err)
	}

	coord := tag.Offset + int64(pos)
	if t.info.Strand == coordmap.Reverse {
		coord = tag.Offset - int64(pos)
	}

	return Result{
		Name:     t.info.Name,
		InputPos: pos,
		Chrom:    t.info.Chrom,
		RefPos:   RefPos{Coord: coord, Ordinal: tag.Ordinal},
		Strand:   t.info.Strand,
	}, nil
}
