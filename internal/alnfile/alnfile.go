// Package alnfile reads transcript alignments from SAM and BAM files.
package alnfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/inodb/vibe-txmap/internal/tsv"
)

// Reader yields one transcript record per mapped alignment.
// It implements tsv.TranscriptSource.
type Reader struct {
	rr      sam.RecordReader
	closers []io.Closer
	n       int
}

// NewReader opens a SAM file, or a BAM file when path ends in ".bam".
// workers sets the BAM decompression concurrency.
func NewReader(path string, workers int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment file: %w", err)
	}
	binary := strings.EqualFold(filepath.Ext(path), ".bam")
	r, err := NewReaderFromReader(f, binary, workers)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append([]io.Closer{f}, r.closers...)
	return r, nil
}

// NewReaderFromReader reads SAM text, or BAM when binary is set.
func NewReaderFromReader(r io.Reader, binary bool, workers int) (*Reader, error) {
	if binary {
		br, err := bam.NewReader(r, workers)
		if err != nil {
			return nil, fmt.Errorf("create bam reader: %w", err)
		}
		return &Reader{rr: br, closers: []io.Closer{br}}, nil
	}
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create sam reader: %w", err)
	}
	return &Reader{rr: sr}, nil
}

// Next returns the next mapped alignment as a transcript record, or nil, nil
// at the end of the file. For reverse-strand alignments the start position is
// the last reference base covered, so local position 0 is the transcript 5' end.
func (r *Reader) Next() (*tsv.TranscriptRecord, error) {
	for {
		rec, err := r.rr.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read alignment %d: %w", r.n+1, err)
		}
		r.n++

		if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil || len(rec.Cigar) == 0 {
			continue
		}

		start := int64(rec.Pos)
		direction := "+"
		if rec.Flags&sam.Reverse != 0 {
			direction = "-"
			ref, _ := rec.Cigar.Lengths()
			start += int64(ref) - 1
		}

		return &tsv.TranscriptRecord{
			Name:      rec.Name,
			Chrom:     rec.Ref.Name(),
			StartPos:  start,
			Cigar:     rec.Cigar.String(),
			Direction: direction,
		}, nil
	}
}

// LineNumber returns the number of alignment records read so far.
func (r *Reader) LineNumber() int { return r.n }

// Close releases the underlying file and decompressor.
func (r *Reader) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
