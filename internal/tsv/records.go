package tsv

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TranscriptRecord holds the construction parameters of one transcript.
type TranscriptRecord struct {
	Name      string
	Chrom     string
	StartPos  int64
	Cigar     string
	Direction string
}

// Query asks for the reference position of one local position.
type Query struct {
	Name string
	Pos  int
}

// TranscriptSource is implemented by readers that yield transcript records.
type TranscriptSource interface {
	// Next returns nil, nil when there are no more records.
	Next() (*TranscriptRecord, error)
	Close() error
	LineNumber() int
}

// QuerySource is implemented by readers that yield queries.
type QuerySource interface {
	// Next returns nil, nil when there are no more queries.
	Next() (*Query, error)
	Close() error
	LineNumber() int
}

// TranscriptReader reads "name chrom startPos cigar [direction]" lines.
// A missing direction column means the forward strand.
type TranscriptReader struct {
	lineReader
}

// NewTranscriptReader opens a plain, gzip or zstd transcript file; "-" reads stdin.
func NewTranscriptReader(path string) (*TranscriptReader, error) {
	in, err := openPath(path)
	if err != nil {
		return nil, err
	}
	return &TranscriptReader{lineReader{in: in}}, nil
}

// NewTranscriptReaderFromReader reads transcript records from r.
func NewTranscriptReaderFromReader(r io.Reader) (*TranscriptReader, error) {
	in, err := newInput(r, nil)
	if err != nil {
		return nil, err
	}
	return &TranscriptReader{lineReader{in: in}}, nil
}

// Next reads the next transcript record.
func (r *TranscriptReader) Next() (*TranscriptRecord, error) {
	fields, err := r.next()
	if err != nil || fields == nil {
		return nil, err
	}
	if len(fields) != 4 && len(fields) != 5 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected 4 or 5 tab-separated columns, got %d", len(fields)),
		}
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil || start < 0 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("start position %q is not a non-negative integer", fields[2]),
		}
	}

	direction := "+"
	if len(fields) == 5 {
		direction = fields[4]
		if direction != "+" && direction != "-" {
			return nil, &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("direction %q must be + or -", direction),
			}
		}
	}

	return &TranscriptRecord{
		Name:      fields[0],
		Chrom:     fields[1],
		StartPos:  start,
		Cigar:     fields[3],
		Direction: direction,
	}, nil
}

// LineNumber returns the number of the last line read.
func (r *TranscriptReader) LineNumber() int { return r.lineNumber }

// Close closes the reader and releases resources.
func (r *TranscriptReader) Close() error { return r.in.Close() }

// QueryReader reads "name localPosition" lines.
type QueryReader struct {
	lineReader
}

// NewQueryReader opens a plain, gzip or zstd query file; "-" reads stdin.
func NewQueryReader(path string) (*QueryReader, error) {
	in, err := openPath(path)
	if err != nil {
		return nil, err
	}
	return &QueryReader{lineReader{in: in}}, nil
}

// NewQueryReaderFromReader reads queries from r.
func NewQueryReaderFromReader(r io.Reader) (*QueryReader, error) {
	in, err := newInput(r, nil)
	if err != nil {
		return nil, err
	}
	return &QueryReader{lineReader{in: in}}, nil
}

// Next reads the next query. Negative positions are passed through; range
// checks belong to the transcript.
func (r *QueryReader) Next() (*Query, error) {
	fields, err := r.next()
	if err != nil || fields == nil {
		return nil, err
	}
	if len(fields) != 2 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected 2 tab-separated columns, got %d", len(fields)),
		}
	}
	pos, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("position %q is not an integer", fields[1]),
		}
	}
	return &Query{Name: fields[0], Pos: pos}, nil
}

// LineNumber returns the number of the last line read.
func (r *QueryReader) LineNumber() int { return r.lineNumber }

// Close closes the reader and releases resources.
func (r *QueryReader) Close() error { return r.in.Close() }
