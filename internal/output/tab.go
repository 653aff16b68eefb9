// Package output provides translation result writers.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

// TabWriter writes results in tab-delimited format:
// name, input position, chromosome, reference position, direction.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#name",
			"inputPos",
			"chrom",
			"refPos",
			"direction",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single result.
func (tw *TabWriter) Write(r transcript.Result) error {
	values := []string{
		r.Name,
		strconv.Itoa(r.InputPos),
		r.Chrom,
		r.RefPos.String(),
		r.Strand.String(),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
