// Package tsv reads tab-delimited transcript and query records.
package tsv

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseError reports a record that does not have the expected shape.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tsv parse error at line %d: %s", e.Line, e.Message)
}

// input is a decompressed line source and everything that must be closed with it.
type input struct {
	reader  *bufio.Reader
	closers []io.Closer
}

func (in *input) Close() error {
	var firstErr error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	in.closers = nil
	return firstErr
}

// openPath opens a plain, gzip or zstd file. "-" reads stdin.
func openPath(path string) (*input, error) {
	if path == "-" {
		return newInput(os.Stdin, nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	in, err := newInput(file, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return in, nil
}

// newInput sniffs the compression magic bytes of r.
func newInput(r io.Reader, c io.Closer) (*input, error) {
	in := &input{}
	if c != nil {
		in.closers = append(in.closers, c)
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		in.closers = append(in.closers, gz)
		in.reader = bufio.NewReader(gz)
	case bytes.HasPrefix(magic, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		rc := dec.IOReadCloser()
		in.closers = append(in.closers, rc)
		in.reader = bufio.NewReader(rc)
	default:
		in.reader = br
	}
	return in, nil
}

// lineReader yields the tab-separated fields of non-blank, non-comment lines.
// Surrounding whitespace of a line is ignored.
type lineReader struct {
	in         *input
	lineNumber int
}

func (lr *lineReader) next() ([]string, error) {
	for {
		line, err := lr.in.reader.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil, nil
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read line %d: %w", lr.lineNumber+1, err)
		}
		lr.lineNumber++

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Split(line, "\t"), nil
	}
}
