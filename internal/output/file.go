package output

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
)

// Compression names accepted by Open.
const (
	CompressionNone  = "none"
	CompressionLZ4   = "lz4"
	CompressionLZ4HC = "lz4hc"
)

// GenericWriter is a writer whose Close must be called to finish the output.
type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

type lz4File struct {
	*lz4.Writer
	f *os.File
}

func (l *lz4File) Close() error {
	if err := l.Writer.Close(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

type stdout struct{ io.Writer }

func (stdout) Close() error { return nil }

// Open creates path (stdout for "" or "-") and wraps it in an lz4 frame
// writer when compression asks for it.
func Open(path, compression string) (GenericWriter, error) {
	if path == "" || path == "-" {
		if compression != "" && compression != CompressionNone {
			return nil, fmt.Errorf("compression %q needs an output file", compression)
		}
		return stdout{os.Stdout}, nil
	}

	switch compression {
	case "", CompressionNone, CompressionLZ4, CompressionLZ4HC:
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	switch compression {
	case CompressionLZ4:
		return &lz4File{Writer: lz4.NewWriter(f), f: f}, nil
	case CompressionLZ4HC:
		zw := lz4.NewWriter(f)
		zw.Header = lz4.Header{CompressionLevel: 9}
		return &lz4File{Writer: zw, f: f}, nil
	}
	return f, nil
}
