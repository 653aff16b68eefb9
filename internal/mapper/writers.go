package mapper

import (
	"go.uber.org/multierr"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

type multiWriter []ResultWriter

// MultiWriter duplicates every result to all writers.
func MultiWriter(writers ...ResultWriter) ResultWriter {
	return multiWriter(writers)
}

func (mw multiWriter) Write(r transcript.Result) error {
	for _, w := range mw {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer, even after one fails.
func (mw multiWriter) Flush() error {
	var err error
	for _, w := range mw {
		err = multierr.Append(err, w.Flush())
	}
	return err
}
