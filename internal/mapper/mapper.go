// Package mapper runs batches of coordinate queries against loaded transcripts.
package mapper

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/fatih/set.v0"

	"github.com/inodb/vibe-txmap/internal/transcript"
	"github.com/inodb/vibe-txmap/internal/tsv"
)

// ErrUnknownTranscript is returned for queries naming a transcript that was not loaded.
var ErrUnknownTranscript = errors.New("transcript not loaded")

// TranscriptLookup finds a loaded transcript by name.
type TranscriptLookup interface {
	Get(name string) (*transcript.Transcript, bool)
}

// ResultWriter receives translation results in query order.
type ResultWriter interface {
	Write(r transcript.Result) error
	Flush() error
}

// RunReport summarizes a batch of queries.
type RunReport struct {
	Queries    int
	Translated int
	Failed     int
	// Missing lists the unknown transcript names that were queried, sorted.
	Missing []string
}

// Mapper translates queries against a transcript lookup.
type Mapper struct {
	cache   TranscriptLookup
	workers int
	strict  bool
	logger  *zap.Logger
}

// NewMapper creates a new mapper over the given transcripts.
func NewMapper(c TranscriptLookup) *Mapper {
	return &Mapper{
		cache:  c,
		logger: zap.NewNop(),
	}
}

// SetWorkers sets the size of the translation worker pool; 0 means runtime.NumCPU().
func (m *Mapper) SetWorkers(n int) {
	m.workers = n
}

// SetStrict makes TranslateAll stop at the first failing query instead of skipping it.
func (m *Mapper) SetStrict(strict bool) {
	m.strict = strict
}

// SetLogger sets the logger for warning and info messages.
func (m *Mapper) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Translate runs a single query.
func (m *Mapper) Translate(q tsv.Query) (transcript.Result, error) {
	t, ok := m.cache.Get(q.Name)
	if !ok {
		return transcript.Result{}, fmt.Errorf("%w: %s", ErrUnknownTranscript, q.Name)
	}
	return t.Translate(q.Pos)
}

// TranslateAll translates every query from src and writes the results in input order.
func (m *Mapper) TranslateAll(src tsv.QuerySource, w ResultWriter) (RunReport, error) {
	var report RunReport
	workers := m.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make(chan WorkItem, 2*workers)
	var parseErr error

	go func() {
		defer close(items)
		seq := 0
		for {
			q, err := src.Next()
			if err != nil {
				parseErr = fmt.Errorf("read query: %w", err)
				return
			}
			if q == nil {
				return
			}
			items <- WorkItem{Seq: seq, Query: *q, Line: src.LineNumber()}
			seq++
		}
	}()

	results := m.ParallelTranslate(items, workers)

	missing := set.New(set.NonThreadSafe)
	err := OrderedCollect(results, func(r WorkResult) error {
		report.Queries++
		if r.Err != nil {
			report.Failed++
			if errors.Is(r.Err, ErrUnknownTranscript) {
				if missing.Has(r.Query.Name) {
					return m.strictErr(r)
				}
				missing.Add(r.Query.Name)
			}
			m.logger.Warn("failed to translate query",
				zap.String("transcript", r.Query.Name),
				zap.Int("pos", r.Query.Pos),
				zap.Int("line", r.Line),
				zap.Error(r.Err))
			return m.strictErr(r)
		}
		report.Translated++
		if err := w.Write(r.Result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	})
	// OrderedCollect drains results before returning, so the reader goroutine is done.
	if err == nil {
		err = parseErr
	}

	for _, name := range missing.List() {
		report.Missing = append(report.Missing, name.(string))
	}
	sort.Strings(report.Missing)

	if report.Queries == 0 && err == nil {
		m.logger.Info("0 queries processed")
	}

	// Rows written before a failure are kept whole.
	return report, multierr.Append(err, w.Flush())
}

func (m *Mapper) strictErr(r WorkResult) error {
	if !m.strict {
		return nil
	}
	return fmt.Errorf("query at line %d: %w", r.Line, r.Err)
}
