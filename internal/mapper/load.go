package mapper

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-txmap/internal/cache"
	"github.com/inodb/vibe-txmap/internal/transcript"
	"github.com/inodb/vibe-txmap/internal/tsv"
)

// LoadFailure records a transcript that could not be constructed.
type LoadFailure struct {
	Name string
	Line int
	Err  error
}

// LoadReport summarizes a catalog build.
type LoadReport struct {
	Records  int
	Loaded   int
	Failures []LoadFailure
}

// Loader builds a transcript cache from a record source.
type Loader struct {
	workers int
	strict  bool
	logger  *zap.Logger
}

// NewLoader creates a loader that skips bad transcripts and uses all CPUs.
func NewLoader() *Loader {
	return &Loader{logger: zap.NewNop()}
}

// SetWorkers bounds the number of transcripts constructed concurrently; 0 means runtime.NumCPU().
func (l *Loader) SetWorkers(n int) {
	l.workers = n
}

// SetStrict makes Load fail on the first transcript that cannot be built.
func (l *Loader) SetStrict(strict bool) {
	l.strict = strict
}

// SetLogger sets the logger for load diagnostics. It is also handed to every transcript.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

type pendingRecord struct {
	rec  tsv.TranscriptRecord
	line int
}

// Load reads every record from src, constructs the transcripts in parallel
// and returns them in a frozen cache. A failing transcript never affects the
// others; unless strict is set it is logged, reported and skipped. In strict
// mode the error names the first failing record in input order.
func (l *Loader) Load(ctx context.Context, src tsv.TranscriptSource) (*cache.Cache, LoadReport, error) {
	var report LoadReport

	var records []pendingRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		rec, err := src.Next()
		if err != nil {
			return nil, report, fmt.Errorf("read transcript: %w", err)
		}
		if rec == nil {
			break
		}
		records = append(records, pendingRecord{rec: *rec, line: src.LineNumber()})
	}
	report.Records = len(records)

	workers := l.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	built := make([]*transcript.Transcript, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := records[i].rec
			t, err := transcript.New(r.Name, r.Chrom, r.StartPos, r.Cigar, r.Direction,
				transcript.WithLogger(l.logger))
			if err != nil {
				errs[i] = err
				return nil
			}
			built[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	c := cache.New()
	for i, t := range built {
		err := errs[i]
		if err == nil {
			err = c.Add(t)
		}
		if err != nil {
			if l.strict {
				return nil, report, fmt.Errorf("line %d: %w", records[i].line, err)
			}
			l.logger.Warn("skipping transcript",
				zap.String("transcript", records[i].rec.Name),
				zap.Int("line", records[i].line),
				zap.Error(err))
			report.Failures = append(report.Failures, LoadFailure{
				Name: records[i].rec.Name,
				Line: records[i].line,
				Err:  err,
			})
			continue
		}
		report.Loaded++
	}
	c.Freeze()

	l.logger.Info("loaded transcripts",
		zap.Int("records", report.Records),
		zap.Int("loaded", report.Loaded),
		zap.Int("failed", len(report.Failures)))

	return c, report, nil
}
