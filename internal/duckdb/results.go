package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-txmap/internal/coordmap"
	"github.com/inodb/vibe-txmap/internal/transcript"
)

// Run identifies one translate invocation recorded in the store.
type Run struct {
	ID          string
	StartedAt   time.Time
	Transcripts FileFingerprint
	Queries     FileFingerprint
}

// StoredResult is a translation result together with the run that produced it.
type StoredResult struct {
	RunID string
	transcript.Result
}

// StartRun records a new run for the given input files.
func (s *Store) StartRun(transcriptsPath, queriesPath string) (Run, error) {
	tf, err := StatFile(transcriptsPath)
	if err != nil {
		return Run{}, fmt.Errorf("stat transcripts: %w", err)
	}
	qf, err := StatFile(queriesPath)
	if err != nil {
		return Run{}, fmt.Errorf("stat queries: %w", err)
	}

	run := Run{
		ID:          uuid.New().String(),
		StartedAt:   time.Now().UTC(),
		Transcripts: tf,
		Queries:     qf,
	}
	_, err = s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt,
		tf.Path, tf.Size, tf.ModTime,
		qf.Path, qf.Size, qf.ModTime)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, started_at,
		transcripts_path, transcripts_size, transcripts_mtime,
		queries_path, queries_size, queries_mtime
		FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt,
			&r.Transcripts.Path, &r.Transcripts.Size, &r.Transcripts.ModTime,
			&r.Queries.Path, &r.Queries.Size, &r.Queries.ModTime); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// WriteResults batch-inserts results for a run using the Appender API.
// firstSeq numbers the rows so they can be read back in input order.
func (s *Store) WriteResults(runID string, firstSeq int64, results []transcript.Result) error {
	if len(results) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "translation_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range results {
		if err := appender.AppendRow(
			runID, firstSeq+int64(i), r.Name, int64(r.InputPos), r.Chrom,
			r.RefPos.Coord, int64(r.RefPos.Ordinal), r.Strand.String(),
		); err != nil {
			return fmt.Errorf("append translation result: %w", err)
		}
	}

	return appender.Flush()
}

// ClearResults removes all stored runs and results.
func (s *Store) ClearResults() error {
	if _, err := s.db.Exec("DELETE FROM translation_results"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM runs")
	return err
}

// LookupTranscript returns every stored result for the named transcript,
// grouped by run in start order and then by input order.
func (s *Store) LookupTranscript(name string) ([]StoredResult, error) {
	rows, err := s.db.Query(`SELECT
		t.run_id, t.name, t.input_pos, t.chrom, t.ref_coord, t.ordinal, t.direction
		FROM translation_results t JOIN runs r ON t.run_id = r.run_id
		WHERE t.name=?
		ORDER BY r.started_at, t.seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		var (
			sr                StoredResult
			inputPos, ordinal int64
			direction         string
		)
		if err := rows.Scan(&sr.RunID, &sr.Name, &inputPos, &sr.Chrom,
			&sr.RefPos.Coord, &ordinal, &direction); err != nil {
			return nil, fmt.Errorf("scan translation result: %w", err)
		}
		strand, err := coordmap.ParseStrand(direction)
		if err != nil {
			return nil, fmt.Errorf("stored result for %s: %w", name, err)
		}
		sr.InputPos = int(inputPos)
		sr.RefPos.Ordinal = int(ordinal)
		sr.Strand = strand
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation results: %w", err)
	}
	return results, nil
}

// DefaultBatchSize is the number of rows a ResultWriter buffers before appending.
const DefaultBatchSize = 10000

// ResultWriter buffers results of one run and appends them in batches.
type ResultWriter struct {
	store     *Store
	runID     string
	batchSize int
	seq       int64
	buf       []transcript.Result
}

// NewResultWriter creates a writer appending to run.
func (s *Store) NewResultWriter(runID string) *ResultWriter {
	return &ResultWriter{store: s, runID: runID, batchSize: DefaultBatchSize}
}

// SetBatchSize sets the number of buffered rows that triggers an append.
func (w *ResultWriter) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	w.batchSize = n
}

// Write buffers a result, appending the batch when it is full.
func (w *ResultWriter) Write(r transcript.Result) error {
	w.buf = append(w.buf, r)
	if len(w.buf) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush appends all buffered results.
func (w *ResultWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.store.WriteResults(w.runID, w.seq, w.buf); err != nil {
		return err
	}
	w.seq += int64(len(w.buf))
	w.buf = w.buf[:0]
	return nil
}
