package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inodb/vibe-txmap/internal/alnfile"
	"github.com/inodb/vibe-txmap/internal/cache"
	"github.com/inodb/vibe-txmap/internal/duckdb"
	"github.com/inodb/vibe-txmap/internal/mapper"
	"github.com/inodb/vibe-txmap/internal/output"
	"github.com/inodb/vibe-txmap/internal/tsv"
)

type transcriptInput struct {
	transcripts string
	sam         string
}

func (in *transcriptInput) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.transcripts, "transcripts", "t", "", "Transcript file: name, chrom, start, cigar[, direction] ('-' for stdin)")
	cmd.Flags().StringVar(&in.sam, "sam", "", "Read transcripts from a SAM or BAM alignment file instead")
}

func (in *transcriptInput) path() string {
	if in.sam != "" {
		return in.sam
	}
	return in.transcripts
}

func (in *transcriptInput) validate() error {
	if (in.transcripts == "") == (in.sam == "") {
		return usageError{errors.New("exactly one of --transcripts or --sam is required")}
	}
	return nil
}

// load builds the transcript cache, reporting skipped transcripts on stderr.
func (in *transcriptInput) load(ctx context.Context, workers int, strict bool) (*cache.Cache, error) {
	var (
		src tsv.TranscriptSource
		err error
	)
	if in.sam != "" {
		src, err = alnfile.NewReader(in.sam, workers)
	} else {
		src, err = tsv.NewTranscriptReader(in.transcripts)
	}
	if err != nil {
		return nil, fmt.Errorf("open transcripts: %w", err)
	}
	defer src.Close()

	loader := mapper.NewLoader()
	loader.SetWorkers(workers)
	loader.SetStrict(strict)
	loader.SetLogger(logger)

	c, report, err := loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load transcripts: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Loaded %d transcripts\n", report.Loaded)
	if n := len(report.Failures); n > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d of %d transcripts\n", n, report.Records)
	}
	return c, nil
}

func newTranslateCmd() *cobra.Command {
	var (
		in         transcriptInput
		queries    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate transcript positions to reference positions",
		Long: `Translate every query (transcript name, transcript position) into the
reference position it aligns to. Positions inside an insertion are written as
<coord>.<ordinal>, e.g. 23.1 for the first inserted base after reference 23.`,
		Example: `  vibe-txmap translate --transcripts transcripts.tsv --queries queries.tsv
  vibe-txmap translate --sam aligned.bam --queries queries.tsv.gz -o out.tsv
  vibe-txmap translate -t transcripts.tsv -q - --db results.duckdb < queries.tsv`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			if queries == "" {
				return usageError{errors.New("--queries is required")}
			}
			return runTranslate(cmd.Context(), &in, queries, outputFile)
		},
	}

	in.addFlags(cmd)
	cmd.Flags().StringVarP(&queries, "queries", "q", "", "Query file: name, position ('-' for stdin)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Int("workers", 0, "Worker goroutines (0 = number of CPUs)")
	cmd.Flags().Bool("strict", false, "Abort on the first bad transcript or query instead of skipping it")
	cmd.Flags().Bool("header", false, "Write a header line")
	cmd.Flags().String("compression", output.CompressionNone, "Output compression: none, lz4, lz4hc")
	cmd.Flags().String("db", "", "Also record results in this DuckDB database")

	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("strict", cmd.Flags().Lookup("strict"))
	viper.BindPFlag("output.header", cmd.Flags().Lookup("header"))
	viper.BindPFlag("output.compression", cmd.Flags().Lookup("compression"))
	viper.BindPFlag("db.path", cmd.Flags().Lookup("db"))

	return cmd
}

func runTranslate(ctx context.Context, in *transcriptInput, queriesPath, outputFile string) (err error) {
	workers := viper.GetInt("workers")
	strict := viper.GetBool("strict")

	c, err := in.load(ctx, workers, strict)
	if err != nil {
		return err
	}

	queries, err := tsv.NewQueryReader(queriesPath)
	if err != nil {
		return fmt.Errorf("open queries: %w", err)
	}
	defer queries.Close()

	out, err := output.Open(outputFile, viper.GetString("output.compression"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	tab := output.NewTabWriter(out)
	if viper.GetBool("output.header") {
		if err := tab.WriteHeader(); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	var w mapper.ResultWriter = tab
	if dbPath := viper.GetString("db.path"); dbPath != "" {
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.StartRun(in.path(), queriesPath)
		if err != nil {
			return err
		}
		logger.Info("recording results", zap.String("db", dbPath), zap.String("run", run.ID))
		w = mapper.MultiWriter(tab, store.NewResultWriter(run.ID))
	}

	m := mapper.NewMapper(c)
	m.SetWorkers(workers)
	m.SetStrict(strict)
	m.SetLogger(logger)

	report, err := m.TranslateAll(queries, w)
	if err != nil {
		return err
	}

	writeReport(os.Stderr, report)
	return nil
}

func writeReport(w io.Writer, r mapper.RunReport) {
	fmt.Fprintf(w, "Translated %d of %d queries\n", r.Translated, r.Queries)
	if r.Failed > 0 {
		fmt.Fprintf(w, "Warning: %d queries failed\n", r.Failed)
	}
	for _, name := range r.Missing {
		fmt.Fprintf(w, "  unknown transcript: %s\n", name)
	}
}
