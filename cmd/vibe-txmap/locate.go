package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

func newLocateCmd() *cobra.Command {
	var in transcriptInput

	cmd := &cobra.Command{
		Use:   "locate <chrom:pos>",
		Short: "List transcripts whose reference span covers a position",
		Example: `  vibe-txmap locate --transcripts transcripts.tsv CHR1:10
  vibe-txmap locate --sam aligned.bam chr12:25245350`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			chrom, pos, err := parseLocus(args[0])
			if err != nil {
				return usageError{err}
			}
			return runLocate(cmd, &in, chrom, pos)
		},
	}
	in.addFlags(cmd)

	return cmd
}

// parseLocus parses "chrom:pos" with a 0-based, non-negative position.
func parseLocus(s string) (string, int64, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return "", 0, fmt.Errorf("invalid locus %q, expected chrom:pos", s)
	}
	pos, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil || pos < 0 {
		return "", 0, fmt.Errorf("invalid position in locus %q", s)
	}
	return s[:i], pos, nil
}

func runLocate(cmd *cobra.Command, in *transcriptInput, chrom string, pos int64) error {
	c, err := in.load(cmd.Context(), viper.GetInt("workers"), viper.GetBool("strict"))
	if err != nil {
		return err
	}

	hits := c.FindTranscripts(chrom, pos)
	if len(hits) == 0 {
		return fmt.Errorf("no transcript covers %s:%d", chrom, pos)
	}
	return writeHits(cmd.OutOrStdout(), hits)
}

func writeHits(w io.Writer, hits []*transcript.Transcript) error {
	for _, t := range hits {
		lo, hi := t.Span()
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", t.Name(), t.Chrom(), lo, hi, t.Strand()); err != nil {
			return err
		}
	}
	return nil
}
