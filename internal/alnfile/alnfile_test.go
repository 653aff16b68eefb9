package alnfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-txmap/internal/tsv"
)

// 25 query bases for 8M7D6M2I2M11D7M
const seq25 = "GTCATGTACTAGCCGGTAAGATAAT"

const exampleSAM = "@HD\tVN:1.6\n" +
	"@SQ\tSN:CHR1\tLN:100\n" +
	"TR1\t0\tCHR1\t4\t60\t8M7D6M2I2M11D7M\t*\t0\t0\t" + seq25 + "\t*\n" +
	"UN1\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t*\n" +
	"TR3\t16\tCHR1\t4\t60\t8M7D6M2I2M11D7M\t*\t0\t0\t" + seq25 + "\t*\n"

func readAll(t *testing.T, src tsv.TranscriptSource) []tsv.TranscriptRecord {
	t.Helper()
	var out []tsv.TranscriptRecord
	for {
		rec, err := src.Next()
		require.NoError(t, err)
		if rec == nil {
			return out
		}
		out = append(out, *rec)
	}
}

func TestReader_SAM(t *testing.T) {
	r, err := NewReaderFromReader(strings.NewReader(exampleSAM), false, 1)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []tsv.TranscriptRecord{
		{Name: "TR1", Chrom: "CHR1", StartPos: 3, Cigar: "8M7D6M2I2M11D7M", Direction: "+"},
		{Name: "TR3", Chrom: "CHR1", StartPos: 43, Cigar: "8M7D6M2I2M11D7M", Direction: "-"},
	}, readAll(t, r))
	assert.Equal(t, 3, r.LineNumber())
}

func TestReader_BAMFile(t *testing.T) {
	sr, err := sam.NewReader(strings.NewReader(exampleSAM))
	require.NoError(t, err)

	var buf bytes.Buffer
	bw, err := bam.NewWriter(&buf, sr.Header(), 1)
	require.NoError(t, err)
	for {
		rec, err := sr.Read()
		if err != nil {
			break
		}
		require.NoError(t, bw.Write(rec))
	}
	require.NoError(t, bw.Close())

	path := filepath.Join(t.TempDir(), "transcripts.bam")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	r, err := NewReader(path, 1)
	require.NoError(t, err)
	recs := readAll(t, r)
	require.NoError(t, r.Close())

	require.Len(t, recs, 2)
	assert.Equal(t, int64(43), recs[1].StartPos)
	assert.Equal(t, "-", recs[1].Direction)
}

func TestNewReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.sam"), 1)
	assert.Error(t, err)
}
