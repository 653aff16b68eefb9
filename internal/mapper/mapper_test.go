package mapper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-txmap/internal/cache"
	"github.com/inodb/vibe-txmap/internal/cigar"
	"github.com/inodb/vibe-txmap/internal/output"
	"github.com/inodb/vibe-txmap/internal/transcript"
	"github.com/inodb/vibe-txmap/internal/tsv"
)

const exampleTranscripts = "TR1\tCHR1\t3\t8M7D6M2I2M11D7M\t+\n" +
	"TR2\tCHR2\t10\t20M\t+\n" +
	"TR3\tCHR1\t43\t8M7D6M2I2M11D7M\t-\n"

type memWriter struct {
	results []transcript.Result
	flushed bool
}

func (w *memWriter) Write(r transcript.Result) error {
	w.results = append(w.results, r)
	return nil
}

func (w *memWriter) Flush() error {
	w.flushed = true
	return nil
}

func loadExample(t *testing.T, text string) (*cache.Cache, LoadReport) {
	t.Helper()
	src, err := tsv.NewTranscriptReaderFromReader(strings.NewReader(text))
	require.NoError(t, err)
	c, report, err := NewLoader().Load(context.Background(), src)
	require.NoError(t, err)
	return c, report
}

func queries(t *testing.T, text string) tsv.QuerySource {
	t.Helper()
	src, err := tsv.NewQueryReaderFromReader(strings.NewReader(text))
	require.NoError(t, err)
	return src
}

func refs(results []transcript.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name + ":" + r.RefPos.String()
	}
	return out
}

func TestLoader_Example(t *testing.T) {
	c, report := loadExample(t, exampleTranscripts)

	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 3, report.Loaded)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{"TR1", "TR2", "TR3"}, c.Names())
	assert.Len(t, c.FindTranscripts("CHR1", 10), 2)
}

func TestLoader_SkipsBadTranscripts(t *testing.T) {
	text := exampleTranscripts +
		"BAD1\tCHR1\t3\t5S10M\t+\n" +
		"BAD2\tCHR1\t3\t8MD7I\t+\n" +
		"TR1\tCHR9\t3\t10M\t+\n"
	c, report := loadExample(t, text)

	assert.Equal(t, 6, report.Records)
	assert.Equal(t, 3, report.Loaded)
	require.Len(t, report.Failures, 3)

	assert.Equal(t, "BAD1", report.Failures[0].Name)
	assert.Equal(t, 4, report.Failures[0].Line)
	assert.ErrorIs(t, report.Failures[0].Err, cigar.ErrUnsupportedOperation)
	assert.ErrorIs(t, report.Failures[1].Err, cigar.ErrMalformedInput)
	assert.ErrorIs(t, report.Failures[2].Err, cache.ErrDuplicateTranscript)

	tr, ok := c.Get("TR1")
	require.True(t, ok)
	assert.Equal(t, "CHR1", tr.Chrom(), "first definition wins")
}

func TestLoader_Strict(t *testing.T) {
	src, err := tsv.NewTranscriptReaderFromReader(strings.NewReader(exampleTranscripts + "BAD\tCHR1\t3\t9O\t+\n"))
	require.NoError(t, err)

	l := NewLoader()
	l.SetStrict(true)
	l.SetWorkers(2)
	_, _, err = l.Load(context.Background(), src)
	assert.ErrorIs(t, err, cigar.ErrInvalidOperation)
}

func TestLoader_StrictReportsFirstFailingLine(t *testing.T) {
	var b strings.Builder
	b.WriteString("BAD1\tCHR1\t3\t5S10M\t+\n")
	for i := range 200 {
		fmt.Fprintf(&b, "TR%d\tCHR1\t%d\t10M\t+\n", i, i)
	}
	b.WriteString("BAD2\tCHR1\t3\t9O\t+\n")

	for range 20 {
		src, err := tsv.NewTranscriptReaderFromReader(strings.NewReader(b.String()))
		require.NoError(t, err)

		l := NewLoader()
		l.SetStrict(true)
		l.SetWorkers(8)
		_, _, err = l.Load(context.Background(), src)
		require.Error(t, err)
		assert.ErrorIs(t, err, cigar.ErrUnsupportedOperation)
		assert.True(t, strings.HasPrefix(err.Error(), "line 1:"), err.Error())
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	src, err := tsv.NewTranscriptReaderFromReader(strings.NewReader(exampleTranscripts))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = NewLoader().Load(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateAll_Example(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	m := NewMapper(c)
	m.SetWorkers(3)

	w := &memWriter{}
	report, err := m.TranslateAll(queries(t, "TR1\t4\nTR2\t0\nTR3\t0\nTR1\t13\nTR2\t10\nTR3\t9\nTR1\t24\n"), w)
	require.NoError(t, err)

	assert.Equal(t, RunReport{Queries: 7, Translated: 7}, report)
	assert.True(t, w.flushed)
	assert.Equal(t, []string{
		"TR1:7", "TR2:10", "TR3:43", "TR1:23", "TR2:20", "TR3:24.1", "TR1:43",
	}, refs(w.results))
}

func TestTranslateAll_SkipsFailures(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	core, logs := observer.New(zap.WarnLevel)
	m := NewMapper(c)
	m.SetLogger(zap.New(core))

	w := &memWriter{}
	report, err := m.TranslateAll(queries(t, "TR1\t-1\nTR9\t0\nTR1\t25\nTR9\t3\nTR2\t5\n"), w)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Queries)
	assert.Equal(t, 1, report.Translated)
	assert.Equal(t, 4, report.Failed)
	assert.Equal(t, []string{"TR9"}, report.Missing)
	assert.Equal(t, []string{"TR2:15"}, refs(w.results))

	// unknown transcripts are reported once per name
	assert.Equal(t, 3, logs.FilterMessage("failed to translate query").Len())
}

func TestTranslateAll_Strict(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	m := NewMapper(c)
	m.SetStrict(true)

	w := &memWriter{}
	_, err := m.TranslateAll(queries(t, "TR1\t3\nTR1\t99\nTR2\t5\n"), w)
	require.Error(t, err)
	assert.ErrorIs(t, err, transcript.ErrOutOfRange)
	assert.Contains(t, err.Error(), "line 2")
	assert.Len(t, w.results, 1)
	assert.True(t, w.flushed)
}

func TestTranslateAll_ParseError(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	m := NewMapper(c)

	w := &memWriter{}
	report, err := m.TranslateAll(queries(t, "TR1\t3\nTR1\tX\n"), w)
	require.Error(t, err)
	var pe *tsv.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, report.Translated)
}

func TestTranslateAll_ParseErrorKeepsWrittenRows(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	m := NewMapper(c)
	m.SetWorkers(4)

	// 300 rows of "TR1\t3\tCHR1\t6\t+\n" overflow the tab writer's buffer
	text := strings.Repeat("TR1\t3\n", 300) + "TR1\tX\n"
	var buf bytes.Buffer
	report, err := m.TranslateAll(queries(t, text), output.NewTabWriter(&buf))
	require.Error(t, err)
	var pe *tsv.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 301, pe.Line)

	assert.Equal(t, 300, report.Translated)
	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, report.Translated)
	assert.Equal(t, "TR1\t3\tCHR1\t6\t+", lines[len(lines)-1])
}

func TestTranslateAll_StrictFlushesEarlierRows(t *testing.T) {
	c, _ := loadExample(t, exampleTranscripts)
	m := NewMapper(c)
	m.SetStrict(true)

	var buf bytes.Buffer
	report, err := m.TranslateAll(queries(t, strings.Repeat("TR2\t5\n", 400)+"TR2\t99\nTR2\t1\n"), output.NewTabWriter(&buf))
	require.ErrorIs(t, err, transcript.ErrOutOfRange)

	assert.Equal(t, 400, report.Translated)
	assert.Equal(t, strings.Repeat("TR2\t5\tCHR2\t15\t+\n", 400), buf.String())
}

func TestTranslate_UnknownTranscript(t *testing.T) {
	m := NewMapper(cache.New())
	_, err := m.Translate(tsv.Query{Name: "TR1", Pos: 0})
	assert.ErrorIs(t, err, ErrUnknownTranscript)
}
