package cache

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

// spanTranscript returns a forward transcript covering [start, end] on chrom 1.
func spanTranscript(t *testing.T, name string, start, end int64) *transcript.Transcript {
	t.Helper()
	tr, err := transcript.New(name, "1", start, strconv.FormatInt(end-start+1, 10)+"M", "+")
	require.NoError(t, err)
	return tr
}

func names(ts []*transcript.Transcript) map[string]bool {
	out := map[string]bool{}
	for _, t := range ts {
		out[t.Name()] = true
	}
	return out
}

func TestBuildIntervalTree_Empty(t *testing.T) {
	tree := BuildIntervalTree(nil)
	assert.Empty(t, tree.FindOverlaps(100))
	assert.Equal(t, 0, tree.Len())
}

func TestIntervalTree_SingleTranscript(t *testing.T) {
	tree := BuildIntervalTree([]*transcript.Transcript{spanTranscript(t, "TX1", 100, 200)})

	require.Len(t, tree.FindOverlaps(150), 1)
	assert.Equal(t, "TX1", tree.FindOverlaps(150)[0].Name())

	assert.Len(t, tree.FindOverlaps(100), 1, "start boundary inclusive")
	assert.Len(t, tree.FindOverlaps(200), 1, "end boundary inclusive")
	assert.Empty(t, tree.FindOverlaps(99), "before start")
	assert.Empty(t, tree.FindOverlaps(201), "after end")
}

func TestIntervalTree_Overlapping(t *testing.T) {
	tree := BuildIntervalTree([]*transcript.Transcript{
		spanTranscript(t, "A", 100, 300),
		spanTranscript(t, "B", 150, 250),
		spanTranscript(t, "C", 200, 400),
	})

	assert.Equal(t, map[string]bool{"A": true, "B": true}, names(tree.FindOverlaps(175)))
	assert.Len(t, tree.FindOverlaps(250), 3)
	assert.Equal(t, map[string]bool{"C": true}, names(tree.FindOverlaps(350)))
}

func TestIntervalTree_LongIntervalBeforeShortOne(t *testing.T) {
	// A long span followed by a short one must still be found past the short one's end.
	tree := BuildIntervalTree([]*transcript.Transcript{
		spanTranscript(t, "long", 100, 1000),
		spanTranscript(t, "short", 110, 120),
	})

	assert.Equal(t, map[string]bool{"long": true}, names(tree.FindOverlaps(500)))
}

func TestIntervalTree_ReverseStrandSpan(t *testing.T) {
	tr, err := transcript.New("REV", "1", 43, "8M7D6M2I2M11D7M", "-")
	require.NoError(t, err)
	tree := BuildIntervalTree([]*transcript.Transcript{tr})

	assert.Len(t, tree.FindOverlaps(3), 1)
	assert.Len(t, tree.FindOverlaps(43), 1)
	assert.Empty(t, tree.FindOverlaps(2))
	assert.Empty(t, tree.FindOverlaps(44))
}

func TestIntervalTree_SkipsInsertionOnly(t *testing.T) {
	tr, err := transcript.New("INS", "1", 10, "5I", "+")
	require.NoError(t, err)
	tree := BuildIntervalTree([]*transcript.Transcript{tr})
	assert.Equal(t, 0, tree.Len())
}

func TestIntervalTree_MatchesLinearScan(t *testing.T) {
	transcripts := []*transcript.Transcript{
		spanTranscript(t, "A", 1000, 5000),
		spanTranscript(t, "B", 2000, 3000),
		spanTranscript(t, "C", 4000, 8000),
		spanTranscript(t, "D", 6000, 7000),
		spanTranscript(t, "E", 9000, 10000),
	}
	tree := BuildIntervalTree(transcripts)

	for pos := int64(0); pos <= 11000; pos += 250 {
		linear := map[string]bool{}
		for _, tx := range transcripts {
			if lo, hi := tx.Span(); pos >= lo && pos <= hi {
				linear[tx.Name()] = true
			}
		}
		assert.Equal(t, linear, names(tree.FindOverlaps(pos)), "pos=%d", pos)
	}
}
