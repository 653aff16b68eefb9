package cache

import (
	"sort"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

// IntervalTree provides O(log n + k) overlap queries over transcript reference
// spans using a sorted-slice approach. It is built once and never modified.
type IntervalTree struct {
	intervals []interval
	maxEnd    []int64 // maxEnd[i] = max(end) for intervals[:i+1]
}

type interval struct {
	start      int64
	end        int64 // inclusive
	transcript *transcript.Transcript
}

// BuildIntervalTree creates an interval tree from a slice of transcripts.
// Transcripts whose alignment consumes no reference bases are left out.
func BuildIntervalTree(transcripts []*transcript.Transcript) *IntervalTree {
	intervals := make([]interval, 0, len(transcripts))
	for _, t := range transcripts {
		lo, hi := t.Span()
		if hi < lo {
			continue
		}
		intervals = append(intervals, interval{start: lo, end: hi, transcript: t})
	}
	if len(intervals) == 0 {
		return &IntervalTree{}
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	maxEnd := make([]int64, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = intervals[i].end
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &IntervalTree{intervals: intervals, maxEnd: maxEnd}
}

// Len returns the number of indexed spans.
func (t *IntervalTree) Len() int {
	return len(t.intervals)
}

// FindOverlaps returns all transcripts whose span contains pos.
func (t *IntervalTree) FindOverlaps(pos int64) []*transcript.Transcript {
	if len(t.intervals) == 0 {
		return nil
	}

	var result []*transcript.Transcript

	// Candidates are [0, hi): every interval starting at or before pos.
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > pos
	})

	for i := hi - 1; i >= 0; i-- {
		// No interval in intervals[0..i] reaches pos.
		if t.maxEnd[i] < pos {
			break
		}
		if t.intervals[i].end >= pos {
			result = append(result, t.intervals[i].transcript)
		}
	}

	return result
}
