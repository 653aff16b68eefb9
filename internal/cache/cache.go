// Package cache holds constructed transcripts for batch translation.
package cache

import (
	"errors"
	"fmt"
	"sort"

	"github.com/inodb/vibe-txmap/internal/transcript"
)

// ErrDuplicateTranscript is returned when a transcript name is added twice.
var ErrDuplicateTranscript = errors.New("duplicate transcript")

// Cache provides access to transcripts by name and by reference position.
// Add is not safe for concurrent use; after Freeze the cache is read-only.
type Cache struct {
	byName map[string]*transcript.Transcript
	// byChrom keeps insertion order per chromosome
	byChrom map[string][]*transcript.Transcript
	trees   map[string]*IntervalTree
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		byName:  make(map[string]*transcript.Transcript),
		byChrom: make(map[string][]*transcript.Transcript),
	}
}

// Add adds a transcript to the cache. The first transcript with a given name wins.
func (c *Cache) Add(t *transcript.Transcript) error {
	if c.trees != nil {
		return fmt.Errorf("add %s: cache is frozen", t.Name())
	}
	if _, ok := c.byName[t.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTranscript, t.Name())
	}
	c.byName[t.Name()] = t
	c.byChrom[t.Chrom()] = append(c.byChrom[t.Chrom()], t)
	return nil
}

// Freeze builds the per-chromosome span index. Later Add calls fail.
func (c *Cache) Freeze() {
	c.trees = make(map[string]*IntervalTree, len(c.byChrom))
	for chrom, transcripts := range c.byChrom {
		c.trees[chrom] = BuildIntervalTree(transcripts)
	}
}

// Get returns a transcript by name.
func (c *Cache) Get(name string) (*transcript.Transcript, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Count returns the total number of transcripts in the cache.
func (c *Cache) Count() int {
	return len(c.byName)
}

// Names returns the sorted transcript names.
func (c *Cache) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chromosomes returns a sorted list of chromosomes in the cache.
func (c *Cache) Chromosomes() []string {
	chroms := make([]string, 0, len(c.byChrom))
	for chrom := range c.byChrom {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// FindTranscriptsByChrom returns all transcripts for a chromosome in the order they were added.
func (c *Cache) FindTranscriptsByChrom(chrom string) []*transcript.Transcript {
	return c.byChrom[chrom]
}

// FindTranscripts returns the transcripts whose reference span covers pos,
// sorted by name. Before Freeze this falls back to a linear scan.
func (c *Cache) FindTranscripts(chrom string, pos int64) []*transcript.Transcript {
	var result []*transcript.Transcript
	if tree, ok := c.trees[chrom]; ok {
		result = tree.FindOverlaps(pos)
	} else if c.trees == nil {
		for _, t := range c.byChrom[chrom] {
			if lo, hi := t.Span(); pos >= lo && pos <= hi {
				result = append(result, t)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}
