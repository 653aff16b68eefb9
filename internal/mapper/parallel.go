package mapper

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-txmap/internal/transcript"
	"github.com/inodb/vibe-txmap/internal/tsv"
)

// WorkItem is one query read from the input. Seq numbers queries from 0 in
// input order; Line is the source line the query came from.
type WorkItem struct {
	Seq   int
	Query tsv.Query
	Line  int
}

// WorkResult carries the translation of a WorkItem, or the error that
// prevented it. Seq and Line are copied from the item.
type WorkResult struct {
	Seq    int
	Query  tsv.Query
	Line   int
	Result transcript.Result
	Err    error
}

// ParallelTranslate starts workers goroutines (runtime.NumCPU() when workers
// is 0) that translate queries from items. Results arrive on the returned
// channel as soon as each query is done, so their order is arbitrary; the
// channel is closed once items is closed and drained.
func (m *Mapper) ParallelTranslate(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := m.Translate(item.Query)
				results <- WorkResult{
					Seq:    item.Seq,
					Query:  item.Query,
					Line:   item.Line,
					Result: res,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands results to fn in query input order (by Seq), holding
// back any result whose predecessors are still being translated. When fn
// returns an error the remaining results are discarded and the error is
// returned once the channel is closed, so no worker is left blocked.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	held := make(map[int]WorkResult)
	want := 0

	var err error
	for r := range results {
		if err != nil {
			continue
		}
		held[r.Seq] = r
		for err == nil {
			next, ok := held[want]
			if !ok {
				break
			}
			delete(held, want)
			want++
			err = fn(next)
		}
	}
	return err
}
