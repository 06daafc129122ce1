package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gauravn17/ImpactOCR/internal/grading"
)

// SheetResult is the outcome of one sheet in a batch. Exactly one of Result
// and Error is set.
type SheetResult struct {
	SheetID string                    `json:"sheet_id"`
	Path    string                    `json:"path,omitempty"`
	Result  *grading.AssessmentResult `json:"result,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// BatchResult collects the outcome of every sheet in a batch, in input order.
type BatchResult struct {
	BatchID string        `json:"batch_id"`
	Results []SheetResult `json:"results"`
	Failed  int           `json:"failed"`
}

// Graded returns the assessment results of the sheets that succeeded.
func (b *BatchResult) Graded() []*grading.AssessmentResult {
	out := make([]*grading.AssessmentResult, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Result != nil {
			out = append(out, r.Result)
		}
	}
	return out
}

// GradeBatch grades sheets concurrently with at most the template's worker
// count in flight.
//
// A failing sheet is logged and reported in its SheetResult; the rest of
// the batch carries on. Results keep the order of sheets. Cancelling ctx
// stops sheets that have not started and fails those in progress. A sheet
// that times out is reported at once but holds its worker slot until its
// processing actually stops, so abandoned work never exceeds the bound.
func (p *Pipeline) GradeBatch(ctx context.Context, sheets []Sheet, key grading.AnswerKey) *BatchResult {
	batch := &BatchResult{
		BatchID: uuid.New().String(),
		Results: make([]SheetResult, len(sheets)),
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, p.tmpl.WorkerCount())
	)

	for i, sheet := range sheets {
		id := sheet.ID
		if id == "" {
			if sheet.Path != "" {
				id = SheetID(sheet.Path)
			} else {
				id = fmt.Sprintf("sheet-%d", i+1)
			}
		}
		batch.Results[i] = SheetResult{SheetID: id, Path: sheet.Path}

		wg.Add(1)
		go func(i int, sheet Sheet) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				batch.Results[i].Error = ctx.Err().Error()
				batch.Failed++
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			start := time.Now()
			res, finished, err := p.run(ctx, sheet, key)
			// A timed out sheet keeps its slot until its work stops.
			defer func() { <-finished }()
			if p.debug {
				log.Printf("Sheet %s graded in %s", batch.Results[i].SheetID, time.Since(start).Round(time.Millisecond))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Failed to grade sheet %s: %v", batch.Results[i].SheetID, err)
				batch.Results[i].Error = err.Error()
				batch.Failed++
				return
			}
			batch.Results[i].Result = res
		}(i, sheet)
	}

	wg.Wait()
	return batch
}

// SheetID derives a stable identifier from a sheet's file path, so the same
// file always receives the same ID across runs.
func SheetID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// SortSheetResults orders results by path, then sheet ID.
func SortSheetResults(results []SheetResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].SheetID < results[j].SheetID
	})
}
