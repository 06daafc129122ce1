package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauravn17/ImpactOCR/internal/detection"
	"github.com/gauravn17/ImpactOCR/internal/grading"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// countingBackend records how many sheets are normalized at the same time.
type countingBackend struct {
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
}

func (b *countingBackend) Normalize(img image.Image, opts imaging.NormalizeOptions) (*imaging.BinaryMask, error) {
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(b.delay)
	return imaging.Normalize(img, opts)
}

func (b *countingBackend) Locate(mask *imaging.BinaryMask, geom detection.Geometry) ([]detection.Region, error) {
	return detection.Locate(mask, geom), nil
}

func TestGradeBatch_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeSheet(t, dir, "good.png", renderSheet(1, 4, map[int]int{0: 2}))
	other := writeSheet(t, dir, "other.png", renderSheet(1, 4, map[int]int{0: 0}))
	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	tmpl := renderedTemplate()
	tmpl.Workers = 2
	p := newPipeline(t, tmpl)

	batch := p.GradeBatch(context.Background(), []Sheet{
		{Path: good},
		{Path: corrupt},
		{Path: other},
	}, grading.AnswerKey{"C"})

	if batch.BatchID == "" {
		t.Error("expected batch ID")
	}
	if len(batch.Results) != 3 {
		t.Fatalf("results: got %d, want 3", len(batch.Results))
	}
	if batch.Failed != 1 {
		t.Errorf("failed: got %d, want 1", batch.Failed)
	}

	for i, path := range []string{good, corrupt, other} {
		if batch.Results[i].Path != path {
			t.Errorf("result %d: path %q, want %q", i, batch.Results[i].Path, path)
		}
	}

	if r := batch.Results[1]; r.Error == "" || r.Result != nil {
		t.Errorf("corrupt sheet: got %+v, want error only", r)
	}
	if r := batch.Results[0].Result; r == nil || r.TotalCorrect != 1 {
		t.Errorf("good sheet: got %+v, want 1 correct", r)
	}
	if r := batch.Results[2].Result; r == nil || r.TotalCorrect != 0 {
		t.Errorf("other sheet: got %+v, want 0 correct", r)
	}
	if got := len(batch.Graded()); got != 2 {
		t.Errorf("graded: got %d, want 2", got)
	}
}

func TestGradeBatch_Empty(t *testing.T) {
	p := newPipeline(t, renderedTemplate())
	batch := p.GradeBatch(context.Background(), nil, nil)
	if len(batch.Results) != 0 || batch.Failed != 0 {
		t.Errorf("expected empty batch, got %+v", batch)
	}
}

func TestGradeBatch_InMemoryIDs(t *testing.T) {
	p := newPipeline(t, renderedTemplate())
	batch := p.GradeBatch(context.Background(), []Sheet{
		{Image: renderSheet(1, 4, nil)},
		{ID: "custom", Image: renderSheet(1, 4, nil)},
	}, grading.AnswerKey{"A"})

	if batch.Results[0].SheetID != "sheet-1" {
		t.Errorf("generated ID: got %q, want sheet-1", batch.Results[0].SheetID)
	}
	if batch.Results[1].SheetID != "custom" {
		t.Errorf("explicit ID: got %q, want custom", batch.Results[1].SheetID)
	}
}

func TestGradeBatch_Cancelled(t *testing.T) {
	p := newPipeline(t, renderedTemplate())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := p.GradeBatch(ctx, []Sheet{
		{Image: renderSheet(1, 4, nil)},
		{Image: renderSheet(1, 4, nil)},
	}, nil)
	if batch.Failed != 2 {
		t.Errorf("failed: got %d, want 2", batch.Failed)
	}
}

func TestGradeBatch_TimedOutSheetsHoldTheirSlot(t *testing.T) {
	tmpl := renderedTemplate()
	tmpl.Workers = 1
	tmpl.SheetTimeout = "20ms"
	backend := &countingBackend{delay: 150 * time.Millisecond}
	p := newPipeline(t, tmpl, WithBackend(backend))

	batch := p.GradeBatch(context.Background(), []Sheet{
		{Image: renderSheet(1, 4, nil)},
		{Image: renderSheet(1, 4, nil)},
		{Image: renderSheet(1, 4, nil)},
	}, nil)

	if batch.Failed != 3 {
		t.Errorf("failed: got %d, want 3", batch.Failed)
	}
	if peak := backend.peak.Load(); peak != 1 {
		t.Errorf("concurrent sheets in normalization: got %d, want at most 1", peak)
	}
	if backend.active.Load() != 0 {
		t.Error("batch returned while sheet processing was still running")
	}
	for i, r := range batch.Results {
		if r.Error == "" || !strings.Contains(r.Error, ErrTimeout.Error()) {
			t.Errorf("result %d: got error %q, want timeout", i, r.Error)
		}
	}
}

func TestSheetID_Deterministic(t *testing.T) {
	a := SheetID("scans/sheet-01.png")
	b := SheetID("scans/sheet-01.png")
	c := SheetID("scans/sheet-02.png")

	if a != b {
		t.Errorf("same path gave %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different paths gave the same ID %q", a)
	}
	if len(a) != 36 {
		t.Errorf("expected UUID string, got %q", a)
	}
}

func TestSortSheetResults(t *testing.T) {
	results := []SheetResult{
		{SheetID: "3", Path: "c.png"},
		{SheetID: "2", Path: "a.png"},
		{SheetID: "1", Path: "a.png"},
	}
	SortSheetResults(results)

	want := []string{"1", "2", "3"}
	for i, r := range results {
		if r.SheetID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.SheetID, want[i])
		}
	}
}
