// Package pipeline grades answer sheets end to end.
//
// A Pipeline is built from one validated template and runs the stages in
// strict order for each sheet: normalize, locate, group, score, resolve,
// grade. Sheets share no state, so one Pipeline may grade many sheets
// concurrently; GradeBatch does so with a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/detection"
	"github.com/gauravn17/ImpactOCR/internal/grading"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
	"github.com/gauravn17/ImpactOCR/internal/ocr"
)

// ErrTimeout is returned when a sheet exceeds the template's sheet timeout.
var ErrTimeout = errors.New("sheet processing timed out")

// Pipeline grades sheets laid out according to one template.
type Pipeline struct {
	tmpl    config.Template
	backend Backend
	names   ocr.NameReader
	debug   bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNameReader sets the collaborator that reads student names. Without
// it names are left empty.
func WithNameReader(r ocr.NameReader) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.names = r
		}
	}
}

// WithBackend overrides the backend selected by the template.
func WithBackend(b Backend) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.backend = b
		}
	}
}

// WithDebug enables per-sheet debug logging.
func WithDebug(debug bool) Option {
	return func(p *Pipeline) {
		p.debug = debug
	}
}

// New validates tmpl and returns a pipeline for it. An invalid template or
// an unavailable backend yields *config.ConfigurationError.
func New(tmpl config.Template, opts ...Option) (*Pipeline, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{tmpl: tmpl, names: ocr.NopReader{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.backend == nil {
		b, err := lookupBackend(tmpl.Backend)
		if err != nil {
			return nil, err
		}
		p.backend = b
	}
	return p, nil
}

// Template returns the template the pipeline was built with.
func (p *Pipeline) Template() config.Template {
	return p.tmpl
}

// Sheet is one answer sheet to grade. Image takes precedence; when it is nil
// the sheet is loaded from Path.
type Sheet struct {
	ID    string
	Path  string
	Image image.Image
}

// Detection holds the intermediate artifacts of one sheet.
type Detection struct {
	Mask    *imaging.BinaryMask      `json:"-"`
	Regions []detection.Region       `json:"regions"`
	Groups  []detection.BubbleGroup  `json:"groups"`
	Ratios  [][]float64              `json:"fill_ratios"`
	Options []detection.OptionResult `json:"options"`
}

// Binarize normalizes img into a mark mask with the template's settings.
func (p *Pipeline) Binarize(img image.Image) (*imaging.BinaryMask, error) {
	return p.backend.Normalize(img, p.tmpl.Normalize)
}

// Detect runs normalization and every detection stage on img.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) (*Detection, error) {
	mask, err := p.Binarize(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.DetectMask(ctx, mask)
}

// DetectMask runs the detection stages on an existing mark mask.
func (p *Pipeline) DetectMask(ctx context.Context, mask *imaging.BinaryMask) (*Detection, error) {
	regions, err := p.backend.Locate(mask, p.tmpl.Bubble)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Evaluate(mask, regions), nil
}

// Evaluate groups located regions into questions, scores them against mask
// and resolves each question.
func (p *Pipeline) Evaluate(mask *imaging.BinaryMask, regions []detection.Region) *Detection {
	groups := detection.Group(regions, p.tmpl.ChoicesPerQuestion)
	d := &Detection{
		Mask:    mask,
		Regions: regions,
		Groups:  groups,
		Ratios:  make([][]float64, 0, len(groups)),
		Options: make([]detection.OptionResult, 0, len(groups)),
	}
	for _, g := range groups {
		ratios := detection.FillRatios(g, mask)
		d.Ratios = append(d.Ratios, ratios)
		d.Options = append(d.Options, detection.Resolve(g.Question, ratios, p.tmpl.FillThreshold))
	}
	return d
}

// Grade processes one sheet and grades it against key.
//
// The whole run, from loading to grading, is bounded by the template's
// sheet timeout. Image load failures are returned as *imaging.ImageLoadError.
// A failure to read the student name is not an error; the name is left
// empty.
func (p *Pipeline) Grade(ctx context.Context, sheet Sheet, key grading.AnswerKey) (*grading.AssessmentResult, error) {
	res, _, err := p.run(ctx, sheet, key)
	return res, err
}

// run grades sheet within the sheet timeout. The returned channel is closed
// once the grading goroutine has returned, which may be after run itself
// returned with a timeout.
func (p *Pipeline) run(ctx context.Context, sheet Sheet, key grading.AnswerKey) (*grading.AssessmentResult, <-chan struct{}, error) {
	type outcome struct {
		res *grading.AssessmentResult
		err error
	}

	timeout := p.tmpl.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		res, err := p.grade(ctx, sheet, key)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, finished, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && timeout > 0 {
			return nil, finished, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, finished, ctx.Err()
	}
}

func (p *Pipeline) grade(ctx context.Context, sheet Sheet, key grading.AnswerKey) (*grading.AssessmentResult, error) {
	img, err := p.load(sheet)
	if err != nil {
		return nil, err
	}

	name := p.ReadName(img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	return grading.Grade(d.Options, key, name), nil
}

func (p *Pipeline) load(sheet Sheet) (image.Image, error) {
	if sheet.Image != nil {
		if err := imaging.CheckImage(sheet.Image); err != nil {
			return nil, err
		}
		return sheet.Image, nil
	}
	if sheet.Path == "" {
		return nil, &imaging.ImageLoadError{Err: errors.New("sheet has neither image nor path")}
	}
	return imaging.LoadFile(sheet.Path, p.tmpl.AutoOrient)
}

// ReadName extracts the student name from the template's name region.
// Failures are logged and yield an empty name.
func (p *Pipeline) ReadName(img image.Image) string {
	roi := p.tmpl.NameRect().Add(img.Bounds().Min)
	name, err := p.names.ReadName(img, roi)
	if err != nil {
		log.Printf("Name extraction failed: %v", err)
		return ""
	}
	return name
}

// Annotate renders the detected bubbles over img. Bubbles are coloured by
// fill ratio, selected options are outlined heavily and bubbles dropped with
// an incomplete trailing group are grey.
func (p *Pipeline) Annotate(ctx context.Context, img image.Image) (*image.NRGBA, *Detection, error) {
	d, err := p.Detect(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	return imaging.Annotate(img, Marks(d, img.Bounds().Min)), d, nil
}

// Marks converts a detection into overlay marks, offset by origin.
func Marks(d *Detection, origin image.Point) []imaging.Mark {
	marks := make([]imaging.Mark, 0, len(d.Regions))
	grouped := make(map[detection.Bounds]bool)

	for gi, g := range d.Groups {
		opt := d.Options[gi]
		for ri, r := range g.Regions {
			grouped[r.Bounds] = true
			m := imaging.Mark{
				Bounds:   r.Bounds.Rect().Add(origin),
				Fill:     d.Ratios[gi][ri],
				Grouped:  true,
				Selected: opt.Selected != nil && *opt.Selected == detection.OptionLetter(ri),
			}
			if ri == 0 {
				m.Label = fmt.Sprint(g.Question)
			}
			marks = append(marks, m)
		}
	}
	for _, r := range d.Regions {
		if !grouped[r.Bounds] {
			marks = append(marks, imaging.Mark{Bounds: r.Bounds.Rect().Add(origin)})
		}
	}
	return marks
}
