// Package config holds the grading configuration: named sheet templates with
// their detection tuning, loaded from YAML and validated before use.
//
// A Template is an explicit value handed to the pipeline; there is no
// process-wide template registry.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gauravn17/ImpactOCR/internal/detection"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// DefaultTemplateName names the built-in template.
const DefaultTemplateName = "Class 8 – Midterm MCQ (2025)"

// Backends known to the configuration layer.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// ConfigurationError reports an invalid tuning value. It is fatal for the
// pipeline invocation that received it.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Template describes one sheet layout and how to grade it.
type Template struct {
	// Name is the key the template was registered under.
	Name string `yaml:"-" json:"name"`

	ChoicesPerQuestion int     `yaml:"choices_per_question" json:"choices_per_question"`
	FillThreshold      float64 `yaml:"fill_threshold" json:"fill_threshold"`

	// NameROI is the student-name box as x, y, width, height.
	NameROI []int `yaml:"name_roi" json:"name_roi"`

	Normalize imaging.NormalizeOptions `yaml:"normalize" json:"normalize"`
	Bubble    detection.Geometry       `yaml:"bubble" json:"bubble"`

	// Backend selects the image-processing implementation.
	Backend string `yaml:"backend" json:"backend"`

	// Workers bounds batch concurrency; 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	// SheetTimeout bounds the processing of one sheet, as a Go duration
	// string. "0s" disables the timeout.
	SheetTimeout string `yaml:"sheet_timeout" json:"sheet_timeout"`

	// PassMark is the score percentage counted as a pass in summaries.
	PassMark float64 `yaml:"pass_mark" json:"pass_mark"`

	OCRLanguage string `yaml:"ocr_language" json:"ocr_language"`

	// AutoOrient applies the EXIF orientation of photographed sheets.
	AutoOrient bool `yaml:"auto_orient" json:"auto_orient"`
}

// Default returns the built-in template.
func Default() Template {
	return Template{
		Name:               DefaultTemplateName,
		ChoicesPerQuestion: 4,
		FillThreshold:      0.5,
		NameROI:            []int{100, 50, 600, 120},
		Normalize:          imaging.DefaultNormalizeOptions(),
		Bubble:             detection.DefaultGeometry(),
		Backend:            BackendNative,
		Workers:            0,
		SheetTimeout:       "0s",
		PassMark:           50,
		OCRLanguage:        "eng",
		AutoOrient:         true,
	}
}

// UnmarshalYAML decodes a template on top of the defaults, so a file only
// needs to list the values it changes.
func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	type plain Template
	p := plain(Default())
	p.NameROI = nil
	if err := value.Decode(&p); err != nil {
		return err
	}
	if p.NameROI == nil {
		p.NameROI = Default().NameROI
	}
	*t = Template(p)
	return nil
}

// Validate returns the first invalid value as *ConfigurationError.
func (t Template) Validate() error {
	bad := func(field string, value any, reason string) error {
		return &ConfigurationError{Field: field, Value: value, Reason: reason}
	}

	if t.ChoicesPerQuestion < 1 || t.ChoicesPerQuestion > 26 {
		return bad("choices_per_question", t.ChoicesPerQuestion, "must be between 1 and 26")
	}
	if math.IsNaN(t.FillThreshold) || t.FillThreshold < 0 || t.FillThreshold > 1 {
		return bad("fill_threshold", t.FillThreshold, "must be within [0, 1]")
	}
	if len(t.NameROI) != 4 {
		return bad("name_roi", t.NameROI, "must be [x, y, width, height]")
	}
	if t.NameROI[2] <= 0 || t.NameROI[3] <= 0 {
		return bad("name_roi", t.NameROI, "width and height must be positive")
	}

	if err := checkKernel("normalize.blur_kernel", t.Normalize.BlurKernel); err != nil {
		return err
	}
	if err := checkKernel("normalize.block_size", t.Normalize.BlockSize); err != nil {
		return err
	}
	if math.IsNaN(t.Normalize.Bias) || math.IsInf(t.Normalize.Bias, 0) {
		return bad("normalize.bias", t.Normalize.Bias, "must be a finite number")
	}

	g := t.Bubble
	if g.MinSize <= 0 {
		return bad("bubble.min_size", g.MinSize, "must be positive")
	}
	if g.MaxSize < g.MinSize {
		return bad("bubble.max_size", g.MaxSize, "must not be below bubble.min_size")
	}
	if g.MinAspect <= 0 {
		return bad("bubble.min_aspect", g.MinAspect, "must be positive")
	}
	if g.MaxAspect < g.MinAspect {
		return bad("bubble.max_aspect", g.MaxAspect, "must not be below bubble.min_aspect")
	}
	if g.MinArea < 0 {
		return bad("bubble.min_area", g.MinArea, "must not be negative")
	}
	if g.ReferenceWidth < 0 {
		return bad("bubble.reference_width", g.ReferenceWidth, "must not be negative")
	}

	if t.Backend != BackendNative && t.Backend != BackendOpenCV {
		return bad("backend", t.Backend, "must be native or opencv")
	}
	if t.Workers < 0 {
		return bad("workers", t.Workers, "must not be negative")
	}
	d, err := time.ParseDuration(t.SheetTimeout)
	if err != nil {
		return bad("sheet_timeout", t.SheetTimeout, "must be a duration such as 30s")
	}
	if d < 0 {
		return bad("sheet_timeout", t.SheetTimeout, "must not be negative")
	}
	if t.PassMark < 0 || t.PassMark > 100 {
		return bad("pass_mark", t.PassMark, "must be within [0, 100]")
	}
	return nil
}

func checkKernel(field string, size int) error {
	if size < 3 || size%2 == 0 {
		return &ConfigurationError{Field: field, Value: size, Reason: "must be an odd number >= 3"}
	}
	return nil
}

// NameRect returns the student-name box as an image rectangle.
func (t Template) NameRect() image.Rectangle {
	if len(t.NameROI) != 4 {
		return image.Rectangle{}
	}
	x, y, w, h := t.NameROI[0], t.NameROI[1], t.NameROI[2], t.NameROI[3]
	return image.Rect(x, y, x+w, y+h)
}

// Timeout returns the per-sheet timeout, zero when disabled or invalid.
func (t Template) Timeout() time.Duration {
	d, err := time.ParseDuration(t.SheetTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// WorkerCount returns the batch concurrency, resolving 0 to the CPU count.
func (t Template) WorkerCount() int {
	if t.Workers > 0 {
		return t.Workers
	}
	return runtime.NumCPU()
}

// File is a set of named templates, as stored in a template file:
//
//	default: Weekly quiz
//	templates:
//	  Weekly quiz:
//	    choices_per_question: 5
//	    fill_threshold: 0.6
type File struct {
	Default   string              `yaml:"default" json:"default"`
	Templates map[string]Template `yaml:"templates" json:"templates"`
}

// Builtin returns a File holding only the built-in template.
func Builtin() *File {
	return &File{
		Default:   DefaultTemplateName,
		Templates: map[string]Template{DefaultTemplateName: Default()},
	}
}

// Load reads and validates a template file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a template file.
//
// Templates inherit the built-in defaults for every value they omit. A file
// without templates yields the built-in set. When no default is named, a
// single template becomes the default.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(f.Templates) == 0 {
		b := Builtin()
		if f.Default == "" {
			f.Default = b.Default
		}
		f.Templates = b.Templates
	}
	for name, t := range f.Templates {
		t.Name = name
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
		f.Templates[name] = t
	}

	if f.Default == "" && len(f.Templates) == 1 {
		for name := range f.Templates {
			f.Default = name
		}
	}
	if _, ok := f.Templates[f.Default]; !ok {
		return nil, &ConfigurationError{Field: "default", Value: f.Default, Reason: "no template with that name"}
	}
	return &f, nil
}

// Template looks up a template by name. An empty name selects the default.
func (f *File) Template(name string) (Template, error) {
	if name == "" {
		name = f.Default
	}
	t, ok := f.Templates[name]
	if !ok {
		return Template{}, &ConfigurationError{Field: "template", Value: name, Reason: "unknown template"}
	}
	return t, nil
}

// Names returns the template names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Templates))
	for name := range f.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
