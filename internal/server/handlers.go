package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gauravn17/ImpactOCR/internal/analytics"
	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/grading"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
	"github.com/gauravn17/ImpactOCR/internal/ocr"
	"github.com/gauravn17/ImpactOCR/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sheet_grade", "results_summary").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	if s.debug {
		log.Printf("Tool call: %s", params.Name)
	}
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves the template and builds a pipeline for it
//  3. Loads sheets from cache as needed
//  4. Calls the appropriate pipeline/grading/analytics function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sheet inspection
	case "sheet_load":
		return s.handleSheetLoad(args)
	case "sheet_binarize":
		return s.handleSheetBinarize(args)
	case "sheet_detect_bubbles":
		return s.handleSheetDetectBubbles(args)
	case "sheet_annotate":
		return s.handleSheetAnnotate(args)
	case "sheet_crop_name":
		return s.handleSheetCropName(args)

	// Grading
	case "sheet_grade":
		return s.handleSheetGrade(args)
	case "sheet_grade_batch":
		return s.handleSheetGradeBatch(args)

	// Results
	case "results_summary":
		return s.handleResultsSummary(args)
	case "results_compare":
		return s.handleResultsCompare(args)
	case "templates_list":
		return s.handleTemplatesList()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Sheet Inspection Handlers ===

type sheetArgs struct {
	Path     string `json:"path"`
	Template string `json:"template"`
}

func (s *Server) handleSheetLoad(args json.RawMessage) (interface{}, error) {
	var a sheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadSheetInfo(s.cache, a.Path)
}

// BinarizeResult describes the mark mask of a sheet.
type BinarizeResult struct {
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
	OnPixels int                   `json:"on_pixels"`
	Mask     *imaging.EncodedImage `json:"mask"`
}

func (s *Server) handleSheetBinarize(args json.RawMessage) (interface{}, error) {
	var a sheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.Template)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	mask, err := p.Binarize(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(mask.Image())
	if err != nil {
		return nil, err
	}
	return &BinarizeResult{
		Width:    mask.Width(),
		Height:   mask.Height(),
		OnPixels: mask.Count(),
		Mask:     encoded,
	}, nil
}

func (s *Server) handleSheetDetectBubbles(args json.RawMessage) (interface{}, error) {
	var a sheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.Template)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return p.Detect(context.Background(), img)
}

// AnnotateResult is the review overlay of a sheet.
type AnnotateResult struct {
	Image     *imaging.EncodedImage `json:"image"`
	Regions   int                   `json:"regions"`
	Questions int                   `json:"questions"`
	Options   interface{}           `json:"options"`
}

func (s *Server) handleSheetAnnotate(args json.RawMessage) (interface{}, error) {
	var a sheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.Template)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	overlay, d, err := p.Annotate(context.Background(), img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		Image:     encoded,
		Regions:   len(d.Regions),
		Questions: len(d.Groups),
		Options:   d.Options,
	}, nil
}

type sheetCropNameArgs struct {
	Path     string `json:"path"`
	Template string `json:"template"`
	Read     bool   `json:"read"`
}

// CropNameResult is the prepared name region and, on request, its text.
type CropNameResult struct {
	Image *imaging.EncodedImage `json:"image"`
	Name  *string               `json:"name,omitempty"`
}

func (s *Server) handleSheetCropName(args json.RawMessage) (interface{}, error) {
	var a sheetCropNameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.Template(a.Template)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	roi := tmpl.NameRect().Add(img.Bounds().Min)
	prepared, err := ocr.PrepareName(img, roi)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(prepared)
	if err != nil {
		return nil, err
	}

	result := &CropNameResult{Image: encoded}
	if a.Read {
		name, err := s.nameReaderFor(tmpl).ReadName(img, roi)
		if err != nil {
			return nil, err
		}
		result.Name = &name
	}
	return result, nil
}

// === Grading Handlers ===

type answerKeyArgs struct {
	AnswerKey     []string `json:"answer_key"`
	AnswerKeyPath string   `json:"answer_key_path"`
}

// answerKey returns the inline key, or the key loaded from the CSV path.
func (a answerKeyArgs) answerKey() (grading.AnswerKey, error) {
	if len(a.AnswerKey) > 0 {
		key := make(grading.AnswerKey, len(a.AnswerKey))
		for i, v := range a.AnswerKey {
			key[i] = strings.ToUpper(strings.TrimSpace(v))
		}
		return key, nil
	}
	if a.AnswerKeyPath != "" {
		return grading.LoadAnswerKeyFile(a.AnswerKeyPath)
	}
	return nil, errors.New("answer_key or answer_key_path is required")
}

type sheetGradeArgs struct {
	sheetArgs
	answerKeyArgs
}

func (s *Server) handleSheetGrade(args json.RawMessage) (interface{}, error) {
	var a sheetGradeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	key, err := a.answerKey()
	if err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.Template)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	sheet := pipeline.Sheet{ID: pipeline.SheetID(a.Path), Path: a.Path, Image: img}
	res, err := p.Grade(context.Background(), sheet, key)
	if err != nil {
		return nil, err
	}
	return &pipeline.SheetResult{SheetID: sheet.ID, Path: a.Path, Result: res}, nil
}

type sheetGradeBatchArgs struct {
	Paths    []string `json:"paths"`
	Template string   `json:"template"`
	answerKeyArgs
}

// GradeBatchResult is a batch outcome with the class summary of the sheets
// that were graded.
type GradeBatchResult struct {
	*pipeline.BatchResult
	Summary analytics.Summary `json:"summary"`
}

func (s *Server) handleSheetGradeBatch(args json.RawMessage) (interface{}, error) {
	var a sheetGradeBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must list at least one sheet")
	}
	key, err := a.answerKey()
	if err != nil {
		return nil, err
	}
	p, err := s.pipelineFor(a.Template)
	if err != nil {
		return nil, err
	}

	sheets := make([]pipeline.Sheet, len(a.Paths))
	for i, path := range a.Paths {
		sheets[i] = pipeline.Sheet{Path: path}
	}
	batch := p.GradeBatch(context.Background(), sheets, key)

	rows := analytics.StudentRows(batch.Graded())
	return &GradeBatchResult{
		BatchResult: batch,
		Summary:     analytics.Summarize(rows, p.Template().PassMark),
	}, nil
}

// === Results Handlers ===

// rowsFrom returns inline rows, or rows read from a CSV file.
func rowsFrom(rows []analytics.StudentRow, path, field string) ([]analytics.StudentRow, error) {
	if rows != nil {
		return rows, nil
	}
	if path == "" {
		return nil, fmt.Errorf("%s or %s_path is required", field, field)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer f.Close()
	return analytics.ReadCSV(f)
}

type resultsSummaryArgs struct {
	Results     []analytics.StudentRow `json:"results"`
	ResultsPath string                 `json:"results_path"`
	PassMark    *float64               `json:"pass_mark"`
	Template    string                 `json:"template"`
}

func (s *Server) handleResultsSummary(args json.RawMessage) (interface{}, error) {
	var a resultsSummaryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	rows, err := rowsFrom(a.Results, a.ResultsPath, "results")
	if err != nil {
		return nil, err
	}

	var passMark float64
	if a.PassMark != nil {
		passMark = *a.PassMark
	} else {
		tmpl, err := s.templates.Template(a.Template)
		if err != nil {
			return nil, err
		}
		passMark = tmpl.PassMark
	}
	if passMark < 0 || passMark > 100 {
		return nil, &config.ConfigurationError{Field: "pass_mark", Value: passMark, Reason: "must be within [0, 100]"}
	}
	return analytics.Summarize(rows, passMark), nil
}

type resultsCompareArgs struct {
	Baseline     []analytics.StudentRow `json:"baseline"`
	Endline      []analytics.StudentRow `json:"endline"`
	BaselinePath string                 `json:"baseline_path"`
	EndlinePath  string                 `json:"endline_path"`
}

func (s *Server) handleResultsCompare(args json.RawMessage) (interface{}, error) {
	var a resultsCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	baseline, err := rowsFrom(a.Baseline, a.BaselinePath, "baseline")
	if err != nil {
		return nil, err
	}
	endline, err := rowsFrom(a.Endline, a.EndlinePath, "endline")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"comparisons": analytics.CompareBaselineEndline(baseline, endline),
	}, nil
}

// TemplatesResult lists the configured templates.
type TemplatesResult struct {
	Default   string            `json:"default"`
	Templates []config.Template `json:"templates"`
	Backends  []string          `json:"backends"`
}

func (s *Server) handleTemplatesList() (interface{}, error) {
	names := s.templates.Names()
	templates := make([]config.Template, 0, len(names))
	for _, name := range names {
		t, err := s.templates.Template(name)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return &TemplatesResult{
		Default:   s.templates.Default,
		Templates: templates,
		Backends:  pipeline.Backends(),
	}, nil
}
