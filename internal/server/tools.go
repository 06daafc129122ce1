package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the sheet image (PNG, JPEG, GIF, TIFF, BMP or WebP)",
	}
}

func templateProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Template name from templates_list. Defaults to the default template",
	}
}

func answerKeyProperties(props map[string]interface{}) map[string]interface{} {
	props["answer_key"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Correct option letter per question, in question order (e.g. [\"B\", \"A\", \"D\"])",
	}
	props["answer_key_path"] = map[string]interface{}{
		"type":        "string",
		"description": "CSV file with a header row and the answers in the first column. Used when answer_key is not given",
	}
	return props
}

func studentRowsProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"student_name":    map[string]interface{}{"type": "string"},
				"total_correct":   map[string]interface{}{"type": "integer"},
				"total_questions": map[string]interface{}{"type": "integer"},
				"score_percent":   map[string]interface{}{"type": "number"},
			},
			"required": []string{"student_name", "score_percent"},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sheet inspection
		{
			Name:        "sheet_load",
			Description: "Load a sheet image and return its dimensions, format and color depth. The image is cached for subsequent calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_binarize",
			Description: "Run the normalizer on a sheet and return the mark mask as a base64 PNG (marks white on black). Use this to check that bubbles and pencil marks survive binarization.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"template": templateProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_detect_bubbles",
			Description: "Locate bubbles, group them into questions and resolve each question. Returns bounding boxes, fill ratios and the selected option per question without grading.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"template": templateProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_annotate",
			Description: "Render the detected bubbles over the sheet as a base64 PNG. Outlines shade from red (empty) to green (filled); selected options are drawn thick and bubbles left out of any question are grey.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"template": templateProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_crop_name",
			Description: "Crop the template's student-name region and return it as a base64 PNG, binarized the way it is passed to OCR. Optionally runs name recognition.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"template": templateProperty(),
					"read": map[string]interface{}{
						"type":        "boolean",
						"description": "Also recognize the name. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},

		// Grading
		{
			Name:        "sheet_grade",
			Description: "Grade one sheet against an answer key. Returns the student name, per-question details and the score.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": answerKeyProperties(map[string]interface{}{
					"path":     pathProperty(),
					"template": templateProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "sheet_grade_batch",
			Description: "Grade many sheets concurrently against one answer key. A sheet that fails is reported with its error and does not stop the batch. Includes a class summary of the graded sheets.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": answerKeyProperties(map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the sheet images",
					},
					"template": templateProperty(),
				}),
				"required": []string{"paths"},
			},
		},

		// Results
		{
			Name:        "results_summary",
			Description: "Compute class statistics (average, median, pass rate, standard deviation) over graded students.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"results": studentRowsProperty("Student rows as returned by grading"),
					"results_path": map[string]interface{}{
						"type":        "string",
						"description": "CSV of student rows, used when results is not given",
					},
					"pass_mark": map[string]interface{}{
						"type":        "number",
						"description": "Passing score in percent. Defaults to the template's pass mark",
					},
					"template": templateProperty(),
				},
			},
		},
		{
			Name:        "results_compare",
			Description: "Compare baseline and endline scores of the same students, matched by name. Students missing from either side are left out.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"baseline": studentRowsProperty("Baseline student rows"),
					"endline":  studentRowsProperty("Endline student rows"),
					"baseline_path": map[string]interface{}{
						"type":        "string",
						"description": "CSV of baseline rows, used when baseline is not given",
					},
					"endline_path": map[string]interface{}{
						"type":        "string",
						"description": "CSV of endline rows, used when endline is not given",
					},
				},
			},
		},
		{
			Name:        "templates_list",
			Description: "List the configured sheet templates with their settings.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
