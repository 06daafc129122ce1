// Package server implements the MCP (Model Context Protocol) server for
// bubble-sheet grading.
//
// This package provides a JSON-RPC 2.0 server that exposes the grading
// pipeline through the MCP protocol, so that an assistant or any other MCP
// client can inspect sheets, grade them and summarize class results.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Sheet inspection:
//   - sheet_load: Load a sheet and get its metadata
//   - sheet_binarize: Render the mark mask
//   - sheet_detect_bubbles: Bubbles, fill ratios and resolved options
//   - sheet_annotate: Review overlay of the detected bubbles
//   - sheet_crop_name: Prepared student-name region, optionally read
//
// Grading:
//   - sheet_grade: Grade one sheet against an answer key
//   - sheet_grade_batch: Grade many sheets concurrently
//
// Results:
//   - results_summary: Class statistics
//   - results_compare: Baseline against endline scores
//   - templates_list: Configured templates
//
// Sheet tools accept an optional template name; the default template of the
// loaded template file applies otherwise.
//
// # Image Caching
//
// Sheets inspected by the single-sheet tools are cached by path for the
// lifetime of the process. Batch grading bypasses the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(templates, nil)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
