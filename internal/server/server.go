package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
	"github.com/gauravn17/ImpactOCR/internal/ocr"
	"github.com/gauravn17/ImpactOCR/internal/pipeline"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	templates *config.File
	names     ocr.NameReader
	debug     bool
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server grading with the given templates. A nil
// templates value selects the built-in set. When names is nil, student
// names are read with Tesseract in each template's OCR language.
func New(templates *config.File, names ocr.NameReader) *Server {
	if templates == nil {
		templates = config.Builtin()
	}
	cache := imaging.NewImageCache()
	if t, err := templates.Template(""); err == nil {
		cache.AutoOrient = t.AutoOrient
	}
	return &Server{
		cache:     cache,
		templates: templates,
		names:     names,
	}
}

// SetDebug enables logging of every tool call.
func (s *Server) SetDebug(debug bool) {
	s.debug = debug
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Batch requests can carry long path lists
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "impactocr",
				"version": Version,
			},
		},
	}
}

// pipelineFor builds a pipeline for the named template, or the default
// template when name is empty.
func (s *Server) pipelineFor(name string) (*pipeline.Pipeline, error) {
	tmpl, err := s.templates.Template(name)
	if err != nil {
		return nil, err
	}
	return pipeline.New(tmpl, pipeline.WithNameReader(s.nameReaderFor(tmpl)), pipeline.WithDebug(s.debug))
}

func (s *Server) nameReaderFor(tmpl config.Template) ocr.NameReader {
	if s.names != nil {
		return s.names
	}
	return &ocr.TesseractReader{Language: tmpl.OCRLanguage}
}
