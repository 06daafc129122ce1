package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/ocr"
	"github.com/gauravn17/ImpactOCR/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("impactocr %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "grade":
			configureLogging()
			os.Exit(runGrade(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	configureLogging()
	if debugEnabled() {
		log.Printf("ImpactOCR MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	templates, err := loadTemplates()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	server.Version = Version
	srv := server.New(templates, nameReader())
	srv.SetDebug(debugEnabled())
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage() {
	fmt.Println("impactocr - bubble-sheet grading engine and MCP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  impactocr                     Run the MCP server on stdin/stdout")
	fmt.Println("  impactocr grade [flags] sheets...")
	fmt.Println("                                Grade sheets and print a JSON summary")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Grade flags:")
	fmt.Println("  -key path        Answer key CSV (required)")
	fmt.Println("  -template name   Template to grade with (default: the file's default)")
	fmt.Println("  -out path        Also write student rows as CSV")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMPACTOCR_CONFIG=path       Template file (YAML)")
	fmt.Println("  IMPACTOCR_LOG_LEVEL=debug   Enable debug logging")
	fmt.Println("  IMPACTOCR_OCR=off           Skip student-name recognition")
}

// configureLogging sends logs to stderr; stdout is for MCP protocol and
// command output.
func configureLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func debugEnabled() bool {
	return os.Getenv("IMPACTOCR_LOG_LEVEL") == "debug"
}

// loadTemplates reads IMPACTOCR_CONFIG, or returns the built-in templates.
func loadTemplates() (*config.File, error) {
	path := os.Getenv("IMPACTOCR_CONFIG")
	if path == "" {
		return config.Builtin(), nil
	}
	return config.Load(path)
}

// nameReader returns the name reader selected by IMPACTOCR_OCR. A nil
// reader selects Tesseract in each template's language.
func nameReader() ocr.NameReader {
	if os.Getenv("IMPACTOCR_OCR") == "off" {
		return ocr.NopReader{}
	}
	return nil
}
