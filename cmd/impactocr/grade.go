package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gauravn17/ImpactOCR/internal/analytics"
	"github.com/gauravn17/ImpactOCR/internal/grading"
	"github.com/gauravn17/ImpactOCR/internal/ocr"
	"github.com/gauravn17/ImpactOCR/internal/pipeline"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// gradeReport is printed by the grade command.
type gradeReport struct {
	*pipeline.BatchResult
	Summary analytics.Summary `json:"summary"`
}

// runGrade grades the sheets named in args and prints a JSON report.
func runGrade(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("grade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keyPath := fs.String("key", "", "Answer key CSV")
	templateName := fs.String("template", "", "Template name (default: the file's default)")
	outPath := fs.String("out", "", "Write student rows as CSV")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *keyPath == "" {
		fmt.Fprintln(stderr, "Missing -key")
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "No sheets given")
		return exitUsage
	}

	templates, err := loadTemplates()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}
	tmpl, err := templates.Template(*templateName)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}
	key, err := grading.LoadAnswerKeyFile(*keyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Answer key error: %v\n", err)
		return exitError
	}

	names := nameReader()
	if names == nil {
		names = &ocr.TesseractReader{Language: tmpl.OCRLanguage}
	}
	p, err := pipeline.New(tmpl, pipeline.WithNameReader(names), pipeline.WithDebug(debugEnabled()))
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}

	sheets := make([]pipeline.Sheet, fs.NArg())
	for i, path := range fs.Args() {
		sheets[i] = pipeline.Sheet{Path: path}
	}
	batch := p.GradeBatch(context.Background(), sheets, key)
	rows := analytics.StudentRows(batch.Graded())

	if *outPath != "" {
		if err := writeRows(*outPath, rows); err != nil {
			fmt.Fprintf(stderr, "Failed to write %s: %v\n", *outPath, err)
			return exitError
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(gradeReport{BatchResult: batch, Summary: analytics.Summarize(rows, tmpl.PassMark)}); err != nil {
		fmt.Fprintf(stderr, "Failed to write report: %v\n", err)
		return exitError
	}
	if batch.Failed > 0 {
		return exitError
	}
	return exitOK
}

func writeRows(path string, rows []analytics.StudentRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := analytics.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
