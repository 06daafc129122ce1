package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSheet renders one row of four 24px bubbles with column filled solid
// and writes it as PNG.
func writeSheet(t *testing.T, dir string, filled int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 100))
	fill := func(r image.Rectangle, c color.Color) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Set(x, y, c)
			}
		}
	}
	fill(img.Bounds(), color.White)
	for col := 0; col < 4; col++ {
		r := image.Rect(30+col*50, 30, 54+col*50, 54)
		fill(r, color.Black)
		if col != filled {
			fill(r.Inset(2), color.White)
		}
	}

	f, err := os.CreateTemp(dir, "sheet-*.png")
	if err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode sheet: %v", err)
	}
	return f.Name()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func setupGradeEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "templates.yml", "templates:\n  Quiz:\n    fill_threshold: 0.75\n    normalize:\n      block_size: 51\n")
	t.Setenv("IMPACTOCR_CONFIG", cfg)
	t.Setenv("IMPACTOCR_OCR", "off")
	return dir
}

func TestRunGrade(t *testing.T) {
	dir := setupGradeEnv(t)
	key := writeFile(t, dir, "key.csv", "answer\nB\n")
	right := writeSheet(t, dir, 1)
	wrong := writeSheet(t, dir, 3)
	out := filepath.Join(dir, "results.csv")

	var stdout, stderr bytes.Buffer
	code := runGrade([]string{"-key", key, "-out", out, right, wrong}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	var report struct {
		Results []struct {
			Path   string `json:"path"`
			Result struct {
				TotalCorrect int `json:"total_correct"`
			} `json:"result"`
		} `json:"results"`
		Summary struct {
			NumStudents  int     `json:"num_students"`
			AverageScore float64 `json:"average_score"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("bad report %q: %v", stdout.String(), err)
	}
	if len(report.Results) != 2 || report.Results[0].Result.TotalCorrect != 1 || report.Results[1].Result.TotalCorrect != 0 {
		t.Errorf("unexpected results: %+v", report.Results)
	}
	if report.Summary.NumStudents != 2 || report.Summary.AverageScore != 50 {
		t.Errorf("summary: got %+v", report.Summary)
	}

	csvData, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read results CSV: %v", err)
	}
	if lines := strings.Count(string(csvData), "\n"); lines != 3 {
		t.Errorf("CSV lines: got %d, want 3:\n%s", lines, csvData)
	}
}

func TestRunGrade_FailedSheet(t *testing.T) {
	dir := setupGradeEnv(t)
	key := writeFile(t, dir, "key.csv", "answer\nA\n")

	var stdout, stderr bytes.Buffer
	code := runGrade([]string{"-key", key, writeSheet(t, dir, 0), filepath.Join(dir, "missing.png")}, &stdout, &stderr)
	if code != exitError {
		t.Errorf("exit code: got %d, want %d", code, exitError)
	}
	if !strings.Contains(stdout.String(), `"failed": 1`) {
		t.Errorf("report should count the failure: %s", stdout.String())
	}
}

func TestRunGrade_Usage(t *testing.T) {
	setupGradeEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing key", []string{"sheet.png"}},
		{"missing sheets", []string{"-key", "key.csv"}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := runGrade(tt.args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code: got %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRunGrade_UnknownTemplate(t *testing.T) {
	dir := setupGradeEnv(t)
	key := writeFile(t, dir, "key.csv", "answer\nA\n")

	var stdout, stderr bytes.Buffer
	code := runGrade([]string{"-key", key, "-template", "Nope", writeSheet(t, dir, 0)}, &stdout, &stderr)
	if code != exitError {
		t.Errorf("exit code: got %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "unknown template") {
		t.Errorf("stderr: %s", stderr.String())
	}
}
