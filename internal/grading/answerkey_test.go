package grading

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gauravn17/ImpactOCR/internal/detection"
)

func TestLoadAnswerKeyCSV(t *testing.T) {
	input := "answer,notes\nB,first\n c ,\n\n,blank cell\nd\n"

	key, err := LoadAnswerKeyCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadAnswerKeyCSV failed: %v", err)
	}

	want := AnswerKey{"B", "C", "", "D"}
	if len(key) != len(want) {
		t.Fatalf("got %v, want %v", key, want)
	}
	for i := range want {
		if key[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, key[i], want[i])
		}
	}
}

func TestLoadAnswerKeyCSV_BlankCellKeepsPosition(t *testing.T) {
	key, err := LoadAnswerKeyCSV(strings.NewReader("answer,note\nA,x\n,void\nC,y\n"))
	if err != nil {
		t.Fatalf("LoadAnswerKeyCSV failed: %v", err)
	}
	if len(key) != 3 || key[0] != "A" || key[1] != "" || key[2] != "C" {
		t.Fatalf("got %q, want [A  C]", key)
	}

	a, c := "A", "C"
	res := Grade([]detection.OptionResult{
		{Question: 1, Selected: &a},
		{Question: 2, Selected: &c},
		{Question: 3, Selected: &c},
	}, key, "")
	if res.TotalQuestions != 3 || res.TotalCorrect != 2 {
		t.Errorf("got %d/%d, want 2/3", res.TotalCorrect, res.TotalQuestions)
	}
	if res.Details[1].IsCorrect || !res.Details[2].IsCorrect {
		t.Errorf("blank answer shifted the key: %+v", res.Details)
	}
}

func TestLoadAnswerKeyCSV_TrailingBlankRows(t *testing.T) {
	key, err := LoadAnswerKeyCSV(strings.NewReader("answer,note\nA,x\n,\nB,\n,\n , \n"))
	if err != nil {
		t.Fatalf("LoadAnswerKeyCSV failed: %v", err)
	}
	if len(key) != 3 || key[1] != "" || key[2] != "B" {
		t.Errorf("got %q, want [A  B]", key)
	}
}

func TestLoadAnswerKeyCSV_HeaderOnly(t *testing.T) {
	key, err := LoadAnswerKeyCSV(strings.NewReader("answer\n"))
	if err != nil {
		t.Fatalf("LoadAnswerKeyCSV failed: %v", err)
	}
	if key == nil || len(key) != 0 {
		t.Errorf("expected empty key, got %v", key)
	}
}

func TestLoadAnswerKeyCSV_Malformed(t *testing.T) {
	if _, err := LoadAnswerKeyCSV(strings.NewReader("answer\n\"A\n")); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

func TestLoadAnswerKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.csv")
	if err := os.WriteFile(path, []byte("answer\nA\nB\n"), 0o644); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}

	key, err := LoadAnswerKeyFile(path)
	if err != nil {
		t.Fatalf("LoadAnswerKeyFile failed: %v", err)
	}
	if len(key) != 2 {
		t.Errorf("got %v, want [A B]", key)
	}

	if _, err := LoadAnswerKeyFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
