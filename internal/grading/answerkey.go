package grading

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadAnswerKeyCSV reads an answer key from the first column of a CSV
// document. The first row is a header and is skipped. Cells are trimmed and
// upper-cased.
//
// A row with a blank first cell keeps its position as an empty answer, which
// no selection can match, so later answers stay aligned with their
// questions. Rows with no content in any cell are dropped from the end of
// the key. Empty lines are ignored by the CSV reader and hold no position.
func LoadAnswerKeyCSV(r io.Reader) (AnswerKey, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	key := make(AnswerKey, 0)
	used := 0
	header := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read answer key: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		key = append(key, strings.ToUpper(strings.TrimSpace(record[0])))
		if !blankRecord(record) {
			used = len(key)
		}
	}
	return key[:used], nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// LoadAnswerKeyFile opens path and reads it with LoadAnswerKeyCSV.
func LoadAnswerKeyFile(path string) (AnswerKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open answer key: %w", err)
	}
	defer f.Close()
	return LoadAnswerKeyCSV(f)
}
