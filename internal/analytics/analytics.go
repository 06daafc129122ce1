// Package analytics aggregates graded sheets into class-level figures.
//
// It flattens assessment results into student rows, computes summary
// statistics over a class and compares two assessments of the same students
// (baseline and endline). Rows can be exported as CSV.
package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/gauravn17/ImpactOCR/internal/grading"
)

// StudentRow is the flat, student-level view of one graded sheet.
type StudentRow struct {
	StudentName    string  `json:"student_name"`
	TotalCorrect   int     `json:"total_correct"`
	TotalQuestions int     `json:"total_questions"`
	ScorePercent   float64 `json:"score_percent"`
}

// Summary holds class-level performance figures. Every figure is rounded to
// two decimals.
type Summary struct {
	NumStudents     int     `json:"num_students"`
	AverageScore    float64 `json:"average_score"`
	MedianScore     float64 `json:"median_score"`
	PassRatePercent float64 `json:"pass_rate_percent"`
	StdDev          float64 `json:"std_dev"`
}

// Comparison pairs one student's baseline and endline scores.
type Comparison struct {
	StudentName      string  `json:"student_name"`
	BaselineScore    float64 `json:"score_percent_baseline"`
	EndlineScore     float64 `json:"score_percent_endline"`
	ScoreImprovement float64 `json:"score_improvement"`
}

// StudentRows flattens results into rows, skipping nil entries.
func StudentRows(results []*grading.AssessmentResult) []StudentRow {
	rows := make([]StudentRow, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		rows = append(rows, StudentRow{
			StudentName:    r.StudentName,
			TotalCorrect:   r.TotalCorrect,
			TotalQuestions: r.TotalQuestions,
			ScorePercent:   r.ScorePercent,
		})
	}
	return rows
}

// Summarize computes summary statistics over rows. A student passes with a
// score of at least passMark percent. The standard deviation is the sample
// deviation and is zero for fewer than two students. No rows yields a zero
// Summary.
func Summarize(rows []StudentRow, passMark float64) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	scores := make([]float64, len(rows))
	passed := 0
	for i, r := range rows {
		scores[i] = r.ScorePercent
		if r.ScorePercent >= passMark {
			passed++
		}
	}

	s := Summary{
		NumStudents:     len(rows),
		AverageScore:    round2(stat.Mean(scores, nil)),
		MedianScore:     round2(median(scores)),
		PassRatePercent: round2(float64(passed) / float64(len(rows)) * 100),
	}
	if len(scores) > 1 {
		s.StdDev = round2(stat.StdDev(scores, nil))
	}
	return s
}

// median returns the middle value of xs, averaging the two middle values
// for an even count. xs is sorted in place.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

// CompareBaselineEndline joins two assessments on student name. Only
// students present in both appear, in baseline order; a name listed more
// than once yields one comparison per pairing.
func CompareBaselineEndline(baseline, endline []StudentRow) []Comparison {
	byName := make(map[string][]StudentRow, len(endline))
	for _, r := range endline {
		byName[r.StudentName] = append(byName[r.StudentName], r)
	}

	out := make([]Comparison, 0)
	for _, b := range baseline {
		for _, e := range byName[b.StudentName] {
			out = append(out, Comparison{
				StudentName:      b.StudentName,
				BaselineScore:    b.ScorePercent,
				EndlineScore:     e.ScorePercent,
				ScoreImprovement: round2(e.ScorePercent - b.ScorePercent),
			})
		}
	}
	return out
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []StudentRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"student_name", "total_correct", "total_questions", "score_percent"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.StudentName,
			strconv.Itoa(r.TotalCorrect),
			strconv.Itoa(r.TotalQuestions),
			strconv.FormatFloat(r.ScorePercent, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV.
func ReadCSV(r io.Reader) ([]StudentRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	rows := make([]StudentRow, 0, len(records))
	for i, rec := range records {
		if i == 0 {
			continue
		}
		correct, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: total_correct: %w", i+1, err)
		}
		total, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: total_questions: %w", i+1, err)
		}
		score, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: score_percent: %w", i+1, err)
		}
		rows = append(rows, StudentRow{
			StudentName:    rec[0],
			TotalCorrect:   correct,
			TotalQuestions: total,
			ScorePercent:   score,
		})
	}
	return rows, nil
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
