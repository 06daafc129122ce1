// Package grading compares resolved answers against an answer key.
package grading

import (
	"math"

	"github.com/gauravn17/ImpactOCR/internal/detection"
)

// AnswerKey is the ordered list of expected option letters, one per
// question. AnswerKey[0] is the answer to question 1.
type AnswerKey []string

// GradedQuestion pairs one resolved question with its expected answer.
type GradedQuestion struct {
	Question int `json:"question_index"`

	// Selected is the detected answer, nil when none was detected.
	Selected *string `json:"selected"`

	// Correct is the expected answer, nil when the key is shorter than the
	// number of detected questions.
	Correct *string `json:"correct"`

	IsCorrect  bool    `json:"is_correct"`
	Confidence float64 `json:"confidence"`
}

// AssessmentResult is the grading record of one sheet.
//
// Every field is always present: a zero-question key or a sheet without
// detected bubbles yields zero counts and an empty Details list.
type AssessmentResult struct {
	StudentName    string           `json:"student_name"`
	TotalCorrect   int              `json:"total_correct"`
	TotalQuestions int              `json:"total_questions"`
	ScorePercent   float64          `json:"score_percent"`
	Details        []GradedQuestion `json:"details"`
}

// Grade scores resolved options against key.
//
// Questions are graded in order; option i is compared with key[i]. A
// question beyond the end of the key is recorded with no correct answer and
// can never be correct. A question with no selected option is never correct,
// whatever the key says. TotalQuestions is the key length, not the number of
// detected questions, so missing bubbles count against the score. An empty
// key scores 0.
func Grade(options []detection.OptionResult, key AnswerKey, studentName string) *AssessmentResult {
	res := &AssessmentResult{
		StudentName:    studentName,
		TotalQuestions: len(key),
		Details:        make([]GradedQuestion, 0, len(options)),
	}

	for i, opt := range options {
		q := GradedQuestion{
			Question:   opt.Question,
			Selected:   copyLetter(opt.Selected),
			Confidence: opt.Confidence,
		}
		if i < len(key) {
			correct := key[i]
			q.Correct = &correct
		}
		q.IsCorrect = q.Selected != nil && q.Correct != nil && *q.Selected == *q.Correct
		if q.IsCorrect {
			res.TotalCorrect++
		}
		res.Details = append(res.Details, q)
	}

	res.ScorePercent = ScorePercent(res.TotalCorrect, res.TotalQuestions)
	return res
}

// ScorePercent returns correct/total as a percentage rounded to two
// decimals, or 0 when total is 0.
func ScorePercent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.RoundToEven(float64(correct)/float64(total)*100*100) / 100
}

func copyLetter(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
