package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// OptionResult is the resolved answer for one question.
type OptionResult struct {
	// Question is the 1-based question number.
	Question int `json:"question_index"`

	// Selected is the chosen option letter, or nil when no bubble reached
	// the fill threshold.
	Selected *string `json:"selected_option"`

	// Confidence is the highest fill ratio in the group, rounded to two
	// decimals. It is reported even when nothing was selected.
	Confidence float64 `json:"confidence"`
}

// Resolve picks the selected option of a question from its fill ratios.
//
// The option with the highest ratio is selected when that ratio is at least
// threshold; otherwise no option is selected. When several options share the
// highest ratio the first one in reading order wins. That tie-break is
// arbitrary but deterministic and callers depend on it.
//
// Raising the threshold can only turn a selection into no selection; it
// never changes which letter is chosen.
func Resolve(question int, ratios []float64, threshold float64) OptionResult {
	res := OptionResult{Question: question}
	if len(ratios) == 0 {
		return res
	}

	idx := floats.MaxIdx(ratios)
	best := ratios[idx]
	res.Confidence = math.RoundToEven(best*100) / 100
	if best >= threshold {
		letter := OptionLetter(idx)
		res.Selected = &letter
	}
	return res
}

// OptionLetter maps a zero-based option position to its uppercase letter.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}
