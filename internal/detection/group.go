package detection

import "sort"

// BubbleGroup is one question's option set: exactly choices-per-question
// regions in reading order.
type BubbleGroup struct {
	// Question is the 1-based question number, assigned by group position.
	Question int `json:"question_index"`

	// Regions holds the options, left to right; Regions[0] is option A.
	Regions []Region `json:"regions"`
}

// Group orders regions top-to-bottom, then left-to-right, and partitions them
// into consecutive groups of choices regions.
//
// Regions are sorted by the top edge, ties broken by the left edge; the sort
// is stable, so identical corners keep discovery order. A trailing chunk
// shorter than choices is dropped, never padded: a partial group cannot be
// attributed to a question. Question numbers come from group position, not
// from any label printed on the sheet.
//
// The reading order assumes a single-column, unrotated layout. Multi-column
// sheets are grouped row by row across columns.
//
// The input slice is not modified. choices < 1 yields no groups.
func Group(regions []Region, choices int) []BubbleGroup {
	groups := make([]BubbleGroup, 0)
	if choices < 1 {
		return groups
	}

	sorted := SortReadingOrder(regions)
	for i := 0; i+choices <= len(sorted); i += choices {
		groups = append(groups, BubbleGroup{
			Question: len(groups) + 1,
			Regions:  sorted[i : i+choices : i+choices],
		})
	}
	return groups
}

// SortReadingOrder returns a copy of regions sorted by (Y, X).
func SortReadingOrder(regions []Region) []Region {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Bounds, sorted[j].Bounds
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return sorted
}
