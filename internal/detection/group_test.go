package detection

import "testing"

func regionAt(x, y int) Region {
	return NewRegion(squareContour(x, y, 20))
}

func TestGroup_ReadingOrder(t *testing.T) {
	// Discovery order is scrambled; rows at y=100 and y=140.
	regions := []Region{
		regionAt(130, 140), regionAt(10, 100), regionAt(70, 140), regionAt(40, 100),
		regionAt(10, 140), regionAt(100, 100), regionAt(70, 100), regionAt(40, 140),
	}

	groups := Group(regions, 4)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	wantX := [][]int{{10, 40, 70, 100}, {10, 40, 70, 130}}
	for gi, g := range groups {
		if g.Question != gi+1 {
			t.Errorf("group %d: Question = %d, want %d", gi, g.Question, gi+1)
		}
		for ri, r := range g.Regions {
			if r.Bounds.X != wantX[gi][ri] {
				t.Errorf("group %d option %d: X = %d, want %d", gi, ri, r.Bounds.X, wantX[gi][ri])
			}
		}
	}
}

func TestGroup_DropsTrailingPartialGroup(t *testing.T) {
	regions := []Region{regionAt(10, 10), regionAt(40, 10), regionAt(70, 10)}

	if groups := Group(regions, 4); len(groups) != 0 {
		t.Errorf("expected no groups from 3 bubbles with 4 choices, got %d", len(groups))
	}

	regions = append(regions, regionAt(100, 10), regionAt(10, 50), regionAt(40, 50))
	groups := Group(regions, 4)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	for _, r := range groups[0].Regions {
		if r.Bounds.Y != 10 {
			t.Errorf("dropped group leaked into question 1: %+v", r.Bounds)
		}
	}
}

func TestGroup_Completeness(t *testing.T) {
	for n := 0; n <= 13; n++ {
		for choices := 1; choices <= 5; choices++ {
			regions := make([]Region, n)
			for i := range regions {
				regions[i] = regionAt(10+30*(i%5), 10+30*(i/5))
			}

			groups := Group(regions, choices)
			if len(groups) != n/choices {
				t.Errorf("n=%d choices=%d: got %d groups, want %d", n, choices, len(groups), n/choices)
			}

			seen := make(map[Bounds]bool)
			for _, g := range groups {
				if len(g.Regions) != choices {
					t.Errorf("n=%d choices=%d: group size %d", n, choices, len(g.Regions))
				}
				for _, r := range g.Regions {
					if seen[r.Bounds] {
						t.Errorf("n=%d choices=%d: region %+v in two groups", n, choices, r.Bounds)
					}
					seen[r.Bounds] = true
				}
			}
		}
	}
}

func TestGroup_InvalidChoices(t *testing.T) {
	regions := []Region{regionAt(10, 10)}
	if groups := Group(regions, 0); groups == nil || len(groups) != 0 {
		t.Errorf("expected empty groups for choices=0, got %v", groups)
	}
}

func TestGroup_DoesNotModifyInput(t *testing.T) {
	regions := []Region{regionAt(40, 10), regionAt(10, 10)}
	Group(regions, 2)
	if regions[0].Bounds.X != 40 {
		t.Error("input slice was reordered")
	}
}

func TestSortReadingOrder_Stable(t *testing.T) {
	a := Region{Bounds: Bounds{X: 5, Y: 5, Width: 20, Height: 20}, Area: 1}
	b := Region{Bounds: Bounds{X: 5, Y: 5, Width: 20, Height: 20}, Area: 2}

	sorted := SortReadingOrder([]Region{a, b})
	if sorted[0].Area != 1 || sorted[1].Area != 2 {
		t.Error("regions with identical corners must keep discovery order")
	}
}
