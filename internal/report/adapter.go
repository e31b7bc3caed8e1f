package report

import "sort"

// FilterMode selects the interactive deficit list view.
type FilterMode string

const (
	FilterAll        FilterMode = "all"
	FilterHigh       FilterMode = "high"
	FilterHorizontal FilterMode = "horizontal"
	FilterVertical   FilterMode = "vertical"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Criticality grades a deficit by the exposure it touches.
func Criticality(affectedValue float64) string {
	switch {
	case affectedValue >= 60000:
		return "High"
	case affectedValue > 0:
		return "Medium"
	default:
		return "Low"
	}
}

// View returns the filter-bucketed, sorted deficit list for interactive
// display. The input slice is never mutated; filtering only removes rows the
// selected bucket excludes and never duplicates any.
func View(deficits []DeficitRecord, filter FilterMode, dir SortDir) []DeficitRecord {
	out := make([]DeficitRecord, 0, len(deficits))
	for _, d := range deficits {
		switch filter {
		case FilterHigh:
			if d.Criticality != "High" {
				continue
			}
		case FilterHorizontal:
			if d.Direction != "Horizontal" {
				continue
			}
		case FilterVertical:
			if d.Direction != "Vertical" {
				continue
			}
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == SortAsc {
			return out[i].AffectedValue < out[j].AffectedValue
		}
		return out[i].AffectedValue > out[j].AffectedValue
	})

	return out
}

// PrintView flattens the deficit list for the printable report: always the
// full unfiltered set, sorted by financial exposure descending regardless of
// the interactive filter state.
func PrintView(deficits []DeficitRecord) []DeficitRecord {
	return View(deficits, FilterAll, SortDesc)
}
