package scoring

import (
	"cmp"
	"slices"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

// ResolveGPA looks up the grade point value for a percentage.
// ok is false when the scale is empty, meaning GPA is not shown at all.
// Ranges are scanned from the highest minimum down, so overlaps resolve to the
// higher range; a percentage outside every range resolves to 0.
func ResolveGPA(percentage float64, scale models.GPAScale) (gpa float64, ok bool) {
	if len(scale) == 0 {
		return 0, false
	}

	sorted := slices.Clone(scale)
	slices.SortStableFunc(sorted, func(a, b models.GPARange) int {
		return cmp.Compare(b.MinPercent, a.MinPercent)
	})

	for _, r := range sorted {
		if r.Contains(percentage) {
			return r.GPAValue, true
		}
	}
	return 0.0, true
}

func FormatGPA(v float64) string {
	return FormatPercent(v)
}
