package scoring

import (
	"slices"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

// ApplyPolicy returns the records that count toward a category total.
//
// Drop-lowest runs first and never removes every record. Full credit is then
// checked against what is left and, when met, collapses the category into a
// single record worth its full possible points. The input slice is not modified.
func ApplyPolicy(records []models.AssignmentRecord, policy *models.Policy) []models.AssignmentRecord {
	if policy == nil || !policy.Active() {
		return records
	}

	processed := records
	if policy.DropLowest > 0 && len(records) > policy.DropLowest {
		sorted := slices.Clone(records)
		slices.SortStableFunc(sorted, func(a, b models.AssignmentRecord) int {
			fa, fb := a.Fraction(), b.Fraction()
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		})
		processed = sorted[policy.DropLowest:]
	}

	if policy.FullCreditThreshold > 0 {
		received, possible := sumRecords(processed)
		if received >= policy.FullCreditThreshold {
			return []models.AssignmentRecord{{
				PointsReceived: possible,
				MaxPoints:      possible,
			}}
		}
	}

	return processed
}

func sumRecords(records []models.AssignmentRecord) (received, possible float64) {
	for _, r := range records {
		received += r.PointsReceived
		possible += r.MaxPoints
	}
	return received, possible
}
