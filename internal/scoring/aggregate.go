package scoring

import (
	"math"
	"strconv"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

// ComputeCategoryTotals applies each category's policy and sums what remains.
// A nil policy map disables policies entirely.
func ComputeCategoryTotals(byCategory models.RecordsByCategory, policies models.PolicyMap) map[string]models.CategoryTotals {
	totals := make(map[string]models.CategoryTotals, len(byCategory))
	for category, records := range byCategory {
		received, possible := sumRecords(ApplyPolicy(records, policies.For(category)))
		totals[category] = models.CategoryTotals{
			Received: received,
			Possible: possible,
		}
	}
	return totals
}

// ComputeFinalPercentage turns category totals into a course percentage.
//
// With no weights it is points earned over points possible. With weights it is
// a weighted average renormalised over the weight of categories that actually
// have points possible and a non-zero weight. Empty denominators yield 0.
func ComputeFinalPercentage(totals map[string]models.CategoryTotals, weights models.WeightMap) float64 {
	if !weights.Weighted() {
		var received, possible float64
		for _, t := range totals {
			if t.Possible <= 0 {
				continue
			}
			received += t.Received
			possible += t.Possible
		}
		if possible <= 0 {
			return 0
		}
		return received / possible * 100
	}

	var weightedSum, weightUsed float64
	for category, t := range totals {
		weight, ok := weights[category]
		if !ok || weight == 0 || t.Possible <= 0 {
			continue
		}
		weightedSum += t.Received / t.Possible * weight
		weightUsed += weight
	}
	if weightUsed <= 0 {
		return 0
	}
	return weightedSum * 100 / weightUsed
}

// FormatPercent renders a percentage with two decimals; NaN and Inf render as 0.00.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
