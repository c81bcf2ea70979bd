package models

import "math"

// WeightMap maps category name to weight in percentage points.
// An empty map selects unweighted mode.
type WeightMap map[string]float64

func (w WeightMap) Weighted() bool {
	return len(w) > 0
}

func (w WeightMap) Total() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Balanced reports whether the weights add up to 100 within tolerance.
func (w WeightMap) Balanced(tolerance float64) bool {
	return math.Abs(w.Total()-100) < tolerance
}
