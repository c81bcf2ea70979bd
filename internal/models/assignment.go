package models

import (
	"fmt"
	"math"
	"sort"
)

// AssignmentRecord is one graded assignment as read from the grades table.
type AssignmentRecord struct {
	PointsReceived float64 `json:"points_received"`
	MaxPoints      float64 `json:"max_points" validate:"gt=0"`
}

// Fraction is the share of max points earned, or 0 when max points is not positive.
func (r AssignmentRecord) Fraction() float64 {
	if r.MaxPoints <= 0 {
		return 0
	}
	return r.PointsReceived / r.MaxPoints
}

func (r *AssignmentRecord) Validate() error {
	if math.IsNaN(r.PointsReceived) || math.IsInf(r.PointsReceived, 0) {
		return fmt.Errorf("points_received must be a finite number")
	}
	if math.IsNaN(r.MaxPoints) || math.IsInf(r.MaxPoints, 0) {
		return fmt.Errorf("max_points must be a finite number")
	}
	return validate.Struct(r)
}

// RecordsByCategory keeps assignment records in table order per category.
type RecordsByCategory map[string][]AssignmentRecord

func (rc RecordsByCategory) Add(category string, record AssignmentRecord) {
	rc[category] = append(rc[category], record)
}

// Categories returns category names sorted alphabetically.
func (rc RecordsByCategory) Categories() []string {
	names := make([]string, 0, len(rc))
	for name := range rc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type CategoryTotals struct {
	Received float64 `json:"received"`
	Possible float64 `json:"possible"`
}

func (t CategoryTotals) Percent() float64 {
	if t.Possible <= 0 {
		return 0
	}
	return t.Received / t.Possible * 100
}
