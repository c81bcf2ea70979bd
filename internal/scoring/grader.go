package scoring

import (
	"fmt"
	"math"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

const (
	ModeWeighted   = "weighted"
	ModeUnweighted = "unweighted"

	DefaultWeightTolerance = 0.01
)

type Grader struct {
	WeightTolerance float64 `toml:"weight_tolerance"`
}

func NewGrader(weightTolerance float64) *Grader {
	if weightTolerance <= 0 {
		weightTolerance = DefaultWeightTolerance
	}
	return &Grader{WeightTolerance: weightTolerance}
}

type CategoryResult struct {
	Name     string   `json:"name"`
	Received float64  `json:"received"`
	Possible float64  `json:"possible"`
	Percent  float64  `json:"percent"`
	Weight   *float64 `json:"weight,omitempty"`
}

type Result struct {
	Mode          string           `json:"mode"`
	Categories    []CategoryResult `json:"categories"`
	FinalPercent  float64          `json:"final_percent"`
	GPA           *float64         `json:"gpa,omitempty"`
	TotalReceived float64          `json:"total_received"`
	TotalPossible float64          `json:"total_possible"`
	WeightTotal   float64          `json:"weight_total"`
	Balanced      bool             `json:"weights_balanced"`
}

// Grade runs the whole pipeline: policies per category, category totals,
// final percentage and GPA lookup.
func (g *Grader) Grade(
	records models.RecordsByCategory,
	weights models.WeightMap,
	policies models.PolicyMap,
	scale models.GPAScale,
) *Result {
	totals := ComputeCategoryTotals(records, policies)

	res := &Result{
		Mode:         ModeUnweighted,
		Categories:   make([]CategoryResult, 0, len(totals)),
		FinalPercent: finite(ComputeFinalPercentage(totals, weights)),
		Balanced:     true,
	}
	if weights.Weighted() {
		res.Mode = ModeWeighted
		res.WeightTotal = finite(weights.Total())
		res.Balanced = weights.Balanced(g.WeightTolerance)
	}

	for _, name := range records.Categories() {
		t := totals[name]
		row := CategoryResult{
			Name:     name,
			Received: finite(t.Received),
			Possible: finite(t.Possible),
			Percent:  finite(t.Percent()),
		}
		if w, ok := weights[name]; ok {
			row.Weight = &w
		}
		res.Categories = append(res.Categories, row)
		res.TotalReceived += t.Received
		res.TotalPossible += t.Possible
	}
	res.TotalReceived = finite(res.TotalReceived)
	res.TotalPossible = finite(res.TotalPossible)

	if gpa, ok := ResolveGPA(res.FinalPercent, scale); ok {
		res.GPA = &gpa
	}

	return res
}

// finite maps overflowed sums to 0 so results always encode.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// TotalPercent is the unweighted share of all points, used for the final grade row.
func (r *Result) TotalPercent() float64 {
	return models.CategoryTotals{Received: r.TotalReceived, Possible: r.TotalPossible}.Percent()
}

// Display is the text shown next to the grades table, e.g. "Total: 86.50% (3.00)".
func (r *Result) Display() string {
	text := fmt.Sprintf("Total: %s%%", FormatPercent(r.FinalPercent))
	if r.GPA != nil {
		text += fmt.Sprintf(" (%s)", FormatGPA(*r.GPA))
	}
	return text
}
