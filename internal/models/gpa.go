package models

// GPARange maps an inclusive percentage range to a grade point value.
type GPARange struct {
	MinPercent float64 `json:"min_percent" db:"min_percent"`
	MaxPercent float64 `json:"max_percent" db:"max_percent" validate:"gtefield=MinPercent"`
	GPAValue   float64 `json:"gpa_value" db:"gpa_value"`
}

func (r GPARange) Contains(percentage float64) bool {
	return percentage >= r.MinPercent && percentage <= r.MaxPercent
}

// GPAScale is an unordered set of ranges; overlaps are allowed.
type GPAScale []GPARange

// Sanitized keeps only ranges with max >= min, preserving order.
func (s GPAScale) Sanitized() GPAScale {
	if s == nil {
		return nil
	}
	out := make(GPAScale, 0, len(s))
	for _, r := range s {
		if r.MaxPercent >= r.MinPercent {
			out = append(out, r)
		}
	}
	return out
}
