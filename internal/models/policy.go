package models

// Policy is an exclusion rule for a single category.
// A zero Policy does nothing.
type Policy struct {
	DropLowest          int     `json:"drop_lowest" validate:"gte=0"`
	FullCreditThreshold float64 `json:"full_credit_threshold" validate:"gte=0"`
}

func (p Policy) Active() bool {
	return p.DropLowest > 0 || p.FullCreditThreshold > 0
}

// PolicyMap maps category name to its policy. A nil map means policies are off.
type PolicyMap map[string]Policy

// For returns the policy configured for category, or nil.
func (pm PolicyMap) For(category string) *Policy {
	if pm == nil {
		return nil
	}
	p, ok := pm[category]
	if !ok {
		return nil
	}
	return &p
}

// Active drops categories whose policy is a no-op.
func (pm PolicyMap) Active() PolicyMap {
	if pm == nil {
		return nil
	}
	out := make(PolicyMap, len(pm))
	for category, p := range pm {
		if p.Active() {
			out[category] = p
		}
	}
	return out
}
