package models

import (
	"fmt"
	"maps"
	"slices"
)

// CourseSettings is everything persisted for one course.
// Feature flags mirror the toggles shown next to the grades table.
type CourseSettings struct {
	Course          string    `json:"course" validate:"required,max=64"`
	WeightsEnabled  bool      `json:"weights_enabled"`
	Weights         WeightMap `json:"weights,omitempty" validate:"dive,keys,required,endkeys"`
	PoliciesEnabled bool      `json:"policies_enabled"`
	Policies        PolicyMap `json:"policies,omitempty" validate:"dive,keys,required,endkeys"`
	GPAEnabled      bool      `json:"gpa_enabled"`
	GPAScale        GPAScale  `json:"gpa_scale,omitempty" validate:"dive"`
	UpdatedAt       int64     `json:"updated_at"`
}

func DefaultCourseSettings(course string) *CourseSettings {
	return &CourseSettings{Course: course}
}

// Normalize drops inactive policies and inverted GPA ranges.
func (s *CourseSettings) Normalize() {
	s.Policies = s.Policies.Active()
	s.GPAScale = s.GPAScale.Sanitized()
}

func (s *CourseSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	// map values are not walked by the struct tags
	for _, category := range slices.Sorted(maps.Keys(s.Policies)) {
		p := s.Policies[category]
		if err := validate.Struct(&p); err != nil {
			return fmt.Errorf("policy for %s: %w", category, err)
		}
	}
	return nil
}

// EffectiveWeights returns the custom weights when enabled, otherwise defaults.
func (s *CourseSettings) EffectiveWeights(defaults WeightMap) WeightMap {
	if s == nil || !s.WeightsEnabled {
		return defaults
	}
	if s.Weights == nil {
		return WeightMap{}
	}
	return s.Weights
}

func (s *CourseSettings) EffectivePolicies() PolicyMap {
	if s == nil || !s.PoliciesEnabled {
		return nil
	}
	return s.Policies
}

func (s *CourseSettings) EffectiveScale() GPAScale {
	if s == nil || !s.GPAEnabled {
		return nil
	}
	return s.GPAScale
}
