// Package patient defines the patient parameters record supplied by the UI
// collaborator and the physiological range checks every calculation runs
// before touching a drug record.
package patient

import (
	"fmt"
	"strings"
)

// Physiological bounds for calculation inputs. A value outside these ranges
// is an input error, not a clinical finding.
const (
	MaxAge        = 120
	MaxWeightKg   = 300
	MaxCreatinine = 20.0
)

// Gender values recognised by the engines. Only GenderFemale alters the
// Cockcroft-Gault estimate.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Parameters is the patient profile used for dosing and safety checks.
// Creatinine is optional; nil means no renal adjustment is attempted.
type Parameters struct {
	Age        int      `json:"age"`
	WeightKg   float64  `json:"weight_kg"`
	Gender     string   `json:"gender,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Allergies  []string `json:"allergies,omitempty"`
	Creatinine *float64 `json:"creatinine,omitempty"`
}

// InvalidError reports a patient parameter outside its physiological range.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid patient parameters: %s %s", e.Field, e.Reason)
}

// Validate checks the hard physiological ranges: age in (0,120], weight in
// (0,300] kg, creatinine in (0,20] mg/dL when present.
func (p *Parameters) Validate() error {
	if p.Age <= 0 || p.Age > MaxAge {
		return &InvalidError{Field: "age", Reason: fmt.Sprintf("must be in (0,%d] years", MaxAge)}
	}
	if p.WeightKg <= 0 || p.WeightKg > MaxWeightKg {
		return &InvalidError{Field: "weight", Reason: fmt.Sprintf("must be in (0,%d] kg", MaxWeightKg)}
	}
	if p.Creatinine != nil && (*p.Creatinine <= 0 || *p.Creatinine > MaxCreatinine) {
		return &InvalidError{Field: "creatinine", Reason: fmt.Sprintf("must be in (0,%g] mg/dL", MaxCreatinine)}
	}
	return nil
}

// Pediatric reports whether pediatric dosing applies.
func (p *Parameters) Pediatric() bool { return p.Age < 18 }

// Elderly reports whether geriatric cautions apply.
func (p *Parameters) Elderly() bool { return p.Age >= 65 }

// HasCondition reports whether any recorded condition contains one of the
// given lowercase keywords.
func (p *Parameters) HasCondition(keywords ...string) bool {
	for _, c := range p.Conditions {
		lc := strings.ToLower(c)
		for _, kw := range keywords {
			if strings.Contains(lc, kw) {
				return true
			}
		}
	}
	return false
}
