// Package validation classifies reference records and patient input for data
// quality and clinical risk. Every entry point is a pure function of its
// inputs: no record is mutated, no state is kept, and identical inputs
// always yield identical results. All classification rules live in
// package-level tables (rules.go) so they can be extended without touching
// control flow.
package validation

import "fmt"

// ErrorSeverity grades structural validation errors.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
)

// AlertSeverity grades clinical alerts.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertMajor    AlertSeverity = "major"
	AlertModerate AlertSeverity = "moderate"
	AlertMinor    AlertSeverity = "minor"
)

// AlertType categorises a clinical alert.
type AlertType string

const (
	AlertContraindication AlertType = "contraindication"
	AlertInteraction      AlertType = "interaction"
	AlertDosage           AlertType = "dosage"
	AlertAllergy          AlertType = "allergy"
	AlertAgeRestriction   AlertType = "age_restriction"
)

// Error is a structural validation failure on a record field.
type Error struct {
	Field    string        `json:"field"`
	Message  string        `json:"message"`
	Severity ErrorSeverity `json:"severity"`
	Code     string        `json:"code"`
}

// Warning is an advisory finding with a recommendation.
type Warning struct {
	Field          string `json:"field"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// ClinicalAlert is a safety-relevant finding. Alerts are data, never errors:
// callers must be able to render why a computation was refused.
type ClinicalAlert struct {
	Type     AlertType     `json:"type"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
	Action   string        `json:"action,omitempty"`
}

// Result is the outcome of one validation pass. IsValid is false whenever
// any Error exists or any ClinicalAlert is critical.
type Result struct {
	IsValid        bool            `json:"is_valid"`
	Errors         []Error         `json:"errors,omitempty"`
	Warnings       []Warning       `json:"warnings,omitempty"`
	ClinicalAlerts []ClinicalAlert `json:"clinical_alerts,omitempty"`
}

func (r *Result) addError(field, message string, sev ErrorSeverity, code string) {
	r.Errors = append(r.Errors, Error{Field: field, Message: message, Severity: sev, Code: code})
}

func (r *Result) addWarning(field, message, recommendation string) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Message: message, Recommendation: recommendation})
}

func (r *Result) addAlert(t AlertType, message string, sev AlertSeverity, action string) {
	r.ClinicalAlerts = append(r.ClinicalAlerts, ClinicalAlert{Type: t, Message: message, Severity: sev, Action: action})
}

// finalize computes IsValid from the collected findings.
func (r *Result) finalize() *Result {
	r.IsValid = len(r.Errors) == 0 && !r.hasCriticalAlert()
	return r
}

func (r *Result) hasCriticalAlert() bool {
	for _, a := range r.ClinicalAlerts {
		if a.Severity == AlertCritical {
			return true
		}
	}
	return false
}

func (r *Result) countErrors(sev ErrorSeverity) int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

func (r *Result) countAlerts(sev AlertSeverity) int {
	n := 0
	for _, a := range r.ClinicalAlerts {
		if a.Severity == sev {
			n++
		}
	}
	return n
}

// Merge unions another result into this one and recomputes validity.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.ClinicalAlerts = append(r.ClinicalAlerts, other.ClinicalAlerts...)
	r.finalize()
}

// Summary renders a result as a single status line. It is a pure, total
// function of the finding counts: critical findings dominate, then
// high/major findings, then advisories.
func Summary(r *Result) string {
	critical := r.countErrors(SeverityCritical) + r.countAlerts(AlertCritical)
	if critical > 0 {
		return fmt.Sprintf("CRITICAL: %d issues require immediate attention", critical)
	}
	high := r.countErrors(SeverityHigh) + r.countAlerts(AlertMajor)
	if high > 0 {
		return fmt.Sprintf("WARNING: %d issues should be reviewed", high)
	}
	if n := len(r.Warnings); n > 0 {
		return fmt.Sprintf("INFO: %d recommendations available", n)
	}
	return "VALID"
}
