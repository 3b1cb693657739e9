// Package dosage computes patient-specific doses from free-text reference
// dosing data. The engine is deterministic: the same patient, drug, and
// procedure hint always produce a byte-identical result.
package dosage

import (
	"fmt"

	"github.com/clinref/clinref/internal/domain/validation"
)

// Sentinel dosage values. They are data, not errors: the caller must be able
// to render why a dose was refused or left unresolved.
const (
	Contraindicated = "CONTRAINDICATED"
	ManualQuantity  = "Calculate manually"
)

// DefaultDurationDays applies when a regimen string carries no duration.
const DefaultDurationDays = 7

// Warning is a dosing caution attached to a result.
type Warning struct {
	Message  string                   `json:"message"`
	Severity validation.AlertSeverity `json:"severity"`
}

// Result is a computed dose. Adjustments maps "renal"/"hepatic" to the
// explanation for any dose override applied.
type Result struct {
	DrugName          string            `json:"drug_name"`
	Dosage            string            `json:"dosage"`
	Frequency         string            `json:"frequency"`
	Duration          string            `json:"duration"`
	TotalQuantity     string            `json:"total_quantity"`
	ClinicalNotes     []string          `json:"clinical_notes,omitempty"`
	Warnings          []Warning         `json:"warnings,omitempty"`
	Contraindications []string          `json:"contraindications,omitempty"`
	Adjustments       map[string]string `json:"adjustments,omitempty"`
}

// NotFoundError reports a drug name with no match in the reference data.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("drug %q not found in reference data", e.Name)
}
