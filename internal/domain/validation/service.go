package validation

import (
	"fmt"
	"strings"

	"github.com/clinref/clinref/internal/domain/patient"
	"github.com/clinref/clinref/internal/domain/reference"
)

// Validator is a stateless classifier over reference records and patient
// input. Keyword and substring matching is best-effort: it trades recall for
// precision and is meant to be replaced by exact identifier matching once a
// richer interaction database exists.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDrug runs the structural checks for a drug record.
func (v *Validator) ValidateDrug(d *reference.Drug) *Result {
	r := &Result{}
	for _, rule := range drugRequiredRules {
		if rule.missing(d) {
			r.addError(rule.field, rule.message, rule.severity, rule.code)
		}
	}
	if d.Dosage.Adult.Dose != "" && !doseFormatAccepted(d.Dosage.Adult.Dose) {
		r.addWarning("dosage.adult.dose",
			fmt.Sprintf("dose %q does not match an accepted format", d.Dosage.Adult.Dose),
			"use numeric+unit, range+unit, or mg/kg forms")
	}
	if len(d.Contraindications) == 0 {
		r.addWarning("contraindications", "no contraindications recorded",
			"record contraindications or state that none are known")
	}
	for i, ind := range d.Indications {
		if ind.EvidenceLevel == "" {
			r.addWarning(fmt.Sprintf("indications[%d].evidence_level", i),
				fmt.Sprintf("indication %q has no evidence level", ind.Description),
				"grade the supporting evidence (A/B/C)")
		}
	}
	return r.finalize()
}

// ValidateProcedure runs the structural checks for a procedure record.
func (v *Validator) ValidateProcedure(p *reference.Procedure) *Result {
	r := &Result{}
	for _, rule := range procedureRequiredRules {
		if rule.missing(p) {
			r.addError(rule.field, rule.message, rule.severity, rule.code)
		}
	}
	for i, step := range p.ManagementPlan {
		if step.Title == "" {
			r.addError(fmt.Sprintf("management_plan[%d].title", i),
				"plan step title is required", SeverityCritical, "PROC_STEP_TITLE_REQUIRED")
		}
		if step.Description == "" {
			r.addError(fmt.Sprintf("management_plan[%d].description", i),
				"plan step description is required", SeverityHigh, "PROC_STEP_DESC_REQUIRED")
		}
	}
	for _, adv := range procedureAdvisoryFields {
		if adv.missing(p) {
			r.addWarning(adv.field, adv.message, adv.recommendation)
		}
	}
	return r.finalize()
}

// ValidateMaterial runs the structural checks for a material record.
func (v *Validator) ValidateMaterial(m *reference.Material) *Result {
	r := &Result{}
	for _, rule := range materialRequiredRules {
		if rule.missing(m) {
			r.addError(rule.field, rule.message, rule.severity, rule.code)
		}
	}
	for _, key := range materialCoreProperties {
		if _, ok := m.Properties[key]; !ok {
			r.addWarning("properties."+key,
				fmt.Sprintf("property %q is not described", key),
				"describe this dimension for material selection")
		}
	}
	for _, adv := range materialAdvisoryFields {
		if adv.missing(m) {
			r.addWarning(adv.field, adv.message, adv.recommendation)
		}
	}
	return r.finalize()
}

// ValidatePatient checks physiological plausibility and raises the clinical
// alerts a patient profile carries on its own.
func (v *Validator) ValidatePatient(p *patient.Parameters) *Result {
	r := &Result{}
	if p.Age <= 0 {
		r.addError("age", "age must be positive", SeverityCritical, "PATIENT_AGE_INVALID")
	}
	if p.WeightKg <= 0 {
		r.addError("weight", "weight must be positive", SeverityCritical, "PATIENT_WEIGHT_INVALID")
	}
	if p.WeightKg > 0 && (p.WeightKg < lowWeightKg || p.WeightKg > highWeightKg) {
		r.addWarning("weight",
			fmt.Sprintf("weight %.1f kg is outside the typical adult range", p.WeightKg),
			"confirm the recorded weight before dosing")
	}
	if p.Age > 0 && p.Age < 18 {
		r.addAlert(AlertAgeRestriction, "pediatric patient", AlertMajor,
			"verify pediatric dosing and formulation availability")
	}
	if p.Age > 65 {
		r.addAlert(AlertAgeRestriction, "geriatric patient", AlertModerate,
			"consider reduced starting doses and renal function")
	}
	for _, allergy := range p.Allergies {
		la := strings.ToLower(allergy)
		for _, rule := range allergyAlertRules {
			if strings.Contains(la, rule.keyword) {
				r.addAlert(AlertAllergy, rule.message, rule.severity, rule.action)
			}
		}
	}
	for _, rule := range conditionAlertRules {
		if p.HasCondition(rule.keywords...) {
			r.addAlert(rule.typ, rule.message, rule.severity, rule.action)
		}
	}
	return r.finalize()
}

// ValidateDrugForPatient is the safety gate run before dosing: it cross
// matches the drug against the patient profile and reports only clinical
// alerts and advisories, never structural errors. Validity here means the
// absence of critical alerts.
func (v *Validator) ValidateDrugForPatient(d *reference.Drug, p *patient.Parameters) *Result {
	r := &Result{}
	for _, contra := range d.Contraindications {
		lc := strings.ToLower(contra)
		for _, cond := range p.Conditions {
			if textMatches(lc, strings.ToLower(cond)) {
				r.addAlert(AlertContraindication,
					fmt.Sprintf("%s is contraindicated: %s (patient condition: %s)", d.Name, contra, cond),
					AlertCritical, "select an alternative agent")
			}
		}
	}
	for _, allergy := range p.Allergies {
		la := strings.ToLower(allergy)
		if textMatches(strings.ToLower(d.Name), la) || textMatches(strings.ToLower(d.Class), la) {
			r.addAlert(AlertAllergy,
				fmt.Sprintf("patient allergy %q matches %s (%s)", allergy, d.Name, d.Class),
				AlertCritical, "do not prescribe; document the allergy match")
		}
	}
	if p.Pediatric() && d.Dosage.Pediatric.Dose == "" {
		r.addWarning("dosage.pediatric",
			fmt.Sprintf("%s has no pediatric dosing data", d.Name),
			"seek specialist pediatric dosing guidance")
	}
	return r.finalize()
}

// ValidateWorkflow unions validation across whichever records are supplied
// alongside the mandatory patient profile. Overall validity requires zero
// errors and zero critical alerts across the union.
func (v *Validator) ValidateWorkflow(d *reference.Drug, proc *reference.Procedure, m *reference.Material, p *patient.Parameters) *Result {
	r := v.ValidatePatient(p)
	if d != nil {
		r.Merge(v.ValidateDrug(d))
		r.Merge(v.ValidateDrugForPatient(d, p))
	}
	if proc != nil {
		r.Merge(v.ValidateProcedure(proc))
	}
	if m != nil {
		r.Merge(v.ValidateMaterial(m))
	}
	return r
}

// textMatches reports a bidirectional substring match between two
// already-lowercased strings. Empty strings never match.
func textMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
