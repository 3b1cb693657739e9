package validation

import (
	"regexp"

	"github.com/clinref/clinref/internal/domain/reference"
)

// The rule tables below are versioned data: adding a check means adding a
// row, never a branch. Keyword matching is substring-based and best-effort;
// see the package notes on false positives in service.go.

// dosePatterns are the accepted free-text dose shapes: plain numeric+unit,
// range+unit, and weight-based mg/kg. Hyphen and en-dash ranges both occur
// in source data.
var dosePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+(\.\d+)?\s*(mg|g|mcg|mL|IU)\b`),
	regexp.MustCompile(`^\d+(\.\d+)?\s*[-–]\s*\d+(\.\d+)?\s*(mg|g|mcg|mL|IU)\b`),
	regexp.MustCompile(`\d+(\.\d+)?(\s*[-–]\s*\d+(\.\d+)?)?\s*(mg|mcg)/kg(/day)?`),
}

// doseFormatAccepted reports whether the string matches any accepted shape.
func doseFormatAccepted(dose string) bool {
	for _, p := range dosePatterns {
		if p.MatchString(dose) {
			return true
		}
	}
	return false
}

// drugRule is one structural requirement on a drug record.
type drugRule struct {
	field    string
	code     string
	severity ErrorSeverity
	message  string
	missing  func(*reference.Drug) bool
}

var drugRequiredRules = []drugRule{
	{"name", "DRUG_NAME_REQUIRED", SeverityCritical, "drug name is required",
		func(d *reference.Drug) bool { return d.Name == "" }},
	{"class", "DRUG_CLASS_REQUIRED", SeverityHigh, "therapeutic class is required",
		func(d *reference.Drug) bool { return d.Class == "" }},
	{"dosage.adult.dose", "DRUG_ADULT_DOSE_REQUIRED", SeverityCritical, "adult dose is required",
		func(d *reference.Drug) bool { return d.Dosage.Adult.Dose == "" }},
	{"dosage.adult.regimen", "DRUG_ADULT_REGIMEN_REQUIRED", SeverityHigh, "adult regimen is required",
		func(d *reference.Drug) bool { return d.Dosage.Adult.Regimen == "" }},
	{"indications", "DRUG_INDICATIONS_REQUIRED", SeverityHigh, "at least one indication is required",
		func(d *reference.Drug) bool { return len(d.Indications) == 0 }},
	{"administration.route", "DRUG_ROUTE_REQUIRED", SeverityHigh, "administration route is required",
		func(d *reference.Drug) bool { return d.Administration.Route == "" }},
}

// procedureRule is one structural requirement on a procedure record.
type procedureRule struct {
	field    string
	code     string
	severity ErrorSeverity
	message  string
	missing  func(*reference.Procedure) bool
}

var procedureRequiredRules = []procedureRule{
	{"name", "PROC_NAME_REQUIRED", SeverityCritical, "procedure name is required",
		func(p *reference.Procedure) bool { return p.Name == "" }},
	{"diagnosis", "PROC_DIAGNOSIS_REQUIRED", SeverityCritical, "diagnosis is required",
		func(p *reference.Procedure) bool { return p.Diagnosis == "" }},
	{"management_plan", "PROC_PLAN_REQUIRED", SeverityCritical, "at least one management plan step is required",
		func(p *reference.Procedure) bool { return len(p.ManagementPlan) == 0 }},
}

// procedureAdvisoryFields lists the optional sections worth flagging when
// absent.
var procedureAdvisoryFields = []struct {
	field          string
	message        string
	recommendation string
	missing        func(*reference.Procedure) bool
}{
	{"differential_diagnosis", "no differential diagnosis recorded",
		"add differential diagnoses to support clinical reasoning",
		func(p *reference.Procedure) bool { return len(p.DifferentialDiagnosis) == 0 }},
	{"investigations", "no investigations recorded",
		"list the investigations that confirm the diagnosis",
		func(p *reference.Procedure) bool { return len(p.Investigations) == 0 }},
	{"references", "no references recorded",
		"cite the guideline or literature source",
		func(p *reference.Procedure) bool { return len(p.References) == 0 }},
}

// materialRule is one structural requirement on a material record.
type materialRule struct {
	field    string
	code     string
	severity ErrorSeverity
	message  string
	missing  func(*reference.Material) bool
}

var materialRequiredRules = []materialRule{
	{"name", "MAT_NAME_REQUIRED", SeverityCritical, "material name is required",
		func(m *reference.Material) bool { return m.Name == "" }},
	{"category", "MAT_CATEGORY_REQUIRED", SeverityHigh, "material category is required",
		func(m *reference.Material) bool { return m.Category == "" }},
	{"properties", "MAT_PROPERTIES_REQUIRED", SeverityCritical, "properties map must not be empty",
		func(m *reference.Material) bool { return len(m.Properties) == 0 }},
	{"indications", "MAT_INDICATIONS_REQUIRED", SeverityHigh, "at least one indication is required",
		func(m *reference.Material) bool { return len(m.Indications) == 0 }},
}

// materialCoreProperties are the qualitative dimensions every material
// record should describe; each absence is an individual advisory.
var materialCoreProperties = []string{"strength", "aesthetics", "durability", "biocompatibility"}

// materialAdvisoryFields lists the optional material sections worth flagging
// when absent.
var materialAdvisoryFields = []struct {
	field          string
	message        string
	recommendation string
	missing        func(*reference.Material) bool
}{
	{"contraindications", "no contraindications recorded",
		"record contraindications or state that none are known",
		func(m *reference.Material) bool { return len(m.Contraindications) == 0 }},
	{"handling", "no handling characteristics recorded",
		"describe placement and handling requirements",
		func(m *reference.Material) bool { return len(m.Handling) == 0 }},
	{"longevity", "no longevity estimate recorded",
		"add an expected service-life estimate",
		func(m *reference.Material) bool { return m.Longevity == "" }},
}

// allergyAlertRules map allergy keywords to alert severity.
var allergyAlertRules = []struct {
	keyword  string
	severity AlertSeverity
	message  string
	action   string
}{
	{"penicillin", AlertCritical,
		"documented penicillin allergy",
		"avoid all penicillin-class antibiotics; verify cross-reactivity before cephalosporins"},
	{"sulfa", AlertMajor,
		"documented sulfonamide allergy",
		"avoid sulfonamide-containing drugs"},
}

// conditionAlertRules map patient condition keywords to clinical alerts.
var conditionAlertRules = []struct {
	keywords []string
	typ      AlertType
	severity AlertSeverity
	message  string
	action   string
}{
	{[]string{"kidney", "renal"}, AlertDosage, AlertMajor,
		"renal impairment on record",
		"review renal dose adjustments and supply serum creatinine"},
	{[]string{"liver", "hepatic"}, AlertDosage, AlertMajor,
		"hepatic impairment on record",
		"review hepatic dose adjustments before prescribing"},
	{[]string{"heart", "cardiac"}, AlertContraindication, AlertModerate,
		"cardiac condition on record",
		"check cardiovascular cautions for the selected drug"},
}

// Advisory weight band outside which a weight warning fires (kg).
const (
	lowWeightKg  = 40
	highWeightKg = 120
)
