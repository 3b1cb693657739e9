// Package interaction resolves pairwise drug interactions and patient
// contraindications. Explicit interaction entries on the drug records are
// preferred; a small class-based heuristic table supplements them where
// pairwise data is sparse. Both layers match free text and are best-effort:
// they trade recall for precision and are designed to be replaced by exact
// identifier matching against a richer interaction database.
package interaction

// Severity grades one pairwise interaction.
type Severity string

const (
	SeverityMinor           Severity = "minor"
	SeverityModerate        Severity = "moderate"
	SeverityMajor           Severity = "major"
	SeverityContraindicated Severity = "contraindicated"
)

// RiskLevel is the aggregate risk for a drug combination.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Source records which layer produced a finding.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceClass    Source = "class-heuristic"
)

// Finding is one pairwise interaction between two drugs.
type Finding struct {
	DrugA      string   `json:"drug_a"`
	DrugB      string   `json:"drug_b"`
	Effect     string   `json:"effect"`
	Management string   `json:"management,omitempty"`
	Severity   Severity `json:"severity"`
	Source     Source   `json:"source"`
}

// Contraindication is a drug flagged against the patient profile.
type Contraindication struct {
	Drug   string `json:"drug"`
	Reason string `json:"reason"`
}

// CheckWarning is an advisory produced by the checker.
type CheckWarning struct {
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Result is the outcome of one combination check.
type Result struct {
	Interactions      []Finding          `json:"interactions"`
	Contraindications []Contraindication `json:"contraindications"`
	Warnings          []CheckWarning     `json:"warnings"`
	OverallRisk       RiskLevel          `json:"overall_risk"`
}
