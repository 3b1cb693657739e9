package interaction

import "strings"

// Classification tables. These are versioned data, ordered by specificity:
// the first matching row decides, so "contraindicated" always beats "major"
// regardless of what else the description mentions.

// severityKeywords classify an effect description. Rows are checked in
// order; the fallback is minor.
var severityKeywords = []struct {
	severity Severity
	keywords []string
}{
	{SeverityContraindicated, []string{"contraindicated", "avoid", "do not use together"}},
	{SeverityMajor, []string{"major", "severe", "life-threatening", "rhabdomyolysis"}},
	{SeverityModerate, []string{"moderate", "significant", "increased risk", "toxicity"}},
}

// classifySeverity scans an effect description under the fixed keyword
// precedence.
func classifySeverity(effect string) Severity {
	le := strings.ToLower(effect)
	for _, row := range severityKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(le, kw) {
				return row.severity
			}
		}
	}
	return SeverityMinor
}

// classRule is one class-based heuristic pairing. classA and classB are
// lowercase substrings matched against the two drugs' therapeutic classes in
// either order.
type classRule struct {
	classA     string
	classB     string
	effect     string
	management string
	severity   Severity
}

var classRules = []classRule{
	{"nsaid", "nsaid",
		"Duplicate NSAID therapy: increased risk of GI bleeding and renal impairment",
		"Use a single NSAID at the lowest effective dose",
		SeverityModerate},
	{"penicillin", "oral contraceptive",
		"Possible reduced contraceptive efficacy during antibiotic therapy",
		"Advise additional contraceptive precautions for the course",
		SeverityModerate},
	{"macrolide", "statin",
		"Inhibited statin metabolism: increased risk of myopathy and rhabdomyolysis",
		"Suspend the statin for the duration of the macrolide course",
		SeverityMajor},
}

// matchClassRule finds the first heuristic matching the two classes in
// either order.
func matchClassRule(classA, classB string) *classRule {
	a, b := strings.ToLower(classA), strings.ToLower(classB)
	for i := range classRules {
		r := &classRules[i]
		if (strings.Contains(a, r.classA) && strings.Contains(b, r.classB)) ||
			(strings.Contains(b, r.classA) && strings.Contains(a, r.classB)) {
			return r
		}
	}
	return nil
}

// recommendationPrefix tailors the per-interaction warning to its severity.
var recommendationPrefix = map[Severity]string{
	SeverityContraindicated: "Do not use together",
	SeverityMajor:           "Monitor closely",
	SeverityModerate:        "Use with caution",
	SeverityMinor:           "Be aware of the combination",
}

// matchDrugName reports whether an interaction entry's target name matches a
// drug name. Containment in either direction tolerates salts and
// formulations ("warfarin" vs "Warfarin sodium").
func matchDrugName(entryName, drugName string) bool {
	a := strings.ToLower(strings.TrimSpace(entryName))
	b := strings.ToLower(strings.TrimSpace(drugName))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
