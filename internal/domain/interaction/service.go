package interaction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinref/clinref/internal/domain/patient"
	"github.com/clinref/clinref/internal/domain/reference"
)

// Checker resolves drug combinations against explicit interaction entries
// and the class-heuristic table. Pairwise outcomes are cached for the
// session keyed by the canonical (sorted) id pair; the cache never expires
// on its own and must be invalidated when reference data reloads.
type Checker struct {
	drugs  reference.DrugRepository
	logger zerolog.Logger

	mu    sync.RWMutex
	pairs map[string]*Finding // nil value records a known non-interacting pair
}

// NewChecker creates an interaction checker.
func NewChecker(drugs reference.DrugRepository, logger zerolog.Logger) *Checker {
	return &Checker{drugs: drugs, logger: logger, pairs: make(map[string]*Finding)}
}

// InvalidateCache drops every cached pair outcome. Call after the drug
// reference collection reloads.
func (c *Checker) InvalidateCache() {
	c.mu.Lock()
	c.pairs = make(map[string]*Finding)
	c.mu.Unlock()
}

// Check evaluates every unordered pair of the given drugs plus, when a
// patient profile is supplied, each drug's contraindications against that
// profile. Fewer than two ids is a no-op fast path. Unknown ids are skipped:
// a lookup miss is not an error.
func (c *Checker) Check(ctx context.Context, drugIDs []uuid.UUID, p *patient.Parameters) (*Result, error) {
	res := &Result{
		Interactions:      []Finding{},
		Contraindications: []Contraindication{},
		Warnings:          []CheckWarning{},
		OverallRisk:       RiskLow,
	}
	if len(drugIDs) < 2 {
		return res, nil
	}

	var drugs []*reference.Drug
	for _, id := range drugIDs {
		d, err := c.drugs.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve drug %s: %w", id, err)
		}
		if d == nil {
			c.logger.Warn().Str("id", id.String()).Msg("drug id not found; skipped in interaction check")
			continue
		}
		drugs = append(drugs, d)
	}

	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			if f := c.pairFinding(drugs[i], drugs[j]); f != nil {
				res.Interactions = append(res.Interactions, *f)
			}
		}
	}
	if p != nil {
		res.Contraindications = patientContraindications(drugs, p)
	}
	res.Warnings = c.synthesizeWarnings(res, drugs, p)
	res.OverallRisk = aggregateRisk(res)
	return res, nil
}

// pairFinding resolves one unordered pair through the cache.
func (c *Checker) pairFinding(a, b *reference.Drug) *Finding {
	key := pairKey(a.ID, b.ID)
	c.mu.RLock()
	f, hit := c.pairs[key]
	c.mu.RUnlock()
	if hit {
		return f
	}
	f = resolvePair(a, b)
	c.mu.Lock()
	c.pairs[key] = f
	c.mu.Unlock()
	return f
}

// resolvePair checks explicit entries in both directions, then falls back to
// the class-heuristic table.
func resolvePair(a, b *reference.Drug) *Finding {
	if entry := explicitEntry(a, b.Name); entry != nil {
		return &Finding{
			DrugA: a.Name, DrugB: b.Name,
			Effect: entry.Effect, Management: entry.Management,
			Severity: classifySeverity(entry.Effect), Source: SourceExplicit,
		}
	}
	if entry := explicitEntry(b, a.Name); entry != nil {
		return &Finding{
			DrugA: a.Name, DrugB: b.Name,
			Effect: entry.Effect, Management: entry.Management,
			Severity: classifySeverity(entry.Effect), Source: SourceExplicit,
		}
	}
	if rule := matchClassRule(a.Class, b.Class); rule != nil {
		return &Finding{
			DrugA: a.Name, DrugB: b.Name,
			Effect: rule.effect, Management: rule.management,
			Severity: rule.severity, Source: SourceClass,
		}
	}
	return nil
}

func explicitEntry(d *reference.Drug, otherName string) *reference.Interaction {
	for i := range d.Interactions {
		if matchDrugName(d.Interactions[i].Drug, otherName) {
			return &d.Interactions[i]
		}
	}
	return nil
}

// patientContraindications scans each drug's contraindication strings
// against the patient profile: allergies, conditions, age qualifiers, and
// pregnancy or lactation terms.
func patientContraindications(drugs []*reference.Drug, p *patient.Parameters) []Contraindication {
	pregnant := p.HasCondition("pregnan")
	out := []Contraindication{}
	for _, d := range drugs {
		for _, contra := range d.Contraindications {
			lc := strings.ToLower(contra)
			switch {
			case allergyMatches(lc, p.Allergies):
				out = append(out, Contraindication{Drug: d.Name,
					Reason: fmt.Sprintf("contraindication %q matches a recorded allergy", contra)})
			case conditionMatches(lc, p.Conditions):
				out = append(out, Contraindication{Drug: d.Name,
					Reason: fmt.Sprintf("contraindication %q matches a recorded condition", contra)})
			case p.Age < 18 && (strings.Contains(lc, "children") || strings.Contains(lc, "pediatric")):
				out = append(out, Contraindication{Drug: d.Name,
					Reason: fmt.Sprintf("contraindicated in children: %s", contra)})
			case p.Age > 65 && strings.Contains(lc, "elderly"):
				out = append(out, Contraindication{Drug: d.Name,
					Reason: fmt.Sprintf("caution in the elderly: %s", contra)})
			case pregnant && (strings.Contains(lc, "pregnan") || strings.Contains(lc, "lactation")):
				out = append(out, Contraindication{Drug: d.Name,
					Reason: fmt.Sprintf("contraindicated in pregnancy: %s", contra)})
			}
		}
	}
	return out
}

func allergyMatches(lowerContra string, allergies []string) bool {
	for _, a := range allergies {
		la := strings.ToLower(strings.TrimSpace(a))
		if la != "" && (strings.Contains(lowerContra, la) || strings.Contains(la, lowerContra)) {
			return true
		}
	}
	return false
}

func conditionMatches(lowerContra string, conditions []string) bool {
	for _, cnd := range conditions {
		lc := strings.ToLower(strings.TrimSpace(cnd))
		if lc != "" && (strings.Contains(lowerContra, lc) || strings.Contains(lc, lowerContra)) {
			return true
		}
	}
	return false
}

// synthesizeWarnings builds one warning per interaction plus the general
// polypharmacy and organ-impairment cautions.
func (c *Checker) synthesizeWarnings(res *Result, drugs []*reference.Drug, p *patient.Parameters) []CheckWarning {
	out := []CheckWarning{}
	for _, f := range res.Interactions {
		out = append(out, CheckWarning{
			Message:        fmt.Sprintf("%s + %s: %s", f.DrugA, f.DrugB, f.Effect),
			Recommendation: recommendationPrefix[f.Severity] + ". " + f.Management,
		})
	}
	if len(drugs) >= 3 {
		out = append(out, CheckWarning{
			Message:        fmt.Sprintf("%d drugs combined", len(drugs)),
			Recommendation: "Review the combination for cumulative adverse effects",
		})
	}
	if p != nil {
		if p.Elderly() && len(drugs) >= 2 {
			out = append(out, CheckWarning{
				Message:        "elderly patient on multiple drugs",
				Recommendation: "Review for anticholinergic burden and fall risk",
			})
		}
		if p.HasCondition("kidney", "renal", "liver", "hepatic") {
			out = append(out, CheckWarning{
				Message:        "renal or hepatic impairment on record",
				Recommendation: "Verify organ-specific dose adjustments for every drug",
			})
		}
	}
	return out
}

// aggregateRisk applies the fixed precedence: contraindications dominate,
// then major interactions, then moderate ones or a large interaction count.
func aggregateRisk(res *Result) RiskLevel {
	if len(res.Contraindications) > 0 {
		return RiskCritical
	}
	moderate := false
	for _, f := range res.Interactions {
		switch f.Severity {
		case SeverityContraindicated, SeverityMajor:
			return RiskHigh
		case SeverityModerate:
			moderate = true
		}
	}
	if moderate || len(res.Interactions) >= 3 {
		return RiskModerate
	}
	return RiskLow
}

func pairKey(a, b uuid.UUID) string {
	k := []string{a.String(), b.String()}
	sort.Strings(k)
	return k[0] + "|" + k[1]
}
