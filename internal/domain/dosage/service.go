package dosage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clinref/clinref/internal/domain/patient"
	"github.com/clinref/clinref/internal/domain/reference"
	"github.com/clinref/clinref/internal/domain/validation"
)

// hepaticTierKeywords select the single impairment tier the engine models.
// The source data carries Child-Pugh tiers but no per-patient severity
// grading exists, so moderate impairment is assumed whenever a hepatic
// condition is on record.
var hepaticTierKeywords = []string{"child-pugh b", "moderate"}

// hepaticConditionKeywords gate the hepatic adjustment step.
var hepaticConditionKeywords = []string{"liver", "hepatic", "cirrhosis"}

// renalWarningCreatinine is the serum creatinine (mg/dL) above which a renal
// caution fires even when no adjustment rule matches.
const renalWarningCreatinine = 1.5

// warningRules generate the dosing cautions attached to every result.
var warningRules = []struct {
	applies  func(p *patient.Parameters, d *reference.Drug) bool
	message  string
	severity validation.AlertSeverity
}{
	{func(p *patient.Parameters, _ *reference.Drug) bool { return p.Elderly() },
		"elderly patient: increased sensitivity to standard doses", validation.AlertModerate},
	{func(p *patient.Parameters, _ *reference.Drug) bool { return p.Pediatric() },
		"pediatric patient: verify the calculated dose against the maximum daily dose", validation.AlertModerate},
	{func(p *patient.Parameters, _ *reference.Drug) bool {
		return p.Creatinine != nil && *p.Creatinine > renalWarningCreatinine
	},
		"elevated serum creatinine: renal function is impaired", validation.AlertMajor},
	{func(p *patient.Parameters, _ *reference.Drug) bool { return p.HasCondition("diabetes") },
		"diabetic patient: monitor for drug interactions with hypoglycaemic therapy", validation.AlertMinor},
	{func(_ *patient.Parameters, d *reference.Drug) bool { return len(d.SideEffects.Serious) > 0 },
		"drug has serious adverse effects on record: monitor accordingly", validation.AlertModerate},
}

// complianceNotes close every clinical-notes list.
var complianceNotes = []string{
	"Take exactly as directed for the full prescribed duration.",
	"Advise the patient to return if symptoms worsen or do not improve within 48 hours.",
}

// Engine computes doses from reference dosing data.
type Engine struct {
	drugs     reference.DrugRepository
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewEngine creates a dosage engine.
func NewEngine(drugs reference.DrugRepository, validator *validation.Validator, logger zerolog.Logger) *Engine {
	return &Engine{drugs: drugs, validator: validator, logger: logger}
}

// Calculate resolves the named drug and computes a patient-specific dose.
// Out-of-range patient input returns *patient.InvalidError; an unknown drug
// name, or a record without the minimum identity for dosing, returns
// *NotFoundError. A contraindicated combination is not an error: the result
// carries the Contraindicated sentinel and the reasons.
func (e *Engine) Calculate(ctx context.Context, p *patient.Parameters, drugName, procedureHint string) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	drug, err := e.drugs.GetByName(ctx, drugName)
	if err != nil {
		return nil, fmt.Errorf("resolve drug %q: %w", drugName, err)
	}
	if drug == nil {
		return nil, &NotFoundError{Name: drugName}
	}
	if !drug.Usable() {
		e.logger.Warn().Str("drug", drugName).Msg("reference record lacks name or class; refusing to dose")
		return nil, &NotFoundError{Name: drugName}
	}

	// Safety gate before any computation.
	gate := e.validator.ValidateDrugForPatient(drug, p)
	if reasons := criticalReasons(gate); len(reasons) > 0 {
		e.logger.Info().Str("drug", drug.Name).Int("reasons", len(reasons)).
			Msg("dose refused: contraindicated for patient")
		return &Result{
			DrugName:          drug.Name,
			Dosage:            Contraindicated,
			TotalQuantity:     ManualQuantity,
			ClinicalNotes:     reasons,
			Contraindications: reasons,
			Adjustments:       map[string]string{},
		}, nil
	}

	res := &Result{DrugName: drug.Name, Adjustments: map[string]string{}}
	var pediatricNote string
	if p.Pediatric() && drug.Dosage.Pediatric.Dose != "" {
		pediatricNote = e.pediatricBase(res, p, drug)
	} else {
		freq, dur := splitRegimen(drug.Dosage.Adult.Regimen)
		res.Dosage = drug.Dosage.Adult.Dose
		res.Frequency = freq
		res.Duration = dur
	}

	e.applyRenal(res, p, drug)
	e.applyHepatic(res, p, drug)

	for _, rule := range warningRules {
		if rule.applies(p, drug) {
			res.Warnings = append(res.Warnings, Warning{Message: rule.message, Severity: rule.severity})
		}
	}
	res.TotalQuantity = totalQuantity(res.Dosage, res.Frequency, res.Duration)
	res.ClinicalNotes = e.assembleNotes(res, p, drug, procedureHint, pediatricNote)
	for _, w := range gate.Warnings {
		res.Warnings = append(res.Warnings, Warning{Message: w.Message, Severity: validation.AlertModerate})
	}
	return res, nil
}

// pediatricBase computes a weight-based per-dose amount from a
// "min-max mg/kg/day" pediatric dose string. When the string carries no
// range the raw string is passed through for manual review.
func (e *Engine) pediatricBase(res *Result, p *patient.Parameters, drug *reference.Drug) string {
	spec := drug.Dosage.Pediatric
	freq, dur := splitRegimen(spec.Regimen)
	res.Frequency = freq
	res.Duration = dur

	min, max, ok := parseRange(spec.Dose)
	if !ok {
		res.Dosage = spec.Dose
		return ""
	}
	perKg := (min + max) / 2
	totalDaily := perKg * p.WeightKg
	perDose := totalDaily / float64(dosesPerDay(freq))
	res.Dosage = formatAmount(perDose) + " mg"
	return fmt.Sprintf("Pediatric dose: %s mg/kg/day mean (%s) × %s kg ÷ %d doses/day.",
		formatAmount(perKg), spec.Dose, formatAmount(p.WeightKg), dosesPerDay(freq))
}

// applyRenal matches the computed creatinine clearance against the drug's
// ordered renal rules. Runs only when creatinine is supplied; the first
// matching rule wins and a "None" adjustment is a deliberate no-op.
func (e *Engine) applyRenal(res *Result, p *patient.Parameters, drug *reference.Drug) {
	if p.Creatinine == nil {
		return
	}
	crcl := creatinineClearance(p.Age, p.WeightKg, *p.Creatinine, p.Gender == patient.GenderFemale)
	for _, rule := range drug.RenalAdjustments {
		if !matchClearance(rule.Condition, crcl) {
			continue
		}
		if noAdjustment(rule.Dose) {
			res.Adjustments["renal"] = fmt.Sprintf("CrCl %.1f mL/min (%s): no adjustment required", crcl, rule.Condition)
			return
		}
		res.Dosage = rule.Dose
		if rule.Frequency != "" {
			res.Frequency = rule.Frequency
		}
		res.Adjustments["renal"] = fmt.Sprintf("CrCl %.1f mL/min (%s): dose adjusted to %s %s",
			crcl, rule.Condition, rule.Dose, rule.Frequency)
		e.logger.Debug().Str("drug", drug.Name).Float64("crcl", crcl).Msg("renal adjustment applied")
		return
	}
}

// applyHepatic applies the single modeled impairment tier when a hepatic
// condition is on record.
func (e *Engine) applyHepatic(res *Result, p *patient.Parameters, drug *reference.Drug) {
	if !p.HasCondition(hepaticConditionKeywords...) {
		return
	}
	rule := hepaticRule(drug)
	if rule == nil {
		return
	}
	if noAdjustment(rule.Dose) {
		res.Adjustments["hepatic"] = fmt.Sprintf("hepatic impairment (%s): no adjustment required", rule.Tier)
		return
	}
	res.Dosage = rule.Dose
	if rule.Frequency != "" {
		res.Frequency = rule.Frequency
	}
	res.Adjustments["hepatic"] = fmt.Sprintf("hepatic impairment (%s): dose adjusted to %s %s",
		rule.Tier, rule.Dose, rule.Frequency)
	e.logger.Debug().Str("drug", drug.Name).Str("tier", rule.Tier).Msg("hepatic adjustment applied")
}

// hepaticRule selects the moderate (Child-Pugh B) rule. Severity is not
// graded per patient; this fixed tier is the only one modeled.
func hepaticRule(drug *reference.Drug) *reference.HepaticAdjustment {
	for i := range drug.HepaticAdjustments {
		tier := strings.ToLower(drug.HepaticAdjustments[i].Tier)
		for _, kw := range hepaticTierKeywords {
			if strings.Contains(tier, kw) {
				return &drug.HepaticAdjustments[i]
			}
		}
	}
	return nil
}

func noAdjustment(dose string) bool {
	d := strings.ToLower(strings.TrimSpace(dose))
	return d == "" || d == "none" || d == "none required"
}

// totalQuantity estimates the amount to dispense: numeric dose ×
// doses-per-day × duration. Anything unparseable yields the manual sentinel
// rather than a failure.
func totalQuantity(dosage, frequency, duration string) string {
	amount, ok := firstNumber(dosage)
	if !ok {
		return ManualQuantity
	}
	total := amount * float64(dosesPerDay(frequency)) * float64(durationDays(duration))
	unit := "tablets"
	if strings.Contains(dosage, "mg") {
		unit = "mg"
	}
	return formatAmount(total) + " " + unit
}

// criticalReasons extracts the messages of critical alerts from a gate
// result.
func criticalReasons(r *validation.Result) []string {
	var out []string
	for _, a := range r.ClinicalAlerts {
		if a.Severity == validation.AlertCritical {
			out = append(out, a.Message)
		}
	}
	return out
}

func (e *Engine) assembleNotes(res *Result, p *patient.Parameters, drug *reference.Drug, procedureHint, pediatricNote string) []string {
	var notes []string
	if drug.Administration.Instructions != "" {
		notes = append(notes, drug.Administration.Instructions)
	}
	if procedureHint != "" {
		notes = append(notes, "Indicated for: "+procedureHint)
	}
	if pediatricNote != "" {
		notes = append(notes, pediatricNote)
	}
	if p.Elderly() {
		notes = append(notes, "Elderly patient: start low and review response before up-titration.")
	}
	if note, ok := res.Adjustments["renal"]; ok {
		notes = append(notes, "Renal: "+note)
	}
	if note, ok := res.Adjustments["hepatic"]; ok {
		notes = append(notes, "Hepatic: "+note)
	}
	if strings.Contains(strings.ToLower(drug.Class), "penicillin") {
		notes = append(notes, "Observe for allergic reaction after the first dose.")
	}
	notes = append(notes, complianceNotes...)
	return notes
}
