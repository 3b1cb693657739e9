package dosage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinref/clinref/internal/domain/patient"
	"github.com/clinref/clinref/internal/domain/reference"
	"github.com/clinref/clinref/internal/domain/validation"
)

// ── Fixtures ──

func testDrug() *reference.Drug {
	return &reference.Drug{
		ID:    uuid.New(),
		Name:  "Amoxicillin",
		Class: "Penicillin antibiotic",
		Dosage: reference.Dosage{
			Adult:     reference.DoseSpec{Dose: "500 mg", Regimen: "TID × 7 days", MaxDaily: "3000 mg"},
			Pediatric: reference.DoseSpec{Dose: "20-40 mg/kg/day", Regimen: "TID", MaxDaily: "2000 mg"},
		},
		Administration: reference.Administration{
			Route:        "Oral",
			Instructions: "May be taken with or without food.",
		},
		RenalAdjustments: []reference.RenalAdjustment{
			{Condition: "CrCl >30", Dose: "None"},
			{Condition: "CrCl 10-30", Dose: "500 mg", Frequency: "BID"},
			{Condition: "CrCl <10", Dose: "500 mg", Frequency: "q24h"},
		},
		HepaticAdjustments: []reference.HepaticAdjustment{
			{Tier: "Child-Pugh B (moderate)", Dose: "None required"},
		},
		Contraindications: []string{"Penicillin allergy", "Infectious mononucleosis"},
		SideEffects: reference.SideEffects{
			Serious: []string{"Anaphylaxis"},
		},
	}
}

func newTestEngine(drugs ...*reference.Drug) *Engine {
	repo := reference.NewMemoryDrugRepository(drugs)
	return NewEngine(repo, validation.NewValidator(), zerolog.Nop())
}

func adult() *patient.Parameters {
	return &patient.Parameters{Age: 30, WeightKg: 70, Gender: patient.GenderMale}
}

// ── Input validation ──

func TestCalculateRejectsInvalidPatient(t *testing.T) {
	e := newTestEngine(testDrug())
	cases := []struct {
		name string
		p    *patient.Parameters
	}{
		{"zero age", &patient.Parameters{Age: 0, WeightKg: 70}},
		{"age over cap", &patient.Parameters{Age: 121, WeightKg: 70}},
		{"zero weight", &patient.Parameters{Age: 30, WeightKg: 0}},
		{"weight over cap", &patient.Parameters{Age: 30, WeightKg: 301}},
		{"creatinine over cap", &patient.Parameters{Age: 30, WeightKg: 70, Creatinine: f(25)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Calculate(context.Background(), tc.p, "Amoxicillin", "")
			var ie *patient.InvalidError
			if !errors.As(err, &ie) {
				t.Fatalf("expected InvalidError, got %v", err)
			}
		})
	}
}

func TestCalculateUnknownDrug(t *testing.T) {
	e := newTestEngine(testDrug())
	_, err := e.Calculate(context.Background(), adult(), "nonexistol", "")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Name != "nonexistol" {
		t.Errorf("NotFoundError.Name = %q", nf.Name)
	}
}

func TestCalculateRefusesUnusableRecord(t *testing.T) {
	d := testDrug()
	d.Class = ""
	e := newTestEngine(d)
	_, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for a record without class, got %v", err)
	}
}

// ── Contraindication short-circuit ──

func TestAllergyShortCircuitsBeforeAdjustment(t *testing.T) {
	e := newTestEngine(testDrug())
	p := adult()
	p.Allergies = []string{"penicillin"}
	p.Creatinine = f(2.0) // would otherwise trigger a renal adjustment

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != Contraindicated {
		t.Fatalf("dosage = %q, want %q", res.Dosage, Contraindicated)
	}
	if len(res.Contraindications) == 0 {
		t.Error("expected contraindication reasons")
	}
	if len(res.Adjustments) != 0 {
		t.Errorf("adjustments should be empty after short-circuit, got %v", res.Adjustments)
	}
	if len(res.ClinicalNotes) == 0 {
		t.Error("clinical notes should list the refusal reasons")
	}
}

func TestConditionContraindicationShortCircuits(t *testing.T) {
	e := newTestEngine(testDrug())
	p := adult()
	p.Conditions = []string{"infectious mononucleosis"}

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != Contraindicated {
		t.Fatalf("dosage = %q, want %q", res.Dosage, Contraindicated)
	}
}

// ── Base dose ──

func TestPediatricBaseDose(t *testing.T) {
	// 20-40 mg/kg/day → mean 30 × 30 kg = 900 mg/day ÷ 3 (TID) = 300 mg.
	e := newTestEngine(testDrug())
	p := &patient.Parameters{Age: 10, WeightKg: 30}

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != "300 mg" {
		t.Errorf("dosage = %q, want %q", res.Dosage, "300 mg")
	}
	if res.Frequency != "TID" {
		t.Errorf("frequency = %q, want TID", res.Frequency)
	}
}

func TestAdultDoseAndDurationSplit(t *testing.T) {
	e := newTestEngine(testDrug())
	res, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != "500 mg" {
		t.Errorf("dosage = %q", res.Dosage)
	}
	if res.Frequency != "TID" {
		t.Errorf("frequency = %q", res.Frequency)
	}
	if res.Duration != "7 days" {
		t.Errorf("duration = %q", res.Duration)
	}
	// 500 × 3 × 7
	if res.TotalQuantity != "10500 mg" {
		t.Errorf("total quantity = %q", res.TotalQuantity)
	}
}

func TestDefaultDurationWhenRegimenHasNone(t *testing.T) {
	d := testDrug()
	d.Dosage.Adult.Regimen = "BID"
	e := newTestEngine(d)
	res, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Duration != "7 days" {
		t.Errorf("duration = %q, want default 7 days", res.Duration)
	}
}

// ── Renal adjustment ──

func TestRenalAdjustmentApplied(t *testing.T) {
	e := newTestEngine(testDrug())
	p := adult()
	p.Creatinine = f(4.0) // CrCl = (110×70)/(72×4) = 26.7 → 10-30 rule

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Frequency != "BID" {
		t.Errorf("frequency = %q, want BID after renal adjustment", res.Frequency)
	}
	if _, ok := res.Adjustments["renal"]; !ok {
		t.Error("expected renal adjustment entry")
	}
}

func TestRenalNoneRuleLeavesDoseAlone(t *testing.T) {
	e := newTestEngine(testDrug())
	p := adult()
	p.Creatinine = f(1.0) // CrCl = (110×70)/72 = 106.9 → ">30" None rule

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != "500 mg" || res.Frequency != "TID" {
		t.Errorf("dose should be unchanged, got %q %q", res.Dosage, res.Frequency)
	}
	if _, ok := res.Adjustments["renal"]; !ok {
		t.Error("a matched None rule still records an explanation")
	}
}

func TestNoRenalAdjustmentWithoutCreatinine(t *testing.T) {
	e := newTestEngine(testDrug())
	res, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if _, ok := res.Adjustments["renal"]; ok {
		t.Error("renal adjustment must not run without creatinine")
	}
}

func TestCockcroftGault(t *testing.T) {
	// ((140−30)×70)/(72×2.0) = 53.47... → 53.5
	got := creatinineClearance(30, 70, 2.0, false)
	if got != 53.5 {
		t.Errorf("CrCl = %v, want 53.5", got)
	}
	// Female scaling: 53.472×0.85 = 45.45... → 45.5
	got = creatinineClearance(30, 70, 2.0, true)
	if got != 45.5 {
		t.Errorf("female CrCl = %v, want 45.5", got)
	}
}

// ── Hepatic adjustment ──

func TestHepaticAdjustment(t *testing.T) {
	d := testDrug()
	d.HepaticAdjustments = []reference.HepaticAdjustment{
		{Tier: "Child-Pugh B (moderate)", Dose: "250 mg", Frequency: "BID"},
	}
	e := newTestEngine(d)
	p := adult()
	p.Conditions = []string{"cirrhosis"}

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != "250 mg" || res.Frequency != "BID" {
		t.Errorf("got %q %q, want hepatic override", res.Dosage, res.Frequency)
	}
	if _, ok := res.Adjustments["hepatic"]; !ok {
		t.Error("expected hepatic adjustment entry")
	}
}

func TestHepaticNoneRequired(t *testing.T) {
	e := newTestEngine(testDrug())
	p := adult()
	p.Conditions = []string{"chronic liver disease"}

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.Dosage != "500 mg" {
		t.Errorf("dose should be unchanged, got %q", res.Dosage)
	}
}

// ── Warnings and quantity ──

func TestWarningRules(t *testing.T) {
	e := newTestEngine(testDrug())
	p := &patient.Parameters{Age: 70, WeightKg: 60, Creatinine: f(1.8), Conditions: []string{"type 2 diabetes"}}

	res, err := e.Calculate(context.Background(), p, "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	var haveElderly, haveRenal, haveDiabetes, haveSerious bool
	for _, w := range res.Warnings {
		switch {
		case strings.Contains(w.Message, "elderly"):
			haveElderly = true
		case strings.Contains(w.Message, "creatinine"):
			haveRenal = true
			if w.Severity != validation.AlertMajor {
				t.Errorf("renal warning severity = %s, want major", w.Severity)
			}
		case strings.Contains(w.Message, "diabetic"):
			haveDiabetes = true
		case strings.Contains(w.Message, "serious adverse"):
			haveSerious = true
		}
	}
	if !haveElderly || !haveRenal || !haveDiabetes || !haveSerious {
		t.Errorf("missing warnings: elderly=%v renal=%v diabetes=%v serious=%v",
			haveElderly, haveRenal, haveDiabetes, haveSerious)
	}
}

func TestTotalQuantityManualFallback(t *testing.T) {
	d := testDrug()
	d.Dosage.Adult.Dose = "as directed"
	e := newTestEngine(d)

	res, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.TotalQuantity != ManualQuantity {
		t.Errorf("total quantity = %q, want %q", res.TotalQuantity, ManualQuantity)
	}
}

func TestTabletUnitInference(t *testing.T) {
	got := totalQuantity("2 tablets", "BID", "5 days")
	if got != "20 tablets" {
		t.Errorf("totalQuantity = %q, want 20 tablets", got)
	}
}

// ── Notes and determinism ──

func TestClinicalNotesAssembly(t *testing.T) {
	e := newTestEngine(testDrug())
	res, err := e.Calculate(context.Background(), adult(), "Amoxicillin", "dental abscess")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	joined := strings.Join(res.ClinicalNotes, "\n")
	for _, want := range []string{
		"May be taken with or without food.",
		"Indicated for: dental abscess",
		"allergic reaction",
		complianceNotes[0],
		complianceNotes[1],
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("notes missing %q:\n%s", want, joined)
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	e := newTestEngine(testDrug())
	p := &patient.Parameters{
		Age: 70, WeightKg: 62, Gender: patient.GenderFemale,
		Conditions: []string{"chronic kidney disease", "diabetes"},
		Creatinine: f(2.4),
	}
	first, err := e.Calculate(context.Background(), p, "Amoxicillin", "extraction")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	a, _ := json.Marshal(first)
	for i := 0; i < 10; i++ {
		next, err := e.Calculate(context.Background(), p, "Amoxicillin", "extraction")
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		b, _ := json.Marshal(next)
		if string(a) != string(b) {
			t.Fatalf("run %d differs:\n%s\n%s", i, a, b)
		}
	}
}

func f(v float64) *float64 { return &v }
