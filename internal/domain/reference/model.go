// Package reference holds the read-only clinical reference collections:
// drugs, procedures, and restorative materials. Records are loaded from a
// static dataset and exposed through repository interfaces; nothing in this
// package mutates a record after load.
package reference

import (
	"github.com/google/uuid"
)

// IndicationType distinguishes prophylactic from therapeutic use.
type IndicationType string

const (
	IndicationProphylaxis IndicationType = "Prophylaxis"
	IndicationTreatment   IndicationType = "Treatment"
)

// Indication describes one approved use of a drug.
type Indication struct {
	Type          IndicationType `json:"type"`
	Description   string         `json:"description"`
	EvidenceLevel string         `json:"evidence_level,omitempty"`
}

// DoseSpec is the free-text dosing for one population. Dose strings follow a
// small family of patterns (numeric + unit, numeric + unit/kg, range + unit);
// the dosage engine parses them and the validator flags strings that match
// none of the accepted shapes.
type DoseSpec struct {
	Dose     string `json:"dose"`
	Regimen  string `json:"regimen"`
	MaxDaily string `json:"max_daily,omitempty"`
}

// Dosage carries separate adult and pediatric dosing.
type Dosage struct {
	Adult     DoseSpec `json:"adult"`
	Pediatric DoseSpec `json:"pediatric"`
}

// Administration describes how the drug is given.
type Administration struct {
	Route           string `json:"route"`
	Instructions    string `json:"instructions,omitempty"`
	Bioavailability string `json:"bioavailability,omitempty"`
}

// RenalAdjustment is one ordered dose-adjustment rule keyed on creatinine
// clearance. Condition is a predicate over mL/min ("CrCl <10",
// "CrCl 10-30 mL/min", "CrCl >50"). A Dose of "None" means no change.
type RenalAdjustment struct {
	Condition string `json:"condition"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency,omitempty"`
}

// HepaticAdjustment is one ordered dose-adjustment rule keyed on a named
// impairment tier (Child-Pugh A/B/C). A Dose of "None required" means no
// change.
type HepaticAdjustment struct {
	Tier      string `json:"tier"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency,omitempty"`
}

// SideEffects splits adverse effects by seriousness.
type SideEffects struct {
	Common  []string `json:"common,omitempty"`
	Serious []string `json:"serious,omitempty"`
}

// Interaction is an explicit pairwise interaction entry on a drug record.
// Drug names the other agent; matching tolerates salts and formulations
// ("warfarin" matches "Warfarin sodium").
type Interaction struct {
	Drug       string `json:"drug"`
	Effect     string `json:"effect"`
	Management string `json:"management,omitempty"`
}

// Drug is one reference drug record.
type Drug struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Class              string              `json:"class"`
	Indications        []Indication        `json:"indications,omitempty"`
	Dosage             Dosage              `json:"dosage"`
	Administration     Administration      `json:"administration"`
	RenalAdjustments   []RenalAdjustment   `json:"renal_adjustments,omitempty"`
	HepaticAdjustments []HepaticAdjustment `json:"hepatic_adjustments,omitempty"`
	Contraindications  []string            `json:"contraindications,omitempty"`
	SideEffects        SideEffects         `json:"side_effects"`
	Interactions       []Interaction       `json:"interactions,omitempty"`
}

// Usable reports whether the record carries the minimum identity needed for
// clinical computation. Unusable records are still loaded so the data-quality
// sweep can score them.
func (d *Drug) Usable() bool {
	return d != nil && d.Name != "" && d.Class != ""
}

// PlanStep is one sequential step of a procedure's management plan.
type PlanStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Procedure is one reference clinical procedure record.
type Procedure struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Category              string     `json:"category,omitempty"`
	Diagnosis             string     `json:"diagnosis,omitempty"`
	DifferentialDiagnosis []string   `json:"differential_diagnosis,omitempty"`
	Investigations        []string   `json:"investigations,omitempty"`
	ManagementPlan        []PlanStep `json:"management_plan,omitempty"`
	References            []string   `json:"references,omitempty"`
}

// Material is one reference restorative-material record. Properties is an
// open qualitative map; the validator expects at least strength, aesthetics,
// durability, and biocompatibility to be described.
type Material struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Category          string            `json:"category,omitempty"`
	Properties        map[string]string `json:"properties,omitempty"`
	Indications       []string          `json:"indications,omitempty"`
	Contraindications []string          `json:"contraindications,omitempty"`
	Handling          []string          `json:"handling,omitempty"`
	Longevity         string            `json:"longevity,omitempty"`
	Cost              string            `json:"cost,omitempty"`
}
