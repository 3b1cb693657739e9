package reference

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEmbeddedDatasetLoads(t *testing.T) {
	ds, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	if len(ds.Drugs) == 0 || len(ds.Procedures) == 0 || len(ds.Materials) == 0 {
		t.Fatalf("dataset incomplete: %d drugs, %d procedures, %d materials",
			len(ds.Drugs), len(ds.Procedures), len(ds.Materials))
	}
	for _, d := range ds.Drugs {
		if d.ID == uuid.Nil {
			t.Errorf("drug %q has no id", d.Name)
		}
		if !d.Usable() {
			t.Errorf("shipped drug %q should be usable", d.Name)
		}
	}
}

func TestDrugLookupByName(t *testing.T) {
	repo := NewMemoryDrugRepository([]*Drug{
		{ID: uuid.New(), Name: "Warfarin sodium", Class: "Vitamin K antagonist"},
		{ID: uuid.New(), Name: "Amoxicillin", Class: "Penicillin antibiotic"},
	})
	ctx := context.Background()

	// case-insensitive exact match
	d, err := repo.GetByName(ctx, "amoxicillin")
	if err != nil || d == nil || d.Name != "Amoxicillin" {
		t.Fatalf("exact lookup failed: %v %v", d, err)
	}
	// substring fallback tolerates salts
	d, _ = repo.GetByName(ctx, "warfarin")
	if d == nil || d.Name != "Warfarin sodium" {
		t.Fatalf("substring lookup failed: %v", d)
	}
	// miss returns nil, nil
	d, err = repo.GetByName(ctx, "nonexistol")
	if err != nil || d != nil {
		t.Fatalf("miss should be (nil, nil), got %v %v", d, err)
	}
	// empty query is also a miss
	d, err = repo.GetByName(ctx, "  ")
	if err != nil || d != nil {
		t.Fatalf("blank query should be (nil, nil), got %v %v", d, err)
	}
}

func TestDrugLookupByID(t *testing.T) {
	target := &Drug{ID: uuid.New(), Name: "Ibuprofen", Class: "NSAID"}
	repo := NewMemoryDrugRepository([]*Drug{target})
	ctx := context.Background()

	d, err := repo.GetByID(ctx, target.ID)
	if err != nil || d != target {
		t.Fatalf("GetByID: %v %v", d, err)
	}
	d, err = repo.GetByID(ctx, uuid.New())
	if err != nil || d != nil {
		t.Fatalf("unknown id should be (nil, nil), got %v %v", d, err)
	}
}

func TestDrugSearch(t *testing.T) {
	repo := NewMemoryDrugRepository([]*Drug{
		{ID: uuid.New(), Name: "Ibuprofen", Class: "NSAID analgesic"},
		{ID: uuid.New(), Name: "Naproxen", Class: "NSAID analgesic"},
		{ID: uuid.New(), Name: "Amoxicillin", Class: "Penicillin antibiotic",
			Indications: []Indication{{Type: IndicationTreatment, Description: "odontogenic infection"}}},
	})
	ctx := context.Background()

	got, err := repo.Search(ctx, "nsaid")
	if err != nil || len(got) != 2 {
		t.Fatalf("class search: %d results, err %v", len(got), err)
	}
	// results sorted by name
	if got[0].Name != "Ibuprofen" || got[1].Name != "Naproxen" {
		t.Errorf("unsorted results: %s, %s", got[0].Name, got[1].Name)
	}
	got, _ = repo.Search(ctx, "odontogenic")
	if len(got) != 1 || got[0].Name != "Amoxicillin" {
		t.Errorf("indication search failed: %v", got)
	}
	got, _ = repo.Search(ctx, "")
	if got != nil {
		t.Errorf("blank search should return nothing, got %d", len(got))
	}
}

func TestProcedureAndMaterialSearch(t *testing.T) {
	procs := NewMemoryProcedureRepository([]*Procedure{
		{ID: uuid.New(), Name: "Root canal treatment", Category: "Endodontics", Diagnosis: "Irreversible pulpitis"},
	})
	mats := NewMemoryMaterialRepository([]*Material{
		{ID: uuid.New(), Name: "Composite resin", Category: "Direct restorative",
			Properties: map[string]string{"aesthetics": "excellent shade matching"}},
	})
	ctx := context.Background()

	got, err := procs.Search(ctx, "pulpitis")
	if err != nil || len(got) != 1 {
		t.Errorf("diagnosis search: %d results, err %v", len(got), err)
	}
	mgot, err := mats.Search(ctx, "shade")
	if err != nil || len(mgot) != 1 {
		t.Errorf("property-value search: %d results, err %v", len(mgot), err)
	}
}

func TestDatasetParseError(t *testing.T) {
	if _, err := parseDataset([]byte("{not json")); err == nil {
		t.Error("malformed dataset should fail to parse")
	}
}
