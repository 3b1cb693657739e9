package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	_ "embed"

	"github.com/google/uuid"
)

//go:embed dataset.json
var embeddedDataset []byte

// Dataset is a parsed static reference dataset holding all three record
// collections.
type Dataset struct {
	Drugs      []*Drug      `json:"drugs"`
	Procedures []*Procedure `json:"procedures"`
	Materials  []*Material  `json:"materials"`
}

// LoadEmbedded parses the dataset compiled into the binary.
func LoadEmbedded() (*Dataset, error) {
	return parseDataset(embeddedDataset)
}

// LoadFile parses a dataset from an external JSON file, for operators who
// maintain their own reference data.
func LoadFile(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return parseDataset(b)
}

func parseDataset(b []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	// Records may ship without ids; mint them so every record is addressable.
	for _, d := range ds.Drugs {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
	}
	for _, p := range ds.Procedures {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	for _, m := range ds.Materials {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	return &ds, nil
}

// The Fetch methods make a Dataset usable as a sync source.

// FetchDrugs returns the drug collection.
func (ds *Dataset) FetchDrugs(_ context.Context) ([]*Drug, error) {
	return ds.Drugs, nil
}

// FetchProcedures returns the procedure collection.
func (ds *Dataset) FetchProcedures(_ context.Context) ([]*Procedure, error) {
	return ds.Procedures, nil
}

// FetchMaterials returns the material collection.
func (ds *Dataset) FetchMaterials(_ context.Context) ([]*Material, error) {
	return ds.Materials, nil
}
