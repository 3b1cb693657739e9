package reference

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// The in-memory repositories are built once from a Dataset and never mutated,
// so they take no locks. Name lookup is case-insensitive exact match first,
// then a bidirectional substring fallback so "warfarin" resolves "Warfarin
// sodium" and vice versa.

// MemoryDrugRepository serves drugs from an immutable in-memory collection.
type MemoryDrugRepository struct {
	drugs []*Drug
	byID  map[uuid.UUID]*Drug
}

// NewMemoryDrugRepository indexes the given drugs.
func NewMemoryDrugRepository(drugs []*Drug) *MemoryDrugRepository {
	r := &MemoryDrugRepository{drugs: drugs, byID: make(map[uuid.UUID]*Drug, len(drugs))}
	for _, d := range drugs {
		r.byID[d.ID] = d
	}
	return r
}

func (r *MemoryDrugRepository) GetByID(_ context.Context, id uuid.UUID) (*Drug, error) {
	return r.byID[id], nil
}

func (r *MemoryDrugRepository) GetByName(_ context.Context, name string) (*Drug, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, nil
	}
	for _, d := range r.drugs {
		if strings.ToLower(d.Name) == q {
			return d, nil
		}
	}
	for _, d := range r.drugs {
		if nameContains(d.Name, q) {
			return d, nil
		}
	}
	return nil, nil
}

func (r *MemoryDrugRepository) List(_ context.Context) ([]*Drug, error) {
	out := make([]*Drug, len(r.drugs))
	copy(out, r.drugs)
	return out, nil
}

// Search matches query text against name, class, and indication descriptions.
func (r *MemoryDrugRepository) Search(_ context.Context, query string) ([]*Drug, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []*Drug
	for _, d := range r.drugs {
		if containsFold(d.Name, q) || containsFold(d.Class, q) {
			out = append(out, d)
			continue
		}
		for _, ind := range d.Indications {
			if containsFold(ind.Description, q) {
				out = append(out, d)
				break
			}
		}
	}
	sortDrugs(out)
	return out, nil
}

// MemoryProcedureRepository serves procedures from an immutable collection.
type MemoryProcedureRepository struct {
	procedures []*Procedure
	byID       map[uuid.UUID]*Procedure
}

// NewMemoryProcedureRepository indexes the given procedures.
func NewMemoryProcedureRepository(procedures []*Procedure) *MemoryProcedureRepository {
	r := &MemoryProcedureRepository{procedures: procedures, byID: make(map[uuid.UUID]*Procedure, len(procedures))}
	for _, p := range procedures {
		r.byID[p.ID] = p
	}
	return r
}

func (r *MemoryProcedureRepository) GetByID(_ context.Context, id uuid.UUID) (*Procedure, error) {
	return r.byID[id], nil
}

func (r *MemoryProcedureRepository) GetByName(_ context.Context, name string) (*Procedure, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, nil
	}
	for _, p := range r.procedures {
		if strings.ToLower(p.Name) == q {
			return p, nil
		}
	}
	for _, p := range r.procedures {
		if nameContains(p.Name, q) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *MemoryProcedureRepository) List(_ context.Context) ([]*Procedure, error) {
	out := make([]*Procedure, len(r.procedures))
	copy(out, r.procedures)
	return out, nil
}

// Search matches query text against name, category, and diagnosis.
func (r *MemoryProcedureRepository) Search(_ context.Context, query string) ([]*Procedure, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []*Procedure
	for _, p := range r.procedures {
		if containsFold(p.Name, q) || containsFold(p.Category, q) || containsFold(p.Diagnosis, q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MemoryMaterialRepository serves materials from an immutable collection.
type MemoryMaterialRepository struct {
	materials []*Material
	byID      map[uuid.UUID]*Material
}

// NewMemoryMaterialRepository indexes the given materials.
func NewMemoryMaterialRepository(materials []*Material) *MemoryMaterialRepository {
	r := &MemoryMaterialRepository{materials: materials, byID: make(map[uuid.UUID]*Material, len(materials))}
	for _, m := range materials {
		r.byID[m.ID] = m
	}
	return r
}

func (r *MemoryMaterialRepository) GetByID(_ context.Context, id uuid.UUID) (*Material, error) {
	return r.byID[id], nil
}

func (r *MemoryMaterialRepository) GetByName(_ context.Context, name string) (*Material, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, nil
	}
	for _, m := range r.materials {
		if strings.ToLower(m.Name) == q {
			return m, nil
		}
	}
	for _, m := range r.materials {
		if nameContains(m.Name, q) {
			return m, nil
		}
	}
	return nil, nil
}

func (r *MemoryMaterialRepository) List(_ context.Context) ([]*Material, error) {
	out := make([]*Material, len(r.materials))
	copy(out, r.materials)
	return out, nil
}

// Search matches query text against name, category, and property values.
func (r *MemoryMaterialRepository) Search(_ context.Context, query string) ([]*Material, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []*Material
	for _, m := range r.materials {
		if containsFold(m.Name, q) || containsFold(m.Category, q) {
			out = append(out, m)
			continue
		}
		for _, v := range m.Properties {
			if containsFold(v, q) {
				out = append(out, m)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// nameContains reports whether a record name and an already-lowercased query
// contain each other in either direction.
func nameContains(name, lowerQuery string) bool {
	n := strings.ToLower(name)
	return n != "" && (strings.Contains(n, lowerQuery) || strings.Contains(lowerQuery, n))
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

func sortDrugs(ds []*Drug) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Name < ds[j].Name })
}
