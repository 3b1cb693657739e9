package reference

import (
	"context"

	"github.com/google/uuid"
)

// Lookup misses return (nil, nil) on every finder so callers can distinguish
// "not found" from a failed fetch.

// DrugRepository provides access to the drug reference collection.
type DrugRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	GetByName(ctx context.Context, name string) (*Drug, error)
	List(ctx context.Context) ([]*Drug, error)
	Search(ctx context.Context, query string) ([]*Drug, error)
}

// ProcedureRepository provides access to the procedure reference collection.
type ProcedureRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	GetByName(ctx context.Context, name string) (*Procedure, error)
	List(ctx context.Context) ([]*Procedure, error)
	Search(ctx context.Context, query string) ([]*Procedure, error)
}

// MaterialRepository provides access to the material reference collection.
type MaterialRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Material, error)
	GetByName(ctx context.Context, name string) (*Material, error)
	List(ctx context.Context) ([]*Material, error)
	Search(ctx context.Context, query string) ([]*Material, error)
}
