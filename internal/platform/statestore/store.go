// Package statestore is the opaque key/value persistence capability used by
// the sync orchestrator for cached record collections and the data-quality
// aggregate. Blobs are stored inside a versioned, timestamped envelope; the
// orchestrator enforces freshness itself, the store just keeps bytes.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("statestore: key not found")

// Well-known keys.
const (
	KeyStatus     = "sync/status"
	KeyDrugs      = "collection/drugs"
	KeyProcedures = "collection/procedures"
	KeyMaterials  = "collection/materials"
)

// Envelope wraps one persisted blob with its version tag and storage time.
type Envelope struct {
	Version  string          `json:"version"`
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Stale reports whether the envelope is older than the given freshness
// window as of now.
func (e *Envelope) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.StoredAt) > ttl
}

// Store is the persistence capability. Implementations must treat envelopes
// as opaque: no interpretation of Data.
type Store interface {
	Get(ctx context.Context, key string) (*Envelope, error)
	Put(ctx context.Context, key string, env Envelope) error
	Delete(ctx context.Context, key string) error
}
