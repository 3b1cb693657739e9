// Package sync orchestrates reference-data loading: it fetches the three
// record collections with retry, sweeps every loaded record through the
// content validator, aggregates a data-quality score, persists the result,
// and republishes status to subscribers.
package sync

import (
	"time"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// Category names, also used as service names in sync errors.
const (
	CategoryDrugs      = "drugs"
	CategoryProcedures = "procedures"
	CategoryMaterials  = "materials"
)

// categories fixes iteration order for deterministic aggregation.
var categories = []string{CategoryDrugs, CategoryProcedures, CategoryMaterials}

// CategoryStats summarises validation over one record collection.
type CategoryStats struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// SyncError records one category fetch that exhausted its retries. RetryCount
// accumulates across cycles while the same service keeps failing; the entry
// is dropped once the service fetches cleanly again.
type SyncError struct {
	Service    string    `json:"service"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
}

// Status is the aggregate the orchestrator owns and subscribers read.
// OverallScore is the percentage of loaded records that pass structural
// validation, 0-100, across all categories.
type Status struct {
	State        State                    `json:"state"`
	Categories   map[string]CategoryStats `json:"categories"`
	OverallScore int                      `json:"overall_score"`
	LastSync     time.Time                `json:"last_sync"`
	Version      string                   `json:"version"`
	Errors       []SyncError              `json:"errors,omitempty"`
}

// clone deep-copies a status so subscribers and callers never share the
// orchestrator's mutable aggregate.
func (s Status) clone() Status {
	cp := s
	cp.Categories = make(map[string]CategoryStats, len(s.Categories))
	for k, v := range s.Categories {
		cp.Categories[k] = v
	}
	cp.Errors = append([]SyncError(nil), s.Errors...)
	return cp
}
