package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinref/clinref/internal/domain/reference"
	"github.com/clinref/clinref/internal/domain/validation"
	"github.com/clinref/clinref/internal/platform/statestore"
)

// Source supplies the three record collections. Fetches are conceptually
// remote and may fail transiently; the orchestrator retries them.
type Source interface {
	FetchDrugs(ctx context.Context) ([]*reference.Drug, error)
	FetchProcedures(ctx context.Context) ([]*reference.Procedure, error)
	FetchMaterials(ctx context.Context) ([]*reference.Material, error)
}

// Subscriber receives a status copy after every state mutation.
type Subscriber func(Status)

// Config tunes retry and freshness behaviour. Zero values select defaults.
type Config struct {
	MaxAttempts int           // per-category fetch attempts
	BackoffBase time.Duration // delay is BackoffBase × attempt number
	CacheTTL    time.Duration // persisted aggregate freshness window
	Now         func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 200 * time.Millisecond
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Orchestrator owns the sync lifecycle and the data-quality aggregate. It is
// the sole writer of sync status; everything handed out is a copy.
type Orchestrator struct {
	source    Source
	validator *validation.Validator
	store     statestore.Store
	logger    zerolog.Logger
	cfg       Config

	mu       sync.Mutex
	status   Status
	loading  bool
	subs     map[int]Subscriber
	subOrder []int
	nextSub  int

	drugs      []*reference.Drug
	procedures []*reference.Procedure
	materials  []*reference.Material
}

// NewOrchestrator creates an orchestrator in the idle state.
func NewOrchestrator(source Source, validator *validation.Validator, store statestore.Store, logger zerolog.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		source:    source,
		validator: validator,
		store:     store,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		status:    Status{State: StateIdle, Categories: map[string]CategoryStats{}},
		subs:      map[int]Subscriber{},
	}
}

// Subscribe registers a status listener and returns its unsubscribe
// function. Listeners are invoked synchronously, in registration order,
// after every state mutation; a panicking listener is isolated and never
// aborts delivery to the rest.
func (o *Orchestrator) Subscribe(fn Subscriber) func() {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.subOrder = append(o.subOrder, id)
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		for i, sid := range o.subOrder {
			if sid == id {
				o.subOrder = append(o.subOrder[:i], o.subOrder[i+1:]...)
				break
			}
		}
		o.mu.Unlock()
	}
}

// Status returns a copy of the current aggregate.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.clone()
}

// Collections returns the record collections loaded by the last sync.
func (o *Orchestrator) Collections() ([]*reference.Drug, []*reference.Procedure, []*reference.Material) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drugs, o.procedures, o.materials
}

// Initialize restores the persisted aggregate and decides whether a full
// sync is needed: a missing, stale, or error-bearing cache triggers one,
// otherwise the cached aggregate is served directly.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	env, err := o.store.Get(ctx, statestore.KeyStatus)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return fmt.Errorf("load persisted status: %w", err)
	}
	if env != nil && !env.Stale(o.cfg.CacheTTL, o.cfg.Now()) {
		var cached Status
		if jsonErr := json.Unmarshal(env.Data, &cached); jsonErr == nil && len(cached.Errors) == 0 {
			o.mu.Lock()
			o.status = cached
			o.status.State = StateLoaded
			if o.status.Categories == nil {
				o.status.Categories = map[string]CategoryStats{}
			}
			o.mu.Unlock()
			o.logger.Info().Str("version", cached.Version).Msg("serving cached quality aggregate")
			o.broadcast()
			return nil
		}
	}
	return o.FullSync(ctx)
}

// ForceRefresh drops the cached aggregate and collections and re-runs a full
// sync. A refresh arriving while a sync is in flight is coalesced into that
// sync rather than racing it.
func (o *Orchestrator) ForceRefresh(ctx context.Context) error {
	o.mu.Lock()
	if o.loading {
		o.mu.Unlock()
		o.logger.Debug().Msg("force refresh coalesced into in-flight sync")
		return nil
	}
	o.status.Errors = nil
	o.mu.Unlock()

	for _, key := range []string{statestore.KeyStatus, statestore.KeyDrugs, statestore.KeyProcedures, statestore.KeyMaterials} {
		if err := o.store.Delete(ctx, key); err != nil {
			o.logger.Warn().Err(err).Str("key", key).Msg("cache clear failed")
		}
	}
	return o.FullSync(ctx)
}

// FullSync fetches the three categories independently, validates every
// loaded record, recomputes the aggregate, and persists it. A sync requested
// while one is already running returns immediately.
func (o *Orchestrator) FullSync(ctx context.Context) error {
	o.mu.Lock()
	if o.loading {
		o.mu.Unlock()
		return nil
	}
	o.loading = true
	o.status.State = StateLoading
	o.mu.Unlock()
	o.broadcast()

	defer func() {
		o.mu.Lock()
		o.loading = false
		o.mu.Unlock()
	}()

	// The three fetch-and-retry sequences touch disjoint state and run
	// concurrently; results land in per-category slots and the shared
	// aggregate is written only after the join.
	var (
		wg       sync.WaitGroup
		drugs    []*reference.Drug
		procs    []*reference.Procedure
		mats     []*reference.Material
		fetchErr [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		fetchErr[0] = o.withRetry(ctx, CategoryDrugs, func() error {
			var err error
			drugs, err = o.source.FetchDrugs(ctx)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		fetchErr[1] = o.withRetry(ctx, CategoryProcedures, func() error {
			var err error
			procs, err = o.source.FetchProcedures(ctx)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		fetchErr[2] = o.withRetry(ctx, CategoryMaterials, func() error {
			var err error
			mats, err = o.source.FetchMaterials(ctx)
			return err
		})
	}()
	wg.Wait()

	now := o.cfg.Now()
	o.mu.Lock()
	for i, cat := range categories {
		if fetchErr[i] != nil {
			o.recordErrorLocked(cat, fetchErr[i].Error(), now)
		} else {
			o.clearErrorLocked(cat)
		}
	}
	// A failed category keeps its previous collection for this cycle.
	if fetchErr[0] == nil {
		o.drugs = drugs
	}
	if fetchErr[1] == nil {
		o.procedures = procs
	}
	if fetchErr[2] == nil {
		o.materials = mats
	}
	o.recomputeLocked(now)
	status := o.status.clone()
	o.mu.Unlock()

	o.persist(ctx, status)
	o.broadcast()
	return nil
}

// withRetry runs fetch up to the attempt cap with a linearly scaled backoff
// delay between attempts.
func (o *Orchestrator) withRetry(ctx context.Context, category string, fetch func() error) error {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if err := fetch(); err != nil {
			lastErr = err
			o.logger.Warn().Err(err).Str("category", category).Int("attempt", attempt).Msg("fetch failed")
			if attempt < o.cfg.MaxAttempts {
				select {
				case <-time.After(o.cfg.BackoffBase * time.Duration(attempt)):
				case <-ctx.Done():
					return fmt.Errorf("fetch %s: %w", category, ctx.Err())
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("fetch %s after %d attempts: %w", category, o.cfg.MaxAttempts, lastErr)
}

// recordErrorLocked appends or bumps a sync error. The retry count reflects
// the attempts spent: a recurring failure keeps accumulating. The errors list
// holds outstanding failures only; clearErrorLocked drops an entry once its
// service fetches cleanly again.
func (o *Orchestrator) recordErrorLocked(service, message string, now time.Time) {
	for i := range o.status.Errors {
		if o.status.Errors[i].Service == service {
			o.status.Errors[i].Message = message
			o.status.Errors[i].Timestamp = now
			o.status.Errors[i].RetryCount += o.cfg.MaxAttempts
			return
		}
	}
	o.status.Errors = append(o.status.Errors, SyncError{
		Service:    service,
		Message:    message,
		Timestamp:  now,
		RetryCount: o.cfg.MaxAttempts,
	})
}

// clearErrorLocked drops the outstanding error for a recovered service.
func (o *Orchestrator) clearErrorLocked(service string) {
	for i := range o.status.Errors {
		if o.status.Errors[i].Service == service {
			o.status.Errors = append(o.status.Errors[:i], o.status.Errors[i+1:]...)
			return
		}
	}
}

// recomputeLocked sweeps every loaded record through the validator and
// rebuilds the per-category stats and the overall score.
func (o *Orchestrator) recomputeLocked(now time.Time) {
	stats := map[string]CategoryStats{
		CategoryDrugs:      {},
		CategoryProcedures: {},
		CategoryMaterials:  {},
	}
	tally := func(cat string, r *validation.Result) {
		s := stats[cat]
		s.Total++
		if r.IsValid {
			s.Valid++
		}
		s.Warnings += len(r.Warnings)
		s.Errors += len(r.Errors)
		stats[cat] = s
	}
	for _, d := range o.drugs {
		tally(CategoryDrugs, o.validator.ValidateDrug(d))
	}
	for _, p := range o.procedures {
		tally(CategoryProcedures, o.validator.ValidateProcedure(p))
	}
	for _, m := range o.materials {
		tally(CategoryMaterials, o.validator.ValidateMaterial(m))
	}

	total, valid := 0, 0
	for _, cat := range categories {
		total += stats[cat].Total
		valid += stats[cat].Valid
	}
	score := 0
	if total > 0 {
		score = int(float64(valid)/float64(total)*100 + 0.5)
	}

	o.status.Categories = stats
	o.status.OverallScore = score
	o.status.LastSync = now
	o.status.Version = uuid.NewString()
	if total == 0 && len(o.status.Errors) > 0 {
		o.status.State = StateError
	} else {
		o.status.State = StateLoaded
	}
}

// persist writes the aggregate and the three collections. Persistence
// failures degrade to log output: the in-memory aggregate stays
// authoritative for this session.
func (o *Orchestrator) persist(ctx context.Context, status Status) {
	put := func(key string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			o.logger.Error().Err(err).Str("key", key).Msg("marshal for persistence failed")
			return
		}
		env := statestore.Envelope{Version: status.Version, StoredAt: status.LastSync, Data: data}
		if err := o.store.Put(ctx, key, env); err != nil {
			o.logger.Warn().Err(err).Str("key", key).Msg("persist failed")
		}
	}
	put(statestore.KeyStatus, status)
	o.mu.Lock()
	drugs, procs, mats := o.drugs, o.procedures, o.materials
	o.mu.Unlock()
	put(statestore.KeyDrugs, drugs)
	put(statestore.KeyProcedures, procs)
	put(statestore.KeyMaterials, mats)
}

// broadcast delivers a status copy to every subscriber in registration
// order. A panicking subscriber is recovered and logged; delivery continues.
func (o *Orchestrator) broadcast() {
	o.mu.Lock()
	status := o.status.clone()
	order := append([]int(nil), o.subOrder...)
	subs := make(map[int]Subscriber, len(o.subs))
	for id, fn := range o.subs {
		subs[id] = fn
	}
	o.mu.Unlock()

	for _, id := range order {
		fn, ok := subs[id]
		if !ok {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error().Interface("panic", r).Int("subscriber", id).Msg("subscriber panicked")
				}
			}()
			fn(status.clone())
		}()
	}
}
