// Package reconcile merges polled device state with optimistic local changes.
//
// The Engine owns the ledger of unconfirmed mutations, the active edit
// sessions and the latest authoritative data. Every change rebuilds the
// reconciled View from scratch and publishes it atomically, so a reader sees
// either the previous view or the next one, never a partial merge.
//
// Commands are sent to the backend by a single worker in issue order.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/logger"
	"soak_console/internal/models"
)

const (
	defaultDispatchTimeout = 10 * time.Second
	DefaultEditIdle        = 60 * time.Second
)

// Sender delivers one command to the backend.
type Sender func(ctx context.Context) error

// Mutation is one optimistic field change.
type Mutation struct {
	Field Field
	Value any
}

// Listener is called with every newly published view. It runs under the engine
// lock and must not call back into the engine.
type Listener func(v *View)

// Config tunes an Engine.
type Config struct {
	Window          time.Duration
	DispatchTimeout time.Duration
	EditIdle        time.Duration // untouched edit sessions end after this long
}

type dispatchJob struct {
	muts []Mutation
	seq  uint64
	send Sender
}

type Engine struct {
	clock           clockwork.Clock
	log             *logger.Logger
	dispatchTimeout time.Duration
	editIdle        time.Duration

	mu        sync.Mutex
	ledger    *Ledger
	edits     *EditGuard
	raw       Raw
	status    Status
	listeners []Listener
	resync    func()

	view atomic.Pointer[View]

	qmu      sync.Mutex
	queue    []dispatchJob
	draining bool
	inflight sync.WaitGroup
}

func NewEngine(clock clockwork.Clock, cfg Config, log *logger.Logger) *Engine {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}
	if cfg.EditIdle <= 0 {
		cfg.EditIdle = DefaultEditIdle
	}
	e := &Engine{
		clock:           clock,
		log:             log,
		dispatchTimeout: cfg.DispatchTimeout,
		editIdle:        cfg.EditIdle,
		ledger:          NewLedger(cfg.Window),
		edits:           NewEditGuard(),
	}
	v := Merge(e.raw, e.status, nil, nil)
	e.view.Store(&v)
	return e
}

// SetResync installs the callback used to request an immediate poll.
func (e *Engine) SetResync(fn func()) {
	e.mu.Lock()
	e.resync = fn
	e.mu.Unlock()
}

// OnChange registers l for every future view.
func (e *Engine) OnChange(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// View returns the current reconciled view. Callers must not modify it.
func (e *Engine) View() *View { return e.view.Load() }

// Window returns the ledger suppression window.
func (e *Engine) Window() time.Duration { return e.ledger.Window() }

// publish rebuilds and stores the view. Caller holds e.mu.
func (e *Engine) publish() {
	v := Merge(e.raw, e.status, e.ledger.Entries(), e.edits.Sessions())
	e.view.Store(&v)
	ledgerEntries.Set(float64(e.ledger.Len()))
	for _, l := range e.listeners {
		l(&v)
	}
}

// prune drops expired ledger entries and idle edit sessions. Caller holds e.mu.
func (e *Engine) prune() {
	now := e.clock.Now()
	if expired := e.ledger.Prune(now); len(expired) > 0 {
		ledgerExpired.Add(float64(len(expired)))
		if e.log != nil {
			e.log.Debugw("ledger_expired", "fields", expired)
		}
	}
	if idle := e.edits.Expire(now, e.editIdle); len(idle) > 0 && e.log != nil {
		e.log.Infow("edit_session_expired", "fields", idle)
	}
}

// Seed installs cached data before the first poll. The view is marked stale.
// It is ignored once a poll has been applied.
func (e *Engine) Seed(raw Raw) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status.Connected || e.status.LastError != "" {
		return
	}
	e.raw = raw
	e.status = Status{Stale: true}
	e.publish()
}

// ApplyPoll replaces the authoritative data with a successful poll cycle.
// A nil settings keeps the previous working copy.
func (e *Engine) ApplyPoll(raw Raw, settings *models.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if settings != nil {
		raw.Settings = *settings
	} else {
		raw.Settings = e.raw.Settings
	}
	e.raw = raw
	e.status = Status{Connected: true}
	e.prune()
	e.publish()
}

// ApplyFailure records a failed snapshot fetch. All other state stays as it was.
func (e *Engine) ApplyFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Connected = false
	e.status.LastError = err.Error()
	e.prune()
	e.publish()
}

// Authoritative returns the polled value of f, ignoring ledger and edits.
func (e *Engine) Authoritative(f Field) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := base(e.raw, e.status)
	return read(&v, f)
}

// Issue records an optimistic value for f and dispatches send in the background.
func (e *Engine) Issue(f Field, value any, send Sender) error {
	return e.IssueBatch([]Mutation{{Field: f, Value: value}}, send)
}

// IssueBatch records several optimistic values produced by one command.
// They share a dispatch: if send fails every entry it created is dropped.
func (e *Engine) IssueBatch(muts []Mutation, send Sender) error {
	if err := validate(muts); err != nil {
		return err
	}

	e.mu.Lock()
	seq := e.issueLocked(muts)
	e.publish()
	e.enqueueLocked(muts, seq, send)
	e.mu.Unlock()
	return nil
}

// issueLocked writes muts into the ledger under a fresh seq. Caller holds e.mu.
func (e *Engine) issueLocked(muts []Mutation) uint64 {
	seq := e.ledger.NextSeq()
	now := e.clock.Now()
	for _, m := range muts {
		e.ledger.Record(m.Field, m.Value, now, seq)
	}
	return seq
}

func validate(muts []Mutation) error {
	scratch := View{Snapshot: models.DeviceSnapshot{Desired: models.DesiredState{Relays: map[string]bool{}}}}
	for _, m := range muts {
		if _, err := ParseField(string(m.Field)); err != nil {
			return err
		}
		if err := apply(&scratch, m.Field, m.Value); err != nil {
			return err
		}
	}
	return nil
}

// enqueueLocked queues send behind every earlier dispatch. Caller holds e.mu,
// so queue order is seq order.
func (e *Engine) enqueueLocked(muts []Mutation, seq uint64, send Sender) {
	if send == nil {
		return
	}
	e.inflight.Add(1)
	e.qmu.Lock()
	e.queue = append(e.queue, dispatchJob{muts: muts, seq: seq, send: send})
	start := !e.draining
	e.draining = true
	e.qmu.Unlock()
	if start {
		go e.drain()
	}
}

// drain sends queued jobs one at a time until the queue is empty.
func (e *Engine) drain() {
	for {
		e.qmu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.qmu.Unlock()
			return
		}
		job := e.queue[0]
		e.queue[0] = dispatchJob{}
		e.queue = e.queue[1:]
		e.qmu.Unlock()

		e.send(job)
		e.inflight.Done()
	}
}

func (e *Engine) send(job dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), e.dispatchTimeout)
	defer cancel()

	if err := job.send(ctx); err != nil {
		dispatchTotal.WithLabelValues("failed").Inc()
		e.dispatchFailed(job.muts, job.seq, err)
		return
	}
	dispatchTotal.WithLabelValues("ok").Inc()
}

func (e *Engine) dispatchFailed(muts []Mutation, seq uint64, err error) {
	e.mu.Lock()
	dropped := 0
	for _, m := range muts {
		if e.ledger.Drop(m.Field, seq) {
			dropped++
		}
	}
	if dropped > 0 {
		e.publish()
	}
	resync := e.resync
	e.mu.Unlock()

	if e.log != nil {
		e.log.Warnw("dispatch_failed", "seq", seq, "fields", len(muts), "dropped", dropped, "error", err)
	}
	if resync != nil {
		resync()
	}
}

// Wait blocks until every queued dispatch has been sent. No command may be
// issued concurrently with Wait.
func (e *Engine) Wait() { e.inflight.Wait() }

// ownedLocked returns owner's session on f. Caller holds e.mu.
func (e *Engine) ownedLocked(owner int, f Field) (EditSession, error) {
	s, ok := e.edits.Get(f)
	if !ok {
		return EditSession{}, fmt.Errorf("%w: %s", ErrNoSession, f)
	}
	if s.Owner != owner {
		return EditSession{}, fmt.Errorf("%w: %s", ErrEditLocked, f)
	}
	return s, nil
}

// Begin opens an edit session on f for owner, freezing its current reconciled value.
// Reopening one's own session keeps its raw input. A field edited by someone
// else is locked until that session ends or goes idle.
func (e *Engine) Begin(owner int, f Field) (EditSession, error) {
	if !f.Numeric() {
		return EditSession{}, fmt.Errorf("%w: %s", ErrNotEditable, f)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prune()
	if s, ok := e.edits.Get(f); ok {
		if s.Owner != owner {
			return EditSession{}, fmt.Errorf("%w: %s", ErrEditLocked, f)
		}
		e.edits.Touch(f, e.clock.Now())
		return s, nil
	}
	b := Merge(e.raw, e.status, e.ledger.Entries(), nil)
	cur, _ := read(&b, f)
	frozen, _ := cur.(float64)
	s := e.edits.Begin(owner, f, frozen, e.clock.Now())
	e.publish()
	return s, nil
}

// Input updates the raw text shown for f.
func (e *Engine) Input(owner int, f Field, raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prune()
	if _, err := e.ownedLocked(owner, f); err != nil {
		e.publish()
		return err
	}
	e.edits.Input(f, raw, e.clock.Now())
	e.publish()
	return nil
}

// Commit ends owner's session on f. Parseable input is issued as
// authoritative + (input − authoritative) through send(value); anything else
// reverts the field and returns ErrInvalidInput.
func (e *Engine) Commit(owner int, f Field, raw string, send func(value float64) Sender) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prune()
	if _, err := e.ownedLocked(owner, f); err != nil {
		e.publish()
		return 0, err
	}
	e.edits.End(f)

	input, ok := ParseInput(raw)
	if !ok {
		e.publish()
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, raw)
	}

	b := base(e.raw, e.status)
	cur, _ := read(&b, f)
	authoritative, _ := cur.(float64)
	delta := input - authoritative
	value := authoritative + delta

	muts := []Mutation{{Field: f, Value: value}}
	seq := e.issueLocked(muts)
	e.publish()
	if send != nil {
		e.enqueueLocked(muts, seq, send(value))
	}
	return value, nil
}

// Blur is Commit for a control losing focus: parseable input commits, anything else reverts.
func (e *Engine) Blur(owner int, f Field, raw string, send func(value float64) Sender) (float64, error) {
	return e.Commit(owner, f, raw, send)
}

// CancelEdit ends owner's session on f without dispatching anything. A pending
// optimistic value for f is discarded too, so the field shows the last
// authoritative value.
func (e *Engine) CancelEdit(owner int, f Field) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prune()
	if _, err := e.ownedLocked(owner, f); err != nil {
		e.publish()
		return err
	}
	e.edits.End(f)
	e.ledger.Discard(f)
	e.publish()
	return nil
}

// ReleaseEdits ends every session held by owner without dispatching anything.
// It returns the number of sessions ended.
func (e *Engine) ReleaseEdits(owner int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	released := e.edits.Release(owner)
	if len(released) > 0 {
		e.publish()
		if e.log != nil {
			e.log.Infow("edit_sessions_released", "owner", owner, "fields", released)
		}
	}
	return len(released)
}
