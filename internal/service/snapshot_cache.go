package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/repository"
)

const (
	DefaultCacheEvery = 30 * time.Second
	cacheSaveTimeout  = 5 * time.Second
)

// PollTarget receives poll results and cached seeds. The engine implements it.
type PollTarget interface {
	ApplyPoll(raw reconcile.Raw, settings *models.Settings)
	ApplyFailure(err error)
	Seed(raw reconcile.Raw)
}

// SnapshotKeeper sits between the poller and the engine and persists the last
// authoritative snapshot at most once per interval.
type SnapshotKeeper struct {
	target PollTarget
	cache  repository.SnapshotCache
	clock  clockwork.Clock
	every  time.Duration
	log    *logger.Logger

	mu        sync.Mutex
	settings  *models.Settings
	lastSaved time.Time
}

func NewSnapshotKeeper(target PollTarget, cache repository.SnapshotCache, clock clockwork.Clock, every time.Duration, log *logger.Logger) *SnapshotKeeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if every <= 0 {
		every = DefaultCacheEvery
	}
	return &SnapshotKeeper{target: target, cache: cache, clock: clock, every: every, log: log}
}

// Restore seeds the target from the cache. It reports whether a cached state existed.
func (k *SnapshotKeeper) Restore(ctx context.Context) (bool, error) {
	st, ok, err := k.cache.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot cache: %w", err)
	}
	if !ok {
		return false, nil
	}
	k.mu.Lock()
	settings := st.Settings
	k.settings = &settings
	k.mu.Unlock()

	k.target.Seed(reconcile.Raw{Snapshot: st.Snapshot, Settings: st.Settings})
	if k.log != nil {
		k.log.Infow("snapshot_cache_restored", "saved_at", st.SavedAt)
	}
	return true, nil
}

func (k *SnapshotKeeper) ApplyPoll(raw reconcile.Raw, settings *models.Settings) {
	k.target.ApplyPoll(raw, settings)

	now := k.clock.Now()
	k.mu.Lock()
	if settings != nil {
		s := *settings
		k.settings = &s
	}
	if k.settings == nil || (!k.lastSaved.IsZero() && now.Sub(k.lastSaved) < k.every) {
		k.mu.Unlock()
		return
	}
	st := models.CachedState{Snapshot: raw.Snapshot, Settings: *k.settings, SavedAt: now.UTC()}
	k.lastSaved = now
	k.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cacheSaveTimeout)
	defer cancel()
	if err := k.cache.Save(ctx, st); err != nil && k.log != nil {
		k.log.Warnw("snapshot_cache_save_failed", "error", err)
	}
}

func (k *SnapshotKeeper) ApplyFailure(err error) {
	k.target.ApplyFailure(err)
}
