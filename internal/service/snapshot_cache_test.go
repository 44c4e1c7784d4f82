package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
)

type memSnapshotCache struct {
	state   models.CachedState
	has     bool
	loadErr error
	saves   []models.CachedState
}

func (c *memSnapshotCache) Save(ctx context.Context, s models.CachedState) error {
	c.saves = append(c.saves, s)
	c.state, c.has = s, true
	return nil
}

func (c *memSnapshotCache) Load(ctx context.Context) (models.CachedState, bool, error) {
	return c.state, c.has, c.loadErr
}

func TestSnapshotKeeper_RestoreSeedsStaleView(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine := reconcile.NewEngine(clock, reconcile.Config{}, logger.Nop())
	cache := &memSnapshotCache{has: true, state: models.CachedState{
		Snapshot: models.DeviceSnapshot{CurrentTemp: 98.6},
		Settings: models.Settings{SetPoint: 101},
	}}
	k := NewSnapshotKeeper(engine, cache, clock, time.Minute, logger.Nop())

	ok, err := k.Restore(context.Background())
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	v := engine.View()
	if !v.Stale || v.Connected {
		t.Fatalf("expected a stale disconnected view, got stale=%v connected=%v", v.Stale, v.Connected)
	}
	if v.Snapshot.CurrentTemp != 98.6 || v.Settings.SetPoint != 101 {
		t.Fatalf("cached values not seeded: %+v", v.Snapshot)
	}
}

func TestSnapshotKeeper_RestoreErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine := reconcile.NewEngine(clock, reconcile.Config{}, logger.Nop())

	ok, err := NewSnapshotKeeper(engine, &memSnapshotCache{}, clock, 0, logger.Nop()).Restore(context.Background())
	if err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	_, err = NewSnapshotKeeper(engine, &memSnapshotCache{loadErr: errors.New("disk")}, clock, 0, logger.Nop()).Restore(context.Background())
	if err == nil {
		t.Fatalf("expected load error")
	}
}

func TestSnapshotKeeper_SavesThrottled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	engine := reconcile.NewEngine(clock, reconcile.Config{}, logger.Nop())
	cache := &memSnapshotCache{}
	k := NewSnapshotKeeper(engine, cache, clock, 30*time.Second, logger.Nop())

	k.ApplyPoll(reconcile.Raw{Snapshot: models.DeviceSnapshot{CurrentTemp: 99}}, nil)
	if len(cache.saves) != 0 {
		t.Fatalf("nothing to save before settings are known")
	}

	k.ApplyPoll(reconcile.Raw{Snapshot: models.DeviceSnapshot{CurrentTemp: 100}}, &models.Settings{SetPoint: 102})
	clock.Advance(10 * time.Second)
	k.ApplyPoll(reconcile.Raw{Snapshot: models.DeviceSnapshot{CurrentTemp: 101}}, nil)
	if len(cache.saves) != 1 || cache.saves[0].Snapshot.CurrentTemp != 100 {
		t.Fatalf("expected one save of the first complete poll, got %+v", cache.saves)
	}

	clock.Advance(20 * time.Second)
	k.ApplyPoll(reconcile.Raw{Snapshot: models.DeviceSnapshot{CurrentTemp: 103}}, nil)
	if len(cache.saves) != 2 {
		t.Fatalf("expected a second save after the interval, got %d", len(cache.saves))
	}
	if got := cache.saves[1]; got.Snapshot.CurrentTemp != 103 || got.Settings.SetPoint != 102 {
		t.Fatalf("second save should carry the remembered settings, got %+v", got)
	}
	if !engine.View().Connected {
		t.Fatalf("polls must still reach the engine")
	}
}
