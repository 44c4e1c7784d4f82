// Package tasks runs named repeating tasks on an injectable clock.
//
// Each task runs on its own goroutine and never overlaps itself: a tick or
// trigger that arrives while the task function is running is coalesced into
// at most one follow-up run.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/logger"
)

// Func is the body of a task. It must return promptly once ctx is done.
type Func func(ctx context.Context)

type task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan struct{}
}

// Group owns a set of tasks keyed by purpose ("poll", "countdown", ...).
type Group struct {
	clock clockwork.Clock
	log   *logger.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

// NewGroup returns an empty group driven by clock.
func NewGroup(clock clockwork.Clock, log *logger.Logger) *Group {
	return &Group{clock: clock, log: log, tasks: map[string]*task{}}
}

// Clock returns the group's clock.
func (g *Group) Clock() clockwork.Clock { return g.clock }

// Start schedules fn every interval under name. A task already registered
// under the same name is cancelled first (without waiting for it).
func (g *Group) Start(parent context.Context, name string, interval time.Duration, fn Func) {
	ctx, cancel := context.WithCancel(parent)
	t := &task{
		cancel:  cancel,
		done:    make(chan struct{}),
		trigger: make(chan struct{}, 1),
	}

	g.mu.Lock()
	if prev, ok := g.tasks[name]; ok {
		prev.cancel()
	}
	g.tasks[name] = t
	g.mu.Unlock()

	ticker := g.clock.NewTicker(interval)
	go func() {
		defer close(t.done)
		defer ticker.Stop()
		defer g.forget(name, t)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
			case <-t.trigger:
			}
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}()

	if g.log != nil {
		g.log.Debugw("task_started", "task", name, "interval", interval)
	}
}

// Trigger asks the named task to run as soon as it is idle.
// Repeated triggers before the run starts collapse into one.
func (g *Group) Trigger(name string) bool {
	g.mu.Lock()
	t, ok := g.tasks[name]
	g.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case t.trigger <- struct{}{}:
	default:
	}
	return true
}

// Running reports whether a task is registered under name.
func (g *Group) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[name]
	return ok
}

// Cancel stops the named task without waiting. Safe to call from inside the task.
func (g *Group) Cancel(name string) {
	g.mu.Lock()
	t, ok := g.tasks[name]
	if ok {
		delete(g.tasks, name)
	}
	g.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// Stop cancels the named task and waits for its goroutine to exit.
// Must not be called from inside the task itself.
func (g *Group) Stop(name string) {
	g.mu.Lock()
	t, ok := g.tasks[name]
	if ok {
		delete(g.tasks, name)
	}
	g.mu.Unlock()
	if ok {
		t.cancel()
		<-t.done
	}
}

// StopAll cancels every task and waits for all of them.
func (g *Group) StopAll() {
	g.mu.Lock()
	all := g.tasks
	g.tasks = map[string]*task{}
	g.mu.Unlock()

	for _, t := range all {
		t.cancel()
	}
	for _, t := range all {
		<-t.done
	}
}

// forget drops t from the registry if it is still the current task for name.
func (g *Group) forget(name string, t *task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.tasks[name]; ok && cur == t {
		delete(g.tasks, name)
	}
}
