// Package countdown derives the live remaining-time display of the active timed session.
package countdown

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/tasks"
)

const (
	taskName     = "countdown"
	tickInterval = time.Second
)

// Kind identifies which timed session is counting down.
type Kind string

const (
	KindManual    Kind = "manual_soak"
	KindScheduled Kind = "scheduled_session"
)

// Session is the active timed session and its expiry.
type Session struct {
	Kind    Kind
	Expires time.Time
}

// ActiveSession picks the session to count down. Manual soak wins over a scheduled session.
func ActiveSession(d models.DesiredState) (Session, bool) {
	if d.ManualSoakActive && !d.ManualSoakExpires.IsZero() {
		return Session{Kind: KindManual, Expires: d.ManualSoakExpires}, true
	}
	if d.ScheduledSessionActive && !d.ScheduledSessionExpires.IsZero() {
		return Session{Kind: KindScheduled, Expires: d.ScheduledSessionExpires}, true
	}
	return Session{}, false
}

// Remaining returns whole seconds until expires, rounded down.
func Remaining(expires, now time.Time) int {
	return int(math.Floor(expires.Sub(now).Seconds()))
}

// Format renders seconds as m:ss, or h:mm:ss from one hour up.
func Format(seconds int) string {
	if seconds < 0 {
		return ""
	}
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// State is what the operator surface shows.
type State struct {
	Active    bool      `json:"active"`
	Kind      Kind      `json:"kind,omitempty"`
	Expires   time.Time `json:"expires,omitempty"`
	Remaining int       `json:"remaining_seconds"`
	Text      string    `json:"text"`
}

// Countdown follows the reconciled view and ticks once a second while a session is active.
type Countdown struct {
	ctx   context.Context
	tasks *tasks.Group
	log   *logger.Logger

	mu      sync.Mutex
	session Session
	has     bool
	gen     uint64
	state   State
}

// New returns a countdown whose ticking task lives under ctx in group.
func New(ctx context.Context, group *tasks.Group, log *logger.Logger) *Countdown {
	return &Countdown{ctx: ctx, tasks: group, log: log}
}

// Sync reacts to a new reconciled view. The tick task is restarted only when
// the session kind or expiry changed. Suitable as a reconcile.Listener.
func (c *Countdown) Sync(v *reconcile.View) {
	s, ok := ActiveSession(v.Snapshot.Desired)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok == c.has && (!ok || (s.Kind == c.session.Kind && s.Expires.Equal(c.session.Expires))) {
		return
	}
	c.gen++
	c.session, c.has = s, ok
	if !ok {
		c.state = State{}
		c.tasks.Cancel(taskName)
		return
	}

	if !c.refreshLocked() {
		return
	}
	gen := c.gen
	c.tasks.Start(c.ctx, taskName, tickInterval, func(ctx context.Context) { c.tick(gen) })
	if c.log != nil {
		c.log.Debugw("countdown_started", "kind", s.Kind, "expires", s.Expires)
	}
}

// Tick recomputes the display from the clock.
func (c *Countdown) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.refreshLocked()
}

// refreshLocked updates state and reports whether the countdown is still live.
// A negative remainder clears the display and stops the task.
func (c *Countdown) refreshLocked() bool {
	if !c.has {
		c.state = State{}
		return false
	}
	rem := Remaining(c.session.Expires, c.tasks.Clock().Now())
	if rem < 0 {
		c.state = State{}
		c.tasks.Cancel(taskName)
		return false
	}
	c.state = State{
		Active:    true,
		Kind:      c.session.Kind,
		Expires:   c.session.Expires,
		Remaining: rem,
		Text:      Format(rem),
	}
	return true
}

// State returns the current display.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Text returns the formatted remaining time, or "" when nothing is counting down.
func (c *Countdown) Text() string { return c.State().Text }
