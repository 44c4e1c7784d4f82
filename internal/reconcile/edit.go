package reconcile

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// EditSession is an operator's in-progress direct entry into a numeric field.
// While it exists the field's reconciled value is frozen and its display is the raw input.
type EditSession struct {
	Field   Field
	Owner   int // user id of the operator holding the session
	Raw     string
	Frozen  float64
	Touched time.Time
}

// EditGuard tracks active edit sessions. Not safe for concurrent use.
type EditGuard struct {
	sessions map[Field]EditSession
}

func NewEditGuard() *EditGuard {
	return &EditGuard{sessions: map[Field]EditSession{}}
}

// Begin opens a session on f for owner, freezing its current value.
func (g *EditGuard) Begin(owner int, f Field, frozen float64, now time.Time) EditSession {
	s := EditSession{
		Field:   f,
		Owner:   owner,
		Raw:     strconv.FormatFloat(frozen, 'f', -1, 64),
		Frozen:  frozen,
		Touched: now,
	}
	g.sessions[f] = s
	return s
}

// Input replaces the raw text of an active session.
func (g *EditGuard) Input(f Field, raw string, now time.Time) bool {
	s, ok := g.sessions[f]
	if !ok {
		return false
	}
	s.Raw = raw
	s.Touched = now
	g.sessions[f] = s
	return true
}

// Touch marks the session on f as used at now.
func (g *EditGuard) Touch(f Field, now time.Time) {
	if s, ok := g.sessions[f]; ok {
		s.Touched = now
		g.sessions[f] = s
	}
}

// End closes the session on f.
func (g *EditGuard) End(f Field) (EditSession, bool) {
	s, ok := g.sessions[f]
	delete(g.sessions, f)
	return s, ok
}

// Expire ends every session untouched for at least idle and returns their fields.
func (g *EditGuard) Expire(now time.Time, idle time.Duration) []Field {
	var out []Field
	for f, s := range g.sessions {
		if now.Sub(s.Touched) >= idle {
			out = append(out, f)
			delete(g.sessions, f)
		}
	}
	slices.Sort(out)
	return out
}

// Release ends every session held by owner and returns their fields.
func (g *EditGuard) Release(owner int) []Field {
	var out []Field
	for f, s := range g.sessions {
		if s.Owner == owner {
			out = append(out, f)
			delete(g.sessions, f)
		}
	}
	slices.Sort(out)
	return out
}

func (g *EditGuard) Get(f Field) (EditSession, bool) {
	s, ok := g.sessions[f]
	return s, ok
}

// Sessions returns the active sessions sorted by field.
func (g *EditGuard) Sessions() []EditSession {
	out := make([]EditSession, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b EditSession) int { return strings.Compare(string(a.Field), string(b.Field)) })
	return out
}

// ParseInput parses raw operator input as a finite number.
func ParseInput(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
