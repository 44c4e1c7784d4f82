package service

import (
	"errors"
	"time"

	"soak_console/internal/models"
)

// Operator is the authenticated caller of a command.
type Operator struct {
	UserID int
	Role   models.Role
}

// SoakParams starts a manual soak. Zero values fall back to the configured defaults.
type SoakParams struct {
	TargetTemp      float64
	DurationMinutes int
}

// LogFilter supports audit filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "DISPATCHED", "DISPATCH_FAILED", "DENIED", "EDIT_REVERTED"
}

// Validation errors. Handlers map these to 400.
var (
	ErrInvalidRelay     = errors.New("unknown relay")
	ErrInvalidSetting   = errors.New("unknown or non-numeric setting")
	ErrInvalidSoak      = errors.New("invalid soak parameters")
	ErrInvalidTimer     = errors.New("timer adjustment must be non-zero")
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrInvalidBugReport = errors.New("bug report needs a title")
	ErrEmptyPatch       = errors.New("settings patch changes nothing")
	ErrNoActiveSession  = errors.New("no timed session is active")
)
