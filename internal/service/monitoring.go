package service

import (
	"context"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/authz"
	"soak_console/internal/countdown"
	"soak_console/internal/forecast"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/schedule"
)

// CountdownSource yields the live countdown display.
type CountdownSource interface {
	State() countdown.State
}

// ViewSource yields the latest reconciled view.
type ViewSource interface {
	View() *reconcile.View
}

// StateView is the reconciled view plus everything derived from it for one role.
type StateView struct {
	reconcile.View
	Role            models.Role           `json:"role"`
	Countdown       countdown.State       `json:"countdown"`
	NextSchedule    *schedule.Occurrence  `json:"next_schedule"`
	ForecastWarning *forecast.Warning     `json:"forecast_warning"`
	Permissions     map[authz.Action]bool `json:"permissions"`
	CanResetFaults  bool                  `json:"can_reset_faults"`
}

type MonitoringService struct {
	views     ViewSource
	countdown CountdownSource
	clock     clockwork.Clock
}

func NewMonitoringService(views ViewSource, cd CountdownSource, clock clockwork.Clock) *MonitoringService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MonitoringService{views: views, countdown: cd, clock: clock}
}

// GetState renders the current view for role. The console feed is blanked for
// roles that may not see it.
func (s *MonitoringService) GetState(ctx context.Context, role models.Role) StateView {
	v := *s.views.View()
	if !authz.Permission(role, authz.ViewSystemConsole) {
		v.Console = ""
	}

	now := s.clock.Now()
	out := StateView{
		View:            v,
		Role:            role,
		NextSchedule:    schedule.Next(v.Schedules, now),
		ForecastWarning: forecast.Detect(v.Weather, v.Schedules, now),
		Permissions:     authz.Permissions(role),
	}
	if s.countdown != nil {
		out.Countdown = s.countdown.State()
	}
	out.CanResetFaults = v.Snapshot.SafetyStatus != "" &&
		v.Snapshot.SafetyStatus != models.SafetyOK &&
		out.Permissions[authz.TogglePrivileged]
	return out
}

func (s *MonitoringService) Permissions(role models.Role) map[authz.Action]bool {
	return authz.Permissions(role)
}

// SystemConsole returns the last polled console feed.
func (s *MonitoringService) SystemConsole(ctx context.Context, role models.Role) (string, error) {
	if err := authz.Check(role, authz.ViewSystemConsole); err != nil {
		return "", err
	}
	return s.views.View().Console, nil
}
