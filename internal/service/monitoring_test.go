package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/authz"
	"soak_console/internal/countdown"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
)

// Monday 2026-03-02 17:30 local.
var monitoringNow = time.Date(2026, time.March, 2, 17, 30, 0, 0, time.UTC)

type viewStub struct{ v *reconcile.View }

func (s viewStub) View() *reconcile.View { return s.v }

type countdownStub struct{ st countdown.State }

func (s countdownStub) State() countdown.State { return s.st }

func monitoringView() *reconcile.View {
	return &reconcile.View{
		Connected: true,
		Snapshot:  models.DeviceSnapshot{SafetyStatus: "CRITICAL: HIGH TEMP"},
		Schedules: []models.Schedule{
			{ID: 1, Name: "Evening", Type: models.ScheduleSoak, StartTime: "18:00", EndTime: "19:00", Days: models.Weekdays{0}, Active: true},
		},
		Weather: &models.WeatherReport{Hourly: models.HourlyForecast{
			Time:                     []string{"2026-03-02T17:00", "2026-03-02T18:00"},
			PrecipitationProbability: []float64{0, 80},
		}},
		Console: "kernel: ok",
	}
}

func TestMonitoringService_GetState(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name       string
		role       models.Role
		assertFunc func(t *testing.T, got StateView)
	}

	cases := []testCase{
		{
			name: "admin sees console and reset affordance",
			role: models.RoleAdmin,
			assertFunc: func(t *testing.T, got StateView) {
				if got.Console != "kernel: ok" {
					t.Errorf("expected console feed for admin, got %q", got.Console)
				}
				if !got.CanResetFaults {
					t.Errorf("expected can_reset_faults with a tripped safety status")
				}
			},
		},
		{
			name: "user gets console blanked",
			role: models.RoleUser,
			assertFunc: func(t *testing.T, got StateView) {
				if got.Console != "" {
					t.Errorf("expected blank console for user, got %q", got.Console)
				}
				if got.CanResetFaults {
					t.Errorf("user cannot reset faults")
				}
				if !got.Permissions[authz.ToggleBasic] || got.Permissions[authz.TogglePrivileged] {
					t.Errorf("unexpected permissions %+v", got.Permissions)
				}
			},
		},
		{
			name: "derived schedule and forecast",
			role: models.RoleViewer,
			assertFunc: func(t *testing.T, got StateView) {
				if got.NextSchedule == nil || got.NextSchedule.Label != "Today" || got.NextSchedule.MinutesUntil != 30 {
					t.Fatalf("expected Evening today in 30 min, got %+v", got.NextSchedule)
				}
				if got.ForecastWarning == nil || got.ForecastWarning.ScheduleID != 1 {
					t.Fatalf("expected a forecast warning for schedule 1, got %+v", got.ForecastWarning)
				}
				if got.Countdown.Text != "4:59" {
					t.Errorf("expected countdown passthrough, got %q", got.Countdown.Text)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := monitoringView()
			svc := NewMonitoringService(viewStub{v}, countdownStub{countdown.State{Active: true, Text: "4:59"}}, clockwork.NewFakeClockAt(monitoringNow))
			got := svc.GetState(context.Background(), tc.role)
			if got.Role != tc.role {
				t.Errorf("expected role %q, got %q", tc.role, got.Role)
			}
			tc.assertFunc(t, got)
			if v.Console != "kernel: ok" {
				t.Errorf("shared view must not be modified")
			}
		})
	}
}

func TestMonitoringService_NoResetWhenHealthy(t *testing.T) {
	v := monitoringView()
	v.Snapshot.SafetyStatus = models.SafetyOK
	svc := NewMonitoringService(viewStub{v}, nil, clockwork.NewFakeClockAt(monitoringNow))

	if got := svc.GetState(context.Background(), models.RoleAdmin); got.CanResetFaults {
		t.Fatalf("healthy controller should not offer reset")
	}
}

func TestMonitoringService_SystemConsole(t *testing.T) {
	svc := NewMonitoringService(viewStub{monitoringView()}, nil, clockwork.NewFakeClockAt(monitoringNow))

	out, err := svc.SystemConsole(context.Background(), models.RoleAdmin)
	if err != nil || out != "kernel: ok" {
		t.Fatalf("admin console: got %q, %v", out, err)
	}
	if _, err := svc.SystemConsole(context.Background(), models.RoleUser); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user, got %v", err)
	}
}
