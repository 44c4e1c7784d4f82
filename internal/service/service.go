package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"soak_console/internal/authz"
	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	CreateUser(username, password string, role models.Role) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (Operator, error)
}

// Console dispatches every operator command. Each call is checked against the
// permission policy before it touches the ledger or the backend.
type Console interface {
	Toggle(ctx context.Context, op Operator, relay string, on bool) error
	ResetFaults(ctx context.Context, op Operator) error
	MasterShutdown(ctx context.Context, op Operator) error
	StartSoak(ctx context.Context, op Operator, p SoakParams) error
	CancelSoak(ctx context.Context, op Operator) error
	CancelScheduledSession(ctx context.Context, op Operator) error
	AdjustTimer(ctx context.Context, op Operator, minutes int) error
	TriggerSchedule(ctx context.Context, op Operator, id int) error
	UpdateSystem(ctx context.Context, op Operator) error

	AdjustSetting(ctx context.Context, op Operator, name string, delta float64) (float64, error)
	UpdateSettings(ctx context.Context, op Operator, patch models.SettingsPatch) error

	CreateSchedule(ctx context.Context, op Operator, s models.Schedule) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, op Operator, id int, s models.Schedule) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, op Operator, id int) error

	ReportBug(ctx context.Context, op Operator, title, description string) (string, error)

	BeginEdit(ctx context.Context, op Operator, field string) (reconcile.EditSession, error)
	InputEdit(ctx context.Context, op Operator, field, raw string) error
	CommitEdit(ctx context.Context, op Operator, field, raw string) (float64, error)
	BlurEdit(ctx context.Context, op Operator, field, raw string) (float64, error)
	CancelEdit(ctx context.Context, op Operator, field string) error
	ReleaseEdits(op Operator)

	Resync()
}

// Monitoring exposes the reconciled state and everything derived from it.
type Monitoring interface {
	GetState(ctx context.Context, role models.Role) StateView
	Permissions(role models.Role) map[authz.Action]bool
	SystemConsole(ctx context.Context, role models.Role) (string, error)
}

// EventLog exposes the local command audit with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Console
	Monitoring
	EventLog
	Authorization
}

// Deps are the long-lived collaborators NewService wires together.
type Deps struct {
	Backend    Backend
	Engine     Reconciler
	Countdown  CountdownSource
	Clock      clockwork.Clock
	SigningKey string
	TokenTTL   time.Duration
	Resync     func()
	Log        *logger.Logger
}

func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Console:       NewConsoleService(d.Backend, d.Engine, repos.Commands, d.Clock, d.Resync, d.Log),
		Monitoring:    NewMonitoringService(d.Engine, d.Countdown, d.Clock),
		EventLog:      NewEventLogService(repos.Commands),
		Authorization: NewAuthService(repos.Auth, d.SigningKey, d.TokenTTL),
	}
}
