package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"soak_console/internal/authz"
	"soak_console/internal/countdown"
	"soak_console/internal/logger"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/repository"
	"soak_console/internal/schedule"
)

// Backend is the subset of the controller API the console dispatches to.
type Backend interface {
	SetRelay(ctx context.Context, relay string, on bool) error
	ResetFaults(ctx context.Context) error
	MasterShutdown(ctx context.Context) error
	StartSoak(ctx context.Context, targetTemp float64, durationMinutes int) error
	CancelSoak(ctx context.Context) error
	CancelScheduledSession(ctx context.Context) error
	AdjustSoakTimer(ctx context.Context, minutes int) error
	TriggerSchedule(ctx context.Context, id int) error
	UpdateSystem(ctx context.Context) error
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) error
	CreateSchedule(ctx context.Context, s models.Schedule) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id int, s models.Schedule) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id int) error
	ReportBug(ctx context.Context, title, description string) (string, error)
}

// Reconciler is the engine surface the dispatchers write through.
type Reconciler interface {
	View() *reconcile.View
	Authoritative(f reconcile.Field) (any, bool)
	Issue(f reconcile.Field, value any, send reconcile.Sender) error
	IssueBatch(muts []reconcile.Mutation, send reconcile.Sender) error
	Begin(owner int, f reconcile.Field) (reconcile.EditSession, error)
	Input(owner int, f reconcile.Field, raw string) error
	Commit(owner int, f reconcile.Field, raw string, send func(value float64) reconcile.Sender) (float64, error)
	Blur(owner int, f reconcile.Field, raw string, send func(value float64) reconcile.Sender) (float64, error)
	CancelEdit(owner int, f reconcile.Field) error
	ReleaseEdits(owner int) int
}

type ConsoleService struct {
	backend  Backend
	engine   Reconciler
	commands repository.CommandRepo
	clock    clockwork.Clock
	resync   func()
	log      *logger.Logger
}

func NewConsoleService(b Backend, e Reconciler, commands repository.CommandRepo, clock clockwork.Clock, resync func(), log *logger.Logger) *ConsoleService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConsoleService{backend: b, engine: e, commands: commands, clock: clock, resync: resync, log: log}
}

// -------- Relays and sessions --------

// Toggle switches one relay optimistically.
func (s *ConsoleService) Toggle(ctx context.Context, op Operator, relay string, on bool) error {
	action, ok := authz.RelayAction(relay)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRelay, relay)
	}
	if err := s.authorize(ctx, op, action, "toggle"); err != nil {
		return err
	}
	desc := fmt.Sprintf("%s %s", relay, onOff(on))
	meta := map[string]any{"relay": relay, "on": on, "user_id": op.UserID}
	return s.engine.Issue(reconcile.RelayField(relay), on, s.tracked("toggle", desc, meta, func(ctx context.Context) error {
		return s.backend.SetRelay(ctx, relay, on)
	}))
}

// ResetFaults clears latched safety faults. Synchronous.
func (s *ConsoleService) ResetFaults(ctx context.Context, op Operator) error {
	if err := s.authorize(ctx, op, authz.TogglePrivileged, "reset-faults"); err != nil {
		return err
	}
	return s.call(ctx, op, "reset-faults", "reset safety faults", nil, s.backend.ResetFaults)
}

// MasterShutdown turns every relay off and ends both timed sessions.
func (s *ConsoleService) MasterShutdown(ctx context.Context, op Operator) error {
	if err := s.authorize(ctx, op, authz.TogglePrivileged, "master-shutdown"); err != nil {
		return err
	}
	muts := make([]reconcile.Mutation, 0, len(models.Relays)+2)
	for _, r := range models.Relays {
		muts = append(muts, reconcile.Mutation{Field: reconcile.RelayField(r), Value: false})
	}
	muts = append(muts,
		reconcile.Mutation{Field: reconcile.FieldManualSoakActive, Value: false},
		reconcile.Mutation{Field: reconcile.FieldScheduledSessionActive, Value: false},
	)
	meta := map[string]any{"user_id": op.UserID}
	return s.engine.IssueBatch(muts, s.tracked("master-shutdown", "all relays off", meta, s.backend.MasterShutdown))
}

// StartSoak starts a manual soak. The expiry shown locally is now + duration.
func (s *ConsoleService) StartSoak(ctx context.Context, op Operator, p SoakParams) error {
	if err := s.authorize(ctx, op, authz.ToggleBasic, "start-soak"); err != nil {
		return err
	}
	settings := s.engine.View().Settings
	if p.TargetTemp == 0 {
		p.TargetTemp = settings.DefaultSoakTemp
	}
	if p.DurationMinutes == 0 {
		p.DurationMinutes = int(settings.DefaultSoakDuration)
	}
	if p.DurationMinutes <= 0 || p.TargetTemp <= 0 {
		return fmt.Errorf("%w: target %.1f, duration %d min", ErrInvalidSoak, p.TargetTemp, p.DurationMinutes)
	}
	if settings.MaxTempLimit > 0 && p.TargetTemp > settings.MaxTempLimit {
		return fmt.Errorf("%w: target %.1f exceeds limit %.1f", ErrInvalidSoak, p.TargetTemp, settings.MaxTempLimit)
	}

	expires := s.clock.Now().UTC().Add(time.Duration(p.DurationMinutes) * time.Minute)
	muts := []reconcile.Mutation{
		{Field: reconcile.FieldManualSoakActive, Value: true},
		{Field: reconcile.FieldManualSoakExpires, Value: expires},
	}
	desc := fmt.Sprintf("soak at %.1f for %d min", p.TargetTemp, p.DurationMinutes)
	meta := map[string]any{"target_temp": p.TargetTemp, "duration_minutes": p.DurationMinutes, "user_id": op.UserID}
	return s.engine.IssueBatch(muts, s.tracked("start-soak", desc, meta, func(ctx context.Context) error {
		return s.backend.StartSoak(ctx, p.TargetTemp, p.DurationMinutes)
	}))
}

func (s *ConsoleService) CancelSoak(ctx context.Context, op Operator) error {
	if err := s.authorize(ctx, op, authz.ToggleBasic, "cancel-soak"); err != nil {
		return err
	}
	meta := map[string]any{"user_id": op.UserID}
	return s.engine.Issue(reconcile.FieldManualSoakActive, false, s.tracked("cancel-soak", "manual soak cancelled", meta, s.backend.CancelSoak))
}

func (s *ConsoleService) CancelScheduledSession(ctx context.Context, op Operator) error {
	if err := s.authorize(ctx, op, authz.ManageSchedules, "cancel-scheduled-session"); err != nil {
		return err
	}
	meta := map[string]any{"user_id": op.UserID}
	return s.engine.Issue(reconcile.FieldScheduledSessionActive, false,
		s.tracked("cancel-scheduled-session", "scheduled session cancelled", meta, s.backend.CancelScheduledSession))
}

// AdjustTimer moves the active session's expiry by minutes. The new expiry is
// issued locally so the countdown jumps before the backend confirms.
func (s *ConsoleService) AdjustTimer(ctx context.Context, op Operator, minutes int) error {
	if err := s.authorize(ctx, op, authz.ToggleBasic, "adjust-timer"); err != nil {
		return err
	}
	if minutes == 0 {
		return ErrInvalidTimer
	}
	sess, ok := countdown.ActiveSession(s.engine.View().Snapshot.Desired)
	if !ok {
		return ErrNoActiveSession
	}
	field := reconcile.FieldManualSoakExpires
	if sess.Kind == countdown.KindScheduled {
		field = reconcile.FieldScheduledSessionExpires
	}
	expires := sess.Expires.Add(time.Duration(minutes) * time.Minute)
	desc := fmt.Sprintf("%s timer %+d min", sess.Kind, minutes)
	meta := map[string]any{"minutes": minutes, "kind": string(sess.Kind), "user_id": op.UserID}
	return s.engine.Issue(field, expires, s.tracked("adjust-timer", desc, meta, func(ctx context.Context) error {
		return s.backend.AdjustSoakTimer(ctx, minutes)
	}))
}

func (s *ConsoleService) TriggerSchedule(ctx context.Context, op Operator, id int) error {
	if err := s.authorize(ctx, op, authz.ManageSchedules, "trigger-schedule"); err != nil {
		return err
	}
	return s.call(ctx, op, "trigger-schedule", fmt.Sprintf("schedule %d triggered", id), map[string]any{"schedule_id": id},
		func(ctx context.Context) error { return s.backend.TriggerSchedule(ctx, id) })
}

func (s *ConsoleService) UpdateSystem(ctx context.Context, op Operator) error {
	if err := s.authorize(ctx, op, authz.ViewSystemConsole, "update-system"); err != nil {
		return err
	}
	return s.call(ctx, op, "update-system", "system update requested", nil, s.backend.UpdateSystem)
}

// -------- Settings --------

// AdjustSetting steps a numeric setting by delta from its current reconciled value.
func (s *ConsoleService) AdjustSetting(ctx context.Context, op Operator, name string, delta float64) (float64, error) {
	field := reconcile.SettingsField(name)
	if !field.Numeric() || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSetting, name)
	}
	if err := s.authorizeSetting(ctx, op, name, "settings-adjust"); err != nil {
		return 0, err
	}

	cur, _ := s.engine.View().Value(field)
	base, _ := cur.(float64)
	value := base + delta

	var patch models.SettingsPatch
	if err := patch.SetNumber(name, value); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	desc := fmt.Sprintf("%s %.1f -> %.1f", name, base, value)
	meta := map[string]any{"setting": name, "from": base, "to": value, "user_id": op.UserID}
	if err := s.engine.Issue(field, value, s.tracked("settings-adjust", desc, meta, func(ctx context.Context) error {
		return s.backend.UpdateSettings(ctx, patch)
	})); err != nil {
		return 0, err
	}
	return value, nil
}

// UpdateSettings applies a partial settings change. Every field it touches must be permitted.
func (s *ConsoleService) UpdateSettings(ctx context.Context, op Operator, patch models.SettingsPatch) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	numbers := patch.Numbers()
	muts := make([]reconcile.Mutation, 0, len(numbers)+1)
	for _, name := range models.NumericSettingNames {
		v, ok := numbers[name]
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidSetting, name)
		}
		if err := s.authorizeSetting(ctx, op, name, "settings"); err != nil {
			return err
		}
		muts = append(muts, reconcile.Mutation{Field: reconcile.SettingsField(name), Value: v})
	}
	if patch.Location != nil {
		if err := s.authorizeSetting(ctx, op, "location", "settings"); err != nil {
			return err
		}
		muts = append(muts, reconcile.Mutation{Field: reconcile.FieldLocation, Value: *patch.Location})
	}

	names := make([]string, len(muts))
	for i, m := range muts {
		names[i] = string(m.Field)
	}
	meta := map[string]any{"fields": names, "user_id": op.UserID}
	return s.engine.IssueBatch(muts, s.tracked("settings", "settings updated: "+strings.Join(names, ", "), meta, func(ctx context.Context) error {
		return s.backend.UpdateSettings(ctx, patch)
	}))
}

// -------- Schedules --------

func (s *ConsoleService) CreateSchedule(ctx context.Context, op Operator, sch models.Schedule) (*models.Schedule, error) {
	if err := s.authorize(ctx, op, authz.ManageSchedules, "schedule-create"); err != nil {
		return nil, err
	}
	if err := validateSchedule(sch); err != nil {
		return nil, err
	}
	var out *models.Schedule
	err := s.call(ctx, op, "schedule-create", "schedule "+sch.Name+" created", map[string]any{"name": sch.Name},
		func(ctx context.Context) (err error) {
			out, err = s.backend.CreateSchedule(ctx, sch)
			return err
		})
	return out, err
}

func (s *ConsoleService) UpdateSchedule(ctx context.Context, op Operator, id int, sch models.Schedule) (*models.Schedule, error) {
	if err := s.authorize(ctx, op, authz.ManageSchedules, "schedule-update"); err != nil {
		return nil, err
	}
	if err := validateSchedule(sch); err != nil {
		return nil, err
	}
	sch.ID = id
	var out *models.Schedule
	err := s.call(ctx, op, "schedule-update", fmt.Sprintf("schedule %d updated", id), map[string]any{"schedule_id": id},
		func(ctx context.Context) (err error) {
			out, err = s.backend.UpdateSchedule(ctx, id, sch)
			return err
		})
	return out, err
}

func (s *ConsoleService) DeleteSchedule(ctx context.Context, op Operator, id int) error {
	if err := s.authorize(ctx, op, authz.ManageSchedules, "schedule-delete"); err != nil {
		return err
	}
	return s.call(ctx, op, "schedule-delete", fmt.Sprintf("schedule %d deleted", id), map[string]any{"schedule_id": id},
		func(ctx context.Context) error { return s.backend.DeleteSchedule(ctx, id) })
}

func validateSchedule(sch models.Schedule) error {
	if strings.TrimSpace(sch.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	}
	switch sch.Type {
	case models.ScheduleSoak, models.ScheduleClean, models.ScheduleOzone:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidSchedule, sch.Type)
	}
	if _, err := schedule.ParseClock(sch.StartTime); err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrInvalidSchedule, err)
	}
	if _, err := schedule.ParseClock(sch.EndTime); err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrInvalidSchedule, err)
	}
	if len(sch.Days) == 0 {
		return fmt.Errorf("%w: days_of_week is empty", ErrInvalidSchedule)
	}
	return nil
}

// -------- Support --------

func (s *ConsoleService) ReportBug(ctx context.Context, op Operator, title, description string) (string, error) {
	if err := s.authorize(ctx, op, authz.ToggleBasic, "report-bug"); err != nil {
		return "", err
	}
	if strings.TrimSpace(title) == "" {
		return "", ErrInvalidBugReport
	}
	url, err := s.backend.ReportBug(ctx, title, description)
	s.recordResult(ctx, "report-bug", "bug report: "+title, map[string]any{"issue_url": url, "user_id": op.UserID}, err)
	if err != nil {
		return "", fmt.Errorf("report-bug: %w", err)
	}
	return url, nil
}

// -------- Direct entry --------

func (s *ConsoleService) editField(ctx context.Context, op Operator, field string) (reconcile.Field, string, error) {
	f, err := reconcile.ParseField(field)
	if err != nil {
		return "", "", err
	}
	name, ok := f.Setting()
	if !ok || !f.Numeric() {
		return "", "", fmt.Errorf("%w: %s", reconcile.ErrNotEditable, f)
	}
	if err := s.authorizeSetting(ctx, op, name, "edit"); err != nil {
		return "", "", err
	}
	return f, name, nil
}

func (s *ConsoleService) BeginEdit(ctx context.Context, op Operator, field string) (reconcile.EditSession, error) {
	f, _, err := s.editField(ctx, op, field)
	if err != nil {
		return reconcile.EditSession{}, err
	}
	return s.engine.Begin(op.UserID, f)
}

func (s *ConsoleService) InputEdit(ctx context.Context, op Operator, field, raw string) error {
	f, _, err := s.editField(ctx, op, field)
	if err != nil {
		return err
	}
	return s.engine.Input(op.UserID, f, raw)
}

func (s *ConsoleService) CommitEdit(ctx context.Context, op Operator, field, raw string) (float64, error) {
	return s.finishEdit(ctx, op, field, raw, false)
}

func (s *ConsoleService) BlurEdit(ctx context.Context, op Operator, field, raw string) (float64, error) {
	return s.finishEdit(ctx, op, field, raw, true)
}

func (s *ConsoleService) finishEdit(ctx context.Context, op Operator, field, raw string, blur bool) (float64, error) {
	f, name, err := s.editField(ctx, op, field)
	if err != nil {
		return 0, err
	}
	send := func(v float64) reconcile.Sender {
		var patch models.SettingsPatch
		_ = patch.SetNumber(name, v) // name is a known numeric setting
		meta := map[string]any{"setting": name, "to": v, "user_id": op.UserID}
		return s.tracked("edit", fmt.Sprintf("%s set to %.1f", name, v), meta, func(ctx context.Context) error {
			return s.backend.UpdateSettings(ctx, patch)
		})
	}

	var value float64
	if blur {
		value, err = s.engine.Blur(op.UserID, f, raw, send)
	} else {
		value, err = s.engine.Commit(op.UserID, f, raw, send)
	}
	if errors.Is(err, reconcile.ErrInvalidInput) {
		s.record(ctx, models.EventEditReverted, "edit", fmt.Sprintf("%s input %q reverted", name, raw),
			map[string]any{"setting": name, "input": raw, "user_id": op.UserID})
	}
	return value, err
}

func (s *ConsoleService) CancelEdit(ctx context.Context, op Operator, field string) error {
	f, _, err := s.editField(ctx, op, field)
	if err != nil {
		return err
	}
	return s.engine.CancelEdit(op.UserID, f)
}

// ReleaseEdits ends every edit session op holds, as when its state stream closes.
func (s *ConsoleService) ReleaseEdits(op Operator) {
	s.engine.ReleaseEdits(op.UserID)
}

// Resync asks for an immediate poll.
func (s *ConsoleService) Resync() {
	if s.resync != nil {
		s.resync()
	}
}

// -------- helpers --------

func (s *ConsoleService) authorize(ctx context.Context, op Operator, action authz.Action, command string) error {
	err := authz.Check(op.Role, action)
	if err == nil {
		return nil
	}
	if s.log != nil {
		s.log.Warnw("command_denied", "command", command, "action", action, "role", op.Role, "user_id", op.UserID)
	}
	s.record(ctx, models.EventDenied, command, fmt.Sprintf("%s denied for role %s", command, op.Role),
		map[string]any{"action": string(action), "role": string(op.Role), "user_id": op.UserID})
	return err
}

func (s *ConsoleService) authorizeSetting(ctx context.Context, op Operator, name, command string) error {
	action, ok := authz.SettingAction(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSetting, name)
	}
	return s.authorize(ctx, op, action, command)
}

// tracked wraps a backend call so its outcome lands in the audit log.
func (s *ConsoleService) tracked(command, desc string, meta map[string]any, fn func(ctx context.Context) error) reconcile.Sender {
	return func(ctx context.Context) error {
		err := fn(ctx)
		s.recordResult(ctx, command, desc, meta, err)
		return err
	}
}

// call runs a non-optimistic command synchronously and resyncs afterwards.
func (s *ConsoleService) call(ctx context.Context, op Operator, command, desc string, meta map[string]any, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["user_id"] = op.UserID
	s.recordResult(ctx, command, desc, meta, err)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	s.Resync()
	return nil
}

func (s *ConsoleService) recordResult(ctx context.Context, command, desc string, meta map[string]any, err error) {
	if err == nil {
		s.record(ctx, models.EventDispatched, command, desc, meta)
		return
	}
	if s.log != nil {
		s.log.Errorw("dispatch_failed", "command", command, "error", err)
	}
	failed := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		failed[k] = v
	}
	failed["error"] = err.Error()
	s.record(ctx, models.EventDispatchFailed, command, desc, failed)
}

func (s *ConsoleService) record(ctx context.Context, typ, command, desc string, meta map[string]any) {
	if s.commands == nil {
		return
	}
	// the request context may already be done for fire-and-forget dispatches
	ctx = context.WithoutCancel(ctx)
	err := s.commands.Append(ctx, models.CommandEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.clock.Now().UTC(),
		Type:        typ,
		Command:     command,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Errorw("command_audit_failed", "command", command, "type", typ, "error", err)
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
