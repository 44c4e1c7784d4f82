package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"soak_console/internal/authz"
	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseOp       service.Operator
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) CreateUser(username, password string, role models.Role) (int, error) {
	return m.SignUp(username, password)
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (service.Operator, error) {
	m.lastParseToken = token
	return m.parseOp, m.parseErr
}

// mockConsole records the last call and returns err for every command.
type mockConsole struct {
	mu       sync.Mutex
	err      error
	calls    []string
	lastOp   service.Operator
	lastArgs []any
	value    float64
	session  reconcile.EditSession
	resyncs  int
}

func (m *mockConsole) record(op service.Operator, name string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	m.lastOp = op
	m.lastArgs = args
	return m.err
}

func (m *mockConsole) Toggle(ctx context.Context, op service.Operator, relay string, on bool) error {
	return m.record(op, "toggle", relay, on)
}
func (m *mockConsole) ResetFaults(ctx context.Context, op service.Operator) error {
	return m.record(op, "reset-faults")
}
func (m *mockConsole) MasterShutdown(ctx context.Context, op service.Operator) error {
	return m.record(op, "master-shutdown")
}
func (m *mockConsole) StartSoak(ctx context.Context, op service.Operator, p service.SoakParams) error {
	return m.record(op, "start-soak", p)
}
func (m *mockConsole) CancelSoak(ctx context.Context, op service.Operator) error {
	return m.record(op, "cancel-soak")
}
func (m *mockConsole) CancelScheduledSession(ctx context.Context, op service.Operator) error {
	return m.record(op, "cancel-scheduled-session")
}
func (m *mockConsole) AdjustTimer(ctx context.Context, op service.Operator, minutes int) error {
	return m.record(op, "adjust-timer", minutes)
}
func (m *mockConsole) TriggerSchedule(ctx context.Context, op service.Operator, id int) error {
	return m.record(op, "trigger-schedule", id)
}
func (m *mockConsole) UpdateSystem(ctx context.Context, op service.Operator) error {
	return m.record(op, "update-system")
}
func (m *mockConsole) AdjustSetting(ctx context.Context, op service.Operator, name string, delta float64) (float64, error) {
	return m.value, m.record(op, "settings-adjust", name, delta)
}
func (m *mockConsole) UpdateSettings(ctx context.Context, op service.Operator, patch models.SettingsPatch) error {
	return m.record(op, "settings", patch)
}
func (m *mockConsole) CreateSchedule(ctx context.Context, op service.Operator, s models.Schedule) (*models.Schedule, error) {
	if err := m.record(op, "schedule-create", s); err != nil {
		return nil, err
	}
	s.ID = 7
	return &s, nil
}
func (m *mockConsole) UpdateSchedule(ctx context.Context, op service.Operator, id int, s models.Schedule) (*models.Schedule, error) {
	if err := m.record(op, "schedule-update", id, s); err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}
func (m *mockConsole) DeleteSchedule(ctx context.Context, op service.Operator, id int) error {
	return m.record(op, "schedule-delete", id)
}
func (m *mockConsole) ReportBug(ctx context.Context, op service.Operator, title, description string) (string, error) {
	if err := m.record(op, "report-bug", title, description); err != nil {
		return "", err
	}
	return "https://issues.example/1", nil
}
func (m *mockConsole) BeginEdit(ctx context.Context, op service.Operator, field string) (reconcile.EditSession, error) {
	return m.session, m.record(op, "edit-begin", field)
}
func (m *mockConsole) InputEdit(ctx context.Context, op service.Operator, field, raw string) error {
	return m.record(op, "edit-input", field, raw)
}
func (m *mockConsole) CommitEdit(ctx context.Context, op service.Operator, field, raw string) (float64, error) {
	return m.value, m.record(op, "edit-commit", field, raw)
}
func (m *mockConsole) BlurEdit(ctx context.Context, op service.Operator, field, raw string) (float64, error) {
	return m.value, m.record(op, "edit-blur", field, raw)
}
func (m *mockConsole) CancelEdit(ctx context.Context, op service.Operator, field string) error {
	return m.record(op, "edit-cancel", field)
}
func (m *mockConsole) ReleaseEdits(op service.Operator) {
	_ = m.record(op, "edit-release")
}
func (m *mockConsole) Resync() {
	m.mu.Lock()
	m.resyncs++
	m.mu.Unlock()
}

func (m *mockConsole) lastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

type mockMonitoring struct {
	mu       sync.Mutex
	state    service.StateView
	console  string
	lastRole models.Role
}

func (m *mockMonitoring) GetState(ctx context.Context, role models.Role) service.StateView {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRole = role
	st := m.state
	st.Role = role
	return st
}

func (m *mockMonitoring) Permissions(role models.Role) map[authz.Action]bool {
	return authz.Permissions(role)
}

func (m *mockMonitoring) SystemConsole(ctx context.Context, role models.Role) (string, error) {
	if err := authz.Check(role, authz.ViewSystemConsole); err != nil {
		return "", err
	}
	return m.console, nil
}

type mockEventLog struct {
	resp     []models.CommandEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CommandEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
