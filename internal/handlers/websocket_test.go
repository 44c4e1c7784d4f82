package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"soak_console/internal/models"
	"soak_console/internal/reconcile"
	"soak_console/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

func TestWebSocket_StateStream_InitialAndPeriodic(t *testing.T) {
	// Mock monitoring returns a fixed state
	mon := &mockMonitoring{state: service.StateView{View: reconcile.View{
		Connected: true,
		Snapshot:  models.DeviceSnapshot{CurrentTemp: 101.5, SafetyStatus: models.SafetyOK},
	}}}
	auth := &mockAuth{parseOp: service.Operator{UserID: 4, Role: models.RoleUser}}
	s := &service.Service{Monitoring: mon, Authorization: auth}

	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	// Build ws URL
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval_ms", "20") // fast ticks for the test
	q.Set("token", "ws-token")
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	type envelope struct {
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}

	// Read initial state
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "state" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st struct {
		Connected bool                  `json:"connected"`
		Role      models.Role           `json:"role"`
		Status    models.DeviceSnapshot `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if !st.Connected || st.Status.CurrentTemp != 101.5 || st.Role != models.RoleUser {
		t.Fatalf("unexpected state: %+v", st)
	}

	// Read a subsequent tick
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "state" {
		t.Fatalf("expected type=state, got %+v", env)
	}
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	auth := &mockAuth{parseErr: errors.New("expired")}
	s := &service.Service{Monitoring: &mockMonitoring{}, Authorization: auth}

	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = "token=stale"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	_, resp, err := dialer.Dial(u.String(), nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake, got %+v", resp)
	}
}

func TestStreamClosed_ReleasesEditsAfterLastStream(t *testing.T) {
	console := &mockConsole{}
	h := NewHandler(&service.Service{Console: console}, nil)
	op := service.Operator{UserID: 4, Role: models.RoleUser}

	h.streamOpened(op.UserID)
	h.streamOpened(op.UserID)
	h.streamClosed(op)
	if got := console.lastCall(); got != "" {
		t.Fatalf("one stream still open, got call %q", got)
	}
	h.streamClosed(op)
	if got := console.lastCall(); got != "edit-release" {
		t.Fatalf("last stream closed, got call %q", got)
	}
	if console.lastOp != op {
		t.Fatalf("released for %+v", console.lastOp)
	}
}

func TestWebSocket_DisconnectReleasesEdits(t *testing.T) {
	console := &mockConsole{}
	auth := &mockAuth{parseOp: service.Operator{UserID: 9, Role: models.RoleUser}}
	s := &service.Service{Monitoring: &mockMonitoring{}, Authorization: auth, Console: console}

	srv := httptest.NewServer(newTestRouter(s))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = "token=ws-token"
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env map[string]any
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for console.lastCall() != "edit-release" {
		if time.Now().After(deadline) {
			t.Fatalf("edits not released after disconnect, last call %q", console.lastCall())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
