package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skull_controller/internal/console"
	"skull_controller/internal/models"
	"skull_controller/internal/service"

	"github.com/gin-gonic/gin"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestGetState(t *testing.T) {
	mon := &mockMonitoring{state: models.ControllerState{
		DeviceName:    "Yorick",
		SchemaVersion: models.SchemaVersion,
		Preferences:   models.Preferences{NetworkName: "attic", NetworkSecret: "hunter22", DeviceName: "Yorick", Port: 23},
		Actuators:     []models.ActuatorStatus{{ID: models.Jaw, Name: "JAW", Angle: 30, Duty: 1550}},
		DirtyKeys:     []string{"jaw"},
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = getWithAuth(t, r, "/api/v1/state")
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "hunter22") {
		t.Fatalf("secret leaked: %s", w.Body.String())
	}
	var st models.ControllerState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.DeviceName != "Yorick" || len(st.Actuators) != 1 || st.Actuators[0].Duty != 1550 {
		t.Fatalf("unexpected state: %+v", st)
	}

	mon.err = errors.New("boom")
	if w = getWithAuth(t, r, "/api/v1/state"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRunCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ran := &commandLog{}
	h := NewHandler(&service.Service{Authorization: &mockAuth{parseID: 3}}, newTestDispatcher(ran), nil, Options{ConsoleCapacity: 32})
	r := h.InitRoutes()

	cases := []struct {
		name    string
		body    string
		code    int
		outcome string
		lines   []string
	}{
		{name: "ok with output", body: `{"line":"ping"}`, code: http.StatusOK, outcome: "ok", lines: []string{"pong", "*OK"}},
		{name: "quiet success", body: `{"line":"say hello there"}`, code: http.StatusOK, outcome: "ok", lines: []string{"*OK"}},
		{name: "verbose success", body: `{"line":"say hello there","verbose":true}`, code: http.StatusOK, outcome: "ok", lines: []string{"hello there", "*OK"}},
		{name: "handler error", body: `{"line":"fail"}`, code: http.StatusOK, outcome: "failed", lines: []string{"nope", "*ERR"}},
		{name: "unknown", body: `{"line":"frobnicate"}`, code: http.StatusOK, outcome: "unknown", lines: []string{"Unknown command 'frobnicate'.", "*ERR"}},
		{name: "wrong arity", body: `{"line":"ping twice"}`, code: http.StatusOK, outcome: "wrong_arity", lines: []string{"Wrong number of arguments for 'ping' command.", "*ERR"}},
		{name: "blank", body: `{"line":"   "}`, code: http.StatusBadRequest},
		{name: "missing line", body: `{}`, code: http.StatusBadRequest},
		{name: "line break", body: `{"line":"ping\rping"}`, code: http.StatusBadRequest},
		{name: "too long", body: `{"line":"say ` + strings.Repeat("x", 40) + `"}`, code: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/v1/commands", tc.body, authHeader("valid"))
			if w.Code != tc.code {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if tc.code != http.StatusOK {
				return
			}
			var resp CommandResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Outcome != tc.outcome || strings.Join(resp.Lines, "|") != strings.Join(tc.lines, "|") {
				t.Fatalf("got %+v", resp)
			}
		})
	}

	if got := strings.Join(ran.all(), ","); got != "ping,say hello there,say hello there,fail" {
		t.Fatalf("commands run: %s", got)
	}
}

func TestSplitResponse(t *testing.T) {
	if got := splitResponse(""); len(got) != 0 {
		t.Fatalf("empty: %q", got)
	}
	if got := splitResponse("a\r\n\r\n*OK\r\n"); strings.Join(got, "|") != "a||*OK" {
		t.Fatalf("got %q", got)
	}
}

// signalMonitoring closes read when the snapshot is taken.
type signalMonitoring struct {
	mockMonitoring
	read chan struct{}
}

func (m *signalMonitoring) GetState(ctx context.Context) (models.ControllerState, error) {
	close(m.read)
	return m.mockMonitoring.GetState(ctx)
}

func TestGetState_WaitsForRunningCommand(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	tbl := console.NewTable()
	tbl.MustRegister(console.Command{Name: "sweep", MinTokens: 1, MaxTokens: 1, Handler: func(*console.Responder, []string) error {
		close(entered)
		<-release
		return nil
	}})
	disp := console.NewDispatcher(tbl, nil)

	mon := &signalMonitoring{read: make(chan struct{})}
	gin.SetMode(gin.TestMode)
	r := NewHandler(&service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}, disp, nil, Options{}).InitRoutes()

	go disp.Dispatch(console.NewResponder(&bytes.Buffer{}, false), []string{"sweep"})
	<-entered

	done := make(chan int, 1)
	go func() { done <- getWithAuth(t, r, "/api/v1/state").Code }()

	select {
	case <-mon.read:
		t.Fatalf("state read while a command was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Fatalf("state status=%d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("state request never completed")
	}
}
