package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"skull_controller/internal/console"
	"skull_controller/internal/models"
	"skull_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
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
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	state models.ControllerState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.ControllerState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.ControllerEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControllerEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

func (m *mockEventLog) Record(context.Context, string, string, any) {}

// ---- Shared Test Helpers ----

// commandLog records what the test console table was asked to run.
type commandLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *commandLog) add(tokens []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, strings.Join(tokens, " "))
}

func (l *commandLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// newTestDispatcher serves "ping" (answers pong), "say <words...>" (chatter
// only when verbose) and "fail" (always errors).
func newTestDispatcher(log *commandLog) *console.Dispatcher {
	tbl := console.NewTable()
	tbl.MustRegister(
		console.Command{Name: "ping", MinTokens: 1, MaxTokens: 1, Handler: func(r *console.Responder, tokens []string) error {
			log.add(tokens)
			r.Line("pong")
			return nil
		}},
		console.Command{Name: "say", MinTokens: 2, MaxTokens: console.MaxTokens, Handler: func(r *console.Responder, tokens []string) error {
			log.add(tokens)
			r.Infof("%s", strings.Join(tokens[1:], " "))
			return nil
		}},
		console.Command{Name: "fail", MinTokens: 1, MaxTokens: 1, Handler: func(r *console.Responder, tokens []string) error {
			log.add(tokens)
			return errFailCommand
		}},
	)
	return console.NewDispatcher(tbl, nil)
}

var errFailCommand = errors.New("nope")

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, newTestDispatcher(&commandLog{}), nil, Options{ConsoleCapacity: 32})
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
