package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/line"
	"weather_relay/internal/models"
	"weather_relay/internal/service"

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

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockReadings struct {
	snap      models.Snapshot
	err       error
	ingestErr error
}

func (m *mockReadings) Ingest(ctx context.Context, in service.SensorInput) (models.Snapshot, error) {
	return m.snap, m.ingestErr
}
func (m *mockReadings) Current(ctx context.Context) (models.Snapshot, error) {
	return m.snap, m.err
}
func (m *mockReadings) Labels(r models.Reading) classifier.Labels {
	return classifier.Default().Labels(r)
}

type mockAssistant struct {
	answer       string
	err          error
	lastQuestion string
}

func (m *mockAssistant) Answer(ctx context.Context, question string) (string, error) {
	m.lastQuestion = question
	return m.answer, m.err
}

type mockWebhook struct {
	mu     sync.Mutex
	events []line.Event
}

func (m *mockWebhook) HandleEvents(ctx context.Context, events []line.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
}
func (m *mockWebhook) Wait() {}

func (m *mockWebhook) received() []line.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]line.Event(nil), m.events...)
}

type mockRecipients struct {
	resp []models.Recipient
	err  error
}

func (m *mockRecipients) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	return m.resp, m.err
}

type mockDispatchLog struct {
	resp     []models.DispatchEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastKind string
}

func (m *mockDispatchLog) ListDispatches(ctx context.Context, f service.DispatchFilter) ([]models.DispatchEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastKind = f.Kind
	return m.resp, m.err
}

type mockScheduler struct {
	msg   string
	err   error
	calls int
}

func (m *mockScheduler) Run(ctx context.Context, tick time.Duration) {}
func (m *mockScheduler) TriggerNow(ctx context.Context) (string, error) {
	m.calls++
	return m.msg, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
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

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
