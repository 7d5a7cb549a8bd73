package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/repository"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/service"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/middleware"
	"github.com/prohmpiriya/take-a-number/pkg/pinhash"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type testServer struct {
	router      *gin.Engine
	tokenConfig *middleware.AdminTokenConfig
}

func newTestServer(t *testing.T, requireToken bool) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	svc := service.NewQueueService(store.Events, store.Counters, store.Tickets, pinhash.SHA256{}, nil, service.DefaultConfig())

	tokenConfig := &middleware.AdminTokenConfig{
		Secret:   "test-secret",
		Issuer:   "take-a-number",
		TTL:      time.Hour,
		Required: requireToken,
	}

	handlers := &Handlers{
		Event:  NewEventHandler(svc, tokenConfig),
		Ticket: NewTicketHandler(svc, tokenConfig),
		Stream: NewStreamHandler(svc, nil, &StreamConfig{
			Keepalive:    time.Hour,
			PollInterval: 10 * time.Millisecond,
			MaxDuration:  100 * time.Millisecond,
		}),
		Health: NewHealthHandler(nil, nil),
	}

	router := SetupRouter(handlers, &RouterConfig{
		ServiceName: "take-a-number-test",
		TokenConfig: tokenConfig,
		Logger:      logger.NewNop(),
	})
	return &testServer{router: router, tokenConfig: tokenConfig}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, &env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

type eventBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type ticketBody struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Number  int64  `json:"number"`
	Name    string `json:"name"`
	Status  string `json:"status"`
}

func (s *testServer) createEvent(t *testing.T, name, pin string) eventBody {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/events", map[string]string{"name": name, "pin": pin}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var event eventBody
	decode(t, env.Data, &event)
	return event
}

func (s *testServer) createTicket(t *testing.T, eventID, name string) ticketBody {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/tickets", map[string]string{"name": name, "event_id": eventID}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ticket ticketBody
	decode(t, env.Data, &ticket)
	return ticket
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = s.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistrationScenario_HTTP(t *testing.T) {
	s := newTestServer(t, false)

	event := s.createEvent(t, "Registration", "1234")
	assert.Equal(t, "Registration", event.Name)
	assert.True(t, event.IsActive)

	asha := s.createTicket(t, event.ID, "Asha")
	assert.Equal(t, int64(1), asha.Number)
	assert.Equal(t, "waiting", asha.Status)

	bala := s.createTicket(t, event.ID, "Bala")
	assert.Equal(t, int64(2), bala.Number)

	w, env := s.do(t, http.MethodPatch, "/api/tickets/"+asha.ID, map[string]string{"status": "done"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var patched ticketBody
	decode(t, env.Data, &patched)
	assert.Equal(t, "done", patched.Status)

	w, env = s.do(t, http.MethodGet, "/api/events/"+event.ID+"/now-serving", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var serving struct {
		Tickets []ticketBody `json:"tickets"`
		Waiting int          `json:"waiting"`
	}
	decode(t, env.Data, &serving)
	require.Len(t, serving.Tickets, 1)
	assert.Equal(t, "Bala", serving.Tickets[0].Name)
	assert.Equal(t, int64(2), serving.Tickets[0].Number)

	w, env = s.do(t, http.MethodPost, "/api/events/"+event.ID+"/verify", map[string]string{"pin": "1234"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var verified struct {
		OK         bool   `json:"ok"`
		AdminToken string `json:"admin_token"`
	}
	decode(t, env.Data, &verified)
	assert.True(t, verified.OK)
	assert.NotEmpty(t, verified.AdminToken)

	w, env = s.do(t, http.MethodPost, "/api/events/"+event.ID+"/verify", map[string]string{"pin": "0000"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_PIN", env.Error.Code)
	var rejected struct {
		OK bool `json:"ok"`
	}
	decode(t, env.Data, &rejected)
	assert.False(t, rejected.OK)
}

func TestEvents_ListAndGet(t *testing.T) {
	s := newTestServer(t, false)

	first := s.createEvent(t, "First", "1111")
	s.createEvent(t, "Second", "2222")

	w, env := s.do(t, http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]interface{}
	decode(t, env.Data, &events)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), env.Meta.Total)
	for _, e := range events {
		assert.NotContains(t, e, "pin_hash")
	}

	w, _ = s.do(t, http.MethodGet, "/api/events/"+first.ID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/events/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateEvent_Validation(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(t, http.MethodPost, "/api/events", map[string]string{"name": "  ", "pin": "1234"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "Event name is required", env.Error.Message)

	w, _ = s.do(t, http.MethodPost, "/api/events", map[string]string{"name": "Desk"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w, env = s.do(t, http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), env.Meta.Total)
}

func TestVerify_UnknownEvent(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(t, http.MethodPost, "/api/events/missing/verify", map[string]string{"pin": "1234"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	event := s.createEvent(t, "Registration", "1234")
	w, _ = s.do(t, http.MethodPost, "/api/events/"+event.ID+"/verify", map[string]string{"pin": ""}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTickets_List(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	s.createTicket(t, event.ID, "Asha")
	s.createTicket(t, event.ID, "Bala")

	w, env := s.do(t, http.MethodGet, "/api/tickets?event_id="+event.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tickets []ticketBody
	decode(t, env.Data, &tickets)
	require.Len(t, tickets, 2)
	assert.Equal(t, int64(1), tickets[0].Number)
	assert.Equal(t, int64(2), tickets[1].Number)

	w, env = s.do(t, http.MethodGet, "/api/tickets?event="+event.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), env.Meta.Total)

	w, env = s.do(t, http.MethodGet, "/api/tickets", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestTickets_CreateValidation(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")

	w, env := s.do(t, http.MethodPost, "/api/tickets", map[string]string{"name": " ", "event_id": event.ID}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name is required", env.Error.Message)

	w, _ = s.do(t, http.MethodPost, "/api/tickets", map[string]string{"name": "Asha"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/tickets", map[string]string{"name": "Asha", "event_id": "missing"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTickets_PatchTransitions(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	ticket := s.createTicket(t, event.ID, "Asha")

	w, env := s.do(t, http.MethodPatch, "/api/tickets/"+ticket.ID, map[string]string{"status": "served"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	w, _ = s.do(t, http.MethodPut, "/api/tickets/"+ticket.ID, map[string]string{"status": "canceled"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPatch, "/api/tickets/"+ticket.ID, map[string]string{"status": "done"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/tickets/missing", map[string]string{"status": "done"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTickets_DeleteIdempotent(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	ticket := s.createTicket(t, event.ID, "Asha")

	w, env := s.do(t, http.MethodDelete, "/api/tickets/"+ticket.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = s.do(t, http.MethodDelete, "/api/tickets/"+ticket.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Deleted bool `json:"deleted"`
	}
	decode(t, env.Data, &body)
	assert.False(t, body.Deleted)

	w, _ = s.do(t, http.MethodGet, "/api/tickets/"+ticket.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTickets_ClearKeepsNumbering(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	s.createTicket(t, event.ID, "Asha")
	s.createTicket(t, event.ID, "Bala")

	w, _ := s.do(t, http.MethodDelete, "/api/tickets/clear", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodDelete, "/api/tickets/clear?event_id="+event.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared struct {
		Removed int64 `json:"removed"`
	}
	decode(t, env.Data, &cleared)
	assert.Equal(t, int64(2), cleared.Removed)

	next := s.createTicket(t, event.ID, "Chen")
	assert.Equal(t, int64(3), next.Number)

	w, _ = s.do(t, http.MethodDelete, "/api/tickets/clear?event_id=all", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTickets_Position(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	s.createTicket(t, event.ID, "Asha")
	bala := s.createTicket(t, event.ID, "Bala")

	w, env := s.do(t, http.MethodGet, "/api/tickets/"+bala.ID+"/position", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var pos struct {
		Ahead         int    `json:"ahead"`
		UpNext        bool   `json:"up_next"`
		EstimatedWait string `json:"estimated_wait"`
	}
	decode(t, env.Data, &pos)
	assert.Equal(t, 1, pos.Ahead)
	assert.False(t, pos.UpNext)
	assert.Equal(t, "3m", pos.EstimatedWait)
}

func TestDashboard_Open(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")
	s.createTicket(t, event.ID, "Asha")

	w, env := s.do(t, http.MethodGet, "/api/events/"+event.ID+"/dashboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		Waiting    int    `json:"waiting"`
		NextNumber *int64 `json:"next_number"`
	}
	decode(t, env.Data, &dash)
	assert.Equal(t, 1, dash.Waiting)
	require.NotNil(t, dash.NextNumber)
	assert.Equal(t, int64(1), *dash.NextNumber)
}

func TestAdminToken_Required(t *testing.T) {
	s := newTestServer(t, true)
	event := s.createEvent(t, "Registration", "1234")
	other := s.createEvent(t, "Other", "9999")
	ticket := s.createTicket(t, event.ID, "Asha")

	w, _ := s.do(t, http.MethodPatch, "/api/tickets/"+ticket.ID, map[string]string{"status": "done"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	otherToken, _, err := middleware.IssueAdminToken(s.tokenConfig, other.ID)
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodPatch, "/api/tickets/"+ticket.ID, map[string]string{"status": "done"}, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/events/"+event.ID+"/verify", map[string]string{"pin": "1234"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var verified struct {
		AdminToken string `json:"admin_token"`
	}
	decode(t, env.Data, &verified)

	w, _ = s.do(t, http.MethodPatch, "/api/tickets/"+ticket.ID, map[string]string{"status": "done"}, verified.AdminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/events/"+event.ID+"/dashboard", nil, verified.AdminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/events/"+other.ID+"/dashboard", nil, verified.AdminToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/tickets/clear?event_id=all", nil, verified.AdminToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/tickets/clear?event_id="+event.ID, nil, verified.AdminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// visitor routes stay open
	s.createTicket(t, event.ID, "Bala")
}

func TestConcurrentTicketCreation_HTTP(t *testing.T) {
	s := newTestServer(t, false)
	event := s.createEvent(t, "Registration", "1234")

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, _ := json.Marshal(map[string]string{"name": "visitor", "event_id": event.ID})
			req := httptest.NewRequest(http.MethodPost, "/api/tickets", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			var env envelope
			if json.Unmarshal(w.Body.Bytes(), &env) != nil {
				return
			}
			var ticket ticketBody
			if json.Unmarshal(env.Data, &ticket) == nil {
				numbers <- ticket.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for number := range numbers {
		seen[number] = true
	}
	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i])
	}
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(t, http.MethodGet, "/api/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
