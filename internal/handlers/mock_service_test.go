package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"thermal_printer/internal/models"
	"thermal_printer/internal/service"

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

type mockSetup struct {
	entry       models.PrinterEntry
	createErr   error
	validateErr error
	removeErr   error
	getErr      error
	entries     []models.PrinterEntry
	listErr     error

	lastParams    service.EntryParams
	lastRemoved   string
	lastGet       string
	validateCalls int
	createCalls   int
}

func (m *mockSetup) Validate(_ context.Context, p service.EntryParams) error {
	m.validateCalls++
	m.lastParams = p
	return m.validateErr
}
func (m *mockSetup) Get(_ context.Context, id string) (models.PrinterEntry, error) {
	m.lastGet = id
	if m.getErr != nil {
		return models.PrinterEntry{}, m.getErr
	}
	return m.entry, nil
}
func (m *mockSetup) Create(_ context.Context, p service.EntryParams) (models.PrinterEntry, error) {
	m.createCalls++
	m.lastParams = p
	return m.entry, m.createErr
}
func (m *mockSetup) Restore(context.Context) (int, error) { return len(m.entries), nil }
func (m *mockSetup) Remove(_ context.Context, id string) error {
	m.lastRemoved = id
	return m.removeErr
}
func (m *mockSetup) List(context.Context) ([]models.PrinterEntry, error) {
	return m.entries, m.listErr
}

type mockPrinting struct {
	err       error
	templates []string

	lastID  string
	lastReq models.PrintRequest
	calls   int
}

func (m *mockPrinting) Print(_ context.Context, id string, req models.PrintRequest) error {
	m.calls++
	m.lastID = id
	m.lastReq = req
	return m.err
}
func (m *mockPrinting) Templates() []string { return m.templates }

type mockMonitoring struct {
	statuses map[string]models.PrinterStatus
	refreshCalls int
}

func (m *mockMonitoring) GetStatus(_ context.Context, id string) (models.PrinterStatus, error) {
	st, ok := m.statuses[id]
	if !ok {
		return models.PrinterStatus{}, service.ErrPrinterNotFound
	}
	return st, nil
}
func (m *mockMonitoring) ListStatus(context.Context) []models.PrinterStatus {
	out := make([]models.PrinterStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		out = append(out, st)
	}
	return out
}
func (m *mockMonitoring) Refresh(ctx context.Context, id string) (models.PrinterStatus, error) {
	m.refreshCalls++
	return m.GetStatus(ctx, id)
}

type mockEventLog struct {
	resp      []models.StatusEvent
	err       error
	lastEntry string
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	calls     int
}

func (m *mockEventLog) List(_ context.Context, entryID string, f service.LogFilter) ([]models.StatusEvent, error) {
	m.calls++
	m.lastEntry = entryID
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// doAuthed runs an authenticated request against r.
func doAuthed(r http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header = authHeader("valid")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func printerStatus(id, state string) models.PrinterStatus {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.PrinterStatus{
		EntryID:     id,
		UniqueID:    models.UniqueID("10.0.0.7"),
		Name:        models.EntryTitle("10.0.0.7"),
		State:       state,
		IPAddress:   "10.0.0.7",
		Port:        9100,
		LastUpdated: &ts,
	}
}
