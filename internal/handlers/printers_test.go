package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thermal_printer/internal/models"
	"thermal_printer/internal/service"
	"thermal_printer/internal/templates"
)

func TestHealth(t *testing.T) {
	s := &service.Service{Registry: service.NewRegistry()}
	w := httptest.NewRecorder()
	newTestRouter(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["status"] != "ok" || out["printers"].(float64) != 0 {
		t.Fatalf("unexpected health body %v", out)
	}
}

func TestEntries_Create(t *testing.T) {
	created := models.PrinterEntry{
		ID:        "e1",
		Title:     models.EntryTitle("192.168.1.50"),
		IPAddress: "192.168.1.50",
		Port:      9100,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantBase string
	}{
		{name: "created", body: `{"ip_address":"192.168.1.50"}`, wantCode: http.StatusCreated},
		{name: "cannot connect", body: `{"ip_address":"192.168.1.50"}`, err: service.ErrCannotConnect,
			wantCode: http.StatusBadRequest, wantBase: "cannot_connect"},
		{name: "duplicate", body: `{"ip_address":"192.168.1.50","port":9100}`, err: service.ErrAlreadyConfigured,
			wantCode: http.StatusBadRequest, wantBase: "already_configured"},
		{name: "wrapped unknown", body: `{"ip_address":"192.168.1.50"}`, err: fmt.Errorf("%w: driver", service.ErrUnknown),
			wantCode: http.StatusBadRequest, wantBase: "unknown"},
		{name: "untyped error", body: `{"ip_address":"192.168.1.50"}`, err: errors.New("disk full"),
			wantCode: http.StatusBadRequest, wantBase: "unknown"},
		{name: "missing ip", body: `{"port":9100}`, wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setup := &mockSetup{entry: created, createErr: tc.err}
			s := &service.Service{Authorization: &mockAuth{parseID: 1}, Setup: setup}

			w := doAuthed(newTestRouter(s), http.MethodPost, "/api/v1/entries", bytes.NewBufferString(tc.body))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantBase != "" {
				var out struct {
					Errors map[string]string `json:"errors"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out.Errors["base"] != tc.wantBase {
					t.Fatalf("errors.base=%q, want %q", out.Errors["base"], tc.wantBase)
				}
			}
			if tc.wantCode == http.StatusCreated {
				var got models.PrinterEntry
				_ = json.Unmarshal(w.Body.Bytes(), &got)
				if got.ID != "e1" || got.Title != "Thermal Printer (192.168.1.50)" {
					t.Fatalf("unexpected entry %+v", got)
				}
				if setup.lastParams.IPAddress != "192.168.1.50" || setup.lastParams.Port != 0 {
					t.Fatalf("unexpected params %+v", setup.lastParams)
				}
			}
		})
	}
}

func TestEntries_Validate(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantBase string
	}{
		{name: "reachable", body: `{"ip_address":"192.168.1.50","port":9101}`, wantCode: http.StatusOK},
		{name: "cannot connect", body: `{"ip_address":"192.168.1.50"}`, err: service.ErrCannotConnect,
			wantCode: http.StatusBadRequest, wantBase: "cannot_connect"},
		{name: "invalid address", body: `{"ip_address":"192.168.1.50","port":70000}`, err: service.ErrInvalidAddress,
			wantCode: http.StatusBadRequest, wantBase: "invalid_address"},
		{name: "missing ip", body: `{}`, wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setup := &mockSetup{validateErr: tc.err}
			s := &service.Service{Authorization: &mockAuth{parseID: 1}, Setup: setup}

			w := doAuthed(newTestRouter(s), http.MethodPost, "/api/v1/entries/validate", bytes.NewBufferString(tc.body))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if setup.createCalls != 0 {
				t.Fatal("validate must not create an entry")
			}
			if tc.wantBase != "" {
				var out struct {
					Errors map[string]string `json:"errors"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out.Errors["base"] != tc.wantBase {
					t.Fatalf("errors.base=%q, want %q", out.Errors["base"], tc.wantBase)
				}
			}
			if tc.wantCode == http.StatusOK && (setup.validateCalls != 1 || setup.lastParams.Port != 9101) {
				t.Fatalf("unexpected validate call: calls=%d params=%+v", setup.validateCalls, setup.lastParams)
			}
		})
	}
}

func TestEntries_Get(t *testing.T) {
	setup := &mockSetup{entry: models.PrinterEntry{ID: "e1", IPAddress: "10.0.0.7", Port: 9100}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Setup: setup}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/entries/e1", nil)
	if w.Code != http.StatusOK || setup.lastGet != "e1" {
		t.Fatalf("get status=%d id=%q", w.Code, setup.lastGet)
	}
	var got models.PrinterEntry
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.IPAddress != "10.0.0.7" {
		t.Fatalf("unexpected entry %+v", got)
	}

	setup.getErr = service.ErrEntryNotFound
	if w = doAuthed(r, http.MethodGet, "/api/v1/entries/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	setup.getErr = errors.New("database is locked")
	if w = doAuthed(r, http.MethodGet, "/api/v1/entries/e1", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestEntries_ListAndDelete(t *testing.T) {
	setup := &mockSetup{entries: []models.PrinterEntry{{ID: "e1"}, {ID: "e2"}}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Setup: setup}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/entries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 {
		t.Fatalf("count=%d", out.Count)
	}

	w = doAuthed(r, http.MethodDelete, "/api/v1/entries/e1", nil)
	if w.Code != http.StatusOK || setup.lastRemoved != "e1" {
		t.Fatalf("delete status=%d removed=%q", w.Code, setup.lastRemoved)
	}

	setup.removeErr = service.ErrEntryNotFound
	w = doAuthed(r, http.MethodDelete, "/api/v1/entries/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	setup.removeErr = errors.New("database is locked")
	w = doAuthed(r, http.MethodDelete, "/api/v1/entries/e2", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	setup.listErr = errors.New("database is locked")
	w = doAuthed(r, http.MethodGet, "/api/v1/entries", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestPrinters_Status(t *testing.T) {
	mon := &mockMonitoring{statuses: map[string]models.PrinterStatus{
		"e1": printerStatus("e1", models.StateOnline),
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/printers/e1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var st models.PrinterStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.State != "online" || st.UniqueID != "thermal_printer_10.0.0.7" || st.LastUpdated == nil {
		t.Fatalf("unexpected status %+v", st)
	}

	w = doAuthed(r, http.MethodGet, "/api/v1/printers/missing/status", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doAuthed(r, http.MethodPost, "/api/v1/printers/e1/refresh", nil)
	if w.Code != http.StatusOK || mon.refreshCalls != 1 {
		t.Fatalf("refresh status=%d calls=%d", w.Code, mon.refreshCalls)
	}

	w = doAuthed(r, http.MethodGet, "/api/v1/printers", nil)
	var list struct {
		Count    int                    `json:"count"`
		Printers []models.PrinterStatus `json:"printers"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || list.Count != 1 || list.Printers[0].EntryID != "e1" {
		t.Fatalf("list status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestPrinters_Print(t *testing.T) {
	missing := fmt.Errorf("render template %q: %w", "kanban",
		&templates.MissingPlaceholderError{Template: "kanban", Key: "title"})

	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
		wantCall bool
	}{
		{name: "content", body: `{"content":"# Hi"}`, wantCode: http.StatusOK, wantCall: true},
		{name: "template", body: `{"template":" kanban ","data":{"title":"T"}}`, wantCode: http.StatusOK, wantCall: true},
		{name: "offline", body: `{"content":"x"}`, err: service.ErrPrintFailed,
			wantCode: http.StatusBadGateway, wantErr: "failed to print content", wantCall: true},
		{name: "missing placeholder", body: `{"template":"kanban"}`, err: missing,
			wantCode: http.StatusUnprocessableEntity, wantCall: true},
		{name: "malformed template", body: `{"template":"x"}`, err: fmt.Errorf("render: %w", templates.ErrMalformed),
			wantCode: http.StatusUnprocessableEntity, wantCall: true},
		{name: "empty job", body: `{}`, err: service.ErrEmptyJob, wantCode: http.StatusBadRequest, wantCall: true},
		{name: "unknown printer", body: `{"content":"x"}`, err: service.ErrPrinterNotFound,
			wantCode: http.StatusNotFound, wantCall: true},
		{name: "bad json", body: `{"content":`, wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			printing := &mockPrinting{err: tc.err}
			s := &service.Service{Authorization: &mockAuth{parseID: 1}, Printing: printing}

			w := doAuthed(newTestRouter(s), http.MethodPost, "/api/v1/printers/e1/print", bytes.NewBufferString(tc.body))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if (printing.calls == 1) != tc.wantCall {
				t.Fatalf("print calls=%d", printing.calls)
			}
			if tc.wantErr != "" {
				var out map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &out)
				if out["error"] != tc.wantErr {
					t.Fatalf("error=%q, want %q", out["error"], tc.wantErr)
				}
			}
			if tc.wantCall && printing.lastID != "e1" {
				t.Fatalf("printed on %q", printing.lastID)
			}
		})
	}
}

func TestPrinters_PrintPassesTemplateRequest(t *testing.T) {
	printing := &mockPrinting{}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Printing: printing}

	body := `{"template":"inquiry","data":{"name":"Ann","phone":"555"}}`
	w := doAuthed(newTestRouter(s), http.MethodPost, "/api/v1/printers/e9/print", bytes.NewBufferString(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if printing.lastReq.Template != "inquiry" || printing.lastReq.Data["name"] != "Ann" || printing.lastReq.Content != "" {
		t.Fatalf("unexpected request %+v", printing.lastReq)
	}
}

func TestTemplatesList(t *testing.T) {
	s := &service.Service{
		Authorization: &mockAuth{parseID: 1},
		Printing:      &mockPrinting{templates: []string{"inquiry", "kanban"}},
	}
	w := doAuthed(newTestRouter(s), http.MethodGet, "/api/v1/templates", nil)
	var out struct {
		Templates []string `json:"templates"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusOK || len(out.Templates) != 2 || out.Templates[1] != "kanban" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
