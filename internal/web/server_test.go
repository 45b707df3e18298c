package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Ledger.Dir = t.TempDir()
	cfg.Faces.Dir = t.TempDir()
	content := "Name,Timestamp\r\nAda lovelace,2024-03-01 09:00:05\r\n"
	if err := os.WriteFile(filepath.Join(cfg.Ledger.Dir, "2024-03-01.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewServer(cfg)
}

func TestRoutes(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"health", "/api/v1/health", http.StatusOK, `"status":"ok"`},
		{"list", "/api/v1/attendance", http.StatusOK, `"2024-03-01"`},
		{"day", "/api/v1/attendance/2024-03-01", http.StatusOK, `"Ada lovelace"`},
		{"bad date", "/api/v1/attendance/yesterday", http.StatusBadRequest, "invalid date"},
		{"missing day", "/api/v1/attendance/2024-03-02", http.StatusNotFound, "no attendance"},
		{"config", "/api/v1/config", http.StatusOK, `"tolerance":0.5`},
		{"index", "/", http.StatusOK, "<h1>Attendance</h1>"},
		{"unknown", "/api/v1/nope", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if recorder.Code != tc.status {
				t.Errorf("expected status %d, got %d\nBody: %s", tc.status, recorder.Code, recorder.Body.String())
			}
			if !strings.Contains(recorder.Body.String(), tc.body) {
				t.Errorf("expected body to contain %q, got %s", tc.body, recorder.Body.String())
			}
		})
	}
}

func TestRoutes_WriteMethodsNotAllowed(t *testing.T) {
	s := testServer(t)

	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/api/v1/attendance/2024-03-01", nil))

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, recorder.Code)
	}
}
