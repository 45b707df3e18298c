package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/registry"
)

// AttendanceHandler serves the daily attendance logs read-only.
type AttendanceHandler struct {
	ledgerDir string
	facesDir  string
	loc       *time.Location
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(cfg *config.Config) *AttendanceHandler {
	return &AttendanceHandler{
		ledgerDir: cfg.Ledger.Dir,
		facesDir:  cfg.Faces.Dir,
		loc:       time.Local,
	}
}

// DatesResponse lists the days that have a log.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// RecordResponse is one presence event.
type RecordResponse struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// DayResponse is the attendance of a single day.
type DayResponse struct {
	Date    string           `json:"date"`
	Records []RecordResponse `json:"records"`
	Present int              `json:"present"` // distinct people, not rows
	Absent  []string         `json:"absent,omitempty"` // enrolled people without a record
}

// List returns the dates of all daily logs, oldest first.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	dates, err := ledger.ListLogs(h.ledgerDir)
	if err != nil {
		slog.Error("listing attendance logs", "dir", h.ledgerDir, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance logs")
		return
	}
	if dates == nil {
		dates = []string{}
	}
	respondJSON(w, http.StatusOK, DatesResponse{Dates: dates})
}

// Get returns the records of one day. The optional name query parameter keeps only
// records whose name contains it, ignoring case and diacritics.
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	day, err := ledger.ParseDate(date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	path := ledger.LogPath(h.ledgerDir, day)
	records, err := ledger.ReadLog(path, h.loc)
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "no attendance recorded on "+date)
		return
	}
	if err != nil {
		slog.Error("reading attendance log", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read attendance log")
		return
	}

	filter := facematch.NormalizePersonName(r.URL.Query().Get("name"))
	resp := DayResponse{
		Date:    date,
		Records: []RecordResponse{},
	}
	var matched []ledger.Record
	for _, rec := range records {
		if filter != "" && !strings.Contains(facematch.NormalizePersonName(rec.Name), filter) {
			continue
		}
		matched = append(matched, rec)
		resp.Records = append(resp.Records, RecordResponse{
			Name:      rec.Name,
			Timestamp: rec.Timestamp.Format(constants.LedgerTimestampLayout),
		})
	}

	if filter == "" {
		att := ledger.Summarize(records, h.enrolled())
		resp.Present = len(att.Present)
		resp.Absent = att.Absent
	} else {
		resp.Present = len(ledger.Summarize(matched, nil).Present)
		slog.Debug("filtered attendance", "date", date, "name", sanitizeForLog(filter), "matches", resp.Present)
	}

	respondJSON(w, http.StatusOK, resp)
}

// enrolled returns the enrolled names. Enrollment problems only cost the absent
// list, not the response.
func (h *AttendanceHandler) enrolled() []string {
	if h.facesDir == "" {
		return nil
	}
	names, err := registry.EnrolledNames(h.facesDir)
	if err != nil {
		slog.Warn("listing enrolled names", "dir", h.facesDir, "error", err)
		return nil
	}
	return names
}
