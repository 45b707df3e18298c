package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Header is the first row of every daily log.
var Header = []string{"Name", "Timestamp"}

const logExt = ".csv"

// LogPath returns the daily log path for the calendar date of t.
func LogPath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format(constants.LedgerDateLayout)+logExt)
}

// DailyLog appends records to a per-day CSV file. Rows are flushed to the
// file after every append so an abrupt exit loses nothing already recorded.
type DailyLog struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// OpenDailyLog opens (or creates) the log for the date of day in dir. The header row is
// written only when the file is new or empty, so later runs on the same day append.
func OpenDailyLog(dir string, day time.Time) (*DailyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory %s: %w", dir, err)
	}

	path := LogPath(dir, day)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat ledger %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	l := &DailyLog{f: f, w: w, path: path}

	if info.Size() == 0 {
		if err := l.write(Header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// Path returns the file path of the log.
func (l *DailyLog) Path() string {
	return l.path
}

// Append writes one record and flushes it to the file.
func (l *DailyLog) Append(rec Record) error {
	return l.write([]string{rec.Name, rec.Timestamp.Format(constants.LedgerTimestampLayout)})
}

func (l *DailyLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("writing ledger row: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flushing ledger: %w", err)
	}
	return nil
}

// Close flushes pending output and closes the file.
func (l *DailyLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return fmt.Errorf("flushing ledger: %w", err)
	}
	return l.f.Close()
}

// ReadLog parses a daily log. The header row is skipped; timestamps are parsed in loc.
func ReadLog(path string, loc *time.Location) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	r.TrimLeadingSpace = true

	var records []Record
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if line == 1 && slices.Equal(row, Header) {
			continue
		}
		ts, err := time.ParseInLocation(constants.LedgerTimestampLayout, row[1], loc)
		if err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		records = append(records, Record{Name: row[0], Timestamp: ts})
	}
	return records, nil
}

// ListLogs returns the dates (YYYY-MM-DD) of the daily logs in dir, sorted ascending.
// A missing directory has no logs.
func ListLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), logExt) {
			continue
		}
		date := strings.TrimSuffix(e.Name(), logExt)
		if _, err := ParseDate(date); err == nil {
			dates = append(dates, date)
		}
	}
	slices.Sort(dates)
	return dates, nil
}

// ParseDate validates a YYYY-MM-DD log date.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(constants.LedgerDateLayout, date)
}

// Attendance is the present and absent people of one day.
type Attendance struct {
	Present []Record // first sighting of each person
	Absent  []string
}

// Summarize collapses the rows of a day into distinct people. A person seen by
// several runs on the same day is present once, in order of first sighting.
// Absent lists the enrolled names without a row, in enrolled order.
func Summarize(records []Record, enrolled []string) Attendance {
	seen := make(map[string]struct{}, len(records))
	var a Attendance
	for _, rec := range records {
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		seen[rec.Name] = struct{}{}
		a.Present = append(a.Present, rec)
	}
	for _, name := range enrolled {
		if _, ok := seen[name]; !ok {
			a.Absent = append(a.Absent, name)
		}
	}
	return a
}
