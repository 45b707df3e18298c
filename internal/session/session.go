// Package session runs the attendance loop: it samples camera frames, detects and
// encodes faces on a downsampled copy, matches them against the known identities
// and records each identity's first sighting in the ledger.
package session

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/imageutil"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/overlay"
)

// StopReason tells why a session ended.
type StopReason string

const (
	StopQuit        StopReason = "quit"         // quit key pressed in the display
	StopCancelled   StopReason = "cancelled"    // context cancelled (e.g. Ctrl+C)
	StopReadFailure StopReason = "read_failure" // the frame source failed
)

// FrameSource yields camera frames. Any error ends the session.
type FrameSource interface {
	Read() (image.Image, error)
}

// Display shows annotated frames and reports whether the user asked to quit.
type Display interface {
	Show(frame image.Image) (quit bool, err error)
}

// Identifier names detected faces.
type Identifier interface {
	Identify(face facematch.DetectedFace, tolerance float64) facematch.MatchResult
}

// Options is the per-run matching configuration.
type Options struct {
	Tolerance              float64
	ScaleFactor            int
	ProcessEveryOtherFrame bool
}

// Summary describes a finished session.
type Summary struct {
	ID        string
	Frames    int // frames read from the source
	Processed int // frames that went through detection
	Marked    []ledger.Record
	Pending   []string
	Stop      StopReason
	ReadErr   error // set when Stop is StopReadFailure
}

// Session is a single attendance run. It is driven by one goroutine and holds no locks.
type Session struct {
	id         string
	opts       Options
	identifier Identifier
	ledger     *ledger.Ledger
	detector   facematch.Detector
	encoder    facematch.Encoder
	source     FrameSource
	display    Display
	now        func() time.Time
	logger     *slog.Logger
	onMark     func(ledger.Record)
}

// Option configures a Session.
type Option func(*Session)

// WithDisplay shows every frame with its face labels. Without a display the
// session runs headless and stops only on cancellation or a read failure.
func WithDisplay(d Display) Option {
	return func(s *Session) { s.display = d }
}

// WithClock overrides the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithOnMark registers a callback invoked after each ledger record is written.
func WithOnMark(fn func(ledger.Record)) Option {
	return func(s *Session) { s.onMark = fn }
}

// New creates a session.
func New(opts Options, identifier Identifier, l *ledger.Ledger, detector facematch.Detector, encoder facematch.Encoder, source FrameSource, options ...Option) *Session {
	if opts.ScaleFactor < 1 {
		opts.ScaleFactor = 1
	}
	s := &Session{
		id:         uuid.NewString(),
		opts:       opts,
		identifier: identifier,
		ledger:     l,
		detector:   detector,
		encoder:    encoder,
		source:     source,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session identifier attached to its log lines.
func (s *Session) ID() string {
	return s.id
}

// Run processes frames until the display quits, ctx is cancelled or the source fails.
// Those three endings are reported in the summary with a nil error; detection,
// encoding, ledger and display failures are returned as errors.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{ID: s.id}
	defer func() {
		summary.Marked = s.ledger.Records()
		summary.Pending = s.ledger.Pending()
	}()

	process := true
	var labels []overlay.Label

	for {
		if ctx.Err() != nil {
			summary.Stop = StopCancelled
			return summary, nil
		}

		frame, err := s.source.Read()
		if err != nil {
			s.logger.Error("failed to read frame", "error", err)
			summary.Stop = StopReadFailure
			summary.ReadErr = err
			return summary, nil
		}
		summary.Frames++

		if !s.opts.ProcessEveryOtherFrame || process {
			matches, err := s.processFrame(frame)
			if err != nil {
				return summary, err
			}
			summary.Processed++
			labels = overlay.LabelsFromMatches(matches, s.opts.ScaleFactor)
		}
		if s.opts.ProcessEveryOtherFrame {
			process = !process
		}

		if s.display == nil {
			continue
		}
		quit, err := s.display.Show(overlay.Render(frame, labels))
		if err != nil {
			return summary, fmt.Errorf("displaying frame: %w", err)
		}
		if quit {
			summary.Stop = StopQuit
			return summary, nil
		}
	}
}

// processFrame detects, encodes and matches the faces of one frame and records
// first sightings. Returned regions are in the downsampled coordinate space.
func (s *Session) processFrame(frame image.Image) ([]facematch.MatchResult, error) {
	small := imageutil.Downsample(frame, s.opts.ScaleFactor)

	regions, err := s.detector.Detect(small)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if len(regions) == 0 {
		return nil, nil
	}

	descriptors, err := s.encoder.Encode(small, regions)
	if err != nil {
		return nil, fmt.Errorf("encoding faces: %w", err)
	}
	if len(descriptors) != len(regions) {
		return nil, fmt.Errorf("encoding faces: got %d descriptors for %d regions", len(descriptors), len(regions))
	}

	matches := make([]facematch.MatchResult, len(regions))
	for i := range regions {
		face := facematch.DetectedFace{Region: regions[i], Descriptor: descriptors[i]}
		matches[i] = s.identifier.Identify(face, s.opts.Tolerance)

		recorded, err := s.ledger.Consider(matches[i].Name, s.now())
		if err != nil {
			return nil, err
		}
		if recorded {
			rec := s.lastRecord()
			s.logger.Info("marked present", "name", rec.Name, "distance", matches[i].Distance)
			if s.onMark != nil {
				s.onMark(rec)
			}
		}
	}
	return matches, nil
}

func (s *Session) lastRecord() ledger.Record {
	records := s.ledger.Records()
	return records[len(records)-1]
}
