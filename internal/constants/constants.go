// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultTolerance is the default maximum Euclidean distance between descriptors
	// for a positive match. Lower values = stricter matching
	DefaultTolerance = 0.5

	// DefaultScaleFactor is the default downsampling factor applied to frames before detection
	DefaultScaleFactor = 4
)

// Enrollment constants
const (
	// NormalizedJPEGQuality is the JPEG quality used by the normalize command
	NormalizedJPEGQuality = 95
)

// Session constants
const (
	// QuitKey is the key that ends a session from the display window
	QuitKey = 'q'

	// WindowTitle is the title of the session display window
	WindowTitle = "Attendance"

	// LedgerDateLayout names the daily log files
	LedgerDateLayout = "2006-01-02"

	// LedgerTimestampLayout formats the timestamp column of the daily log
	LedgerTimestampLayout = "2006-01-02 15:04:05"
)
