// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Countdown constants
const (
	// CountdownTicks is the number of ticks a timed capture counts down from
	CountdownTicks = 5

	// CountdownInterval is the delay between two countdown ticks
	CountdownInterval = time.Second
)

// Notice constants
const (
	// NoticeDuration is how long a user-visible error message stays on screen
	NoticeDuration = 5 * time.Second
)

// Gallery constants
const (
	// UploadQuota is the maximum number of user templates the kiosk may hold
	UploadQuota = 30

	// DefaultGender is the gender filter active when a session starts
	DefaultGender = "men"

	// DefaultCategory is the category filter active when a session starts
	DefaultCategory = "classic"

	// UserTemplatesFolder is the folder prefix user uploads are stored under
	UserTemplatesFolder = "user_tempelets"
)

// Swap constants
const (
	// DefaultMode is the swap output orientation used when none is given
	DefaultMode = "portrait"

	// DefaultModel is the swap model used when none is given
	DefaultModel = "inswapper"

	// ResultFilename is the filename offered when downloading a swap result
	ResultFilename = "face-swap-result.jpg"
)

// Image constants
const (
	// MaxFrameSize is the maximum dimension (width or height) of a captured frame
	MaxFrameSize = 1920

	// JPEGQuality is the encoder quality used for captured frames
	JPEGQuality = 90
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// File upload constants
const (
	// MaxUploadSize is the maximum template upload size in bytes (100MB)
	MaxUploadSize = 100 << 20
)
