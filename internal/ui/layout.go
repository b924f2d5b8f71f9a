package ui

import "time"

// LayoutCompactWidth is the width below which side-by-side panels stack.
const LayoutCompactWidth = 100

// Display limits.
const (
	// RecentHistoryLimit is how many history entries the home screen lists.
	RecentHistoryLimit = 8

	// LogTailLines is how many log lines the diagnostics view reads.
	LogTailLines = 200

	// ConfidenceBarWidth is the maximum width of a confidence bar.
	ConfidenceBarWidth = 30
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// HistoryWriteTimeout bounds a single history write.
	HistoryWriteTimeout = 2 * time.Second
)
