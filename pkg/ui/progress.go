package ui

import (
	"fmt"
	"sync"
	"time"
)

// StatusTracker keeps the running counters shown on the progress line
type StatusTracker struct {
	mu         sync.Mutex
	Expanded   int
	Survivors  int
	Frontier   int
	Skipped    int
	RateLimits int
	StartTime  time.Time
}

// NewStatusTracker creates a tracker starting now
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{StartTime: time.Now()}
}

// RecordExpansion counts one expanded id and its survivors
func (st *StatusTracker) RecordExpansion(survivors, frontier int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.Expanded++
	st.Survivors += survivors
	st.Frontier = frontier
}

// RecordSkip counts one follower enumeration that stopped early
func (st *StatusTracker) RecordSkip() {
	st.mu.Lock()
	st.Skipped++
	st.mu.Unlock()
}

// RecordRateLimit counts one cooldown
func (st *StatusTracker) RecordRateLimit() {
	st.mu.Lock()
	st.RateLimits++
	st.mu.Unlock()
}

// SetExpanded restores counters when resuming
func (st *StatusTracker) SetExpanded(expanded, survivors int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.Expanded = expanded
	st.Survivors = survivors
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// Rate returns expanded ids per minute
func (st *StatusTracker) Rate() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	elapsed := time.Since(st.StartTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Expanded) / elapsed
}

// Line renders the progress line without color
func (st *StatusTracker) Line() string {
	rate := st.Rate()

	st.mu.Lock()
	defer st.mu.Unlock()

	line := fmt.Sprintf("expanded %d • survivors %d • frontier %d • %.1f/min • %s",
		st.Expanded, st.Survivors, st.Frontier, rate, FormatDuration(time.Since(st.StartTime)))
	if st.Skipped > 0 {
		line += fmt.Sprintf(" • %d skipped", st.Skipped)
	}
	if st.RateLimits > 0 {
		line += fmt.Sprintf(" • %d cooldowns", st.RateLimits)
	}
	return line
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
