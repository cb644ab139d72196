package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRateLimit logs a rate-limit signal and the cooldown that follows it.
// A zero reset time means the provider did not say when the window ends.
func LogRateLimit(endpoint string, cooldown time.Duration, reset time.Time) {
	fields := map[string]interface{}{
		"endpoint": endpoint,
		"cooldown": cooldown,
		"action":   "rate_limited",
	}
	if !reset.IsZero() {
		fields["reset_at"] = reset
	}
	GetLogger().WarnWithFields("Rate limit reached, cooling down", fields)
}

// LogExpansion logs the outcome of expanding one frontier id
func LogExpansion(userID int64, followers, popular int, partial bool) {
	GetLogger().WithFields(map[string]interface{}{
		"user_id":   userID,
		"followers": followers,
		"popular":   popular,
		"partial":   partial,
	}).Debug("Expanded user")
}

// LogSkip logs an id whose follower listing was cut short by a provider error
func LogSkip(userID int64, err error) {
	GetLogger().WithError(err).WithField("user_id", userID).Warn("Skipping follower pages")
}

// LogCrawlProgress logs periodic crawl counters
func LogCrawlProgress(expanded, frontier int, elapsed time.Duration) {
	rate := 0.0
	if elapsed > 0 {
		rate = float64(expanded) / elapsed.Minutes()
	}

	GetLogger().WithFields(map[string]interface{}{
		"expanded":   expanded,
		"frontier":   frontier,
		"per_minute": fmt.Sprintf("%.1f", rate),
	}).Info("Crawl progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, settings map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { l := zerolog.Nop(); return &l }
