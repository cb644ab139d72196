// Package logger wraps zerolog for the crawler.
//
// Console output is colorized and written to stderr; when logging.file is set,
// JSON lines are appended there as well. Every event carries the app name and
// build version.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	logger.WithField("user_id", id).Info("Expanding")
//
// Tests can swap the global logger with SetLogger(NewTestLogger()) and then
// assert on captured messages.
package logger
