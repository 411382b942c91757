// Package logging provides structured logging for scrcpygui.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the application. Logging is silent by default so
// terminal output stays clean for the interactive UI; set SCRCPYGUI_LOG_LEVEL
// to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (individual probe outcomes, command lines)
//   - Info: Normal operations (scan runs, session transitions, toggles)
//   - Warn: Non-fatal issues (mDNS browse failures, slow external tools)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("device selected",
//	    zap.String("address", "192.168.1.23"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogProbe(address, port, reachable, elapsed)
//	logging.LogScanEvent(runID, "completed", zap.Int("live", 2))
//	logging.LogSessionTransition(address, "connecting", "active")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
