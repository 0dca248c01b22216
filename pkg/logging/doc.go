// Package logging provides structured logging for uefbridge.
//
// The package is built on Go's standard slog package and exposes a
// subsystem-first API: every log entry names the subsystem it originates
// from (Session, Handshake, Panel, Tokens, ...) so log output can be
// filtered per protocol concern.
//
// Initialization happens once at startup:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Session", "channel established with %s", origin)
//	logging.Warn("Panel", "open request %s timed out", correlationID)
//	logging.Error("Tokens", err, "refresh request failed")
//
// SECURITY: credential values must never be passed to this package; callers
// log key names, URLs and expiry times only.
package logging
