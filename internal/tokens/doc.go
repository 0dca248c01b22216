// Package tokens manages the bearer credential the session presents to the
// host shell.
//
// The package mirrors the persistence model of the original integration:
// exactly one bearer value (plus optional refresh token and expiry) kept in
// local persistent storage under a stable key name, with a legacy key
// consulted for tokens stored by older builds. On top of that it provides
// the Token Provider refresh client and a file watcher that picks up
// externally refreshed credentials without restarting the bridge.
//
// SECURITY: token values are never logged. Files are written 0600 inside a
// 0700 directory.
package tokens
