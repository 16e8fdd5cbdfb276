// Package storage persists the reminder registry so the set of registered
// local reminders survives restarts and crashes.
//
// It currently supports:
//   - A dependency-free file backend (snapshot + append journal)
//   - SQLite (build with -tags sqlite)
package storage
