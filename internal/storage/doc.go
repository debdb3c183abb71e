// Package storage persists the last message that was successfully sent.
//
// The record is a single string. A missing record reads as "" so the first
// run after a fresh install always notifies. Drivers:
//   - file: plain text file (default)
//   - sqlite: modernc.org/sqlite database file
//   - redis: a single key
//   - postgres: a single-row table via pgx
package storage
