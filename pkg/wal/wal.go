// Package wal defines the minimal log-manager collaborator the buffer pool
// may optionally hold a handle to: a hook for forcing log records to disk
// before a dirty page is written back. It stops at that interface plus a
// no-op implementation; it does not implement log replay or crash recovery.
package wal

import "coredb/pkg/page"

// Manager is the subset of write-ahead-log behavior the buffer pool needs
// to know about: a chance to persist log records before a dirty page is
// written back.
type Manager interface {
	// FlushBefore is called with a page about to be written to disk,
	// giving the log manager an opportunity to force its own log to disk
	// first (write-ahead logging's core ordering rule). A no-op
	// implementation is free to do nothing.
	FlushBefore(id page.ID)
}

// Noop is a Manager that enforces no ordering at all, used when the caller
// does not wire a real log manager into the buffer pool.
type Noop struct{}

// FlushBefore does nothing.
func (Noop) FlushBefore(page.ID) {}

var _ Manager = Noop{}
