// Package page defines the in-memory frame that caches one on-disk page.
package page

import (
	"sync/atomic"

	"coredb/pkg/config"
)

// InvalidID is the sentinel page identifier meaning "no page."
const InvalidID ID = -1

// ID is an opaque page identifier issued by a disk manager.
type ID int64

// Frame is a fixed-capacity byte buffer cached in memory, plus the metadata
// the buffer pool needs to decide whether it can be evicted or must be
// written back first.
//
// Invariants (enforced by the buffer pool, not by Frame itself): a frame
// with PinCount() > 0 must not be resident in any victim selector; a frame
// with ID() != InvalidID and PinCount() == 0 must be resident in exactly
// one victim selector; a frame on the pool's free list has ID() ==
// InvalidID and PinCount() == 0.
type Frame struct {
	id       ID
	pinCount atomic.Int32
	dirty    atomic.Bool
	data     []byte
}

// New constructs an empty frame backed by the given byte slice, which must
// be exactly config.PageSize bytes and must not be shared with any other
// frame.
func New(backing []byte) *Frame {
	return &Frame{id: InvalidID, data: backing}
}

// ID returns the page currently occupying this frame, or InvalidID if the
// frame is unused.
func (f *Frame) ID() ID {
	return f.id
}

// SetID reassigns the frame to a different page. Callers must hold whatever
// lock protects the frame's residency (the buffer pool's pool mutex).
func (f *Frame) SetID(id ID) {
	f.id = id
}

// PinCount returns the number of outstanding pins on this frame.
func (f *Frame) PinCount() int32 {
	return f.pinCount.Load()
}

// Pin increments the pin count.
func (f *Frame) Pin() int32 {
	return f.pinCount.Add(1)
}

// Unpin decrements the pin count and returns the new value.
func (f *Frame) Unpin() int32 {
	return f.pinCount.Add(-1)
}

// IsDirty reports whether the frame's bytes have diverged from disk.
func (f *Frame) IsDirty() bool {
	return f.dirty.Load()
}

// SetDirty sets the frame's dirty flag.
func (f *Frame) SetDirty(dirty bool) {
	f.dirty.Store(dirty)
}

// Data returns the frame's raw byte buffer. Writers must call SetDirty(true)
// after mutating it.
func (f *Frame) Data() []byte {
	return f.data
}

// Update copies src into the frame's buffer at the given offset and marks
// the frame dirty.
func (f *Frame) Update(src []byte, offset int) {
	copy(f.data[offset:offset+len(src)], src)
	f.dirty.Store(true)
}

// Reset clears a frame back to its free-list state: no page, not dirty,
// zeroed buffer, pin count zero. Callers must hold the pool mutex and must
// already know the pin count is zero.
func (f *Frame) Reset() {
	f.id = InvalidID
	f.dirty.Store(false)
	f.pinCount.Store(0)
	clear(f.data)
}

// Size is the number of usable bytes in a frame.
var Size = int(config.PageSize)
