// Package btree implements the B+-tree internal page: an ordered array of
// keys and child page pointers that lives inside a single buffer pool frame,
// plus the split/merge/redistribute operations a B+-tree's insert and
// delete paths drive it through.
package btree

import (
	"encoding/binary"
	"errors"

	"coredb/pkg/page"
)

// ErrAllPagesPinned is returned by any operation that needs to fetch a
// sibling or child page and finds the pool has no frame to give it.
var ErrAllPagesPinned = errors.New("btree: all pages are pinned")

// Pool is the subset of buffer pool behavior an internal page needs to
// reach its children and parent: fetch a page by id, and release it when
// done.
type Pool interface {
	FetchPage(id page.ID) (*page.Frame, bool)
	UnpinPage(id page.ID, dirty bool) bool
}

// entry is one key/child-pointer pair, used internally when moving several
// entries between pages at once.
type entry[K any] struct {
	key   K
	value page.ID
}

// Header layout, shared by every InternalPage regardless of key type:
//
//	[0:4)   size     (int32, number of populated (key,value) slots)
//	[4:8)   maxSize  (int32, capacity in slots)
//	[8:16)  parentID (int64)
//	[16:)   (key,value) slots, each codec.Size()+valueSize bytes
const (
	sizeOffset    = 0
	maxSizeOffset = 4
	parentOffset  = 8
	headerLen     = 16
	valueSize     = 8
)

// InternalPage is a typed view over a page.Frame's raw bytes. Index 0's key
// is never meaningful — only its value (the leftmost child pointer) is,
// matching the convention that an internal page's first key is a sentinel.
type InternalPage[K any] struct {
	frame *page.Frame
	codec KeyCodec[K]
}

// NewView wraps frame as an InternalPage using codec to interpret its keys.
// It does not initialize the frame's header; call Init for a fresh page.
func NewView[K any](frame *page.Frame, codec KeyCodec[K]) *InternalPage[K] {
	return &InternalPage[K]{frame: frame, codec: codec}
}

func (n *InternalPage[K]) entrySize() int { return n.codec.Size() + valueSize }

func (n *InternalPage[K]) keyOffset(index int) int {
	return headerLen + index*n.entrySize()
}

func (n *InternalPage[K]) valueOffset(index int) int {
	return headerLen + index*n.entrySize() + n.codec.Size()
}

// ID returns the page id of the frame backing this view.
func (n *InternalPage[K]) ID() page.ID { return n.frame.ID() }

// Init resets the page to an empty internal page with a single (as yet
// unset) leftmost child slot, owned by the given parent.
func (n *InternalPage[K]) Init(parentID page.ID) {
	maxSize := (page.Size - headerLen) / n.entrySize()
	n.SetMaxSize(maxSize)
	n.SetParentID(parentID)
	n.SetSize(1)
}

// GetSize returns the number of populated (key,value) slots.
func (n *InternalPage[K]) GetSize() int {
	return int(int32(binary.LittleEndian.Uint32(n.frame.Data()[sizeOffset : sizeOffset+4])))
}

// SetSize overwrites the slot count directly.
func (n *InternalPage[K]) SetSize(size int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(size)))
	n.frame.Update(buf[:], sizeOffset)
}

// IncreaseSize adds delta (which may be negative) to the slot count.
func (n *InternalPage[K]) IncreaseSize(delta int) {
	n.SetSize(n.GetSize() + delta)
}

// GetMaxSize returns the page's slot capacity.
func (n *InternalPage[K]) GetMaxSize() int {
	return int(int32(binary.LittleEndian.Uint32(n.frame.Data()[maxSizeOffset : maxSizeOffset+4])))
}

// SetMaxSize overwrites the page's slot capacity.
func (n *InternalPage[K]) SetMaxSize(maxSize int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(maxSize)))
	n.frame.Update(buf[:], maxSizeOffset)
}

// GetParentID returns the id of this page's parent.
func (n *InternalPage[K]) GetParentID() page.ID {
	return page.ID(binary.LittleEndian.Uint64(n.frame.Data()[parentOffset : parentOffset+8]))
}

// SetParentID overwrites this page's parent id.
func (n *InternalPage[K]) SetParentID(id page.ID) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	n.frame.Update(buf[:], parentOffset)
}

// KeyAt returns the key at index, or the zero key if index is out of
// [0, GetSize()).
func (n *InternalPage[K]) KeyAt(index int) K {
	if index < 0 || index >= n.GetSize() {
		var zero K
		return zero
	}
	off := n.keyOffset(index)
	return n.codec.Decode(n.frame.Data()[off : off+n.codec.Size()])
}

// SetKeyAt overwrites the key at index, if index is within [0, GetSize()).
func (n *InternalPage[K]) SetKeyAt(index int, key K) {
	if index < 0 || index >= n.GetSize() {
		return
	}
	buf := make([]byte, n.codec.Size())
	n.codec.Encode(key, buf)
	n.frame.Update(buf, n.keyOffset(index))
}

// ValueAt returns the child pointer at index, or page.InvalidID if index is
// out of [0, GetSize()).
func (n *InternalPage[K]) ValueAt(index int) page.ID {
	if index < 0 || index >= n.GetSize() {
		return page.InvalidID
	}
	off := n.valueOffset(index)
	return page.ID(binary.LittleEndian.Uint64(n.frame.Data()[off : off+valueSize]))
}

// SetValueAt overwrites the child pointer at index. Unlike SetKeyAt, an
// out-of-range index is a programmer error here, not a no-op: it panics.
func (n *InternalPage[K]) SetValueAt(index int, value page.ID) {
	if index < 0 || index >= n.GetSize() {
		panic("btree: SetValueAt index out of range")
	}
	var buf [valueSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	n.frame.Update(buf[:], n.valueOffset(index))
}

// ValueIndex returns the index of the slot whose child pointer equals
// value, or -1 if none does.
func (n *InternalPage[K]) ValueIndex(value page.ID) int {
	for i, size := 0, n.GetSize(); i < size; i++ {
		if n.ValueAt(i) == value {
			return i
		}
	}
	return -1
}

// Lookup returns the child pointer to follow for key: the value at the
// last slot whose key is <= key. Slot 0's key is never compared since it
// holds no meaningful key.
func (n *InternalPage[K]) Lookup(key K, cmp Comparator[K]) page.ID {
	b, e := 1, n.GetSize()
	for b < e {
		mid := (b + e) / 2
		if cmp(n.KeyAt(mid), key) <= 0 {
			b = mid + 1
		} else {
			e = mid
		}
	}
	return n.ValueAt(b - 1)
}

// PopulateNewRoot fills a freshly created (empty, size-1) root page with
// oldValue as the leftmost child and (newKey, newValue) as the second slot.
// Only ever called on a fresh page that becomes the root after the tree's
// previous root split.
func (n *InternalPage[K]) PopulateNewRoot(oldValue page.ID, newKey K, newValue page.ID) {
	n.SetValueAt(0, oldValue)
	n.IncreaseSize(1)
	n.SetKeyAt(1, newKey)
	n.SetValueAt(1, newValue)
}

// InsertNodeAfter inserts (newKey, newValue) immediately after the slot
// whose value equals oldValue, shifting later slots right, and returns the
// page's new size.
func (n *InternalPage[K]) InsertNodeAfter(oldValue page.ID, newKey K, newValue page.ID) int {
	size := n.GetSize()
	n.IncreaseSize(1)
	for i := size; i > 0; i-- {
		if n.ValueAt(i-1) == oldValue {
			n.SetKeyAt(i, newKey)
			n.SetValueAt(i, newValue)
			break
		}
		n.SetKeyAt(i, n.KeyAt(i-1))
		n.SetValueAt(i, n.ValueAt(i-1))
	}
	return n.GetSize()
}

// copyFrom appends entries to the end of this page and grows its size by
// len(entries). Shared by MoveHalfTo and MoveAllTo.
func (n *InternalPage[K]) copyFrom(entries []entry[K]) {
	start := n.GetSize()
	n.IncreaseSize(len(entries))
	for i, e := range entries {
		n.SetKeyAt(start+i, e.key)
		n.SetValueAt(start+i, e.value)
	}
}

// adoptChildren re-parents every child in [from, to) to newParent, fetching
// each through pool.
func (n *InternalPage[K]) adoptChildren(from, to int, newParent page.ID, pool Pool) error {
	for i := from; i < to; i++ {
		child, ok := pool.FetchPage(n.ValueAt(i))
		if !ok {
			return ErrAllPagesPinned
		}
		NewView(child, n.codec).SetParentID(newParent)
		pool.UnpinPage(child.ID(), true)
	}
	return nil
}

// MoveHalfTo moves the upper half of this page's entries to recipient,
// which must be empty, re-parenting the moved children to recipient.
func (n *InternalPage[K]) MoveHalfTo(recipient *InternalPage[K], pool Pool) error {
	size := n.GetSize()
	half := (size + 1) / 2
	start := size - half

	moved := make([]entry[K], half)
	for i := 0; i < half; i++ {
		moved[i] = entry[K]{key: n.KeyAt(start + i), value: n.ValueAt(start + i)}
	}
	recipient.copyFrom(moved)

	if err := n.adoptChildren(start, size, recipient.ID(), pool); err != nil {
		return err
	}
	n.IncreaseSize(-half)
	return nil
}

// Remove deletes the slot at index, shifting later slots left.
func (n *InternalPage[K]) Remove(index int) {
	size := n.GetSize()
	for i := index; i < size-1; i++ {
		n.SetKeyAt(i, n.KeyAt(i+1))
		n.SetValueAt(i, n.ValueAt(i+1))
	}
	n.IncreaseSize(-1)
}

// RemoveAndReturnOnlyChild drops this page's sole remaining child pointer
// and returns it. Only valid when the page's size is 1, i.e. the tree's
// root has collapsed to a single child.
func (n *InternalPage[K]) RemoveAndReturnOnlyChild() page.ID {
	only := n.ValueAt(0)
	n.IncreaseSize(-1)
	return only
}

// MoveAllTo moves every entry of this page onto the end of recipient (used
// when merging an underflowed page into a sibling), updates the parent's
// pointer at indexInParent to reference recipient, and re-parents the
// moved children.
func (n *InternalPage[K]) MoveAllTo(recipient *InternalPage[K], indexInParent int, pool Pool) error {
	parent, ok := pool.FetchPage(n.GetParentID())
	if !ok {
		return ErrAllPagesPinned
	}
	NewView(parent, n.codec).SetValueAt(indexInParent, recipient.ID())
	pool.UnpinPage(parent.ID(), true)

	size := n.GetSize()
	moved := make([]entry[K], size)
	for i := 0; i < size; i++ {
		moved[i] = entry[K]{key: n.KeyAt(i), value: n.ValueAt(i)}
	}
	recipient.copyFrom(moved)

	return n.adoptChildren(0, size, recipient.ID(), pool)
}

// copyLastFrom appends (key, value) to this page, pulling the new
// separator key for the shifted boundary from this page's parent (found by
// this page's own position in it) and overwriting it there with key.
func (n *InternalPage[K]) copyLastFrom(key K, value page.ID, pool Pool) error {
	parent, ok := pool.FetchPage(n.GetParentID())
	if !ok {
		return ErrAllPagesPinned
	}
	pv := NewView(parent, n.codec)
	index := pv.ValueIndex(n.ID())
	separator := pv.KeyAt(index + 1)

	n.copyFrom([]entry[K]{{key: separator, value: value}})
	pv.SetKeyAt(index+1, key)
	pool.UnpinPage(parent.ID(), true)
	return nil
}

// MoveFirstToEndOf moves this page's first child pointer to the end of
// recipient, shifting this page's second child into slot 0, promoting this
// page's second key to the parent's separator, and re-parenting the moved
// child to recipient. Used to borrow from a right
// sibling during redistribution.
func (n *InternalPage[K]) MoveFirstToEndOf(recipient *InternalPage[K], pool Pool) error {
	childID := n.ValueAt(0)
	promotedKey := n.KeyAt(1)
	n.SetValueAt(0, n.ValueAt(1))
	n.Remove(1)

	if err := recipient.copyLastFrom(promotedKey, childID, pool); err != nil {
		return err
	}

	child, ok := pool.FetchPage(childID)
	if !ok {
		return ErrAllPagesPinned
	}
	NewView(child, n.codec).SetParentID(recipient.ID())
	pool.UnpinPage(child.ID(), true)
	return nil
}

// copyFirstFrom prepends (key, value) to this page's front, shifting every
// existing slot right by one, and overwrites this page's parent's key at
// parentIndex (the separator between the lender and this page) with key.
func (n *InternalPage[K]) copyFirstFrom(key K, value page.ID, parentIndex int, pool Pool) error {
	parent, ok := pool.FetchPage(n.GetParentID())
	if !ok {
		return ErrAllPagesPinned
	}
	pv := NewView(parent, n.codec)
	oldSeparator := pv.KeyAt(parentIndex)
	pv.SetKeyAt(parentIndex, key)
	pool.UnpinPage(parent.ID(), true)

	size := n.GetSize()
	n.IncreaseSize(1)
	for i := size; i > 0; i-- {
		n.SetKeyAt(i, n.KeyAt(i-1))
		n.SetValueAt(i, n.ValueAt(i-1))
	}
	n.SetValueAt(0, value)
	n.SetKeyAt(1, oldSeparator)
	return nil
}

// MoveLastToFrontOf moves this page's last child pointer to the front of
// recipient, re-parenting the moved child to recipient. parentIndex is
// recipient's position in the shared parent. Used to borrow from a left
// sibling during redistribution.
func (n *InternalPage[K]) MoveLastToFrontOf(recipient *InternalPage[K], parentIndex int, pool Pool) error {
	last := n.GetSize() - 1
	key := n.KeyAt(last)
	childID := n.ValueAt(last)
	n.IncreaseSize(-1)

	if err := recipient.copyFirstFrom(key, childID, parentIndex, pool); err != nil {
		return err
	}

	child, ok := pool.FetchPage(childID)
	if !ok {
		return ErrAllPagesPinned
	}
	NewView(child, n.codec).SetParentID(recipient.ID())
	pool.UnpinPage(child.ID(), true)
	return nil
}

// QueueUpChildren fetches every child of this page from pool, pinned, for
// traversal (e.g. a debug print walking the whole tree breadth-first).
// Callers are responsible for unpinning each returned frame.
func (n *InternalPage[K]) QueueUpChildren(pool Pool) ([]*page.Frame, error) {
	size := n.GetSize()
	children := make([]*page.Frame, 0, size)
	for i := 0; i < size; i++ {
		child, ok := pool.FetchPage(n.ValueAt(i))
		if !ok {
			return nil, ErrAllPagesPinned
		}
		children = append(children, child)
	}
	return children, nil
}
