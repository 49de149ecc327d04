// Package bufferpool implements the fixed-capacity buffer pool manager: the
// single point through which index and table code fetches, creates,
// unpins, flushes, and deletes pages, coordinating eviction between a free
// list, an LRU victim selector, and a hash-indexed page table.
package bufferpool

import (
	"fmt"
	"sync"

	"coredb/pkg/config"
	"coredb/pkg/hash"
	"coredb/pkg/list"
	"coredb/pkg/page"
	"coredb/pkg/replacer"
	"coredb/pkg/wal"

	"github.com/bits-and-blooms/bitset"
	"github.com/ncw/directio"
)

// DiskManager is the external collaborator the pool reads pages from and
// writes them back to. pkg/disk implements it.
type DiskManager interface {
	AllocatePage() page.ID
	DeallocatePage(id page.ID) error
	ReadPage(id page.ID, buf []byte) error
	WritePage(id page.ID, buf []byte) error
}

// Pool is a fixed-size buffer pool manager. All state is guarded by a
// single mutex held for the duration of every public operation.
type Pool struct {
	mu sync.Mutex

	frames     []*page.Frame
	frameIndex map[*page.Frame]int

	freeList  *list.List[*page.Frame]
	lru       *replacer.LRU[*page.Frame]
	pageTable *hash.Table[page.ID, *page.Frame]

	disk DiskManager
	log  wal.Manager

	// occupied tracks, per frame index, whether that frame currently holds
	// a resident page. It is redundant with frame.ID() != InvalidID but is
	// kept separately so CheckInvariants can cheaply cross-check the two
	// instead of trusting a single source of truth.
	occupied *bitset.BitSet
}

// pageIDHasher adapts hash.Int64Hasher to page.ID, which is a distinct
// defined type over int64.
func pageIDHasher(strategy hash.Strategy) hash.Hasher[page.ID] {
	inner := hash.Int64Hasher(strategy)
	return func(id page.ID) uint64 { return inner(int64(id)) }
}

// New constructs a pool of poolSize frames backed by disk. log may be
// wal.Noop{} if no write-ahead log is wired in.
func New(poolSize int, disk DiskManager, log wal.Manager) *Pool {
	if poolSize < 1 {
		poolSize = config.DefaultPoolSize
	}
	if log == nil {
		log = wal.Noop{}
	}

	arena := directio.AlignedBlock(poolSize * page.Size)
	p := &Pool{
		frames:     make([]*page.Frame, poolSize),
		frameIndex: make(map[*page.Frame]int, poolSize),
		freeList:   list.NewList[*page.Frame](),
		lru:        replacer.New[*page.Frame](),
		pageTable:  hash.New[page.ID, *page.Frame](config.DefaultBucketSize, pageIDHasher(hash.XxHash)),
		disk:       disk,
		log:        log,
		occupied:   bitset.New(uint(poolSize)),
	}
	for i := 0; i < poolSize; i++ {
		f := page.New(arena[i*page.Size : (i+1)*page.Size])
		p.frames[i] = f
		p.frameIndex[f] = i
		p.freeList.PushTail(f)
	}
	return p
}

// Size returns the number of frames in the pool.
func (p *Pool) Size() int {
	return len(p.frames)
}

// acquireVictim returns an unpinned frame to reuse: the free list first,
// then the LRU replacer. Caller must hold p.mu.
func (p *Pool) acquireVictim() (*page.Frame, bool) {
	if link := p.freeList.PeekHead(); link != nil {
		f := link.GetValue()
		link.PopSelf()
		return f, true
	}
	return p.lru.Victim()
}

// evict clears a victim's old residency (writing it back first if dirty)
// so it can be repurposed for a different page. Caller must hold p.mu.
func (p *Pool) evict(f *page.Frame) {
	if f.IsDirty() {
		p.log.FlushBefore(f.ID())
		_ = p.disk.WritePage(f.ID(), f.Data())
		f.SetDirty(false)
	}
	if f.ID() != page.InvalidID {
		p.pageTable.Remove(f.ID())
		p.occupied.Clear(uint(p.frameIndex[f]))
	}
}

// FetchPage returns the frame holding id, pinned for the caller. If id is
// not already resident, a victim frame is recruited (free list, else LRU),
// written back if dirty, and id's contents are read from disk into it.
// Returns false if id is invalid or every frame is pinned.
func (p *Pool) FetchPage(id page.ID) (*page.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == page.InvalidID {
		return nil, false
	}

	if f, ok := p.pageTable.Find(id); ok {
		f.Pin()
		p.lru.Erase(f)
		return f, true
	}

	victim, ok := p.acquireVictim()
	if !ok {
		return nil, false
	}
	p.evict(victim)

	if err := p.disk.ReadPage(id, victim.Data()); err != nil {
		// Couldn't complete the fetch: return the frame to the free list
		// rather than leaving it in limbo.
		victim.SetID(page.InvalidID)
		p.freeList.PushTail(victim)
		return nil, false
	}

	victim.SetID(id)
	victim.SetDirty(false)
	victim.Pin()
	p.pageTable.Insert(id, victim)
	p.occupied.Set(uint(p.frameIndex[victim]))
	return victim, true
}

// NewPage allocates a fresh page via the disk manager and returns a pinned,
// zeroed frame for it. Returns false iff every frame is pinned and the free
// list is empty.
func (p *Pool) NewPage() (*page.Frame, page.ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	victim, ok := p.acquireVictim()
	if !ok {
		return nil, page.InvalidID, false
	}
	p.evict(victim)

	id := p.disk.AllocatePage()
	victim.Reset()
	victim.SetID(id)
	victim.SetDirty(true)
	victim.Pin()
	p.pageTable.Insert(id, victim)
	p.occupied.Set(uint(p.frameIndex[victim]))
	return victim, id, true
}

// UnpinPage decrements id's pin count, marking it dirty first if isDirty is
// true (a clean unpin never clears a prior dirty mark). If the pin count
// reaches zero, the frame becomes eligible for eviction via the LRU.
// Returns false if id isn't resident or was already unpinned to zero.
func (p *Pool) UnpinPage(id page.ID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.pageTable.Find(id)
	if !ok {
		return false
	}
	if isDirty {
		f.SetDirty(true)
	}
	if f.PinCount() <= 0 {
		return false
	}
	if f.Unpin() == 0 {
		p.lru.Insert(f)
	}
	return true
}

// FlushPage writes id's frame to disk if id is resident, regardless of its
// dirty flag, which is left unchanged. Returns false if id isn't resident.
func (p *Pool) FlushPage(id page.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == page.InvalidID {
		return false
	}
	f, ok := p.pageTable.Find(id)
	if !ok {
		return false
	}
	p.log.FlushBefore(id)
	_ = p.disk.WritePage(id, f.Data())
	return true
}

// DeletePage frees id's frame (if resident) back to the free list and asks
// the disk manager to deallocate it. Returns false, leaving the frame
// resident and pinned, if id is currently pinned.
func (p *Pool) DeletePage(id page.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.pageTable.Find(id); ok {
		if f.PinCount() != 0 {
			return false
		}
		p.lru.Erase(f)
		p.pageTable.Remove(id)
		p.occupied.Clear(uint(p.frameIndex[f]))
		f.Reset()
		p.freeList.PushTail(f)
	}
	_ = p.disk.DeallocatePage(id)
	return true
}

// CheckInvariants cross-checks the occupancy bitmap against each frame's
// own id/pin-count fields, returning an error naming the first frame found
// violating the pool's invariants: a pinned frame with no resident page, or
// a frame whose bitmap bit disagrees with whether it currently holds a
// page.
func (p *Pool) CheckInvariants() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, f := range p.frames {
		resident := f.ID() != page.InvalidID
		if p.occupied.Test(uint(i)) != resident {
			return fmt.Errorf("bufferpool: frame %d occupancy bitmap disagrees with frame state", i)
		}
		if !resident && f.PinCount() != 0 {
			return fmt.Errorf("bufferpool: frame %d is pinned but holds no page", i)
		}
	}
	return nil
}
