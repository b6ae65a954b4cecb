package allocator

import "unsafe"

// Allocator combines a PageAllocator and a ZoneAllocator into the two-tier
// allocator the rest of this project wires up behind a language-neutral
// facade. It holds no other state: every byte of bookkeeping lives inside
// the regions the caller supplied to Init.
type Allocator struct {
	pages *PageAllocator
	zones *ZoneAllocator
}

// New allocates the (small, Go-heap-resident) bookkeeping structs for an
// Allocator without initializing them against any memory yet; call Init
// before using it.
func New() *Allocator {
	return &Allocator{pages: &PageAllocator{}, zones: &ZoneAllocator{}}
}

// Init validates regions, initializes the page allocator over them, and
// bootstraps the zone allocator from one of the pages it manages. It
// returns false on any configuration error; on failure the Allocator is
// left as if Clear had been called.
func (a *Allocator) Init(regions []Region, pageSize uintptr) bool {
	if !a.pages.Init(regions, pageSize) {
		*a.zones = ZoneAllocator{}

		return false
	}

	if !a.zones.Init(a.pages, pageSize) {
		*a.pages = PageAllocator{}

		return false
	}

	return true
}

// InitSingleRegion is a convenience wrapper for the common case of a single
// contiguous [start, end) region.
func (a *Allocator) InitSingleRegion(start, end, pageSize uintptr) bool {
	return a.Init([]Region{{Address: start, Size: end - start}}, pageSize)
}

// Clear resets the Allocator to its zero state. It does not, and cannot,
// erase the memory it was managing; any outstanding pointers become invalid
// the moment Clear is called.
func (a *Allocator) Clear() {
	*a.pages = PageAllocator{}
	*a.zones = ZoneAllocator{}
}

// Allocate returns a pointer to at least size bytes of zero-initialized
// bookkeeping (the payload itself is not zeroed), or nil if no region has
// enough contiguous free space left.
func (a *Allocator) Allocate(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	addr := a.zones.Allocate(size)
	if addr == 0 {
		return nil
	}

	return unsafe.Pointer(addr) //nolint:govet // addr is a live managed-memory address, not a Go heap pointer
}

// Release returns ptr, previously returned by Allocate, to the allocator.
// A nil ptr is tolerated and ignored.
func (a *Allocator) Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a.zones.Release(uintptr(ptr))
}

// Stats reports the allocator's current memory breakdown.
func (a *Allocator) Stats() Stats {
	return computeStats(a.pages.Stats(), a.zones.Stats())
}
