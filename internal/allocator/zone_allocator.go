package allocator

import "unsafe"

// maxZoneIdx is the number of chunk size classes the zone allocator serves:
// 16, 32, 64, 128, 256, 512, 1024, 2048 bytes.
const maxZoneIdx = 8

// ZoneStats reports the zone allocator's current memory breakdown, in the
// terms the original implementation's getStats formula uses: used memory is
// every page currently backing a zone, reserved memory is what those pages
// spend on hosting Zone descriptors themselves, and allocated is what's left
// once reserved and still-free chunks are subtracted out.
type ZoneStats struct {
	UsedMemorySize      uintptr
	ReservedMemorySize  uintptr
	FreeMemorySize      uintptr
	AllocatedMemorySize uintptr
}

type zoneClass struct {
	head            *Zone
	freeChunksCount uintptr
}

// ZoneAllocator is a slab allocator layered on a PageAllocator: it carves
// whole pages into power-of-two "zones" of same-sized chunks and routes
// sub-page requests to the smallest class that fits. Zone descriptors are
// themselves allocated from one of the classes it manages, bootstrapped by
// a single statically embedded zone so the very first Zone struct never
// needs to recursively allocate itself.
type ZoneAllocator struct {
	pageAlloc         *PageAllocator
	pageSize          uintptr
	zones             [maxZoneIdx]zoneClass
	zoneDescChunkSize uintptr
	zoneDescIdx       int
	initialZone       Zone
}

// Init seeds the allocator from one page borrowed from pa and used to host
// the first batch of Zone descriptors.
func (za *ZoneAllocator) Init(pa *PageAllocator, pageSize uintptr) bool {
	*za = ZoneAllocator{pageAlloc: pa, pageSize: pageSize}

	za.zoneDescChunkSize = roundUpPow2(maxUintptr(unsafe.Sizeof(Zone{}), minimalAllocSize))
	za.zoneDescIdx = zoneIdx(za.zoneDescChunkSize)

	span := zoneSpan(za.zoneDescChunkSize, pageSize)

	pageAddr := pa.Allocate(span / pageSize)
	if pageAddr == 0 {
		return false
	}

	initZone(&za.initialZone, pageAddr, za.zoneDescChunkSize, span)
	za.addZone(za.zoneDescIdx, &za.initialZone)

	return true
}

func maxUintptr(a, b uintptr) uintptr {
	if a > b {
		return a
	}

	return b
}

// chunkSizeForRequest maps a sub-page allocation request to the smallest
// chunk size class that can hold it.
func chunkSizeForRequest(size uintptr) uintptr {
	if size < minimalAllocSize {
		size = minimalAllocSize
	}

	return roundUpPow2(size)
}

// zoneIdx maps a chunk size to its class index: 16->0, 32->1, ..., 2048->7.
func zoneIdx(chunkSize uintptr) int {
	return log2Floor(chunkSize) - 4
}

// zoneSpan returns how many bytes a zone of the given chunk size must span
// so that it can host at least one chunk: normally one page, but more when
// the chunk itself is bigger than a page.
func zoneSpan(chunkSize, pageSize uintptr) uintptr {
	if chunkSize <= pageSize {
		return pageSize
	}

	return alignUp(chunkSize, pageSize)
}

func (za *ZoneAllocator) addZone(idx int, z *Zone) {
	listAdd(&za.zones[idx].head, z)
	za.zones[idx].freeChunksCount += z.freeChunksCount
}

func (za *ZoneAllocator) removeZone(idx int, z *Zone) {
	za.zones[idx].freeChunksCount -= z.freeChunksCount
	listRemove(&za.zones[idx].head, z)
}

func (za *ZoneAllocator) getFreeZone(idx int) *Zone {
	for z := za.zones[idx].head; z != nil; z = z.listNext() {
		if !z.isFull() {
			return z
		}
	}

	return nil
}

func (za *ZoneAllocator) findZone(idx int, addr uintptr) *Zone {
	for z := za.zones[idx].head; z != nil; z = z.listNext() {
		if z.isValidChunkAddr(addr) {
			return z
		}
	}

	return nil
}

// shouldAllocateZone reports whether class idx is about to run out of free
// chunks and needs a fresh zone before the next allocation. The
// zone-descriptor class reserves one extra chunk (triggerCount 1 instead of
// 0): that spare chunk is what describes the very next zone this method's
// caller is about to create, for any class, including its own.
func (za *ZoneAllocator) shouldAllocateZone(idx int) bool {
	triggerCount := uintptr(0)
	if idx == za.zoneDescIdx {
		triggerCount = 1
	}

	return za.zones[idx].freeChunksCount == triggerCount
}

// allocateZone grows class idx (implied by chunkSize) by one zone, first
// recursively making sure the zone-descriptor class itself won't run out
// while describing the new zone.
func (za *ZoneAllocator) allocateZone(chunkSize uintptr) *Zone {
	if chunkSize != za.zoneDescChunkSize && za.shouldAllocateZone(za.zoneDescIdx) {
		if za.allocateZone(za.zoneDescChunkSize) == nil {
			return nil
		}
	}

	span := zoneSpan(chunkSize, za.pageSize)

	pageAddr := za.pageAlloc.Allocate(span / za.pageSize)
	if pageAddr == 0 {
		return nil
	}

	zoneAddr := za.allocateChunk(za.zoneDescChunkSize)
	if zoneAddr == 0 {
		za.pageAlloc.Release(pageAddr)

		return nil
	}

	z := (*Zone)(unsafe.Pointer(zoneAddr))
	initZone(z, pageAddr, chunkSize, span)

	idx := zoneIdx(chunkSize)
	za.addZone(idx, z)

	return z
}

// allocateChunk hands out one free chunk of the given size, assuming a zone
// with spare capacity already exists (the caller is responsible for calling
// allocateZone first when shouldAllocateZone says so).
func (za *ZoneAllocator) allocateChunk(chunkSize uintptr) uintptr {
	idx := zoneIdx(chunkSize)

	z := za.getFreeZone(idx)
	if z == nil {
		return 0
	}

	addr := z.takeChunk()
	za.zones[idx].freeChunksCount--

	return addr
}

// deallocateChunk returns addr to the zone that owns it, retiring that zone
// (and recursively freeing its own descriptor chunk) if it becomes entirely
// empty. The statically embedded initial zone is never retired: it has
// nowhere else to live.
func (za *ZoneAllocator) deallocateChunk(chunkSize, addr uintptr) {
	idx := zoneIdx(chunkSize)

	z := za.findZone(idx, addr)
	assertf(z != nil, "deallocateChunk: address 0x%x is not owned by any zone of class %d", addr, idx)

	if z == nil {
		return
	}

	z.giveChunk(addr)
	za.zones[idx].freeChunksCount++

	if z.isEmpty() && z != &za.initialZone {
		za.removeZone(idx, z)

		pageAddr := z.pageAddr
		zoneAddr := uintptr(unsafe.Pointer(z))

		za.pageAlloc.Release(pageAddr)
		za.deallocateChunk(za.zoneDescChunkSize, zoneAddr)
	}
}

// Allocate serves a sub-page request from the smallest fitting chunk class,
// or forwards requests of at least a full page straight to the page
// allocator. It returns 0 on exhaustion and when the allocator has not been
// initialized.
func (za *ZoneAllocator) Allocate(size uintptr) uintptr {
	if size == 0 || za.pageAlloc == nil {
		return 0
	}

	if size >= za.pageSize {
		pages := (size + za.pageSize - 1) / za.pageSize

		return za.pageAlloc.Allocate(pages)
	}

	chunkSize := chunkSizeForRequest(size)
	idx := zoneIdx(chunkSize)

	if za.shouldAllocateZone(idx) {
		if za.allocateZone(chunkSize) == nil {
			return 0
		}
	}

	return za.allocateChunk(chunkSize)
}

// ownsAddress reports whether addr falls inside any zone this allocator
// manages, independent of chunk size class; used by Release to tell a
// sub-page chunk apart from a whole page group.
func (za *ZoneAllocator) ownsAddress(addr uintptr) (chunkSize uintptr, ok bool) {
	for idx := range za.zones {
		for z := za.zones[idx].head; z != nil; z = z.listNext() {
			if z.isValidChunkAddr(addr) {
				return z.chunkSize, true
			}
		}
	}

	return 0, false
}

// Release returns addr to the zone it was drawn from, or forwards it to the
// page allocator when it names a whole page group rather than a chunk.
func (za *ZoneAllocator) Release(addr uintptr) {
	if addr == 0 {
		return
	}

	if chunkSize, ok := za.ownsAddress(addr); ok {
		za.deallocateChunk(chunkSize, addr)

		return
	}

	za.pageAlloc.Release(addr)
}

// Stats reports the zone allocator's current memory breakdown. Reserved
// memory is what the zone descriptors themselves cost: every zone but one
// needs a Zone struct carved from the zone-descriptor class, the remaining
// one is the statically embedded initial zone, which costs nothing.
func (za *ZoneAllocator) Stats() ZoneStats {
	var zoneCount, usedPages, freeBytes uintptr

	for idx := range za.zones {
		for z := za.zones[idx].head; z != nil; z = z.listNext() {
			zoneCount++
			usedPages += z.span / za.pageSize
			freeBytes += z.freeChunksCount * z.chunkSize
		}
	}

	used := usedPages * za.pageSize

	var reserved uintptr
	if zoneCount > 0 {
		reserved = za.zoneDescChunkSize * (zoneCount - 1)
	}

	allocated := used - reserved - freeBytes

	return ZoneStats{
		UsedMemorySize:      used,
		ReservedMemorySize:  reserved,
		FreeMemorySize:      freeBytes,
		AllocatedMemorySize: allocated,
	}
}
