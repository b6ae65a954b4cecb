package allocator

import (
	"sort"
	"unsafe"
)

// PageStats reports the page allocator's view of the memory under its
// management, broken down the way the original implementation's Stats
// struct does: byte totals plus the equivalent page counts.
type PageStats struct {
	PageSize           uintptr
	TotalMemorySize    uintptr
	ReservedMemorySize uintptr
	UserMemorySize     uintptr
	FreeMemorySize     uintptr
	TotalPagesCount    uintptr
	ReservedPagesCount uintptr
	FreePagesCount     uintptr
}

// PageAllocator is a buddy-style allocator over fixed-size pages spanning up
// to maxRegionsCount non-contiguous caller-supplied regions. It stores its
// own page descriptors inside the managed memory itself rather than in a
// separately allocated table, so it never touches the Go heap once Init
// succeeds.
type PageAllocator struct {
	pageSize      uintptr
	regions       []regionInfo
	pageBase      []uintptr // cumulative page-index base per region, parallel to regions
	pages         unsafe.Pointer
	pageCount     uintptr
	reservedPages uintptr
	descRegion    int
	freeList      [maxGroupIdx]*Page
	totalRawSize  uintptr // sum of caller-supplied region sizes, before page alignment
	alignmentLoss uintptr // bytes thrown away rounding each region to page boundaries
}

// Init validates and normalizes regions, chooses one of them to host the
// page descriptor array, and seeds the free lists with the remaining
// memory. It returns false on any configuration error (too many regions, a
// region that doesn't normalize to at least one page, or no region large
// enough to host the descriptor table it would itself require).
func (pa *PageAllocator) Init(regions []Region, pageSize uintptr) bool {
	*pa = PageAllocator{}

	if len(regions) == 0 || len(regions) > maxRegionsCount {
		return false
	}

	if pageSize == 0 || !isPowerOf2(pageSize) {
		return false
	}

	normalized := make([]regionInfo, 0, len(regions))

	for _, r := range regions {
		info, ok := normalizeRegion(r, pageSize)
		if !ok {
			return false
		}

		normalized = append(normalized, info)
	}

	var total, totalRawSize, alignmentLoss uintptr

	bases := make([]uintptr, len(normalized))
	for i, r := range normalized {
		bases[i] = total
		total += r.pageCount
		totalRawSize += r.rawSize
		alignmentLoss += r.alignmentLoss()
	}

	if total == 0 {
		return false
	}

	reservedPages := (total*pageDescriptorSize + pageSize - 1) / pageSize

	descIdx := chooseDescRegion(normalized, reservedPages)
	if descIdx < 0 {
		return false
	}

	pa.pageSize = pageSize
	pa.regions = normalized
	pa.pageBase = bases
	pa.pageCount = total
	pa.reservedPages = reservedPages
	pa.descRegion = descIdx
	pa.pages = unsafe.Pointer(normalized[descIdx].start)
	pa.totalRawSize = totalRawSize
	pa.alignmentLoss = alignmentLoss

	for i, r := range normalized {
		base := bases[i]
		for j := uintptr(0); j < r.pageCount; j++ {
			page := pa.pageAt(base + j)
			*page = Page{addr: r.start + j*pageSize}
		}
	}

	descBase := bases[descIdx]
	for j := uintptr(0); j < reservedPages; j++ {
		pa.pageAt(descBase + j).setUsed(true)
	}

	for i, r := range normalized {
		start := uintptr(0)
		if i == descIdx {
			start = reservedPages
		}

		remaining := r.pageCount - start
		if remaining == 0 {
			continue
		}

		base := bases[i] + start
		for remaining > 0 {
			n := remaining
			if n > maxGroupSize {
				n = maxGroupSize
			}

			stampGroup(pa.pageAt(base), n, false)
			pa.addGroup(pa.pageAt(base), n)

			base += n
			remaining -= n
		}
	}

	return true
}

// chooseDescRegion returns the index of the smallest region (by page count)
// whose aligned size can accommodate the entire reservedPages-page
// descriptor array, or -1 if none qualifies. A region that exactly fits the
// descriptor table, with zero pages left over for itself, still qualifies:
// the remaining regions still serve user memory. Preferring the smallest
// sufficient region maximizes the memory left over in the larger regions.
func chooseDescRegion(regions []regionInfo, reservedPages uintptr) int {
	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return regions[order[i]].pageCount < regions[order[j]].pageCount
	})

	for _, idx := range order {
		if regions[idx].pageCount >= reservedPages {
			return idx
		}
	}

	return -1
}

func (pa *PageAllocator) pageAt(globalIdx uintptr) *Page {
	return (*Page)(unsafe.Add(pa.pages, int(globalIdx)*int(pageDescriptorSize)))
}

func (pa *PageAllocator) isValidPage(p *Page) bool {
	if p == nil || pa.pages == nil {
		return false
	}

	off := uintptr(unsafe.Pointer(p)) - uintptr(pa.pages)
	if off%pageDescriptorSize != 0 {
		return false
	}

	idx := off / pageDescriptorSize

	return idx < pa.pageCount
}

func (pa *PageAllocator) regionOf(addr uintptr) int {
	for i := range pa.regions {
		if pa.regions[i].containsAddress(addr) {
			return i
		}
	}

	return -1
}

// getPage resolves a caller-visible address to the Page descriptor for the
// page it falls in, or nil if addr is not inside any managed region.
func (pa *PageAllocator) getPage(addr uintptr) *Page {
	ri := pa.regionOf(addr)
	if ri < 0 {
		return nil
	}

	local := (addr - pa.regions[ri].start) / pa.pageSize

	return pa.pageAt(pa.pageBase[ri] + local)
}

func (pa *PageAllocator) removeGroup(first *Page) {
	idx := groupIndex(first.groupSize())
	listRemove(&pa.freeList[idx], first)
}

// addGroup links first into the free-list bucket for a run of n pages. n is
// passed explicitly (rather than read back from first.groupSize()) so
// callers can add a group whose footer was just stamped in the same breath.
func (pa *PageAllocator) addGroup(first *Page, n uintptr) {
	idx := groupIndex(n)
	listAdd(&pa.freeList[idx], first)
}

func (pa *PageAllocator) prevSiblingIfValid(p *Page) *Page {
	sib := p.prevSibling()
	if !pa.isValidPage(sib) {
		return nil
	}

	return sib
}

func (pa *PageAllocator) nextSiblingIfValid(p *Page) *Page {
	sib := p.nextSibling()
	if !pa.isValidPage(sib) {
		return nil
	}

	return sib
}

// Allocate finds or creates a free run of at least pageCount pages, marks it
// used, and returns its starting address. It returns 0 if no region holds a
// large enough free run.
func (pa *PageAllocator) Allocate(pageCount uintptr) uintptr {
	if pageCount == 0 || pageCount > maxGroupSize {
		return 0
	}

	for idx := groupIndex(pageCount); idx < maxGroupIdx; idx++ {
		for p := pa.freeList[idx]; p != nil; p = p.listNext() {
			if p.groupSize() < pageCount {
				continue
			}

			n := p.groupSize()
			pa.removeGroup(p)

			head, rest := splitGroup(p, n, pageCount)
			if rest != nil {
				pa.addGroup(rest, rest.groupSize())
			}

			stampGroup(head, pageCount, true)

			return head.address()
		}
	}

	return 0
}

// Release returns the page group starting at addr to the free lists,
// coalescing with any free neighboring group in the same region on either
// side. addr must be a value previously returned by Allocate; 0 is
// tolerated as a no-op.
func (pa *PageAllocator) Release(addr uintptr) {
	if addr == 0 {
		return
	}

	p := pa.getPage(addr)
	if p == nil {
		// Not in any managed region: nothing to release. Callers such as
		// ZoneAllocator.Release forward addresses here without first
		// checking page ownership, so this is routine, not a programming
		// error — unlike a double release, it is never assertf'd.
		return
	}

	assertf(p.used(), "Release: address 0x%x is not an allocated page group", addr)

	stampGroup(p, p.groupSize(), false)

	joined := p

	for {
		lastAbove := pa.prevSiblingIfValid(joined)
		if lastAbove == nil {
			break
		}

		if pa.regionOf(lastAbove.address()) != pa.regionOf(joined.address()) {
			break
		}

		if lastAbove.used() {
			break
		}

		firstAbove := pageOffset(lastAbove, 1-int(lastAbove.groupSize()))
		pa.removeGroup(firstAbove)
		joined = joinGroup(firstAbove, joined)
	}

	for {
		lastJoined := pageOffset(joined, int(joined.groupSize())-1)

		firstBelow := pa.nextSiblingIfValid(lastJoined)
		if firstBelow == nil {
			break
		}

		if pa.regionOf(lastJoined.address()) != pa.regionOf(firstBelow.address()) {
			break
		}

		if firstBelow.used() {
			break
		}

		pa.removeGroup(firstBelow)
		joined = joinGroup(joined, firstBelow)
	}

	pa.addGroup(joined, joined.groupSize())
}

// Stats reports the page allocator's current memory breakdown.
// TotalMemorySize is the sum of the raw region sizes the caller passed to
// Init, not the page-aligned total; ReservedMemorySize folds in both the
// descriptor table's pages and the bytes lost rounding each region to a
// page boundary, so TotalMemorySize == ReservedMemorySize + UserMemorySize
// still holds even when a region's bounds weren't already page-aligned.
func (pa *PageAllocator) Stats() PageStats {
	var free uintptr

	for idx := range pa.freeList {
		for p := pa.freeList[idx]; p != nil; p = p.listNext() {
			free += p.groupSize()
		}
	}

	return PageStats{
		PageSize:           pa.pageSize,
		TotalMemorySize:    pa.totalRawSize,
		ReservedMemorySize: pa.reservedPages*pa.pageSize + pa.alignmentLoss,
		UserMemorySize:     (pa.pageCount - pa.reservedPages) * pa.pageSize,
		FreeMemorySize:     free * pa.pageSize,
		TotalPagesCount:    pa.pageCount,
		ReservedPagesCount: pa.reservedPages,
		FreePagesCount:     free,
	}
}
