package allocator

// maxRegionsCount is the maximum number of physical regions the page
// allocator can track at once, mirroring the fixed-size region table the
// original liballocator keeps.
const maxRegionsCount = 8

// Region describes one contiguous span of caller-owned memory handed to
// Init. Address and Size are in bytes; Size need not already be a multiple
// of the allocator's page size, normalizeRegion rounds it down.
type Region struct {
	Address uintptr
	Size    uintptr
}

// regionInfo is the normalized, page-aligned view of a Region used
// internally once Init has validated it. It keeps both the raw bounds the
// caller passed in and the aligned bounds actually handed to the page
// allocator, since stats accounting (see PageAllocator.Stats) must report
// the raw size as part of totalMemorySize and the bytes alignment cost as
// part of reservedMemorySize, per the original RegionInfo's
// start/end/size/alignedSize fields.
type regionInfo struct {
	rawStart  uintptr // caller-supplied address, unaligned
	rawSize   uintptr // caller-supplied size, unaligned
	start     uintptr // page-aligned start address
	end       uintptr // page-aligned end address (exclusive)
	pageCount uintptr
}

// size returns the aligned byte length of the normalized region, i.e. what
// the page allocator actually manages out of it.
func (r regionInfo) size() uintptr {
	return r.end - r.start
}

// alignmentLoss returns the bytes the caller supplied but that don't fall
// within the page-aligned [start, end) span: rounding the start up and the
// end down can each throw away up to pageSize-1 bytes.
func (r regionInfo) alignmentLoss() uintptr {
	return r.rawSize - r.size()
}

// normalizeRegion aligns a caller-supplied region to page boundaries: the
// start is rounded up, the end rounded down. A region that page-aligns to
// zero usable pages is rejected (ok is false), matching the original
// initRegionInfo's "detect regions smaller than one page" behavior.
func normalizeRegion(region Region, pageSize uintptr) (regionInfo, bool) {
	if region.Size == 0 || pageSize == 0 || !isPowerOf2(pageSize) {
		return regionInfo{}, false
	}

	start := alignUp(region.Address, pageSize)

	end := region.Address + region.Size
	if end < region.Address {
		return regionInfo{}, false // overflow
	}

	end = alignDown(end, pageSize)

	if end <= start {
		return regionInfo{}, false
	}

	pageCount := (end - start) / pageSize

	return regionInfo{
		rawStart:  region.Address,
		rawSize:   region.Size,
		start:     start,
		end:       end,
		pageCount: pageCount,
	}, true
}

// containsAddress reports whether addr falls within [start, end).
func (r regionInfo) containsAddress(addr uintptr) bool {
	return addr >= r.start && addr < r.end
}
