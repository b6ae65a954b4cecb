package allocator

import (
	"runtime"
	"testing"
	"unsafe"
)

// hostedRegion backs a Region with a real Go byte slice kept alive for the
// life of the test, the same trick region_alloc.go's allocateSystemMemory
// uses to hand out addressable memory without a real mmap.
func hostedRegion(t *testing.T, pages uintptr, pageSize uintptr) ([]byte, Region) {
	t.Helper()

	buf := make([]byte, pages*pageSize+pageSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	start := alignUp(base, pageSize)

	return buf, Region{Address: start, Size: pages * pageSize}
}

func TestGroupIndex(t *testing.T) {
	cases := []struct {
		n    uintptr
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 0},
		{4, 1},
		{7, 1},
		{8, 2},
		{15, 2},
		{16, 3},
		{1 << 20, 19},
	}

	for _, c := range cases {
		if got := groupIndex(c.n); got != c.want {
			t.Errorf("groupIndex(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestNormalizeRegion(t *testing.T) {
	t.Run("RejectsZeroPageSize", func(t *testing.T) {
		if _, ok := normalizeRegion(Region{Address: 0x1000, Size: 0x1000}, 0); ok {
			t.Fatal("expected rejection of a zero page size")
		}
	})

	t.Run("RejectsSubPageRegion", func(t *testing.T) {
		if _, ok := normalizeRegion(Region{Address: 0x1000, Size: 10}, 4096); ok {
			t.Fatal("expected rejection of a region smaller than one page")
		}
	})

	t.Run("RoundsToPageBoundaries", func(t *testing.T) {
		info, ok := normalizeRegion(Region{Address: 10, Size: 8192 - 10}, 4096)
		if !ok {
			t.Fatal("expected normalization to succeed")
		}

		if info.start != 4096 || info.pageCount != 1 {
			t.Fatalf("got start=%d pageCount=%d, want start=4096 pageCount=1", info.start, info.pageCount)
		}
	})

	t.Run("TracksAlignmentLoss", func(t *testing.T) {
		info, ok := normalizeRegion(Region{Address: 10, Size: 8192 - 10}, 4096)
		if !ok {
			t.Fatal("expected normalization to succeed")
		}

		// Raw span is [10, 8192); aligned span is [4096, 8192). The 4086
		// bytes below the first aligned page are lost to alignment, and
		// must still be accounted for in rawSize/alignmentLoss rather than
		// silently vanishing from the allocator's stats.
		if info.rawSize != 8192-10 {
			t.Fatalf("rawSize = %d, want %d", info.rawSize, 8192-10)
		}

		if got, want := info.alignmentLoss(), uintptr(4096-10); got != want {
			t.Fatalf("alignmentLoss() = %d, want %d", got, want)
		}
	})
}

// TestPageAllocatorStatsAccountsForAlignmentLoss verifies that bytes lost
// rounding a region's bounds to page boundaries still land in
// ReservedMemorySize rather than disappearing from TotalMemorySize, per
// the totalMemorySize/reservedMemorySize split the stats aggregation must
// preserve even when a region isn't already page-aligned.
func TestPageAllocatorStatsAccountsForAlignmentLoss(t *testing.T) {
	const pageSize = 4096

	const pages = 6

	buf := make([]byte, (pages+2)*pageSize)
	base := alignUp(uintptr(unsafe.Pointer(&buf[0])), pageSize)

	// Offset the raw region by 100 bytes past an aligned page, and trim 50
	// bytes off its raw end, so both the start and the end round away from
	// what the caller actually supplied.
	region := Region{Address: base + 100, Size: pages*pageSize - 50}

	var pa PageAllocator
	if !pa.Init([]Region{region}, pageSize) {
		t.Fatal("Init failed")
	}

	stats := pa.Stats()

	if stats.TotalMemorySize != region.Size {
		t.Fatalf("TotalMemorySize = %d, want the raw region size %d", stats.TotalMemorySize, region.Size)
	}

	if minReserved := stats.ReservedPagesCount * pageSize; stats.ReservedMemorySize <= minReserved {
		t.Fatalf("ReservedMemorySize = %d, want more than the descriptor pages alone (%d); alignment loss is missing",
			stats.ReservedMemorySize, minReserved)
	}

	if stats.TotalMemorySize != stats.ReservedMemorySize+stats.UserMemorySize {
		t.Fatalf("TotalMemorySize (%d) != ReservedMemorySize (%d) + UserMemorySize (%d)",
			stats.TotalMemorySize, stats.ReservedMemorySize, stats.UserMemorySize)
	}

	runtime.KeepAlive(buf)
}

// TestPageAllocatorScenarioS1 reproduces the reference scenario: page size
// 256, three regions of 535, 87 and 4 pages. The smallest region able to
// host the full descriptor table (87 pages) is chosen over the larger
// 535-page region, reserving 79 of its pages.
func TestPageAllocatorScenarioS1(t *testing.T) {
	const pageSize = 256

	buf1, r1 := hostedRegion(t, 535, pageSize)
	buf2, r2 := hostedRegion(t, 87, pageSize)
	buf3, r3 := hostedRegion(t, 4, pageSize)

	var pa PageAllocator
	if !pa.Init([]Region{r1, r2, r3}, pageSize) {
		t.Fatal("Init failed")
	}

	stats := pa.Stats()

	want := PageStats{
		PageSize:           256,
		TotalMemorySize:    160256,
		ReservedMemorySize: 20224,
		UserMemorySize:     140032,
		FreeMemorySize:     140032,
		TotalPagesCount:    626,
		ReservedPagesCount: 79,
		FreePagesCount:     547,
	}

	if stats != want {
		t.Fatalf("Stats() = %+v, want %+v", stats, want)
	}

	runtime.KeepAlive(buf1)
	runtime.KeepAlive(buf2)
	runtime.KeepAlive(buf3)
}

func TestPageAllocatorAllocateRelease(t *testing.T) {
	const pageSize = 4096

	buf, r := hostedRegion(t, 64, pageSize)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("Init failed")
	}

	before := pa.Stats()

	a := pa.Allocate(4)
	if a == 0 {
		t.Fatal("Allocate(4) returned 0")
	}

	b := pa.Allocate(2)
	if b == 0 {
		t.Fatal("Allocate(2) returned 0")
	}

	mid := pa.Stats()
	if mid.FreePagesCount != before.FreePagesCount-6 {
		t.Fatalf("free pages after two allocations = %d, want %d", mid.FreePagesCount, before.FreePagesCount-6)
	}

	pa.Release(a)
	pa.Release(b)

	after := pa.Stats()
	if after != before {
		t.Fatalf("Stats() after release-everything = %+v, want %+v (full coalescing back to start)", after, before)
	}

	runtime.KeepAlive(buf)
}

func TestPageAllocatorOutOfMemory(t *testing.T) {
	const pageSize = 4096

	buf, r := hostedRegion(t, 4, pageSize)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("Init failed")
	}

	if addr := pa.Allocate(1000); addr != 0 {
		t.Fatalf("Allocate(1000) on a 4-page region = 0x%x, want 0", addr)
	}

	runtime.KeepAlive(buf)
}

func TestPageAllocatorReleaseNilIsNoop(t *testing.T) {
	var pa PageAllocator
	pa.Release(0) // must not panic
}

// TestPageAllocatorReleaseOutOfRegionIsNoop mirrors the release(0xdeadbeef)
// scenario: an address that was never handed out by Allocate, and falls
// outside every managed region, must leave all stats unchanged rather than
// being treated as a programming error.
func TestPageAllocatorReleaseOutOfRegionIsNoop(t *testing.T) {
	const pageSize = 4096

	buf, r := hostedRegion(t, 4, pageSize)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("Init failed")
	}

	before := pa.Stats()

	pa.Release(0xdeadbeef)

	if after := pa.Stats(); after != before {
		t.Fatalf("Stats() changed after releasing an out-of-region address: before=%+v after=%+v", before, after)
	}

	runtime.KeepAlive(buf)
}

// TestChooseDescRegionAcceptsExactFit verifies a region whose page count
// exactly equals the descriptor table it would need to host is still
// chosen, leaving zero pages over for itself rather than being rejected.
func TestChooseDescRegionAcceptsExactFit(t *testing.T) {
	regions := []regionInfo{
		{pageCount: 100},
		{pageCount: 10},
	}

	if got := chooseDescRegion(regions, 10); got != 1 {
		t.Fatalf("chooseDescRegion = %d, want 1 (exact-fit region)", got)
	}
}
