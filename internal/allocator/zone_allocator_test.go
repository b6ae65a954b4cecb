package allocator

import (
	"testing"
	"unsafe"
)

func TestChunkSizeForRequest(t *testing.T) {
	cases := []struct {
		size uintptr
		want uintptr
	}{
		{1, 16},
		{16, 16},
		{17, 32},
		{200, 256},
		{2048, 2048},
	}

	for _, c := range cases {
		if got := chunkSizeForRequest(c.size); got != c.want {
			t.Errorf("chunkSizeForRequest(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestZoneIdx(t *testing.T) {
	cases := []struct {
		chunkSize uintptr
		want      int
	}{
		{16, 0},
		{32, 1},
		{64, 2},
		{128, 3},
		{256, 4},
		{512, 5},
		{1024, 6},
		{2048, 7},
	}

	for _, c := range cases {
		if got := zoneIdx(c.chunkSize); got != c.want {
			t.Errorf("zoneIdx(%d) = %d, want %d", c.chunkSize, got, c.want)
		}
	}
}

func TestZoneAllocatorBootstrapAndSmallAllocations(t *testing.T) {
	const pageSize = 4096

	buf, r := hostedRegion(t, 64, pageSize)
	defer use(buf)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("PageAllocator.Init failed")
	}

	var za ZoneAllocator
	if !za.Init(&pa, pageSize) {
		t.Fatal("ZoneAllocator.Init failed")
	}

	var addrs []uintptr

	for i := 0; i < 50; i++ {
		a := za.Allocate(24)
		if a == 0 {
			t.Fatalf("Allocate(24) #%d returned 0", i)
		}

		addrs = append(addrs, a)
	}

	seen := make(map[uintptr]bool, len(addrs))
	for _, a := range addrs {
		if seen[a] {
			t.Fatalf("Allocate handed out duplicate address 0x%x", a)
		}

		seen[a] = true

		*(*byte)(unsafe.Pointer(a)) = 0x42
	}

	for _, a := range addrs {
		za.Release(a)
	}

	stats := za.Stats()
	if stats.AllocatedMemorySize != 0 {
		t.Fatalf("AllocatedMemorySize after releasing everything = %d, want 0", stats.AllocatedMemorySize)
	}
}

func TestZoneAllocatorLargeRequestForwardsToPages(t *testing.T) {
	const pageSize = 4096

	buf, r := hostedRegion(t, 64, pageSize)
	defer use(buf)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("PageAllocator.Init failed")
	}

	var za ZoneAllocator
	if !za.Init(&pa, pageSize) {
		t.Fatal("ZoneAllocator.Init failed")
	}

	before := pa.Stats().FreePagesCount

	addr := za.Allocate(pageSize * 3)
	if addr == 0 {
		t.Fatal("Allocate(3 pages) returned 0")
	}

	if got := pa.Stats().FreePagesCount; got != before-3 {
		t.Fatalf("free pages after a 3-page zone allocation = %d, want %d", got, before-3)
	}

	za.Release(addr)

	if got := pa.Stats().FreePagesCount; got != before {
		t.Fatalf("free pages after releasing the 3-page allocation = %d, want %d", got, before)
	}
}

func TestZoneAllocatorGrowsBeyondOneZone(t *testing.T) {
	const pageSize = 256

	buf, r := hostedRegion(t, 256, pageSize)
	defer use(buf)

	var pa PageAllocator
	if !pa.Init([]Region{r}, pageSize) {
		t.Fatal("PageAllocator.Init failed")
	}

	var za ZoneAllocator
	if !za.Init(&pa, pageSize) {
		t.Fatal("ZoneAllocator.Init failed")
	}

	chunksPerZone := pageSize / minimalAllocSize

	var addrs []uintptr

	for i := 0; i < chunksPerZone*3; i++ {
		a := za.Allocate(minimalAllocSize)
		if a == 0 {
			t.Fatalf("Allocate(%d) #%d returned 0 (ran out before growing past one zone)", minimalAllocSize, i)
		}

		addrs = append(addrs, a)
	}

	for _, a := range addrs {
		za.Release(a)
	}
}

func use(b []byte) { _ = b }
