package allocator

// Stats is the user-facing memory breakdown the facade exposes, folding the
// page allocator's region-level view together with the zone allocator's
// slab-level view into the five fields callers actually care about.
type Stats struct {
	TotalMemorySize     uintptr
	ReservedMemorySize  uintptr
	UserMemorySize      uintptr
	AllocatedMemorySize uintptr
	FreeMemorySize      uintptr
}

// computeStats folds a PageStats and a ZoneStats snapshot together.
//
// TotalMemorySize and UserMemorySize are page-layer concepts: the sum of
// the raw region sizes, and the aligned pages left once the page descriptor
// table itself is carved out. ReservedMemorySize and FreeMemorySize combine
// both layers: page descriptors, alignment loss and zone descriptors count
// as reserved overhead, and unclaimed whole pages plus unclaimed chunks
// inside existing zones both count as free. AllocatedMemorySize is the user
// memory the page layer has handed out (UserMemorySize minus its free
// pages), less what zones spend on descriptors and still hold as free
// chunks — the bytes actually handed out to callers.
func computeStats(p PageStats, z ZoneStats) Stats {
	givenToZonesOrDirect := p.UserMemorySize - p.FreeMemorySize
	allocated := givenToZonesOrDirect - z.ReservedMemorySize - z.FreeMemorySize

	return Stats{
		TotalMemorySize:     p.TotalMemorySize,
		ReservedMemorySize:  p.ReservedMemorySize + z.ReservedMemorySize,
		UserMemorySize:      p.UserMemorySize,
		AllocatedMemorySize: allocated,
		FreeMemorySize:      p.FreeMemorySize + z.FreeMemorySize,
	}
}
