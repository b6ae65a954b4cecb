//go:build !unix

package hostmem

import (
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
)

// fallbackPageSize is used to align the backing buffer when the host
// platform has no mmap; it only needs to be a reasonable power of two, not
// the exact hardware page size, since it never leaves process memory.
const fallbackPageSize = 4096

// MappedRegion is a Region backed by a page-aligned slice of the Go heap.
// It is kept alive only by the reference this struct holds; never discard
// a MappedRegion while the allocator still manages memory inside it.
type MappedRegion struct {
	allocator.Region

	buf []byte
}

// Map reserves size bytes (rounded up to fallbackPageSize) of
// page-aligned, GC-backed memory and returns it as a Region.
func Map(size uintptr) (*MappedRegion, error) {
	aligned := (size + fallbackPageSize - 1) &^ (fallbackPageSize - 1)

	raw := make([]byte, aligned+fallbackPageSize)
	base := uintptr(unsafe.Pointer(&raw[0]))
	start := (base + fallbackPageSize - 1) &^ (fallbackPageSize - 1)

	return &MappedRegion{
		Region: allocator.Region{Address: start, Size: aligned},
		buf:    raw,
	}, nil
}

// Unmap is a no-op on this platform; the Go garbage collector reclaims the
// backing buffer once the MappedRegion is no longer reachable.
func (m *MappedRegion) Unmap() error {
	return nil
}
