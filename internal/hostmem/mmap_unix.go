//go:build unix

// Package hostmem provides hosted-environment Region providers for
// orizonalloc: since the allocator expects a real caller-owned address
// range rather than Go-heap-managed objects, something has to hand it one.
// On unix this maps anonymous pages directly with mmap so the allocator
// manages genuine page-granular memory, the same way it would on bare
// metal.
package hostmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
)

// MappedRegion is a Region backed by an anonymous mmap mapping. Unmap must
// be called to release the mapping once the allocator is done with it;
// failing to call it leaks the mapping for the life of the process, exactly
// as failing to munmap would in C.
type MappedRegion struct {
	allocator.Region

	data []byte
}

// Map reserves size bytes (rounded up to the system page size) of
// anonymous, readable/writable memory and returns it as a Region.
func Map(size uintptr) (*MappedRegion, error) {
	pageSize := uintptr(unix.Getpagesize())
	aligned := (size + pageSize - 1) &^ (pageSize - 1)

	data, err := unix.Mmap(-1, 0, int(aligned), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("hostmem: mmap %d bytes: %w", aligned, err)
	}

	return &MappedRegion{
		Region: allocator.Region{Address: uintptr(unsafe.Pointer(&data[0])), Size: uintptr(len(data))},
		data:   data,
	}, nil
}

// Unmap releases the mapping. The Region must not be used again afterward.
func (m *MappedRegion) Unmap() error {
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("hostmem: munmap: %w", err)
	}

	return nil
}
