// Package orizonalloc is a two-tier dynamic memory allocator for
// bare-metal, embedded and hosted environments: a buddy-style page
// allocator over one or more caller-supplied memory regions, with a
// slab-style zone allocator layered on top for sub-page requests. The
// allocator owns no memory of its own — every byte of bookkeeping is carved
// out of the regions passed to Init.
//
// The core (internal/allocator) takes no locks and assumes a single logical
// caller at a time; see the guarded subpackage for an opt-in wrapper that
// serializes concurrent callers.
package orizonalloc

import (
	"unsafe"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
)

// Region describes one contiguous span of caller-owned memory.
type Region = allocator.Region

// Stats is the allocator's user-facing memory breakdown.
type Stats = allocator.Stats

// Version returns the module's semantic version string.
func Version() string {
	return allocator.Version()
}

// AtLeast reports whether this build's version satisfies a semver
// constraint, e.g. AtLeast(">= 1.0.0, < 2.0.0").
func AtLeast(constraint string) (bool, error) {
	return allocator.AtLeast(constraint)
}

// Allocator is an explicit, non-singleton handle for embedders who want more
// than one independently managed allocator instance.
type Allocator struct {
	core *allocator.Allocator
}

// New returns an uninitialized Allocator; call Init before using it.
func New() *Allocator {
	return &Allocator{core: allocator.New()}
}

// Init validates and normalizes regions, carves out page descriptor and
// bootstrap zone storage, and prepares the allocator for use. It returns
// false on any configuration error (too many regions, a region smaller than
// one page, or no region large enough to host its own descriptor table).
func (a *Allocator) Init(regions []Region, pageSize uintptr) bool {
	return a.core.Init(regions, pageSize)
}

// InitSingleRegion is a convenience wrapper around Init for the common case
// of one contiguous [start, end) region.
func (a *Allocator) InitSingleRegion(start, end uintptr, pageSize uintptr) bool {
	return a.core.InitSingleRegion(start, end, pageSize)
}

// Clear resets the allocator to its uninitialized state. Any pointers it
// had handed out become invalid.
func (a *Allocator) Clear() {
	a.core.Clear()
}

// Allocate returns a pointer to at least size bytes, or nil if the request
// cannot currently be satisfied.
func (a *Allocator) Allocate(size uintptr) unsafe.Pointer {
	return a.core.Allocate(size)
}

// Release returns ptr, previously obtained from Allocate, to the allocator.
// A nil ptr is tolerated and ignored.
func (a *Allocator) Release(ptr unsafe.Pointer) {
	a.core.Release(ptr)
}

// Stats reports the allocator's current memory breakdown.
func (a *Allocator) Stats() Stats {
	return a.core.Stats()
}

// global is the package-level default instance backing the free functions
// below, for callers happy with a single process-wide allocator.
var global = New()

// Init initializes the package-level default allocator. See Allocator.Init.
func Init(regions []Region, pageSize uintptr) bool {
	return global.Init(regions, pageSize)
}

// InitSingleRegion initializes the package-level default allocator over a
// single contiguous region. See Allocator.InitSingleRegion.
func InitSingleRegion(start, end uintptr, pageSize uintptr) bool {
	return global.InitSingleRegion(start, end, pageSize)
}

// Clear resets the package-level default allocator.
func Clear() {
	global.Clear()
}

// Allocate requests size bytes from the package-level default allocator.
func Allocate(size uintptr) unsafe.Pointer {
	return global.Allocate(size)
}

// Release returns ptr to the package-level default allocator.
func Release(ptr unsafe.Pointer) {
	global.Release(ptr)
}

// GetStats reports the package-level default allocator's current memory
// breakdown.
func GetStats() Stats {
	return global.Stats()
}
