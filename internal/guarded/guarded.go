// Package guarded wraps the allocator core with an opt-in weighted
// semaphore so callers that do want simple cross-goroutine serialization
// don't have to write their own mutex around every entry point. The core
// itself (internal/allocator) stays lock-free; this package changes nothing
// about its semantics beyond making concurrent use safe.
package guarded

import (
	"context"
	"unsafe"

	"golang.org/x/sync/semaphore"

	"github.com/orizon-lang/orizon-allocator/internal/allocator"
)

// Allocator serializes access to an *allocator.Allocator with a
// single-permit weighted semaphore.
type Allocator struct {
	core *allocator.Allocator
	sem  *semaphore.Weighted
}

// Wrap returns a guarded view of core.
func Wrap(core *allocator.Allocator) *Allocator {
	return &Allocator{core: core, sem: semaphore.NewWeighted(1)}
}

func (g *Allocator) lock()   { _ = g.sem.Acquire(context.Background(), 1) }
func (g *Allocator) unlock() { g.sem.Release(1) }

// Init serializes a call to the wrapped allocator's Init.
func (g *Allocator) Init(regions []allocator.Region, pageSize uintptr) bool {
	g.lock()
	defer g.unlock()

	return g.core.Init(regions, pageSize)
}

// Clear serializes a call to the wrapped allocator's Clear.
func (g *Allocator) Clear() {
	g.lock()
	defer g.unlock()

	g.core.Clear()
}

// Allocate serializes a call to the wrapped allocator's Allocate.
func (g *Allocator) Allocate(size uintptr) unsafe.Pointer {
	g.lock()
	defer g.unlock()

	return g.core.Allocate(size)
}

// Release serializes a call to the wrapped allocator's Release.
func (g *Allocator) Release(ptr unsafe.Pointer) {
	g.lock()
	defer g.unlock()

	g.core.Release(ptr)
}

// Stats serializes a call to the wrapped allocator's Stats.
func (g *Allocator) Stats() allocator.Stats {
	g.lock()
	defer g.unlock()

	return g.core.Stats()
}
