package allocator

import "unsafe"

// minimalAllocSize is the smallest request size the zone allocator ever
// rounds up to, matching the smallest size class below.
const minimalAllocSize = 16

// Chunk is a free-list node written directly into the first bytes of a free
// chunk of zone memory. It only exists while the chunk is free: once handed
// out, those same bytes become the caller's memory and the node is gone
// until the chunk is freed again and re-initialized.
type Chunk struct {
	next, prev *Chunk
}

func (c *Chunk) listNext() *Chunk     { return c.next }
func (c *Chunk) listPrev() *Chunk     { return c.prev }
func (c *Chunk) setListNext(n *Chunk) { c.next = n }
func (c *Chunk) setListPrev(n *Chunk) { c.prev = n }

// chunkAt reinterprets the bytes at addr as a Chunk free-list node.
func chunkAt(addr uintptr) *Chunk {
	return (*Chunk)(unsafe.Pointer(addr))
}

func (c *Chunk) address() uintptr {
	return uintptr(unsafe.Pointer(c))
}
