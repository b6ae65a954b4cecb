package allocator

import "unsafe"

// maxGroupSize is the largest page-group length representable in the 21-bit
// groupSize field below. Init seeds a region whose free run is longer than
// this as several consecutive groups of at most maxGroupSize pages each.
const maxGroupSize = (1 << 21) - 1

const (
	pageFlagGroupSizeMask = pageFlags(maxGroupSize)
	pageFlagUsed          = pageFlags(1 << 21)
)

// pageFlags packs a page group's length and in-use state into a single
// 32-bit word: bits [0:21) hold groupSize, bit 21 holds used. Packing both
// into one field keeps Page's footprint small relative to the memory it
// describes.
type pageFlags uint32

// Page is the bookkeeping record for one page-sized unit of managed memory.
// Descriptor arrays are carved out of a caller-supplied region and addressed
// by position: the array starts at a page-aligned address and entries are
// pageDescriptorSize apart, a multiple of Page's alignment, so every
// descriptor is naturally aligned.
type Page struct {
	next, prev *Page
	addr       uintptr
	flags      pageFlags
}

func (p *Page) listNext() *Page     { return p.next }
func (p *Page) listPrev() *Page     { return p.prev }
func (p *Page) setListNext(n *Page) { p.next = n }
func (p *Page) setListPrev(n *Page) { p.prev = n }

func (p *Page) address() uintptr { return p.addr }

func (p *Page) groupSize() uintptr {
	return uintptr(p.flags & pageFlagGroupSizeMask)
}

func (p *Page) setGroupSize(n uintptr) {
	assertf(n <= maxGroupSize, "groupSize %d exceeds 21-bit field", n)
	p.flags = (p.flags &^ pageFlagGroupSizeMask) | pageFlags(n)
}

func (p *Page) used() bool { return p.flags&pageFlagUsed != 0 }

func (p *Page) setUsed(used bool) {
	if used {
		p.flags |= pageFlagUsed
	} else {
		p.flags &^= pageFlagUsed
	}
}

var pageDescriptorSize = unsafe.Sizeof(Page{})

// pageOffset returns the descriptor count pages away from p in the
// descriptor array, without any bounds check. Negative count walks
// backward. Callers must validate the result before dereferencing it.
func pageOffset(p *Page, count int) *Page {
	return (*Page)(unsafe.Add(unsafe.Pointer(p), count*int(pageDescriptorSize)))
}

func (p *Page) nextSibling() *Page { return pageOffset(p, 1) }
func (p *Page) prevSibling() *Page { return pageOffset(p, -1) }
