package allocator

// Zone carves a span of one or more contiguous pages into equally sized
// chunks and tracks which ones are free. It is itself a small, fixed-layout
// record — allocated from the zone-descriptor chunk class that the
// ZoneAllocator manages alongside every other class, including its own.
//
// A zone normally spans exactly one page; it spans more than one only when
// its chunk size is larger than the page size the page allocator was
// configured with, so that every zone can host at least one chunk.
type Zone struct {
	next, prev      *Zone
	pageAddr        uintptr
	span            uintptr
	chunkSize       uintptr
	chunksPerZone   uintptr
	freeChunks      *Chunk
	freeChunksCount uintptr
}

func (z *Zone) listNext() *Zone     { return z.next }
func (z *Zone) listPrev() *Zone     { return z.prev }
func (z *Zone) setListNext(n *Zone) { z.next = n }
func (z *Zone) setListPrev(n *Zone) { z.prev = n }

// initZone carves pageAddr (span contiguous bytes) into chunkSize-byte
// chunks and pushes every one of them onto the free list, in
// descending-address order so the resulting list comes out in ascending
// address order — this keeps takeChunk handing out the lowest free address
// first, which makes Zone behavior deterministic and easy to reason about in
// tests.
func initZone(z *Zone, pageAddr, chunkSize, span uintptr) {
	*z = Zone{
		pageAddr:      pageAddr,
		span:          span,
		chunkSize:     chunkSize,
		chunksPerZone: span / chunkSize,
	}

	for i := int(z.chunksPerZone) - 1; i >= 0; i-- {
		c := chunkAt(pageAddr + uintptr(i)*chunkSize)
		*c = Chunk{}
		listAdd(&z.freeChunks, c)
		z.freeChunksCount++
	}
}

// takeChunk removes and returns the address of one free chunk, or 0 if the
// zone is full.
func (z *Zone) takeChunk() uintptr {
	if z.freeChunks == nil {
		return 0
	}

	c := z.freeChunks
	listRemove(&z.freeChunks, c)
	z.freeChunksCount--

	return c.address()
}

// giveChunk returns addr (previously taken from this zone) to its free
// list.
func (z *Zone) giveChunk(addr uintptr) {
	c := chunkAt(addr)
	*c = Chunk{}
	listAdd(&z.freeChunks, c)
	z.freeChunksCount++
}

// isValidChunkAddr reports whether addr names one of this zone's
// chunkSize-aligned slots.
func (z *Zone) isValidChunkAddr(addr uintptr) bool {
	if addr < z.pageAddr || addr >= z.pageAddr+z.span {
		return false
	}

	return (addr-z.pageAddr)%z.chunkSize == 0
}

func (z *Zone) isEmpty() bool { return z.freeChunksCount == z.chunksPerZone }
func (z *Zone) isFull() bool  { return z.freeChunksCount == 0 }
