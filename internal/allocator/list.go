package allocator

// linkable is implemented by the pointer type of every record that wants to
// participate in the generic intrusive list below (Page, Zone, Chunk). It is
// the Go-generics equivalent of a small mixin base class: each record embeds
// its own next/prev fields and exposes them through these four methods,
// instead of inheriting list plumbing the way a C++ template would provide
// it.
type linkable[T any] interface {
	*T
	listNext() *T
	listPrev() *T
	setListNext(*T)
	setListPrev(*T)
}

// listAdd pushes item to the front of the list headed by *head. item must
// not already be linked into any list.
func listAdd[T any, PT linkable[T]](head **T, item *T) {
	p := PT(item)
	assertf(p.listNext() == nil && p.listPrev() == nil, "listAdd: item already linked")

	if *head != nil {
		PT(*head).setListPrev(item)
	}

	p.setListNext(*head)
	p.setListPrev(nil)
	*head = item
}

// listRemove unlinks item from the list headed by *head. item must currently
// be a member of that list (either the head itself or reachable from it).
func listRemove[T any, PT linkable[T]](head **T, item *T) {
	p := PT(item)

	if prev := p.listPrev(); prev != nil {
		PT(prev).setListNext(p.listNext())
	} else {
		assertf(*head == item, "listRemove: item is not the head and has no prev")
		*head = p.listNext()
	}

	if next := p.listNext(); next != nil {
		PT(next).setListPrev(p.listPrev())
	}

	p.setListNext(nil)
	p.setListPrev(nil)
}
