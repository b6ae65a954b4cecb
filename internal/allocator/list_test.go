package allocator

import "testing"

func TestListAddRemove(t *testing.T) {
	var a, b, c Page

	var head *Page

	listAdd(&head, &c)
	listAdd(&head, &b)
	listAdd(&head, &a)

	// Most recently added comes first.
	if head != &a || head.listNext() != &b || head.listNext().listNext() != &c {
		t.Fatal("list order after three listAdd calls is not a, b, c")
	}

	listRemove(&head, &b)

	if head != &a || head.listNext() != &c || head.listNext().listNext() != nil {
		t.Fatal("list order after removing the middle element is not a, c")
	}

	listRemove(&head, &a)

	if head != &c || head.listNext() != nil {
		t.Fatal("list order after removing the head is not c")
	}

	listRemove(&head, &c)

	if head != nil {
		t.Fatal("list should be empty after removing its only element")
	}
}
