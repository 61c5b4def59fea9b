package kernel

// Intrusive doubly-linked circular list with a sentinel header: the only
// container the kernel core uses, for every ready list, every object's
// wait list, the global timeout list, and a task's owned-mutexes list.
// No entry is ever allocated or freed by the list itself; callers embed
// a node value in the struct they want to link, the way the original C
// kernel embeds a TN_ListItem field and recovers the container via
// pointer arithmetic. Go has no sanctioned pointer-to-container
// arithmetic, so each node instead carries a non-owning `owner`
// back-reference -- a cell with interior mutability, made safe by the
// fact that the critical section is always held while any node's links
// are touched.

type node struct {
	next, prev *node
	owner      any
}

// list is a circular list whose head is a sentinel node (root) that is
// never itself a member's payload; root.next == &root when empty.
type list struct {
	root node
}

func newList() *list {
	l := &list{}
	l.reset()
	return l
}

func (l *list) reset() {
	l.root.next = &l.root
	l.root.prev = &l.root
}

func (l *list) empty() bool {
	return l.root.next == &l.root
}

// addHead inserts n right after the sentinel (n becomes the new first
// element). n must not already be linked anywhere.
func (l *list) addHead(n *node) {
	n.next = l.root.next
	n.prev = &l.root
	n.next.prev = n
	l.root.next = n
}

// addTail inserts n right before the sentinel (n becomes the new last
// element).
func (l *list) addTail(n *node) {
	n.prev = l.root.prev
	n.next = &l.root
	n.prev.next = n
	l.root.prev = n
}

// removeHead unlinks and returns the first element, or nil if empty.
func (l *list) removeHead() *node {
	if l.empty() {
		return nil
	}
	n := l.root.next
	removeEntry(n)
	return n
}

// removeTail unlinks and returns the last element, or nil if empty.
func (l *list) removeTail() *node {
	if l.empty() {
		return nil
	}
	n := l.root.prev
	removeEntry(n)
	return n
}

// first returns the first element without unlinking it, or nil if empty.
func (l *list) first() *node {
	if l.empty() {
		return nil
	}
	return l.root.next
}

// removeEntry unlinks n from whatever list it is currently a member of.
// n's own next/prev are left untouched on purpose: a caller mid-iteration
// may still need them (see forEachSafe).
func removeEntry(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// forEach walks the list head to tail, stopping early if fn returns
// false. It is NOT safe to remove the current entry from inside fn --
// use forEachSafe for that.
func (l *list) forEach(fn func(n *node) bool) {
	for n := l.root.next; n != &l.root; n = n.next {
		if !fn(n) {
			return
		}
	}
}

// forEachSafe walks the list head to tail, pre-fetching the next pointer
// before invoking fn, so fn may call removeEntry on the node it was
// handed. The event group's wait-queue scan relies on exactly this.
func (l *list) forEachSafe(fn func(n *node) bool) {
	n := l.root.next
	for n != &l.root {
		next := n.next
		if !fn(n) {
			return
		}
		n = next
	}
}

// contains reports whether entry is currently linked into l. Used only
// by parameter-checking paths and tests, never on a scheduler hot path.
func (l *list) contains(entry *node) bool {
	found := false
	l.forEach(func(n *node) bool {
		if n == entry {
			found = true
			return false
		}
		return true
	})
	return found
}

func taskOf(n *node) *Task {
	return n.owner.(*Task)
}

func mutexOf(n *node) *Mutex {
	return n.owner.(*Mutex)
}
