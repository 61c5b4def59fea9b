package kernel

// sched.go implements the priority bitmap scheduler: one FIFO ready list
// per priority, a bitmap of which lists are non-empty, and the
// current/next task pointers. All of these functions assume the caller
// already holds the kernel's critical section.

// setRunnable appends t to its priority's ready list, sets its RUNNABLE
// bit, and re-evaluates next. Pends a context switch if t now outranks
// the current pick.
func (k *Kernel) setRunnable(t *Task) {
	t.state |= Runnable
	k.readyLists[t.currentPriority].addTail(t.schedNode)
	k.readyBitmap |= 1 << t.currentPriority

	if k.next == nil || t.currentPriority < k.next.currentPriority {
		k.next = t
		k.arch.ContextSwitchPend()
	}
}

// clearRunnable removes t from its ready list, clears RUNNABLE, and
// recomputes next from the bitmap. Pends a context switch if the pick
// changed away from t.
func (k *Kernel) clearRunnable(t *Task) {
	removeEntry(t.schedNode)
	if k.readyLists[t.currentPriority].empty() {
		k.readyBitmap &^= 1 << t.currentPriority
	}
	t.state &^= Runnable

	p := k.findFirstSet()
	if p == NumPriorities {
		// Can only happen transiently while the idle task itself is
		// being reshuffled; the idle list must never stay empty.
		k.next = nil
		return
	}
	newNext := taskOf(k.readyLists[p].first())
	if newNext != k.next {
		k.next = newNext
		if k.next != k.current {
			k.arch.ContextSwitchPend()
		}
	}
}

// changePriority moves a RUNNABLE task to a new priority's ready list.
// Waiting tasks only have their priority field updated -- their position
// in whatever wait list they occupy is never resorted, since wait lists
// are strictly FIFO by design.
func (k *Kernel) changePriority(t *Task, newPriority Priority) {
	if t.state&Runnable != 0 {
		k.clearRunnable(t)
		t.currentPriority = newPriority
		k.setRunnable(t)
	} else {
		t.currentPriority = newPriority
	}
}

// rotateRoundRobin implements §4.3's per-tick quantum bookkeeping: if the
// current task's priority has a nonzero quantum, advance its slice
// counter and, on expiry, move its ready list's head to the tail (a
// no-op if there's only one task at that priority).
func (k *Kernel) rotateRoundRobin() {
	if k.current == nil || k.current == k.idle {
		return
	}
	p := k.current.currentPriority
	quantum := k.tsliceTicks[p]
	if quantum == 0 {
		return
	}
	k.current.sliceTicks++
	if k.current.sliceTicks < quantum {
		return
	}
	k.current.sliceTicks = 0

	rl := &k.readyLists[p]
	if rl.empty() {
		return
	}
	head := rl.removeHead()
	if head == nil {
		return
	}
	rl.addTail(head)
	newHead := taskOf(rl.first())
	if newHead != k.next {
		k.next = newHead
		k.arch.ContextSwitchPend()
	}
}
