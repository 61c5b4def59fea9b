package kernel

// waitcomplete.go is the shared "complete-wait" protocol (§4.4) every
// synchronization object drives through, plus the task-state-machine
// transitions around it. Rather than model the four objects behind a
// common interface, each one (sem.go, queue.go, eventgroup.go, mutex.go)
// just calls these functions directly -- the wait-reason tag is the
// only thing that varies, and it already lives on the Task. All
// functions here assume the caller holds the kernel's critical section.

// beginWait moves the current task from RUNNABLE to WAIT: it leaves its
// ready list, is appended to the object's wait list, and -- unless the
// timeout is Infinite -- is appended to the global timeout list too.
// waitList is nil for a plain Sleep, which has no object to wait on.
func (k *Kernel) beginWait(t *Task, waitList *list, reason WaitReason, timeout TickCount) {
	k.clearRunnable(t)
	t.state |= Wait
	t.waitReason = reason
	t.waitList = waitList
	if waitList != nil {
		waitList.addTail(t.schedNode)
	}

	t.remainingTicks = timeout
	if timeout != Infinite {
		k.timerList.addTail(t.timerNode)
		t.inTimerList = true
	} else {
		t.inTimerList = false
	}
}

// completeWait is the producer side of the hand-off protocol: it pulls t
// out of WAIT (wherever it is waiting), delivers rc, and restores it to
// RUNNABLE unless it is also SUSPENDed. The synchronization objects never
// unlink t from their wait list themselves -- they leave it to this
// function, so it happens atomically with the timer-list and ready-list
// updates. (Task.Terminate, which does not complete the wait, unlinks a
// waiting task directly.)
func (k *Kernel) completeWait(t *Task, rc Result) {
	if t.state&Wait == 0 {
		k.fatal("completeWait called on a task that is not WAITing")
		return
	}

	if t.waitList != nil {
		removeEntry(t.schedNode)
		t.waitList = nil
	}
	t.state &^= Wait

	if t.inTimerList {
		removeEntry(t.timerNode)
		t.inTimerList = false
	}
	t.remainingTicks = 0
	t.waitReturnCode = rc

	if t.state&Suspend == 0 {
		k.setRunnable(t)
	}
}

// notifyDeleted wakes every task on waitList with Deleted, in FIFO order,
// the uniform behavior every object's Delete uses (§4.4's "On deletion").
func (k *Kernel) notifyDeleted(waitList *list) {
	for !waitList.empty() {
		t := taskOf(waitList.first())
		k.completeWait(t, Deleted)
	}
}
