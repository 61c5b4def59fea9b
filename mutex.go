package kernel

// mutex.go is the mutex (§4.6), grounded on tn_mutex.c: supports both the
// priority-inheritance protocol (a waiter's priority is donated to the
// holder, transitively across however many mutexes the holder is in turn
// blocked on) and the priority-ceiling protocol (the holder is bumped to
// a fixed ceiling the instant it locks, and any task whose base priority
// already outranks that ceiling is refused the lock outright). Recursive
// locking by the holder just bumps a counter.

// MutexAttr selects which protocol a Mutex enforces.
type MutexAttr uint8

const (
	MutexInherit MutexAttr = iota
	MutexCeiling
)

// Mutex is a lock, held by at most one task at a time.
type Mutex struct {
	kernel *Kernel

	attr         MutexAttr
	ceilPriority Priority

	holder   *Task
	lockCnt  int
	waitList list
	ownerNode *node // links this mutex into holder.ownedMutexes

	deleted bool
}

// NewMutex creates a mutex. For MutexCeiling, ceiling must be in
// [1, NumPriorities-2] (reserving 0 and the idle priority); ignored for
// MutexInherit.
func (k *Kernel) NewMutex(attr MutexAttr, ceiling Priority) (*Mutex, Result) {
	if k.cfg.CheckParam && attr == MutexCeiling && (ceiling < 1 || int(ceiling) > NumPriorities-2) {
		return nil, WrongParam
	}
	m := &Mutex{kernel: k, attr: attr, ceilPriority: ceiling}
	m.waitList.reset()
	m.ownerNode = &node{owner: m}
	return m, OK
}

// Lock acquires the mutex, waiting up to timeout ticks if it is already
// held by another task (0 polls). Locking a mutex the caller already
// holds just increments its recursive-lock count, unless the kernel was
// configured MutexNonRecursive, in which case a second Lock by the
// holder is IllegalUse instead. Callable from task context only; a
// mutex has no ISR variant.
func (m *Mutex) Lock(timeout TickCount) Result {
	k := m.kernel
	prior := k.arch.DisableSave()

	if rc := k.requireTaskContext(); rc != OK {
		k.arch.Restore(prior)
		return rc
	}
	if m.deleted {
		k.arch.Restore(prior)
		return InvalidObject
	}

	t := k.current

	if t == m.holder {
		if k.cfg.MutexNonRecursive {
			k.arch.Restore(prior)
			return IllegalUse
		}
		m.lockCnt++
		k.arch.Restore(prior)
		return OK
	}

	if m.attr == MutexCeiling && t.basePriority < m.ceilPriority {
		k.arch.Restore(prior)
		return IllegalUse
	}

	if m.holder == nil {
		m.doLock(t)
		k.arch.Restore(prior)
		return OK
	}

	if timeout == 0 {
		k.arch.Restore(prior)
		return Timeout
	}

	m.addToWaitQueue(t, timeout)
	k.arch.Restore(prior)
	return t.waitReturnCode
}

// doLock makes t the mutex's holder, links the mutex into t's
// owned-mutex list, and applies the ceiling protocol's immediate boost.
func (m *Mutex) doLock(t *Task) {
	m.holder = t
	m.lockCnt = 1
	t.ownedMutexes.addTail(m.ownerNode)

	if m.attr == MutexCeiling && t.currentPriority > m.ceilPriority {
		m.kernel.changePriority(t, m.ceilPriority)
	}
}

// addToWaitQueue puts the current task into the mutex's wait list. Under
// INHERIT, if the waiter outranks the holder, the holder's priority is
// donated via donatePriority, which chases the donation across however
// many mutexes the blocking chain crosses.
func (m *Mutex) addToWaitQueue(t *Task, timeout TickCount) {
	k := m.kernel
	reason := WaitMutexCeiling
	if m.attr == MutexInherit {
		reason = WaitMutexInherit
		k.donatePriority(m.holder, t.currentPriority)
	}
	t.waitingOnMutex = m
	k.beginWait(t, &m.waitList, reason, timeout)
}

// donatePriority boosts t to priority (never lowers it) and, if t is
// itself blocked waiting to lock another INHERIT mutex, recurses onto
// that mutex's holder -- the transitive half of priority inheritance: a
// single blocking event can ripple through an arbitrarily long chain of
// tasks each waiting on the next one's lock.
func (k *Kernel) donatePriority(t *Task, priority Priority) {
	if priority >= t.currentPriority {
		return
	}
	k.changePriority(t, priority)
	if t.state&Wait != 0 && t.waitReason == WaitMutexInherit && t.waitingOnMutex != nil {
		if holder := t.waitingOnMutex.holder; holder != nil {
			k.donatePriority(holder, priority)
		}
	}
}

// Unlock releases one level of recursive lock; when the count reaches
// zero the mutex is actually released, its holder's priority is restored
// to whatever the rest of its still-held mutexes require, and the
// longest-waiting blocked task (if any) becomes the new holder.
func (m *Mutex) Unlock() Result {
	k := m.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if m.deleted {
		return InvalidObject
	}
	if k.current != m.holder {
		return IllegalUse
	}

	m.lockCnt--
	if m.lockCnt > 0 {
		return OK
	}

	k.doUnlockMutex(m)
	return OK
}

// doUnlockMutex implements do_unlock_mutex: unlink the mutex from the
// holder's owned list, recompute the holder's priority from whatever
// mutexes (and their waiters) it still holds, then hand the mutex to the
// next waiter, if any.
func (k *Kernel) doUnlockMutex(m *Mutex) {
	holder := m.holder
	removeEntry(m.ownerNode)

	restored := holder.basePriority
	holder.ownedMutexes.forEach(func(n *node) bool {
		other := mutexOf(n)
		switch other.attr {
		case MutexCeiling:
			if other.ceilPriority < restored {
				restored = other.ceilPriority
			}
		case MutexInherit:
			restored = other.findMaxBlockedPriority(restored)
		}
		return true
	})
	if restored != holder.currentPriority {
		k.changePriority(holder, restored)
	}

	if m.waitList.empty() {
		m.holder = nil
		return
	}

	next := taskOf(m.waitList.first())
	m.holder = next
	if m.attr == MutexCeiling && next.currentPriority > m.ceilPriority {
		next.currentPriority = m.ceilPriority
	}
	k.completeWait(next, OK)
	m.lockCnt = 1
	next.ownedMutexes.addTail(m.ownerNode)
}

// findMaxBlockedPriority returns the highest priority (numerically
// lowest) among refPriority and every task waiting on m, used to
// recompute a holder's donated priority across all the INHERIT mutexes
// it still holds.
func (m *Mutex) findMaxBlockedPriority(refPriority Priority) Priority {
	best := refPriority
	m.waitList.forEach(func(n *node) bool {
		if p := taskOf(n).currentPriority; p < best {
			best = p
		}
		return true
	})
	return best
}

// Delete wakes every waiter with Deleted, unlocks the mutex if held, and
// marks it unusable for any further operation.
func (m *Mutex) Delete() Result {
	k := m.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if m.deleted {
		return InvalidObject
	}
	if k.current != m.holder && m.holder != nil {
		return IllegalUse
	}

	k.notifyDeleted(&m.waitList)
	if m.holder != nil {
		m.lockCnt = 0
		k.doUnlockMutex(m)
	}
	m.deleted = true
	return OK
}

// releaseOwnedMutexes unlocks every mutex t still holds, called from
// Exit/Terminate so a dying task never leaves a mutex stuck locked.
func (k *Kernel) releaseOwnedMutexes(t *Task) {
	for !t.ownedMutexes.empty() {
		m := mutexOf(t.ownedMutexes.first())
		m.lockCnt = 0
		k.doUnlockMutex(m)
	}
}
