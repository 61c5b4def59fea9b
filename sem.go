package kernel

// sem.go is the counting semaphore (§4.8), grounded on tn_sem.c: a count
// bounded by maxCount, and a FIFO wait list for tasks blocked on Acquire
// when the count is zero.

// Semaphore is a counting semaphore with a fixed capacity, created
// against a specific Kernel.
type Semaphore struct {
	kernel *Kernel

	count    int
	maxCount int

	waitList list
	deleted  bool
}

// NewSemaphore creates a semaphore with the given initial count and
// capacity. WrongParam if maxCount <= 0 or start is outside [0, maxCount].
func (k *Kernel) NewSemaphore(start, maxCount int) (*Semaphore, Result) {
	if k.cfg.CheckParam && (maxCount <= 0 || start < 0 || start > maxCount) {
		return nil, WrongParam
	}
	s := &Semaphore{kernel: k, count: start, maxCount: maxCount}
	s.waitList.reset()
	return s, OK
}

// Signal releases one unit: it hands off directly to the longest-waiting
// Acquire if one exists, otherwise increments the count, Overflow if
// already at maxCount. Callable from task context only; use SignalISR
// from an interrupt handler.
func (s *Semaphore) Signal() Result {
	k := s.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	return s.signal()
}

// SignalISR is Signal's ISR-callable counterpart: same effect, refuses
// to run outside interrupt context instead.
func (s *Semaphore) SignalISR() Result {
	k := s.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	if rc := k.requireISRContext(); rc != OK {
		return rc
	}
	return s.signal()
}

func (s *Semaphore) signal() Result {
	if s.deleted {
		return InvalidObject
	}
	k := s.kernel
	if !s.waitList.empty() {
		t := taskOf(s.waitList.first())
		k.completeWait(t, OK)
		return OK
	}
	if s.count >= s.maxCount {
		return Overflow
	}
	s.count++
	return OK
}

// tryAcquire takes one unit if available without blocking. Shared by
// Acquire's immediate-success/polling paths and AcquireISR.
func (s *Semaphore) tryAcquire() Result {
	if s.deleted {
		return InvalidObject
	}
	if s.count >= 1 {
		s.count--
		return OK
	}
	return Timeout
}

// Acquire takes one unit, waiting up to timeout ticks if the count is
// currently zero. timeout == 0 polls: it returns Timeout immediately
// instead of blocking, rather than being a WrongParam like Sleep's zero
// timeout -- every wait call but Sleep treats 0 as "poll once". Callable
// from task context only; an ISR must use the non-parking AcquireISR.
func (s *Semaphore) Acquire(timeout TickCount) Result {
	k := s.kernel
	prior := k.arch.DisableSave()

	if rc := k.requireTaskContext(); rc != OK {
		k.arch.Restore(prior)
		return rc
	}
	if rc := s.tryAcquire(); rc != Timeout {
		k.arch.Restore(prior)
		return rc
	}
	if timeout == 0 {
		k.arch.Restore(prior)
		return Timeout
	}

	t := k.current
	k.beginWait(t, &s.waitList, WaitSemaphore, timeout)
	k.arch.Restore(prior)
	return t.waitReturnCode
}

// AcquireISR is the non-parking variant callable only from interrupt
// context: it never waits, returning Timeout immediately if the count
// is zero instead of blocking an ISR that has no task to suspend.
func (s *Semaphore) AcquireISR() Result {
	k := s.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	if rc := k.requireISRContext(); rc != OK {
		return rc
	}
	return s.tryAcquire()
}

// Delete wakes every waiter with Deleted and marks the semaphore unusable
// for any further operation.
func (s *Semaphore) Delete() Result {
	k := s.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if s.deleted {
		return InvalidObject
	}
	k.notifyDeleted(&s.waitList)
	s.deleted = true
	return OK
}

// Count reports the current available count (0 if tasks are waiting).
func (s *Semaphore) Count() int {
	k := s.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	return s.count
}
