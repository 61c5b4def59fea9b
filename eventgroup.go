package kernel

// eventgroup.go is the event group (§4.9), grounded on tn_eventgrp.c: a
// 32-bit pattern, modified by Set/Clear/Toggle, waited on by tasks each
// with their own mask and AND/OR mode -- by default any number of them,
// or at most one at a time under EventGroupSingleWaiter. tn_eventgrp.c
// reserves (but never implements) a per-waiter auto-clear mode via its
// unused _clear_pattern_if_needed stub; this module completes that
// feature as the autoClear parameter of Wait and WaitISR rather than
// carrying the stub forward as dead code.

// EventGroupAttr selects the per-group waiter policy (spec.md §3's
// "single-waiter vs multi-waiter" attribute).
type EventGroupAttr uint8

const (
	// EventGroupMultiWaiter allows any number of tasks to wait
	// concurrently, the default.
	EventGroupMultiWaiter EventGroupAttr = iota
	// EventGroupSingleWaiter refuses a second task's begin-wait with
	// IllegalUse while one waiter is already parked on the group.
	EventGroupSingleWaiter
)

// EventGroup holds a 32-bit flag pattern and the tasks waiting on it.
type EventGroup struct {
	kernel *Kernel

	pattern  uint32
	attr     EventGroupAttr
	waitList list
	deleted  bool
}

// NewEventGroup creates an event group with an initial pattern (often 0)
// and waiter attribute.
func (k *Kernel) NewEventGroup(initial uint32, attr EventGroupAttr) *EventGroup {
	e := &EventGroup{kernel: k, pattern: initial, attr: attr}
	e.waitList.reset()
	return e
}

func condCheck(pattern uint32, mode EventMode, want uint32) bool {
	switch mode {
	case EventModeOr:
		return pattern&want != 0
	case EventModeAnd:
		return pattern&want == want
	default:
		return false
	}
}

// scanWaiters wakes every waiter whose condition the current pattern now
// satisfies -- called after Set/Toggle, since Clear can only ever make
// conditions harder to satisfy. A waiter's own AutoClear request is
// applied by Wait itself once it resumes, not here: scanWaiters never
// mutates e.pattern.
func (e *EventGroup) scanWaiters() {
	k := e.kernel
	e.waitList.forEachSafe(func(n *node) bool {
		t := taskOf(n)
		if !condCheck(e.pattern, t.eventWaitMode, t.eventWaitPattern) {
			return true
		}
		t.eventActual = e.pattern
		k.completeWait(t, OK)
		return true
	})
}

// Wait blocks until the pattern satisfies (mode, want), up to timeout
// ticks (0 polls). autoClear, if set, clears the matched bits from the
// group's pattern as a side effect of this wait being satisfied -- only
// this waiter's own bits, never another waiter's. Returns the pattern
// observed at the moment the wait was satisfied. Callable from task
// context only; an ISR must use the non-parking WaitISR.
func (e *EventGroup) Wait(want uint32, mode EventMode, autoClear bool, timeout TickCount) (uint32, Result) {
	k := e.kernel
	if k.cfg.CheckParam && want == 0 {
		return 0, WrongParam
	}
	prior := k.arch.DisableSave()

	if rc := k.requireTaskContext(); rc != OK {
		k.arch.Restore(prior)
		return 0, rc
	}
	if e.deleted {
		k.arch.Restore(prior)
		return 0, InvalidObject
	}

	if actual, rc := e.tryWait(want, mode, autoClear); rc != Timeout {
		k.arch.Restore(prior)
		return actual, rc
	}

	if timeout == 0 {
		k.arch.Restore(prior)
		return 0, Timeout
	}

	if e.attr == EventGroupSingleWaiter && !e.waitList.empty() {
		k.arch.Restore(prior)
		return 0, IllegalUse
	}

	t := k.current
	t.eventWaitPattern = want
	t.eventWaitMode = mode
	k.beginWait(t, &e.waitList, WaitEvent, timeout)
	k.arch.Restore(prior)

	if t.waitReturnCode != OK {
		return 0, t.waitReturnCode
	}
	actual := t.eventActual
	if autoClear {
		prior := k.arch.DisableSave()
		e.pattern &^= want
		k.arch.Restore(prior)
	}
	return actual, OK
}

// tryWait checks (mode, want) against the current pattern without
// blocking, applying autoClear on success. Shared by Wait's
// immediate-success path and WaitISR.
func (e *EventGroup) tryWait(want uint32, mode EventMode, autoClear bool) (uint32, Result) {
	if !condCheck(e.pattern, mode, want) {
		return 0, Timeout
	}
	actual := e.pattern
	if autoClear {
		e.pattern &^= want
	}
	return actual, OK
}

// WaitISR is the non-parking variant callable only from interrupt
// context: it never waits, returning (0, Timeout) immediately if the
// pattern is not already satisfied instead of blocking an ISR that has
// no task to suspend.
func (e *EventGroup) WaitISR(want uint32, mode EventMode, autoClear bool) (uint32, Result) {
	k := e.kernel
	if k.cfg.CheckParam && want == 0 {
		return 0, WrongParam
	}
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireISRContext(); rc != OK {
		return 0, rc
	}
	if e.deleted {
		return 0, InvalidObject
	}
	return e.tryWait(want, mode, autoClear)
}

// Modify applies op (Set, Clear, or Toggle) with pattern to the group's
// bits, re-evaluating every waiter's condition against the new pattern
// whenever the change could newly satisfy one (Set, Toggle; Clear never
// can).
type EventOp uint8

const (
	EventSet EventOp = iota
	EventClear
	EventToggle
)

func (e *EventGroup) Modify(op EventOp, pattern uint32) Result {
	k := e.kernel
	if k.cfg.CheckParam && pattern == 0 {
		return WrongParam
	}
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if e.deleted {
		return InvalidObject
	}

	switch op {
	case EventClear:
		e.pattern &^= pattern
	case EventSet:
		e.pattern |= pattern
		e.scanWaiters()
	case EventToggle:
		e.pattern ^= pattern
		e.scanWaiters()
	default:
		return WrongParam
	}
	return OK
}

// Pattern returns the current flag pattern.
func (e *EventGroup) Pattern() uint32 {
	k := e.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	return e.pattern
}

// Delete wakes every waiter with Deleted and marks the group unusable.
func (e *EventGroup) Delete() Result {
	k := e.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if e.deleted {
		return InvalidObject
	}
	k.notifyDeleted(&e.waitList)
	e.deleted = true
	return OK
}
