package kernel

// task.go is the public Task API (§4.2-4.3, §4.10's sleep/wakeup pair):
// creation, the four state-transition calls (suspend/resume,
// activate/exit/terminate/delete), sleep/wakeup/release-from-wait, and
// priority change. Every exported function here is a public API entry
// point: it takes the critical section exactly once and assumes none of
// its callees do so again.

// Activate moves a DORMANT task to RUNNABLE, running Entry(Arg()) from
// the top of its stack. If the task is not DORMANT, this instead bumps
// its saturating activate-request counter (consumed by the next Exit),
// mirroring tn_task_activate's "activate before it finishes exiting"
// accommodation.
func (t *Task) Activate() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}

	if t.state == Dormant {
		k.arch.StackInit(t)
		t.state = Runnable
		k.setRunnable(t)
		k.logger.Debugf("task %q activated", t.Name())
		return OK
	}
	if t.activateCount == 0 {
		t.activateCount = 1
		return OK
	}
	return Overflow
}

// Suspend moves a RUNNABLE task to SUSPEND, or adds SUSPEND to a WAITing
// task's state (WAIT|SUSPEND). A task already SUSPENDed, or DORMANT,
// cannot be suspended again.
func (t *Task) Suspend() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if t.state&Suspend != 0 {
		return Overflow
	}
	if t.state == Dormant {
		return WrongState
	}
	if t.state == Runnable {
		t.state = Suspend
		k.clearRunnable(t)
		return OK
	}
	t.state |= Suspend
	return OK
}

// Resume reverses Suspend: a SUSPENDed task becomes RUNNABLE again, and
// a WAIT|SUSPEND task drops back to plain WAIT.
func (t *Task) Resume() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if t.state&Suspend == 0 {
		return WrongState
	}
	if t.state&Wait == 0 {
		t.state = Runnable
		k.setRunnable(t)
		return OK
	}
	t.state &^= Suspend
	return OK
}

// Sleep puts the calling task to WAIT for up to timeout ticks, or
// forever if timeout is Infinite. timeout == 0 is WrongParam: Sleep is
// the one wait call with no polling variant (§4.3's "sleep is always a
// wait", there is nothing to poll).
//
// If a Wakeup arrived before this call, the pending wakeup is consumed
// instead and Sleep returns immediately without blocking.
func (t *Task) Sleep(timeout TickCount) Result {
	k := t.kernel
	if k.cfg.CheckParam && timeout == 0 {
		return WrongParam
	}
	prior := k.arch.DisableSave()

	if rc := k.requireTaskContext(); rc != OK {
		k.arch.Restore(prior)
		return rc
	}
	if t.wakeupCount > 0 {
		t.wakeupCount = 0
		k.arch.Restore(prior)
		return OK
	}
	k.beginWait(t, nil, WaitSleep, timeout)
	k.arch.Restore(prior)
	return t.waitReturnCode
}

// Wakeup ends a sleeping task's wait early. If the target is not asleep
// (it may be WAITing for something else, RUNNABLE, or DORMANT) the
// wakeup is recorded as a saturating pending request consumed by its
// next Sleep, except against a DORMANT task, which is WrongContext --
// there is nothing to remember a wakeup against once a task has exited.
func (t *Task) Wakeup() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	return t.wakeup()
}

func (t *Task) wakeup() Result {
	k := t.kernel
	if t.state == Dormant {
		return WrongContext
	}
	if t.state&Wait != 0 && t.waitReason == WaitSleep {
		k.completeWait(t, OK)
		return OK
	}
	if t.wakeupCount == 0 {
		t.wakeupCount = 1
		return OK
	}
	return Overflow
}

// ReleaseWait forces a WAITing task out of its wait early with OK,
// regardless of what it is waiting for (§4.3's release-from-wait). It is
// WrongContext against any task not currently WAITing.
func (t *Task) ReleaseWait() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if t.state&Wait == 0 {
		return WrongContext
	}
	k.completeWait(t, OK)
	return OK
}

// ChangePriority sets a task's current priority; its base priority, the
// one it was created with, is left unchanged. Passing 0 resets the task
// to that base priority, mirroring the original's "priority 0 means
// restore base_priority" convention.
func (t *Task) ChangePriority(newPriority Priority) Result {
	k := t.kernel
	if k.cfg.CheckParam && newPriority != 0 && int(newPriority) >= NumPriorities-1 {
		return WrongParam
	}
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if newPriority == 0 {
		newPriority = t.basePriority
	}
	if t.state == Dormant {
		return WrongState
	}
	k.changePriority(t, newPriority)
	return OK
}

// Exit is called by a task from its own Entry function (never on behalf
// of another task) to terminate itself. Every mutex it still holds is
// unlocked first (§4.6's "mutex released on owning task's exit"). If a
// prior Activate left a pending activate-request, the task restarts from
// the top of its stack instead of going DORMANT, mirroring
// tn_task_exit's "activate_count > 0" carve-out.
func (t *Task) Exit() {
	k := t.kernel
	prior := k.arch.DisableSave()

	k.logger.Debugf("task %q exited", t.Name())
	k.releaseOwnedMutexes(t)
	k.clearRunnable(t)
	t.resetToDormant()
	k.arch.StackInit(t)

	if t.activateCount > 0 {
		t.activateCount = 0
		t.state = Runnable
		k.setRunnable(t)
	}

	k.arch.Restore(prior)
	k.arch.ContextSwitchNowNosave()
}

// Terminate forcibly exits a task other than the caller (Exit is the
// self-service equivalent). WrongContext against the current task, and
// against a task that is already DORMANT.
func (t *Task) Terminate() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if t.state == Dormant {
		return WrongContext
	}
	if t == k.current {
		return WrongContext
	}

	switch {
	case t.state&Runnable != 0:
		k.clearRunnable(t)
	case t.state&Wait != 0:
		removeEntry(t.schedNode)
		if t.inTimerList {
			removeEntry(t.timerNode)
			t.inTimerList = false
		}
	}

	k.releaseOwnedMutexes(t)
	t.resetToDormant()
	k.arch.StackInit(t)

	if t.activateCount > 0 {
		t.activateCount = 0
		t.state = Runnable
		k.setRunnable(t)
	}
	return OK
}

// Delete reclaims a DORMANT task's control block. WrongContext against
// anything still running or waiting -- Terminate or Exit it first.
func (t *Task) Delete() Result {
	k := t.kernel
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	if rc := k.requireTaskContext(); rc != OK {
		return rc
	}
	if t.state != Dormant {
		return WrongContext
	}
	t.kernel = nil
	return OK
}

// resetToDormant restores a task to its just-created bookkeeping,
// mirroring _task_set_dormant_state.
func (t *Task) resetToDormant() {
	t.state = Dormant
	t.waitReason = WaitNone
	t.waitList = nil
	t.waitReturnCode = OK
	t.eventWaitPattern = 0
	t.eventWaitMode = EventModeOr
	t.eventActual = 0
	t.queueDataElem = nil
	t.remainingTicks = Infinite
	t.wakeupCount = 0
	t.sliceTicks = 0
	t.currentPriority = t.basePriority
	t.ownedMutexes.reset()
}
