package kernel

// tick.go is the periodic tick service (§4.10): the port calls Tick once
// per system tick (e.g. from a timer ISR), which advances the
// free-running counter, expires any timed-out waiters, and rotates
// round-robin ready lists.

// Tick advances the kernel by one system tick. It is normally called from
// interrupt context; InISR is not required, but the critical section is
// always taken internally since a port may also drive this from a task.
func (k *Kernel) Tick() {
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)

	k.tickCount++
	if k.tickCount == 0 {
		k.logger.Debugf("kernel: tick counter rolled over")
	}
	k.expireTimeouts()
	k.rotateRoundRobin()
}

// expireTimeouts walks the global timeout list once, decrementing every
// waiter's remaining ticks and completing the wait with Timeout for any
// that reach zero. forEachSafe pre-fetches next so completeWait's
// removeEntry on the current node doesn't corrupt the walk.
func (k *Kernel) expireTimeouts() {
	k.timerList.forEachSafe(func(n *node) bool {
		t := taskOf(n)
		if t.remainingTicks == 0 || t.remainingTicks == Infinite {
			return true
		}
		t.remainingTicks--
		if t.remainingTicks == 0 {
			k.completeWait(t, ErrTimeout)
		}
		return true
	})
}
