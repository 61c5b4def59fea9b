package kernel

// Arch is the architecture port the core depends on and never
// implements: the five (plus InISR) primitives a real MCU port supplies
// (interrupt enable/disable, stack layout, and the context-switch pend
// mechanism). The core only ever calls these; it never switches a stack
// itself. goport ships the one reference implementation this module
// provides, built over goroutines instead of silicon, so the core is
// runnable and testable without hardware -- the Go-native analogue of
// the original kernel's per-architecture ports.
type Arch interface {
	// DisableSave enters the critical section from task context, saving
	// whatever "prior enabled" state Restore needs to put back.
	DisableSave() uint32
	// Restore leaves the critical section entered by the matching
	// DisableSave. This is also where a pended context switch actually
	// happens: real hardware performs the register save/restore when
	// interrupts are re-enabled on return from the kernel call, and so
	// does this port.
	Restore(prior uint32)

	// Disable/Enable are the unconditional variants used from contexts
	// that are already known to run with interrupts disabled (ISR
	// entry) or that must leave them unconditionally enabled.
	Disable()
	Enable()

	// InISR reports whether the caller is currently executing in
	// interrupt context, so the core can reject task-only calls made
	// from an ISR and vice versa.
	InISR() bool

	// StackInit (re)initializes t so that activating it begins execution
	// of t.Entry()(t.Arg()). Called when a DORMANT task is activated, and
	// by Exit/Terminate each time a task returns to DORMANT (whether or
	// not a pending activate-count restarts it at once).
	StackInit(t *Task)

	// ContextSwitchPend requests that the next return-to-task context
	// resume k.NextTask() instead of k.CurrentTask().
	ContextSwitchPend()

	// ContextSwitchNowNosave switches immediately without preserving the
	// caller's context; used when a task exits and must never be
	// resumed.
	ContextSwitchNowNosave()

	// StartFirstTask hands control to the scheduler's initial pick and
	// never returns to the caller.
	StartFirstTask()
}
