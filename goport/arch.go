// Package goport is the one reference kernel.Arch implementation this
// module ships. Real ports switch a CPU's register set and stack
// pointer; Go gives no sanctioned way to do that, so this port runs each
// task as its own goroutine and performs a "context switch" by parking
// the outgoing goroutine on a channel receive and unparking the
// incoming one with a channel send. It deliberately avoids the
// unexported runtime hooks a lock-free goroutine parker would reach for
// (mcall/goready and friends): a task switch here is a handful of
// ordinary channel operations, not a borrowed piece of the scheduler.
package goport

import (
	"sync"
	"sync/atomic"

	"github.com/tinykernel/tinykernel"
)

// handle is the per-task bookkeeping goport stores in Task.ArchHandle:
// a one-shot "resume" signal the task's goroutine blocks on whenever it
// is not the kernel's current task.
type handle struct {
	resume chan struct{}
}

// Arch is a goport instance. It must be bound to the Kernel it serves
// before StartKernel is called -- kernel.New needs an Arch before a
// Kernel exists, so the two are wired together in two steps:
//
//	arch := goport.New()
//	k := kernel.New(arch, cfg)
//	arch.Bind(k)
type Arch struct {
	mu sync.Mutex

	k             *kernel.Kernel
	pendingSwitch bool

	inISR atomic.Bool
}

// New constructs an unbound Arch. Call Bind with the Kernel it backs
// before starting the kernel.
func New() *Arch {
	return &Arch{}
}

// Bind completes construction by giving the port a handle back to the
// Kernel whose CurrentTask/NextTask it needs to read during Restore.
func (a *Arch) Bind(k *kernel.Kernel) {
	a.k = k
}

// DisableSave acquires the port's critical-section lock. The kernel core
// calls this at most once per public API entry, never re-entrantly, so
// the "prior state" a real port would need to save is not meaningful
// here; the return value exists only to satisfy the interface shape a
// register-based port needs.
func (a *Arch) DisableSave() uint32 {
	a.mu.Lock()
	return 0
}

// Restore releases the lock DisableSave took and, if a switch was
// pended while it was held, performs the handoff: the incoming task's
// goroutine is unparked, and -- unless the outgoing task is exiting via
// ContextSwitchNowNosave -- the outgoing goroutine parks here until some
// future Restore unparks it again.
func (a *Arch) Restore(prior uint32) {
	doSwitch := a.pendingSwitch
	a.pendingSwitch = false

	if !doSwitch {
		a.mu.Unlock()
		return
	}

	cur := a.k.CurrentTask()
	next := a.k.NextTask()
	if next == cur {
		a.mu.Unlock()
		return
	}

	a.k.SetCurrentTask(next)
	nh := a.handleOf(next)
	a.mu.Unlock()

	a.resume(nh)
	if cur != nil {
		a.park(a.handleOf(cur))
	}
}

// Disable is the unconditional variant (ISR entry on real hardware, and
// StartKernel's boot path here); in this port it is equivalent to
// DisableSave without the return value.
func (a *Arch) Disable() { a.mu.Lock() }

// Enable unconditionally releases the critical section, performing a
// pended switch exactly like Restore. Used from contexts that don't
// track the "prior" value Restore normally consumes.
func (a *Arch) Enable() { a.Restore(0) }

func (a *Arch) InISR() bool { return a.inISR.Load() }

// SimulateISR runs fn with InISR reporting true, for tests and examples
// that want to exercise interrupt-context call paths without real
// hardware interrupts. There is no real ISR in a goroutine-based port,
// so this is purely a bookkeeping flag.
func (a *Arch) SimulateISR(fn func()) {
	a.inISR.Store(true)
	defer a.inISR.Store(false)
	fn()
}

// StackInit (re)initializes t to begin execution of t.Entry()(t.Arg())
// the next time it is resumed. Unlike a real port, this cannot rewind an
// existing goroutine's stack, so it always spawns a fresh one; the
// previous goroutine for this task (if any) has already either exited
// or been abandoned by ContextSwitchNowNosave.
func (a *Arch) StackInit(t *kernel.Task) {
	h := &handle{resume: make(chan struct{})}
	t.SetArchHandle(h)

	go func() {
		<-h.resume
		t.Entry()(t.Arg())
		// A task function is not expected to return, but if it does,
		// treat it the same as an explicit Exit call.
		t.Exit()
	}()
}

// ContextSwitchPend requests that the next Restore/Enable hand control
// to k.NextTask() instead of leaving k.CurrentTask() running.
func (a *Arch) ContextSwitchPend() {
	a.pendingSwitch = true
}

// ContextSwitchNowNosave switches to the scheduler's current pick
// immediately, without parking the calling goroutine for a future
// resume -- used by Task.Exit, whose goroutine must never run again.
func (a *Arch) ContextSwitchNowNosave() {
	a.mu.Lock()
	next := a.k.NextTask()
	a.k.SetCurrentTask(next)
	a.pendingSwitch = false
	nh := a.handleOf(next)
	a.mu.Unlock()

	a.resume(nh)
	<-make(chan struct{}) // park forever; this goroutine is done
}

// StartFirstTask hands control to the scheduler's initial pick and never
// returns, matching a real port's first dispatch off the boot stack.
// StartKernel calls it with the critical section already held (taken by
// Disable); StartFirstTask releases that hold before resuming the task.
func (a *Arch) StartFirstTask() {
	next := a.k.NextTask()
	a.k.SetCurrentTask(next)
	nh := a.handleOf(next)
	a.mu.Unlock()

	a.resume(nh)
	<-make(chan struct{})
}

func (a *Arch) handleOf(t *kernel.Task) *handle {
	h, _ := t.ArchHandle().(*handle)
	if h == nil {
		// idle task or any task never explicitly StackInit'd by the
		// application -- initialize it lazily from here.
		a.StackInit(t)
		h, _ = t.ArchHandle().(*handle)
	}
	return h
}

func (a *Arch) resume(h *handle) {
	h.resume <- struct{}{}
}

func (a *Arch) park(h *handle) {
	<-h.resume
}
