package kernel

import "math/bits"

// SysState distinguishes "never started" from "running". Only StartKernel
// consults it, to refuse a second start; task and object API calls made
// before StartKernel are not rejected on that account.
type SysState uint8

const (
	SysNotRun SysState = iota
	SysRunning
)

// Config configures a Kernel at construction. There is no file format or
// environment binding: this is a library, configured by its caller, the
// same way the original's tn_cfg_default.h is a header the integrator
// edits before building.
type Config struct {
	// CheckParam enables parameter validation on every API entry point,
	// mirroring TN_CHECK_PARAM. Disable only once a port is known-good,
	// for the same reason the original makes it compile-time.
	CheckParam bool

	// Logger receives the kernel's log lines: the fatal-error hook and
	// the Debug-level lifecycle events (kernel start, tick-counter
	// rollover, task activation and exit). A nil Logger installs a
	// logger that discards everything.
	Logger Logger

	// FatalHook is invoked (after logging) when an internal invariant is
	// violated. The default panics, standing in for the debugger break
	// the original's TN_FATAL_ERROR performs on real hardware.
	FatalHook func(reason string)

	// MutexNonRecursive mirrors TN_MUTEX_REC's inverse: when set, a task
	// that already holds a mutex and locks it again gets IllegalUse
	// instead of a bumped recursion count. Off by default, matching the
	// original's TN_MUTEX_REC=1 default (recursive locking allowed).
	MutexNonRecursive bool
}

// Logger is the narrow logging surface the kernel needs; klog.New wraps
// zerolog to satisfy it.
type Logger interface {
	Debugf(format string, args ...any)
	Fatalf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...any) {}
func (discardLogger) Fatalf(string, ...any) {}

// Kernel is one instance of the scheduler, tick service and every
// synchronization object created against it. Unlike the original's
// process-wide statics, a Kernel is an ordinary Go value so tests can
// construct as many independent kernels as they like.
type Kernel struct {
	arch   Arch
	cfg    Config
	logger Logger

	state SysState

	readyLists  [NumPriorities]list
	readyBitmap uint32
	tsliceTicks [NumPriorities]TickCount

	current *Task
	next    *Task
	idle    *Task

	timerList list
	tickCount TickCount
}

// New constructs a Kernel bound to the given architecture port. The
// kernel does not start running until StartKernel is called.
func New(arch Arch, cfg Config) *Kernel {
	if cfg.Logger == nil {
		cfg.Logger = discardLogger{}
	}
	if cfg.FatalHook == nil {
		cfg.FatalHook = func(reason string) { panic("kernel: internal invariant violated: " + reason) }
	}
	k := &Kernel{arch: arch, cfg: cfg, logger: cfg.Logger}
	for p := range k.readyLists {
		k.readyLists[p].reset()
	}
	k.timerList.reset()
	return k
}

func (k *Kernel) fatal(reason string) {
	k.logger.Fatalf("kernel invariant violated: %s", reason)
	k.cfg.FatalHook(reason)
}

// requireTaskContext returns WrongContext if called from interrupt
// context, for the task-context API entry points (every Task state
// call except Exit, Mutex.Lock/Unlock, and the parking Semaphore, Queue
// and EventGroup calls) -- calling these from an ISR is the WCONTEXT
// failure mode ("task API in ISR").
func (k *Kernel) requireTaskContext() Result {
	if k.arch.InISR() {
		return WrongContext
	}
	return OK
}

// requireISRContext is requireTaskContext's mirror image, used by the
// *ISR entry points (Semaphore.AcquireISR, Queue.SendISR, ...): calling
// an ISR-only variant from task context is the other half of WCONTEXT
// ("ISR API in task").
func (k *Kernel) requireISRContext() Result {
	if !k.arch.InISR() {
		return WrongContext
	}
	return OK
}

// CurrentTask/NextTask/SetCurrentTask are the scheduler-state accessors
// an Arch implementation (running in a different package) needs in
// order to actually perform a context switch from inside Restore.
func (k *Kernel) CurrentTask() *Task { return k.current }
func (k *Kernel) NextTask() *Task    { return k.next }
func (k *Kernel) SetCurrentTask(t *Task) { k.current = t }

// State reports whether the kernel has been started yet.
func (k *Kernel) State() SysState { return k.state }

// TickCount returns the free-running tick counter.
func (k *Kernel) TickCount() TickCount { return k.tickCount }

// SetTickCount lets the application seed the tick counter (e.g. after
// restoring from a low-power RTC-backed offline tick count).
func (k *Kernel) SetTickCount(v TickCount) { k.tickCount = v }

// SetTimeSlice configures the round-robin quantum for a priority level;
// 0 disables round-robin at that level (the default).
func (k *Kernel) SetTimeSlice(p Priority, ticks TickCount) Result {
	if k.cfg.CheckParam && int(p) >= NumPriorities {
		return WrongParam
	}
	prior := k.arch.DisableSave()
	defer k.arch.Restore(prior)
	k.tsliceTicks[p] = ticks
	return OK
}

// SetIdleTask registers the perpetually-runnable idle task. Must be
// called before StartKernel; the idle task always runs at IdlePriority.
func (k *Kernel) SetIdleTask(t *Task) {
	t.kernel = k
	t.basePriority = IdlePriority
	t.currentPriority = IdlePriority
	k.idle = t
}

// CreateTask allocates a Task bound to this kernel, in DORMANT state.
// Wraps NewTask purely to stamp the back-reference every Task method
// (Activate, Suspend, Sleep, ...) needs to reach its owning Kernel.
func (k *Kernel) CreateTask(entry func(arg any), arg any, stack []byte, priority Priority) *Task {
	t := NewTask(entry, arg, stack, priority)
	t.kernel = k
	return t
}

// StartKernel brings up the scheduler: the idle task becomes runnable,
// the highest-priority runnable task is selected, and control is handed
// to it via Arch.StartFirstTask, which never returns.
func (k *Kernel) StartKernel() Result {
	if k.state != SysNotRun {
		return WrongState
	}
	if k.idle == nil {
		return WrongParam
	}
	k.arch.Disable()
	k.state = SysRunning
	k.setRunnable(k.idle)
	k.current = k.next
	k.logger.Debugf("kernel: started, initial task %q", k.current.Name())
	k.arch.StartFirstTask()
	return OK
}

// findFirstSet returns the highest-priority (numerically lowest) ready
// level, or NumPriorities if the bitmap is empty.
func (k *Kernel) findFirstSet() int {
	if k.readyBitmap == 0 {
		return NumPriorities
	}
	return bits.TrailingZeros32(k.readyBitmap)
}
