package kernel

// Priority is a small integer 0..NumPriorities-1, 0 highest.
// NumPriorities-1 is reserved for the idle task.
type Priority uint8

// TickCount is a count of system ticks. Infinite means "no timeout".
type TickCount uint64

// Infinite denotes "wait forever" wherever a TickCount timeout is taken.
const Infinite TickCount = ^TickCount(0)

// NumPriorities is the compile-time priority level count. It must fit
// the ready bitmap word (uint32), matching the original's constraint
// that N never exceeds the bitmap's bit width.
const NumPriorities = 32

// IdlePriority is always the lowest (numerically largest) priority; its
// ready list is never empty once the kernel has started.
const IdlePriority Priority = NumPriorities - 1

// State is a bitmask over a task's lifecycle flags. It is a set, not an
// enum: {Wait, Suspend} is a legal combination, for instance.
type State uint8

const (
	Runnable State = 1 << iota
	Wait
	Suspend
	Dormant
)

func (s State) String() string {
	if s == 0 {
		return "none"
	}
	out := ""
	add := func(name string) {
		if out != "" {
			out += "|"
		}
		out += name
	}
	if s&Runnable != 0 {
		add("RUNNABLE")
	}
	if s&Wait != 0 {
		add("WAIT")
	}
	if s&Suspend != 0 {
		add("SUSPEND")
	}
	if s&Dormant != 0 {
		add("DORMANT")
	}
	return out
}

// WaitReason tags *why* a task is in the Wait state. donatePriority reads
// it to follow a chain of inheritance-mutex waits. completeWait does not
// consult it: a mutex waiter that times out, is released, or sees the
// mutex deleted leaves the priority it donated to the holder in place
// until the holder next unlocks a mutex and its priority is recomputed.
type WaitReason uint8

const (
	WaitNone WaitReason = iota
	WaitSleep
	WaitSemaphore
	WaitEvent
	WaitQueueSend
	WaitQueueReceive
	WaitMutexInherit
	WaitMutexCeiling
)

// EventMode is the wait mode for an event-group wait: all requested bits
// (And) or any one of them (Or).
type EventMode uint8

const (
	EventModeOr EventMode = iota
	EventModeAnd
)

// Task is the kernel's per-task control block. The application holds the
// Task value that NewTask/CreateTask return; the kernel mutates it only
// while holding its critical section.
type Task struct {
	kernel *Kernel

	entry func(arg any)
	arg   any
	stack []byte // application-supplied, used only for the watermark query

	basePriority    Priority
	currentPriority Priority

	state      State
	waitReason WaitReason

	// schedNode links this task into exactly one of: a ready list, or an
	// object's wait list. waitList names which list that is while
	// WAIT is set (nil otherwise), letting ReleaseWait/deletion find and
	// unlink the task without knowing which object it waits on.
	schedNode *node
	waitList  *list

	// timerNode links this task into the kernel's global timeout list
	// whenever WAIT is set and the wait has a finite timeout.
	timerNode      *node
	inTimerList    bool
	remainingTicks TickCount

	waitReturnCode Result

	eventWaitPattern uint32
	eventWaitMode    EventMode
	eventActual      uint32

	queueDataElem any

	ownedMutexes list

	// waitingOnMutex names the mutex this task is blocked trying to lock,
	// consulted only by donatePriority to chase a priority donation
	// across however many mutexes a blocking chain crosses. Stale once
	// the task leaves WAIT, but only ever read while WaitMutexInherit is
	// also true, so staleness is harmless.
	waitingOnMutex *Mutex

	wakeupCount  uint8 // saturating, max 1
	activateCount uint8 // saturating, max 1

	sliceTicks TickCount

	archHandle any
	name       string
}

// NewTask allocates a Task in DORMANT state. entry runs with arg when the
// task is (re)activated; stack models the MCU stack region this task
// would run on and is only consulted by StackUsage.
func NewTask(entry func(arg any), arg any, stack []byte, priority Priority) *Task {
	t := &Task{
		entry:           entry,
		arg:             arg,
		stack:           stack,
		basePriority:    priority,
		currentPriority: priority,
		state:           Dormant,
	}
	t.schedNode = &node{owner: t}
	t.timerNode = &node{owner: t}
	t.ownedMutexes.reset()
	if len(stack) > 0 {
		fillStackPattern(stack)
	}
	return t
}

// SetName attaches a debug label; purely cosmetic, consulted by logging
// and by String().
func (t *Task) SetName(name string) { t.name = name }

func (t *Task) Name() string {
	if t.name != "" {
		return t.name
	}
	return "task"
}

func (t *Task) Priority() Priority        { return t.currentPriority }
func (t *Task) BasePriority() Priority    { return t.basePriority }
func (t *Task) State() State              { return t.state }
func (t *Task) WaitReason() WaitReason    { return t.waitReason }

// ArchHandle/SetArchHandle let the Arch implementation stash its own
// per-task bookkeeping (e.g. goport's goroutine/channel pair) without
// the kernel core needing to know its shape.
func (t *Task) ArchHandle() any        { return t.archHandle }
func (t *Task) SetArchHandle(h any)    { t.archHandle = h }
func (t *Task) Entry() func(arg any)   { return t.entry }
func (t *Task) Arg() any               { return t.arg }

const stackFillPattern = 0xA5

func fillStackPattern(stack []byte) {
	for i := range stack {
		stack[i] = stackFillPattern
	}
}

// StackUsage scans the stack's fill pattern from the end of the slice to
// find the highest-watermark byte touched, mirroring the original
// kernel's _stack_max_usage scan. It returns the number of bytes used out
// of the full stack, and is safe to call at any time (it does not
// require the critical section: nothing else resizes a task's stack).
func (t *Task) StackUsage() int {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i] != stackFillPattern {
			return i + 1
		}
	}
	return 0
}
