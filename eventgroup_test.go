package kernel

import "testing"

func TestEventGroupWaitAlreadySatisfied(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0b101, EventGroupMultiWaiter)

	actual, rc := e.Wait(0b001, EventModeOr, false, 0)
	if rc != OK || actual != 0b101 {
		t.Fatalf("Wait() = (%v, %v), want (0b101, OK)", actual, rc)
	}
}

func TestEventGroupWaitZeroPatternIsWrongParam(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0, EventGroupMultiWaiter)
	if _, rc := e.Wait(0, EventModeOr, false, 0); rc != WrongParam {
		t.Fatalf("Wait(0, ...) = %v, want WrongParam", rc)
	}
}

func TestEventGroupAndModeRequiresAllBits(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0b011, EventGroupMultiWaiter)
	if _, rc := e.Wait(0b111, EventModeAnd, false, 0); rc != Timeout {
		t.Fatalf("Wait(AND, missing bit) = %v, want Timeout", rc)
	}
	e.Modify(EventSet, 0b100)
	if actual, rc := e.Wait(0b111, EventModeAnd, false, 0); rc != OK || actual != 0b111 {
		t.Fatalf("Wait(AND, satisfied) = (%v, %v), want (0b111, OK)", actual, rc)
	}
}

func TestEventGroupSetWakesMatchingWaiters(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0, EventGroupMultiWaiter)

	orWaiter := k.CreateTask(func(any) {}, nil, nil, 5)
	orWaiter.Activate()
	orWaiter.eventWaitPattern = 0b001
	orWaiter.eventWaitMode = EventModeOr
	k.beginWait(orWaiter, &e.waitList, WaitEvent, Infinite)

	andWaiter := k.CreateTask(func(any) {}, nil, nil, 6)
	andWaiter.Activate()
	andWaiter.eventWaitPattern = 0b011
	andWaiter.eventWaitMode = EventModeAnd
	k.beginWait(andWaiter, &e.waitList, WaitEvent, Infinite)

	e.Modify(EventSet, 0b001)
	if orWaiter.State()&Wait != 0 {
		t.Fatalf("OR waiter should have woken on the first matching bit")
	}
	if andWaiter.State()&Wait == 0 {
		t.Fatalf("AND waiter should still be waiting for its other bit")
	}

	e.Modify(EventSet, 0b010)
	if andWaiter.State()&Wait != 0 {
		t.Fatalf("AND waiter should have woken once both bits were set")
	}
	if andWaiter.eventActual != 0b011 {
		t.Fatalf("eventActual = %v, want 0b011", andWaiter.eventActual)
	}
}

func TestEventGroupAutoClear(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0b001, EventGroupMultiWaiter)

	actual, rc := e.Wait(0b001, EventModeOr, true, 0)
	if rc != OK || actual != 0b001 {
		t.Fatalf("Wait() = (%v, %v), want (0b001, OK)", actual, rc)
	}
	if e.Pattern() != 0 {
		t.Fatalf("Pattern() = %v, want 0 after auto-clear", e.Pattern())
	}
}

func TestEventGroupClearNeverWakesWaiters(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0b111, EventGroupMultiWaiter)

	waiter := k.CreateTask(func(any) {}, nil, nil, 5)
	waiter.Activate()
	waiter.eventWaitPattern = 0b1000
	waiter.eventWaitMode = EventModeOr
	k.beginWait(waiter, &e.waitList, WaitEvent, Infinite)

	e.Modify(EventClear, 0b111)
	if waiter.State()&Wait == 0 {
		t.Fatalf("clearing bits should never satisfy a waiter")
	}
}

func TestEventGroupSingleWaiterRefusesSecondWaiter(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0, EventGroupSingleWaiter)

	first := k.CreateTask(func(any) {}, nil, nil, 5)
	first.Activate()
	k.current = first
	k.beginWait(first, &e.waitList, WaitEvent, Infinite)

	second := k.CreateTask(func(any) {}, nil, nil, 6)
	second.Activate()
	k.current = second
	if _, rc := e.Wait(0b001, EventModeOr, false, 5); rc != IllegalUse {
		t.Fatalf("second waiter's Wait() = %v, want IllegalUse", rc)
	}
}

func TestEventGroupWaitISRRequiresInterruptContext(t *testing.T) {
	k, _ := newTestKernel(t)
	e := k.NewEventGroup(0b001, EventGroupMultiWaiter)

	if _, rc := e.WaitISR(0b001, EventModeOr, false); rc != WrongContext {
		t.Fatalf("WaitISR() from task context = %v, want WrongContext", rc)
	}
}

func TestEventGroupWaitFromISRIsWrongContext(t *testing.T) {
	k, arch := newTestKernel(t)
	e := k.NewEventGroup(0b001, EventGroupMultiWaiter)
	arch.inISR = true

	if _, rc := e.Wait(0b001, EventModeOr, false, 0); rc != WrongContext {
		t.Fatalf("Wait() from ISR context = %v, want WrongContext", rc)
	}
}
