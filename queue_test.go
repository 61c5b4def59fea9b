package kernel

import "testing"

func TestQueueSendReceiveFIFO(t *testing.T) {
	k, _ := newTestKernel(t)
	q, rc := k.NewQueue(2)
	if rc != OK {
		t.Fatalf("NewQueue() = %v, want OK", rc)
	}

	if rc := q.Send("a", 0); rc != OK {
		t.Fatalf("Send(a) = %v, want OK", rc)
	}
	if rc := q.Send("b", 0); rc != OK {
		t.Fatalf("Send(b) = %v, want OK", rc)
	}
	if rc := q.Send("c", 0); rc != Timeout {
		t.Fatalf("Send(c) on a full queue = %v, want Timeout", rc)
	}

	v, rc := q.Receive(0)
	if rc != OK || v != "a" {
		t.Fatalf("Receive() = (%v, %v), want (a, OK)", v, rc)
	}
	v, rc = q.Receive(0)
	if rc != OK || v != "b" {
		t.Fatalf("Receive() = (%v, %v), want (b, OK)", v, rc)
	}
	if _, rc := q.Receive(0); rc != Timeout {
		t.Fatalf("Receive() on an empty queue = %v, want Timeout", rc)
	}
}

func TestQueueReceiveUnblocksWaitingSender(t *testing.T) {
	k, _ := newTestKernel(t)
	q, _ := k.NewQueue(1)
	q.Send("first", 0)

	sender := k.CreateTask(func(any) {}, nil, nil, 5)
	sender.Activate()
	sender.queueDataElem = "second"
	k.beginWait(sender, &q.waitSend, WaitQueueSend, Infinite)

	v, rc := q.Receive(0)
	if rc != OK || v != "first" {
		t.Fatalf("Receive() = (%v, %v), want (first, OK)", v, rc)
	}
	if sender.State()&Wait != 0 {
		t.Fatalf("sender should have been woken once its slot opened up")
	}
	if sender.waitReturnCode != OK {
		t.Fatalf("sender waitReturnCode = %v, want OK", sender.waitReturnCode)
	}

	v, rc = q.Receive(0)
	if rc != OK || v != "second" {
		t.Fatalf("Receive() = (%v, %v), want (second, OK): sender's value should now be queued", v, rc)
	}
}

func TestZeroCapacityQueueHandsOffDirectly(t *testing.T) {
	k, _ := newTestKernel(t)
	q, _ := k.NewQueue(0)

	receiver := k.CreateTask(func(any) {}, nil, nil, 5)
	receiver.Activate()
	k.beginWait(receiver, &q.waitReceive, WaitQueueReceive, Infinite)

	if rc := q.Send("direct", 0); rc != OK {
		t.Fatalf("Send() = %v, want OK", rc)
	}
	if receiver.queueDataElem != "direct" {
		t.Fatalf("receiver did not get the sent value directly")
	}
}

func TestQueueISRVariants(t *testing.T) {
	k, arch := newTestKernel(t)
	q, _ := k.NewQueue(1)

	arch.inISR = true
	if rc := q.SendISR("a"); rc != OK {
		t.Fatalf("SendISR(a) = %v, want OK", rc)
	}
	if rc := q.SendISR("b"); rc != Timeout {
		t.Fatalf("SendISR(b) on a full queue = %v, want Timeout", rc)
	}
	v, rc := q.ReceiveISR()
	if rc != OK || v != "a" {
		t.Fatalf("ReceiveISR() = (%v, %v), want (a, OK)", v, rc)
	}
	if _, rc := q.ReceiveISR(); rc != Timeout {
		t.Fatalf("ReceiveISR() on an empty queue = %v, want Timeout", rc)
	}
	arch.inISR = false

	if rc := q.SendISR("c"); rc != WrongContext {
		t.Fatalf("SendISR() from task context = %v, want WrongContext", rc)
	}
	if _, rc := q.ReceiveISR(); rc != WrongContext {
		t.Fatalf("ReceiveISR() from task context = %v, want WrongContext", rc)
	}
}

func TestQueueTaskAPIFromISRIsWrongContext(t *testing.T) {
	k, arch := newTestKernel(t)
	q, _ := k.NewQueue(1)
	arch.inISR = true

	if rc := q.Send("a", 0); rc != WrongContext {
		t.Fatalf("Send() from ISR context = %v, want WrongContext", rc)
	}
	if _, rc := q.Receive(0); rc != WrongContext {
		t.Fatalf("Receive() from ISR context = %v, want WrongContext", rc)
	}
}

func TestQueueDeleteWakesBothSides(t *testing.T) {
	k, _ := newTestKernel(t)
	q, _ := k.NewQueue(0)

	sender := k.CreateTask(func(any) {}, nil, nil, 5)
	sender.Activate()
	k.beginWait(sender, &q.waitSend, WaitQueueSend, Infinite)

	receiver := k.CreateTask(func(any) {}, nil, nil, 6)
	receiver.Activate()
	k.beginWait(receiver, &q.waitReceive, WaitQueueReceive, Infinite)

	if rc := q.Delete(); rc != OK {
		t.Fatalf("Delete() = %v, want OK", rc)
	}
	if sender.waitReturnCode != Deleted || receiver.waitReturnCode != Deleted {
		t.Fatalf("both waiters should see Deleted")
	}
	if rc := q.Send("x", 0); rc != InvalidObject {
		t.Fatalf("Send() on deleted queue = %v, want InvalidObject", rc)
	}
}
