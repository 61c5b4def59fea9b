package goport_test

import (
	"testing"
	"time"

	kernel "github.com/tinykernel/tinykernel"
	"github.com/tinykernel/tinykernel/goport"
)

// newRunningKernel boots a kernel with an idle task plus whatever extra
// tasks the caller activates, on its own dedicated tick goroutine, and
// returns it already running -- StartKernel never returns on this port,
// so it must be launched on its own goroutine.
func newRunningKernel(t *testing.T) (*kernel.Kernel, *goport.Arch) {
	t.Helper()
	arch := goport.New()
	k := kernel.New(arch, kernel.Config{})
	arch.Bind(k)

	idle := k.CreateTask(func(any) {
		for {
			time.Sleep(time.Millisecond)
		}
	}, nil, nil, kernel.IdlePriority)
	k.SetIdleTask(idle)

	go k.StartKernel()
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			k.Tick()
		}
	}()

	return k, arch
}

func TestTaskRunsAndSignalsChannel(t *testing.T) {
	k, _ := newRunningKernel(t)

	done := make(chan struct{})
	task := k.CreateTask(func(any) {
		close(done)
		for {
			time.Sleep(time.Hour)
		}
	}, nil, make([]byte, 4096), 1)
	task.Activate()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task never ran within the deadline")
	}
}

func TestSemaphoreHandoffAcrossRealTasks(t *testing.T) {
	k, _ := newRunningKernel(t)
	sem, rc := k.NewSemaphore(0, 1)
	if rc != kernel.OK {
		t.Fatalf("NewSemaphore() = %v", rc)
	}

	results := make(chan kernel.Result, 1)
	consumer := k.CreateTask(func(any) {
		results <- sem.Acquire(kernel.Infinite)
		for {
			time.Sleep(time.Hour)
		}
	}, nil, make([]byte, 4096), 1)
	consumer.Activate()

	producer := k.CreateTask(func(any) {
		time.Sleep(10 * time.Millisecond)
		sem.Signal()
		for {
			time.Sleep(time.Hour)
		}
	}, nil, make([]byte, 4096), 2)
	producer.Activate()

	select {
	case rc := <-results:
		if rc != kernel.OK {
			t.Fatalf("Acquire() = %v, want OK", rc)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("consumer never woke up within the deadline")
	}
}

func TestSimulateISRRejectsTaskAPIAndAllowsISRVariant(t *testing.T) {
	k, arch := newRunningKernel(t)
	sem, rc := k.NewSemaphore(0, 1)
	if rc != kernel.OK {
		t.Fatalf("NewSemaphore() = %v", rc)
	}

	var acquireRC, signalRC, acquireISRRC kernel.Result
	arch.SimulateISR(func() {
		acquireRC = sem.Acquire(kernel.Infinite)
		signalRC = sem.SignalISR()
		acquireISRRC = sem.AcquireISR()
	})

	if acquireRC != kernel.WrongContext {
		t.Fatalf("Acquire() from a simulated ISR = %v, want WrongContext", acquireRC)
	}
	if signalRC != kernel.OK {
		t.Fatalf("SignalISR() from a simulated ISR = %v, want OK", signalRC)
	}
	if acquireISRRC != kernel.OK {
		t.Fatalf("AcquireISR() after SignalISR = %v, want OK", acquireISRRC)
	}
}
