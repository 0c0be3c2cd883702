package gnrf24

import (
	"context"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgePoll bounds how long the watcher blocks in WaitForEdge, so Close
// returns even on drivers that ignore Halt.
const edgePoll = 100 * time.Millisecond

// IRQ turns the active low IRQ line of the chip into a blocking wait.
//
// A watcher goroutine posts to a single slot channel on every falling edge.
// Edges that arrive while the slot is full are dropped: Wait reports that
// something is pending, not how much. Nothing is lost by this because the
// chip holds IRQ low until the status flags are cleared, so a woken reader
// drains every pipe and then calls Dev.ResetStatus once.
type IRQ struct {
	Pin gpio.PinIn

	ready chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewIRQ configures pin as a pulled up, falling edge input and starts
// watching it.
func NewIRQ(pin gpio.PinIn) (*IRQ, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, pinError("irq in", err)
	}
	q := &IRQ{
		Pin:   pin,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.watch()
	return q, nil
}

func (q *IRQ) watch() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		default:
		}
		if q.Pin.WaitForEdge(edgePoll) {
			q.Notify()
		}
	}
}

// Notify marks an interrupt as pending. It never blocks.
func (q *IRQ) Notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Wait blocks until an interrupt is pending or timeout elapses and reports
// which happened. A negative timeout waits forever.
func (q *IRQ) Wait(timeout time.Duration) bool {
	return q.WaitContext(context.Background(), timeout)
}

// WaitContext is Wait that also gives up, returning false, when ctx is done.
func (q *IRQ) WaitContext(ctx context.Context, timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-q.ready:
		return true
	case <-expired:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close stops the watcher and disables edge detection on the pin.
func (q *IRQ) Close() error {
	var err error
	q.once.Do(func() {
		close(q.done)
		if herr := q.Pin.Halt(); herr != nil {
			err = pinError("irq halt", herr)
		}
		q.wg.Wait()
		if ierr := q.Pin.In(gpio.PullUp, gpio.NoEdge); ierr != nil && err == nil {
			err = pinError("irq in", ierr)
		}
	})
	return err
}
