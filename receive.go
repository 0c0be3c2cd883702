package gnrf24

import (
	"context"
	"time"
)

type Message struct {
	Pipe Pipe
	Data []byte
}

// Drain hands every payload in the RX FIFO to fn, then calls ResetStatus
// once. It returns the number of payloads delivered.
func (d *Dev) Drain(fn func(Message) error) (int, error) {
	var n int
	buf := make([]byte, MaxPayloadSize)
	for {
		p, ok, err := d.DataAvailableOnPipe()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		l, err := d.Read(buf)
		if err != nil {
			return n, err
		}
		if err := fn(Message{Pipe: p, Data: append([]byte(nil), buf[:l]...)}); err != nil {
			return n, err
		}
		n++
	}
	return n, d.ResetStatus()
}

// receivePoll replaces a non-positive Receive timeout.
const receivePoll = time.Second

// Receive listens until ctx is done and sends every payload to msg. It
// wakes on irq, or every timeout when irq is nil. The FIFO is drained on
// timeouts as well, which picks up a payload that landed between the last
// drain and its ResetStatus and so raised no new edge. A timeout of zero or
// less means one second.
func (d *Dev) Receive(ctx context.Context, irq *IRQ, timeout time.Duration, msg chan<- Message) error {
	if timeout <= 0 {
		timeout = receivePoll
	}
	if err := d.ResetStatus(); err != nil {
		return err
	}
	if err := d.StartListening(); err != nil {
		return err
	}
	defer d.StopListening()

	send := func(m Message) error {
		select {
		case msg <- m:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if irq != nil {
			irq.WaitContext(ctx, timeout)
		} else {
			t := time.NewTimer(timeout)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
		if _, err := d.Drain(send); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
