package gnrf24

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

type fakePayload struct {
	pipe Pipe
	data []byte
}

// fakeChip simulates the nRF24L01+ register file and FIFOs behind an
// spi.Conn.
type fakeChip struct {
	mu sync.Mutex

	regs   map[Register][]byte
	flags  Status
	rx     []fakePayload
	tx     [][]byte
	ops    []Command
	writes map[Register][][]byte

	// txResult is raised in STATUS txDelay after a payload is written.
	txResult Status
	txDelay  time.Duration
	// width, when non zero, is reported by R_RX_PL_WID instead of the head
	// payload length.
	width byte
	// frozen registers ignore writes.
	frozen  map[Register]bool
	txErr   error
	flushTx int
	flushRx int

	irq    *gpiotest.Pin
	irqLow bool
}

func newFakeChip() *fakeChip {
	f := &fakeChip{
		regs:     map[Register][]byte{},
		writes:   map[Register][][]byte{},
		frozen:   map[Register]bool{},
		txResult: StatusTxDs,
		irq:      &gpiotest.Pin{N: "IRQ", EdgesChan: make(chan gpio.Level, 16)},
	}
	f.regs[RegRfCh] = []byte{0x02}
	f.regs[RegSetupAW] = []byte{0x03}
	return f
}

func (f *fakeChip) String() string      { return "fakeChip" }
func (f *fakeChip) Duplex() conn.Duplex { return conn.Full }

func (f *fakeChip) TxPackets(p []spi.Packet) error {
	for _, pk := range p {
		if err := f.Tx(pk.W, pk.R); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChip) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return f.txErr
	}
	cmd := Command(w[0])
	f.ops = append(f.ops, cmd)
	r[0] = byte(f.status())
	switch {
	case cmd < CmdWriteRegister:
		reg := Register(byte(cmd) & registerMask)
		switch reg {
		case RegStatus:
			r[1] = byte(f.status())
		case RegFifoStatus:
			r[1] = byte(f.fifoStatus())
		default:
			copy(r[1:], f.regs[reg])
		}
	case cmd < CmdReadRxPldWid:
		reg := Register(byte(cmd) & registerMask)
		val := append([]byte(nil), w[1:]...)
		f.writes[reg] = append(f.writes[reg], val)
		switch {
		case reg == RegStatus:
			f.flags &^= Status(val[0]) & StatusIRQ
		case !f.frozen[reg]:
			f.regs[reg] = val
		}
	case cmd == CmdReadRxPldWid:
		switch {
		case f.width != 0:
			r[1] = f.width
		case len(f.rx) > 0:
			r[1] = byte(len(f.rx[0].data))
		}
	case cmd == CmdReadRxPayload:
		if len(f.rx) > 0 {
			copy(r[1:], f.rx[0].data)
			f.rx = f.rx[1:]
		}
	case cmd == CmdWriteTxPayld:
		f.tx = append(f.tx, append([]byte(nil), w[1:]...))
		if f.txDelay == 0 {
			f.flags |= f.txResult
			break
		}
		res := f.txResult
		time.AfterFunc(f.txDelay, func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.flags |= res
			f.updateIRQ()
		})
	case cmd == CmdFlushTx:
		f.flushTx++
	case cmd == CmdFlushRx:
		f.flushRx++
		f.rx = nil
	}
	f.updateIRQ()
	return nil
}

func (f *fakeChip) status() Status {
	pipe := byte(rxFifoEmpty)
	if len(f.rx) > 0 {
		pipe = byte(f.rx[0].pipe)
	}
	return f.flags | Status(pipe<<1)
}

func (f *fakeChip) fifoStatus() FIFO {
	var fs FIFO = FIFOTxEmpty
	switch {
	case len(f.rx) == 0:
		fs |= FIFORxEmpty
	case len(f.rx) >= 3:
		fs |= FIFORxFull
	}
	return fs
}

// updateIRQ drives the active low IRQ line from the pending flags.
func (f *fakeChip) updateIRQ() {
	asserted := f.flags&StatusIRQ != 0
	if asserted && !f.irqLow {
		select {
		case f.irq.EdgesChan <- gpio.Low:
		default:
		}
	}
	f.irqLow = asserted
}

// inject queues a received payload as if it arrived over the air.
func (f *fakeChip) inject(p Pipe, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, fakePayload{pipe: p, data: append([]byte(nil), data...)})
	f.flags |= StatusRxDr
	f.updateIRQ()
}

func (f *fakeChip) reg(r Register) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.regs[r]...)
}

func (f *fakeChip) reg1(r Register) byte {
	if b := f.reg(r); len(b) > 0 {
		return b[0]
	}
	return 0
}

func (f *fakeChip) irqAsserted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.irqLow
}

func (f *fakeChip) pending() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags
}

func (f *fakeChip) opsSince(n int) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.ops[n:]...)
}

func (f *fakeChip) opCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

// recordPin remembers every level written to it and can be made to fail.
type recordPin struct {
	*gpiotest.Pin
	mu     sync.Mutex
	levels []gpio.Level
	err    error
}

func newRecordPin(name string) *recordPin {
	return &recordPin{Pin: &gpiotest.Pin{N: name}}
}

func (p *recordPin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

func (p *recordPin) history() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gpio.Level(nil), p.levels...)
}

type testRig struct {
	dev  *Dev
	chip *fakeChip
	ce   *recordPin
	csn  *recordPin
	hook *test.Hook
}

func newRig(t *testing.T, cfg Config) *testRig {
	t.Helper()
	rig := newBareRig()
	if err := rig.dev.Apply(cfg); err != nil {
		t.Fatalf("Apply(%v): %v", cfg, err)
	}
	return rig
}

func newBareRig() *testRig {
	chip := newFakeChip()
	ce, csn := newRecordPin("CE"), newRecordPin("CSN")
	logger, hook := test.NewNullLogger()
	d := newDev(chip, ce, csn)
	d.Log = logger
	d.sleep = func(time.Duration) {}
	return &testRig{dev: d, chip: chip, ce: ce, csn: csn, hook: hook}
}
