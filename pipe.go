package gnrf24

import (
	"strconv"

	"github.com/pkg/errors"
)

// Pipe identifies one of the six RX data pipes.
type Pipe uint8

const (
	Pipe0 Pipe = iota
	Pipe1
	Pipe2
	Pipe3
	Pipe4
	Pipe5
)

func (p Pipe) String() string { return "P" + strconv.Itoa(int(p)) }

func (p Pipe) addrReg() Register { return RegRxAddrP0 + Register(p) }
func (p Pipe) pwReg() Register   { return RegRxPwP0 + Register(p) }
func (p Pipe) mask() byte        { return 1 << p }

type pipeState struct {
	addr []byte
	open bool
}

// OpenReadingPipe starts receiving on pipe p. Pipes 0 and 1 take a full
// width address. Pipes 2 to 5 take only their least significant byte and
// share the upper bytes with pipe 1. Address bytes go on the wire in the
// order given, least significant byte first.
func (d *Dev) OpenReadingPipe(p Pipe, addr []byte) error {
	if p > Pipe5 {
		return commError("open reading pipe", errors.Errorf("no pipe %d", p))
	}
	want := int(d.cfg.addrWidth)
	if p > Pipe1 {
		want = 1
	}
	if len(addr) != want {
		return commError("open reading pipe", errors.Errorf("%v address is %d bytes, want %d", p, len(addr), want))
	}
	if _, err := d.WriteRegister(p.addrReg(), addr...); err != nil {
		return err
	}
	if !d.cfg.Dynamic() {
		if _, err := d.WriteRegister(p.pwReg(), byte(d.cfg.payload)); err != nil {
			return err
		}
	}
	if err := d.setRxEnabled(d.rxEnabled | p.mask()); err != nil {
		return err
	}
	d.pipes[p] = pipeState{addr: append([]byte(nil), addr...), open: true}
	d.Log.WithField("pipe", p).Debug("nrf24 reading pipe open")
	return nil
}

// ClosePipe stops receiving on pipe p.
func (d *Dev) ClosePipe(p Pipe) error {
	if p > Pipe5 {
		return commError("close pipe", errors.Errorf("no pipe %d", p))
	}
	if err := d.setRxEnabled(d.rxEnabled &^ p.mask()); err != nil {
		return err
	}
	d.pipes[p].open = false
	return nil
}

// OpenWritingPipe sets the transmit address. Pipe 0 is pointed at the same
// address so the auto-ack reply can be received; the pipe 0 reading address,
// if any, comes back on StartListening.
func (d *Dev) OpenWritingPipe(addr []byte) error {
	if len(addr) != int(d.cfg.addrWidth) {
		return commError("open writing pipe", errors.Errorf("address is %d bytes, want %d", len(addr), d.cfg.addrWidth))
	}
	if _, err := d.WriteRegister(RegTxAddr, addr...); err != nil {
		return err
	}
	d.txAddr = append([]byte(nil), addr...)
	if d.state == StateReceive {
		return nil
	}
	return d.armAckPipe()
}

// DataAvailableOnPipe reports the pipe of the payload at the head of the RX
// FIFO. It says nothing about how many payloads are queued: call it until
// ok is false.
func (d *Dev) DataAvailableOnPipe() (p Pipe, ok bool, err error) {
	st, err := d.Status()
	if err != nil {
		return 0, false, err
	}
	p, ok = st.RxPipe()
	return p, ok, nil
}

func (d *Dev) DataAvailable() (bool, error) {
	_, ok, err := d.DataAvailableOnPipe()
	return ok, err
}

// armAckPipe points pipe 0 at the TX address, as needed to receive acks.
func (d *Dev) armAckPipe() error {
	if d.txAddr == nil {
		return nil
	}
	if _, err := d.WriteRegister(RegRxAddrP0, d.txAddr...); err != nil {
		return err
	}
	if !d.cfg.autoAck {
		return nil
	}
	if !d.cfg.Dynamic() {
		if _, err := d.WriteRegister(RegRxPwP0, byte(d.cfg.payload)); err != nil {
			return err
		}
	}
	return d.setRxEnabled(d.rxEnabled | Pipe0.mask())
}

// restorePipe0 undoes armAckPipe before entering receive mode.
func (d *Dev) restorePipe0() error {
	p0 := d.pipes[Pipe0]
	if p0.open {
		_, err := d.WriteRegister(RegRxAddrP0, p0.addr...)
		return err
	}
	if d.rxEnabled&Pipe0.mask() == 0 {
		return nil
	}
	return d.setRxEnabled(d.rxEnabled &^ Pipe0.mask())
}

func (d *Dev) setRxEnabled(mask byte) error {
	if _, err := d.WriteRegister(RegEnRxAddr, mask); err != nil {
		return err
	}
	d.rxEnabled = mask
	return nil
}
