package gnrf24

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// Timings from the nRF24L01+ datasheet.
const (
	powerOnReset  = 5 * time.Millisecond
	tPD2Stby      = 1500 * time.Microsecond
	tStby2A       = 130 * time.Microsecond
	tHCE          = 10 * time.Microsecond
	txTimeout     = 250 * time.Millisecond
	txPollPeriod  = 200 * time.Microsecond
	defaultLogLvl = logrus.WarnLevel
)

type State byte

const (
	StatePowerDown State = iota
	StateStandby
	StateReceive
	StateTransmit
)

func (s State) String() string {
	switch s {
	case StatePowerDown:
		return "power-down"
	case StateStandby:
		return "standby"
	case StateReceive:
		return "receive"
	case StateTransmit:
		return "transmit"
	}
	return "unknown"
}

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Level = defaultLogLvl
	return l
}

// Dev is an nRF24L01+ transceiver. It owns the bus connection and both
// control pins; no other code may talk to the chip while a Dev exists.
// Dev is not safe for concurrent use.
//
// Use New, or fill in SPI and CE (and optionally CSN and Log) and call
// Apply before anything else.
type Dev struct {
	SPI spi.Conn
	CE  gpio.PinOut
	// CSN frames every transaction when set. Leave it nil when the SPI port
	// drives chip select itself.
	CSN gpio.PinOut
	Log logrus.FieldLogger

	cfg       Config
	config    byte
	rxEnabled byte
	state     State
	pipes     [NumPipes]pipeState
	txAddr    []byte
	irq       *IRQ

	sleep        func(time.Duration)
	txTimeout    time.Duration
	txPollPeriod time.Duration
}

// New takes ownership of the bus and pins and applies cfg.
func New(c spi.Conn, ce, csn gpio.PinOut, cfg Config) (*Dev, error) {
	d := newDev(c, ce, csn)
	if err := d.Apply(cfg); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(c spi.Conn, ce, csn gpio.PinOut) *Dev {
	return &Dev{
		SPI:          c,
		CE:           ce,
		CSN:          csn,
		Log:          log,
		sleep:        time.Sleep,
		txTimeout:    txTimeout,
		txPollPeriod: txPollPeriod,
	}
}

func (d *Dev) setDefaults() {
	if d.Log == nil {
		d.Log = log
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.txTimeout == 0 {
		d.txTimeout = txTimeout
	}
	if d.txPollPeriod == 0 {
		d.txPollPeriod = txPollPeriod
	}
}

func (d *Dev) Config() Config { return d.cfg }
func (d *Dev) State() State   { return d.state }

// UseIRQ makes Write wait on q for transmit completion instead of polling
// the status register. Pass nil to go back to polling.
func (d *Dev) UseIRQ(q *IRQ) { d.irq = q }

// Apply resets the chip into standby with cfg. The pipe table is cleared;
// pipes have to be opened again afterwards. Config keeps returning the
// previous value unless Apply succeeds.
func (d *Dev) Apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.setDefaults()
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}
	if d.CSN != nil {
		if err := d.CSN.Out(gpio.High); err != nil {
			return pinError("csn high", err)
		}
	}
	d.sleep(powerOnReset)

	// Reconfigure in power down.
	d.config = cfg.crc.config()
	if _, err := d.WriteRegister(RegConfig, d.config); err != nil {
		return err
	}
	d.setState(StatePowerDown)
	if _, err := d.WriteRegister(RegSetupRetr, cfg.retries.register()); err != nil {
		return err
	}
	if _, err := d.WriteRegister(RegRfSetup, cfg.rfSetup()); err != nil {
		return err
	}
	if _, err := d.WriteRegister(RegSetupAW, cfg.addrWidth-2); err != nil {
		return err
	}
	var aa byte
	if cfg.autoAck {
		aa = allPipes
	}
	if _, err := d.WriteRegister(RegEnAA, aa); err != nil {
		return err
	}
	d.pipes = [NumPipes]pipeState{}
	d.txAddr = nil
	if err := d.setRxEnabled(0); err != nil {
		return err
	}
	var feature, dynpd byte
	if cfg.Dynamic() {
		feature, dynpd = FeatureEnDpl, allPipes
	}
	if _, err := d.WriteRegister(RegFeature, feature); err != nil {
		return err
	}
	if _, err := d.WriteRegister(RegDynPD, dynpd); err != nil {
		return err
	}
	if _, err := d.WriteRegister(RegRfCh, cfg.channel); err != nil {
		return err
	}
	if _, err := d.WriteRegister(RegStatus, byte(StatusIRQ)); err != nil {
		return err
	}
	if err := d.FlushRx(); err != nil {
		return err
	}
	if err := d.FlushTx(); err != nil {
		return err
	}
	if err := d.PowerUp(); err != nil {
		return err
	}

	ch, _, err := d.ReadRegister(RegRfCh)
	if err != nil {
		return err
	}
	if ch != cfg.channel {
		return commError("apply", errors.Errorf("channel read back %d, wrote %d", ch, cfg.channel))
	}
	d.cfg = cfg
	d.Log.WithField("config", cfg.String()).Debug("nrf24 configured")
	return nil
}

// IsConnected writes the configured channel and reports whether it reads
// back unchanged.
func (d *Dev) IsConnected() (bool, error) {
	if _, err := d.WriteRegister(RegRfCh, d.cfg.channel); err != nil {
		return false, err
	}
	ch, _, err := d.ReadRegister(RegRfCh)
	if err != nil {
		return false, err
	}
	return ch == d.cfg.channel, nil
}

// SetRetries sets the auto retransmit delay (in 250µs steps) and count.
// Values above 15 are clamped.
func (d *Dev) SetRetries(delay, count uint8) error {
	r := RetryPolicy{Delay: delay, Count: count}.clamp()
	if _, err := d.WriteRegister(RegSetupRetr, r.register()); err != nil {
		return err
	}
	d.cfg.retries = r
	return nil
}

func (d *Dev) PowerUp() error {
	if d.config&ConfigPwrUp != 0 {
		return nil
	}
	d.config |= ConfigPwrUp
	if _, err := d.WriteRegister(RegConfig, d.config); err != nil {
		return err
	}
	d.sleep(tPD2Stby)
	d.setState(StateStandby)
	return nil
}

func (d *Dev) PowerDown() error {
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}
	d.config &^= ConfigPwrUp
	if _, err := d.WriteRegister(RegConfig, d.config); err != nil {
		return err
	}
	d.setState(StatePowerDown)
	return nil
}

func (d *Dev) StartListening() error {
	if err := d.PowerUp(); err != nil {
		return err
	}
	d.config |= ConfigPrimRx
	if _, err := d.WriteRegister(RegConfig, d.config); err != nil {
		return err
	}
	if err := d.restorePipe0(); err != nil {
		return err
	}
	if err := d.FlushRx(); err != nil {
		return err
	}
	if err := d.setCE(gpio.High); err != nil {
		return err
	}
	d.sleep(tStby2A)
	d.setState(StateReceive)
	return nil
}

func (d *Dev) StopListening() error {
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}
	d.config &^= ConfigPrimRx
	if _, err := d.WriteRegister(RegConfig, d.config); err != nil {
		return err
	}
	if err := d.armAckPipe(); err != nil {
		return err
	}
	d.setState(StateStandby)
	return nil
}

// Write sends payload to the address set by OpenWritingPipe and blocks
// until the chip reports it sent or gave up retrying. In fixed payload mode
// the payload is zero padded to the configured size.
func (d *Dev) Write(payload []byte) error {
	size, limit := len(payload), MaxPayloadSize
	if !d.cfg.Dynamic() {
		size, limit = int(d.cfg.payload), int(d.cfg.payload)
	}
	if len(payload) > limit {
		return commError("write", errors.Errorf("payload of %d bytes exceeds %d", len(payload), limit))
	}
	if err := d.PowerUp(); err != nil {
		return err
	}
	if d.state == StateReceive {
		if err := d.StopListening(); err != nil {
			return err
		}
	} else if err := d.setCE(gpio.Low); err != nil {
		return err
	}

	buf := make([]byte, size)
	copy(buf, payload)
	if _, _, err := d.Command(CmdWriteTxPayld, buf); err != nil {
		return err
	}
	d.setState(StateTransmit)
	if err := d.setCE(gpio.High); err != nil {
		return err
	}
	d.sleep(tHCE)
	if err := d.setCE(gpio.Low); err != nil {
		return err
	}

	st, err := d.waitTx()
	d.setState(StateStandby)
	if err != nil {
		return err
	}
	if st.MaxRetries() {
		// A payload left in the TX FIFO would be resent ahead of every
		// later one.
		if err := d.FlushTx(); err != nil {
			return err
		}
	}
	if _, err := d.WriteRegister(RegStatus, byte(StatusTxDs|StatusMaxRt)); err != nil {
		return err
	}
	if st.MaxRetries() {
		d.Log.WithField("retries", d.cfg.retries.Count).Warn("nrf24 no ack, tx fifo flushed")
		return &TransferError{Kind: ErrMaxRetries, Op: "write"}
	}
	return nil
}

func (d *Dev) waitTx() (Status, error) {
	deadline := time.Now().Add(d.txTimeout)
	for {
		st, err := d.Status()
		if err != nil {
			return st, err
		}
		if st.DataSent() || st.MaxRetries() {
			return st, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return st, commError("write", errors.Errorf("no tx completion after %v", d.txTimeout))
		}
		if d.irq != nil {
			d.irq.Wait(remaining)
		} else {
			d.sleep(d.txPollPeriod)
		}
	}
}

// Read pops the payload at the head of the RX FIFO into buf and returns its
// length. If buf is shorter than the payload the rest is dropped and the
// error wraps io.ErrShortBuffer.
func (d *Dev) Read(buf []byte) (int, error) {
	n := int(d.cfg.payload)
	if d.cfg.Dynamic() {
		_, w, err := d.Command(CmdReadRxPldWid, []byte{0})
		if err != nil {
			return 0, err
		}
		n = int(w[0])
		if n > MaxPayloadSize {
			// Corrupt width; the datasheet says to flush.
			d.Log.WithField("width", n).Warn("nrf24 invalid payload width, rx fifo flushed")
			if err := d.FlushRx(); err != nil {
				return 0, err
			}
			return 0, commError("read", errors.Errorf("payload width %d exceeds %d", n, MaxPayloadSize))
		}
	}
	_, data, err := d.Command(CmdReadRxPayload, make([]byte, n))
	if err != nil {
		return 0, err
	}
	if c := copy(buf, data); c < n {
		return c, commError("read", io.ErrShortBuffer)
	}
	return n, nil
}

// ResetStatus clears RX_DR, TX_DS and MAX_RT, releasing the IRQ line. Call
// it once per interrupt, after every available pipe has been drained.
func (d *Dev) ResetStatus() error {
	_, err := d.WriteRegister(RegStatus, byte(StatusIRQ))
	return err
}

// Status issues a NOP and returns the status byte.
func (d *Dev) Status() (Status, error) {
	st, _, err := d.Command(CmdNop, nil)
	return st, err
}

func (d *Dev) FIFOStatus() (FIFO, error) {
	f, _, err := d.ReadRegister(RegFifoStatus)
	return FIFO(f), err
}

func (d *Dev) FlushRx() error {
	_, _, err := d.Command(CmdFlushRx, nil)
	return err
}

func (d *Dev) FlushTx() error {
	_, _, err := d.Command(CmdFlushTx, nil)
	return err
}

func (d *Dev) ReadRegister(reg Register) (byte, Status, error) {
	b, st, err := d.ReadRegisterBytes(reg, 1)
	if err != nil {
		return 0, st, err
	}
	return b[0], st, nil
}

func (d *Dev) ReadRegisterBytes(reg Register, n int) ([]byte, Status, error) {
	st, b, err := d.Command(CmdReadRegister|Command(byte(reg)&registerMask), make([]byte, n))
	return b, st, err
}

func (d *Dev) WriteRegister(reg Register, bytes ...byte) (Status, error) {
	st, _, err := d.Command(CmdWriteRegister|Command(byte(reg)&registerMask), bytes)
	return st, err
}

// Command runs a single bus transaction: the opcode followed by payload.
// It returns the status byte and the bytes clocked out after it.
func (d *Dev) Command(cmd Command, payload []byte) (Status, []byte, error) {
	w := append([]byte{byte(cmd)}, payload...)
	r := make([]byte, len(w))
	if d.CSN != nil {
		if err := d.CSN.Out(gpio.Low); err != nil {
			return 0, nil, pinError("csn low", err)
		}
	}
	err := d.SPI.Tx(w, r)
	if d.CSN != nil {
		if perr := d.CSN.Out(gpio.High); perr != nil && err == nil {
			return 0, nil, pinError("csn high", perr)
		}
	}
	if err != nil {
		return 0, nil, busError(cmd.String(), err)
	}
	return Status(r[0]), r[1:], nil
}

func (d *Dev) setCE(l gpio.Level) error {
	if err := d.CE.Out(l); err != nil {
		return pinError("ce "+l.String(), err)
	}
	return nil
}

func (d *Dev) setState(s State) {
	if d.state != s {
		d.Log.WithFields(logrus.Fields{"from": d.state, "to": s}).Debug("nrf24 state")
		d.state = s
	}
}
