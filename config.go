package gnrf24

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type DataRate byte

const (
	DataRate1Mbps DataRate = iota
	DataRate2Mbps
	DataRate250Kbps
)

var dataRateNames = [...]string{"1mbps", "2mbps", "250kbps"}

func (r DataRate) String() string {
	if int(r) < len(dataRateNames) {
		return dataRateNames[r]
	}
	return fmt.Sprintf("DataRate(%d)", byte(r))
}

func (r DataRate) rfSetup() byte {
	switch r {
	case DataRate2Mbps:
		return RfDrHigh
	case DataRate250Kbps:
		return RfDrLow
	}
	return 0
}

// ParseDataRate accepts the names printed by DataRate.String.
func ParseDataRate(s string) (DataRate, error) {
	for i, n := range dataRateNames {
		if strings.EqualFold(s, n) {
			return DataRate(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown data rate %q", s)
}

// PALevel is the transmit power. Min is -18dBm, each step adds 6dB up to
// 0dBm at Max.
type PALevel byte

const (
	PAMin PALevel = iota
	PALow
	PAHigh
	PAMax
)

var paLevelNames = [...]string{"min", "low", "high", "max"}

func (p PALevel) String() string {
	if int(p) < len(paLevelNames) {
		return paLevelNames[p]
	}
	return fmt.Sprintf("PALevel(%d)", byte(p))
}

func ParsePALevel(s string) (PALevel, error) {
	for i, n := range paLevelNames {
		if strings.EqualFold(s, n) {
			return PALevel(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown pa level %q", s)
}

type CRC byte

const (
	CRCDisabled CRC = iota
	CRC1Byte
	CRC2Bytes
)

func (c CRC) config() byte {
	switch c {
	case CRC1Byte:
		return ConfigEnCrc
	case CRC2Bytes:
		return ConfigEnCrc | ConfigCrcO
	}
	return 0
}

func (c CRC) String() string {
	switch c {
	case CRCDisabled:
		return "off"
	case CRC1Byte:
		return "1"
	case CRC2Bytes:
		return "2"
	}
	return fmt.Sprintf("CRC(%d)", byte(c))
}

// PayloadSize is the fixed payload length in bytes, or Dynamic.
type PayloadSize byte

const Dynamic PayloadSize = 0

func (p PayloadSize) String() string {
	if p == Dynamic {
		return "dynamic"
	}
	return fmt.Sprintf("%d", byte(p))
}

// RetryPolicy configures hardware auto retransmit. Delay is in steps of
// 250µs starting at 250µs, Count is the number of retransmits. Both are
// 4 bit values.
type RetryPolicy struct {
	Delay uint8
	Count uint8
}

func (r RetryPolicy) clamp() RetryPolicy {
	if r.Delay > 15 {
		r.Delay = 15
	}
	if r.Count > 15 {
		r.Count = 15
	}
	return r
}

func (r RetryPolicy) register() byte {
	r = r.clamp()
	return r.Delay<<4 | r.Count
}

// Config describes the radio setup applied by Dev.Apply. It is a value
// type: the setters return a modified copy.
//
//	cfg := gnrf24.DefaultConfig().
//		Channel(98).
//		PayloadSize(gnrf24.Dynamic).
//		DataRate(gnrf24.DataRate250Kbps)
type Config struct {
	channel   uint8
	addrWidth uint8
	payload   PayloadSize
	dataRate  DataRate
	paLevel   PALevel
	crc       CRC
	autoAck   bool
	retries   RetryPolicy
}

func DefaultConfig() Config {
	return Config{
		channel:   76,
		addrWidth: 5,
		payload:   MaxPayloadSize,
		dataRate:  DataRate1Mbps,
		paLevel:   PAMin,
		crc:       CRC2Bytes,
		autoAck:   true,
		retries:   RetryPolicy{Delay: 5, Count: 15},
	}
}

func (c Config) Channel(ch uint8) Config          { c.channel = ch; return c }
func (c Config) AddrWidth(w uint8) Config         { c.addrWidth = w; return c }
func (c Config) PayloadSize(p PayloadSize) Config { c.payload = p; return c }
func (c Config) DataRate(r DataRate) Config       { c.dataRate = r; return c }
func (c Config) PALevel(p PALevel) Config         { c.paLevel = p; return c }
func (c Config) CRC(s CRC) Config                 { c.crc = s; return c }
func (c Config) AutoAck(on bool) Config           { c.autoAck = on; return c }
func (c Config) Retries(r RetryPolicy) Config     { c.retries = r; return c }
func (c Config) GetChannel() uint8                { return c.channel }
func (c Config) GetAddrWidth() uint8              { return c.addrWidth }
func (c Config) GetPayloadSize() PayloadSize      { return c.payload }
func (c Config) GetDataRate() DataRate            { return c.dataRate }
func (c Config) GetPALevel() PALevel              { return c.paLevel }
func (c Config) GetCRC() CRC                      { return c.crc }
func (c Config) GetAutoAck() bool                 { return c.autoAck }
func (c Config) GetRetries() RetryPolicy          { return c.retries }
func (c Config) Dynamic() bool                    { return c.payload == Dynamic }

func (c Config) Validate() error {
	switch {
	case c.channel > MaxChannel:
		return errors.Wrapf(ErrInvalidConfig, "channel %d out of range 0-%d", c.channel, MaxChannel)
	case c.addrWidth < 3 || c.addrWidth > 5:
		return errors.Wrapf(ErrInvalidConfig, "address width %d out of range 3-5", c.addrWidth)
	case c.payload > MaxPayloadSize:
		return errors.Wrapf(ErrInvalidConfig, "payload size %d exceeds %d", c.payload, MaxPayloadSize)
	case c.dataRate > DataRate250Kbps:
		return errors.Wrapf(ErrInvalidConfig, "data rate %v", c.dataRate)
	case c.paLevel > PAMax:
		return errors.Wrapf(ErrInvalidConfig, "pa level %v", c.paLevel)
	case c.crc > CRC2Bytes:
		return errors.Wrapf(ErrInvalidConfig, "crc %v", c.crc)
	case c.crc == CRCDisabled && c.autoAck:
		// The chip forces EN_CRC while any pipe has auto-ack enabled.
		return errors.Wrap(ErrInvalidConfig, "crc cannot be disabled with auto-ack")
	case c.retries.Delay > 15 || c.retries.Count > 15:
		return errors.Wrapf(ErrInvalidConfig, "retries %d/%d out of range 0-15", c.retries.Delay, c.retries.Count)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("ch=%d aw=%d payload=%v rate=%v pa=%v crc=%v aa=%t retries=%d/%d",
		c.channel, c.addrWidth, c.payload, c.dataRate, c.paLevel, c.crc, c.autoAck,
		c.retries.Delay, c.retries.Count)
}

func (c Config) rfSetup() byte {
	return c.dataRate.rfSetup() | byte(c.paLevel)<<rfPwrPos
}
