package gnrf24

import "strconv"

// Status is the STATUS register, clocked out by the chip as the first byte
// of every bus transaction.
type Status byte

const (
	StatusTxFull Status = 0x01
	statusRxPNo  Status = 0x0e
	StatusMaxRt  Status = 0x10
	StatusTxDs   Status = 0x20
	StatusRxDr   Status = 0x40

	// StatusIRQ holds every bit that drives the IRQ line. Writing it to the
	// STATUS register clears all pending interrupts.
	StatusIRQ = StatusRxDr | StatusTxDs | StatusMaxRt

	rxFifoEmpty = 0x07
)

func (s Status) DataReady() bool  { return s&StatusRxDr != 0 }
func (s Status) DataSent() bool   { return s&StatusTxDs != 0 }
func (s Status) MaxRetries() bool { return s&StatusMaxRt != 0 }
func (s Status) TxFull() bool     { return s&StatusTxFull != 0 }

// RxPipe returns the pipe holding the payload at the head of the RX FIFO.
// ok is false when the FIFO is empty.
func (s Status) RxPipe() (p Pipe, ok bool) {
	n := byte(s&statusRxPNo) >> 1
	if n == rxFifoEmpty || n >= NumPipes {
		return 0, false
	}
	return Pipe(n), true
}

func (s Status) String() string {
	str := flags("RxDR+ TxDS+ MaxRT+ TxFull+ RxPipe:", 0x71, byte(s))
	if p, ok := s.RxPipe(); ok {
		return str + strconv.Itoa(int(p))
	}
	return str + "empty"
}

// FIFO is the FIFO_STATUS register.
type FIFO byte

const (
	FIFORxEmpty FIFO = 0x01
	FIFORxFull  FIFO = 0x02
	FIFOTxEmpty FIFO = 0x10
	FIFOTxFull  FIFO = 0x20
	FIFOTxReuse FIFO = 0x40
)

func (f FIFO) String() string {
	return flags("TxReuse+ TxFull+ TxEmpty+ RxFull+ RxEmpty+", 0x73, byte(f))
}

// flags renders the bits of b selected by mask into the '+' placeholders of
// f, most significant bit first.
func flags(f string, mask, b byte) string {
	buf := make([]byte, len(f))
	m := byte(0x80)
	for i := range buf {
		if f[i] != '+' {
			buf[i] = f[i]
			continue
		}
		for mask&m == 0 {
			m >>= 1
		}
		if b&m == 0 {
			buf[i] = '-'
		} else {
			buf[i] = '+'
		}
		m >>= 1
	}
	return string(buf)
}
