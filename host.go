package gnrf24

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIMode is the bus mode the chip expects. Clock is 10MHz at most.
const SPIMode = spi.Mode0

const spiClock = 8 * physic.MegaHertz

// Open initializes the host drivers, connects to spiDev and the named pins
// and applies cfg. csn may be empty when the SPI port drives chip select,
// and irq may be empty to poll instead of waiting on the IRQ line. Closing
// the returned IRQ (if any) is up to the caller.
func Open(spiDev, ce, csn, irq string, cfg Config) (*Dev, *IRQ, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, errors.Wrap(err, "host init")
	}
	if _, err := driverreg.Init(); err != nil {
		return nil, nil, errors.Wrap(err, "driver init")
	}

	p, err := spireg.Open(spiDev)
	if err != nil {
		return nil, nil, errors.Wrap(err, "spireg open")
	}
	ok := false
	defer func() {
		if !ok {
			p.Close()
		}
	}()
	c, err := p.Connect(spiClock, SPIMode, 8)
	if err != nil {
		return nil, nil, errors.Wrap(err, "spi connect")
	}

	cePin, err := pinByName(ce)
	if err != nil {
		return nil, nil, err
	}
	var csnPin gpio.PinOut
	if csn != "" {
		if csnPin, err = pinByName(csn); err != nil {
			return nil, nil, err
		}
	}

	d, err := New(c, cePin, csnPin, cfg)
	if err != nil {
		return nil, nil, err
	}
	if irq == "" {
		ok = true
		return d, nil, nil
	}
	irqPin, err := pinByName(irq)
	if err != nil {
		return nil, nil, err
	}
	q, err := NewIRQ(irqPin)
	if err != nil {
		return nil, nil, err
	}
	d.UseIRQ(q)
	ok = true
	return d, q, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("failed to find pin %q", name)
	}
	return p, nil
}
