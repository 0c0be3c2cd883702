// nrf24 drives an nRF24L01+ on a Linux SPI bus. By default it listens on
// the configured pipes and publishes every payload; with -send it transmits
// instead.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/NV4RE/gnrf24"
)

var (
	configPath = flag.String("config", "nrf24.json5", "path to the JSON5 config file")
	send       = flag.String("send", "", "payload to transmit instead of listening")
	count      = flag.Int("count", 1, "number of times to send the -send payload")
	attempts   = flag.Int("attempts", 10, "write attempts per payload")
)

var log = logrus.New()

func main() {
	flag.Parse()
	log.Formatter = new(logrus.TextFormatter)
	log.Out = os.Stdout
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fc, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	lvl, err := fc.logLevel()
	if err != nil {
		return err
	}
	log.Level = lvl
	cfg, err := fc.radioConfig()
	if err != nil {
		return err
	}

	d, irq, err := gnrf24.Open(fc.SPI, fc.Pins.CE, fc.Pins.CSN, fc.Pins.IRQ, cfg)
	if err != nil {
		return errors.Wrap(err, "open nrf24")
	}
	if irq != nil {
		defer irq.Close()
	}
	d.Log = log
	defer d.PowerDown()

	ok, err := d.IsConnected()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("chip is not connected")
	}
	log.WithField("config", cfg.String()).Info("nrf24 ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *send != "" {
		return transmit(ctx, d, fc)
	}
	return listen(ctx, d, irq, fc)
}

func transmit(ctx context.Context, d *gnrf24.Dev, fc *fileConfig) error {
	if err := d.OpenWritingPipe([]byte(fc.TxAddress)); err != nil {
		return err
	}
	for i := 0; i < *count; i++ {
		if err := writeRetry(ctx, d, []byte(*send), *attempts); err != nil {
			return err
		}
		log.WithField("n", i+1).Info("sent")
	}
	return nil
}

// writeRetry keeps trying while the receiver does not ack, 50ms apart.
func writeRetry(ctx context.Context, d *gnrf24.Dev, payload []byte, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = d.Write(payload); !errors.Is(err, gnrf24.ErrMaxRetries) {
			return err
		}
		log.WithField("attempt", i+1).Debug("no ack")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return err
}

func listen(ctx context.Context, d *gnrf24.Dev, irq *gnrf24.IRQ, fc *fileConfig) error {
	for _, p := range fc.Pipes {
		if err := d.OpenReadingPipe(gnrf24.Pipe(p.Pipe), []byte(p.Address)); err != nil {
			return err
		}
	}
	wait, err := fc.waitTimeout()
	if err != nil {
		return err
	}

	var out sink = logSink{log: log}
	if fc.Redis.Addr != "" {
		rs, err := newRedisSink(ctx, fc.Redis.Addr, fc.Redis.DB, fc.Redis.Channel, log)
		if err != nil {
			return err
		}
		out = rs
	}
	defer out.Close()

	msgs := make(chan gnrf24.Message, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- d.Receive(ctx, irq, wait, msgs)
		close(msgs)
	}()
	for m := range msgs {
		if err := out.Publish(ctx, m); err != nil {
			log.WithError(err).Warn("publish failed")
		}
	}
	return <-errc
}
