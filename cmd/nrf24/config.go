package main

import (
	"os"
	"time"

	"github.com/flynn/json5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/NV4RE/gnrf24"
)

// fileConfig is the JSON5 file read with -config.
type fileConfig struct {
	SPI  string `json:"spi"`
	Pins struct {
		CE  string `json:"ce"`
		CSN string `json:"csn"`
		IRQ string `json:"irq"`
	} `json:"pins"`
	Radio struct {
		Channel   uint8  `json:"channel"`
		AddrWidth uint8  `json:"addrWidth"`
		Payload   uint8  `json:"payload"` // 0 selects dynamic payloads
		DataRate  string `json:"dataRate"`
		PALevel   string `json:"paLevel"`
		CRC       uint8  `json:"crc"`
		AutoAck   *bool  `json:"autoAck"`
		Retries   *struct {
			Delay uint8 `json:"delay"`
			Count uint8 `json:"count"`
		} `json:"retries"`
	} `json:"radio"`
	Pipes []struct {
		Pipe    uint8  `json:"pipe"`
		Address string `json:"address"`
	} `json:"pipes"`
	TxAddress string `json:"txAddress"`
	Wait      string `json:"wait"`
	Redis     struct {
		Addr    string `json:"addr"`
		DB      int    `json:"db"`
		Channel string `json:"channel"`
	} `json:"redis"`
	Log string `json:"log"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*fileConfig, error) {
	fc := &fileConfig{}
	fc.Radio.Channel = gnrf24.DefaultConfig().GetChannel()
	fc.Radio.AddrWidth = 5
	fc.Radio.Payload = gnrf24.MaxPayloadSize
	fc.Radio.CRC = 2
	fc.Wait = "1s"
	fc.Redis.Channel = "nrf24"
	fc.Log = "info"
	if err := json5.Unmarshal(data, fc); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return fc, nil
}

func (fc *fileConfig) radioConfig() (gnrf24.Config, error) {
	cfg := gnrf24.DefaultConfig().
		Channel(fc.Radio.Channel).
		AddrWidth(fc.Radio.AddrWidth).
		PayloadSize(gnrf24.PayloadSize(fc.Radio.Payload)).
		CRC(gnrf24.CRC(fc.Radio.CRC))
	if fc.Radio.DataRate != "" {
		r, err := gnrf24.ParseDataRate(fc.Radio.DataRate)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.DataRate(r)
	}
	if fc.Radio.PALevel != "" {
		p, err := gnrf24.ParsePALevel(fc.Radio.PALevel)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.PALevel(p)
	}
	if fc.Radio.AutoAck != nil {
		cfg = cfg.AutoAck(*fc.Radio.AutoAck)
	}
	if r := fc.Radio.Retries; r != nil {
		cfg = cfg.Retries(gnrf24.RetryPolicy{Delay: r.Delay, Count: r.Count})
	}
	return cfg, cfg.Validate()
}

func (fc *fileConfig) waitTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(fc.Wait)
	if err != nil {
		return 0, errors.Wrap(err, "wait")
	}
	return d, nil
}

func (fc *fileConfig) logLevel() (logrus.Level, error) {
	return logrus.ParseLevel(fc.Log)
}
