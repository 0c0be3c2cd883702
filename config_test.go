package gnrf24

import (
	"testing"

	"github.com/pkg/errors"
)

func TestConfigIsAValue(t *testing.T) {
	base := DefaultConfig()
	changed := base.Channel(98).PayloadSize(Dynamic)
	if base.GetChannel() != 76 || base.Dynamic() {
		t.Fatalf("setter modified the receiver: %v", base)
	}
	if changed.GetChannel() != 98 || !changed.Dynamic() {
		t.Fatalf("setter lost its value: %v", changed)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"max channel", DefaultConfig().Channel(MaxChannel), true},
		{"channel", DefaultConfig().Channel(MaxChannel + 1), false},
		{"aw 2", DefaultConfig().AddrWidth(2), false},
		{"aw 3", DefaultConfig().AddrWidth(3), true},
		{"aw 6", DefaultConfig().AddrWidth(6), false},
		{"payload 32", DefaultConfig().PayloadSize(32), true},
		{"payload 33", DefaultConfig().PayloadSize(33), false},
		{"rate", DefaultConfig().DataRate(DataRate(3)), false},
		{"pa", DefaultConfig().PALevel(PALevel(4)), false},
		{"crc", DefaultConfig().CRC(CRC(3)), false},
		{"no crc with ack", DefaultConfig().CRC(CRCDisabled), false},
		{"no crc no ack", DefaultConfig().CRC(CRCDisabled).AutoAck(false), true},
		{"retries", DefaultConfig().Retries(RetryPolicy{Delay: 16}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	for _, r := range []DataRate{DataRate1Mbps, DataRate2Mbps, DataRate250Kbps} {
		got, err := ParseDataRate(r.String())
		if err != nil || got != r {
			t.Errorf("ParseDataRate(%q) = %v, %v", r.String(), got, err)
		}
	}
	for _, p := range []PALevel{PAMin, PALow, PAHigh, PAMax} {
		got, err := ParsePALevel(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePALevel(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseDataRate("9600baud"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseDataRate(bad) = %v", err)
	}
	if got, _ := ParseDataRate("250KBPS"); got != DataRate250Kbps {
		t.Errorf("ParseDataRate is case sensitive")
	}
}
