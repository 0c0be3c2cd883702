package gnrf24

import "testing"

func TestStatusRxPipe(t *testing.T) {
	for n := byte(0); n < 8; n++ {
		s := Status(n<<1) | StatusRxDr
		p, ok := s.RxPipe()
		if n < NumPipes {
			if !ok || p != Pipe(n) {
				t.Errorf("RX_P_NO %d: RxPipe() = %v, %t", n, p, ok)
			}
			continue
		}
		if ok {
			t.Errorf("RX_P_NO %d: RxPipe() reported %v", n, p)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{0x0e, "RxDR- TxDS- MaxRT- TxFull- RxPipe:empty"},
		{StatusRxDr | 2<<1, "RxDR+ TxDS- MaxRT- TxFull- RxPipe:2"},
		{StatusTxDs | StatusMaxRt | StatusTxFull | 0x0e, "RxDR- TxDS+ MaxRT+ TxFull+ RxPipe:empty"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%#02x).String() = %q, want %q", byte(tt.s), got, tt.want)
		}
	}
}

func TestFIFOString(t *testing.T) {
	got := (FIFOTxEmpty | FIFORxEmpty).String()
	if want := "TxReuse- TxFull- TxEmpty+ RxFull- RxEmpty+"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestCommandString(t *testing.T) {
	tests := map[Command]string{
		CmdNop:                               "NOP",
		CmdReadRegister | Command(RegStatus): "R_REGISTER(0x07)",
		CmdWriteRegister | Command(RegRfCh):  "W_REGISTER(0x05)",
		CmdFlushRx:                           "FLUSH_RX",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("%#02x: %q, want %q", byte(c), got, want)
		}
	}
}
