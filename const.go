package gnrf24

import "fmt"

type Register byte
type Command byte

const (
	RegConfig     Register = 0x00
	RegEnAA       Register = 0x01
	RegEnRxAddr   Register = 0x02
	RegSetupAW    Register = 0x03
	RegSetupRetr  Register = 0x04
	RegRfCh       Register = 0x05
	RegRfSetup    Register = 0x06
	RegStatus     Register = 0x07
	RegObserveTx  Register = 0x08
	RegRPD        Register = 0x09
	RegRxAddrP0   Register = 0x0a
	RegRxAddrP1   Register = 0x0b
	RegRxAddrP2   Register = 0x0c
	RegRxAddrP3   Register = 0x0d
	RegRxAddrP4   Register = 0x0e
	RegRxAddrP5   Register = 0x0f
	RegTxAddr     Register = 0x10
	RegRxPwP0     Register = 0x11
	RegRxPwP1     Register = 0x12
	RegRxPwP2     Register = 0x13
	RegRxPwP3     Register = 0x14
	RegRxPwP4     Register = 0x15
	RegRxPwP5     Register = 0x16
	RegFifoStatus Register = 0x17
	RegDynPD      Register = 0x1c
	RegFeature    Register = 0x1d
)

const (
	CmdReadRegister  Command = 0x00
	CmdWriteRegister Command = 0x20
	CmdReadRxPldWid  Command = 0x60
	CmdReadRxPayload Command = 0x61
	CmdWriteTxPayld  Command = 0xa0
	CmdFlushTx       Command = 0xe1
	CmdFlushRx       Command = 0xe2
	CmdNop           Command = 0xff

	registerMask byte = 0x1f
)

// CONFIG register bits.
const (
	ConfigPrimRx    byte = 0x01
	ConfigPwrUp     byte = 0x02
	ConfigCrcO      byte = 0x04
	ConfigEnCrc     byte = 0x08
	ConfigMaskMaxRt byte = 0x10
	ConfigMaskTxDs  byte = 0x20
	ConfigMaskRxDr  byte = 0x40
)

// RF_SETUP register bits.
const (
	RfDrHigh byte = 0x08
	RfDrLow  byte = 0x20
	rfPwrPos      = 1
)

const (
	FeatureEnDynAck byte = 0x01
	FeatureEnAckPay byte = 0x02
	FeatureEnDpl    byte = 0x04
)

const (
	MaxPayloadSize      = 32
	NumPipes            = 6
	MaxChannel          = 125
	allPipes       byte = 0x3f
)

var commandNames = map[Command]string{
	CmdReadRxPldWid:  "R_RX_PL_WID",
	CmdReadRxPayload: "R_RX_PAYLOAD",
	CmdWriteTxPayld:  "W_TX_PAYLOAD",
	CmdFlushTx:       "FLUSH_TX",
	CmdFlushRx:       "FLUSH_RX",
	CmdNop:           "NOP",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	switch byte(c) &^ registerMask {
	case byte(CmdReadRegister):
		return fmt.Sprintf("R_REGISTER(%#04x)", byte(c)&registerMask)
	case byte(CmdWriteRegister):
		return fmt.Sprintf("W_REGISTER(%#04x)", byte(c)&registerMask)
	}
	return fmt.Sprintf("Command(%#04x)", byte(c))
}
