package sx126x

import (
	"periph.io/x/conn/v3/gpio"
)

// RF switch modes passed to RFSwitch.SetRfSwitchMode
const (
	RFSWITCH_OFF = iota
	RFSWITCH_RX
	RFSWITCH_TX_LP
	RFSWITCH_TX_HP
)

// RFSwitch drives the board antenna switch.
type RFSwitch interface {
	InitRFSwitch() error
	SetRfSwitchMode(mode int) error
}

// PinSwitch is an RF switch with one enable pin per path.
type PinSwitch struct {
	RX gpio.PinOut
	TX gpio.PinOut
}

func (s PinSwitch) InitRFSwitch() error {
	return s.SetRfSwitchMode(RFSWITCH_OFF)
}

func (s PinSwitch) SetRfSwitchMode(mode int) error {
	rx, tx := gpio.Low, gpio.Low
	switch mode {
	case RFSWITCH_RX:
		rx = gpio.High
	case RFSWITCH_TX_LP, RFSWITCH_TX_HP:
		tx = gpio.High
	}
	// Break before make
	if rx == gpio.Low {
		if err := s.RX.Out(rx); err != nil {
			return err
		}
		return s.TX.Out(tx)
	}
	if err := s.TX.Out(tx); err != nil {
		return err
	}
	return s.RX.Out(rx)
}
