package sx126x

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPinSwitch(t *testing.T) {
	c := qt.New(t)
	rx := &gpiotest.Pin{N: "RXEN", L: gpio.High}
	tx := &gpiotest.Pin{N: "TXEN", L: gpio.High}
	sw := PinSwitch{RX: rx, TX: tx}

	c.Assert(sw.InitRFSwitch(), qt.IsNil)
	c.Assert(rx.Read(), qt.Equals, gpio.Low)
	c.Assert(tx.Read(), qt.Equals, gpio.Low)

	tests := []struct {
		mode int
		rx   gpio.Level
		tx   gpio.Level
	}{
		{RFSWITCH_RX, gpio.High, gpio.Low},
		{RFSWITCH_TX_LP, gpio.Low, gpio.High},
		{RFSWITCH_TX_HP, gpio.Low, gpio.High},
		{RFSWITCH_OFF, gpio.Low, gpio.Low},
	}
	for _, test := range tests {
		c.Assert(sw.SetRfSwitchMode(test.mode), qt.IsNil)
		c.Assert(rx.Read(), qt.Equals, test.rx, qt.Commentf("mode %d", test.mode))
		c.Assert(tx.Read(), qt.Equals, test.tx, qt.Commentf("mode %d", test.mode))
	}
}
