// Package board connects a SX126x to a Linux host using the periph.io
// SPI and GPIO registries.
package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ofauchon/lora-drivers/lora/sx126x"
)

// Pins names the host resources wired to the radio.
type Pins struct {
	SPI   string // spireg name, empty selects the first port
	Busy  string
	Reset string // optional
	DIO1  string
	// RXEn and TXEn drive an external antenna switch; both or neither.
	RXEn string
	TXEn string
}

// DefaultPins is a common Raspberry Pi wiring of a SX1262 module.
var DefaultPins = Pins{
	Busy:  "GPIO20",
	Reset: "GPIO18",
	DIO1:  "GPIO16",
}

// Board owns the SPI port and the radio on it.
type Board struct {
	Device *sx126x.Device
	port   spi.PortCloser
}

// Open initialises the host drivers, resolves the pins and creates the
// device. The pin fields of cfg are overwritten.
func Open(p Pins, cfg sx126x.Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(p.SPI)
	if err != nil {
		return nil, err
	}
	if err := applyPins(p, &cfg); err != nil {
		port.Close()
		return nil, err
	}
	dev, err := sx126x.Open(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &Board{Device: dev, port: port}, nil
}

// Close releases the device and the SPI port.
func (b *Board) Close() error {
	b.Device.Close()
	return b.port.Close()
}

func pinByName(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("board: failed to find %s pin %q", role, name)
	}
	return p, nil
}

func applyPins(p Pins, cfg *sx126x.Config) error {
	busy, err := pinByName("BUSY", p.Busy)
	if err != nil {
		return err
	}
	if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return err
	}
	cfg.Busy = busy

	dio1, err := pinByName("DIO1", p.DIO1)
	if err != nil {
		return err
	}
	w, err := sx126x.NewPinWaiter(dio1)
	if err != nil {
		return err
	}
	cfg.DIO1 = w

	if p.Reset != "" {
		rst, err := pinByName("RESET", p.Reset)
		if err != nil {
			return err
		}
		if err := rst.Out(gpio.High); err != nil {
			return err
		}
		cfg.Reset = rst
	}

	switch {
	case p.RXEn == "" && p.TXEn == "":
	case p.RXEn == "" || p.TXEn == "":
		return errors.New("board: RXEn and TXEn must be set together")
	default:
		rx, err := pinByName("RXEN", p.RXEn)
		if err != nil {
			return err
		}
		tx, err := pinByName("TXEN", p.TXEn)
		if err != nil {
			return err
		}
		cfg.RFSwitch = sx126x.PinSwitch{RX: rx, TX: tx}
	}
	return nil
}
