package sx126x

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

// fakeChip emulates the SPI side of a SX126x: registers, data buffer,
// queued IRQ flags and the get-command replies used by the driver.
type fakeChip struct {
	name string

	regs      map[uint16]uint8
	buffer    [256]uint8
	irqs      []IrqMask
	// With latch set the IRQ register is irqReg, DIO1 is high while it is
	// not zero, and each status read raises the next raised entry.
	latch     bool
	irqReg    IrqMask
	raised    []IrqMask
	rxFrame   []uint8
	rxOffset  uint8
	pktStatus [3]uint8
	rssi      uint8

	failOp  uint8
	failErr error

	txs [][]uint8
}

func newFakeChip(name string) *fakeChip {
	return &fakeChip{name: name, regs: map[uint16]uint8{}}
}

func (f *fakeChip) String() string      { return f.name }
func (f *fakeChip) Duplex() conn.Duplex { return conn.Full }

func (f *fakeChip) TxPackets(p []spi.Packet) error {
	for _, pk := range p {
		if err := f.Tx(pk.W, pk.R); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChip) Tx(w, r []byte) error {
	f.txs = append(f.txs, append([]uint8(nil), w...))
	if f.failErr != nil && w[0] == f.failOp {
		return f.failErr
	}
	switch w[0] {
	case SX126X_CMD_READ_REGISTER:
		addr := uint16(w[1])<<8 | uint16(w[2])
		for i := range r[4:] {
			r[4+i] = f.regs[addr+uint16(i)]
		}
	case SX126X_CMD_WRITE_REGISTER:
		addr := uint16(w[1])<<8 | uint16(w[2])
		for i, v := range w[3:] {
			f.regs[addr+uint16(i)] = v
		}
	case SX126X_CMD_WRITE_BUFFER:
		copy(f.buffer[w[1]:], w[2:])
	case SX126X_CMD_READ_BUFFER:
		copy(r[3:], f.buffer[w[1]:])
	case SX126X_CMD_GET_IRQ_STATUS:
		var v IrqMask
		if f.latch {
			v = f.irqReg
			if len(f.raised) > 0 {
				f.irqReg |= f.raised[0]
				f.raised = f.raised[1:]
			}
		} else if len(f.irqs) > 0 {
			v, f.irqs = f.irqs[0], f.irqs[1:]
		}
		r[2], r[3] = uint8(v>>8), uint8(v)
	case SX126X_CMD_CLEAR_IRQ_STATUS:
		f.irqReg &^= IrqMask(w[1])<<8 | IrqMask(w[2])
	case SX126X_CMD_GET_RX_BUFFER_STATUS:
		copy(f.buffer[f.rxOffset:], f.rxFrame)
		r[2], r[3] = uint8(len(f.rxFrame)), f.rxOffset
	case SX126X_CMD_GET_PACKET_STATUS:
		copy(r[2:], f.pktStatus[:])
	case SX126X_CMD_GET_RSSI_INST:
		r[2] = f.rssi
	}
	return nil
}

// ops returns the opcodes sent so far.
func (f *fakeChip) ops() []uint8 {
	var ops []uint8
	for _, t := range f.txs {
		ops = append(ops, t[0])
	}
	return ops
}

// sent returns the transactions starting with op.
func (f *fakeChip) sent(op uint8) [][]uint8 {
	var out [][]uint8
	for _, t := range f.txs {
		if t[0] == op {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeChip) reset() {
	f.txs = nil
}

var errNoMoreIRQ = errors.New("no more interrupts queued")

// fakeDIO1 asserts once per queued IRQ of its chip.
type fakeDIO1 struct {
	chip  *fakeChip
	waits int
	err   error
}

func (w *fakeDIO1) WaitForHigh(ctx context.Context) error {
	w.waits++
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.err != nil {
		return w.err
	}
	if w.chip.latch {
		if w.chip.irqReg == 0 {
			return errNoMoreIRQ
		}
		return nil
	}
	if len(w.chip.irqs) == 0 {
		return errNoMoreIRQ
	}
	return nil
}

// newTestDevice returns a device bound to a fresh fake chip with an idle
// BUSY line.
func newTestDevice(t *testing.T, cfg Config) (*Device, *fakeChip, *fakeDIO1) {
	c := qt.New(t)
	chip := newFakeChip("SPI-" + t.Name())
	dio1 := &fakeDIO1{chip: chip}
	if cfg.Busy == nil {
		cfg.Busy = &gpiotest.Pin{N: "BUSY", L: gpio.Low}
	}
	if cfg.DIO1 == nil {
		cfg.DIO1 = dio1
	}
	d, err := New(chip, cfg)
	c.Assert(err, qt.IsNil)
	t.Cleanup(func() { d.Close() })
	return d, chip, dio1
}
