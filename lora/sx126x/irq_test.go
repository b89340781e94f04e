package sx126x

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

// armed returns a device in mode with irqs queued on the fake chip.
func armed(t *testing.T, mode RadioMode, irqs ...IrqMask) (*Device, *fakeChip, *fakeDIO1) {
	d, chip, dio1 := newTestDevice(t, Config{})
	d.setOperatingMode(mode)
	chip.irqs = irqs
	return d, chip, dio1
}

func TestProcessIRQTerminalErrors(t *testing.T) {
	tests := []struct {
		name         string
		mode         RadioMode
		continuous   bool
		irq          IrqMask
		expectedErr  error
		expectedMode RadioMode
	}{{
		name:         "header error",
		mode:         ModeReceive,
		irq:          IrqHeaderError,
		expectedErr:  ErrHeaderError,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "header error continuous",
		mode:         ModeReceive,
		continuous:   true,
		irq:          IrqHeaderError,
		expectedErr:  ErrHeaderError,
		expectedMode: ModeReceive,
	}, {
		name:         "crc error on receive",
		mode:         ModeReceive,
		irq:          IrqCRCError,
		expectedErr:  ErrCRCErrorOnReceive,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "crc error on receive continuous",
		mode:         ModeReceive,
		continuous:   true,
		irq:          IrqCRCError,
		expectedErr:  ErrCRCErrorOnReceive,
		expectedMode: ModeReceive,
	}, {
		name:         "crc error while transmitting keeps mode",
		mode:         ModeTransmit,
		irq:          IrqCRCError,
		expectedErr:  ErrCRCErrorUnexpected,
		expectedMode: ModeTransmit,
	}, {
		name:         "transmit timeout",
		mode:         ModeTransmit,
		irq:          IrqRxTxTimeout,
		expectedErr:  ErrTransmitTimeout,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "receive timeout",
		mode:         ModeReceive,
		irq:          IrqRxTxTimeout,
		expectedErr:  ErrReceiveTimeout,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "timeout during cad",
		mode:         ModeChannelActivityDetection,
		irq:          IrqRxTxTimeout,
		expectedErr:  ErrTimeoutUnexpected,
		expectedMode: ModeChannelActivityDetection,
	}, {
		name:         "tx done while receiving",
		mode:         ModeReceive,
		irq:          IrqTxDone,
		expectedErr:  ErrTransmitDoneUnexpected,
		expectedMode: ModeReceive,
	}, {
		name:         "rx done while transmitting",
		mode:         ModeTransmit,
		irq:          IrqRxDone,
		expectedErr:  ErrReceiveDoneUnexpected,
		expectedMode: ModeTransmit,
	}, {
		name:         "cad done while receiving",
		mode:         ModeReceive,
		irq:          IrqCADDone,
		expectedErr:  ErrCADUnexpected,
		expectedMode: ModeReceive,
	}, {
		name:         "cad activity while standby",
		mode:         ModeStandbyRC,
		irq:          IrqCADActivityDetected,
		expectedErr:  ErrCADUnexpected,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "header error wins",
		mode:         ModeReceive,
		irq:          IrqHeaderError | IrqCRCError | IrqRxTxTimeout | IrqRxDone,
		expectedErr:  ErrHeaderError,
		expectedMode: ModeStandbyRC,
	}, {
		name:         "crc error before timeout",
		mode:         ModeTransmit,
		irq:          IrqCRCError | IrqRxTxTimeout,
		expectedErr:  ErrCRCErrorUnexpected,
		expectedMode: ModeTransmit,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			d, _, dio1 := armed(t, test.mode, test.irq)
			d.rxContinuous = test.continuous

			_, err := d.ProcessIRQ(context.Background(), nil)
			c.Assert(err, qt.ErrorIs, test.expectedErr)
			c.Assert(d.operatingMode(), qt.Equals, test.expectedMode)
			c.Assert(dio1.waits, qt.Equals, 1)
		})
	}
}

func TestProcessIRQTxDone(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeTransmit, IrqTxDone)

	ev, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventTxDone)
	c.Assert(d.operatingMode(), qt.Equals, ModeStandbyRC)
	c.Assert(chip.sent(SX126X_CMD_CLEAR_IRQ_STATUS), qt.DeepEquals, [][]uint8{{0x02, 0x00, 0x01}})
	c.Assert(chip.ops()[:2], qt.DeepEquals, []uint8{SX126X_CMD_GET_DEVICE_ERRORS, SX126X_CMD_GET_STATUS})
}

func TestProcessIRQWaitsPastPreamble(t *testing.T) {
	c := qt.New(t)
	d, chip, dio1 := armed(t, ModeReceive, IrqPreambleDetected, IrqHeaderValid|IrqSyncwordValid, IrqRxDone)
	chip.rxFrame = []uint8{0x01}

	buf := make([]byte, 16)
	ev, err := d.ProcessIRQ(context.Background(), buf)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventRxDone)
	c.Assert(dio1.waits, qt.Equals, 3)
	c.Assert(chip.sent(SX126X_CMD_CLEAR_IRQ_STATUS), qt.HasLen, 3)
}

func TestProcessIRQKeepsFlagRaisedDuringRead(t *testing.T) {
	c := qt.New(t)
	d, chip, dio1 := armed(t, ModeReceive)
	chip.latch = true
	chip.irqReg = IrqPreambleDetected
	chip.raised = []IrqMask{IrqRxDone}
	chip.rxFrame = []uint8{0xCA, 0xFE}

	buf := make([]byte, 16)
	ev, err := d.ProcessIRQ(context.Background(), buf)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventRxDone)
	c.Assert(ev.EventData, qt.DeepEquals, []byte{0xCA, 0xFE})
	c.Assert(dio1.waits, qt.Equals, 2)
	c.Assert(chip.sent(SX126X_CMD_CLEAR_IRQ_STATUS), qt.DeepEquals, [][]uint8{
		{0x02, 0x00, 0x04},
		{0x02, 0x00, 0x02},
	})
	c.Assert(chip.irqReg, qt.Equals, IrqNone)
}

func TestProcessIRQPreambleOnlyDoesNotReturn(t *testing.T) {
	c := qt.New(t)
	d, _, dio1 := armed(t, ModeReceive, IrqPreambleDetected)

	// The fake line stays low once the queue is empty.
	_, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.ErrorIs, errNoMoreIRQ)
	c.Assert(dio1.waits, qt.Equals, 2)
	c.Assert(d.operatingMode(), qt.Equals, ModeReceive)
}

func TestProcessIRQRxDone(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeReceive, IrqRxDone|IrqHeaderValid)
	chip.rxFrame = []uint8{0xAA, 0xBB, 0xCC}
	chip.rxOffset = 0x10
	chip.pktStatus = [3]uint8{0xA0, 0x20, 0x90}
	chip.regs[0x0902] = 0x05
	chip.regs[0x0944] = 0x01

	buf := make([]byte, 255)
	ev, err := d.ProcessIRQ(context.Background(), buf)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventRxDone)
	c.Assert(ev.EventData, qt.DeepEquals, []byte{0xAA, 0xBB, 0xCC})
	c.Assert(chip.sent(SX126X_CMD_READ_BUFFER), qt.DeepEquals, [][]uint8{{0x1E, 0x10, 0x00, 0x00, 0x00, 0x00}})
	c.Assert(d.operatingMode(), qt.Equals, ModeStandbyRC)

	// Implicit header timeout errata
	c.Assert(chip.regs[0x0902], qt.Equals, uint8(0x00))
	c.Assert(chip.regs[0x0944], qt.Equals, uint8(0x03))

	ps, ok := d.GetLatestPacketStatus()
	c.Assert(ok, qt.IsTrue)
	c.Assert(ps, qt.Equals, PacketStatus{RSSI: -80, SNR: 8, SignalRSSI: -72})
}

func TestPacketStatusSNR(t *testing.T) {
	tests := []struct {
		raw uint8
		snr int8
	}{
		{0x20, 8},
		{0x7E, 32},
		{0x7F, 32},
		{0xF4, -3},
		{0x80, -32},
	}
	for _, test := range tests {
		c := qt.New(t)
		d, chip, _ := newTestDevice(t, Config{})
		chip.pktStatus = [3]uint8{0, test.raw, 0}
		ps, err := d.getPacketStatus()
		c.Assert(err, qt.IsNil)
		c.Assert(ps.SNR, qt.Equals, test.snr, qt.Commentf("raw 0x%02X", test.raw))
		d.Close()
	}
}

func TestProcessIRQRxDoneContinuous(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeReceive, IrqRxDone)
	d.rxContinuous = true
	chip.rxFrame = []uint8{0x42}
	chip.regs[0x0902] = 0x05

	ev, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventData, qt.IsNil)
	c.Assert(d.operatingMode(), qt.Equals, ModeReceive)
	c.Assert(chip.regs[0x0902], qt.Equals, uint8(0x05))
	c.Assert(chip.sent(SX126X_CMD_GET_RX_BUFFER_STATUS), qt.HasLen, 0)

	// Packet status is refreshed without a buffer
	_, ok := d.GetLatestPacketStatus()
	c.Assert(ok, qt.IsTrue)
}

func TestProcessIRQRxDoneBufferTooSmall(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeReceive, IrqRxDone)
	chip.rxFrame = []uint8{1, 2, 3, 4}

	_, err := d.ProcessIRQ(context.Background(), make([]byte, 2))
	c.Assert(err, qt.ErrorIs, ErrPayloadSizeMismatch)
	c.Assert(chip.sent(SX126X_CMD_READ_BUFFER), qt.HasLen, 0)
}

func TestProcessIRQCADDone(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeChannelActivityDetection, IrqCADDone|IrqCADActivityDetected)

	ev, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventCADDone)
	c.Assert(ev.CADActivityDetected, qt.IsTrue)
	c.Assert(d.operatingMode(), qt.Equals, ModeStandbyRC)

	d.setOperatingMode(ModeChannelActivityDetection)
	chip.irqs = []IrqMask{IrqCADDone}
	ev, err = d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.CADActivityDetected, qt.IsFalse)
}

func TestProcessIRQCADActivityWaitsForDone(t *testing.T) {
	c := qt.New(t)
	d, _, dio1 := armed(t, ModeChannelActivityDetection,
		IrqCADActivityDetected, IrqCADDone|IrqCADActivityDetected)

	ev, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventCADDone)
	c.Assert(ev.CADActivityDetected, qt.IsTrue)
	c.Assert(dio1.waits, qt.Equals, 2)
	c.Assert(d.operatingMode(), qt.Equals, ModeStandbyRC)
}

func TestProcessIRQCADActivityAlone(t *testing.T) {
	c := qt.New(t)
	d, _, _ := armed(t, ModeChannelActivityDetection, IrqCADActivityDetected)

	_, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.ErrorIs, errNoMoreIRQ)
	c.Assert(d.operatingMode(), qt.Equals, ModeChannelActivityDetection)
}

func TestProcessIRQCancelled(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := armed(t, ModeReceive, IrqRxDone)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ProcessIRQ(ctx, nil)
	c.Assert(err, qt.Equals, context.Canceled)
	c.Assert(d.operatingMode(), qt.Equals, ModeReceive)
	c.Assert(chip.sent(SX126X_CMD_GET_IRQ_STATUS), qt.HasLen, 0)
}

func TestProcessIRQWaitFailure(t *testing.T) {
	c := qt.New(t)
	d, _, dio1 := armed(t, ModeReceive, IrqRxDone)
	errLine := errors.New("line gone")
	dio1.err = errLine

	_, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.ErrorIs, errLine)
	var ie *InterruptError
	c.Assert(errors.As(err, &ie), qt.IsTrue)
}

func TestProcessIRQNoWaiter(t *testing.T) {
	c := qt.New(t)
	chip := newFakeChip("SPI-" + t.Name())
	d, err := New(chip, Config{})
	c.Assert(err, qt.IsNil)
	defer d.Close()

	_, err = d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.ErrorIs, ErrNoInterruptWaiter)
	c.Assert(chip.txs, qt.HasLen, 0)
}

func TestSendThenProcessIRQ(t *testing.T) {
	c := qt.New(t)
	d, chip, _ := newTestDevice(t, Config{})
	c.Assert(d.Init(), qt.IsNil)
	c.Assert(d.SetTxConfig(testTxConfig()), qt.IsNil)
	c.Assert(d.Send([]byte("hello"), 1000), qt.IsNil)
	c.Assert(string(chip.buffer[:5]), qt.Equals, "hello")

	chip.irqs = []IrqMask{IrqTxDone}
	ev, err := d.ProcessIRQ(context.Background(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ev.EventType, qt.Equals, EventTxDone)
	c.Assert(d.GetStatus(), qt.Equals, StateIdle)
}
