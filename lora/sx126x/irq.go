package sx126x

import (
	"context"
)

// ProcessIRQ waits for the outcome of the operation started by Send, Rx,
// SetRxBoosted or StartCAD and returns it. Header, preamble and syncword
// notifications are logged and waiting resumes.
//
// On RxDone the frame is copied into rxBuf when it is not nil, and
// EventData is set to the received bytes. If ctx is cancelled the context
// error is returned as is and the radio is left armed; call Standby to stop
// it.
func (d *Device) ProcessIRQ(ctx context.Context, rxBuf []byte) (RadioEvent, error) {
	if d.dio1 == nil {
		return RadioEvent{}, ErrNoInterruptWaiter
	}
	for {
		derr, err := d.getDeviceErrors()
		if err != nil {
			return RadioEvent{}, err
		}
		st, err := d.getChipStatus()
		if err != nil {
			return RadioEvent{}, err
		}
		d.log("sx126x: device errors %+v, status %+v", derr, st)

		if err := d.dio1.WaitForHigh(ctx); err != nil {
			if ctx.Err() != nil {
				return RadioEvent{}, ctx.Err()
			}
			return RadioEvent{}, &InterruptError{Err: err}
		}

		mode := d.operatingMode()
		irq, err := d.getIrqStatus()
		if err != nil {
			return RadioEvent{}, err
		}
		// Only the flags read, a flag raised since stays pending on DIO1
		if err := d.clearIrqStatus(irq); err != nil {
			return RadioEvent{}, err
		}
		d.log("sx126x: irq 0x%04X in mode %d", uint16(irq), mode)

		if err := d.classifyIRQ(mode, irq); err != nil {
			return RadioEvent{}, err
		}

		switch {
		case irq.Has(IrqTxDone):
			d.setOperatingMode(ModeStandbyRC)
			return RadioEvent{EventType: EventTxDone}, nil

		case irq.Has(IrqRxDone):
			return d.completeRx(rxBuf)

		case irq.Has(IrqCADDone):
			d.setOperatingMode(ModeStandbyRC)
			return RadioEvent{
				EventType:           EventCADDone,
				CADActivityDetected: irq.Has(IrqCADActivityDetected),
			}, nil
		}

		if irq&(IrqHeaderValid|IrqPreambleDetected|IrqSyncwordValid|IrqCADActivityDetected) != 0 {
			d.log("sx126x: irq 0x%04X, still waiting", uint16(irq))
		}
	}
}

// classifyIRQ returns the terminal error for irq, if any, first match wins.
// The cached mode is reverted to StandbyRC where the radio went back to
// standby on its own.
func (d *Device) classifyIRQ(mode RadioMode, irq IrqMask) error {
	switch {
	case irq.Has(IrqHeaderError):
		if !d.rxContinuous {
			d.setOperatingMode(ModeStandbyRC)
		}
		return ErrHeaderError

	case irq.Has(IrqCRCError):
		if mode != ModeReceive {
			return ErrCRCErrorUnexpected
		}
		if !d.rxContinuous {
			d.setOperatingMode(ModeStandbyRC)
		}
		return ErrCRCErrorOnReceive

	case irq.Has(IrqRxTxTimeout):
		switch mode {
		case ModeTransmit:
			d.setOperatingMode(ModeStandbyRC)
			return ErrTransmitTimeout
		case ModeReceive:
			d.setOperatingMode(ModeStandbyRC)
			return ErrReceiveTimeout
		}
		return ErrTimeoutUnexpected

	case irq.Has(IrqTxDone) && mode != ModeTransmit:
		return ErrTransmitDoneUnexpected

	case irq.Has(IrqRxDone) && mode != ModeReceive:
		return ErrReceiveDoneUnexpected

	case irq&(IrqCADDone|IrqCADActivityDetected) != 0 && mode != ModeChannelActivityDetection:
		return ErrCADUnexpected
	}
	return nil
}

func (d *Device) completeRx(rxBuf []byte) (RadioEvent, error) {
	ev := RadioEvent{EventType: EventRxDone}
	if !d.rxContinuous {
		d.setOperatingMode(ModeStandbyRC)

		// Implicit header timeout errata (DS_SX1261-2_V1.2 chapter 15.3)
		if err := d.writeRegister(RegRTCCtrl, 0x00); err != nil {
			return ev, err
		}
		evt, err := d.readRegister(RegEvtClr)
		if err != nil {
			return ev, err
		}
		if err := d.writeRegister(RegEvtClr, evt|(1<<1)); err != nil {
			return ev, err
		}
	}
	if rxBuf != nil {
		n, err := d.getPayload(rxBuf)
		if err != nil {
			return ev, err
		}
		ev.EventData = rxBuf[:n]
	}
	ps, err := d.getPacketStatus()
	if err != nil {
		return ev, err
	}
	d.packetStatus = &ps
	return ev, nil
}
