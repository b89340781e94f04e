package sx126x

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// --------------------------------------------------
// Board layer
// --------------------------------------------------

// TCXO describes an external TCXO powered from DIO3.
type TCXO struct {
	Voltage TCXOVoltage
	// WakeupTime is the TCXO startup time [ms].
	WakeupTime uint32
}

func (d *Device) operatingMode() RadioMode {
	return d.mode
}

func (d *Device) setOperatingMode(mode RadioMode) {
	d.mode = mode
}

// reset re-initializes the sx126x device through NRESET
func (d *Device) reset() error {
	if d.resetPin == nil {
		return nil
	}
	if err := d.resetPin.Out(gpio.Low); err != nil {
		return &BusError{Op: "reset", Err: err}
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.resetPin.Out(gpio.High); err != nil {
		return &BusError{Op: "reset", Err: err}
	}
	time.Sleep(20 * time.Millisecond)
	return nil
}

// boardInit brings the radio out of reset into StandbyRC with the board
// specific TCXO and RF switch configuration applied.
func (d *Device) boardInit() error {
	if d.rfSwitch != nil {
		if err := d.rfSwitch.InitRFSwitch(); err != nil {
			return &BusError{Op: "rf switch init", Err: err}
		}
	}
	if err := d.reset(); err != nil {
		return err
	}
	if err := d.wakeup(); err != nil {
		return err
	}
	if err := d.setStandby(StandbyRC); err != nil {
		return err
	}
	if d.tcxo != nil {
		if err := d.setDio3AsTcxoCtrl(d.tcxo.Voltage, d.tcxo.WakeupTime<<6); err != nil {
			return err
		}
		// Calibrate all blocks now that the TCXO drives the reference
		if err := d.calibrate(0x7F); err != nil {
			return err
		}
	}
	if d.dio2AsRFSwitch {
		if err := d.setDio2AsRfSwitchCtrl(true); err != nil {
			return err
		}
	}
	d.setOperatingMode(ModeStandbyRC)
	return nil
}

// setRfTxPower programs the output power [dBm]
func (d *Device) setRfTxPower(power int8) error {
	return d.setTxParams(power, Ramp40Us)
}

// checkRfFrequency reports whether the board front end covers frequency
func (d *Device) checkRfFrequency(frequency uint32) bool {
	return frequency >= 150000000 && frequency <= 960000000
}

// tcxoWakeupTime returns the board TCXO wakeup time [ms]
func (d *Device) tcxoWakeupTime() uint32 {
	if d.tcxo == nil {
		return 0
	}
	return d.tcxo.WakeupTime
}

func (d *Device) antenna(mode int) error {
	if d.rfSwitch == nil {
		return nil
	}
	if err := d.rfSwitch.SetRfSwitchMode(mode); err != nil {
		return &BusError{Op: "rf switch", Err: err}
	}
	return nil
}

func (d *Device) antennaOff() error {
	return d.antenna(RFSWITCH_OFF)
}

func (d *Device) antennaRx() error {
	return d.antenna(RFSWITCH_RX)
}

func (d *Device) antennaTx() error {
	if d.chip == SX1261 {
		return d.antenna(RFSWITCH_TX_LP)
	}
	return d.antenna(RFSWITCH_TX_HP)
}
