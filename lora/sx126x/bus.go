package sx126x

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	busyTimeout      = time.Second
	busyPollInterval = 10 * time.Microsecond
)

// tx runs one full-duplex SPI transaction and returns what the chip clocked out.
func (d *Device) tx(op string, w []uint8) ([]uint8, error) {
	r := make([]uint8, len(w))
	if err := d.spi.Tx(w, r); err != nil {
		return nil, &BusError{Op: op, Err: err}
	}
	return r, nil
}

// waitBusy sleeps until the BUSY line clears (RM0461 Sec 5.3 Radio Busy Management)
func (d *Device) waitBusy() error {
	if d.busy == nil {
		return nil
	}
	deadline := time.Now().Add(busyTimeout)
	for d.busy.Read() == gpio.High {
		if time.Now().After(deadline) {
			return &BusError{Op: "wait busy", Err: ErrBusyTimeout}
		}
		time.Sleep(busyPollInterval)
	}
	return nil
}

// wakeup takes the radio out of sleep; any NSS falling edge does it.
func (d *Device) wakeup() error {
	if _, err := d.tx("wakeup", []uint8{SX126X_CMD_GET_STATUS, SX126X_CMD_NOP}); err != nil {
		return err
	}
	if err := d.waitBusy(); err != nil {
		return err
	}
	if err := d.antennaOff(); err != nil {
		return err
	}
	d.setOperatingMode(ModeStandbyRC)
	return nil
}

// checkDeviceReady wakes the radio if needed and waits for BUSY to clear
func (d *Device) checkDeviceReady() error {
	switch d.operatingMode() {
	case ModeSleep, ModeReceiveDutyCycle:
		return d.wakeup()
	}
	return d.waitBusy()
}

// execSetCommand sends a command to configure the peripheral
func (d *Device) execSetCommand(cmd uint8, buf []uint8) error {
	if err := d.checkDeviceReady(); err != nil {
		return err
	}
	w := make([]uint8, 0, 1+len(buf))
	w = append(w, cmd)
	w = append(w, buf...)
	if _, err := d.tx(fmt.Sprintf("command 0x%02X", cmd), w); err != nil {
		return err
	}
	// BUSY stays high while the chip sleeps
	if cmd != SX126X_CMD_SET_SLEEP {
		return d.waitBusy()
	}
	return nil
}

// execGetCommand queries the peripheral. The status byte clocked out right
// after the opcode is returned separately from the size data bytes.
func (d *Device) execGetCommand(cmd uint8, size int) (uint8, []uint8, error) {
	if err := d.checkDeviceReady(); err != nil {
		return 0, nil, err
	}
	w := make([]uint8, 2+size)
	w[0] = cmd
	r, err := d.tx(fmt.Sprintf("command 0x%02X", cmd), w)
	if err != nil {
		return 0, nil, err
	}
	return r[1], r[2:], d.waitBusy()
}

// readRegisters fills buf from consecutive registers starting at reg (Sec. 13.2.2)
func (d *Device) readRegisters(reg Register, buf []uint8) error {
	if err := d.checkDeviceReady(); err != nil {
		return err
	}
	addr := reg.Addr()
	w := make([]uint8, 4+len(buf))
	w[0] = SX126X_CMD_READ_REGISTER
	w[1] = uint8((addr >> 8) & 0xFF)
	w[2] = uint8(addr & 0xFF)
	r, err := d.tx(fmt.Sprintf("read register 0x%04X", addr), w)
	if err != nil {
		return err
	}
	copy(buf, r[4:])
	return d.waitBusy()
}

// writeRegisters writes data to consecutive registers starting at reg
func (d *Device) writeRegisters(reg Register, data []uint8) error {
	if err := d.checkDeviceReady(); err != nil {
		return err
	}
	addr := reg.Addr()
	w := make([]uint8, 0, 3+len(data))
	w = append(w, SX126X_CMD_WRITE_REGISTER, uint8((addr>>8)&0xFF), uint8(addr&0xFF))
	w = append(w, data...)
	if _, err := d.tx(fmt.Sprintf("write register 0x%04X", addr), w); err != nil {
		return err
	}
	return d.waitBusy()
}

func (d *Device) readRegister(reg Register) (uint8, error) {
	var v [1]uint8
	err := d.readRegisters(reg, v[:])
	return v[0], err
}

func (d *Device) writeRegister(reg Register, v uint8) error {
	return d.writeRegisters(reg, []uint8{v})
}

// writeBuffer stores data in the radio FIFO at offset
func (d *Device) writeBuffer(offset uint8, data []uint8) error {
	if err := d.checkDeviceReady(); err != nil {
		return err
	}
	w := make([]uint8, 0, 2+len(data))
	w = append(w, SX126X_CMD_WRITE_BUFFER, offset)
	w = append(w, data...)
	if _, err := d.tx("write buffer", w); err != nil {
		return err
	}
	return d.waitBusy()
}

// readBuffer fills buf from the radio FIFO at offset
func (d *Device) readBuffer(offset uint8, buf []uint8) error {
	if err := d.checkDeviceReady(); err != nil {
		return err
	}
	w := make([]uint8, 3+len(buf))
	w[0] = SX126X_CMD_READ_BUFFER
	w[1] = offset
	r, err := d.tx("read buffer", w)
	if err != nil {
		return err
	}
	copy(buf, r[3:])
	return d.waitBusy()
}
