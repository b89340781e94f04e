package sx126x

import (
	"encoding/binary"
)

// --------------------------------------------------
// Command layer: one method per radio opcode
// --------------------------------------------------

// maxTimeoutMs is the longest timeout the 24-bit tick field holds
const maxTimeoutMs = 0xFFFFFF >> 6

// msToTicks converts ms to 15.625us ticks, clamped below the continuous
// value 0xFFFFFF
func msToTicks(ms uint32) uint32 {
	if ms > maxTimeoutMs {
		ms = maxTimeoutMs
	}
	return ms << 6
}

func ticks24(t uint32) []uint8 {
	return []uint8{uint8((t >> 16) & 0xFF), uint8((t >> 8) & 0xFF), uint8(t & 0xFF)}
}

// setStandby switches device to standby mode (R)
func (d *Device) setStandby(mode StandbyMode) error {
	if err := d.antennaOff(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_STANDBY, []uint8{uint8(mode)}); err != nil {
		return err
	}
	if mode == StandbyXOSC {
		d.setOperatingMode(ModeStandbyXOSC)
	} else {
		d.setOperatingMode(ModeStandbyRC)
	}
	return nil
}

// setSleep switches device to sleep mode
func (d *Device) setSleep(p SleepParams) error {
	if err := d.antennaOff(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_SLEEP, []uint8{p.value()}); err != nil {
		return err
	}
	d.setOperatingMode(ModeSleep)
	return nil
}

func (d *Device) setRegulatorMode(mode RegulatorMode) error {
	return d.execSetCommand(SX126X_CMD_SET_REGULATOR_MODE, []uint8{uint8(mode)})
}

// setBufferBaseAddress sets base address for buffer
func (d *Device) setBufferBaseAddress(txBaseAddress, rxBaseAddress uint8) error {
	return d.execSetCommand(SX126X_CMD_SET_BUFFER_BASE_ADDRESS, []uint8{txBaseAddress, rxBaseAddress})
}

// setPaConfig sets the Power Amplifier configuration (R)
func (d *Device) setPaConfig(paDutyCycle, hpMax, deviceSel, paLut uint8) error {
	return d.execSetCommand(SX126X_CMD_SET_PA_CONFIG, []uint8{paDutyCycle, hpMax, deviceSel, paLut})
}

// setTxParams programs the PA for the chip variant, then power and ramp time (R)
func (d *Device) setTxParams(power int8, ramp RampTime) error {
	if d.chip == SX1261 {
		if power == 15 {
			if err := d.setPaConfig(0x06, 0x00, 0x01, 0x01); err != nil {
				return err
			}
		} else {
			if err := d.setPaConfig(0x04, 0x00, 0x01, 0x01); err != nil {
				return err
			}
		}
		if power > 14 {
			power = 14
		} else if power < -17 {
			power = -17
		}
		// 60 mA
		if err := d.writeRegister(RegOCP, 0x18); err != nil {
			return err
		}
	} else {
		// TX clamp errata (DS_SX1261-2_V1.2 chapter 15.2)
		clamp, err := d.readRegister(RegTxClampConfig)
		if err != nil {
			return err
		}
		if err := d.writeRegister(RegTxClampConfig, clamp|(0x0F<<1)); err != nil {
			return err
		}
		if err := d.setPaConfig(0x04, 0x07, 0x00, 0x01); err != nil {
			return err
		}
		if power > 22 {
			power = 22
		} else if power < -9 {
			power = -9
		}
		// 140 mA
		if err := d.writeRegister(RegOCP, 0x38); err != nil {
			return err
		}
	}
	return d.execSetCommand(SX126X_CMD_SET_TX_PARAMS, []uint8{uint8(power), uint8(ramp)})
}

// setDioIrqParams selects which interrupts are enabled and routed to DIO1..DIO3
func (d *Device) setDioIrqParams(irq, dio1, dio2, dio3 IrqMask) error {
	var p [8]uint8
	binary.BigEndian.PutUint16(p[0:], uint16(irq))
	binary.BigEndian.PutUint16(p[2:], uint16(dio1))
	binary.BigEndian.PutUint16(p[4:], uint16(dio2))
	binary.BigEndian.PutUint16(p[6:], uint16(dio3))
	return d.execSetCommand(SX126X_CMD_SET_DIO_IRQ_PARAMS, p[:])
}

// setPacketType sets the packet type
func (d *Device) setPacketType(packetType PacketType) error {
	if err := d.execSetCommand(SX126X_CMD_SET_PACKET_TYPE, []uint8{uint8(packetType)}); err != nil {
		return err
	}
	d.packetType = packetType
	return nil
}

func (d *Device) calibrate(mask uint8) error {
	return d.execSetCommand(SX126X_CMD_CALIBRATE, []uint8{mask})
}

// calibrateImage calibrates the image rejection for the band containing freq
func (d *Device) calibrateImage(freq uint32) error {
	var calFreq [2]uint8

	if freq > 900000000 {
		calFreq[0] = 0xE1
		calFreq[1] = 0xE9
	} else if freq > 850000000 {
		calFreq[0] = 0xD7
		calFreq[1] = 0xDB
	} else if freq > 770000000 {
		calFreq[0] = 0xC1
		calFreq[1] = 0xC5
	} else if freq > 460000000 {
		calFreq[0] = 0x75
		calFreq[1] = 0x81
	} else {
		calFreq[0] = 0x6B
		calFreq[1] = 0x6F
	}
	return d.execSetCommand(SX126X_CMD_CALIBRATE_IMAGE, calFreq[:])
}

// setRfFrequency sets the radio frequency (R)
func (d *Device) setRfFrequency(frequency uint32) error {
	if !d.imageCalibrated {
		if err := d.calibrateImage(frequency); err != nil {
			return err
		}
		d.imageCalibrated = true
	}
	// Convert to PLL steps
	freq := uint32((uint64(frequency) << 25) / SX126X_XTAL_FREQ)
	var p [4]uint8
	binary.BigEndian.PutUint32(p[:], freq)
	return d.execSetCommand(SX126X_CMD_SET_RF_FREQUENCY, p[:])
}

// getRandom samples the wideband RSSI based random generator
func (d *Device) getRandom() (uint32, error) {
	lna, err := d.readRegister(RegAnaLNA)
	if err != nil {
		return 0, err
	}
	if err := d.writeRegister(RegAnaLNA, lna&^(1<<0)); err != nil {
		return 0, err
	}
	mixer, err := d.readRegister(RegAnaMixer)
	if err != nil {
		return 0, err
	}
	if err := d.writeRegister(RegAnaMixer, mixer&^(1<<7)); err != nil {
		return 0, err
	}

	if err := d.setRx(SX126X_RX_CONTINUOUS); err != nil {
		return 0, err
	}
	var number [4]uint8
	if err := d.readRegisters(RegRandomNumberGen, number[:]); err != nil {
		return 0, err
	}
	if err := d.setStandby(StandbyRC); err != nil {
		return 0, err
	}

	if err := d.writeRegister(RegAnaLNA, lna); err != nil {
		return 0, err
	}
	if err := d.writeRegister(RegAnaMixer, mixer); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(number[:]), nil
}

func (d *Device) setStopRxTimerOnPreambleDetect(enable bool) error {
	return d.execSetCommand(SX126X_CMD_STOP_TIMER_ON_PREAMBLE, []uint8{b2u8(enable)})
}

// setModulationParams sets the LoRa modulation (R)
func (d *Device) setModulationParams(m ModulationParams) error {
	p := []uint8{
		uint8(m.SpreadingFactor),
		uint8(m.Bandwidth),
		uint8(m.CodingRate),
		b2u8(m.LowDataRateOptimize),
	}
	return d.execSetCommand(SX126X_CMD_SET_MODULATION_PARAMS, p)
}

// setPacketParams sets various packet-related params (R)
func (d *Device) setPacketParams(pp PacketParams) error {
	var p [6]uint8
	p[0] = uint8((pp.PreambleLength >> 8) & 0xFF)
	p[1] = uint8(pp.PreambleLength & 0xFF)
	p[2] = b2u8(pp.ImplicitHeader)
	p[3] = pp.PayloadLength
	p[4] = b2u8(pp.CRCOn)
	p[5] = b2u8(pp.IQInverted)
	return d.execSetCommand(SX126X_CMD_SET_PACKET_PARAMS, p[:])
}

// setLoRaSymbNumTimeout sets the number of symbols to wait for a valid
// preamble in single Rx, using the chip's mantissa/exponent encoding.
func (d *Device) setLoRaSymbNumTimeout(symbNum uint16) error {
	if symbNum > SX126X_MAX_LORA_SYMB_NUM_TIMEOUT {
		symbNum = SX126X_MAX_LORA_SYMB_NUM_TIMEOUT
	}
	mant := uint8((symbNum + 1) >> 1)
	exp := uint8(0)
	for mant > 31 {
		mant = (mant + 3) >> 2
		exp++
	}
	reg := mant << (2*exp + 1)
	if err := d.execSetCommand(SX126X_CMD_SET_LORA_SYMB_NUM_TIMEOUT, []uint8{reg}); err != nil {
		return err
	}
	if symbNum != 0 {
		return d.writeRegister(RegSynchTimeout, exp+(mant<<3))
	}
	return nil
}

// setTx enables Tx mode with a timeout in 15.625us ticks (R)
func (d *Device) setTx(t uint32) error {
	if err := d.antennaTx(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_TX, ticks24(t)); err != nil {
		return err
	}
	d.setOperatingMode(ModeTransmit)
	return nil
}

// sendPayload writes the payload at offset 0 and starts the transmission.
// timeout is in milliseconds, clamped to 262143.
func (d *Device) sendPayload(payload []uint8, timeout uint32) error {
	if err := d.writeBuffer(0x00, payload); err != nil {
		return err
	}
	return d.setTx(msToTicks(timeout))
}

// setRx enables Rx mode with a timeout in 15.625us ticks (R)
func (d *Device) setRx(t uint32) error {
	if err := d.antennaRx(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_RX, ticks24(t)); err != nil {
		return err
	}
	d.setOperatingMode(ModeReceive)
	return nil
}

// setRxBoosted is setRx with the LNA at maximum gain
func (d *Device) setRxBoosted(t uint32) error {
	if err := d.writeRegister(RegRxGain, SX126X_RX_GAIN_BOOSTED); err != nil {
		return err
	}
	return d.setRx(t)
}

func (d *Device) setRxDutyCycle(rxTime, sleepTime uint32) error {
	if err := d.antennaRx(); err != nil {
		return err
	}
	p := append(ticks24(rxTime), ticks24(sleepTime)...)
	if err := d.execSetCommand(SX126X_CMD_SET_RX_DUTY_CYCLE, p); err != nil {
		return err
	}
	d.setOperatingMode(ModeReceiveDutyCycle)
	return nil
}

func (d *Device) setCad() error {
	if err := d.antennaRx(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_CAD, nil); err != nil {
		return err
	}
	d.setOperatingMode(ModeChannelActivityDetection)
	return nil
}

func (d *Device) setTxContinuousWave() error {
	if err := d.antennaTx(); err != nil {
		return err
	}
	if err := d.execSetCommand(SX126X_CMD_SET_TX_CONTINUOUS_WAVE, nil); err != nil {
		return err
	}
	d.setOperatingMode(ModeTransmit)
	return nil
}

func (d *Device) setDio3AsTcxoCtrl(voltage TCXOVoltage, timeout uint32) error {
	p := append([]uint8{uint8(voltage) & 0x07}, ticks24(timeout)...)
	return d.execSetCommand(SX126X_CMD_SET_DIO3_AS_TCXO_CTRL, p)
}

func (d *Device) setDio2AsRfSwitchCtrl(enable bool) error {
	return d.execSetCommand(SX126X_CMD_SET_DIO2_AS_RF_SWITCH_CTRL, []uint8{b2u8(enable)})
}

// getRssiInst returns the instantaneous RSSI [dBm]
func (d *Device) getRssiInst() (int16, error) {
	_, r, err := d.execGetCommand(SX126X_CMD_GET_RSSI_INST, 1)
	if err != nil {
		return 0, err
	}
	return -int16(r[0]) / 2, nil
}

func (d *Device) getDeviceErrors() (DeviceErrors, error) {
	_, r, err := d.execGetCommand(SX126X_CMD_GET_DEVICE_ERRORS, 2)
	if err != nil {
		return DeviceErrors{}, err
	}
	return decodeDeviceErrors(binary.BigEndian.Uint16(r)), nil
}

func (d *Device) clearDeviceErrors() error {
	return d.execSetCommand(SX126X_CMD_CLEAR_DEVICE_ERRORS, []uint8{0x00, 0x00})
}

func (d *Device) getChipStatus() (ChipStatus, error) {
	st, _, err := d.execGetCommand(SX126X_CMD_GET_STATUS, 0)
	if err != nil {
		return ChipStatus{}, err
	}
	return decodeChipStatus(st), nil
}

// getIrqStatus returns the pending IRQ flags
func (d *Device) getIrqStatus() (IrqMask, error) {
	_, r, err := d.execGetCommand(SX126X_CMD_GET_IRQ_STATUS, 2)
	if err != nil {
		return IrqNone, err
	}
	return IrqMask(binary.BigEndian.Uint16(r)), nil
}

// clearIrqStatus clears IRQ flags
func (d *Device) clearIrqStatus(clearIrqParams IrqMask) error {
	var p [2]uint8
	binary.BigEndian.PutUint16(p[:], uint16(clearIrqParams))
	return d.execSetCommand(SX126X_CMD_CLEAR_IRQ_STATUS, p[:])
}

// getPayload copies the last received frame into buf and returns its length
func (d *Device) getPayload(buf []uint8) (uint8, error) {
	_, r, err := d.execGetCommand(SX126X_CMD_GET_RX_BUFFER_STATUS, 2)
	if err != nil {
		return 0, err
	}
	size, offset := r[0], r[1]
	if int(size) > len(buf) {
		return 0, ErrPayloadSizeMismatch
	}
	if err := d.readBuffer(offset, buf[:size]); err != nil {
		return 0, err
	}
	return size, nil
}

func (d *Device) getPacketStatus() (PacketStatus, error) {
	_, r, err := d.execGetCommand(SX126X_CMD_GET_PACKET_STATUS, 3)
	if err != nil {
		return PacketStatus{}, err
	}
	return PacketStatus{
		RSSI:       -int16(r[0]) / 2,
		SNR:        int8((int16(int8(r[1])) + 2) >> 2),
		SignalRSSI: -int16(r[2]) / 2,
	}, nil
}
