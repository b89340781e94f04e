package sx126x

// SpreadingFactor is the LoRa spreading factor (chips per symbol = 2^SF).
type SpreadingFactor uint8

const (
	SF5  SpreadingFactor = 5
	SF6  SpreadingFactor = 6
	SF7  SpreadingFactor = 7
	SF8  SpreadingFactor = 8
	SF9  SpreadingFactor = 9
	SF10 SpreadingFactor = 10
	SF11 SpreadingFactor = 11
	SF12 SpreadingFactor = 12
)

// Bandwidth is the LoRa bandwidth, encoded as the SetModulationParams value.
type Bandwidth uint8

const (
	Bandwidth7_8KHz  Bandwidth = 0x00
	Bandwidth10_4KHz Bandwidth = 0x08
	Bandwidth15_6KHz Bandwidth = 0x01
	Bandwidth20_8KHz Bandwidth = 0x09
	Bandwidth31_2KHz Bandwidth = 0x02
	Bandwidth41_7KHz Bandwidth = 0x0A
	Bandwidth62_5KHz Bandwidth = 0x03
	Bandwidth125KHz  Bandwidth = 0x04
	Bandwidth250KHz  Bandwidth = 0x05
	Bandwidth500KHz  Bandwidth = 0x06
)

// Hertz returns the bandwidth in Hz, or 0 for a reserved code.
func (bw Bandwidth) Hertz() uint32 {
	switch bw {
	case Bandwidth7_8KHz:
		return 7812
	case Bandwidth10_4KHz:
		return 10417
	case Bandwidth15_6KHz:
		return 15625
	case Bandwidth20_8KHz:
		return 20833
	case Bandwidth31_2KHz:
		return 31250
	case Bandwidth41_7KHz:
		return 41667
	case Bandwidth62_5KHz:
		return 62500
	case Bandwidth125KHz:
		return 125000
	case Bandwidth250KHz:
		return 250000
	case Bandwidth500KHz:
		return 500000
	}
	return 0
}

// CodingRate is the LoRa forward error correction rate.
type CodingRate uint8

const (
	CodingRate4_5 CodingRate = 1
	CodingRate4_6 CodingRate = 2
	CodingRate4_7 CodingRate = 3
	CodingRate4_8 CodingRate = 4
)

// ModulationParams as programmed with SetModulationParams.
type ModulationParams struct {
	SpreadingFactor     SpreadingFactor
	Bandwidth           Bandwidth
	CodingRate          CodingRate
	LowDataRateOptimize bool
}

// PacketParams as programmed with SetPacketParams.
type PacketParams struct {
	PreambleLength uint16
	ImplicitHeader bool
	PayloadLength  uint8
	CRCOn          bool
	IQInverted     bool
}

// PacketStatus holds the link figures of the last received packet.
type PacketStatus struct {
	RSSI       int16 // average RSSI over the packet [dBm]
	SNR        int8  // estimated SNR [dB]
	SignalRSSI int16 // RSSI of the despread LoRa signal [dBm]
}

// PacketType selects the modem.
type PacketType uint8

const (
	PacketTypeGFSK PacketType = 0x00
	PacketTypeLoRa PacketType = 0x01
)

// StandbyMode selects the oscillator kept running in standby.
type StandbyMode uint8

const (
	StandbyRC   StandbyMode = 0x00
	StandbyXOSC StandbyMode = 0x01
)

// RegulatorMode selects the power regulator.
type RegulatorMode uint8

const (
	RegulatorLDO  RegulatorMode = 0x00
	RegulatorDCDC RegulatorMode = 0x01
)

// RampTime is the PA ramp time.
type RampTime uint8

const (
	Ramp10Us   RampTime = 0x00
	Ramp20Us   RampTime = 0x01
	Ramp40Us   RampTime = 0x02
	Ramp80Us   RampTime = 0x03
	Ramp200Us  RampTime = 0x04
	Ramp800Us  RampTime = 0x05
	Ramp1700Us RampTime = 0x06
	Ramp3400Us RampTime = 0x07
)

// SleepParams configures SetSleep.
type SleepParams struct {
	WakeupRTC bool
	Reset     bool
	WarmStart bool
}

func (p SleepParams) value() uint8 {
	var v uint8
	if p.WarmStart {
		v |= 1 << 2
	}
	if p.Reset {
		v |= 1 << 1
	}
	if p.WakeupRTC {
		v |= 1
	}
	return v
}

// TCXOVoltage is the DIO3 supply voltage for an external TCXO.
type TCXOVoltage uint8

const (
	TCXO1_6V TCXOVoltage = 0x00
	TCXO1_7V TCXOVoltage = 0x01
	TCXO1_8V TCXOVoltage = 0x02
	TCXO2_2V TCXOVoltage = 0x03
	TCXO2_4V TCXOVoltage = 0x04
	TCXO2_7V TCXOVoltage = 0x05
	TCXO3_0V TCXOVoltage = 0x06
	TCXO3_3V TCXOVoltage = 0x07
)

// Chip identifies the SX126x variant, which decides PA configuration.
type Chip uint8

const (
	SX1262 Chip = iota
	SX1261
	SX1268
)

// IrqMask is a set of SX126x interrupt sources.
type IrqMask uint16

const (
	IrqNone                IrqMask = 0x0000
	IrqTxDone              IrqMask = 0x0001
	IrqRxDone              IrqMask = 0x0002
	IrqPreambleDetected    IrqMask = 0x0004
	IrqSyncwordValid       IrqMask = 0x0008
	IrqHeaderValid         IrqMask = 0x0010
	IrqHeaderError         IrqMask = 0x0020
	IrqCRCError            IrqMask = 0x0040
	IrqCADDone             IrqMask = 0x0080
	IrqCADActivityDetected IrqMask = 0x0100
	IrqRxTxTimeout         IrqMask = 0x0200
	IrqAll                 IrqMask = 0xFFFF
)

// Has reports whether every bit of m is set in f.
func (f IrqMask) Has(m IrqMask) bool {
	return f&m == m
}

// RadioMode is the operating mode cached by the driver.
type RadioMode uint8

const (
	ModeSleep RadioMode = iota
	ModeStandbyRC
	ModeStandbyXOSC
	ModeFrequencySynthesis
	ModeTransmit
	ModeReceive
	ModeReceiveDutyCycle
	ModeChannelActivityDetection
)

// RadioState is the public projection of RadioMode.
type RadioState uint8

const (
	StateIdle RadioState = iota
	StateTxRunning
	StateRxRunning
	StateChannelActivityDetecting
)

func (s RadioState) String() string {
	switch s {
	case StateTxRunning:
		return "TxRunning"
	case StateRxRunning:
		return "RxRunning"
	case StateChannelActivityDetecting:
		return "ChannelActivityDetecting"
	}
	return "Idle"
}

// Readiness tracks whether the modem is configured for TX/RX.
type Readiness uint8

const (
	Unconfigured Readiness = iota
	ConfiguredRx
	ConfiguredTx
	// RandomPending is entered by GetRandomValue; SetRxConfig or
	// SetTxConfig must follow before any TX/RX/CAD.
	RandomPending
)

// DeviceErrors decoded from GetDeviceErrors.
type DeviceErrors struct {
	RC64kCalibration bool
	RC13MCalibration bool
	PLLCalibration   bool
	ADCCalibration   bool
	ImageCalibration bool
	XOSCStart        bool
	PLLLock          bool
	PARamp           bool
}

func decodeDeviceErrors(v uint16) DeviceErrors {
	return DeviceErrors{
		RC64kCalibration: v&(1<<0) != 0,
		RC13MCalibration: v&(1<<1) != 0,
		PLLCalibration:   v&(1<<2) != 0,
		ADCCalibration:   v&(1<<3) != 0,
		ImageCalibration: v&(1<<4) != 0,
		XOSCStart:        v&(1<<5) != 0,
		PLLLock:          v&(1<<6) != 0,
		PARamp:           v&(1<<8) != 0,
	}
}

// ChipStatus decoded from the GetStatus byte.
type ChipStatus struct {
	ChipMode  uint8
	CmdStatus uint8
}

func decodeChipStatus(v uint8) ChipStatus {
	return ChipStatus{
		ChipMode:  (v & (0x7 << 4)) >> 4,
		CmdStatus: (v & (0x7 << 1)) >> 1,
	}
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
