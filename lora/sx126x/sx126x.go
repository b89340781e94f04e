// Package sx126x provides a driver for SX126x LoRa transceivers.
//
// Datasheet:
// https://www.semtech.com/products/wireless-rf/lora-core/sx1262
//
// The driver talks to the radio through a periph.io SPI connection and uses
// the BUSY line for flow control and DIO1 for interrupts. Only the LoRa modem
// is supported.
//
// A Device owns its SPI connection: New refuses a second Device on the same
// bus until Close is called. Methods are not safe for concurrent use; exactly
// one radio operation is in flight at a time. A TX, RX or CAD request is
// driven to completion by calling ProcessIRQ, which blocks until the radio
// reports an outcome. Timeouts are enforced by the radio itself and surface
// as ErrTransmitTimeout or ErrReceiveTimeout.
package sx126x

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// LogPrintf is the function used for diagnostic traces.
type LogPrintf func(format string, v ...interface{})

// RadioEvent describes how a radio operation completed
type RadioEvent struct {
	EventType int
	// EventData is the received payload, a sub-slice of the buffer given
	// to ProcessIRQ.
	EventData []byte
	// CADActivityDetected is set on EventCADDone when a LoRa preamble was seen.
	CADActivityDetected bool
}

const (
	EventTxDone = iota
	EventRxDone
	EventCADDone
)

// Config holds the board wiring and chip options.
type Config struct {
	Busy     gpio.PinIn  // BUSY line, nil skips flow control
	Reset    gpio.PinOut // NRESET, optional
	DIO1     InterruptWaiter
	RFSwitch RFSwitch // optional antenna switch
	Chip     Chip
	TCXO     *TCXO // nil when the board uses a crystal
	// DIO2AsRFSwitch lets the chip drive the antenna switch from DIO2.
	DIO2AsRFSwitch bool
	Logger         LogPrintf
}

// RxConfig holds the reception parameters for the LoRa modem.
type RxConfig struct {
	SpreadingFactor SpreadingFactor
	Bandwidth       Bandwidth
	CodingRate      CodingRate
	PreambleLength  uint16 // symbols, the hardware adds 4 more
	SymbolTimeout   uint16 // single mode timeout [symbols]
	FixedLength     bool   // implicit header
	PayloadLength   uint8  // payload length when FixedLength is set
	CRCOn           bool
	// FreqHopOn and HopPeriod are accepted for API compatibility;
	// intra-packet frequency hopping is not implemented.
	FreqHopOn  bool
	HopPeriod  uint8
	IQInverted bool
	Continuous bool
}

// TxConfig holds the transmission parameters for the LoRa modem.
type TxConfig struct {
	Power           int8 // output power [dBm]
	SpreadingFactor SpreadingFactor
	Bandwidth       Bandwidth
	CodingRate      CodingRate
	PreambleLength  uint16
	FixedLength     bool
	CRCOn           bool
	// FreqHopOn and HopPeriod are accepted but ignored, see RxConfig.
	FreqHopOn  bool
	HopPeriod  uint8
	IQInverted bool
}

// Device wraps an SPI connection to a SX126x device.
type Device struct {
	spi            spi.Conn
	busy           gpio.PinIn
	resetPin       gpio.PinOut
	dio1           InterruptWaiter
	rfSwitch       RFSwitch
	chip           Chip
	tcxo           *TCXO
	dio2AsRFSwitch bool
	log            LogPrintf
	claim          string

	mode             RadioMode
	readiness        Readiness
	rxContinuous     bool
	maxPayloadLength uint8
	modulationParams *ModulationParams
	packetType       PacketType
	packetParams     *PacketParams
	packetStatus     *PacketStatus
	imageCalibrated  bool
}

var claims = struct {
	sync.Mutex
	buses map[string]bool
}{buses: map[string]bool{}}

// New creates a new SX126x device on an already configured SPI connection.
// The connection stays owned by the device until Close.
func New(bus spi.Conn, cfg Config) (*Device, error) {
	name := bus.String()
	claims.Lock()
	defer claims.Unlock()
	if claims.buses[name] {
		return nil, ErrBusClaimed
	}
	claims.buses[name] = true

	log := cfg.Logger
	if log == nil {
		log = func(format string, v ...interface{}) {}
	}
	return &Device{
		spi:              bus,
		busy:             cfg.Busy,
		resetPin:         cfg.Reset,
		dio1:             cfg.DIO1,
		rfSwitch:         cfg.RFSwitch,
		chip:             cfg.Chip,
		tcxo:             cfg.TCXO,
		dio2AsRFSwitch:   cfg.DIO2AsRFSwitch,
		log:              log,
		claim:            name,
		mode:             ModeSleep,
		maxPayloadLength: 0xFF,
		packetType:       PacketTypeLoRa,
	}, nil
}

// Open connects to port in SPI mode 0 at 8MHz and calls New.
func Open(port spi.Port, cfg Config) (*Device, error) {
	c, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return New(c, cfg)
}

// Close releases the SPI connection. The radio is left in its current mode.
func (d *Device) Close() error {
	claims.Lock()
	delete(claims.buses, d.claim)
	claims.Unlock()
	return nil
}

// Init runs the bring-up sequence. It stops at the first error.
func (d *Device) Init() error {
	if err := d.boardInit(); err != nil {
		return err
	}
	if err := d.setStandby(StandbyRC); err != nil {
		return err
	}
	if err := d.setRegulatorMode(RegulatorDCDC); err != nil {
		return err
	}
	if err := d.setBufferBaseAddress(0x00, 0x00); err != nil {
		return err
	}
	if err := d.setTxParams(0, Ramp200Us); err != nil {
		return err
	}
	if err := d.setDioIrqParams(IrqAll, IrqAll, IrqNone, IrqNone); err != nil {
		return err
	}
	if err := d.addRegisterToRetentionList(RegRxGain.Addr()); err != nil {
		return err
	}
	return d.addRegisterToRetentionList(RegTxModulation.Addr())
}

// GetStatus returns the radio state derived from the cached operating mode
func (d *Device) GetStatus() RadioState {
	switch d.operatingMode() {
	case ModeTransmit:
		return StateTxRunning
	case ModeReceive:
		return StateRxRunning
	case ModeChannelActivityDetection:
		return StateChannelActivityDetecting
	}
	return StateIdle
}

// Readiness returns the modem configuration state.
func (d *Device) Readiness() Readiness {
	return d.readiness
}

// SetLoRaModem selects the LoRa packet type and sets the sync word to
// 0x3444 (public network) or 0x1424 (private)
func (d *Device) SetLoRaModem(enablePublicNetwork bool) error {
	if err := d.setPacketType(PacketTypeLoRa); err != nil {
		return err
	}
	syncword := uint16(SX126X_LORA_MAC_PRIVATE_SYNCWORD)
	if enablePublicNetwork {
		syncword = SX126X_LORA_MAC_PUBLIC_SYNCWORD
	}
	return d.writeRegisters(RegLoRaSyncword, []uint8{uint8((syncword >> 8) & 0xFF), uint8(syncword & 0xFF)})
}

// SetChannel sets the channel frequency [Hz]
func (d *Device) SetChannel(frequency uint32) error {
	return d.setRfFrequency(frequency)
}

// GetRandomValue returns 32 random bits sampled from the RSSI after
// disabling all interrupts. The modem is left unconfigured: SetRxConfig or
// SetTxConfig must be called before the next TX, RX or CAD.
func (d *Device) GetRandomValue() (uint32, error) {
	if err := d.setDioIrqParams(IrqNone, IrqNone, IrqNone, IrqNone); err != nil {
		return 0, err
	}
	d.readiness = RandomPending
	return d.getRandom()
}

// SetRxConfig sets the reception parameters for the LoRa modem
func (d *Device) SetRxConfig(cfg RxConfig) error {
	symbTimeout := cfg.SymbolTimeout
	d.rxContinuous = cfg.Continuous
	if d.rxContinuous {
		symbTimeout = 0
	}
	if cfg.FixedLength {
		d.maxPayloadLength = cfg.PayloadLength
	} else {
		d.maxPayloadLength = 0xFF
	}

	if err := d.setStopRxTimerOnPreambleDetect(false); err != nil {
		return err
	}

	d.modulationParams = &ModulationParams{
		SpreadingFactor:     cfg.SpreadingFactor,
		Bandwidth:           cfg.Bandwidth,
		CodingRate:          cfg.CodingRate,
		LowDataRateOptimize: lowDataRateOptimize(cfg.SpreadingFactor, cfg.Bandwidth),
	}
	d.packetParams = &PacketParams{
		PreambleLength: effectivePreamble(cfg.SpreadingFactor, cfg.PreambleLength),
		ImplicitHeader: cfg.FixedLength,
		PayloadLength:  d.maxPayloadLength,
		CRCOn:          cfg.CRCOn,
		IQInverted:     cfg.IQInverted,
	}

	if err := d.Standby(); err != nil {
		return err
	}
	if err := d.setModulationParams(*d.modulationParams); err != nil {
		return err
	}
	if err := d.setPacketParams(*d.packetParams); err != nil {
		return err
	}
	if err := d.setLoRaSymbNumTimeout(symbTimeout); err != nil {
		return err
	}

	// Optimize the inverted IQ operation (DS_SX1261-2_V1.2 chapter 15.4)
	iq, err := d.readRegister(RegIQPolarity)
	if err != nil {
		return err
	}
	if cfg.IQInverted {
		iq &^= 1 << 2
	} else {
		iq |= 1 << 2
	}
	if err := d.writeRegister(RegIQPolarity, iq); err != nil {
		return err
	}
	d.readiness = ConfiguredRx
	return nil
}

// SetTxConfig sets the transmission parameters for the LoRa modem
func (d *Device) SetTxConfig(cfg TxConfig) error {
	d.modulationParams = &ModulationParams{
		SpreadingFactor:     cfg.SpreadingFactor,
		Bandwidth:           cfg.Bandwidth,
		CodingRate:          cfg.CodingRate,
		LowDataRateOptimize: lowDataRateOptimize(cfg.SpreadingFactor, cfg.Bandwidth),
	}
	d.packetParams = &PacketParams{
		PreambleLength: effectivePreamble(cfg.SpreadingFactor, cfg.PreambleLength),
		ImplicitHeader: cfg.FixedLength,
		PayloadLength:  d.maxPayloadLength,
		CRCOn:          cfg.CRCOn,
		IQInverted:     cfg.IQInverted,
	}

	if err := d.Standby(); err != nil {
		return err
	}
	if err := d.setModulationParams(*d.modulationParams); err != nil {
		return err
	}
	if err := d.setPacketParams(*d.packetParams); err != nil {
		return err
	}

	// Modulation quality with the 500 kHz bandwidth (DS_SX1261-2_V1.2 chapter 15.1)
	mod, err := d.readRegister(RegTxModulation)
	if err != nil {
		return err
	}
	if cfg.Bandwidth == Bandwidth500KHz {
		mod &^= 1 << 2
	} else {
		mod |= 1 << 2
	}
	if err := d.writeRegister(RegTxModulation, mod); err != nil {
		return err
	}

	if err := d.setRfTxPower(cfg.Power); err != nil {
		return err
	}
	d.readiness = ConfiguredTx
	return nil
}

// CheckRfFrequency reports whether frequency is supported by the hardware
func (d *Device) CheckRfFrequency(frequency uint32) (bool, error) {
	return d.checkRfFrequency(frequency), nil
}

// GetTimeOnAir computes the packet time on air in ms, see TimeOnAir
func (d *Device) GetTimeOnAir(sf SpreadingFactor, bw Bandwidth, cr CodingRate, preambleLength uint16,
	fixedLen bool, payloadLen uint8, crcOn bool) (uint32, error) {
	return TimeOnAir(sf, bw, cr, preambleLength, fixedLen, payloadLen, crcOn)
}

// Send starts the transmission of buffer [timeout in ms]. Completion is
// reported by ProcessIRQ.
func (d *Device) Send(buffer []byte, timeout uint32) error {
	if d.packetParams == nil {
		return ErrPacketParamsMissing
	}
	if d.readiness == RandomPending {
		return ErrModemNotConfigured
	}
	if len(buffer) > 0xFF {
		return ErrPayloadTooLarge
	}
	if err := d.setDioIrqParams(IrqTxDone|IrqRxTxTimeout, IrqTxDone|IrqRxTxTimeout, IrqNone, IrqNone); err != nil {
		return err
	}
	d.packetParams.PayloadLength = uint8(len(buffer))
	if err := d.setPacketParams(*d.packetParams); err != nil {
		return err
	}
	return d.sendPayload(buffer, timeout)
}

// Sleep puts the radio in warm start sleep mode
func (d *Device) Sleep() error {
	err := d.setSleep(SleepParams{WakeupRTC: false, Reset: false, WarmStart: true})
	if err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

// Standby puts the radio in RC standby mode
func (d *Device) Standby() error {
	return d.setStandby(StandbyRC)
}

// Rx puts the radio in reception mode [timeout in ms]. The timeout is
// ignored when the radio was configured for continuous reception and
// clamped to 262143 ms otherwise.
func (d *Device) Rx(timeout uint32) error {
	if d.readiness == RandomPending {
		return ErrModemNotConfigured
	}
	if err := d.setDioIrqParams(IrqAll, IrqAll, IrqNone, IrqNone); err != nil {
		return err
	}
	if d.rxContinuous {
		return d.setRx(SX126X_RX_CONTINUOUS)
	}
	return d.setRx(msToTicks(timeout))
}

// StartCAD starts a Channel Activity Detection
func (d *Device) StartCAD() error {
	if d.readiness == RandomPending {
		return ErrModemNotConfigured
	}
	mask := IrqCADDone | IrqCADActivityDetected
	if err := d.setDioIrqParams(mask, mask, IrqNone, IrqNone); err != nil {
		return err
	}
	return d.setCad()
}

// SetTxContinuousWave transmits an unmodulated carrier.
//   frequency  channel RF frequency [Hz]
//   power      output power [dBm]
//   timeout    accepted but not applied; call Standby to stop the carrier
func (d *Device) SetTxContinuousWave(frequency uint32, power int8, timeout uint16) error {
	if err := d.setRfFrequency(frequency); err != nil {
		return err
	}
	if err := d.setRfTxPower(power); err != nil {
		return err
	}
	return d.setTxContinuousWave()
}

// GetRssi reads the instantaneous RSSI [dBm]
func (d *Device) GetRssi() (int16, error) {
	return d.getRssiInst()
}

// WriteRegisters writes buffer to consecutive registers starting at reg
func (d *Device) WriteRegisters(reg Register, buffer []byte) error {
	return d.writeRegisters(reg, buffer)
}

// ReadRegisters fills buffer from consecutive registers starting at reg
func (d *Device) ReadRegisters(reg Register, buffer []byte) error {
	return d.readRegisters(reg, buffer)
}

// SetMaxPayloadLength sets the maximum payload length in bytes
func (d *Device) SetMaxPayloadLength(max uint8) error {
	if d.packetParams == nil {
		return ErrPacketParamsMissing
	}
	d.maxPayloadLength = max
	d.packetParams.PayloadLength = max
	return d.setPacketParams(*d.packetParams)
}

// GetWakeupTime returns the time the board plus radio need to leave sleep [ms]
func (d *Device) GetWakeupTime() uint32 {
	return d.tcxoWakeupTime() + SX126X_RADIO_WAKEUP_TIME
}

// SetRxBoosted is Rx with the LNA at maximum gain
func (d *Device) SetRxBoosted(timeout uint32) error {
	if d.readiness == RandomPending {
		return ErrModemNotConfigured
	}
	if err := d.setDioIrqParams(IrqAll, IrqAll, IrqNone, IrqNone); err != nil {
		return err
	}
	if d.rxContinuous {
		return d.setRxBoosted(SX126X_RX_CONTINUOUS)
	}
	return d.setRxBoosted(msToTicks(timeout))
}

// SetRxDutyCycle alternates reception and sleep, times in 15.625us ticks
func (d *Device) SetRxDutyCycle(rxTime, sleepTime uint32) error {
	return d.setRxDutyCycle(rxTime, sleepTime)
}

// GetLatestPacketStatus returns the status of the last packet received, if any
func (d *Device) GetLatestPacketStatus() (PacketStatus, bool) {
	if d.packetStatus == nil {
		return PacketStatus{}, false
	}
	return *d.packetStatus, true
}
