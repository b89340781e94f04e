package sx126x

// SX126x opcodes (DS_SX1261-2 chapter 11)
const (
	SX126X_CMD_NOP                          = 0x00
	SX126X_CMD_SET_SLEEP                    = 0x84
	SX126X_CMD_SET_STANDBY                  = 0x80
	SX126X_CMD_SET_FS                       = 0xC1
	SX126X_CMD_SET_TX                       = 0x83
	SX126X_CMD_SET_RX                       = 0x82
	SX126X_CMD_STOP_TIMER_ON_PREAMBLE       = 0x9F
	SX126X_CMD_SET_RX_DUTY_CYCLE            = 0x94
	SX126X_CMD_SET_CAD                      = 0xC5
	SX126X_CMD_SET_TX_CONTINUOUS_WAVE       = 0xD1
	SX126X_CMD_SET_TX_INFINITE_PREAMBLE     = 0xD2
	SX126X_CMD_SET_REGULATOR_MODE           = 0x96
	SX126X_CMD_CALIBRATE                    = 0x89
	SX126X_CMD_CALIBRATE_IMAGE              = 0x98
	SX126X_CMD_SET_PA_CONFIG                = 0x95
	SX126X_CMD_SET_RX_TX_FALLBACK_MODE      = 0x93
	SX126X_CMD_WRITE_REGISTER               = 0x0D
	SX126X_CMD_READ_REGISTER                = 0x1D
	SX126X_CMD_WRITE_BUFFER                 = 0x0E
	SX126X_CMD_READ_BUFFER                  = 0x1E
	SX126X_CMD_SET_DIO_IRQ_PARAMS           = 0x08
	SX126X_CMD_GET_IRQ_STATUS               = 0x12
	SX126X_CMD_CLEAR_IRQ_STATUS             = 0x02
	SX126X_CMD_SET_DIO2_AS_RF_SWITCH_CTRL   = 0x9D
	SX126X_CMD_SET_DIO3_AS_TCXO_CTRL        = 0x97
	SX126X_CMD_SET_RF_FREQUENCY             = 0x86
	SX126X_CMD_SET_PACKET_TYPE              = 0x8A
	SX126X_CMD_GET_PACKET_TYPE              = 0x11
	SX126X_CMD_SET_TX_PARAMS                = 0x8E
	SX126X_CMD_SET_MODULATION_PARAMS        = 0x8B
	SX126X_CMD_SET_PACKET_PARAMS            = 0x8C
	SX126X_CMD_SET_CAD_PARAMS               = 0x88
	SX126X_CMD_SET_BUFFER_BASE_ADDRESS      = 0x8F
	SX126X_CMD_SET_LORA_SYMB_NUM_TIMEOUT    = 0xA0
	SX126X_CMD_GET_STATUS                   = 0xC0
	SX126X_CMD_GET_RSSI_INST                = 0x15
	SX126X_CMD_GET_RX_BUFFER_STATUS         = 0x13
	SX126X_CMD_GET_PACKET_STATUS            = 0x14
	SX126X_CMD_GET_DEVICE_ERRORS            = 0x17
	SX126X_CMD_CLEAR_DEVICE_ERRORS          = 0x07
	SX126X_CMD_GET_STATS                    = 0x10
	SX126X_CMD_RESET_STATS                  = 0x00
)

// Register is a 16-bit SX126x register address.
type Register uint16

// Registers touched directly by the driver.
const (
	RegRetentionList   Register = 0x029F
	RegSynchTimeout    Register = 0x0706
	RegIQPolarity      Register = 0x0736
	RegLoRaSyncword    Register = 0x0740
	RegRandomNumberGen Register = 0x0819
	RegTxModulation    Register = 0x0889
	RegRxGain          Register = 0x08AC
	RegTxClampConfig   Register = 0x08D8
	RegAnaLNA          Register = 0x08E2
	RegAnaMixer        Register = 0x08E5
	RegOCP             Register = 0x08E7
	RegRTCCtrl         Register = 0x0902
	RegXTATrim         Register = 0x0911
	RegEvtClr          Register = 0x0944
)

// Addr returns the register address.
func (r Register) Addr() uint16 {
	return uint16(r)
}

const (
	SX126X_LORA_MAC_PUBLIC_SYNCWORD  = 0x3444
	SX126X_LORA_MAC_PRIVATE_SYNCWORD = 0x1424

	// RxGain value for boosted LNA gain
	SX126X_RX_GAIN_BOOSTED = 0x96

	// Rx timeout value selecting continuous reception
	SX126X_RX_CONTINUOUS = 0xFFFFFF

	// Maximum number of registers preserved across sleep
	SX126X_MAX_RETENTION_REGS = 4

	// Largest symbol count accepted by SetLoRaSymbNumTimeout
	SX126X_MAX_LORA_SYMB_NUM_TIMEOUT = 248

	// Radio wakeup time with margin for temperature compensation [ms]
	SX126X_RADIO_WAKEUP_TIME = 3

	SX126X_XTAL_FREQ = 32000000
)
