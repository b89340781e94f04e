package sx126x

import (
	"errors"
	"fmt"
)

var (
	ErrPacketParamsMissing   = errors.New("sx126x: packet parameters missing")
	ErrInvalidBandwidth      = errors.New("sx126x: invalid bandwidth")
	ErrRetentionListExceeded = errors.New("sx126x: retention list exceeded")
	ErrPayloadSizeMismatch   = errors.New("sx126x: payload larger than receive buffer")
	ErrPayloadTooLarge       = errors.New("sx126x: payload longer than 255 bytes")
	ErrModemNotConfigured    = errors.New("sx126x: modem not configured, call SetRxConfig or SetTxConfig")
	ErrBusyTimeout           = errors.New("sx126x: busy line timeout")
	ErrBusClaimed            = errors.New("sx126x: bus already owned by another device")
	ErrNoInterruptWaiter     = errors.New("sx126x: no DIO1 waiter configured")

	ErrHeaderError            = errors.New("sx126x: header error")
	ErrCRCErrorOnReceive      = errors.New("sx126x: crc error on receive")
	ErrCRCErrorUnexpected     = errors.New("sx126x: unexpected crc error")
	ErrReceiveTimeout         = errors.New("sx126x: receive timeout")
	ErrTransmitTimeout        = errors.New("sx126x: transmit timeout")
	ErrTimeoutUnexpected      = errors.New("sx126x: unexpected timeout")
	ErrTransmitDoneUnexpected = errors.New("sx126x: unexpected transmit done")
	ErrReceiveDoneUnexpected  = errors.New("sx126x: unexpected receive done")
	ErrCADUnexpected          = errors.New("sx126x: unexpected channel activity detection")
)

// BusError reports a failed SPI transaction or BUSY wait.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("sx126x: %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// InterruptError reports a failure while waiting on DIO1.
type InterruptError struct {
	Err error
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("sx126x: dio1 wait: %v", e.Err)
}

func (e *InterruptError) Unwrap() error {
	return e.Err
}
