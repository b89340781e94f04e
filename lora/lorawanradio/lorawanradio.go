// Package lorawanradio drives a SX126x on behalf of the go-lorawan-stack
// LoRaWAN implementation.
//
// The stack configures the modem through setters that cannot fail and then
// calls LoraTx or LoraRx, so the settings are cached here and pushed to the
// radio at the start of every exchange.
package lorawanradio

import (
	"context"
	"errors"
	"time"

	lorawan "github.com/ofauchon/go-lorawan-stack"

	"github.com/ofauchon/lora-drivers/lora/sx126x"
)

var _ lorawan.LoraRadio = (*Radio)(nil)

// Extra time granted to ProcessIRQ beyond the radio timeout.
const irqMargin = 500 * time.Millisecond

// Config holds the defaults applied before the stack changes anything.
type Config struct {
	Frequency       uint32 // [Hz]
	Power           int8   // [dBm]
	SpreadingFactor sx126x.SpreadingFactor
	Bandwidth       sx126x.Bandwidth
	CodingRate      sx126x.CodingRate
	PreambleLength  uint16
	PublicNetwork   bool
	Logger          sx126x.LogPrintf
}

// DefaultConfig is EU868 DR5 on the first join channel.
var DefaultConfig = Config{
	Frequency:       868100000,
	Power:           14,
	SpreadingFactor: sx126x.SF7,
	Bandwidth:       sx126x.Bandwidth125KHz,
	CodingRate:      sx126x.CodingRate4_5,
	PreambleLength:  8,
	PublicNetwork:   true,
}

// Radio implements lorawan.LoraRadio on top of a sx126x.Device.
type Radio struct {
	dev *sx126x.Device
	log sx126x.LogPrintf

	frequency  uint32
	power      int8
	sf         sx126x.SpreadingFactor
	bw         sx126x.Bandwidth
	cr         sx126x.CodingRate
	preamble   uint16
	crc        bool
	iqInverted bool

	rxBuf [255]byte
}

// New selects the LoRa modem on dev with the configured sync word. dev must
// already be initialised.
func New(dev *sx126x.Device, cfg Config) (*Radio, error) {
	if err := dev.SetLoRaModem(cfg.PublicNetwork); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = func(format string, v ...interface{}) {}
	}
	return &Radio{
		dev:       dev,
		log:       log,
		frequency: cfg.Frequency,
		power:     cfg.Power,
		sf:        cfg.SpreadingFactor,
		bw:        cfg.Bandwidth,
		cr:        cfg.CodingRate,
		preamble:  cfg.PreambleLength,
		crc:       true,
	}, nil
}

// LoraTx sends pkt and waits for TxDone.
func (r *Radio) LoraTx(pkt []uint8, timeoutSec uint8) error {
	if err := r.dev.SetChannel(r.frequency); err != nil {
		return err
	}
	err := r.dev.SetTxConfig(sx126x.TxConfig{
		Power:           r.power,
		SpreadingFactor: r.sf,
		Bandwidth:       r.bw,
		CodingRate:      r.cr,
		PreambleLength:  r.preamble,
		CRCOn:           r.crc,
		IQInverted:      r.iqInverted,
	})
	if err != nil {
		return err
	}
	if err := r.dev.Send(pkt, uint32(timeoutSec)*1000); err != nil {
		return err
	}

	ctx, cancel := r.irqContext(timeoutSec)
	defer cancel()
	if _, err := r.dev.ProcessIRQ(ctx, nil); err != nil {
		return r.abort(err)
	}
	r.log("lorawanradio: sent %d bytes on %d Hz", len(pkt), r.frequency)
	return nil
}

// LoraRx listens for one frame. A timeout or a corrupted frame is reported
// as (nil, nil) so the stack can retry.
func (r *Radio) LoraRx(timeoutSec uint8) ([]uint8, error) {
	if err := r.dev.SetChannel(r.frequency); err != nil {
		return nil, err
	}
	err := r.dev.SetRxConfig(sx126x.RxConfig{
		SpreadingFactor: r.sf,
		Bandwidth:       r.bw,
		CodingRate:      r.cr,
		PreambleLength:  r.preamble,
		CRCOn:           r.crc,
		IQInverted:      r.iqInverted,
	})
	if err != nil {
		return nil, err
	}
	if err := r.dev.Rx(uint32(timeoutSec) * 1000); err != nil {
		return nil, err
	}

	ctx, cancel := r.irqContext(timeoutSec)
	defer cancel()
	ev, err := r.dev.ProcessIRQ(ctx, r.rxBuf[:])
	switch {
	case err == nil:
	case errors.Is(err, sx126x.ErrReceiveTimeout):
		return nil, nil
	case errors.Is(err, sx126x.ErrHeaderError), errors.Is(err, sx126x.ErrCRCErrorOnReceive):
		r.log("lorawanradio: dropped frame: %v", err)
		return nil, nil
	default:
		return nil, r.abort(err)
	}

	pkt := make([]uint8, len(ev.EventData))
	copy(pkt, ev.EventData)
	if st, ok := r.dev.GetLatestPacketStatus(); ok {
		r.log("lorawanradio: received %d bytes, rssi %d dBm, snr %d dB", len(pkt), st.RSSI, st.SNR)
	}
	return pkt, nil
}

func (r *Radio) irqContext(timeoutSec uint8) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second+irqMargin)
}

// abort puts the radio back in standby after a failed exchange.
func (r *Radio) abort(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		if serr := r.dev.Standby(); serr != nil {
			r.log("lorawanradio: standby: %v", serr)
		}
	}
	return err
}

func (r *Radio) SetLoraFrequency(freq uint32) {
	r.frequency = freq
}

// SetLoraIqMode selects normal (0) or inverted (1) IQ.
func (r *Radio) SetLoraIqMode(mode uint8) {
	r.iqInverted = mode != 0
}

// SetLoraCodingRate takes the denominator offset, 1 for 4/5 up to 4 for 4/8.
func (r *Radio) SetLoraCodingRate(cr uint8) {
	r.cr = sx126x.CodingRate(cr)
}

// SetLoraBandwidth takes a sx126x bandwidth code.
func (r *Radio) SetLoraBandwidth(bw uint8) {
	r.bw = sx126x.Bandwidth(bw)
}

func (r *Radio) SetLoraCrc(enable bool) {
	r.crc = enable
}

func (r *Radio) SetLoraSpreadingFactor(sf uint8) {
	r.sf = sx126x.SpreadingFactor(sf)
}

// SetLoraTxPower sets the output power [dBm] used by the next LoraTx.
func (r *Radio) SetLoraTxPower(power int8) {
	r.power = power
}
