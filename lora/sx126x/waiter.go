package sx126x

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// InterruptWaiter suspends until the radio interrupt line (DIO1) is high.
type InterruptWaiter interface {
	WaitForHigh(ctx context.Context) error
}

// PinWaiter waits on a periph GPIO input. The pin must have been configured
// with edge detection, e.g. pin.In(gpio.PullDown, gpio.RisingEdge).
type PinWaiter struct {
	Pin gpio.PinIn
	// Slice bounds each WaitForEdge call so cancellation is observed; zero
	// means 100ms.
	Slice time.Duration
}

// NewPinWaiter configures pin for rising edges and returns a waiter on it.
func NewPinWaiter(pin gpio.PinIn) (*PinWaiter, error) {
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, err
	}
	return &PinWaiter{Pin: pin}, nil
}

func (w *PinWaiter) WaitForHigh(ctx context.Context) error {
	slice := w.Slice
	if slice <= 0 {
		slice = 100 * time.Millisecond
	}
	for w.Pin.Read() != gpio.High {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if w.Pin.WaitForEdge(slice) && w.Pin.Read() == gpio.High {
			return nil
		}
	}
	return nil
}
