package headset

import (
	"context"
	"errors"

	"go.bug.st/serial"
)

// SerialDialer opens an rfcomm tty, e.g. /dev/rfcomm0 bound with
// "rfcomm bind 0 <address> 9".
type SerialDialer struct {
	Port     string
	BaudRate int
	Channel  uint8
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.Open(d.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		code := -1
		var portErr *serial.PortError
		if errors.As(err, &portErr) {
			code = int(portErr.Code())
		}
		return nil, &OpenError{Channel: d.Channel, Code: code, Err: err}
	}
	return port, nil
}
