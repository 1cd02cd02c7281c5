//go:build !linux

package headset

import (
	"context"
	"errors"
)

// RFCOMMDialer needs AF_BLUETOOTH sockets and is only available on Linux.
// Use SerialDialer with a bound rfcomm port elsewhere.
type RFCOMMDialer struct {
	Address string
	Channel uint8
}

func (d RFCOMMDialer) Dial(context.Context) (Transport, error) {
	return nil, &OpenError{Channel: d.Channel, Code: -1, Err: errors.ErrUnsupported}
}
