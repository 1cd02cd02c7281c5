//go:build linux

package headset

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// RFCOMMDialer connects an AF_BLUETOOTH stream socket to the headset's
// RFCOMM channel.
type RFCOMMDialer struct {
	Address string
	Channel uint8
}

func (d RFCOMMDialer) Dial(ctx context.Context) (Transport, error) {
	addr, err := bdaddr(d.Address)
	if err != nil {
		return nil, &OpenError{Channel: d.Channel, Code: -1, Err: err}
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, d.openError(fmt.Errorf("socket: %w", err))
	}

	connected := make(chan error, 1)
	go func() {
		connected <- unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: addr, Channel: d.Channel})
	}()

	select {
	case err = <-connected:
	case <-ctx.Done():
		// Shutdown aborts the blocking connect.
		_ = unix.Shutdown(fd, unix.SHUT_RDWR)
		<-connected
		_ = unix.Close(fd)
		return nil, ctx.Err()
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, d.openError(fmt.Errorf("connect %s: %w", d.Address, err))
	}

	// A non-blocking descriptor lets os.File use the runtime poller, so
	// Close unblocks a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, d.openError(fmt.Errorf("set nonblock: %w", err))
	}
	return os.NewFile(uintptr(fd), "rfcomm:"+d.Address), nil
}

func (d RFCOMMDialer) openError(err error) error {
	return newOpenError(d.Channel, err)
}

// bdaddr converts "8E:5D:79:E0:EE:5B" to the little-endian byte order the
// kernel expects.
func bdaddr(address string) ([6]uint8, error) {
	var out [6]uint8
	mac, err := net.ParseMAC(address)
	if err != nil || len(mac) != len(out) {
		return out, fmt.Errorf("invalid bluetooth address %q", address)
	}
	for i := range out {
		out[i] = mac[len(mac)-1-i]
	}
	return out, nil
}
