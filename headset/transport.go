package headset

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=headset

import (
	"context"
	"io"
)

// Transport represents an open RFCOMM channel to the headset.
//
// A Transport is assumed to be connected and ready for use. Read must block
// until data arrives and must return an error once the channel is closed,
// including when Close is called from another goroutine. Typical
// implementations are an RFCOMM socket, an rfcomm tty, or in-memory fakes
// used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens the RFCOMM channel.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may block and
	// should respect cancellation and deadlines provided by the context.
	// Failures should carry the adapter status code, either as an
	// *OpenError or as a syscall.Errno in the error chain.
	Dial(ctx context.Context) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) {
	return f(ctx)
}

// Device describes the headset as known to the Bluetooth stack.
type Device struct {
	Address   string
	Name      string
	Paired    bool
	Connected bool
}

// DeviceLocator resolves the fixed headset address before a channel is
// opened.
type DeviceLocator interface {
	// Lookup returns the device or an error when the address is unknown.
	Lookup(ctx context.Context, address string) (Device, error)
}

// LinkWatcher reports loss of the baseband link independently of the
// RFCOMM channel, which on some stacks stays silently open after the radio
// drops.
type LinkWatcher interface {
	// WatchLink blocks until ctx is done, calling onLost each time the link
	// to address goes down.
	WatchLink(ctx context.Context, address string, onLost func()) error
}

// StaticLocator accepts any address. It serves setups where the channel is
// reached through a bound rfcomm tty and no BlueZ lookup is possible.
type StaticLocator struct {
	Name string
}

func (l StaticLocator) Lookup(_ context.Context, address string) (Device, error) {
	return Device{Address: address, Name: l.Name, Paired: true}, nil
}
