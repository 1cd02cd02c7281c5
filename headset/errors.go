package headset

import (
	"errors"
	"fmt"
	"syscall"
)

// AddressUnknown is returned by BluetoothAddress when the headset answered
// but no hardware address could be parsed from the response.
const AddressUnknown = "Unknown"

var (
	// ErrNoDialer is returned when a Session is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// open the RFCOMM channel to the headset.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNoLocator is returned when a Session is constructed without a
	// DeviceLocator.
	ErrNoLocator = errors.New("no device locator configured")

	// ErrLoopRunning is returned when Loop is called more than once.
	ErrLoopRunning = errors.New("session loop already running")

	// ErrClosed is returned by every operation once the session loop has
	// exited.
	ErrClosed = errors.New("session closed")

	// ErrDeviceNotFound is returned by Connect when the configured address
	// is not known to the Bluetooth stack.
	//
	// It is terminal for that Connect call. The session stays disconnected
	// and does not retry on its own.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrChannelOpenFailed is matched by every *OpenError.
	ErrChannelOpenFailed = errors.New("channel open failed")

	// ErrConnectAborted is returned by Connect when Disconnect was called
	// while the channel was still being opened.
	ErrConnectAborted = errors.New("connect aborted")

	// ErrAlreadyConnected is returned by Connect while a connection is being
	// established or is already up.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrNotConnected is returned when a command is issued without an open
	// channel, and resolves any exchange still pending when the channel
	// closes.
	ErrNotConnected = errors.New("not connected")

	// ErrWriteFailed wraps the transport error when a command could not be
	// written. The session stays connected.
	ErrWriteFailed = errors.New("write failed")

	// ErrExchangePending is returned when a command is issued while another
	// one is still waiting for its response. Commands are never queued.
	ErrExchangePending = errors.New("exchange already pending")

	// ErrExchangeTimeout resolves an exchange whose response did not
	// terminate within the configured exchange timeout.
	ErrExchangeTimeout = errors.New("exchange timed out")

	// ErrResponseTooLong resolves an exchange whose response grew beyond the
	// configured maximum without a terminator line.
	//
	// This typically indicates a framing error or a stream of unexpected
	// binary data.
	ErrResponseTooLong = errors.New("response too long")

	// ErrCommandRejected is returned by auxiliary commands when the headset
	// answered ERROR.
	ErrCommandRejected = errors.New("command rejected by headset")

	// ErrInvalidArgument is returned for malformed caller input such as an
	// empty device name or a non-positive volume step.
	ErrInvalidArgument = errors.New("invalid argument")
)

// OpenError reports a failure to open the RFCOMM channel. It matches
// ErrChannelOpenFailed with errors.Is and unwraps to the adapter error.
type OpenError struct {
	Channel uint8
	// Code is the adapter status code, or -1 when the adapter gave none.
	Code int
	Err  error
}

func (e *OpenError) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("open channel %d: %v (status %d)", e.Channel, e.Err, e.Code)
	}
	return fmt.Sprintf("open channel %d: %v", e.Channel, e.Err)
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrChannelOpenFailed, e.Err}
}

// newOpenError wraps a dial failure. An *OpenError produced by the dialer
// itself is kept; otherwise the status code is taken from a syscall.Errno
// in the chain.
func newOpenError(channel uint8, err error) *OpenError {
	var oe *OpenError
	if errors.As(err, &oe) {
		return oe
	}
	code := -1
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = int(errno)
	}
	return &OpenError{Channel: channel, Code: code, Err: err}
}
