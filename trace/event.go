package trace

import (
	"time"
)

// Event represents one protocol trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the connection (UUID). Empty for events
	// recorded while disconnected.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow for frames and exchanges.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Device is the Bluetooth address of the headset.
	Device string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame        *FrameEvent        `cbor:"10,keyasint,omitempty"`
	Exchange     *ExchangeEvent     `cbor:"11,keyasint,omitempty"`
	Notification *NotificationEvent `cbor:"12,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"13,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data read from the headset.
	DirectionIn Direction = 0
	// DirectionOut indicates data written to the headset.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame is a raw chunk as it crossed the channel.
	CategoryFrame Category = 0
	// CategoryExchange is a command together with its terminated response.
	CategoryExchange Category = 1
	// CategoryNotification is a mode push recognised in inbound data.
	CategoryNotification Category = 2
	// CategoryState is a connection or mode state change.
	CategoryState Category = 3
	// CategoryError is an error at any point of the session.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryExchange:
		return "EXCHANGE"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory maps a category name (as returned by String) back to a
// Category. Matching is exact.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryFrame; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// MaxFrameData is the number of payload bytes kept per frame event.
const MaxFrameData = 512

// FrameEvent captures raw bytes on the channel.
type FrameEvent struct {
	// Size is the chunk size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw chunk (truncated to MaxFrameData).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrame builds a FrameEvent, truncating data to MaxFrameData.
func NewFrame(data []byte) *FrameEvent {
	f := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameData {
		data = data[:MaxFrameData]
		f.Truncated = true
	}
	f.Data = append([]byte(nil), data...)
	return f
}

// ExchangeEvent captures one completed command exchange.
type ExchangeEvent struct {
	// Command is the instruction as written, without line terminator.
	Command string `cbor:"1,keyasint"`

	// Response is the accumulated response text (empty on failure).
	Response string `cbor:"2,keyasint,omitempty"`

	// Final is the terminator line, e.g. OK or ERROR.
	Final string `cbor:"3,keyasint,omitempty"`

	// Duration from write to completion. Stored as nanoseconds.
	Duration time.Duration `cbor:"4,keyasint"`

	// Err is set when the exchange did not end with a terminator.
	Err string `cbor:"5,keyasint,omitempty"`
}

// NotificationEvent captures a mode push.
type NotificationEvent struct {
	Topic   string `cbor:"1,keyasint"`
	Enabled bool   `cbor:"2,keyasint"`
	Line    string `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection and mode transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	StateEntityConnection   StateEntity = 0
	StateEntityANC          StateEntity = 1
	StateEntityTransparency StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityANC:
		return "ANC"
	case StateEntityTransparency:
		return "TRANSPARENCY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the adapter status code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
