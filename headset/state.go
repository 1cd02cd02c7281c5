package headset

import (
	"fmt"

	"i4.energy/across/headsetctl/at"
)

// ConnState is the lifecycle state of the RFCOMM channel.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}

// MarshalText renders the state name, so ConnState reads well in JSON.
func (s ConnState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mode is one of the two mutually exclusive listening modes.
type Mode int

const (
	ModeANC Mode = iota
	ModeTransparency
)

func (m Mode) String() string {
	return m.topic()
}

func (m Mode) topic() string {
	if m == ModeTransparency {
		return at.TopicTransparency
	}
	return at.TopicANC
}

func (m Mode) other() Mode {
	if m == ModeTransparency {
		return ModeANC
	}
	return ModeTransparency
}

func modeForTopic(topic string) (Mode, bool) {
	switch topic {
	case at.TopicANC:
		return ModeANC, true
	case at.TopicTransparency:
		return ModeTransparency, true
	}
	return 0, false
}

// State is an immutable snapshot of the session. ANC and Transparency are
// never both true.
type State struct {
	Conn         ConnState `json:"connection"`
	ANC          bool      `json:"anc"`
	Transparency bool      `json:"transparency"`
}

func (s State) Connected() bool {
	return s.Conn == Connected
}

func (s State) enabled(m Mode) bool {
	if m == ModeTransparency {
		return s.Transparency
	}
	return s.ANC
}

// VolumeDirection selects a relative volume change.
type VolumeDirection string

const (
	VolumeUp   VolumeDirection = at.Up
	VolumeDown VolumeDirection = at.Down
)

// ParseVolumeDirection accepts "up" or "down".
func ParseVolumeDirection(s string) (VolumeDirection, error) {
	switch d := VolumeDirection(s); d {
	case VolumeUp, VolumeDown:
		return d, nil
	}
	return "", fmt.Errorf("%w: volume direction %q", ErrInvalidArgument, s)
}
