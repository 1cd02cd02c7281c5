package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// Subsystems
	UIAudio   = "AT.UIAUDIO"
	Volume    = "AT.VOLUME"
	Bluetooth = "AT.BLUETOOTH"

	// UIAUDIO topics. They double as the keywords of unsolicited pushes.
	TopicANC          = "anc"
	TopicTransparency = "transparency"

	// BLUETOOTH keys
	KeyCustomName  = "advcustomname"
	KeyDefaultName = "advdefaultname"
	KeyLocalAddr   = "localaddr"

	// Switch values
	On  = "on"
	Off = "off"

	// Volume directions
	Up   = "up"
	Down = "down"
)

// Markers introducing an "on" value in query replies, e.g. "anc:on".
var onMarkers = []string{":" + On, "=" + On}

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR
	TypeURC                       // Unsolicited mode pushes (anc:on, transparency=off)
	TypeData                      // Intermediate command output (8E:5D:79:E0:EE:5B)
)

// String returns a short name for the response type.
func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	default:
		return "unknown"
	}
}
