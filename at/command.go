package at

import (
	"fmt"
	"net"
	"strings"
	"unicode"
)

// Set builds a set-form command: AT.<SUBSYSTEM>=<key>,<value>.
func Set(subsystem, key, value string) string {
	return fmt.Sprintf("%s=%s,%s", subsystem, key, value)
}

// Query builds a query-form command: AT.<SUBSYSTEM>=<key>.
func Query(subsystem, key string) string {
	return fmt.Sprintf("%s=%s", subsystem, key)
}

// Switch builds the command turning a UIAUDIO topic on or off.
func Switch(topic string, enabled bool) string {
	value := Off
	if enabled {
		value = On
	}
	return Set(UIAudio, topic, value)
}

// QueryTopic builds the status query for a UIAUDIO topic.
func QueryTopic(topic string) string {
	return Query(UIAudio, topic)
}

// AdjustVolume builds a relative volume change, e.g. AT.VOLUME=up,2.
func AdjustVolume(direction string, steps int) string {
	return fmt.Sprintf("%s=%s,%d", Volume, direction, steps)
}

// SetName builds the command advertising a custom device name.
func SetName(name string) string {
	return Set(Bluetooth, KeyCustomName, name)
}

// ResetName builds the command restoring the factory device name.
func ResetName() string {
	return Query(Bluetooth, KeyDefaultName)
}

// LocalAddr builds the hardware address query.
func LocalAddr() string {
	return Query(Bluetooth, KeyLocalAddr)
}

// ValidName reports whether name can be carried in a single command line.
func ValidName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Notification is a mode report carried by a single line, either pushed by
// the headset or returned by a status query.
type Notification struct {
	Topic   string
	Enabled bool
}

// ParseNotification recognises "<topic>:<on|off>" and "<topic>=<on|off>"
// anywhere in line. Command echoes such as "AT.UIAUDIO=anc,on" do not match.
func ParseNotification(line string) (Notification, bool) {
	for _, topic := range []string{TopicANC, TopicTransparency} {
		rest := line
		for {
			i := strings.Index(rest, topic)
			if i < 0 {
				break
			}
			rest = rest[i+len(topic):]
			if enabled, ok := switchValue(rest); ok {
				return Notification{Topic: topic, Enabled: enabled}, true
			}
		}
	}
	return Notification{}, false
}

func switchValue(s string) (enabled, ok bool) {
	s = strings.TrimLeft(s, " ")
	if s == "" || (s[0] != ':' && s[0] != '=') {
		return false, false
	}
	s = strings.TrimLeft(s[1:], " ")
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end >= 0 {
		s = s[:end]
	}
	switch strings.ToLower(s) {
	case On:
		return true, true
	case Off:
		return false, true
	}
	return false, false
}

// ReportsOn reports whether a query response states that topic is on.
// Lines that report the other topic, such as a push interleaved with the
// reply, are ignored. A response with no recognisable report counts as off.
func ReportsOn(response, topic string) bool {
	lines := Lines(response)
	for _, line := range lines {
		if n, ok := ParseNotification(line); ok && n.Topic == topic {
			return n.Enabled
		}
	}
	for _, line := range lines {
		if namesOtherTopic(line, topic) {
			continue
		}
		for _, marker := range onMarkers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}

func namesOtherTopic(line, topic string) bool {
	for _, t := range []string{TopicANC, TopicTransparency} {
		if t != topic && strings.Contains(line, t) {
			return true
		}
	}
	return false
}

// addressLen is the length of a colon-delimited 48-bit address.
const addressLen = len("00:00:00:00:00:00")

// ParseAddress extracts the hardware address line from a localaddr response.
func ParseAddress(response string) (string, bool) {
	for _, line := range Lines(response) {
		if len(line) != addressLen || !strings.Contains(line, ":") {
			continue
		}
		if _, err := net.ParseMAC(line); err == nil {
			return line, true
		}
	}
	return "", false
}
