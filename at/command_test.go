package at_test

import (
	"testing"

	"i4.energy/across/headsetctl/at"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "ANC on", got: at.Switch(at.TopicANC, true), expected: "AT.UIAUDIO=anc,on"},
		{name: "ANC off", got: at.Switch(at.TopicANC, false), expected: "AT.UIAUDIO=anc,off"},
		{name: "Transparency on", got: at.Switch(at.TopicTransparency, true), expected: "AT.UIAUDIO=transparency,on"},
		{name: "ANC query", got: at.QueryTopic(at.TopicANC), expected: "AT.UIAUDIO=anc"},
		{name: "Transparency query", got: at.QueryTopic(at.TopicTransparency), expected: "AT.UIAUDIO=transparency"},
		{name: "Volume up", got: at.AdjustVolume(at.Up, 2), expected: "AT.VOLUME=up,2"},
		{name: "Volume down", got: at.AdjustVolume(at.Down, 1), expected: "AT.VOLUME=down,1"},
		{name: "Custom name", got: at.SetName("Desk Cans"), expected: "AT.BLUETOOTH=advcustomname,Desk Cans"},
		{name: "Default name", got: at.ResetName(), expected: "AT.BLUETOOTH=advdefaultname"},
		{name: "Local address", got: at.LocalAddr(), expected: "AT.BLUETOOTH=localaddr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "Plain", input: "Crusher", valid: true},
		{name: "With spaces", input: "Living Room", valid: true},
		{name: "Empty", input: "", valid: false},
		{name: "Blank", input: "   ", valid: false},
		{name: "Embedded CRLF", input: "x\r\nAT.VOLUME=up,9", valid: false},
		{name: "Tab", input: "a\tb", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.ValidName(tt.input); got != tt.valid {
				t.Errorf("ValidName(%q) = %v, expected %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ok      bool
		topic   string
		enabled bool
	}{
		{name: "ANC colon on", input: "anc:on", ok: true, topic: at.TopicANC, enabled: true},
		{name: "ANC equals off", input: "anc=off", ok: true, topic: at.TopicANC, enabled: false},
		{name: "Transparency colon on", input: "transparency:on", ok: true, topic: at.TopicTransparency, enabled: true},
		{name: "Prefixed query reply", input: "AT.UIAUDIO=anc:on", ok: true, topic: at.TopicANC, enabled: true},
		{name: "Spaces around marker", input: "anc : off", ok: true, topic: at.TopicANC, enabled: false},
		{name: "Upper-case value", input: "transparency=ON", ok: true, topic: at.TopicTransparency, enabled: true},
		{name: "Set command echo", input: "AT.UIAUDIO=anc,on", ok: false},
		{name: "Query command echo", input: "AT.UIAUDIO=transparency", ok: false},
		{name: "Unknown value", input: "anc:auto", ok: false},
		{name: "Value prefix only", input: "anc:onward", ok: false},
		{name: "Unknown topic", input: "eq:on", ok: false},
		{name: "Terminator", input: "OK", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := at.ParseNotification(tt.input)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v for %q", tt.ok, ok, tt.input)
			}
			if !ok {
				return
			}
			if n.Topic != tt.topic || n.Enabled != tt.enabled {
				t.Errorf("Expected %s=%v, got %s=%v", tt.topic, tt.enabled, n.Topic, n.Enabled)
			}
		})
	}
}

func TestReportsOn(t *testing.T) {
	tests := []struct {
		name     string
		response string
		topic    string
		expected bool
	}{
		{name: "ANC on", response: "AT.UIAUDIO=anc:on\r\nOK\r\n", topic: at.TopicANC, expected: true},
		{name: "ANC off", response: "AT.UIAUDIO=anc:off\r\nOK\r\n", topic: at.TopicANC, expected: false},
		{name: "Bare marker", response: ":on\r\nOK\r\n", topic: at.TopicTransparency, expected: true},
		{name: "No report", response: "OK\r\n", topic: at.TopicANC, expected: false},
		{name: "Transparency off", response: "transparency:off\r\nOK\r\n", topic: at.TopicTransparency, expected: false},
		{name: "Other topic pushed into reply", response: "anc:on\r\nOK\r\n", topic: at.TopicTransparency, expected: false},
		{name: "Other topic with unparsed value", response: "AT.UIAUDIO=anc:on,1\r\nOK\r\n", topic: at.TopicTransparency, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.ReportsOn(tt.response, tt.topic); got != tt.expected {
				t.Errorf("ReportsOn(%q) = %v, expected %v", tt.response, got, tt.expected)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
		ok       bool
	}{
		{name: "Value then OK", response: "8E:5D:79:E0:EE:5B\r\nOK\r\n", expected: "8E:5D:79:E0:EE:5B", ok: true},
		{name: "Echo before value", response: "AT.BLUETOOTH=localaddr\r\n8e:5d:79:e0:ee:5b\r\nOK\r\n", expected: "8e:5d:79:e0:ee:5b", ok: true},
		{name: "Wrong length", response: "8E:5D:79:E0:EE\r\nOK\r\n", ok: false},
		{name: "Seventeen chars but not hex", response: "ZZ:5D:79:E0:EE:5B\r\nOK\r\n", ok: false},
		{name: "Only OK", response: "OK\r\n", ok: false},
		{name: "Error", response: "ERROR\r\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok := at.ParseAddress(tt.response)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if addr != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, addr)
			}
		})
	}
}
