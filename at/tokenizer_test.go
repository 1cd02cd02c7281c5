package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/headsetctl/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Query with value line",
			input:    "AT.UIAUDIO=anc:on\r\nOK\r\n",
			expected: []string{"AT.UIAUDIO=anc:on", "OK"},
		},
		{
			name:     "Address response",
			input:    "8E:5D:79:E0:EE:5B\r\nOK\r\n",
			expected: []string{"8E:5D:79:E0:EE:5B", "OK"},
		},
		{
			name:     "Bare LF push",
			input:    "transparency=off\nOK\r\n",
			expected: []string{"transparency=off", "OK"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nOK\r\n\r\n",
			expected: []string{"", "", "OK", ""},
		},
		{
			name:     "Error only",
			input:    "ERROR\r\n",
			expected: []string{"ERROR"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete value at EOF",
			input:    "8E:5D:79:E0:EE:5B\r\nO",
			expected: []string{"8E:5D:79:E0:EE:5B", "O"},
		},
		{
			name:     "Command without CRLF at EOF",
			input:    "AT.VOLUME=up,1",
			expected: []string{"AT.VOLUME=up,1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "ERROR with code", input: "ERROR: 3", expected: at.TypeFinal},
		{name: "OK with trailing CR", input: "OK\r", expected: at.TypeFinal},

		// Mode pushes
		{name: "ANC on push", input: "anc:on", expected: at.TypeURC},
		{name: "Transparency off push", input: "transparency=off", expected: at.TypeURC},
		{name: "Echoed query reply", input: "AT.UIAUDIO=anc:on", expected: at.TypeURC},

		// Data responses
		{name: "Set command echo", input: "AT.UIAUDIO=anc,on", expected: at.TypeData},
		{name: "Address", input: "8E:5D:79:E0:EE:5B", expected: at.TypeData},
		{name: "Words containing OK", input: "OKAY", expected: at.TypeData},
		{name: "Unknown marker", input: "anc:maybe", expected: at.TypeData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestTerminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		final string
		ok    bool
	}{
		{name: "Empty", input: "", ok: false},
		{name: "Partial OK", input: "O", ok: false},
		{name: "OK without line ending", input: "8E:5D:79:E0:EE:5B\r\nOK", final: "OK", ok: true},
		{name: "ERROR without line ending", input: "ERROR", final: "ERROR", ok: true},
		{name: "Trailing partial line", input: "8E:5D:79:E0:EE:5B\r\nOKA", ok: false},
		{name: "OK complete", input: "8E:5D:79:E0:EE:5B\r\nOK\r\n", final: "OK", ok: true},
		{name: "ERROR complete", input: "ERROR\r\n", final: "ERROR", ok: true},
		{name: "ERROR with code", input: "ERROR: 12\r\n", final: "ERROR: 12", ok: true},
		{name: "OK inside value", input: "name:BOOKOK\r\n", ok: false},
		{name: "Bare LF", input: "OK\n", final: "OK", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, ok := at.Terminated(tt.input)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v for %q", tt.ok, ok, tt.input)
			}
			if final != tt.final {
				t.Errorf("Expected final %q, got %q", tt.final, final)
			}
		})
	}
}

func TestSucceeded(t *testing.T) {
	if !at.Succeeded("anc:on\r\nOK\r\n") {
		t.Error("Expected OK response to succeed")
	}
	if at.Succeeded("ERROR\r\n") {
		t.Error("Expected ERROR response to fail")
	}
	if !at.Succeeded("8E:5D:79:E0:EE:5B\r\nOK") {
		t.Error("Expected OK without line ending to succeed")
	}
	if at.Succeeded("OKAY") {
		t.Error("Expected unterminated data to fail")
	}
}

func TestFrame(t *testing.T) {
	if got := at.Frame("AT.BLUETOOTH=localaddr"); got != "AT.BLUETOOTH=localaddr\r\n" {
		t.Errorf("Frame appended wrong terminator: %q", got)
	}
	if got := at.Frame("AT.BLUETOOTH=localaddr\r\n"); got != "AT.BLUETOOTH=localaddr\r\n" {
		t.Errorf("Frame doubled terminator: %q", got)
	}
}
