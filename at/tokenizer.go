package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing headset output. It uses the signature of
// bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// Lines end with CRLF. A bare LF is accepted as well because some firmware
// revisions emit it for unsolicited pushes.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[0:i], []byte("\r")), nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a single headset output line.
func Classify(line string) ResponseType {
	line = strings.TrimSpace(line)

	if isFinal(line) {
		return TypeFinal
	}
	if _, ok := ParseNotification(line); ok {
		return TypeURC
	}
	return TypeData
}

func isFinal(line string) bool {
	return line == OK || line == ERROR || strings.HasPrefix(line, ERROR+":")
}

// Frame returns cmd ready for the wire, appending CRLF unless already present.
func Frame(cmd string) string {
	if strings.HasSuffix(cmd, CRLF) {
		return cmd
	}
	return cmd + CRLF
}

// Terminated reports whether text contains a terminator line and returns
// it. Complete lines are checked first; a trailing line with no line ending
// counts only when it is a whole terminator, since the headset may stop
// after "OK" without sending CRLF.
func Terminated(text string) (final string, ok bool) {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(text[:i])
		if isFinal(line) {
			return line, true
		}
		text = text[i+1:]
	}
	if line := strings.TrimSpace(text); isFinal(line) {
		return line, true
	}
	return "", false
}

// Succeeded reports whether a complete response was terminated by OK.
func Succeeded(response string) bool {
	final, ok := Terminated(response)
	return ok && final == OK
}

// Lines returns the non-empty, trimmed lines of a response.
func Lines(response string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(response))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
