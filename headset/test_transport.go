package headset

import (
	"io"
	"sync"
)

// TestTransport is a test helper that simulates a blocking RFCOMM channel
// using channels. The session's reader goroutine reads continuously, so
// reads must block until data is available, like a real socket would.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	writes   chan string
	writeErr error
	closed   bool
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		writes:   make(chan string, 256),
	}
}

// Write records p on the Writes channel, or fails with the error set by
// FailWrites.
func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	t.writes <- string(p)
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving a chunk from the headset.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes delivers every frame written, in order.
func (t *TestTransport) Writes() <-chan string {
	return t.writes
}

// FailWrites makes subsequent writes return err. A nil err restores
// normal behaviour.
func (t *TestTransport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
