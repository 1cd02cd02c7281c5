package trace

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileTracer appends CBOR-encoded events to a file.
// It is safe for concurrent use from multiple goroutines.
type FileTracer struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	closed  bool
}

// NewFileTracer opens path for appending, creating it with mode 0644 if
// needed.
func NewFileTracer(path string) (*FileTracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileTracer{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Trace writes an event to the file. Encoding errors are dropped.
func (t *FileTracer) Trace(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	_ = t.encoder.Encode(event)
}

// Close closes the file. Subsequent Trace calls are ignored.
// It is safe to call Close multiple times.
func (t *FileTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}

var _ Tracer = (*FileTracer)(nil)
