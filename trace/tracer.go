package trace

// Tracer receives protocol trace events.
type Tracer interface {
	// Trace records an event. Implementations must be safe for concurrent
	// use and should not block.
	Trace(event Event)
}

// NoopTracer discards all events. It is usable as a zero value.
type NoopTracer struct{}

// Trace discards the event.
func (NoopTracer) Trace(Event) {}

var _ Tracer = NoopTracer{}

// MultiTracer sends events to multiple tracers, e.g. a FileTracer and a
// LogTracer at the same time.
type MultiTracer struct {
	tracers []Tracer
}

// NewMultiTracer creates a MultiTracer. Nil tracers are skipped.
func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	m := &MultiTracer{}
	for _, t := range tracers {
		if t != nil {
			m.tracers = append(m.tracers, t)
		}
	}
	return m
}

// Trace sends the event to all configured tracers.
func (m *MultiTracer) Trace(event Event) {
	for _, t := range m.tracers {
		t.Trace(event)
	}
}

var _ Tracer = (*MultiTracer)(nil)
