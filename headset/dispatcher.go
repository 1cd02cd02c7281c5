package headset

import "sync"

// Dispatcher runs observer callbacks on the execution context the caller
// wants to observe state on. Dispatch must not block and must run
// functions in submission order.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function, e.g. a UI toolkit's "run on main
// thread" hook, to the Dispatcher interface.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// SerialDispatcher runs callbacks one at a time on its own goroutine, in
// submission order. The queue is unbounded so a slow observer never stalls
// the session loop.
type SerialDispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *SerialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close runs what is already queued, then stops the goroutine. Later
// Dispatch calls are dropped. Close must not be called from a callback.
func (d *SerialDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.stopped
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.stopped
}

func (d *SerialDispatcher) run() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.wake
			continue
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}
