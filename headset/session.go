package headset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"i4.energy/across/headsetctl/at"
	"i4.energy/across/headsetctl/logger"
	"i4.energy/across/headsetctl/trace"
)

// taskQueueSize bounds the backlog of caller requests, reader chunks and
// timer continuations waiting for the loop.
const taskQueueSize = 64

const readBufferSize = 1024

// Session controls one headset over one RFCOMM channel at a time.
//
// All mutable state is owned by a single goroutine running Loop. Caller
// requests, inbound chunks, lifecycle events and delayed continuations are
// posted to it as tasks, so nothing below the "loop-owned" marker is ever
// touched concurrently. State snapshots are published atomically for
// readers outside the loop.
type Session struct {
	config     Config
	logger     logger.Logger
	tracer     trace.Tracer
	dispatcher Dispatcher
	// ownDispatcher is set when the session created its dispatcher and must
	// stop it.
	ownDispatcher *SerialDispatcher

	tasks   chan func()
	done    chan struct{}
	running atomic.Bool

	snapshot     atomic.Pointer[State]
	observers    *xsync.MapOf[uint64, Observer]
	nextObserver atomic.Uint64

	// loop-owned
	conn         ConnState
	epoch        uint64
	transport    Transport
	device       Device
	connID       string
	stopWatch    context.CancelFunc
	pending      *exchange
	accumulator  strings.Builder
	lineBuf      []byte
	anc          bool
	transparency bool

	// partial is the push already applied from the unterminated tail of
	// lineBuf, so the completed line is not applied twice.
	partial *at.Notification
	// held reserves the channel for the delayed next step of a command
	// sequence.
	held bool
}

// exchange is one command awaiting its terminated response.
type exchange struct {
	command  string
	started  time.Time
	timer    *time.Timer
	complete func(response string, err error)
}

// New creates a Session from config. Defaults are applied for unset
// fields; a Dialer and a DeviceLocator are required.
//
// The session does nothing until Loop runs:
//
//	s, err := headset.New(cfg)
//	if err != nil { return err }
//	go s.Loop(ctx)
//	err = s.Connect(ctx)
func New(config Config) (*Session, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	s := &Session{
		config:     config,
		logger:     config.Logger.With("component", "headset", "address", config.Address),
		tracer:     config.Tracer,
		dispatcher: config.Dispatcher,
		tasks:      make(chan func(), taskQueueSize),
		done:       make(chan struct{}),
		observers:  xsync.NewMapOf[uint64, Observer](),
	}
	if s.dispatcher == nil {
		s.ownDispatcher = NewSerialDispatcher()
		s.dispatcher = s.ownDispatcher
	}
	s.publish()
	return s, nil
}

// Loop runs the session until ctx is cancelled. It must be called exactly
// once; the session cannot be reused after Loop returns. An open channel is
// closed on the way out and queued observer callbacks are flushed.
func (s *Session) Loop(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer func() {
		close(s.done)
		if s.ownDispatcher != nil {
			s.ownDispatcher.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.teardown("session stopped")
			return ctx.Err()
		case task := <-s.tasks:
			task()
		}
	}
}

// State returns the latest published snapshot.
func (s *Session) State() State {
	return *s.snapshot.Load()
}

// post hands task to the loop.
func (s *Session) post(ctx context.Context, task func()) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.tasks <- task:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// postInternal is post for reader goroutines and timers, which have no
// caller context. The task is dropped once the loop has exited.
func (s *Session) postInternal(task func()) {
	_ = s.post(context.Background(), task)
}

// call runs fn on the loop and waits for its result.
func (s *Session) call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := s.post(ctx, func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await starts an asynchronous operation on the loop and waits until it
// reports completion. The caller's context bounds only the wait; the
// operation itself runs to completion or until the channel closes.
func (s *Session) await(ctx context.Context, start func(complete func(string, error))) (string, error) {
	type outcome struct {
		response string
		err      error
	}
	result := make(chan outcome, 1)
	complete := func(response string, err error) {
		select {
		case result <- outcome{response, err}:
		default:
		}
	}
	if err := s.post(ctx, func() { start(complete) }); err != nil {
		return "", err
	}
	select {
	case r := <-result:
		return r.response, r.err
	case <-s.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// holdFor runs next on the loop once d has elapsed and keeps other
// commands off the channel until then. The hold ends with the connection.
func (s *Session) holdFor(epoch uint64, d time.Duration, next func()) {
	s.held = true
	s.after(d, func() {
		if epoch == s.epoch {
			s.held = false
		}
		next()
	})
}

// after runs task on the loop once d has elapsed. Tasks check the
// generation they were scheduled for themselves, usually through exec.
func (s *Session) after(d time.Duration, task func()) {
	time.AfterFunc(d, func() {
		s.postInternal(task)
	})
}

// Connect looks up the headset, opens the RFCOMM channel and returns once
// the session is connected. The status query sequence is started right
// after; its results arrive through observers.
func (s *Session) Connect(ctx context.Context) error {
	if s.State().Conn != Disconnected {
		return ErrAlreadyConnected
	}

	device, err := s.config.Locator.Lookup(ctx, s.config.Address)
	if err != nil {
		s.logger.Warn("device lookup failed", "error", err)
		s.traceError("lookup", err, nil)
		return fmt.Errorf("%w: %s: %w", ErrDeviceNotFound, s.config.Address, err)
	}

	var epoch uint64
	err = s.call(ctx, func() error {
		if s.conn != Disconnected {
			return ErrAlreadyConnected
		}
		s.epoch++
		epoch = s.epoch
		s.device = device
		s.setConn(Connecting, "connect")
		return nil
	})
	if err != nil {
		return err
	}

	transport, dialErr := s.config.Dialer.Dial(ctx)

	// The outcome must reach the loop even if the caller gave up.
	bg := context.WithoutCancel(ctx)
	if dialErr != nil {
		openErr := newOpenError(s.config.Channel, dialErr)
		_ = s.call(bg, func() error {
			s.openFailed(epoch, openErr)
			return nil
		})
		return openErr
	}

	err = s.call(bg, func() error {
		return s.opened(epoch, transport)
	})
	if errors.Is(err, ErrClosed) {
		_ = transport.Close()
	}
	return err
}

// opened handles a successful dial.
func (s *Session) opened(epoch uint64, t Transport) error {
	if epoch != s.epoch || s.conn != Connecting {
		_ = t.Close()
		s.logger.Info("discarding channel opened after disconnect")
		return ErrConnectAborted
	}

	s.transport = t
	s.connID = uuid.NewString()
	s.resetBuffers()
	s.setConn(Connected, "channel opened")
	s.logger.Info("connected", "channel", s.config.Channel, "name", s.device.Name, "conn_id", s.connID)

	go s.readLoop(epoch, t)
	s.watchLink(epoch)

	s.queryStatus(epoch, func(err error) {
		if err != nil {
			s.logger.Warn("status query after connect failed", "error", err)
		}
	})
	return nil
}

func (s *Session) openFailed(epoch uint64, err *OpenError) {
	s.logger.Warn("channel open failed", "channel", err.Channel, "code", err.Code, "error", err.Err)
	code := err.Code
	s.traceError("open", err, &code)
	if epoch != s.epoch || s.conn != Connecting {
		return
	}
	s.epoch++
	s.setConn(Disconnected, "open failed")
}

// Disconnect closes the channel and goes Disconnected regardless of the
// close result. Called while connecting, it aborts the pending open.
func (s *Session) Disconnect(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.teardown("disconnect")
		return nil
	})
}

// teardown moves to Disconnected, invalidating everything tied to the
// current generation. It is a no-op when already disconnected.
func (s *Session) teardown(reason string) {
	if s.conn == Disconnected {
		return
	}
	s.epoch++
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("close transport", "error", err)
		}
		s.transport = nil
	}
	s.resetBuffers()
	s.held = false

	s.setConn(Disconnected, reason)
	s.finish("", "", ErrNotConnected)
	s.connID = ""
	s.logger.Info("disconnected", "reason", reason)
}

// readLoop forwards inbound chunks and the final read error to the loop,
// in order.
func (s *Session) readLoop(epoch uint64, t Transport) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.Read(buf)
		if n > 0 {
			chunk := bytes.Clone(buf[:n])
			s.postInternal(func() { s.onData(epoch, chunk) })
		}
		if err != nil {
			s.postInternal(func() { s.onReadError(epoch, err) })
			return
		}
	}
}

func (s *Session) onReadError(epoch uint64, err error) {
	if epoch != s.epoch {
		return
	}
	s.logger.Warn("channel closed", "error", err)
	s.traceError("read", err, nil)
	s.teardown("channel closed")
}

func (s *Session) watchLink(epoch uint64) {
	if s.config.LinkWatcher == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel

	go func() {
		err := s.config.LinkWatcher.WatchLink(ctx, s.config.Address, func() {
			s.postInternal(func() {
				if epoch != s.epoch {
					return
				}
				s.logger.Warn("bluetooth link lost")
				s.teardown("link lost")
			})
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("link watch stopped", "error", err)
		}
	}()
}

// exec issues command for generation epoch. complete is called on the loop
// exactly once, either with the terminated response or with an error.
func (s *Session) exec(epoch uint64, command string, complete func(response string, err error)) {
	if epoch != s.epoch || s.conn != Connected {
		complete("", ErrNotConnected)
		return
	}
	if s.pending != nil || s.held {
		complete("", ErrExchangePending)
		return
	}

	wire := at.Frame(command)
	s.accumulator.Reset()

	ex := &exchange{
		command:  strings.TrimSuffix(wire, at.CRLF),
		started:  time.Now(),
		complete: complete,
	}
	s.pending = ex
	ex.timer = time.AfterFunc(s.config.ExchangeTimeout, func() {
		s.postInternal(func() {
			if s.pending != ex {
				return
			}
			s.logger.Warn("exchange timed out", "command", ex.command)
			s.accumulator.Reset()
			s.finish("", "", ErrExchangeTimeout)
		})
	})

	s.traceFrame(trace.DirectionOut, []byte(wire))
	s.logger.Debug("send", "command", ex.command)
	if _, err := s.transport.Write([]byte(wire)); err != nil {
		s.logger.Warn("write failed", "command", ex.command, "error", err)
		s.finish("", "", fmt.Errorf("%w: %q: %w", ErrWriteFailed, ex.command, err))
	}
}

// finish resolves the pending exchange, if any.
func (s *Session) finish(response, final string, err error) {
	ex := s.pending
	if ex == nil {
		return
	}
	s.pending = nil
	ex.timer.Stop()

	ev := &trace.ExchangeEvent{
		Command:  ex.command,
		Response: response,
		Final:    final,
		Duration: time.Since(ex.started),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	s.trace(trace.Event{Direction: trace.DirectionOut, Category: trace.CategoryExchange, Exchange: ev})

	ex.complete(response, err)
}

// onData handles one inbound chunk.
func (s *Session) onData(epoch uint64, chunk []byte) {
	if epoch != s.epoch || s.conn != Connected {
		return
	}
	s.traceFrame(trace.DirectionIn, chunk)

	s.accumulator.Write(chunk)
	s.scanNotifications(chunk)

	// Line endings trailing a terminator that completed without them.
	if strings.TrimSpace(s.accumulator.String()) == "" {
		s.accumulator.Reset()
		return
	}

	if s.accumulator.Len() > s.config.MaxResponseSize {
		s.logger.Warn("discarding oversized response", "size", s.accumulator.Len())
		s.accumulator.Reset()
		s.finish("", "", ErrResponseTooLong)
		return
	}

	final, ok := at.Terminated(s.accumulator.String())
	if !ok {
		return
	}
	response := s.accumulator.String()
	s.accumulator.Reset()

	s.notify(func(o Observer) { o.ResponseReceived(response) })
	s.finish(response, final, nil)
}

// scanNotifications assembles lines across chunks and applies every mode
// push found, whether or not a command is pending. The unterminated tail is
// scanned as well, so a push is applied as soon as its value arrives.
func (s *Session) scanNotifications(chunk []byte) {
	s.lineBuf = append(s.lineBuf, chunk...)
	for {
		i := bytes.IndexByte(s.lineBuf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(s.lineBuf[:i]))
		s.lineBuf = s.lineBuf[i+1:]

		applied := s.partial
		s.partial = nil
		if n, ok := s.notification(line); ok && (applied == nil || *applied != n) {
			s.applyNotification(n, line)
		}
	}

	tail := strings.TrimSpace(string(s.lineBuf))
	if n, ok := s.notification(tail); ok && (s.partial == nil || *s.partial != n) {
		s.partial = &n
		s.applyNotification(n, tail)
	}

	if len(s.lineBuf) > s.config.MaxResponseSize {
		s.lineBuf = s.lineBuf[:0]
		s.partial = nil
	}
}

func (s *Session) notification(line string) (at.Notification, bool) {
	if line == "" || at.Classify(line) != at.TypeURC {
		return at.Notification{}, false
	}
	return at.ParseNotification(line)
}

func (s *Session) applyNotification(n at.Notification, line string) {
	mode, _ := modeForTopic(n.Topic)
	s.trace(trace.Event{
		Direction:    trace.DirectionIn,
		Category:     trace.CategoryNotification,
		Notification: &trace.NotificationEvent{Topic: n.Topic, Enabled: n.Enabled, Line: line},
	})
	s.setMode(mode, n.Enabled, "notification")
}

func (s *Session) resetBuffers() {
	s.accumulator.Reset()
	s.lineBuf = s.lineBuf[:0]
	s.partial = nil
}

// setConn applies a connection transition and publishes it.
func (s *Session) setConn(next ConnState, reason string) {
	prev := s.conn
	if prev == next {
		return
	}
	s.conn = next
	s.publish()
	s.trace(trace.Event{
		Category: trace.CategoryState,
		StateChange: &trace.StateChangeEvent{
			Entity:   trace.StateEntityConnection,
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})

	if (prev == Connected) != (next == Connected) {
		connected := next == Connected
		s.notify(func(o Observer) { o.ConnectionChanged(connected) })
	}
}

// setMode updates one mode flag. Turning a mode on clears the other one.
// Observers always hear about the target mode and hear about the other
// mode only when it actually changed.
func (s *Session) setMode(mode Mode, enabled bool, reason string) {
	prev := State{ANC: s.anc, Transparency: s.transparency}

	switch mode {
	case ModeANC:
		s.anc = enabled
		if enabled {
			s.transparency = false
		}
	case ModeTransparency:
		s.transparency = enabled
		if enabled {
			s.anc = false
		}
	}
	next := s.publish()

	s.traceMode(mode, prev.enabled(mode), enabled, reason)
	s.notifyMode(mode, enabled)

	other := mode.other()
	if prev.enabled(other) != next.enabled(other) {
		s.traceMode(other, prev.enabled(other), next.enabled(other), "mutual exclusion")
		s.notifyMode(other, next.enabled(other))
	}
	s.logger.Info("mode updated", "mode", mode.String(), "enabled", enabled, "source", reason)
}

func (s *Session) notifyMode(mode Mode, enabled bool) {
	if mode == ModeTransparency {
		s.notify(func(o Observer) { o.TransparencyChanged(enabled) })
		return
	}
	s.notify(func(o Observer) { o.ANCChanged(enabled) })
}

func (s *Session) publish() State {
	st := State{Conn: s.conn, ANC: s.anc, Transparency: s.transparency}
	s.snapshot.Store(&st)
	return st
}

func (s *Session) trace(ev trace.Event) {
	ev.Timestamp = time.Now()
	ev.ConnectionID = s.connID
	ev.Device = s.config.Address
	s.tracer.Trace(ev)
}

func (s *Session) traceFrame(dir trace.Direction, data []byte) {
	s.trace(trace.Event{Direction: dir, Category: trace.CategoryFrame, Frame: trace.NewFrame(data)})
}

func (s *Session) traceMode(mode Mode, before, after bool, reason string) {
	entity := trace.StateEntityANC
	if mode == ModeTransparency {
		entity = trace.StateEntityTransparency
	}
	s.trace(trace.Event{
		Category: trace.CategoryState,
		StateChange: &trace.StateChangeEvent{
			Entity:   entity,
			OldState: onOff(before),
			NewState: onOff(after),
			Reason:   reason,
		},
	})
}

// traceError may be called off the loop (lookup failures), where connID
// is not read.
func (s *Session) traceError(op string, err error, code *int) {
	s.tracer.Trace(trace.Event{
		Timestamp: time.Now(),
		Device:    s.config.Address,
		Category:  trace.CategoryError,
		Error:     &trace.ErrorEventData{Message: err.Error(), Code: code, Context: op},
	})
}

func onOff(b bool) string {
	if b {
		return at.On
	}
	return at.Off
}
