package headset_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"i4.energy/across/headsetctl/headset"
)

const testTimeout = 2 * time.Second

type harness struct {
	t         *testing.T
	session   *headset.Session
	transport *headset.TestTransport
	events    chan string
}

func newHarness(t *testing.T, configure ...func(*headset.ConfigBuilder)) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		transport: headset.NewTestTransport(),
		events:    make(chan string, 1024),
	}

	b := headset.NewConfigBuilder().
		WithDialer(headset.DialerFunc(func(context.Context) (headset.Transport, error) {
			return h.transport, nil
		})).
		WithLocator(headset.StaticLocator{Name: "Crusher ANC 2"}).
		WithExchangeTimeout(time.Second).
		WithStatusQueryDelay(10 * time.Millisecond).
		WithModeSwitchDelay(10 * time.Millisecond)
	for _, fn := range configure {
		fn(b)
	}
	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	h.session, err = headset.New(cfg)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	h.session.Subscribe(headset.ObserverFuncs{
		OnConnectionChanged:   func(c bool) { h.events <- fmt.Sprintf("connected:%v", c) },
		OnANCChanged:          func(e bool) { h.events <- fmt.Sprintf("anc:%v", e) },
		OnTransparencyChanged: func(e bool) { h.events <- fmt.Sprintf("transparency:%v", e) },
		OnResponseReceived:    func(r string) { h.events <- "response:" + r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	loopErr := make(chan error, 1)
	go func() { loopErr <- h.session.Loop(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loopErr
	})
	return h
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// connect connects and answers the status query sequence with the given
// device state.
func (h *harness) connect(anc, transparency bool) {
	h.t.Helper()
	if err := h.session.Connect(context.Background()); err != nil {
		h.t.Fatalf("unexpected error from Connect(): %v", err)
	}
	h.waitEvent("connected:true")

	h.expectWrite("AT.UIAUDIO=anc\r\n")
	h.transport.SendData(fmt.Sprintf("AT.UIAUDIO=anc:%s\r\nOK\r\n", onOff(anc)))
	h.expectWrite("AT.UIAUDIO=transparency\r\n")
	reply := fmt.Sprintf("AT.UIAUDIO=transparency:%s\r\nOK\r\n", onOff(transparency))
	h.transport.SendData(reply)
	h.waitEvent("response:" + reply)
	h.settle()

	st := h.session.State()
	if !st.Connected() || st.ANC != anc || st.Transparency != transparency {
		h.t.Fatalf("unexpected state after connect: %+v", st)
	}
}

func (h *harness) expectWrite(want string) {
	h.t.Helper()
	select {
	case got := <-h.transport.Writes():
		if got != want {
			h.t.Fatalf("expected write %q, got %q", want, got)
		}
	case <-time.After(testTimeout):
		h.t.Fatalf("timed out waiting for write %q", want)
	}
}

func (h *harness) expectNoWrite(d time.Duration) {
	h.t.Helper()
	select {
	case got := <-h.transport.Writes():
		h.t.Fatalf("unexpected write %q", got)
	case <-time.After(d):
	}
}

// waitEvent skips events until want arrives.
func (h *harness) waitEvent(want string) {
	h.t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case got := <-h.events:
			if got == want {
				return
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for event %q", want)
		}
	}
}

// nextEvent returns the next event, failing on timeout.
func (h *harness) nextEvent() string {
	h.t.Helper()
	select {
	case got := <-h.events:
		return got
	case <-time.After(testTimeout):
		h.t.Fatal("timed out waiting for an event")
		return ""
	}
}

// settle drains events until none arrive for a short while.
func (h *harness) settle() {
	for {
		select {
		case <-h.events:
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

type result struct {
	response string
	err      error
}

func async(fn func() (string, error)) <-chan result {
	ch := make(chan result, 1)
	go func() {
		r, err := fn()
		ch <- result{r, err}
	}()
	return ch
}

func asyncErr(fn func() error) <-chan result {
	return async(func() (string, error) { return "", fn() })
}

func (h *harness) wait(ch <-chan result) result {
	h.t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(testTimeout):
		h.t.Fatal("timed out waiting for operation")
		return result{}
	}
}

func TestSessionSend(t *testing.T) {
	t.Run("Response delivered regardless of chunking", func(t *testing.T) {
		const full = "8E:5D:79:E0:EE:5B\r\nOK\r\n"
		tests := []struct {
			name   string
			chunks []string
		}{
			{name: "All at once", chunks: []string{full}},
			{name: "Line per chunk", chunks: []string{"8E:5D:79:E0:EE:5B\r\n", "OK\r\n"}},
			{name: "Split inside terminator", chunks: []string{"8E:5D:79:E0:EE:5B\r\nO", "K", "\r", "\n"}},
			{name: "Single bytes", chunks: strings.Split(full, "")},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)
				h.connect(false, false)

				res := async(func() (string, error) {
					return h.session.Send(context.Background(), "AT.BLUETOOTH=localaddr")
				})
				h.expectWrite("AT.BLUETOOTH=localaddr\r\n")
				for _, c := range tt.chunks {
					h.transport.SendData(c)
				}

				r := h.wait(res)
				if r.err != nil {
					t.Fatalf("unexpected error: %v", r.err)
				}
				if r.response != full {
					t.Errorf("expected %q, got %q", full, r.response)
				}

				h.waitEvent("response:" + full)
				select {
				case ev := <-h.events:
					if strings.HasPrefix(ev, "response:") {
						t.Errorf("response delivered twice: %q", ev)
					}
				case <-time.After(50 * time.Millisecond):
				}
			})
		}
	})

	t.Run("ErrNotConnected without write", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.session.Send(context.Background(), "AT.VOLUME=up,1")
		if !errors.Is(err, headset.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got: %v", err)
		}
		h.expectNoWrite(50 * time.Millisecond)
	})

	t.Run("ErrExchangePending while a command is outstanding", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		first := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.BLUETOOTH=localaddr")
		})
		h.expectWrite("AT.BLUETOOTH=localaddr\r\n")
		h.transport.SendData("8E:5D:79:E0:EE:5B\r\n")

		_, err := h.session.Send(context.Background(), "AT.VOLUME=up,1")
		if !errors.Is(err, headset.ErrExchangePending) {
			t.Errorf("expected ErrExchangePending, got: %v", err)
		}

		h.transport.SendData("OK\r\n")
		r := h.wait(first)
		if r.response != "8E:5D:79:E0:EE:5B\r\nOK\r\n" {
			t.Errorf("first exchange lost data: %q", r.response)
		}
	})

	t.Run("ERROR response returned without error", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		res := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.UIAUDIO=anc,on")
		})
		h.expectWrite("AT.UIAUDIO=anc,on\r\n")
		h.transport.SendData("ERROR\r\n")

		r := h.wait(res)
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.response != "ERROR\r\n" {
			t.Errorf("expected ERROR response, got %q", r.response)
		}
		if h.session.State().ANC {
			t.Error("ERROR response must not enable ANC")
		}
	})

	t.Run("Write failure resolves immediately and keeps the connection", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		h.transport.FailWrites(errors.New("radio busy"))
		_, err := h.session.Send(context.Background(), "AT.VOLUME=up,1")
		if !errors.Is(err, headset.ErrWriteFailed) {
			t.Errorf("expected ErrWriteFailed, got: %v", err)
		}
		if !h.session.State().Connected() {
			t.Error("write failure must not disconnect")
		}

		h.transport.FailWrites(nil)
		res := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.VOLUME=up,1")
		})
		h.expectWrite("AT.VOLUME=up,1\r\n")
		h.transport.SendData("OK\r\n")
		if r := h.wait(res); r.err != nil {
			t.Errorf("follow-up send failed: %v", r.err)
		}
	})

	t.Run("Timeout resolves the exchange", func(t *testing.T) {
		h := newHarness(t, func(b *headset.ConfigBuilder) {
			b.WithExchangeTimeout(100 * time.Millisecond)
		})
		h.connect(false, false)

		res := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.BLUETOOTH=localaddr")
		})
		h.expectWrite("AT.BLUETOOTH=localaddr\r\n")
		h.transport.SendData("8E:5D")

		r := h.wait(res)
		if !errors.Is(r.err, headset.ErrExchangeTimeout) {
			t.Errorf("expected ErrExchangeTimeout, got: %v", r.err)
		}

		// The stale partial line must not leak into the next response.
		res = async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.VOLUME=down,1")
		})
		h.expectWrite("AT.VOLUME=down,1\r\n")
		h.transport.SendData("OK\r\n")
		if r := h.wait(res); r.response != "OK\r\n" {
			t.Errorf("expected clean response, got %q", r.response)
		}
	})

	t.Run("Caller context bounds only the wait", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := h.session.Send(ctx, "AT.BLUETOOTH=localaddr")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got: %v", err)
		}
		h.expectWrite("AT.BLUETOOTH=localaddr\r\n")

		_, err = h.session.Send(context.Background(), "AT.VOLUME=up,1")
		if !errors.Is(err, headset.ErrExchangePending) {
			t.Errorf("abandoned exchange should still be pending, got: %v", err)
		}
		h.transport.SendData("OK\r\n")
	})

	t.Run("Empty instruction rejected", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.session.Send(context.Background(), "  ")
		if !errors.Is(err, headset.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("Channel close resolves pending exchange", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		res := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.BLUETOOTH=localaddr")
		})
		h.expectWrite("AT.BLUETOOTH=localaddr\r\n")
		h.transport.Close()

		r := h.wait(res)
		if !errors.Is(r.err, headset.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got: %v", r.err)
		}
		h.waitEvent("connected:false")
		if st := h.session.State(); st.Conn != headset.Disconnected {
			t.Errorf("expected disconnected, got %v", st.Conn)
		}
	})

	t.Run("Disconnect is best effort and allows reconnect", func(t *testing.T) {
		h := newHarness(t)
		h.connect(true, false)

		if err := h.session.Disconnect(context.Background()); err != nil {
			t.Fatalf("unexpected error from Disconnect(): %v", err)
		}
		h.waitEvent("connected:false")
		if !h.transport.Closed() {
			t.Error("transport should be closed")
		}
		if err := h.session.Disconnect(context.Background()); err != nil {
			t.Errorf("second Disconnect should be a no-op, got: %v", err)
		}

		h.transport = headset.NewTestTransport()
		if err := h.session.Connect(context.Background()); err != nil {
			t.Fatalf("reconnect failed: %v", err)
		}
		h.expectWrite("AT.UIAUDIO=anc\r\n")
	})

	t.Run("ErrAlreadyConnected", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		if err := h.session.Connect(context.Background()); !errors.Is(err, headset.ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got: %v", err)
		}
	})

	t.Run("Disconnect during delayed status query no-ops the follow-up", func(t *testing.T) {
		h := newHarness(t, func(b *headset.ConfigBuilder) {
			b.WithStatusQueryDelay(100 * time.Millisecond)
		})
		if err := h.session.Connect(context.Background()); err != nil {
			t.Fatalf("unexpected error from Connect(): %v", err)
		}
		h.expectWrite("AT.UIAUDIO=anc\r\n")
		h.transport.SendData("AT.UIAUDIO=anc:on\r\nOK\r\n")
		h.waitEvent("anc:true")

		if err := h.session.Disconnect(context.Background()); err != nil {
			t.Fatalf("unexpected error from Disconnect(): %v", err)
		}
		h.expectNoWrite(200 * time.Millisecond)
	})

	t.Run("Loop runs once", func(t *testing.T) {
		h := newHarness(t)
		time.Sleep(10 * time.Millisecond)
		if err := h.session.Loop(context.Background()); !errors.Is(err, headset.ErrLoopRunning) {
			t.Errorf("expected ErrLoopRunning, got: %v", err)
		}
	})

	t.Run("ErrClosed after loop exit", func(t *testing.T) {
		transport := headset.NewTestTransport()
		cfg, err := headset.NewConfigBuilder().
			WithDialer(headset.DialerFunc(func(context.Context) (headset.Transport, error) { return transport, nil })).
			WithLocator(headset.StaticLocator{}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}
		s, err := headset.New(cfg)
		if err != nil {
			t.Fatalf("unexpected error from New(): %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := s.Loop(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
		if _, err := s.Send(context.Background(), "AT.VOLUME=up,1"); !errors.Is(err, headset.ErrClosed) {
			t.Errorf("expected ErrClosed, got: %v", err)
		}
	})
}

func TestSessionObservers(t *testing.T) {
	t.Run("Unsolicited push updates state", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, true)

		h.transport.SendData("AT.UIAUDIO=anc:on\r\nOK\r\n")

		if ev := h.nextEvent(); ev != "anc:true" {
			t.Errorf("expected anc:true first, got %q", ev)
		}
		if ev := h.nextEvent(); ev != "transparency:false" {
			t.Errorf("expected transparency:false second, got %q", ev)
		}
		if ev := h.nextEvent(); ev != "response:AT.UIAUDIO=anc:on\r\nOK\r\n" {
			t.Errorf("expected raw response third, got %q", ev)
		}
		if st := h.session.State(); !st.ANC || st.Transparency {
			t.Errorf("unexpected state %+v", st)
		}
	})

	t.Run("Push interleaved with a pending response", func(t *testing.T) {
		h := newHarness(t)
		h.connect(false, false)

		res := async(func() (string, error) {
			return h.session.Send(context.Background(), "AT.VOLUME=up,1")
		})
		h.expectWrite("AT.VOLUME=up,1\r\n")
		h.transport.SendData("transparency=on\r\n")
		h.waitEvent("transparency:true")
		h.transport.SendData("OK\r\n")

		if r := h.wait(res); r.err != nil {
			t.Errorf("unexpected error: %v", r.err)
		}
		if !h.session.State().Transparency {
			t.Error("push during exchange should apply")
		}
	})

	t.Run("Unsubscribe stops delivery", func(t *testing.T) {
		h := newHarness(t)
		got := make(chan bool, 4)
		unsubscribe := h.session.Subscribe(headset.ObserverFuncs{
			OnANCChanged: func(e bool) { got <- e },
		})
		h.connect(false, false)
		unsubscribe()
		h.settle()
		for len(got) > 0 {
			<-got
		}

		h.transport.SendData("anc:on\r\n")
		h.waitEvent("anc:true")
		select {
		case <-got:
			t.Error("unsubscribed observer was called")
		case <-time.After(50 * time.Millisecond):
		}
	})
}
