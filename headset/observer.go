package headset

// Observer receives session events. Callbacks run on the session's
// Dispatcher, one at a time, in the order the changes were applied.
type Observer interface {
	ConnectionChanged(connected bool)
	ANCChanged(enabled bool)
	TransparencyChanged(enabled bool)
	// ResponseReceived is called with every terminated response, solicited
	// or not.
	ResponseReceived(response string)
}

// ObserverFuncs implements Observer with optional callbacks.
type ObserverFuncs struct {
	OnConnectionChanged   func(connected bool)
	OnANCChanged          func(enabled bool)
	OnTransparencyChanged func(enabled bool)
	OnResponseReceived    func(response string)
}

var _ Observer = ObserverFuncs{}

func (o ObserverFuncs) ConnectionChanged(connected bool) {
	if o.OnConnectionChanged != nil {
		o.OnConnectionChanged(connected)
	}
}

func (o ObserverFuncs) ANCChanged(enabled bool) {
	if o.OnANCChanged != nil {
		o.OnANCChanged(enabled)
	}
}

func (o ObserverFuncs) TransparencyChanged(enabled bool) {
	if o.OnTransparencyChanged != nil {
		o.OnTransparencyChanged(enabled)
	}
}

func (o ObserverFuncs) ResponseReceived(response string) {
	if o.OnResponseReceived != nil {
		o.OnResponseReceived(response)
	}
}

// Subscribe registers o and returns a function removing it again.
func (s *Session) Subscribe(o Observer) (unsubscribe func()) {
	id := s.nextObserver.Add(1)
	s.observers.Store(id, o)
	return func() {
		s.observers.Delete(id)
	}
}

func (s *Session) notify(fn func(Observer)) {
	s.dispatcher.Dispatch(func() {
		s.observers.Range(func(_ uint64, o Observer) bool {
			fn(o)
			return true
		})
	})
}
