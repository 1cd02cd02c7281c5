package main

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"i4.energy/across/headsetctl/headset"
	"i4.energy/across/headsetctl/logger"
)

// Backoff configures the delay between reconnect attempts.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

var defaultBackoff = Backoff{
	InitialDelay: time.Second,
	MaxDelay:     time.Minute,
	Multiplier:   2,
	Jitter:       true,
}

// Delay returns the retry delay for attempt N (1-based).
func (b Backoff) Delay(attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if b.Multiplier < 1.0 {
		b.Multiplier = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// connector is the part of the session keepConnected drives.
type connector interface {
	Connect(ctx context.Context) error
	State() headset.State
	Subscribe(o headset.Observer) (unsubscribe func())
}

// keepConnected connects and reconnects after every drop until ctx ends.
// Failed attempts back off; a successful connect resets the attempt count.
func keepConnected(ctx context.Context, s connector, b Backoff, log logger.Logger) {
	dropped := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(headset.ObserverFuncs{
		OnConnectionChanged: func(connected bool) {
			if connected {
				return
			}
			select {
			case dropped <- struct{}{}:
			default:
			}
		},
	})
	defer unsubscribe()

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	attempt := 0
	for {
		err := s.Connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil || (errors.Is(err, headset.ErrAlreadyConnected) && s.State().Connected()) {
			attempt = 0
			select {
			case <-ctx.Done():
				return
			case <-dropped:
				log.Info("connection dropped, reconnecting")
				continue
			}
		}

		attempt++
		delay := b.Delay(attempt, rng)
		log.Warn("connect failed", "attempt", attempt, "retry_in", delay, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
