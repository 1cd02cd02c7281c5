package headset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"i4.energy/across/headsetctl/at"
)

// Send writes instruction, appending CRLF if absent, and returns the
// response text up to and including the terminator line. A response
// terminated by ERROR is returned with a nil error; use at.Succeeded to
// tell the two apart.
//
// Send fails with ErrNotConnected without writing when no channel is open,
// and with ErrExchangePending while another command awaits its response.
func (s *Session) Send(ctx context.Context, instruction string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("%w: empty instruction", ErrInvalidArgument)
	}
	return s.await(ctx, func(complete func(string, error)) {
		s.exec(s.epoch, instruction, complete)
	})
}

// QueryStatus asks the headset for its ANC state and, after the status
// query delay, for its transparency state. Both flags are updated from OK
// responses and reported to observers. Other commands fail with
// ErrExchangePending until the sequence is done, the delay included.
func (s *Session) QueryStatus(ctx context.Context) error {
	_, err := s.await(ctx, func(complete func(string, error)) {
		s.queryStatus(s.epoch, func(err error) { complete("", err) })
	})
	return err
}

// queryStatus runs on the loop. The headset drops the second of two
// back-to-back status queries, so the transparency query waits.
func (s *Session) queryStatus(epoch uint64, done func(error)) {
	s.exec(epoch, at.QueryTopic(at.TopicANC), func(response string, err error) {
		if err != nil {
			done(err)
			return
		}
		s.applyQuery(ModeANC, response)

		s.holdFor(epoch, s.config.StatusQueryDelay, func() {
			s.exec(epoch, at.QueryTopic(at.TopicTransparency), func(response string, err error) {
				if err != nil {
					done(err)
					return
				}
				s.applyQuery(ModeTransparency, response)
				done(nil)
			})
		})
	})
}

func (s *Session) applyQuery(mode Mode, response string) {
	if !at.Succeeded(response) {
		s.logger.Warn("status query rejected", "mode", mode.String(), "response", response)
		return
	}
	s.setMode(mode, at.ReportsOn(response, mode.topic()), "status query")
}

// SetANC turns noise cancelling on or off. Turning it on while
// transparency is on first turns transparency off and waits the mode
// switch delay, during which other commands fail with ErrExchangePending.
// A command the headset rejects leaves the state unchanged and is not
// reported as an error.
func (s *Session) SetANC(ctx context.Context, enabled bool) error {
	return s.switchModeAndWait(ctx, ModeANC, func() bool { return enabled })
}

// SetTransparency is SetANC for transparency mode.
func (s *Session) SetTransparency(ctx context.Context, enabled bool) error {
	return s.switchModeAndWait(ctx, ModeTransparency, func() bool { return enabled })
}

// ToggleANC flips the mirrored ANC state through the same switch policy as
// SetANC.
func (s *Session) ToggleANC(ctx context.Context) error {
	return s.switchModeAndWait(ctx, ModeANC, func() bool { return !s.anc })
}

// ToggleTransparency flips the mirrored transparency state.
func (s *Session) ToggleTransparency(ctx context.Context) error {
	return s.switchModeAndWait(ctx, ModeTransparency, func() bool { return !s.transparency })
}

// switchModeAndWait evaluates target on the loop, so toggles see the
// state as of the moment they run.
func (s *Session) switchModeAndWait(ctx context.Context, mode Mode, target func() bool) error {
	_, err := s.await(ctx, func(complete func(string, error)) {
		s.switchMode(s.epoch, mode, target(), func(err error) { complete("", err) })
	})
	return err
}

func (s *Session) switchMode(epoch uint64, mode Mode, enabled bool, done func(error)) {
	other := mode.other()
	current := State{ANC: s.anc, Transparency: s.transparency}
	if !enabled || !current.enabled(other) {
		s.setModeCommand(epoch, mode, enabled, done)
		return
	}

	s.setModeCommand(epoch, other, false, func(err error) {
		if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrExchangePending) {
			done(err)
			return
		}
		if err != nil {
			s.logger.Warn("turning off mode failed, switching anyway", "mode", other.String(), "error", err)
		}
		s.holdFor(epoch, s.config.ModeSwitchDelay, func() {
			s.setModeCommand(epoch, mode, true, done)
		})
	})
}

func (s *Session) setModeCommand(epoch uint64, mode Mode, enabled bool, done func(error)) {
	s.exec(epoch, at.Switch(mode.topic(), enabled), func(response string, err error) {
		if err != nil {
			done(err)
			return
		}
		if !at.Succeeded(response) {
			s.logger.Warn("mode change rejected", "mode", mode.String(), "enabled", enabled, "response", response)
			done(nil)
			return
		}
		s.setMode(mode, enabled, "command")
		done(nil)
	})
}

// AdjustVolume raises or lowers the headset volume by steps (at least 1).
func (s *Session) AdjustVolume(ctx context.Context, direction VolumeDirection, steps int) error {
	if _, err := ParseVolumeDirection(string(direction)); err != nil {
		return err
	}
	if steps < 1 {
		return fmt.Errorf("%w: volume steps %d", ErrInvalidArgument, steps)
	}
	_, err := s.expectOK(ctx, at.AdjustVolume(string(direction), steps))
	return err
}

// SetDeviceName changes the name the headset advertises.
func (s *Session) SetDeviceName(ctx context.Context, name string) error {
	if !at.ValidName(name) {
		return fmt.Errorf("%w: device name %q", ErrInvalidArgument, name)
	}
	_, err := s.expectOK(ctx, at.SetName(name))
	return err
}

// ResetDeviceName restores the factory name.
func (s *Session) ResetDeviceName(ctx context.Context) error {
	_, err := s.expectOK(ctx, at.ResetName())
	return err
}

// BluetoothAddress asks the headset for its hardware address. A response
// without a parsable address yields AddressUnknown and no error.
func (s *Session) BluetoothAddress(ctx context.Context) (string, error) {
	response, err := s.Send(ctx, at.LocalAddr())
	if err != nil {
		return "", err
	}
	addr, ok := at.ParseAddress(response)
	if !ok {
		s.logger.Debug("no address in response", "response", response)
		return AddressUnknown, nil
	}
	return addr, nil
}

// expectOK sends command and converts an ERROR response to
// ErrCommandRejected.
func (s *Session) expectOK(ctx context.Context, command string) (string, error) {
	response, err := s.Send(ctx, command)
	if err != nil {
		return "", err
	}
	if !at.Succeeded(response) {
		final, _ := at.Terminated(response)
		s.logger.Warn("command rejected", "command", command, "final", final)
		return response, fmt.Errorf("%w: %s", ErrCommandRejected, final)
	}
	return response, nil
}
