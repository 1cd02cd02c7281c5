package headset

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestNewOpenError(t *testing.T) {
	t.Run("Errno code", func(t *testing.T) {
		err := newOpenError(9, fmt.Errorf("connect: %w", syscall.EHOSTDOWN))
		if err.Code != int(syscall.EHOSTDOWN) {
			t.Errorf("expected code %d, got %d", int(syscall.EHOSTDOWN), err.Code)
		}
		if !errors.Is(err, ErrChannelOpenFailed) || !errors.Is(err, syscall.EHOSTDOWN) {
			t.Errorf("%v should match both the sentinel and the cause", err)
		}
	})

	t.Run("No code", func(t *testing.T) {
		err := newOpenError(9, errors.New("no route"))
		if err.Code != -1 {
			t.Errorf("expected -1, got %d", err.Code)
		}
		if got, want := err.Error(), "open channel 9: no route"; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Kept from dialer", func(t *testing.T) {
		inner := &OpenError{Channel: 2, Code: 5, Err: errors.New("busy")}
		if got := newOpenError(9, inner); got != inner {
			t.Errorf("expected the dialer's error to be kept, got %v", got)
		}
	})
}
