//go:build linux

package headset

import "testing"

func TestBdaddr(t *testing.T) {
	got, err := bdaddr("8E:5D:79:E0:EE:5B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [6]uint8{0x5B, 0xEE, 0xE0, 0x79, 0x5D, 0x8E}
	if got != want {
		t.Errorf("expected % X, got % X", want, got)
	}

	for _, bad := range []string{"", "8E:5D:79", "00:11:22:33:44:55:66:77", "zz:5D:79:E0:EE:5B"} {
		if _, err := bdaddr(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
