package conv

import (
	"math"
	"testing"
)

func TestIntToUint32(t *testing.T) {
	if got := IntToUint32(42); got != 42 {
		t.Errorf("IntToUint32(42) = %d", got)
	}
	if got := IntToUint32(math.MaxUint32); got != math.MaxUint32 {
		t.Errorf("IntToUint32(MaxUint32) = %d", got)
	}
	assertPanics(t, "negative", func() { IntToUint32(-1) })
}

func TestRuneToUint16(t *testing.T) {
	if got := RuneToUint16(0xFFFF); got != 0xFFFF {
		t.Errorf("RuneToUint16(0xFFFF) = %#x", got)
	}
	assertPanics(t, "above BMP", func() { RuneToUint16(0x10000) })
	assertPanics(t, "negative", func() { RuneToUint16(-1) })
}

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}
