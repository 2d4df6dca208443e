package conv

import (
	"math"
	"testing"
)

func TestItoa(t *testing.T) {
	cases := map[int64]string{
		0:             "0",
		7:             "7",
		-7:            "-7",
		4095:          "4095",
		-2048:         "-2048",
		math.MaxInt64: "9223372036854775807",
	}
	var buf [20]byte
	for n, want := range cases {
		if got := string(Itoa(buf[:], n)); got != want {
			t.Fatalf("Itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestUtoa(t *testing.T) {
	var buf [20]byte
	if got := string(Utoa(buf[:], 0)); got != "0" {
		t.Fatalf("Utoa(0) = %q", got)
	}
	if got := string(Utoa(buf[:], math.MaxUint64)); got != "18446744073709551615" {
		t.Fatalf("Utoa(max) = %q", got)
	}
	if got := Utoa(nil, 5); len(got) != 0 {
		t.Fatalf("Utoa with empty buffer = %q", got)
	}
}

func TestAppend(t *testing.T) {
	line := append([]byte("X: "), nil...)
	line = AppendUint(line, 2048)
	line = append(line, ", Y: "...)
	line = AppendInt(line, -12)
	if got, want := string(line), "X: 2048, Y: -12"; got != want {
		t.Fatalf("line = %q, want %q", got, want)
	}
}
