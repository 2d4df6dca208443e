package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":              OK,
		"busy":            Busy,
		"invalid_params":  InvalidParams,
		"unknown_pin":     UnknownPin,
		"pin_in_use":      PinInUse,
		"adc_read_failed": ADCReadFailed,
		"out_of_range":    OutOfRange,
		"display_failed":  DisplayFailed,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	cause := errors.New("nack")
	wrapped := Wrap(ADCReadFailed, "joystick.calibrate", cause)

	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q, want ok", got)
	}
	if got := Of(Busy); got != Busy {
		t.Fatalf("Of(Busy) = %q", got)
	}
	if got := Of(wrapped); got != ADCReadFailed {
		t.Fatalf("Of(wrapped) = %q", got)
	}
	if got := Of(cause); got != Error {
		t.Fatalf("Of(plain) = %q, want error", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("wrapped error does not unwrap to its cause")
	}
	if got, want := wrapped.Error(), "joystick.calibrate: adc_read_failed: nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestMapDriverErr(t *testing.T) {
	if MapDriverErr(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if MapDriverErr(Timeout) != Timeout {
		t.Fatal("codes should pass through")
	}
	if MapDriverErr(errors.New("x")) != Error {
		t.Fatal("unknown errors should map to error")
	}
}
