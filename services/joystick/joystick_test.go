package joystick

import (
	"errors"
	"testing"

	"joyled/errcode"
	"joyled/types"
)

type fakeADC struct {
	vals    map[int]uint16
	readErr map[int]error
	sel     int
	selErr  error
}

func newFakeADC(x, y uint16) *fakeADC {
	return &fakeADC{vals: map[int]uint16{1: x, 0: y}, readErr: map[int]error{}}
}

func (f *fakeADC) SelectChannel(ch int) error {
	if f.selErr != nil {
		return f.selErr
	}
	f.sel = ch
	return nil
}

func (f *fakeADC) Read() (uint16, error) {
	if err := f.readErr[f.sel]; err != nil {
		return 0, err
	}
	return f.vals[f.sel], nil
}

const xCh, yCh = 1, 0

func TestCalibrateCentresBothAxes(t *testing.T) {
	adc := newFakeADC(2000, 2100)
	off, err := Calibrate(adc, xCh, yCh)
	if err != nil {
		t.Fatal(err)
	}
	if off.X != 48 || off.Y != -52 {
		t.Fatalf("offset = %+v, want {48 -52}", off)
	}
}

func TestCalibrateReadFailureLeavesZeroOffset(t *testing.T) {
	adc := newFakeADC(2000, 2100)
	adc.readErr[xCh] = errors.New("nack")

	off, err := Calibrate(adc, xCh, yCh)
	if errcode.Of(err) != errcode.ADCReadFailed {
		t.Fatalf("err = %v, want adc_read_failed", err)
	}
	if off.X != 0 {
		t.Fatalf("X offset = %d, want 0 after failed read", off.X)
	}
	if off.Y != -52 {
		t.Fatalf("Y offset = %d, want -52", off.Y)
	}
}

func TestCalibrateRejectsOutOfRangeReading(t *testing.T) {
	adc := newFakeADC(2048, 5000)
	off, err := Calibrate(adc, xCh, yCh)
	if errcode.Of(err) != errcode.OutOfRange {
		t.Fatalf("err = %v, want out_of_range", err)
	}
	if off.X != 0 || off.Y != 0 {
		t.Fatalf("offset = %+v, want zero", off)
	}
}

func TestCalibrateSelectError(t *testing.T) {
	adc := newFakeADC(2048, 2048)
	adc.selErr = errors.New("busy")
	if _, err := Calibrate(adc, xCh, yCh); errcode.Of(err) != errcode.ADCReadFailed {
		t.Fatalf("err = %v, want adc_read_failed", err)
	}
}

func TestCentredStickReadsMidpoint(t *testing.T) {
	adc := newFakeADC(2048, 2048)
	off, err := Calibrate(adc, xCh, yCh)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSampler(adc, xCh, yCh, off)
	x, y, err := s.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if x.Calibrated != 2048 || y.Calibrated != 2048 || x.Held {
		t.Fatalf("got x=%+v y=%+v", x, y)
	}
}

func TestFilterXHoldsInsteadOfClamping(t *testing.T) {
	s := NewSampler(nil, xCh, yCh, types.CalibrationOffset{X: 10})

	a := s.FilterX(2000)
	if a.Calibrated != 2010 || a.Held {
		t.Fatalf("first sample = %+v, want 2010", a)
	}

	a = s.FilterX(4090) // 4100 calibrated
	if !a.Held || a.Calibrated != 2010 {
		t.Fatalf("overflowing sample = %+v, want held 2010", a)
	}
	if s.LastX() != 2010 {
		t.Fatalf("LastX = %d, want 2010", s.LastX())
	}

	a = s.FilterX(4085) // exactly 4095
	if a.Held || a.Calibrated != 4095 {
		t.Fatalf("boundary sample = %+v, want 4095", a)
	}
}

func TestFilterXHoldsNegative(t *testing.T) {
	s := NewSampler(nil, xCh, yCh, types.CalibrationOffset{X: -100})
	a := s.FilterX(50)
	if !a.Held || a.Calibrated != types.ADCMidpoint {
		t.Fatalf("negative sample = %+v, want held midpoint", a)
	}
	if a.Raw != 50 || a.Offset != -100 {
		t.Fatalf("raw/offset not recorded: %+v", a)
	}
}

func TestCalibrateYSaturates(t *testing.T) {
	s := NewSampler(nil, xCh, yCh, types.CalibrationOffset{Y: 200})
	if a := s.CalibrateY(4000); a.Calibrated != 4095 || a.Held {
		t.Fatalf("high Y = %+v, want 4095", a)
	}
	s = NewSampler(nil, xCh, yCh, types.CalibrationOffset{Y: -200})
	if a := s.CalibrateY(100); a.Calibrated != 0 {
		t.Fatalf("low Y = %+v, want 0", a)
	}
}

func TestSampleErrorPropagates(t *testing.T) {
	adc := newFakeADC(2048, 2048)
	s := NewSampler(adc, xCh, yCh, types.CalibrationOffset{})
	adc.readErr[yCh] = errors.New("timeout")

	_, _, err := s.Sample()
	if errcode.Of(err) != errcode.ADCReadFailed {
		t.Fatalf("err = %v, want adc_read_failed", err)
	}
	var e *errcode.E
	if !errors.As(err, &e) || e.Op != "joystick.sample.y" {
		t.Fatalf("err op = %v", err)
	}
	// X was accepted before Y failed.
	if s.LastX() != 2048 {
		t.Fatalf("LastX = %d", s.LastX())
	}
}
