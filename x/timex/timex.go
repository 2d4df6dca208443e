package timex

import "time"

// Monotonic reports milliseconds elapsed since it was created, as a wrapping
// uint32 in the style of a microcontroller's "ms since boot" counter.
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a counter at zero.
func NewMonotonic() *Monotonic { return &Monotonic{start: time.Now()} }

// NowMs returns the wrapped millisecond count.
func (m *Monotonic) NowMs() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// ElapsedMs returns now-since with wrap-around handled by unsigned arithmetic.
func ElapsedMs(now, since uint32) uint32 { return now - since }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint64) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(time.Second) / freqHz
}

// ResetTimer stops, drains and re-arms t.
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
