package timex

import (
	"math"
	"testing"
	"time"
)

func TestElapsedMsWraps(t *testing.T) {
	if got := ElapsedMs(150, 100); got != 50 {
		t.Fatalf("ElapsedMs = %d", got)
	}
	// 10 ms across the uint32 wrap point.
	if got := ElapsedMs(5, math.MaxUint32-4); got != 10 {
		t.Fatalf("ElapsedMs across wrap = %d, want 10", got)
	}
}

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(1000); got != 1_000_000 {
		t.Fatalf("PeriodFromHz(1000) = %d", got)
	}
	if got := PeriodFromHz(0); got != uint64(time.Second) {
		t.Fatalf("PeriodFromHz(0) = %d", got)
	}
}

func TestMonotonicAdvances(t *testing.T) {
	m := NewMonotonic()
	a := m.NowMs()
	time.Sleep(15 * time.Millisecond)
	if b := m.NowMs(); ElapsedMs(b, a) < 10 {
		t.Fatalf("monotonic did not advance: %d -> %d", a, b)
	}
}

func TestResetTimer(t *testing.T) {
	tm := time.NewTimer(time.Millisecond)
	time.Sleep(5 * time.Millisecond) // let it fire without draining
	ResetTimer(tm, 20*time.Millisecond)
	select {
	case <-tm.C:
		t.Fatal("stale tick was not drained")
	case <-time.After(5 * time.Millisecond):
	}
	select {
	case <-tm.C:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer did not re-arm")
	}
}
