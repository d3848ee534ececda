package core

import (
	"testing"
	"time"
)

func TestEpochSecondsAdvances(t *testing.T) {
	before := EpochSeconds()
	time.Sleep(2 * time.Millisecond)
	after := EpochSeconds()

	if after <= before {
		t.Errorf("epoch seconds did not advance: before=%v after=%v", before, after)
	}
}

func TestClockElapsed(t *testing.T) {
	clock := NewClock()
	clock.Start()
	time.Sleep(2 * time.Millisecond)
	clock.Update()

	if clock.Elapsed() <= 0 {
		t.Errorf("elapsed = %v, want > 0", clock.Elapsed())
	}

	clock.Stop()
	elapsed := clock.Elapsed()
	clock.Update()
	if clock.Elapsed() != elapsed {
		t.Errorf("elapsed changed after Stop: %v != %v", clock.Elapsed(), elapsed)
	}
}
