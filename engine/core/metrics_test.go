package core

import (
	"math"
	"testing"
)

func TestMetricsFrameTimeAverage(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatal(err)
	}

	// A full window of 16ms frames averages to 16ms.
	for i := uint8(0); i < AVG_COUNT; i++ {
		MetricsUpdate(0.016)
	}
	if got := MetricsFrameTime(); math.Abs(got-16.0) > 1e-9 {
		t.Errorf("frame time average = %v ms, want 16", got)
	}
}

func TestMetricsFPS(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatal(err)
	}
	metricsState.AccumulatedFrameMS = 0
	metricsState.Frames = 0

	// 60 frames of ~16.7ms cross the one second mark.
	for i := 0; i < 61; i++ {
		MetricsUpdate(1.0 / 60.0)
	}
	fps, _ := MetricsFrame()
	if math.Abs(fps-60.0) > 1.0 {
		t.Errorf("fps = %v, want about 60", fps)
	}
	if got := MetricsFPS(); got != fps {
		t.Errorf("MetricsFPS = %v, want %v", got, fps)
	}
}
