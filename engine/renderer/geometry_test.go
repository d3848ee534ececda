package renderer

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func TestTriangleVerticesOnCircle(t *testing.T) {
	for _, seconds := range []float64{0.0, 0.1, 1.25, 2.5, 4.999, 12345.678} {
		vertices := TriangleAt(seconds)
		for i, v := range vertices {
			dist := math.Hypot(float64(v.Position[0]), float64(v.Position[1]))
			if math.Abs(dist-TriangleRadius) > tolerance {
				t.Errorf("t=%v vertex %d at distance %v, want %v", seconds, i, dist, TriangleRadius)
			}
		}
	}
}

func TestTriangleVertexSpacing(t *testing.T) {
	vertices := TriangleAt(1.234)

	angles := make([]float64, 3)
	for i, v := range vertices {
		angles[i] = math.Atan2(float64(v.Position[1]), float64(v.Position[0]))
	}

	// Neighbouring vertices sit 120 degrees apart on the circle.
	want := 2.0 * math.Pi / 3.0
	for _, pair := range [][2]int{{0, 1}, {1, 2}, {2, 0}} {
		diff := math.Mod(angles[pair[1]]-angles[pair[0]]+4.0*math.Pi, 2.0*math.Pi)
		if math.Abs(diff-want) > tolerance {
			t.Errorf("angle between vertex %d and %d is %v, want %v", pair[0], pair[1], diff, want)
		}
	}
}

func TestTriangleFullRevolutionPeriod(t *testing.T) {
	for _, seconds := range []float64{0.0, 0.75, 3.2} {
		a := TriangleAt(seconds)
		b := TriangleAt(seconds + RotationPeriod)
		for i := range a {
			dx := math.Abs(float64(a[i].Position[0] - b[i].Position[0]))
			dy := math.Abs(float64(a[i].Position[1] - b[i].Position[1]))
			if dx > tolerance || dy > tolerance {
				t.Errorf("t=%v vertex %d moved across one full period: %v vs %v", seconds, i, a[i], b[i])
			}
		}
	}
}

func TestTriangleAtHalfPeriod(t *testing.T) {
	// Half way through a revolution the leading vertex is at angle pi and the
	// trailing vertices sit a third of a turn to either side.
	vertices := TriangleAt(RotationPeriod / 2.0)

	angles := []float64{
		math.Pi,
		math.Pi + 2.0*math.Pi/3.0,
		math.Pi - 2.0*math.Pi/3.0,
	}
	for i, angle := range angles {
		wantX := TriangleRadius * math.Cos(angle)
		wantY := TriangleRadius * math.Sin(angle)
		if math.Abs(float64(vertices[i].Position[0])-wantX) > tolerance {
			t.Errorf("vertex %d x = %v, want %v", i, vertices[i].Position[0], wantX)
		}
		if math.Abs(float64(vertices[i].Position[1])-wantY) > tolerance {
			t.Errorf("vertex %d y = %v, want %v", i, vertices[i].Position[1], wantY)
		}
	}
}

func TestLeadAngleRange(t *testing.T) {
	for _, seconds := range []float64{0.0, 2.5, 4.9999, 5.0, 1e9 + 0.5} {
		angle := LeadAngle(seconds)
		if angle < 0 || angle >= 2.0*math.Pi+tolerance {
			t.Errorf("t=%v lead angle %v out of [0, 2pi)", seconds, angle)
		}
	}
}

func TestLeadAngleMonotonicWithinPeriod(t *testing.T) {
	// The rotation is counter-clockwise and never reverses.
	previous := LeadAngle(0.0)
	for seconds := 0.05; seconds < RotationPeriod; seconds += 0.05 {
		current := LeadAngle(seconds)
		if current <= previous {
			t.Fatalf("lead angle reversed: %v at t=%v after %v", current, seconds, previous)
		}
		previous = current
	}
}

func TestLeadAngleAdvances(t *testing.T) {
	// A quarter period advances the angle by pi/2.
	start := LeadAngle(1.0)
	quarter := LeadAngle(1.0 + RotationPeriod/4.0)
	diff := math.Mod(quarter-start+2.0*math.Pi, 2.0*math.Pi)
	if math.Abs(diff-math.Pi/2.0) > tolerance {
		t.Errorf("quarter period advanced the angle by %v, want %v", diff, math.Pi/2.0)
	}
}
